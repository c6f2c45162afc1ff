package progress

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Config controls whether bars are drawn and where
type Config struct {
	Enabled bool
	Writer  io.Writer
}

// Manager owns the bar container
type Manager struct {
	container *mpb.Progress
	enabled   bool
}

// Bar tracks one job's progress out of 100. A disabled bar ignores every call.
type Bar struct {
	bar     *mpb.Bar
	status  atomic.Value
	enabled bool
}

// NewManager creates a manager; with Enabled false it draws nothing
func NewManager(config Config) *Manager {
	if !config.Enabled {
		return &Manager{enabled: false}
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	return &Manager{
		container: mpb.New(
			mpb.WithOutput(writer),
			mpb.WithRefreshRate(120*time.Millisecond),
		),
		enabled: true,
	}
}

// JobBar adds a bar labelled with the job name whose suffix shows the status
func (m *Manager) JobBar(name string) *Bar {
	if !m.enabled || m.container == nil {
		return &Bar{enabled: false}
	}

	b := &Bar{enabled: true}
	b.status.Store("pending")
	b.bar = m.container.AddBar(100,
		mpb.PrependDecorators(
			decor.Name(name+" ", decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.Any(func(decor.Statistics) string { return b.status.Load().(string) }, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.NewPercentage("%d", decor.WCSyncSpace), " ✓"),
			decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace),
		),
	)
	return b
}

// Update moves the bar to progress and records the status label
func (b *Bar) Update(status string, progress int) {
	if !b.enabled || b.bar == nil {
		return
	}
	b.status.Store(status)
	if progress > 100 {
		progress = 100
	}
	if int64(progress) > b.bar.Current() {
		b.bar.SetCurrent(int64(progress))
	}
}

// Finish completes the bar. A failed job leaves the bar where it stopped.
func (b *Bar) Finish(status string, success bool) {
	if !b.enabled || b.bar == nil {
		return
	}
	b.status.Store(status)
	if success {
		b.bar.SetCurrent(100)
		return
	}
	b.bar.Abort(false)
}

// Wait blocks until all bars are complete or aborted
func (m *Manager) Wait() {
	if m.enabled && m.container != nil {
		m.container.Wait()
	}
}

// IsTTY reports whether writer is a terminal
func IsTTY(writer io.Writer) bool {
	if file, ok := writer.(*os.File); ok {
		stat, err := file.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// ShouldShowProgress draws bars when forced or when attached to a terminal
func ShouldShowProgress(forced bool) bool {
	if forced {
		return true
	}
	return IsTTY(os.Stderr) || IsTTY(os.Stdout)
}
