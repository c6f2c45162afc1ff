package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledManagerIsNoop(t *testing.T) {
	m := NewManager(Config{Enabled: false})
	bar := m.JobBar("meeting.mp3")

	assert.NotPanics(t, func() {
		bar.Update("processing", 50)
		bar.Finish("completed", true)
		m.Wait()
	})
}

func TestJobBarCompletes(t *testing.T) {
	var out bytes.Buffer
	m := NewManager(Config{Enabled: true, Writer: &out})
	bar := m.JobBar("meeting.mp3")

	bar.Update("processing", 40)
	bar.Update("processing", 20)
	assert.Equal(t, int64(40), bar.bar.Current(), "progress never moves backwards")

	bar.Finish("completed", true)
	m.Wait()

	assert.Contains(t, out.String(), "meeting.mp3")
}

func TestJobBarAborts(t *testing.T) {
	var out bytes.Buffer
	m := NewManager(Config{Enabled: true, Writer: &out})
	bar := m.JobBar("broken.wav")

	bar.Update("processing", 30)
	bar.Finish("error", false)
	m.Wait()

	assert.Contains(t, out.String(), "broken.wav")
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))
	assert.True(t, ShouldShowProgress(true))
}
