package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voicescribe/internal/app/gateway"
)

// Submission records one call to FakeGateway.Submit
type Submission struct {
	AudioLocation string
	Config        gateway.Config
	Handle        string
	Err           error
}

// FakeGateway is a scripted TranscriptionGateway. Handles are issued as
// "<name>_<n>"; Status returns whatever was set for the handle, queued when
// nothing was.
type FakeGateway struct {
	mu sync.Mutex

	name          string
	next          int
	submitErr     error
	submitLatency time.Duration
	cancelErr     error
	statuses      map[string]*gateway.Update
	statusErrs    map[string]error

	submissions []Submission
	statusCalls map[string]int
	cancelled   []string
	cancelCh    chan string
}

// NewFakeGateway creates a fake gateway reporting the given provider name
func NewFakeGateway(name string) *FakeGateway {
	return &FakeGateway{
		name:        name,
		statuses:    make(map[string]*gateway.Update),
		statusErrs:  make(map[string]error),
		statusCalls: make(map[string]int),
		cancelCh:    make(chan string, 64),
	}
}

// WithSubmitError makes every following Submit fail with err; nil clears it
func (f *FakeGateway) WithSubmitError(err error) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitErr = err
	return f
}

// WithSubmitLatency delays Submit, honouring ctx
func (f *FakeGateway) WithSubmitLatency(d time.Duration) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitLatency = d
	return f
}

// WithCancelError makes Cancel fail with err after recording the call
func (f *FakeGateway) WithCancelError(err error) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelErr = err
	return f
}

// SetStatus scripts the update returned for handle
func (f *FakeGateway) SetStatus(handle string, u *gateway.Update) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[handle] = u
	delete(f.statusErrs, handle)
	return f
}

// SetStatusError makes Status fail for handle
func (f *FakeGateway) SetStatusError(handle string, err error) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusErrs[handle] = err
	return f
}

// Name implements gateway.TranscriptionGateway
func (f *FakeGateway) Name() string {
	return f.name
}

// Submit implements gateway.TranscriptionGateway
func (f *FakeGateway) Submit(ctx context.Context, audioLocation string, cfg gateway.Config) (string, error) {
	f.mu.Lock()
	latency := f.submitLatency
	f.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return "", &gateway.Error{Code: gateway.CodeNetwork, Message: ctx.Err().Error(), Provider: f.name, Retryable: true}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		f.submissions = append(f.submissions, Submission{AudioLocation: audioLocation, Config: cfg, Err: f.submitErr})
		return "", f.submitErr
	}
	f.next++
	handle := fmt.Sprintf("%s_%d", f.name, f.next)
	f.submissions = append(f.submissions, Submission{AudioLocation: audioLocation, Config: cfg, Handle: handle})
	return handle, nil
}

// Status implements gateway.TranscriptionGateway
func (f *FakeGateway) Status(_ context.Context, handle string) (*gateway.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls[handle]++
	if err, ok := f.statusErrs[handle]; ok {
		return nil, err
	}
	if u, ok := f.statuses[handle]; ok {
		copied := *u
		return &copied, nil
	}
	return &gateway.Update{State: gateway.StateQueued}, nil
}

// Cancel implements gateway.TranscriptionGateway
func (f *FakeGateway) Cancel(_ context.Context, handle string) error {
	f.mu.Lock()
	f.cancelled = append(f.cancelled, handle)
	err := f.cancelErr
	f.mu.Unlock()

	select {
	case f.cancelCh <- handle:
	default:
	}
	return err
}

// Submissions returns every Submit call so far
func (f *FakeGateway) Submissions() []Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Submission, len(f.submissions))
	copy(out, f.submissions)
	return out
}

// StatusCalls returns how many times Status was asked about handle
func (f *FakeGateway) StatusCalls(handle string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls[handle]
}

// Cancelled returns the handles Cancel was called with
func (f *FakeGateway) Cancelled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.cancelled))
	copy(out, f.cancelled)
	return out
}

// WaitForCancel blocks until Cancel is called or timeout passes
func (f *FakeGateway) WaitForCancel(timeout time.Duration) (string, bool) {
	select {
	case h := <-f.cancelCh:
		return h, true
	case <-time.After(timeout):
		return "", false
	}
}

var _ gateway.TranscriptionGateway = (*FakeGateway)(nil)
