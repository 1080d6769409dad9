package monitor_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/APTrust/integrity-services/source"
	"github.com/stretchr/testify/mock"
)

var errDiskRead = errors.New("simulated disk read error")

// MockResponder records which response paths were invoked.
type MockResponder struct {
	mock.Mock
}

func (m *MockResponder) LogForAnalysis(ctx context.Context, violations []*integrity.Violation) error {
	return m.Called(violations).Error(0)
}

func (m *MockResponder) EnhanceMonitoring(ctx context.Context, violations []*integrity.Violation) error {
	return m.Called(violations).Error(0)
}

func (m *MockResponder) DefensiveMeasures(ctx context.Context, violations []*integrity.Violation) error {
	return m.Called(violations).Error(0)
}

func (m *MockResponder) EmergencyLockdown(ctx context.Context, violations []*integrity.Violation) error {
	return m.Called(violations).Error(0)
}

// newMockResponder returns a responder on which every path succeeds.
func newMockResponder() *MockResponder {
	responder := &MockResponder{}
	for _, method := range []string{"LogForAnalysis", "EnhanceMonitoring", "DefensiveMeasures", "EmergencyLockdown"} {
		responder.On(method, mock.Anything).Return(nil)
	}
	return responder
}

// observingResponder is a MockResponder that also records every
// sweep it is shown.
type observingResponder struct {
	*MockResponder
	mutex  sync.Mutex
	sweeps []*integrity.SweepResult
}

func (r *observingResponder) ObserveSweep(ctx context.Context, result *integrity.SweepResult) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.sweeps = append(r.sweeps, result)
}

func (r *observingResponder) Sweeps() []*integrity.SweepResult {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]*integrity.SweepResult(nil), r.sweeps...)
}

// flakySource wraps a Source and, while failing is set, hands out
// readers that fail partway through hashing.
type flakySource struct {
	source.Source
	failing atomic.Bool
}

func (s *flakySource) Open(ctx context.Context, identifier string) (io.ReadCloser, error) {
	reader, err := s.Source.Open(ctx, identifier)
	if err != nil || !s.failing.Load() {
		return reader, err
	}
	reader.Close()
	return io.NopCloser(iotest.ErrReader(errDiskRead)), nil
}

type wait struct {
	Delay    time.Duration
	Wakeable bool
}

// stepSleeper lets a test see each wait the loop asks for and decide
// when it ends.
type stepSleeper struct {
	waits   chan wait
	release chan struct{}
}

func newStepSleeper() *stepSleeper {
	return &stepSleeper{
		waits:   make(chan wait),
		release: make(chan struct{}),
	}
}

func (s *stepSleeper) Sleep(ctx context.Context, d time.Duration, wake <-chan string) error {
	select {
	case s.waits <- wait{Delay: d, Wakeable: wake != nil}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-s.release:
		return nil
	case <-wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// next returns the next wait the loop enters. Everything the loop
// did before that wait, including publishing and responding, has
// happened by the time next returns.
func (s *stepSleeper) next(t *testing.T) wait {
	t.Helper()
	select {
	case w := <-s.waits:
		return w
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the supervisor to sleep")
	}
	return wait{}
}

// tick ends the current wait.
func (s *stepSleeper) tick() {
	s.release <- struct{}{}
}
