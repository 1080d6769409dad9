package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/APTrust/integrity-services/constants"
	"github.com/APTrust/integrity-services/models/common"
	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/op/go-logging"
)

var (
	ErrAlreadyRunning = errors.New("Supervisor is already running")
	ErrShutDown       = errors.New("Supervisor has been shut down")
)

// Settings control the supervisor's schedule.
type Settings struct {
	// Interval is the normal wait between sweeps.
	Interval time.Duration

	// BackoffInterval is the wait after a failed sweep.
	BackoffInterval time.Duration

	// EnhancedInterval and EnhancedSweeps tighten the schedule after
	// a MEDIUM response: the next EnhancedSweeps waits use
	// EnhancedInterval. Zero in either field disables this.
	EnhancedInterval time.Duration
	EnhancedSweeps   int
}

func DefaultSettings() Settings {
	return Settings{
		Interval:        constants.DefaultSweepInterval,
		BackoffInterval: constants.DefaultBackoffInterval,
	}
}

// NewSettings returns the schedule described by config.
func NewSettings(config *common.Config) Settings {
	return Settings{
		Interval:         config.SweepInterval,
		BackoffInterval:  config.BackoffInterval,
		EnhancedInterval: config.EnhancedInterval,
		EnhancedSweeps:   config.EnhancedSweeps,
	}
}

// Sleeper waits for d, returning early with nil if wake delivers a
// value, or with ctx.Err() if ctx is done first. A nil wake channel
// never delivers.
type Sleeper func(ctx context.Context, d time.Duration, wake <-chan string) error

func Sleep(ctx context.Context, d time.Duration, wake <-chan string) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	case <-wake:
		return nil
	}
}

// Supervisor owns the sweep loop and the posture it produces.
//
// Status moves OFFLINE -> MONITORING on Initialize, then to SECURE
// or COMPROMISED after each sweep. A failed sweep or Shutdown moves
// it back to OFFLINE. A failed sweep does not stop the loop: the next
// sweep simply waits BackoffInterval instead of Interval.
//
// Posture is published through a single Cell, so status and threat
// always change together.
type Supervisor struct {
	Settings   Settings
	Artifacts  []integrity.Artifact
	Store      BaselineStore
	Scanner    *Scanner
	Dispatcher *Dispatcher
	Logger     *logging.Logger

	// Wake, if set, cuts a normal wait short. It is ignored during a
	// backoff wait.
	Wake <-chan string

	// Sleep defaults to the package-level Sleep. Tests replace it to
	// control time.
	Sleep Sleeper

	posture    *Cell[integrity.Posture]
	nextDelay  atomic.Int64
	enhanced   int
	stopped    bool
	sweepMutex sync.Mutex
	mutex      sync.Mutex
	cancel     context.CancelFunc
	done       chan struct{}
}

// BaselineStore is what the supervisor needs from a baseline: a
// way to load it and a way to read it.
type BaselineStore interface {
	BaselineReader
	Load(ctx context.Context) error
}

func NewSupervisor(settings Settings, artifacts []integrity.Artifact, store BaselineStore, scanner *Scanner, dispatcher *Dispatcher, logger *logging.Logger) *Supervisor {
	return &Supervisor{
		Settings:   settings,
		Artifacts:  artifacts,
		Store:      store,
		Scanner:    scanner,
		Dispatcher: dispatcher,
		Logger:     logger,
		Sleep:      Sleep,
		posture:    NewCell(integrity.OfflinePosture()),
	}
}

// Posture returns the observable posture.
func (s *Supervisor) Posture() Observable[integrity.Posture] {
	return s.posture
}

func (s *Supervisor) Status() integrity.IntegrityStatus {
	return s.posture.Get().Status
}

func (s *Supervisor) Threat() integrity.ThreatLevel {
	return s.posture.Get().Threat
}

// NextDelay returns the wait the loop is currently in, or last
// scheduled. It is zero before the first wait.
func (s *Supervisor) NextDelay() time.Duration {
	return time.Duration(s.nextDelay.Load())
}

// Initialize loads the baseline, moves to MONITORING and starts the
// sweep loop. The loop runs until Shutdown is called or ctx is done.
// If the baseline cannot be loaded, the supervisor stays OFFLINE and
// no loop is started.
func (s *Supervisor) Initialize(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.isRunning() {
		return ErrAlreadyRunning
	}
	if err := s.Store.Load(ctx); err != nil {
		return err
	}
	s.Logger.Infof("Baseline loaded. Monitoring %d artifacts from %s every %s",
		len(s.Artifacts), s.Scanner.Source.Name(), s.Settings.Interval)
	s.sweepMutex.Lock()
	s.enhanced = 0
	s.stopped = false
	s.sweepMutex.Unlock()
	s.publish(integrity.Posture{
		Status:     integrity.StatusMonitoring,
		Threat:     integrity.ThreatNone,
		UpdatedAt:  time.Now().UTC(),
		Violations: make([]*integrity.Violation, 0),
	})
	if s.cancel != nil {
		s.cancel()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(loopCtx, s.done)
	return nil
}

// Shutdown stops the loop and waits for it to exit. Any sweep in
// progress is abandoned without publishing. Status is OFFLINE when
// Shutdown returns and stays OFFLINE until the next Initialize:
// RunSweep returns ErrShutDown in between. Calling Shutdown more than
// once, or before Initialize, is safe.
func (s *Supervisor) Shutdown() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.cancel != nil {
		s.cancel()
		<-s.done
		s.cancel = nil
	}
	s.sweepMutex.Lock()
	s.stopped = true
	if s.Status() != integrity.StatusOffline {
		s.publish(integrity.OfflinePosture())
	}
	s.sweepMutex.Unlock()
	s.Logger.Info("Supervisor shut down")
}

func (s *Supervisor) isRunning() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// run is the sweep loop. When it exits, for Shutdown or because the
// caller's context ended, it publishes OFFLINE before signalling done.
func (s *Supervisor) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.publish(integrity.OfflinePosture())
	delay, backoff := s.Settings.Interval, false
	for {
		s.nextDelay.Store(int64(delay))
		var wake <-chan string
		if !backoff {
			wake = s.Wake
		}
		if err := s.Sleep(ctx, delay, wake); err != nil {
			return
		}
		_, err := s.RunSweep(ctx)
		if ctx.Err() != nil {
			return
		}
		delay, backoff = s.scheduleNext(err)
	}
}

// scheduleNext returns the wait before the next sweep and whether
// that wait is a backoff.
func (s *Supervisor) scheduleNext(sweepErr error) (time.Duration, bool) {
	if sweepErr != nil {
		return s.Settings.BackoffInterval, true
	}
	s.sweepMutex.Lock()
	defer s.sweepMutex.Unlock()
	if s.enhanced > 0 {
		s.enhanced--
		return s.Settings.EnhancedInterval, false
	}
	return s.Settings.Interval, false
}

// RunSweep runs one sweep, publishes its posture and invokes the
// response path if there are violations. Sweeps never overlap: a
// call made while the loop is sweeping waits for it. RunSweep works
// without Initialize, for one-off sweeps, but not after Shutdown.
//
// A scan failure publishes OFFLINE, keeping the last known threat,
// and is returned. A response path failure is logged and does not
// change the posture. If ctx is cancelled mid-sweep, nothing is
// published.
func (s *Supervisor) RunSweep(ctx context.Context) (*integrity.SweepResult, error) {
	s.sweepMutex.Lock()
	defer s.sweepMutex.Unlock()
	if s.stopped {
		return nil, ErrShutDown
	}

	result, err := s.Scanner.Scan(ctx, s.Artifacts, s.Store)
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	if err != nil {
		s.logScanError(err)
		last := s.posture.Get()
		s.publish(integrity.Posture{
			Status:     integrity.StatusOffline,
			Threat:     last.Threat,
			SweepID:    result.SweepID,
			UpdatedAt:  time.Now().UTC(),
			Violations: last.Violations,
		})
		return result, err
	}

	assessment := s.Dispatcher.Assess(result.Violations)
	s.publish(integrity.Posture{
		Status:     assessment.Status,
		Threat:     assessment.Threat,
		SweepID:    result.SweepID,
		UpdatedAt:  result.FinishedAt,
		Violations: result.Violations,
	})
	s.Logger.Infof("Sweep %s: checked %d, absent %d, unbaselined %d, violations %d, status %s, threat %s (%s)",
		result.SweepID, result.Checked, result.Absent, result.Unbaselined,
		len(result.Violations), assessment.Status, assessment.Threat, result.RunTime())

	s.Dispatcher.Observe(ctx, result)
	if !result.HasViolations() {
		return result, nil
	}
	if assessment.Threat == integrity.ThreatMedium && s.Settings.EnhancedInterval > 0 && s.Settings.EnhancedSweeps > 0 {
		s.enhanced = s.Settings.EnhancedSweeps
	}
	if err := s.Dispatcher.Respond(ctx, assessment, result.Violations); err != nil {
		s.Logger.Errorf("Sweep %s: %s response failed: %v", result.SweepID, assessment.Action(), err)
	}
	return result, nil
}

func (s *Supervisor) logScanError(err error) {
	var detailed *common.Error
	if errors.As(err, &detailed) {
		s.Logger.Errorf("%s. Next attempt in %s.", detailed.Detail(), s.Settings.BackoffInterval)
		return
	}
	s.Logger.Errorf("%v. Next attempt in %s.", err, s.Settings.BackoffInterval)
}

func (s *Supervisor) publish(posture integrity.Posture) {
	if posture.Violations == nil {
		posture.Violations = make([]*integrity.Violation, 0)
	}
	s.posture.Set(posture)
}
