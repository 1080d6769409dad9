package response

import (
	"context"
	"errors"

	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/APTrust/integrity-services/monitor"
	"github.com/APTrust/integrity-services/network"
	"github.com/op/go-logging"
)

// HistoryRecorder keeps a capped history of violations in Redis and
// mirrors the current posture there, so other processes can see what
// the monitor sees.
type HistoryRecorder struct {
	Client *network.RedisClient
	Limit  int
	Logger *logging.Logger
}

func NewHistoryRecorder(client *network.RedisClient, limit int, logger *logging.Logger) *HistoryRecorder {
	return &HistoryRecorder{
		Client: client,
		Limit:  limit,
		Logger: logger,
	}
}

func (h *HistoryRecorder) LogForAnalysis(ctx context.Context, violations []*integrity.Violation) error {
	return h.record(violations)
}

func (h *HistoryRecorder) EnhanceMonitoring(ctx context.Context, violations []*integrity.Violation) error {
	return h.record(violations)
}

func (h *HistoryRecorder) DefensiveMeasures(ctx context.Context, violations []*integrity.Violation) error {
	return h.record(violations)
}

func (h *HistoryRecorder) EmergencyLockdown(ctx context.Context, violations []*integrity.Violation) error {
	return h.record(violations)
}

func (h *HistoryRecorder) record(violations []*integrity.Violation) error {
	var errs []error
	for _, v := range violations {
		if err := h.Client.ViolationSave(v, h.Limit); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recent returns up to count violations, newest first.
func (h *HistoryRecorder) Recent(count int) ([]*integrity.Violation, error) {
	return h.Client.ViolationList(count)
}

// WatchPosture saves every posture published by observable until ctx
// is done or the subscription closes. Run it in its own goroutine.
// done, if not nil, is closed when WatchPosture returns.
func (h *HistoryRecorder) WatchPosture(ctx context.Context, observable monitor.Observable[integrity.Posture], done chan<- struct{}) {
	if done != nil {
		defer close(done)
	}
	postures, unsubscribe := observable.Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case posture, ok := <-postures:
			if !ok {
				return
			}
			if err := h.Client.PostureSave(posture); err != nil {
				h.Logger.Warningf("Cannot save posture to Redis: %v", err)
			}
		}
	}
}
