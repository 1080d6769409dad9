// Package response holds the concrete response paths a supervisor
// dispatches to. Each type here implements monitor.Responder; Chain
// runs several of them for one sweep.
package response

import (
	"context"

	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/op/go-logging"
)

// LogResponder records every violation in the log, at a level that
// rises with the response path.
type LogResponder struct {
	Logger *logging.Logger
}

func NewLogResponder(logger *logging.Logger) *LogResponder {
	return &LogResponder{Logger: logger}
}

func (r *LogResponder) LogForAnalysis(ctx context.Context, violations []*integrity.Violation) error {
	for _, v := range violations {
		r.Logger.Infof("Logged for analysis: %s", v.String())
	}
	return nil
}

func (r *LogResponder) EnhanceMonitoring(ctx context.Context, violations []*integrity.Violation) error {
	for _, v := range violations {
		r.Logger.Warningf("Enhanced monitoring: %s", v.String())
	}
	return nil
}

func (r *LogResponder) DefensiveMeasures(ctx context.Context, violations []*integrity.Violation) error {
	for _, v := range violations {
		r.Logger.Errorf("Defensive measures: %s", v.String())
	}
	return nil
}

func (r *LogResponder) EmergencyLockdown(ctx context.Context, violations []*integrity.Violation) error {
	for _, v := range violations {
		r.Logger.Criticalf("EMERGENCY LOCKDOWN: %s", v.String())
	}
	return nil
}
