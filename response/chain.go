package response

import (
	"context"
	"errors"

	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/APTrust/integrity-services/monitor"
)

// Chain runs each responder in order. A failing responder doesn't
// stop the ones after it: lockdown hooks still run when alerting is
// down. The returned error joins every failure.
type Chain []monitor.Responder

func (c Chain) LogForAnalysis(ctx context.Context, violations []*integrity.Violation) error {
	return c.each(func(r monitor.Responder) error { return r.LogForAnalysis(ctx, violations) })
}

func (c Chain) EnhanceMonitoring(ctx context.Context, violations []*integrity.Violation) error {
	return c.each(func(r monitor.Responder) error { return r.EnhanceMonitoring(ctx, violations) })
}

func (c Chain) DefensiveMeasures(ctx context.Context, violations []*integrity.Violation) error {
	return c.each(func(r monitor.Responder) error { return r.DefensiveMeasures(ctx, violations) })
}

func (c Chain) EmergencyLockdown(ctx context.Context, violations []*integrity.Violation) error {
	return c.each(func(r monitor.Responder) error { return r.EmergencyLockdown(ctx, violations) })
}

// ObserveSweep forwards result to every responder that observes
// sweeps.
func (c Chain) ObserveSweep(ctx context.Context, result *integrity.SweepResult) {
	for _, responder := range c {
		if observer, ok := responder.(monitor.SweepObserver); ok {
			observer.ObserveSweep(ctx, result)
		}
	}
}

func (c Chain) each(fn func(monitor.Responder) error) error {
	var errs []error
	for _, responder := range c {
		if err := fn(responder); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
