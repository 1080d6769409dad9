package monitor

import (
	"context"

	"github.com/APTrust/integrity-services/constants"
	"github.com/APTrust/integrity-services/models/integrity"
)

// Responder implements the four response paths. Each call receives
// every violation from the sweep, not just those at the triggering
// severity.
type Responder interface {
	LogForAnalysis(ctx context.Context, violations []*integrity.Violation) error
	EnhanceMonitoring(ctx context.Context, violations []*integrity.Violation) error
	DefensiveMeasures(ctx context.Context, violations []*integrity.Violation) error
	EmergencyLockdown(ctx context.Context, violations []*integrity.Violation) error
}

// SweepObserver is implemented by responders that keep state across
// sweeps. ObserveSweep is called after every completed sweep, clean
// or not, before any response path runs.
type SweepObserver interface {
	ObserveSweep(ctx context.Context, result *integrity.SweepResult)
}

// Assessment is the posture a sweep's violations call for.
type Assessment struct {
	Threat integrity.ThreatLevel
	Status integrity.IntegrityStatus
}

// Action returns the name of the response path for this assessment,
// or an empty string if no response is needed.
func (a Assessment) Action() string {
	switch a.Threat {
	case integrity.ThreatCritical:
		return constants.ActionEmergencyLockdown
	case integrity.ThreatHigh:
		return constants.ActionDefensiveMeasures
	case integrity.ThreatMedium:
		return constants.ActionEnhanceMonitoring
	case integrity.ThreatLow:
		return constants.ActionLogForAnalysis
	}
	return ""
}

// Assess reduces violations to a single posture. No violations means
// NONE and SECURE. Otherwise the threat is the highest severity seen
// and the status is COMPROMISED.
func Assess(violations []*integrity.Violation) Assessment {
	if len(violations) == 0 {
		return Assessment{Threat: integrity.ThreatNone, Status: integrity.StatusSecure}
	}
	return Assessment{
		Threat: integrity.MaxThreatLevel(integrity.Severities(violations)...),
		Status: integrity.StatusCompromised,
	}
}

// Dispatcher routes an assessment to exactly one response path.
type Dispatcher struct {
	Responder Responder
}

func NewDispatcher(responder Responder) *Dispatcher {
	return &Dispatcher{Responder: responder}
}

// Assess is a convenience wrapper around the package-level Assess.
func (d *Dispatcher) Assess(violations []*integrity.Violation) Assessment {
	return Assess(violations)
}

// Respond invokes the response path for assessment. It does nothing
// when the threat is NONE.
func (d *Dispatcher) Respond(ctx context.Context, assessment Assessment, violations []*integrity.Violation) error {
	switch assessment.Threat {
	case integrity.ThreatCritical:
		return d.Responder.EmergencyLockdown(ctx, violations)
	case integrity.ThreatHigh:
		return d.Responder.DefensiveMeasures(ctx, violations)
	case integrity.ThreatMedium:
		return d.Responder.EnhanceMonitoring(ctx, violations)
	case integrity.ThreatLow:
		return d.Responder.LogForAnalysis(ctx, violations)
	}
	return nil
}

// Observe passes result to the responder if it is a SweepObserver.
func (d *Dispatcher) Observe(ctx context.Context, result *integrity.SweepResult) {
	if observer, ok := d.Responder.(SweepObserver); ok {
		observer.ObserveSweep(ctx, result)
	}
}

// Dispatch assesses violations and responds to the result.
func (d *Dispatcher) Dispatch(ctx context.Context, violations []*integrity.Violation) (Assessment, error) {
	assessment := Assess(violations)
	return assessment, d.Respond(ctx, assessment, violations)
}
