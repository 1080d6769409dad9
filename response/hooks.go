package response

import (
	"context"

	"github.com/APTrust/integrity-services/models/integrity"
)

// HookFunc performs a platform-specific action, such as isolating
// the host or revoking sessions.
type HookFunc func(ctx context.Context, violations []*integrity.Violation) error

// Hooks is the seam for platform remediation. Nil hooks do nothing.
// Enhanced monitoring is the supervisor's own schedule change and
// log-for-analysis is covered by LogResponder, so they have no hook.
type Hooks struct {
	Defend   HookFunc
	Lockdown HookFunc
}

func (h *Hooks) LogForAnalysis(ctx context.Context, violations []*integrity.Violation) error {
	return nil
}

func (h *Hooks) EnhanceMonitoring(ctx context.Context, violations []*integrity.Violation) error {
	return nil
}

func (h *Hooks) DefensiveMeasures(ctx context.Context, violations []*integrity.Violation) error {
	if h.Defend == nil {
		return nil
	}
	return h.Defend(ctx, violations)
}

// EmergencyLockdown runs the defensive hook before the lockdown
// hook, since anything worth a lockdown is worth defending against.
func (h *Hooks) EmergencyLockdown(ctx context.Context, violations []*integrity.Violation) error {
	if err := h.DefensiveMeasures(ctx, violations); err != nil {
		return err
	}
	if h.Lockdown == nil {
		return nil
	}
	return h.Lockdown(ctx, violations)
}
