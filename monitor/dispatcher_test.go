package monitor_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/APTrust/integrity-services/constants"
	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/APTrust/integrity-services/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func violationsAt(levels ...integrity.ThreatLevel) []*integrity.Violation {
	violations := make([]*integrity.Violation, len(levels))
	for i, level := range levels {
		violations[i] = integrity.NewViolation(fmt.Sprintf("artifact-%d", i), "expected", "actual", level)
	}
	return violations
}

func TestAssessEmpty(t *testing.T) {
	assessment := monitor.Assess(nil)
	assert.Equal(t, integrity.ThreatNone, assessment.Threat)
	assert.Equal(t, integrity.StatusSecure, assessment.Status)
	assert.Equal(t, "", assessment.Action())
}

func TestAssessTakesMaximum(t *testing.T) {
	cases := []struct {
		levels   []integrity.ThreatLevel
		expected integrity.ThreatLevel
	}{
		{[]integrity.ThreatLevel{integrity.ThreatLow}, integrity.ThreatLow},
		{[]integrity.ThreatLevel{integrity.ThreatLow, integrity.ThreatMedium}, integrity.ThreatMedium},
		{[]integrity.ThreatLevel{integrity.ThreatHigh, integrity.ThreatLow, integrity.ThreatMedium}, integrity.ThreatHigh},
		{[]integrity.ThreatLevel{integrity.ThreatMedium, integrity.ThreatCritical, integrity.ThreatHigh}, integrity.ThreatCritical},
	}
	for _, c := range cases {
		assessment := monitor.Assess(violationsAt(c.levels...))
		assert.Equal(t, c.expected, assessment.Threat, c.levels)
		assert.Equal(t, integrity.StatusCompromised, assessment.Status, c.levels)
	}
}

func TestAssessmentAction(t *testing.T) {
	assert.Equal(t, constants.ActionLogForAnalysis, monitor.Assessment{Threat: integrity.ThreatLow}.Action())
	assert.Equal(t, constants.ActionEnhanceMonitoring, monitor.Assessment{Threat: integrity.ThreatMedium}.Action())
	assert.Equal(t, constants.ActionDefensiveMeasures, monitor.Assessment{Threat: integrity.ThreatHigh}.Action())
	assert.Equal(t, constants.ActionEmergencyLockdown, monitor.Assessment{Threat: integrity.ThreatCritical}.Action())
}

func TestDispatchInvokesExactlyOnePath(t *testing.T) {
	paths := map[integrity.ThreatLevel]string{
		integrity.ThreatLow:      "LogForAnalysis",
		integrity.ThreatMedium:   "EnhanceMonitoring",
		integrity.ThreatHigh:     "DefensiveMeasures",
		integrity.ThreatCritical: "EmergencyLockdown",
	}
	for level, expectedPath := range paths {
		responder := newMockResponder()
		dispatcher := monitor.NewDispatcher(responder)
		violations := violationsAt(integrity.ThreatLow, level)

		assessment, err := dispatcher.Dispatch(context.Background(), violations)
		require.Nil(t, err)
		assert.Equal(t, level, assessment.Threat)

		for _, path := range paths {
			if path == expectedPath {
				responder.AssertNumberOfCalls(t, path, 1)
				responder.AssertCalled(t, path, violations)
			} else {
				responder.AssertNotCalled(t, path, mock.Anything)
			}
		}
	}
}

func TestDispatchNoViolations(t *testing.T) {
	responder := newMockResponder()
	assessment, err := monitor.NewDispatcher(responder).Dispatch(context.Background(), nil)
	require.Nil(t, err)
	assert.Equal(t, integrity.StatusSecure, assessment.Status)
	assert.Empty(t, responder.Calls)
}

func TestDispatchReturnsResponderError(t *testing.T) {
	responder := &MockResponder{}
	responder.On("DefensiveMeasures", mock.Anything).Return(fmt.Errorf("firewall unreachable"))
	dispatcher := monitor.NewDispatcher(responder)

	assessment := dispatcher.Assess(violationsAt(integrity.ThreatHigh))
	err := dispatcher.Respond(context.Background(), assessment, violationsAt(integrity.ThreatHigh))
	require.Error(t, err)
	assert.Equal(t, "firewall unreachable", err.Error())
}

func TestObservePassesSweepToObservers(t *testing.T) {
	observer := &observingResponder{MockResponder: newMockResponder()}
	result := integrity.NewSweepResult()
	monitor.NewDispatcher(observer).Observe(context.Background(), result)
	require.Len(t, observer.Sweeps(), 1)
	assert.Equal(t, result.SweepID, observer.Sweeps()[0].SweepID)

	// A plain Responder is left alone.
	plain := newMockResponder()
	monitor.NewDispatcher(plain).Observe(context.Background(), result)
	assert.Empty(t, plain.Calls)
}
