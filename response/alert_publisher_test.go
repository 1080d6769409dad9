package response_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/APTrust/integrity-services/constants"
	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/APTrust/integrity-services/network"
	"github.com/APTrust/integrity-services/response"
	"github.com/APTrust/integrity-services/util/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertPublisherPublishes(t *testing.T) {
	nsqd := testutil.NewNsqdServer()
	defer nsqd.Close()
	log, _ := testutil.NewLogger()
	publisher := response.NewAlertPublisher(network.NewNSQClient(nsqd.URL), "", log)
	assert.Equal(t, constants.TopicIntegrityAlert, publisher.Topic)

	violations := []*integrity.Violation{hostsViolation, shadowViolation}
	require.Nil(t, publisher.EmergencyLockdown(context.Background(), violations))

	messages := nsqd.Messages(constants.TopicIntegrityAlert)
	require.Len(t, messages, 2)
	alert, err := integrity.AlertFromJSON(messages[0])
	require.Nil(t, err)
	assert.Equal(t, constants.ActionEmergencyLockdown, alert.Action)
	assert.Equal(t, integrity.ThreatCritical, alert.Threat)
	assert.Equal(t, "etc/hosts", alert.Violation.Identifier)
	assert.Equal(t, integrity.ThreatMedium, alert.Violation.Severity)
}

func TestAlertPublisherDedupes(t *testing.T) {
	nsqd := testutil.NewNsqdServer()
	defer nsqd.Close()
	log, _ := testutil.NewLogger()
	publisher := response.NewAlertPublisher(network.NewNSQClient(nsqd.URL), "alerts", log)
	ctx := context.Background()

	require.Nil(t, publisher.EnhanceMonitoring(ctx, []*integrity.Violation{hostsViolation}))

	// Same tampering found again on the next sweep: new violation ID,
	// same identifier and digest.
	again := integrity.NewViolation(hostsViolation.Identifier, hostsViolation.Expected,
		hostsViolation.Actual, hostsViolation.Severity)
	require.Nil(t, publisher.EnhanceMonitoring(ctx, []*integrity.Violation{again}))
	assert.Len(t, nsqd.Messages("alerts"), 1)

	// Tampered again, differently.
	different := integrity.NewViolation(hostsViolation.Identifier, hostsViolation.Expected,
		testutil.Sha256("10.7.7.7 bank"), hostsViolation.Severity)
	require.Nil(t, publisher.LogForAnalysis(ctx, []*integrity.Violation{different}))
	assert.Len(t, nsqd.Messages("alerts"), 2)
}

func TestAlertPublisherRetriesAfterFailure(t *testing.T) {
	nsqd := testutil.NewNsqdServer()
	defer nsqd.Close()
	log, _ := testutil.NewLogger()
	publisher := response.NewAlertPublisher(network.NewNSQClient(nsqd.URL), "alerts", log)
	ctx := context.Background()
	violations := []*integrity.Violation{shadowViolation}

	nsqd.FailWith(http.StatusServiceUnavailable)
	err := publisher.DefensiveMeasures(ctx, violations)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Alert for etc/shadow")
	assert.Empty(t, nsqd.Messages("alerts"))

	nsqd.FailWith(http.StatusOK)
	require.Nil(t, publisher.DefensiveMeasures(ctx, violations))
	assert.Len(t, nsqd.Messages("alerts"), 1)
}

func sweepOf(violations ...*integrity.Violation) *integrity.SweepResult {
	result := integrity.NewSweepResult()
	for _, v := range violations {
		result.AddViolation(v)
	}
	return result
}

func TestAlertPublisherAlertsAgainAfterRestore(t *testing.T) {
	nsqd := testutil.NewNsqdServer()
	defer nsqd.Close()
	log, _ := testutil.NewLogger()
	publisher := response.NewAlertPublisher(network.NewNSQClient(nsqd.URL), "alerts", log)
	ctx := context.Background()

	tampered := func() *integrity.Violation {
		return integrity.NewViolation(shadowViolation.Identifier, shadowViolation.Expected,
			shadowViolation.Actual, shadowViolation.Severity)
	}

	first := tampered()
	publisher.ObserveSweep(ctx, sweepOf(first))
	require.Nil(t, publisher.EmergencyLockdown(ctx, []*integrity.Violation{first}))

	// Still tampered: no new alert.
	second := tampered()
	publisher.ObserveSweep(ctx, sweepOf(second))
	require.Nil(t, publisher.EmergencyLockdown(ctx, []*integrity.Violation{second}))
	assert.Len(t, nsqd.Messages("alerts"), 1)

	// Restored, then the same edit is applied again.
	publisher.ObserveSweep(ctx, sweepOf())
	third := tampered()
	publisher.ObserveSweep(ctx, sweepOf(third))
	require.Nil(t, publisher.EmergencyLockdown(ctx, []*integrity.Violation{third}))
	assert.Len(t, nsqd.Messages("alerts"), 2)
}

func TestAlertPublisherKeepsOtherOpenAlerts(t *testing.T) {
	nsqd := testutil.NewNsqdServer()
	defer nsqd.Close()
	log, _ := testutil.NewLogger()
	publisher := response.NewAlertPublisher(network.NewNSQClient(nsqd.URL), "alerts", log)
	ctx := context.Background()

	both := []*integrity.Violation{hostsViolation, shadowViolation}
	publisher.ObserveSweep(ctx, sweepOf(both...))
	require.Nil(t, publisher.EmergencyLockdown(ctx, both))
	require.Len(t, nsqd.Messages("alerts"), 2)

	// etc/hosts restored, etc/shadow still tampered.
	publisher.ObserveSweep(ctx, sweepOf(shadowViolation))
	require.Nil(t, publisher.EmergencyLockdown(ctx, []*integrity.Violation{shadowViolation}))
	assert.Len(t, nsqd.Messages("alerts"), 2)

	publisher.ObserveSweep(ctx, sweepOf(hostsViolation, shadowViolation))
	require.Nil(t, publisher.EmergencyLockdown(ctx, both))
	messages := nsqd.Messages("alerts")
	require.Len(t, messages, 3)
	alert, err := integrity.AlertFromJSON(messages[2])
	require.Nil(t, err)
	assert.Equal(t, "etc/hosts", alert.Violation.Identifier)
}
