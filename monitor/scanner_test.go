package monitor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/APTrust/integrity-services/baseline"
	"github.com/APTrust/integrity-services/fixity"
	"github.com/APTrust/integrity-services/models/common"
	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/APTrust/integrity-services/monitor"
	"github.com/APTrust/integrity-services/source"
	"github.com/APTrust/integrity-services/util/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scanArtifacts = []integrity.Artifact{
	{Identifier: "etc/passwd", Severity: integrity.ThreatCritical},
	{Identifier: "etc/ssh/sshd_config", Severity: integrity.ThreatHigh},
	{Identifier: "etc/hosts", Severity: integrity.ThreatMedium},
	{Identifier: "etc/motd"},
}

func newScanner(t *testing.T, root string, strict bool) *monitor.Scanner {
	log, _ := testutil.NewLogger()
	return monitor.NewScanner(source.NewFileSource(root), fixity.NewSha256Engine(),
		monitor.NewClassifier(scanArtifacts), strict, log)
}

func TestScanNoViolations(t *testing.T) {
	root := t.TempDir()
	testutil.WriteArtifact(t, root, "etc/passwd", "root:x:0:0")
	testutil.WriteArtifact(t, root, "etc/hosts", "127.0.0.1")
	trusted := baseline.StaticLoader{
		"etc/passwd": testutil.Sha256("root:x:0:0"),
		"etc/hosts":  testutil.Sha256("127.0.0.1"),
	}

	result, err := newScanner(t, root, false).Scan(context.Background(), scanArtifacts, loadStore(t, trusted, scanArtifacts))
	require.Nil(t, err)
	assert.Empty(t, result.Violations)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 2, result.Absent)
	assert.Equal(t, 0, result.Unbaselined)
	assert.True(t, result.Finished())
	assert.NotEmpty(t, result.SweepID)
}

func TestScanMismatches(t *testing.T) {
	root := t.TempDir()
	testutil.WriteArtifact(t, root, "etc/passwd", "root:x:0:0\nevil:x:0:0")
	testutil.WriteArtifact(t, root, "etc/ssh/sshd_config", "PermitRootLogin no")
	testutil.WriteArtifact(t, root, "etc/hosts", "10.6.6.6 bank.example.com")
	testutil.WriteArtifact(t, root, "etc/motd", "welcome, friend")
	trusted := baseline.StaticLoader{
		"etc/passwd":          testutil.Sha256("root:x:0:0"),
		"etc/ssh/sshd_config": testutil.Sha256("PermitRootLogin no"),
		"etc/hosts":           testutil.Sha256("127.0.0.1"),
		"etc/motd":            testutil.Sha256("welcome"),
	}

	result, err := newScanner(t, root, false).Scan(context.Background(), scanArtifacts, loadStore(t, trusted, scanArtifacts))
	require.Nil(t, err)
	require.Len(t, result.Violations, 3)

	// Violations come back in artifact order, each with expected and
	// actual digests and the classified severity.
	assert.Equal(t, "etc/passwd", result.Violations[0].Identifier)
	assert.Equal(t, testutil.Sha256("root:x:0:0"), result.Violations[0].Expected)
	assert.Equal(t, testutil.Sha256("root:x:0:0\nevil:x:0:0"), result.Violations[0].Actual)
	assert.Equal(t, integrity.ThreatCritical, result.Violations[0].Severity)

	assert.Equal(t, "etc/hosts", result.Violations[1].Identifier)
	assert.Equal(t, integrity.ThreatMedium, result.Violations[1].Severity)

	assert.Equal(t, "etc/motd", result.Violations[2].Identifier)
	assert.Equal(t, integrity.ThreatLow, result.Violations[2].Severity)

	assert.Equal(t, 4, result.Checked)
}

func TestScanAbsentIsNotTampering(t *testing.T) {
	trusted := baseline.StaticLoader{
		"etc/passwd": testutil.Sha256("root:x:0:0"),
		"etc/hosts":  testutil.Sha256("127.0.0.1"),
	}
	for _, strict := range []bool{false, true} {
		result, err := newScanner(t, t.TempDir(), strict).Scan(context.Background(), scanArtifacts, loadStore(t, trusted, scanArtifacts))
		require.Nil(t, err)
		assert.Empty(t, result.Violations)
		assert.Equal(t, 4, result.Absent)
		assert.Equal(t, 0, result.Checked)
	}
}

func TestScanUnbaselined(t *testing.T) {
	root := t.TempDir()
	testutil.WriteArtifact(t, root, "etc/passwd", "root:x:0:0")
	testutil.WriteArtifact(t, root, "etc/ssh/sshd_config", "PermitRootLogin yes")
	trusted := baseline.StaticLoader{"etc/passwd": testutil.Sha256("root:x:0:0")}
	store := loadStore(t, trusted, scanArtifacts)

	// Not strict: counted, no violation.
	result, err := newScanner(t, root, false).Scan(context.Background(), scanArtifacts, store)
	require.Nil(t, err)
	assert.Empty(t, result.Violations)
	assert.Equal(t, 1, result.Unbaselined)

	// Strict: violation with empty expected digest.
	result, err = newScanner(t, root, true).Scan(context.Background(), scanArtifacts, store)
	require.Nil(t, err)
	require.Len(t, result.Violations, 1)
	violation := result.Violations[0]
	assert.Equal(t, "etc/ssh/sshd_config", violation.Identifier)
	assert.True(t, violation.IsUnbaselined())
	assert.Equal(t, testutil.Sha256("PermitRootLogin yes"), violation.Actual)
	assert.Equal(t, integrity.ThreatHigh, violation.Severity)
	assert.Equal(t, 1, result.Unbaselined)
}

func TestScanReadFailure(t *testing.T) {
	root := t.TempDir()
	testutil.WriteArtifact(t, root, "etc/passwd", "root:x:0:0")
	testutil.WriteArtifact(t, root, "etc/hosts", "127.0.0.1")
	flaky := &flakySource{Source: source.NewFileSource(root)}
	flaky.failing.Store(true)
	log, _ := testutil.NewLogger()
	scanner := monitor.NewScanner(flaky, fixity.NewSha256Engine(), monitor.NewClassifier(scanArtifacts), false, log)

	result, err := scanner.Scan(context.Background(), scanArtifacts,
		loadStore(t, baseline.StaticLoader{"etc/passwd": testutil.Sha256("root:x:0:0")}, scanArtifacts))
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskRead)
	var detailed *common.Error
	require.True(t, errors.As(err, &detailed))
	assert.False(t, detailed.IsFatal)
	assert.Contains(t, detailed.Message, "etc/passwd")
	var readErr *fixity.ReadError
	assert.True(t, errors.As(err, &readErr))

	require.NotNil(t, result)
	assert.False(t, result.Finished())
	assert.Equal(t, 0, result.Checked)
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	testutil.WriteArtifact(t, root, "etc/passwd", "root:x:0:0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newScanner(t, root, false).Scan(ctx, scanArtifacts, loadStore(t, baseline.StaticLoader{}, scanArtifacts))
	assert.ErrorIs(t, err, context.Canceled)
}

func loadStore(t *testing.T, loader baseline.Loader, artifacts []integrity.Artifact) *baseline.Store {
	t.Helper()
	store := baseline.NewStore(loader, artifacts)
	require.Nil(t, store.Load(context.Background()))
	return store
}
