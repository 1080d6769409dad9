package workers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/APTrust/integrity-services/baseline"
	"github.com/APTrust/integrity-services/constants"
	"github.com/APTrust/integrity-services/models/common"
	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/APTrust/integrity-services/util/testutil"
	"github.com/stretchr/testify/require"
)

var hostFiles = map[string]string{
	"etc/passwd":          "root:x:0:0:root:/root:/bin/bash\n",
	"etc/shadow":          "root:*:19000:0:99999:7:::\n",
	"etc/sudoers":         "root ALL=(ALL:ALL) ALL\n",
	"etc/ssh/sshd_config": "PermitRootLogin no\n",
	"etc/hosts":           "127.0.0.1 localhost\n",
}

// newHost writes hostFiles under a temp root and a manifest of their
// digests beside it. etc/ld.so.preload is left absent.
func newHost(t *testing.T) (*common.Context, *testutil.LogBuffer) {
	dir := t.TempDir()
	root := filepath.Join(dir, "root")
	digests := make(map[string]string)
	for identifier, content := range hostFiles {
		testutil.WriteArtifact(t, root, identifier, content)
		digests[identifier] = testutil.Sha256(content)
	}
	manifest := filepath.Join(dir, "manifest-sha256.txt")
	file, err := os.Create(manifest)
	require.Nil(t, err)
	require.Nil(t, baseline.WriteManifest(file, digests))
	require.Nil(t, file.Close())

	logger, buf := testutil.NewLogger()
	config := &common.Config{
		AlertTopic:       constants.TopicIntegrityAlert,
		ArtifactRoot:     root,
		ArtifactSource:   constants.ArtifactSourceFile,
		BackoffInterval:  50 * time.Millisecond,
		BaselineManifest: manifest,
		BaselineSource:   constants.BaselineSourceManifest,
		HistoryLimit:     10,
		RedisBaselineKey: constants.DefaultRedisBaseline,
		SweepInterval:    10 * time.Millisecond,
	}
	return &common.Context{Config: config, Logger: logger}, buf
}

func artifactRoot(ictx *common.Context) string {
	return ictx.Config.ArtifactRoot
}

func statusIs(status integrity.IntegrityStatus, get func() integrity.IntegrityStatus) func() bool {
	return func() bool { return get() == status }
}

func ctx() context.Context {
	return context.Background()
}

func contextWithCancel() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}

func decodeJSON(resp *http.Response, v interface{}) error {
	return json.NewDecoder(resp.Body).Decode(v)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
