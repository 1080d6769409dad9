package cli_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/APTrust/integrity-services/util/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOpts(t *testing.T) {
	opts, err := cli.ParseOpts("integrity_monitor", []string{
		"-config-dir", "/etc/integrity",
		"-config-name=prod",
		"-once",
	})
	require.Nil(t, err)
	assert.Equal(t, "/etc/integrity", opts.ConfigDir)
	assert.Equal(t, "prod", opts.ConfigName)
	assert.True(t, opts.Once)
	assert.False(t, opts.PrintHelp)
	assert.Equal(t, "", opts.OutputFile)
}

func TestParseOptsBadFlag(t *testing.T) {
	_, err := cli.ParseOpts("integrity_monitor", []string{"-no-such-flag"})
	assert.NotNil(t, err)
}

func TestApplyToEnv(t *testing.T) {
	t.Setenv("IM_CONFIG_DIR", "before")
	t.Setenv("IM_CONFIG_NAME", "before")
	opts, err := cli.ParseOpts("accept_baseline", []string{"-config-name", "test"})
	require.Nil(t, err)
	opts.ApplyToEnv()

	// Unset flags leave the env alone
	assert.Equal(t, "before", os.Getenv("IM_CONFIG_DIR"))
	assert.Equal(t, "test", os.Getenv("IM_CONFIG_NAME"))
}

func TestPrintDefaults(t *testing.T) {
	opts, err := cli.ParseOpts("integrity_monitor", []string{})
	require.Nil(t, err)
	buf := &bytes.Buffer{}
	opts.PrintDefaults(buf)
	assert.Contains(t, buf.String(), "-once")
	assert.Contains(t, buf.String(), "-config-dir")
}
