package testutil

import (
	"bytes"
	"strings"
	"sync"

	"github.com/APTrust/integrity-services/util/logger"
	"github.com/google/uuid"
	"github.com/op/go-logging"
)

// LogBuffer collects log output. Supervisor tests write to it from
// the monitor goroutine while the test goroutine reads it.
type LogBuffer struct {
	buf   bytes.Buffer
	mutex sync.Mutex
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.String()
}

func (b *LogBuffer) Contains(s string) bool {
	return strings.Contains(b.String(), s)
}

// NewLogger returns a DEBUG logger whose output goes to the returned
// buffer. Each call gets a distinct module name, so parallel tests
// don't share output.
func NewLogger() (*logging.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	module := "test-" + uuid.NewString()
	return logger.NewLogger(module, buf, "[%{level}] %{message}", logging.DEBUG), buf
}
