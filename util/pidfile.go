package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	ps "github.com/mitchellh/go-ps"
)

// PidFile keeps two integrity monitors from sweeping the same
// artifacts at once. The file holds the pid of the process that
// owns it.
type PidFile struct {
	Path string
}

// NewPidFile returns a PidFile at pathToFile. Nothing is written
// until Acquire is called.
func NewPidFile(pathToFile string) *PidFile {
	return &PidFile{Path: pathToFile}
}

// Acquire writes this process' pid to the pid file. It returns an
// error if the file belongs to another process that is still running.
// A file left behind by a dead process is overwritten.
func (p *PidFile) Acquire() error {
	if IsRunningInOtherProcess(p.Path) {
		return fmt.Errorf("Pid file %s belongs to running process %d", p.Path, ReadPidFile(p.Path))
	}
	return WritePidFile(p.Path)
}

// Release deletes the pid file if it belongs to this process.
func (p *PidFile) Release() error {
	if !FileExists(p.Path) {
		return nil
	}
	if pid := ReadPidFile(p.Path); pid != os.Getpid() {
		return fmt.Errorf("Not deleting pid file %s: it belongs to pid %d", p.Path, pid)
	}
	return os.Remove(p.Path)
}

// IsRunningInOtherProcess returns true if the pid file at pathToFile
// contains the pid of another process that is still alive.
func IsRunningInOtherProcess(pathToFile string) bool {
	if !FileExists(pathToFile) {
		return false
	}
	pid := ReadPidFile(pathToFile)
	return pid != 0 && pid != os.Getpid() && ProcessIsRunning(pid)
}

// ReadPidFile returns the pid from the specified file, or zero if
// the file can't be read or does not contain a pid.
func ReadPidFile(pathToFile string) int {
	if data, err := os.ReadFile(pathToFile); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil {
			return pid
		}
	}
	return 0
}

// WritePidFile writes this process' pid to the specified file.
func WritePidFile(pathToFile string) error {
	pidStr := strconv.Itoa(os.Getpid())
	return os.WriteFile(pathToFile, []byte(pidStr), 0664)
}

// ProcessIsRunning returns true if the process with pid is running.
// This uses go-ps internally because golang's os.FindProcess always
// returns a process on *nix, even when no process with that pid is
// running.
func ProcessIsRunning(pid int) bool {
	proc, _ := ps.FindProcess(pid)
	return proc != nil
}
