//go:build !windows

package liveness

import (
	"math"
	"os"
	"syscall"
)

// maxPid is the largest value a pid_t can hold.
const maxPid = math.MaxInt32

// signalZero sends signal 0 to pid. Signal 0 performs the existence and
// permission checks without delivering anything:
//   - nil if the process exists and we may signal it
//   - ESRCH (or os.ErrProcessDone) if it does not exist
//   - EPERM if it belongs to another user
func signalZero(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Signal(syscall.Signal(0))
}
