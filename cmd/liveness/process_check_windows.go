//go:build windows

package liveness

import (
	"fmt"
	"math"

	"golang.org/x/sys/windows"
)

// maxPid is the largest process id a DWORD can hold.
const maxPid = math.MaxUint32

// signalZero is the Windows stand-in for kill(pid, 0). os.FindProcess always
// succeeds there, so the process is opened with the minimum query right
// instead. Any error, ERROR_ACCESS_DENIED included, is returned to the caller.
func signalZero(pid int) error {
	const PROCESS_QUERY_LIMITED_INFORMATION = 0x1000

	if pid <= 0 || int64(pid) > maxPid {
		return fmt.Errorf("pid %d out of range", pid)
	}
	handle, err := windows.OpenProcess(PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return err
	}
	windows.CloseHandle(handle)
	return nil
}
