package socket

import (
	"os"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ProcessChecker reports whether a process is running.
type ProcessChecker interface {
	IsRunning(name string) bool
}

// PSChecker looks processes up in the process table.
type PSChecker struct{}

var _ ProcessChecker = PSChecker{}

// IsRunning reports whether a process other than the caller has an
// executable named name. The comparison ignores case.
func (PSChecker) IsRunning(name string) bool {
	return len(PIDs(name)) > 0
}

// PIDs returns the IDs of every process other than the caller whose
// executable is named name. Executable names truncated by the kernel still
// match.
func PIDs(name string) []int {
	procs, err := ps.Processes()
	if err != nil {
		return nil
	}

	self := os.Getpid()
	var pids []int
	for _, p := range procs {
		if p.Pid() == self {
			continue
		}
		exe := p.Executable()
		if exe == "" || len(exe) > len(name) {
			continue
		}
		if strings.EqualFold(exe, name[:len(exe)]) && (len(exe) == len(name) || len(exe) >= 15) {
			pids = append(pids, p.Pid())
		}
	}
	return pids
}
