package process

import (
	"errors"
	"os/exec"
	"strconv"
	"syscall"
)

func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// Windows has no POSIX signals to forward. taskkill asks the process tree to
// close; with /F it terminates the tree outright.
func (p *Process) signalGroup(sig Signal) error {
	p.logger.Debug("[Process] Invoking taskkill for PID %d (in lieu of %v)", p.pid, sig)
	return exec.Command("taskkill.exe", "/T", "/PID", strconv.Itoa(p.pid)).Run()
}

func (p *Process) terminateGroup() error {
	p.logger.Debug("[Process] Invoking taskkill /F for PID %d", p.pid)
	return exec.Command("taskkill.exe", "/F", "/T", "/PID", strconv.Itoa(p.pid)).Run()
}

// GetPgid returns the process group ID for a PID.
func GetPgid(pid int) (int, error) {
	return 0, errors.New("process groups are not supported on windows")
}
