//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// Run the command in its own process group, so that signalling the group
// reaches the command and everything it spawns, without also signalling
// testgate itself.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
}

func (p *Process) signalGroup(sig Signal) error {
	p.logger.Debug("[Process] Sending signal %v to PGID %d", sig, p.pid)
	return syscall.Kill(-p.pid, syscall.Signal(sig))
}

func (p *Process) terminateGroup() error {
	p.logger.Debug("[Process] Sending signal SIGKILL to PGID %d", p.pid)
	return syscall.Kill(-p.pid, syscall.SIGKILL)
}

// GetPgid returns the process group ID for a PID.
func GetPgid(pid int) (int, error) {
	return syscall.Getpgid(pid)
}
