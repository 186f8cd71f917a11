package process

import (
	"errors"
	"os"
	"os/exec"
)

func startPTY(cmd *exec.Cmd) (*os.File, error) {
	return nil, errors.New("PTY mode is not supported on windows")
}
