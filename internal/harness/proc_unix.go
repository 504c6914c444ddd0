//go:build unix

package harness

import (
	"os/exec"
	"syscall"
)

// configureProcess puts the shell and the target in their own process group
// so a timeout kills both instead of orphaning the target.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay
}
