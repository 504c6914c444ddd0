//go:build windows

package harness

import (
	"os/exec"
	"strings"
	"syscall"
)

// configureProcess hands cmd.exe its command line verbatim. The default
// argument escaping follows the C runtime rules, which cmd.exe does not.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: strings.Join(cmd.Args, " ")}
	cmd.WaitDelay = waitDelay
}
