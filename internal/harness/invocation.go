package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

var ErrTargetNotFound = errors.New("target executable not found")

// Invocation describes how to launch the target: through the host shell, in
// a fixed working directory, so relative executable paths resolve the same
// way for every strategy.
type Invocation struct {
	WorkDir string
	Target  string

	name string
	args []string
}

// NewInvocation checks that target exists under workDir and builds the
// platform shell command line for it.
func NewInvocation(workDir, target string) (*Invocation, error) {
	if workDir == "" {
		workDir = "./"
	}
	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, target)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: could not find command '%s' in %s: %v", ErrTargetNotFound, target, workDir, err)
	}

	inv := &Invocation{WorkDir: workDir, Target: target}
	inv.name, inv.args = platformCommand(runtime.GOOS, target)
	return inv, nil
}

// platformCommand returns the shell and its arguments that run target on goos.
func platformCommand(goos, target string) (string, []string) {
	if goos == "windows" {
		// With /s, cmd.exe strips exactly one pair of outer quotes and runs
		// the rest as written.
		return "cmd.exe", []string{"/s", "/c", `"` + cmdQuote(target) + `"`}
	}
	cmdline := target
	if !filepath.IsAbs(target) {
		cmdline = "./" + target
	}
	return "sh", []string{"-c", shellQuote(cmdline)}
}

// Command returns a fresh, unstarted process for one test case.
func (i *Invocation) Command(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, i.name, i.args...)
	cmd.Dir = i.WorkDir
	configureProcess(cmd)
	return cmd
}

func (i *Invocation) String() string {
	return i.name + " " + strings.Join(i.args, " ")
}

func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '/' || r == '.' || r == '-' || r == '_' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// cmdQuote double-quotes s for cmd.exe when it holds a space or a cmd
// metacharacter. Windows paths cannot contain '"', so no escaping is needed.
func cmdQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t&|<>^()") {
		return s
	}
	return `"` + s + `"`
}
