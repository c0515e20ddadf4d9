// Package exec runs external programs such as the OCR engine.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner abstracts command execution for dependency injection.
// stdin may be nil.
type CommandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

// ExecRunner executes real commands using os/exec.
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner for production use.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes a command, feeding it stdin, and returns its standard output.
// On failure the command's stderr is folded into the returned error.
func (r *ExecRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := execCommand(ctx, name, args...)
	var stderr bytes.Buffer
	if stdin != nil {
		cmd.SetStdin(bytes.NewReader(stdin))
	}
	cmd.SetStderr(&stderr)

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// execCommand is a variable to allow testing.
var execCommand = execCommandImpl

func execCommandImpl(ctx context.Context, name string, args ...string) execCmd {
	return &realExecCmd{cmd: exec.CommandContext(ctx, name, args...)}
}

// execCmd abstracts exec.Cmd for testing.
type execCmd interface {
	SetStdin(r *bytes.Reader)
	SetStderr(w *bytes.Buffer)
	Output() ([]byte, error)
}

type realExecCmd struct {
	cmd *exec.Cmd
}

func (c *realExecCmd) SetStdin(r *bytes.Reader)  { c.cmd.Stdin = r }
func (c *realExecCmd) SetStderr(w *bytes.Buffer) { c.cmd.Stderr = w }

func (c *realExecCmd) Output() ([]byte, error) {
	return c.cmd.Output()
}
