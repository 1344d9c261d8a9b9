// Package shell runs model-requested commands with a hard wall-clock timeout.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/petasbytes/aicli/internal/safety"
)

// DefaultTimeout bounds every command; on expiry the child process group is
// killed and the caller gets ERR_TIMEOUT, never a background orphan.
const DefaultTimeout = 30 * time.Second

const maxOutputBytes = 32 * 1024 // combined stdout+stderr cap per stream

// Result captures one command execution.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Run executes command via "bash -c" in dir. Stdout and stderr are captured
// separately and clamped to maxOutputBytes each. A non-zero exit is not an
// error here; it is data for the model. Timeout <= 0 falls back to
// DefaultTimeout.
func Run(ctx context.Context, dir, command string, timeout time.Duration) (Result, error) {
	if command == "" {
		return Result{}, safety.ToolError{Code: safety.CodeBadArgs, Message: "command is required"}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "bash", "-c", command)
	cmd.Dir = dir
	// Own process group so the whole tree dies on timeout, not just bash.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if execCtx.Err() == context.DeadlineExceeded {
		return Result{}, safety.ToolError{
			Code:    safety.CodeTimeout,
			Message: fmt.Sprintf("command timed out after %s", timeout),
		}
	}
	if ctx.Err() == context.Canceled {
		return Result{}, ctx.Err()
	}

	res := Result{
		Stdout: clamp(stdout.String()),
		Stderr: clamp(stderr.String()),
	}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			// bash itself failed to start: that is an environment problem.
			return Result{}, safety.ToolError{Code: safety.CodeIOFailure, Message: err.Error()}
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return res, nil
}

func clamp(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	return s[:maxOutputBytes] + fmt.Sprintf("\n[output truncated at %d bytes, total was %d]", maxOutputBytes, len(s))
}
