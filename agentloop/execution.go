package agentloop

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"time"
	"unicode"
)

// ExecResult holds the result of a command execution.
type ExecResult struct {
	Output     string `json:"output"` // stdout and stderr, interleaved
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
}

// Executor runs one shell command to completion.
type Executor interface {
	ExecCommand(ctx context.Context, command string) (*ExecResult, error)
}

// ShellExecutor runs commands through the platform shell with the inherited
// environment.
type ShellExecutor struct {
	shell    string
	shellArg string
	dir      string
}

var _ Executor = new(ShellExecutor)

// NewShellExecutor uses sh -c, or cmd.exe /c on Windows. An empty dir means
// the process working directory.
func NewShellExecutor(dir string) *ShellExecutor {
	shell, shellArg := "sh", "-c"
	if runtime.GOOS == "windows" {
		shell, shellArg = "cmd.exe", "/c"
	}
	return &ShellExecutor{
		shell:    shell,
		shellArg: shellArg,
		dir:      dir,
	}
}

// Shell returns the shell binary name.
func (e *ShellExecutor) Shell() string { return e.shell }

// ExecCommand blocks until command exits. A non-zero exit is reported in the
// result. When the shell cannot be started the result has exit code -1 and
// the start error as output. The only error returned is ctx's.
func (e *ShellExecutor) ExecCommand(ctx context.Context, command string) (*ExecResult, error) {
	cmd := exec.CommandContext(ctx, e.shell, e.shellArg, command)
	cmd.Dir = e.dir

	// One buffer for both streams keeps their relative order.
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	result := &ExecResult{
		Output:     cleanOutput(out.String()),
		DurationMs: duration.Milliseconds(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			if result.Output != "" {
				result.Output += "\n"
			}
			result.Output += err.Error()
		}
	}

	return result, nil
}

func cleanOutput(s string) string {
	return strings.TrimRightFunc(strings.ToValidUTF8(s, "�"), unicode.IsSpace)
}
