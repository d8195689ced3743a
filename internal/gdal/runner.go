// Package gdal drives the GDAL/OGR command line tools that encode the
// exported tables and grids.
package gdal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrExternalTool indicates a GDAL/OGR process that could not start or
// exited non-zero. Failures are never retried.
var ErrExternalTool = errors.New("gdal: external tool failed")

// ToolError carries the invocation and captured stderr of a failed tool.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s: %s exited with code %d", ErrExternalTool.Error(), e.Tool, e.ExitCode)
	if e.ExitCode < 0 && e.Err != nil {
		msg = fmt.Sprintf("%s: %s: %v", ErrExternalTool.Error(), e.Tool, e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExternalTool}
	}
	return []error{ErrExternalTool, e.Err}
}

// Runner starts one external process and waits for it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs tools as child processes. Standard output is discarded
// unless Stdout is set; standard error is captured into the ToolError.
type ExecRunner struct {
	Dir    string
	Stdout io.Writer
	Logger *slog.Logger
}

func (r *ExecRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger().Debug("running tool", "tool", name, "args", strings.Join(args, " "))

	err := cmd.Run()
	if err == nil {
		return nil
	}

	toolErr := &ToolError{Tool: name, Args: args, ExitCode: -1, Stderr: stderr.String(), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		toolErr.Err = ctxErr
	}
	return toolErr
}
