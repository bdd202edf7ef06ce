package launcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external commands. The exec-backed implementation is the
// only one outside tests.
type Runner interface {
	// Run executes the command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) (string, error)
	// Output executes the command and returns stdout only. Use when the
	// output is an artifact and stderr noise must not leak into it.
	Output(ctx context.Context, name string, args ...string) (string, error)
	// RunInput is Run with the given reader wired to the command's stdin.
	RunInput(ctx context.Context, stdin io.Reader, name string, args ...string) (string, error)
	// Stream executes the command with output attached to the terminal.
	Stream(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

// NewRunner returns the exec-backed command runner.
func NewRunner() Runner { return execRunner{} }

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return string(out), nil
}

func (execRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w\n%s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (execRunner) RunInput(ctx context.Context, stdin io.Reader, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return string(out), nil
}

func (execRunner) Stream(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

// CheckCompose verifies the compose plugin is available. Its absence is a
// fatal precondition reported before anything is started.
func CheckCompose(ctx context.Context, runner Runner) error {
	if _, err := runner.Run(ctx, "docker", "compose", "version"); err != nil {
		return fmt.Errorf("docker compose not available, install the compose plugin: %w", err)
	}
	return nil
}
