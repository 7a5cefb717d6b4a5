package isec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"denovo/pipeline/logger"

	"go.uber.org/zap"
)

// Command is one invocation of an htslib tool. Mounts lists the host
// directories the tool reads or writes; they are bound at the same path
// when the tool runs inside a container.
type Command struct {
	Tool   string
	Args   []string
	Mounts []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Tool + " " + strings.Join(c.Args, " "))
}

type Runner interface {
	// Check verifies that the tool (or the container runtime wrapping it)
	// can be found.
	Check(tool string) error
	Run(ctx context.Context, cmd Command) error
}

// CommandRunner executes tools directly, or through `<runtime> run --rm`
// when a container runtime is set.
type CommandRunner struct {
	ContainerRuntime string
	Image            string
}

func (r *CommandRunner) containerized() bool {
	return r.ContainerRuntime != ""
}

func (r *CommandRunner) Check(tool string) error {
	binary := tool
	if r.containerized() {
		binary = r.ContainerRuntime
	}
	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("%s not found on PATH: %w", binary, err)
	}
	return nil
}

func (r *CommandRunner) argv(cmd Command) (string, []string) {
	if !r.containerized() {
		return cmd.Tool, cmd.Args
	}

	args := []string{"run", "--rm"}
	seen := map[string]bool{}
	for _, m := range cmd.Mounts {
		abs, err := filepath.Abs(m)
		if err != nil {
			abs = m
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		args = append(args, "-v", fmt.Sprintf("%s:%s", abs, abs))
	}
	args = append(args, r.Image, cmd.Tool)
	args = append(args, cmd.Args...)
	return r.ContainerRuntime, args
}

func (r *CommandRunner) Run(ctx context.Context, cmd Command) error {
	name, args := r.argv(cmd)
	logger.Debug("running external tool", zap.String("cmd", name), zap.Strings("args", args))

	c := exec.CommandContext(ctx, name, args...)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	c.Stdout = stdout
	c.Stderr = stderr

	if err := c.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", cmd.Tool, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() > 0 {
		logger.Debug(strings.TrimSpace(stdout.String()), zap.String("tool", cmd.Tool))
	}
	return nil
}
