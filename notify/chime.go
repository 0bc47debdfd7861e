package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// commandRunner executes external commands and returns their combined
// output.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Chime plays the session-complete sound by running a user-configured
// command, e.g. "paplay /usr/share/sounds/freedesktop/stereo/complete.oga".
type Chime struct {
	command string
	runner  commandRunner
}

// NewChime creates a chime. An empty command makes Play a no-op.
func NewChime(command string) *Chime {
	return &Chime{
		command: command,
		runner:  execRunner{},
	}
}

// Play runs the command through the shell so pipelines work.
func (c *Chime) Play(ctx context.Context) error {
	if c.command == "" {
		return nil
	}

	out, err := c.runner.Run(ctx, "sh", "-c", c.command)
	if err != nil {
		return fmt.Errorf("chime command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
