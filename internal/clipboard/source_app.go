package clipboard

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// CommandLocator runs a user-configured command (for example
// `xdotool getactivewindow getwindowclassname`) and takes its first output line
// as the active application name.
type CommandLocator struct {
	Command []string
	Timeout time.Duration
}

func NewAppLocator(command []string) AppLocator {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return NoopLocator{}
	}
	return &CommandLocator{Command: command, Timeout: 500 * time.Millisecond}
}

func (l *CommandLocator) ActiveAppName() (string, bool) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, l.Command[0], l.Command[1:]...).Output()
	if err != nil {
		return "", false
	}
	name, _, _ := strings.Cut(string(out), "\n")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	return name, true
}

type NoopLocator struct{}

func (NoopLocator) ActiveAppName() (string, bool) {
	return "", false
}
