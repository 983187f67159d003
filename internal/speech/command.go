package speech

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// CommandRecognizer runs an external recognizer process that captures audio
// itself and prints one JSON result per line on stdout, in the form parsed by
// ParseHypothesis. Lines that do not parse are skipped.
type CommandRecognizer struct {
	Path string
	Args []string
}

// NewCommandRecognizer creates a CommandRecognizer for the given executable.
func NewCommandRecognizer(path string, args ...string) *CommandRecognizer {
	return &CommandRecognizer{Path: path, Args: args}
}

// Listen implements Recognizer. The process is killed when ctx is cancelled.
func (c *CommandRecognizer) Listen(ctx context.Context, emit func(Hypothesis)) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start recognizer: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		h, err := ParseHypothesis(scanner.Bytes())
		if err != nil {
			continue
		}
		emit(h)
	}
	scanErr := scanner.Err()

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if scanErr != nil {
		return fmt.Errorf("read recognizer output: %w", scanErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return fmt.Errorf("recognizer exited: %w", waitErr)
		}
		return waitErr
	}
	return nil
}
