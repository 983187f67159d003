package classifier

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadLabels reads one label per line. Trailing blank lines are ignored;
// a blank line between labels is an error because it would shift every
// following index.
func LoadLabels(r io.Reader) ([]string, error) {
	var labels []string
	blankAt := 0

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		label := strings.TrimSpace(scanner.Text())
		if label == "" {
			if blankAt == 0 {
				blankAt = line
			}
			continue
		}
		if blankAt != 0 {
			return nil, fmt.Errorf("labels: blank line %d before label %q", blankAt, label)
		}
		labels = append(labels, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}

	return labels, nil
}

// LoadLabelsFile reads a labels file from disk.
func LoadLabelsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	return LoadLabels(f)
}
