package repository

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed script.txt
var defaultScript string

// Scripts is the immutable, 1-based list of recording prompts.
type Scripts struct {
	lines []string
}

// ParseScripts splits a newline-delimited prompt file, dropping blank lines.
func ParseScripts(content string) Scripts {
	var lines []string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		lines = append(lines, line)
	}

	return Scripts{lines: lines}
}

// DefaultScripts returns the prompt set bundled with the client.
func DefaultScripts() Scripts {
	return ParseScripts(defaultScript)
}

// LoadScripts reads a prompt file from disk. An empty path yields the
// bundled prompt set.
func LoadScripts(path string) (Scripts, error) {
	if path == "" {
		return DefaultScripts(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Scripts{}, fmt.Errorf("failed to read script file %s: %w", path, err)
	}

	return ParseScripts(string(data)), nil
}

// Get returns the prompt at the 1-based index, or "" when out of range.
func (s Scripts) Get(index int) string {
	if index < 1 || index > len(s.lines) {
		return ""
	}

	return s.lines[index-1]
}

// Count returns the number of prompts.
func (s Scripts) Count() int {
	return len(s.lines)
}
