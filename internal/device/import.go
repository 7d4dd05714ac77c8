package device

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ImportRecorder "records" by copying a prepared take with the same file
// name from a source directory. It lets the recording workflow run without
// a microphone.
type ImportRecorder struct {
	sourceDir string
}

// NewImportRecorder creates an ImportRecorder reading from sourceDir.
func NewImportRecorder(sourceDir string) *ImportRecorder {
	return &ImportRecorder{sourceDir: sourceDir}
}

// Start checks that a take exists for path. The copy happens on Stop.
func (r *ImportRecorder) Start(path string) (Recording, error) {
	source := filepath.Join(r.sourceDir, filepath.Base(path))

	_, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("no prepared take for %s: %w", filepath.Base(path), err)
	}

	return &importRecording{source: source, target: path}, nil
}

type importRecording struct {
	source string
	target string
}

func (r *importRecording) Stop() error {
	in, err := os.Open(r.source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoOutput, err)
	}
	defer in.Close()

	out, err := os.Create(r.target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", r.target, err)
	}

	written, err := io.Copy(out, in)

	closeErr := out.Close()
	if err != nil {
		return fmt.Errorf("failed to copy take: %w", err)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", r.target, closeErr)
	}

	if written == 0 {
		return fmt.Errorf("%w: %s is empty", ErrNoOutput, r.source)
	}

	return nil
}
