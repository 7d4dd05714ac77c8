// Package fsutil provides file and path helpers for the vridge client:
// data directory resolution, recording segment paths and display formatting.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment variable names used for path resolution.
const (
	envDataDir = "VRIDGE_DATA_DIR"
)

// Common application directory and path constants.
const (
	appName                = "vridge"
	tmpDir                 = "/tmp"
	dotLocalShare          = ".local/share"
	defaultDirPermissions  = 0o750
	invalidCharReplacement = "_"
	segmentExtension       = ".m4a"
)

// Data size constants.
const (
	byteUnit = 1
	kilobyte = byteUnit * 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
)

// Size formatting constants.
const (
	formatGB    = "%.1f GB"
	formatMB    = "%.1f MB"
	formatKB    = "%.1f KB"
	formatBytes = "%d B"
)

// File extension constants.
const (
	extAAC  = ".aac"
	extFLAC = ".flac"
	extM4A  = ".m4a"
	extMP3  = ".mp3"
	extOGG  = ".ogg"
	extWAV  = ".wav"
)

const errFmtFailedToCreateDir = "failed to create directory %s: %w"

// ErrNotAudioFile is returned when a path does not name an audio file.
var ErrNotAudioFile = errors.New("not an audio file")

// GetDataDir returns the application's data directory, respecting an
// environment variable override and falling back to the user's home.
func GetDataDir() string {
	if dataDir := os.Getenv(envDataDir); dataDir != "" {
		return dataDir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(tmpDir, appName)
	}

	return filepath.Join(homeDir, dotLocalShare, appName)
}

// EnsureDir ensures a directory exists at the given path, creating it if it doesn't.
func EnsureDir(path string) error {
	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		mkdirErr := os.MkdirAll(path, defaultDirPermissions)
		if mkdirErr != nil {
			return fmt.Errorf(errFmtFailedToCreateDir, path, mkdirErr)
		}
	}

	return nil
}

// SegmentFileName returns the file name of the recording for a 1-based prompt index.
func SegmentFileName(index int) string {
	return strconv.Itoa(index) + segmentExtension
}

// SegmentPath returns where the recording for index lives inside dir.
func SegmentPath(dir string, index int) string {
	return filepath.Join(dir, SegmentFileName(index))
}

// RequireAudioFile checks that path names an existing regular audio file.
func RequireAudioFile(path string) error {
	if !IsValidAudioFile(path) {
		return fmt.Errorf("%w: %s", ErrNotAudioFile, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotAudioFile, path)
	}

	return nil
}

// FormatFileSize formats a file size in a human-readable string (e.g., "1.2 GB", "500.5
// MB").
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= gigabyte:
		return fmt.Sprintf(formatGB, float64(bytes)/gigabyte)
	case bytes >= megabyte:
		return fmt.Sprintf(formatMB, float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf(formatKB, float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf(formatBytes, bytes)
	}
}

// IsValidAudioFile checks if a filename has a common audio file extension.
func IsValidAudioFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case extWAV, extMP3, extFLAC, extOGG, extM4A, extAAC:
		return true
	default:
		return false
	}
}

// SanitizeFilename removes or replaces characters that are invalid in most filesystems.
func SanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"<", invalidCharReplacement,
		">", invalidCharReplacement,
		":", invalidCharReplacement,
		"\"", invalidCharReplacement,
		"/", invalidCharReplacement,
		"\\", invalidCharReplacement,
		"|", invalidCharReplacement,
		"?", invalidCharReplacement,
		"*", invalidCharReplacement,
	)

	return replacer.Replace(filename)
}
