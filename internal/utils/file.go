package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// AnalysisSuffix is appended to a resume's base name for watch output
const AnalysisSuffix = ".analysis.json"

var textExtensions = []string{".txt", ".text", ".md", ".markdown"}

// ValidateInputFile checks that a file exists, is a regular readable file and,
// when maxSize is positive, is not larger than maxSize. It returns the file size.
func ValidateInputFile(filename string, maxSize int64) (int64, error) {
	if filename == "" {
		return 0, fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("file does not exist: %s", filename)
		}
		return 0, fmt.Errorf("cannot access file %s: %w", filename, err)
	}

	if info.IsDir() {
		return 0, fmt.Errorf("path is a directory, not a file: %s", filename)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("file is empty: %s", filename)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return 0, fmt.Errorf("file %s is %s, larger than the %s limit",
			filename, FormatFileSize(info.Size()), FormatFileSize(maxSize))
	}

	file, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("failed to close file %s: %w", filename, err)
	}

	return info.Size(), nil
}

// ValidateOutputFile checks that the output file's directory exists or can be created
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// GetFileExtension returns the file extension in lowercase
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsTextFile checks if the file has a text-based extension
func IsTextFile(filename string) bool {
	return slices.Contains(textExtensions, GetFileExtension(filename))
}

// IsResumeCandidate reports whether a watched file should be analyzed: a .txt
// file that is not itself an analysis result or a hidden/editor temp file.
func IsResumeCandidate(filename string) bool {
	base := filepath.Base(filename)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	if strings.HasSuffix(base, AnalysisSuffix) {
		return false
	}
	return GetFileExtension(base) == ".txt"
}

// AnalysisOutputPath returns the sibling path that holds a resume's analysis
func AnalysisOutputPath(resumePath string) string {
	ext := filepath.Ext(resumePath)
	return strings.TrimSuffix(resumePath, ext) + AnalysisSuffix
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
