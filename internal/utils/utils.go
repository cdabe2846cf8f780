// Package utils contains general helper functions used across the aiclip tool.
package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Application file and directory names.
const (
	// GlobalConfigDirectoryName is the directory under the user's home holding aiclip files.
	GlobalConfigDirectoryName = ".aiclip"
	// ConfigFileName is the name of the global YAML application configuration.
	ConfigFileName = "config.yaml"
	// LocalConfigFileName is the name of the YAML configuration looked up in the working directory.
	LocalConfigFileName = ".aiclip.yaml"
	// StateFileName is the name of the persisted JSON user state.
	StateFileName = "userconfig.json"
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
)

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// ContainsString checks if a slice of strings contains a specific target string.
func ContainsString(stringSlice []string, targetString string) bool {
	for _, currentString := range stringSlice {
		if currentString == targetString {
			return true
		}
	}
	return false
}

// AppendUnique appends value to values unless an identical entry is already present.
func AppendUnique(values []string, value string) []string {
	if ContainsString(values, value) {
		return values
	}
	return append(values, value)
}

// CleanPatternLines trims every line and drops blank ones, keeping order.
func CleanPatternLines(lines []string) []string {
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" {
			continue
		}
		cleaned = append(cleaned, trimmedLine)
	}
	return cleaned
}

// DisplayName returns the last path component of path, or path itself when it has none
// (for example a filesystem or drive root).
func DisplayName(path string) string {
	cleanPath := filepath.Clean(path)
	volumeName := filepath.VolumeName(cleanPath)
	if cleanPath == volumeName || cleanPath == volumeName+string(filepath.Separator) {
		return path
	}
	baseName := filepath.Base(cleanPath)
	if baseName == "." {
		return path
	}
	return baseName
}

// RelativePathOrSelf calculates the slash-separated relative path from root to fullPath.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	cleanRoot := filepath.Clean(root)

	if cleanPath == cleanRoot {
		return "."
	}

	relativePath, relErr := filepath.Rel(cleanRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// sizeUnits lists the lower-case unit suffixes used by FormatFileSize.
var sizeUnits = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize converts a byte length into a human-readable lower-case unit string.
func FormatFileSize(byteCount int64) string {
	if byteCount < 0 {
		return "0b"
	}
	if byteCount < 1024 {
		return fmt.Sprintf("%db", byteCount)
	}
	value := float64(byteCount)
	unitIndex := 0
	for value >= 1024 && unitIndex < len(sizeUnits)-1 {
		value /= 1024
		unitIndex++
	}
	if value < 10 {
		return strings.TrimSuffix(fmt.Sprintf("%.1f", value), ".0") + sizeUnits[unitIndex]
	}
	return fmt.Sprintf("%.0f%s", value, sizeUnits[unitIndex])
}
