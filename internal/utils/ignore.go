package utils

import "strings"

const pathSegmentSeparator = "/"

// defaultIgnorePatterns excludes common binary images and build, VCS and dependency directories.
var defaultIgnorePatterns = []string{
	".png",
	".jpg",
	".jpeg",
	".gif",
	".bmp",
	".tif",
	".tiff",
	".webp",
	".svg",
	".ico",
	".woff2",
	"/.git",
	"/obj",
	"/bin",
	"/node_modules",
	".github",
	"/.next",
	"package-lock.json",
}

// DefaultIgnorePatterns returns a fresh copy of the built-in ignore patterns.
func DefaultIgnorePatterns() []string {
	return append([]string(nil), defaultIgnorePatterns...)
}

// normalizeForMatching lowercases value and converts backslashes to forward slashes.
func normalizeForMatching(value string) string {
	return strings.ToLower(strings.ReplaceAll(value, "\\", pathSegmentSeparator))
}

// ShouldIgnoreDirectory reports whether a directory at absolutePath is excluded.
// Only patterns containing a path separator apply to directories; each is matched
// as a substring of the lowercased, slash-normalized full path. Bare patterns such
// as "obj" never exclude a directory, while "/obj" does.
func ShouldIgnoreDirectory(absolutePath string, ignorePatterns []string) bool {
	normalizedPath := normalizeForMatching(absolutePath)
	for _, patternValue := range ignorePatterns {
		normalizedPattern := normalizeForMatching(strings.TrimSpace(patternValue))
		if normalizedPattern == "" || !strings.Contains(normalizedPattern, pathSegmentSeparator) {
			continue
		}
		if strings.Contains(normalizedPath, normalizedPattern) {
			return true
		}
	}
	return false
}

// ShouldIgnoreFile reports whether a file at absolutePath is excluded.
// Patterns containing a path separator match as substrings of the full path; bare
// patterns match the file name by equality or suffix, so ".png" excludes
// "photo.png". Comparisons are case-insensitive.
func ShouldIgnoreFile(absolutePath string, ignorePatterns []string) bool {
	normalizedPath := normalizeForMatching(absolutePath)
	fileName := normalizedPath
	if separatorIndex := strings.LastIndex(normalizedPath, pathSegmentSeparator); separatorIndex >= 0 {
		fileName = normalizedPath[separatorIndex+1:]
	}
	for _, patternValue := range ignorePatterns {
		normalizedPattern := normalizeForMatching(strings.TrimSpace(patternValue))
		if normalizedPattern == "" {
			continue
		}
		if strings.Contains(normalizedPattern, pathSegmentSeparator) {
			if strings.Contains(normalizedPath, normalizedPattern) {
				return true
			}
			continue
		}
		if fileName == normalizedPattern || strings.HasSuffix(fileName, normalizedPattern) {
			return true
		}
	}
	return false
}
