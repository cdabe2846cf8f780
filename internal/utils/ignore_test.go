package utils_test

import (
	"testing"

	"github.com/temirov/aiclip/internal/utils"
)

// TestShouldIgnoreFile verifies name and path based exclusion for files.
func TestShouldIgnoreFile(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		path     string
		patterns []string
		expected bool
	}{
		{testName: "extension suffix", path: "/proj/photo.png", patterns: []string{".png"}, expected: true},
		{testName: "extension case insensitive", path: "/proj/PHOTO.PNG", patterns: []string{".png"}, expected: true},
		{testName: "pattern case insensitive", path: "/proj/photo.png", patterns: []string{".PNG"}, expected: true},
		{testName: "exact name", path: "/proj/package-lock.json", patterns: []string{"package-lock.json"}, expected: true},
		{testName: "name suffix", path: "/proj/my-package-lock.json", patterns: []string{"package-lock.json"}, expected: true},
		{testName: "bare pattern ignores directories in path", path: "/proj/obj/main.txt", patterns: []string{"obj"}, expected: false},
		{testName: "separator substring", path: "/proj/node_modules/index.js", patterns: []string{"/node_modules"}, expected: true},
		{testName: "backslash path normalized", path: `C:\proj\node_modules\index.js`, patterns: []string{"/node_modules"}, expected: true},
		{testName: "backslash pattern normalized", path: "/proj/node_modules/index.js", patterns: []string{`\node_modules`}, expected: true},
		{testName: "substring crosses segment boundary", path: "/proj/binaries/tool.txt", patterns: []string{"/bin"}, expected: true},
		{testName: "blank pattern skipped", path: "/proj/main.go", patterns: []string{"", "   "}, expected: false},
		{testName: "no match", path: "/proj/src/main.txt", patterns: utils.DefaultIgnorePatterns(), expected: false},
	}
	for index, testCase := range testCases {
		actual := utils.ShouldIgnoreFile(testCase.path, testCase.patterns)
		if actual != testCase.expected {
			testingInstance.Errorf("case %d (%s): expected %t, got %t", index, testCase.testName, testCase.expected, actual)
		}
	}
}

// TestShouldIgnoreDirectory verifies that only separator patterns exclude directories.
func TestShouldIgnoreDirectory(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		path     string
		patterns []string
		expected bool
	}{
		{testName: "leading slash pattern", path: "/proj/.git", patterns: []string{"/.git"}, expected: true},
		{testName: "nested match", path: "/proj/web/node_modules/react", patterns: []string{"/node_modules"}, expected: true},
		{testName: "bare pattern does not apply", path: "/proj/obj", patterns: []string{"obj"}, expected: false},
		{testName: "bare dotted pattern does not apply", path: "/proj/.github", patterns: []string{".github"}, expected: false},
		{testName: "default patterns keep github directory", path: "/proj/.github", patterns: utils.DefaultIgnorePatterns(), expected: false},
		{testName: "case insensitive", path: "/proj/Bin", patterns: []string{"/bin"}, expected: true},
		{testName: "unrelated directory", path: "/proj/src", patterns: utils.DefaultIgnorePatterns(), expected: false},
	}
	for index, testCase := range testCases {
		actual := utils.ShouldIgnoreDirectory(testCase.path, testCase.patterns)
		if actual != testCase.expected {
			testingInstance.Errorf("case %d (%s): expected %t, got %t", index, testCase.testName, testCase.expected, actual)
		}
	}
}

// TestDefaultIgnorePatternsReturnsCopy verifies callers cannot mutate the built-in list.
func TestDefaultIgnorePatternsReturnsCopy(testingInstance *testing.T) {
	first := utils.DefaultIgnorePatterns()
	first[0] = "mutated"
	second := utils.DefaultIgnorePatterns()
	if second[0] != ".png" {
		testingInstance.Fatalf("expected defaults to be unaffected, got %q", second[0])
	}
	if len(second) != 18 {
		testingInstance.Fatalf("expected 18 default patterns, got %d", len(second))
	}
}
