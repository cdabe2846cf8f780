// Package config loads application settings, persisted user state and ignore pattern sources.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/temirov/aiclip/internal/utils"
)

const (
	errorOpenPatternFileFormat    = "open pattern file %s: %w"
	errorReadPatternFileFormat    = "read pattern file %s: %w"
	errorCompileGitignoreFormat   = "compile %s: %w"
	errorStatGitignoreFormat      = "stat %s: %w"
	patternFileCommentPrefix      = "#"
	patternFileCarriageReturnByte = "\r"
)

// LoadPatternFile reads ignore patterns from a text file, one per line.
// Lines are trimmed; blank lines and lines starting with "#" are dropped.
//
// #nosec G304
func LoadPatternFile(patternFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(patternFilePath)
	if openFileError != nil {
		return nil, fmt.Errorf(errorOpenPatternFileFormat, patternFilePath, openFileError)
	}
	defer fileHandle.Close()

	var lines []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), patternFileCarriageReturnByte)
		if strings.HasPrefix(strings.TrimSpace(line), patternFileCommentPrefix) {
			continue
		}
		lines = append(lines, line)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, fmt.Errorf(errorReadPatternFileFormat, patternFilePath, scanError)
	}
	return utils.CleanPatternLines(lines), nil
}

// GitignoreMatcher reports whether paths below a root are excluded by the root .gitignore.
type GitignoreMatcher struct {
	rootPath string
	ignorer  *gitignore.GitIgnore
}

// LoadGitignoreMatcher compiles the .gitignore located directly in rootPath.
// A missing .gitignore yields a nil matcher and no error.
func LoadGitignoreMatcher(rootPath string) (*GitignoreMatcher, error) {
	gitignorePath := filepath.Join(rootPath, utils.GitIgnoreFileName)
	if _, statError := os.Stat(gitignorePath); statError != nil {
		if os.IsNotExist(statError) {
			return nil, nil
		}
		return nil, fmt.Errorf(errorStatGitignoreFormat, gitignorePath, statError)
	}
	compiledIgnore, compileError := gitignore.CompileIgnoreFile(gitignorePath)
	if compileError != nil {
		return nil, fmt.Errorf(errorCompileGitignoreFormat, gitignorePath, compileError)
	}
	return &GitignoreMatcher{rootPath: rootPath, ignorer: compiledIgnore}, nil
}

// Matches reports whether absolutePath is excluded. Directories are matched with a
// trailing slash so that directory-only rules such as "build/" apply.
func (matcher *GitignoreMatcher) Matches(absolutePath string, isDirectory bool) bool {
	if matcher == nil || matcher.ignorer == nil {
		return false
	}
	relativePath := utils.RelativePathOrSelf(absolutePath, matcher.rootPath)
	if relativePath == "." {
		return false
	}
	if isDirectory {
		relativePath += "/"
	}
	return matcher.ignorer.MatchesPath(relativePath)
}
