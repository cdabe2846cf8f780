package commands

import "github.com/temirov/aiclip/internal/config"

// TreeBuilder builds directory tree nodes using configured options.
type TreeBuilder struct {
	// IgnorePatterns are substring and suffix rules; see utils.ShouldIgnoreFile.
	IgnorePatterns []string
	// IncludeBinaries disables the text classifier so every non-ignored file is kept.
	IncludeBinaries bool
	// Gitignore optionally excludes paths matched by the root .gitignore. May be nil.
	Gitignore *config.GitignoreMatcher
	// Concurrency bounds parallel file classification; zero means runtime.NumCPU().
	Concurrency int
}
