// Package commands contains the core tree, selection and export logic shared by every front end.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/temirov/aiclip/internal/types"
	"github.com/temirov/aiclip/internal/utils"
)

const (
	// expandedSubdirectoryLimit is the largest number of subdirectories a directory
	// may have and still start expanded.
	expandedSubdirectoryLimit = 10

	errorAbsolutePathFormat  = "getting absolute path for %s: %w"
	errorStatRootFormat      = "inspecting root %s: %w"
	errorRootKindFormat      = "root %s: %w"
	errorReadDirectoryFormat = "reading directory %s: %w"
	errorStatEntryFormat     = "inspecting %s: %w"
	errorBuildTreeFormat     = "building tree for %s: %w"
)

// ErrRootNotDirectory is returned when the requested root exists but is not a directory.
var ErrRootNotDirectory = errors.New("root is not a directory")

// TreeResult is the outcome of loading a directory tree.
type TreeResult struct {
	Root   *types.TreeNode
	Issues []types.WalkIssue
}

// BuildTree loads the filtered tree below rootDirectoryPath. Subdirectories come
// before files at every level and entries are ordered by name. Directories that
// cannot be read contribute no children and are reported in TreeResult.Issues.
// A missing or non-directory root, or a cancelled context, is returned as an error.
func (treeBuilder *TreeBuilder) BuildTree(ctx context.Context, rootDirectoryPath string) (TreeResult, error) {
	absoluteRootDirPath, absolutePathError := filepath.Abs(rootDirectoryPath)
	if absolutePathError != nil {
		return TreeResult{}, fmt.Errorf(errorAbsolutePathFormat, rootDirectoryPath, absolutePathError)
	}
	rootInfo, rootStatError := os.Stat(absoluteRootDirPath)
	if rootStatError != nil {
		return TreeResult{}, fmt.Errorf(errorStatRootFormat, absoluteRootDirPath, rootStatError)
	}
	if !rootInfo.IsDir() {
		return TreeResult{}, fmt.Errorf(errorRootKindFormat, absoluteRootDirPath, ErrRootNotDirectory)
	}

	rootNode := &types.TreeNode{
		Name: utils.DisplayName(absoluteRootDirPath),
		Path: absoluteRootDirPath,
		Type: types.NodeTypeDirectory,
	}
	walk := &treeWalk{builder: treeBuilder}
	if buildError := walk.populate(ctx, rootNode); buildError != nil {
		return TreeResult{}, fmt.Errorf(errorBuildTreeFormat, absoluteRootDirPath, buildError)
	}
	return TreeResult{Root: rootNode, Issues: walk.issues}, nil
}

// treeWalk carries per-walk state.
type treeWalk struct {
	builder *TreeBuilder
	issues  []types.WalkIssue
}

func (walk *treeWalk) record(path string, err error) {
	walk.issues = append(walk.issues, types.WalkIssue{Path: path, Err: err})
}

// populate fills directoryNode.Children. Only context cancellation is returned.
func (walk *treeWalk) populate(ctx context.Context, directoryNode *types.TreeNode) error {
	if ctxError := ctx.Err(); ctxError != nil {
		return ctxError
	}

	directoryEntries, readDirectoryError := os.ReadDir(directoryNode.Path)
	if readDirectoryError != nil {
		walk.record(directoryNode.Path, fmt.Errorf(errorReadDirectoryFormat, directoryNode.Path, readDirectoryError))
		directoryNode.Children = nil
		directoryNode.Expanded = true
		return nil
	}

	var subdirectoryPaths []string
	var candidateFilePaths []string
	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(directoryNode.Path, directoryEntry.Name())
		isDirectory, followable, entryError := classifyEntry(childPath, directoryEntry)
		if entryError != nil {
			walk.record(childPath, entryError)
			continue
		}
		if !followable {
			continue
		}
		if isDirectory {
			if walk.builder.directoryExcluded(childPath) {
				continue
			}
			subdirectoryPaths = append(subdirectoryPaths, childPath)
			continue
		}
		if walk.builder.fileExcluded(childPath) {
			continue
		}
		candidateFilePaths = append(candidateFilePaths, childPath)
	}

	for _, subdirectoryPath := range subdirectoryPaths {
		childNode := &types.TreeNode{
			Name: filepath.Base(subdirectoryPath),
			Path: subdirectoryPath,
			Type: types.NodeTypeDirectory,
		}
		if buildError := walk.populate(ctx, childNode); buildError != nil {
			return buildError
		}
		directoryNode.Children = append(directoryNode.Children, childNode)
	}

	includedFilePaths, classifyError := walk.filterTextFiles(ctx, candidateFilePaths)
	if classifyError != nil {
		return classifyError
	}
	for _, filePath := range includedFilePaths {
		directoryNode.Children = append(directoryNode.Children, &types.TreeNode{
			Name: filepath.Base(filePath),
			Path: filePath,
			Type: types.NodeTypeFile,
		})
	}

	// Only included subdirectories count; ignored ones never reach the tree.
	directoryNode.Expanded = len(subdirectoryPaths) <= expandedSubdirectoryLimit
	return nil
}

// classifyEntry reports whether a directory entry is a directory and whether it
// should be walked at all. Symbolic links to files are treated as files; symbolic
// links to directories are not followed.
func classifyEntry(childPath string, directoryEntry os.DirEntry) (isDirectory bool, followable bool, err error) {
	if directoryEntry.Type()&os.ModeSymlink == 0 {
		return directoryEntry.IsDir(), true, nil
	}
	targetInfo, statError := os.Stat(childPath)
	if statError != nil {
		return false, false, fmt.Errorf(errorStatEntryFormat, childPath, statError)
	}
	if targetInfo.IsDir() {
		return false, false, nil
	}
	return false, true, nil
}

// filterTextFiles drops binary files unless binaries are included. Classification
// runs concurrently; the returned slice keeps the input order.
func (walk *treeWalk) filterTextFiles(ctx context.Context, filePaths []string) ([]string, error) {
	if walk.builder.IncludeBinaries || len(filePaths) == 0 {
		return filePaths, nil
	}

	verdicts := make([]bool, len(filePaths))
	sampleErrors := make([]error, len(filePaths))
	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(walk.builder.concurrency())
	for index, filePath := range filePaths {
		index, filePath := index, filePath
		group.Go(func() error {
			if ctxError := groupContext.Err(); ctxError != nil {
				return ctxError
			}
			verdicts[index], sampleErrors[index] = utils.IsFileBinary(filePath)
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return nil, waitError
	}

	textFilePaths := make([]string, 0, len(filePaths))
	for index, filePath := range filePaths {
		if sampleErrors[index] != nil {
			walk.record(filePath, sampleErrors[index])
		}
		if verdicts[index] {
			continue
		}
		textFilePaths = append(textFilePaths, filePath)
	}
	return textFilePaths, nil
}

func (treeBuilder *TreeBuilder) directoryExcluded(absolutePath string) bool {
	if utils.ShouldIgnoreDirectory(absolutePath, treeBuilder.IgnorePatterns) {
		return true
	}
	return treeBuilder.Gitignore.Matches(absolutePath, true)
}

func (treeBuilder *TreeBuilder) fileExcluded(absolutePath string) bool {
	if utils.ShouldIgnoreFile(absolutePath, treeBuilder.IgnorePatterns) {
		return true
	}
	return treeBuilder.Gitignore.Matches(absolutePath, false)
}

func (treeBuilder *TreeBuilder) concurrency() int {
	if treeBuilder.Concurrency > 0 {
		return treeBuilder.Concurrency
	}
	return runtime.NumCPU()
}
