package commands

import (
	"os"

	"github.com/temirov/aiclip/internal/types"
)

// SetChecked sets node and every descendant to checked, depth-first.
func SetChecked(node *types.TreeNode, checked bool) {
	node.Walk(func(current *types.TreeNode) bool {
		current.Checked = checked
		return true
	})
}

// SetAll sets every node of the tree to checked.
func SetAll(root *types.TreeNode, checked bool) {
	SetChecked(root, checked)
}

// ToggleChecked flips the checked state of node and cascades the new state to its descendants.
func ToggleChecked(node *types.TreeNode) {
	if node == nil {
		return
	}
	SetChecked(node, !node.Checked)
}

// MarkChecked checks the file nodes whose paths appear in paths without
// cascading, and returns how many nodes were marked. Unknown paths are ignored.
func MarkChecked(root *types.TreeNode, paths []string) int {
	if len(paths) == 0 {
		return 0
	}
	wanted := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		wanted[path] = struct{}{}
	}
	marked := 0
	root.Walk(func(current *types.TreeNode) bool {
		if !current.IsFile() {
			return true
		}
		if _, ok := wanted[current.Path]; ok {
			current.Checked = true
			marked++
		}
		return true
	})
	return marked
}

// CheckedFiles returns the paths of checked file nodes that still exist as
// regular files, in document order.
func CheckedFiles(root *types.TreeNode) []string {
	checkedPaths := []string{}
	root.Walk(func(current *types.TreeNode) bool {
		if current.IsFile() && current.Checked && isRegularFile(current.Path) {
			checkedPaths = append(checkedPaths, current.Path)
		}
		return true
	})
	return checkedPaths
}

// ExpandAll sets the expanded hint on every directory node.
func ExpandAll(root *types.TreeNode, expanded bool) {
	root.Walk(func(current *types.TreeNode) bool {
		if current.IsDirectory() {
			current.Expanded = expanded
		}
		return true
	})
}

func isRegularFile(path string) bool {
	info, statError := os.Stat(path)
	return statError == nil && info.Mode().IsRegular()
}
