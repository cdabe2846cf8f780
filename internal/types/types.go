// Package types defines every cross‑package data structure used by the aiclip CLI.
package types

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	FormatRaw  = "raw"
	FormatJSON = "json"
)

// TreeNode is one filesystem entry of a loaded directory tree.
// Each node owns its children; nothing points back up the tree.
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Type     string      `json:"type"`
	Checked  bool        `json:"checked"`
	Expanded bool        `json:"-"`
	Children []*TreeNode `json:"children,omitempty"`
}

// IsDirectory reports whether the node represents a directory.
func (node *TreeNode) IsDirectory() bool {
	return node != nil && node.Type == NodeTypeDirectory
}

// IsFile reports whether the node represents a file.
func (node *TreeNode) IsFile() bool {
	return node != nil && node.Type == NodeTypeFile
}

// Walk visits node and its descendants in document order (parents before children).
// Returning false from visit skips the descendants of that node.
func (node *TreeNode) Walk(visit func(*TreeNode) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for _, child := range node.Children {
		child.Walk(visit)
	}
}

// Find returns the node whose Path equals path, or nil.
func (node *TreeNode) Find(path string) *TreeNode {
	var found *TreeNode
	node.Walk(func(current *TreeNode) bool {
		if found != nil {
			return false
		}
		if current.Path == path {
			found = current
			return false
		}
		return true
	})
	return found
}

// WalkIssue records a non-fatal failure encountered while loading a tree.
type WalkIssue struct {
	Path string
	Err  error
}

// ExportFailure records a checked file whose content could not be read.
type ExportFailure struct {
	Path string
	Err  error
}
