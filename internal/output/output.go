// Package output renders loaded directory trees for the command line.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/temirov/aiclip/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	checkedMarker   = "[x] "
	uncheckedMarker = "[ ] "
	directorySuffix = "/"

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	summaryLineFormat = "Summary: %d %s, %d checked\n"
)

// TreeSummary counts the files of a tree and how many of them are checked.
type TreeSummary struct {
	Files   int `json:"files"`
	Checked int `json:"checked"`
}

// Summarize counts file nodes and checked file nodes below node.
func Summarize(node *types.TreeNode) TreeSummary {
	summary := TreeSummary{}
	node.Walk(func(current *types.TreeNode) bool {
		if current.IsFile() {
			summary.Files++
			if current.Checked {
				summary.Checked++
			}
		}
		return true
	})
	return summary
}

func treeNodeLinePrefix(prefix string, isRoot bool, isLast bool) (string, string) {
	if isRoot {
		return "", ""
	}
	connector := treeBranchConnector
	childPrefix := prefix + treeBranchPadding
	if isLast {
		connector = treeLastConnector
		childPrefix = prefix + treeLastPadding
	}
	return prefix + connector, childPrefix
}

func checkMarker(node *types.TreeNode) string {
	if node.Checked {
		return checkedMarker
	}
	return uncheckedMarker
}

func renderTreeNode(writer io.Writer, node *types.TreeNode, prefix string, isRoot bool, isLast bool) {
	if node == nil {
		return
	}
	linePrefix, childPrefix := treeNodeLinePrefix(prefix, isRoot, isLast)
	if isRoot {
		fmt.Fprintf(writer, "%s\n", node.Path)
	} else if node.IsDirectory() {
		fmt.Fprintf(writer, "%s%s%s%s\n", linePrefix, checkMarker(node), node.Name, directorySuffix)
	} else {
		fmt.Fprintf(writer, "%s%s%s\n", linePrefix, checkMarker(node), node.Name)
	}
	for index, child := range node.Children {
		renderTreeNode(writer, child, childPrefix, false, index == len(node.Children)-1)
	}
}

// WriteTreeRaw renders a directory tree with check markers to the provided writer,
// followed by a summary line.
func WriteTreeRaw(writer io.Writer, node *types.TreeNode) {
	if node == nil {
		return
	}
	renderTreeNode(writer, node, "", true, true)
	summary := Summarize(node)
	label := "files"
	if summary.Files == 1 {
		label = "file"
	}
	fmt.Fprintf(writer, summaryLineFormat, summary.Files, label, summary.Checked)
}

// WriteTreeJSON writes node as indented JSON.
func WriteTreeJSON(writer io.Writer, node *types.TreeNode) error {
	encoded, jsonEncodeError := json.MarshalIndent(node, indentPrefix, indentSpacer)
	if jsonEncodeError != nil {
		return fmt.Errorf("encode tree: %w", jsonEncodeError)
	}
	_, writeError := fmt.Fprintf(writer, "%s\n", encoded)
	return writeError
}

// WriteTree renders node in the requested format, types.FormatRaw or types.FormatJSON.
func WriteTree(writer io.Writer, node *types.TreeNode, format string) error {
	switch format {
	case types.FormatJSON:
		return WriteTreeJSON(writer, node)
	case types.FormatRaw, "":
		WriteTreeRaw(writer, node)
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
