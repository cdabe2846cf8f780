package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/temirov/aiclip/internal/types"
	"github.com/temirov/aiclip/internal/utils"
)

const (
	// FeedbackFilesCopied is shown after at least one file was exported.
	FeedbackFilesCopied = "Files copied!"
	// FeedbackNoFilesCopied is shown when the export contained no files.
	FeedbackNoFilesCopied = "No files copied."
	// DefaultCopyLabel is the label the copy control returns to after feedback.
	DefaultCopyLabel = "Copy Selected Files to Clipboard"

	exportStartMarkerFormat = "### START %s\n"
	exportEndMarkerFormat   = "### END %s\n\n"
	exportReadErrorFormat   = "Error reading %s: %v\n"
	displayPathSeparator    = "/"
)

// ExportResult is the outcome of concatenating the checked files of a tree.
type ExportResult struct {
	Payload  string
	Count    int
	Failures []types.ExportFailure
}

// Bytes returns the payload length in bytes.
func (result ExportResult) Bytes() int {
	return len(result.Payload)
}

// Feedback returns the user-facing message describing the export.
func (result ExportResult) Feedback() string {
	if result.Count == 0 {
		return FeedbackNoFilesCopied
	}
	return FeedbackFilesCopied
}

// Export walks tree in document order and concatenates every checked node that
// still exists as a regular file. Each file is wrapped in START and END marker
// lines labelled with its display path. A file that cannot be read is replaced by
// an inline error line and recorded in Failures; it does not count as exported.
func Export(rootPath string, tree *types.TreeNode) ExportResult {
	var payloadBuilder strings.Builder
	result := ExportResult{}
	tree.Walk(func(current *types.TreeNode) bool {
		if !current.Checked || !isRegularFile(current.Path) {
			return true
		}
		fileBytes, readError := os.ReadFile(current.Path)
		if readError != nil {
			fmt.Fprintf(&payloadBuilder, exportReadErrorFormat, current.Path, readError)
			result.Failures = append(result.Failures, types.ExportFailure{Path: current.Path, Err: readError})
			return true
		}
		displayPath := DisplayPath(rootPath, current.Path)
		fmt.Fprintf(&payloadBuilder, exportStartMarkerFormat, displayPath)
		payloadBuilder.Write(fileBytes)
		payloadBuilder.WriteString("\n")
		fmt.Fprintf(&payloadBuilder, exportEndMarkerFormat, displayPath)
		result.Count++
		return true
	})
	result.Payload = payloadBuilder.String()
	return result
}

// DisplayPath labels filePath for export: the root's own name joined with the
// slash-separated path of filePath relative to the root. A root without a final
// component, such as a filesystem root, contributes its full path.
func DisplayPath(rootPath string, filePath string) string {
	rootLabel := strings.TrimSuffix(strings.ReplaceAll(utils.DisplayName(rootPath), "\\", displayPathSeparator), displayPathSeparator)
	relativePath := utils.RelativePathOrSelf(filePath, rootPath)
	return rootLabel + displayPathSeparator + relativePath
}
