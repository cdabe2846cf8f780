// Package ui implements the interactive terminal file picker.
package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/temirov/aiclip/internal/commands"
	"github.com/temirov/aiclip/internal/services/feedback"
	"github.com/temirov/aiclip/internal/session"
	"github.com/temirov/aiclip/internal/types"
	"github.com/temirov/aiclip/internal/utils"
)

const (
	defaultVisibleRows  = 20
	reservedViewRows    = 10
	filterPlaceholder   = "Type to fuzzy-search files..."
	filterPrompt        = "/ "
	noFolderMessage     = "No folder is open."
	noMatchesMessage    = "No matching files."
	issueSummaryFormat  = "%d path(s) could not be read"
	copySummaryFormat   = "%d file(s), %s"
	tokenSummaryFormat  = ", %d tokens"
	expandedMarker      = "▾ "
	collapsedMarker     = "▸ "
	fileMarker          = "  "
	checkedBox          = "[x] "
	uncheckedBox        = "[ ] "
	cursorMarker        = "> "
	noCursorMarker      = "  "
	indentUnit          = "  "
	directoryNameSuffix = "/"
)

// feedbackMsg asks the program to redraw after the copy label changed.
type feedbackMsg struct {
	label string
}

// row is one visible line of the picker.
type row struct {
	node  *types.TreeNode
	depth int
	label string
}

// messageSender forwards messages to a running program once one is attached.
type messageSender struct {
	mutex   sync.Mutex
	program *tea.Program
}

func (sender *messageSender) attach(program *tea.Program) {
	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	sender.program = program
}

func (sender *messageSender) send(message tea.Msg) {
	sender.mutex.Lock()
	program := sender.program
	sender.mutex.Unlock()
	if program != nil {
		program.Send(message)
	}
}

// Model is the Bubble Tea model of the picker.
type Model struct {
	ctx        context.Context
	dispatcher *session.Dispatcher
	state      session.State
	indicator  *feedback.Indicator
	sender     *messageSender
	keys       keyMap

	filter    textinput.Model
	filtering bool

	rows     []row
	cursor   int
	offset   int
	height   int
	status   string
	summary  string
	quitting bool
	err      error
}

// NewModel returns a picker over state. The copy label shows export feedback
// for feedbackDelay before returning to its default text.
func NewModel(ctx context.Context, dispatcher *session.Dispatcher, state session.State, feedbackDelay time.Duration) Model {
	sender := &messageSender{}
	filterInput := textinput.New()
	filterInput.Placeholder = filterPlaceholder
	filterInput.Prompt = filterPrompt
	filterInput.CharLimit = 0

	model := Model{
		ctx:        ctx,
		dispatcher: dispatcher,
		state:      state,
		sender:     sender,
		keys:       defaultKeyMap(),
		filter:     filterInput,
		height:     defaultVisibleRows,
		indicator: feedback.NewIndicator(commands.DefaultCopyLabel, feedbackDelay, func(label string) {
			sender.send(feedbackMsg{label: label})
		}),
	}
	model.rebuildRows()
	return model
}

// State returns the session state held by the picker.
func (model Model) State() session.State {
	return model.state
}

// Err returns the last error that ended the picker, if any.
func (model Model) Err() error {
	return model.err
}

// CopyLabel returns the current text of the copy control.
func (model Model) CopyLabel() string {
	return model.indicator.Current()
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMessage := message.(type) {
	case tea.WindowSizeMsg:
		model.height = typedMessage.Height - reservedViewRows
		if model.height < 1 {
			model.height = 1
		}
		model.scrollToCursor()
		return model, nil
	case feedbackMsg:
		return model, nil
	case tea.KeyMsg:
		if model.filtering {
			return model.updateFiltering(typedMessage)
		}
		return model.updateBrowsing(typedMessage)
	}
	return model, nil
}

func (model Model) updateFiltering(keyMessage tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMessage.Type == tea.KeyCtrlC:
		return model.quit()
	case key.Matches(keyMessage, model.keys.ClearFilter):
		model.clearFilter()
		return model, nil
	case key.Matches(keyMessage, model.keys.ApplyFilter):
		model.filtering = false
		model.filter.Blur()
		return model, nil
	case keyMessage.Type == tea.KeyUp:
		model.moveCursor(-1)
		return model, nil
	case keyMessage.Type == tea.KeyDown:
		model.moveCursor(1)
		return model, nil
	}
	var command tea.Cmd
	previousQuery := model.filter.Value()
	model.filter, command = model.filter.Update(keyMessage)
	if model.filter.Value() != previousQuery {
		model.cursor = 0
		model.rebuildRows()
	}
	return model, command
}

func (model Model) updateBrowsing(keyMessage tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(keyMessage, model.keys.Quit):
		return model.quit()
	case key.Matches(keyMessage, model.keys.Up):
		model.moveCursor(-1)
	case key.Matches(keyMessage, model.keys.Down):
		model.moveCursor(1)
	case key.Matches(keyMessage, model.keys.Toggle):
		if node := model.currentNode(); node != nil {
			_, _ = model.dispatch(session.ActionToggle, session.Request{Path: node.Path})
		}
	case key.Matches(keyMessage, model.keys.Collapse):
		if node := model.currentNode(); node.IsDirectory() && node.Expanded {
			node.Expanded = false
			model.rebuildRows()
		}
	case key.Matches(keyMessage, model.keys.Expand):
		if node := model.currentNode(); node.IsDirectory() && !node.Expanded {
			node.Expanded = true
			model.rebuildRows()
		}
	case key.Matches(keyMessage, model.keys.SelectAll):
		_, _ = model.dispatch(session.ActionSelectAll, session.Request{})
	case key.Matches(keyMessage, model.keys.Reset):
		_, _ = model.dispatch(session.ActionReset, session.Request{})
	case key.Matches(keyMessage, model.keys.Refresh):
		_, _ = model.dispatch(session.ActionRefresh, session.Request{})
		model.rebuildRows()
	case key.Matches(keyMessage, model.keys.Copy):
		model.copySelection()
	case key.Matches(keyMessage, model.keys.StartFilter):
		model.filtering = true
		focusCommand := model.filter.Focus()
		return model, focusCommand
	case key.Matches(keyMessage, model.keys.ClearFilter):
		model.clearFilter()
	}
	return model, nil
}

// dispatch runs action and keeps the resulting state; failures are shown in the status line.
func (model *Model) dispatch(action session.Action, request session.Request) (session.Result, error) {
	nextState, result, dispatchError := model.dispatcher.Dispatch(model.ctx, model.state, action, request)
	if dispatchError != nil {
		model.status = dispatchError.Error()
		return result, dispatchError
	}
	model.state = nextState
	model.status = ""
	if len(result.Issues) > 0 {
		model.status = fmt.Sprintf(issueSummaryFormat, len(result.Issues))
	}
	return result, nil
}

func (model *Model) copySelection() {
	result, exportError := model.dispatch(session.ActionExport, session.Request{})
	model.summary = ""
	if exportError != nil {
		model.indicator.Show(commands.FeedbackNoFilesCopied)
		return
	}
	if result.Feedback != "" {
		model.indicator.Show(result.Feedback)
	}
	if len(result.Export.Failures) > 0 && model.status == "" {
		model.status = fmt.Sprintf(issueSummaryFormat, len(result.Export.Failures))
	}
	if result.Export.Count > 0 {
		model.summary = fmt.Sprintf(copySummaryFormat, result.Export.Count, utils.FormatFileSize(int64(result.Export.Bytes())))
		if result.Tokens.Counted {
			model.summary += fmt.Sprintf(tokenSummaryFormat, result.Tokens.Tokens)
		}
	}
}

// Snapshot returns the picker state with the open folder and checked files
// captured for saving.
func (model Model) Snapshot() (session.State, error) {
	nextState, _, snapshotError := model.dispatcher.Dispatch(model.ctx, model.state, session.ActionSnapshot, session.Request{})
	if snapshotError != nil {
		return model.state, snapshotError
	}
	return nextState, nil
}

func (model Model) quit() (tea.Model, tea.Cmd) {
	nextState, snapshotError := model.Snapshot()
	model.state = nextState
	model.err = snapshotError
	model.indicator.Stop()
	model.quitting = true
	return model, tea.Quit
}

func (model *Model) clearFilter() {
	model.filtering = false
	model.filter.Blur()
	model.filter.SetValue("")
	model.rebuildRows()
}

func (model *Model) moveCursor(delta int) {
	model.cursor += delta
	if model.cursor >= len(model.rows) {
		model.cursor = len(model.rows) - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
	model.scrollToCursor()
}

func (model *Model) scrollToCursor() {
	if model.cursor < model.offset {
		model.offset = model.cursor
	}
	if model.cursor >= model.offset+model.height {
		model.offset = model.cursor - model.height + 1
	}
	if model.offset < 0 {
		model.offset = 0
	}
}

func (model Model) currentNode() *types.TreeNode {
	if model.cursor < 0 || model.cursor >= len(model.rows) {
		return nil
	}
	return model.rows[model.cursor].node
}

// rebuildRows recomputes the visible rows from the tree and the filter query.
func (model *Model) rebuildRows() {
	model.rows = nil
	if model.state.Tree == nil {
		model.cursor = 0
		return
	}
	query := strings.TrimSpace(model.filter.Value())
	if query == "" {
		model.state.Tree.Walk(func(current *types.TreeNode) bool {
			model.rows = append(model.rows, row{node: current, depth: depthBelow(model.state.Root, current.Path), label: current.Name})
			return !current.IsDirectory() || current.Expanded
		})
	} else {
		model.rows = filterRows(model.state.Root, model.state.Tree, query)
	}
	model.moveCursor(0)
}

// filterRows returns the file nodes whose relative path fuzzy-matches query, best match first.
func filterRows(rootPath string, tree *types.TreeNode, query string) []row {
	var fileNodes []*types.TreeNode
	var relativePaths []string
	tree.Walk(func(current *types.TreeNode) bool {
		if current.IsFile() {
			fileNodes = append(fileNodes, current)
			relativePaths = append(relativePaths, utils.RelativePathOrSelf(current.Path, rootPath))
		}
		return true
	})
	matches := fuzzy.Find(query, relativePaths)
	rows := make([]row, 0, len(matches))
	for _, match := range matches {
		rows = append(rows, row{node: fileNodes[match.Index], label: match.Str})
	}
	return rows
}

func depthBelow(rootPath string, nodePath string) int {
	relativePath := utils.RelativePathOrSelf(nodePath, rootPath)
	if relativePath == "." {
		return 0
	}
	return strings.Count(relativePath, "/") + 1
}

// View implements tea.Model.
func (model Model) View() string {
	if model.quitting {
		return ""
	}
	var builder strings.Builder
	if model.state.Tree == nil {
		builder.WriteString(titleStyle.Render("aiclip") + "\n\n" + noFolderMessage + "\n")
		return docStyle.Render(builder.String())
	}

	builder.WriteString(titleStyle.Render("aiclip: "+model.state.Root) + "\n")
	if model.filtering || model.filter.Value() != "" {
		builder.WriteString(filterStyle.Render(model.filter.View()) + "\n")
	}
	builder.WriteString("\n")

	if len(model.rows) == 0 {
		builder.WriteString(noMatchesMessage + "\n")
	}
	end := model.offset + model.height
	if end > len(model.rows) {
		end = len(model.rows)
	}
	for index := model.offset; index < end; index++ {
		builder.WriteString(model.renderRow(index) + "\n")
	}

	builder.WriteString("\n" + buttonStyle.Render(model.indicator.Current()) + "\n")
	if model.summary != "" {
		builder.WriteString(helpStyle.Render(model.summary) + "\n")
	}
	if model.status != "" {
		builder.WriteString(errorStyle.Render(model.status) + "\n")
	}
	builder.WriteString(helpStyle.Render(model.helpLine()))
	return docStyle.Render(builder.String())
}

func (model Model) renderRow(index int) string {
	currentRow := model.rows[index]
	node := currentRow.node

	cursor := noCursorMarker
	if index == model.cursor {
		cursor = cursorStyle.Render(cursorMarker)
	}
	box := uncheckedBox
	if node.Checked {
		box = checkedStyle.Render(checkedBox)
	}
	marker := fileMarker
	label := currentRow.label
	if node.IsDirectory() {
		marker = collapsedMarker
		if node.Expanded {
			marker = expandedMarker
		}
		label = directoryStyle.Render(label + directoryNameSuffix)
	}
	return cursor + strings.Repeat(indentUnit, currentRow.depth) + box + marker + label
}

func (model Model) helpLine() string {
	bindings := model.keys.browseHelp()
	if model.filtering {
		bindings = model.keys.filterHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return strings.Join(parts, " • ")
}
