// Package session holds the application state of one aiclip run and the table
// of actions that transform it.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/aiclip/internal/commands"
	"github.com/temirov/aiclip/internal/config"
	"github.com/temirov/aiclip/internal/services/clipboard"
	"github.com/temirov/aiclip/internal/tokenizer"
	"github.com/temirov/aiclip/internal/types"
	"github.com/temirov/aiclip/internal/utils"
)

// Action names a user operation understood by the Dispatcher.
type Action string

// Supported actions.
const (
	ActionOpen      Action = "open"
	ActionRestore   Action = "restore"
	ActionRefresh   Action = "refresh"
	ActionToggle    Action = "toggle"
	ActionSelectAll Action = "select_all"
	ActionReset     Action = "reset"
	ActionExport    Action = "export"
	ActionOptions   Action = "options"
	ActionSnapshot  Action = "snapshot"
)

const (
	errorUnknownActionFormat = "unknown action %q"
	errorActionFormat        = "%s: %w"
	errorNodeNotFoundFormat  = "%s: %w"
	errorLoadGitignoreFormat = "load .gitignore for %s: %w"
	errorCopyPayloadFormat   = "copy payload: %w"
	errorCountTokensFormat   = "count payload tokens: %w"
)

var (
	// ErrNoTree is returned by actions that need a loaded folder when none is open.
	ErrNoTree = errors.New("no folder is open")
	// ErrNodeNotFound is returned when a requested path is not part of the loaded tree.
	ErrNodeNotFound = errors.New("path is not in the loaded tree")
)

// State is the complete application state: persisted user configuration, the
// open root folder and its loaded tree. Tree is nil until a folder is opened.
type State struct {
	Config config.UserConfig
	Root   string
	Tree   *types.TreeNode
}

// Request carries the arguments of one action. Fields not used by an action are ignored.
type Request struct {
	// Path is the folder for ActionOpen and the node path for ActionToggle.
	Path string
	// Checked sets an explicit state for ActionToggle; nil flips the node.
	Checked *bool
	// IncludeBinaries updates the binary-inclusion flag for ActionOptions when not nil.
	IncludeBinaries *bool
	// IgnorePatterns replaces the ignore patterns for ActionOptions when not nil.
	IgnorePatterns []string
}

// Result reports what an action did.
type Result struct {
	Issues   []types.WalkIssue
	Marked   int
	Export   commands.ExportResult
	Tokens   tokenizer.CountResult
	Feedback string
}

// Handler applies one action to state.
type Handler func(ctx context.Context, state State, request Request) (State, Result, error)

// Options configures a Dispatcher.
type Options struct {
	// Copier receives export payloads. Required for ActionExport.
	Copier clipboard.Copier
	// UseGitignore adds the root .gitignore to the ignore rules of every walk.
	UseGitignore bool
	// TokenCounter, when not nil, counts the tokens of each export payload.
	TokenCounter tokenizer.Counter
	// Logger receives debug traces. A nil Logger disables logging.
	Logger *zap.Logger
}

// Dispatcher maps actions to handlers.
type Dispatcher struct {
	handlers     map[Action]Handler
	copier       clipboard.Copier
	useGitignore bool
	tokenCounter tokenizer.Counter
	logger       *zap.Logger
}

// NewDispatcher returns a Dispatcher with every built-in action registered.
func NewDispatcher(options Options) *Dispatcher {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := &Dispatcher{
		copier:       options.Copier,
		useGitignore: options.UseGitignore,
		tokenCounter: options.TokenCounter,
		logger:       logger,
	}
	dispatcher.handlers = map[Action]Handler{
		ActionOpen:      dispatcher.open,
		ActionRestore:   dispatcher.restore,
		ActionRefresh:   dispatcher.refresh,
		ActionToggle:    toggle,
		ActionSelectAll: selectAll,
		ActionReset:     reset,
		ActionExport:    dispatcher.export,
		ActionOptions:   dispatcher.options,
		ActionSnapshot:  snapshot,
	}
	return dispatcher
}

// Register installs or replaces the handler for action.
func (dispatcher *Dispatcher) Register(action Action, handler Handler) {
	dispatcher.handlers[action] = handler
}

// Dispatch runs the handler registered for action. On error the input state is returned unchanged.
func (dispatcher *Dispatcher) Dispatch(ctx context.Context, state State, action Action, request Request) (State, Result, error) {
	handler, ok := dispatcher.handlers[action]
	if !ok {
		return state, Result{}, fmt.Errorf(errorUnknownActionFormat, action)
	}
	dispatcher.logger.Debug("dispatch", zap.String("action", string(action)), zap.String("path", request.Path))
	nextState, result, handlerError := handler(ctx, state, request)
	if handlerError != nil {
		return state, result, fmt.Errorf(errorActionFormat, action, handlerError)
	}
	return nextState, result, nil
}

// loadTree walks root with the ignore settings of userConfig.
func (dispatcher *Dispatcher) loadTree(ctx context.Context, userConfig config.UserConfig, root string) (commands.TreeResult, error) {
	builder := commands.TreeBuilder{
		IgnorePatterns:  userConfig.EffectiveIgnorePatterns(),
		IncludeBinaries: userConfig.IncludeBinaries,
	}
	var gitignoreIssue *types.WalkIssue
	if dispatcher.useGitignore {
		// The walk visits absolute paths, so the matcher root must be absolute too.
		gitignoreRoot, absolutePathError := filepath.Abs(root)
		if absolutePathError != nil {
			gitignoreRoot = root
		}
		matcher, loadError := config.LoadGitignoreMatcher(gitignoreRoot)
		if loadError != nil {
			gitignoreIssue = &types.WalkIssue{Path: gitignoreRoot, Err: fmt.Errorf(errorLoadGitignoreFormat, gitignoreRoot, loadError)}
		}
		builder.Gitignore = matcher
	}
	result, buildError := builder.BuildTree(ctx, root)
	if buildError != nil {
		return commands.TreeResult{}, buildError
	}
	if gitignoreIssue != nil {
		result.Issues = append([]types.WalkIssue{*gitignoreIssue}, result.Issues...)
	}
	for _, issue := range result.Issues {
		dispatcher.logger.Debug("walk issue", zap.String("path", issue.Path), zap.Error(issue.Err))
	}
	return result, nil
}

func (dispatcher *Dispatcher) open(ctx context.Context, state State, request Request) (State, Result, error) {
	treeResult, loadError := dispatcher.loadTree(ctx, state.Config, request.Path)
	if loadError != nil {
		return state, Result{}, loadError
	}
	next := state
	next.Root = treeResult.Root.Path
	next.Tree = treeResult.Root
	next.Config.PreviousProjects = append([]string(nil), state.Config.PreviousProjects...)
	next.Config.RememberProject(next.Root)
	return next, Result{Issues: treeResult.Issues}, nil
}

// restore reopens the last folder and re-checks the saved files without cascading.
// It does nothing when no last folder is recorded or it is no longer a directory.
func (dispatcher *Dispatcher) restore(ctx context.Context, state State, _ Request) (State, Result, error) {
	lastFolder := state.Config.LastFolder
	if lastFolder == "" {
		return state, Result{}, nil
	}
	if info, statError := os.Stat(lastFolder); statError != nil || !info.IsDir() {
		return state, Result{}, nil
	}
	treeResult, loadError := dispatcher.loadTree(ctx, state.Config, lastFolder)
	if loadError != nil {
		return state, Result{}, loadError
	}
	next := state
	next.Root = treeResult.Root.Path
	next.Tree = treeResult.Root
	marked := commands.MarkChecked(next.Tree, state.Config.CheckedFiles)
	return next, Result{Issues: treeResult.Issues, Marked: marked}, nil
}

// refresh rebuilds the tree of the open folder and re-checks files that survive.
func (dispatcher *Dispatcher) refresh(ctx context.Context, state State, _ Request) (State, Result, error) {
	if state.Tree == nil {
		return state, Result{}, ErrNoTree
	}
	checkedFiles := commands.CheckedFiles(state.Tree)
	treeResult, loadError := dispatcher.loadTree(ctx, state.Config, state.Root)
	if loadError != nil {
		return state, Result{}, loadError
	}
	next := state
	next.Tree = treeResult.Root
	marked := commands.MarkChecked(next.Tree, checkedFiles)
	return next, Result{Issues: treeResult.Issues, Marked: marked}, nil
}

func toggle(_ context.Context, state State, request Request) (State, Result, error) {
	if state.Tree == nil {
		return state, Result{}, ErrNoTree
	}
	node := state.Tree.Find(request.Path)
	if node == nil {
		return state, Result{}, fmt.Errorf(errorNodeNotFoundFormat, request.Path, ErrNodeNotFound)
	}
	if request.Checked != nil {
		commands.SetChecked(node, *request.Checked)
	} else {
		commands.ToggleChecked(node)
	}
	return state, Result{}, nil
}

func selectAll(_ context.Context, state State, _ Request) (State, Result, error) {
	if state.Tree == nil {
		return state, Result{}, ErrNoTree
	}
	commands.SetAll(state.Tree, true)
	return state, Result{}, nil
}

func reset(_ context.Context, state State, _ Request) (State, Result, error) {
	if state.Tree == nil {
		return state, Result{}, ErrNoTree
	}
	commands.SetAll(state.Tree, false)
	return state, Result{}, nil
}

// export concatenates the checked files and hands the payload to the copier.
// With nothing exported the copier is not called.
func (dispatcher *Dispatcher) export(_ context.Context, state State, _ Request) (State, Result, error) {
	if state.Tree == nil {
		return state, Result{Feedback: commands.FeedbackNoFilesCopied}, ErrNoTree
	}
	exportResult := commands.Export(state.Root, state.Tree)
	result := Result{Export: exportResult, Feedback: exportResult.Feedback()}
	for _, failure := range exportResult.Failures {
		dispatcher.logger.Debug("export failure", zap.String("path", failure.Path), zap.Error(failure.Err))
	}
	if exportResult.Count == 0 {
		return state, result, nil
	}
	if dispatcher.tokenCounter != nil {
		countResult, countError := tokenizer.CountPayload(dispatcher.tokenCounter, exportResult.Payload)
		if countError != nil {
			result.Feedback = commands.FeedbackNoFilesCopied
			return state, result, fmt.Errorf(errorCountTokensFormat, countError)
		}
		result.Tokens = countResult
	}
	copyError := clipboard.ErrUnsupported
	if dispatcher.copier != nil {
		copyError = dispatcher.copier.Copy(exportResult.Payload)
	}
	if copyError != nil {
		// Nothing reached the clipboard.
		result.Feedback = commands.FeedbackNoFilesCopied
		return state, result, fmt.Errorf(errorCopyPayloadFormat, copyError)
	}
	return state, result, nil
}

// options updates the binary-inclusion flag and ignore patterns, then rebuilds
// the open tree so the new rules apply.
func (dispatcher *Dispatcher) options(ctx context.Context, state State, request Request) (State, Result, error) {
	next := state
	if request.IncludeBinaries != nil {
		next.Config.IncludeBinaries = *request.IncludeBinaries
	}
	if request.IgnorePatterns != nil {
		next.Config.IgnorePatterns = cleanPatterns(request.IgnorePatterns)
	}
	if next.Tree == nil {
		return next, Result{}, nil
	}
	return dispatcher.refresh(ctx, next, request)
}

// snapshot copies the open folder and its existing checked files into the configuration.
func snapshot(_ context.Context, state State, _ Request) (State, Result, error) {
	next := state
	if next.Root != "" {
		next.Config.LastFolder = next.Root
	}
	if next.Tree != nil {
		next.Config.CheckedFiles = commands.CheckedFiles(next.Tree)
	}
	return next, Result{}, nil
}

// cleanPatterns trims each pattern and drops blank and repeated entries.
func cleanPatterns(patterns []string) []string {
	return utils.DeduplicatePatterns(utils.CleanPatternLines(patterns))
}
