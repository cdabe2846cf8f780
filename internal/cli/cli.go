// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/aiclip/internal/config"
	"github.com/temirov/aiclip/internal/output"
	"github.com/temirov/aiclip/internal/services/clipboard"
	"github.com/temirov/aiclip/internal/session"
	"github.com/temirov/aiclip/internal/tokenizer"
	"github.com/temirov/aiclip/internal/types"
	"github.com/temirov/aiclip/internal/ui"
	"github.com/temirov/aiclip/internal/utils"
)

const (
	versionFlagName         = "version"
	configFlagName          = "config"
	stateFlagName           = "state"
	includeBinariesFlagName = "include-binaries"
	gitignoreFlagName       = "gitignore"
	formatFlagName          = "format"
	selectFlagName          = "select"
	selectFlagShorthand     = "s"
	allFlagName             = "all"
	stdoutFlagName          = "stdout"
	tokensFlagName          = "tokens"
	modelFlagName           = "model"
	ignoreFlagName          = "ignore"
	ignoreFileFlagName      = "ignore-file"
	resetIgnoreFlagName     = "reset-ignore"
	globalFlagName          = "global"
	forceFlagName           = "force"

	versionTemplate      = "aiclip version: %s\n"
	rootUse              = "aiclip"
	rootShortDescription = "select project files and copy them to the clipboard"
	rootLongDescription  = `aiclip browses a directory tree, lets you check files and copies their
contents to the clipboard, each wrapped in START and END marker lines, ready to
paste into an AI chat. The last folder, checked files and options are saved
between runs.`

	treeUse              = "tree [path]"
	treeAlias            = "t"
	treeShortDescription = "display the filtered directory tree (" + treeAlias + ")"
	treeLongDescription  = `List the directories and files aiclip would offer for selection.
Check marks show the saved selection when path is the last opened folder.`
	treeUsageExample = `  # Show the tree of the current directory
  aiclip tree

  # Render JSON including binary files
  aiclip tree --format json --include-binaries ./project`

	copyUse              = "copy [path]"
	copyAlias            = "c"
	copyShortDescription = "copy checked files to the clipboard (" + copyAlias + ")"
	copyLongDescription  = `Export checked files of path to the clipboard. Without --select or --all the
saved selection of the folder is used. Selected directories include all their files.`
	copyUsageExample = `  # Copy two files of the current project
  aiclip copy -s cmd/main.go -s README.md

  # Print every file of a project with a token estimate
  aiclip copy --all --stdout --tokens ./project`

	pickUse              = "pick [path]"
	pickAlias            = "p"
	pickShortDescription = "choose files interactively (" + pickAlias + ")"
	pickLongDescription  = `Open an interactive checkbox tree. Space toggles a file or a whole directory,
c or enter copies, / filters, q saves and quits.`

	optionsUse              = "options"
	optionsShortDescription = "show or change ignore patterns and binary inclusion"
	optionsUsageExample     = `  # Replace the ignore patterns
  aiclip options --ignore /dist --ignore .lock

  # Load patterns from a file and include binary files
  aiclip options --ignore-file patterns.txt --include-binaries`

	projectsUse              = "projects"
	projectsShortDescription = "list previously opened folders"

	initUse              = "init"
	initShortDescription = "write the default application configuration"

	versionFlagDescription         = "display application version"
	configFlagDescription          = "path of the YAML application configuration"
	stateFlagDescription           = "path of the JSON state file"
	includeBinariesFlagDescription = "include binary files and save the choice"
	gitignoreFlagDescription       = "also exclude paths matched by the root .gitignore"
	formatFlagDescription          = "output format (raw or json)"
	selectFlagDescription          = "file or directory to check, relative to path"
	allFlagDescription             = "check every file"
	stdoutFlagDescription          = "write the payload to standard output instead of the clipboard"
	tokensFlagDescription          = "count payload tokens"
	modelFlagDescription           = "tokenizer model used for token counting"
	ignoreFlagDescription          = "ignore pattern (repeatable, replaces the saved list)"
	ignoreFileFlagDescription      = "file with one ignore pattern per line"
	resetIgnoreFlagDescription     = "restore the default ignore patterns"
	globalFlagDescription          = "write the configuration under the home directory"
	forceFlagDescription           = "overwrite an existing configuration"

	defaultPath = "."

	invalidFormatMessage        = "invalid format value '%s'"
	errorWorkingDirectoryFormat = "determine working directory: %w"
	errorSelectionFormat        = "select %s: %w"
	errorTokenizerFormat        = "initialize tokenizer: %w"
	errorLoadConfigFormat       = "load configuration: %w"
	errorResolveStateFormat     = "resolve state file: %w"

	warningStateLoadMessage  = "state file unusable, using defaults"
	warningStateSaveMessage  = "state file not saved"
	warningWalkIssueMessage  = "skipped path"
	warningExportFailMessage = "file not exported"
	infoConfigWrittenMessage = "configuration written"

	logFieldPath   = "path"
	logFieldFiles  = "files"
	logFieldBytes  = "bytes"
	logFieldTokens = "tokens"
	logFieldModel  = "model"
)

// pickerRunner runs the interactive picker and returns the final state.
type pickerRunner func(ctx context.Context, dispatcher *session.Dispatcher, state session.State, feedbackDelay time.Duration) (session.State, error)

// application holds the dependencies and global flag values shared by all commands.
type application struct {
	logger    *zap.Logger
	newCopier func() clipboard.Copier
	runPicker pickerRunner

	showVersion     bool
	configPath      string
	statePath       string
	includeBinaries *bool
	useGitignore    *bool
}

// Execute runs the aiclip application. An interrupt cancels the running command.
func Execute(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	app := newApplication(logger)
	return app.execute(ctx, os.Args[1:], os.Stdout)
}

func newApplication(logger *zap.Logger) *application {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &application{
		logger:    logger,
		newCopier: func() clipboard.Copier { return clipboard.NewService() },
		runPicker: ui.Run,
	}
}

func (app *application) execute(ctx context.Context, arguments []string, stdout io.Writer) error {
	rootCommand := app.createRootCommand()
	rootCommand.SetOut(stdout)
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, arguments))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func (app *application) createRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if app.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	persistentFlags := rootCommand.PersistentFlags()
	registerBooleanFlag(persistentFlags, &app.showVersion, versionFlagName, false, versionFlagDescription)
	persistentFlags.StringVar(&app.configPath, configFlagName, "", configFlagDescription)
	persistentFlags.StringVar(&app.statePath, stateFlagName, "", stateFlagDescription)
	registerOptionalBooleanFlag(persistentFlags, &app.includeBinaries, includeBinariesFlagName, includeBinariesFlagDescription)
	registerOptionalBooleanFlag(persistentFlags, &app.useGitignore, gitignoreFlagName, gitignoreFlagDescription)

	rootCommand.AddCommand(
		app.createTreeCommand(),
		app.createCopyCommand(),
		app.createPickCommand(),
		app.createOptionsCommand(),
		app.createProjectsCommand(),
		app.createInitCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// runtimeSession is the state loaded for one command invocation.
type runtimeSession struct {
	settings  config.ApplicationConfiguration
	statePath string
	state     session.State
}

// loadSession reads the application configuration and the saved state, applying global flag overrides.
func (app *application) loadSession() (*runtimeSession, error) {
	settings, loadError := config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: app.configPath})
	if loadError != nil {
		return nil, fmt.Errorf(errorLoadConfigFormat, loadError)
	}
	if app.useGitignore != nil {
		settings.UseGitignore = app.useGitignore
	}
	statePath := app.statePath
	if statePath == "" {
		resolvedPath, resolveError := settings.ResolvedStateFile()
		if resolveError != nil {
			return nil, fmt.Errorf(errorResolveStateFormat, resolveError)
		}
		statePath = resolvedPath
	}
	userConfig, stateError := config.LoadUserConfig(statePath)
	if stateError != nil {
		app.logger.Warn(warningStateLoadMessage, zap.String(logFieldPath, statePath), zap.Error(stateError))
	}
	if app.includeBinaries != nil {
		userConfig.IncludeBinaries = *app.includeBinaries
	}
	return &runtimeSession{settings: settings, statePath: statePath, state: session.State{Config: userConfig}}, nil
}

// save writes the session configuration. Failures are logged, never returned.
func (app *application) save(runtime *runtimeSession) {
	if saveError := config.SaveUserConfig(runtime.statePath, runtime.state.Config); saveError != nil {
		app.logger.Warn(warningStateSaveMessage, zap.String(logFieldPath, runtime.statePath), zap.Error(saveError))
	}
}

func (app *application) newDispatcher(runtime *runtimeSession, copier clipboard.Copier, counter tokenizer.Counter) *session.Dispatcher {
	return session.NewDispatcher(session.Options{
		Copier:       copier,
		UseGitignore: runtime.settings.GitignoreEnabled(),
		TokenCounter: counter,
		Logger:       app.logger,
	})
}

// openFolder loads the folder named by arguments, or the last folder when none is given.
// The saved selection is restored when the folder is the last opened one.
func (app *application) openFolder(ctx context.Context, dispatcher *session.Dispatcher, runtime *runtimeSession, arguments []string) error {
	requestedPath := ""
	if len(arguments) > 0 {
		requestedPath = arguments[0]
	}
	if requestedPath == "" && runtime.state.Config.LastFolder == "" {
		requestedPath = defaultPath
	}
	if requestedPath != "" {
		absolutePath, absolutePathError := filepath.Abs(requestedPath)
		if absolutePathError != nil {
			return fmt.Errorf(errorWorkingDirectoryFormat, absolutePathError)
		}
		requestedPath = absolutePath
	}

	if requestedPath == "" || filepath.Clean(requestedPath) == filepath.Clean(runtime.state.Config.LastFolder) {
		nextState, result, restoreError := dispatcher.Dispatch(ctx, runtime.state, session.ActionRestore, session.Request{})
		if restoreError != nil {
			return restoreError
		}
		app.logIssues(result.Issues)
		runtime.state = nextState
		if runtime.state.Tree != nil {
			return nil
		}
		if requestedPath == "" {
			requestedPath = defaultPath
		}
	}

	nextState, result, openError := dispatcher.Dispatch(ctx, runtime.state, session.ActionOpen, session.Request{Path: requestedPath})
	if openError != nil {
		return openError
	}
	app.logIssues(result.Issues)
	runtime.state = nextState
	return nil
}

func (app *application) logIssues(issues []types.WalkIssue) {
	for _, issue := range issues {
		app.logger.Warn(warningWalkIssueMessage, zap.String(logFieldPath, issue.Path), zap.Error(issue.Err))
	}
}

// createTreeCommand returns the tree subcommand.
func (app *application) createTreeCommand() *cobra.Command {
	outputFormat := types.FormatRaw

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			outputFormatLower := strings.ToLower(outputFormat)
			if outputFormatLower != types.FormatRaw && outputFormatLower != types.FormatJSON {
				return fmt.Errorf(invalidFormatMessage, outputFormatLower)
			}
			runtime, loadError := app.loadSession()
			if loadError != nil {
				return loadError
			}
			dispatcher := app.newDispatcher(runtime, nil, nil)
			if openError := app.openFolder(command.Context(), dispatcher, runtime, arguments); openError != nil {
				return openError
			}
			return output.WriteTree(command.OutOrStdout(), runtime.state.Tree, outputFormatLower)
		},
	}
	treeCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatRaw, formatFlagDescription)
	return treeCommand
}

// createCopyCommand returns the copy subcommand.
func (app *application) createCopyCommand() *cobra.Command {
	var selections []string
	var selectAll bool
	var toStdout bool
	var tokensEnabled *bool
	var tokenModel string

	copyCommand := &cobra.Command{
		Use:     copyUse,
		Aliases: []string{copyAlias},
		Short:   copyShortDescription,
		Long:    copyLongDescription,
		Example: copyUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, loadError := app.loadSession()
			if loadError != nil {
				return loadError
			}

			var counter tokenizer.Counter
			resolvedModel := ""
			if resolveTokensEnabled(runtime.settings, tokensEnabled) {
				model := tokenModel
				if model == "" {
					model = runtime.settings.TokenModel()
				}
				createdCounter, modelName, counterError := tokenizer.NewCounter(tokenizer.Config{Model: model})
				if counterError != nil {
					return fmt.Errorf(errorTokenizerFormat, counterError)
				}
				counter = createdCounter
				resolvedModel = modelName
			}

			var copier clipboard.Copier
			if toStdout {
				copier = clipboard.WriterCopier{Writer: command.OutOrStdout()}
			} else {
				copier = app.newCopier()
			}
			dispatcher := app.newDispatcher(runtime, copier, counter)
			ctx := command.Context()
			if openError := app.openFolder(ctx, dispatcher, runtime, arguments); openError != nil {
				return openError
			}
			if selectionError := app.applySelections(ctx, dispatcher, runtime, selections, selectAll); selectionError != nil {
				return selectionError
			}

			nextState, result, exportError := dispatcher.Dispatch(ctx, runtime.state, session.ActionExport, session.Request{})
			if exportError != nil {
				return exportError
			}
			runtime.state = nextState
			for _, failure := range result.Export.Failures {
				app.logger.Warn(warningExportFailMessage, zap.String(logFieldPath, failure.Path), zap.Error(failure.Err))
			}
			fields := []zap.Field{zap.Int(logFieldFiles, result.Export.Count), zap.Int(logFieldBytes, result.Export.Bytes())}
			if result.Tokens.Counted {
				fields = append(fields, zap.Int(logFieldTokens, result.Tokens.Tokens), zap.String(logFieldModel, resolvedModel))
			}
			app.logger.Info(result.Feedback, fields...)

			return app.snapshotAndSave(ctx, dispatcher, runtime)
		},
	}
	flags := copyCommand.Flags()
	flags.StringArrayVarP(&selections, selectFlagName, selectFlagShorthand, nil, selectFlagDescription)
	registerBooleanFlag(flags, &selectAll, allFlagName, false, allFlagDescription)
	registerBooleanFlag(flags, &toStdout, stdoutFlagName, false, stdoutFlagDescription)
	registerOptionalBooleanFlag(flags, &tokensEnabled, tokensFlagName, tokensFlagDescription)
	flags.StringVar(&tokenModel, modelFlagName, "", modelFlagDescription)
	return copyCommand
}

func resolveTokensEnabled(settings config.ApplicationConfiguration, override *bool) bool {
	if override != nil {
		return *override
	}
	return settings.TokensEnabled()
}

// applySelections replaces the restored selection when explicit selections or --all are given.
func (app *application) applySelections(ctx context.Context, dispatcher *session.Dispatcher, runtime *runtimeSession, selections []string, selectAll bool) error {
	if !selectAll && len(selections) == 0 {
		return nil
	}
	action := session.ActionReset
	if selectAll {
		action = session.ActionSelectAll
	}
	nextState, _, resetError := dispatcher.Dispatch(ctx, runtime.state, action, session.Request{})
	if resetError != nil {
		return resetError
	}
	runtime.state = nextState

	checked := true
	for _, selection := range selections {
		selectedPath := selection
		if !filepath.IsAbs(selectedPath) {
			selectedPath = filepath.Join(runtime.state.Root, selectedPath)
		}
		nextState, _, toggleError := dispatcher.Dispatch(ctx, runtime.state, session.ActionToggle, session.Request{Path: filepath.Clean(selectedPath), Checked: &checked})
		if toggleError != nil {
			return fmt.Errorf(errorSelectionFormat, selection, toggleError)
		}
		runtime.state = nextState
	}
	return nil
}

func (app *application) snapshotAndSave(ctx context.Context, dispatcher *session.Dispatcher, runtime *runtimeSession) error {
	nextState, _, snapshotError := dispatcher.Dispatch(ctx, runtime.state, session.ActionSnapshot, session.Request{})
	if snapshotError != nil {
		return snapshotError
	}
	runtime.state = nextState
	app.save(runtime)
	return nil
}

// createPickCommand returns the interactive pick subcommand.
func (app *application) createPickCommand() *cobra.Command {
	return &cobra.Command{
		Use:     pickUse,
		Aliases: []string{pickAlias},
		Short:   pickShortDescription,
		Long:    pickLongDescription,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, loadError := app.loadSession()
			if loadError != nil {
				return loadError
			}
			dispatcher := app.newDispatcher(runtime, app.newCopier(), nil)
			ctx := command.Context()
			if openError := app.openFolder(ctx, dispatcher, runtime, arguments); openError != nil {
				return openError
			}
			finalState, pickerError := app.runPicker(ctx, dispatcher, runtime.state, runtime.settings.ResolvedFeedbackDelay())
			runtime.state = finalState
			app.save(runtime)
			return pickerError
		},
	}
}

// createOptionsCommand returns the options subcommand.
func (app *application) createOptionsCommand() *cobra.Command {
	var ignorePatterns []string
	var ignoreFile string
	var resetIgnore bool

	optionsCommand := &cobra.Command{
		Use:     optionsUse,
		Short:   optionsShortDescription,
		Example: optionsUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, loadError := app.loadSession()
			if loadError != nil {
				return loadError
			}
			request := session.Request{}
			switch {
			case resetIgnore:
				request.IgnorePatterns = utils.DefaultIgnorePatterns()
			case ignoreFile != "":
				filePatterns, patternError := config.LoadPatternFile(ignoreFile)
				if patternError != nil {
					return patternError
				}
				request.IgnorePatterns = append(filePatterns, ignorePatterns...)
			case len(ignorePatterns) > 0:
				request.IgnorePatterns = ignorePatterns
			}
			dispatcher := app.newDispatcher(runtime, nil, nil)
			nextState, _, optionsError := dispatcher.Dispatch(command.Context(), runtime.state, session.ActionOptions, request)
			if optionsError != nil {
				return optionsError
			}
			runtime.state = nextState
			app.save(runtime)
			return writeOptions(command.OutOrStdout(), runtime.state.Config)
		},
	}
	flags := optionsCommand.Flags()
	flags.StringArrayVar(&ignorePatterns, ignoreFlagName, nil, ignoreFlagDescription)
	flags.StringVar(&ignoreFile, ignoreFileFlagName, "", ignoreFileFlagDescription)
	registerBooleanFlag(flags, &resetIgnore, resetIgnoreFlagName, false, resetIgnoreFlagDescription)
	return optionsCommand
}

// createProjectsCommand returns the projects subcommand.
func (app *application) createProjectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   projectsUse,
		Short: projectsShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			runtime, loadError := app.loadSession()
			if loadError != nil {
				return loadError
			}
			for _, project := range runtime.state.Config.PreviousProjects {
				if _, writeError := fmt.Fprintln(command.OutOrStdout(), project); writeError != nil {
					return writeError
				}
			}
			return nil
		},
	}
}

// createInitCommand returns the init subcommand.
func (app *application) createInitCommand() *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			writtenPath, initError := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if initError != nil {
				return initError
			}
			app.logger.Info(infoConfigWrittenMessage, zap.String(logFieldPath, writtenPath))
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

func writeOptions(writer io.Writer, userConfig config.UserConfig) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Include binaries: %t\n", userConfig.IncludeBinaries)
	builder.WriteString("Ignore patterns:\n")
	for _, pattern := range userConfig.EffectiveIgnorePatterns() {
		fmt.Fprintf(&builder, "  %s\n", pattern)
	}
	_, writeError := io.WriteString(writer, builder.String())
	return writeError
}
