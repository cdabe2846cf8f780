package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/temirov/aiclip/internal/config"
	"github.com/temirov/aiclip/internal/services/clipboard"
	"github.com/temirov/aiclip/internal/session"
	"github.com/temirov/aiclip/internal/types"
	"github.com/temirov/aiclip/internal/utils"
)

const (
	mainFileRelativePath  = "src/main.txt"
	mainFileContent       = "package main"
	notesFileRelativePath = "notes.txt"
	notesFileContent      = "remember"
	imageFileRelativePath = "logo.png"
)

type commandHarness struct {
	application *application
	memory      *clipboard.Memory
	statePath   string
	projectPath string
}

// newCommandHarness prepares an isolated home directory, a state file path and a small project.
func newCommandHarness(testingHandle *testing.T) *commandHarness {
	testingHandle.Helper()
	homeDirectory := testingHandle.TempDir()
	testingHandle.Setenv("HOME", homeDirectory)
	testingHandle.Setenv("USERPROFILE", homeDirectory)

	projectPath := filepath.Join(testingHandle.TempDir(), "proj")
	writeProjectFile(testingHandle, projectPath, mainFileRelativePath, mainFileContent)
	writeProjectFile(testingHandle, projectPath, notesFileRelativePath, notesFileContent)
	writeProjectFile(testingHandle, projectPath, imageFileRelativePath, "not really an image")

	memory := &clipboard.Memory{}
	commandApplication := newApplication(nil)
	commandApplication.newCopier = func() clipboard.Copier { return memory }
	return &commandHarness{
		application: commandApplication,
		memory:      memory,
		statePath:   filepath.Join(homeDirectory, "state", utils.StateFileName),
		projectPath: projectPath,
	}
}

func writeProjectFile(testingHandle *testing.T, rootDirectory string, relativePath string, content string) {
	testingHandle.Helper()
	fullPath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
	if makeDirError := os.MkdirAll(filepath.Dir(fullPath), 0o755); makeDirError != nil {
		testingHandle.Fatalf("mkdir %s: %v", filepath.Dir(fullPath), makeDirError)
	}
	if writeError := os.WriteFile(fullPath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("write %s: %v", fullPath, writeError)
	}
}

// run executes the application with the harness state file and returns standard output.
func (harness *commandHarness) run(testingHandle *testing.T, arguments ...string) (string, error) {
	testingHandle.Helper()
	var outputBuffer bytes.Buffer
	fullArguments := append([]string{"--" + stateFlagName, harness.statePath}, arguments...)
	executionError := harness.application.execute(context.Background(), fullArguments, &outputBuffer)
	return outputBuffer.String(), executionError
}

func (harness *commandHarness) mustRun(testingHandle *testing.T, arguments ...string) string {
	testingHandle.Helper()
	output, executionError := harness.run(testingHandle, arguments...)
	if executionError != nil {
		testingHandle.Fatalf("%v: unexpected error: %v", arguments, executionError)
	}
	return output
}

func (harness *commandHarness) savedState(testingHandle *testing.T) config.UserConfig {
	testingHandle.Helper()
	userConfig, loadError := config.LoadUserConfig(harness.statePath)
	if loadError != nil {
		testingHandle.Fatalf("load state: %v", loadError)
	}
	return userConfig
}

func expectedBlock(displayPath string, content string) string {
	return "### START " + displayPath + "\n" + content + "\n### END " + displayPath + "\n\n"
}

func TestCopySelectionWritesStdoutAndSavesState(testingHandle *testing.T) {
	harness := newCommandHarness(testingHandle)

	output := harness.mustRun(testingHandle, "copy", "--stdout", "-s", "src", harness.projectPath)

	if output != expectedBlock("proj/src/main.txt", mainFileContent) {
		testingHandle.Fatalf("unexpected payload %q", output)
	}
	if harness.memory.Copies() != 0 {
		testingHandle.Fatalf("clipboard must not be used with --stdout")
	}
	savedState := harness.savedState(testingHandle)
	if savedState.LastFolder != harness.projectPath {
		testingHandle.Fatalf("expected last folder %s, got %s", harness.projectPath, savedState.LastFolder)
	}
	expectedChecked := []string{filepath.Join(harness.projectPath, filepath.FromSlash(mainFileRelativePath))}
	if strings.Join(savedState.CheckedFiles, ",") != strings.Join(expectedChecked, ",") {
		testingHandle.Fatalf("expected checked files %v, got %v", expectedChecked, savedState.CheckedFiles)
	}
	if !utils.ContainsString(savedState.PreviousProjects, harness.projectPath) {
		testingHandle.Fatalf("expected %s in previous projects %v", harness.projectPath, savedState.PreviousProjects)
	}
}

func TestCopyRestoresSavedSelection(testingHandle *testing.T) {
	harness := newCommandHarness(testingHandle)
	harness.mustRun(testingHandle, "copy", "-s", notesFileRelativePath, harness.projectPath)
	if harness.memory.Text() != expectedBlock("proj/notes.txt", notesFileContent) {
		testingHandle.Fatalf("unexpected clipboard %q", harness.memory.Text())
	}

	harness.mustRun(testingHandle, "copy")

	if harness.memory.Copies() != 2 {
		testingHandle.Fatalf("expected two clipboard writes, got %d", harness.memory.Copies())
	}
	if harness.memory.Text() != expectedBlock("proj/notes.txt", notesFileContent) {
		testingHandle.Fatalf("restored selection not exported: %q", harness.memory.Text())
	}
}

func TestCopyAllSkipsIgnoredFiles(testingHandle *testing.T) {
	harness := newCommandHarness(testingHandle)

	harness.mustRun(testingHandle, "copy", "--all", harness.projectPath)

	expected := expectedBlock("proj/src/main.txt", mainFileContent) + expectedBlock("proj/notes.txt", notesFileContent)
	if harness.memory.Text() != expected {
		testingHandle.Fatalf("unexpected clipboard %q", harness.memory.Text())
	}
}

func TestCopyWithoutCheckedFilesLeavesClipboardUntouched(testingHandle *testing.T) {
	harness := newCommandHarness(testingHandle)

	output := harness.mustRun(testingHandle, "copy", "--stdout", harness.projectPath)

	if output != "" {
		testingHandle.Fatalf("expected no output, got %q", output)
	}
	if harness.memory.Copies() != 0 {
		testingHandle.Fatalf("expected no clipboard writes, got %d", harness.memory.Copies())
	}
}

func TestCopyRejectsUnknownSelection(testingHandle *testing.T) {
	harness := newCommandHarness(testingHandle)

	_, executionError := harness.run(testingHandle, "copy", "-s", "missing.txt", harness.projectPath)

	if !errors.Is(executionError, session.ErrNodeNotFound) {
		testingHandle.Fatalf("expected ErrNodeNotFound, got %v", executionError)
	}
}

func TestTreeCommandFormats(testingHandle *testing.T) {
	testCases := []struct {
		name           string
		arguments      []string
		expectedPieces []string
		expectError    bool
	}{
		{
			name:           "raw",
			arguments:      []string{"tree"},
			expectedPieces: []string{"[ ] src/", "[ ] main.txt", "[ ] notes.txt", "Summary: 2 files, 0 checked"},
		},
		{
			name:           "json",
			arguments:      []string{"tree", "--format", "JSON"},
			expectedPieces: []string{`"name": "notes.txt"`, `"type": "file"`},
		},
		{
			name:        "invalid",
			arguments:   []string{"tree", "--format", "xml"},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(subTest *testing.T) {
			harness := newCommandHarness(subTest)
			output, executionError := harness.run(subTest, append(testCase.arguments, harness.projectPath)...)
			if testCase.expectError {
				if executionError == nil {
					subTest.Fatalf("expected error")
				}
				return
			}
			if executionError != nil {
				subTest.Fatalf("unexpected error: %v", executionError)
			}
			for _, expectedPiece := range testCase.expectedPieces {
				if !strings.Contains(output, expectedPiece) {
					subTest.Fatalf("output %q does not contain %q", output, expectedPiece)
				}
			}
			if strings.Contains(output, imageFileRelativePath) {
				subTest.Fatalf("ignored file listed: %q", output)
			}
		})
	}
}

func TestTreeCommandShowsSavedSelection(testingHandle *testing.T) {
	harness := newCommandHarness(testingHandle)
	harness.mustRun(testingHandle, "copy", "-s", notesFileRelativePath, harness.projectPath)

	output := harness.mustRun(testingHandle, "tree", "--format", types.FormatJSON, harness.projectPath)

	var decoded types.TreeNode
	if decodeError := json.Unmarshal([]byte(output), &decoded); decodeError != nil {
		testingHandle.Fatalf("decode tree: %v", decodeError)
	}
	notesNode := decoded.Find(filepath.Join(harness.projectPath, notesFileRelativePath))
	if notesNode == nil || !notesNode.Checked {
		testingHandle.Fatalf("expected notes.txt checked in %s", output)
	}
}

func TestIncludeBinariesIsPersisted(testingHandle *testing.T) {
	harness := newCommandHarness(testingHandle)
	writeProjectFile(testingHandle, harness.projectPath, "data.bin", "\x00\x01\x02")

	output := harness.mustRun(testingHandle, "--"+includeBinariesFlagName, "options")
	if !strings.Contains(output, "Include binaries: true") {
		testingHandle.Fatalf("unexpected options output %q", output)
	}
	if !harness.savedState(testingHandle).IncludeBinaries {
		testingHandle.Fatalf("expected IncludeBinaries saved")
	}

	treeOutput := harness.mustRun(testingHandle, "tree", harness.projectPath)
	if !strings.Contains(treeOutput, "data.bin") {
		testingHandle.Fatalf("binary file missing from %q", treeOutput)
	}
}

func TestOptionsCommandUpdatesIgnorePatterns(testingHandle *testing.T) {
	harness := newCommandHarness(testingHandle)
	patternFilePath := filepath.Join(testingHandle.TempDir(), "patterns.txt")
	if writeError := os.WriteFile(patternFilePath, []byte("# comment\n.md\n\n/dist\n"), 0o644); writeError != nil {
		testingHandle.Fatalf("write pattern file: %v", writeError)
	}

	testCases := []struct {
		name             string
		arguments        []string
		expectedPatterns []string
	}{
		{
			name:             "explicit",
			arguments:        []string{"options", "--ignore", " notes.txt ", "--ignore", "notes.txt", "--ignore", ""},
			expectedPatterns: []string{"notes.txt"},
		},
		{
			name:             "file",
			arguments:        []string{"options", "--ignore-file", patternFilePath, "--ignore", ".log"},
			expectedPatterns: []string{".md", "/dist", ".log"},
		},
		{
			name:             "reset",
			arguments:        []string{"options", "--reset-ignore"},
			expectedPatterns: utils.DefaultIgnorePatterns(),
		},
	}

	for _, testCase := range testCases {
		harness.mustRun(testingHandle, testCase.arguments...)
		savedPatterns := harness.savedState(testingHandle).IgnorePatterns
		if strings.Join(savedPatterns, "|") != strings.Join(testCase.expectedPatterns, "|") {
			testingHandle.Fatalf("%s: expected patterns %v, got %v", testCase.name, testCase.expectedPatterns, savedPatterns)
		}
	}
}

func TestOptionsIgnorePatternAppliesToTree(testingHandle *testing.T) {
	harness := newCommandHarness(testingHandle)
	harness.mustRun(testingHandle, "options", "--ignore", notesFileRelativePath)

	output := harness.mustRun(testingHandle, "tree", harness.projectPath)

	if strings.Contains(output, notesFileRelativePath) {
		testingHandle.Fatalf("ignored file listed: %q", output)
	}
	if !strings.Contains(output, imageFileRelativePath) {
		testingHandle.Fatalf("replaced default patterns still applied: %q", output)
	}
}

func TestProjectsCommandListsOpenedFolders(testingHandle *testing.T) {
	harness := newCommandHarness(testingHandle)
	secondProject := filepath.Join(testingHandle.TempDir(), "other")
	writeProjectFile(testingHandle, secondProject, "readme.txt", "hi")

	harness.mustRun(testingHandle, "copy", harness.projectPath)
	harness.mustRun(testingHandle, "copy", secondProject)
	harness.mustRun(testingHandle, "copy", harness.projectPath)

	output := harness.mustRun(testingHandle, "projects")

	expected := harness.projectPath + "\n" + secondProject + "\n"
	if output != expected {
		testingHandle.Fatalf("expected %q, got %q", expected, output)
	}
}

func TestPickCommandSavesPickerState(testingHandle *testing.T) {
	harness := newCommandHarness(testingHandle)
	var receivedDelay time.Duration
	harness.application.runPicker = func(ctx context.Context, dispatcher *session.Dispatcher, state session.State, feedbackDelay time.Duration) (session.State, error) {
		receivedDelay = feedbackDelay
		nextState, _, selectError := dispatcher.Dispatch(ctx, state, session.ActionSelectAll, session.Request{})
		if selectError != nil {
			return state, selectError
		}
		nextState, _, snapshotError := dispatcher.Dispatch(ctx, nextState, session.ActionSnapshot, session.Request{})
		return nextState, snapshotError
	}

	harness.mustRun(testingHandle, "pick", harness.projectPath)

	if receivedDelay != config.DefaultFeedbackDelay {
		testingHandle.Fatalf("expected default feedback delay, got %v", receivedDelay)
	}
	savedState := harness.savedState(testingHandle)
	if len(savedState.CheckedFiles) != 2 {
		testingHandle.Fatalf("expected two checked files, got %v", savedState.CheckedFiles)
	}
}

func TestPickCommandSavesStateWhenPickerFails(testingHandle *testing.T) {
	harness := newCommandHarness(testingHandle)
	pickerFailure := errors.New("terminal unavailable")
	harness.application.runPicker = func(_ context.Context, _ *session.Dispatcher, state session.State, _ time.Duration) (session.State, error) {
		state.Config.LastFolder = state.Root
		return state, pickerFailure
	}

	_, executionError := harness.run(testingHandle, "pick", harness.projectPath)

	if !errors.Is(executionError, pickerFailure) {
		testingHandle.Fatalf("expected picker failure, got %v", executionError)
	}
	if harness.savedState(testingHandle).LastFolder != harness.projectPath {
		testingHandle.Fatalf("state not saved after picker failure")
	}
}

func TestInitCommandWritesGlobalConfiguration(testingHandle *testing.T) {
	harness := newCommandHarness(testingHandle)

	harness.mustRun(testingHandle, "init", "--global")

	homeDirectory, _ := os.UserHomeDir()
	configurationPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
	if _, statError := os.Stat(configurationPath); statError != nil {
		testingHandle.Fatalf("expected configuration at %s: %v", configurationPath, statError)
	}
	if _, executionError := harness.run(testingHandle, "init", "--global"); executionError == nil {
		testingHandle.Fatalf("expected error when configuration exists")
	}
	harness.mustRun(testingHandle, "init", "--global", "--force")
}
