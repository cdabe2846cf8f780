package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/temirov/aiclip/internal/session"
)

const (
	errorRunPickerFormat       = "run picker: %w"
	errorUnexpectedModelFormat = "run picker: unexpected model %T"
)

// Run shows the picker until the user quits and returns the final session
// state, with the open folder and checked files captured for saving.
func Run(ctx context.Context, dispatcher *session.Dispatcher, state session.State, feedbackDelay time.Duration) (session.State, error) {
	model := NewModel(ctx, dispatcher, state, feedbackDelay)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.sender.attach(program)

	finalModel, runError := program.Run()
	model.sender.attach(nil)
	return finishedState(state, finalModel, runError)
}

// finishedState picks the state to save after the program ended. When the
// program was interrupted the last picker state is still snapshotted, so the
// selection made so far is kept.
func finishedState(initialState session.State, finalModel tea.Model, runError error) (session.State, error) {
	pickerModel, ok := finalModel.(Model)
	if !ok {
		if runError != nil {
			return initialState, fmt.Errorf(errorRunPickerFormat, runError)
		}
		return initialState, fmt.Errorf(errorUnexpectedModelFormat, finalModel)
	}
	if runError != nil {
		pickerModel.indicator.Stop()
		snapshotState, _ := pickerModel.Snapshot()
		return snapshotState, fmt.Errorf(errorRunPickerFormat, runError)
	}
	return pickerModel.State(), pickerModel.Err()
}
