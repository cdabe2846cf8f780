package feedback_test

import (
	"sync"
	"testing"
	"time"

	"github.com/temirov/aiclip/internal/services/feedback"
)

const (
	defaultLabel = "Copy Selected Files to Clipboard"
	shortDelay   = 30 * time.Millisecond
	waitLimit    = 2 * time.Second
)

type labelRecorder struct {
	mutex  sync.Mutex
	labels []string
	signal chan string
}

func newLabelRecorder() *labelRecorder {
	return &labelRecorder{signal: make(chan string, 16)}
}

func (recorder *labelRecorder) record(label string) {
	recorder.mutex.Lock()
	recorder.labels = append(recorder.labels, label)
	recorder.mutex.Unlock()
	recorder.signal <- label
}

func (recorder *labelRecorder) await(testingInstance *testing.T, expected string) {
	testingInstance.Helper()
	deadline := time.After(waitLimit)
	for {
		select {
		case label := <-recorder.signal:
			if label == expected {
				return
			}
		case <-deadline:
			testingInstance.Fatalf("timed out waiting for label %q", expected)
		}
	}
}

func TestIndicatorRevertsToDefault(testingInstance *testing.T) {
	recorder := newLabelRecorder()
	indicator := feedback.NewIndicator(defaultLabel, shortDelay, recorder.record)
	if indicator.Current() != defaultLabel {
		testingInstance.Fatalf("expected default label, got %q", indicator.Current())
	}

	indicator.Show("Files copied!")
	if indicator.Current() != "Files copied!" {
		testingInstance.Fatalf("expected feedback label, got %q", indicator.Current())
	}
	recorder.await(testingInstance, defaultLabel)
	if indicator.Current() != defaultLabel {
		testingInstance.Fatalf("expected label to revert, got %q", indicator.Current())
	}
}

func TestIndicatorRearmsOnEachShow(testingInstance *testing.T) {
	recorder := newLabelRecorder()
	indicator := feedback.NewIndicator(defaultLabel, 200*time.Millisecond, recorder.record)

	indicator.Show("No files copied.")
	time.Sleep(120 * time.Millisecond)
	indicator.Show("Files copied!")
	time.Sleep(120 * time.Millisecond)
	if indicator.Current() != "Files copied!" {
		testingInstance.Fatalf("second message must keep a full delay, got %q", indicator.Current())
	}
	recorder.await(testingInstance, defaultLabel)

	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	reverts := 0
	for _, label := range recorder.labels {
		if label == defaultLabel {
			reverts++
		}
	}
	if reverts != 1 {
		testingInstance.Fatalf("expected exactly one revert, got %d in %v", reverts, recorder.labels)
	}
}

func TestIndicatorStop(testingInstance *testing.T) {
	indicator := feedback.NewIndicator(defaultLabel, time.Hour, nil)
	indicator.Show("Files copied!")
	indicator.Stop()
	if indicator.Current() != defaultLabel || indicator.Default() != defaultLabel {
		testingInstance.Fatalf("expected default after Stop, got %q", indicator.Current())
	}
}
