// Package clipboard provides access to the system clipboard.
package clipboard

import (
	"errors"
	"io"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard utility is available on this system.
var ErrUnsupported = errors.New("system clipboard is not available")

// Copier copies textual data to a clipboard-like destination.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a Clipboard service implementation.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// WriterCopier writes the payload to an io.Writer instead of the clipboard.
type WriterCopier struct {
	Writer io.Writer
}

// Copy writes text to the underlying writer.
func (copier WriterCopier) Copy(text string) error {
	_, writeError := io.WriteString(copier.Writer, text)
	return writeError
}

// Memory keeps the most recent payload in memory.
type Memory struct {
	mutex  sync.Mutex
	text   string
	copies int
}

// Copy records text as the clipboard contents.
func (memory *Memory) Copy(text string) error {
	memory.mutex.Lock()
	defer memory.mutex.Unlock()
	memory.text = text
	memory.copies++
	return nil
}

// Text returns the last copied payload.
func (memory *Memory) Text() string {
	memory.mutex.Lock()
	defer memory.mutex.Unlock()
	return memory.text
}

// Copies returns how many times Copy was called.
func (memory *Memory) Copies() int {
	memory.mutex.Lock()
	defer memory.mutex.Unlock()
	return memory.copies
}

var (
	_ Copier = (*Service)(nil)
	_ Copier = WriterCopier{}
	_ Copier = (*Memory)(nil)
)
