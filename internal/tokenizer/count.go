package tokenizer

import (
	"errors"
	"unicode/utf8"

	"github.com/temirov/aiclip/internal/utils"
)

var errNilCounter = errors.New("nil tokenizer counter")

// CountResult captures the outcome of counting a payload.
type CountResult struct {
	Tokens  int
	Counted bool
}

// CountBytes estimates tokens for data using counter. Binary or invalid UTF-8
// data is reported as not counted.
func CountBytes(counter Counter, data []byte) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errNilCounter
	}
	if utils.IsBinary(data) || !utf8.Valid(data) {
		return CountResult{Counted: false}, nil
	}
	tokens, err := counter.CountString(string(data))
	if err != nil {
		return CountResult{}, err
	}
	return CountResult{Tokens: tokens, Counted: true}, nil
}

// CountPayload estimates tokens for an export payload. The payload may mix
// files of any script, so only invalid UTF-8 leaves it uncounted.
func CountPayload(counter Counter, payload string) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errNilCounter
	}
	if !utf8.ValidString(payload) {
		return CountResult{Counted: false}, nil
	}
	tokens, err := counter.CountString(payload)
	if err != nil {
		return CountResult{}, err
	}
	return CountResult{Tokens: tokens, Counted: true}, nil
}
