package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// sniffLength defines the maximum number of bytes read when detecting binary content.
	sniffLength = 1024
	// binaryRatioNumerator and binaryRatioDenominator express the 0.20 threshold that
	// the share of non-text bytes must strictly exceed for a sample to be binary.
	binaryRatioNumerator   = 1
	binaryRatioDenominator = 5

	errorSampleFileFormat = "sample %s: %w"
)

// isTextByte reports whether byteValue is printable ASCII, tab, line feed or carriage return.
func isTextByte(byteValue byte) bool {
	switch {
	case byteValue >= 32 && byteValue <= 126:
		return true
	case byteValue == '\t', byteValue == '\n', byteValue == '\r':
		return true
	default:
		return false
	}
}

// IsBinary reports whether the provided sample appears to contain binary data.
// A null byte marks the sample as binary immediately; otherwise the sample is
// binary when more than 20% of its bytes fall outside the text range. An empty
// sample is text.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	nonTextCount := 0
	for _, byteValue := range data {
		if byteValue == 0 {
			return true
		}
		if !isTextByte(byteValue) {
			nonTextCount++
		}
	}
	return nonTextCount*binaryRatioDenominator > len(data)*binaryRatioNumerator
}

// IsFileBinary reads up to sniffLength bytes from the file at path and determines
// if the content appears to be binary. Any failure while sampling classifies the
// file as binary and is returned alongside the verdict.
//
// #nosec G304
func IsFileBinary(path string) (bool, error) {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return true, fmt.Errorf(errorSampleFileFormat, path, openError)
	}
	defer fileHandle.Close()

	buffer := make([]byte, sniffLength)
	bytesRead, readError := io.ReadFull(fileHandle, buffer)
	if readError != nil && !errors.Is(readError, io.EOF) && !errors.Is(readError, io.ErrUnexpectedEOF) {
		return true, fmt.Errorf(errorSampleFileFormat, path, readError)
	}
	return IsBinary(buffer[:bytesRead]), nil
}
