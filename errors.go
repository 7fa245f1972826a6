package robustnas

import (
	"errors"
	"fmt"
)

// Error is the structured error type returned by this package.
//
// Error categories:
//   - Missing metadata: meta.json absent under the dataset root (fatal,
//     no query is possible without it)
//   - Invalid metadata: meta.json present but structurally invalid
//   - Missing result: a requested result file was not downloaded or
//     extracted; other cached tables remain usable
//   - Invalid selection: a query named a source, key, or measure
//     outside the known enumerations
//   - Unsupported combination: every value is individually valid but
//     no evaluation exists for the pairing
//   - Unknown architecture: a UID lookup for an id outside the range
//     recorded in meta.json
//
// All errors surface directly to the caller; nothing is retried or
// silently dropped.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the file involved, for file-level errors.
	Path string

	// Source, Key, Measure identify the selection involved, where
	// applicable. Invalid-selection errors fill exactly the field
	// that failed validation.
	Source  Source
	Key     Key
	Measure Measure

	// ArchID is the offending id for unknown-architecture errors.
	ArchID ArchID

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes accessor errors.
type ErrorCode string

const (
	// ErrCodeMissingMetadata indicates meta.json is absent.
	ErrCodeMissingMetadata ErrorCode = "MISSING_METADATA"

	// ErrCodeInvalidMetadata indicates meta.json failed schema validation.
	ErrCodeInvalidMetadata ErrorCode = "INVALID_METADATA"

	// ErrCodeMissingResult indicates a result file is absent.
	ErrCodeMissingResult ErrorCode = "MISSING_RESULT"

	// ErrCodeInvalidSelection indicates a query value outside the enumerations.
	ErrCodeInvalidSelection ErrorCode = "INVALID_SELECTION"

	// ErrCodeUnsupportedCombination indicates a valid pairing with no evaluation.
	ErrCodeUnsupportedCombination ErrorCode = "UNSUPPORTED_COMBINATION"

	// ErrCodeUnknownArchitecture indicates an id outside the known range.
	ErrCodeUnknownArchitecture ErrorCode = "UNKNOWN_ARCHITECTURE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s (%s): %v", e.Code, e.Message, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Path)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsMissingMetadata reports whether err is a missing-metadata error.
// Uses errors.As to handle wrapped errors.
func IsMissingMetadata(err error) bool { return hasCode(err, ErrCodeMissingMetadata) }

// IsInvalidMetadata reports whether err is an invalid-metadata error.
func IsInvalidMetadata(err error) bool { return hasCode(err, ErrCodeInvalidMetadata) }

// IsMissingResult reports whether err is a missing-result-file error.
func IsMissingResult(err error) bool { return hasCode(err, ErrCodeMissingResult) }

// IsInvalidSelection reports whether err is an invalid-selection error.
func IsInvalidSelection(err error) bool { return hasCode(err, ErrCodeInvalidSelection) }

// IsUnsupportedCombination reports whether err is an unsupported-combination error.
func IsUnsupportedCombination(err error) bool { return hasCode(err, ErrCodeUnsupportedCombination) }

// IsUnknownArchitecture reports whether err is an unknown-architecture error.
func IsUnknownArchitecture(err error) bool { return hasCode(err, ErrCodeUnknownArchitecture) }

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func newMissingMetadataError(path string, err error) *Error {
	return &Error{
		Code:    ErrCodeMissingMetadata,
		Message: "metadata file not found",
		Path:    path,
		Err:     err,
	}
}

func newInvalidMetadataError(path string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidMetadata,
		Message: "metadata file is invalid",
		Path:    path,
		Err:     err,
	}
}

func newMissingResultError(s Source, k Key, m Measure, path string, err error) *Error {
	return &Error{
		Code:    ErrCodeMissingResult,
		Message: fmt.Sprintf("result file for %s/%s/%s not found; was this archive downloaded?", s, k, m),
		Path:    path,
		Source:  s,
		Key:     k,
		Measure: m,
		Err:     err,
	}
}

func newInvalidSourceError(s Source) *Error {
	return &Error{
		Code:    ErrCodeInvalidSelection,
		Message: fmt.Sprintf("unknown data source %q", s),
		Source:  s,
	}
}

func newInvalidKeyError(k Key) *Error {
	return &Error{
		Code:    ErrCodeInvalidSelection,
		Message: fmt.Sprintf("unknown evaluation key %q", k),
		Key:     k,
	}
}

func newInvalidMeasureError(m Measure) *Error {
	return &Error{
		Code:    ErrCodeInvalidSelection,
		Message: fmt.Sprintf("unknown measure %q", m),
		Measure: m,
	}
}

func newUnsupportedCombinationError(s Source, k Key) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedCombination,
		Message: fmt.Sprintf("no evaluation exists for %s with key %q", s, k),
		Source:  s,
		Key:     k,
	}
}

func newUnknownArchitectureError(id ArchID) *Error {
	return &Error{
		Code:    ErrCodeUnknownArchitecture,
		Message: fmt.Sprintf("architecture id %d is outside the known range", id),
		ArchID:  id,
	}
}
