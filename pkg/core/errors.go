package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every typed error below matches one of these through errors.Is.
var (
	// ErrMalformedRow marks a source row missing a required field. Rows like
	// this are skipped, never fatal.
	ErrMalformedRow = errors.New("malformed row")

	// ErrMalformedSetHeader marks a report set header whose probability
	// cannot be read. The parser recovers at the next set header.
	ErrMalformedSetHeader = errors.New("malformed set header")

	// ErrUnknownIdentifier marks an internal ID that was never registered.
	ErrUnknownIdentifier = errors.New("unknown identifier")

	// ErrSubprocessFailure marks a failed run of the inference engine.
	ErrSubprocessFailure = errors.New("inference engine failure")

	// ErrIO marks a failure creating or writing a transient file.
	ErrIO = errors.New("i/o failure")
)

// RowError describes why a source row cannot be encoded.
type RowError struct {
	Line    int
	Missing []string
}

func (e *RowError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("row %d: missing %s", e.Line, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("row: missing %s", strings.Join(e.Missing, ", "))
}

func (e *RowError) Is(target error) bool { return target == ErrMalformedRow }

// SetHeaderError describes a set header that could not be parsed.
type SetHeaderError struct {
	Line   int
	Header string
	Err    error
}

func (e *SetHeaderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: malformed set header %q: %v", e.Line, e.Header, e.Err)
	}
	return fmt.Sprintf("line %d: malformed set header %q", e.Line, e.Header)
}

func (e *SetHeaderError) Unwrap() error { return e.Err }

func (e *SetHeaderError) Is(target error) bool { return target == ErrMalformedSetHeader }

// UnknownIdentifierError is returned when an internal ID cannot be mapped
// back to an accession.
type UnknownIdentifierError struct {
	ID InternalID
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("unknown identifier %d", e.ID)
}

func (e *UnknownIdentifierError) Is(target error) bool { return target == ErrUnknownIdentifier }

// SubprocessError carries what is known about a failed engine run.
type SubprocessError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *SubprocessError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", e.Command)
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " with exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, "\nstderr:\n%s", stderr)
	}
	return b.String()
}

func (e *SubprocessError) Unwrap() error { return e.Err }

func (e *SubprocessError) Is(target error) bool { return target == ErrSubprocessFailure }
