package dataloader

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errNotNumeric  = errors.New("not numeric")
	errNegative    = errors.New("negative value")
	errNotInteger  = errors.New("not a whole number")
	errShortRecord = errors.New("fewer fields than header")
	errOutOfRange  = errors.New("value out of range")
)

// ParseError reports a cell that could not be cleaned into a number
type ParseError struct {
	Row    int // 1-based line number in the file, 0 when unknown
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	if e.Row > 0 {
		fmt.Fprintf(&sb, "line %d: ", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&sb, "column %s: ", e.Column)
	}
	fmt.Fprintf(&sb, "cannot parse %q: %v", e.Value, e.Err)
	return sb.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError reports required columns missing from the header
type SchemaError struct {
	Missing []string
	Found   []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column(s): %s (found: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}
