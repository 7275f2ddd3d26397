package expr

import (
	"errors"
	"strconv"
)

// ErrParse is wrapped by every ParseError.
var ErrParse = errors.New("malformed expression")

// ParseError reports a term that does not match the term grammar.
type ParseError struct {
	// Term is the offending term as it was given to Parse.
	Term string
	// Col is the 1-based byte column of the problem within Term, or 0 when
	// the term as a whole is at fault.
	Col int
	// Reason describes what was wrong.
	Reason string
}

func (e *ParseError) Error() string {
	s := "invalid term " + strconv.Quote(e.Term) + ": " + e.Reason
	if e.Col > 0 {
		s += " at column " + strconv.Itoa(e.Col)
	}
	return s
}

func (e *ParseError) Unwrap() error { return ErrParse }
