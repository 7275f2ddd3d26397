package expr

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Parse converts normalized term strings into an Expression. Each term has
// the form
//
//	sign? coefficient? '*'? variable?
//
// where sign is + or -, coefficient is digits with an optional fractional
// part, and variable is one or more letters. A missing coefficient means 1
// and a missing variable makes the term a constant. Parsing stops at the first
// malformed term and returns a *ParseError; no partial expression is returned.
func Parse(terms []string) (Expression, error) {
	if len(terms) == 0 {
		return nil, &ParseError{Reason: "expression has no terms"}
	}
	e := make(Expression, 0, len(terms))
	for _, s := range terms {
		t, err := parseTerm(s)
		if err != nil {
			return nil, err
		}
		e = append(e, t)
	}
	return e, nil
}

// ParseArgs splits raw command line tokens with Split and parses the result.
func ParseArgs(args []string) (Expression, error) {
	return Parse(Split(args))
}

func parseTerm(s string) (Term, error) {
	fail := func(col int, reason string) (Term, error) {
		return Term{}, &ParseError{Term: s, Col: col, Reason: reason}
	}
	if s == "" {
		return fail(0, "empty term")
	}

	i := 0
	sign := 1.0
	switch s[0] {
	case '+':
		i++
	case '-':
		sign = -1
		i++
	}

	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	hasCoef := i > start
	if hasCoef && i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	coef := 1.0
	if hasCoef {
		v, err := strconv.ParseFloat(s[start:i], 64)
		if err != nil {
			return fail(start+1, "coefficient "+strconv.Quote(s[start:i])+" out of range")
		}
		coef = v
	}

	if i < len(s) && s[i] == '*' {
		if !hasCoef {
			return fail(i+1, "'*' without a coefficient")
		}
		i++
		if i == len(s) {
			return fail(i, "'*' without a variable")
		}
	}

	vstart := i
	for i < len(s) {
		r, sz := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsLetter(r) {
			break
		}
		i += sz
	}
	name := s[vstart:i]

	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		return fail(i+1, fmt.Sprintf("unexpected %q", r))
	}
	if !hasCoef && name == "" {
		return fail(0, "term has neither a coefficient nor a variable")
	}
	if name == "" {
		return Term{Coefficient: sign * coef, Constant: true}, nil
	}
	return Term{Coefficient: sign * coef, Variable: name}, nil
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
