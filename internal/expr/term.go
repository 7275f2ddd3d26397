package expr

import (
	"math"
	"strconv"
	"strings"
)

// Term is one coefficient/variable unit of a linear expression. A constant
// term has Constant set and no Variable.
type Term struct {
	Coefficient float64 `yaml:"coefficient"`
	Variable    string  `yaml:"variable,omitempty"`
	Constant    bool    `yaml:"constant,omitempty"`
}

// Expression is an ordered list of terms. Order determines feature order in
// generated rows, and repeated variables are kept as separate terms.
type Expression []Term

// Variables returns the variable names of the non-constant terms in order,
// including repeats.
func (e Expression) Variables() []string {
	names := make([]string, 0, len(e))
	for _, t := range e {
		if !t.Constant {
			names = append(names, t.Variable)
		}
	}
	return names
}

// Constant returns the sum of all constant terms.
func (e Expression) Constant() float64 {
	var sum float64
	for _, t := range e {
		if t.Constant {
			sum += t.Coefficient
		}
	}
	return sum
}

// String renders the expression in a canonical form such as "2x + 5y - 4".
func (e Expression) String() string {
	var sb strings.Builder
	for i, t := range e {
		neg := math.Signbit(t.Coefficient)
		switch {
		case i == 0 && neg:
			sb.WriteString("-")
		case i > 0 && neg:
			sb.WriteString(" - ")
		case i > 0:
			sb.WriteString(" + ")
		}
		abs := math.Abs(t.Coefficient)
		if t.Constant || abs != 1 {
			sb.WriteString(strconv.FormatFloat(abs, 'g', -1, 64))
		}
		sb.WriteString(t.Variable)
	}
	return sb.String()
}
