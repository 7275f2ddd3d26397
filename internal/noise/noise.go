// Package noise builds the random perturbation functions applied during
// dataset generation.
//
// Result noise is an offset in [min, max] added once to a row's label.
// Feature noise scales a sampled feature value by a random multiplier in
// [min, max] and returns the adjustment to add to it.
package noise

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/lxb523532595/gendata/internal/rng"
)

// Option names used in ConfigError.
const (
	OptionResult  = "result-noise"
	OptionFeature = "feature-noise"
)

// Func maps a value to a perturbation.
type Func func(v float64) float64

// Bounds is a closed range [Min, Max].
type Bounds struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// String renders b in the form accepted by ParseBounds.
func (b Bounds) String() string {
	return strconv.FormatFloat(b.Min, 'g', -1, 64) + "," + strconv.FormatFloat(b.Max, 'g', -1, 64)
}

// Validate checks that both bounds are finite and Min <= Max.
func (b Bounds) Validate(option string) error {
	if !finite(b.Min) || !finite(b.Max) {
		return &ConfigError{Option: option, Reason: fmt.Sprintf("bounds must be finite, got %v", b)}
	}
	if b.Min > b.Max {
		return &ConfigError{Option: option, Reason: fmt.Sprintf("min %g is greater than max %g", b.Min, b.Max)}
	}
	return nil
}

// lerp maps u in [0, 1) onto [Min, Max).
func (b Bounds) lerp(u float64) float64 { return b.Min + u*(b.Max-b.Min) }

// ParseBounds parses "min,max". The separator may be a comma, a semicolon or
// whitespace. The bounds are validated before returning.
func ParseBounds(option, s string) (Bounds, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	if len(fields) != 2 {
		return Bounds{}, &ConfigError{Option: option, Input: s, Reason: fmt.Sprintf("expected min,max but got %d value(s)", len(fields))}
	}
	var vals [2]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Bounds{}, &ConfigError{Option: option, Input: s, Reason: fmt.Sprintf("%q is not a number", f)}
		}
		vals[i] = v
	}
	b := Bounds{Min: vals[0], Max: vals[1]}
	if err := b.Validate(option); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Input = s
		}
		return Bounds{}, err
	}
	return b, nil
}

// Result returns the label noise function u -> Min + u*(Max-Min). The caller
// supplies a fresh uniform draw u for every row.
func Result(b Bounds) (Func, error) {
	if err := b.Validate(OptionResult); err != nil {
		return nil, err
	}
	return b.lerp, nil
}

// Feature returns the feature noise function r -> r*m, where m is drawn from
// [Min, Max) using src on every call. The result is meant to be added to r.
func Feature(b Bounds, src rng.Source) (Func, error) {
	if err := b.Validate(OptionFeature); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, &ConfigError{Option: OptionFeature, Reason: "no random source"}
	}
	return func(r float64) float64 {
		return r * b.lerp(src.Float64())
	}, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
