// Package dataset generates labeled rows from a linear expression and writes
// them in the supported text formats.
package dataset

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"

	"github.com/lxb523532595/gendata/internal/expr"
	"github.com/lxb523532595/gendata/internal/noise"
	"github.com/lxb523532595/gendata/internal/rng"
)

// Feature is one sampled variable value.
type Feature struct {
	Name  string
	Value float64
}

// Row is one generated example.
type Row struct {
	// Index is the 1-based row number.
	Index    int
	Label    float64
	Features []Feature
}

// Options controls generation.
type Options struct {
	Rows      int
	Precision int
	// ResultNoise, if set, receives a fresh uniform draw per row and its
	// result is added to the label after all terms are summed.
	ResultNoise noise.Func
	// FeatureNoise, if set, receives each sampled feature value and its
	// result is added to that value before it is multiplied by the term's
	// coefficient. The emitted feature keeps the raw sample.
	FeatureNoise noise.Func
}

// OptionError reports invalid generation options.
type OptionError struct {
	Field string
	Value int
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("invalid %s: %d (must not be negative)", e.Field, e.Value)
}

// Generator produces rows for a fixed expression.
type Generator struct {
	expr   expr.Expression
	src    rng.Source
	opts   Options
	logger *slog.Logger
}

// New validates opts and returns a Generator drawing from src.
func New(e expr.Expression, src rng.Source, opts Options, logger *slog.Logger) (*Generator, error) {
	if opts.Rows < 0 {
		return nil, &OptionError{Field: "row count", Value: opts.Rows}
	}
	if opts.Precision < 0 {
		return nil, &OptionError{Field: "precision", Value: opts.Precision}
	}
	if src == nil {
		return nil, errors.New("dataset: nil random source")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{expr: e, src: src, opts: opts, logger: logger}, nil
}

// Rows yields exactly opts.Rows rows. Every row consumes fresh draws from
// the source, so ranging twice yields different rows unless the source is
// reseeded in between. Within a row the draws happen in expression order
// (each feature followed by its feature-noise draw, if any) and the
// result-noise draw comes last.
func (g *Generator) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for i := 1; i <= g.opts.Rows; i++ {
			r := g.row(i)
			g.logger.Debug("generated row", "index", r.Index, "label", r.Label, "features", len(r.Features))
			if !yield(r) {
				return
			}
		}
	}
}

func (g *Generator) row(index int) Row {
	var result float64
	features := make([]Feature, 0, len(g.expr))
	for _, t := range g.expr {
		if t.Constant {
			result += t.Coefficient
			continue
		}
		r := g.src.Float64()
		v := r
		if g.opts.FeatureNoise != nil {
			v += g.opts.FeatureNoise(r)
		}
		result += t.Coefficient * v
		features = append(features, Feature{Name: t.Variable, Value: r})
	}
	if g.opts.ResultNoise != nil {
		result += g.opts.ResultNoise(g.src.Float64())
	}
	return Row{
		Index:    index,
		Label:    Round(result, g.opts.Precision),
		Features: features,
	}
}

// Round rounds v to precision decimal places, half away from zero.
func Round(v float64, precision int) float64 {
	p := math.Pow10(precision)
	scaled := v * p
	if math.IsInf(scaled, 0) || math.IsNaN(scaled) {
		return v
	}
	return math.Round(scaled) / p
}
