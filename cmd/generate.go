package cmd

import (
	"fmt"
	"io"
	"os"

	cfgpkg "github.com/lxb523532595/gendata/internal/config"
	"github.com/lxb523532595/gendata/internal/dataset"
	"github.com/lxb523532595/gendata/internal/expr"
	"github.com/lxb523532595/gendata/internal/manifest"
	"github.com/lxb523532595/gendata/internal/noise"
	"github.com/lxb523532595/gendata/internal/rng"
	"github.com/lxb523532595/gendata/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const defaultExpression = "a"

var (
	genRows         int
	genPrecision    int
	genSeed         int64
	genWeighted     bool
	genCSV          bool
	genTSV          bool
	genResultNoise  string
	genFeatureNoise string
	genNamespace    string
	genHeader       bool
	genOutputPath   string
	genManifestPath string
	genFromManifest string
)

// genSettings is the merged result of flags and configuration.
type genSettings struct {
	Rows         int
	Precision    int
	Seed         int64
	Format       dataset.Format
	Namespace    string
	ResultNoise  *noise.Bounds
	FeatureNoise *noise.Bounds
	Header       bool
	Output       string
	Manifest     string
}

// resolveSettings applies flags that were set on the command line over c.
func resolveSettings(f *pflag.FlagSet, c *cfgpkg.Global) (genSettings, error) {
	s := genSettings{
		Rows:      c.Rows,
		Precision: c.Precision,
		Seed:      c.Seed,
		Namespace: c.Namespace,
		Header:    genHeader,
		Output:    genOutputPath,
		Manifest:  genManifestPath,
	}
	if f.Changed("rows") {
		s.Rows = genRows
	}
	if f.Changed("precision") {
		s.Precision = genPrecision
	}
	if f.Changed("seed") {
		s.Seed = genSeed
	}
	if f.Changed("namespace") {
		s.Namespace = genNamespace
	}

	switch {
	case genCSV:
		s.Format = dataset.FormatCSV
	case genTSV:
		s.Format = dataset.FormatTSV
	case genWeighted:
		s.Format = dataset.FormatWeighted
	default:
		format, err := dataset.ParseFormat(c.Format)
		if err != nil {
			return genSettings{}, err
		}
		s.Format = format
	}

	var err error
	if s.ResultNoise, err = resolveBounds(f, "result-noise", genResultNoise, c.ResultNoise, noise.OptionResult); err != nil {
		return genSettings{}, err
	}
	if s.FeatureNoise, err = resolveBounds(f, "feature-noise", genFeatureNoise, c.FeatureNoise, noise.OptionFeature); err != nil {
		return genSettings{}, err
	}
	return s, nil
}

func resolveBounds(f *pflag.FlagSet, flag, flagVal, cfgVal, option string) (*noise.Bounds, error) {
	raw := cfgVal
	if f.Changed(flag) {
		raw = flagVal
	}
	if raw == "" {
		return nil, nil
	}
	b, err := noise.ParseBounds(option, raw)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	logger := newLogger(cmd.ErrOrStderr(), verbose, debug)

	if cfgErr != nil {
		return cfgErr
	}

	base := effectiveConfig()
	var e expr.Expression
	if genFromManifest != "" {
		m, err := manifest.Load(genFromManifest)
		if err != nil {
			return err
		}
		if len(m.Terms) == 0 {
			return fmt.Errorf("manifest %s has no terms", genFromManifest)
		}
		base, e = manifestConfig(m, base), m.Terms
		logger.Info("repeating run", "manifest", genFromManifest, "run_id", m.RunID)
	}
	s, err := resolveSettings(cmd.Flags(), base)
	if err != nil {
		return err
	}
	if len(args) > 0 || e == nil {
		if len(args) == 0 {
			args = []string{defaultExpression}
		}
		if e, err = expr.ParseArgs(args); err != nil {
			return err
		}
	}
	for i, t := range e {
		logger.Debug("parsed term", "index", i, "coefficient", t.Coefficient, "variable", t.Variable, "constant", t.Constant)
	}

	src := rng.NewCounter(rng.New(s.Seed))
	opts := dataset.Options{Rows: s.Rows, Precision: s.Precision}
	if s.ResultNoise != nil {
		if opts.ResultNoise, err = noise.Result(*s.ResultNoise); err != nil {
			return err
		}
	}
	if s.FeatureNoise != nil {
		if opts.FeatureNoise, err = noise.Feature(*s.FeatureNoise, src); err != nil {
			return err
		}
	}
	gen, err := dataset.New(e, src, opts, logger)
	if err != nil {
		return err
	}

	logger.Info("generating dataset",
		"expression", e.String(),
		"rows", s.Rows,
		"precision", s.Precision,
		"seed", s.Seed,
		"format", s.Format.String(),
		"result_noise", boundsAttr(s.ResultNoise),
		"feature_noise", boundsAttr(s.FeatureNoise),
	)

	out, finish, err := openOutput(cmd, s.Output)
	if err != nil {
		return err
	}
	w := dataset.NewWriter(out, dataset.WriterOptions{
		Format:    s.Format,
		Precision: s.Precision,
		Namespace: s.Namespace,
		Header:    s.Header,
	})
	if err := w.WriteHeader(e.Variables()); err != nil {
		_ = finish(false)
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(gen.Rows()); err != nil {
		_ = finish(false)
		return err
	}
	if err := finish(true); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	logger.Info("dataset generated", "rows", w.Written(), "draws", src.Draws())

	if s.Manifest != "" {
		m := manifest.New(e)
		m.Rows = s.Rows
		m.Precision = s.Precision
		m.Seed = s.Seed
		m.Format = s.Format.String()
		m.Namespace = s.Namespace
		m.ResultNoise = s.ResultNoise
		m.FeatureNoise = s.FeatureNoise
		m.Output = s.Output
		if err := m.Save(s.Manifest); err != nil {
			return fmt.Errorf("save manifest: %w", err)
		}
		logger.Info("manifest written", "path", s.Manifest, "run_id", m.RunID)
	}
	return nil
}

// openOutput returns the command's stdout, or a temp file next to path that
// finish renames into place. finish(false) removes the temp file so a failed
// run never leaves a partial dataset behind.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(ok bool) error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func(bool) error { return nil }, nil
	}
	if err := utils.EnsureParentDir(path); err != nil {
		return nil, nil, fmt.Errorf("ensure output dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	finish := func(ok bool) error {
		if err := f.Close(); err != nil || !ok {
			_ = os.Remove(tmp)
			return err
		}
		if err := os.Rename(tmp, path); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("atomic rename: %w", err)
		}
		return nil
	}
	return f, finish, nil
}

// manifestConfig overlays the settings recorded in m on c. The output path
// is not repeated.
func manifestConfig(m *manifest.Manifest, c *cfgpkg.Global) *cfgpkg.Global {
	next := *c
	next.Rows = m.Rows
	next.Precision = m.Precision
	next.Seed = m.Seed
	if m.Format != "" {
		next.Format = m.Format
	}
	if m.Namespace != "" {
		next.Namespace = m.Namespace
	}
	next.ResultNoise, next.FeatureNoise = "", ""
	if m.ResultNoise != nil {
		next.ResultNoise = m.ResultNoise.String()
	}
	if m.FeatureNoise != nil {
		next.FeatureNoise = m.FeatureNoise.String()
	}
	return &next
}

func boundsAttr(b *noise.Bounds) string {
	if b == nil {
		return "off"
	}
	return b.String()
}

func init() {
	f := rootCmd.Flags()
	f.IntVarP(&genRows, "rows", "n", 10, "number of rows to generate")
	f.IntVarP(&genPrecision, "precision", "p", 6, "decimal places for every printed number")
	f.Int64VarP(&genSeed, "seed", "s", rng.DefaultSeed, "random seed")
	f.BoolVarP(&genWeighted, "weighted", "w", false, "weighted key:value output (label 1 index|f ...)")
	f.BoolVarP(&genCSV, "csv", "c", false, "comma separated output (wins over --tsv)")
	f.BoolVarP(&genTSV, "tsv", "t", false, "tab separated output")
	f.StringVarP(&genResultNoise, "result-noise", "r", "", "add uniform noise in min,max to each label")
	f.StringVarP(&genFeatureNoise, "feature-noise", "R", "", "scale each feature's label contribution by 1+m, m uniform in min,max")
	f.StringVar(&genNamespace, "namespace", "f", "namespace marker for key:value output")
	f.BoolVar(&genHeader, "header", false, "write a header line in CSV/TSV output")
	f.StringVarP(&genOutputPath, "output", "o", "", "write rows to this file instead of stdout")
	f.StringVar(&genManifestPath, "manifest", "", "write a YAML manifest describing the run")
	f.StringVar(&genFromManifest, "from-manifest", "", "repeat the run recorded in a manifest; flags and terms still override it")
}
