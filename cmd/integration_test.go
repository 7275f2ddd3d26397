package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	cfgpkg "github.com/lxb523532595/gendata/internal/config"
	"github.com/lxb523532595/gendata/internal/dataset"
	"github.com/lxb523532595/gendata/internal/expr"
	"github.com/lxb523532595/gendata/internal/manifest"
	"github.com/lxb523532595/gendata/internal/noise"
	"github.com/lxb523532595/gendata/internal/rng"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// resetFlags clears values and Changed state that persist across Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns stdout and stderr.
func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	if args == nil {
		// cobra falls back to os.Args when args is nil
		args = []string{}
	}
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, _, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

// isolateHome points HOME at a temp dir so no user config is read.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestCLI_DefaultRun(t *testing.T) {
	isolateHome(t)
	out := mustRun(t)
	ls := lines(out)
	if len(ls) != 10 {
		t.Fatalf("expected 10 rows, got %d: %q", len(ls), out)
	}
	re := regexp.MustCompile(`^-?\d+\.\d{6} '(\d+)\|f a:\d\.\d{6}$`)
	for i, l := range ls {
		m := re.FindStringSubmatch(l)
		if m == nil {
			t.Fatalf("row %d has unexpected shape: %q", i+1, l)
		}
		if m[1] != strconv.Itoa(i+1) {
			t.Fatalf("row %d has index %s", i+1, m[1])
		}
	}
}

func TestCLI_EndToEndExample(t *testing.T) {
	isolateHome(t)
	out := mustRun(t, "-n1", "-p2", "2x + 5y - 4")

	ref := rng.New(rng.DefaultSeed)
	r1, r2 := ref.Float64(), ref.Float64()
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	want := f(dataset.Round(2*r1+5*r2-4, 2)) + " '1|f x:" + f(r1) + " y:" + f(r2) + "\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestCLI_SeededRunsAreReproducible(t *testing.T) {
	isolateHome(t)
	a := mustRun(t, "-n20", "-s", "99", "-r", "-1,1", "-R", "0,0.5", "3a-b+2")
	b := mustRun(t, "-n20", "-s", "99", "-r", "-1,1", "-R", "0,0.5", "3a-b+2")
	if a != b {
		t.Fatalf("seeded runs differ")
	}
	c := mustRun(t, "-n20", "-s", "100", "-r", "-1,1", "-R", "0,0.5", "3a-b+2")
	if a == c {
		t.Fatalf("different seeds produced identical output")
	}
}

func TestCLI_Formats(t *testing.T) {
	isolateHome(t)
	cases := []struct {
		name string
		args []string
		re   string
	}{
		{"weighted", []string{"-w", "-p3"}, `^-?\d+\.\d{3} 1 \d+\|f x:\d\.\d{3} y:\d\.\d{3}$`},
		{"csv", []string{"-c", "-p3"}, `^-?\d+\.\d{3},\d\.\d{3},\d\.\d{3}$`},
		{"tsv", []string{"-t", "-p3"}, `^-?\d+\.\d{3}\t\d\.\d{3}\t\d\.\d{3}$`},
		{"csv wins over tsv", []string{"-t", "-c", "-p3"}, `^-?\d+\.\d{3},\d\.\d{3},\d\.\d{3}$`},
		{"namespace", []string{"--namespace", "feat", "-p1"}, `^-?\d+\.\d '\d+\|feat x:\d\.\d y:\d\.\d$`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			args := append(append([]string{"-n4"}, c.args...), "x+y-1")
			ls := lines(mustRun(t, args...))
			if len(ls) != 4 {
				t.Fatalf("expected 4 rows, got %d", len(ls))
			}
			re := regexp.MustCompile(c.re)
			for _, l := range ls {
				if !re.MatchString(l) {
					t.Fatalf("unexpected line %q", l)
				}
			}
		})
	}
}

func TestCLI_Header(t *testing.T) {
	isolateHome(t)
	ls := lines(mustRun(t, "-n2", "-c", "--header", "x+2y+x"))
	if len(ls) != 3 || ls[0] != "label,x,y,x" {
		t.Fatalf("unexpected output: %q", ls)
	}
}

func TestCLI_NegativeTermsAfterDoubleDash(t *testing.T) {
	isolateHome(t)
	out := mustRun(t, "-n1", "-p4", "--", "-x", "+2")
	if !regexp.MustCompile(`^\d\.\d{4} '1\|f x:\d\.\d{4}\n$`).MatchString(out) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCLI_ConstantOnly(t *testing.T) {
	isolateHome(t)
	for _, l := range lines(mustRun(t, "-n3", "-p1", "4-1.5")) {
		if !strings.HasPrefix(l, "2.5 '") || !strings.HasSuffix(l, "|f") {
			t.Fatalf("unexpected line %q", l)
		}
	}
}

func TestCLI_ParseErrorProducesNoOutput(t *testing.T) {
	home := isolateHome(t)
	outPath := filepath.Join(home, "out.txt")
	out, _, err := runCmd(t, "-o", outPath, "2x^2+y")
	if !errors.Is(err, expr.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if !strings.Contains(err.Error(), `"2x^2"`) {
		t.Fatalf("error should name the term: %v", err)
	}
	if out != "" {
		t.Fatalf("expected no output, got %q", out)
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Fatalf("output file should not exist: %v", err)
	}
}

func TestCLI_InvertedNoiseBounds(t *testing.T) {
	isolateHome(t)
	for _, flag := range []string{"-r", "-R"} {
		out, _, err := runCmd(t, flag, "2,1", "x")
		if !errors.Is(err, noise.ErrConfig) {
			t.Fatalf("%s: expected config error, got %v", flag, err)
		}
		if out != "" {
			t.Fatalf("%s: expected no output, got %q", flag, out)
		}
	}
	if _, _, err := runCmd(t, "-r", "zero,one", "x"); !errors.Is(err, noise.ErrConfig) {
		t.Fatalf("expected config error for malformed bounds, got %v", err)
	}
}

func TestCLI_NegativeRowsRejected(t *testing.T) {
	isolateHome(t)
	_, _, err := runCmd(t, "-n", "-1", "x")
	var oe *dataset.OptionError
	if !errors.As(err, &oe) {
		t.Fatalf("expected option error, got %v", err)
	}
}

func TestCLI_OutputFileAndManifest(t *testing.T) {
	home := isolateHome(t)
	outPath := filepath.Join(home, "data", "rows.csv")
	manPath := filepath.Join(home, "data", "run.yaml")
	stdout := mustRun(t, "-n7", "-c", "-s", "5", "-r", "0;0.5", "-o", outPath, "--manifest", manPath, "2x+5y-4")
	if stdout != "" {
		t.Fatalf("expected nothing on stdout, got %q", stdout)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if n := len(lines(string(b))); n != 7 {
		t.Fatalf("expected 7 rows in file, got %d", n)
	}

	m, err := manifest.Load(manPath)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if m.Expression != "2x + 5y - 4" || m.Rows != 7 || m.Seed != 5 || m.Format != "csv" {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if m.ResultNoise == nil || *m.ResultNoise != (noise.Bounds{Min: 0, Max: 0.5}) {
		t.Fatalf("unexpected result noise: %+v", m.ResultNoise)
	}
	if m.FeatureNoise != nil {
		t.Fatalf("feature noise should be unset")
	}
	if m.Output != outPath {
		t.Fatalf("unexpected output path %q", m.Output)
	}
}

func TestCLI_DiagnosticsStayOnStderr(t *testing.T) {
	isolateHome(t)
	out, errOut, err := runCmd(t, "-D", "-n3", "x+y")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := len(lines(out)); n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
	for _, want := range []string{"parsed term", "generating dataset", "generated row"} {
		if !strings.Contains(errOut, want) {
			t.Fatalf("stderr missing %q: %q", want, errOut)
		}
	}
	quiet := mustRun(t, "-n3", "x+y")
	if quiet != out {
		t.Fatalf("debug output changed generated data")
	}
}

func TestCLI_ConfigSetShowAndOverride(t *testing.T) {
	isolateHome(t)
	mustRun(t, "config", "set", "rows", "3")
	mustRun(t, "config", "set", "format", "tsv")

	show := mustRun(t, "config", "show")
	if !strings.Contains(show, "rows: 3") || !strings.Contains(show, "format: tsv") {
		t.Fatalf("unexpected config show: %q", show)
	}

	ls := lines(mustRun(t, "x+y"))
	if len(ls) != 3 || !strings.Contains(ls[0], "\t") {
		t.Fatalf("config not applied: %q", ls)
	}
	if n := len(lines(mustRun(t, "-n", "5", "x"))); n != 5 {
		t.Fatalf("flag should override config, got %d rows", n)
	}

	if _, _, err := runCmd(t, "config", "set", "result_noise", "3,1"); !errors.Is(err, noise.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestCLI_ConfigSetExplicitFile(t *testing.T) {
	home := isolateHome(t)
	p := filepath.Join(home, "custom", "gendata.yaml")
	mustRun(t, "--config", p, "config", "set", "precision", "2")
	out := mustRun(t, "--config", p, "-n1", "x")
	if !regexp.MustCompile(`^\d\.\d{2} '1\|f x:\d\.\d{2}\n$`).MatchString(out) {
		t.Fatalf("precision from config not applied: %q", out)
	}
}

func TestCLI_ParseCommand(t *testing.T) {
	isolateHome(t)
	out := mustRun(t, "parse", "2x+5y-4+y")
	var got parsedExpression
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Expression != "2x + 5y - 4 + y" {
		t.Fatalf("unexpected expression %q", got.Expression)
	}
	if strings.Join(got.Variables, ",") != "x,y,y" || got.Constant != -4 || len(got.Terms) != 4 {
		t.Fatalf("unexpected parse result: %+v", got)
	}
	if !got.Terms[2].Constant || got.Terms[2].Variable != "" {
		t.Fatalf("third term should be constant: %+v", got.Terms[2])
	}

	if _, _, err := runCmd(t, "parse", "--", "--x"); !errors.Is(err, expr.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestCLI_InvalidNoiseFromEnvironment(t *testing.T) {
	cases := []struct {
		env, val string
	}{
		{"GENDATA_RESULT_NOISE", "1,0"},
		{"GENDATA_FEATURE_NOISE", "1,0"},
		{"GENDATA_RESULT_NOISE", "low,high"},
	}
	for _, c := range cases {
		t.Run(c.env+"="+c.val, func(t *testing.T) {
			isolateHome(t)
			t.Setenv(c.env, c.val)
			out, _, err := runCmd(t, "-n3", "x")
			if !errors.Is(err, noise.ErrConfig) {
				t.Fatalf("expected config error, got %v", err)
			}
			if out != "" {
				t.Fatalf("expected no output, got %q", out)
			}
		})
	}
}

func TestCLI_InvalidConfigValuesFailGeneration(t *testing.T) {
	home := isolateHome(t)
	p := filepath.Join(home, "bad.yaml")
	if err := os.WriteFile(p, []byte("rows: 4\nfeature_noise: \"2,1\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out, _, err := runCmd(t, "--config", p, "x")
	if !errors.Is(err, noise.ErrConfig) || !errors.Is(err, cfgpkg.ErrInvalid) {
		t.Fatalf("expected invalid config error, got %v", err)
	}
	if out != "" {
		t.Fatalf("expected no output, got %q", out)
	}

	t.Setenv("GENDATA_ROWS", "-1")
	if _, _, err := runCmd(t, "x"); !errors.Is(err, cfgpkg.ErrInvalid) {
		t.Fatalf("expected invalid config error for negative rows, got %v", err)
	}
	if _, _, err := runCmd(t, "config", "show"); !errors.Is(err, cfgpkg.ErrInvalid) {
		t.Fatalf("config show should report invalid config, got %v", err)
	}
}

func TestCLI_FromManifestRepeatsRun(t *testing.T) {
	home := isolateHome(t)
	manPath := filepath.Join(home, "run.yaml")
	first := mustRun(t, "-n6", "-p3", "-s", "21", "-w", "-r", "-1,1", "-R", "0,0.2", "--manifest", manPath, "--", "3a", "-b", "+2")

	again := mustRun(t, "--from-manifest", manPath)
	if again != first {
		t.Fatalf("repeated run differs:\n%s\nvs\n%s", first, again)
	}

	prefix := lines(mustRun(t, "--from-manifest", manPath, "-n2"))
	if len(prefix) != 2 || prefix[0] != lines(first)[0] || prefix[1] != lines(first)[1] {
		t.Fatalf("row override should keep the same leading rows: %q", prefix)
	}

	other := mustRun(t, "--from-manifest", manPath, "x")
	if strings.Contains(other, "a:") || !strings.Contains(other, "x:") {
		t.Fatalf("terms on the command line should replace the manifest's: %q", other)
	}

	if _, _, err := runCmd(t, "--from-manifest", filepath.Join(home, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing manifest")
	}
}

func TestOpenOutputRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "rows.txt")
	if err := os.WriteFile(p, []byte("old\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, finish, err := openOutput(rootCmd, p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := w.Write([]byte("partial")); err != nil {
		t.Fatalf("write partial: %v", err)
	}
	if err := finish(false); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "old\n" {
		t.Fatalf("existing output was replaced by a failed run: %q", b)
	}

	w, finish, err = openOutput(rootCmd, p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = w.Write([]byte("new\n"))
	if err := finish(true); err != nil {
		t.Fatalf("finish: %v", err)
	}
	b, _ = os.ReadFile(p)
	if string(b) != "new\n" {
		t.Fatalf("unexpected output %q", b)
	}
}
