package cmd

import (
	"errors"
	"fmt"
	"os"

	cfgpkg "github.com/lxb523532595/gendata/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
	// cfgErr holds a Load failure caused by invalid values
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "gendata [flags] [--] term...",
	Short: "Generate synthetic labeled datasets from a linear expression",
	Long: `gendata samples every variable of a linear expression such as "2x + 5y - 4"
uniformly from [0,1), computes the label and prints one example per line in
key:value, CSV or TSV format. Uniform noise can be added to the label (-r) or
to each feature's contribution to the label (-R).

The expression defaults to "a". Separate terms that start with a minus sign
must follow "--" so they are not read as flags: gendata -n5 -- 2x -4`,
	Example: `  gendata 2x+5y-4
  gendata -n100 -p3 -s42 "2x + 5y - 4"
  gendata -c -r-0.1,0.1 -- 3a -b +7
  gendata -w -R0,0.5 -o data.txt --manifest data.yaml x+y`,
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
	RunE:          runGenerate,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.gendata/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print progress to stderr")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "D", false, "print debug output to stderr")
}

func loadConfig() {
	cfgErr = nil
	c, err := cfgpkg.Load(cfgFile)
	if errors.Is(err, cfgpkg.ErrInvalid) {
		// Reported by commands that depend on the values
		cfg, cfgErr = nil, err
		return
	}
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(rootCmd.ErrOrStderr(), "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c
}

// effectiveConfig returns the loaded configuration or the built-in defaults.
func effectiveConfig() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	return cfgpkg.Default()
}
