package cmd

import (
	"fmt"

	"github.com/lxb523532595/gendata/internal/expr"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// parsedExpression is the YAML view printed by `gendata parse`.
type parsedExpression struct {
	Expression string          `yaml:"expression"`
	Variables  []string        `yaml:"variables"`
	Constant   float64         `yaml:"constant"`
	Terms      expr.Expression `yaml:"terms"`
}

var parseCmd = &cobra.Command{
	Use:   "parse [--] term...",
	Short: "Parse an expression and print its terms as YAML",
	Example: `  gendata parse 2x+5y-4
  gendata parse -- -x +3.5y -7`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		e, err := expr.ParseArgs(args)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(parsedExpression{
			Expression: e.String(),
			Variables:  e.Variables(),
			Constant:   e.Constant(),
			Terms:      e,
		}); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
