package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkravets/dictmatch/internal/engine"
	"github.com/mkravets/dictmatch/internal/loader"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a rule file",
	Long: `Parse a rule file and build it on both backends, reporting the first
structural problem (contradictory or empty constraints) if any.

Examples:
  dictmatch validate rules.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := loader.LoadFile(args[0])
		if err != nil {
			return err
		}

		for _, b := range []engine.Backend{engine.BackendLinear, engine.BackendTree} {
			if _, err := engine.New(b, rs, engine.Options{}); err != nil {
				return fmt.Errorf("%s build: %w", b, err)
			}
		}

		fmt.Printf("%s: %d rule(s) OK\n", args[0], len(rs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
