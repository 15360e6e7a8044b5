package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkravets/dictmatch/internal/client"
	"github.com/mkravets/dictmatch/internal/loader"
	"github.com/mkravets/dictmatch/internal/rules"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import rules from a file into a server",
	Long: `Import rules from a YAML or JSON file into a running server.

Examples:
  dictmatch import rules.yaml --base-url http://localhost:8080 --api-key dmk_...
  dictmatch import rules.yaml --base-url http://localhost:8080 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := loader.LoadFile(args[0])
		if err != nil {
			return err
		}
		if len(rs) == 0 {
			return fmt.Errorf("no rules found in %s", args[0])
		}

		if importDryRun {
			fmt.Printf("Dry run - %d rule(s) would be imported:\n", len(rs))
			for _, r := range rs {
				fmt.Printf("  - %s\n", r.ID)
			}
			return nil
		}

		if baseURL == "" {
			return fmt.Errorf("--base-url is required")
		}
		c := client.NewClient(baseURL, apiKey)
		ctx := context.Background()

		imported := 0
		for _, r := range rs {
			if err := c.UpsertRule(ctx, r.ID, r.Payload, toWire(r)); err != nil {
				return fmt.Errorf("rule %q: %w", r.ID, err)
			}
			imported++
			if verbose {
				fmt.Printf("imported %s\n", r.ID)
			}
		}
		fmt.Printf("Imported %d rule(s)\n", imported)
		return nil
	},
}

// toWire converts constraints back into the API's `when` format.
func toWire(r rules.Rule) map[string]any {
	when := make(map[string]any, len(r.Constraints))
	for _, c := range r.Constraints {
		if c.Any {
			when[string(c.Key)] = loader.Wildcard
			continue
		}
		vals := make([]any, 0, len(c.Values))
		for _, v := range c.Values {
			val, _ := v.MarshalYAML()
			vals = append(vals, val)
		}
		when[string(c.Key)] = vals
	}
	return when
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and show what would be imported")
	rootCmd.AddCommand(importCmd)
}
