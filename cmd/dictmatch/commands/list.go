package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkravets/dictmatch/internal/cli"
	"github.com/mkravets/dictmatch/internal/client"
	"github.com/mkravets/dictmatch/internal/loader"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules from a file or a server",
	Long: `List rule definitions, locally (--rules) or from a running server
(--base-url).

Examples:
  dictmatch list --rules rules.yaml
  dictmatch list --base-url http://localhost:8080 --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if baseURL != "" {
			c := client.NewClient(baseURL, apiKey)
			rs, err := c.ListRules(context.Background())
			if err != nil {
				return err
			}
			return cli.PrintRules(rs, cli.OutputFormat(format))
		}

		if rulesFile == "" {
			return fmt.Errorf("either --rules or --base-url is required")
		}
		rs, err := loader.LoadFile(rulesFile)
		if err != nil {
			return err
		}
		return cli.PrintRules(rs, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
