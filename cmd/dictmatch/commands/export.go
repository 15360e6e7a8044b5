package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mkravets/dictmatch/internal/client"
	"github.com/mkravets/dictmatch/internal/rules"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export rules from a server to a file",
	Long: `Export every rule definition from a running server as YAML, to stdout
or a file.

Examples:
  dictmatch export --base-url http://localhost:8080
  dictmatch export --base-url http://localhost:8080 --output rules.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if baseURL == "" {
			return fmt.Errorf("--base-url is required")
		}
		c := client.NewClient(baseURL, apiKey)
		rs, err := c.ListRules(context.Background())
		if err != nil {
			return err
		}

		blob, err := yaml.Marshal(map[string][]rules.Rule{"rules": rs})
		if err != nil {
			return fmt.Errorf("failed to encode rules: %w", err)
		}

		if exportOutput == "" {
			_, err = os.Stdout.Write(blob)
			return err
		}
		if err := os.WriteFile(exportOutput, blob, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOutput, err)
		}
		fmt.Printf("Exported %d rule(s) to %s\n", len(rs), exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
