package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL   string
	apiKey    string
	rulesFile string
	backend   string
	format    string
	verbose   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dictmatch",
	Short: "CLI tool for dictionary rule matching",
	Long: `dictmatch matches attribute dictionaries against rule sets, either
locally from a rule file or against a running dictmatch server.

Examples:
  dictmatch match method=GET region=us --rules rules.yaml
  dictmatch match method=GET --base-url http://localhost:8080
  dictmatch validate rules.yaml
  dictmatch list --rules rules.yaml --format table
  dictmatch bench --cardinality 10
  dictmatch import rules.yaml --base-url http://localhost:8080 --api-key dmk_...`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the dictmatch API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for admin operations")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "Rule file for local operations (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "tree", "Matcher backend (linear or tree)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}
