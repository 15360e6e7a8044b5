package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkravets/dictmatch/internal/cli"
	"github.com/mkravets/dictmatch/internal/client"
	"github.com/mkravets/dictmatch/internal/engine"
	"github.com/mkravets/dictmatch/internal/loader"
	"github.com/mkravets/dictmatch/internal/rules"
)

var matchFirst bool

var matchCmd = &cobra.Command{
	Use:   "match key=value [key=value ...]",
	Short: "Match a dictionary against a rule set",
	Long: `Match a dictionary against a rule set, locally (--rules) or against a
running server (--base-url). Values parse as int, bool, then string.

Examples:
  dictmatch match method=GET region=us --rules rules.yaml
  dictmatch match method=GET retries=3 beta=true --base-url http://localhost:8080
  dictmatch match method=GET --rules rules.yaml --first`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := parseDictArgs(args)
		if err != nil {
			return err
		}

		if baseURL != "" {
			c := client.NewClient(baseURL, apiKey)
			matches, err := c.Match(context.Background(), raw, matchFirst)
			if err != nil {
				return err
			}
			return cli.PrintMatches(matches, cli.OutputFormat(format))
		}

		if rulesFile == "" {
			return fmt.Errorf("either --rules or --base-url is required")
		}

		rs, err := loader.LoadFile(rulesFile)
		if err != nil {
			return err
		}
		m, err := engine.New(engine.Backend(backend), rs, engine.Options{})
		if err != nil {
			return err
		}

		dict := make(rules.Dictionary, len(raw))
		for k, v := range raw {
			val, err := rules.FromScalar(v)
			if err != nil {
				return fmt.Errorf("dictionary key %q: %w", k, err)
			}
			dict[rules.Key(k)] = val
		}

		var matches []engine.Match
		if matchFirst {
			if first, ok := m.FindFirst(dict); ok {
				matches = []engine.Match{first}
			}
		} else {
			matches = m.Query(dict)
		}

		if verbose {
			fmt.Printf("%d of %d rule(s) matched\n", len(matches), m.Len())
		}
		return cli.PrintMatches(matches, cli.OutputFormat(format))
	},
}

// parseDictArgs converts key=value arguments into a raw dictionary,
// trying int and bool before falling back to string.
func parseDictArgs(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid dictionary entry %q, want key=value", arg)
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[k] = n
		} else if b, err := strconv.ParseBool(v); err == nil {
			out[k] = b
		} else {
			out[k] = v
		}
	}
	return out, nil
}

func init() {
	matchCmd.Flags().BoolVar(&matchFirst, "first", false, "Return only the first match in rule order")
	rootCmd.AddCommand(matchCmd)
}
