package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mkravets/dictmatch/internal/engine"
	"github.com/mkravets/dictmatch/internal/grid"
	"github.com/mkravets/dictmatch/internal/loader"
	"github.com/mkravets/dictmatch/internal/rules"
)

var (
	benchCardinality int
	benchIterations  int
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare linear and tree backends on a synthetic workload",
	Long: `Build both backends over a generated rule grid (or a rule file) and
time the worst-case no-match query. Low per-key cardinality with many
rules is where the tree backend pays off.

Examples:
  dictmatch bench --cardinality 10 --iterations 10000
  dictmatch bench --rules rules.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			rs   []rules.Rule
			dict rules.Dictionary
			err  error
		)
		if rulesFile != "" {
			rs, err = loader.LoadFile(rulesFile)
			if err != nil {
				return err
			}
			dict = rules.Dictionary{"__bench__": rules.String("no-match")}
		} else {
			rs = grid.Rules(benchCardinality)
			dict = grid.NoMatch()
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Backend", "Rules", "Build", "Query (avg)", "Matches")

		for _, b := range []engine.Backend{engine.BackendLinear, engine.BackendTree} {
			buildStart := time.Now()
			m, err := engine.New(b, rs, engine.Options{})
			if err != nil {
				return fmt.Errorf("%s build: %w", b, err)
			}
			buildDur := time.Since(buildStart)

			var matches int
			queryStart := time.Now()
			for i := 0; i < benchIterations; i++ {
				matches = len(m.Query(dict))
			}
			avg := time.Since(queryStart) / time.Duration(benchIterations)

			table.Append(string(b), fmt.Sprintf("%d", m.Len()), buildDur.String(), avg.String(), fmt.Sprintf("%d", matches))
		}
		return table.Render()
	},
}

func init() {
	benchCmd.Flags().IntVar(&benchCardinality, "cardinality", 10, "Distinct values per key in the generated grid")
	benchCmd.Flags().IntVar(&benchIterations, "iterations", 10000, "Query iterations per backend")
	rootCmd.AddCommand(benchCmd)
}
