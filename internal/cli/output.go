// Package cli provides output formatting for the dictmatch command.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/mkravets/dictmatch/internal/engine"
	"github.com/mkravets/dictmatch/internal/rules"
)

// OutputFormat specifies the output format for CLI commands.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintRules outputs rule definitions in the specified format.
func PrintRules(rs []rules.Rule, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]rules.Rule{"rules": rs})
	case FormatYAML:
		return printYAML(map[string][]rules.Rule{"rules": rs})
	case FormatTable:
		return printRuleTable(rs)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintMatches outputs query results in the specified format.
func PrintMatches(ms []engine.Match, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]engine.Match{"matches": ms})
	case FormatYAML:
		return printYAML(map[string][]engine.Match{"matches": ms})
	case FormatTable:
		return printMatchTable(ms)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data any) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printRuleTable(rs []rules.Rule) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Constraints", "Payload")

	for _, r := range rs {
		table.Append(r.ID, formatConstraints(r.Constraints), formatPayload(r.Payload))
	}
	return table.Render()
}

func printMatchTable(ms []engine.Match) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Rule", "Payload")

	for _, m := range ms {
		table.Append(m.RuleID, formatPayload(m.Payload))
	}
	return table.Render()
}

func formatConstraints(cs []rules.Constraint) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		if c.Any {
			parts = append(parts, string(c.Key)+"=*")
			continue
		}
		vals := make([]string, 0, len(c.Values))
		for _, v := range c.Values {
			vals = append(vals, v.String())
		}
		parts = append(parts, string(c.Key)+"="+strings.Join(vals, "|"))
	}
	return strings.Join(parts, " ")
}

func formatPayload(p any) string {
	if p == nil {
		return ""
	}
	blob, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%v", p)
	}
	return string(blob)
}
