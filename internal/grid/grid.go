// Package grid generates synthetic rule sets with controllable size and
// per-key cardinality. Used by the engine tests and benchmarks and by
// the CLI bench command to compare the two backends.
package grid

import (
	"strconv"

	"github.com/mkravets/dictmatch/internal/rules"
)

// Keys used by generated rule sets, lowest to highest nesting level.
var Keys = []rules.Key{"a", "b", "c"}

// Rules builds the full cross product of values 0..card-1 over the three
// keys, skipping the all-unconstrained combination. A zero coordinate
// leaves that key unconstrained, so the set mixes fully and partially
// constrained rules the way real low-cardinality rule sets do. With
// card=10 this is a 999-rule grid.
func Rules(card int) []rules.Rule {
	var out []rules.Rule
	for i := 0; i < card; i++ {
		for j := 0; j < card; j++ {
			for k := 0; k < card; k++ {
				if i == 0 && j == 0 && k == 0 {
					continue
				}
				r := rules.Rule{ID: ruleID(i, j, k)}
				if i > 0 {
					r.Constraints = append(r.Constraints, rules.Eq(Keys[0], rules.String(strconv.Itoa(i))))
				}
				if j > 0 {
					r.Constraints = append(r.Constraints, rules.Eq(Keys[1], rules.String(strconv.Itoa(j))))
				}
				if k > 0 {
					r.Constraints = append(r.Constraints, rules.Eq(Keys[2], rules.String(strconv.Itoa(k))))
				}
				out = append(out, r)
			}
		}
	}
	return out
}

// NoMatch returns a dictionary that satisfies none of the generated
// rules' concrete constraints, the worst case for the linear scan.
func NoMatch() rules.Dictionary {
	return rules.Dictionary{
		Keys[0]: rules.String("garbage"),
		Keys[1]: rules.String("garbage"),
		Keys[2]: rules.String("garbage"),
	}
}

// Dict builds a dictionary with the given grid coordinates.
func Dict(i, j, k int) rules.Dictionary {
	return rules.Dictionary{
		Keys[0]: rules.String(strconv.Itoa(i)),
		Keys[1]: rules.String(strconv.Itoa(j)),
		Keys[2]: rules.String(strconv.Itoa(k)),
	}
}

func ruleID(i, j, k int) string {
	return "r" + strconv.Itoa(i) + "-" + strconv.Itoa(j) + "-" + strconv.Itoa(k)
}
