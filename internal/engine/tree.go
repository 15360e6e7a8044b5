package engine

import (
	"sort"

	"github.com/mkravets/dictmatch/internal/rules"
)

// Tree indexes rules by a discrimination tree over attribute/value
// splits. Each level partitions the remaining rules by the value they
// require for that level's key; rules unconstrained on the key fall into
// a wildcard branch that every traversal must also visit. Queries only
// touch branches consistent with the dictionary, which beats the linear
// scan when the rule count is large and per-key cardinality is low.
//
// Nodes live in an arena addressed by index, so the tree has no pointer
// recursion and traversal is an explicit worklist.
type Tree struct {
	rules []rules.Rule
	keys  []rules.Key                         // discrimination order
	codes map[rules.Key]map[rules.Value]int32 // interned constraint values
	nodes []node
	root  int32
}

// leafFanout stops discriminating partitions at or below this size;
// verifying a couple of candidates directly is cheaper than another
// tree level.
const leafFanout = 2

type node struct {
	key      int32           // index into Tree.keys; -1 marks a leaf
	children map[int32]int32 // value code -> node index
	wildcard int32           // node index, -1 when absent
	leaf     []int32         // rule indices, leaves only
}

// NewTree builds a tree rule set.
//
// Key order is descending count of distinct constrained values, ties
// broken by ascending key name. High-cardinality keys split the rule
// list into the most branches, so discriminating on them first prunes
// the most. The heuristic is a tunable, not a correctness property: any
// deterministic order yields the same match sets.
func NewTree(rs []rules.Rule, opts Options) (*Tree, error) {
	compiled, err := compile(rs, opts)
	if err != nil {
		return nil, err
	}

	t := &Tree{rules: compiled}
	t.internValues()
	all := make([]int32, len(compiled))
	for i := range all {
		all[i] = int32(i)
	}
	t.root = t.build(all, 0)
	return t, nil
}

// internValues assigns dense codes to every distinct constraint value,
// per key, and fixes the discrimination key order. Codes are assigned in
// sorted value order so construction is deterministic.
func (t *Tree) internValues() {
	t.codes = make(map[rules.Key]map[rules.Value]int32)
	for _, r := range t.rules {
		for _, c := range r.Constraints {
			if c.Any {
				continue
			}
			table, ok := t.codes[c.Key]
			if !ok {
				table = make(map[rules.Value]int32)
				t.codes[c.Key] = table
			}
			for _, v := range c.Values {
				if _, ok := table[v]; !ok {
					table[v] = -1 // assigned below
				}
			}
		}
	}

	t.keys = make([]rules.Key, 0, len(t.codes))
	for k := range t.codes {
		t.keys = append(t.keys, k)
	}
	sort.Slice(t.keys, func(i, j int) bool {
		ci, cj := len(t.codes[t.keys[i]]), len(t.codes[t.keys[j]])
		if ci != cj {
			return ci > cj
		}
		return t.keys[i] < t.keys[j]
	})

	for _, table := range t.codes {
		vals := make([]rules.Value, 0, len(table))
		for v := range table {
			vals = append(vals, v)
		}
		sort.Slice(vals, func(i, j int) bool {
			if vals[i].Kind() != vals[j].Kind() {
				return vals[i].Kind() < vals[j].Kind()
			}
			return vals[i].String() < vals[j].String()
		})
		for code, v := range vals {
			table[v] = int32(code)
		}
	}
}

// build recursively partitions idxs on the key at level and returns the
// arena index of the subtree root.
func (t *Tree) build(idxs []int32, level int) int32 {
	if level == len(t.keys) || len(idxs) <= leafFanout {
		return t.addLeaf(idxs)
	}

	key := t.keys[level]
	var wild []int32
	buckets := make(map[int32][]int32)
	for _, idx := range idxs {
		c, ok := t.constraintOn(idx, key)
		if !ok || c.Any {
			wild = append(wild, idx)
			continue
		}
		// Membership constraints place the rule in every listed branch;
		// full verification at the leaf keeps this sound.
		for _, v := range c.Values {
			code := t.codes[key][v]
			buckets[code] = append(buckets[code], idx)
		}
	}

	if len(buckets) == 0 {
		// Nothing here constrains this key; skip the level entirely.
		return t.build(idxs, level+1)
	}

	self := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{key: int32(level), wildcard: -1})

	codes := make([]int32, 0, len(buckets))
	for code := range buckets {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	children := make(map[int32]int32, len(codes))
	for _, code := range codes {
		children[code] = t.build(buckets[code], level+1)
	}
	t.nodes[self].children = children
	if len(wild) > 0 {
		t.nodes[self].wildcard = t.build(wild, level+1)
	}
	return self
}

func (t *Tree) addLeaf(idxs []int32) int32 {
	self := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{key: -1, wildcard: -1, leaf: idxs})
	return self
}

func (t *Tree) constraintOn(ruleIdx int32, key rules.Key) (rules.Constraint, bool) {
	for _, c := range t.rules[ruleIdx].Constraints {
		if c.Key == key {
			return c, true
		}
	}
	return rules.Constraint{}, false
}

// Query walks every branch consistent with d using an explicit worklist:
// at each level the value branch for the dictionary's (interned) value,
// when present, plus always the wildcard branch. Candidates collected at
// leaves are fully re-verified against d before entering the result, and
// results are sorted by rule insertion index so the output sequence
// matches the linear backend's.
func (t *Tree) Query(d rules.Dictionary) []Match {
	matched := t.queryIndices(d)
	if len(matched) == 0 {
		return nil
	}
	out := make([]Match, 0, len(matched))
	for _, idx := range matched {
		r := t.rules[idx]
		out = append(out, Match{RuleID: r.ID, Payload: r.Payload})
	}
	return out
}

// FindFirst returns the first rule in insertion order satisfied by d.
func (t *Tree) FindFirst(d rules.Dictionary) (Match, bool) {
	matched := t.queryIndices(d)
	if len(matched) == 0 {
		return Match{}, false
	}
	r := t.rules[matched[0]]
	return Match{RuleID: r.ID, Payload: r.Payload}, true
}

// Len reports the number of rules in the set.
func (t *Tree) Len() int { return len(t.rules) }

func (t *Tree) queryIndices(d rules.Dictionary) []int32 {
	if len(t.rules) == 0 {
		return nil
	}

	var matched []int32
	seen := make(map[int32]struct{})
	stack := make([]int32, 0, 16)
	stack = append(stack, t.root)

	for len(stack) > 0 {
		n := &t.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		if n.key < 0 {
			for _, idx := range n.leaf {
				if _, dup := seen[idx]; dup {
					continue
				}
				seen[idx] = struct{}{}
				if t.rules[idx].Matches(d) {
					matched = append(matched, idx)
				}
			}
			continue
		}

		if v, ok := d[t.keys[n.key]]; ok {
			// A dictionary value never seen in any rule has no code and
			// leaves only the wildcard branch viable.
			if code, ok := t.codes[t.keys[n.key]][v]; ok {
				if child, ok := n.children[code]; ok {
					stack = append(stack, child)
				}
			}
		}
		if n.wildcard >= 0 {
			stack = append(stack, n.wildcard)
		}
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i] < matched[j] })
	return matched
}
