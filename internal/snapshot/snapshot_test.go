package snapshot

import (
	"testing"

	"github.com/mkravets/dictmatch/internal/engine"
	"github.com/mkravets/dictmatch/internal/rules"
)

func sampleRules() []rules.Rule {
	return []rules.Rule{
		{ID: "get", Constraints: []rules.Constraint{rules.Eq("method", rules.String("GET"))}},
		{ID: "us", Constraints: []rules.Constraint{rules.Eq("region", rules.String("us"))}},
	}
}

func TestBuild_ETagTracksRuleChanges(t *testing.T) {
	a, err := Build(sampleRules(), engine.BackendTree, engine.Options{}, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	b, err := Build(sampleRules(), engine.BackendTree, engine.Options{}, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if a.ETag != b.ETag {
		t.Fatalf("identical rules produced different ETags: %s vs %s", a.ETag, b.ETag)
	}

	changed := sampleRules()
	changed[0].Constraints = []rules.Constraint{rules.Eq("method", rules.String("POST"))}
	c, err := Build(changed, engine.BackendTree, engine.Options{}, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if c.ETag == a.ETag {
		t.Fatal("changed rules kept the same ETag")
	}
}

func TestBuild_ETagDistinguishesValueKinds(t *testing.T) {
	// A rule edit that changes only the value's kind must change the
	// ETag, or revalidating clients would keep getting 304 for a set
	// that no longer matches what they hold.
	intSet := []rules.Rule{{ID: "r", Constraints: []rules.Constraint{rules.Eq("retries", rules.Int(3))}}}
	strSet := []rules.Rule{{ID: "r", Constraints: []rules.Constraint{rules.Eq("retries", rules.String("3"))}}}

	a, err := Build(intSet, engine.BackendLinear, engine.Options{}, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	b, err := Build(strSet, engine.BackendLinear, engine.Options{}, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if a.ETag == b.ETag {
		t.Fatalf("kind-only edit kept ETag %s", a.ETag)
	}
}

func TestBuild_InvalidRulesLeaveNoSnapshot(t *testing.T) {
	bad := []rules.Rule{{ID: "bad"}}
	if _, err := Build(bad, engine.BackendLinear, engine.Options{}, false); err == nil {
		t.Fatal("Build accepted an invalid rule set")
	}
}

func TestLoadBeforeUpdate(t *testing.T) {
	s := Load()
	if s.Matcher.Len() != 0 {
		t.Fatalf("pre-update snapshot has %d rules", s.Matcher.Len())
	}
	if got := s.Matcher.Query(rules.Dictionary{"method": rules.String("GET")}); len(got) != 0 {
		t.Fatalf("pre-update snapshot matched %v", got)
	}
}

func TestUpdateSwap(t *testing.T) {
	s, err := Build(sampleRules(), engine.BackendTree, engine.Options{}, true)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	Update(s)

	got := Load()
	if got.ETag != s.ETag || got.RuleCount != 2 {
		t.Fatalf("Load returned %+v, want the updated snapshot", got)
	}
	matches := got.Matcher.Query(rules.Dictionary{"method": rules.String("GET")})
	if len(matches) != 1 || matches[0].RuleID != "get" {
		t.Fatalf("snapshot matcher Query = %v", matches)
	}
}
