package loader

import (
	"strings"
	"testing"

	"github.com/mkravets/dictmatch/internal/engine"
	"github.com/mkravets/dictmatch/internal/rules"
)

const sampleYAML = `
rules:
  - id: mobile-us
    payload:
      action: allow
    when:
      method: GET
      region: [us, eu]
      plan: "*"
  - payload:
      action: deny
    when:
      method: POST
  - id: numeric
    when:
      retries: 3
      beta: true
`

func TestParse_YAML(t *testing.T) {
	rs, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(rs) != 3 {
		t.Fatalf("got %d rules, want 3", len(rs))
	}

	first := rs[0]
	if first.ID != "mobile-us" {
		t.Fatalf("ID = %q, want mobile-us", first.ID)
	}
	if len(first.Constraints) != 3 {
		t.Fatalf("got %d constraints, want 3", len(first.Constraints))
	}
	payload, ok := first.Payload.(map[string]any)
	if !ok || payload["action"] != "allow" {
		t.Fatalf("payload = %#v, want action: allow", first.Payload)
	}

	if rs[1].ID == "" {
		t.Fatal("missing ID was not assigned a UUID")
	}

	if !rs[2].Matches(rules.Dictionary{"retries": rules.Int(3), "beta": rules.Bool(true)}) {
		t.Fatal("numeric rule does not match typed dictionary")
	}
	if rs[2].Matches(rules.Dictionary{"retries": rules.String("3"), "beta": rules.Bool(true)}) {
		t.Fatal("numeric rule must not match a string-typed value")
	}
}

func TestParse_WildcardAndMembership(t *testing.T) {
	rs, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	m, err := engine.New(engine.BackendTree, rs, engine.Options{})
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}

	got := m.Query(rules.Dictionary{
		"method": rules.String("GET"),
		"region": rules.String("eu"),
		"plan":   rules.String("enterprise"),
	})
	if len(got) != 1 || got[0].RuleID != "mobile-us" {
		t.Fatalf("Query = %v, want [mobile-us]", got)
	}
}

func TestParse_JSONInput(t *testing.T) {
	src := `{"rules": [{"id": "j1", "when": {"method": "GET"}}]}`
	rs, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(rs) != 1 || rs[0].ID != "j1" {
		t.Fatalf("got %+v, want one rule j1", rs)
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("rules: [")); err == nil {
		t.Fatal("Parse accepted malformed input")
	}
	if _, err := Parse([]byte("rules:\n  - when:\n      method: {nested: map}\n")); err == nil {
		t.Fatal("Parse accepted a non-scalar constraint value")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("does-not-exist.yaml")
	if err == nil || !strings.Contains(err.Error(), "failed to read rule file") {
		t.Fatalf("LoadFile error = %v", err)
	}
}
