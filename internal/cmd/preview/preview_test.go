package preview

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const landBattle = `id: karelia
site:
  name: Karelia
unit_types:
  infantry:
    attack: 1
    defense: 2
    cost: 3
units:
  - type: infantry
    side: offense
    count: 2
  - type: infantry
    side: defense
`

func TestParseConfigRequiresScenario(t *testing.T) {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected missing scenario error")
	}
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("WARFRONT_PREVIEW_SCENARIO", "env.yaml")
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Scenario != "env.yaml" {
		t.Fatalf("scenario = %q, want env.yaml", cfg.Scenario)
	}

	fs = flag.NewFlagSet("preview", flag.ContinueOnError)
	cfg, err = ParseConfig(fs, []string{"-scenario", "flag.yaml"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Scenario != "flag.yaml" {
		t.Fatalf("scenario = %q, want flag.yaml", cfg.Scenario)
	}
}

func TestRunPrintsPlan(t *testing.T) {
	t.Setenv("WARFRONT_OTEL_ENDPOINT", "")
	path := filepath.Join(t.TempDir(), "karelia.yaml")
	if err := os.WriteFile(path, []byte(landBattle), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	var out bytes.Buffer
	if err := Run(context.Background(), Config{Scenario: path}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if !strings.HasPrefix(got, "Karelia, round 1: 2 offense vs 1 defense\n") {
		t.Fatalf("output = %q", got)
	}
	fire := strings.Index(got, "offense.general.fire")
	end := strings.Index(got, "end_round")
	if fire < 0 || end < 0 || fire > end {
		t.Fatalf("output = %q, want general fire before end_round", got)
	}
	if strings.Contains(got, "bombard") {
		t.Fatalf("output = %q, want no bombardment without bombarding units", got)
	}
}

func TestRunRejectsInvalidScenario(t *testing.T) {
	t.Setenv("WARFRONT_OTEL_ENDPOINT", "")
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("site:\n  name: Nowhere\nunits:\n  - type: dragon\n    side: offense\n"), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	if err := Run(context.Background(), Config{Scenario: path}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected invalid scenario error")
	}
}
