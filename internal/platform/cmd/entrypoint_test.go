package cmd

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	DBPath string `env:"CMD_TEST_DB_PATH" envDefault:"data/battles.db"`
	Locale string `env:"CMD_TEST_LOCALE" envDefault:"en-US"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_DB_PATH", "env.db")
	t.Setenv("CMD_TEST_LOCALE", "pt-BR")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfgRef := testConfig{}
	if err := ParseConfig(&cfgRef); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfgRef.DBPath, "db", cfgRef.DBPath, "db path")
	fs.StringVar(&cfgRef.Locale, "locale", cfgRef.Locale, "locale")

	if err := ParseArgs(fs, []string{"-db", "flag.db"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfgRef.DBPath != "flag.db" {
		t.Fatalf("expected flag value for db path, got %q", cfgRef.DBPath)
	}
	if cfgRef.Locale != "pt-BR" {
		t.Fatalf("expected env locale, got %q", cfgRef.Locale)
	}
}

func TestParseConfigFromArgsReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_DB_PATH", "configarg.db")
	t.Setenv("CMD_TEST_LOCALE", "en-GB")

	cfgRef := testConfig{}
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfgRef.DBPath, "db", "", "db path")
	fs.StringVar(&cfgRef.Locale, "locale", "", "locale")
	if err := ParseConfigFromArgs(&cfgRef, fs, []string{"-db", "flag2.db"}); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfgRef.DBPath != "flag2.db" {
		t.Fatalf("expected parsed flag db path, got %q", cfgRef.DBPath)
	}
	if cfgRef.Locale != "en-GB" {
		t.Fatalf("expected env locale, got %q", cfgRef.Locale)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil target error")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestBootstrapLoadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CMD_TEST_BOOTSTRAP=yes\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("CMD_TEST_BOOTSTRAP", "")
	os.Unsetenv("CMD_TEST_BOOTSTRAP")

	if err := Bootstrap(RunOptions{DotEnvPaths: []string{path}}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if got := os.Getenv("CMD_TEST_BOOTSTRAP"); got != "yes" {
		t.Fatalf("CMD_TEST_BOOTSTRAP = %q, want %q", got, "yes")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceBattle, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("WARFRONT_OTEL_ENDPOINT", "")
	want := errors.New("boom")
	err := RunWithTelemetry(context.Background(), ServicePreview, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}
}
