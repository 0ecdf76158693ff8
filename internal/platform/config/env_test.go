package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type envTestConfig struct {
	MaxRounds int `env:"WARFRONT_TEST_MAX_ROUNDS" envDefault:"100"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.MaxRounds != 100 {
		t.Fatalf("expected default max rounds 100, got %d", cfg.MaxRounds)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("WARFRONT_TEST_MAX_ROUNDS", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadDotEnvSkipsMissingFiles(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")
	if err := LoadDotEnv(missing); err != nil {
		t.Fatalf("load missing env file: %v", err)
	}
}

func TestLoadDotEnvDoesNotOverrideExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battle.env")
	content := "WARFRONT_TEST_DOTENV_SEED=7\nWARFRONT_TEST_DOTENV_LOCALE=pt-BR\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("WARFRONT_TEST_DOTENV_SEED", "42")
	t.Setenv("WARFRONT_TEST_DOTENV_LOCALE", "")
	os.Unsetenv("WARFRONT_TEST_DOTENV_LOCALE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if got := os.Getenv("WARFRONT_TEST_DOTENV_SEED"); got != "42" {
		t.Fatalf("seed = %q, want %q", got, "42")
	}
	if got := os.Getenv("WARFRONT_TEST_DOTENV_LOCALE"); got != "pt-BR" {
		t.Fatalf("locale = %q, want %q", got, "pt-BR")
	}
}
