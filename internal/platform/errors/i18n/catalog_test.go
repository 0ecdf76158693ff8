package i18n

import "testing"

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	if fallback := GetCatalog("missing-locale"); fallback != base {
		t.Fatal("expected fallback to en-US catalog")
	}
	if empty := GetCatalog(""); empty != base {
		t.Fatal("expected empty locale to resolve to en-US")
	}
}

func TestGetCatalogMatchesRegionalVariant(t *testing.T) {
	if got := GetCatalog("pt").Locale(); got != "pt-BR" {
		t.Fatalf("locale = %q, want %q", got, "pt-BR")
	}
	if got := GetCatalog("en-GB").Locale(); got != "en-US" {
		t.Fatalf("locale = %q, want %q", got, "en-US")
	}
}

func TestFormatLocalized(t *testing.T) {
	meta := map[string]string{"BattleID": "b1"}
	if got := GetCatalog("pt-BR").Format(CodeBattleOver, meta); got != "A batalha b1 já terminou." {
		t.Fatalf("format = %q", got)
	}
	if got := GetCatalog("en-US").Format(CodeBattleOver, meta); got != "Battle b1 is already over." {
		t.Fatalf("format = %q", got)
	}
}

func TestFormatFallsBackToBaseLocale(t *testing.T) {
	if got := GetCatalog("pt-BR").Format(CodeDiceInvalidSpec, nil); got != "Invalid dice request." {
		t.Fatalf("format = %q, want base locale message", got)
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog(BaseLocale, map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if cat.Format("code", nil) != "hello <no value>" {
		t.Fatal("expected template to render missing metadata")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog(BaseLocale, map[Code]string{
		"code": "{{ if .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ if .Name }}" {
		t.Fatal("expected template fallback on parse error")
	}
}

func TestRegisterCatalog(t *testing.T) {
	custom := NewCatalog("custom", map[Code]string{"code": "ok"})
	RegisterCatalog("custom", custom)
	if got := GetCatalog("custom"); got != custom {
		t.Fatal("expected registered catalog")
	}
}
