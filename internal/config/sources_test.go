package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadScrapeConfig_DefaultsApplied(t *testing.T) {
	path := writeSourcesFile(t, `
sources:
  - id: a
    name: Source A
    kind: listing_api
    base_url: https://a.example
    enabled: true
`)
	sc, err := LoadScrapeConfig(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sc.BaseCurrency != "USD" {
		t.Fatalf("expected USD default, got %q", sc.BaseCurrency)
	}
	if sc.Workers != 4 {
		t.Fatalf("expected 4 workers, got %d", sc.Workers)
	}
	if sc.GlobalTimeout != 10*time.Minute || sc.SourceTimeout != 2*time.Minute {
		t.Fatalf("unexpected timeouts: %v / %v", sc.GlobalTimeout, sc.SourceTimeout)
	}
	if sc.Sources[0].Timeout != 2*time.Minute {
		t.Fatalf("source must inherit the default timeout, got %v", sc.Sources[0].Timeout)
	}
	if sc.Sources[0].Pages != 1 {
		t.Fatalf("expected 1 page default, got %d", sc.Sources[0].Pages)
	}
}

func TestLoadScrapeConfig_FullDocument(t *testing.T) {
	path := writeSourcesFile(t, `
base_currency: usd
workers: 8
global_timeout: 5m
source_timeout: 90s
rates:
  EUR: 1.1
sources:
  - id: a
    kind: html
    base_url: https://a.example
    enabled: true
    pages: 3
    timeout: 45s
    currency: EUR
    item_selector: article.card
    field_map:
      title: headline
`)
	sc, err := LoadScrapeConfig(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sc.BaseCurrency != "USD" {
		t.Fatalf("base currency must be uppercased, got %q", sc.BaseCurrency)
	}
	if sc.Rates["EUR"] != 1.1 {
		t.Fatalf("unexpected rates: %v", sc.Rates)
	}
	src, ok := sc.SourceByID("a")
	if !ok {
		t.Fatalf("expected source a")
	}
	if src.Timeout != 45*time.Second || src.Pages != 3 {
		t.Fatalf("explicit values must survive defaults: %+v", src)
	}
	if src.FieldMap["title"] != "headline" {
		t.Fatalf("unexpected field map: %v", src.FieldMap)
	}
}

func TestLoadScrapeConfig_DuplicateID(t *testing.T) {
	path := writeSourcesFile(t, `
sources:
  - id: a
    kind: html
  - id: a
    kind: listing_api
`)
	if _, err := LoadScrapeConfig(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestLoadScrapeConfig_EmptyKind(t *testing.T) {
	path := writeSourcesFile(t, `
sources:
  - id: a
`)
	if _, err := LoadScrapeConfig(path); err == nil {
		t.Fatalf("expected empty kind error")
	}
}

func TestEnabledSources_FiltersAndNarrows(t *testing.T) {
	sc := ScrapeConfig{Sources: []SourceConfig{
		{ID: "a", Kind: "html", Enabled: true},
		{ID: "b", Kind: "html", Enabled: false},
		{ID: "c", Kind: "html", Enabled: true},
	}}

	all := sc.EnabledSources(nil)
	if len(all) != 2 {
		t.Fatalf("expected 2 enabled sources, got %d", len(all))
	}

	narrowed := sc.EnabledSources([]string{"c"})
	if len(narrowed) != 1 || narrowed[0].ID != "c" {
		t.Fatalf("unexpected narrowing: %v", narrowed)
	}

	// an include naming a disabled source does not re-enable it
	disabled := sc.EnabledSources([]string{"b"})
	if len(disabled) != 0 {
		t.Fatalf("disabled source must stay excluded, got %v", disabled)
	}
}
