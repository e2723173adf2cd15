package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ScrapeConfig is the full per-run configuration: global limits, the base
// currency every price is converted to, the conversion rate table and the
// enumerated source definitions.
type ScrapeConfig struct {
	BaseCurrency  string             `yaml:"base_currency"`
	Workers       int                `yaml:"workers"`
	GlobalTimeout time.Duration      `yaml:"global_timeout"`
	SourceTimeout time.Duration      `yaml:"source_timeout"`
	Rates         map[string]float64 `yaml:"rates"`
	Sources       []SourceConfig     `yaml:"sources"`
}

// SourceConfig describes one external source. Kind selects the adapter
// variant; FieldMap maps canonical field names to the source's native keys.
type SourceConfig struct {
	ID            string            `yaml:"id"`
	Name          string            `yaml:"name"`
	Kind          string            `yaml:"kind"`
	BaseURL       string            `yaml:"base_url"`
	Enabled       bool              `yaml:"enabled"`
	Pages         int               `yaml:"pages"`
	RatePerSecond int               `yaml:"rate_per_second"`
	Timeout       time.Duration     `yaml:"timeout"`
	Currency      string            `yaml:"currency"`
	FieldMap      map[string]string `yaml:"field_map"`
	ItemSelector  string            `yaml:"item_selector"`
	APIKey        string            `yaml:"api_key"`
}

func LoadScrapeConfig(path string) (ScrapeConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ScrapeConfig{}, err
	}
	var sc ScrapeConfig
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return ScrapeConfig{}, err
	}
	return sc.withDefaults(), sc.validate()
}

func (sc ScrapeConfig) withDefaults() ScrapeConfig {
	if strings.TrimSpace(sc.BaseCurrency) == "" {
		sc.BaseCurrency = "USD"
	}
	sc.BaseCurrency = strings.ToUpper(strings.TrimSpace(sc.BaseCurrency))
	if sc.Workers <= 0 {
		sc.Workers = 4
	}
	if sc.GlobalTimeout <= 0 {
		sc.GlobalTimeout = 10 * time.Minute
	}
	if sc.SourceTimeout <= 0 {
		sc.SourceTimeout = 2 * time.Minute
	}
	for i := range sc.Sources {
		if sc.Sources[i].Timeout <= 0 {
			sc.Sources[i].Timeout = sc.SourceTimeout
		}
		if sc.Sources[i].Pages <= 0 {
			sc.Sources[i].Pages = 1
		}
	}
	return sc
}

func (sc ScrapeConfig) validate() error {
	seen := map[string]struct{}{}
	for _, s := range sc.Sources {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return fmt.Errorf("source with empty id")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate source id: %s", id)
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(s.Kind) == "" {
			return fmt.Errorf("source %s: empty kind", id)
		}
	}
	return nil
}

// SourceByID returns the configuration for one source id.
func (sc ScrapeConfig) SourceByID(id string) (SourceConfig, bool) {
	id = strings.TrimSpace(id)
	for _, s := range sc.Sources {
		if s.ID == id {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// EnabledSources filters the configured sources down to the enabled ones,
// optionally restricted to an include set of ids.
func (sc ScrapeConfig) EnabledSources(include []string) []SourceConfig {
	want := map[string]struct{}{}
	for _, id := range include {
		id = strings.TrimSpace(id)
		if id != "" {
			want[id] = struct{}{}
		}
	}

	out := make([]SourceConfig, 0, len(sc.Sources))
	for _, s := range sc.Sources {
		if !s.Enabled {
			continue
		}
		if len(want) > 0 {
			if _, ok := want[s.ID]; !ok {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}
