package seeder

import (
	"context"
	"fmt"
	"strings"

	"scrape-aggregator/internal/config"
	"scrape-aggregator/internal/database"
)

// SourcesSeeder registers the configured sources. The enabled flag is only
// written on first insert; after that it belongs to the administrator.
type SourcesSeeder struct {
	Scrape config.ScrapeConfig
}

func (SourcesSeeder) Name() string { return "sources" }

func (s SourcesSeeder) Run(ctx context.Context, db database.DB) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	for _, src := range s.Scrape.Sources {
		id := strings.TrimSpace(src.ID)
		if id == "" {
			continue
		}
		name := strings.TrimSpace(src.Name)
		if name == "" {
			name = id
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO sources (id, name, kind, enabled) VALUES ($1,$2,$3,$4)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, kind = EXCLUDED.kind`,
			id, name, strings.TrimSpace(src.Kind), src.Enabled,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func Defaults(cfg config.Config) []Seeder {
	return []Seeder{
		SourcesSeeder{Scrape: cfg.Scrape},
	}
}
