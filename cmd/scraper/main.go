package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"scrape-aggregator/internal/app"
	"scrape-aggregator/internal/config"
	"scrape-aggregator/internal/currency"
	"scrape-aggregator/internal/database/migration"
	"scrape-aggregator/internal/database/seeder"
	"scrape-aggregator/internal/normalize"
	"scrape-aggregator/internal/orchestrator"
	"scrape-aggregator/internal/repository"
)

// The external scheduler invokes this binary for a "run now". It prints the
// scrape job id; run progress is polled through the read API.
func main() {
	sourcesFlag := flag.String("sources", "", "comma-separated source ids to include (default: all enabled)")
	timeout := flag.Duration("timeout", 0, "override the global run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *timeout > 0 {
		cfg.Scrape.GlobalTimeout = *timeout
	}

	c, err := app.NewContainer(cfg)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	migCtx, migCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer migCancel()
	r := migration.Runner{Dir: "migrations"}
	if err := r.Run(migCtx, c.DB.SQLDB()); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := (seeder.Runner{Seeders: seeder.Defaults(cfg)}).Run(migCtx, c.DB); err != nil {
		log.Fatalf("seed failed: %v", err)
	}

	include := splitSources(*sourcesFlag)

	norm := normalize.New(cfg.Scrape.BaseCurrency, currency.NewStaticRates(cfg.Scrape.BaseCurrency, cfg.Scrape.Rates))
	orch := orchestrator.New(
		cfg.Scrape,
		repository.NewPostgresItemRepository(c.DB),
		repository.NewPostgresScrapeJobRepository(c.DB),
		norm,
		nil,
		log.Default(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Scrape.GlobalTimeout+time.Minute)
	defer cancel()

	job, err := orch.Run(ctx, include)
	if err != nil {
		if errors.Is(err, orchestrator.ErrNoSources) {
			log.Fatalf("no enabled sources to scrape")
		}
		log.Fatalf("run failed: %v", err)
	}

	fmt.Println(job.ID)
	log.Printf("run %s finished status=%s seen=%d new=%d updated=%d failed=%d",
		job.ID, job.Status, job.ItemsSeen, job.ItemsNew, job.ItemsUpdated, job.ItemsFailed)
}

func splitSources(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
