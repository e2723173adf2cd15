package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"

	"scrape-aggregator/internal/adapter"
	"scrape-aggregator/internal/config"
	"scrape-aggregator/internal/domain/scrape"
	"scrape-aggregator/internal/normalize"
	"scrape-aggregator/internal/repository"
)

// ErrNoSources aborts a run before any job row exists: a run with zero
// enabled sources is a configuration failure, not a failed job.
var ErrNoSources = errors.New("no enabled sources")

// maxPersistFailures caps how many store errors one source may hit before
// the rest of its fetch is abandoned.
const maxPersistFailures = 3

// AdapterFactory builds the adapter for one configured source.
type AdapterFactory func(cfg config.SourceConfig, logger *log.Logger) (adapter.Adapter, error)

// Orchestrator drives one run: fan out a pipeline per enabled source, funnel
// records through the normalizer into the store, reduce the per-source
// outcomes into the job's terminal state.
type Orchestrator struct {
	cfg        config.ScrapeConfig
	items      repository.ItemRepository
	jobs       repository.ScrapeJobRepository
	norm       *normalize.Normalizer
	newAdapter AdapterFactory
	logger     *log.Logger
}

func New(
	cfg config.ScrapeConfig,
	items repository.ItemRepository,
	jobs repository.ScrapeJobRepository,
	norm *normalize.Normalizer,
	factory AdapterFactory,
	logger *log.Logger,
) *Orchestrator {
	if factory == nil {
		factory = adapter.NewFromConfig
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		cfg:        cfg,
		items:      items,
		jobs:       jobs,
		norm:       norm,
		newAdapter: factory,
		logger:     logger,
	}
}

// Run executes one scrape run over the enabled sources, optionally narrowed
// to the include set, and returns the finished job.
func (o *Orchestrator) Run(ctx context.Context, include []string) (scrape.Job, error) {
	sources := o.cfg.EnabledSources(include)
	if len(sources) == 0 {
		return scrape.Job{}, ErrNoSources
	}

	ids := make([]string, 0, len(sources))
	for _, s := range sources {
		ids = append(ids, s.ID)
	}

	job := scrape.NewJob(ids)
	if err := o.jobs.Create(ctx, job); err != nil {
		return scrape.Job{}, fmt.Errorf("create job: %w", err)
	}
	o.logger.Printf("[Scrape] run %s started sources=%v", job.ID, ids)

	runCtx, cancel := context.WithTimeout(ctx, o.cfg.GlobalTimeout)
	defer cancel()

	pool := NewWorkerPool(o.cfg.Workers, len(sources))
	results := pool.Run(runCtx)
	go func() {
		for range results {
		}
	}()

	// buffered to len(sources) so a pipeline that reports after the run gave
	// up on it can never block
	outcomeCh := make(chan scrape.Outcome, len(sources))

	for _, src := range sources {
		src := src
		pool.Submit(func(ctx context.Context) error {
			outcomeCh <- o.runSource(ctx, src)
			return nil
		})
	}
	pool.Close()

	reported := map[string]struct{}{}
	outcomes := make([]scrape.Outcome, 0, len(sources))
collect:
	for range sources {
		select {
		case oc := <-outcomeCh:
			reported[oc.Source] = struct{}{}
			outcomes = append(outcomes, oc)
		case <-runCtx.Done():
			// an adapter ignoring cancellation must not keep the job row
			// running past the global timeout
			break collect
		}
	}
drain:
	for {
		select {
		case oc := <-outcomeCh:
			reported[oc.Source] = struct{}{}
			outcomes = append(outcomes, oc)
		default:
			break drain
		}
	}
	// sources the global timeout cut off before their pipeline reported
	for _, src := range sources {
		if _, ok := reported[src.ID]; !ok {
			outcomes = append(outcomes, scrape.Outcome{
				Source:   src.ID,
				FatalErr: fmt.Errorf("run timeout before source finished"),
			})
		}
	}

	job = job.Reduce(outcomes)
	if err := o.jobs.Finish(ctx, job); err != nil {
		return job, fmt.Errorf("finish job: %w", err)
	}
	o.logger.Printf("[Scrape] run %s %s seen=%d new=%d updated=%d failed=%d",
		job.ID, job.Status, job.ItemsSeen, job.ItemsNew, job.ItemsUpdated, job.ItemsFailed)
	return job, nil
}

// runSource is one source's sequential fetch-normalize-upsert pipeline. Its
// failures stay inside the returned outcome; nothing here can abort a
// sibling source.
func (o *Orchestrator) runSource(ctx context.Context, src config.SourceConfig) (out scrape.Outcome) {
	out.Source = src.ID

	defer func() {
		if r := recover(); r != nil {
			out.FatalErr = fmt.Errorf("panic: %v", r)
		}
	}()

	ad, err := o.newAdapter(src, o.logger)
	if err != nil {
		out.FatalErr = fmt.Errorf("configuration: %w", err)
		return out
	}

	srcCtx, cancel := context.WithTimeout(ctx, src.Timeout)
	defer cancel()

	persistFailures := 0
	var persistErr error

	fetchErr := ad.Fetch(srcCtx, func(raw adapter.RawRecord) {
		out.ItemsSeen++

		it, err := o.norm.Normalize(raw, src)
		if err != nil {
			out.ItemsFailed++
			var rej *normalize.RejectError
			if errors.As(err, &rej) {
				o.logger.Printf("[Scrape] %s: %s", src.ID, rej.Reason)
			} else {
				o.logger.Printf("[Scrape] %s: normalize: %v", src.ID, err)
			}
			return
		}

		res, itemID, err := o.items.Upsert(srcCtx, it)
		if err != nil {
			persistFailures++
			persistErr = err
			o.logger.Printf("[Scrape] %s: upsert %s: %v", src.ID, it.ExternalID, err)
			if persistFailures >= maxPersistFailures {
				cancel()
			}
			return
		}
		switch res {
		case repository.UpsertInserted:
			out.ItemsNew++
		case repository.UpsertUpdated:
			out.ItemsUpdated++
		}

		// audit only; its failure never fails the upsert
		if err := o.items.RecordRaw(srcCtx, raw, &itemID); err != nil {
			o.logger.Printf("[Scrape] %s: record raw: %v", src.ID, err)
		}
	})

	switch {
	case persistFailures >= maxPersistFailures:
		out.FatalErr = fmt.Errorf("persistence failures: %w", persistErr)
	case persistErr != nil:
		out.FatalErr = fmt.Errorf("persistence failure: %w", persistErr)
	case fetchErr != nil:
		out.FatalErr = fetchErr
	}
	return out
}
