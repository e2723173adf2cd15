package adapter

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"scrape-aggregator/internal/config"
)

// RawRecord is an as-fetched, source-native representation of one item: an
// opaque field bag plus the source id and fetch time. It is immutable once
// emitted.
type RawRecord struct {
	Source    string
	Fields    map[string]string
	FetchedAt time.Time
}

// Adapter produces a finite, non-restartable sequence of raw records for one
// source by calling emit for each. Records already emitted stay delivered
// when Fetch later returns an error; the adapter never rolls back a partial
// yield. Adapters know nothing about normalization or storage.
type Adapter interface {
	Source() string
	Fetch(ctx context.Context, emit func(RawRecord)) error
}

// NewFromConfig builds the adapter variant named by the source's kind.
func NewFromConfig(cfg config.SourceConfig, logger *log.Logger) (Adapter, error) {
	switch strings.TrimSpace(cfg.Kind) {
	case "listing_api":
		return NewListingAPIAdapter(cfg, logger), nil
	case "html":
		return NewHTMLAdapter(cfg, logger), nil
	case "headless":
		return NewHeadlessAdapter(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown adapter kind: %s", cfg.Kind)
	}
}

func newRawRecord(source string, fields map[string]string) RawRecord {
	return RawRecord{Source: source, Fields: fields, FetchedAt: time.Now().UTC()}
}
