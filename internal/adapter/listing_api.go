package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"scrape-aggregator/internal/config"
)

// ListingAPIAdapter pages through a JSON listing endpoint
// ({base}/api/listings?page=N) and emits one raw record per returned object,
// field names exactly as the source serves them.
type ListingAPIAdapter struct {
	cfg    config.SourceConfig
	client *http.Client
	logger *log.Logger
}

func NewListingAPIAdapter(cfg config.SourceConfig, logger *log.Logger) *ListingAPIAdapter {
	if logger == nil {
		logger = log.Default()
	}
	return &ListingAPIAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 25 * time.Second},
		logger: logger,
	}
}

func (a *ListingAPIAdapter) Source() string {
	return a.cfg.ID
}

func (a *ListingAPIAdapter) Fetch(ctx context.Context, emit func(RawRecord)) error {
	if a == nil || emit == nil {
		return fmt.Errorf("nil adapter/emit")
	}

	pace := paceInterval(a.cfg.RatePerSecond)
	base := strings.TrimRight(strings.TrimSpace(a.cfg.BaseURL), "/")

	for page := 1; page <= a.cfg.Pages; page++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		url := fmt.Sprintf("%s/api/listings?page=%d", base, page)
		body, err := httpGetWithRetry(ctx, a.client, url, a.cfg.APIKey, 3)
		if err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}

		var objs []map[string]any
		if err := json.Unmarshal(body, &objs); err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		if len(objs) == 0 {
			break
		}

		for _, obj := range objs {
			emit(newRawRecord(a.cfg.ID, stringifyFields(obj)))
		}

		if pace > 0 && page < a.cfg.Pages {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pace):
			}
		}
	}
	return nil
}

func stringifyFields(obj map[string]any) map[string]string {
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(t)
		default:
			b, err := json.Marshal(t)
			if err != nil {
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}
