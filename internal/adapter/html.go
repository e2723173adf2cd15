package adapter

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"scrape-aggregator/internal/config"

	"github.com/gocolly/colly/v2"
)

// HTMLAdapter walks server-rendered listing pages with colly. Each element
// matching the configured item selector becomes one raw record; the fields
// come from conventional child selectors and data attributes.
type HTMLAdapter struct {
	cfg         config.SourceConfig
	allowedHost string
	logger      *log.Logger
}

func NewHTMLAdapter(cfg config.SourceConfig, logger *log.Logger) *HTMLAdapter {
	if logger == nil {
		logger = log.Default()
	}
	return &HTMLAdapter{
		cfg:         cfg,
		allowedHost: hostFromBaseURL(cfg.BaseURL),
		logger:      logger,
	}
}

func (a *HTMLAdapter) Source() string {
	return a.cfg.ID
}

func (a *HTMLAdapter) Fetch(ctx context.Context, emit func(RawRecord)) error {
	if a == nil || emit == nil {
		return fmt.Errorf("nil adapter/emit")
	}

	selector := strings.TrimSpace(a.cfg.ItemSelector)
	if selector == "" {
		selector = "div.listing"
	}
	base := strings.TrimRight(strings.TrimSpace(a.cfg.BaseURL), "/")

	for page := 1; page <= a.cfg.Pages; page++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		pageURL := fmt.Sprintf("%s/listings?page=%d", base, page)
		records, err := a.scrapeListingPage(ctx, pageURL, selector)
		if err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		if len(records) == 0 {
			break
		}
		for _, rec := range records {
			emit(rec)
		}
	}
	return nil
}

func (a *HTMLAdapter) scrapeListingPage(ctx context.Context, pageURL string, selector string) ([]RawRecord, error) {
	c := colly.NewCollector(
		colly.AllowedDomains(a.allowedHost),
	)
	// Visit does not take the context, so the cancellation budget has to be
	// pushed down as a request timeout or a dead upstream wedges the fetch.
	timeout := 25 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem < timeout {
			timeout = rem
		}
	}
	if timeout <= 0 {
		return nil, ctx.Err()
	}
	c.SetRequestTimeout(timeout)

	delay := paceInterval(a.cfg.RatePerSecond)
	if delay > 0 {
		_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 1, Delay: delay})
	}

	records := make([]RawRecord, 0)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "ScrapeAggregator/0.1")
	})

	c.OnHTML(selector, func(e *colly.HTMLElement) {
		href := strings.TrimSpace(e.ChildAttr("a", "href"))
		if href == "" {
			return
		}
		abs := e.Request.AbsoluteURL(href)
		if abs == "" {
			return
		}

		fields := map[string]string{
			"url":          abs,
			"external_id":  firstNonEmpty(e.Attr("data-id"), externalIDFromURL(abs)),
			"title":        strings.TrimSpace(firstNonEmpty(e.ChildText(".title"), e.ChildText("a"))),
			"description":  strings.TrimSpace(e.ChildText(".description")),
			"price":        strings.TrimSpace(e.ChildText(".price")),
			"currency":     strings.TrimSpace(firstNonEmpty(e.Attr("data-currency"), e.ChildText(".currency"))),
			"location":     strings.TrimSpace(e.ChildText(".location")),
			"published_at": strings.TrimSpace(firstNonEmpty(e.Attr("data-published"), e.ChildAttr("time", "datetime"))),
		}
		for k, v := range fields {
			if v == "" {
				delete(fields, k)
			}
		}
		records = append(records, newRawRecord(a.cfg.ID, fields))
	})

	var reqErr error
	c.OnError(func(r *colly.Response, err error) {
		reqErr = err
	})

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := c.Visit(pageURL); err != nil {
		return nil, err
	}
	c.Wait()
	if reqErr != nil {
		return nil, reqErr
	}
	return records, nil
}

func firstNonEmpty(a, b string) string {
	a = strings.TrimSpace(a)
	if a != "" {
		return a
	}
	return strings.TrimSpace(b)
}
