package adapter

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"scrape-aggregator/internal/config"

	"github.com/chromedp/chromedp"
)

// HeadlessAdapter drives a headless browser for sources that render their
// listings with client-side scripts. Item cards are read out of the DOM once
// the page settles.
type HeadlessAdapter struct {
	cfg    config.SourceConfig
	logger *log.Logger
}

func NewHeadlessAdapter(cfg config.SourceConfig, logger *log.Logger) *HeadlessAdapter {
	if logger == nil {
		logger = log.Default()
	}
	return &HeadlessAdapter{cfg: cfg, logger: logger}
}

func (a *HeadlessAdapter) Source() string {
	return a.cfg.ID
}

func (a *HeadlessAdapter) Fetch(ctx context.Context, emit func(RawRecord)) error {
	if a == nil || emit == nil {
		return fmt.Errorf("nil adapter/emit")
	}

	base := strings.TrimRight(strings.TrimSpace(a.cfg.BaseURL), "/")

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"),
		)...,
	)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	selector := strings.TrimSpace(a.cfg.ItemSelector)
	if selector == "" {
		selector = "div.listing"
	}

	for page := 1; page <= a.cfg.Pages; page++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		pageURL := fmt.Sprintf("%s/listings?page=%d", base, page)
		cards, err := a.fetchPage(browserCtx, pageURL, selector)
		if err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		if len(cards) == 0 {
			break
		}
		for _, fields := range cards {
			if u, ok := fields["url"]; ok {
				if _, has := fields["external_id"]; !has {
					fields["external_id"] = externalIDFromURL(u)
				}
			}
			emit(newRawRecord(a.cfg.ID, fields))
		}
	}
	return nil
}

func (a *HeadlessAdapter) fetchPage(browserCtx context.Context, pageURL string, selector string) ([]map[string]string, error) {
	reqCtx, cancel := context.WithTimeout(browserCtx, 25*time.Second)
	defer cancel()

	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(el => {
		const pick = sel => { const n = el.querySelector(sel); return n ? n.textContent.trim() : ""; };
		const link = el.querySelector('a[href]');
		return {
			url: link ? link.href : "",
			external_id: el.getAttribute('data-id') || "",
			title: pick('.title') || (link ? link.textContent.trim() : ""),
			description: pick('.description'),
			price: pick('.price'),
			currency: el.getAttribute('data-currency') || pick('.currency'),
			location: pick('.location'),
			published_at: el.getAttribute('data-published') || ""
		};
	})`, selector)

	var cards []map[string]string
	err := chromedp.Run(reqCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.EvaluateAsDevTools(js, &cards),
	)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]string, 0, len(cards))
	for _, c := range cards {
		fields := make(map[string]string, len(c))
		for k, v := range c {
			v = strings.TrimSpace(v)
			if v != "" {
				fields[k] = v
			}
		}
		if fields["url"] == "" {
			continue
		}
		out = append(out, fields)
	}
	return out, nil
}
