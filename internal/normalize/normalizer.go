package normalize

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"scrape-aggregator/internal/adapter"
	"scrape-aggregator/internal/config"
	"scrape-aggregator/internal/currency"
	"scrape-aggregator/internal/domain/item"

	"github.com/microcosm-cc/bluemonday"
)

// RejectError marks a record that cannot become a canonical item. Rejections
// are counted by the caller and never abort a source's pipeline.
type RejectError struct {
	Reason string
}

func (e *RejectError) Error() string {
	return "record rejected: " + e.Reason
}

func reject(format string, args ...any) error {
	return &RejectError{Reason: fmt.Sprintf(format, args...)}
}

// canonical field names the normalizer consumes from a raw record. A
// source's field_map points each of these at the source's native key.
var canonicalFields = []string{
	"external_id", "title", "url", "description",
	"price", "currency", "published_at", "location",
}

type Normalizer struct {
	baseCurrency string
	rates        currency.RateLookup
	policy       *bluemonday.Policy
}

func New(baseCurrency string, rates currency.RateLookup) *Normalizer {
	return &Normalizer{
		baseCurrency: strings.ToUpper(strings.TrimSpace(baseCurrency)),
		rates:        rates,
		policy:       bluemonday.StrictPolicy(),
	}
}

// Normalize maps one raw record into a canonical item or rejects it. Title
// and url are mandatory; a price with no known conversion rate to the base
// currency rejects the record rather than guessing.
func (n *Normalizer) Normalize(raw adapter.RawRecord, cfg config.SourceConfig) (item.Item, error) {
	if n == nil {
		return item.Item{}, fmt.Errorf("nil normalizer")
	}

	get := func(key string) string {
		native := key
		if cfg.FieldMap != nil {
			if mapped, ok := cfg.FieldMap[key]; ok && strings.TrimSpace(mapped) != "" {
				native = mapped
			}
		}
		return strings.TrimSpace(raw.Fields[native])
	}

	title := n.cleanText(get("title"))
	if title == "" {
		return item.Item{}, reject("missing title")
	}
	url := get("url")
	if url == "" {
		return item.Item{}, reject("missing url")
	}

	externalID := get("external_id")
	if externalID == "" {
		externalID = stableExternalIDFromURL(url)
	}

	amount, cur, err := n.normalizePrice(get("price"), get("currency"), cfg)
	if err != nil {
		return item.Item{}, err
	}

	out := item.Item{
		Source:        raw.Source,
		ExternalID:    externalID,
		Title:         title,
		URL:           url,
		Description:   n.cleanText(get("description")),
		PriceAmount:   amount,
		PriceCurrency: cur,
		PublishedAt:   parseTimestamp(get("published_at")),
		Location:      n.cleanText(get("location")),
		Extra:         n.extraFields(raw, cfg),
	}
	return out, nil
}

func (n *Normalizer) normalizePrice(rawPrice, rawCurrency string, cfg config.SourceConfig) (float64, string, error) {
	if rawPrice == "" {
		return 0, n.baseCurrency, nil
	}

	amount, err := parseAmount(rawPrice)
	if err != nil {
		return 0, "", reject("unparsable price %q", rawPrice)
	}

	cur := strings.ToUpper(rawCurrency)
	if cur == "" {
		cur = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	}
	if cur == "" {
		cur = n.baseCurrency
	}

	rate, ok := n.rates.Rate(cur, n.baseCurrency)
	if !ok {
		return 0, "", reject("no conversion rate %s->%s", cur, n.baseCurrency)
	}
	return amount * rate, n.baseCurrency, nil
}

// extraFields keeps the raw keys the canonical mapping did not consume, so
// source-specific metadata survives normalization.
func (n *Normalizer) extraFields(raw adapter.RawRecord, cfg config.SourceConfig) map[string]string {
	consumed := map[string]struct{}{}
	for _, key := range canonicalFields {
		native := key
		if cfg.FieldMap != nil {
			if mapped, ok := cfg.FieldMap[key]; ok && strings.TrimSpace(mapped) != "" {
				native = mapped
			}
		}
		consumed[native] = struct{}{}
	}

	var extra map[string]string
	for k, v := range raw.Fields {
		if _, ok := consumed[k]; ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if extra == nil {
			extra = map[string]string{}
		}
		extra[k] = v
	}
	return extra
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func (n *Normalizer) cleanText(s string) string {
	if s == "" {
		return ""
	}
	s = n.policy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

var amountRe = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

func parseAmount(s string) (float64, error) {
	m := amountRe.FindString(s)
	if m == "" {
		return 0, fmt.Errorf("no numeric amount in %q", s)
	}
	m = strings.ReplaceAll(m, ",", "")
	return strconv.ParseFloat(m, 64)
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"Jan 2, 2006",
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func stableExternalIDFromURL(u string) string {
	h := sha1.Sum([]byte(strings.TrimSpace(u)))
	return "urlsha1-" + hex.EncodeToString(h[:])
}
