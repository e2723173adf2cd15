package normalize

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"scrape-aggregator/internal/adapter"
	"scrape-aggregator/internal/config"
	"scrape-aggregator/internal/currency"
)

func testNormalizer() *Normalizer {
	return New("USD", currency.NewStaticRates("USD", map[string]float64{
		"EUR": 1.1,
		"GBP": 1.25,
	}))
}

func rawRecord(fields map[string]string) adapter.RawRecord {
	return adapter.RawRecord{Source: "test-src", Fields: fields, FetchedAt: time.Now().UTC()}
}

func TestNormalize_MissingTitleRejected(t *testing.T) {
	n := testNormalizer()
	_, err := n.Normalize(rawRecord(map[string]string{
		"url": "https://example.com/x",
	}), config.SourceConfig{ID: "test-src"})

	var rej *RejectError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectError, got %v", err)
	}
	if !strings.Contains(rej.Reason, "title") {
		t.Fatalf("expected title in reason, got %q", rej.Reason)
	}
}

func TestNormalize_MissingURLRejected(t *testing.T) {
	n := testNormalizer()
	_, err := n.Normalize(rawRecord(map[string]string{
		"title": "Widget",
	}), config.SourceConfig{ID: "test-src"})

	var rej *RejectError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectError, got %v", err)
	}
}

func TestNormalize_FieldMapResolvesNativeKeys(t *testing.T) {
	n := testNormalizer()
	it, err := n.Normalize(rawRecord(map[string]string{
		"headline":   "Backend Engineer",
		"link":       "https://example.com/jobs/42",
		"listing_id": "42",
		"amount":     "100",
	}), config.SourceConfig{
		ID: "test-src",
		FieldMap: map[string]string{
			"title":       "headline",
			"url":         "link",
			"external_id": "listing_id",
			"price":       "amount",
		},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if it.Title != "Backend Engineer" || it.URL != "https://example.com/jobs/42" {
		t.Fatalf("field map not applied: %+v", it)
	}
	if it.ExternalID != "42" {
		t.Fatalf("expected external id 42, got %q", it.ExternalID)
	}
	if it.PriceAmount != 100 {
		t.Fatalf("expected price 100, got %v", it.PriceAmount)
	}
}

func TestNormalize_MissingExternalIDFallsBackToURLDigest(t *testing.T) {
	n := testNormalizer()
	fields := map[string]string{
		"title": "Widget",
		"url":   "https://example.com/items/widget",
	}
	a, err := n.Normalize(rawRecord(fields), config.SourceConfig{ID: "test-src"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	b, err := n.Normalize(rawRecord(fields), config.SourceConfig{ID: "test-src"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if !strings.HasPrefix(a.ExternalID, "urlsha1-") {
		t.Fatalf("expected digest external id, got %q", a.ExternalID)
	}
	if a.ExternalID != b.ExternalID {
		t.Fatalf("same url must yield same external id: %q vs %q", a.ExternalID, b.ExternalID)
	}
}

func TestNormalize_PriceConvertedToBaseCurrency(t *testing.T) {
	n := testNormalizer()
	it, err := n.Normalize(rawRecord(map[string]string{
		"title":    "Widget",
		"url":      "https://example.com/x",
		"price":    "€1,200.50",
		"currency": "EUR",
	}), config.SourceConfig{ID: "test-src"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if it.PriceCurrency != "USD" {
		t.Fatalf("expected USD, got %q", it.PriceCurrency)
	}
	if math.Abs(it.PriceAmount-1200.50*1.1) > 1e-9 {
		t.Fatalf("unexpected converted amount: %v", it.PriceAmount)
	}
}

func TestNormalize_UnknownCurrencyRejected(t *testing.T) {
	n := testNormalizer()
	_, err := n.Normalize(rawRecord(map[string]string{
		"title":    "Widget",
		"url":      "https://example.com/x",
		"price":    "500",
		"currency": "JPY",
	}), config.SourceConfig{ID: "test-src"})

	var rej *RejectError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectError, got %v", err)
	}
	if !strings.Contains(rej.Reason, "JPY") {
		t.Fatalf("expected currency in reason, got %q", rej.Reason)
	}
}

func TestNormalize_UnparsablePriceRejected(t *testing.T) {
	n := testNormalizer()
	_, err := n.Normalize(rawRecord(map[string]string{
		"title": "Widget",
		"url":   "https://example.com/x",
		"price": "call for price",
	}), config.SourceConfig{ID: "test-src"})

	var rej *RejectError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectError, got %v", err)
	}
}

func TestNormalize_EmptyPriceDefaultsToZeroBase(t *testing.T) {
	n := testNormalizer()
	it, err := n.Normalize(rawRecord(map[string]string{
		"title": "Widget",
		"url":   "https://example.com/x",
	}), config.SourceConfig{ID: "test-src"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if it.PriceAmount != 0 || it.PriceCurrency != "USD" {
		t.Fatalf("expected zero price in base currency, got %v %s", it.PriceAmount, it.PriceCurrency)
	}
}

func TestNormalize_SourceCurrencyUsedWhenFieldAbsent(t *testing.T) {
	n := testNormalizer()
	it, err := n.Normalize(rawRecord(map[string]string{
		"title": "Widget",
		"url":   "https://example.com/x",
		"price": "100",
	}), config.SourceConfig{ID: "test-src", Currency: "GBP"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if math.Abs(it.PriceAmount-125) > 1e-9 {
		t.Fatalf("expected 125, got %v", it.PriceAmount)
	}
}

func TestNormalize_CleansHTMLAndWhitespace(t *testing.T) {
	n := testNormalizer()
	it, err := n.Normalize(rawRecord(map[string]string{
		"title":       "  Senior   <b>Go</b>\n Engineer ",
		"url":         "https://example.com/x",
		"description": "<p>Build &amp; run <script>alert(1)</script>services</p>",
	}), config.SourceConfig{ID: "test-src"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if it.Title != "Senior Go Engineer" {
		t.Fatalf("unexpected title: %q", it.Title)
	}
	if strings.Contains(it.Description, "<") || strings.Contains(it.Description, "alert") {
		t.Fatalf("markup survived cleanup: %q", it.Description)
	}
	if !strings.Contains(it.Description, "Build & run") {
		t.Fatalf("entities not unescaped: %q", it.Description)
	}
}

func TestNormalize_TimestampLayouts(t *testing.T) {
	n := testNormalizer()
	cases := map[string]string{
		"2025-03-01T10:30:00Z": "2025-03-01T10:30:00Z",
		"2025-03-01":           "2025-03-01T00:00:00Z",
		"01/03/2025":           "2025-03-01T00:00:00Z",
		"Mar 1, 2025":          "2025-03-01T00:00:00Z",
	}
	for in, want := range cases {
		it, err := n.Normalize(rawRecord(map[string]string{
			"title":        "Widget",
			"url":          "https://example.com/x",
			"published_at": in,
		}), config.SourceConfig{ID: "test-src"})
		if err != nil {
			t.Fatalf("%s: unexpected err: %v", in, err)
		}
		if it.PublishedAt == nil {
			t.Fatalf("%s: expected parsed timestamp", in)
		}
		if got := it.PublishedAt.Format(time.RFC3339); got != want {
			t.Fatalf("%s: expected %s, got %s", in, want, got)
		}
	}
}

func TestNormalize_UnparsableTimestampDropped(t *testing.T) {
	n := testNormalizer()
	it, err := n.Normalize(rawRecord(map[string]string{
		"title":        "Widget",
		"url":          "https://example.com/x",
		"published_at": "yesterday-ish",
	}), config.SourceConfig{ID: "test-src"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if it.PublishedAt != nil {
		t.Fatalf("expected nil published_at, got %v", it.PublishedAt)
	}
}

func TestNormalize_UnconsumedFieldsKeptAsExtra(t *testing.T) {
	n := testNormalizer()
	it, err := n.Normalize(rawRecord(map[string]string{
		"headline":  "Widget",
		"url":       "https://example.com/x",
		"condition": "used",
		"seller":    "acme",
	}), config.SourceConfig{
		ID:       "test-src",
		FieldMap: map[string]string{"title": "headline"},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if it.Extra["condition"] != "used" || it.Extra["seller"] != "acme" {
		t.Fatalf("unexpected extra: %v", it.Extra)
	}
	if _, ok := it.Extra["headline"]; ok {
		t.Fatalf("mapped native key must not land in extra")
	}
	if _, ok := it.Extra["url"]; ok {
		t.Fatalf("consumed key must not land in extra")
	}
}
