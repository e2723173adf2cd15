package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

type itemSearchCacheKeyInput struct {
	Source   string     `json:"source"`
	SeenFrom *time.Time `json:"seen_from"`
	SeenTo   *time.Time `json:"seen_to"`
	MinPrice *float64   `json:"min_price"`
	MaxPrice *float64   `json:"max_price"`
	Query    string     `json:"query"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

func normalizeSearchValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

func ItemsSearchCacheKey(params ItemListParams) string {
	in := itemSearchCacheKeyInput{
		Source:   normalizeSearchValue(params.Source),
		SeenFrom: params.SeenFrom,
		SeenTo:   params.SeenTo,
		MinPrice: params.MinPrice,
		MaxPrice: params.MaxPrice,
		Query:    normalizeSearchValue(params.Query),
		Limit:    params.Limit,
		Offset:   params.Offset,
	}

	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return "items:search:" + hex.EncodeToString(sum[:])
}
