package currency

import "strings"

// RateLookup resolves a conversion rate between two currency codes. The
// second return is false when no rate is known; callers treat that as a
// hard stop for the record, never as rate 1.
type RateLookup interface {
	Rate(from, to string) (float64, bool)
}

// StaticRates is a rate table loaded from configuration, expressed as units
// of the base currency per one unit of the keyed currency.
type StaticRates struct {
	Base  string
	Rates map[string]float64
}

func NewStaticRates(base string, rates map[string]float64) StaticRates {
	norm := make(map[string]float64, len(rates))
	for k, v := range rates {
		if v <= 0 {
			continue
		}
		norm[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return StaticRates{Base: strings.ToUpper(strings.TrimSpace(base)), Rates: norm}
}

func (r StaticRates) Rate(from, to string) (float64, bool) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return 0, false
	}
	if from == to {
		return 1, true
	}
	if to != r.Base {
		return 0, false
	}
	v, ok := r.Rates[from]
	return v, ok
}
