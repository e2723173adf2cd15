package usecase

import (
	"time"

	"scrape-aggregator/internal/domain/item"

	"github.com/google/uuid"
)

// ItemView is the read-model shape handed to the delivery layer and stored
// in the cache.
type ItemView struct {
	ID            uuid.UUID         `json:"id"`
	Source        string            `json:"source"`
	ExternalID    string            `json:"external_id"`
	Title         string            `json:"title"`
	URL           string            `json:"url"`
	Description   string            `json:"description"`
	PriceAmount   float64           `json:"price_amount"`
	PriceCurrency string            `json:"price_currency"`
	PublishedAt   *time.Time        `json:"published_at,omitempty"`
	Location      string            `json:"location"`
	Extra         map[string]string `json:"extra,omitempty"`
	FirstSeenAt   time.Time         `json:"first_seen_at"`
	LastSeenAt    time.Time         `json:"last_seen_at"`
}

func itemView(it item.Item) ItemView {
	return ItemView{
		ID:            it.ID,
		Source:        it.Source,
		ExternalID:    it.ExternalID,
		Title:         it.Title,
		URL:           it.URL,
		Description:   it.Description,
		PriceAmount:   it.PriceAmount,
		PriceCurrency: it.PriceCurrency,
		PublishedAt:   it.PublishedAt,
		Location:      it.Location,
		Extra:         it.Extra,
		FirstSeenAt:   it.FirstSeenAt,
		LastSeenAt:    it.LastSeenAt,
	}
}
