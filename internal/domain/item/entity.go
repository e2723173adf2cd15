package item

import (
	"time"

	"github.com/google/uuid"
)

// Item is the canonical, storage-ready representation shared across all
// sources. Identity is (Source, ExternalID); FirstSeenAt is fixed at first
// observation, LastSeenAt moves on every re-observation.
type Item struct {
	ID            uuid.UUID
	Source        string
	ExternalID    string
	Title         string
	URL           string
	Description   string
	PriceAmount   float64
	PriceCurrency string
	PublishedAt   *time.Time
	Location      string
	Extra         map[string]string
	FirstSeenAt   time.Time
	LastSeenAt    time.Time
}

// Key is the dedup key deciding insert vs update in the store.
func (it Item) Key() string {
	return it.Source + "|" + it.ExternalID
}
