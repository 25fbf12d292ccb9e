package domain

import (
	"encoding/json"
	"time"
)

// Draft is a persisted wizard snapshot. Payload is the JSON snapshot; the
// other columns exist for lookups and expiry.
type Draft struct {
	ID          string
	State       string
	ServiceType ServiceType
	ItemID      string
	Payload     json.RawMessage
	UpdatedAt   time.Time
	ExpiresAt   time.Time
}

func (d Draft) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && !now.Before(d.ExpiresAt)
}
