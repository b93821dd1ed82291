package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// RaffleAccount is one user's persisted ticket count. Rows are created
// lazily by the first entry command; the count never decreases and the
// row is never deleted.
type RaffleAccount struct {
	bun.BaseModel `bun:"table:raffle_accounts"`

	UserID    int64     `bun:"user_id,pk"`
	Tickets   int       `bun:"tickets,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}

// RaffleStatusResponse is the body of GET /api/raffle-status.
type RaffleStatusResponse struct {
	Tickets int `json:"tickets"`
}

// RaffleEntryRequest is the body of POST /api/raffle-entry. UserID is
// kept raw so the handler can validate it strictly instead of letting
// the JSON decoder coerce it.
type RaffleEntryRequest struct {
	UserID json.RawMessage `json:"userId"`
}

// RaffleEntryResponse is the body of a successful entry command.
type RaffleEntryResponse struct {
	Success bool `json:"success"`
	Tickets int  `json:"tickets"`
}

// EntryGrantedEvent is published to Kafka after each accepted entry
// command.
type EntryGrantedEvent struct {
	EventID   string    `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Tickets   int       `json:"tickets"`
	GrantedAt time.Time `json:"granted_at"`
}
