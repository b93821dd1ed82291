package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-raffle/internal/models"
	raffle "ms-raffle/internal/raffle/service"
)

// DB is the SQL-backed ledger store. Postgres in production, in-memory
// SQLite in tests; both go through bun.
type DB struct {
	Bun *bun.DB
}

// GetTickets returns the user's ticket count, or 0 when no account
// exists. Never creates an account.
func (d *DB) GetTickets(ctx context.Context, userID int64) (int, error) {
	var account models.RaffleAccount
	err := d.Bun.NewSelect().
		Model(&account).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", raffle.ErrStorageUnavailable, err)
	}
	return account.Tickets, nil
}

// IncrementTickets adds one ticket and returns the new count. The
// upsert is a single statement, so concurrent calls for the same user
// never see each other's intermediate state: the database serializes
// the read-modify-write and RETURNING hands back the committed value.
func (d *DB) IncrementTickets(ctx context.Context, userID int64) (int, error) {
	account := models.RaffleAccount{
		UserID:    userID,
		Tickets:   1,
		UpdatedAt: time.Now(),
	}
	_, err := d.Bun.NewInsert().
		Model(&account).
		On("CONFLICT (user_id) DO UPDATE").
		Set("tickets = tickets + 1").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("tickets").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", raffle.ErrStorageUnavailable, err)
	}
	return account.Tickets, nil
}
