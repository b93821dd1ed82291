package raffle

import (
	"context"
	"errors"
	"fmt"

	"ms-raffle/internal/logger"
)

// ErrStorageUnavailable marks a ledger read or write that failed at the
// storage layer. The entry service never masks it with a fabricated
// count; the HTTP layer maps it to a 5xx.
var ErrStorageUnavailable = errors.New("raffle ledger storage unavailable")

// LedgerStore is the durable per-user ticket counter.
//
// IncrementTickets must be serializable per user: concurrent calls for
// the same user always land on a final count equal to the starting
// count plus the number of calls, and every call returns a distinct
// post-increment value. Both backends satisfy this with a single atomic
// statement (SQL upsert with RETURNING, Redis INCRBY).
type LedgerStore interface {
	GetTickets(ctx context.Context, userID int64) (int, error)
	IncrementTickets(ctx context.Context, userID int64) (int, error)
}

type EntryPublisher interface {
	PublishEntryGranted(ctx context.Context, userID int64, tickets int) error
}

type EntryService struct {
	DB     LedgerStore
	Events EntryPublisher
	Logger *logger.Logger
}

func NewEntryService(db LedgerStore, events EntryPublisher, log *logger.Logger) *EntryService {
	return &EntryService{DB: db, Events: events, Logger: log}
}

// Status returns the user's current ticket count. Pure read: an unseen
// user reports zero tickets and no account is created.
func (s *EntryService) Status(ctx context.Context, userID int64) (int, error) {
	return s.DB.GetTickets(ctx, userID)
}

// Enter grants exactly one ticket and returns the post-increment count.
//
// Not idempotent: every accepted call increments by one. The widget
// session's control-disable discipline is what keeps one user click to
// one call; the service does no deduplication.
func (s *EntryService) Enter(ctx context.Context, userID int64) (int, error) {
	tickets, err := s.DB.IncrementTickets(ctx, userID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("RAFFLE", fmt.Sprintf("Enter: increment failed for user %d: %v", userID, err))
		}
		return 0, err
	}

	if s.Events != nil {
		// Best effort: the ticket is already granted, a publish failure
		// must not fail the command.
		if err := s.Events.PublishEntryGranted(ctx, userID, tickets); err != nil && s.Logger != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("Enter: failed to publish entry event for user %d: %v", userID, err))
		}
	}

	if s.Logger != nil {
		s.Logger.Info("RAFFLE", fmt.Sprintf("Enter: user %d now holds %d tickets", userID, tickets))
	}
	return tickets, nil
}
