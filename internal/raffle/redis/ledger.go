package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	raffle "ms-raffle/internal/raffle/service"
)

// Ledger is the Redis-backed ledger store, selected with
// LEDGER_BACKEND=redis. INCRBY is atomic on the server, which gives the
// per-user serializability guarantee for free; durability is whatever
// the Redis deployment's persistence (AOF/RDB) provides.
type Ledger struct {
	Client *redis.Client
}

func NewLedger(client *redis.Client) *Ledger {
	return &Ledger{Client: client}
}

func ticketKey(userID int64) string {
	return fmt.Sprintf("raffle:tickets:%d", userID)
}

func (l *Ledger) GetTickets(ctx context.Context, userID int64) (int, error) {
	tickets, err := l.Client.Get(ctx, ticketKey(userID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", raffle.ErrStorageUnavailable, err)
	}
	return tickets, nil
}

func (l *Ledger) IncrementTickets(ctx context.Context, userID int64) (int, error) {
	tickets, err := l.Client.IncrBy(ctx, ticketKey(userID), 1).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", raffle.ErrStorageUnavailable, err)
	}
	return int(tickets), nil
}
