package db_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-raffle/internal/models"
	"ms-raffle/internal/raffle/db"
	raffle "ms-raffle/internal/raffle/service"
)

func setupLedgerDB(t *testing.T) (*db.DB, *bun.DB) {
	// Connect to an in-memory SQLite DB for testing
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	// A pooled :memory: connection per goroutine would mean a separate
	// database per goroutine; pin the pool to one shared connection.
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.RaffleAccount)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create raffle_accounts table: %v", err)
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func TestGetTicketsUnseenUser(t *testing.T) {
	ledger, bunDB := setupLedgerDB(t)
	defer bunDB.Close()

	ctx := context.Background()

	// An unseen user reports zero tickets
	tickets, err := ledger.GetTickets(ctx, 999)
	assert.NoError(t, err)
	assert.Equal(t, 0, tickets)

	// ...and no account was created by the read
	count, err := bunDB.NewSelect().Model((*models.RaffleAccount)(nil)).Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIncrementTicketsCreatesAccountLazily(t *testing.T) {
	ledger, bunDB := setupLedgerDB(t)
	defer bunDB.Close()

	ctx := context.Background()

	// First increment creates the account with tickets = 1
	tickets, err := ledger.IncrementTickets(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, 1, tickets)

	// Subsequent increments keep counting up
	tickets, err = ledger.IncrementTickets(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, 2, tickets)

	tickets, err = ledger.GetTickets(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, 2, tickets)

	// Exactly one account row exists for the user
	count, err := bunDB.NewSelect().Model((*models.RaffleAccount)(nil)).Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIncrementTicketsIndependentUsers(t *testing.T) {
	ledger, bunDB := setupLedgerDB(t)
	defer bunDB.Close()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := ledger.IncrementTickets(ctx, 1)
		require.NoError(t, err)
	}
	_, err := ledger.IncrementTickets(ctx, 2)
	require.NoError(t, err)

	tickets, err := ledger.GetTickets(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, tickets)

	tickets, err = ledger.GetTickets(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, tickets)
}

func TestIncrementTicketsConcurrent(t *testing.T) {
	ledger, bunDB := setupLedgerDB(t)
	defer bunDB.Close()

	ctx := context.Background()
	const workers = 25

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]bool)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tickets, err := ledger.IncrementTickets(ctx, 42)
			assert.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			// No two increments may observe the same post-increment
			// value; duplicates would mean a lost update.
			assert.False(t, seen[tickets], "duplicate count %d returned", tickets)
			seen[tickets] = true
		}()
	}
	wg.Wait()

	tickets, err := ledger.GetTickets(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, workers, tickets)
	assert.Len(t, seen, workers)
}

func TestGetTicketsIsAPureRead(t *testing.T) {
	ledger, bunDB := setupLedgerDB(t)
	defer bunDB.Close()

	ctx := context.Background()

	_, err := ledger.IncrementTickets(ctx, 7)
	require.NoError(t, err)
	_, err = ledger.IncrementTickets(ctx, 7)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		tickets, err := ledger.GetTickets(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 2, tickets)
	}
}

func TestStorageUnavailable(t *testing.T) {
	ledger, bunDB := setupLedgerDB(t)

	// Close the database out from under the store
	require.NoError(t, bunDB.Close())

	ctx := context.Background()

	_, err := ledger.GetTickets(ctx, 1)
	assert.True(t, errors.Is(err, raffle.ErrStorageUnavailable), "got %v", err)

	_, err = ledger.IncrementTickets(ctx, 1)
	assert.True(t, errors.Is(err, raffle.ErrStorageUnavailable), "got %v", err)
}
