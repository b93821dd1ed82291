package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-raffle/internal/models"
)

// Creates the raffle ledger schema. Accounts themselves are created
// lazily by the first entry command, so there is nothing to seed.
func main() {
	drop := flag.Bool("drop", false, "drop the raffle tables before creating them")
	flag.Parse()

	ctx := context.Background()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN not set")
	}
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	if *drop {
		log.Println("Dropping tables...")
		_, _ = db.NewDropTable().Model((*models.RaffleAccount)(nil)).IfExists().Exec(ctx)
	}

	log.Println("Creating tables...")
	if _, err := db.NewCreateTable().Model((*models.RaffleAccount)(nil)).IfNotExists().Exec(ctx); err != nil {
		log.Fatalf("❌ Failed to create raffle_accounts: %v", err)
	}

	log.Println("✅ Done.")
}
