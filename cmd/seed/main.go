// Command seed creates the schema and loads the sample classroom rows.
//
//	go run ./cmd/seed          # add missing sample rows
//	go run ./cmd/seed -reset   # wipe every table first
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"classroom/internal/classroom"
	"classroom/internal/config"
	"classroom/internal/store"
)

func main() {
	reset := flag.Bool("reset", false, "truncate all tables before seeding")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.NewDB(ctx, cfg.DatabaseURL, cfg.DBMaxConns, 5*time.Second)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	repo := classroom.NewRepository(db.Client)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}
	if err := classroom.Seed(ctx, repo, time.Now().In(cfg.Location()), *reset); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	if *reset {
		log.Println("tables reset and seeded")
	} else {
		log.Println("sample data seeded")
	}
}
