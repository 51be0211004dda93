package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"classroom/internal/archive"
	"classroom/internal/classroom"
	"classroom/internal/config"
	"classroom/internal/queue"
	"classroom/internal/store"
)

// Worker drains the redis chat queue into the chat_history table.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(ctx, cfg.DatabaseURL, cfg.DBMaxConns, 5*time.Second)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	repo := classroom.NewRepository(db.Client)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis at %s not reachable, will keep retrying", cfg.RedisAddr)
	}

	q := queue.NewRedisQueue(redisClient.Client, config.ChatQueueKey)
	svc := classroom.NewService(repo, nil, nil)

	log.Printf("worker started, draining %s", config.ChatQueueKey)
	if err := archive.Run(ctx, q, svc); err != nil {
		log.Fatalf("worker failed: %v", err)
	}
	log.Println("worker stopped")
}
