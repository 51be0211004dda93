package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classroom/internal/archive"
	"classroom/internal/auth"
	"classroom/internal/classroom"
	"classroom/internal/config"
	"classroom/internal/handler"
	"classroom/internal/httpmiddleware"
	"classroom/internal/presence"
	"classroom/internal/queue"
	"classroom/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: .env not loaded: %v", err)
	}
	cfg := config.Load()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc := cfg.Location()
	data, closeStore := openStore(ctx, cfg)
	defer closeStore()

	if cfg.SeedOnStart {
		if err := classroom.Seed(ctx, data, time.Now().In(loc), false); err != nil {
			log.Printf("warning: seed failed: %v", err)
		} else {
			log.Println("sample data seeded")
		}
	}

	creds, err := auth.ParseCredentials(cfg.Credentials)
	if err != nil {
		log.Fatalf("invalid CREDENTIALS: %v", err)
	}
	issuer := auth.NewIssuer(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
	svc := classroom.NewService(data, creds, func() time.Time { return time.Now().In(loc) })

	// Chat archive: the memory queue is drained in-process, the redis queue by cmd/worker.
	var redisClient *store.Redis
	hubOpts := presence.Options{AllowedOrigins: cfg.CORSOrigins, Location: loc}
	if cfg.ChatArchive {
		var q queue.Queue
		if cfg.QueueBackend == "memory" {
			mem := queue.NewInMemory(256)
			q = mem
			go func() {
				if err := archive.Run(ctx, mem, svc); err != nil {
					log.Printf("chat archiver: %v", err)
				}
			}()
		} else {
			redisClient = store.NewRedis(cfg.RedisAddr)
			defer redisClient.Close()
			q = queue.NewRedisQueue(redisClient.Client, config.ChatQueueKey)
		}
		hubOpts.OnChat = archive.Publisher(q, nil)
		log.Printf("chat archive enabled (%s queue)", cfg.QueueBackend)
	}

	hub := presence.NewHub(hubOpts)
	go hub.Run()

	r := gin.New()
	r.Use(httpmiddleware.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS(cfg.CORSOrigins))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware("/healthz", "/metrics"))
	r.Use(httpmiddleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := svc.Ping(c.Request.Context()) == nil
		redisHealthy := redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !dbHealthy || !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy, "online": hub.Count()})
	})

	handler.New(svc, creds, issuer, hub).Register(r, handler.Options{
		AuthRequired: cfg.AuthRequired,
		PublicDir:    cfg.PublicDir,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s (store=%s, auth required=%t)", cfg.HTTPPort, cfg.StoreBackend, cfg.AuthRequired)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	// Hijacked websocket connections are not tracked by srv.Shutdown.
	if err := hub.Shutdown(5 * time.Second); err != nil {
		log.Printf("websocket shutdown incomplete: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// openStore connects the configured backend. Connection and migration
// failures are fatal.
func openStore(ctx context.Context, cfg config.App) (classroom.Store, func()) {
	if cfg.StoreBackend == "memory" {
		log.Println("using in-memory store; data is lost on restart")
		return classroom.NewMemoryStore(), func() {}
	}

	db, err := store.NewDB(ctx, cfg.DatabaseURL, cfg.DBMaxConns, 5*time.Second)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	repo := classroom.NewRepository(db.Client)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		log.Fatalf("db migrate failed: %v", err)
	}
	log.Println("database schema ready")
	return repo, func() { _ = db.Close() }
}
