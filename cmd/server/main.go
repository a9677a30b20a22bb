package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/web-storefront/internal/config"
	"github.com/iliyamo/web-storefront/internal/database"
	"github.com/iliyamo/web-storefront/internal/handler"
	"github.com/iliyamo/web-storefront/internal/middleware"
	"github.com/iliyamo/web-storefront/internal/queue"
	"github.com/iliyamo/web-storefront/internal/repository"
	"github.com/iliyamo/web-storefront/internal/router"
	"github.com/iliyamo/web-storefront/internal/service"
	"github.com/iliyamo/web-storefront/internal/token"
)

func main() {
	// Load .env in development; absence is fine in real deployments.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis backs the blacklist and rate limiter; both degrade gracefully
	// when it is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: blacklist is best-effort, rate limiting disabled")
	}

	codec := token.NewCodec(cfg)
	users := repository.NewUserRepo(db)
	tokens := repository.NewRefreshTokenRepo(db)
	ledger := service.NewLedger(tokens, codec, cfg.BcryptCost)
	blacklist := service.NewBlacklist(service.NewRedisKV(rdb))
	auth := service.NewAuthService(codec, users, ledger, blacklist, service.AMQPPublisher{}, cfg.BcryptCost)

	e := echo.New()
	// The authentication gate runs on every request outside the skip list.
	// It only attaches a principal or degrades to anonymous; rejection is
	// the role guard's job on the protected groups.
	e.Use(middleware.Authenticate(codec, blacklist, users, router.SkipAuthPrefixes))

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(auth), limiter)

	// Session audit trail consumer; reconnects on its own.
	go func() {
		if err := queue.StartSessionConsumer(); err != nil {
			log.Printf("session-consumer stopped: %v", err)
		}
	}()

	// Hourly ledger sweep. Correctness never depends on it; it only keeps
	// expired rows from accumulating.
	go func() {
		for range time.Tick(time.Hour) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if n, err := ledger.SweepExpired(ctx); err != nil {
				log.Printf("ledger sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("ledger sweep removed %d expired refresh tokens", n)
			}
			_ = blacklist.Cleanup(ctx)
			cancel()
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
