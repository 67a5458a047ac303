package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"tavola.app/internal/auth"
	"tavola.app/internal/httpapi"
	"tavola.app/internal/obs"
	"tavola.app/internal/revocation"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	addr := envDefault("TAVOLA_ADDR", ":8080")
	env := envDefault("TAVOLA_ENV", "production")

	accessSecret := os.Getenv("TAVOLA_ACCESS_SECRET")
	renewalSecret := os.Getenv("TAVOLA_RENEWAL_SECRET")
	if accessSecret == "" || renewalSecret == "" {
		log.Fatal("TAVOLA_ACCESS_SECRET and TAVOLA_RENEWAL_SECRET are required")
	}

	issuer, err := auth.NewIssuer(
		[]byte(accessSecret),
		[]byte(renewalSecret),
		auth.WithIssuerName(envDefault("TAVOLA_ISSUER", "tavola")),
		auth.WithAccessTTL(envDuration("TAVOLA_ACCESS_TTL", 15*time.Minute)),
		auth.WithRenewalTTL(envDuration("TAVOLA_RENEWAL_TTL", 168*time.Hour)),
	)
	if err != nil {
		log.Fatalf("issuer: %v", err)
	}

	var accounts auth.AccountStore
	var db *sql.DB
	if dsn := os.Getenv("TAVOLA_PG_DSN"); dsn != "" {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			cancel()
			log.Fatalf("ping postgres: %v", err)
		}
		cancel()
		accounts = auth.NewPGStore(db)
	} else {
		log.Println("TAVOLA_PG_DSN not set, using in-memory account store")
		accounts = auth.NewMemoryStore()
	}

	var revoked revocation.Store
	var redisClient *redis.Client
	if redisAddr := os.Getenv("TAVOLA_REDIS_ADDR"); redisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("TAVOLA_REDIS_PASSWORD"),
		})
		defer redisClient.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatalf("ping redis: %v", err)
		}
		cancel()
		revoked = revocation.NewRedisStore(redisClient, "")
	} else {
		log.Println("TAVOLA_REDIS_ADDR not set, using in-memory revocation store")
		revoked = revocation.NewMemoryStore()
	}

	verifier, err := auth.NewVerifier(issuer, revoked)
	if err != nil {
		log.Fatalf("verifier: %v", err)
	}
	registry, err := auth.NewRegistry(accounts, issuer, verifier)
	if err != nil {
		log.Fatalf("registry: %v", err)
	}
	svc, err := auth.NewService(accounts, revoked, issuer, verifier, registry)
	if err != nil {
		log.Fatalf("service: %v", err)
	}

	api := httpapi.New(svc, verifier,
		httpapi.ReadyProbe{DB: db, Redis: redisClient},
		version,
		httpapi.WithEnv(env),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("tavola-auth listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("tavola-auth stopped")
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("%s: invalid duration %q", key, v)
	}
	return d
}
