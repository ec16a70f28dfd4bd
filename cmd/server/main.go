package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/mergington/activities-portal/internal/api"
	"github.com/mergington/activities-portal/internal/config"
	"github.com/mergington/activities-portal/internal/domain"
	"github.com/mergington/activities-portal/internal/notify"
	"github.com/mergington/activities-portal/internal/pkg/distlock"
	"github.com/mergington/activities-portal/internal/pkg/logger"
	"github.com/mergington/activities-portal/internal/repository/memory"
	"github.com/mergington/activities-portal/internal/repository/postgres"
	"github.com/mergington/activities-portal/internal/repository/redisstore"
	"github.com/mergington/activities-portal/internal/service/activity"
	"github.com/mergington/activities-portal/internal/service/customer"
	"github.com/mergington/activities-portal/internal/static"
)

const schemaLockKey = "portal:schema-bootstrap"

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %w", addr, err)
	}
	return ln.Close()
}

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		logger.Fatal("failed to load config", "path", configPath, "error", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())

	if err := checkPortAvailable(cfg.Server.Addr()); err != nil {
		logger.Fatal("pre-flight check failed", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openDB(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	defer db.Close()

	redisClient := openRedis(ctx, cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Bootstrap the customers table once across replicas.
	customerRepo := postgres.NewCustomerRepo(db)
	lock := distlock.NewLock(redisClient, db, schemaLockKey, time.Minute)
	bootCtx, bootCancel := context.WithTimeout(ctx, 30*time.Second)
	err = distlock.Run(bootCtx, lock, 500*time.Millisecond, customerRepo.EnsureSchema)
	bootCancel()
	if err != nil {
		logger.Fatal("schema bootstrap failed", "error", err)
	}

	activityRepo, err := newActivityRepo(ctx, cfg, redisClient)
	if err != nil {
		logger.Fatal("activity store unavailable", "error", err)
	}

	var activityOpts []activity.Option
	if cfg.Notify.Enabled {
		n, err := newNotifier(ctx, cfg.Notify)
		if err != nil {
			logger.Fatal("notifier setup failed", "error", err)
		}
		activityOpts = append(activityOpts, activity.WithNotifier(n))
		logger.Info("signup confirmations enabled", "from", cfg.Notify.From, "region", cfg.Notify.Region)
	}

	assets, err := static.New(ctx, static.Config{
		Dir:    cfg.Static.Dir,
		Bucket: cfg.Static.S3Bucket,
		Region: cfg.Static.S3Region,
		Prefix: cfg.Static.S3Prefix,
	})
	if err != nil {
		logger.Fatal("static assets unavailable", "error", err)
	}

	handlers := api.NewHandlers(
		activity.NewService(activityRepo, activityOpts...),
		customer.NewService(customerRepo),
	)
	router := api.SetupRoutes(handlers, api.RouterOptions{
		Health:         api.NewHealthChecker(db, redisClient, cfg.Activities.Backend == config.BackendRedis),
		Static:         assets,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	server := api.NewServer(cfg.Server, router)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr(), "activities_backend", cfg.Activities.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "error", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

func openDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := postgres.NewCustomerRepo(db).Ping(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// openRedis returns nil when Redis is not configured or unreachable; the
// caller then falls back to PG advisory locks.
func openRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled() {
		logger.Info("redis not configured, using PG advisory locks")
		return nil
	}

	opts, err := redis.ParseURL(cfg.Addr)
	if err != nil {
		opts = &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis connection failed, using PG advisory locks", "addr", cfg.Addr, "error", err)
		client.Close()
		return nil
	}
	logger.Info("redis connected", "addr", cfg.Addr)
	return client
}

func newActivityRepo(ctx context.Context, cfg *config.Config, client *redis.Client) (activity.Repository, error) {
	if cfg.Activities.Backend != config.BackendRedis {
		return memory.NewActivityStore(domain.SeedActivities()), nil
	}
	if client == nil {
		return nil, errors.New("activities.backend is redis but redis is unreachable")
	}
	store := redisstore.NewActivityStore(client, cfg.Redis.KeyPrefix)
	if err := store.Seed(ctx, domain.SeedActivities()); err != nil {
		return nil, err
	}
	return store, nil
}

func newNotifier(ctx context.Context, cfg config.NotifyConfig) (*notify.SESNotifier, error) {
	renderer, err := notify.NewRenderer(cfg.Subject, cfg.Body)
	if err != nil {
		return nil, err
	}
	return notify.NewSESNotifier(ctx, notify.SESConfig{
		Region:    cfg.Region,
		From:      cfg.From,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
	}, renderer)
}
