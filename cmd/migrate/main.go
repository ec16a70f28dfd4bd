package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/mergington/activities-portal/internal/config"
	"github.com/mergington/activities-portal/internal/pkg/distlock"
	"github.com/mergington/activities-portal/internal/pkg/logger"
	"github.com/mergington/activities-portal/internal/repository/postgres"
)

const migrateLockKey = "portal:migrate"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	listOnly := flag.Bool("list", false, "print applied migrations and exit")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	dir := cfg.Database.MigrationsDir
	if flag.NArg() > 0 {
		dir = flag.Arg(0)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Fatal("connect failed", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("ping failed", "error", err)
	}

	m := postgres.NewMigrator(db)

	if *listOnly {
		names, err := m.Applied(ctx)
		if err != nil {
			logger.Fatal("list failed", "error", err)
		}
		for _, n := range names {
			fmt.Println(" ", n)
		}
		fmt.Printf("Total: %d migrations\n", len(names))
		return
	}

	migrations, err := postgres.LoadMigrations(os.DirFS(dir))
	if err != nil {
		logger.Fatal("load migrations failed", "dir", dir, "error", err)
	}

	lock := distlock.NewPGAdvisoryLock(db, migrateLockKey)
	err = distlock.Run(ctx, lock, time.Second, func(ctx context.Context) error {
		applied, err := m.Apply(ctx, migrations)
		for _, n := range applied {
			logger.Info("migration applied", "name", n)
		}
		return err
	})
	if err != nil {
		logger.Fatal("migrations failed", "error", err)
	}
	logger.Info("migrations complete", "dir", dir, "total", len(migrations))
}
