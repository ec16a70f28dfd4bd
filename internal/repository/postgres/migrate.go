package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

const migrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// Migration is one forward-only SQL file.
type Migration struct {
	Name string
	SQL  string
}

// LoadMigrations reads every non-empty *.sql file in the root of fsys,
// ordered by file name.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, Migration{Name: e.Name(), SQL: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Migrator applies migrations and records them in schema_migrations.
type Migrator struct{ db *sql.DB }

func NewMigrator(db *sql.DB) *Migrator { return &Migrator{db: db} }

// Applied returns the names of migrations already recorded.
func (m *Migrator) Applied(ctx context.Context) ([]string, error) {
	var names []string
	err := withSession(ctx, m.db, func(conn *sql.Conn) error {
		var err error
		names, err = appliedNames(ctx, conn)
		return err
	})
	return names, err
}

// Apply runs every migration not yet recorded, each in its own transaction
// together with its bookkeeping row. It stops at the first failure and
// returns the names applied before it.
func (m *Migrator) Apply(ctx context.Context, migrations []Migration) ([]string, error) {
	var applied []string
	err := withSession(ctx, m.db, func(conn *sql.Conn) error {
		done, err := appliedNames(ctx, conn)
		if err != nil {
			return err
		}
		seen := make(map[string]bool, len(done))
		for _, n := range done {
			seen[n] = true
		}

		for _, mig := range migrations {
			if seen[mig.Name] {
				continue
			}
			err := withTx(ctx, conn, func(tx *sql.Tx) error {
				if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
					return err
				}
				_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, mig.Name)
				return err
			})
			if err != nil {
				return fmt.Errorf("apply %s: %w", mig.Name, err)
			}
			applied = append(applied, mig.Name)
		}
		return nil
	})
	return applied, err
}

func appliedNames(ctx context.Context, conn *sql.Conn) ([]string, error) {
	if _, err := conn.ExecContext(ctx, migrationsTable); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}
	rows, err := conn.QueryContext(ctx, `SELECT name FROM schema_migrations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan migration name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
