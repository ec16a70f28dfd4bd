package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mergington/activities-portal/internal/domain"
)

// customersSchema mirrors migrations/001_customers.sql.
const customersSchema = `
	CREATE TABLE IF NOT EXISTS customers (
		id             BIGSERIAL PRIMARY KEY,
		first_name     TEXT NOT NULL,
		middle_name    TEXT,
		last_name      TEXT NOT NULL,
		dob            TEXT NOT NULL,
		address_line_1 TEXT NOT NULL,
		zip_code       TEXT NOT NULL,
		city           TEXT NOT NULL,
		state          TEXT NOT NULL,
		country        TEXT NOT NULL
	)`

// CustomerRepo implements customer.Repository against PostgreSQL.
type CustomerRepo struct{ db *sql.DB }

// NewCustomerRepo creates a Postgres-backed customer repository.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// EnsureSchema creates the customers table if it does not exist.
func (r *CustomerRepo) EnsureSchema(ctx context.Context) error {
	return withSession(ctx, r.db, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, customersSchema); err != nil {
			return fmt.Errorf("ensure customers schema: %w", err)
		}
		return nil
	})
}

// Ping reports whether the database is reachable.
func (r *CustomerRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *CustomerRepo) List(ctx context.Context) ([]domain.Customer, error) {
	var out []domain.Customer
	err := withSession(ctx, r.db, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT id, first_name, middle_name, last_name, dob,
			       address_line_1, zip_code, city, state, country
			FROM customers
			ORDER BY id
		`)
		if err != nil {
			return fmt.Errorf("list customers: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				c      domain.Customer
				middle sql.NullString
			)
			if err := rows.Scan(&c.ID, &c.FirstName, &middle, &c.LastName, &c.DOB,
				&c.AddressLine1, &c.ZipCode, &c.City, &c.State, &c.Country); err != nil {
				return fmt.Errorf("scan customer: %w", err)
			}
			if middle.Valid {
				m := middle.String
				c.MiddleName = &m
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	var middle sql.NullString
	if c.MiddleName != nil {
		middle = sql.NullString{String: *c.MiddleName, Valid: true}
	}

	var id int64
	err := withSession(ctx, r.db, func(conn *sql.Conn) error {
		return withTx(ctx, conn, func(tx *sql.Tx) error {
			err := tx.QueryRowContext(ctx, `
				INSERT INTO customers (first_name, middle_name, last_name, dob,
				                       address_line_1, zip_code, city, state, country)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id
			`, c.FirstName, middle, c.LastName, c.DOB,
				c.AddressLine1, c.ZipCode, c.City, c.State, c.Country,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("insert customer: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}
