package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"fleetrent-backend/internal/logger"
)

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`CREATE TABLE IF NOT EXISTS resources (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('AVAILABLE', 'RESERVED', 'RENTED', 'OUT_OF_SERVICE')),
		base_daily_rate NUMERIC(12,2) NOT NULL CHECK (base_daily_rate > 0),
		vintage INTEGER NOT NULL,
		mileage BIGINT NOT NULL DEFAULT 0 CHECK (mileage >= 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id UUID PRIMARY KEY,
		resource_id UUID NOT NULL REFERENCES resources(id),
		customer_id UUID NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('PENDING', 'CONFIRMED', 'ACTIVE', 'COMPLETED', 'CANCELED')),
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK (end_date > start_date),
		CONSTRAINT reservations_no_overlap EXCLUDE USING gist (
			resource_id WITH =,
			daterange(start_date, end_date, '[)') WITH &&
		) WHERE (status IN ('PENDING', 'CONFIRMED', 'ACTIVE'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_status_dates ON reservations (status, start_date, end_date)`,
	`CREATE TABLE IF NOT EXISTS deposits (
		id UUID PRIMARY KEY,
		reservation_id UUID NOT NULL UNIQUE REFERENCES reservations(id),
		amount NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
		released_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL CHECK (status IN ('HELD', 'RELEASED', 'PARTIALLY_RELEASED', 'FORFEITED')),
		settlement_ref TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fines (
		id UUID PRIMARY KEY,
		reservation_id UUID NOT NULL REFERENCES reservations(id),
		category TEXT NOT NULL CHECK (category IN ('damage', 'late_return', 'cleaning', 'other')),
		amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
		note TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id UUID PRIMARY KEY,
		reservation_id UUID NOT NULL UNIQUE REFERENCES reservations(id),
		line_items JSONB NOT NULL,
		total NUMERIC(12,2) NOT NULL,
		paid_at TIMESTAMPTZ,
		payment_method TEXT,
		payment_ref TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rate_rules (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		params JSONB NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	logger.Info("Database schema up to date", "steps", len(schema))
	return nil
}
