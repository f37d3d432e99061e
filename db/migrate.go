package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema holds the claims DDL applied at startup and by the test harness.
// The identity column keeps claim identifiers monotonic and never reused.
const Schema = `
CREATE TABLE IF NOT EXISTS claims (
    id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    lecturer_name TEXT NOT NULL,
    start_time TIMESTAMPTZ,
    end_time TIMESTAMPTZ,
    hours_worked NUMERIC(12,4) NOT NULL,
    hourly_rate NUMERIC(14,4) NOT NULL,
    supporting_document_path TEXT,
    notes TEXT,
    status TEXT NOT NULL,
    date_submitted TIMESTAMPTZ NOT NULL,
    verified_by TEXT,
    verified_date TIMESTAMPTZ,
    hod_comments TEXT,
    last_action_note TEXT,
    escalated_to_manager BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS claims_status_idx ON claims (status);
CREATE INDEX IF NOT EXISTS claims_date_submitted_idx ON claims (date_submitted DESC);
`

// Migrate applies the schema against the pool. The statements are idempotent
// so running it on every boot is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("db: apply schema: %w", err)
	}
	return nil
}
