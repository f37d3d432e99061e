package claim

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PGStore implements Store backed by PostgreSQL for deployments that want
// claims to survive a restart. Identifiers come from an identity column, so
// they stay monotonic and are never reused.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wires a pgxpool-backed store implementation.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Numeric columns travel as text so the decimal values round-trip exactly.
const claimColumns = `id, lecturer_name, start_time, end_time, hours_worked::text, hourly_rate::text,
supporting_document_path, notes, status, date_submitted, verified_by, verified_date,
hod_comments, last_action_note, escalated_to_manager`

// Insert persists the claim and returns it with its assigned identifier.
func (s *PGStore) Insert(ctx context.Context, c Claim) (Claim, error) {
	const insertSQL = `
		INSERT INTO claims (lecturer_name, start_time, end_time, hours_worked, hourly_rate,
			supporting_document_path, notes, status, date_submitted, verified_by, verified_date,
			hod_comments, last_action_note, escalated_to_manager)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING ` + claimColumns

	inserted, err := scanClaim(s.pool.QueryRow(ctx, insertSQL,
		c.LecturerName,
		c.StartTime,
		c.EndTime,
		c.HoursWorked.String(),
		c.HourlyRate.String(),
		c.SupportingDocumentPath,
		c.Notes,
		string(c.Status),
		c.DateSubmitted,
		c.VerifiedBy,
		c.VerifiedDate,
		c.HODComments,
		c.LastActionNote,
		c.EscalatedToManager,
	))
	if err != nil {
		return Claim{}, fmt.Errorf("claim: insert: %w", err)
	}
	return inserted, nil
}

// Get fetches one claim by its primary key.
func (s *PGStore) Get(ctx context.Context, id int64) (Claim, error) {
	c, err := scanClaim(s.pool.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, ErrNotFound
		}
		return Claim{}, fmt.Errorf("claim: query by id: %w", err)
	}
	return c, nil
}

// Update applies the mutation inside a transaction holding a row lock, so
// concurrent read-modify-write sequences cannot lose updates.
func (s *PGStore) Update(ctx context.Context, id int64, apply func(*Claim) error) (Claim, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Claim{}, fmt.Errorf("claim: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := scanClaim(tx.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, ErrNotFound
		}
		return Claim{}, fmt.Errorf("claim: lock row: %w", err)
	}

	if err := apply(&c); err != nil {
		return Claim{}, err
	}

	const updateSQL = `
		UPDATE claims
		SET lecturer_name=$1, start_time=$2, end_time=$3, hours_worked=$4, hourly_rate=$5,
			supporting_document_path=$6, notes=$7, status=$8, verified_by=$9, verified_date=$10,
			hod_comments=$11, last_action_note=$12, escalated_to_manager=$13
		WHERE id=$14
	`
	if _, err := tx.Exec(ctx, updateSQL,
		c.LecturerName,
		c.StartTime,
		c.EndTime,
		c.HoursWorked.String(),
		c.HourlyRate.String(),
		c.SupportingDocumentPath,
		c.Notes,
		string(c.Status),
		c.VerifiedBy,
		c.VerifiedDate,
		c.HODComments,
		c.LastActionNote,
		c.EscalatedToManager,
		c.ID,
	); err != nil {
		return Claim{}, fmt.Errorf("claim: update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Claim{}, fmt.Errorf("claim: commit update: %w", err)
	}

	return c, nil
}

// List returns all claims ordered by identifier.
func (s *PGStore) List(ctx context.Context) ([]Claim, error) {
	return s.queryClaims(ctx, `SELECT `+claimColumns+` FROM claims ORDER BY id ASC`)
}

// ListByStatus returns the claims currently in the given status, ordered by
// identifier.
func (s *PGStore) ListByStatus(ctx context.Context, status Status) ([]Claim, error) {
	return s.queryClaims(ctx, `SELECT `+claimColumns+` FROM claims WHERE status = $1 ORDER BY id ASC`, string(status))
}

func (s *PGStore) queryClaims(ctx context.Context, query string, args ...any) ([]Claim, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("claim: list: %w", err)
	}
	defer rows.Close()

	claims := []Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("claim: scan row: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim: iterate rows: %w", err)
	}

	return claims, nil
}

func scanClaim(row pgx.Row) (Claim, error) {
	var (
		c                          Claim
		hours, rate, status        string
		startTime, endTime         sql.NullTime
		verifiedDate               sql.NullTime
		docPath, notes, verifiedBy sql.NullString
		hodComments, lastNote      sql.NullString
	)

	if err := row.Scan(
		&c.ID,
		&c.LecturerName,
		&startTime,
		&endTime,
		&hours,
		&rate,
		&docPath,
		&notes,
		&status,
		&c.DateSubmitted,
		&verifiedBy,
		&verifiedDate,
		&hodComments,
		&lastNote,
		&c.EscalatedToManager,
	); err != nil {
		return Claim{}, err
	}

	var err error
	if c.HoursWorked, err = decimal.NewFromString(hours); err != nil {
		return Claim{}, fmt.Errorf("parse hours_worked: %w", err)
	}
	if c.HourlyRate, err = decimal.NewFromString(rate); err != nil {
		return Claim{}, fmt.Errorf("parse hourly_rate: %w", err)
	}

	c.Status = Status(status)
	if startTime.Valid {
		t := startTime.Time
		c.StartTime = &t
	}
	if endTime.Valid {
		t := endTime.Time
		c.EndTime = &t
	}
	if verifiedDate.Valid {
		t := verifiedDate.Time
		c.VerifiedDate = &t
	}
	if docPath.Valid {
		c.SupportingDocumentPath = &docPath.String
	}
	if notes.Valid {
		c.Notes = &notes.String
	}
	if verifiedBy.Valid {
		c.VerifiedBy = &verifiedBy.String
	}
	if hodComments.Valid {
		c.HODComments = &hodComments.String
	}
	if lastNote.Valid {
		c.LastActionNote = &lastNote.String
	}

	return c, nil
}
