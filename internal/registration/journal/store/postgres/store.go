package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"registrar/internal/registration/journal"
	"registrar/internal/registration/models"
	"registrar/internal/registration/pipeline"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

// Schema creates the attempts table. It is safe to run on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS registration_attempts (
	id              UUID PRIMARY KEY,
	resumed_from    UUID,
	superseded_by   UUID,
	role            TEXT NOT NULL,
	person_id       TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	message         TEXT NOT NULL DEFAULT '',
	steps           JSONB NOT NULL DEFAULT '[]',
	capture_digests JSONB NOT NULL DEFAULT '{}',
	operator_ip     TEXT NOT NULL DEFAULT '',
	device          TEXT NOT NULL DEFAULT '',
	request_id      TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);
ALTER TABLE registration_attempts ADD COLUMN IF NOT EXISTS superseded_by UUID`

// Store implements journal.Store on Postgres.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema applies Schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create registration_attempts: %w", err)
	}
	return nil
}

// Save inserts entry. Re-saving an attempt replaces it.
func (s *Store) Save(ctx context.Context, entry journal.Entry) error {
	steps, err := json.Marshal(entry.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	digests := entry.CaptureDigests
	if digests == nil {
		digests = map[models.Position]string{}
	}
	digestBytes, err := json.Marshal(digests)
	if err != nil {
		return fmt.Errorf("marshal capture digests: %w", err)
	}

	resumedFrom := nullAttemptID(entry.ResumedFrom)
	supersededBy := nullAttemptID(entry.SupersededBy)

	query := `
		INSERT INTO registration_attempts (
			id, resumed_from, role, person_id, status, message,
			steps, capture_digests, operator_ip, device, request_id, created_at,
			superseded_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			person_id = EXCLUDED.person_id,
			status = EXCLUDED.status,
			message = EXCLUDED.message,
			steps = EXCLUDED.steps,
			superseded_by = EXCLUDED.superseded_by
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.AttemptID.String(),
		resumedFrom,
		entry.Role.String(),
		entry.PersonID.String(),
		string(entry.Status),
		entry.Message,
		steps,
		digestBytes,
		entry.OperatorIP,
		entry.Device,
		entry.RequestID,
		entry.CreatedAt,
		supersededBy,
	)
	if err != nil {
		return fmt.Errorf("insert registration attempt: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.AttemptID) (journal.Entry, error) {
	query := `
		SELECT id, resumed_from, role, person_id, status, message,
			   steps, capture_digests, operator_ip, device, request_id, created_at,
			   superseded_by
		FROM registration_attempts
		WHERE id = $1
	`
	var (
		e            journal.Entry
		rawID        string
		resumedFrom  sql.NullString
		supersededBy sql.NullString
		role         string
		personID     string
		status       string
		steps        []byte
		digests      []byte
	)
	err := s.db.QueryRowContext(ctx, query, id.String()).Scan(
		&rawID, &resumedFrom, &role, &personID, &status, &e.Message,
		&steps, &digests, &e.OperatorIP, &e.Device, &e.RequestID, &e.CreatedAt,
		&supersededBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return journal.Entry{}, sentinel.ErrNotFound
	}
	if err != nil {
		return journal.Entry{}, fmt.Errorf("query registration attempt: %w", err)
	}

	if e.AttemptID, err = domain.ParseAttemptID(rawID); err != nil {
		return journal.Entry{}, fmt.Errorf("scan attempt id: %w", err)
	}
	if e.ResumedFrom, err = scanAttemptID(resumedFrom); err != nil {
		return journal.Entry{}, fmt.Errorf("scan resumed_from: %w", err)
	}
	if e.SupersededBy, err = scanAttemptID(supersededBy); err != nil {
		return journal.Entry{}, fmt.Errorf("scan superseded_by: %w", err)
	}
	e.Role = domain.RoleKind(role)
	e.PersonID = domain.PersonID(personID)
	e.Status = pipeline.Status(status)
	if err := json.Unmarshal(steps, &e.Steps); err != nil {
		return journal.Entry{}, fmt.Errorf("unmarshal steps: %w", err)
	}
	if err := json.Unmarshal(digests, &e.CaptureDigests); err != nil {
		return journal.Entry{}, fmt.Errorf("unmarshal capture digests: %w", err)
	}
	if len(e.CaptureDigests) == 0 {
		e.CaptureDigests = nil
	}
	return e, nil
}

func nullAttemptID(id *domain.AttemptID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func scanAttemptID(raw sql.NullString) (*domain.AttemptID, error) {
	if !raw.Valid {
		return nil, nil
	}
	id, err := domain.ParseAttemptID(raw.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
