package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/registration/journal"
	"registrar/internal/registration/models"
	"registrar/internal/registration/pipeline"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

func setupMockJournalDB(t *testing.T) (sqlmock.Sqlmock, *Store) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return mock, New(db)
}

func sampleEntry() journal.Entry {
	return journal.Entry{
		AttemptID: domain.NewAttemptID(),
		Role:      domain.RoleVisitor,
		PersonID:  "101",
		Status:    pipeline.StatusPartialFailure,
		Message:   "Some enrollment steps failed",
		Steps: []journal.StepRecord{
			{Step: "create_person", Kind: "create_person", Succeeded: true},
			{Step: "enroll_biometric:face", Kind: "enroll_biometric", Position: models.PositionFace, Error: "rejected"},
		},
		CaptureDigests: map[models.Position]string{models.PositionFace: "ab12"},
		OperatorIP:     "10.0.0.1",
		Device:         "Chrome 120 on Windows 10",
		RequestID:      "req-9",
		CreatedAt:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSave(t *testing.T) {
	mock, store := setupMockJournalDB(t)
	e := sampleEntry()

	mock.ExpectExec(`INSERT INTO registration_attempts`).
		WithArgs(
			e.AttemptID.String(), sqlmock.AnyArg(), "visitor", "101", "partial_failure",
			e.Message, sqlmock.AnyArg(), []byte(`{"face":"ab12"}`), "10.0.0.1",
			e.Device, "req-9", e.CreatedAt, nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), e))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSupersededAttempt(t *testing.T) {
	mock, store := setupMockJournalDB(t)
	next := domain.NewAttemptID()
	e := sampleEntry().Supersede(next)

	mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE SET(.|\n)*superseded_by = EXCLUDED.superseded_by`).
		WithArgs(
			e.AttemptID.String(), sqlmock.AnyArg(), "visitor", "101", "partial_failure",
			e.Message, sqlmock.AnyArg(), sqlmock.AnyArg(), "10.0.0.1",
			e.Device, "req-9", e.CreatedAt, next.String(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), e))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	mock, store := setupMockJournalDB(t)
	e := sampleEntry()
	parent := domain.NewAttemptID()
	steps, err := json.Marshal(e.Steps)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{
		"id", "resumed_from", "role", "person_id", "status", "message",
		"steps", "capture_digests", "operator_ip", "device", "request_id", "created_at",
		"superseded_by",
	}).AddRow(
		e.AttemptID.String(), parent.String(), "visitor", "101", "partial_failure", e.Message,
		steps, []byte(`{"face":"ab12"}`), e.OperatorIP, e.Device, e.RequestID, e.CreatedAt,
		nil,
	)
	mock.ExpectQuery(`SELECT`).WithArgs(e.AttemptID.String()).WillReturnRows(rows)

	got, err := store.Get(context.Background(), e.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, e.AttemptID, got.AttemptID)
	require.NotNil(t, got.ResumedFrom)
	assert.Equal(t, parent, *got.ResumedFrom)
	assert.Equal(t, pipeline.StatusPartialFailure, got.Status)
	assert.Equal(t, e.Steps, got.Steps)
	assert.Equal(t, e.CaptureDigests, got.CaptureDigests)
	assert.Equal(t, map[string]bool{"create_person": true}, got.Completed())
	assert.Nil(t, got.SupersededBy)
	assert.True(t, got.Resumable())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	mock, store := setupMockJournalDB(t)
	id := domain.NewAttemptID()
	mock.ExpectQuery(`SELECT`).WithArgs(id.String()).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Get(context.Background(), id)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	mock, store := setupMockJournalDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS registration_attempts`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
