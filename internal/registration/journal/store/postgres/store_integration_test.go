//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/testutil/containers"
)

type JournalIntegrationSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Store
}

func TestJournalIntegrationSuite(t *testing.T) {
	suite.Run(t, new(JournalIntegrationSuite))
}

func (s *JournalIntegrationSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = New(s.pg.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *JournalIntegrationSuite) TearDownSuite() {
	_ = s.pg.DB.Close()
	_ = s.pg.Container.Terminate(context.Background())
}

func (s *JournalIntegrationSuite) TestRoundTrip() {
	ctx := context.Background()
	e := sampleEntry()
	s.Require().NoError(s.store.Save(ctx, e))

	got, err := s.store.Get(ctx, e.AttemptID)
	s.Require().NoError(err)
	s.Equal(e.PersonID, got.PersonID)
	s.Equal(e.Steps, got.Steps)
	s.Equal(e.CaptureDigests, got.CaptureDigests)
	s.True(e.CreatedAt.Equal(got.CreatedAt))
}

func (s *JournalIntegrationSuite) TestSaveReplacesStatus() {
	ctx := context.Background()
	e := sampleEntry()
	s.Require().NoError(s.store.Save(ctx, e))
	e.Status = "success"
	s.Require().NoError(s.store.Save(ctx, e))

	got, err := s.store.Get(ctx, e.AttemptID)
	s.Require().NoError(err)
	s.Equal(e.Status, got.Status)
}

func (s *JournalIntegrationSuite) TestSupersedeMarksAttemptFinal() {
	ctx := context.Background()
	e := sampleEntry()
	s.Require().NoError(s.store.Save(ctx, e))

	next := domain.NewAttemptID()
	s.Require().NoError(s.store.Save(ctx, e.Supersede(next)))

	got, err := s.store.Get(ctx, e.AttemptID)
	s.Require().NoError(err)
	s.Require().NotNil(got.SupersededBy)
	s.Equal(next, *got.SupersededBy)
	s.False(got.Resumable())
}

func (s *JournalIntegrationSuite) TestUnknownAttempt() {
	_, err := s.store.Get(context.Background(), domain.NewAttemptID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
