package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"registrar/internal/registration/journal"
	journalmem "registrar/internal/registration/journal/store/memory"
	"registrar/internal/registration/models"
	"registrar/internal/registration/pipeline"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/audit"
	auditmem "registrar/pkg/platform/audit/store/memory"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

type runnerFunc func(ctx context.Context, sub pipeline.Submission) pipeline.Result

func (f runnerFunc) Run(ctx context.Context, sub pipeline.Submission) pipeline.Result {
	return f(ctx, sub)
}

type failingJournal struct{ journal.Store }

func (failingJournal) Save(context.Context, journal.Entry) error { return errors.New("disk full") }

type ServiceSuite struct {
	suite.Suite
	journal *journalmem.InMemoryStore
	audit   *auditmem.InMemoryStore
	last    pipeline.Submission
	result  func(pipeline.Submission) pipeline.Result
	svc     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.journal = journalmem.New()
	s.audit = auditmem.NewInMemoryStore()
	s.result = func(sub pipeline.Submission) pipeline.Result {
		return pipeline.Result{
			AttemptID: sub.AttemptID,
			Role:      sub.Registration.Role.Kind(),
			Status:    pipeline.StatusSuccess,
			PersonID:  "101",
			Outcomes: []pipeline.Outcome{
				{Step: "create_person", Kind: pipeline.StepCreatePerson},
				{Step: "create_role_record", Kind: pipeline.StepCreateRoleRecord},
			},
		}
	}
	runner := runnerFunc(func(_ context.Context, sub pipeline.Submission) pipeline.Result {
		s.last = sub
		return s.result(sub)
	})
	s.svc = New(runner, s.journal,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditor(emitterFunc(s.audit.Append)),
		WithRecorder(journal.NewRecorder(journal.WithRegulatedMode(true))),
	)
}

type emitterFunc func(context.Context, audit.Event) error

func (f emitterFunc) Emit(ctx context.Context, e audit.Event) error { return f(ctx, e) }

func (s *ServiceSuite) registration() models.Registration {
	return models.Registration{
		Person: models.Person{FirstName: "Juan", LastName: "Dela Cruz"},
		Role:   models.Visitor{VisitorTypeID: 2},
		Captures: []models.Capture{
			{Position: models.PositionFace, UploadData: "face"},
		},
	}
}

func (s *ServiceSuite) actions(id domain.AttemptID) []string {
	events, err := s.audit.ListByAttempt(context.Background(), id.String())
	s.Require().NoError(err)
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

// =============================================================================
// Register
// =============================================================================

func (s *ServiceSuite) TestRegisterJournalsAndAudits() {
	ctx := requestcontext.WithClientMetadata(context.Background(), "10.0.0.9", "")
	out, err := s.svc.Register(ctx, Request{Registration: s.registration()})
	s.Require().NoError(err)

	s.Equal(pipeline.StatusSuccess, out.Result.Status)
	s.Equal("Successfully registered", out.Message.Text)

	stored, err := s.journal.Get(ctx, out.Result.AttemptID)
	s.Require().NoError(err)
	s.Equal(domain.PersonID("101"), stored.PersonID)
	s.Empty(stored.OperatorIP)
	s.Len(stored.CaptureDigests, 1)

	s.Equal([]string{"registration_attempted", "person_created", "registration_settled"}, s.actions(out.Result.AttemptID))
}

func (s *ServiceSuite) TestValidationFailureIsRejectedEvent() {
	s.result = func(sub pipeline.Submission) pipeline.Result {
		return pipeline.Result{
			AttemptID: sub.AttemptID,
			Status:    pipeline.StatusFailure,
			Err:       dErrors.Validation([]dErrors.FieldError{{Field: "person.gender_id", Message: "is required"}}),
		}
	}
	out, err := s.svc.Register(context.Background(), Request{Registration: s.registration()})
	s.Require().NoError(err)

	s.Equal(pipeline.StatusFailure, out.Result.Status)
	s.Equal([]string{"registration_attempted", "registration_rejected"}, s.actions(out.Result.AttemptID))
}

func (s *ServiceSuite) TestJournalFailureStillReturnsResult() {
	svc := New(runnerFunc(func(_ context.Context, sub pipeline.Submission) pipeline.Result {
		return s.result(sub)
	}), failingJournal{}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	out, err := svc.Register(context.Background(), Request{Registration: s.registration()})
	s.Require().NoError(err)
	s.Equal(pipeline.StatusSuccess, out.Result.Status)
}

// =============================================================================
// Resume
// =============================================================================

func (s *ServiceSuite) seedPartial() journal.Entry {
	prior := journal.Entry{
		AttemptID: domain.NewAttemptID(),
		Role:      domain.RoleVisitor,
		PersonID:  "101",
		Status:    pipeline.StatusPartialFailure,
		Steps: []journal.StepRecord{
			{Step: "create_person", Succeeded: true},
			{Step: "create_role_record", Succeeded: true},
			{Step: "enroll_biometric:face", Error: "rejected"},
		},
	}
	s.Require().NoError(s.journal.Save(context.Background(), prior))
	return prior
}

func (s *ServiceSuite) TestResumeCarriesCompletedSteps() {
	prior := s.seedPartial()

	out, err := s.svc.Register(context.Background(), Request{
		Registration:  s.registration(),
		ResumeAttempt: &prior.AttemptID,
	})
	s.Require().NoError(err)

	s.Equal(domain.PersonID("101"), s.last.PersonID)
	s.Equal(map[string]bool{"create_person": true, "create_role_record": true}, s.last.Completed)
	s.Require().NotNil(out.Entry.ResumedFrom)
	s.Equal(prior.AttemptID, *out.Entry.ResumedFrom)
	s.Equal("registration_resumed", s.actions(out.Result.AttemptID)[0])
}

func (s *ServiceSuite) TestResumeSupersedesPriorAttempt() {
	prior := s.seedPartial()
	s.result = func(sub pipeline.Submission) pipeline.Result {
		return pipeline.Result{
			AttemptID: sub.AttemptID,
			Role:      domain.RoleVisitor,
			Status:    pipeline.StatusPartialFailure,
			PersonID:  sub.PersonID,
			Resumed:   true,
			Outcomes: []pipeline.Outcome{
				{Step: "create_person", Kind: pipeline.StepCreatePerson, Skipped: true},
				{Step: "enroll_biometric:face", Kind: pipeline.StepEnrollBiometric, Position: models.PositionFace, Err: errors.New("blurry")},
			},
		}
	}

	out, err := s.svc.Register(context.Background(), Request{Registration: s.registration(), ResumeAttempt: &prior.AttemptID})
	s.Require().NoError(err)

	stored, err := s.journal.Get(context.Background(), prior.AttemptID)
	s.Require().NoError(err)
	s.False(stored.Resumable())
	s.Require().NotNil(stored.SupersededBy)
	s.Equal(out.Result.AttemptID, *stored.SupersededBy)

	_, err = s.svc.Register(context.Background(), Request{Registration: s.registration(), ResumeAttempt: &prior.AttemptID})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "a resumed attempt continues through its successor")

	s.True(out.Entry.Resumable())
	s.Equal(map[string]bool{"create_person": true, "create_role_record": true}, out.Entry.Completed(),
		"the successor carries the role record that landed in the prior attempt")

	_, err = s.svc.Register(context.Background(), Request{Registration: s.registration(), ResumeAttempt: &out.Result.AttemptID})
	s.Require().NoError(err)
	s.Equal(map[string]bool{"create_person": true, "create_role_record": true}, s.last.Completed)
}

func (s *ServiceSuite) TestRejectedResumeKeepsPriorResumable() {
	prior := s.seedPartial()
	s.result = func(sub pipeline.Submission) pipeline.Result {
		return pipeline.Result{
			AttemptID: sub.AttemptID,
			Status:    pipeline.StatusFailure,
			Err:       dErrors.Validation([]dErrors.FieldError{{Field: "role.visitor_type_id", Message: "is required"}}),
		}
	}

	_, err := s.svc.Register(context.Background(), Request{Registration: s.registration(), ResumeAttempt: &prior.AttemptID})
	s.Require().NoError(err)

	stored, err := s.journal.Get(context.Background(), prior.AttemptID)
	s.Require().NoError(err)
	s.True(stored.Resumable())
	s.Nil(stored.SupersededBy)
}

func (s *ServiceSuite) TestResumeRejections() {
	prior := s.seedPartial()
	unknown := domain.NewAttemptID()

	_, err := s.svc.Register(context.Background(), Request{Registration: s.registration(), ResumeAttempt: &unknown})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.svc.Register(context.Background(), Request{
		Registration:  s.registration(),
		PersonID:      "999",
		ResumeAttempt: &prior.AttemptID,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	reg := s.registration()
	reg.Role = models.PDL{}
	_, err = s.svc.Register(context.Background(), Request{Registration: reg, ResumeAttempt: &prior.AttemptID})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	done := prior
	done.AttemptID = domain.NewAttemptID()
	done.Status = pipeline.StatusSuccess
	s.Require().NoError(s.journal.Save(context.Background(), done))
	_, err = s.svc.Register(context.Background(), Request{Registration: s.registration(), ResumeAttempt: &done.AttemptID})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

// =============================================================================
// Attempt
// =============================================================================

func (s *ServiceSuite) TestAttempt() {
	prior := s.seedPartial()
	got, err := s.svc.Attempt(context.Background(), prior.AttemptID)
	s.Require().NoError(err)
	s.Equal(prior.PersonID, got.PersonID)

	_, err = s.svc.Attempt(context.Background(), domain.NewAttemptID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.False(errors.Is(err, sentinel.ErrNotFound))
}
