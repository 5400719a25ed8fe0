// Package service runs registrations end to end: resume lookup, the
// pipeline, the operator message, the journal and audit events.
package service

import (
	"context"
	"errors"
	"log/slog"

	"registrar/internal/registration/journal"
	"registrar/internal/registration/models"
	"registrar/internal/registration/pipeline"
	"registrar/internal/registration/report"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/audit"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

// Runner executes one submission.
type Runner interface {
	Run(ctx context.Context, sub pipeline.Submission) pipeline.Result
}

// Request is one registration as received from an operator.
type Request struct {
	Registration models.Registration
	// PersonID resumes against a person created by an earlier attempt.
	PersonID domain.PersonID
	// ResumeAttempt skips every step that succeeded in that attempt.
	ResumeAttempt *domain.AttemptID
}

// Outcome is what the caller reports back to the operator.
type Outcome struct {
	Result  pipeline.Result
	Message report.Message
	Entry   journal.Entry
}

type Service struct {
	runner   Runner
	journal  journal.Store
	recorder *journal.Recorder
	auditor  audit.Emitter
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditor(auditor audit.Emitter) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

func WithRecorder(r *journal.Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

func New(runner Runner, store journal.Store, opts ...Option) *Service {
	s := &Service{
		runner:   runner,
		journal:  store,
		recorder: journal.NewRecorder(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register submits req. Dependent step failures are reported in the
// outcome, not as an error; an error means nothing was submitted.
func (s *Service) Register(ctx context.Context, req Request) (Outcome, error) {
	sub := pipeline.Submission{
		AttemptID:    domain.NewAttemptID(),
		Registration: req.Registration,
		PersonID:     req.PersonID,
	}

	var prior *journal.Entry
	if req.ResumeAttempt != nil {
		entry, err := s.resumable(ctx, *req.ResumeAttempt, req)
		if err != nil {
			return Outcome{}, err
		}
		prior = &entry
		sub.PersonID = prior.PersonID
		sub.Completed = prior.Completed()
	}

	action := audit.EventRegistrationAttempted
	if sub.Resumed() {
		action = audit.EventRegistrationResumed
	}
	s.emit(ctx, action, audit.Event{
		AttemptID: sub.AttemptID.String(),
		PersonID:  sub.PersonID.String(),
		Role:      roleOf(req.Registration).String(),
	})

	res := s.runner.Run(ctx, sub)
	msg := report.Report(res)

	entry := s.recorder.Entry(ctx, res, req.Registration.Captures, msg.Text)
	entry.ResumedFrom = req.ResumeAttempt
	continued := prior != nil && !res.IsValidationFailure()
	if continued {
		entry = entry.Inherit(*prior)
	}
	if err := s.journal.Save(ctx, entry); err != nil {
		// The upstream records exist regardless; the operator still gets the result.
		s.logger.ErrorContext(ctx, "failed to journal registration attempt",
			"attempt_id", res.AttemptID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else if continued {
		s.supersede(ctx, *prior, res.AttemptID)
	}

	settled := audit.Event{
		AttemptID: res.AttemptID.String(),
		PersonID:  res.PersonID.String(),
		Role:      res.Role.String(),
		Status:    string(res.Status),
		Reason:    msg.Text,
		ActorIP:   entry.OperatorIP,
	}
	if res.IsValidationFailure() {
		s.emit(ctx, audit.EventRegistrationRejected, settled)
	} else {
		if !res.Resumed && !res.PersonID.IsZero() {
			created := settled
			created.Status, created.Reason = "", ""
			s.emit(ctx, audit.EventPersonCreated, created)
		}
		s.emit(ctx, audit.EventRegistrationSettled, settled)
	}

	return Outcome{Result: res, Message: msg, Entry: entry}, nil
}

// Attempt returns a journaled attempt.
func (s *Service) Attempt(ctx context.Context, id domain.AttemptID) (journal.Entry, error) {
	entry, err := s.journal.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return journal.Entry{}, dErrors.New(dErrors.CodeNotFound, "registration attempt not found")
	}
	if err != nil {
		return journal.Entry{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration attempt")
	}
	return entry, nil
}

func (s *Service) resumable(ctx context.Context, id domain.AttemptID, req Request) (journal.Entry, error) {
	prior, err := s.Attempt(ctx, id)
	if err != nil {
		return journal.Entry{}, err
	}
	if !prior.Resumable() {
		return journal.Entry{}, dErrors.New(dErrors.CodeConflict, "registration attempt cannot be resumed")
	}
	if !req.PersonID.IsZero() && req.PersonID != prior.PersonID {
		return journal.Entry{}, dErrors.New(dErrors.CodeBadRequest, "person id does not match the resumed attempt")
	}
	if role := roleOf(req.Registration); role != "" && role != prior.Role {
		return journal.Entry{}, dErrors.New(dErrors.CodeBadRequest, "role does not match the resumed attempt")
	}
	return prior, nil
}

// supersede retires prior so only its successor can be resumed.
func (s *Service) supersede(ctx context.Context, prior journal.Entry, next domain.AttemptID) {
	if err := s.journal.Save(ctx, prior.Supersede(next)); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark registration attempt superseded",
			"attempt_id", prior.AttemptID.String(),
			"superseded_by", next.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.Action = string(action)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"attempt_id", event.AttemptID,
			"error", err,
		)
	}
}

func roleOf(reg models.Registration) domain.RoleKind {
	if reg.Role == nil {
		return ""
	}
	return reg.Role.Kind()
}
