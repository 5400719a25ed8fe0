package handler

import (
	"encoding/json"
	"time"

	"registrar/internal/registration/journal"
	"registrar/internal/registration/models"
	"registrar/internal/registration/report"
	"registrar/internal/registration/service"
	"registrar/pkg/domain"
)

// registrationRequest is the body of POST /registrations/{role}.
type registrationRequest struct {
	Person        models.Person     `json:"person"`
	Role          json.RawMessage   `json:"role"`
	Captures      []models.Capture  `json:"captures"`
	PersonID      domain.PersonID   `json:"person_id,omitempty"`
	ResumeAttempt *domain.AttemptID `json:"resume_attempt,omitempty"`
}

func (req registrationRequest) toRegistration(kind domain.RoleKind) (models.Registration, error) {
	role, err := models.DecodeRole(kind, req.Role)
	if err != nil {
		return models.Registration{}, err
	}
	return models.Registration{
		Person:   req.Person,
		Role:     role,
		Captures: req.Captures,
	}, nil
}

func (req registrationRequest) toServiceRequest(kind domain.RoleKind) (service.Request, error) {
	reg, err := req.toRegistration(kind)
	if err != nil {
		return service.Request{}, err
	}
	return service.Request{
		Registration:  reg,
		PersonID:      req.PersonID,
		ResumeAttempt: req.ResumeAttempt,
	}, nil
}

type stepResponse struct {
	Step       string          `json:"step"`
	Position   models.Position `json:"position,omitempty"`
	Succeeded  bool            `json:"succeeded"`
	Skipped    bool            `json:"skipped,omitempty"`
	Message    string          `json:"message,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

type registrationResponse struct {
	AttemptID   domain.AttemptID  `json:"attempt_id"`
	ResumedFrom *domain.AttemptID `json:"resumed_from,omitempty"`
	Role        domain.RoleKind   `json:"role"`
	Status      string            `json:"status"`
	Message     string            `json:"message"`
	Details     []report.Detail   `json:"details,omitempty"`
	PersonID    domain.PersonID   `json:"person_id"`
	Steps       []stepResponse    `json:"steps"`
}

func toResponse(out service.Outcome) registrationResponse {
	resp := registrationResponse{
		AttemptID:   out.Result.AttemptID,
		ResumedFrom: out.Entry.ResumedFrom,
		Role:        out.Result.Role,
		Status:      string(out.Result.Status),
		Message:     out.Message.Text,
		Details:     out.Message.Details,
		PersonID:    out.Result.PersonID,
		Steps:       make([]stepResponse, 0, len(out.Result.Outcomes)),
	}
	for _, o := range out.Result.Outcomes {
		step := stepResponse{
			Step:       o.Step,
			Position:   o.Position,
			Succeeded:  o.Succeeded(),
			Skipped:    o.Skipped,
			DurationMS: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			step.Message = report.MessageOf(o.Err)
		}
		resp.Steps = append(resp.Steps, step)
	}
	return resp
}

// attemptResponse is a journaled attempt as returned by GET /registrations/{attemptID}.
type attemptResponse struct {
	AttemptID    domain.AttemptID           `json:"attempt_id"`
	ResumedFrom  *domain.AttemptID          `json:"resumed_from,omitempty"`
	SupersededBy *domain.AttemptID          `json:"superseded_by,omitempty"`
	Role         domain.RoleKind            `json:"role"`
	Status       string                     `json:"status"`
	Message      string                     `json:"message"`
	PersonID     domain.PersonID            `json:"person_id"`
	Steps        []journal.StepRecord       `json:"steps"`
	Digests      map[models.Position]string `json:"capture_digests,omitempty"`
	Device       string                     `json:"device,omitempty"`
	Resumable    bool                       `json:"resumable"`
	CreatedAt    time.Time                  `json:"created_at"`
}

func toAttemptResponse(e journal.Entry) attemptResponse {
	return attemptResponse{
		AttemptID:    e.AttemptID,
		ResumedFrom:  e.ResumedFrom,
		SupersededBy: e.SupersededBy,
		Role:         e.Role,
		Status:       string(e.Status),
		Message:      e.Message,
		PersonID:     e.PersonID,
		Steps:        e.Steps,
		Digests:      e.CaptureDigests,
		Device:       e.Device,
		Resumable:    e.Resumable(),
		CreatedAt:    e.CreatedAt,
	}
}
