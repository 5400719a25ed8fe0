// Package journal records every registration attempt so an operator can see
// what landed upstream and resume the steps that did not.
package journal

import (
	"context"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mssola/useragent"
	"golang.org/x/crypto/blake2b"

	"registrar/internal/registration/models"
	"registrar/internal/registration/pipeline"
	"registrar/pkg/domain"
	"registrar/pkg/requestcontext"
)

// Store persists attempts. Get returns sentinel.ErrNotFound for unknown ids.
type Store interface {
	Save(ctx context.Context, entry Entry) error
	Get(ctx context.Context, id domain.AttemptID) (Entry, error)
}

// StepRecord is one upstream call as it was journaled.
type StepRecord struct {
	Step       string          `json:"step"`
	Kind       string          `json:"kind"`
	Position   models.Position `json:"position,omitempty"`
	Succeeded  bool            `json:"succeeded"`
	Skipped    bool            `json:"skipped,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

// Entry is a journaled attempt. Capture payloads are never stored; only a
// blake2b-256 digest per position is kept.
type Entry struct {
	AttemptID      domain.AttemptID           `json:"attempt_id"`
	ResumedFrom    *domain.AttemptID          `json:"resumed_from,omitempty"`
	SupersededBy   *domain.AttemptID          `json:"superseded_by,omitempty"`
	Role           domain.RoleKind            `json:"role"`
	PersonID       domain.PersonID            `json:"person_id"`
	Status         pipeline.Status            `json:"status"`
	Message        string                     `json:"message"`
	Steps          []StepRecord               `json:"steps"`
	CaptureDigests map[models.Position]string `json:"capture_digests,omitempty"`
	OperatorIP     string                     `json:"operator_ip,omitempty"`
	Device         string                     `json:"device,omitempty"`
	RequestID      string                     `json:"request_id,omitempty"`
	CreatedAt      time.Time                  `json:"created_at"`
}

// Completed returns the keys of steps whose records exist upstream, for
// resuming this attempt.
func (e Entry) Completed() map[string]bool {
	done := make(map[string]bool, len(e.Steps))
	for _, s := range e.Steps {
		if s.Succeeded || s.Skipped {
			done[s.Step] = true
		}
	}
	return done
}

// Resumable reports whether a later submission can continue this attempt.
// Once resumed, an attempt is continued through its successor only.
func (e Entry) Resumable() bool {
	return !e.PersonID.IsZero() && e.Status != pipeline.StatusSuccess && e.SupersededBy == nil
}

// Inherit appends the parent's completed steps that e did not run, marked
// skipped, so e alone lists everything that landed upstream for the person.
func (e Entry) Inherit(parent Entry) Entry {
	have := make(map[string]bool, len(e.Steps))
	for _, s := range e.Steps {
		have[s.Step] = true
	}
	steps := slices.Clone(e.Steps)
	for _, s := range parent.Steps {
		if have[s.Step] || !(s.Succeeded || s.Skipped) {
			continue
		}
		steps = append(steps, StepRecord{Step: s.Step, Kind: s.Kind, Position: s.Position, Skipped: true})
	}
	e.Steps = steps
	return e
}

// Supersede marks e as continued by the attempt next.
func (e Entry) Supersede(next domain.AttemptID) Entry {
	e.SupersededBy = &next
	return e
}

// Recorder builds entries from settled results.
type Recorder struct {
	regulated bool
	now       func() time.Time
}

type RecorderOption func(*Recorder)

// WithRegulatedMode drops the operator IP from every entry.
func WithRegulatedMode(enabled bool) RecorderOption {
	return func(r *Recorder) {
		r.regulated = enabled
	}
}

func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Entry describes res. Operator metadata is read from ctx.
func (r *Recorder) Entry(ctx context.Context, res pipeline.Result, captures []models.Capture, message string) Entry {
	e := Entry{
		AttemptID: res.AttemptID,
		Role:      res.Role,
		PersonID:  res.PersonID,
		Status:    res.Status,
		Message:   message,
		Steps:     make([]StepRecord, 0, len(res.Outcomes)),
		Device:    DeviceSummary(requestcontext.UserAgent(ctx)),
		RequestID: requestcontext.RequestID(ctx),
		CreatedAt: r.now().UTC(),
	}
	if !r.regulated {
		e.OperatorIP = requestcontext.ClientIP(ctx)
	}
	for _, o := range res.Outcomes {
		rec := StepRecord{
			Step:       o.Step,
			Kind:       string(o.Kind),
			Position:   o.Position,
			Succeeded:  o.Succeeded(),
			Skipped:    o.Skipped,
			DurationMS: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			rec.Error = o.Err.Error()
		}
		e.Steps = append(e.Steps, rec)
	}
	for _, c := range captures {
		if !c.Present() {
			continue
		}
		if e.CaptureDigests == nil {
			e.CaptureDigests = make(map[models.Position]string)
		}
		e.CaptureDigests[c.Position] = Digest(c.UploadData)
	}
	return e
}

// Digest is the hex blake2b-256 of a capture payload.
func Digest(payload string) string {
	sum := blake2b.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// DeviceSummary condenses a User-Agent header into "Browser version on OS".
func DeviceSummary(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	ua := useragent.New(header)
	name, version := ua.Browser()
	if name == "" {
		return ""
	}
	summary := name
	if version != "" {
		summary = fmt.Sprintf("%s %s", name, version)
	}
	if os := ua.OS(); os != "" {
		summary += " on " + os
	}
	if ua.Mobile() {
		summary += " (mobile)"
	}
	return summary
}
