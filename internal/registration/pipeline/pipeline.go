// Package pipeline submits a registration as ordered upstream calls: the
// person first, then the role record and every enrollment concurrently.
// The backend has no transaction API, so the result reports each call and
// settles as success, partial failure or failure.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"registrar/internal/registration/derive"
	"registrar/internal/registration/models"
	"registrar/internal/registration/pipeline/metrics"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/requestcontext"
)

// State is a pipeline phase.
type State string

const (
	StateIdle                         State = "idle"
	StateValidating                   State = "validating"
	StateSubmittingPerson             State = "submitting_person"
	StateSubmittingRoleAndEnrollments State = "submitting_role_and_enrollments"
	StateSettled                      State = "settled"
)

// Status is the settled outcome.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
	StatusFailure        Status = "failure"
)

// DefaultFanoutLimit exceeds the largest possible fan-out (one role record
// plus fourteen enrollments), so every dependent call runs at once.
const DefaultFanoutLimit = 16

// Observer is told about every state change.
type Observer func(ctx context.Context, attemptID domain.AttemptID, from, to State)

// Outcome records one upstream call.
type Outcome struct {
	Step     string          `json:"step"`
	Kind     StepKind        `json:"kind"`
	Position models.Position `json:"position,omitempty"`
	Err      error           `json:"-"`
	Duration time.Duration   `json:"duration_ns"`
	// Skipped marks a step that succeeded in the attempt being resumed.
	Skipped bool `json:"skipped,omitempty"`
}

func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Submission is one call to Run.
type Submission struct {
	AttemptID    domain.AttemptID
	Registration models.Registration
	// PersonID resumes a registration whose person already exists; the
	// person is not created again.
	PersonID domain.PersonID
	// Completed holds step keys that already succeeded and must not be repeated.
	Completed map[string]bool
}

// Resumed reports whether the person creation step is skipped.
func (s Submission) Resumed() bool {
	return s.PersonID != ""
}

// Result is the settled pipeline state.
type Result struct {
	AttemptID domain.AttemptID
	Role      domain.RoleKind
	Status    Status
	PersonID  domain.PersonID
	// Err is set when validation or person creation failed.
	Err error
	// Outcomes lists every call made or skipped, person first, then the
	// dependent steps in plan order.
	Outcomes []Outcome
	Resumed  bool
}

// Dependent returns the outcomes of the calls that follow person creation.
func (r Result) Dependent() []Outcome {
	out := make([]Outcome, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Kind != StepCreatePerson {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the outcomes that did not succeed.
func (r Result) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// IsValidationFailure reports whether the registration never reached the network.
func (r Result) IsValidationFailure() bool {
	return r.Err != nil && dErrors.HasCode(r.Err, dErrors.CodeValidation)
}

type Pipeline struct {
	backend     Backend
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	observer    Observer
	fanoutLimit int
	callTimeout time.Duration
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// WithFanoutLimit bounds concurrent dependent calls. Non-positive values are ignored.
func WithFanoutLimit(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.fanoutLimit = n
		}
	}
}

// WithCallTimeout bounds each upstream call once it is detached from the caller.
func WithCallTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.callTimeout = d
		}
	}
}

func New(backend Backend, opts ...Option) *Pipeline {
	p := &Pipeline{
		backend:     backend,
		logger:      slog.Default(),
		tracer:      otel.Tracer("registrar/pipeline"),
		fanoutLimit: DefaultFanoutLimit,
		callTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Run drives one submission from Idle to Settled. It never returns early on
// a dependent call failure; the result carries every outcome.
func (p *Pipeline) Run(ctx context.Context, sub Submission) Result {
	if sub.AttemptID.IsNil() {
		sub.AttemptID = domain.NewAttemptID()
	}
	reg := sub.Registration
	res := Result{AttemptID: sub.AttemptID, Resumed: sub.Resumed()}
	if reg.Role != nil {
		res.Role = reg.Role.Kind()
	}

	ctx, span := p.tracer.Start(ctx, "registration.run", trace.WithAttributes(
		attribute.String("attempt_id", sub.AttemptID.String()),
		attribute.String("role", res.Role.String()),
		attribute.Bool("resumed", res.Resumed),
	))
	defer span.End()

	p.metrics.IncInFlight()
	defer p.metrics.DecInFlight()

	state := StateIdle
	move := func(to State) {
		if p.observer != nil {
			p.observer(ctx, sub.AttemptID, state, to)
		}
		state = to
	}
	settle := func(status Status) Result {
		move(StateSettled)
		res.Status = status
		p.metrics.IncSettled(res.Role.String(), string(status))
		span.SetAttributes(attribute.String("status", string(status)))
		if status != StatusSuccess {
			span.SetStatus(codes.Error, string(status))
		}
		p.logger.InfoContext(ctx, "registration settled",
			"attempt_id", sub.AttemptID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"role", res.Role.String(),
			"status", string(status),
			"person_id", res.PersonID.String(),
			"failed_steps", len(res.Failed()),
		)
		return res
	}

	move(StateValidating)
	reg.Person = derive.Normalize(reg.Person)
	var err error
	if sub.Resumed() {
		err = reg.ValidateDependents()
	} else {
		err = reg.Validate()
	}
	if err != nil {
		res.Err = err
		return settle(StatusFailure)
	}

	// Upstream calls outlive the inbound request: a client that goes away
	// must not abort enrollments already on the wire.
	callCtx := context.WithoutCancel(ctx)

	if sub.Resumed() {
		res.PersonID = sub.PersonID
		res.Outcomes = append(res.Outcomes, Outcome{Step: string(StepCreatePerson), Kind: StepCreatePerson, Skipped: true})
	} else {
		move(StateSubmittingPerson)
		start := time.Now()
		personID, err := p.createPerson(callCtx, reg.Person)
		out := Outcome{Step: string(StepCreatePerson), Kind: StepCreatePerson, Err: err, Duration: time.Since(start)}
		res.Outcomes = append(res.Outcomes, out)
		if err != nil {
			res.Err = err
			return settle(StatusFailure)
		}
		res.PersonID = personID
	}

	move(StateSubmittingRoleAndEnrollments)
	steps := Plan(res.PersonID, reg.Role, reg.Captures)
	pending, skipped := WithoutCompleted(steps, sub.Completed)
	for _, s := range skipped {
		res.Outcomes = append(res.Outcomes, Outcome{Step: s.Key(), Kind: s.Kind, Position: s.Capture.Position, Skipped: true})
	}

	started := make([]time.Time, len(pending))
	durations := make([]time.Duration, len(pending))
	errs := FanOut(callCtx, indexes(len(pending)), p.fanoutLimit, func(ctx context.Context, i int) error {
		started[i] = time.Now()
		err := p.runStep(ctx, pending[i])
		durations[i] = time.Since(started[i])
		return err
	})
	for i, s := range pending {
		res.Outcomes = append(res.Outcomes, Outcome{
			Step:     s.Key(),
			Kind:     s.Kind,
			Position: s.Capture.Position,
			Err:      errs[i],
			Duration: durations[i],
		})
	}

	return settle(classify(res.Dependent()))
}

// classify settles the dependent outcomes. It only runs once the person
// exists upstream, so any failure is partial: the operator resumes with the
// person id instead of resubmitting and duplicating the person. Steps skipped
// on resume count as succeeded because their records exist upstream.
func classify(outcomes []Outcome) Status {
	for _, o := range outcomes {
		if !o.Succeeded() {
			return StatusPartialFailure
		}
	}
	return StatusSuccess
}

func (p *Pipeline) createPerson(ctx context.Context, person models.Person) (domain.PersonID, error) {
	ctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	ctx, span := p.tracer.Start(ctx, "registration.create_person")
	defer span.End()

	start := time.Now()
	id, err := p.backend.CreatePerson(ctx, person)
	if err == nil && id == "" {
		err = dErrors.New(dErrors.CodeBackendRejected, "backend returned no person id")
	}
	p.metrics.ObserveStep(string(StepCreatePerson), time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create person failed")
	}
	return id, err
}

func (p *Pipeline) runStep(ctx context.Context, step Step) error {
	ctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	ctx, span := p.tracer.Start(ctx, "registration."+string(step.Kind), trace.WithAttributes(
		attribute.String("step", step.Key()),
	))
	defer span.End()

	start := time.Now()
	var err error
	switch step.Kind {
	case StepCreateRoleRecord:
		err = p.backend.CreateRoleRecord(ctx, step.Role)
	case StepEnrollBiometric:
		err = p.backend.EnrollBiometric(ctx, step.Capture)
	default:
		err = dErrors.New(dErrors.CodeInvariantViolation, "unknown step "+string(step.Kind))
	}
	p.metrics.ObserveStep(string(step.Kind), time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, step.Key()+" failed")
		p.logger.WarnContext(ctx, "registration step failed",
			"step", step.Key(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	return err
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
