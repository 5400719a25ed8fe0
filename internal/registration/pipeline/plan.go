package pipeline

import (
	"registrar/internal/registration/models"
	"registrar/pkg/domain"
)

// StepKind names one kind of upstream call.
type StepKind string

const (
	StepCreatePerson     StepKind = "create_person"
	StepCreateRoleRecord StepKind = "create_role_record"
	StepEnrollBiometric  StepKind = "enroll_biometric"
)

// Step is one call of the dependent fan-out.
type Step struct {
	Kind    StepKind
	Role    models.RoleRecord
	Capture models.Capture
}

// Key identifies the step within one registration, e.g. "enroll_biometric:face".
func (s Step) Key() string {
	if s.Kind == StepEnrollBiometric {
		return string(s.Kind) + ":" + string(s.Capture.Position)
	}
	return string(s.Kind)
}

// Plan lists the calls that follow person creation: one role record and one
// enrollment per capture with data. Captures without data produce no step.
// Plan is pure; it performs no I/O.
func Plan(personID domain.PersonID, role models.RoleRecord, captures []models.Capture) []Step {
	steps := make([]Step, 0, 1+len(captures))
	if role != nil {
		steps = append(steps, Step{Kind: StepCreateRoleRecord, Role: role.WithPerson(personID)})
	}
	for _, c := range captures {
		if !c.Present() {
			continue
		}
		steps = append(steps, Step{Kind: StepEnrollBiometric, Capture: c.ForPerson(personID)})
	}
	return steps
}

// WithoutCompleted drops steps whose key is in done.
func WithoutCompleted(steps []Step, done map[string]bool) (pending []Step, skipped []Step) {
	for _, s := range steps {
		if done[s.Key()] {
			skipped = append(skipped, s)
			continue
		}
		pending = append(pending, s)
	}
	return pending, skipped
}
