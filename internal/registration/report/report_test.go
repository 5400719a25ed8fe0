package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/backend"
	"registrar/internal/registration/models"
	"registrar/internal/registration/pipeline"
	dErrors "registrar/pkg/domain-errors"
)

func TestReport(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		msg := Report(pipeline.Result{Status: pipeline.StatusSuccess, PersonID: "101"})
		assert.Equal(t, "Successfully registered", msg.Text)
		assert.Empty(t, msg.Details)
	})

	t.Run("partial failure lists failed steps", func(t *testing.T) {
		msg := Report(pipeline.Result{
			Status: pipeline.StatusPartialFailure,
			Outcomes: []pipeline.Outcome{
				{Step: "create_person", Kind: pipeline.StepCreatePerson},
				{Step: "enroll_biometric:face", Kind: pipeline.StepEnrollBiometric},
				{
					Step:     "enroll_biometric:iris_left",
					Kind:     pipeline.StepEnrollBiometric,
					Position: models.PositionIrisLeft,
					Err:      &backend.Error{Op: "enroll", Kind: backend.KindDomain, Status: 400, Message: "Image is blurry."},
				},
			},
		})
		assert.Equal(t, "Some enrollment steps failed", msg.Text)
		require.Len(t, msg.Details, 1)
		assert.Equal(t, "enroll_biometric:iris_left", msg.Details[0].Step)
		assert.Equal(t, "Image is blurry.", msg.Details[0].Message)
	})

	t.Run("validation failure carries the field list", func(t *testing.T) {
		err := dErrors.Validation([]dErrors.FieldError{{Field: "person.gender_id", Message: "is required"}})
		msg := Report(pipeline.Result{Status: pipeline.StatusFailure, Err: err})
		assert.Equal(t, "missing or invalid fields: person.gender_id", msg.Text)
		require.Len(t, msg.Details, 1)
		assert.Equal(t, "person.gender_id", msg.Details[0].Field)
	})

	t.Run("backend failure uses the extracted message", func(t *testing.T) {
		err := &backend.Error{
			Op:      "create person",
			Kind:    backend.KindDomain,
			Status:  400,
			Message: backend.ExtractMessage([]byte(`{"email": ["This field is required."]}`)),
		}
		msg := Report(pipeline.Result{Status: pipeline.StatusFailure, Err: err})
		assert.Equal(t, "This field is required.", msg.Text)
	})

	t.Run("unrecognised failure falls back to the default", func(t *testing.T) {
		msg := Report(pipeline.Result{Status: pipeline.StatusFailure, Err: errors.New("dial tcp: refused")})
		assert.Equal(t, backend.DefaultMessage, msg.Text)
	})

	t.Run("every dependent step failed", func(t *testing.T) {
		msg := Report(pipeline.Result{
			Status:   pipeline.StatusPartialFailure,
			PersonID: "55",
			Outcomes: []pipeline.Outcome{
				{Step: "create_person", Kind: pipeline.StepCreatePerson},
				{Step: "create_role_record", Kind: pipeline.StepCreateRoleRecord, Err: errors.New("down")},
			},
		})
		assert.Equal(t, pipeline.StatusPartialFailure, msg.Status)
		assert.Equal(t, "Person created but all 1 dependent steps failed", msg.Text)
		assert.NotEqual(t, TextPartialFailure, msg.Text)
		require.Len(t, msg.Details, 1)
		assert.Equal(t, backend.DefaultMessage, msg.Details[0].Message)
	})
}

func TestMessageOf(t *testing.T) {
	assert.Empty(t, MessageOf(nil))
	assert.Equal(t, "backend returned no person id", MessageOf(dErrors.New(dErrors.CodeBackendRejected, "backend returned no person id")))
	assert.Equal(t, backend.DefaultMessage, MessageOf(dErrors.New(dErrors.CodeInternal, "boom")))
}
