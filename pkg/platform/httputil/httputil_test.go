package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "registrar/pkg/domain-errors"
)

type envelope struct {
	Error            string               `json:"error"`
	ErrorDescription *string              `json:"error_description"`
	Fields           []dErrors.FieldError `json:"fields"`
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		code        string
		description string
		fields      []string
	}{
		{
			name:   "internal error hides its description",
			err:    dErrors.New(dErrors.CodeInternal, "journal write failed"),
			status: http.StatusInternalServerError,
			code:   "internal_error",
		},
		{
			name:   "uncoded error is internal",
			err:    errors.New("pq: connection refused"),
			status: http.StatusInternalServerError,
			code:   "internal_error",
		},
		{
			name:        "bad request carries its description",
			err:         dErrors.New(dErrors.CodeBadRequest, "invalid attempt id"),
			status:      http.StatusBadRequest,
			code:        "bad_request",
			description: "invalid attempt id",
		},
		{
			name:        "transport error surfaces as bad gateway",
			err:         fmt.Errorf("lookup genders: %w", dErrors.New(dErrors.CodeTransport, "backend unreachable")),
			status:      http.StatusBadGateway,
			code:        "transport_error",
			description: "lookup genders: backend unreachable",
		},
		{
			name:        "validation lists fields",
			err:         dErrors.Validation([]dErrors.FieldError{{Field: "person.gender_id", Message: "is required"}}),
			status:      http.StatusUnprocessableEntity,
			code:        "validation_error",
			description: "missing or invalid fields: person.gender_id",
			fields:      []string{"person.gender_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body envelope
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Error)
			if tt.description == "" {
				assert.Nil(t, body.ErrorDescription)
			} else {
				require.NotNil(t, body.ErrorDescription)
				assert.Equal(t, tt.description, *body.ErrorDescription)
			}

			var fields []string
			for _, f := range body.Fields {
				fields = append(fields, f.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}
