// Package report turns a settled pipeline result into the message an
// operator sees.
package report

import (
	"errors"
	"fmt"
	"strings"

	"registrar/internal/backend"
	"registrar/internal/registration/pipeline"
	dErrors "registrar/pkg/domain-errors"
)

const (
	TextSuccess        = "Successfully registered"
	TextPartialFailure = "Some enrollment steps failed"
)

// Detail describes one failed step or one invalid field.
type Detail struct {
	Step    string `json:"step,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type Message struct {
	Status  pipeline.Status `json:"status"`
	Text    string          `json:"message"`
	Details []Detail        `json:"details,omitempty"`
}

// Report describes res. It performs no I/O and never retries.
func Report(res pipeline.Result) Message {
	msg := Message{Status: res.Status}
	switch res.Status {
	case pipeline.StatusSuccess:
		msg.Text = TextSuccess
	case pipeline.StatusPartialFailure:
		msg.Text, msg.Details = partial(res)
	default:
		msg.Text, msg.Details = failure(res)
	}
	return msg
}

func failure(res pipeline.Result) (string, []Detail) {
	if res.IsValidationFailure() {
		fields := dErrors.FieldsOf(res.Err)
		details := make([]Detail, 0, len(fields))
		for _, f := range fields {
			details = append(details, Detail{Field: f.Field, Message: f.Message})
		}
		return res.Err.Error(), details
	}
	return MessageOf(res.Err), nil
}

// partial distinguishes "some steps landed" from "only the person landed".
func partial(res pipeline.Result) (string, []Detail) {
	failed := res.Failed()
	details := stepDetails(failed)
	if len(failed) < len(res.Dependent()) {
		return TextPartialFailure, details
	}
	return fmt.Sprintf("Person created but all %d dependent steps failed", len(failed)), details
}

func stepDetails(outcomes []pipeline.Outcome) []Detail {
	details := make([]Detail, 0, len(outcomes))
	for _, o := range outcomes {
		details = append(details, Detail{Step: o.Step, Message: MessageOf(o.Err)})
	}
	return details
}

// MessageOf is the reason shown for err: the backend's own text when it sent
// one, the domain error message otherwise.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if msg := backend.MessageOf(err); msg != backend.DefaultMessage {
		return msg
	}
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code != dErrors.CodeInternal && strings.TrimSpace(de.Message) != "" {
		return de.Message
	}
	return backend.DefaultMessage
}
