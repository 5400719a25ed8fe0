package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

const tokenScheme = "Token"

// operatorToken extracts the credential from "Authorization: Token <token>".
// The second result explains a rejection for the log line.
func operatorToken(header string) (string, string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != tokenScheme {
		return "", "unsupported authorization scheme"
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", "empty token"
	}
	return token, ""
}

// RequireToken stores the operator token in the request context. The token is
// opaque here; the records backend accepts or rejects it when the pipeline
// forwards it.
func RequireToken(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, reason := operatorToken(r.Header.Get("Authorization"))
			if token == "" {
				logger.WarnContext(ctx, "rejected unauthenticated request",
					"reason", reason,
					"path", r.URL.Path,
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithToken(ctx, token)))
		})
	}
}
