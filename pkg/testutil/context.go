package testutil

import (
	"net/http"

	"registrar/pkg/requestcontext"
)

// WithOperator adds operator client metadata the way the metadata middleware does.
func WithOperator(req *http.Request, clientIP, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent))
}

// Authorized sets the Authorization header routers expect.
func Authorized(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Token "+token)
	return req
}
