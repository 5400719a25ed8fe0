package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"registrar/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"first forwarded hop", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "127.0.0.1:1", "10.0.0.1"},
		{"real ip header", map[string]string{"X-Real-IP": " 10.0.0.9 "}, "127.0.0.1:1", "10.0.0.9"},
		{"ipv4 remote addr", nil, "192.168.1.4:5050", "192.168.1.4"},
		{"ipv6 remote addr", nil, "[::1]:5050", "::1"},
		{"spoofed forwarded value falls back", map[string]string{"X-Forwarded-For": "<script>, 10.0.0.2"}, "192.168.1.4:5050", "192.168.1.4"},
		{"ipv4-mapped forwarded hop", map[string]string{"X-Forwarded-For": "::ffff:10.0.0.7"}, "127.0.0.1:1", "10.0.0.7"},
		{"remote addr without port", nil, "192.168.1.9", "192.168.1.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(req))
		})
	}
}

func TestClientMetadataMiddleware(t *testing.T) {
	var gotIP, gotUA string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/registrations/pdl", nil)
	req.RemoteAddr = "10.1.1.1:443"
	req.Header.Set("User-Agent", "Mozilla/5.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "10.1.1.1", gotIP)
	assert.Equal(t, "Mozilla/5.0", gotUA)
}
