//go:build integration

// Package containers starts throwaway backing services for integration suites.
// Suites own the returned handles and terminate them in TearDownSuite.
package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// abort tears down a half-started container and fails the test.
func abort(t *testing.T, ctx context.Context, c testcontainers.Container, format string, args ...any) {
	t.Helper()
	if c != nil {
		_ = c.Terminate(ctx)
	}
	t.Fatalf(format, args...)
}
