package pipeline

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"registrar/internal/registration/models"
	"registrar/pkg/domain"
)

// Backend is the upstream records service as the pipeline sees it.
type Backend interface {
	CreatePerson(ctx context.Context, person models.Person) (domain.PersonID, error)
	CreateRoleRecord(ctx context.Context, role models.RoleRecord) error
	EnrollBiometric(ctx context.Context, capture models.Capture) error
}
