package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/saasplatform/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrMemberNotFound    = errors.New("user is not a member of this tenant")
	ErrAlreadyMember     = errors.New("user is already a member of this tenant")
	ErrEmailTaken        = errors.New("email already registered")
	ErrLastAdministrator = errors.New("cannot remove the last administrator")
)

type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	// ClaimUser replaces a pending placeholder's external id once the
	// invited person signs up.
	ClaimUser(ctx context.Context, id uuid.UUID, externalID, name string) error

	AddMember(ctx context.Context, m *models.Membership) error
	GetMember(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error)
	ListMembers(ctx context.Context, tenantID uuid.UUID) ([]models.Member, error)
	RemoveMember(ctx context.Context, tenantID, userID uuid.UUID) error
	CountRole(ctx context.Context, tenantID uuid.UUID, role models.UserRole) (int, error)
}
