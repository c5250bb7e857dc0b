package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/models"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
)

type TenantGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type InviteRequest struct {
	Email string          `json:"email" validate:"required,email,max=255"`
	Role  models.UserRole `json:"role" validate:"required,oneof=ADMINISTRATOR EDITOR VIEWER"`
}

// InviteResult reports the membership created by an invitation.
// ExistingUser is false when a pending placeholder had to be created.
type InviteResult struct {
	UserID       uuid.UUID       `json:"userId"`
	TenantID     uuid.UUID       `json:"tenantId"`
	Email        string          `json:"email"`
	Role         models.UserRole `json:"role"`
	InvitedBy    *uuid.UUID      `json:"invitedBy,omitempty"`
	InvitedAt    time.Time       `json:"invitedAt"`
	ExistingUser bool            `json:"existingUser"`
}

// ProvisionRequest comes from the identity provider's sign-up hook.
type ProvisionRequest struct {
	ExternalID string `json:"cognitoUserId" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Name       string `json:"name" validate:"max=255"`
}

// Service manages platform users and their tenant memberships. Calls
// scoped to a tenant refuse to act on any tenant other than the one the
// request resolved to.
type Service struct {
	store   Store
	tenants TenantGetter
	current tenant.Provider
	log     *zap.Logger
}

func NewService(store Store, tenants TenantGetter, current tenant.Provider, log *zap.Logger) *Service {
	return &Service{store: store, tenants: tenants, current: current, log: log}
}

func (s *Service) scope(ctx context.Context, tenantID uuid.UUID) error {
	if s.current != nil {
		if id, ok := s.current.TenantID(ctx); ok && id != tenantID {
			return tenant.ErrTenantNotFound
		}
	}
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return err
	}
	return nil
}

// Provision records a user who completed sign-up. It is idempotent on the
// external id. A pending placeholder created by an invitation for the same
// email is claimed instead of duplicated.
func (s *Service) Provision(ctx context.Context, req ProvisionRequest) (*models.User, bool, error) {
	if u, err := s.store.GetUserByExternalID(ctx, req.ExternalID); err == nil {
		return u, false, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	email := normalizeEmail(req.Email)
	existing, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing.Pending():
		if err := s.store.ClaimUser(ctx, existing.ID, req.ExternalID, req.Name); err != nil {
			return nil, false, err
		}
		existing.ExternalID = req.ExternalID
		if req.Name != "" {
			existing.Name = req.Name
		}
		s.log.Info("claimed invited user", zap.String("user_id", existing.ID.String()))
		return existing, true, nil
	case err == nil:
		return nil, false, ErrEmailTaken
	case !errors.Is(err, ErrUserNotFound):
		return nil, false, err
	}

	u := &models.User{ExternalID: req.ExternalID, Email: email, Name: strings.TrimSpace(req.Name)}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, false, err
	}
	s.log.Info("user provisioned", zap.String("user_id", u.ID.String()))
	return u, true, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

// Invite adds the user with the given email to the tenant, creating a
// pending user when nobody has signed up with it yet. No email is sent.
func (s *Service) Invite(ctx context.Context, tenantID uuid.UUID, req InviteRequest, invitedBy *uuid.UUID) (*InviteResult, error) {
	if !req.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", req.Role)
	}
	if err := s.scope(ctx, tenantID); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	existing := true
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		existing = false
		u = &models.User{
			ExternalID: models.PendingExternalIDPrefix + uuid.NewString(),
			Email:      email,
			Name:       nameFromEmail(email),
		}
		if err := s.store.CreateUser(ctx, u); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	m := &models.Membership{TenantID: tenantID, UserID: u.ID, Role: req.Role, InvitedBy: invitedBy}
	if err := s.store.AddMember(ctx, m); err != nil {
		return nil, err
	}

	s.log.Info("user invited",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", u.ID.String()),
		zap.String("role", string(req.Role)),
		zap.Bool("existing_user", existing))

	return &InviteResult{
		UserID:       u.ID,
		TenantID:     tenantID,
		Email:        email,
		Role:         req.Role,
		InvitedBy:    invitedBy,
		InvitedAt:    m.JoinedAt,
		ExistingUser: existing,
	}, nil
}

func (s *Service) Members(ctx context.Context, tenantID uuid.UUID) ([]models.Member, error) {
	if err := s.scope(ctx, tenantID); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []models.Member{}
	}
	return members, nil
}

// Remove drops a membership. The tenant always keeps one administrator.
func (s *Service) Remove(ctx context.Context, tenantID, userID uuid.UUID) error {
	if err := s.scope(ctx, tenantID); err != nil {
		return err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return err
	}
	m, err := s.store.GetMember(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	if m.Role == models.RoleAdmin {
		admins, err := s.store.CountRole(ctx, tenantID, models.RoleAdmin)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdministrator
		}
	}

	if err := s.store.RemoveMember(ctx, tenantID, userID); err != nil {
		return err
	}
	s.log.Info("user removed from tenant",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// nameFromEmail turns "jane.doe@x.io" into "Jane Doe".
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
