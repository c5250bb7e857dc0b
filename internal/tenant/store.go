package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/saasplatform/internal/models"
)

type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	Create(ctx context.Context, t *models.Tenant) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

const tenantColumns = `id, subdomain, name, subscription_tier, quota_limit, is_active, created_at, updated_at`

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	row := s.db.QueryRow(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE id = $1", id)
	t, err := scanTenant(row)
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

func (s *PGStore) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	row := s.db.QueryRow(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE subdomain = $1", subdomain)
	t, err := scanTenant(row)
	if err != nil {
		return nil, fmt.Errorf("get tenant by subdomain: %w", err)
	}
	return t, nil
}

func (s *PGStore) Create(ctx context.Context, t *models.Tenant) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO tenants (subdomain, name, subscription_tier, quota_limit, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		t.Subdomain, t.Name, t.SubscriptionTier, t.QuotaLimit, t.IsActive,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSubdomainTaken
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (s *PGStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE tenants SET is_active = $2, updated_at = now() WHERE id = $1", id, active)
	if err != nil {
		return fmt.Errorf("set tenant active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(&t.ID, &t.Subdomain, &t.Name, &t.SubscriptionTier, &t.QuotaLimit,
		&t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}
