package user

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

const userColumns = `id, external_id, email, name, created_at, last_login_at`

const pgUniqueViolation = "23505"

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (external_id, email, name) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		u.ExternalID, u.Email, u.Name,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PGStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *PGStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *PGStore) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return s.getUser(ctx, "external_id", externalID)
}

func (s *PGStore) getUser(ctx context.Context, column string, value any) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+column+" = $1", value).
		Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return &u, nil
}

func (s *PGStore) ClaimUser(ctx context.Context, id uuid.UUID, externalID, name string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET external_id = $2, name = COALESCE(NULLIF($3, ''), name) WHERE id = $1`,
		id, externalID, name)
	if err != nil {
		return fmt.Errorf("claim user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PGStore) AddMember(ctx context.Context, m *models.Membership) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO tenant_users (tenant_id, user_id, role, invited_by) VALUES ($1, $2, $3, $4)
		 RETURNING joined_at`,
		m.TenantID, m.UserID, m.Role, m.InvitedBy,
	).Scan(&m.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyMember
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (s *PGStore) GetMember(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := s.db.QueryRow(ctx,
		`SELECT tenant_id, user_id, role, invited_by, joined_at
		 FROM tenant_users WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID,
	).Scan(&m.TenantID, &m.UserID, &m.Role, &m.InvitedBy, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

func (s *PGStore) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]models.Member, error) {
	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.email, u.name, tu.role, tu.invited_by, tu.joined_at, u.last_login_at
		 FROM tenant_users tu JOIN users u ON u.id = tu.user_id
		 WHERE tu.tenant_id = $1
		 ORDER BY tu.joined_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.Name, &m.Role, &m.InvitedBy, &m.JoinedAt, &m.LastLoginAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *PGStore) RemoveMember(ctx context.Context, tenantID, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM tenant_users WHERE tenant_id = $1 AND user_id = $2", tenantID, userID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (s *PGStore) CountRole(ctx context.Context, tenantID uuid.UUID, role models.UserRole) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM tenant_users WHERE tenant_id = $1 AND role = $2", tenantID, role,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count members by role: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
