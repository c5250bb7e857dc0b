package user

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/saasplatform/internal/models"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
)

type memStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*models.User
	members map[uuid.UUID]map[uuid.UUID]*models.Membership
	clock   time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[uuid.UUID]*models.User{},
		members: map[uuid.UUID]map[uuid.UUID]*models.Membership{},
		clock:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *memStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email || existing.ExternalID == u.ExternalID {
			return ErrEmailTaken
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = s.tick()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id })
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Email == email })
}

func (s *memStore) GetUserByExternalID(_ context.Context, externalID string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ExternalID == externalID })
}

func (s *memStore) find(match func(*models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *memStore) ClaimUser(_ context.Context, id uuid.UUID, externalID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.ExternalID = externalID
	if name != "" {
		u.Name = name
	}
	return nil
}

func (s *memStore) AddMember(_ context.Context, m *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.members[m.TenantID]
	if !ok {
		byUser = map[uuid.UUID]*models.Membership{}
		s.members[m.TenantID] = byUser
	}
	if _, dup := byUser[m.UserID]; dup {
		return ErrAlreadyMember
	}
	m.JoinedAt = s.tick()
	cp := *m
	byUser[m.UserID] = &cp
	return nil
}

func (s *memStore) GetMember(_ context.Context, tenantID, userID uuid.UUID) (*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[tenantID][userID]
	if !ok {
		return nil, ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) ListMembers(_ context.Context, tenantID uuid.UUID) ([]models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Member
	for _, m := range s.members[tenantID] {
		u := s.users[m.UserID]
		out = append(out, models.Member{
			UserID: u.ID, Email: u.Email, Name: u.Name, Role: m.Role,
			InvitedBy: m.InvitedBy, JoinedAt: m.JoinedAt, LastLoginAt: u.LastLoginAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (s *memStore) RemoveMember(_ context.Context, tenantID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[tenantID][userID]; !ok {
		return ErrMemberNotFound
	}
	delete(s.members[tenantID], userID)
	return nil
}

func (s *memStore) CountRole(_ context.Context, tenantID uuid.UUID, role models.UserRole) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.members[tenantID] {
		if m.Role == role {
			n++
		}
	}
	return n, nil
}

type tenantSet map[uuid.UUID]bool

func (t tenantSet) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	if !t[id] {
		return nil, tenant.ErrTenantNotFound
	}
	return &models.Tenant{ID: id, IsActive: true}, nil
}
