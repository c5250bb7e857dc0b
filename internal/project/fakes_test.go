package project

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/saasplatform/internal/events"
	"github.com/nikhilbhutani/saasplatform/internal/models"
)

type memStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]models.Project
	tasks    map[uuid.UUID]models.Task
	// deleted records ids in deletion order across both tables.
	deleted []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		projects: map[uuid.UUID]models.Project{},
		tasks:    map[uuid.UUID]models.Task{},
	}
}

func (s *memStore) CreateProject(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.projects[p.ID] = *p
	return nil
}

func (s *memStore) GetProject(_ context.Context, tenantID, id uuid.UUID) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.TenantID != tenantID {
		return nil, ErrProjectNotFound
	}
	return &p, nil
}

func (s *memStore) ListProjects(_ context.Context, f ProjectFilter) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Project{}
	for _, p := range s.projects {
		open := p.Status != models.ProjectCompleted && p.Status != models.ProjectArchived
		switch {
		case p.TenantID != f.TenantID:
		case f.Status != "" && p.Status != f.Status:
		case f.Priority != "" && p.Priority != f.Priority:
		case f.OwnerID != nil && (p.OwnerID == nil || *p.OwnerID != *f.OwnerID):
		case (f.OpenOnly || f.DueBefore != nil) && !open:
		case f.DueBefore != nil && (p.DueDate == nil || !p.DueDate.Before(*f.DueBefore)):
		default:
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) UpdateProject(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return ErrProjectNotFound
	}
	s.projects[p.ID] = *p
	return nil
}

func (s *memStore) DeleteProject(_ context.Context, tenantID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.TenantID != tenantID {
		return ErrProjectNotFound
	}
	delete(s.projects, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *memStore) CountProjects(_ context.Context, tenantID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.projects {
		if p.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CreateTask(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	s.tasks[t.ID] = *t
	return nil
}

func (s *memStore) GetTask(_ context.Context, tenantID, id uuid.UUID) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.TenantID != tenantID {
		return nil, ErrTaskNotFound
	}
	return &t, nil
}

func (s *memStore) ListTasks(_ context.Context, f TaskFilter) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Task{}
	for _, t := range s.tasks {
		switch {
		case t.TenantID != f.TenantID:
		case f.ProjectID != nil && t.ProjectID != *f.ProjectID:
		case f.Status != "" && t.Status != f.Status:
		case f.Priority != "" && t.Priority != f.Priority:
		case f.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*f.DueBefore) || t.Status == models.TaskCompleted):
		default:
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) UpdateTask(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; !ok {
		return ErrTaskNotFound
	}
	s.tasks[t.ID] = *t
	return nil
}

func (s *memStore) DeleteTask(_ context.Context, tenantID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.TenantID != tenantID {
		return ErrTaskNotFound
	}
	delete(s.tasks, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *memStore) CountTasks(_ context.Context, tenantID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.tasks {
		if t.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) AverageProgress(_ context.Context, tenantID, projectID uuid.UUID) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum, n int
	for _, t := range s.tasks {
		if t.TenantID == tenantID && t.ProjectID == projectID {
			sum += t.ProgressPercentage
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

type stubQuota struct {
	err   error
	calls int
}

func (q *stubQuota) Enforce(context.Context, uuid.UUID) error {
	q.calls++
	return q.err
}

// recordingPublisher also notes whether the resource still existed at
// publish time.
type recordingPublisher struct {
	store     *memStore
	events    []events.Event
	existedAt []bool
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.Event) {
	p.events = append(p.events, ev)
	if p.store == nil {
		return
	}
	_, perr := p.store.GetProject(ctx, ev.TenantID, ev.ResourceID)
	_, terr := p.store.GetTask(ctx, ev.TenantID, ev.ResourceID)
	p.existedAt = append(p.existedAt, perr == nil || terr == nil)
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
