package project

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/events"
	"github.com/nikhilbhutani/saasplatform/internal/models"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
)

type QuotaEnforcer interface {
	Enforce(ctx context.Context, tenantID uuid.UUID) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev events.Event)
}

type ProjectPatch struct {
	Name        *string               `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string               `json:"description"`
	Status      *models.ProjectStatus `json:"status" validate:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED ARCHIVED"`
	Priority    *models.Priority      `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	OwnerID     *uuid.UUID            `json:"ownerId"`
	DueDate     *time.Time            `json:"dueDate"`
}

// ProjectQuery selects projects of the current tenant. Set fields combine.
// Overdue selects open projects due before today; OpenOnly drops completed
// and archived ones.
type ProjectQuery struct {
	Status   models.ProjectStatus
	Priority models.Priority
	OwnerID  *uuid.UUID
	Overdue  bool
	OpenOnly bool
}

// Service manages the current tenant's projects. Creation is quota
// checked and every change is published as a domain event.
type Service struct {
	store   Store
	quota   QuotaEnforcer
	events  EventPublisher
	tenants tenant.Provider
	log     *zap.Logger
	now     func() time.Time
}

func NewService(store Store, quota QuotaEnforcer, pub EventPublisher, tenants tenant.Provider, log *zap.Logger) *Service {
	return &Service{
		store:   store,
		quota:   quota,
		events:  pub,
		tenants: tenants,
		log:     log,
		now:     time.Now,
	}
}

func currentTenant(ctx context.Context, p tenant.Provider) (uuid.UUID, error) {
	id, ok := p.TenantID(ctx)
	if !ok {
		return uuid.Nil, ErrTenantContextNotSet
	}
	return id, nil
}

func (s *Service) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	tenantID, err := currentTenant(ctx, s.tenants)
	if err != nil {
		return nil, err
	}

	p.TenantID = tenantID
	if p.Status == "" {
		p.Status = models.ProjectPlanning
	}
	if p.Priority == "" {
		p.Priority = models.PriorityMedium
	}

	if err := s.quota.Enforce(ctx, tenantID); err != nil {
		return nil, err
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.log.Info("project created",
		zap.String("project_id", p.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("name", p.Name))

	payload := projectPayload(p)
	payload["priority"] = string(p.Priority)
	if p.OwnerID != nil {
		payload["ownerId"] = p.OwnerID.String()
	}
	s.publish(ctx, events.ProjectCreated, p, payload)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	tenantID, err := currentTenant(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	return s.store.GetProject(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, q ProjectQuery) ([]models.Project, error) {
	tenantID, err := currentTenant(ctx, s.tenants)
	if err != nil {
		return nil, err
	}

	f := ProjectFilter{
		TenantID: tenantID,
		Status:   q.Status,
		Priority: q.Priority,
		OwnerID:  q.OwnerID,
		OpenOnly: q.OpenOnly,
	}
	if q.Overdue {
		today := s.now().Truncate(24 * time.Hour)
		f.DueBefore = &today
	}
	return s.store.ListProjects(ctx, f)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	tenantID, err := currentTenant(ctx, s.tenants)
	if err != nil {
		return 0, err
	}
	return s.store.CountProjects(ctx, tenantID)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, patch ProjectPatch) (*models.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	diff := changes{}
	set(diff, "name", &p.Name, patch.Name)
	set(diff, "description", &p.Description, patch.Description)
	set(diff, "status", &p.Status, patch.Status)
	set(diff, "priority", &p.Priority, patch.Priority)
	setPtr(diff, "ownerId", &p.OwnerID, patch.OwnerID, func(a, b uuid.UUID) bool { return a == b })
	setPtr(diff, "dueDate", &p.DueDate, patch.DueDate, time.Time.Equal)

	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	s.log.Info("project updated",
		zap.String("project_id", p.ID.String()),
		zap.Int("changed_fields", len(diff)))

	if len(diff) > 0 {
		payload := projectPayload(p)
		payload["changes"] = map[string]any(diff)
		s.publish(ctx, events.ProjectUpdated, p, payload)
	}
	return p, nil
}

// Delete publishes project.deleted before the row is removed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	s.publish(ctx, events.ProjectDeleted, p, projectPayload(p))

	if err := s.store.DeleteProject(ctx, p.TenantID, p.ID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	s.log.Info("project deleted", zap.String("project_id", p.ID.String()))
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, p *models.Project, payload map[string]any) {
	s.events.Publish(ctx, events.Event{
		TenantID:     p.TenantID,
		Type:         eventType,
		ResourceID:   p.ID,
		ResourceType: "project",
		Payload:      payload,
	})
}

func projectPayload(p *models.Project) map[string]any {
	return map[string]any{
		"projectId": p.ID.String(),
		"name":      p.Name,
		"status":    string(p.Status),
	}
}
