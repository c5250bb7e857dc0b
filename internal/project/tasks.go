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

type TaskPatch struct {
	Name               *string            `json:"name" validate:"omitempty,min=1,max=255"`
	Description        *string            `json:"description"`
	Status             *models.TaskStatus `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS BLOCKED COMPLETED"`
	Priority           *models.Priority   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	ProgressPercentage *int               `json:"progressPercentage" validate:"omitempty,min=0,max=100"`
	AssigneeID         *uuid.UUID         `json:"assigneeId"`
	DueDate            *time.Time         `json:"dueDate"`
}

// TaskQuery selects tasks of the current tenant. A set ProjectID must name
// a project of that tenant.
type TaskQuery struct {
	ProjectID *uuid.UUID
	Status    models.TaskStatus
	Priority  models.Priority
	Overdue   bool
}

type TaskService struct {
	store   Store
	quota   QuotaEnforcer
	events  EventPublisher
	tenants tenant.Provider
	log     *zap.Logger
	now     func() time.Time
}

func NewTaskService(store Store, quota QuotaEnforcer, pub EventPublisher, tenants tenant.Provider, log *zap.Logger) *TaskService {
	return &TaskService{
		store:   store,
		quota:   quota,
		events:  pub,
		tenants: tenants,
		log:     log,
		now:     time.Now,
	}
}

func (s *TaskService) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	tenantID, err := currentTenant(ctx, s.tenants)
	if err != nil {
		return nil, err
	}

	t.TenantID = tenantID
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}

	if _, err := s.store.GetProject(ctx, tenantID, t.ProjectID); err != nil {
		return nil, err
	}
	if err := s.quota.Enforce(ctx, tenantID); err != nil {
		return nil, err
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.log.Info("task created",
		zap.String("task_id", t.ID.String()),
		zap.String("project_id", t.ProjectID.String()),
		zap.String("tenant_id", tenantID.String()))

	payload := taskPayload(t)
	payload["priority"] = string(t.Priority)
	s.publish(ctx, events.TaskCreated, t, payload)
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	tenantID, err := currentTenant(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	return s.store.GetTask(ctx, tenantID, id)
}

func (s *TaskService) List(ctx context.Context, q TaskQuery) ([]models.Task, error) {
	tenantID, err := currentTenant(ctx, s.tenants)
	if err != nil {
		return nil, err
	}
	if q.ProjectID != nil {
		if _, err := s.store.GetProject(ctx, tenantID, *q.ProjectID); err != nil {
			return nil, err
		}
	}

	f := TaskFilter{
		TenantID:  tenantID,
		ProjectID: q.ProjectID,
		Status:    q.Status,
		Priority:  q.Priority,
	}
	if q.Overdue {
		today := s.now().Truncate(24 * time.Hour)
		f.DueBefore = &today
	}
	return s.store.ListTasks(ctx, f)
}

func (s *TaskService) Count(ctx context.Context) (int64, error) {
	tenantID, err := currentTenant(ctx, s.tenants)
	if err != nil {
		return 0, err
	}
	return s.store.CountTasks(ctx, tenantID)
}

// AverageProgress is the mean progress percentage of a project's tasks.
func (s *TaskService) AverageProgress(ctx context.Context, projectID uuid.UUID) (float64, error) {
	tenantID, err := currentTenant(ctx, s.tenants)
	if err != nil {
		return 0, err
	}
	if _, err := s.store.GetProject(ctx, tenantID, projectID); err != nil {
		return 0, err
	}
	return s.store.AverageProgress(ctx, tenantID, projectID)
}

// Update applies patch and publishes task.updated when anything changed,
// plus task.status.changed when the status moved.
func (s *TaskService) Update(ctx context.Context, id uuid.UUID, patch TaskPatch) (*models.Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := t.Status

	diff := changes{}
	set(diff, "name", &t.Name, patch.Name)
	set(diff, "description", &t.Description, patch.Description)
	set(diff, "status", &t.Status, patch.Status)
	set(diff, "priority", &t.Priority, patch.Priority)
	set(diff, "progressPercentage", &t.ProgressPercentage, patch.ProgressPercentage)
	setPtr(diff, "assigneeId", &t.AssigneeID, patch.AssigneeID, func(a, b uuid.UUID) bool { return a == b })
	setPtr(diff, "dueDate", &t.DueDate, patch.DueDate, time.Time.Equal)

	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	s.log.Info("task updated",
		zap.String("task_id", t.ID.String()),
		zap.Int("changed_fields", len(diff)))

	if len(diff) == 0 {
		return t, nil
	}

	payload := taskPayload(t)
	payload["changes"] = map[string]any(diff)
	s.publish(ctx, events.TaskUpdated, t, payload)

	if t.Status != oldStatus {
		s.publish(ctx, events.TaskStatusChanged, t, map[string]any{
			"taskId":    t.ID.String(),
			"projectId": t.ProjectID.String(),
			"name":      t.Name,
			"oldStatus": string(oldStatus),
			"newStatus": string(t.Status),
			"priority":  string(t.Priority),
		})
	}
	return t, nil
}

// Delete publishes task.deleted before the row is removed.
func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	s.publish(ctx, events.TaskDeleted, t, taskPayload(t))

	if err := s.store.DeleteTask(ctx, t.TenantID, t.ID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	s.log.Info("task deleted", zap.String("task_id", t.ID.String()))
	return nil
}

func (s *TaskService) publish(ctx context.Context, eventType string, t *models.Task, payload map[string]any) {
	s.events.Publish(ctx, events.Event{
		TenantID:     t.TenantID,
		Type:         eventType,
		ResourceID:   t.ID,
		ResourceType: "task",
		Payload:      payload,
	})
}

func taskPayload(t *models.Task) map[string]any {
	return map[string]any{
		"taskId":    t.ID.String(),
		"projectId": t.ProjectID.String(),
		"name":      t.Name,
		"status":    string(t.Status),
	}
}
