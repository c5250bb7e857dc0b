package project

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/saasplatform/internal/models"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
)

var (
	ErrProjectNotFound     = errors.New("project not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrTenantContextNotSet = tenant.ErrContextNotSet
)

// ProjectFilter narrows a tenant's projects. OpenOnly excludes COMPLETED
// and ARCHIVED projects; DueBefore additionally implies OpenOnly.
type ProjectFilter struct {
	TenantID  uuid.UUID
	Status    models.ProjectStatus
	Priority  models.Priority
	OwnerID   *uuid.UUID
	OpenOnly  bool
	DueBefore *time.Time
}

// TaskFilter narrows a tenant's tasks. DueBefore selects open tasks whose
// due date has passed that instant.
type TaskFilter struct {
	TenantID  uuid.UUID
	ProjectID *uuid.UUID
	Status    models.TaskStatus
	Priority  models.Priority
	DueBefore *time.Time
}

// All lookups take the tenant id; a row of another tenant is reported as
// not found.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, tenantID, id uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, f ProjectFilter) ([]models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, tenantID, id uuid.UUID) error
	CountProjects(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

type TaskStore interface {
	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, tenantID, id uuid.UUID) (*models.Task, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, tenantID, id uuid.UUID) error
	CountTasks(ctx context.Context, tenantID uuid.UUID) (int64, error)
	// AverageProgress is 0 when the project has no tasks.
	AverageProgress(ctx context.Context, tenantID, projectID uuid.UUID) (float64, error)
}

type Store interface {
	ProjectStore
	TaskStore
}
