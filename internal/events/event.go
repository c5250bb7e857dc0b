package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/saasplatform/internal/models"
)

// Source identifies this platform on every forwarded entry.
const Source = "com.platform.saas"

const (
	ProjectCreated    = "project.created"
	ProjectUpdated    = "project.updated"
	ProjectDeleted    = "project.deleted"
	TaskCreated       = "task.created"
	TaskUpdated       = "task.updated"
	TaskDeleted       = "task.deleted"
	TaskStatusChanged = "task.status.changed"
)

// Event is a tenant-scoped domain event.
type Event struct {
	TenantID     uuid.UUID
	Type         string
	ResourceID   uuid.UUID
	ResourceType string
	Payload      map[string]any
}

// Entry is one message handed to an external bus.
type Entry struct {
	EventBusName string
	Source       string
	DetailType   string
	Detail       string
	TenantID     uuid.UUID
	Time         time.Time
}

// PutResult reports per-entry failures for buses that accept a request
// but reject individual entries.
type PutResult struct {
	FailedEntryCount int
	ErrorCode        string
	ErrorMessage     string
}

type Bus interface {
	Put(ctx context.Context, entry Entry) (PutResult, error)
}

type LogStore interface {
	CreateEventLog(ctx context.Context, log *models.EventLog) error
}
