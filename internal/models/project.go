package models

import (
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "PLANNING"
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectOnHold    ProjectStatus = "ON_HOLD"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectArchived  ProjectStatus = "ARCHIVED"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskBlocked    TaskStatus = "BLOCKED"
	TaskCompleted  TaskStatus = "COMPLETED"
)

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

type Project struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	TenantID    uuid.UUID     `json:"tenantId" db:"tenant_id"`
	Name        string        `json:"name" db:"name"`
	Description string        `json:"description,omitempty" db:"description"`
	Status      ProjectStatus `json:"status" db:"status"`
	Priority    Priority      `json:"priority" db:"priority"`
	OwnerID     *uuid.UUID    `json:"ownerId,omitempty" db:"owner_id"`
	DueDate     *time.Time    `json:"dueDate,omitempty" db:"due_date"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`
}

type Task struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	TenantID           uuid.UUID  `json:"tenantId" db:"tenant_id"`
	ProjectID          uuid.UUID  `json:"projectId" db:"project_id"`
	Name               string     `json:"name" db:"name"`
	Description        string     `json:"description,omitempty" db:"description"`
	Status             TaskStatus `json:"status" db:"status"`
	Priority           Priority   `json:"priority" db:"priority"`
	ProgressPercentage int        `json:"progressPercentage" db:"progress_percentage"`
	AssigneeID         *uuid.UUID `json:"assigneeId,omitempty" db:"assignee_id"`
	DueDate            *time.Time `json:"dueDate,omitempty" db:"due_date"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time  `json:"updatedAt" db:"updated_at"`
}
