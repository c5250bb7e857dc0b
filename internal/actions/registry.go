package actions

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const (
	TypeWebhook = "webhook"
	TypeLog     = "log"
)

// Invocation is one rule firing for one event.
type Invocation struct {
	TenantID     uuid.UUID
	RuleID       uuid.UUID
	RuleName     string
	EventType    string
	ResourceID   uuid.UUID
	ResourceType string
	Payload      map[string]any
	Config       map[string]any
}

// Runner performs an action and returns a result summary for the event log.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (map[string]any, error)
}

type RunnerFunc func(ctx context.Context, inv Invocation) (map[string]any, error)

func (f RunnerFunc) Run(ctx context.Context, inv Invocation) (map[string]any, error) {
	return f(ctx, inv)
}

type Registry struct {
	mu      sync.RWMutex
	runners map[string]Runner
}

func NewRegistry() *Registry {
	return &Registry{runners: make(map[string]Runner)}
}

func (r *Registry) Register(actionType string, runner Runner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runners[actionType] = runner
}

func (r *Registry) Lookup(actionType string) (Runner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runner, ok := r.runners[actionType]
	return runner, ok
}
