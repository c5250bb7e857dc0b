package automation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/saasplatform/internal/models"
)

type memStore struct {
	mu       sync.Mutex
	rules    map[uuid.UUID]*models.AutomationRule
	logs     []models.EventLog
	executed map[uuid.UUID]int
}

func newMemStore() *memStore {
	return &memStore{
		rules:    map[uuid.UUID]*models.AutomationRule{},
		executed: map[uuid.UUID]int{},
	}
}

func (s *memStore) CreateRule(_ context.Context, r *models.AutomationRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	s.rules[r.ID] = &cp
	return nil
}

func (s *memStore) GetRule(_ context.Context, id uuid.UUID) (*models.AutomationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) UpdateRule(_ context.Context, r *models.AutomationRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[r.ID]; !ok {
		return ErrRuleNotFound
	}
	cp := *r
	s.rules[r.ID] = &cp
	return nil
}

func (s *memStore) DeleteRule(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return ErrRuleNotFound
	}
	delete(s.rules, id)
	return nil
}

func (s *memStore) ListRules(_ context.Context, f RuleFilter) ([]models.AutomationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.AutomationRule{}
	for _, r := range s.rules {
		if r.TenantID != f.TenantID {
			continue
		}
		if f.ActiveOnly && !r.Active() {
			continue
		}
		if f.EventType != "" && r.EventType != f.EventType {
			continue
		}
		if f.ActionType != "" && r.ActionType != f.ActionType {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) TopExecutedRules(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.AutomationRule, error) {
	rules, _ := s.ListRules(ctx, RuleFilter{TenantID: tenantID})
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Executions() > rules[j].Executions() })
	if len(rules) > limit {
		rules = rules[:limit]
	}
	return rules, nil
}

func (s *memStore) CountRules(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	rules, _ := s.ListRules(ctx, RuleFilter{TenantID: tenantID})
	return int64(len(rules)), nil
}

func (s *memStore) RecordExecution(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return ErrRuleNotFound
	}
	n := r.Executions() + 1
	r.ExecutionCount = &n
	r.LastExecutedAt = &at
	s.executed[id]++
	return nil
}

func (s *memStore) CreateEventLog(_ context.Context, l *models.EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = uuid.New()
	s.logs = append(s.logs, *l)
	return nil
}

func (s *memStore) ListEventLogs(_ context.Context, f LogFilter) ([]models.EventLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.EventLog{}
	for _, l := range s.logs {
		if l.TenantID != f.TenantID {
			continue
		}
		if f.RuleID != nil && (l.AutomationRuleID == nil || *l.AutomationRuleID != *f.RuleID) {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.Start != nil && l.CreatedAt.Before(*f.Start) {
			continue
		}
		if f.End != nil && l.CreatedAt.After(*f.End) {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memStore) CountEventLogs(_ context.Context, tenantID uuid.UUID, status models.ExecutionStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, l := range s.logs {
		if l.TenantID == tenantID && l.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *memStore) AverageExecutionDuration(_ context.Context, tenantID uuid.UUID) (*float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum, n int64
	for _, l := range s.logs {
		if l.TenantID == tenantID {
			sum += l.ExecutionDurationMs
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	avg := float64(sum) / float64(n)
	return &avg, nil
}

func (s *memStore) addLog(l models.EventLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, l)
}
