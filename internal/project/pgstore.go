package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/saasplatform/internal/models"
)

const projectColumns = `id, tenant_id, name, description, status, priority, owner_id, due_date, created_at, updated_at`

const taskColumns = `id, tenant_id, project_id, name, description, status, priority, progress_percentage,
	assignee_id, due_date, created_at, updated_at`

// PGStore persists projects and tasks. It also serves as the quota usage
// counter.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateProject(ctx context.Context, p *models.Project) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO projects (tenant_id, name, description, status, priority, owner_id, due_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		p.TenantID, p.Name, p.Description, p.Status, p.Priority, p.OwnerID, p.DueDate,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PGStore) GetProject(ctx context.Context, tenantID, id uuid.UUID) (*models.Project, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = $1 AND tenant_id = $2", id, tenantID)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *PGStore) ListProjects(ctx context.Context, f ProjectFilter) ([]models.Project, error) {
	query := "SELECT " + projectColumns + " FROM projects WHERE tenant_id = $1"
	args := []any{f.TenantID}
	argIdx := 2

	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, f.Status)
		argIdx++
	}
	if f.Priority != "" {
		query += fmt.Sprintf(" AND priority = $%d", argIdx)
		args = append(args, f.Priority)
		argIdx++
	}
	if f.OwnerID != nil {
		query += fmt.Sprintf(" AND owner_id = $%d", argIdx)
		args = append(args, *f.OwnerID)
		argIdx++
	}
	if f.OpenOnly || f.DueBefore != nil {
		query += fmt.Sprintf(" AND status NOT IN ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, models.ProjectCompleted, models.ProjectArchived)
		argIdx += 2
	}
	if f.DueBefore != nil {
		query += fmt.Sprintf(" AND due_date < $%d", argIdx)
		args = append(args, *f.DueBefore)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *PGStore) UpdateProject(ctx context.Context, p *models.Project) error {
	err := s.db.QueryRow(ctx,
		`UPDATE projects
		 SET name = $3, description = $4, status = $5, priority = $6, owner_id = $7, due_date = $8, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING updated_at`,
		p.ID, p.TenantID, p.Name, p.Description, p.Status, p.Priority, p.OwnerID, p.DueDate,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

func (s *PGStore) DeleteProject(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM projects WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (s *PGStore) CountProjects(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM projects WHERE tenant_id = $1", tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Status, &p.Priority,
		&p.OwnerID, &p.DueDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PGStore) CreateTask(ctx context.Context, t *models.Task) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO tasks
		   (tenant_id, project_id, name, description, status, priority, progress_percentage, assignee_id, due_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		t.TenantID, t.ProjectID, t.Name, t.Description, t.Status, t.Priority, t.ProgressPercentage,
		t.AssigneeID, t.DueDate,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *PGStore) GetTask(ctx context.Context, tenantID, id uuid.UUID) (*models.Task, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1 AND tenant_id = $2", id, tenantID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *PGStore) ListTasks(ctx context.Context, f TaskFilter) ([]models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE tenant_id = $1"
	args := []any{f.TenantID}
	argIdx := 2

	if f.ProjectID != nil {
		query += fmt.Sprintf(" AND project_id = $%d", argIdx)
		args = append(args, *f.ProjectID)
		argIdx++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, f.Status)
		argIdx++
	}
	if f.Priority != "" {
		query += fmt.Sprintf(" AND priority = $%d", argIdx)
		args = append(args, f.Priority)
		argIdx++
	}
	if f.DueBefore != nil {
		query += fmt.Sprintf(" AND due_date < $%d AND status <> $%d", argIdx, argIdx+1)
		args = append(args, *f.DueBefore, models.TaskCompleted)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *PGStore) UpdateTask(ctx context.Context, t *models.Task) error {
	err := s.db.QueryRow(ctx,
		`UPDATE tasks
		 SET name = $3, description = $4, status = $5, priority = $6, progress_percentage = $7,
		     assignee_id = $8, due_date = $9, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING updated_at`,
		t.ID, t.TenantID, t.Name, t.Description, t.Status, t.Priority, t.ProgressPercentage,
		t.AssigneeID, t.DueDate,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (s *PGStore) DeleteTask(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *PGStore) CountTasks(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM tasks WHERE tenant_id = $1", tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (s *PGStore) AverageProgress(ctx context.Context, tenantID, projectID uuid.UUID) (float64, error) {
	var avg float64
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(AVG(progress_percentage), 0)::float8
		 FROM tasks WHERE tenant_id = $1 AND project_id = $2`,
		tenantID, projectID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average task progress: %w", err)
	}
	return avg, nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.TenantID, &t.ProjectID, &t.Name, &t.Description, &t.Status, &t.Priority,
		&t.ProgressPercentage, &t.AssigneeID, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
