package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/saasplatform/internal/models"
	"github.com/nikhilbhutani/saasplatform/internal/project"
)

type createProjectRequest struct {
	Name        string               `json:"name" validate:"required,max=255"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status" validate:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED ARCHIVED"`
	Priority    models.Priority      `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	OwnerID     *uuid.UUID           `json:"ownerId"`
	DueDate     *time.Time           `json:"dueDate"`
}

type createTaskRequest struct {
	ProjectID          uuid.UUID         `json:"projectId"`
	Name               string            `json:"name" validate:"required,max=255"`
	Description        string            `json:"description"`
	Status             models.TaskStatus `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS BLOCKED COMPLETED"`
	Priority           models.Priority   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	ProgressPercentage int               `json:"progressPercentage" validate:"min=0,max=100"`
	AssigneeID         *uuid.UUID        `json:"assigneeId"`
	DueDate            *time.Time        `json:"dueDate"`
}

type ProjectHandler struct {
	projects *project.Service
	tasks    *project.TaskService
}

func NewProjectHandler(projects *project.Service, tasks *project.TaskService) *ProjectHandler {
	return &ProjectHandler{projects: projects, tasks: tasks}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.projects.Create(r.Context(), &models.Project{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		OwnerID:     req.OwnerID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := projectQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	projects, err := h.projects.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": projects, "count": len(projects)})
}

func (h *ProjectHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.projects.Count(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.projects.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch project.ProjectPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.projects.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.projects.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := taskQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q.ProjectID = &id
	h.listTasks(w, r, q)
}

// CreateTask creates a task under the project named in the path.
func (h *ProjectHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createTaskRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.ProjectID = id
	h.createTask(w, r, req)
}

func (h *ProjectHandler) CreateTaskFromBody(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ProjectID == uuid.Nil {
		writeError(w, r, badRequest("projectId is required"))
		return
	}
	h.createTask(w, r, req)
}

func (h *ProjectHandler) createTask(w http.ResponseWriter, r *http.Request, req createTaskRequest) {
	t, err := h.tasks.Create(r.Context(), &models.Task{
		ProjectID:          req.ProjectID,
		Name:               req.Name,
		Description:        req.Description,
		Status:             req.Status,
		Priority:           req.Priority,
		ProgressPercentage: req.ProgressPercentage,
		AssigneeID:         req.AssigneeID,
		DueDate:            req.DueDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *ProjectHandler) ListAllTasks(w http.ResponseWriter, r *http.Request) {
	q, err := taskQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.listTasks(w, r, q)
}

func (h *ProjectHandler) listTasks(w http.ResponseWriter, r *http.Request, q project.TaskQuery) {
	tasks, err := h.tasks.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks, "count": len(tasks)})
}

func (h *ProjectHandler) CountTasks(w http.ResponseWriter, r *http.Request) {
	n, err := h.tasks.Count(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *ProjectHandler) AverageProgress(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("projectId")
	if raw == "" {
		writeError(w, r, badRequest("projectId is required"))
		return
	}
	projectID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, r, badRequest("invalid projectId"))
		return
	}
	avg, err := h.tasks.AverageProgress(r.Context(), projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projectId": projectID, "averageProgress": avg})
}

func (h *ProjectHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *ProjectHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch project.TaskPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.tasks.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *ProjectHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.tasks.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func projectQuery(r *http.Request) (project.ProjectQuery, error) {
	v := r.URL.Query()
	q := project.ProjectQuery{
		Status:   models.ProjectStatus(v.Get("status")),
		Priority: models.Priority(v.Get("priority")),
	}
	var err error
	if q.Overdue, err = boolParam(v.Get("overdueOnly")); err != nil {
		return q, err
	}
	if q.OpenOnly, err = boolParam(v.Get("activeOnly")); err != nil {
		return q, err
	}
	if raw := v.Get("ownerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return q, badRequest("invalid ownerId")
		}
		q.OwnerID = &id
	}
	return q, nil
}

func boolParam(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest("invalid flag %q", raw)
	}
	return b, nil
}

func taskQuery(r *http.Request) (project.TaskQuery, error) {
	v := r.URL.Query()
	q := project.TaskQuery{
		Status:   models.TaskStatus(v.Get("status")),
		Priority: models.Priority(v.Get("priority")),
	}
	overdue, err := boolParam(v.Get("overdue"))
	if err != nil {
		return q, err
	}
	q.Overdue = overdue
	if raw := v.Get("projectId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return q, badRequest("invalid projectId")
		}
		q.ProjectID = &id
	}
	return q, nil
}
