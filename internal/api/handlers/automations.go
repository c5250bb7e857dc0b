package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nikhilbhutani/saasplatform/internal/automation"
	"github.com/nikhilbhutani/saasplatform/internal/models"
)

type createRuleRequest struct {
	Name         string         `json:"name" validate:"required,max=255"`
	Description  string         `json:"description"`
	EventType    string         `json:"eventType" validate:"required,max=100"`
	ActionType   string         `json:"actionType" validate:"required,max=50"`
	Conditions   map[string]any `json:"conditions"`
	ActionConfig map[string]any `json:"actionConfig"`
	IsActive     *bool          `json:"isActive"`
}

type toggleRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type AutomationHandler struct {
	svc *automation.Service
}

func NewAutomationHandler(svc *automation.Service) *AutomationHandler {
	return &AutomationHandler{svc: svc}
}

func (h *AutomationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rule, err := h.svc.CreateRule(r.Context(), &models.AutomationRule{
		Name:         req.Name,
		Description:  req.Description,
		EventType:    req.EventType,
		ActionType:   req.ActionType,
		Conditions:   req.Conditions,
		ActionConfig: req.ActionConfig,
		IsActive:     req.IsActive,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *AutomationHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		rules []models.AutomationRule
		err   error
	)
	if activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("activeOnly")); activeOnly {
		rules, err = h.svc.GetActiveRules(r.Context())
	} else {
		rules, err = h.svc.GetAllRules(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *AutomationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rule, err := h.svc.GetRule(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *AutomationHandler) ByEventType(w http.ResponseWriter, r *http.Request) {
	eventType := r.URL.Query().Get("eventType")
	if eventType == "" {
		writeError(w, r, badRequest("eventType is required"))
		return
	}
	rules, err := h.svc.GetRulesByEventType(r.Context(), eventType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *AutomationHandler) TopExecuted(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rules, err := h.svc.GetTopExecutedRules(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *AutomationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch automation.RulePatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	rule, err := h.svc.UpdateRule(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *AutomationHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req toggleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rule, err := h.svc.ToggleRuleStatus(r.Context(), id, *req.IsActive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *AutomationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteRule(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AutomationHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.CountRules(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *AutomationHandler) RecentLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := h.svc.GetRecentLogs(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *AutomationHandler) RuleLogs(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	logs, err := h.svc.GetLogsForRule(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *AutomationHandler) FailedLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.svc.GetFailedLogs(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *AutomationHandler) LogsByDateRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("startDate"))
	if err != nil {
		writeError(w, r, badRequest("startDate must be RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("endDate"))
	if err != nil {
		writeError(w, r, badRequest("endDate must be RFC3339"))
		return
	}
	if end.Before(start) {
		writeError(w, r, badRequest("endDate is before startDate"))
		return
	}

	logs, err := h.svc.GetLogsByDateRange(r.Context(), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *AutomationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
