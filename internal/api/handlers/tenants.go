package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/saasplatform/internal/models"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
)

type UsageReporter interface {
	Usage(ctx context.Context, tenantID uuid.UUID) (*models.TenantUsage, error)
}

type TenantHandler struct {
	svc   *tenant.Service
	usage UsageReporter
}

func NewTenantHandler(svc *tenant.Service, usage UsageReporter) *TenantHandler {
	return &TenantHandler{svc: svc, usage: usage}
}

func (h *TenantHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req tenant.RegisterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TenantHandler) ValidateSubdomain(w http.ResponseWriter, r *http.Request) {
	subdomain := r.URL.Query().Get("subdomain")

	available, err := h.svc.SubdomainAvailable(r.Context(), subdomain)
	if errors.Is(err, tenant.ErrInvalidSubdomain) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"subdomain": subdomain,
			"available": false,
			"reason":    err.Error(),
		})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subdomain": subdomain, "available": available})
}

func (h *TenantHandler) Current(w http.ResponseWriter, r *http.Request) {
	info, ok := tenant.FromContext(r.Context())
	if !ok {
		writeError(w, r, tenant.ErrSubdomainRequired)
		return
	}
	t, err := h.svc.Get(r.Context(), info.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TenantHandler) Usage(w http.ResponseWriter, r *http.Request) {
	info, ok := tenant.FromContext(r.Context())
	if !ok {
		writeError(w, r, tenant.ErrSubdomainRequired)
		return
	}
	u, err := h.usage.Usage(r.Context(), info.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type statusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// SetStatus activates or deactivates a tenant. Internal callers only.
func (h *TenantHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.SetActive(r.Context(), id, *req.IsActive); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "isActive": *req.IsActive})
}
