package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/saasplatform/internal/models"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
	"github.com/nikhilbhutani/saasplatform/internal/user"
)

type UserHandler struct {
	svc *user.Service
}

func NewUserHandler(svc *user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Invite(w http.ResponseWriter, r *http.Request) {
	tenantID, err := idParam(r, "tenantId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req user.InviteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var invitedBy *uuid.UUID
	if claims, ok := tenant.UserFromContext(r.Context()); ok {
		invitedBy = &claims.UserID
	}

	res, err := h.svc.Invite(r.Context(), tenantID, req, invitedBy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, err := idParam(r, "tenantId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	members, err := h.svc.Members(r.Context(), tenantID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *UserHandler) Remove(w http.ResponseWriter, r *http.Request) {
	tenantID, err := idParam(r, "tenantId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := idParam(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Remove(r.Context(), tenantID, userID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Provision is called by the identity provider's sign-up hook.
func (h *UserHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req user.ProvisionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, created, err := h.svc.Provision(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, u)
}

type meResponse struct {
	UserID   uuid.UUID    `json:"userId"`
	TenantID uuid.UUID    `json:"tenantId"`
	Email    string       `json:"email"`
	Role     string       `json:"role"`
	User     *models.User `json:"user,omitempty"`
}

// Me describes the authenticated caller. The stored user record is
// included when one exists.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := tenant.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, errUnauthorized)
		return
	}

	resp := meResponse{
		UserID:   claims.UserID,
		TenantID: claims.TenantID,
		Email:    claims.Email,
		Role:     claims.Role,
	}
	u, err := h.svc.Get(r.Context(), claims.UserID)
	switch {
	case err == nil:
		resp.User = u
	case !errors.Is(err, user.ErrUserNotFound):
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
