package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/saasplatform/internal/models"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
)

func TestAuthenticate(t *testing.T) {
	m := NewJWTMiddleware("test-secret")
	tenantID := uuid.New()
	userID := uuid.New()

	valid, err := m.Issue(userID, tenantID, "a@acme.io", string(models.RoleEditor), time.Hour)
	require.NoError(t, err)
	expired, err := m.Issue(userID, tenantID, "a@acme.io", string(models.RoleEditor), -time.Minute)
	require.NoError(t, err)
	foreign, err := NewJWTMiddleware("other-secret").Issue(userID, tenantID, "a@acme.io", "EDITOR", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		reqTenant  uuid.UUID
		wantStatus int
	}{
		{"missing token", "", tenantID, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, tenantID, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, tenantID, http.StatusUnauthorized},
		{"other tenant", "Bearer " + valid, uuid.New(), http.StatusForbidden},
		{"ok", "Bearer " + valid, tenantID, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got tenant.UserClaims
			h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = tenant.UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			req = req.WithContext(tenant.WithTenant(req.Context(), tenant.Info{ID: tt.reqTenant, Subdomain: "acme"}))
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID, got.UserID)
				assert.Equal(t, tenantID, got.TenantID)
				assert.Equal(t, "EDITOR", got.Role)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequirePermission(PermAutomationsWrite)(ok)

	serve := func(role string, withUser bool) int {
		req := httptest.NewRequest(http.MethodPost, "/api/automations", nil)
		if withUser {
			req = req.WithContext(tenant.WithUser(req.Context(), tenant.UserClaims{UserID: uuid.New(), Role: role}))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, serve("ADMINISTRATOR", true))
	assert.Equal(t, http.StatusForbidden, serve("EDITOR", true))
	assert.Equal(t, http.StatusForbidden, serve("VIEWER", true))
	assert.Equal(t, http.StatusNoContent, serve("", false))
}

func TestUserPermissions(t *testing.T) {
	assert.True(t, RoleHas(models.RoleAdmin, PermUsersManage))
	assert.False(t, RoleHas(models.RoleEditor, PermUsersManage))
	assert.False(t, RoleHas(models.RoleViewer, PermUsersManage))
	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleEditor, models.RoleViewer} {
		assert.True(t, RoleHas(role, PermUsersRead), role)
	}
}

func TestRequireInternalSecret(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	serve := func(configured, sent string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/internal/users/from-cognito", nil)
		if sent != "" {
			req.Header.Set(InternalSecretHeader, sent)
		}
		rec := httptest.NewRecorder()
		RequireInternalSecret(configured)(ok).ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, serve("s3cret", "s3cret"))
	assert.Equal(t, http.StatusUnauthorized, serve("s3cret", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, serve("s3cret", ""))
	assert.Equal(t, http.StatusUnauthorized, serve("", ""))
}
