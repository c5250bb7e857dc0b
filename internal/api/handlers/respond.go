package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/automation"
	"github.com/nikhilbhutani/saasplatform/internal/logger"
	"github.com/nikhilbhutani/saasplatform/internal/project"
	"github.com/nikhilbhutani/saasplatform/internal/quota"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
	"github.com/nikhilbhutani/saasplatform/internal/user"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errBadRequest marks client input errors raised by the handlers themselves.
var errBadRequest = errors.New("bad request")

var errUnauthorized = errors.New("authentication required")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognised
// is logged and reported as a 500 without internal detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "internal server error"

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		status, msg = http.StatusBadRequest, validationMessage(verrs)
	case errors.Is(err, errBadRequest), errors.Is(err, tenant.ErrInvalidSubdomain):
		status, msg = http.StatusBadRequest, strings.TrimPrefix(err.Error(), errBadRequest.Error()+": ")
	case errors.Is(err, tenant.ErrSubdomainRequired):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, tenant.ErrTenantNotFound),
		errors.Is(err, automation.ErrRuleNotFound),
		errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, project.ErrTaskNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, user.ErrMemberNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, errUnauthorized):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, tenant.ErrTenantInactive):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, quota.ErrQuotaExceeded):
		status, msg = http.StatusPaymentRequired, err.Error()+". Please upgrade your subscription to continue."
	case errors.Is(err, tenant.ErrSubdomainTaken),
		errors.Is(err, user.ErrAlreadyMember),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, user.ErrLastAdministrator):
		status, msg = http.StatusConflict, err.Error()
	}

	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func validationMessage(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("invalid request body")
	}
	return validate.Struct(dst)
}

func idParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, badRequest("invalid %s", name)
	}
	return id, nil
}
