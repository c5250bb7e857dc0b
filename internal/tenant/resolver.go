package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/logger"
	"github.com/nikhilbhutani/saasplatform/internal/metrics"
	"github.com/nikhilbhutani/saasplatform/internal/models"
)

const HeaderSubdomain = "X-Tenant-Subdomain"

// Lookup finds a tenant by subdomain, returning ErrTenantNotFound when absent.
type Lookup interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
}

var defaultPublicPrefixes = []string{
	"/api/health",
	"/api/auth/signup",
	"/api/auth/login",
	"/api/auth/oauth",
	"/actuator/health",
	"/actuator/info",
	"/api/internal",
	"/healthz",
	"/readyz",
	"/metrics",
}

// Registration runs before any tenant exists.
var defaultPublicExact = []string{
	"/api/tenants",
	"/api/tenants/validate-subdomain",
}

var (
	staticPrefixes = []string{"/static", "/public"}
	staticSuffixes = []string{".js", ".css", ".ico"}
)

type Resolver struct {
	lookup         Lookup
	log            *zap.Logger
	publicPrefixes []string
	publicExact    map[string]struct{}
}

type ResolverOption func(*Resolver)

// WithPublicPrefixes adds path prefixes that may proceed without a tenant.
func WithPublicPrefixes(prefixes ...string) ResolverOption {
	return func(r *Resolver) {
		r.publicPrefixes = append(r.publicPrefixes, prefixes...)
	}
}

func NewResolver(lookup Lookup, log *zap.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		lookup:         lookup,
		log:            log,
		publicPrefixes: append([]string(nil), defaultPublicPrefixes...),
		publicExact:    make(map[string]struct{}, len(defaultPublicExact)),
	}
	for _, p := range defaultPublicExact {
		r.publicExact[p] = struct{}{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Middleware resolves the tenant for each request and binds it to the
// request context for the downstream handler only.
func (rv *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if IsStaticPath(path) {
			next.ServeHTTP(w, r)
			return
		}

		public := rv.IsPublicPath(path)
		subdomain := ExtractSubdomain(r)

		if subdomain == "" {
			if !public {
				rv.log.Warn("non-public endpoint accessed without tenant subdomain", zap.String("path", path))
				rv.reject(w, http.StatusBadRequest, ErrSubdomainRequired, "subdomain_required")
				return
			}
			metrics.TenantResolutions.WithLabelValues("public").Inc()
			next.ServeHTTP(w, r)
			return
		}

		t, err := rv.lookup.GetBySubdomain(r.Context(), subdomain)
		switch {
		case errors.Is(err, ErrTenantNotFound):
			if public {
				metrics.TenantResolutions.WithLabelValues("public").Inc()
				next.ServeHTTP(w, r)
				return
			}
			rv.log.Warn("tenant not found", zap.String("subdomain", subdomain))
			rv.reject(w, http.StatusNotFound, ErrTenantNotFound, "not_found")
			return
		case err != nil:
			rv.log.Error("tenant lookup failed", zap.String("subdomain", subdomain), zap.Error(err))
			rv.reject(w, http.StatusInternalServerError, errors.New("tenant lookup failed"), "error")
			return
		case !t.IsActive:
			rv.log.Warn("tenant is inactive", zap.String("subdomain", subdomain))
			rv.reject(w, http.StatusForbidden, ErrTenantInactive, "inactive")
			return
		}

		ctx := WithTenant(r.Context(), Info{ID: t.ID, Subdomain: subdomain})
		reqLog := logger.FromContext(ctx).With(
			zap.String("tenant_id", t.ID.String()),
			zap.String("subdomain", subdomain),
		)
		ctx = logger.WithContext(ctx, reqLog)
		defer reqLog.Debug("tenant context released")

		metrics.TenantResolutions.WithLabelValues("resolved").Inc()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (rv *Resolver) reject(w http.ResponseWriter, status int, err error, outcome string) {
	metrics.TenantResolutions.WithLabelValues(outcome).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (rv *Resolver) IsPublicPath(path string) bool {
	if _, ok := rv.publicExact[strings.TrimSuffix(path, "/")]; ok {
		return true
	}
	for _, p := range rv.publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// IsStaticPath reports paths the resolver never touches.
func IsStaticPath(path string) bool {
	for _, p := range staticPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, s := range staticSuffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

// ExtractSubdomain returns the tenant subdomain signalled by the request,
// or "" when there is none. The override header beats the Host header.
func ExtractSubdomain(r *http.Request) string {
	if h := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderSubdomain))); h != "" {
		return h
	}
	return subdomainFromHost(r.Host)
}

func subdomainFromHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.Trim(host, "[]"))

	// IP literals and development hosts carry no tenant signal.
	if net.ParseIP(host) != nil {
		return ""
	}
	if host == "localhost" || strings.HasSuffix(host, ".local") {
		return ""
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return ""
	}
	return strings.TrimSpace(labels[0])
}
