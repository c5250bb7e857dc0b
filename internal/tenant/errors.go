package tenant

import "errors"

var (
	ErrSubdomainRequired = errors.New("tenant subdomain required")
	ErrTenantNotFound    = errors.New("tenant not found")
	ErrTenantInactive    = errors.New("tenant inactive")
	ErrInvalidSubdomain  = errors.New("invalid subdomain")
	ErrSubdomainTaken    = errors.New("subdomain already exists")
	ErrContextNotSet     = errors.New("tenant context not set")
)
