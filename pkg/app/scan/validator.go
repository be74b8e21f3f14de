package scan

import (
	"regexp"
	"strings"

	"github.com/deploymenttheory/go-dexscan/pkg/app"
)

// packageNamePattern matches Android application identities such as "com.example.app"
var packageNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)*$`)

// Validate validates a discovery request
func (r *Request) Validate() error {
	if err := validateIdentity(r.Identity); err != nil {
		return err
	}

	if len(r.Namespaces) == 0 && !r.Loaders {
		return app.NewError(app.ErrCodeInvalidInput, "at least one namespace is required", nil)
	}

	for _, ns := range r.Namespaces {
		if strings.TrimSpace(ns) == "" {
			return app.NewError(app.ErrCodeInvalidInput, "namespace must not be empty", nil)
		}
		if strings.ContainsAny(ns, "/; \t") {
			return app.NewError(app.ErrCodeInvalidInput, "namespace must be a dotted class name prefix: "+ns, nil)
		}
	}

	return nil
}

// Validate validates a resolve request
func (r *ResolveRequest) Validate() error {
	return validateIdentity(r.Identity)
}

// Validate validates a classes request
func (r *ClassesRequest) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return app.NewError(app.ErrCodeInvalidInput, "container path is required", nil)
	}
	return nil
}

func validateIdentity(identity string) error {
	if identity == "" {
		return app.NewError(app.ErrCodeInvalidInput, "application identity is required", nil)
	}
	if !packageNamePattern.MatchString(identity) {
		return app.NewError(app.ErrCodeInvalidInput, "invalid application identity: "+identity, nil)
	}
	return nil
}
