// File: internal/interfaces/scan.go
package interfaces

import (
	"context"
	"iter"

	"github.com/deploymenttheory/go-dexscan/internal/types"
)

// CapabilityDetector decides whether the runtime loads every container of a split application itself
type CapabilityDetector interface {
	// SupportsNativeMultiContainer reports native multi-container support, false when unknown
	SupportsNativeMultiContainer() bool
}

// PropertySource provides runtime system properties
type PropertySource interface {
	// Property returns the value for key and whether it is defined
	Property(key string) (string, bool)
}

// PreferenceStore provides read access to a persisted key/value preference file
type PreferenceStore interface {
	// Int returns the integer stored under key, or def when absent or unreadable
	Int(key string, def int) int
}

// IdentityLookup resolves an application identity to its on-disk locations
type IdentityLookup interface {
	// Lookup returns the application info for identity
	Lookup(ctx context.Context, identity string) (types.ApplicationInfo, error)
}

// ContainerResolver produces the ordered container paths an application was loaded from
type ContainerResolver interface {
	// ResolveContainerPaths returns the primary container first, then any supplemental ones
	ResolveContainerPaths(ctx context.Context, identity string) ([]string, error)
}

// ClassEnumerator produces class names out of a single container
type ClassEnumerator interface {
	// Enumerate yields class names in native entry order; each range opens a fresh handle
	Enumerate(path string) iter.Seq2[string, error]
}
