package services

import (
	"context"
	"errors"

	"github.com/deploymenttheory/go-dexscan/internal/scanner"
	"github.com/deploymenttheory/go-dexscan/pkg/receiver"
)

// ErrFactoryShutdown is returned by a factory that has been shut down.
var ErrFactoryShutdown = errors.New("service factory has been shut down")

// ContainerInfo describes a single class container
type ContainerInfo struct {
	Path string `json:"path" yaml:"path"`
	// Loader is "direct" for APK/DEX files and "extracted" for secondary zips
	Loader     string `json:"loader" yaml:"loader"`
	DexCount   int    `json:"dex_count" yaml:"dex_count"`
	ClassCount int    `json:"class_count" yaml:"class_count"`
}

// ResolveInfo describes how an application's containers were resolved
type ResolveInfo struct {
	Identity   string   `json:"identity" yaml:"identity"`
	Native     bool     `json:"native_multi_container" yaml:"native_multi_container"`
	Containers []string `json:"containers" yaml:"containers"`
}

// DiscoveryService answers "which classes exist under these namespaces" for an application
type DiscoveryService interface {
	// Discover scans every container of identity for each namespace.
	// An unknown identity yields an empty result; a missing supplemental container is an error.
	Discover(ctx context.Context, identity string, namespaces []string) (*scanner.Result, error)

	// DiscoverNamespace is Discover for a single namespace
	DiscoverNamespace(ctx context.Context, identity string, namespace string) (scanner.ClassSet, *scanner.Result, error)

	// Resolve returns the ordered container paths and the capability decision
	Resolve(ctx context.Context, identity string) (*ResolveInfo, error)

	// LoaderClasses returns the generated receiver loader classes of identity
	LoaderClasses(ctx context.Context, identity string) ([]string, error)

	// LoadReceivers publishes the records registered for each discovered loader class into dst
	LoadReceivers(ctx context.Context, identity string, catalog map[string][]receiver.Data, dst receiver.Loader) ([]string, error)
}

// ContainerService reads individual containers
type ContainerService interface {
	// Classes returns every class name of the container at path, in entry order
	Classes(path string) ([]string, error)

	// Describe opens the container at path and counts its contents
	Describe(path string) (*ContainerInfo, error)
}
