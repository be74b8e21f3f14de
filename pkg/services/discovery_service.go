package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/deploymenttheory/go-dexscan/internal/interfaces"
	"github.com/deploymenttheory/go-dexscan/internal/logging"
	"github.com/deploymenttheory/go-dexscan/internal/resolver"
	"github.com/deploymenttheory/go-dexscan/internal/scanner"
	"github.com/deploymenttheory/go-dexscan/pkg/receiver"
)

// discoveryService implements DiscoveryService
type discoveryService struct {
	detector interfaces.CapabilityDetector
	resolver interfaces.ContainerResolver
	scanner  *scanner.Scanner
	logger   zerolog.Logger
}

// NewDiscoveryService creates a discovery service from its collaborators
func NewDiscoveryService(detector interfaces.CapabilityDetector, res interfaces.ContainerResolver, sc *scanner.Scanner, logger zerolog.Logger) DiscoveryService {
	return &discoveryService{
		detector: detector,
		resolver: res,
		scanner:  sc,
		logger:   logging.Component(logger, "discovery_service"),
	}
}

// Discover implements DiscoveryService
func (s *discoveryService) Discover(ctx context.Context, identity string, namespaces []string) (*scanner.Result, error) {
	paths, err := s.containers(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.scanner.ScanNamespaces(paths, namespaces), nil
}

// DiscoverNamespace implements DiscoveryService
func (s *discoveryService) DiscoverNamespace(ctx context.Context, identity string, namespace string) (scanner.ClassSet, *scanner.Result, error) {
	paths, err := s.containers(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	classes, result := s.scanner.ScanNamespace(paths, namespace)
	return classes, result, nil
}

// containers resolves the container paths of identity. An identity that
// cannot be resolved yields no containers and therefore an empty result.
func (s *discoveryService) containers(ctx context.Context, identity string) ([]string, error) {
	paths, err := s.resolver.ResolveContainerPaths(ctx, identity)
	if err == nil {
		return paths, nil
	}

	var identityErr *resolver.IdentityResolutionError
	if errors.As(err, &identityErr) {
		s.logger.Warn().Err(err).Str("identity", identity).Msg("Application identity could not be resolved, returning empty result")
		return nil, nil
	}
	return nil, err
}

// Resolve implements DiscoveryService
func (s *discoveryService) Resolve(ctx context.Context, identity string) (*ResolveInfo, error) {
	native := s.detector.SupportsNativeMultiContainer()
	paths, err := s.resolver.ResolveContainerPaths(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &ResolveInfo{
		Identity:   identity,
		Native:     native,
		Containers: paths,
	}, nil
}

// LoaderClasses implements DiscoveryService
func (s *discoveryService) LoaderClasses(ctx context.Context, identity string) ([]string, error) {
	classes, _, err := s.DiscoverNamespace(ctx, identity, receiver.GeneratedPackage)
	if err != nil {
		return nil, err
	}
	return receiver.LoaderClassNames(classes), nil
}

// LoadReceivers implements DiscoveryService. Loader classes with no catalog
// entry are skipped; the returned names are those that were published.
func (s *discoveryService) LoadReceivers(ctx context.Context, identity string, catalog map[string][]receiver.Data, dst receiver.Loader) ([]string, error) {
	names, err := s.LoaderClasses(ctx, identity)
	if err != nil {
		return nil, err
	}

	var loaded []string
	for _, name := range names {
		data, ok := catalog[name]
		if !ok {
			s.logger.Debug().Str("class", name).Msg("No receiver records registered for loader class")
			continue
		}
		dst.Load(data)
		loaded = append(loaded, name)
	}
	return loaded, nil
}
