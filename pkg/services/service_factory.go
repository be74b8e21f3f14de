package services

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/deploymenttheory/go-dexscan/internal/capability"
	"github.com/deploymenttheory/go-dexscan/internal/config"
	"github.com/deploymenttheory/go-dexscan/internal/enumerator"
	"github.com/deploymenttheory/go-dexscan/internal/interfaces"
	"github.com/deploymenttheory/go-dexscan/internal/resolver"
	"github.com/deploymenttheory/go-dexscan/internal/scanner"
)

// ServiceFactory wires the discovery pipeline from configuration
type ServiceFactory struct {
	cfg    *config.Config
	fs     afero.Fs
	logger zerolog.Logger

	// Optional overrides
	detector interfaces.CapabilityDetector
	lookup   interfaces.IdentityLookup

	discoveryService DiscoveryService
	containerService ContainerService
	scanner          *scanner.Scanner

	mu          sync.Mutex
	initialized bool
	shutdown    bool
}

// FactoryOption configures a ServiceFactory
type FactoryOption func(*ServiceFactory)

// WithFs sets the filesystem containers and device files are read from
func WithFs(fs afero.Fs) FactoryOption {
	return func(sf *ServiceFactory) {
		sf.fs = fs
	}
}

// WithLogger sets the base logger
func WithLogger(logger zerolog.Logger) FactoryOption {
	return func(sf *ServiceFactory) {
		sf.logger = logger
	}
}

// WithDetector replaces property based capability detection
func WithDetector(d interfaces.CapabilityDetector) FactoryOption {
	return func(sf *ServiceFactory) {
		sf.detector = d
	}
}

// WithLookup replaces the configured identity lookup
func WithLookup(l interfaces.IdentityLookup) FactoryOption {
	return func(sf *ServiceFactory) {
		sf.lookup = l
	}
}

// NewServiceFactory creates a new service factory instance
func NewServiceFactory(cfg *config.Config, opts ...FactoryOption) *ServiceFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	sf := &ServiceFactory{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(sf)
	}
	return sf
}

// Initialize builds every service with its dependencies
func (sf *ServiceFactory) Initialize() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.initLocked()
}

func (sf *ServiceFactory) initLocked() error {
	if sf.shutdown {
		return ErrFactoryShutdown
	}
	if sf.initialized {
		return nil
	}

	detector := sf.detector
	if detector == nil {
		detector = capability.NewDetector(sf.properties(), sf.logger)
	}

	lookup := sf.lookup
	if lookup == nil {
		lookup = resolver.ChainLookup{
			resolver.StaticLookup(sf.cfg.StaticApplications()),
			resolver.NewLayoutLookup(sf.fs, sf.cfg.Device.Root),
		}
	}

	res := resolver.NewResolver(sf.fs, lookup, detector, sf.logger)
	enum := enumerator.NewEnumerator(sf.fs, sf.logger)
	sf.scanner = scanner.New(enum, sf.logger,
		scanner.WithStrategy(sf.cfg.Strategy()),
		scanner.WithWorkers(sf.cfg.Scan.Workers),
	)

	sf.discoveryService = NewDiscoveryService(detector, res, sf.scanner, sf.logger)
	sf.containerService = NewContainerService(enum)

	sf.initialized = true
	sf.logger.Debug().
		Str("strategy", sf.scanner.Strategy().String()).
		Str("device_root", sf.cfg.Device.Root).
		Msg("Services initialized")
	return nil
}

// properties builds the runtime property source: explicit overrides first,
// then the build.prop file when one is configured.
func (sf *ServiceFactory) properties() interfaces.PropertySource {
	chain := capability.Chain{capability.MapSource(sf.cfg.Device.Properties)}
	if sf.cfg.Device.BuildProp != "" {
		chain = append(chain, capability.LoadFileSource(sf.fs, sf.cfg.Device.BuildProp, sf.logger))
	}
	return chain
}

// DiscoveryService returns the discovery service instance
func (sf *ServiceFactory) DiscoveryService() (DiscoveryService, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	if err := sf.initLocked(); err != nil {
		return nil, err
	}
	return sf.discoveryService, nil
}

// ContainerService returns the container service instance
func (sf *ServiceFactory) ContainerService() (ContainerService, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	if err := sf.initLocked(); err != nil {
		return nil, err
	}
	return sf.containerService, nil
}

// Scanner returns the configured scan orchestrator
func (sf *ServiceFactory) Scanner() (*scanner.Scanner, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	if err := sf.initLocked(); err != nil {
		return nil, err
	}
	return sf.scanner, nil
}

// Shutdown releases every service. The factory cannot be reused afterwards.
func (sf *ServiceFactory) Shutdown() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	sf.discoveryService = nil
	sf.containerService = nil
	sf.scanner = nil
	sf.initialized = false
	sf.shutdown = true
	return nil
}

// IsInitialized returns whether the factory has been initialized
func (sf *ServiceFactory) IsInitialized() bool {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.initialized
}
