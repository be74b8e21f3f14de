// Package resolver produces the ordered list of DEX containers an application
// was loaded from: the primary APK plus, on runtimes without native multidex,
// the secondary containers extracted by legacy split packaging.
package resolver

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/deploymenttheory/go-dexscan/internal/interfaces"
	"github.com/deploymenttheory/go-dexscan/internal/logging"
	"github.com/deploymenttheory/go-dexscan/internal/types"
)

// PreferenceOpener opens the multidex preference store of an application.
type PreferenceOpener func(app types.ApplicationInfo) interfaces.PreferenceStore

// Resolver implements interfaces.ContainerResolver.
type Resolver struct {
	fs        afero.Fs
	lookup    interfaces.IdentityLookup
	detector  interfaces.CapabilityDetector
	openPrefs PreferenceOpener
	logger    zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPreferenceOpener replaces the shared preferences reader.
func WithPreferenceOpener(open PreferenceOpener) Option {
	return func(r *Resolver) {
		r.openPrefs = open
	}
}

// NewResolver creates a container path resolver.
func NewResolver(fs afero.Fs, lookup interfaces.IdentityLookup, detector interfaces.CapabilityDetector, logger zerolog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		fs:       fs,
		lookup:   lookup,
		detector: detector,
		logger:   logging.Component(logger, "container_resolver"),
	}
	r.openPrefs = func(app types.ApplicationInfo) interfaces.PreferenceStore {
		return OpenSharedPrefs(r.fs, app.DataDir, types.MultidexPrefsName, r.logger)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SecondaryContainerPath returns the expected path of supplemental container index.
func SecondaryContainerPath(app types.ApplicationInfo, index int) string {
	name := fmt.Sprintf("%s%s%d%s", filepath.Base(app.SourceDir), types.ExtractedNameExt, index, types.ExtractedSuffix)
	return filepath.Join(app.DataDir, types.SecondaryFolderName, name)
}

// ResolveContainerPaths returns the primary container first, followed by the
// supplemental containers numbered 2..dex.number when the runtime cannot load
// them natively. A missing supplemental container fails the whole resolution.
func (r *Resolver) ResolveContainerPaths(ctx context.Context, identity string) ([]string, error) {
	app, err := r.lookup.Lookup(ctx, identity)
	if err != nil {
		return nil, &IdentityResolutionError{Identity: identity, Err: err}
	}

	paths := []string{app.SourceDir}

	if r.detector.SupportsNativeMultiContainer() {
		r.logger.Debug().Str("identity", identity).Msg("Runtime loads secondary containers natively")
		return paths, nil
	}

	total := r.openPrefs(app).Int(types.MultidexKeyDexNumber, 1)
	r.logger.Debug().Str("identity", identity).Int("dex_number", total).Msg("Resolving extracted secondary containers")

	for index := 2; index <= total; index++ {
		path := SecondaryContainerPath(app, index)
		if !isRegularFile(r.fs, path) {
			r.logger.Error().Str("path", path).Int("index", index).Msg("Missing extracted secondary container")
			return nil, &MissingContainerError{Path: path, Index: index}
		}
		paths = append(paths, path)
	}

	return paths, nil
}
