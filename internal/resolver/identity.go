package resolver

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/deploymenttheory/go-dexscan/internal/interfaces"
	"github.com/deploymenttheory/go-dexscan/internal/types"
)

// StaticLookup resolves identities from a fixed table, typically loaded from configuration.
type StaticLookup map[string]types.ApplicationInfo

// Lookup returns the configured application info for identity, with
// relative directories made absolute against the working directory.
func (s StaticLookup) Lookup(ctx context.Context, identity string) (types.ApplicationInfo, error) {
	info, ok := s[identity]
	if !ok || info.SourceDir == "" {
		return types.ApplicationInfo{}, fmt.Errorf("%w: %s", ErrIdentityNotFound, identity)
	}
	if info.PackageName == "" {
		info.PackageName = identity
	}

	var err error
	if info.SourceDir, err = absolutePath(info.SourceDir); err != nil {
		return types.ApplicationInfo{}, err
	}
	if info.DataDir, err = absolutePath(info.DataDir); err != nil {
		return types.ApplicationInfo{}, err
	}
	return info, nil
}

// absolutePath resolves path against the working directory; empty stays empty.
func absolutePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

// LayoutLookup resolves identities against an Android data partition laid out
// under Root: <Root>/data/app/<pkg>[-<suffix>]/base.apk and <Root>/data/data/<pkg>.
type LayoutLookup struct {
	Fs   afero.Fs
	Root string
}

// NewLayoutLookup creates a lookup over the device image rooted at root.
func NewLayoutLookup(fs afero.Fs, root string) *LayoutLookup {
	return &LayoutLookup{Fs: fs, Root: root}
}

// Lookup locates the installed primary container and private data directory.
func (l *LayoutLookup) Lookup(ctx context.Context, identity string) (types.ApplicationInfo, error) {
	if err := ctx.Err(); err != nil {
		return types.ApplicationInfo{}, err
	}

	root, err := absolutePath(l.Root)
	if err != nil {
		return types.ApplicationInfo{}, err
	}

	appDir := filepath.Join(root, "data", "app")
	candidates := []string{filepath.Join(appDir, identity, "base.apk")}

	// Installs since API 21 use a randomized directory suffix.
	matches, err := afero.Glob(l.Fs, filepath.Join(appDir, identity+"-*", "base.apk"))
	if err != nil {
		return types.ApplicationInfo{}, fmt.Errorf("failed to search %s: %w", appDir, err)
	}
	sort.Strings(matches)
	candidates = append(candidates, matches...)

	for _, candidate := range candidates {
		if isRegularFile(l.Fs, candidate) {
			return types.ApplicationInfo{
				PackageName: identity,
				SourceDir:   candidate,
				DataDir:     filepath.Join(root, "data", "data", identity),
			}, nil
		}
	}

	return types.ApplicationInfo{}, fmt.Errorf("%w: %s (no base.apk under %s)", ErrIdentityNotFound, identity, appDir)
}

// ChainLookup consults each lookup in order; the first success wins.
type ChainLookup []interfaces.IdentityLookup

// Lookup returns the first successful resolution, or the last error.
func (c ChainLookup) Lookup(ctx context.Context, identity string) (types.ApplicationInfo, error) {
	lastErr := fmt.Errorf("%w: %s", ErrIdentityNotFound, identity)
	for _, l := range c {
		if l == nil {
			continue
		}
		info, err := l.Lookup(ctx, identity)
		if err == nil {
			return info, nil
		}
		lastErr = err
	}
	return types.ApplicationInfo{}, lastErr
}

func isRegularFile(fs afero.Fs, path string) bool {
	fi, err := fs.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
