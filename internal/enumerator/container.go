package enumerator

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"regexp"
	"strconv"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	"github.com/deploymenttheory/go-dexscan/internal/interfaces"
	"github.com/deploymenttheory/go-dexscan/internal/parsers/dex"
)

// Loader variants used to open a container.
const (
	LoaderDirect    = "direct"
	LoaderExtracted = "extracted"
)

// dexEntryPattern matches the DEX members the runtime loads: classes.dex,
// classes2.dex, classes3.dex, ...
var dexEntryPattern = regexp.MustCompile(`^classes([2-9]|[1-9]\d+)?\.dex$`)

// inflatePattern names the temporary file a compressed DEX member is inflated into.
const inflatePattern = "dexscan-*.dex"

// dexSource opens one DEX file inside a container on demand. The returned
// release func drops whatever the open step created.
type dexSource struct {
	name string
	open func() (interfaces.ClassNameReader, func() error, error)
}

func noRelease() error { return nil }

// Container is an opened class container. It must be closed by the caller.
type Container struct {
	path    string
	loader  string
	sources []dexSource
	closers []func() error
	closed  bool
}

// Path returns the container path.
func (c *Container) Path() string {
	return c.path
}

// Loader returns the loader variant the container was opened with.
func (c *Container) Loader() string {
	return c.loader
}

// DexCount returns the number of DEX files the container holds.
func (c *Container) DexCount() int {
	return len(c.sources)
}

// Classes yields class names from every DEX file in container order. Each DEX
// is opened only when iteration reaches it, and iteration stops at the first error.
func (c *Container) Classes() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, src := range c.sources {
			if !emit(src, yield) {
				return
			}
		}
	}
}

// emit yields the class names of one DEX file and reports whether iteration should go on.
func emit(src dexSource, yield func(string, error) bool) bool {
	reader, release, err := src.open()
	if err != nil {
		yield("", fmt.Errorf("%s: %w", src.name, err))
		return false
	}
	defer release()

	for name, err := range reader.ClassNames() {
		if err != nil {
			yield("", fmt.Errorf("%s: %w", src.name, err))
			return false
		}
		if !yield(name, nil) {
			return false
		}
	}
	return true
}

// Close releases every handle and removes any loading artifact. It is safe to call twice.
func (c *Container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Container) onClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

// rawDexSource reads a DEX file in place.
func rawDexSource(name string, r io.ReaderAt, size int64) dexSource {
	return dexSource{
		name: name,
		open: func() (interfaces.ClassNameReader, func() error, error) {
			reader, err := dex.NewClassNameReader(r, size)
			return reader, noRelease, err
		},
	}
}

// archiveDexSources lists the DEX members of an archive in load order:
// classes.dex, then classes2.dex, classes3.dex and so on up to the first gap.
// Stored members are read in place through a section of the archive; deflated
// ones are inflated into a temporary file on fs when iteration reaches them.
func (c *Container) archiveDexSources(fs afero.Fs, zr *zip.Reader, archive io.ReaderAt) []dexSource {
	members := make(map[int]*zip.File)
	for _, zf := range zr.File {
		m := dexEntryPattern.FindStringSubmatch(zf.Name)
		if m == nil {
			continue
		}
		index := 1
		if m[1] != "" {
			index, _ = strconv.Atoi(m[1])
		}
		if _, dup := members[index]; !dup {
			members[index] = zf
		}
	}

	var sources []dexSource
	for index := 1; ; index++ {
		zf, ok := members[index]
		if !ok {
			break
		}
		sources = append(sources, dexSource{
			name: zf.Name,
			open: func() (interfaces.ClassNameReader, func() error, error) {
				if zf.Method == zip.Store {
					off, err := zf.DataOffset()
					if err != nil {
						return nil, nil, fmt.Errorf("failed to locate entry data: %w", err)
					}
					size := int64(zf.UncompressedSize64)
					reader, err := dex.NewClassNameReader(io.NewSectionReader(archive, off, size), size)
					return reader, noRelease, err
				}
				return c.openInflated(fs, zf)
			},
		})
	}
	return sources
}

// openInflated inflates zf into a temporary file and reads the DEX from there.
// The file is removed on release, or on Close when release never ran.
func (c *Container) openInflated(fs afero.Fs, zf *zip.File) (interfaces.ClassNameReader, func() error, error) {
	tmp, size, err := inflateEntry(fs, zf)
	if err != nil {
		return nil, nil, err
	}

	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		closeErr := tmp.Close()
		if err := fs.Remove(tmp.Name()); err != nil {
			return fmt.Errorf("failed to remove inflated entry: %w", err)
		}
		return closeErr
	}
	c.onClose(release)

	reader, err := dex.NewClassNameReader(tmp, size)
	if err != nil {
		release()
		return nil, nil, err
	}
	return reader, release, nil
}

// inflateEntry decompresses zf to EOF into a new temporary file, so the
// archive's size and CRC checks run, and returns it with its length.
func inflateEntry(fs afero.Fs, zf *zip.File) (afero.File, int64, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open entry: %w", err)
	}
	defer rc.Close()

	tmp, err := afero.TempFile(fs, "", inflatePattern)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create inflate file: %w", err)
	}

	n, err := io.Copy(tmp, rc)
	if err != nil {
		tmp.Close()
		fs.Remove(tmp.Name())
		return nil, 0, fmt.Errorf("failed to inflate entry: %w", err)
	}
	return tmp, n, nil
}

// extractEntry copies the named archive member into a new file at dst.
func extractEntry(fs afero.Fs, zr *zip.Reader, name, dst string) error {
	var entry *zip.File
	for _, zf := range zr.File {
		if zf.Name == name {
			entry = zf
			break
		}
	}
	if entry == nil {
		return fmt.Errorf("archive has no %s entry", name)
	}

	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()

	out, err := fs.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create companion file: %w", err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", name, err)
	}
	return out.Close()
}
