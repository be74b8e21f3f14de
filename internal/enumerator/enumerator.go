// Package enumerator opens class containers (APKs, raw DEX files and extracted
// secondary-dex archives) and streams the fully-qualified class names they define.
package enumerator

import (
	"bytes"
	"fmt"
	"iter"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/deploymenttheory/go-dexscan/internal/logging"
	"github.com/deploymenttheory/go-dexscan/internal/types"
)

var (
	zipMagic = []byte("PK\x03\x04")
	dexMagic = types.DexMagicPrefix[:]
)

// extractedDexEntry is the single DEX member of an extracted secondary container.
const extractedDexEntry = "classes.dex"

// ContainerReadError reports a container that could not be opened or fully read.
type ContainerReadError struct {
	Path string
	Err  error
}

func (e *ContainerReadError) Error() string {
	return fmt.Sprintf("failed to read container '%s': %v", e.Path, e.Err)
}

func (e *ContainerReadError) Unwrap() error {
	return e.Err
}

// Enumerator implements interfaces.ClassEnumerator.
type Enumerator struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// NewEnumerator creates a class enumerator reading containers from fs.
func NewEnumerator(fs afero.Fs, logger zerolog.Logger) *Enumerator {
	return &Enumerator{
		fs:     fs,
		logger: logging.Component(logger, "class_enumerator"),
	}
}

// Open opens the container at path. Paths ending in the extracted suffix are
// loaded through a companion file written next to them; everything else is
// read directly as an APK or a raw DEX file.
func (e *Enumerator) Open(path string) (*Container, error) {
	if strings.HasSuffix(path, types.ExtractedSuffix) {
		return e.openExtracted(path)
	}
	return e.openDirect(path)
}

func (e *Enumerator) openDirect(path string) (*Container, error) {
	f, err := e.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open container: %w", err)
	}

	c := &Container{path: path, loader: LoaderDirect}
	c.onClose(f.Close)

	fi, err := f.Stat()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to stat container: %w", err)
	}
	size := fi.Size()

	magic := make([]byte, 4)
	if _, err := f.ReadAt(magic, 0); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to read container magic: %w", err)
	}

	switch {
	case bytes.Equal(magic, dexMagic):
		c.sources = append(c.sources, rawDexSource(path, f, size))
	case bytes.Equal(magic, zipMagic):
		zr, err := zip.NewReader(f, size)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to read archive: %w", err)
		}
		c.sources = c.archiveDexSources(e.fs, zr, f)
		if len(c.sources) == 0 {
			c.Close()
			return nil, fmt.Errorf("archive contains no classes.dex")
		}
	default:
		c.Close()
		return nil, fmt.Errorf("unrecognized container format (magic %q)", magic)
	}

	return c, nil
}

func (e *Enumerator) openExtracted(path string) (*Container, error) {
	companion := path + types.ExtractionCompanionSuffix

	if err := e.extract(path, companion); err != nil {
		e.fs.Remove(companion)
		return nil, err
	}

	c := &Container{path: path, loader: LoaderExtracted}
	c.onClose(func() error {
		if err := e.fs.Remove(companion); err != nil {
			return fmt.Errorf("failed to remove companion file: %w", err)
		}
		return nil
	})

	f, err := e.fs.Open(companion)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open companion file: %w", err)
	}
	c.onClose(f.Close)

	fi, err := f.Stat()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to stat companion file: %w", err)
	}

	c.sources = append(c.sources, rawDexSource(companion, f, fi.Size()))
	return c, nil
}

// extract writes the DEX member of the archive at path to companion.
func (e *Enumerator) extract(path, companion string) error {
	f, err := e.fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open container: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat container: %w", err)
	}

	zr, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	return extractEntry(e.fs, zr, extractedDexEntry, companion)
}

// Enumerate yields the class names of the container at path in native entry
// order. Each range opens a fresh handle that is released on every exit path.
// A failure is logged and yielded once as a *ContainerReadError, ending the sequence.
func (e *Enumerator) Enumerate(path string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		c, err := e.Open(path)
		if err != nil {
			e.logger.Warn().Err(err).Str("path", path).Msg("Failed to open container")
			yield("", &ContainerReadError{Path: path, Err: err})
			return
		}
		defer func() {
			if err := c.Close(); err != nil {
				e.logger.Warn().Err(err).Str("path", path).Msg("Failed to release container")
			}
		}()

		e.logger.Debug().Str("path", path).Str("loader", c.Loader()).Int("dex_files", c.DexCount()).Msg("Enumerating container")

		for name, err := range c.Classes() {
			if err != nil {
				e.logger.Warn().Err(err).Str("path", path).Msg("Failed to read container")
				yield("", &ContainerReadError{Path: path, Err: err})
				return
			}
			if !yield(name, nil) {
				return
			}
		}
	}
}
