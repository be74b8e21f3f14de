package capability

import (
	"github.com/magiconair/properties"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/deploymenttheory/go-dexscan/internal/interfaces"
)

// MapSource is an in-memory property source.
type MapSource map[string]string

// Property returns the value for key and whether it is defined.
func (m MapSource) Property(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// FileSource serves properties from a build.prop style key=value file.
type FileSource struct {
	props *properties.Properties
}

// LoadFileSource reads path from fs. A file that cannot be read or parsed is
// logged and yields an empty source, which detection treats as unsupported.
func LoadFileSource(fs afero.Fs, path string, logger zerolog.Logger) *FileSource {
	empty := &FileSource{props: properties.NewProperties()}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to read property file")
		return empty
	}

	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadBytes(data)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to parse property file")
		return empty
	}

	logger.Debug().Str("path", path).Int("properties", props.Len()).Msg("Loaded property file")
	return &FileSource{props: props}
}

// Property returns the value for key and whether it is defined.
func (f *FileSource) Property(key string) (string, bool) {
	return f.props.Get(key)
}

// Chain consults each source in order; the first one defining a key wins.
type Chain []interfaces.PropertySource

// Property returns the value for key and whether any source defines it.
func (c Chain) Property(key string) (string, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if v, ok := src.Property(key); ok {
			return v, true
		}
	}
	return "", false
}
