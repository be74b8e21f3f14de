package resolver

import (
	"encoding/xml"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/deploymenttheory/go-dexscan/internal/types"
)

// sharedPrefsDocument mirrors the XML written for an application preference store.
type sharedPrefsDocument struct {
	XMLName xml.Name     `xml:"map"`
	Ints    []prefEntry  `xml:"int"`
	Longs   []prefEntry  `xml:"long"`
	Strings []prefString `xml:"string"`
}

type prefEntry struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type prefString struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// SharedPrefsStore is a read-only view of one application preference file.
type SharedPrefsStore struct {
	path   string
	values map[string]string
	logger zerolog.Logger
}

// SharedPrefsPath returns <dataDir>/shared_prefs/<name>.xml.
func SharedPrefsPath(dataDir, name string) string {
	return filepath.Join(dataDir, types.SharedPrefsFolderName, name+".xml")
}

// OpenSharedPrefs loads the named preference file of the application whose
// private data lives in dataDir. A missing file is an empty store; a malformed
// one is logged and treated as empty.
func OpenSharedPrefs(fs afero.Fs, dataDir, name string, logger zerolog.Logger) *SharedPrefsStore {
	store := &SharedPrefsStore{
		path:   SharedPrefsPath(dataDir, name),
		values: make(map[string]string),
		logger: logger,
	}

	data, err := afero.ReadFile(fs, store.path)
	if err != nil {
		logger.Debug().Err(err).Str("path", store.path).Msg("Preference file not readable, using defaults")
		return store
	}

	var doc sharedPrefsDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		logger.Warn().Err(err).Str("path", store.path).Msg("Malformed preference file, using defaults")
		return store
	}

	for _, e := range doc.Ints {
		store.values[e.Name] = e.Value
	}
	for _, e := range doc.Longs {
		store.values[e.Name] = e.Value
	}
	for _, e := range doc.Strings {
		store.values[e.Name] = e.Value
	}

	return store
}

// Path returns the file the store was loaded from.
func (s *SharedPrefsStore) Path() string {
	return s.path
}

// Int returns the integer stored under key, or def when absent or not an integer.
func (s *SharedPrefsStore) Int(key string, def int) int {
	raw, ok := s.values[key]
	if !ok {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Str("key", key).Msg("Preference is not an integer, using default")
		return def
	}
	return v
}
