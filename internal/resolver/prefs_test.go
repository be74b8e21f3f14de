package resolver

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-dexscan/internal/types"
)

func TestOpenSharedPrefs(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := SharedPrefsPath("/data/data/app", types.MultidexPrefsName)
	require.NoError(t, afero.WriteFile(fs, path, []byte(multidexPrefs(5)), 0o600))

	store := OpenSharedPrefs(fs, "/data/data/app", types.MultidexPrefsName, zerolog.Nop())

	assert.Equal(t, "/data/data/app/shared_prefs/multidex.version.xml", store.Path())
	assert.Equal(t, 5, store.Int(types.MultidexKeyDexNumber, 1))
	assert.Equal(t, 12345, store.Int("dex.crc", 0))
	assert.Equal(t, 7, store.Int("absent", 7))
}

func TestOpenSharedPrefs_Missing(t *testing.T) {
	store := OpenSharedPrefs(afero.NewMemMapFs(), "/data/data/app", types.MultidexPrefsName, zerolog.Nop())
	assert.Equal(t, 1, store.Int(types.MultidexKeyDexNumber, 1))
}

func TestOpenSharedPrefs_Malformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := SharedPrefsPath("/d", types.MultidexPrefsName)
	require.NoError(t, afero.WriteFile(fs, path, []byte("<map><int name="), 0o600))

	store := OpenSharedPrefs(fs, "/d", types.MultidexPrefsName, zerolog.Nop())
	assert.Equal(t, 1, store.Int(types.MultidexKeyDexNumber, 1))
}

func TestOpenSharedPrefs_NonInteger(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := SharedPrefsPath("/d", types.MultidexPrefsName)
	require.NoError(t, afero.WriteFile(fs, path, []byte(`<map><int name="dex.number" value="three" /></map>`), 0o600))

	store := OpenSharedPrefs(fs, "/d", types.MultidexPrefsName, zerolog.Nop())
	assert.Equal(t, 1, store.Int(types.MultidexKeyDexNumber, 1))
}
