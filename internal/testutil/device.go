package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-dexscan/internal/types"
)

// Device lays out an Android data partition on an in-memory filesystem.
type Device struct {
	Fs   afero.Fs
	Root string
	t    *testing.T
}

// NewDevice creates an empty device rooted at root.
func NewDevice(t *testing.T, root string) *Device {
	t.Helper()
	return &Device{Fs: afero.NewMemMapFs(), Root: root, t: t}
}

// Install writes base.apk for pkg under data/app/<pkg>-1 and creates its
// private data directory.
func (d *Device) Install(pkg string, dexFiles ...[]byte) types.ApplicationInfo {
	d.t.Helper()
	info := types.ApplicationInfo{
		PackageName: pkg,
		SourceDir:   filepath.Join(d.Root, "data", "app", pkg+"-1", "base.apk"),
		DataDir:     filepath.Join(d.Root, "data", "data", pkg),
	}
	d.Write(info.SourceDir, BuildAPK(dexFiles...))
	require.NoError(d.t, d.Fs.MkdirAll(info.DataDir, 0o755))
	return info
}

// AddSecondary writes extracted supplemental container index for app.
func (d *Device) AddSecondary(app types.ApplicationInfo, index int, dex []byte) string {
	d.t.Helper()
	name := fmt.Sprintf("%s%s%d%s", filepath.Base(app.SourceDir), types.ExtractedNameExt, index, types.ExtractedSuffix)
	path := filepath.Join(app.DataDir, types.SecondaryFolderName, name)
	d.Write(path, BuildSecondaryZip(dex))
	return path
}

// SetDexNumber records the total container count in the multidex preferences.
func (d *Device) SetDexNumber(app types.ApplicationInfo, n int) {
	d.t.Helper()
	path := filepath.Join(app.DataDir, types.SharedPrefsFolderName, types.MultidexPrefsName+".xml")
	d.Write(path, MultidexPrefsXML(n))
}

// Write stores data at path, creating parent directories.
func (d *Device) Write(path string, data []byte) {
	d.t.Helper()
	require.NoError(d.t, d.Fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(d.t, afero.WriteFile(d.Fs, path, data, 0o644))
}

// MultidexPrefsXML renders a preference file holding dex.number = n.
func MultidexPrefsXML(n int) []byte {
	return []byte(fmt.Sprintf(`<?xml version='1.0' encoding='utf-8' standalone='yes' ?>
<map>
    <long name="timestamp" value="1500000000000" />
    <int name="%s" value="%d" />
</map>
`, types.MultidexKeyDexNumber, n))
}
