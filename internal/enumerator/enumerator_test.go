package enumerator

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-dexscan/internal/testutil"
)

func collect(t *testing.T, e *Enumerator, path string) ([]string, error) {
	t.Helper()
	var names []string
	var lastErr error
	for name, err := range e.Enumerate(path) {
		if err != nil {
			require.Nil(t, lastErr, "sequence must end after the first error")
			lastErr = err
			continue
		}
		names = append(names, name)
	}
	return names, lastErr
}

func writeMem(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func TestEnumerate_RawDex(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMem(t, fs, "/c/classes.dex", testutil.BuildDex("com.app.B", "com.app.A"))

	names, err := collect(t, NewEnumerator(fs, testutil.NewTestLogger(t)), "/c/classes.dex")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.app.B", "com.app.A"}, names)
}

func TestEnumerate_APK(t *testing.T) {
	fs := afero.NewMemMapFs()
	apk := testutil.BuildAPK(
		testutil.BuildDex("com.app.feature.A", "com.app.feature.B"),
		testutil.BuildDex("com.other.C"),
		testutil.BuildDex("com.app.D"),
	)
	writeMem(t, fs, "/data/app/base.apk", apk)

	e := NewEnumerator(fs, testutil.NewTestLogger(t))

	c, err := e.Open("/data/app/base.apk")
	require.NoError(t, err)
	assert.Equal(t, LoaderDirect, c.Loader())
	assert.Equal(t, 3, c.DexCount())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	names, err := collect(t, e, "/data/app/base.apk")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.app.feature.A", "com.app.feature.B", "com.other.C", "com.app.D"}, names)
}

func TestEnumerate_Restartable(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMem(t, fs, "/base.apk", testutil.BuildAPK(testutil.BuildDex("a.A", "a.B")))
	e := NewEnumerator(fs, testutil.NewTestLogger(t))

	first, err := collect(t, e, "/base.apk")
	require.NoError(t, err)
	second, err := collect(t, e, "/base.apk")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEnumerate_Extracted(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/data/data/app/code_cache/secondary-dexes/base.apk.classes2.zip"
	writeMem(t, fs, path, testutil.BuildSecondaryZip(testutil.BuildDex("com.app.X", "com.app.Y")))

	e := NewEnumerator(fs, testutil.NewTestLogger(t))

	var names []string
	for name, err := range e.Enumerate(path) {
		require.NoError(t, err)
		exists, statErr := afero.Exists(fs, path+".tmp")
		require.NoError(t, statErr)
		assert.True(t, exists, "companion file exists while loading")
		names = append(names, name)
	}

	assert.Equal(t, []string{"com.app.X", "com.app.Y"}, names)

	exists, err := afero.Exists(fs, path+".tmp")
	require.NoError(t, err)
	assert.False(t, exists, "companion file removed after release")
}

func TestEnumerate_EarlyBreakReleases(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/s/base.apk.classes2.zip"
	writeMem(t, fs, path, testutil.BuildSecondaryZip(testutil.BuildDex("a.A", "a.B", "a.C")))

	e := NewEnumerator(fs, testutil.NewTestLogger(t))
	for range e.Enumerate(path) {
		break
	}

	exists, err := afero.Exists(fs, path+".tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEnumerate_Failures(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMem(t, fs, "/bad/garbage.apk", []byte("this is not a container"))
	writeMem(t, fs, "/bad/short.dex", []byte("PK"))
	writeMem(t, fs, "/bad/nodex.apk", testutil.BuildZip(testutil.ZipEntry{Name: "res/a.xml", Data: []byte("x")}))
	writeMem(t, fs, "/bad/broken.apk", append([]byte("PK\x03\x04"), make([]byte, 64)...))
	writeMem(t, fs, "/bad/nodex.classes2.zip", testutil.BuildZip(testutil.ZipEntry{Name: "other.dex", Data: testutil.BuildDex("a.A")}))
	writeMem(t, fs, "/bad/corrupt.classes3.zip", []byte("not a zip"))

	corruptDex := testutil.BuildDex("a.A")
	copy(corruptDex[0:4], "xxxx")
	writeMem(t, fs, "/bad/corrupt-dex.apk", testutil.BuildAPK(corruptDex))

	e := NewEnumerator(fs, testutil.NewTestLogger(t))

	paths := []string{
		"/bad/missing.apk",
		"/bad/garbage.apk",
		"/bad/short.dex",
		"/bad/nodex.apk",
		"/bad/broken.apk",
		"/bad/nodex.classes2.zip",
		"/bad/corrupt.classes3.zip",
		"/bad/corrupt-dex.apk",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			names, err := collect(t, e, path)
			assert.Empty(t, names)

			var readErr *ContainerReadError
			require.True(t, errors.As(err, &readErr))
			assert.Equal(t, path, readErr.Path)

			exists, statErr := afero.Exists(fs, path+".tmp")
			require.NoError(t, statErr)
			assert.False(t, exists)
		})
	}
}

func TestEnumerate_FailureAfterPartialRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	bad := testutil.BuildDex("b.B")
	copy(bad[0:4], "xxxx")
	writeMem(t, fs, "/p/base.apk", testutil.BuildAPK(testutil.BuildDex("a.A"), bad))

	names, err := collect(t, NewEnumerator(fs, testutil.NewTestLogger(t)), "/p/base.apk")
	assert.Equal(t, []string{"a.A"}, names)

	var readErr *ContainerReadError
	assert.True(t, errors.As(err, &readErr))
	assert.Contains(t, err.Error(), "classes2.dex")
}

func TestEnumerate_OsFs(t *testing.T) {
	dir := t.TempDir()
	apk := testutil.WriteFile(t, dir, "base.apk", testutil.BuildAPK(testutil.BuildDex("com.app.A")))
	secondary := testutil.WriteFile(t, dir, "base.apk.classes2.zip", testutil.BuildSecondaryZip(testutil.BuildDex("com.app.B")))

	e := NewEnumerator(afero.NewOsFs(), testutil.NewTestLogger(t))

	names, err := collect(t, e, apk)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.app.A"}, names)

	names, err = collect(t, e, secondary)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.app.B"}, names)
}

func inflatedFiles(t *testing.T, fs afero.Fs) []string {
	t.Helper()
	matches, err := afero.Glob(fs, filepath.Join(os.TempDir(), inflatePattern))
	require.NoError(t, err)
	return matches
}

// corruptFirstEntry overwrites the start of the first member's compressed data.
func corruptFirstEntry(t *testing.T, archive []byte) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	off, err := zr.File[0].DataOffset()
	require.NoError(t, err)

	out := bytes.Clone(archive)
	out[off] = 0xff
	return out
}

func TestEnumerate_InflatedEntryUsesTempFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMem(t, fs, "/data/app/base.apk", testutil.BuildAPK(testutil.BuildDex("a.A", "a.B")))
	e := NewEnumerator(fs, testutil.NewTestLogger(t))

	var names []string
	for name, err := range e.Enumerate("/data/app/base.apk") {
		require.NoError(t, err)
		assert.Len(t, inflatedFiles(t, fs), 1, "deflated member is read from a temporary file")
		names = append(names, name)
	}

	assert.Equal(t, []string{"a.A", "a.B"}, names)
	assert.Empty(t, inflatedFiles(t, fs))
}

func TestEnumerate_InflatedEntryRemoved(t *testing.T) {
	deflated := testutil.BuildZip(testutil.ZipEntry{Name: "classes.dex", Data: testutil.BuildDex("a.A", "a.B", "a.C")})
	badDex := testutil.BuildDex("b.B")
	copy(badDex[0:4], "xxxx")

	tests := []struct {
		name    string
		archive []byte
		stop    bool
		wantErr bool
	}{
		{name: "complete run", archive: deflated},
		{name: "early break", archive: deflated, stop: true},
		{name: "corrupt stream", archive: corruptFirstEntry(t, deflated), wantErr: true},
		{name: "corrupt dex", archive: testutil.BuildZip(testutil.ZipEntry{Name: "classes.dex", Data: badDex}), wantErr: true},
		{
			name: "failure in later member",
			archive: testutil.BuildZip(
				testutil.ZipEntry{Name: "classes.dex", Data: testutil.BuildDex("a.A")},
				testutil.ZipEntry{Name: "classes2.dex", Data: badDex},
			),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeMem(t, fs, "/app/base.apk", tt.archive)
			e := NewEnumerator(fs, testutil.NewTestLogger(t))

			var lastErr error
			for _, err := range e.Enumerate("/app/base.apk") {
				if err != nil {
					lastErr = err
				}
				if tt.stop {
					break
				}
			}

			if tt.wantErr {
				var readErr *ContainerReadError
				assert.True(t, errors.As(lastErr, &readErr))
			} else {
				assert.NoError(t, lastErr)
			}
			assert.Empty(t, inflatedFiles(t, fs))
		})
	}
}

func TestEnumerate_InflatedEntryRemovedOnClose(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMem(t, fs, "/app/base.apk", testutil.BuildAPK(testutil.BuildDex("a.A", "a.B")))
	e := NewEnumerator(fs, testutil.NewTestLogger(t))

	c, err := e.Open("/app/base.apk")
	require.NoError(t, err)
	for range c.Classes() {
		assert.Len(t, inflatedFiles(t, fs), 1)
		require.NoError(t, c.Close())
		break
	}
	assert.Empty(t, inflatedFiles(t, fs))
}

func TestEnumerate_DexMemberLoadOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	archive := testutil.BuildZip(
		testutil.ZipEntry{Name: "classes3.dex", Data: testutil.BuildDex("c.Three")},
		testutil.ZipEntry{Name: "classes10.dex", Data: testutil.BuildDex("c.Ten"), Stored: true},
		testutil.ZipEntry{Name: "classes.dex", Data: testutil.BuildDex("c.One")},
		testutil.ZipEntry{Name: "classes1.dex", Data: testutil.BuildDex("c.Bogus")},
		testutil.ZipEntry{Name: "classes5.dex", Data: testutil.BuildDex("c.Five")},
		testutil.ZipEntry{Name: "classes2.dex", Data: testutil.BuildDex("c.Two"), Stored: true},
		testutil.ZipEntry{Name: "classes02.dex", Data: testutil.BuildDex("c.Padded")},
	)
	writeMem(t, fs, "/app/base.apk", archive)
	e := NewEnumerator(fs, testutil.NewTestLogger(t))

	c, err := e.Open("/app/base.apk")
	require.NoError(t, err)
	assert.Equal(t, 3, c.DexCount())
	require.NoError(t, c.Close())

	names, err := collect(t, e, "/app/base.apk")
	require.NoError(t, err)
	assert.Equal(t, []string{"c.One", "c.Two", "c.Three"}, names)
}

func TestEnumerate_NoPrimaryDexMember(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMem(t, fs, "/app/base.apk", testutil.BuildZip(
		testutil.ZipEntry{Name: "classes2.dex", Data: testutil.BuildDex("c.Two")},
	))

	names, err := collect(t, NewEnumerator(fs, testutil.NewTestLogger(t)), "/app/base.apk")
	assert.Empty(t, names)
	var readErr *ContainerReadError
	assert.True(t, errors.As(err, &readErr))
}
