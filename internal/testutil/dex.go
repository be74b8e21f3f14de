// Package testutil provides fixtures shared by package tests: synthetic DEX
// files, APK and extracted secondary-dex archives, and loggers.
package testutil

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

// BuildDex returns a minimal, structurally valid DEX file defining the given
// dotted class names, in that class_defs order.
func BuildDex(classNames ...string) []byte {
	const headerSize = 0x70
	n := uint32(len(classNames))
	endian := binary.LittleEndian

	stringIdsOff := uint32(headerSize)
	typeIdsOff := stringIdsOff + n*4
	classDefsOff := typeIdsOff + n*4
	dataOff := classDefsOff + n*32

	var strData bytes.Buffer
	stringOffsets := make([]uint32, n)
	for i, name := range classNames {
		descriptor := "L" + strings.ReplaceAll(name, ".", "/") + ";"
		stringOffsets[i] = dataOff + uint32(strData.Len())
		strData.Write(encodeUleb128(uint32(len([]rune(descriptor)))))
		strData.WriteString(descriptor)
		strData.WriteByte(0)
	}

	fileSize := dataOff + uint32(strData.Len())
	data := make([]byte, fileSize)

	copy(data[0:8], []byte("dex\n035\x00"))
	endian.PutUint32(data[32:36], fileSize)
	endian.PutUint32(data[36:40], headerSize)
	endian.PutUint32(data[40:44], 0x12345678)
	endian.PutUint32(data[56:60], n)
	endian.PutUint32(data[60:64], stringIdsOff)
	endian.PutUint32(data[64:68], n)
	endian.PutUint32(data[68:72], typeIdsOff)
	endian.PutUint32(data[96:100], n)
	endian.PutUint32(data[100:104], classDefsOff)
	endian.PutUint32(data[104:108], uint32(strData.Len()))
	endian.PutUint32(data[108:112], dataOff)

	for i := uint32(0); i < n; i++ {
		endian.PutUint32(data[stringIdsOff+i*4:], stringOffsets[i])
		endian.PutUint32(data[typeIdsOff+i*4:], i)
		// class_idx, access_flags, superclass_idx (no index), remaining offsets zero
		endian.PutUint32(data[classDefsOff+i*32:], i)
		endian.PutUint32(data[classDefsOff+i*32+4:], 0x1)
		endian.PutUint32(data[classDefsOff+i*32+8:], 0xffffffff)
		endian.PutUint32(data[classDefsOff+i*32+16:], 0xffffffff)
	}
	copy(data[dataOff:], strData.Bytes())

	return data
}

// ZipEntry is one file in an archive built by BuildZip.
type ZipEntry struct {
	Name   string
	Data   []byte
	Stored bool
}

// BuildZip returns a zip archive holding entries in order.
func BuildZip(entries ...ZipEntry) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		method := zip.Deflate
		if e.Stored {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: method})
		if err != nil {
			panic(err)
		}
		if _, err := w.Write(e.Data); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// BuildAPK returns an APK-like archive with classes.dex, classes2.dex, ...
// plus a manifest entry that must be ignored by enumeration.
func BuildAPK(dexFiles ...[]byte) []byte {
	entries := []ZipEntry{{Name: "AndroidManifest.xml", Data: []byte("<manifest/>")}}
	for i, d := range dexFiles {
		name := "classes.dex"
		if i > 0 {
			name = "classes" + strconv.Itoa(i+1) + ".dex"
		}
		entries = append(entries, ZipEntry{Name: name, Data: d, Stored: i%2 == 1})
	}
	return BuildZip(entries...)
}

// BuildSecondaryZip returns an extracted secondary container as written by
// legacy split packaging: a zip with a single classes.dex.
func BuildSecondaryZip(dex []byte) []byte {
	return BuildZip(ZipEntry{Name: "classes.dex", Data: dex})
}

// WriteFile writes data under dir and returns the absolute path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func encodeUleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}
