package dex

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-dexscan/internal/testutil"
	"github.com/deploymenttheory/go-dexscan/internal/types"
)

func TestNewDexHeaderReader(t *testing.T) {
	data := testutil.BuildDex("com.app.feature.A", "com.app.feature.B")

	reader, err := NewDexHeaderReader(data, binary.LittleEndian)
	require.NoError(t, err)

	assert.Equal(t, "035", reader.Version())
	assert.Equal(t, uint32(len(data)), reader.FileSize())
	assert.Equal(t, uint32(2), reader.StringIdCount())
	assert.Equal(t, uint32(2), reader.TypeIdCount())
	assert.Equal(t, uint32(2), reader.ClassDefCount())
	assert.Equal(t, uint32(types.DexHeaderSize), reader.Header().HeaderSize)
}

func TestNewDexHeaderReader_Invalid(t *testing.T) {
	valid := testutil.BuildDex("com.app.A")

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{
			name:   "too small",
			mutate: func(d []byte) []byte { return d[:0x40] },
		},
		{
			name: "bad magic",
			mutate: func(d []byte) []byte {
				copy(d[0:4], "zip\n")
				return d
			},
		},
		{
			name: "unterminated magic",
			mutate: func(d []byte) []byte {
				d[7] = '5'
				return d
			},
		},
		{
			name: "reverse endian",
			mutate: func(d []byte) []byte {
				binary.LittleEndian.PutUint32(d[40:44], types.DexReverseEndianConstant)
				return d
			},
		},
		{
			name: "bad endian tag",
			mutate: func(d []byte) []byte {
				binary.LittleEndian.PutUint32(d[40:44], 0xdeadbeef)
				return d
			},
		},
		{
			name: "bad header size",
			mutate: func(d []byte) []byte {
				binary.LittleEndian.PutUint32(d[36:40], 0x78)
				return d
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), valid...))
			_, err := NewDexHeaderReader(data, binary.LittleEndian)
			assert.Error(t, err)
		})
	}
}

func TestClassNameReader_ClassNames(t *testing.T) {
	names := []string{"com.app.feature.B", "com.app.feature.A", "com.other.C"}
	data := testutil.BuildDex(names...)

	reader, err := NewClassNameReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, 3, reader.ClassCount())

	var got []string
	for name, err := range reader.ClassNames() {
		require.NoError(t, err)
		got = append(got, name)
	}

	// Native class_defs order, no re-sorting.
	assert.Equal(t, names, got)
}

func TestClassNameReader_Empty(t *testing.T) {
	data := testutil.BuildDex()

	reader, err := NewClassNameReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, 0, reader.ClassCount())

	for range reader.ClassNames() {
		t.Fatal("expected no classes")
	}
}

func TestClassNameReader_EarlyBreak(t *testing.T) {
	data := testutil.BuildDex("a.A", "a.B", "a.C")

	reader, err := NewClassNameReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	count := 0
	for range reader.ClassNames() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestClassNameReader_ClassNameOutOfRange(t *testing.T) {
	data := testutil.BuildDex("a.A")

	reader, err := NewClassNameReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = reader.ClassName(1)
	assert.Error(t, err)
	_, err = reader.ClassName(-1)
	assert.Error(t, err)
}

func TestNewClassNameReader_Corrupt(t *testing.T) {
	valid := testutil.BuildDex("com.app.A", "com.app.B")

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{
			name:   "truncated file",
			mutate: func(d []byte) []byte { return d[:len(d)-4] },
		},
		{
			name: "class_defs out of bounds",
			mutate: func(d []byte) []byte {
				binary.LittleEndian.PutUint32(d[96:100], 1000)
				return d
			},
		},
		{
			name: "string_ids inside header",
			mutate: func(d []byte) []byte {
				binary.LittleEndian.PutUint32(d[60:64], 0x10)
				return d
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), valid...))
			_, err := NewClassNameReader(bytes.NewReader(data), int64(len(data)))
			assert.Error(t, err)
		})
	}
}

func TestClassNameReader_BadTypeIndexStopsSequence(t *testing.T) {
	data := testutil.BuildDex("com.app.A", "com.app.B")
	h, err := NewDexHeaderReader(data, binary.LittleEndian)
	require.NoError(t, err)

	// Point the second class_def at a type index that does not exist.
	secondDef := h.Header().ClassDefsOff + types.ClassDefItemSize
	binary.LittleEndian.PutUint32(data[secondDef:], 99)

	reader, err := NewClassNameReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	var lastErr error
	for name, err := range reader.ClassNames() {
		if err != nil {
			lastErr = err
			continue
		}
		names = append(names, name)
	}

	assert.Equal(t, []string{"com.app.A"}, names)
	assert.Error(t, lastErr)
}

func TestDescriptorToClassName(t *testing.T) {
	tests := []struct {
		descriptor string
		want       string
		wantErr    bool
	}{
		{descriptor: "Lcom/app/Foo;", want: "com.app.Foo"},
		{descriptor: "Lcom/app/Outer$Inner;", want: "com.app.Outer$Inner"},
		{descriptor: "LFoo;", want: "Foo"},
		{descriptor: "I", wantErr: true},
		{descriptor: "[Lcom/app/Foo;", wantErr: true},
		{descriptor: "L;", wantErr: true},
		{descriptor: "Lcom/app/Foo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			got, err := DescriptorToClassName(tt.descriptor)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeMUTF8(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    string
		wantErr bool
	}{
		{name: "ascii", input: []byte("Lcom/app/A;"), want: "Lcom/app/A;"},
		{name: "two byte", input: []byte{'L', 0xc3, 0xa9, ';'}, want: "Lé;"},
		{name: "encoded nul", input: []byte{'a', 0xc0, 0x80, 'b'}, want: "a\x00b"},
		{name: "three byte", input: []byte{0xe4, 0xb8, 0xad}, want: "中"},
		{name: "surrogate pair", input: []byte{0xed, 0xa0, 0xbd, 0xed, 0xb8, 0x80}, want: "😀"},
		{name: "truncated", input: []byte{0xe4, 0xb8}, wantErr: true},
		{name: "bad lead", input: []byte{0xf0, 0x9f, 0x98, 0x80}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeMUTF8(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeUleb128(t *testing.T) {
	v, n, err := decodeUleb128([]byte{0xe5, 0x8e, 0x26})
	require.NoError(t, err)
	assert.Equal(t, uint32(624485), v)
	assert.Equal(t, 3, n)

	_, _, err = decodeUleb128([]byte{0x80, 0x80})
	assert.Error(t, err)
}
