package dex

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-dexscan/internal/interfaces"
	"github.com/deploymenttheory/go-dexscan/internal/types"
)

// dexHeaderReader implements the DexHeaderReader interface
type dexHeaderReader struct {
	header *types.DexHeaderT
	endian binary.ByteOrder
}

// NewDexHeaderReader creates a new DexHeaderReader implementation
func NewDexHeaderReader(data []byte, endian binary.ByteOrder) (interfaces.DexHeaderReader, error) {
	if len(data) < types.DexHeaderSize {
		return nil, fmt.Errorf("data too small for dex header: %d bytes", len(data))
	}

	header, err := parseDexHeader(data, endian)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dex header: %w", err)
	}

	return &dexHeaderReader{
		header: header,
		endian: endian,
	}, nil
}

// parseDexHeader parses raw bytes into a DexHeaderT structure
func parseDexHeader(data []byte, endian binary.ByteOrder) (*types.DexHeaderT, error) {
	h := &types.DexHeaderT{}

	copy(h.Magic[:], data[0:8])
	if !bytes.Equal(h.Magic[0:4], types.DexMagicPrefix[:]) || h.Magic[7] != 0 {
		return nil, fmt.Errorf("invalid dex magic: %q", h.Magic[:])
	}

	h.Checksum = endian.Uint32(data[8:12])
	copy(h.Signature[:], data[12:32])
	h.FileSize = endian.Uint32(data[32:36])
	h.HeaderSize = endian.Uint32(data[36:40])
	h.EndianTag = endian.Uint32(data[40:44])

	switch h.EndianTag {
	case types.DexEndianConstant:
	case types.DexReverseEndianConstant:
		return nil, fmt.Errorf("byte-swapped dex files are not supported")
	default:
		return nil, fmt.Errorf("invalid endian tag: 0x%08X", h.EndianTag)
	}
	if h.HeaderSize != types.DexHeaderSize {
		return nil, fmt.Errorf("invalid header size: 0x%X, want 0x%X", h.HeaderSize, types.DexHeaderSize)
	}

	h.LinkSize = endian.Uint32(data[44:48])
	h.LinkOff = endian.Uint32(data[48:52])
	h.MapOff = endian.Uint32(data[52:56])
	h.StringIdsSize = endian.Uint32(data[56:60])
	h.StringIdsOff = endian.Uint32(data[60:64])
	h.TypeIdsSize = endian.Uint32(data[64:68])
	h.TypeIdsOff = endian.Uint32(data[68:72])
	h.ProtoIdsSize = endian.Uint32(data[72:76])
	h.ProtoIdsOff = endian.Uint32(data[76:80])
	h.FieldIdsSize = endian.Uint32(data[80:84])
	h.FieldIdsOff = endian.Uint32(data[84:88])
	h.MethodIdsSize = endian.Uint32(data[88:92])
	h.MethodIdsOff = endian.Uint32(data[92:96])
	h.ClassDefsSize = endian.Uint32(data[96:100])
	h.ClassDefsOff = endian.Uint32(data[100:104])
	h.DataSize = endian.Uint32(data[104:108])
	h.DataOff = endian.Uint32(data[108:112])

	return h, nil
}

// Header returns the parsed header structure
func (r *dexHeaderReader) Header() *types.DexHeaderT {
	return r.header
}

// Version returns the format version from the magic
func (r *dexHeaderReader) Version() string {
	return r.header.Version()
}

// FileSize returns the declared file size
func (r *dexHeaderReader) FileSize() uint32 {
	return r.header.FileSize
}

// StringIdCount returns the number of string identifiers
func (r *dexHeaderReader) StringIdCount() uint32 {
	return r.header.StringIdsSize
}

// TypeIdCount returns the number of type identifiers
func (r *dexHeaderReader) TypeIdCount() uint32 {
	return r.header.TypeIdsSize
}

// ClassDefCount returns the number of class definitions
func (r *dexHeaderReader) ClassDefCount() uint32 {
	return r.header.ClassDefsSize
}
