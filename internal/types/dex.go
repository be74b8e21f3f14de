// Package types implements the on-disk data structures of the Dalvik Executable
// (DEX) format needed to enumerate the classes a container defines.
// This package is based on the Android "Dalvik Executable format" reference.
package types

// Header Item
// Appears in the header section of every DEX file, at offset zero.

// DexMagicPrefix is the constant leading part of the DEX magic. The remaining
// four bytes hold the format version ("035\x00", "039\x00", ...).
var DexMagicPrefix = [4]byte{'d', 'e', 'x', '\n'}

const (
	// DexMagicSize is the size of the full magic, prefix plus version.
	DexMagicSize = 8

	// DexHeaderSize is the size of header_item for every known format version.
	DexHeaderSize = 0x70

	// DexEndianConstant is the value of endian_tag in a little-endian file.
	DexEndianConstant uint32 = 0x12345678

	// DexReverseEndianConstant is the value of endian_tag in a byte-swapped file.
	DexReverseEndianConstant uint32 = 0x78563412
)

// DexHeaderT is the header_item of a DEX file.
type DexHeaderT struct {
	// Magic value, "dex\n" followed by the version.
	Magic [DexMagicSize]byte
	// Adler32 checksum of the rest of the file.
	Checksum uint32
	// SHA-1 signature of the rest of the file.
	Signature [20]byte
	// Size of the entire file in bytes.
	FileSize uint32
	// Size of the header, always 0x70.
	HeaderSize uint32
	// Endianness tag.
	EndianTag uint32

	LinkSize uint32
	LinkOff  uint32
	MapOff   uint32

	// string_ids: one uint32 string_data_off per entry.
	StringIdsSize uint32
	StringIdsOff  uint32

	// type_ids: one uint32 descriptor_idx per entry.
	TypeIdsSize uint32
	TypeIdsOff  uint32

	ProtoIdsSize  uint32
	ProtoIdsOff   uint32
	FieldIdsSize  uint32
	FieldIdsOff   uint32
	MethodIdsSize uint32
	MethodIdsOff  uint32

	// class_defs: ClassDefItemSize bytes per entry.
	ClassDefsSize uint32
	ClassDefsOff  uint32

	DataSize uint32
	DataOff  uint32
}

// Version returns the three digit format version carried in the magic.
func (h *DexHeaderT) Version() string {
	return string(h.Magic[4:7])
}

// Table entry sizes.
const (
	// StringIdItemSize is the size of one string_id_item.
	StringIdItemSize = 4
	// TypeIdItemSize is the size of one type_id_item.
	TypeIdItemSize = 4
	// ClassDefItemSize is the size of one class_def_item.
	ClassDefItemSize = 32
)
