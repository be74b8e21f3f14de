package dex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode/utf16"

	"github.com/deploymenttheory/go-dexscan/internal/interfaces"
	"github.com/deploymenttheory/go-dexscan/internal/types"
)

// maxUleb128Size is the longest encoding of a 32-bit uleb128 value
const maxUleb128Size = 5

// classNameReader implements the ClassNameReader interface over an io.ReaderAt.
// Table entries are read on demand; nothing beyond the header is held in memory.
type classNameReader struct {
	r      io.ReaderAt
	size   int64
	header interfaces.DexHeaderReader
	endian binary.ByteOrder
}

// NewClassNameReader reads and validates the header of the DEX file held in r
func NewClassNameReader(r io.ReaderAt, size int64) (interfaces.ClassNameReader, error) {
	if size < types.DexHeaderSize {
		return nil, fmt.Errorf("file too small for dex header: %d bytes", size)
	}

	headerData := make([]byte, types.DexHeaderSize)
	if _, err := r.ReadAt(headerData, 0); err != nil {
		return nil, fmt.Errorf("failed to read dex header: %w", err)
	}

	endian := binary.LittleEndian
	header, err := NewDexHeaderReader(headerData, endian)
	if err != nil {
		return nil, err
	}

	h := header.Header()
	if int64(h.FileSize) > size {
		return nil, fmt.Errorf("dex file truncated: header declares %d bytes, have %d", h.FileSize, size)
	}
	if err := checkTable("string_ids", h.StringIdsOff, h.StringIdsSize, types.StringIdItemSize, h.FileSize); err != nil {
		return nil, err
	}
	if err := checkTable("type_ids", h.TypeIdsOff, h.TypeIdsSize, types.TypeIdItemSize, h.FileSize); err != nil {
		return nil, err
	}
	if err := checkTable("class_defs", h.ClassDefsOff, h.ClassDefsSize, types.ClassDefItemSize, h.FileSize); err != nil {
		return nil, err
	}

	return &classNameReader{
		r:      r,
		size:   int64(h.FileSize),
		header: header,
		endian: endian,
	}, nil
}

// checkTable verifies a table lies entirely inside the file
func checkTable(name string, off, count, itemSize, fileSize uint32) error {
	if count == 0 {
		return nil
	}
	end := uint64(off) + uint64(count)*uint64(itemSize)
	if off < types.DexHeaderSize || end > uint64(fileSize) {
		return fmt.Errorf("%s table out of bounds: offset 0x%X, %d entries, file size %d", name, off, count, fileSize)
	}
	return nil
}

// ClassCount returns the number of class definitions
func (c *classNameReader) ClassCount() int {
	return int(c.header.ClassDefCount())
}

// ClassName resolves class_defs[index] through type_ids and string_ids to a dotted name
func (c *classNameReader) ClassName(index int) (string, error) {
	h := c.header.Header()
	if index < 0 || index >= c.ClassCount() {
		return "", fmt.Errorf("class definition index %d out of range [0, %d)", index, c.ClassCount())
	}

	classIdx, err := c.readUint32(int64(h.ClassDefsOff) + int64(index)*types.ClassDefItemSize)
	if err != nil {
		return "", fmt.Errorf("failed to read class_def %d: %w", index, err)
	}
	if classIdx >= h.TypeIdsSize {
		return "", fmt.Errorf("class_def %d: type index %d out of range", index, classIdx)
	}

	descriptorIdx, err := c.readUint32(int64(h.TypeIdsOff) + int64(classIdx)*types.TypeIdItemSize)
	if err != nil {
		return "", fmt.Errorf("failed to read type_id %d: %w", classIdx, err)
	}
	if descriptorIdx >= h.StringIdsSize {
		return "", fmt.Errorf("type_id %d: string index %d out of range", classIdx, descriptorIdx)
	}

	dataOff, err := c.readUint32(int64(h.StringIdsOff) + int64(descriptorIdx)*types.StringIdItemSize)
	if err != nil {
		return "", fmt.Errorf("failed to read string_id %d: %w", descriptorIdx, err)
	}

	descriptor, err := c.readString(int64(dataOff))
	if err != nil {
		return "", fmt.Errorf("failed to read string %d: %w", descriptorIdx, err)
	}

	return DescriptorToClassName(descriptor)
}

// ClassNames yields every class name in class_defs order, stopping at the first error
func (c *classNameReader) ClassNames() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for i := 0; i < c.ClassCount(); i++ {
			name, err := c.ClassName(i)
			if !yield(name, err) || err != nil {
				return
			}
		}
	}
}

func (c *classNameReader) readUint32(off int64) (uint32, error) {
	if off < 0 || off+4 > c.size {
		return 0, fmt.Errorf("offset 0x%X out of bounds", off)
	}
	var buf [4]byte
	if _, err := c.r.ReadAt(buf[:], off); err != nil {
		return 0, err
	}
	return c.endian.Uint32(buf[:]), nil
}

// readString reads a string_data_item: uleb128 utf16 length followed by NUL terminated MUTF-8
func (c *classNameReader) readString(off int64) (string, error) {
	if off < types.DexHeaderSize || off >= c.size {
		return "", fmt.Errorf("string data offset 0x%X out of bounds", off)
	}

	prefix := make([]byte, min(int64(maxUleb128Size), c.size-off))
	if _, err := c.r.ReadAt(prefix, off); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	utf16Size, n, err := decodeUleb128(prefix)
	if err != nil {
		return "", err
	}

	start := off + int64(n)
	// Each UTF-16 unit takes at most three MUTF-8 bytes, plus the terminator.
	limit := min(int64(utf16Size)*3+1, c.size-start)
	if limit <= 0 {
		return "", fmt.Errorf("string data at 0x%X truncated", off)
	}
	data := make([]byte, limit)
	if _, err := c.r.ReadAt(data, start); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	end := -1
	for i, b := range data {
		if b == 0 {
			end = i
			break
		}
	}
	if end < 0 {
		return "", fmt.Errorf("string data at 0x%X is not terminated", off)
	}

	return decodeMUTF8(data[:end])
}

// decodeUleb128 decodes an unsigned LEB128 value of at most 32 bits
func decodeUleb128(data []byte) (uint32, int, error) {
	var result uint32
	for i := 0; i < len(data) && i < maxUleb128Size; i++ {
		b := data[i]
		result |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("malformed uleb128")
}

// decodeMUTF8 decodes Modified UTF-8 as used by the DEX string pool
func decodeMUTF8(data []byte) (string, error) {
	ascii := true
	for _, b := range data {
		if b >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(data), nil
	}

	units := make([]uint16, 0, len(data))
	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case b < 0x80:
			units = append(units, uint16(b))
			i++
		case b&0xe0 == 0xc0:
			if i+1 >= len(data) || data[i+1]&0xc0 != 0x80 {
				return "", fmt.Errorf("invalid MUTF-8 sequence at byte %d", i)
			}
			units = append(units, uint16(b&0x1f)<<6|uint16(data[i+1]&0x3f))
			i += 2
		case b&0xf0 == 0xe0:
			if i+2 >= len(data) || data[i+1]&0xc0 != 0x80 || data[i+2]&0xc0 != 0x80 {
				return "", fmt.Errorf("invalid MUTF-8 sequence at byte %d", i)
			}
			units = append(units, uint16(b&0x0f)<<12|uint16(data[i+1]&0x3f)<<6|uint16(data[i+2]&0x3f))
			i += 3
		default:
			return "", fmt.Errorf("invalid MUTF-8 lead byte 0x%02X at byte %d", b, i)
		}
	}

	return string(utf16.Decode(units)), nil
}

// DescriptorToClassName converts a type descriptor such as "Lcom/app/Foo;" to "com.app.Foo"
func DescriptorToClassName(descriptor string) (string, error) {
	if len(descriptor) < 3 || descriptor[0] != 'L' || descriptor[len(descriptor)-1] != ';' {
		return "", fmt.Errorf("not a class descriptor: %q", descriptor)
	}
	return strings.ReplaceAll(descriptor[1:len(descriptor)-1], "/", "."), nil
}
