// File: internal/interfaces/dex.go
package interfaces

import (
	"iter"

	"github.com/deploymenttheory/go-dexscan/internal/types"
)

// DexHeaderReader provides methods for reading the header_item of a DEX file
type DexHeaderReader interface {
	// Header returns the parsed header structure
	Header() *types.DexHeaderT

	// Version returns the format version from the magic, e.g. "035"
	Version() string

	// FileSize returns the size of the DEX file declared in the header
	FileSize() uint32

	// StringIdCount returns the number of entries in string_ids
	StringIdCount() uint32

	// TypeIdCount returns the number of entries in type_ids
	TypeIdCount() uint32

	// ClassDefCount returns the number of entries in class_defs
	ClassDefCount() uint32
}

// ClassNameReader resolves class names out of a DEX file on demand
type ClassNameReader interface {
	// ClassCount returns the number of class definitions
	ClassCount() int

	// ClassName returns the dotted, fully-qualified name of the class definition at index
	ClassName(index int) (string, error)

	// ClassNames yields every class name in class_defs order
	ClassNames() iter.Seq2[string, error]
}
