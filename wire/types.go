package wire

import "fmt"

// ===== TDF WIRE FORMAT TYPES =====

// Type represents a TDF wire value type. The numeric assignments are
// fixed by the Blaze protocol and appear as the fourth byte of every tag.
type Type uint8

const (
	TypeVarint     Type = 0x0 // variable length integers, bools, enum ordinals
	TypeString     Type = 0x1 // null-terminated UTF-8 with length prefix
	TypeBlob       Type = 0x2 // opaque bytes with length prefix
	TypeGroup      Type = 0x3 // nested record of tagged values
	TypeList       Type = 0x4 // homogeneous typed list
	TypeMap        Type = 0x5 // ordered key/value pairs with declared types
	TypeUnion      Type = 0x6 // discriminated optional value
	TypeVarintList Type = 0x7 // list of varints, no element type byte
	TypePair       Type = 0x8 // two varints
	TypeTriple     Type = 0x9 // three varints
	TypeFloat      Type = 0xA // 32-bit big-endian IEEE-754
)

// UnionUnset is the union discriminant meaning "no value present".
const UnionUnset uint8 = 0x7F

// Valid reports whether t is one of the defined wire types.
func (t Type) Valid() bool {
	return t <= TypeFloat
}

func (t Type) String() string {
	switch t {
	case TypeVarint:
		return "varint"
	case TypeString:
		return "string"
	case TypeBlob:
		return "blob"
	case TypeGroup:
		return "group"
	case TypeList:
		return "list"
	case TypeMap:
		return "map"
	case TypeUnion:
		return "union"
	case TypeVarintList:
		return "varint_list"
	case TypePair:
		return "pair"
	case TypeTriple:
		return "triple"
	case TypeFloat:
		return "float"
	default:
		return fmt.Sprintf("unknown(0x%X)", uint8(t))
	}
}

// groupTerminator ends a group body; groupStart2 is the optional
// discriminant byte some groups carry before their first field.
const (
	groupTerminator byte = 0x00
	groupStart2     byte = 0x02
)

// maxDepth bounds composite nesting during decode and skip so corrupt
// input cannot grow the stack without limit.
const maxDepth = 64
