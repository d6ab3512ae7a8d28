package wire

import (
	"bytes"
	"fmt"
)

// Decoded values are held as interface{} with a small closed set of
// concrete types:
//
//	TypeVarint     uint64
//	TypeString     string
//	TypeBlob       []byte
//	TypeGroup      *Group
//	TypeList       *List
//	TypeMap        *Map
//	TypeUnion      *Union
//	TypeVarintList VarintList
//	TypePair       Pair
//	TypeTriple     Triple
//	TypeFloat      float32
//
// Integer inputs of any Go width are accepted on encode and normalized
// to uint64; decode always produces uint64 and callers narrow as needed.

// Field is a single tagged value.
type Field struct {
	Label string
	Type  Type
	Value interface{}
}

// Pair is a fixed two-tuple of varints.
type Pair struct {
	A, B uint64
}

// Triple is a fixed three-tuple of varints.
type Triple struct {
	A, B, C uint64
}

// VarintList is an ordered sequence of varints.
type VarintList []uint64

// Union is a discriminated optional value. A nil Field means unset.
type Union struct {
	Discriminant uint8
	Field        *Field
}

// Unset reports whether the union carries no value.
func (u *Union) Unset() bool {
	return u.Field == nil
}

// SetUnion builds a present union around a tagged value.
func SetUnion(disc uint8, label string, v interface{}) (*Union, error) {
	if disc == UnionUnset {
		return nil, ErrUnionBadUnset
	}
	t, err := TypeOf(v)
	if err != nil {
		return nil, wrapWithTag(err, label)
	}
	v, _ = normalize(t, v)
	return &Union{
		Discriminant: disc,
		Field:        &Field{Label: label, Type: t, Value: v},
	}, nil
}

// UnsetUnion builds an absent union.
func UnsetUnion() *Union {
	return &Union{Discriminant: UnionUnset}
}

// ===== GROUP =====

// Group is an ordered record of tagged values. Insertion order is part
// of the wire contract: re-encoding preserves it. Lookups are first
// match, same as the live-cursor scan, so the two paths agree on
// duplicate tags.
type Group struct {
	// Start2 marks groups that carry the 0x02 discriminant byte
	// before their first field.
	Start2 bool
	Fields []*Field
}

// NewGroup creates an empty group.
func NewGroup() *Group {
	return &Group{}
}

// Len returns the number of fields.
func (g *Group) Len() int {
	return len(g.Fields)
}

// Add appends a tagged value, inferring its wire type. Label and value
// problems surface here, at build time, not at encode time.
func (g *Group) Add(label string, v interface{}) error {
	if _, err := PackLabel(label); err != nil {
		return err
	}
	t, err := TypeOf(v)
	if err != nil {
		return wrapWithTag(err, label)
	}
	v, _ = normalize(t, v)
	g.Fields = append(g.Fields, &Field{Label: label, Type: t, Value: v})
	return nil
}

// Get returns the first field value with the given label.
func (g *Group) Get(label string) (interface{}, bool) {
	for _, f := range g.Fields {
		if f.Label == label {
			return f.Value, true
		}
	}
	return nil, false
}

// field returns the first field with the given label and type.
func (g *Group) field(label string, want Type) (*Field, error) {
	for _, f := range g.Fields {
		if f.Label != label {
			continue
		}
		if f.Type != want {
			return nil, wrapWithTag(fmt.Errorf("%w: expected %s but got %s",
				ErrTypeMismatch, want, f.Type), label)
		}
		return f, nil
	}
	return nil, wrapWithTag(ErrFieldNotFound, label)
}

// Typed getters over the materialized index. Numeric getters narrow
// silently, matching the protocol's lax integer typing.

func (g *Group) GetUint64(label string) (uint64, error) {
	f, err := g.field(label, TypeVarint)
	if err != nil {
		return 0, err
	}
	return f.Value.(uint64), nil
}

func (g *Group) GetUint32(label string) (uint32, error) {
	v, err := g.GetUint64(label)
	return uint32(v), err
}

func (g *Group) GetUint16(label string) (uint16, error) {
	v, err := g.GetUint64(label)
	return uint16(v), err
}

func (g *Group) GetInt64(label string) (int64, error) {
	v, err := g.GetUint64(label)
	return int64(v), err
}

func (g *Group) GetBool(label string) (bool, error) {
	v, err := g.GetUint64(label)
	return v != 0, err
}

func (g *Group) GetString(label string) (string, error) {
	f, err := g.field(label, TypeString)
	if err != nil {
		return "", err
	}
	return f.Value.(string), nil
}

func (g *Group) GetBlob(label string) ([]byte, error) {
	f, err := g.field(label, TypeBlob)
	if err != nil {
		return nil, err
	}
	return f.Value.([]byte), nil
}

func (g *Group) GetGroup(label string) (*Group, error) {
	f, err := g.field(label, TypeGroup)
	if err != nil {
		return nil, err
	}
	return f.Value.(*Group), nil
}

func (g *Group) GetList(label string) (*List, error) {
	f, err := g.field(label, TypeList)
	if err != nil {
		return nil, err
	}
	return f.Value.(*List), nil
}

func (g *Group) GetMap(label string) (*Map, error) {
	f, err := g.field(label, TypeMap)
	if err != nil {
		return nil, err
	}
	return f.Value.(*Map), nil
}

func (g *Group) GetUnion(label string) (*Union, error) {
	f, err := g.field(label, TypeUnion)
	if err != nil {
		return nil, err
	}
	return f.Value.(*Union), nil
}

func (g *Group) GetVarintList(label string) (VarintList, error) {
	f, err := g.field(label, TypeVarintList)
	if err != nil {
		return nil, err
	}
	return f.Value.(VarintList), nil
}

func (g *Group) GetPair(label string) (Pair, error) {
	f, err := g.field(label, TypePair)
	if err != nil {
		return Pair{}, err
	}
	return f.Value.(Pair), nil
}

func (g *Group) GetTriple(label string) (Triple, error) {
	f, err := g.field(label, TypeTriple)
	if err != nil {
		return Triple{}, err
	}
	return f.Value.(Triple), nil
}

func (g *Group) GetFloat32(label string) (float32, error) {
	f, err := g.field(label, TypeFloat)
	if err != nil {
		return 0, err
	}
	return f.Value.(float32), nil
}

// ===== LIST =====

// List is a homogeneous typed list. The element type is fixed at
// construction and validated on every Add; a mismatched element is a
// build-time error, never a silent coercion.
type List struct {
	Elem  Type
	Items []interface{}
}

// NewList creates an empty list with the given element type.
func NewList(elem Type) *List {
	return &List{Elem: elem}
}

// Len returns the number of elements.
func (l *List) Len() int {
	return len(l.Items)
}

// Add appends an element after validating it against the declared
// element type.
func (l *List) Add(v interface{}) error {
	t, err := TypeOf(v)
	if err != nil {
		return err
	}
	if t != l.Elem {
		return fmt.Errorf("%w: list of %s cannot hold %s", ErrElementType, l.Elem, t)
	}
	v, _ = normalize(t, v)
	l.Items = append(l.Items, v)
	return nil
}

// ===== MAP =====

// Map is an ordered key/value container backed by two parallel slices,
// so insertion order survives a round trip. Keys are not deduplicated at
// the wire level; Get returns the first match.
type Map struct {
	Key   Type
	Value Type

	keys   []interface{}
	values []interface{}
}

// NewMap creates an empty map with the given key and value types.
func NewMap(key, value Type) *Map {
	return &Map{Key: key, Value: value}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Put appends an entry after validating both sides against the declared
// types.
func (m *Map) Put(k, v interface{}) error {
	kt, err := TypeOf(k)
	if err != nil {
		return err
	}
	if kt != m.Key {
		return fmt.Errorf("%w: map keyed by %s cannot hold %s key", ErrElementType, m.Key, kt)
	}
	vt, err := TypeOf(v)
	if err != nil {
		return err
	}
	if vt != m.Value {
		return fmt.Errorf("%w: map of %s values cannot hold %s", ErrElementType, m.Value, vt)
	}
	k, _ = normalize(kt, k)
	v, _ = normalize(vt, v)
	m.keys = append(m.keys, k)
	m.values = append(m.values, v)
	return nil
}

// Get returns the first value stored under the given key.
func (m *Map) Get(k interface{}) (interface{}, bool) {
	if t, err := TypeOf(k); err == nil {
		k, _ = normalize(t, k)
	}
	for i, key := range m.keys {
		if keyEqual(key, k) {
			return m.values[i], true
		}
	}
	return nil, false
}

// keyEqual compares two map keys. Decoded maps can declare any wire
// type as the key, including the slice-backed kinds Go cannot compare
// with ==, so those get explicit element-wise comparison.
func keyEqual(a, b interface{}) bool {
	switch ak := a.(type) {
	case []byte:
		bk, ok := b.([]byte)
		return ok && bytes.Equal(ak, bk)
	case VarintList:
		bk, ok := b.(VarintList)
		if !ok || len(ak) != len(bk) {
			return false
		}
		for i := range ak {
			if ak[i] != bk[i] {
				return false
			}
		}
		return true
	default:
		// Interface comparison is safe here: mismatched dynamic types
		// compare false, and every remaining kind is comparable.
		return a == b
	}
}

// At returns the entry at the given insertion index.
func (m *Map) At(i int) (interface{}, interface{}) {
	return m.keys[i], m.values[i]
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []interface{} {
	return m.keys
}

// Values returns the values in insertion order.
func (m *Map) Values() []interface{} {
	return m.values
}

// ===== TYPE INFERENCE =====

// TypeOf maps a Go value onto its TDF wire type.
func TypeOf(v interface{}) (Type, error) {
	switch v.(type) {
	case uint64, uint32, uint16, uint8, uint,
		int64, int32, int16, int8, int, bool:
		return TypeVarint, nil
	case string:
		return TypeString, nil
	case []byte:
		return TypeBlob, nil
	case *Group:
		return TypeGroup, nil
	case *List:
		return TypeList, nil
	case *Map:
		return TypeMap, nil
	case *Union:
		return TypeUnion, nil
	case VarintList:
		return TypeVarintList, nil
	case Pair:
		return TypePair, nil
	case Triple:
		return TypeTriple, nil
	case float32:
		return TypeFloat, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedGo, v)
	}
}

// normalize widens integer-like inputs to the canonical uint64 form so
// container equality and encoding see one representation.
func normalize(t Type, v interface{}) (interface{}, bool) {
	if t != TypeVarint {
		return v, false
	}
	u, ok := asUint64(v)
	if !ok {
		return v, false
	}
	return u, true
}

// asUint64 converts any supported integer-like value to its uint64
// two's-complement image.
func asUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case uint32:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint:
		return uint64(n), true
	case int64:
		return uint64(n), true
	case int32:
		return uint64(n), true
	case int16:
		return uint64(n), true
	case int8:
		return uint64(n), true
	case int:
		return uint64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
