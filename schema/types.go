// Package schema describes typed records as ordered (label, type) field
// lists. A record descriptor is what drives the generic encode/decode
// routines in the root package; descriptors are usually derived from Go
// structs via `tdf` field tags.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/rmassey/blazetdf/wire"
)

var (
	ErrNotStruct   = errors.New("schema source must be a struct")
	ErrBadFieldTag = errors.New("malformed tdf field tag")
)

// Field describes one tagged field of a record, in declaration order.
type Field struct {
	// Name is the Go-side field name.
	Name string
	// Label is the wire tag label.
	Label string
	// Type is the wire type of the field.
	Type wire.Type
	// Elem is the element type for list fields; Key/Value are the
	// declared types for map fields.
	Elem  wire.Type
	Key   wire.Type
	Value wire.Type
	// Record is the nested descriptor for group fields and for
	// group-element lists.
	Record *Record

	index int // struct field index
}

// Record is an ordered field descriptor for one record type.
type Record struct {
	Name   string
	Start2 bool
	Fields []*Field

	goType reflect.Type
}

// FieldByLabel returns the first field with the given label.
func (r *Record) FieldByLabel(label string) *Field {
	for _, f := range r.Fields {
		if f.Label == label {
			return f
		}
	}
	return nil
}

// Start2Group is implemented by struct types whose group encoding
// carries the 0x02 discriminant byte.
type Start2Group interface {
	TdfStart2() bool
}

var start2Type = reflect.TypeOf((*Start2Group)(nil)).Elem()

// FromStruct builds a record descriptor from a struct value or pointer.
// Fields are taken in declaration order from `tdf:"LABEL"` tags;
// untagged and `tdf:"-"` fields are skipped. Supported field types:
//
//	integers, bool        -> varint
//	string                -> string
//	[]byte                -> blob
//	float32               -> float
//	struct / *struct      -> group (recursive)
//	[]T                   -> list of the mapped element type
//	map[K]V               -> map with mapped key/value types
//	wire.VarintList       -> varint_list
//	wire.Pair/wire.Triple -> pair / triple
//	*wire.Union           -> union
func FromStruct(v interface{}) (*Record, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %T", ErrNotStruct, v)
	}
	return fromStructType(t)
}

func fromStructType(t reflect.Type) (*Record, error) {
	rec := &Record{
		Name:   t.Name(),
		goType: t,
	}
	if reflect.PointerTo(t).Implements(start2Type) {
		s2 := reflect.New(t).Interface().(Start2Group)
		rec.Start2 = s2.TdfStart2()
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("tdf")
		if !ok || tag == "-" || !sf.IsExported() {
			continue
		}

		label, opts, _ := strings.Cut(tag, ",")
		if label == "" {
			return nil, fmt.Errorf("%w: field %s.%s has no label", ErrBadFieldTag, t.Name(), sf.Name)
		}
		if _, err := wire.PackLabel(label); err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name(), sf.Name, err)
		}

		f := &Field{
			Name:  sf.Name,
			Label: strings.ToUpper(label),
			index: i,
		}
		if err := resolveFieldType(f, sf.Type, opts); err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name(), sf.Name, err)
		}
		rec.Fields = append(rec.Fields, f)
	}
	return rec, nil
}

var (
	varintListType = reflect.TypeOf(wire.VarintList(nil))
	pairType       = reflect.TypeOf(wire.Pair{})
	tripleType     = reflect.TypeOf(wire.Triple{})
	unionType      = reflect.TypeOf(&wire.Union{})
	byteSliceType  = reflect.TypeOf([]byte(nil))
)

// resolveFieldType maps a Go field type onto its wire type, recursing
// into nested structs.
func resolveFieldType(f *Field, t reflect.Type, opts string) error {
	// Distinguished wire container types first; they would otherwise
	// fall into the generic slice/struct cases.
	switch t {
	case varintListType:
		f.Type = wire.TypeVarintList
		return nil
	case pairType:
		f.Type = wire.TypePair
		return nil
	case tripleType:
		f.Type = wire.TypeTriple
		return nil
	case unionType:
		f.Type = wire.TypeUnion
		return nil
	case byteSliceType:
		f.Type = wire.TypeBlob
		return nil
	}

	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Bool:
		f.Type = wire.TypeVarint
		return nil

	case reflect.String:
		f.Type = wire.TypeString
		return nil

	case reflect.Float32:
		f.Type = wire.TypeFloat
		return nil

	case reflect.Ptr:
		return resolveFieldType(f, t.Elem(), opts)

	case reflect.Struct:
		nested, err := fromStructType(t)
		if err != nil {
			return err
		}
		f.Type = wire.TypeGroup
		f.Record = nested
		return nil

	case reflect.Slice:
		// `intlist` forces []uint-like fields onto the varint-list
		// encoding instead of a typed list of varints.
		if hasOpt(opts, "intlist") {
			f.Type = wire.TypeVarintList
			return nil
		}
		elem := &Field{}
		if err := resolveFieldType(elem, t.Elem(), ""); err != nil {
			return err
		}
		f.Type = wire.TypeList
		f.Elem = elem.Type
		f.Record = elem.Record
		return nil

	case reflect.Map:
		key := &Field{}
		if err := resolveFieldType(key, t.Key(), ""); err != nil {
			return err
		}
		value := &Field{}
		if err := resolveFieldType(value, t.Elem(), ""); err != nil {
			return err
		}
		f.Type = wire.TypeMap
		f.Key = key.Type
		f.Value = value.Type
		f.Record = value.Record
		return nil

	default:
		return fmt.Errorf("unsupported field type %s", t)
	}
}

func hasOpt(opts, name string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == name {
			return true
		}
	}
	return false
}

// GoType returns the struct type the record was derived from, or nil
// for hand-built descriptors.
func (r *Record) GoType() reflect.Type {
	return r.goType
}

// Index returns the struct field index for reflection access.
func (f *Field) Index() int {
	return f.index
}
