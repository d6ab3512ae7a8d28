// Package blazetdf is a codec for the Blaze tagged binary data format
// (TDF) and the packet framing built on it. The wire subpackage holds
// the codec core, packet the frame layer, schema the record
// descriptors, and registry the component/command name tables. This
// package is the facade: schema-driven marshal/unmarshal of Go structs
// and of dynamic map bodies, without generated code.
package blazetdf

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/rmassey/blazetdf/schema"
	"github.com/rmassey/blazetdf/wire"
)

// ===== STRUCT API =====

// Marshal encodes a struct with `tdf` field tags into body bytes.
// Fields encode in declaration order, which is the canonical wire
// order for the record.
func Marshal(v interface{}) ([]byte, error) {
	rec, err := schema.FromStruct(v)
	if err != nil {
		return nil, err
	}
	g, err := structToGroup(reflect.Indirect(reflect.ValueOf(v)), rec)
	if err != nil {
		return nil, err
	}
	return wire.EncodeBody(g)
}

// Unmarshal decodes body bytes into a struct with `tdf` field tags.
// Wire fields may arrive in any order and unknown fields are skipped;
// fields absent from the body are left at their zero value.
func Unmarshal(data []byte, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a pointer to struct, got %T", v)
	}
	rec, err := schema.FromStruct(v)
	if err != nil {
		return err
	}
	g, err := wire.DecodeBody(data)
	if err != nil {
		return err
	}
	return groupToStruct(g, rv.Elem(), rec)
}

// Parse decodes body bytes into a dynamic value tree.
func Parse(data []byte) (*wire.Group, error) {
	return wire.DecodeBody(data)
}

// ===== STRUCT -> VALUE TREE =====

func structToGroup(rv reflect.Value, rec *schema.Record) (*wire.Group, error) {
	g := wire.NewGroup()
	g.Start2 = rec.Start2

	for _, f := range rec.Fields {
		fv := rv.Field(f.Index())
		value, err := fieldToValue(fv, f)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", f.Name, err)
		}
		if value == nil {
			continue // nil pointer, field omitted
		}
		if err := g.Add(f.Label, value); err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", f.Name, err)
		}
	}
	return g, nil
}

func fieldToValue(fv reflect.Value, f *schema.Field) (interface{}, error) {
	switch f.Type {
	case wire.TypeVarint, wire.TypeString, wire.TypeFloat,
		wire.TypePair, wire.TypeTriple:
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				return nil, nil
			}
			fv = fv.Elem()
		}
		return fv.Interface(), nil

	case wire.TypeUnion:
		// Unions stay behind their pointer; a nil union is omitted.
		if fv.IsNil() {
			return nil, nil
		}
		return fv.Interface(), nil

	case wire.TypeBlob:
		return fv.Bytes(), nil

	case wire.TypeGroup:
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				return nil, nil
			}
			fv = fv.Elem()
		}
		return structToGroup(fv, f.Record)

	case wire.TypeVarintList:
		values := make(wire.VarintList, 0, fv.Len())
		for i := 0; i < fv.Len(); i++ {
			ev := fv.Index(i)
			if ev.CanUint() {
				values = append(values, ev.Uint())
			} else {
				values = append(values, uint64(ev.Int()))
			}
		}
		return values, nil

	case wire.TypeList:
		l := wire.NewList(f.Elem)
		for i := 0; i < fv.Len(); i++ {
			elem, err := elemToValue(fv.Index(i), f.Elem, f.Record)
			if err != nil {
				return nil, err
			}
			if err := l.Add(elem); err != nil {
				return nil, err
			}
		}
		return l, nil

	case wire.TypeMap:
		return mapToWireMap(fv, f)

	default:
		return nil, fmt.Errorf("%s: %w", f.Type, wire.ErrUnknownType)
	}
}

func elemToValue(ev reflect.Value, elem wire.Type, rec *schema.Record) (interface{}, error) {
	if elem == wire.TypeGroup {
		if ev.Kind() == reflect.Ptr {
			ev = ev.Elem()
		}
		return structToGroup(ev, rec)
	}
	return ev.Interface(), nil
}

// mapToWireMap builds an ordered wire map from a Go map. Go map
// iteration order is random, so entries are sorted by key to keep the
// encoding deterministic.
func mapToWireMap(fv reflect.Value, f *schema.Field) (interface{}, error) {
	m := wire.NewMap(f.Key, f.Value)

	keys := fv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		switch {
		case a.Kind() == reflect.String:
			return a.String() < b.String()
		case a.CanUint():
			return a.Uint() < b.Uint()
		default:
			return a.Int() < b.Int()
		}
	})

	for _, k := range keys {
		value, err := elemToValue(fv.MapIndex(k), f.Value, f.Record)
		if err != nil {
			return nil, err
		}
		if err := m.Put(k.Interface(), value); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ===== VALUE TREE -> STRUCT =====

func groupToStruct(g *wire.Group, rv reflect.Value, rec *schema.Record) error {
	for _, f := range rec.Fields {
		raw, ok := g.Get(f.Label)
		if !ok {
			continue // absent optional field keeps its zero value
		}
		fv := rv.Field(f.Index())
		if !fv.CanSet() {
			continue
		}
		if err := valueToField(raw, fv, f); err != nil {
			return fmt.Errorf("failed to decode field %s: %w", f.Name, err)
		}
	}
	return nil
}

func valueToField(raw interface{}, fv reflect.Value, f *schema.Field) error {
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		fv = fv.Elem()
	}

	switch f.Type {
	case wire.TypeVarint:
		u, ok := raw.(uint64)
		if !ok {
			return typeMismatch(f, raw)
		}
		return setVarint(fv, u)

	case wire.TypeString:
		s, ok := raw.(string)
		if !ok {
			return typeMismatch(f, raw)
		}
		fv.SetString(s)
		return nil

	case wire.TypeBlob:
		b, ok := raw.([]byte)
		if !ok {
			return typeMismatch(f, raw)
		}
		fv.SetBytes(b)
		return nil

	case wire.TypeFloat:
		fl, ok := raw.(float32)
		if !ok {
			return typeMismatch(f, raw)
		}
		fv.SetFloat(float64(fl))
		return nil

	case wire.TypeGroup:
		ng, ok := raw.(*wire.Group)
		if !ok {
			return typeMismatch(f, raw)
		}
		return groupToStruct(ng, fv, f.Record)

	case wire.TypeVarintList:
		values, ok := raw.(wire.VarintList)
		if !ok {
			return typeMismatch(f, raw)
		}
		if fv.Type() == reflect.TypeOf(wire.VarintList(nil)) {
			fv.Set(reflect.ValueOf(values))
			return nil
		}
		out := reflect.MakeSlice(fv.Type(), len(values), len(values))
		for i, u := range values {
			if err := setVarint(out.Index(i), u); err != nil {
				return err
			}
		}
		fv.Set(out)
		return nil

	case wire.TypeList:
		l, ok := raw.(*wire.List)
		if !ok {
			return typeMismatch(f, raw)
		}
		out := reflect.MakeSlice(fv.Type(), l.Len(), l.Len())
		for i, item := range l.Items {
			if err := valueToElem(item, out.Index(i), f.Elem, f.Record); err != nil {
				return err
			}
		}
		fv.Set(out)
		return nil

	case wire.TypeMap:
		m, ok := raw.(*wire.Map)
		if !ok {
			return typeMismatch(f, raw)
		}
		out := reflect.MakeMapWithSize(fv.Type(), m.Len())
		for i := 0; i < m.Len(); i++ {
			k, v := m.At(i)
			key := reflect.New(fv.Type().Key()).Elem()
			if err := valueToElem(k, key, f.Key, nil); err != nil {
				return err
			}
			value := reflect.New(fv.Type().Elem()).Elem()
			if err := valueToElem(v, value, f.Value, f.Record); err != nil {
				return err
			}
			out.SetMapIndex(key, value)
		}
		fv.Set(out)
		return nil

	case wire.TypePair, wire.TypeTriple:
		fv.Set(reflect.ValueOf(raw))
		return nil

	case wire.TypeUnion:
		u, ok := raw.(*wire.Union)
		if !ok {
			return typeMismatch(f, raw)
		}
		// The pointer was allocated above; fill in the pointee.
		fv.Set(reflect.ValueOf(u).Elem())
		return nil

	default:
		return fmt.Errorf("%s: %w", f.Type, wire.ErrUnknownType)
	}
}

func valueToElem(raw interface{}, ev reflect.Value, elem wire.Type, rec *schema.Record) error {
	switch elem {
	case wire.TypeVarint:
		u, ok := raw.(uint64)
		if !ok {
			return fmt.Errorf("%w: list element %T", wire.ErrTypeMismatch, raw)
		}
		return setVarint(ev, u)
	case wire.TypeGroup:
		ng, ok := raw.(*wire.Group)
		if !ok {
			return fmt.Errorf("%w: list element %T", wire.ErrTypeMismatch, raw)
		}
		if ev.Kind() == reflect.Ptr {
			if ev.IsNil() {
				ev.Set(reflect.New(ev.Type().Elem()))
			}
			ev = ev.Elem()
		}
		return groupToStruct(ng, ev, rec)
	default:
		value := reflect.ValueOf(raw)
		if !value.Type().AssignableTo(ev.Type()) {
			if !value.Type().ConvertibleTo(ev.Type()) {
				return fmt.Errorf("%w: cannot assign %T", wire.ErrTypeMismatch, raw)
			}
			value = value.Convert(ev.Type())
		}
		ev.Set(value)
		return nil
	}
}

// setVarint narrows a decoded 64-bit magnitude into whichever integer
// or bool field the struct declares, matching the protocol's lax
// integer typing.
func setVarint(fv reflect.Value, u uint64) error {
	switch fv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		fv.SetUint(u)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fv.SetInt(int64(u))
	case reflect.Bool:
		fv.SetBool(u != 0)
	default:
		return fmt.Errorf("%w: varint into %s", wire.ErrTypeMismatch, fv.Kind())
	}
	return nil
}

func typeMismatch(f *schema.Field, raw interface{}) error {
	return fmt.Errorf("%w: expected %s but got %T", wire.ErrTypeMismatch, f.Type, raw)
}

// IsFieldNotFound reports whether err is the recoverable missing-field
// condition rather than stream corruption.
func IsFieldNotFound(err error) bool {
	return errors.Is(err, wire.ErrFieldNotFound)
}
