package wire

import (
	"errors"
	"fmt"
)

// Decoder handles low-level TDF wire format decoding. It is a cursor
// over a caller-owned buffer; the decoder borrows the bytes and never
// takes ownership of them.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a new wire format decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{
		buf: data,
		pos: 0,
	}
}

// Pos returns the current cursor position.
func (d *Decoder) Pos() int {
	return d.pos
}

// Remaining returns the number of bytes after the cursor.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// take borrows count bytes from the buffer and advances the cursor.
func (d *Decoder) take(count int) ([]byte, error) {
	if d.Remaining() < count {
		return nil, fmt.Errorf("%w: at %d, wanted %d, have %d",
			ErrTruncated, d.pos, count, d.Remaining())
	}
	start := d.pos
	d.pos += count
	return d.buf[start : start+count], nil
}

// takeOne takes a single byte from the buffer.
func (d *Decoder) takeOne() (byte, error) {
	if d.Remaining() < 1 {
		return 0, fmt.Errorf("%w: at %d, wanted 1, have 0", ErrTruncated, d.pos)
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// peekOne reads the next byte without advancing the cursor.
func (d *Decoder) peekOne() (byte, error) {
	if d.Remaining() < 1 {
		return 0, fmt.Errorf("%w: at %d, wanted 1, have 0", ErrTruncated, d.pos)
	}
	return d.buf[d.pos], nil
}

// ===== FULL ENUMERATION =====

// DecodeTagged decodes the next tagged value from the cursor. Returns
// (nil, nil) when the cursor sits exactly at the end of the body.
func (d *Decoder) DecodeTagged() (*Field, error) {
	if d.pos >= len(d.buf) {
		return nil, nil
	}

	label, t, err := d.DecodeTag()
	if err != nil {
		return nil, err
	}
	v, err := d.decodeValue(t, 0)
	if err != nil {
		return nil, wrapWithTag(err, label)
	}
	return &Field{Label: label, Type: t, Value: v}, nil
}

// DecodeBody decodes an entire packet body into a Group. The body is a
// flat sequence of tagged values delimited by the frame, not by a
// terminator byte. Nothing is committed to the result until the whole
// body has decoded cleanly.
func DecodeBody(data []byte) (*Group, error) {
	d := NewDecoder(data)
	g := NewGroup()
	for {
		f, err := d.DecodeTagged()
		if err != nil {
			return nil, err
		}
		if f == nil {
			return g, nil
		}
		g.Fields = append(g.Fields, f)
	}
}

// ===== TAG-DIRECTED SKIP DECODING =====

// DecodeUntil scans forward for the given label, skipping any fields
// that do not match, and leaves the cursor positioned on the value so
// the caller can decode it. Reaching the end of the body cleanly yields
// ErrFieldNotFound (local, recoverable); a matching label with the
// wrong type yields ErrTypeMismatch; anything else means the stream is
// corrupt and bubbles immediately.
func (d *Decoder) DecodeUntil(label string, want Type) error {
	for {
		if d.pos >= len(d.buf) {
			return wrapWithTag(ErrFieldNotFound, label)
		}
		got, t, err := d.DecodeTag()
		if err != nil {
			return err
		}
		if got == label {
			if t != want {
				return wrapWithTag(fmt.Errorf("%w: expected %s but got %s",
					ErrTypeMismatch, want, t), label)
			}
			return nil
		}
		if err := d.skipValue(t, 0); err != nil {
			return err
		}
	}
}

// Tagged decode helpers built on DecodeUntil. These are the live-cursor
// lookup path: one forward scan, no materialization of skipped fields.

// TaggedVarint finds a varint field and returns its 64-bit magnitude.
func (d *Decoder) TaggedVarint(label string) (uint64, error) {
	if err := d.DecodeUntil(label, TypeVarint); err != nil {
		return 0, err
	}
	return d.DecodeVarint()
}

// TaggedUint32 finds a varint field narrowed to uint32.
func (d *Decoder) TaggedUint32(label string) (uint32, error) {
	v, err := d.TaggedVarint(label)
	return uint32(v), err
}

// TaggedBool finds a varint field decoded as bool.
func (d *Decoder) TaggedBool(label string) (bool, error) {
	v, err := d.TaggedVarint(label)
	return v != 0, err
}

// TaggedString finds a string field.
func (d *Decoder) TaggedString(label string) (string, error) {
	if err := d.DecodeUntil(label, TypeString); err != nil {
		return "", err
	}
	bd := NewBytesDecoder(d)
	return bd.DecodeString()
}

// TaggedBlob finds a blob field.
func (d *Decoder) TaggedBlob(label string) ([]byte, error) {
	if err := d.DecodeUntil(label, TypeBlob); err != nil {
		return nil, err
	}
	bd := NewBytesDecoder(d)
	return bd.DecodeBlob()
}

// TaggedGroup finds and materializes a group field.
func (d *Decoder) TaggedGroup(label string) (*Group, error) {
	if err := d.DecodeUntil(label, TypeGroup); err != nil {
		return nil, err
	}
	v, err := d.decodeValue(TypeGroup, 0)
	if err != nil {
		return nil, wrapWithTag(err, label)
	}
	return v.(*Group), nil
}

// TaggedFloat32 finds a float field.
func (d *Decoder) TaggedFloat32(label string) (float32, error) {
	if err := d.DecodeUntil(label, TypeFloat); err != nil {
		return 0, err
	}
	fd := NewFloatDecoder(d)
	return fd.DecodeFloat32()
}

// ExpectList finds a list field, checks its element type, and returns
// the element count with the cursor on the first element.
func (d *Decoder) ExpectList(label string, elem Type) (int, error) {
	if err := d.DecodeUntil(label, TypeList); err != nil {
		return 0, err
	}
	got, err := d.decodeElemType()
	if err != nil {
		return 0, err
	}
	if got != elem {
		return 0, wrapWithTag(fmt.Errorf("%w: expected %s elements but got %s",
			ErrTypeMismatch, elem, got), label)
	}
	return d.decodeCount()
}

// ExpectMap finds a map field, checks its key and value types, and
// returns the entry count with the cursor on the first key.
func (d *Decoder) ExpectMap(label string, key, value Type) (int, error) {
	if err := d.DecodeUntil(label, TypeMap); err != nil {
		return 0, err
	}
	gotKey, err := d.decodeElemType()
	if err != nil {
		return 0, err
	}
	gotValue, err := d.decodeElemType()
	if err != nil {
		return 0, err
	}
	if gotKey != key || gotValue != value {
		return 0, wrapWithTag(fmt.Errorf("%w: expected %s->%s entries but got %s->%s",
			ErrTypeMismatch, key, value, gotKey, gotValue), label)
	}
	return d.decodeCount()
}

// ===== VALUE DECODING =====

// decodeValue materializes a value of the given wire type.
func (d *Decoder) decodeValue(t Type, depth int) (interface{}, error) {
	if depth >= maxDepth {
		return nil, ErrDepthExceeded
	}

	switch t {
	case TypeVarint:
		return d.DecodeVarint()

	case TypeString:
		bd := NewBytesDecoder(d)
		return bd.DecodeString()

	case TypeBlob:
		bd := NewBytesDecoder(d)
		return bd.DecodeBlob()

	case TypeGroup:
		return d.decodeGroup(depth)

	case TypeList:
		return d.decodeList(depth)

	case TypeMap:
		return d.decodeMap(depth)

	case TypeUnion:
		return d.decodeUnion(depth)

	case TypeVarintList:
		count, err := d.decodeCount()
		if err != nil {
			return nil, err
		}
		values := make(VarintList, 0, count)
		for i := 0; i < count; i++ {
			v, err := d.DecodeVarint()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return values, nil

	case TypePair:
		var p Pair
		var err error
		if p.A, err = d.DecodeVarint(); err != nil {
			return nil, err
		}
		if p.B, err = d.DecodeVarint(); err != nil {
			return nil, err
		}
		return p, nil

	case TypeTriple:
		var tr Triple
		var err error
		if tr.A, err = d.DecodeVarint(); err != nil {
			return nil, err
		}
		if tr.B, err = d.DecodeVarint(); err != nil {
			return nil, err
		}
		if tr.C, err = d.DecodeVarint(); err != nil {
			return nil, err
		}
		return tr, nil

	case TypeFloat:
		fd := NewFloatDecoder(d)
		return fd.DecodeFloat32()

	default:
		return nil, ErrUnknownType
	}
}

func (d *Decoder) decodeGroup(depth int) (*Group, error) {
	g := NewGroup()
	for {
		b, err := d.peekOne()
		if err != nil {
			return nil, err
		}
		if b == groupTerminator {
			d.pos++
			return g, nil
		}
		if b == groupStart2 && len(g.Fields) == 0 && !g.Start2 {
			d.pos++
			g.Start2 = true
			continue
		}

		label, t, err := d.DecodeTag()
		if err != nil {
			return nil, err
		}
		v, err := d.decodeValue(t, depth+1)
		if err != nil {
			return nil, wrapWithTag(err, label)
		}
		g.Fields = append(g.Fields, &Field{Label: label, Type: t, Value: v})
	}
}

func (d *Decoder) decodeList(depth int) (*List, error) {
	elem, err := d.decodeElemType()
	if err != nil {
		return nil, err
	}
	count, err := d.decodeCount()
	if err != nil {
		return nil, err
	}
	l := NewList(elem)
	for i := 0; i < count; i++ {
		v, err := d.decodeValue(elem, depth+1)
		if err != nil {
			return nil, err
		}
		l.Items = append(l.Items, v)
	}
	return l, nil
}

func (d *Decoder) decodeMap(depth int) (*Map, error) {
	key, err := d.decodeElemType()
	if err != nil {
		return nil, err
	}
	value, err := d.decodeElemType()
	if err != nil {
		return nil, err
	}
	count, err := d.decodeCount()
	if err != nil {
		return nil, err
	}
	m := NewMap(key, value)
	for i := 0; i < count; i++ {
		k, err := d.decodeValue(key, depth+1)
		if err != nil {
			return nil, err
		}
		v, err := d.decodeValue(value, depth+1)
		if err != nil {
			return nil, err
		}
		m.keys = append(m.keys, k)
		m.values = append(m.values, v)
	}
	return m, nil
}

func (d *Decoder) decodeUnion(depth int) (*Union, error) {
	disc, err := d.takeOne()
	if err != nil {
		return nil, err
	}
	if disc == UnionUnset {
		return &Union{Discriminant: UnionUnset}, nil
	}

	label, t, err := d.DecodeTag()
	if err != nil {
		return nil, err
	}
	v, err := d.decodeValue(t, depth+1)
	if err != nil {
		return nil, wrapWithTag(err, label)
	}
	return &Union{
		Discriminant: disc,
		Field:        &Field{Label: label, Type: t, Value: v},
	}, nil
}

// ===== SKIPPING =====

// SkipValue consumes a value of the given wire type without
// materializing it.
func (d *Decoder) SkipValue(t Type) error {
	return d.skipValue(t, 0)
}

// skipValue shares the length/count rules with decodeValue so the skip
// and consume paths cannot diverge: both walk exactly the same byte
// spans for every kind.
func (d *Decoder) skipValue(t Type, depth int) error {
	if depth >= maxDepth {
		return ErrDepthExceeded
	}

	switch t {
	case TypeVarint:
		vd := NewVarintDecoder(d)
		return vd.SkipVarint()

	case TypeString, TypeBlob:
		bd := NewBytesDecoder(d)
		return bd.SkipBytes()

	case TypeGroup:
		return d.skipGroup(depth)

	case TypeList:
		elem, err := d.decodeElemType()
		if err != nil {
			return err
		}
		count, err := d.decodeCount()
		if err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			if err := d.skipValue(elem, depth+1); err != nil {
				return err
			}
		}
		return nil

	case TypeMap:
		key, err := d.decodeElemType()
		if err != nil {
			return err
		}
		value, err := d.decodeElemType()
		if err != nil {
			return err
		}
		count, err := d.decodeCount()
		if err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			if err := d.skipValue(key, depth+1); err != nil {
				return err
			}
			if err := d.skipValue(value, depth+1); err != nil {
				return err
			}
		}
		return nil

	case TypeUnion:
		disc, err := d.takeOne()
		if err != nil {
			return err
		}
		if disc == UnionUnset {
			return nil
		}
		_, inner, err := d.DecodeTag()
		if err != nil {
			return err
		}
		return d.skipValue(inner, depth+1)

	case TypeVarintList:
		count, err := d.decodeCount()
		if err != nil {
			return err
		}
		vd := NewVarintDecoder(d)
		for i := 0; i < count; i++ {
			if err := vd.SkipVarint(); err != nil {
				return err
			}
		}
		return nil

	case TypePair:
		return d.skipVarints(2)

	case TypeTriple:
		return d.skipVarints(3)

	case TypeFloat:
		_, err := d.take(4)
		return err

	default:
		return ErrUnknownType
	}
}

func (d *Decoder) skipGroup(depth int) error {
	first := true
	for {
		b, err := d.peekOne()
		if err != nil {
			return err
		}
		if b == groupTerminator {
			d.pos++
			return nil
		}
		if b == groupStart2 && first {
			d.pos++
			first = false
			continue
		}
		first = false

		_, t, err := d.DecodeTag()
		if err != nil {
			return err
		}
		if err := d.skipValue(t, depth+1); err != nil {
			return err
		}
	}
}

func (d *Decoder) skipVarints(n int) error {
	vd := NewVarintDecoder(d)
	for i := 0; i < n; i++ {
		if err := vd.SkipVarint(); err != nil {
			return err
		}
	}
	return nil
}

// ===== SHARED PRIMITIVES =====

// decodeElemType reads a declared element type byte for lists and maps.
func (d *Decoder) decodeElemType() (Type, error) {
	b, err := d.takeOne()
	if err != nil {
		return 0, err
	}
	t := Type(b)
	if !t.Valid() {
		return 0, ErrUnknownType
	}
	return t, nil
}

// decodeCount reads an element count and sanity checks it against the
// remaining buffer: every element costs at least one byte, so a count
// beyond that is corruption, not a short read.
func (d *Decoder) decodeCount() (int, error) {
	count, err := d.DecodeVarint()
	if err != nil {
		return 0, err
	}
	if count > uint64(d.Remaining()) {
		return 0, fmt.Errorf("%w: count %d exceeds %d remaining bytes",
			ErrTruncated, count, d.Remaining())
	}
	return int(count), nil
}

// IsFatal reports whether err indicates stream corruption rather than a
// merely absent optional field.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrFieldNotFound)
}
