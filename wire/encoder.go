package wire

// Encoder handles low-level TDF wire format encoding.
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new wire format encoder.
func NewEncoder() *Encoder {
	return &Encoder{
		buf: make([]byte, 0),
	}
}

// Bytes returns the encoded bytes.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Reset clears the encoder buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

func (e *Encoder) writeByte(b byte) {
	e.buf = append(e.buf, b)
}

// EncodeTagged encodes a tag followed by its value. On error the buffer
// is rolled back to its previous length so a failed field never leaves
// partial output behind.
func (e *Encoder) EncodeTagged(label string, v interface{}) error {
	mark := len(e.buf)

	t, err := TypeOf(v)
	if err != nil {
		return wrapWithTag(err, label)
	}
	if err := e.EncodeTag(label, t); err != nil {
		return err
	}
	if err := e.encodeValue(t, v, 0); err != nil {
		e.buf = e.buf[:mark]
		return wrapWithTag(err, label)
	}
	return nil
}

// EncodeField encodes a single materialized field.
func (e *Encoder) EncodeField(f *Field) error {
	return e.EncodeTagged(f.Label, f.Value)
}

// EncodeBody encodes a packet body: the group's fields in insertion
// order with no terminator byte (the frame length delimits the body).
// A nil group encodes as an empty body.
func (e *Encoder) EncodeBody(g *Group) error {
	if g == nil {
		return nil
	}
	for _, f := range g.Fields {
		if err := e.EncodeField(f); err != nil {
			return err
		}
	}
	return nil
}

// EncodeBody is a convenience wrapper producing the body bytes of a group.
func EncodeBody(g *Group) ([]byte, error) {
	e := NewEncoder()
	if err := e.EncodeBody(g); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// encodeValue writes a value of the given wire type. Callers have
// already validated that v matches t via TypeOf.
func (e *Encoder) encodeValue(t Type, v interface{}, depth int) error {
	if depth >= maxDepth {
		return ErrDepthExceeded
	}

	switch t {
	case TypeVarint:
		u, _ := asUint64(v)
		ve := NewVarintEncoder(e)
		ve.EncodeVarint(u)
		return nil

	case TypeString:
		be := NewBytesEncoder(e)
		be.EncodeString(v.(string))
		return nil

	case TypeBlob:
		be := NewBytesEncoder(e)
		be.EncodeBlob(v.([]byte))
		return nil

	case TypeGroup:
		return e.encodeGroup(v.(*Group), depth)

	case TypeList:
		return e.encodeList(v.(*List), depth)

	case TypeMap:
		return e.encodeMap(v.(*Map), depth)

	case TypeUnion:
		return e.encodeUnion(v.(*Union), depth)

	case TypeVarintList:
		ve := NewVarintEncoder(e)
		values := v.(VarintList)
		ve.EncodeVarint(uint64(len(values)))
		for _, u := range values {
			ve.EncodeVarint(u)
		}
		return nil

	case TypePair:
		p := v.(Pair)
		ve := NewVarintEncoder(e)
		ve.EncodeVarint(p.A)
		ve.EncodeVarint(p.B)
		return nil

	case TypeTriple:
		tr := v.(Triple)
		ve := NewVarintEncoder(e)
		ve.EncodeVarint(tr.A)
		ve.EncodeVarint(tr.B)
		ve.EncodeVarint(tr.C)
		return nil

	case TypeFloat:
		fe := NewFloatEncoder(e)
		fe.EncodeFloat32(v.(float32))
		return nil

	default:
		return ErrUnknownType
	}
}

func (e *Encoder) encodeGroup(g *Group, depth int) error {
	if g.Start2 {
		e.writeByte(groupStart2)
	}
	for _, f := range g.Fields {
		ft, err := TypeOf(f.Value)
		if err != nil {
			return wrapWithTag(err, f.Label)
		}
		if err := e.EncodeTag(f.Label, ft); err != nil {
			return err
		}
		if err := e.encodeValue(ft, f.Value, depth+1); err != nil {
			return wrapWithTag(err, f.Label)
		}
	}
	e.writeByte(groupTerminator)
	return nil
}

func (e *Encoder) encodeList(l *List, depth int) error {
	e.writeByte(byte(l.Elem))
	ve := NewVarintEncoder(e)
	ve.EncodeVarint(uint64(len(l.Items)))
	for _, item := range l.Items {
		if err := e.encodeValue(l.Elem, item, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeMap(m *Map, depth int) error {
	e.writeByte(byte(m.Key))
	e.writeByte(byte(m.Value))
	ve := NewVarintEncoder(e)
	ve.EncodeVarint(uint64(m.Len()))
	for i := 0; i < m.Len(); i++ {
		k, v := m.At(i)
		if err := e.encodeValue(m.Key, k, depth+1); err != nil {
			return err
		}
		if err := e.encodeValue(m.Value, v, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeUnion(u *Union, depth int) error {
	if u.Field == nil {
		e.writeByte(UnionUnset)
		return nil
	}
	if u.Discriminant == UnionUnset {
		return ErrUnionBadUnset
	}
	e.writeByte(u.Discriminant)

	ft, err := TypeOf(u.Field.Value)
	if err != nil {
		return wrapWithTag(err, u.Field.Label)
	}
	if err := e.EncodeTag(u.Field.Label, ft); err != nil {
		return err
	}
	if err := e.encodeValue(ft, u.Field.Value, depth+1); err != nil {
		return wrapWithTag(err, u.Field.Label)
	}
	return nil
}
