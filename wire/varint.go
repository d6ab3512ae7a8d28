package wire

// Blaze varints are close to protobuf varints with one twist: the first
// byte carries only six value bits, so values 0-63 fit in a single byte.
// Every byte sets 0x80 when more bytes follow, and groups are ordered
// least significant first.

// VarintDecoder handles varint decoding operations
type VarintDecoder struct {
	decoder *Decoder
}

// VarintEncoder handles varint encoding operations
type VarintEncoder struct {
	encoder *Encoder
}

// NewVarintDecoder creates a new varint decoder
func NewVarintDecoder(d *Decoder) *VarintDecoder {
	return &VarintDecoder{decoder: d}
}

// NewVarintEncoder creates a new varint encoder
func NewVarintEncoder(e *Encoder) *VarintEncoder {
	return &VarintEncoder{encoder: e}
}

// DECODER METHODS

// DecodeVarint decodes a varint from the current position.
func (vd *VarintDecoder) DecodeVarint() (uint64, error) {
	d := vd.decoder

	first, err := d.takeOne()
	if err != nil {
		return 0, err
	}
	result := uint64(first & 0x3F)
	if first < 0x80 {
		return result, nil
	}

	var shift uint = 6
	for {
		b, err := d.takeOne()
		if err != nil {
			return 0, err
		}

		if shift >= 64 {
			return 0, ErrVarintOverflow
		}
		v := uint64(b & 0x7F)
		// Reject bits that would be shifted off the top of a uint64.
		if v<<shift>>shift != v {
			return 0, ErrVarintOverflow
		}
		result |= v << shift

		if b < 0x80 {
			return result, nil
		}
		shift += 7
	}
}

// DecodeInt64 decodes a varint as a two's-complement int64.
func (vd *VarintDecoder) DecodeInt64() (int64, error) {
	v, err := vd.DecodeVarint()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// DecodeUint32 decodes a varint narrowed to uint32. Narrowing is silent;
// the protocol's integer typing is lax and peers rely on that.
func (vd *VarintDecoder) DecodeUint32() (uint32, error) {
	v, err := vd.DecodeVarint()
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// DecodeUint16 decodes a varint narrowed to uint16.
func (vd *VarintDecoder) DecodeUint16() (uint16, error) {
	v, err := vd.DecodeVarint()
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// DecodeBool decodes a varint as bool.
func (vd *VarintDecoder) DecodeBool() (bool, error) {
	v, err := vd.DecodeVarint()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// SkipVarint skips over a varint. It shares the decode path so skip and
// consume agree on what is well formed: bytes DecodeVarint rejects as
// overflow are rejected here too.
func (vd *VarintDecoder) SkipVarint() error {
	_, err := vd.DecodeVarint()
	return err
}

// ENCODER METHODS

// EncodeVarint encodes a uint64 in the Blaze varint layout.
func (ve *VarintEncoder) EncodeVarint(v uint64) {
	e := ve.encoder
	if v < 0x40 {
		e.buf = append(e.buf, byte(v))
		return
	}
	e.buf = append(e.buf, byte(v&0x3F)|0x80)
	v >>= 6
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v&0x7F)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

// EncodeInt64 encodes an int64 as its two's-complement uint64 image.
// The protocol does not zigzag; negative values take the maximal width.
func (ve *VarintEncoder) EncodeInt64(v int64) {
	ve.EncodeVarint(uint64(v))
}

// EncodeBool encodes a bool as varint 0 or 1.
func (ve *VarintEncoder) EncodeBool(v bool) {
	if v {
		ve.EncodeVarint(1)
	} else {
		ve.EncodeVarint(0)
	}
}

// UTILITY FUNCTIONS

// VarintSize returns the number of bytes needed to encode the given value.
func VarintSize(v uint64) int {
	if v < 0x40 {
		return 1
	}
	n := 1
	v >>= 6
	for v >= 0x80 {
		n++
		v >>= 7
	}
	return n + 1
}

// Convenience methods for direct access

// DecodeVarint - convenience method for main decoder
func (d *Decoder) DecodeVarint() (uint64, error) {
	vd := NewVarintDecoder(d)
	return vd.DecodeVarint()
}

// EncodeVarint - convenience method for main encoder
func (e *Encoder) EncodeVarint(v uint64) {
	ve := NewVarintEncoder(e)
	ve.EncodeVarint(v)
}
