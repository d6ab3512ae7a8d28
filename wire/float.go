package wire

import (
	"encoding/binary"
	"math"
)

// Floats are the one fixed-width scalar in the format: four big-endian
// bytes of IEEE-754.

// FloatDecoder handles float decoding operations
type FloatDecoder struct {
	decoder *Decoder
}

// FloatEncoder handles float encoding operations
type FloatEncoder struct {
	encoder *Encoder
}

// NewFloatDecoder creates a new float decoder
func NewFloatDecoder(d *Decoder) *FloatDecoder {
	return &FloatDecoder{decoder: d}
}

// NewFloatEncoder creates a new float encoder
func NewFloatEncoder(e *Encoder) *FloatEncoder {
	return &FloatEncoder{encoder: e}
}

// DecodeFloat32 decodes a 32-bit big-endian float.
func (fd *FloatDecoder) DecodeFloat32() (float32, error) {
	raw, err := fd.decoder.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(raw)), nil
}

// EncodeFloat32 encodes a 32-bit big-endian float.
func (fe *FloatEncoder) EncodeFloat32(v float32) {
	e := fe.encoder
	e.buf = binary.BigEndian.AppendUint32(e.buf, math.Float32bits(v))
}
