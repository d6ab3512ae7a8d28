package wire

// BytesDecoder handles string and blob decoding operations
type BytesDecoder struct {
	decoder *Decoder
}

// BytesEncoder handles string and blob encoding operations
type BytesEncoder struct {
	encoder *Encoder
}

// NewBytesDecoder creates a new bytes decoder
func NewBytesDecoder(d *Decoder) *BytesDecoder {
	return &BytesDecoder{decoder: d}
}

// NewBytesEncoder creates a new bytes encoder
func NewBytesEncoder(e *Encoder) *BytesEncoder {
	return &BytesEncoder{encoder: e}
}

// DECODER METHODS

// DecodeBlob decodes a length-prefixed byte blob. The returned slice is
// a copy; the wire buffer is not retained.
func (bd *BytesDecoder) DecodeBlob() ([]byte, error) {
	raw, err := bd.decoder.takeLengthPrefixed()
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(raw))
	copy(data, raw)
	return data, nil
}

// DecodeString decodes a length-prefixed string. The length prefix
// counts the null terminator, which is stripped from the result.
func (bd *BytesDecoder) DecodeString() (string, error) {
	raw, err := bd.decoder.takeLengthPrefixed()
	if err != nil {
		return "", err
	}
	// Tolerate a missing terminator on inbound data; only canonical
	// output is guaranteed to carry one.
	if n := len(raw); n > 0 && raw[n-1] == 0 {
		raw = raw[:n-1]
	}
	return string(raw), nil
}

// SkipBytes skips over a length-prefixed value (string or blob).
func (bd *BytesDecoder) SkipBytes() error {
	_, err := bd.decoder.takeLengthPrefixed()
	return err
}

// takeLengthPrefixed reads a varint length then borrows that many bytes
// from the buffer. A length larger than the remaining bytes is stream
// corruption.
func (d *Decoder) takeLengthPrefixed() ([]byte, error) {
	length, err := d.DecodeVarint()
	if err != nil {
		return nil, err
	}
	if length > uint64(d.Remaining()) {
		return nil, ErrTruncated
	}
	return d.take(int(length))
}

// ENCODER METHODS

// EncodeBlob encodes a byte blob: varint length plus raw bytes.
func (be *BytesEncoder) EncodeBlob(data []byte) {
	e := be.encoder
	e.EncodeVarint(uint64(len(data)))
	e.buf = append(e.buf, data...)
}

// EncodeString encodes a string: varint length (terminator included),
// the UTF-8 bytes, then a single null byte. The empty string is 01 00.
func (be *BytesEncoder) EncodeString(s string) {
	e := be.encoder
	e.EncodeVarint(uint64(len(s) + 1))
	e.buf = append(e.buf, s...)
	e.buf = append(e.buf, 0)
}

// UTILITY FUNCTIONS

// BlobSize returns the encoded size of the given blob.
func BlobSize(data []byte) int {
	return VarintSize(uint64(len(data))) + len(data)
}

// StringSize returns the encoded size of the given string.
func StringSize(s string) int {
	return VarintSize(uint64(len(s)+1)) + len(s) + 1
}
