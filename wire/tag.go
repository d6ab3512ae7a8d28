package wire

import "strings"

// Tags are four bytes on the wire: a four character label packed into
// three bytes of 6-bit codes (most significant first) plus the raw type
// code. The label alphabet is uppercase letters, digits and underscore;
// shorter labels are zero-padded.

// labelChars is the number of characters a packed label holds.
const labelChars = 4

// charToCode maps a label character to its 6-bit code. Returns false for
// characters outside the alphabet.
func charToCode(c byte) (uint8, bool) {
	switch {
	case c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		return ((c & 0x40) >> 1) | (c & 0x1F), true
	default:
		return 0, false
	}
}

// codeToChar maps a 6-bit code back to its label character. Code zero is
// the pad. Returns false for codes that decode outside the alphabet.
func codeToChar(code uint8) (byte, bool) {
	c := ((code & 0x20) << 1) | (code & 0x1F)
	switch {
	case c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		return c, true
	default:
		return 0, false
	}
}

// PackLabel packs a 1-4 character label into its 3-byte wire form.
// The label is uppercased first; characters outside the alphabet and
// labels longer than four characters fail with ErrInvalidLabel.
func PackLabel(label string) ([3]byte, error) {
	var packed [3]byte
	if len(label) == 0 || len(label) > labelChars {
		return packed, ErrInvalidLabel
	}

	label = strings.ToUpper(label)
	var codes [labelChars]uint8
	for i := 0; i < len(label); i++ {
		code, ok := charToCode(label[i])
		if !ok {
			return packed, ErrInvalidLabel
		}
		codes[i] = code
	}

	packed[0] = codes[0]<<2 | codes[1]>>4
	packed[1] = codes[1]<<4 | codes[2]>>2
	packed[2] = codes[2]<<6 | codes[3]
	return packed, nil
}

// UnpackLabel unpacks a 3-byte wire label back into its string form with
// trailing padding removed. Any non-pad code outside the alphabet fails
// with ErrInvalidTag rather than substituting a character.
func UnpackLabel(packed [3]byte) (string, error) {
	codes := [labelChars]uint8{
		packed[0] >> 2,
		(packed[0]&0x03)<<4 | packed[1]>>4,
		(packed[1]&0x0F)<<2 | packed[2]>>6,
		packed[2] & 0x3F,
	}

	var out [labelChars]byte
	n := 0
	for i, code := range codes {
		if code == 0 {
			continue
		}
		c, ok := codeToChar(code)
		if !ok {
			return "", ErrInvalidTag
		}
		// Pads only at the end; an interior pad is not representable.
		if i != n {
			return "", ErrInvalidTag
		}
		out[n] = c
		n++
	}
	return string(out[:n]), nil
}

// EncodeTag writes a 4-byte tag: packed label plus type code.
func (e *Encoder) EncodeTag(label string, t Type) error {
	packed, err := PackLabel(label)
	if err != nil {
		return wrapWithTag(err, label)
	}
	e.buf = append(e.buf, packed[0], packed[1], packed[2], byte(t))
	return nil
}

// DecodeTag reads a 4-byte tag and returns its label and type. An
// undefined type code fails with ErrUnknownType.
func (d *Decoder) DecodeTag() (string, Type, error) {
	raw, err := d.take(labelChars)
	if err != nil {
		return "", 0, err
	}
	label, err := UnpackLabel([3]byte{raw[0], raw[1], raw[2]})
	if err != nil {
		return "", 0, err
	}
	t := Type(raw[3])
	if !t.Valid() {
		return "", 0, ErrUnknownType
	}
	return label, t, nil
}
