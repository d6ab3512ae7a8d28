// Package packet implements the frame layer over the TDF codec: a
// fixed-width header naming a component/command pair plus a body of
// tagged values, and the four message kinds built from it.
package packet

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rmassey/blazetdf/wire"
)

// Kind is the semantic role of a frame, carried in the high byte of the
// header's qtype field.
type Kind uint16

const (
	KindRequest  Kind = 0x0000
	KindResponse Kind = 0x1000
	KindNotify   Kind = 0x2000
	KindError    Kind = 0x3000
)

// KindOf extracts the kind from a raw qtype value.
func KindOf(qtype uint16) Kind {
	return Kind(qtype & 0xF000)
}

// Known reports whether k is one of the four defined kinds.
func (k Kind) Known() bool {
	switch k {
	case KindRequest, KindResponse, KindNotify, KindError:
		return true
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindNotify:
		return "notify"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("unknown(0x%04X)", uint16(k))
	}
}

// extendedFlag in the qtype low byte marks a body longer than 0xFFFF
// bytes, framed with an extra u16 carrying the high length bits.
const extendedFlag = 0x0010

// headerSize is the fixed part of the frame header in bytes.
const headerSize = 12

// Packet is a single frame: header fields plus the encoded body. The
// body stays raw until the consumer asks for it, enabling partial
// tag-directed access without full materialization.
type Packet struct {
	// Component and Command identify the operation; the codec does
	// not interpret them.
	Component uint16
	Command   uint16
	// Error is the header error code; zero on everything but error
	// responses.
	Error uint16
	// Kind is the message kind.
	Kind Kind
	// ID is the request counter value; zero for notifications.
	ID uint16
	// Body is the encoded body bytes.
	Body []byte
}

// ===== FACTORIES =====

// Request builds a request frame, drawing its id from the supplied
// counter. Counter allocation policy belongs to the caller.
func Request(counter RequestCounter, component, command uint16, body *wire.Group) (*Packet, error) {
	encoded, err := wire.EncodeBody(body)
	if err != nil {
		return nil, err
	}
	return &Packet{
		Component: component,
		Command:   command,
		Kind:      KindRequest,
		ID:        counter.Next(),
		Body:      encoded,
	}, nil
}

// RequestEmpty builds a request frame with an empty body.
func RequestEmpty(counter RequestCounter, component, command uint16) *Packet {
	return &Packet{
		Component: component,
		Command:   command,
		Kind:      KindRequest,
		ID:        counter.Next(),
	}
}

// Notify builds a server-initiated frame. Notifications carry no
// request id.
func Notify(component, command uint16, body *wire.Group) (*Packet, error) {
	encoded, err := wire.EncodeBody(body)
	if err != nil {
		return nil, err
	}
	return &Packet{
		Component: component,
		Command:   command,
		Kind:      KindNotify,
		Body:      encoded,
	}, nil
}

// NotifyEmpty builds a notification frame with an empty body.
func NotifyEmpty(component, command uint16) *Packet {
	return &Packet{
		Component: component,
		Command:   command,
		Kind:      KindNotify,
	}
}

// Response builds a response to the given packet, copying its
// component, command and request id.
func Response(to *Packet, body *wire.Group) (*Packet, error) {
	encoded, err := wire.EncodeBody(body)
	if err != nil {
		return nil, err
	}
	return &Packet{
		Component: to.Component,
		Command:   to.Command,
		Kind:      KindResponse,
		ID:        to.ID,
		Body:      encoded,
	}, nil
}

// ResponseEmpty builds an empty-bodied response to the given packet.
func ResponseEmpty(to *Packet) *Packet {
	return &Packet{
		Component: to.Component,
		Command:   to.Command,
		Kind:      KindResponse,
		ID:        to.ID,
	}
}

// ErrorResponse builds an error response to the given packet carrying
// the error code in the header.
func ErrorResponse(to *Packet, code uint16, body *wire.Group) (*Packet, error) {
	encoded, err := wire.EncodeBody(body)
	if err != nil {
		return nil, err
	}
	return &Packet{
		Component: to.Component,
		Command:   to.Command,
		Error:     code,
		Kind:      KindError,
		ID:        to.ID,
		Body:      encoded,
	}, nil
}

// ErrorResponseEmpty builds an empty-bodied error response.
func ErrorResponseEmpty(to *Packet, code uint16) *Packet {
	return &Packet{
		Component: to.Component,
		Command:   to.Command,
		Error:     code,
		Kind:      KindError,
		ID:        to.ID,
	}
}

// ===== FRAMING =====

// Encode returns the full frame bytes: header plus body.
func (p *Packet) Encode() []byte {
	length := len(p.Body)
	extended := length > 0xFFFF

	header := make([]byte, 0, headerSize+2)
	header = binary.BigEndian.AppendUint16(header, uint16(length))
	header = binary.BigEndian.AppendUint16(header, p.Component)
	header = binary.BigEndian.AppendUint16(header, p.Command)
	header = binary.BigEndian.AppendUint16(header, p.Error)

	qtype := uint16(p.Kind)
	if extended {
		qtype |= extendedFlag
	}
	header = binary.BigEndian.AppendUint16(header, qtype)
	header = binary.BigEndian.AppendUint16(header, p.ID)

	if extended {
		header = binary.BigEndian.AppendUint16(header, uint16(length>>16))
	}

	return append(header, p.Body...)
}

// Write writes the frame to w.
func (p *Packet) Write(w io.Writer) error {
	_, err := w.Write(p.Encode())
	return err
}

// Read reads one frame from r. The header is parsed eagerly; the body
// bytes are read whole but left undecoded.
func Read(r io.Reader) (*Packet, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	length := int(binary.BigEndian.Uint16(header[0:2]))
	qtype := binary.BigEndian.Uint16(header[8:10])

	if qtype&extendedFlag != 0 {
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, err
		}
		length |= int(binary.BigEndian.Uint16(ext[:])) << 16
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	return &Packet{
		Component: binary.BigEndian.Uint16(header[2:4]),
		Command:   binary.BigEndian.Uint16(header[4:6]),
		Error:     binary.BigEndian.Uint16(header[6:8]),
		Kind:      KindOf(qtype),
		ID:        binary.BigEndian.Uint16(header[10:12]),
		Body:      body,
	}, nil
}

// Decode parses one frame out of a byte buffer and returns the number
// of bytes consumed.
func Decode(data []byte) (*Packet, int, error) {
	if len(data) < headerSize {
		return nil, 0, fmt.Errorf("%w: frame header", wire.ErrTruncated)
	}

	length := int(binary.BigEndian.Uint16(data[0:2]))
	qtype := binary.BigEndian.Uint16(data[8:10])
	offset := headerSize

	if qtype&extendedFlag != 0 {
		if len(data) < headerSize+2 {
			return nil, 0, fmt.Errorf("%w: extended frame header", wire.ErrTruncated)
		}
		length |= int(binary.BigEndian.Uint16(data[12:14])) << 16
		offset += 2
	}

	if len(data) < offset+length {
		return nil, 0, fmt.Errorf("%w: frame body", wire.ErrTruncated)
	}

	return &Packet{
		Component: binary.BigEndian.Uint16(data[2:4]),
		Command:   binary.BigEndian.Uint16(data[4:6]),
		Error:     binary.BigEndian.Uint16(data[6:8]),
		Kind:      KindOf(qtype),
		ID:        binary.BigEndian.Uint16(data[10:12]),
		Body:      data[offset : offset+length],
	}, offset + length, nil
}

// ===== BODY ACCESS =====

// Decoder returns a fresh wire decoder over the body for tag-directed
// field access without materializing the whole body.
func (p *Packet) Decoder() *wire.Decoder {
	return wire.NewDecoder(p.Body)
}

// DecodeBody materializes the entire body into a Group.
func (p *Packet) DecodeBody() (*wire.Group, error) {
	return wire.DecodeBody(p.Body)
}
