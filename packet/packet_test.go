package packet

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmassey/blazetdf/wire"
)

func TestRequestFrameBytes(t *testing.T) {
	body := wire.NewGroup()
	require.NoError(t, body.Add("TEST", uint32(5)))

	p, err := Request(FixedCounter(7), 0x0001, 0x0002, body)
	require.NoError(t, err)

	want := []byte{
		0x00, 0x05, // body length
		0x00, 0x01, // component
		0x00, 0x02, // command
		0x00, 0x00, // error
		0x00, 0x00, // qtype: request
		0x00, 0x07, // request id
		0xD2, 0x5C, 0xF4, 0x00, 0x05, // TEST: varint 5
	}
	assert.Equal(t, want, p.Encode())
}

func TestFrameRoundTrip(t *testing.T) {
	body := wire.NewGroup()
	require.NoError(t, body.Add("MAIL", "test@example.com"))
	require.NoError(t, body.Add("PID", uint64(12345)))

	p, err := Request(FixedCounter(3), 0x0009, 0x0028, body)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf))

	got, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, p.Component, got.Component)
	assert.Equal(t, p.Command, got.Command)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, KindRequest, got.Kind)
	assert.Equal(t, uint16(0), got.Error)

	decoded, err := got.DecodeBody()
	require.NoError(t, err)
	mail, err := decoded.GetString("MAIL")
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", mail)

	// Partial access through the live cursor, no materialization.
	pid, err := got.Decoder().TaggedVarint("PID")
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), pid)
}

func TestResponseCopiesHeaderFields(t *testing.T) {
	req := RequestEmpty(FixedCounter(7), 0x0004, 0x0001)

	resp := ResponseEmpty(req)
	assert.Equal(t, req.Component, resp.Component)
	assert.Equal(t, req.Command, resp.Command)
	assert.Equal(t, req.ID, resp.ID)
	assert.Equal(t, KindResponse, resp.Kind)
	assert.Empty(t, resp.Body)

	errResp := ErrorResponseEmpty(req, 13)
	assert.Equal(t, req.ID, errResp.ID)
	assert.Equal(t, KindError, errResp.Kind)
	assert.Equal(t, uint16(13), errResp.Error)

	// The error code survives framing.
	var buf bytes.Buffer
	require.NoError(t, errResp.Write(&buf))
	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(13), got.Error)
	assert.Equal(t, KindError, got.Kind)
}

func TestNotifyCarriesNoID(t *testing.T) {
	body := wire.NewGroup()
	require.NoError(t, body.Add("CONN", uint64(1)))

	p, err := Notify(0x0004, 0x000A, body)
	require.NoError(t, err)
	assert.Equal(t, KindNotify, p.Kind)
	assert.Equal(t, uint16(0), p.ID)

	empty := NotifyEmpty(0x0004, 0x000A)
	assert.Empty(t, empty.Body)
}

func TestExtendedLengthFrame(t *testing.T) {
	big := bytes.Repeat([]byte{0xAB}, 70000)
	body := wire.NewGroup()
	require.NoError(t, body.Add("DATA", big))

	p, err := Request(FixedCounter(1), 0x0007, 0x0001, body)
	require.NoError(t, err)
	require.Greater(t, len(p.Body), 0xFFFF)

	encoded := p.Encode()
	// The extended flag is set and the extra u16 carries the high bits.
	qtype := uint16(encoded[8])<<8 | uint16(encoded[9])
	assert.NotZero(t, qtype&extendedFlag)
	assert.Len(t, encoded, headerSize+2+len(p.Body))

	got, err := Read(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, p.Body, got.Body)

	decoded, err := got.DecodeBody()
	require.NoError(t, err)
	data, err := decoded.GetBlob("DATA")
	require.NoError(t, err)
	assert.Equal(t, big, data)
}

func TestDecodeBuffer(t *testing.T) {
	body := wire.NewGroup()
	require.NoError(t, body.Add("TEST", uint64(5)))
	first, err := Request(FixedCounter(1), 0x0001, 0x0002, body)
	require.NoError(t, err)
	second := RequestEmpty(FixedCounter(2), 0x0003, 0x0004)

	stream := append(first.Encode(), second.Encode()...)

	got, n, err := Decode(stream)
	require.NoError(t, err)
	assert.Equal(t, first.Component, got.Component)
	assert.Equal(t, len(first.Encode()), n)

	got, n2, err := Decode(stream[n:])
	require.NoError(t, err)
	assert.Equal(t, second.Component, got.Component)
	assert.Equal(t, len(stream), n+n2)
}

func TestDecodeTruncated(t *testing.T) {
	body := wire.NewGroup()
	require.NoError(t, body.Add("TEST", uint64(5)))
	p, err := Request(FixedCounter(1), 0x0001, 0x0002, body)
	require.NoError(t, err)
	encoded := p.Encode()

	for cut := 0; cut < len(encoded); cut++ {
		_, _, err := Decode(encoded[:cut])
		assert.ErrorIs(t, err, wire.ErrTruncated, "cut at %d", cut)
	}
}

func TestReadShortStream(t *testing.T) {
	_, err := Read(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)

	// A header promising more body than the stream has.
	_, err = Read(bytes.NewReader([]byte{
		0x00, 0x10, 0x00, 0x01, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
		0xAA,
	}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		qtype uint16
		kind  Kind
		known bool
	}{
		{0x0000, KindRequest, true},
		{0x1000, KindResponse, true},
		{0x2000, KindNotify, true},
		{0x3000, KindError, true},
		{0x2010, KindNotify, true}, // extended flag does not change the kind
		{0x4000, Kind(0x4000), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, KindOf(tt.qtype))
		assert.Equal(t, tt.known, KindOf(tt.qtype).Known())
	}
	assert.Equal(t, "notify", KindNotify.String())
	assert.Equal(t, "unknown(0x4000)", Kind(0x4000).String())
}

func TestCounters(t *testing.T) {
	s := NewSimpleCounter()
	for want := uint16(1); want <= 3; want++ {
		assert.Equal(t, want, s.Next())
	}

	// The atomic counter issues 0 first, fetch-and-increment style.
	a := NewAtomicCounter()
	for want := uint16(0); want <= 2; want++ {
		assert.Equal(t, want, a.Next())
	}

	f := FixedCounter(42)
	assert.Equal(t, uint16(42), f.Next())
	assert.Equal(t, uint16(42), f.Next())
}

func TestNilBodyEncodesEmpty(t *testing.T) {
	p, err := Request(FixedCounter(1), 0x0001, 0x0002, nil)
	require.NoError(t, err)
	assert.Empty(t, p.Body)
	assert.Len(t, p.Encode(), headerSize)
}
