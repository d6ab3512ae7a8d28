package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Decoding errors. ErrTruncated and everything in the malformed family
// mean the stream is desynchronized and the caller should drop the
// connection; ErrFieldNotFound is local and only reported when the cursor
// reached the end of the body cleanly.
var (
	ErrTruncated      = errors.New("unexpected end of buffer")
	ErrVarintOverflow = errors.New("varint overflows 64 bits")
	ErrUnknownType    = errors.New("unknown wire type")
	ErrInvalidTag     = errors.New("tag code outside label alphabet")
	ErrFieldNotFound  = errors.New("field not found")
	ErrTypeMismatch   = errors.New("wire type mismatch")
	ErrDepthExceeded  = errors.New("nesting depth exceeded")
)

// Encoding errors. These are local to the value being built and never
// leave partial output in the encoder buffer.
var (
	ErrInvalidLabel  = errors.New("label outside tag alphabet")
	ErrElementType   = errors.New("element type mismatch")
	ErrUnsupportedGo = errors.New("unsupported Go value")
	ErrUnionBadUnset = errors.New("union discriminant 0x7F reserved for unset")
)

// TagError carries the tag path leading to a nested failure.
type TagError struct {
	TagPath []string // e.g. ["USER", "NETW", "ADDR"]
	Err     error    // underlying error
}

// Error implements the error interface.
func (e *TagError) Error() string {
	if len(e.TagPath) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("error at tag %s: %v", strings.Join(e.TagPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *TagError) Unwrap() error {
	return e.Err
}

// wrapWithTag wraps an error with the tag label it occurred under.
func wrapWithTag(err error, label string) error {
	if err == nil {
		return nil
	}
	var te *TagError
	if errors.As(err, &te) {
		return &TagError{
			TagPath: append([]string{label}, te.TagPath...),
			Err:     te.Err,
		}
	}
	return &TagError{
		TagPath: []string{label},
		Err:     err,
	}
}
