// Package decoder reads parameters out of the host's packed raw event
// buffer: a fixed header, an array of 16-bit parameter lengths, then the
// concatenated parameter payloads. It is the fallback path the fingerprint
// extractor uses when the host's thread table lacks the data it needs.
package decoder

import (
	"encoding/binary"
	"errors"
)

// ErrMalformedBuffer is returned when a buffer is too short for the header
// it claims to have, or a requested parameter index is out of range.
var ErrMalformedBuffer = errors.New("decoder: malformed event buffer")

// HeaderSize is the size, in bytes, of the fixed event header preceding the
// parameter-length array.
const HeaderSize = 16

// Buffer wraps a single raw event's packed bytes and the parameter count the
// host reports for it out-of-band (nparams is carried in the event metadata,
// not re-derived here).
type Buffer struct {
	raw     []byte
	nparams int
}

// NewBuffer wraps raw with the host-reported parameter count.
func NewBuffer(raw []byte, nparams int) Buffer {
	return Buffer{raw: raw, nparams: nparams}
}

func (b Buffer) lenArrayOffset() int { return HeaderSize }
func (b Buffer) lenArraySize() int   { return b.nparams * 2 }
func (b Buffer) payloadBase() int    { return b.lenArrayOffset() + b.lenArraySize() }

// paramLen reads the 16-bit little-endian length of parameter n.
func (b Buffer) paramLen(n int) (int, error) {
	if n < 0 || n >= b.nparams {
		return 0, ErrMalformedBuffer
	}
	off := b.lenArrayOffset() + n*2
	if off+2 > len(b.raw) {
		return 0, ErrMalformedBuffer
	}
	return int(binary.LittleEndian.Uint16(b.raw[off : off+2])), nil
}

// Param returns the raw bytes of the Nth parameter (0-based), located by
// summing the lengths of all preceding parameters.
func (b Buffer) Param(n int) ([]byte, error) {
	if n < 0 || n >= b.nparams {
		return nil, ErrMalformedBuffer
	}
	offset := b.payloadBase()
	for i := 0; i < n; i++ {
		l, err := b.paramLen(i)
		if err != nil {
			return nil, err
		}
		offset += l
	}
	length, err := b.paramLen(n)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset+length > len(b.raw) {
		return nil, ErrMalformedBuffer
	}
	return b.raw[offset : offset+length], nil
}

// ParamInt64 decodes the Nth parameter as a little-endian i64 (used for fd
// values).
func (b Buffer) ParamInt64(n int) (int64, error) {
	p, err := b.Param(n)
	if err != nil {
		return 0, err
	}
	if len(p) < 8 {
		return 0, ErrMalformedBuffer
	}
	return int64(binary.LittleEndian.Uint64(p)), nil
}

// ParamUint64 decodes the Nth parameter as a little-endian u64 (used for
// inode numbers).
func (b Buffer) ParamUint64(n int) (uint64, error) {
	p, err := b.Param(n)
	if err != nil {
		return 0, err
	}
	if len(p) < 8 {
		return 0, ErrMalformedBuffer
	}
	return binary.LittleEndian.Uint64(p), nil
}

// ParamUint32 decodes the Nth parameter as a little-endian u32 (used for dev
// numbers).
func (b Buffer) ParamUint32(n int) (uint32, error) {
	p, err := b.Param(n)
	if err != nil {
		return 0, err
	}
	if len(p) < 4 {
		return 0, ErrMalformedBuffer
	}
	return binary.LittleEndian.Uint32(p), nil
}

// ParamString decodes the Nth parameter as a NUL-terminated path string,
// trimming the terminator if present.
func (b Buffer) ParamString(n int) (string, error) {
	p, err := b.Param(n)
	if err != nil {
		return "", err
	}
	if i := indexByte(p, 0); i >= 0 {
		p = p[:i]
	}
	return string(p), nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
