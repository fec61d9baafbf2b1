// Package binary reads fixed-size records and fields from io.ReaderAt sources.
package binary

import (
	"errors"
	"fmt"
	"io"
)

// ReadAt fills buf from r at offset. A short read is io.ErrUnexpectedEOF,
// while a full read that also reports io.EOF succeeds.
func ReadAt(r io.ReaderAt, offset int64, buf []byte) error {
	if offset < 0 {
		return fmt.Errorf("negative offset %d", offset)
	}
	n, err := r.ReadAt(buf, offset)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err //nolint:wrapcheck // Callers add context
}

// ReadBytesAt reads n bytes from r at offset.
func ReadBytesAt(r io.ReaderAt, offset int64, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative length %d", n)
	}
	buf := make([]byte, n)
	if err := ReadAt(r, offset, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Uint24BE decodes a 24-bit big-endian value.
func Uint24BE(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// RecordCount splits total bytes into whole records of size bytes and the
// trailing remainder.
func RecordCount(total int64, size int) (records, rem int64) {
	return total / int64(size), total % int64(size)
}

// ReadRecord reads record i of a stream of size-byte records.
func ReadRecord(r io.ReaderAt, i, size int) ([]byte, error) {
	if i < 0 {
		return nil, fmt.Errorf("negative record index %d", i)
	}
	return ReadBytesAt(r, int64(i)*int64(size), size)
}

// IsZero reports whether every byte of b is zero.
func IsZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
