// Copyright (c) 2025 Niema Moshiri and The Zaparoo Project.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of go-subq.
//
// go-subq is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-subq is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-subq.  If not, see <https://www.gnu.org/licenses/>.

package chd_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/icza/bitio"

	"github.com/ZaparooProject/go-subq/chd"
)

type bits struct {
	value uint64
	n     uint8
}

// v5Map encodes the compressed map of six one-frame hunks: four
// uncompressed (the last three as a short RLE run), one self reference to
// hunk 2 and one zlib hunk of zlibLen bytes.
//
// Huffman lengths: 0 -> 3, 4 -> 1, 5 -> 2, 7 -> 3, giving the codes
// 4 = 1, 5 = 01, 0 = 000, 7 = 001.
func v5Map(t *testing.T, zlibLen int) []byte {
	t.Helper()

	fields := []bits{
		// code lengths, 4 bits each
		{3, 4}, {0, 4}, {0, 4}, {0, 4}, {1, 4}, {1, 4}, {2, 4}, {0, 4}, {3, 4},
		{1, 4}, {0, 4}, {5, 4}, // eight zeros
		// hunk types
		{0b1, 1},   // none
		{0b001, 3}, // RLE small
		{0b000, 3}, // count 0: three more
		{0b01, 2},  // self
		{0b000, 3}, // compressor 0
		// per-hunk fields
		{0, 16}, {0, 16}, {0, 16}, {0, 16},
		{2, 3},
		{uint64(zlibLen), 16}, {0, 16},
	}

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	for _, f := range fields {
		if err := w.WriteBits(f.value, f.n); err != nil {
			t.Fatalf("WriteBits: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("bit writer close: %v", err)
	}
	return buf.Bytes()
}

func buildV5(t *testing.T) []byte {
	t.Helper()
	const headerSize = 124

	zlibHunk := deflate(t, frameUnit(0x35))
	comp := v5Map(t, len(zlibHunk))
	first := headerSize + 16 + len(comp)

	hdr := make([]byte, headerSize)
	copy(hdr, "MComprHD")
	binary.BigEndian.PutUint32(hdr[8:], headerSize)
	binary.BigEndian.PutUint32(hdr[12:], 5)
	binary.BigEndian.PutUint32(hdr[0x10:], chd.CodecZlib)
	binary.BigEndian.PutUint64(hdr[0x20:], 6*chd.FrameBytes)
	binary.BigEndian.PutUint64(hdr[0x28:], headerSize)
	binary.BigEndian.PutUint32(hdr[0x38:], chd.FrameBytes)
	binary.BigEndian.PutUint32(hdr[0x3C:], chd.FrameBytes)

	mh := make([]byte, 16)
	binary.BigEndian.PutUint32(mh[0:], uint32(len(comp)))
	var off [8]byte
	binary.BigEndian.PutUint64(off[:], uint64(first))
	copy(mh[4:10], off[2:])
	mh[12], mh[13], mh[14] = 16, 3, 0

	out := append(hdr, mh...)
	out = append(out, comp...)
	out = append(out, units(0x30, 0x31, 0x32, 0x33)...)
	return append(out, zlibHunk...)
}

func TestNewV5(t *testing.T) {
	t.Parallel()

	c, err := chd.New(bytes.NewReader(buildV5(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Header().Version != 5 {
		t.Errorf("Version = %d, want 5", c.Header().Version)
	}
	if c.Header().Compressors[0] != chd.CodecZlib {
		t.Errorf("Compressors[0] = %s, want zlib", chd.TagString(c.Header().Compressors[0]))
	}
	if c.Frames() != 6 {
		t.Fatalf("Frames() = %d, want 6", c.Frames())
	}

	want := []byte{0x30, 0x31, 0x32, 0x33, 0x32, 0x35}
	for frame, fill := range want {
		sub, err := c.Subcode(frame)
		if err != nil {
			t.Fatalf("Subcode(%d): %v", frame, err)
		}
		if !bytes.Equal(sub, bytes.Repeat([]byte{fill}, chd.SubcodeBytes)) {
			t.Errorf("Subcode(%d) fill = %02x, want %02x", frame, sub[0], fill)
		}
	}
}

func TestV5TruncatedMap(t *testing.T) {
	t.Parallel()

	img := buildV5(t)
	// claim a one byte compressed map
	binary.BigEndian.PutUint32(img[124:], 1)

	if _, err := chd.New(bytes.NewReader(img)); !errors.Is(err, chd.ErrCorruptData) {
		t.Errorf("New error = %v, want ErrCorruptData", err)
	}
}
