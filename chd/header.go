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

package chd

import (
	"encoding/binary"
	"fmt"
	"io"
)

var chdMagic = [8]byte{'M', 'C', 'o', 'm', 'p', 'r', 'H', 'D'}

// Header sizes per version.
const (
	headerSizeV3 = 120
	headerSizeV4 = 108
	headerSizeV5 = 124
)

// Header is a CHD file header. V5 fields and the V3/V4 legacy fields share
// one struct; fields a version lacks stay zero.
type Header struct {
	Magic        [8]byte
	HeaderSize   uint32
	Version      uint32
	Compressors  [4]uint32 // V5 codec tags
	LogicalBytes uint64
	MapOffset    uint64
	MetaOffset   uint64
	HunkBytes    uint32
	UnitBytes    uint32
	RawSHA1      [20]byte
	SHA1         [20]byte
	ParentSHA1   [20]byte

	Flags       uint32 // V3/V4
	Compression uint32 // V3/V4: 0 none, 1 zlib, 2 zlib+
	TotalHunks  uint32 // V3/V4
}

// parseHeader reads a header from the start of a CHD file.
//
// Byte offsets of the fields after the 16-byte preamble (magic, header size,
// version):
//
//	          V3    V4    V5
//	flags     0x10  0x10  -
//	compress  0x14  0x14  0x10 (4 tags)
//	hunks     0x18  0x18  -
//	logical   0x1C  0x1C  0x20
//	map       -     -     0x28
//	meta      0x24  0x24  0x30
//	hunkbytes 0x4C  0x2C  0x38
//	unitbytes -     -     0x3C
func parseHeader(r io.Reader) (*Header, error) {
	pre := make([]byte, 16)
	if _, err := io.ReadFull(r, pre); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}

	h := &Header{
		HeaderSize: binary.BigEndian.Uint32(pre[8:12]),
		Version:    binary.BigEndian.Uint32(pre[12:16]),
	}
	copy(h.Magic[:], pre[:8])
	if h.Magic != chdMagic {
		return nil, ErrInvalidMagic
	}

	var want uint32
	switch h.Version {
	case 3:
		want = headerSizeV3
	case 4:
		want = headerSizeV4
	case 5:
		want = headerSizeV5
	default:
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, h.Version)
	}
	if h.HeaderSize < want {
		return nil, fmt.Errorf("%w: V%d header size %d", ErrInvalidHeader, h.Version, h.HeaderSize)
	}

	// buf is indexed by file offset
	buf := make([]byte, want)
	copy(buf, pre)
	if _, err := io.ReadFull(r, buf[16:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	be := binary.BigEndian
	switch h.Version {
	case 5:
		for i := range h.Compressors {
			h.Compressors[i] = be.Uint32(buf[0x10+4*i:])
		}
		h.LogicalBytes = be.Uint64(buf[0x20:])
		h.MapOffset = be.Uint64(buf[0x28:])
		h.MetaOffset = be.Uint64(buf[0x30:])
		h.HunkBytes = be.Uint32(buf[0x38:])
		h.UnitBytes = be.Uint32(buf[0x3C:])
		copy(h.RawSHA1[:], buf[0x40:])
		copy(h.SHA1[:], buf[0x54:])
		copy(h.ParentSHA1[:], buf[0x68:])
	default:
		h.Flags = be.Uint32(buf[0x10:])
		h.Compression = be.Uint32(buf[0x14:])
		h.TotalHunks = be.Uint32(buf[0x18:])
		h.LogicalBytes = be.Uint64(buf[0x1C:])
		h.MetaOffset = be.Uint64(buf[0x24:])
		if h.Version == 4 {
			h.HunkBytes = be.Uint32(buf[0x2C:])
			copy(h.SHA1[:], buf[0x30:])
			copy(h.ParentSHA1[:], buf[0x44:])
			copy(h.RawSHA1[:], buf[0x58:])
		} else {
			h.HunkBytes = be.Uint32(buf[0x4C:])
			copy(h.SHA1[:], buf[0x50:])
			copy(h.ParentSHA1[:], buf[0x64:])
		}
		// legacy CD images always store full frames; the map follows the header
		h.UnitBytes = FrameBytes
		h.MapOffset = uint64(h.HeaderSize)
	}

	if h.HunkBytes == 0 || h.UnitBytes == 0 || h.HunkBytes%h.UnitBytes != 0 {
		return nil, fmt.Errorf("%w: hunk bytes %d, unit bytes %d", ErrInvalidHeader, h.HunkBytes, h.UnitBytes)
	}

	return h, nil
}

// NumHunks returns the number of hunks in the image.
func (h *Header) NumHunks() uint32 {
	if h.TotalHunks > 0 {
		return h.TotalHunks
	}
	if h.HunkBytes == 0 {
		return 0
	}
	//nolint:gosec // Bounded by MaxNumHunks once the map is parsed
	return uint32((h.LogicalBytes + uint64(h.HunkBytes) - 1) / uint64(h.HunkBytes))
}

// IsCompressed reports whether any hunk may be compressed.
func (h *Header) IsCompressed() bool {
	if h.Version == 5 {
		return h.Compressors[0] != CodecNone
	}
	return h.Compression != 0
}
