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
	"hash/crc32"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Hunk storage types. 0-8 are the V5 map codes; the rest are decoded forms.
const (
	HunkCompTypeCodec0   = 0  // compressor 0
	HunkCompTypeCodec1   = 1  // compressor 1
	HunkCompTypeCodec2   = 2  // compressor 2
	HunkCompTypeCodec3   = 3  // compressor 3
	HunkCompTypeNone     = 4  // uncompressed
	HunkCompTypeSelf     = 5  // copy of another hunk in this file
	HunkCompTypeParent   = 6  // copy of a hunk in the parent file
	HunkCompTypeRLESmall = 7  // repeat last type, short count
	HunkCompTypeRLELarge = 8  // repeat last type, long count
	HunkCompTypeSelf0    = 9  // self reference to the same hunk as last
	HunkCompTypeSelf1    = 10 // self reference to last+1
	HunkCompTypeParSelf  = 11 // parent reference to the same hunk number
	HunkCompTypePar0     = 12 // parent reference same as last
	HunkCompTypePar1     = 13 // parent reference last+1
	HunkCompTypeMini     = 14 // V3/V4: eight bytes repeated across the hunk
)

// V3/V4 map entry types (low nibble of the flags byte).
const (
	v34Compressed   = 1
	v34Uncompressed = 2
	v34Mini         = 3
	v34Self         = 4
	v34Parent       = 5
)

// hunkCacheSize is the number of decompressed hunks kept in memory. Sequential
// subcode reads touch each hunk once per frame it holds.
const hunkCacheSize = 16

// HunkMapEntry locates one hunk.
type HunkMapEntry struct {
	Offset     uint64 // file offset, hunk number for references, pattern for mini hunks
	CompLength uint32
	CRC32      uint32 // V3/V4 only
	CompType   uint8
}

// HunkMap decodes hunks on demand. It is safe for concurrent use.
type HunkMap struct {
	reader  io.ReaderAt
	header  *Header
	entries []HunkMapEntry
	codecs  [4]Codec
	cache   *lru.Cache[uint32, []byte]
}

// NewHunkMap reads the hunk map described by header.
func NewHunkMap(reader io.ReaderAt, header *Header) (*HunkMap, error) {
	cache, err := lru.New[uint32, []byte](hunkCacheSize)
	if err != nil {
		return nil, fmt.Errorf("hunk cache: %w", err)
	}
	hm := &HunkMap{reader: reader, header: header, cache: cache}

	switch header.Version {
	case 5:
		// a codec missing here only fails the hunks that use it
		for i, tag := range header.Compressors {
			if tag != CodecNone {
				hm.codecs[i], _ = NewCodec(tag)
			}
		}
	default:
		if header.Compression == 1 || header.Compression == 2 {
			hm.codecs[0] = zlibCodec{}
		}
	}

	numHunks := header.NumHunks()
	if numHunks > MaxNumHunks {
		return nil, fmt.Errorf("%w: too many hunks (%d > %d)", ErrInvalidHeader, numHunks, MaxNumHunks)
	}
	hm.entries = make([]HunkMapEntry, numHunks)

	if header.Version == 5 {
		err = hm.parseMapV5()
	} else {
		err = hm.parseMapV34()
	}
	if err != nil {
		return nil, fmt.Errorf("parse hunk map: %w", err)
	}
	return hm, nil
}

// parseMapV5 decodes the compressed V5 map. Its 16-byte header holds the
// compressed length (4), the offset of the first hunk (6), a CRC-16 (2) and
// the bit widths of length, self-reference and parent-reference fields.
// Hunk types follow, Huffman coded with RLE, then the per-type fields.
//
//nolint:gosec,gocyclo,cyclop,funlen,revive // Map layout fixes the branch count
func (hm *HunkMap) parseMapV5() error {
	mh := make([]byte, 16)
	if _, err := hm.reader.ReadAt(mh, int64(hm.header.MapOffset)); err != nil {
		return fmt.Errorf("read map header: %w", err)
	}

	compLen := binary.BigEndian.Uint32(mh[0:4])
	if compLen > MaxCompMapLen {
		return fmt.Errorf("%w: compressed map too large (%d > %d)", ErrInvalidHeader, compLen, MaxCompMapLen)
	}
	var first [8]byte
	copy(first[2:], mh[4:10])
	offset := binary.BigEndian.Uint64(first[:])
	lengthBits, selfBits, parentBits := int(mh[12]), int(mh[13]), int(mh[14])

	comp := make([]byte, compLen)
	if _, err := hm.reader.ReadAt(comp, int64(hm.header.MapOffset)+16); err != nil {
		return fmt.Errorf("read compressed map: %w", err)
	}

	m := newMapReader(comp)
	codes, err := readHuffman(m, 16, 8)
	if err != nil {
		return fmt.Errorf("import huffman tree: %w", err)
	}

	types := make([]uint8, len(hm.entries))
	var last uint8
	for i := 0; i < len(types); {
		switch v := codes.decode(m); v {
		case HunkCompTypeRLESmall, HunkCompTypeRLELarge:
			var n int
			if v == HunkCompTypeRLESmall {
				n = 2 + int(codes.decode(m))
			} else {
				n = 2 + 16 + int(codes.decode(m))<<4
				n += int(codes.decode(m))
			}
			for ; n >= 0 && i < len(types); n-- {
				types[i] = last
				i++
			}
		default:
			types[i] = v
			last = v
			i++
		}
	}

	var lastSelf uint32
	var lastParent uint64
	unitsPerHunk := uint64(hm.header.HunkBytes / hm.header.UnitBytes)
	for i, t := range types {
		e := HunkMapEntry{CompType: t}
		switch t {
		case HunkCompTypeCodec0, HunkCompTypeCodec1, HunkCompTypeCodec2, HunkCompTypeCodec3:
			e.CompLength = m.read(lengthBits)
			e.Offset = offset
			offset += uint64(e.CompLength)
			m.read(16)
		case HunkCompTypeNone:
			e.CompLength = hm.header.HunkBytes
			e.Offset = offset
			offset += uint64(e.CompLength)
			m.read(16)
		case HunkCompTypeSelf:
			lastSelf = m.read(selfBits)
			e.Offset = uint64(lastSelf)
		case HunkCompTypeSelf0, HunkCompTypeSelf1:
			if t == HunkCompTypeSelf1 {
				lastSelf++
			}
			e.CompType, e.Offset = HunkCompTypeSelf, uint64(lastSelf)
		case HunkCompTypeParent:
			lastParent = uint64(m.read(parentBits))
			e.Offset = lastParent
		case HunkCompTypeParSelf, HunkCompTypePar0, HunkCompTypePar1:
			switch t {
			case HunkCompTypeParSelf:
				lastParent = uint64(i) * unitsPerHunk
			case HunkCompTypePar1:
				lastParent += unitsPerHunk
			}
			e.CompType, e.Offset = HunkCompTypeParent, lastParent
		default:
			return fmt.Errorf("%w: hunk %d has map type %d", ErrCorruptData, i, t)
		}
		hm.entries[i] = e
	}

	return m.err
}

// parseMapV34 reads the flat V3/V4 map: 16 bytes per hunk holding the file
// offset (8), CRC-32 (4), length (low 16 bits, then high 8 bits) and flags.
func (hm *HunkMap) parseMapV34() error {
	const entrySize = 16
	raw := make([]byte, len(hm.entries)*entrySize)
	//nolint:gosec // MapOffset is the header size
	if _, err := hm.reader.ReadAt(raw, int64(hm.header.MapOffset)); err != nil {
		return fmt.Errorf("read V%d map: %w", hm.header.Version, err)
	}

	for i := range hm.entries {
		b := raw[i*entrySize : (i+1)*entrySize]
		e := HunkMapEntry{
			Offset:     binary.BigEndian.Uint64(b[0:8]),
			CRC32:      binary.BigEndian.Uint32(b[8:12]),
			CompLength: uint32(binary.BigEndian.Uint16(b[12:14])) | uint32(b[14])<<16,
		}
		switch b[15] & 0x0F {
		case v34Compressed:
			e.CompType = HunkCompTypeCodec0
		case v34Uncompressed:
			e.CompType = HunkCompTypeNone
		case v34Mini:
			e.CompType = HunkCompTypeMini
		case v34Self:
			e.CompType = HunkCompTypeSelf
		case v34Parent:
			e.CompType = HunkCompTypeParent
		default:
			return fmt.Errorf("%w: hunk %d has map flags 0x%02x", ErrCorruptData, i, b[15])
		}
		hm.entries[i] = e
	}
	return nil
}

// ReadHunk returns the decompressed hunk. The slice is shared with the cache
// and must not be modified.
func (hm *HunkMap) ReadHunk(index uint32) ([]byte, error) {
	return hm.readHunk(index, 0)
}

func (hm *HunkMap) readHunk(index uint32, depth int) ([]byte, error) {
	if index >= hm.NumHunks() {
		return nil, fmt.Errorf("%w: %d >= %d", ErrInvalidHunk, index, len(hm.entries))
	}
	if data, ok := hm.cache.Get(index); ok {
		return data, nil
	}

	e := hm.entries[index]
	var data []byte
	var err error
	switch e.CompType {
	case HunkCompTypeSelf:
		if depth > 0 || e.Offset >= uint64(len(hm.entries)) {
			return nil, fmt.Errorf("%w: hunk %d refers to %d", ErrInvalidHunk, index, e.Offset)
		}
		return hm.readHunk(uint32(e.Offset), depth+1) //nolint:gosec // Checked above
	case HunkCompTypeParent:
		return nil, fmt.Errorf("%w: hunk %d needs the parent CHD", ErrUnsupportedCodec, index)
	case HunkCompTypeMini:
		data = make([]byte, hm.header.HunkBytes)
		for i := 0; i+8 <= len(data); i += 8 {
			binary.BigEndian.PutUint64(data[i:], e.Offset)
		}
	case HunkCompTypeNone:
		data, err = hm.readRaw(e)
	default:
		data, err = hm.decompress(e)
	}
	if err != nil {
		return nil, fmt.Errorf("hunk %d: %w", index, err)
	}

	if hm.header.Version < 5 && e.CompType != HunkCompTypeMini && crc32.ChecksumIEEE(data) != e.CRC32 {
		return nil, fmt.Errorf("%w: hunk %d CRC-32 mismatch", ErrCorruptData, index)
	}

	hm.cache.Add(index, data)
	return data, nil
}

func (hm *HunkMap) readRaw(e HunkMapEntry) ([]byte, error) {
	data := make([]byte, hm.header.HunkBytes)
	//nolint:gosec // Offset from the hunk map
	if _, err := hm.reader.ReadAt(data, int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("read uncompressed: %w", err)
	}
	return data, nil
}

func (hm *HunkMap) decompress(e HunkMapEntry) ([]byte, error) {
	codec := hm.codecs[e.CompType]
	if codec == nil {
		tag := hm.header.Compression
		if hm.header.Version == 5 {
			tag = hm.header.Compressors[e.CompType]
		}
		return nil, fmt.Errorf("%w: %s in slot %d", ErrUnsupportedCodec, TagString(tag), e.CompType)
	}

	src := make([]byte, e.CompLength)
	//nolint:gosec // Offset from the hunk map
	if _, err := hm.reader.ReadAt(src, int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("read compressed: %w", err)
	}

	data := make([]byte, hm.header.HunkBytes)
	n, err := codec.Decompress(data, src)
	if err != nil {
		return nil, err
	}
	return data[:n], nil
}

// NumHunks returns the number of hunks.
func (hm *HunkMap) NumHunks() uint32 {
	return uint32(len(hm.entries)) //nolint:gosec // Bounded by MaxNumHunks
}

// HunkBytes returns the decompressed size of each hunk.
func (hm *HunkMap) HunkBytes() uint32 {
	return hm.header.HunkBytes
}
