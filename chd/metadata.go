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
	"strconv"
	"strings"

	bin "github.com/ZaparooProject/go-subq/internal/binary"
)

// Track metadata tags.
const (
	MetaTagCHT2 = 0x43485432 // "CHT2", text, one entry per track
	MetaTagCHTR = 0x43485452 // "CHTR", older text form
	MetaTagCHCD = 0x43484344 // "CHCD", binary, all tracks in one entry
)

// trackPadding is the frame multiple chdman pads text-described tracks to.
const trackPadding = 4

// Track is one CD track of the image.
type Track struct {
	Type       string
	SubType    string
	Number     int
	Frames     int // frames stored for the track
	Pregap     int
	Postgap    int
	PadFrames  int // filler frames stored after the track
	DataSize   int
	SubSize    int
	StartFrame int // first frame of the track, padding excluded

	unit int // first CHD unit of the track
}

// HasSubcode reports whether the track was stored with subchannel data.
func (t *Track) HasSubcode() bool {
	return t.SubSize > 0
}

// IsDataTrack returns true if this is a data track (not audio).
func (t *Track) IsDataTrack() bool {
	return !strings.EqualFold(t.Type, "AUDIO")
}

type metadataEntry struct {
	Data  []byte
	Next  uint64
	Tag   uint32
	Flags uint8
}

// parseMetadata follows the metadata chain starting at offset.
func parseMetadata(r io.ReaderAt, offset uint64) ([]metadataEntry, error) {
	var entries []metadataEntry
	seen := make(map[uint64]bool)

	for offset != 0 {
		if seen[offset] {
			return entries, fmt.Errorf("%w: metadata loop at offset %d", ErrInvalidMetadata, offset)
		}
		seen[offset] = true
		if len(entries) >= MaxMetadataEntries {
			return entries, fmt.Errorf("%w: more than %d metadata entries", ErrInvalidMetadata, MaxMetadataEntries)
		}

		e, err := readMetadataEntry(r, offset)
		if err != nil {
			return entries, fmt.Errorf("metadata at %d: %w", offset, err)
		}
		entries = append(entries, e)
		offset = e.Next
	}

	return entries, nil
}

// readMetadataEntry reads one entry: tag (4), flags (1), length (3), next
// offset (8), then length bytes of data.
func readMetadataEntry(r io.ReaderAt, offset uint64) (metadataEntry, error) {
	//nolint:gosec // Offset from the metadata chain
	hdr, err := bin.ReadBytesAt(r, int64(offset), 16)
	if err != nil {
		return metadataEntry{}, fmt.Errorf("read header: %w", err)
	}

	e := metadataEntry{
		Tag:   binary.BigEndian.Uint32(hdr[0:4]),
		Flags: hdr[4],
		Next:  binary.BigEndian.Uint64(hdr[8:16]),
	}
	length := bin.Uint24BE(hdr[5:8])
	if length > MaxMetadataLen {
		return metadataEntry{}, fmt.Errorf("%w: entry of %d bytes", ErrInvalidMetadata, length)
	}
	if length > 0 {
		//nolint:gosec // Offset from the metadata chain
		if e.Data, err = bin.ReadBytesAt(r, int64(offset)+16, int(length)); err != nil {
			return metadataEntry{}, fmt.Errorf("read data: %w", err)
		}
	}
	return e, nil
}

// parseTracks collects the CD tracks in metadata order and lays them out:
// StartFrame counts stored frames, the internal unit offset also counts
// padding.
func parseTracks(entries []metadataEntry) ([]Track, error) {
	var tracks []Track
	for _, e := range entries {
		switch e.Tag {
		case MetaTagCHT2, MetaTagCHTR:
			t, err := parseTrackText(e.Data)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", TagString(e.Tag), err)
			}
			t.PadFrames = (trackPadding - t.Frames%trackPadding) % trackPadding
			tracks = append(tracks, t)
		case MetaTagCHCD:
			ts, err := parseCHCD(e.Data)
			if err != nil {
				return nil, fmt.Errorf("parse CHCD: %w", err)
			}
			tracks = append(tracks, ts...)
		}
	}
	if len(tracks) > MaxNumTracks {
		return nil, fmt.Errorf("%w: %d tracks", ErrInvalidMetadata, len(tracks))
	}

	frame, unit := 0, 0
	for i := range tracks {
		tracks[i].StartFrame, tracks[i].unit = frame, unit
		frame += tracks[i].Frames
		unit += tracks[i].Frames + tracks[i].PadFrames
	}
	return tracks, nil
}

// parseTrackText parses CHT2/CHTR key:value fields, e.g.
// "TRACK:1 TYPE:MODE2_RAW SUBTYPE:RW_RAW FRAMES:1234 PREGAP:150 PGTYPE:MODE2_RAW PGSUB:RW POSTGAP:0".
func parseTrackText(data []byte) (Track, error) {
	var t Track
	ints := map[string]*int{
		"TRACK":   &t.Number,
		"FRAMES":  &t.Frames,
		"PREGAP":  &t.Pregap,
		"POSTGAP": &t.Postgap,
	}

	for _, field := range strings.Fields(strings.TrimRight(string(data), "\x00")) {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		key = strings.ToUpper(key)

		if p, ok := ints[key]; ok {
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return t, fmt.Errorf("%w: %s %q", ErrInvalidMetadata, key, value)
			}
			*p = n
			continue
		}
		switch key {
		case "TYPE":
			t.Type = value
			t.DataSize = trackDataSize(value)
		case "SUBTYPE":
			t.SubType = value
			t.SubSize = subTypeSize(value)
		}
	}
	return t, nil
}

// parseCHCD parses binary track metadata: a track count (4) followed by
// 24-byte records of type, subtype, data size, subcode size, frames and
// padding frames.
func parseCHCD(data []byte) ([]Track, error) {
	if len(data) < 4 {
		return nil, ErrInvalidMetadata
	}
	n := binary.BigEndian.Uint32(data[0:4])
	if n > MaxNumTracks {
		return nil, fmt.Errorf("%w: %d tracks", ErrInvalidMetadata, n)
	}
	if len(data) < 4+int(n)*24 {
		return nil, ErrInvalidMetadata
	}

	tracks := make([]Track, n)
	for i := range tracks {
		b := data[4+i*24:]
		be := binary.BigEndian
		tracks[i] = Track{
			Number:    i + 1,
			Type:      cdTypeName(be.Uint32(b[0:4])),
			SubType:   cdSubTypeName(be.Uint32(b[4:8])),
			DataSize:  int(be.Uint32(b[8:12])),
			SubSize:   int(be.Uint32(b[12:16])),
			Frames:    int(be.Uint32(b[16:20])),
			PadFrames: int(be.Uint32(b[20:24])),
		}
	}
	return tracks, nil
}

func trackDataSize(trackType string) int {
	switch strings.ToUpper(trackType) {
	case "MODE1", "MODE1/2048", "MODE2_FORM1", "MODE2/2048":
		return 2048
	case "MODE2", "MODE2/2336", "MODE2_FORM_MIX":
		return 2336
	case "MODE2_FORM2":
		return 2324
	default:
		return SectorBytes
	}
}

func subTypeSize(subType string) int {
	switch strings.ToUpper(subType) {
	case "RW", "RW_RAW":
		return SubcodeBytes
	default:
		return 0
	}
}

func cdTypeName(t uint32) string {
	names := []string{"MODE1/2048", "MODE1/2352", "MODE2/2048", "MODE2/2336", "MODE2/2352", "AUDIO"}
	if int(t) < len(names) {
		return names[t]
	}
	return "UNKNOWN"
}

func cdSubTypeName(t uint32) string {
	switch t {
	case 0:
		return "RW"
	case 1:
		return "RW_RAW"
	default:
		return "NONE"
	}
}
