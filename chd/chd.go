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

// Package chd reads the subchannel data of CD images stored in MAME's CHD
// (Compressed Hunks of Data) format.
//
// A CD CHD stores 2448-byte units: the 2352-byte sector followed by the 96
// raw interleaved subcode bytes. Versions 3, 4 and 5 are supported.
package chd

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
)

// CD unit layout.
const (
	SectorBytes  = 2352
	SubcodeBytes = 96
	FrameBytes   = SectorBytes + SubcodeBytes
)

// CHD is an open CD image.
type CHD struct {
	reader  io.ReaderAt
	closer  io.Closer
	header  *Header
	hunkMap *HunkMap
	tracks  []Track
	frames  int
}

// Open opens a CHD file.
func Open(path string) (*CHD, error) {
	file, err := os.Open(path) //nolint:gosec // Path from user input is expected
	if err != nil {
		return nil, fmt.Errorf("open CHD file: %w", err)
	}

	c, err := New(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	c.closer = file
	return c, nil
}

// New reads a CHD image from r. Closing the CHD does not close r.
func New(r io.ReaderAt) (*CHD, error) {
	header, err := parseHeader(io.NewSectionReader(r, 0, math.MaxInt64))
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	if header.UnitBytes != FrameBytes {
		return nil, fmt.Errorf("%w: unit size %d", ErrNotCD, header.UnitBytes)
	}

	hunkMap, err := NewHunkMap(r, header)
	if err != nil {
		return nil, fmt.Errorf("create hunk map: %w", err)
	}

	units := int(header.LogicalBytes / FrameBytes) //nolint:gosec // Bounded by the hunk count limit
	c := &CHD{
		reader:  r,
		header:  header,
		hunkMap: hunkMap,
		frames:  units,
	}

	// Track metadata is optional. Without it every unit counts as a frame.
	if header.MetaOffset == 0 {
		return c, nil
	}
	entries, err := parseMetadata(r, header.MetaOffset)
	if err != nil {
		return c, nil //nolint:nilerr // Metadata failure is non-fatal
	}
	tracks, err := parseTracks(entries)
	if err != nil || len(tracks) == 0 {
		return c, nil //nolint:nilerr // Metadata failure is non-fatal
	}
	last := tracks[len(tracks)-1]
	if last.unit+last.Frames > units {
		return c, nil
	}
	c.tracks = tracks
	c.frames = last.StartFrame + last.Frames
	return c, nil
}

// Close releases the file opened by Open.
func (c *CHD) Close() error {
	if c.closer == nil {
		return nil
	}
	if err := c.closer.Close(); err != nil {
		return fmt.Errorf("close CHD file: %w", err)
	}
	return nil
}

// Header returns the parsed CHD header.
func (c *CHD) Header() *Header {
	return c.header
}

// Tracks returns the track list, or nil when the image carries no track
// metadata.
func (c *CHD) Tracks() []Track {
	return c.tracks
}

// Frames returns the number of disc frames, track padding excluded.
func (c *CHD) Frames() int {
	return c.frames
}

// HasSubcode reports whether any track was stored with subchannel data.
// Images without track metadata are assumed to carry it.
func (c *CHD) HasSubcode() bool {
	if len(c.tracks) == 0 {
		return true
	}
	for i := range c.tracks {
		if c.tracks[i].HasSubcode() {
			return true
		}
	}
	return false
}

// Subcode returns a copy of the 96 raw subcode bytes of a disc frame.
func (c *CHD) Subcode(frame int) ([]byte, error) {
	unit, err := c.unit(frame)
	if err != nil {
		return nil, err
	}

	perHunk := int(c.header.HunkBytes / FrameBytes)
	hunk, err := c.hunkMap.ReadHunk(uint32(unit / perHunk)) //nolint:gosec // unit is non-negative
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame, err)
	}

	off := (unit%perHunk)*FrameBytes + SectorBytes
	if off+SubcodeBytes > len(hunk) {
		return nil, fmt.Errorf("%w: frame %d beyond hunk", ErrCorruptData, frame)
	}
	out := make([]byte, SubcodeBytes)
	copy(out, hunk[off:off+SubcodeBytes])
	return out, nil
}

// unit maps a disc frame to its CHD unit, skipping track padding.
func (c *CHD) unit(frame int) (int, error) {
	if frame < 0 || frame >= c.frames {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrFrameRange, frame, c.frames)
	}
	if len(c.tracks) == 0 {
		return frame, nil
	}
	i := sort.Search(len(c.tracks), func(i int) bool {
		return c.tracks[i].StartFrame+c.tracks[i].Frames > frame
	})
	t := &c.tracks[i]
	if !t.HasSubcode() {
		return 0, fmt.Errorf("%w: track %d", ErrNoSubcode, t.Number)
	}
	return t.unit + frame - t.StartFrame, nil
}
