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

// Package subq reads CD subchannel data from raw dumps, CHD images and
// archives, and decodes the Q channel of every sector.
//
// The packet codec, synthesizer and repair logic live in package subcode;
// this package supplies frames to them.
package subq

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ZaparooProject/go-subq/archive"
	"github.com/ZaparooProject/go-subq/chd"
	bin "github.com/ZaparooProject/go-subq/internal/binary"
	"github.com/ZaparooProject/go-subq/subcode"
)

// Source is a sequence of 96-byte interleaved subcode frames. Frame must be
// safe for concurrent use.
type Source interface {
	Len() int
	Frame(i int) ([]byte, error)
	Close() error
}

// Format is the byte layout of frames in a raw file.
type Format int

const (
	// FormatInterleaved is the layout read from the drive: bit 7 of each
	// byte is P, bit 0 is W (redumper .subcode).
	FormatInterleaved Format = iota
	// FormatPacked stores the channels one after another, 12 bytes each
	// from P to W (CloneCD .sub).
	FormatPacked
)

func (f Format) String() string {
	if f == FormatPacked {
		return "packed"
	}
	return "interleaved"
}

// memberKinds are the archive members Open accepts, in order of preference.
var memberKinds = []archive.Kind{archive.KindSubcode, archive.KindCHD, archive.KindPacked}

// Open opens the subcode at path. CHD images (.chd), archive members
// ("dump.zip/disc.subcode", or a bare archive to pick the first subcode
// member) and raw files are recognised; a .sub extension selects
// FormatPacked.
func Open(path string) (Source, error) {
	p, err := archive.ParsePath(path)
	if err != nil {
		return nil, fmt.Errorf("parse archive path: %w", err)
	}
	if p != nil {
		return openArchive(p)
	}

	if archive.KindOf(path) == archive.KindCHD {
		c, err := chd.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open CHD: %w", err)
		}
		return newCHDSource(c)
	}

	file, err := os.Open(path) //nolint:gosec // Path from user input is expected
	if err != nil {
		return nil, fmt.Errorf("open subcode: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat subcode: %w", err)
	}
	src, err := NewRawSource(file, info.Size(), formatOf(path))
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	src.closer = file
	return src, nil
}

func formatOf(name string) Format {
	if archive.KindOf(name) == archive.KindPacked {
		return FormatPacked
	}
	return FormatInterleaved
}

func openArchive(p *archive.Path) (Source, error) {
	arc, err := archive.Open(p.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = arc.Close() }()

	name, kind := p.InternalPath, archive.KindOf(p.InternalPath)
	if name == "" {
		if name, kind, err = archive.DetectMember(arc, p.ArchivePath, memberKinds...); err != nil {
			return nil, err //nolint:wrapcheck // NoMemberError names the archive
		}
	}

	data, err := archive.ReadFile(arc, name)
	if err != nil {
		return nil, err //nolint:wrapcheck // Archive errors carry the member name
	}

	if kind == archive.KindCHD {
		c, err := chd.New(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open CHD %s: %w", name, err)
		}
		return newCHDSource(c)
	}
	return NewRawSource(bytes.NewReader(data), int64(len(data)), formatOf(name))
}

// ReadFile reads a whole file, or an archive member. For a bare archive the
// first member of the given kinds is read.
func ReadFile(path string, kinds ...archive.Kind) ([]byte, error) {
	p, err := archive.ParsePath(path)
	if err != nil {
		return nil, fmt.Errorf("parse archive path: %w", err)
	}
	if p == nil {
		data, err := os.ReadFile(path) //nolint:gosec // Path from user input is expected
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return data, nil
	}

	arc, err := archive.Open(p.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = arc.Close() }()

	name := p.InternalPath
	if name == "" {
		if name, _, err = archive.DetectMember(arc, p.ArchivePath, kinds...); err != nil {
			return nil, err //nolint:wrapcheck // NoMemberError names the archive
		}
	}
	return archive.ReadFile(arc, name) //nolint:wrapcheck // Archive errors carry the member name
}

// RawSource reads frames from a flat file of 96-byte records.
type RawSource struct {
	r      io.ReaderAt
	closer io.Closer
	frames int
	format Format
}

// NewRawSource wraps size bytes of r. Closing the source does not close r.
func NewRawSource(r io.ReaderAt, size int64, format Format) (*RawSource, error) {
	frames, rem := bin.RecordCount(size, subcode.FrameSize)
	if rem != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameSize, size)
	}
	return &RawSource{r: r, frames: int(frames), format: format}, nil
}

// Len returns the number of frames.
func (s *RawSource) Len() int { return s.frames }

// Frame returns frame i in interleaved form.
func (s *RawSource) Frame(i int) ([]byte, error) {
	if i < 0 || i >= s.frames {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrFrameRange, i, s.frames)
	}
	b, err := bin.ReadRecord(s.r, i, subcode.FrameSize)
	if err != nil {
		return nil, fmt.Errorf("read frame %d: %w", i, err)
	}
	if s.format == FormatPacked {
		frame := unpack(b)
		return frame[:], nil
	}
	return b, nil
}

// Close closes the file opened by Open.
func (s *RawSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close() //nolint:wrapcheck // Close error passthrough is intentional
}

// unpack interleaves a channel-packed frame.
func unpack(b []byte) [subcode.FrameSize]byte {
	var channels [subcode.ChannelCount][subcode.ChannelSize]byte
	for k := range subcode.ChannelCount {
		copy(channels[subcode.ChannelP-subcode.Channel(k)][:], b[k*subcode.ChannelSize:])
	}
	return subcode.Interleave(&channels)
}

// pack is the inverse of unpack.
func pack(frame *[subcode.FrameSize]byte) []byte {
	channels := subcode.Deinterleave(frame)
	out := make([]byte, 0, subcode.FrameSize)
	for k := range subcode.ChannelCount {
		out = append(out, channels[subcode.ChannelP-subcode.Channel(k)][:]...)
	}
	return out
}

// chdSource serves frames from a CHD image.
type chdSource struct {
	c *chd.CHD
}

func newCHDSource(c *chd.CHD) (Source, error) {
	if !c.HasSubcode() {
		_ = c.Close()
		return nil, chd.ErrNoSubcode
	}
	return chdSource{c: c}, nil
}

func (s chdSource) Len() int { return s.c.Frames() }

func (s chdSource) Frame(i int) ([]byte, error) {
	b, err := s.c.Subcode(i)
	if err != nil {
		return nil, fmt.Errorf("CHD frame: %w", err)
	}
	return b, nil
}

func (s chdSource) Close() error { return s.c.Close() } //nolint:wrapcheck // Already wrapped
