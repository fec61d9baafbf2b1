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

package drivecache

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	bin "github.com/ZaparooProject/go-subq/internal/binary"
	"github.com/ZaparooProject/go-subq/msf"
	"github.com/ZaparooProject/go-subq/subcode"
	"gopkg.in/yaml.v3"
)

// Sizes of the three parts of a cached sector.
const (
	DataSize    = 2352
	C2Size      = 294
	SubcodeSize = subcode.FrameSize
)

// EntrySize is the stride of one cached sector on every built-in layout:
// data, C2 and subcode packed back to back, padded to 0xB00.
const EntrySize = 0xB00

// Layout describes where each part of a cached sector lives inside a fixed
// size cache entry. Entries caps the number of slots read from a blob; zero
// reads as many whole entries as the blob holds.
type Layout struct {
	EntrySize     int `yaml:"entry_size"`
	DataOffset    int `yaml:"data_offset"`
	C2Offset      int `yaml:"c2_offset"`
	SubcodeOffset int `yaml:"subcode_offset"`
	Entries       int `yaml:"entries"`
}

// packed returns the standard layout for a cache of the given size in bytes.
func packed(capacity int) Layout {
	return Layout{
		EntrySize:     EntrySize,
		DataOffset:    0,
		C2Offset:      DataSize,
		SubcodeOffset: DataSize + C2Size,
		Entries:       capacity / EntrySize,
	}
}

// DefaultLayouts holds the built-in LG/ASUS firmware layouts.
var DefaultLayouts = map[DriveType]Layout{
	DriveLGASU8A: packed(3 << 20),
	DriveLGASU8B: packed(3 << 20),
	DriveLGASU8C: packed(3 << 20),
	DriveLGASU3:  packed(2 << 20),
	DriveLGASU2:  packed(2 << 20),
}

// Validate checks that every part fits inside one entry.
func (l Layout) Validate() error {
	fields := []struct {
		name   string
		offset int
		size   int
	}{
		{"data", l.DataOffset, DataSize},
		{"c2", l.C2Offset, C2Size},
		{"subcode", l.SubcodeOffset, SubcodeSize},
	}

	if l.EntrySize <= 0 {
		return &LayoutError{Reason: fmt.Sprintf("entry size %d", l.EntrySize)}
	}
	if l.Entries < 0 {
		return &LayoutError{Reason: fmt.Sprintf("entry count %d", l.Entries)}
	}
	for _, f := range fields {
		if f.offset < 0 || f.offset+f.size > l.EntrySize {
			return &LayoutError{Reason: fmt.Sprintf("%s at %d+%d exceeds entry size %d",
				f.name, f.offset, f.size, l.EntrySize)}
		}
	}
	return nil
}

// Parse implements Parser. All-zero slots were never filled by the drive and
// are skipped. An entry's LBA comes from the absolute time of its valid
// mode 1 Q packet outside the lead-in; failing that, it follows the previous
// slot, and failing that it is unknown.
func (l Layout) Parse(blob []byte) ([]Entry, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if len(blob) < l.EntrySize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrTruncated, len(blob), l.EntrySize)
	}

	n := len(blob) / l.EntrySize
	if l.Entries > 0 && n > l.Entries {
		n = l.Entries
	}

	entries := make([]Entry, 0, n)
	var prev int32
	prevKnown := false
	for i := range n {
		slot := blob[i*l.EntrySize : (i+1)*l.EntrySize]
		if bin.IsZero(slot) {
			prevKnown = false
			continue
		}

		e := Entry{
			Index:   i,
			Data:    field(slot, l.DataOffset, DataSize),
			C2:      field(slot, l.C2Offset, C2Size),
			Subcode: field(slot, l.SubcodeOffset, SubcodeSize),
		}

		if lba, ok := qLBA(e.Q()); ok {
			e.LBA, e.Known = lba, true
		} else if prevKnown {
			e.LBA, e.Known = prev+1, true
		}
		prev, prevKnown = e.LBA, e.Known

		entries = append(entries, e)
	}

	return entries, nil
}

func field(slot []byte, offset, size int) []byte {
	return slot[offset : offset+size : offset+size]
}

// qLBA reads the absolute time of a valid mode 1 packet. Lead-in packets
// (TNO 0) carry a TOC pointer there instead.
func qLBA(q subcode.Q) (int32, bool) {
	if q.ADR() != 1 || !q.Valid() || q.Mode1().TNO == 0 {
		return 0, false
	}
	lba, err := msf.BCDToLBA(q.Mode1().AMSF)
	if err != nil {
		return 0, false
	}
	return lba, true
}

// Parser splits a cache blob into entries in blob order.
type Parser interface {
	Parse(blob []byte) ([]Entry, error)
}

// Registry maps drive types to cache parsers. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	parsers map[DriveType]Parser
}

// NewRegistry returns a registry holding DefaultLayouts.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[DriveType]Parser, len(DefaultLayouts))}
	for d, l := range DefaultLayouts {
		r.parsers[d] = l
	}
	return r
}

// Register adds or replaces the parser for drive.
func (r *Registry) Register(drive DriveType, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[drive] = p
}

// Parser returns the parser registered for drive.
func (r *Registry) Parser(drive DriveType) (Parser, error) {
	r.mu.RLock()
	p, ok := r.parsers[drive]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDrive, drive)
	}
	return p, nil
}

// Drives returns the registered drive types, sorted.
func (r *Registry) Drives() []DriveType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DriveType, 0, len(r.parsers))
	for d := range r.parsers {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// layoutFile is the YAML document read by LoadYAML:
//
//	drives:
//	  LG_ASU8D:
//	    entry_size: 2816
//	    data_offset: 0
//	    c2_offset: 2352
//	    subcode_offset: 2646
//	    entries: 1117
type layoutFile struct {
	Drives map[string]Layout `yaml:"drives"`
}

// LoadYAML registers every layout described in r. Names may shadow built-in
// drive types. Nothing is registered unless every layout is valid.
func (r *Registry) LoadYAML(rd io.Reader) error {
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)

	var f layoutFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode layouts: %w", err)
	}

	for name, l := range f.Drives {
		if err := l.Validate(); err != nil {
			var le *LayoutError
			if errors.As(err, &le) {
				le.Drive = DriveType(name)
			}
			return err
		}
	}

	for name, l := range f.Drives {
		r.Register(DriveType(name), l)
	}
	return nil
}
