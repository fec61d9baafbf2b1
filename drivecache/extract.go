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
	"github.com/ZaparooProject/go-subq/subcode"
)

// Entry is one cached sector. Data, C2 and Subcode alias the blob it was
// parsed from.
type Entry struct {
	Index   int   // slot number within the blob
	LBA     int32 // valid only when Known
	Known   bool
	Data    []byte
	C2      []byte
	Subcode []byte
}

// Q returns the Q-channel packet of the entry's subcode.
func (e Entry) Q() subcode.Q {
	if len(e.Subcode) != subcode.FrameSize {
		return subcode.Q{}
	}
	return subcode.QFromFrame((*[subcode.FrameSize]byte)(e.Subcode))
}

// Extract returns up to count cached sectors starting at lba, using the
// built-in layout for drive.
func Extract(blob []byte, lba int32, count int, drive DriveType) ([]Entry, error) {
	return NewRegistry().Extract(blob, lba, count, drive)
}

// Extract returns up to count cached sectors starting at lba. When the blob
// holds a sector more than once, the one stored later wins. The result is
// contiguous: it stops at the first LBA missing from the cache. A count of
// zero or less returns the whole contiguous run.
func (r *Registry) Extract(blob []byte, lba int32, count int, drive DriveType) ([]Entry, error) {
	p, err := r.Parser(drive)
	if err != nil {
		return nil, err
	}
	entries, err := p.Parse(blob)
	if err != nil {
		return nil, err
	}
	return Select(entries, lba, count), nil
}

// Select picks the contiguous run starting at lba out of already parsed
// entries, later entries overriding earlier ones for the same LBA.
func Select(entries []Entry, lba int32, count int) []Entry {
	latest := make(map[int32]Entry, len(entries))
	for _, e := range entries {
		if e.Known {
			latest[e.LBA] = e
		}
	}

	var out []Entry
	for count <= 0 || len(out) < count {
		e, ok := latest[lba+int32(len(out))] //nolint:gosec // Bounded by the entry count
		if !ok {
			break
		}
		out = append(out, e)
	}
	return out
}
