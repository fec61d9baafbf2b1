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
	"fmt"
	"io"
)

// Dump writes one line per cached entry with its slot, LBA and decoded Q
// packet. The blob is only read.
func Dump(w io.Writer, blob []byte, drive DriveType) error {
	return NewRegistry().Dump(w, blob, drive)
}

// Dump is the package-level Dump using r's layouts.
func (r *Registry) Dump(w io.Writer, blob []byte, drive DriveType) error {
	p, err := r.Parser(drive)
	if err != nil {
		return err
	}
	entries, err := p.Parse(blob)
	if err != nil {
		return err
	}

	for _, e := range entries {
		lba := "     ?"
		if e.Known {
			lba = fmt.Sprintf("%6d", e.LBA)
		}
		if _, err := fmt.Fprintf(w, "[%4d] LBA: %s, %s\n", e.Index, lba, e.Q()); err != nil {
			return fmt.Errorf("write entry %d: %w", e.Index, err)
		}
	}
	return nil
}

// WriteEntries appends the data, C2 and subcode of each entry to the
// matching writer.
func WriteEntries(data, c2, sub io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := data.Write(e.Data); err != nil {
			return fmt.Errorf("write data: %w", err)
		}
		if _, err := c2.Write(e.C2); err != nil {
			return fmt.Errorf("write c2: %w", err)
		}
		if _, err := sub.Write(e.Subcode); err != nil {
			return fmt.Errorf("write subcode: %w", err)
		}
	}
	return nil
}
