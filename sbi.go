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

package subq

import (
	"bytes"
	"fmt"

	"github.com/ZaparooProject/go-subq/msf"
	"github.com/ZaparooProject/go-subq/subcode"
)

// SBI layout: a magic, then fixed records of a BCD MSF address, a format
// byte and the first ten Q bytes (the CRC is not stored).
const (
	sbiRecordSize = 14
	sbiQBytes     = 10
)

var sbiMagic = []byte("SBI\x00")

// SBIEntry is one patched sector of an SBI file.
type SBIEntry struct {
	MSF    msf.BCD
	Format uint8
	Data   [sbiQBytes]byte
}

// LBA returns the sector address of e.
func (e SBIEntry) LBA() (int32, error) {
	return msf.BCDToLBA(e.MSF) //nolint:wrapcheck // msf errors are sentinel wrapped
}

// Q returns the stored packet with its CRC recomputed.
func (e SBIEntry) Q() subcode.Q {
	var q subcode.Q
	copy(q[:], e.Data[:])
	return q.WithCRC()
}

// ParseSBI decodes an SBI file. Trailing bytes short of a full record are
// an error.
func ParseSBI(data []byte) ([]SBIEntry, error) {
	if !bytes.HasPrefix(data, sbiMagic) {
		return nil, fmt.Errorf("%w: missing magic", ErrInvalidSBI)
	}
	body := data[len(sbiMagic):]
	if len(body)%sbiRecordSize != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidSBI, len(body)%sbiRecordSize)
	}

	entries := make([]SBIEntry, len(body)/sbiRecordSize)
	for i := range entries {
		rec := body[i*sbiRecordSize : (i+1)*sbiRecordSize]
		entries[i].MSF = msf.BCD{M: rec[0], S: rec[1], F: rec[2]}
		entries[i].Format = rec[3]
		copy(entries[i].Data[:], rec[4:])
	}
	return entries, nil
}
