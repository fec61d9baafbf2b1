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

package subq_test

import (
	"errors"
	"testing"

	subq "github.com/ZaparooProject/go-subq"
	"github.com/ZaparooProject/go-subq/msf"
)

func sbiRecord(t *testing.T, lba int32) []byte {
	t.Helper()
	addr, err := msf.LBAToBCD(lba)
	if err != nil {
		t.Fatalf("LBAToBCD: %v", err)
	}
	q := posQ(t, lba)
	// a typical patch: the absolute frame is off by one
	q[9]++
	return append([]byte{addr.M, addr.S, addr.F, 0x01}, q[:10]...)
}

func TestParseSBI(t *testing.T) {
	t.Parallel()

	data := []byte("SBI\x00")
	data = append(data, sbiRecord(t, 5)...)
	data = append(data, sbiRecord(t, 4500)...)

	entries, err := subq.ParseSBI(data)
	if err != nil {
		t.Fatalf("ParseSBI: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ParseSBI returned %d entries, want 2", len(entries))
	}

	for i, lba := range []int32{5, 4500} {
		e := entries[i]
		got, err := e.LBA()
		if err != nil {
			t.Fatalf("entry %d LBA: %v", i, err)
		}
		if got != lba {
			t.Errorf("entry %d LBA = %d, want %d", i, got, lba)
		}
		if e.Format != 0x01 {
			t.Errorf("entry %d Format = %d, want 1", i, e.Format)
		}
		q := e.Q()
		if !q.Valid() {
			t.Errorf("entry %d Q CRC not recomputed: %v", i, q)
		}
		if q.ADR() != 1 || q.Mode1().AMSF.F == posQ(t, lba).Mode1().AMSF.F {
			t.Errorf("entry %d Q = %v, want the patched frame", i, q)
		}
	}
}

func TestParseSBIErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "bad magic", data: []byte("SUB\x00")},
		{name: "partial record", data: append([]byte("SBI\x00"), 0x00, 0x02, 0x00)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := subq.ParseSBI(tt.data); !errors.Is(err, subq.ErrInvalidSBI) {
				t.Errorf("ParseSBI error = %v, want ErrInvalidSBI", err)
			}
		})
	}

	entries, err := subq.ParseSBI([]byte("SBI\x00"))
	if err != nil || len(entries) != 0 {
		t.Errorf("ParseSBI(magic only) = %v, %v; want no entries", entries, err)
	}
}
