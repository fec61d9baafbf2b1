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
	"bytes"
	"context"
	"slices"
	"testing"

	subq "github.com/ZaparooProject/go-subq"
	"github.com/ZaparooProject/go-subq/subcode"
)

func TestFix(t *testing.T) {
	t.Parallel()

	want := dump(t, 200, 10)
	broken := bytes.Clone(want)
	// frame 0: Q bits cleared, W bits kept
	for i := range subcode.FrameSize {
		broken[i] &^= 0x40
	}
	broken[7*subcode.FrameSize+50] ^= 0x40

	tests := []struct {
		name   string
		format subq.Format
		want   []byte
	}{
		{name: "interleaved", format: subq.FormatInterleaved, want: want},
		{name: "packed", format: subq.FormatPacked, want: packed(want)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			fixed, err := subq.Fix(context.Background(), rawSource(t, broken), subq.ScanOptions{Start: 200}, &out, tt.format)
			if err != nil {
				t.Fatalf("Fix: %v", err)
			}
			if !slices.Equal(fixed, []int{0, 7}) {
				t.Errorf("fixed = %v, want [0 7]", fixed)
			}
			if !bytes.Equal(out.Bytes(), tt.want) {
				t.Error("repaired output differs from the intact dump")
			}
		})
	}
}

func TestFixNothingToDo(t *testing.T) {
	t.Parallel()

	data := dump(t, 0, 4)
	var out bytes.Buffer
	fixed, err := subq.Fix(context.Background(), rawSource(t, data), subq.ScanOptions{}, &out, subq.FormatInterleaved)
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if len(fixed) != 0 {
		t.Errorf("fixed = %v, want none", fixed)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Error("output differs from input")
	}
}
