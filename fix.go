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
	"context"
	"fmt"
	"io"

	"github.com/ZaparooProject/go-subq/subcode"
)

// Fix repairs the Q channel of src and writes every frame to w in format.
// Only the Q bit position of repaired frames changes. It returns the frame
// indexes that were rebuilt.
func Fix(ctx context.Context, src Source, opts ScanOptions, w io.Writer, format Format) ([]int, error) {
	qs, err := ReadQ(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	repaired, fixed := subcode.Repair(qs)

	for i := range src.Len() {
		if err := ctx.Err(); err != nil {
			return fixed, err //nolint:wrapcheck // Context errors pass through
		}
		b, err := src.Frame(i)
		if err != nil {
			return fixed, err
		}
		frame := repaired[i].Frame([subcode.FrameSize]byte(b))

		out := frame[:]
		if format == FormatPacked {
			out = pack(&frame)
		}
		if _, err := w.Write(out); err != nil {
			return fixed, fmt.Errorf("write frame %d: %w", i, err)
		}
	}
	return fixed, nil
}
