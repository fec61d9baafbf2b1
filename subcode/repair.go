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

package subcode

// Repair rebuilds every packet of a run of consecutive sectors that is not
// valid. Each one is synthesized from the nearest valid position packet
// (the closest preceding one, else the closest following one). When the
// broken packet still carries ADR 2 or 3 and an earlier valid packet with the
// same ADR exists, that packet is regenerated instead, using the synthesized
// position packet for the frame number.
//
// The input is not modified. fixed lists the indexes that were replaced;
// sectors with no usable reference are left as they are.
func Repair(qs []Q) (out []Q, fixed []int) {
	out = make([]Q, len(qs))
	copy(out, qs)

	next := make([]int, len(qs))
	following := -1
	for i := len(qs) - 1; i >= 0; i-- {
		if isPosition(qs[i]) {
			following = i
		}
		next[i] = following
	}

	preceding := -1
	var lastByADR [4]int
	for i := range lastByADR {
		lastByADR[i] = -1
	}

	for i, q := range qs {
		if q.Valid() {
			if isPosition(q) {
				preceding = i
			}
			if adr := q.ADR(); adr == 2 || adr == 3 {
				lastByADR[adr] = i
			}
			continue
		}

		ref := preceding
		if ref < 0 {
			ref = next[i]
		}
		if ref < 0 {
			continue
		}

		mode1, err := GenerateMode1(qs[ref], int32(i-ref)) //nolint:gosec // Index distance within one run
		if err != nil {
			continue
		}

		gen := mode1
		if adr := q.ADR(); !q.Empty() && (adr == 2 || adr == 3) && lastByADR[adr] >= 0 {
			if alt, err := Generate(Mode(adr), qs[lastByADR[adr]], mode1, 0); err == nil {
				gen = alt
			}
		}

		out[i] = gen
		fixed = append(fixed, i)
	}

	return out, fixed
}

func isPosition(q Q) bool {
	return q.ADR() == 1 && q.Valid()
}
