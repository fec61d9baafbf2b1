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

package chd

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
)

// mapReader reads the MSB-first bit fields of a compressed V5 hunk map. The
// first read error sticks and every later read returns zero.
type mapReader struct {
	r   *bitio.Reader
	err error
}

func newMapReader(data []byte) *mapReader {
	return &mapReader{r: bitio.NewReader(bytes.NewReader(data))}
}

func (m *mapReader) read(bits int) uint32 {
	if m.err != nil || bits == 0 {
		return 0
	}
	v, err := m.r.ReadBits(uint8(bits)) //nolint:gosec // Field widths come from a byte
	if err != nil {
		m.err = fmt.Errorf("%w: hunk map: %w", ErrCorruptData, err)
		return 0
	}
	return uint32(v) //nolint:gosec // At most 32 bits requested
}

// huffman decodes MAME's canonical Huffman codes. Codes are assigned from
// the longest length down, so they are matched bit by bit against a
// (length, code) table.
type huffman struct {
	maxBits int
	symbols map[uint32]uint8 // length<<16 | code
}

// readHuffman imports a code-length table stored with MAME's small RLE: a
// length of 1 is an escape followed by either a literal 1 or a length and a
// repeat count minus 3.
func readHuffman(m *mapReader, numCodes, maxBits int) (*huffman, error) {
	width := 3
	switch {
	case maxBits >= 16:
		width = 5
	case maxBits >= 8:
		width = 4
	}

	lengths := make([]uint8, numCodes)
	for i := 0; i < numCodes; {
		v := m.read(width)
		if v == 1 {
			v = m.read(width)
			if v != 1 {
				repeat := int(m.read(width)) + 3
				for ; repeat > 0 && i < numCodes; repeat-- {
					lengths[i] = uint8(v) //nolint:gosec // width <= 5 bits
					i++
				}
				continue
			}
		}
		lengths[i] = uint8(v) //nolint:gosec // width <= 5 bits
		i++
	}
	if m.err != nil {
		return nil, m.err
	}

	var start [33]uint32
	for _, l := range lengths {
		if int(l) > maxBits {
			return nil, fmt.Errorf("%w: huffman code length %d", ErrCorruptData, l)
		}
		start[l]++
	}
	var next uint32
	for l := 32; l > 0; l-- {
		count := start[l]
		start[l] = next
		next = (next + count) >> 1
	}

	h := &huffman{maxBits: maxBits, symbols: make(map[uint32]uint8, numCodes)}
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		h.symbols[uint32(l)<<16|start[l]] = uint8(sym) //nolint:gosec // numCodes <= 256
		start[l]++
	}
	return h, nil
}

func (h *huffman) decode(m *mapReader) uint8 {
	var code uint32
	for l := 1; l <= h.maxBits; l++ {
		code = code<<1 | m.read(1)
		if sym, ok := h.symbols[uint32(l)<<16|code]; ok { //nolint:gosec // l <= maxBits
			return sym
		}
	}
	if m.err == nil {
		m.err = fmt.Errorf("%w: invalid huffman code", ErrCorruptData)
	}
	return 0
}
