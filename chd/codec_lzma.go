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
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// lzmaProps is lc=3, lp=0, pb=2: lc + lp*9 + pb*45.
const lzmaProps = 0x5D

// lzmaCodec decodes the headerless LZMA streams CHD writes. The encoder ran
// at level 8 with the dictionary trimmed to the output size, so the classic
// 13-byte header can be rebuilt from len(dst) alone.
type lzmaCodec struct{}

// lzmaDictSize mirrors LzmaEncProps_Normalize: the smallest 2<<i or 3<<i
// that holds size.
func lzmaDictSize(size uint32) uint32 {
	for i := uint32(11); i <= 30; i++ {
		if size <= 2<<i {
			return 2 << i
		}
		if size <= 3<<i {
			return 3 << i
		}
	}
	return 1 << 26
}

func (lzmaCodec) Decompress(dst, src []byte) (int, error) {
	if len(src) == 0 {
		return 0, fmt.Errorf("%w: lzma: empty source", ErrDecompressFailed)
	}

	stream := make([]byte, 13, 13+len(src))
	stream[0] = lzmaProps
	binary.LittleEndian.PutUint32(stream[1:5], lzmaDictSize(uint32(len(dst)))) //nolint:gosec // Hunk sized
	binary.LittleEndian.PutUint64(stream[5:13], uint64(len(dst)))
	stream = append(stream, src...)

	r, err := lzma.NewReader(bytes.NewReader(stream))
	if err != nil {
		return 0, fmt.Errorf("%w: lzma init: %w", ErrDecompressFailed, err)
	}

	n, err := io.ReadFull(r, dst)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return n, fmt.Errorf("%w: lzma: %w", ErrDecompressFailed, err)
	}
	return n, nil
}
