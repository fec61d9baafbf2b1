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

import "fmt"

// Codec tags, as the big-endian value of their four ASCII characters.
const (
	CodecNone   uint32 = 0x00000000
	CodecZlib   uint32 = 0x7a6c6962 // "zlib"
	CodecLZMA   uint32 = 0x6c7a6d61 // "lzma"
	CodecFLAC   uint32 = 0x666c6163 // "flac"
	CodecZstd   uint32 = 0x7a737464 // "zstd"
	CodecCDZlib uint32 = 0x63647a6c // "cdzl"
	CodecCDLZMA uint32 = 0x63646c7a // "cdlz"
	CodecCDFLAC uint32 = 0x6364666c // "cdfl"
	CodecCDZstd uint32 = 0x63647a73 // "cdzs"
)

// Codec decompresses one hunk. dst is sized to the decompressed length the
// caller expects; the number of bytes written is returned.
type Codec interface {
	Decompress(dst, src []byte) (int, error)
}

// NewCodec returns the decompressor for a codec tag.
func NewCodec(tag uint32) (Codec, error) {
	switch tag {
	case CodecZlib:
		return zlibCodec{}, nil
	case CodecLZMA:
		return lzmaCodec{}, nil
	case CodecFLAC:
		return flacCodec{}, nil
	case CodecZstd:
		return newZstdCodec()
	case CodecCDZlib:
		return &cdCodec{tag: tag, base: zlibCodec{}, sub: zlibCodec{}}, nil
	case CodecCDLZMA:
		return &cdCodec{tag: tag, base: lzmaCodec{}, sub: zlibCodec{}}, nil
	case CodecCDZstd:
		z, err := newZstdCodec()
		if err != nil {
			return nil, err
		}
		return &cdCodec{tag: tag, base: z, sub: z}, nil
	case CodecCDFLAC:
		return cdFLACCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%08x (%s)", ErrUnsupportedCodec, tag, TagString(tag))
	}
}

// TagString renders a codec tag as its four characters.
func TagString(tag uint32) string {
	if tag == CodecNone {
		return "none"
	}
	return string([]byte{byte(tag >> 24), byte(tag >> 16), byte(tag >> 8), byte(tag)})
}

// IsCDCodec reports whether tag splits hunks into sector and subcode planes.
func IsCDCodec(tag uint32) bool {
	switch tag {
	case CodecCDZlib, CodecCDLZMA, CodecCDFLAC, CodecCDZstd:
		return true
	default:
		return false
	}
}
