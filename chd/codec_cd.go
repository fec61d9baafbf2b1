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

// cdSync is the sync pattern that opens every data sector.
var cdSync = [12]byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

// cdCodec decodes the CD hunk framing shared by cdzl, cdlz and cdzs:
//
//	ECC bitmap       (frames+7)/8 bytes, one bit per frame
//	sector length    2 bytes, 3 when the hunk is 64 KiB or larger
//	sector data      compressed with base
//	subcode data     compressed with sub, runs to the end of the hunk
type cdCodec struct {
	tag  uint32
	base Codec
	sub  Codec
}

func (c *cdCodec) Decompress(dst, src []byte) (int, error) {
	frames := len(dst) / FrameBytes
	eccBytes := (frames + 7) / 8
	lenBytes := 2
	if len(dst) >= 1<<16 {
		lenBytes = 3
	}
	headerBytes := eccBytes + lenBytes
	if len(src) < headerBytes {
		return 0, fmt.Errorf("%w: %s: short header", ErrDecompressFailed, TagString(c.tag))
	}

	baseLen := 0
	for _, b := range src[eccBytes:headerBytes] {
		baseLen = baseLen<<8 | int(b)
	}
	if headerBytes+baseLen > len(src) {
		return 0, fmt.Errorf("%w: %s: sector length %d", ErrDecompressFailed, TagString(c.tag), baseLen)
	}

	sectors := make([]byte, frames*SectorBytes)
	if _, err := c.base.Decompress(sectors, src[headerBytes:headerBytes+baseLen]); err != nil {
		return 0, fmt.Errorf("%s sectors: %w", TagString(c.tag), err)
	}

	subcode := make([]byte, frames*SubcodeBytes)
	if rest := src[headerBytes+baseLen:]; len(rest) > 0 {
		if _, err := c.sub.Decompress(subcode, rest); err != nil {
			return 0, fmt.Errorf("%s subcode: %w", TagString(c.tag), err)
		}
	}

	return interleaveFrames(dst, sectors, subcode, src[:eccBytes], frames), nil
}

// interleaveFrames rebuilds CD frames from separate sector and subcode
// planes. Frames flagged in ecc had their sync pattern stripped before
// compression; it is restored, the ECC bytes are not.
func interleaveFrames(dst, sectors, subcode, ecc []byte, frames int) int {
	for i := range frames {
		frame := dst[i*FrameBytes : (i+1)*FrameBytes]
		copy(frame, sectors[i*SectorBytes:(i+1)*SectorBytes])
		copy(frame[SectorBytes:], subcode[i*SubcodeBytes:(i+1)*SubcodeBytes])
		if ecc != nil && ecc[i/8]&(1<<(i%8)) != 0 {
			copy(frame, cdSync[:])
		}
	}
	return frames * FrameBytes
}
