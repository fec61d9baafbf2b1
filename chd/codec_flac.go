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
	"compress/flate"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// flacCodec decodes a complete FLAC stream into 16-bit big-endian samples.
type flacCodec struct{}

func (flacCodec) Decompress(dst, src []byte) (int, error) {
	stream, err := flac.New(bytes.NewReader(src))
	if err != nil {
		return 0, fmt.Errorf("%w: flac init: %w", ErrDecompressFailed, err)
	}
	defer func() { _ = stream.Close() }()

	return decodeFLAC(stream, dst)
}

func decodeFLAC(stream *flac.Stream, dst []byte) (int, error) {
	n := 0
	for {
		f, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("%w: flac frame: %w", ErrDecompressFailed, err)
		}
		n = putSamples(dst, n, f)
	}
}

// putSamples writes up to two channels of f, interleaved, at dst[n:].
func putSamples(dst []byte, n int, f *frame.Frame) int {
	if len(f.Subframes) == 0 {
		return n
	}
	channels := min(len(f.Subframes), 2)
	for i := range f.Subframes[0].NSamples {
		for ch := range channels {
			if n+2 > len(dst) {
				return n
			}
			s := f.Subframes[ch].Samples[i]
			dst[n], dst[n+1] = byte(s>>8), byte(s)
			n += 2
		}
	}
	return n
}

// cdFLACCodec decodes cdfl hunks: a headerless FLAC stream of CD audio
// followed directly by the deflated subcode plane. The FLAC stream carries
// no length, so the subcode is found by scanning back from the end of the
// hunk for the deflate stream that inflates to exactly one plane and ends
// flush with the hunk.
type cdFLACCodec struct{}

func (cdFLACCodec) Decompress(dst, src []byte) (int, error) {
	if len(src) == 0 {
		return 0, fmt.Errorf("%w: cdfl: empty source", ErrDecompressFailed)
	}
	frames := len(dst) / FrameBytes

	audioLen, subcode, ok := findDeflateTail(src, frames*SubcodeBytes)
	if !ok {
		return 0, fmt.Errorf("%w: cdfl: subcode stream not found", ErrDecompressFailed)
	}

	sectors := make([]byte, frames*SectorBytes)
	header := flacHeader(44100, 2, cdFLACBlockSize(len(sectors)))
	if stream, err := flac.New(io.MultiReader(bytes.NewReader(header), bytes.NewReader(src[:audioLen]))); err == nil {
		// undecodable audio leaves the sector plane zeroed; the subcode is intact
		_, _ = decodeFLAC(stream, sectors)
		_ = stream.Close()
	}

	return interleaveFrames(dst, sectors, subcode, nil, frames), nil
}

// findDeflateTail returns the offset of the raw deflate stream that ends src
// and inflates to exactly want bytes.
func findDeflateTail(src []byte, want int) (int, []byte, bool) {
	out := make([]byte, want)
	var fr io.ReadCloser
	for start := len(src) - 1; start >= 0; start-- {
		br := bytes.NewReader(src[start:])
		if fr == nil {
			fr = flate.NewReader(br)
		} else if err := fr.(flate.Resetter).Reset(br, nil); err != nil {
			continue
		}

		if _, err := io.ReadFull(fr, out); err != nil {
			continue
		}
		var probe [1]byte
		if n, err := fr.Read(probe[:]); n == 0 && errors.Is(err, io.EOF) && br.Len() == 0 {
			_ = fr.Close()
			return start, out, true
		}
	}
	if fr != nil {
		_ = fr.Close()
	}
	return 0, nil, false
}

// flacHeaderTemplate is the STREAMINFO-only header MAME prepends to the
// headerless streams it stores.
var flacHeaderTemplate = [0x2A]byte{
	0x66, 0x4C, 0x61, 0x43, // "fLaC"
	0x80, 0x00, 0x00, 0x22, // last block, STREAMINFO, 34 bytes
	0x00, 0x00, 0x00, 0x00, // min/max block size
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // min/max frame size
	0x0A, 0xC4, 0x42, 0xF0, // 44100 Hz, 2 channels, 16 bits
	0x00, 0x00, 0x00, 0x00, // total samples
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // MD5
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

func flacHeader(sampleRate uint32, channels uint8, blockSize uint16) []byte {
	h := flacHeaderTemplate
	h[0x08], h[0x09] = byte(blockSize>>8), byte(blockSize)
	h[0x0A], h[0x0B] = byte(blockSize>>8), byte(blockSize)

	v := sampleRate<<4 | uint32(channels-1)<<1
	h[0x12], h[0x13], h[0x14] = byte(v>>16), byte(v>>8), byte(v)
	return h[:]
}

// cdFLACBlockSize is a quarter of the audio bytes, halved until it fits in
// one sector.
func cdFLACBlockSize(audioBytes int) uint16 {
	bs := audioBytes / 4
	for bs > SectorBytes {
		bs /= 2
	}
	return uint16(bs) //nolint:gosec // At most SectorBytes
}
