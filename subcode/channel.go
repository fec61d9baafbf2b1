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

// Package subcode decodes the eight subchannels carried with every CD sector
// and implements the Q-channel packet codec and synthesizer.
//
// A raw subcode frame is 96 bytes; bit 7 of every byte belongs to channel P,
// bit 6 to Q and so on down to W in bit 0. Gathering one bit position across
// the frame yields a 12-byte channel buffer.
package subcode

import "fmt"

// Frame and channel sizes.
const (
	FrameSize    = 96
	ChannelSize  = FrameSize / 8
	ChannelCount = 8
)

// Channel names a subchannel by its bit position within a frame byte.
type Channel uint8

// Subchannels, MSB first.
const (
	ChannelW Channel = iota
	ChannelV
	ChannelU
	ChannelT
	ChannelS
	ChannelR
	ChannelQ
	ChannelP
)

func (c Channel) String() string {
	if c > ChannelP {
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
	return string("WVUTSRQP"[c])
}

// ExtractChannel gathers channel ch from frame into dst. Output byte i holds
// the bits of frame bytes 8*i..8*i+7, MSB first. Every bit of dst is written.
func ExtractChannel(dst *[ChannelSize]byte, frame *[FrameSize]byte, ch Channel) {
	bit := byte(1) << ch
	for i := range FrameSize {
		mask := byte(1) << (7 - i%8)
		if frame[i]&bit != 0 {
			dst[i/8] |= mask
		} else {
			dst[i/8] &^= mask
		}
	}
}

// InsertChannel scatters src back into bit position ch of frame, leaving the
// other seven channels untouched.
func InsertChannel(frame *[FrameSize]byte, src *[ChannelSize]byte, ch Channel) {
	bit := byte(1) << ch
	for i := range FrameSize {
		if src[i/8]&(1<<(7-i%8)) != 0 {
			frame[i] |= bit
		} else {
			frame[i] &^= bit
		}
	}
}

// Extract is ExtractChannel over a slice. Anything but a 96-byte frame is
// ErrFrameSize.
func Extract(frame []byte, ch Channel) ([ChannelSize]byte, error) {
	var out [ChannelSize]byte
	if len(frame) != FrameSize {
		return out, fmt.Errorf("%w: got %d", ErrFrameSize, len(frame))
	}
	ExtractChannel(&out, (*[FrameSize]byte)(frame), ch)
	return out, nil
}

// Deinterleave splits a frame into all eight channels, indexed by Channel.
func Deinterleave(frame *[FrameSize]byte) [ChannelCount][ChannelSize]byte {
	var out [ChannelCount][ChannelSize]byte
	for ch := range Channel(ChannelCount) {
		ExtractChannel(&out[ch], frame, ch)
	}
	return out
}

// Interleave is the inverse of Deinterleave.
func Interleave(channels *[ChannelCount][ChannelSize]byte) [FrameSize]byte {
	var frame [FrameSize]byte
	for ch := range Channel(ChannelCount) {
		InsertChannel(&frame, &channels[ch], ch)
	}
	return frame
}
