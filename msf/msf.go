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

// Package msf converts between the three CD addressing forms: linear LBA,
// binary Minute:Second:Frame and the BCD-encoded MSF stored on disc.
//
// LBA 0 is the first sector of track 1 (index 1) and sits at MSF 00:02:00;
// the 150 sectors before it are addressed with negative LBAs.
package msf

import "fmt"

// Addressing constants.
const (
	// LBAStart is the LBA of MSF 00:00:00.
	LBAStart int32 = -150

	FramesPerSecond  = 75
	SecondsPerMinute = 60
	FramesPerMinute  = FramesPerSecond * SecondsPerMinute

	// MaxMinutes is the first minute value a two-digit BCD field cannot hold.
	MaxMinutes = 100

	// LBAEnd is one past the last addressable LBA (99:59:74).
	LBAEnd = int32(MaxMinutes*FramesPerMinute) + LBAStart
)

// MSF is a binary Minute:Second:Frame address.
type MSF struct {
	M uint8
	S uint8
	F uint8
}

// BCD is a Minute:Second:Frame address with every field binary-coded decimal,
// the form used by Q-channel packets and the TOC.
type BCD struct {
	M uint8
	S uint8
	F uint8
}

// Zero is MSF 00:00:00.
var Zero = MSF{}

// ToBCD encodes a binary value 0..99 as one BCD byte.
func ToBCD(v uint8) uint8 {
	return (v/10)<<4 | v%10
}

// FromBCD decodes one BCD byte. Either nibble above 9 is ErrInvalidBCD.
func FromBCD(b uint8) (uint8, error) {
	hi, lo := b>>4, b&0x0F
	if hi > 9 || lo > 9 {
		return 0, fmt.Errorf("%w: 0x%02X", ErrInvalidBCD, b)
	}
	return hi*10 + lo, nil
}

// Frames returns the number of frames since 00:00:00.
func (m MSF) Frames() int32 {
	return int32(m.M)*FramesPerMinute + int32(m.S)*FramesPerSecond + int32(m.F)
}

// LBA returns the logical block address of m.
func (m MSF) LBA() int32 {
	return m.Frames() + LBAStart
}

// Validate reports ErrOutOfRange for a second above 59 or a frame above 74.
func (m MSF) Validate() error {
	if m.M >= MaxMinutes || m.S >= SecondsPerMinute || m.F >= FramesPerSecond {
		return fmt.Errorf("%w: %s", ErrOutOfRange, m)
	}
	return nil
}

// BCD encodes m field by field.
func (m MSF) BCD() BCD {
	return BCD{M: ToBCD(m.M), S: ToBCD(m.S), F: ToBCD(m.F)}
}

func (m MSF) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", m.M, m.S, m.F)
}

// FromLBA converts an LBA in [LBAStart, LBAEnd) to binary MSF.
func FromLBA(lba int32) (MSF, error) {
	if lba < LBAStart || lba >= LBAEnd {
		return MSF{}, fmt.Errorf("%w: LBA %d", ErrOutOfRange, lba)
	}
	frames := lba - LBAStart
	return MSF{
		M: uint8(frames / FramesPerMinute),                    //nolint:gosec // Bounded by LBAEnd
		S: uint8(frames / FramesPerSecond % SecondsPerMinute), //nolint:gosec // Always < 60
		F: uint8(frames % FramesPerSecond),                    //nolint:gosec // Always < 75
	}, nil
}

// MSF decodes every field of b. Digits above 9 are ErrInvalidBCD; decoded
// seconds or frames outside their range are ErrOutOfRange.
func (b BCD) MSF() (MSF, error) {
	m, err := FromBCD(b.M)
	if err != nil {
		return MSF{}, fmt.Errorf("minute: %w", err)
	}
	s, err := FromBCD(b.S)
	if err != nil {
		return MSF{}, fmt.Errorf("second: %w", err)
	}
	f, err := FromBCD(b.F)
	if err != nil {
		return MSF{}, fmt.Errorf("frame: %w", err)
	}
	out := MSF{M: m, S: s, F: f}
	if err := out.Validate(); err != nil {
		return MSF{}, err
	}
	return out, nil
}

// String renders the raw field bytes, which reads as decimal for valid BCD.
func (b BCD) String() string {
	return fmt.Sprintf("%02X:%02X:%02X", b.M, b.S, b.F)
}

// BCDToLBA converts an on-disc BCD address to an LBA.
func BCDToLBA(b BCD) (int32, error) {
	m, err := b.MSF()
	if err != nil {
		return 0, err
	}
	return m.LBA(), nil
}

// LBAToBCD converts an LBA to its on-disc BCD address.
func LBAToBCD(lba int32) (BCD, error) {
	m, err := FromLBA(lba)
	if err != nil {
		return BCD{}, err
	}
	return m.BCD(), nil
}
