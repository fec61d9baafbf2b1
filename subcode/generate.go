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

import (
	"fmt"

	"github.com/ZaparooProject/go-subq/msf"
)

// GenerateMode1 synthesizes the position packet for the sector shift sectors
// away from base (positive is forward).
//
// Absolute time simply moves by shift. Running time counts down through the
// pregap (index 0) to 00:00:00 and up again from there in the track body, so
// a shift towards that boundary that is longer than the remaining distance
// crosses into the other index and the excess becomes the new running time.
// Only one boundary is handled: shifts spanning a whole track are not
// meaningful.
func GenerateMode1(base Q, shift int32) (Q, error) {
	p := base.Mode1()

	running, err := msf.BCDToLBA(p.MSF)
	if err != nil {
		return Q{}, fmt.Errorf("running time: %w", err)
	}
	absolute, err := msf.BCDToLBA(p.AMSF)
	if err != nil {
		return Q{}, fmt.Errorf("absolute time: %w", err)
	}

	// distance to the 00:00:00 boundary
	limit := running - msf.LBAStart
	offset := shift
	if offset < 0 {
		offset = -offset
	}

	towardBoundary := (shift > 0 && p.Index == 0) || (shift < 0 && p.Index != 0)
	switch {
	case towardBoundary && offset > limit:
		if p.Index == 0 {
			p.Index = 1
		} else {
			p.Index = 0
		}
		running = msf.LBAStart + offset - limit
	case towardBoundary:
		if offset == limit {
			p.Index = 1
		}
		running -= offset
	default:
		running += offset
	}

	if p.MSF, err = msf.LBAToBCD(running); err != nil {
		return Q{}, fmt.Errorf("running time: %w", err)
	}
	if p.AMSF, err = msf.LBAToBCD(absolute + shift); err != nil {
		return Q{}, fmt.Errorf("absolute time: %w", err)
	}

	return NewQ(base.Control(), base.ADR(), p), nil
}

// GenerateMode2 synthesizes a media catalog number packet. The catalog never
// changes, so only the absolute frame is rewritten: it is the absolute frame
// of mode1 moved by shift sectors, wrapping modulo 75. Pass the position
// packet of the target sector with a zero shift, or the reference position
// packet and the target's displacement from it.
func GenerateMode2(base, mode1 Q, shift int32) (Q, error) {
	frame, err := shiftFrame(mode1, shift)
	if err != nil {
		return Q{}, err
	}
	p := base.Mode2()
	p.AFrame = frame
	return NewQ(base.Control(), base.ADR(), p), nil
}

// GenerateMode3 is GenerateMode2 for ISRC packets.
func GenerateMode3(base, mode1 Q, shift int32) (Q, error) {
	frame, err := shiftFrame(mode1, shift)
	if err != nil {
		return Q{}, err
	}
	p := base.Mode3()
	p.AFrame = frame
	return NewQ(base.Control(), base.ADR(), p), nil
}

func shiftFrame(mode1 Q, shift int32) (uint8, error) {
	f, err := msf.FromBCD(mode1.Mode1().AMSF.F)
	if err != nil {
		return 0, fmt.Errorf("absolute frame: %w", err)
	}
	if f >= msf.FramesPerSecond {
		return 0, fmt.Errorf("%w: absolute frame %d", msf.ErrOutOfRange, f)
	}
	v := (int32(f) + shift) % msf.FramesPerSecond
	if v < 0 {
		v += msf.FramesPerSecond
	}
	return msf.ToBCD(uint8(v)), nil //nolint:gosec // 0 <= v < 75
}

// Generate dispatches on mode. mode1 is ignored for position packets.
func Generate(mode Mode, base, mode1 Q, shift int32) (Q, error) {
	switch mode {
	case ModePosition:
		return GenerateMode1(base, shift)
	case ModeCatalog:
		return GenerateMode2(base, mode1, shift)
	case ModeISRC:
		return GenerateMode3(base, mode1, shift)
	default:
		return Q{}, fmt.Errorf("%w: %d", ErrUnknownMode, mode)
	}
}
