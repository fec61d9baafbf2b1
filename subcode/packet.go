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
	"strings"

	"github.com/ZaparooProject/go-subq/msf"
)

// Mode selects how the nine payload bytes of a Q packet are read.
type Mode uint8

// Q payload modes.
const (
	ModeUnknown  Mode = 0
	ModePosition Mode = 1 // track/TOC position
	ModeCatalog  Mode = 2 // media catalog number
	ModeISRC     Mode = 3 // international standard recording code
)

func (m Mode) String() string {
	switch m {
	case ModePosition:
		return "position"
	case ModeCatalog:
		return "catalog"
	case ModeISRC:
		return "ISRC"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ModeForADR maps an ADR nibble to a payload mode for callers that trust it.
// Whether an ADR 2/3 packet really carries an MCN or an ISRC depends on the
// disc layout, so the codec itself never makes that call.
func ModeForADR(adr uint8) Mode {
	switch adr {
	case 1, 2, 3:
		return Mode(adr)
	default:
		return ModeUnknown
	}
}

// Payload is one of Mode1, Mode2 or Mode3.
type Payload interface {
	Mode() Mode
	put(dst []byte)
}

// Mode1 is the position payload. In the lead-in Index holds the TOC point
// and AMSF the point's address.
type Mode1 struct {
	TNO   uint8
	Index uint8
	MSF   msf.BCD // running time within the track
	Zero  uint8
	AMSF  msf.BCD // absolute disc time
}

// Mode2 is the media catalog number payload.
type Mode2 struct {
	MCN    [7]byte
	Zero   uint8
	AFrame uint8 // BCD frame of the absolute time
}

// Mode3 is the ISRC payload.
type Mode3 struct {
	ISRC   [8]byte
	AFrame uint8 // BCD frame of the absolute time
}

// Mode implements Payload.
func (Mode1) Mode() Mode { return ModePosition }

// Mode implements Payload.
func (Mode2) Mode() Mode { return ModeCatalog }

// Mode implements Payload.
func (Mode3) Mode() Mode { return ModeISRC }

func (p Mode1) put(dst []byte) {
	dst[0], dst[1] = p.TNO, p.Index
	dst[2], dst[3], dst[4] = p.MSF.M, p.MSF.S, p.MSF.F
	dst[5] = p.Zero
	dst[6], dst[7], dst[8] = p.AMSF.M, p.AMSF.S, p.AMSF.F
}

func (p Mode2) put(dst []byte) {
	copy(dst, p.MCN[:])
	dst[7], dst[8] = p.Zero, p.AFrame
}

func (p Mode3) put(dst []byte) {
	copy(dst, p.ISRC[:])
	dst[8] = p.AFrame
}

// NewQ assembles a packet and computes its CRC.
func NewQ(control Control, adr uint8, p Payload) Q {
	var q Q
	q[0] = byte(control)<<4 | adr&0x0F
	p.put(q[1:qDataSize])
	return q.WithCRC()
}

// Mode1 reads the payload as a position packet.
func (q Q) Mode1() Mode1 {
	return Mode1{
		TNO:   q[1],
		Index: q[2],
		MSF:   msf.BCD{M: q[3], S: q[4], F: q[5]},
		Zero:  q[6],
		AMSF:  msf.BCD{M: q[7], S: q[8], F: q[9]},
	}
}

// Mode2 reads the payload as a media catalog number packet.
func (q Q) Mode2() Mode2 {
	var p Mode2
	copy(p.MCN[:], q[1:8])
	p.Zero, p.AFrame = q[8], q[9]
	return p
}

// Mode3 reads the payload as an ISRC packet.
func (q Q) Mode3() Mode3 {
	var p Mode3
	copy(p.ISRC[:], q[1:9])
	p.AFrame = q[9]
	return p
}

// Payload reads the payload in the given mode.
func (q Q) Payload(mode Mode) (Payload, error) {
	switch mode {
	case ModePosition:
		return q.Mode1(), nil
	case ModeCatalog:
		return q.Mode2(), nil
	case ModeISRC:
		return q.Mode3(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, mode)
	}
}

// Catalog returns the 13-digit media catalog number.
func (p Mode2) Catalog() string {
	var sb strings.Builder
	for i := range 13 {
		nibble := p.MCN[i/2] >> 4
		if i%2 == 1 {
			nibble = p.MCN[i/2] & 0x0F
		}
		sb.WriteByte(digit(nibble))
	}
	return sb.String()
}

// Code returns the 12-character ISRC: five 6-bit characters (country and
// owner) followed by seven BCD digits (year and serial).
func (p Mode3) Code() string {
	b := p.ISRC
	chars := [5]byte{
		b[0] >> 2,
		(b[0]&0x03)<<4 | b[1]>>4,
		(b[1]&0x0F)<<2 | b[2]>>6,
		b[2] & 0x3F,
		b[3] >> 2,
	}

	var sb strings.Builder
	for _, c := range chars {
		switch {
		case c <= 9, c >= 0x11 && c <= 0x2A:
			sb.WriteByte('0' + c)
		default:
			sb.WriteByte('?')
		}
	}
	for i := range 7 {
		nibble := b[4+i/2] >> 4
		if i%2 == 1 {
			nibble = b[4+i/2] & 0x0F
		}
		sb.WriteByte(digit(nibble))
	}
	return sb.String()
}

func digit(nibble byte) byte {
	if nibble > 9 {
		return '?'
	}
	return '0' + nibble
}
