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
	"encoding/binary"
	"fmt"
)

// qDataSize is the CRC-protected part of a Q packet: control/ADR byte plus
// nine payload bytes.
const qDataSize = 10

// Control is the upper nibble of the first Q byte.
type Control uint8

// Control flags.
const (
	ControlPreEmphasis Control = 1 << iota
	ControlDigitalCopy
	ControlData
	ControlFourChannel
)

// Has reports whether every flag in f is set.
func (c Control) Has(f Control) bool {
	return c&f == f
}

// Status classifies a Q packet without treating a failure as an error.
type Status uint8

const (
	// StatusEmpty is the all-zero packet: no subchannel data was captured.
	StatusEmpty Status = iota
	// StatusInvalid is a packet whose CRC does not match.
	StatusInvalid
	// StatusValid is a packet with a matching CRC.
	StatusValid
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusInvalid:
		return "invalid"
	case StatusValid:
		return "valid"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Q is one Q-channel packet as stored on disc: control/ADR, nine payload
// bytes and a big-endian CRC. It is a value; methods never modify it.
type Q [ChannelSize]byte

// QFromFrame deinterleaves the Q channel of a raw subcode frame.
func QFromFrame(frame *[FrameSize]byte) Q {
	var q [ChannelSize]byte
	ExtractChannel(&q, frame, ChannelQ)
	return Q(q)
}

// ParseQ reads a Q packet from a raw 96-byte subcode frame.
func ParseQ(frame []byte) (Q, error) {
	q, err := Extract(frame, ChannelQ)
	if err != nil {
		return Q{}, err
	}
	return Q(q), nil
}

// Control returns the control nibble.
func (q Q) Control() Control {
	return Control(q[0] >> 4)
}

// ADR returns the address-mode nibble.
func (q Q) ADR() uint8 {
	return q[0] & 0x0F
}

// CRC returns the stored checksum.
func (q Q) CRC() uint16 {
	return binary.BigEndian.Uint16(q[qDataSize:])
}

// ComputeCRC returns the checksum the first ten bytes call for.
func (q Q) ComputeCRC() uint16 {
	return CRC16GSM(q[:qDataSize])
}

// Valid reports whether the stored CRC matches the packet contents.
func (q Q) Valid() bool {
	return q.ComputeCRC() == q.CRC()
}

// Empty reports whether q is the all-zero "no data" sentinel.
func (q Q) Empty() bool {
	return q == Q{}
}

// Status classifies q as empty, invalid or valid.
func (q Q) Status() Status {
	switch {
	case q.Empty():
		return StatusEmpty
	case q.Valid():
		return StatusValid
	default:
		return StatusInvalid
	}
}

// WithCRC returns q with its checksum recomputed.
func (q Q) WithCRC() Q {
	binary.BigEndian.PutUint16(q[qDataSize:], q.ComputeCRC())
	return q
}

// Frame scatters q into the Q bit position of frame and returns the result.
func (q Q) Frame(frame [FrameSize]byte) [FrameSize]byte {
	buf := [ChannelSize]byte(q)
	InsertChannel(&frame, &buf, ChannelQ)
	return frame
}

// String renders the packet for diagnostics: control bits, ADR, the mode 1
// fields when ADR is 1 (raw payload bytes otherwise), CRC and a +/- validity
// marker.
func (q Q) String() string {
	var data string
	if q.ADR() == 1 {
		p := q.Mode1()
		data = fmt.Sprintf("tno: %02X, P/I: %02X, MSF: %s, zero: %02X, A/P MSF: %s",
			p.TNO, p.Index, p.MSF, p.Zero, p.AMSF)
	} else {
		data = fmt.Sprintf("% X", q[1:qDataSize])
	}

	marker := "-"
	if q.Valid() {
		marker = "+"
	}
	return fmt.Sprintf("control: %04b, ADR: %d, %s, crc: %04X (%s)",
		uint8(q.Control()), q.ADR(), data, q.CRC(), marker)
}
