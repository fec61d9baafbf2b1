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

import "github.com/sigurn/crc16"

// crcGSM is CRC-16/GSM: the CCITT polynomial with a zero seed and an
// inverted result, bits processed MSB first.
var crcGSM = crc16.MakeTable(crc16.Params{
	Poly:   0x1021,
	Init:   0x0000,
	RefIn:  false,
	RefOut: false,
	XorOut: 0xFFFF,
	Check:  0xCE3C,
	Name:   "CRC-16/GSM",
})

// CRC16GSM returns the CRC-16/GSM checksum of data.
func CRC16GSM(data []byte) uint16 {
	return crc16.Checksum(data, crcGSM)
}
