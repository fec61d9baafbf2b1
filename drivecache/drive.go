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

// Package drivecache recovers sectors from the read cache of LG/ASUS
// optical drives. Some firmwares let the host dump their cache memory, which
// still holds the last sectors read (user data, C2 error pointers and raw
// subcode) even when the drive refused to return them through normal reads.
//
// The package works on an in-memory snapshot supplied by the caller and never
// talks to a drive itself.
package drivecache

import (
	"fmt"
	"strings"
)

// DriveType selects the cache layout of a firmware family.
type DriveType string

// Supported drive types.
const (
	DriveLGASU8A DriveType = "LG_ASU8A"
	DriveLGASU8B DriveType = "LG_ASU8B"
	DriveLGASU8C DriveType = "LG_ASU8C"
	DriveLGASU3  DriveType = "LG_ASU3"
	DriveLGASU2  DriveType = "LG_ASU2"
)

// AllDrives lists the built-in drive types.
var AllDrives = []DriveType{
	DriveLGASU8A,
	DriveLGASU8B,
	DriveLGASU8C,
	DriveLGASU3,
	DriveLGASU2,
}

// ParseDriveType matches s against the built-in drive types, ignoring case.
func ParseDriveType(s string) (DriveType, error) {
	for _, d := range AllDrives {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDrive, s)
}
