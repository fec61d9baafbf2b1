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

package drivecache

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated indicates a cache blob shorter than one full entry.
	ErrTruncated = errors.New("cache blob shorter than one entry")

	// ErrUnknownDrive indicates a drive type with no registered layout.
	ErrUnknownDrive = errors.New("unknown drive type")
)

// LayoutError describes a cache layout that cannot hold its own fields.
type LayoutError struct {
	Drive  DriveType
	Reason string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("drive %s: invalid cache layout: %s", e.Drive, e.Reason)
}
