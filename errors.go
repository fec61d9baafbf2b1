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

package subq

import "errors"

var (
	// ErrFrameSize indicates a raw subcode file whose size is not a multiple
	// of 96 bytes.
	ErrFrameSize = errors.New("subcode size is not a multiple of 96 bytes")

	// ErrFrameRange indicates a frame index outside the source.
	ErrFrameRange = errors.New("frame index out of range")

	// ErrInvalidSBI indicates a file that is not a well-formed SBI file.
	ErrInvalidSBI = errors.New("invalid SBI file")
)
