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

package archive

import (
	"fmt"
	"strings"
)

// FormatError indicates an unsupported archive format.
type FormatError struct {
	Format string
	Reason string
}

func (e FormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported archive format %s: %s", e.Format, e.Reason)
	}
	return fmt.Sprintf("unsupported archive format: %s", e.Format)
}

// FileNotFoundError indicates a member missing from the archive.
type FileNotFoundError struct {
	Archive      string
	InternalPath string
}

func (e FileNotFoundError) Error() string {
	return fmt.Sprintf("file %q not found in archive %q", e.InternalPath, e.Archive)
}

// NoMemberError indicates that no member of the wanted kinds was found.
type NoMemberError struct {
	Archive string
	Kinds   []Kind
}

func (e NoMemberError) Error() string {
	names := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		names[i] = k.String()
	}
	return fmt.Sprintf("no %s member found in archive %q", strings.Join(names, " or "), e.Archive)
}

// MemberTooLargeError indicates a member over MaxMemberSize.
type MemberTooLargeError struct {
	Name string
	Size int64
}

func (e MemberTooLargeError) Error() string {
	return fmt.Sprintf("member %q is %d bytes, limit is %d", e.Name, e.Size, MaxMemberSize)
}
