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

// Package archive reads subchannel dumps packed in ZIP, 7z and RAR archives.
package archive

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// MaxMemberSize bounds how much of one member is read into memory.
const MaxMemberSize = 1 << 30

// FileInfo describes one archive member.
type FileInfo struct {
	Name string // path within the archive, slash separated
	Size int64  // uncompressed size
}

// Archive provides read access to the members of an archive.
type Archive interface {
	// List returns every regular file in the archive.
	List() ([]FileInfo, error)

	// Open opens a member for reading and returns its uncompressed size.
	// Names match case-insensitively.
	Open(internalPath string) (io.ReadCloser, int64, error)

	Close() error
}

// Open opens an archive by its extension.
func Open(path string) (Archive, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".zip":
		return OpenZIP(path)
	case ".7z":
		return OpenSevenZip(path)
	case ".rar":
		return OpenRAR(path)
	default:
		return nil, FormatError{Format: ext}
	}
}

// IsArchiveExtension reports whether ext names a supported archive format.
func IsArchiveExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".zip", ".7z", ".rar":
		return true
	default:
		return false
	}
}

// ReadFile reads a whole member into memory.
func ReadFile(arc Archive, internalPath string) ([]byte, error) {
	reader, size, err := arc.Open(internalPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	if size < 0 || size > MaxMemberSize {
		return nil, MemberTooLargeError{Name: internalPath, Size: size}
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, fmt.Errorf("read %s from archive: %w", internalPath, err)
	}
	return data, nil
}

// sameName compares member names the way archive tools display them.
func sameName(member, internalPath string) bool {
	return strings.EqualFold(member, filepath.ToSlash(internalPath))
}
