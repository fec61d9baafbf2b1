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
	"io"

	"github.com/bodgit/sevenzip"
)

// SevenZipArchive reads members of a 7z archive.
type SevenZipArchive struct {
	reader  *sevenzip.ReadCloser
	members memberTable[*sevenzip.File]
}

// OpenSevenZip opens a 7z archive.
func OpenSevenZip(path string) (*SevenZipArchive, error) {
	reader, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open 7z archive: %w", err)
	}
	return &SevenZipArchive{
		reader: reader,
		members: memberTable[*sevenzip.File]{
			archive: path,
			format:  "7z",
			files:   reader.File,
			name:    func(f *sevenzip.File) string { return f.Name },
		},
	}, nil
}

// List returns the regular files of the archive.
func (sza *SevenZipArchive) List() ([]FileInfo, error) {
	return sza.members.list(), nil
}

// Open opens a member.
func (sza *SevenZipArchive) Open(internalPath string) (io.ReadCloser, int64, error) {
	return sza.members.open(internalPath)
}

// Close closes the archive.
func (sza *SevenZipArchive) Close() error {
	return sza.reader.Close() //nolint:wrapcheck // Close error passthrough is intentional
}
