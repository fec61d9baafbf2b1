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
	"archive/zip"
	"fmt"
	"io"
)

// ZIPArchive reads members of a ZIP archive.
type ZIPArchive struct {
	reader  *zip.ReadCloser
	members memberTable[*zip.File]
}

// OpenZIP opens a ZIP archive.
func OpenZIP(path string) (*ZIPArchive, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open ZIP archive: %w", err)
	}
	return &ZIPArchive{
		reader: reader,
		members: memberTable[*zip.File]{
			archive: path,
			format:  "ZIP",
			files:   reader.File,
			name:    func(f *zip.File) string { return f.Name },
		},
	}, nil
}

// List returns the regular files of the archive.
func (za *ZIPArchive) List() ([]FileInfo, error) {
	return za.members.list(), nil
}

// Open opens a member.
func (za *ZIPArchive) Open(internalPath string) (io.ReadCloser, int64, error) {
	return za.members.open(internalPath)
}

// Close closes the archive.
func (za *ZIPArchive) Close() error {
	return za.reader.Close() //nolint:wrapcheck // Close error passthrough is intentional
}
