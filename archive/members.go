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
	"io/fs"
)

// memberFile is a member entry of an archive reader that indexes its files
// up front, as archive/zip and sevenzip do.
type memberFile interface {
	FileInfo() fs.FileInfo
	Open() (io.ReadCloser, error)
}

// memberTable lists and opens the members of an indexed archive.
type memberTable[F memberFile] struct {
	archive string
	format  string
	files   []F
	name    func(F) string
}

func (t memberTable[F]) list() []FileInfo {
	files := make([]FileInfo, 0, len(t.files))
	for _, f := range t.files {
		if info := f.FileInfo(); !info.IsDir() {
			files = append(files, FileInfo{Name: t.name(f), Size: info.Size()})
		}
	}
	return files
}

func (t memberTable[F]) open(internalPath string) (io.ReadCloser, int64, error) {
	for _, f := range t.files {
		name := t.name(f)
		if !sameName(name, internalPath) {
			continue
		}
		reader, err := f.Open()
		if err != nil {
			return nil, 0, fmt.Errorf("open %s in %s: %w", name, t.format, err)
		}
		return reader, f.FileInfo().Size(), nil
	}
	return nil, 0, FileNotFoundError{Archive: t.archive, InternalPath: internalPath}
}
