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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Path is an archive on disk plus an optional member inside it.
type Path struct {
	ArchivePath  string
	InternalPath string // empty selects a member by kind
}

var archiveExtensions = []string{".zip", ".7z", ".rar"}

// ParsePath splits paths such as "dumps/disc.zip/disc.subcode". A bare
// archive path gives an empty InternalPath. Paths that do not name an
// existing archive return nil and no error.
//
//nolint:nilnil // nil, nil means "not an archive path"
func ParsePath(path string) (*Path, error) {
	lower := strings.ToLower(filepath.ToSlash(path))

	for _, ext := range archiveExtensions {
		idx := strings.Index(lower, ext+"/")
		if idx == -1 {
			continue
		}
		archivePath := path[:idx+len(ext)]
		ok, err := exists(archivePath)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Path{ArchivePath: archivePath, InternalPath: path[idx+len(ext)+1:]}, nil
		}
	}

	if !IsArchiveExtension(filepath.Ext(path)) {
		return nil, nil
	}
	ok, err := exists(path)
	if err != nil || !ok {
		return nil, err
	}
	return &Path{ArchivePath: path}, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat archive %s: %w", path, err)
	}
}

// IsArchivePath reports whether path looks like an archive reference
// without touching the filesystem.
func IsArchivePath(path string) bool {
	lower := strings.ToLower(filepath.ToSlash(path))
	for _, ext := range archiveExtensions {
		if strings.Contains(lower, ext+"/") {
			return true
		}
	}
	return IsArchiveExtension(filepath.Ext(path))
}
