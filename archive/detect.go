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
	"path/filepath"
	"strings"
)

// Kind classifies a member by what it holds.
type Kind int

const (
	KindUnknown Kind = iota
	KindSubcode      // interleaved 96-byte frames (.subcode)
	KindPacked       // channel-packed 96-byte frames, P through W (.sub)
	KindSBI          // subchannel patch records (.sbi)
	KindCache        // drive firmware cache dump (.asus, .cache)
	KindCHD          // MAME CHD image (.chd)
)

var memberKinds = map[string]Kind{
	".subcode": KindSubcode,
	".sub":     KindPacked,
	".sbi":     KindSBI,
	".asus":    KindCache,
	".cache":   KindCache,
	".chd":     KindCHD,
}

func (k Kind) String() string {
	switch k {
	case KindSubcode:
		return "subcode"
	case KindPacked:
		return "packed subcode"
	case KindSBI:
		return "SBI"
	case KindCache:
		return "cache"
	case KindCHD:
		return "CHD"
	default:
		return "unknown"
	}
}

// KindOf classifies a file name by its extension.
func KindOf(name string) Kind {
	return memberKinds[strings.ToLower(filepath.Ext(name))]
}

// DetectMember returns the first member of the wanted kinds. Earlier kinds
// win over later ones; members of one kind keep archive order.
func DetectMember(arc Archive, archivePath string, kinds ...Kind) (string, Kind, error) {
	files, err := arc.List()
	if err != nil {
		return "", KindUnknown, fmt.Errorf("list archive files: %w", err)
	}

	for _, kind := range kinds {
		for _, file := range files {
			if KindOf(file.Name) == kind {
				return file.Name, kind, nil
			}
		}
	}

	return "", KindUnknown, NoMemberError{Archive: archivePath, Kinds: kinds}
}
