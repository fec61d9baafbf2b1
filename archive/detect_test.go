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

package archive_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ZaparooProject/go-subq/archive"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want archive.Kind
	}{
		{"disc.subcode", archive.KindSubcode},
		{"Disc (Track 1).SUB", archive.KindPacked},
		{"disc.sbi", archive.KindSBI},
		{"drive.asus", archive.KindCache},
		{"dump/drive.cache", archive.KindCache},
		{"disc.chd", archive.KindCHD},
		{"disc.cue", archive.KindUnknown},
		{"subcode", archive.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := archive.KindOf(tt.name); got != tt.want {
				t.Errorf("KindOf(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestDetectMember(t *testing.T) {
	t.Parallel()

	zipPath := createTestZIP(t, t.TempDir(), "dump.zip",
		member{"disc.cue", []byte("FILE")},
		member{"disc.sub", make([]byte, 96)},
		member{"disc.subcode", make([]byte, 96)},
		member{"second.subcode", make([]byte, 96)},
	)
	arc, err := archive.Open(zipPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = arc.Close() }()

	tests := []struct {
		name     string
		wantName string
		kinds    []archive.Kind
		wantKind archive.Kind
	}{
		{
			name:     "first kind wins",
			kinds:    []archive.Kind{archive.KindSubcode, archive.KindPacked},
			wantName: "disc.subcode",
			wantKind: archive.KindSubcode,
		},
		{
			name:     "fallback kind",
			kinds:    []archive.Kind{archive.KindCHD, archive.KindPacked},
			wantName: "disc.sub",
			wantKind: archive.KindPacked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			name, kind, err := archive.DetectMember(arc, zipPath, tt.kinds...)
			if err != nil {
				t.Fatalf("DetectMember: %v", err)
			}
			if name != tt.wantName || kind != tt.wantKind {
				t.Errorf("DetectMember = (%q, %v), want (%q, %v)", name, kind, tt.wantName, tt.wantKind)
			}
		})
	}
}

func TestDetectMemberNone(t *testing.T) {
	t.Parallel()

	zipPath := createTestZIP(t, t.TempDir(), "dump.zip", member{"disc.cue", []byte("FILE")})
	arc, err := archive.Open(zipPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = arc.Close() }()

	_, _, err = archive.DetectMember(arc, zipPath, archive.KindSBI, archive.KindCHD)
	var nm archive.NoMemberError
	if !errors.As(err, &nm) {
		t.Fatalf("error = %v, want NoMemberError", err)
	}
	if msg := nm.Error(); !strings.Contains(msg, "SBI or CHD") || !strings.Contains(msg, "dump.zip") {
		t.Errorf("NoMemberError message = %q", msg)
	}
}
