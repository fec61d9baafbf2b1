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

package subq_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	subq "github.com/ZaparooProject/go-subq"
	"github.com/ZaparooProject/go-subq/archive"
	"github.com/ZaparooProject/go-subq/msf"
	"github.com/ZaparooProject/go-subq/subcode"
)

// posQ is the track 1, index 1 position packet of lba.
func posQ(t *testing.T, lba int32) subcode.Q {
	t.Helper()
	running, err := msf.FromLBA(lba + msf.LBAStart)
	if err != nil {
		t.Fatalf("FromLBA(%d): %v", lba+msf.LBAStart, err)
	}
	absolute, err := msf.FromLBA(lba)
	if err != nil {
		t.Fatalf("FromLBA(%d): %v", lba, err)
	}
	return subcode.NewQ(subcode.ControlData, 1, subcode.Mode1{
		TNO:   0x01,
		Index: 0x01,
		MSF:   running.BCD(),
		AMSF:  absolute.BCD(),
	})
}

// frameOf puts q in the Q channel and sets every W bit.
func frameOf(q subcode.Q) []byte {
	var base [subcode.FrameSize]byte
	for i := range base {
		base[i] = 0x01
	}
	frame := q.Frame(base)
	return frame[:]
}

// dump builds n interleaved frames starting at lba.
func dump(t *testing.T, lba int32, n int) []byte {
	t.Helper()
	var out []byte
	for i := range n {
		out = append(out, frameOf(posQ(t, lba+int32(i)))...)
	}
	return out
}

// packed converts interleaved frames to the P..W channel layout.
func packed(data []byte) []byte {
	var out []byte
	for off := 0; off < len(data); off += subcode.FrameSize {
		channels := subcode.Deinterleave((*[subcode.FrameSize]byte)(data[off : off+subcode.FrameSize]))
		for ch := subcode.ChannelP; ; ch-- {
			out = append(out, channels[ch][:]...)
			if ch == subcode.ChannelW {
				break
			}
		}
	}
	return out
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

//nolint:gosec // Test helper creates files in test temp directory
func writeZIP(t *testing.T, dir, name string, members map[string][]byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer func() { _ = file.Close() }()

	w := zip.NewWriter(file)
	for member, data := range members {
		fw, err := w.Create(member)
		if err != nil {
			t.Fatalf("create %s: %v", member, err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write %s: %v", member, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

func assertFrames(t *testing.T, src subq.Source, want []byte) {
	t.Helper()
	if got, wantLen := src.Len(), len(want)/subcode.FrameSize; got != wantLen {
		t.Fatalf("Len() = %d, want %d", got, wantLen)
	}
	for i := range src.Len() {
		frame, err := src.Frame(i)
		if err != nil {
			t.Fatalf("Frame(%d): %v", i, err)
		}
		if !bytes.Equal(frame, want[i*subcode.FrameSize:(i+1)*subcode.FrameSize]) {
			t.Errorf("Frame(%d) differs", i)
		}
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := dump(t, 0, 5)
	zipPath := writeZIP(t, dir, "dump.zip", map[string][]byte{
		"disc.cue":     []byte("FILE"),
		"disc.subcode": data,
		"clone.sub":    packed(data),
	})

	tests := []struct {
		name string
		path string
	}{
		{name: "raw subcode", path: writeFile(t, dir, "disc.subcode", data)},
		{name: "packed sub", path: writeFile(t, dir, "disc.sub", packed(data))},
		{name: "bare archive", path: zipPath},
		{name: "archive member", path: zipPath + "/disc.subcode"},
		{name: "packed archive member", path: zipPath + "/clone.sub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, err := subq.Open(tt.path)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer func() { _ = src.Close() }()
			assertFrames(t, src, data)
		})
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	short := writeFile(t, dir, "short.subcode", make([]byte, 100))
	if _, err := subq.Open(short); !errors.Is(err, subq.ErrFrameSize) {
		t.Errorf("Open(short) error = %v, want ErrFrameSize", err)
	}

	if _, err := subq.Open(filepath.Join(dir, "missing.subcode")); err == nil {
		t.Error("Open(missing) succeeded")
	}

	zipPath := writeZIP(t, dir, "empty.zip", map[string][]byte{"disc.cue": []byte("FILE")})
	var nm archive.NoMemberError
	if _, err := subq.Open(zipPath); !errors.As(err, &nm) {
		t.Errorf("Open(zip without subcode) error = %v, want NoMemberError", err)
	}
}

func TestRawSourceRange(t *testing.T) {
	t.Parallel()

	src, err := subq.NewRawSource(bytes.NewReader(dump(t, 0, 2)), 2*subcode.FrameSize, subq.FormatInterleaved)
	if err != nil {
		t.Fatalf("NewRawSource: %v", err)
	}
	for _, i := range []int{-1, 2} {
		if _, err := src.Frame(i); !errors.Is(err, subq.ErrFrameRange) {
			t.Errorf("Frame(%d) error = %v, want ErrFrameRange", i, err)
		}
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sbi := []byte("SBI\x00")
	plain := writeFile(t, dir, "disc.sbi", sbi)
	zipPath := writeZIP(t, dir, "dump.zip", map[string][]byte{"disc.sbi": sbi, "disc.subcode": nil})

	for _, path := range []string{plain, zipPath, zipPath + "/disc.sbi"} {
		got, err := subq.ReadFile(path, archive.KindSBI)
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", path, err)
		}
		if !bytes.Equal(got, sbi) {
			t.Errorf("ReadFile(%s) = %q, want %q", path, got, sbi)
		}
	}
}

func TestFormatString(t *testing.T) {
	t.Parallel()

	if got := subq.FormatPacked.String(); got != "packed" {
		t.Errorf("FormatPacked = %q", got)
	}
	if got := subq.FormatInterleaved.String(); got != "interleaved" {
		t.Errorf("FormatInterleaved = %q", got)
	}
}
