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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZaparooProject/go-subq/drivecache"
	"github.com/ZaparooProject/go-subq/msf"
	"github.com/ZaparooProject/go-subq/subcode"
)

// run executes the CLI with args and returns what it wrote to stdout and
// stderr.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// positionQ is the track 1, index 1 packet of lba, with the track
// starting at LBA 0.
func positionQ(t *testing.T, lba int32) subcode.Q {
	t.Helper()
	running, err := msf.LBAToBCD(lba + msf.LBAStart)
	if err != nil {
		t.Fatalf("LBAToBCD(%d): %v", lba+msf.LBAStart, err)
	}
	abs, err := msf.LBAToBCD(lba)
	if err != nil {
		t.Fatalf("LBAToBCD(%d): %v", lba, err)
	}
	return subcode.NewQ(subcode.ControlData, 1, subcode.Mode1{TNO: 0x01, Index: 0x01, MSF: running, AMSF: abs})
}

// frames returns interleaved frames for n sectors from lba followed by
// empty zero frames.
func frames(t *testing.T, lba int32, n, empty int) []byte {
	t.Helper()
	var out []byte
	for i := range n {
		f := positionQ(t, lba+int32(i)).Frame([subcode.FrameSize]byte{}) //nolint:gosec // Small test counts
		out = append(out, f[:]...)
	}
	return append(out, make([]byte, empty*subcode.FrameSize)...)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != "subq version: dev\n" {
		t.Errorf("output = %q", out)
	}
}

func TestSubchannel(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "disc.subcode", frames(t, 0, 2, 3))
	out, _, err := run(t, "subchannel", "--start", "0", path)
	if err != nil {
		t.Fatalf("subchannel: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	for i, prefix := range []string{"[LBA:      0, LBAQ:      0] ", "[LBA:      1, LBAQ:      1] "} {
		if !strings.HasPrefix(lines[i], prefix) || !strings.HasSuffix(lines[i], "(+)") {
			t.Errorf("line %d = %q", i, lines[i])
		}
	}
	if lines[2] != "..." {
		t.Errorf("empty run = %q, want ...", lines[2])
	}
}

func TestSubchannelInvalidLBAQ(t *testing.T) {
	t.Parallel()

	q := subcode.NewQ(subcode.ControlData, 1, subcode.Mode1{AMSF: msf.BCD{M: 0xAA}})
	f := q.Frame([subcode.FrameSize]byte{})
	path := writeFile(t, "bad.subcode", f[:])

	out, _, err := run(t, "subchannel", path)
	if err != nil {
		t.Fatalf("subchannel: %v", err)
	}
	if !strings.HasPrefix(out, "[LBA:   -150, LBAQ:      ?] ") {
		t.Errorf("output = %q", out)
	}
}

func TestFix(t *testing.T) {
	t.Parallel()

	want := frames(t, 100, 4, 0)
	broken := bytes.Clone(want)
	broken[subcode.FrameSize+40] ^= 0x40

	in := writeFile(t, "in.subcode", broken)
	outPath := filepath.Join(t.TempDir(), "out.subcode")

	stdout, stderr, err := run(t, "fix", "--start", "100", in, outPath)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if !strings.Contains(stdout, "1 of 4 sectors rebuilt") {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "lba=101") {
		t.Errorf("stderr = %q, want the rebuilt LBA logged", stderr)
	}

	got, err := os.ReadFile(outPath) //nolint:gosec // Test path
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("repaired output differs from the intact dump")
	}
}

func TestFixSameFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "in.subcode", frames(t, 0, 1, 0))
	if _, _, err := run(t, "fix", path, path); err == nil {
		t.Error("expected an error when output overwrites input")
	}
}

func TestSBI(t *testing.T) {
	t.Parallel()

	q := positionQ(t, 10)
	data := append([]byte("SBI\x00"), 0x00, 0x02, 0x10, 0x01)
	data = append(data, q[:10]...)
	path := writeFile(t, "disc.sbi", data)

	out, _, err := run(t, "sbi", path)
	if err != nil {
		t.Fatalf("sbi: %v", err)
	}
	if want := "[LBA:     10] " + q.String() + "\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestSBIInvalid(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "disc.sbi", []byte("XXXX"))
	if _, _, err := run(t, "sbi", path); err == nil {
		t.Error("expected an error for a file without the SBI magic")
	}
}

// cacheSlot is one drive cache entry holding the sector at lba.
func cacheSlot(t *testing.T, lba int32, fill byte) []byte {
	t.Helper()
	b := bytes.Repeat([]byte{fill}, drivecache.EntrySize)
	f := positionQ(t, lba).Frame([subcode.FrameSize]byte{})
	copy(b[drivecache.DataSize+drivecache.C2Size:], f[:])
	return b
}

func TestCacheExtract(t *testing.T) {
	t.Parallel()

	blob := bytes.Join([][]byte{cacheSlot(t, 101, 2), cacheSlot(t, 100, 1)}, nil)
	path := writeFile(t, "dump.asus", blob)
	prefix := filepath.Join(t.TempDir(), "out")

	stdout, _, err := run(t, "cache", "--drive", "lg_asu3", "--lba", "100", "--count", "2", "--out", prefix, path)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing without --print", stdout)
	}

	data, err := os.ReadFile(prefix + ".asus.data")
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 2*drivecache.DataSize || data[0] != 1 || data[drivecache.DataSize] != 2 {
		t.Errorf("data file has %d bytes, want sectors 100 and 101 in order", len(data))
	}
	for ext, size := range map[string]int{".asus.c2": drivecache.C2Size, ".asus.sub": drivecache.SubcodeSize} {
		b, err := os.ReadFile(prefix + ext)
		if err != nil {
			t.Fatal(err)
		}
		if len(b) != 2*size {
			t.Errorf("%s has %d bytes, want %d", ext, len(b), 2*size)
		}
	}
}

func TestCachePrint(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "dump.asus", cacheSlot(t, 100, 1))
	out, _, err := run(t, "cache", path)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	if !strings.HasPrefix(out, "[   0] LBA:    100, ") {
		t.Errorf("output = %q", out)
	}
}

func TestCacheLayouts(t *testing.T) {
	t.Parallel()

	layouts := writeFile(t, "layouts.yaml", []byte(`drives:
  TEST_DRIVE:
    entry_size: 2816
    data_offset: 0
    c2_offset: 2352
    subcode_offset: 2646
`))

	out, _, err := run(t, "cache", "--layouts", layouts, "--list-drives")
	if err != nil {
		t.Fatalf("cache --list-drives: %v", err)
	}
	for _, want := range []string{"LG_ASU3", "TEST_DRIVE"} {
		if !strings.Contains(out, want+"\n") {
			t.Errorf("drive list missing %s:\n%s", want, out)
		}
	}

	dump := writeFile(t, "dump.asus", cacheSlot(t, 7, 1))
	out, _, err = run(t, "cache", "--layouts", layouts, "--drive", "TEST_DRIVE", dump)
	if err != nil {
		t.Fatalf("cache with custom drive: %v", err)
	}
	if !strings.Contains(out, "LBA:      7") {
		t.Errorf("output = %q", out)
	}
}

func TestCLIErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"nope"}},
		{"subchannel without file", []string{"subchannel"}},
		{"fix with one path", []string{"fix", "in.subcode"}},
		{"cache without dump", []string{"cache"}},
		{"missing file", []string{"subchannel", filepath.Join(t.TempDir(), "missing.subcode")}},
		{"unknown drive", []string{"cache", "--drive", "NOPE", "missing.asus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, _, err := run(t, tt.args...); err == nil {
				t.Errorf("%v: expected an error", tt.args)
			}
		})
	}
}
