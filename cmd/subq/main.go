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

// Command subq inspects and repairs CD subchannel data.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	subq "github.com/ZaparooProject/go-subq"
	"github.com/ZaparooProject/go-subq/archive"
	"github.com/ZaparooProject/go-subq/drivecache"
	"github.com/ZaparooProject/go-subq/msf"
	"github.com/ZaparooProject/go-subq/subcode"
)

var version = "dev"

var errSameFile = errors.New("output would overwrite the input")

type options struct {
	drive      string
	layouts    string
	out        string
	count      int
	workers    int
	start      int32
	lba        int32
	print      bool
	listDrives bool
	verbose    bool
}

func defaultOptions() options {
	return options{
		start: msf.LBAStart,
		drive: string(drivecache.DriveLGASU3),
	}
}

func main() {
	ctx := context.Background()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "subq: %s\n", err.Error())
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Every command shares one options
// value and one logger.
func newRootCmd() *cobra.Command {
	opts := defaultOptions()
	var logger *slog.Logger

	root := &cobra.Command{
		Use:           "subq",
		Short:         "Inspect and repair CD subchannel Q data.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug details")

	scanFlags := func(cmd *cobra.Command) {
		cmd.Flags().Int32Var(&opts.start, "start", opts.start, "LBA of the first frame")
		cmd.Flags().IntVar(&opts.workers, "workers", 0, "Decoding workers (0 uses every CPU)")
	}

	subchannelCmd := &cobra.Command{
		Use:   "subchannel <file>",
		Short: "Print the Q channel of every sector",
		Long: "Print the decoded Q channel of every sector. The file may be a raw .subcode or\n" +
			".sub dump, a CHD image or an archive member such as dump.zip/disc.subcode.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubchannel(cmd, &opts, logger, args[0])
		},
	}
	scanFlags(subchannelCmd)

	fixCmd := &cobra.Command{
		Use:   "fix <in> <out>",
		Short: "Rebuild broken Q packets and write a corrected subcode file",
		Long: "Rebuild every Q packet that fails its CRC from the nearest valid position.\n" +
			"An output ending in .sub is written channel-packed, anything else interleaved.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd, &opts, logger, args[0], args[1])
		},
	}
	scanFlags(fixCmd)

	cacheCmd := &cobra.Command{
		Use:   "cache [dump]",
		Short: "Decode an LG/ASUS drive cache dump",
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.listDrives {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCache(cmd, &opts, logger, args)
		},
	}
	cacheCmd.Flags().StringVar(&opts.drive, "drive", opts.drive, "Drive firmware layout")
	cacheCmd.Flags().Int32Var(&opts.lba, "lba", 0, "First LBA to extract")
	cacheCmd.Flags().IntVar(&opts.count, "count", 0, "Sectors to extract (0 takes the whole run)")
	cacheCmd.Flags().StringVar(&opts.layouts, "layouts", "", "YAML file with extra drive layouts")
	cacheCmd.Flags().BoolVar(&opts.print, "print", false, "Print every cache entry")
	cacheCmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write <prefix>.asus.data, .asus.c2 and .asus.sub")
	cacheCmd.Flags().BoolVar(&opts.listDrives, "list-drives", false, "List known drive layouts")

	sbiCmd := &cobra.Command{
		Use:   "sbi <file>",
		Short: "Print the records of an SBI file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSBI(cmd, args[0])
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "subq version: %s\n", version)
			return nil
		},
		DisableFlagsInUseLine: true,
	}

	root.AddCommand(subchannelCmd, fixCmd, cacheCmd, sbiCmd, versionCmd)
	return root
}

func scanOptions(opts *options) subq.ScanOptions {
	return subq.ScanOptions{Start: opts.start, Workers: opts.workers}
}

func runSubchannel(cmd *cobra.Command, opts *options, logger *slog.Logger, path string) error {
	src, err := subq.Open(path)
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped with context
	}
	defer func() { _ = src.Close() }()
	logger.Debug("opened subcode", "path", path, "frames", src.Len())

	out := bufio.NewWriter(cmd.OutOrStdout())
	prog := newProgress(cmd.ErrOrStderr(), src.Len())
	empty := false
	counts := map[subcode.Status]int{}

	err = subq.Scan(cmd.Context(), src, scanOptions(opts), func(s subq.Sector) error {
		prog.step()
		counts[s.Status]++
		if s.Status == subcode.StatusEmpty {
			if !empty {
				empty = true
				_, err := fmt.Fprintln(out, "...")
				return err //nolint:wrapcheck // Reported by Scan's caller
			}
			return nil
		}
		empty = false
		_, err := fmt.Fprintf(out, "[LBA: %6d, LBAQ: %6s] %s\n", s.LBA, lbaQ(s.Q), s.Q)
		return err //nolint:wrapcheck // Reported by Scan's caller
	})
	prog.done()
	if err != nil {
		return fmt.Errorf("scan %s: %w", path, err)
	}
	logger.Debug("scan complete",
		"valid", counts[subcode.StatusValid],
		"invalid", counts[subcode.StatusInvalid],
		"empty", counts[subcode.StatusEmpty])
	return out.Flush() //nolint:wrapcheck // Write error passthrough
}

// lbaQ renders the address in the absolute time field of q, "?" when it is
// not valid BCD.
func lbaQ(q subcode.Q) string {
	lba, err := msf.BCDToLBA(q.Mode1().AMSF)
	if err != nil {
		return "?"
	}
	return strconv.Itoa(int(lba))
}

func runFix(cmd *cobra.Command, opts *options, logger *slog.Logger, in, outPath string) error {
	if filepath.Clean(in) == filepath.Clean(outPath) {
		return fmt.Errorf("%w: %s", errSameFile, outPath)
	}
	src, err := subq.Open(in)
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped with context
	}
	defer func() { _ = src.Close() }()

	format := subq.FormatInterleaved
	if archive.KindOf(outPath) == archive.KindPacked {
		format = subq.FormatPacked
	}

	file, err := os.Create(outPath) //nolint:gosec // Path from user input is expected
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	w := bufio.NewWriter(file)

	fixed, err := subq.Fix(cmd.Context(), src, scanOptions(opts), w, format)
	if err == nil {
		err = w.Flush()
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("fix %s: %w", in, err)
	}

	for _, i := range fixed {
		logger.Info("synthesized Q", "lba", opts.start+int32(i)) //nolint:gosec // Disc sized
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d sectors rebuilt, written to %s (%s)\n",
		len(fixed), src.Len(), outPath, format)
	return nil
}

func runCache(cmd *cobra.Command, opts *options, logger *slog.Logger, args []string) error {
	registry := drivecache.NewRegistry()
	if opts.layouts != "" {
		if err := loadLayouts(registry, opts.layouts); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if opts.listDrives {
		for _, d := range registry.Drives() {
			fmt.Fprintln(out, d)
		}
		return nil
	}

	drive, err := drivecache.ParseDriveType(opts.drive)
	if err != nil {
		// a --layouts file may add names outside the built-in list
		drive = drivecache.DriveType(opts.drive)
	}

	blob, err := subq.ReadFile(args[0], archive.KindCache)
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped with context
	}
	logger.Debug("read cache dump", "path", args[0], "bytes", len(blob), "drive", drive)

	if opts.print || opts.out == "" {
		w := bufio.NewWriter(out)
		if err := registry.Dump(w, blob, drive); err != nil {
			return fmt.Errorf("dump cache: %w", err)
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("dump cache: %w", err)
		}
	}
	if opts.out == "" {
		return nil
	}

	entries, err := registry.Extract(blob, opts.lba, opts.count, drive)
	if err != nil {
		return fmt.Errorf("extract cache: %w", err)
	}
	logger.Info("extracted cache entries", "lba", opts.lba, "count", len(entries))
	return writeCacheEntries(opts.out, entries)
}

func loadLayouts(registry *drivecache.Registry, path string) error {
	f, err := os.Open(path) //nolint:gosec // Path from user input is expected
	if err != nil {
		return fmt.Errorf("open layouts: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := registry.LoadYAML(f); err != nil {
		return fmt.Errorf("load layouts %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeCacheEntries(prefix string, entries []drivecache.Entry) (err error) {
	var files [3]*os.File
	for i, ext := range []string{".asus.data", ".asus.c2", ".asus.sub"} {
		if files[i], err = os.Create(prefix + ext); err != nil {
			return fmt.Errorf("create %s: %w", prefix+ext, err)
		}
		defer func(f *os.File) {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}(files[i])
	}
	if err := drivecache.WriteEntries(files[0], files[1], files[2], entries); err != nil {
		return fmt.Errorf("write cache entries: %w", err)
	}
	return nil
}

func runSBI(cmd *cobra.Command, path string) error {
	data, err := subq.ReadFile(path, archive.KindSBI)
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped with context
	}
	entries, err := subq.ParseSBI(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	out := bufio.NewWriter(cmd.OutOrStdout())
	for _, e := range entries {
		lba := "     ?"
		if v, err := e.LBA(); err == nil {
			lba = fmt.Sprintf("%6d", v)
		}
		fmt.Fprintf(out, "[LBA: %s] %s\n", lba, e.Q())
	}
	return out.Flush() //nolint:wrapcheck // Write error passthrough
}

// progress reports scan position on a terminal. On anything else it is
// silent.
type progress struct {
	w     io.Writer
	total int
	n     int
	on    bool
}

const progressEvery = 1 << 12

func newProgress(w io.Writer, total int) *progress {
	f, ok := w.(*os.File)
	return &progress{w: w, total: total, on: ok && term.IsTerminal(int(f.Fd()))} //nolint:gosec // fd fits in int
}

func (p *progress) step() {
	p.n++
	if p.on && p.n%progressEvery == 0 {
		fmt.Fprintf(p.w, "\r%d/%d sectors", p.n, p.total)
	}
}

func (p *progress) done() {
	if p.on {
		fmt.Fprint(p.w, "\r\033[K")
	}
}
