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

package subq

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ZaparooProject/go-subq/subcode"
)

// DefaultBatch is the number of frames decoded between callbacks.
const DefaultBatch = 4096

// Sector is the decoded Q channel of one frame.
type Sector struct {
	LBA    int32
	Q      subcode.Q
	Status subcode.Status
}

// ScanOptions controls Scan. Zero values select the defaults.
type ScanOptions struct {
	// Start is the LBA of frame 0. Drive subcode dumps start at -150.
	Start int32
	// Workers bounds concurrent decoding; 0 means GOMAXPROCS.
	Workers int
	// Batch is the number of frames decoded ahead of the callback.
	Batch int
}

func (o ScanOptions) withDefaults() ScanOptions {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Batch <= 0 {
		o.Batch = DefaultBatch
	}
	return o
}

// Scan decodes the Q channel of every frame of src and calls fn once per
// frame in LBA order. Frames are read and decoded concurrently a batch at a
// time; an error from fn or from a frame read stops the scan.
func Scan(ctx context.Context, src Source, opts ScanOptions, fn func(Sector) error) error {
	opts = opts.withDefaults()
	total := src.Len()
	sectors := make([]Sector, min(opts.Batch, total))

	for base := 0; base < total; base += opts.Batch {
		n := min(opts.Batch, total-base)
		if err := decodeBatch(ctx, src, opts, base, sectors[:n]); err != nil {
			return err
		}
		for _, s := range sectors[:n] {
			if err := fn(s); err != nil {
				return err
			}
		}
	}
	return ctx.Err() //nolint:wrapcheck // Context errors pass through
}

// decodeBatch fills out with frames base..base+len(out), split into one
// chunk per worker.
func decodeBatch(ctx context.Context, src Source, opts ScanOptions, base int, out []Sector) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	chunk := max(1, (len(out)+opts.Workers-1)/opts.Workers)
	for lo := 0; lo < len(out); lo += chunk {
		hi := min(lo+chunk, len(out))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gCtx.Err(); err != nil {
					return err //nolint:wrapcheck // Context errors pass through
				}
				frame, err := src.Frame(base + i)
				if err != nil {
					return err
				}
				q, err := subcode.ParseQ(frame)
				if err != nil {
					return fmt.Errorf("frame %d: %w", base+i, err)
				}
				out[i] = Sector{LBA: opts.Start + int32(base+i), Q: q, Status: q.Status()} //nolint:gosec // Disc sized
			}
			return nil
		})
	}
	return g.Wait() //nolint:wrapcheck // Worker errors are already wrapped
}

// ReadQ collects the Q packet of every frame.
func ReadQ(ctx context.Context, src Source, opts ScanOptions) ([]subcode.Q, error) {
	qs := make([]subcode.Q, 0, src.Len())
	err := Scan(ctx, src, opts, func(s Sector) error {
		qs = append(qs, s.Q)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return qs, nil
}
