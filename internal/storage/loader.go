// This file implements the batched loader: a record sequence is partitioned
// into consecutive batches and each batch is handed to a backend's bulk-write
// primitive exactly once.
//
// Logging: on every successful flush a progress line is emitted with running
// totals and rows/sec since the previous flush.

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pisaetl/internal/metrics"
)

// ErrInvalidBatchSize is returned when a batch size below 1 is requested.
var ErrInvalidBatchSize = errors.New("batch size must be >= 1")

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// rows (aligned to columns) and return the number of rows written.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// Chunk partitions rows into consecutive slices of at most size elements.
// The returned batches alias rows; concatenating them reproduces rows.
func Chunk[T any](rows []T, size int) ([][]T, error) {
	if size < 1 {
		return nil, fmt.Errorf("chunk size %d: %w", size, ErrInvalidBatchSize)
	}
	out := make([][]T, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, rows[start:end:end])
	}
	return out, nil
}

// LoadBatches chunks rows by batchSize and calls copyFn once per batch, in
// order. It returns the total reported by copyFn and stops at the first
// error. Rows already written by earlier batches are not rolled back.
//
// job labels the metrics emitted per batch.
func LoadBatches(
	ctx context.Context,
	job string,
	columns []string,
	rows [][]any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}
	batches, err := Chunk(rows, batchSize)
	if err != nil {
		return 0, err
	}

	var (
		total       int64
		start       = time.Now()
		lastFlushTS = start
	)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		if err != nil {
			slog.Error("loader: bulk write failed",
				"batch", i+1, "written", n, "total", total, "err", err)
			return total, err
		}
		metrics.RecordBatches(job, 1)

		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(n) / sinceLast.Seconds()
		}
		slog.Debug("loader: batch flushed",
			"batch", i+1,
			"of", len(batches),
			"rps", int64(rps),
			"inserted", n,
			"total_inserted", total,
			"elapsed", now.Sub(start).Truncate(time.Millisecond),
		)
		lastFlushTS = now
	}
	return total, nil
}
