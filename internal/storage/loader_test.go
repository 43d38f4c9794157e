package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// TestChunk_ReassemblesInOrder checks that concatenating the batches yields
// the input sequence for a range of sizes.
func TestChunk_ReassemblesInOrder(t *testing.T) {
	t.Parallel()

	in := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	for size := 1; size <= len(in)+2; size++ {
		size := size
		t.Run("", func(t *testing.T) {
			t.Parallel()

			batches, err := Chunk(in, size)
			if err != nil {
				t.Fatalf("Chunk(size=%d) error: %v", size, err)
			}
			var got []int
			for i, b := range batches {
				if len(b) == 0 || len(b) > size {
					t.Fatalf("batch %d has len %d, want 1..%d", i, len(b), size)
				}
				got = append(got, b...)
			}
			if !reflect.DeepEqual(got, in) {
				t.Fatalf("concat(Chunk(size=%d)) = %v, want %v", size, got, in)
			}
		})
	}
}

func TestChunk_InvalidSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1, -50} {
		if _, err := Chunk([]int{1}, size); !errors.Is(err, ErrInvalidBatchSize) {
			t.Fatalf("Chunk(size=%d) error = %v, want ErrInvalidBatchSize", size, err)
		}
	}
}

func TestChunk_Empty(t *testing.T) {
	t.Parallel()

	got, err := Chunk([]string(nil), 3)
	if err != nil {
		t.Fatalf("Chunk(nil) error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Chunk(nil) = %v, want no batches", got)
	}
}

// TestLoadBatches_ThreeRowsBatchTwo verifies one write per batch with sizes
// 2 then 1.
func TestLoadBatches_ThreeRowsBatchTwo(t *testing.T) {
	t.Parallel()

	rows := [][]any{{"a"}, {"b"}, {"c"}}
	var sizes []int
	var seen [][]any
	copyFn := func(_ context.Context, _ []string, batch [][]any) (int64, error) {
		sizes = append(sizes, len(batch))
		seen = append(seen, batch...)
		return int64(len(batch)), nil
	}

	total, err := LoadBatches(context.Background(), "test", []string{"c"}, rows, 2, copyFn)
	if err != nil {
		t.Fatalf("LoadBatches error: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if !reflect.DeepEqual(sizes, []int{2, 1}) {
		t.Fatalf("write sizes = %v, want [2 1]", sizes)
	}
	if !reflect.DeepEqual(seen, rows) {
		t.Fatalf("rows written = %v, want %v", seen, rows)
	}
}

// TestLoadBatches_ErrorStops ensures the first copy error is returned and no
// later batch is attempted.
func TestLoadBatches_ErrorStops(t *testing.T) {
	t.Parallel()

	rows := [][]any{{1}, {2}, {3}, {4}, {5}}
	wantErr := errors.New("copy failed")
	calls := 0
	copyFn := func(_ context.Context, _ []string, batch [][]any) (int64, error) {
		calls++
		if calls == 2 {
			return 0, wantErr
		}
		return int64(len(batch)), nil
	}

	total, err := LoadBatches(context.Background(), "test", []string{"c"}, rows, 2, copyFn)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if calls != 2 {
		t.Fatalf("copyFn calls = %d, want 2", calls)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2 (first batch only)", total)
	}
}

func TestLoadBatches_InvalidArgs(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, []string, [][]any) (int64, error) { return 0, nil }

	if _, err := LoadBatches(context.Background(), "test", nil, nil, 0, noop); !errors.Is(err, ErrInvalidBatchSize) {
		t.Fatalf("batchSize=0 error = %v, want ErrInvalidBatchSize", err)
	}
	if _, err := LoadBatches(context.Background(), "test", nil, nil, 1, nil); err == nil {
		t.Fatalf("nil copyFn: want error")
	}
}

func TestLoadBatches_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	copyFn := func(context.Context, []string, [][]any) (int64, error) {
		calls++
		return 1, nil
	}
	_, err := LoadBatches(ctx, "test", nil, [][]any{{1}}, 1, copyFn)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Fatalf("copyFn called %d times after cancel", calls)
	}
}
