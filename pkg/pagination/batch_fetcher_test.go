package pagination

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// pagedSource serves items 0..total-1 in pages of size.
func pagedSource(total, size int, calls *atomic.Int32) FetchFunc[int] {
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	return func(ctx context.Context, page int) ([]int, int, error) {
		calls.Add(1)
		start := (page - 1) * size
		end := start + size
		if end > total {
			end = total
		}
		items := make([]int, 0, size)
		for i := start; i < end; i++ {
			items = append(items, i)
		}
		return items, pages, nil
	}
}

func TestNewBatchFetcher_Defaults(t *testing.T) {
	var calls atomic.Int32
	bf := NewBatchFetcher(pagedSource(1, 1, &calls), Config{})

	want := DefaultConfig()
	if bf.config != want {
		t.Errorf("config = %+v, want %+v", bf.config, want)
	}
}

func TestFetchAll_SinglePage(t *testing.T) {
	var calls atomic.Int32
	bf := NewBatchFetcher(pagedSource(3, 10, &calls), DefaultConfig())

	items, err := bf.FetchAll(context.Background(), "filter_trips")
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("len(items) = %d, want 3", len(items))
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestFetchAll_ManyPagesInOrder(t *testing.T) {
	var calls atomic.Int32
	bf := NewBatchFetcher(pagedSource(95, 10, &calls), Config{MaxConcurrency: 3})

	items, err := bf.FetchAll(context.Background(), "filter_groups")
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(items) != 95 {
		t.Fatalf("len(items) = %d, want 95", len(items))
	}
	for i, v := range items {
		if v != i {
			t.Fatalf("items[%d] = %d, pages merged out of order", i, v)
		}
	}
	if calls.Load() != 10 {
		t.Errorf("calls = %d, want 10", calls.Load())
	}
}

func TestFetchAll_FirstPageError(t *testing.T) {
	backendErr := errors.New("backend down")
	bf := NewBatchFetcher(func(ctx context.Context, page int) ([]int, int, error) {
		return nil, 0, backendErr
	}, DefaultConfig())

	items, err := bf.FetchAll(context.Background(), "broken_transfers")
	if !errors.Is(err, backendErr) {
		t.Errorf("err = %v, want %v", err, backendErr)
	}
	if len(items) != 0 {
		t.Errorf("len(items) = %d, want 0", len(items))
	}
}

func TestFetchAll_PartialFailure(t *testing.T) {
	backendErr := errors.New("page failed")
	bf := NewBatchFetcher(func(ctx context.Context, page int) ([]int, int, error) {
		if page == 3 {
			return nil, 0, backendErr
		}
		return []int{page}, 5, nil
	}, Config{MaxConcurrency: 1})

	items, err := bf.FetchAll(context.Background(), "filter_trips")
	if !errors.Is(err, backendErr) {
		t.Fatalf("err = %v, want %v", err, backendErr)
	}
	// a single worker stops at page 3
	if len(items) != 2 || items[0] != 1 || items[1] != 2 {
		t.Errorf("items = %v, want [1 2]", items)
	}
}

func TestFetchAll_SlowMiddlePageFailureKeepsPrefix(t *testing.T) {
	backendErr := errors.New("page failed")
	bf := NewBatchFetcher(func(ctx context.Context, page int) ([]int, int, error) {
		if page == 2 {
			time.Sleep(100 * time.Millisecond)
			return nil, 0, backendErr
		}
		return []int{page}, 5, nil
	}, Config{MaxConcurrency: 4})

	items, err := bf.FetchAll(context.Background(), "filter_trips")
	if !errors.Is(err, backendErr) {
		t.Fatalf("err = %v, want %v", err, backendErr)
	}
	// pages 3..5 finish first but sit behind the gap at page 2
	if len(items) != 1 || items[0] != 1 {
		t.Errorf("items = %v, want [1]", items)
	}
}

func TestFetchAll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	bf := NewBatchFetcher(func(fctx context.Context, page int) ([]int, int, error) {
		if page == 1 {
			cancel()
			return []int{1}, 50, nil
		}
		<-fctx.Done()
		return nil, 0, fctx.Err()
	}, Config{MaxConcurrency: 2, Timeout: time.Second})

	_, err := bf.FetchAll(ctx, "filter_trips")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
