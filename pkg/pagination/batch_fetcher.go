package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
	// Buffer size for channels (default: estimated total pages)
	BufferSize int
}

// DefaultConfig returns a configuration that keeps the backend responsive
// for interactive users while a bulk fetch runs.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        60 * time.Second,
		BufferSize:     64,
	}
}

// FetchFunc fetches a single page (numbered from 1) and returns its items
// plus the total page count.
type FetchFunc[T any] func(ctx context.Context, pageNum int) (items []T, totalPages int, err error)

// PageResult represents the result of fetching a single page
type PageResult[T any] struct {
	PageNumber int
	Items      []T
	Error      error
}

// BatchFetcher handles parallel fetching of multiple pages
type BatchFetcher[T any] struct {
	fetch  FetchFunc[T]
	config Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](fetch FetchFunc[T], config Config) *BatchFetcher[T] {
	defaults := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}

	return &BatchFetcher[T]{
		fetch:  fetch,
		config: config,
	}
}

// FetchAll fetches every page and returns the items in page order. On a
// partial failure only the unbroken run of pages starting at page 1 is
// returned with the error, so a caller can resume right after the last item.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context, name string) ([]T, error) {
	pages, err := bf.FetchAllPages(ctx, name)

	total := 0
	last := 0
	for num := 1; ; num++ {
		items, ok := pages[num]
		if !ok {
			break
		}
		total += len(items)
		last = num
	}

	merged := make([]T, 0, total)
	for num := 1; num <= last; num++ {
		merged = append(merged, pages[num]...)
	}
	return merged, err
}

// FetchAllPages fetches all pages in parallel using a worker pool.
// Returns map of pageNumber -> items for successful pages
func (bf *BatchFetcher[T]) FetchAllPages(ctx context.Context, name string) (map[int][]T, error) {
	start := time.Now()

	// Fetch first page to get total page count
	firstCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	firstItems, totalPages, err := bf.fetch(firstCtx, 1)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}

	log.Debug().
		Str("endpoint", name).
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	results := map[int][]T{1: firstItems}

	// Single page optimization
	if totalPages <= 1 {
		log.Debug().
			Str("endpoint", name).
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return results, nil
	}

	workerCtx, stop := context.WithCancel(ctx)
	defer stop()

	pageQueue := make(chan int, bf.config.BufferSize)
	pageResults := make(chan PageResult[T], bf.config.BufferSize)

	// Fill page queue (skip page 1, already fetched)
	go func() {
		defer close(pageQueue)
		for page := 2; page <= totalPages; page++ {
			select {
			case pageQueue <- page:
			case <-workerCtx.Done():
				return
			}
		}
	}()

	// Start worker pool
	workers := bf.config.MaxConcurrency
	if workers > totalPages-1 {
		workers = totalPages - 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(workerCtx, name, pageQueue, pageResults, &wg, i)
	}

	// Close results channel when all workers done
	go func() {
		wg.Wait()
		close(pageResults)
	}()

	// Collect results
	var firstErr error
	fetchedPages := 1
	for result := range pageResults {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", result.PageNumber, result.Error)
				// stop handing out pages, keep what is in flight
				stop()
			}
			continue
		}
		results[result.PageNumber] = result.Items
		fetchedPages++
	}

	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}

	if firstErr != nil {
		log.Warn().
			Err(firstErr).
			Str("endpoint", name).
			Int("fetched_pages", fetchedPages).
			Int("total_pages", totalPages).
			Msg("Page fetch failed - returning partial results")
		return results, fmt.Errorf("partial data (%d/%d pages): %w", fetchedPages, totalPages, firstErr)
	}

	log.Debug().
		Str("endpoint", name).
		Int("pages", fetchedPages).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results, nil
}

// worker processes pages from the queue
func (bf *BatchFetcher[T]) worker(ctx context.Context, name string, pageQueue <-chan int, results chan<- PageResult[T], wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		if ctx.Err() != nil {
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		items, _, err := bf.fetch(pageCtx, pageNum)
		cancel()

		// results is drained by the collector until every worker exits
		results <- PageResult[T]{PageNumber: pageNum, Items: items, Error: err}
		if err != nil {
			log.Debug().
				Err(err).
				Str("endpoint", name).
				Int("worker_id", workerID).
				Int("page", pageNum).
				Msg("Page fetch failed")
			return
		}

		pagesProcessed++
	}
}
