// Package pagination fetches every page of a skip/limit endpoint with a
// bounded worker pool.
//
// The first page is fetched alone to learn the total page count. The
// remaining pages are distributed across at most MaxConcurrency workers and
// merged back in page order:
//
//	fetcher := pagination.NewBatchFetcher(func(ctx context.Context, page int) ([]Trip, int, error) {
//		resp, err := api.FilterTrips(ctx, pageRequest(page))
//		if err != nil {
//			return nil, 0, err
//		}
//		return resp.Trips, pageCount(resp), nil
//	}, pagination.DefaultConfig())
//
//	trips, err := fetcher.FetchAll(ctx, "filter_trips")
//
// The first failing page stops the pool; pages fetched so far are returned
// together with the error.
package pagination
