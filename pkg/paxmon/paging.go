package paxmon

import (
	"context"
	"encoding/json"

	"github.com/motis-project/paxmon-client/pkg/pagination"
	"github.com/motis-project/paxmon-client/pkg/protocol"
)

// DefaultPageSize is used when a paged request leaves max_results at 0.
const DefaultPageSize = 100

// pageCount returns how many pages of size cover the matches after skip.
func pageCount(totalMatching uint64, skip, size uint32) int {
	if totalMatching <= uint64(skip) {
		return 1
	}
	remaining := totalMatching - uint64(skip)
	pages := (remaining + uint64(size) - 1) / uint64(size)
	if pages == 0 {
		return 1
	}
	return int(pages)
}

// pageRequest returns skip_first and max_results for page (from 1).
func pageRequest(skip, size uint32, page int) (uint32, uint32) {
	return skip + uint32(page-1)*size, size
}

func pageSize(maxResults uint32) uint32 {
	if maxResults == 0 {
		return DefaultPageSize
	}
	return maxResults
}

// FilterTripsAll fetches every trip matching req, using req.MaxResults as
// the page size and req.SkipFirst as the starting offset. The returned
// response carries the first page's totals and all trips in order.
func FilterTripsAll(ctx context.Context, api *Client, req protocol.PaxMonFilterTripsRequest, cfg pagination.Config) (*protocol.PaxMonFilterTripsResponse, error) {
	size := pageSize(req.MaxResults)
	var first *protocol.PaxMonFilterTripsResponse

	fetcher := pagination.NewBatchFetcher(func(ctx context.Context, page int) ([]protocol.PaxMonFilteredTripInfo, int, error) {
		r := req
		r.SkipFirst, r.MaxResults = pageRequest(req.SkipFirst, size, page)
		resp, err := api.FilterTrips(ctx, r)
		if err != nil {
			return nil, 0, err
		}
		if page == 1 {
			first = resp
		}
		return resp.Trips, pageCount(resp.TotalMatchingTrips, req.SkipFirst, size), nil
	}, cfg)

	trips, err := fetcher.FetchAll(ctx, epFilterTrips.Name)
	if first == nil {
		return nil, err
	}

	out := *first
	out.Trips = trips
	out.FilteredTrips = uint64(len(trips))
	out.NextSkip = uint64(req.SkipFirst) + uint64(len(trips))
	out.RemainingTrips = remaining(out.TotalMatchingTrips, out.NextSkip)
	return &out, err
}

// FilterGroupsAll fetches every group matching req. See FilterTripsAll.
func FilterGroupsAll(ctx context.Context, api *Client, req protocol.PaxMonFilterGroupsRequest, cfg pagination.Config) (*protocol.PaxMonFilterGroupsResponse, error) {
	size := pageSize(req.MaxResults)
	var first *protocol.PaxMonFilterGroupsResponse

	fetcher := pagination.NewBatchFetcher(func(ctx context.Context, page int) ([]protocol.PaxMonGroupWithStats, int, error) {
		r := req
		r.SkipFirst, r.MaxResults = pageRequest(req.SkipFirst, size, page)
		resp, err := api.FilterGroups(ctx, r)
		if err != nil {
			return nil, 0, err
		}
		if page == 1 {
			first = resp
		}
		return resp.Groups, pageCount(resp.TotalMatchingGroups, req.SkipFirst, size), nil
	}, cfg)

	groups, err := fetcher.FetchAll(ctx, epFilterGroups.Name)
	if first == nil {
		return nil, err
	}

	out := *first
	out.Groups = groups
	out.FilteredGroups = uint64(len(groups))
	out.NextSkip = uint64(req.SkipFirst) + uint64(len(groups))
	out.RemainingGroups = remaining(out.TotalMatchingGroups, out.NextSkip)
	return &out, err
}

// BrokenTransfersAll fetches every broken transfer matching req. See
// FilterTripsAll.
func BrokenTransfersAll(ctx context.Context, api *Client, req protocol.PaxMonBrokenTransfersRequest, cfg pagination.Config) (*protocol.PaxMonBrokenTransfersResponse, error) {
	size := pageSize(req.MaxResults)
	var first *protocol.PaxMonBrokenTransfersResponse

	fetcher := pagination.NewBatchFetcher(func(ctx context.Context, page int) ([]json.RawMessage, int, error) {
		r := req
		r.SkipFirst, r.MaxResults = pageRequest(req.SkipFirst, size, page)
		resp, err := api.BrokenTransfers(ctx, r)
		if err != nil {
			return nil, 0, err
		}
		if page == 1 {
			first = resp
		}
		return resp.Transfers, pageCount(resp.TotalMatchingTransfers, req.SkipFirst, size), nil
	}, cfg)

	transfers, err := fetcher.FetchAll(ctx, epBrokenTransfers.Name)
	if first == nil {
		return nil, err
	}

	out := *first
	out.Transfers = transfers
	out.TransfersInResult = uint64(len(transfers))
	out.NextSkip = uint64(req.SkipFirst) + uint64(len(transfers))
	out.RemainingTransfers = remaining(out.TotalMatchingTransfers, out.NextSkip)
	return &out, err
}

func remaining(total, next uint64) uint64 {
	if next >= total {
		return 0
	}
	return total - next
}
