package paxmon

import (
	"context"

	"github.com/motis-project/paxmon-client/pkg/protocol"
	"github.com/motis-project/paxmon-client/pkg/query"
)

// StatusQuery reads the status of a universe. The status changes with
// every realtime update, so it is always revalidated.
func StatusQuery(api *Client, universe uint32) query.Query[*protocol.PaxMonStatusResponse] {
	return query.New(QueryKeys.Status(universe),
		func(ctx context.Context) (*protocol.PaxMonStatusResponse, error) {
			return api.Status(ctx, protocol.PaxMonStatusRequest{Universe: universe})
		},
		query.WithStaleTime(0),
	)
}

// FindTripsQuery searches trips with paxmon data by train number. The query
// stays disabled while trainNr is missing or not a usable uint32, e.g. while
// a search field is empty. With keepPrevious the previous hits remain
// visible meanwhile.
func FindTripsQuery(api *Client, universe uint32, trainNr *float64, keepPrevious bool) query.Query[*protocol.PaxMonFindTripsResponse] {
	nr, enabled := validTrainNr(trainNr)

	req := protocol.PaxMonFindTripsRequest{
		Universe:                universe,
		TrainNr:                 nr,
		OnlyTripsWithPaxMonData: true,
		FilterClass:             false,
		MaxClass:                0,
	}

	return query.New(QueryKeys.FindTrips(universe, trainNr),
		func(ctx context.Context) (*protocol.PaxMonFindTripsResponse, error) {
			return api.FindTrips(ctx, req)
		},
		query.WithEnabled(enabled),
		query.WithKeepPreviousData(keepPrevious),
	)
}

// GroupsInTripQuery reads the groups on each section of a trip.
func GroupsInTripQuery(api *Client, req protocol.PaxMonGetGroupsInTripRequest) query.Query[*protocol.PaxMonGetGroupsInTripResponse] {
	return query.New(QueryKeys.TripGroups(req),
		func(ctx context.Context) (*protocol.PaxMonGetGroupsInTripResponse, error) {
			return api.GroupsInTrip(ctx, req)
		},
	)
}

// AddressableGroupsQuery reads the addressable groups of a trip.
func AddressableGroupsQuery(api *Client, req protocol.PaxMonGetAddressableGroupsRequest) query.Query[*protocol.PaxMonGetAddressableGroupsResponse] {
	return query.New(QueryKeys.AddressableGroups(req),
		func(ctx context.Context) (*protocol.PaxMonGetAddressableGroupsResponse, error) {
			return api.AddressableGroups(ctx, req)
		},
	)
}

// FilterTripsQuery reads one page of filtered trips.
func FilterTripsQuery(api *Client, req protocol.PaxMonFilterTripsRequest) query.Query[*protocol.PaxMonFilterTripsResponse] {
	return query.New(QueryKeys.FilterTrips(req),
		func(ctx context.Context) (*protocol.PaxMonFilterTripsResponse, error) {
			return api.FilterTrips(ctx, req)
		},
	)
}

// FilterGroupsQuery reads one page of filtered groups.
func FilterGroupsQuery(api *Client, req protocol.PaxMonFilterGroupsRequest) query.Query[*protocol.PaxMonFilterGroupsResponse] {
	return query.New(QueryKeys.FilterGroups(req),
		func(ctx context.Context) (*protocol.PaxMonFilterGroupsResponse, error) {
			return api.FilterGroups(ctx, req)
		},
	)
}

// GetGroupsQuery reads groups by id or data source.
func GetGroupsQuery(api *Client, req protocol.PaxMonGetGroupsRequest) query.Query[*protocol.PaxMonGetGroupsResponse] {
	return query.New(QueryKeys.GetGroups(req),
		func(ctx context.Context) (*protocol.PaxMonGetGroupsResponse, error) {
			return api.GetGroups(ctx, req)
		},
	)
}

// GroupStatisticsQuery reads the group histograms of a universe.
func GroupStatisticsQuery(api *Client, req protocol.PaxMonGroupStatisticsRequest) query.Query[*protocol.PaxMonGroupStatisticsResponse] {
	return query.New(QueryKeys.GroupStatistics(req),
		func(ctx context.Context) (*protocol.PaxMonGroupStatisticsResponse, error) {
			return api.GroupStatistics(ctx, req)
		},
	)
}

// TripCapacityQuery reads capacity data of the requested trips.
func TripCapacityQuery(api *Client, req protocol.PaxMonGetTripCapacityRequest) query.Query[*protocol.PaxMonGetTripCapacityResponse] {
	return query.New(QueryKeys.TripCapacity(req),
		func(ctx context.Context) (*protocol.PaxMonGetTripCapacityResponse, error) {
			return api.TripCapacity(ctx, req)
		},
	)
}

// UniversesQuery lists the universes of the multiverse.
func UniversesQuery(api *Client) query.Query[*protocol.PaxMonGetUniversesResponse] {
	return query.New(QueryKeys.Universes(),
		func(ctx context.Context) (*protocol.PaxMonGetUniversesResponse, error) {
			return api.GetUniverses(ctx)
		},
	)
}

// DatasetInfoQuery describes the loaded data set. It only changes when the
// backend restarts.
func DatasetInfoQuery(api *Client) query.Query[*protocol.PaxMonDatasetInfoResponse] {
	return query.New(QueryKeys.DatasetInfo(),
		func(ctx context.Context) (*protocol.PaxMonDatasetInfoResponse, error) {
			return api.DatasetInfo(ctx)
		},
	)
}
