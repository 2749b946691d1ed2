package paxmon

import "strings"

// Endpoint describes one backend operation: the target path and the
// content types of its request and response envelopes.
type Endpoint struct {
	// Name is the operation name used by the CLI, e.g. "status".
	Name string

	// Path is the MOTIS target, e.g. "/paxmon/status".
	Path string

	// RequestType is empty for endpoints that take no payload.
	RequestType string

	ResponseType string
}

// HasPayload reports whether the endpoint expects a request payload.
func (e Endpoint) HasPayload() bool {
	return e.RequestType != ""
}

var (
	epStatus                 = Endpoint{"status", "/paxmon/status", "PaxMonStatusRequest", "PaxMonStatusResponse"}
	epTripLoadInfos          = Endpoint{"trip_load_info", "/paxmon/trip_load_info", "PaxMonGetTripLoadInfosRequest", "PaxMonGetTripLoadInfosResponse"}
	epFindTrips              = Endpoint{"find_trips", "/paxmon/find_trips", "PaxMonFindTripsRequest", "PaxMonFindTripsResponse"}
	epGroupsInTrip           = Endpoint{"groups_in_trip", "/paxmon/groups_in_trip", "PaxMonGetGroupsInTripRequest", "PaxMonGetGroupsInTripResponse"}
	epAddressableGroups      = Endpoint{"addressable_groups", "/paxmon/addressable_groups", "PaxMonGetAddressableGroupsRequest", "PaxMonGetAddressableGroupsResponse"}
	epForkUniverse           = Endpoint{"fork_universe", "/paxmon/fork_universe", "PaxMonForkUniverseRequest", "PaxMonForkUniverseResponse"}
	epDestroyUniverse        = Endpoint{"destroy_universe", "/paxmon/destroy_universe", "PaxMonDestroyUniverseRequest", "MotisSuccess"}
	epFilterTrips            = Endpoint{"filter_trips", "/paxmon/filter_trips", "PaxMonFilterTripsRequest", "PaxMonFilterTripsResponse"}
	epFilterGroups           = Endpoint{"filter_groups", "/paxmon/filter_groups", "PaxMonFilterGroupsRequest", "PaxMonFilterGroupsResponse"}
	epGetGroups              = Endpoint{"get_groups", "/paxmon/get_groups", "PaxMonGetGroupsRequest", "PaxMonGetGroupsResponse"}
	epKeepAlive              = Endpoint{"keep_alive", "/paxmon/keep_alive", "PaxMonKeepAliveRequest", "PaxMonKeepAliveResponse"}
	epGroupStatistics        = Endpoint{"group_statistics", "/paxmon/group_statistics", "PaxMonGroupStatisticsRequest", "PaxMonGroupStatisticsResponse"}
	epDebugGraph             = Endpoint{"debug_graph", "/paxmon/debug_graph", "PaxMonDebugGraphRequest", "PaxMonDebugGraphResponse"}
	epGetUniverses           = Endpoint{"universes", "/paxmon/universes", "", "PaxMonGetUniversesResponse"}
	epTripCapacity           = Endpoint{"trip_capacity", "/paxmon/trip_capacity", "PaxMonGetTripCapacityRequest", "PaxMonGetTripCapacityResponse"}
	epCapacityStatus         = Endpoint{"capacity_status", "/paxmon/capacity_status", "PaxMonCapacityStatusRequest", "PaxMonCapacityStatusResponse"}
	epDetailedCapacityStatus = Endpoint{"detailed_capacity_status", "/paxmon/detailed_capacity_status", "PaxMonDetailedCapacityStatusRequest", "PaxMonDetailedCapacityStatusResponse"}
	epMetrics                = Endpoint{"metrics", "/paxmon/metrics", "PaxMonMetricsRequest", "PaxMonMetricsResponse"}
	epBrokenTransfers        = Endpoint{"broken_transfers", "/paxmon/broken_transfers", "PaxMonBrokenTransfersRequest", "PaxMonBrokenTransfersResponse"}
	epTransferDetails        = Endpoint{"transfer_details", "/paxmon/transfer_details", "PaxMonTransferDetailsRequest", "PaxMonTransferDetailsResponse"}
	epReviseCompactJourney   = Endpoint{"revise_compact_journey", "/paxmon/revise_compact_journey", "PaxMonReviseCompactJourneyRequest", "PaxMonReviseCompactJourneyResponse"}
	epDatasetInfo            = Endpoint{"dataset_info", "/paxmon/dataset_info", "", "PaxMonDatasetInfoResponse"}
)

var endpoints = []Endpoint{
	epStatus,
	epTripLoadInfos,
	epFindTrips,
	epGroupsInTrip,
	epAddressableGroups,
	epForkUniverse,
	epDestroyUniverse,
	epFilterTrips,
	epFilterGroups,
	epGetGroups,
	epKeepAlive,
	epGroupStatistics,
	epDebugGraph,
	epGetUniverses,
	epTripCapacity,
	epCapacityStatus,
	epDetailedCapacityStatus,
	epMetrics,
	epBrokenTransfers,
	epTransferDetails,
	epReviseCompactJourney,
	epDatasetInfo,
}

// Endpoints returns every paxmon endpoint in a stable order.
func Endpoints() []Endpoint {
	out := make([]Endpoint, len(endpoints))
	copy(out, endpoints)
	return out
}

// LookupEndpoint finds an endpoint by name ("status", "find-trips") or by
// path ("/paxmon/status").
func LookupEndpoint(name string) (Endpoint, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
	for _, ep := range endpoints {
		if ep.Name == normalized || ep.Path == name {
			return ep, true
		}
	}
	return Endpoint{}, false
}
