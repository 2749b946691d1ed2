package paxmon

import (
	"math"

	"github.com/motis-project/paxmon-client/pkg/protocol"
	"github.com/motis-project/paxmon-client/pkg/query"
)

// Domain is the first element of every paxmon query key.
const Domain = "paxmon"

// QueryKeys builds the cache keys of paxmon queries. Keys are pure values:
// equal arguments yield equal keys. Request structs are embedded as-is so
// two requests with the same fields share a key.
//
// Every key starts with All(), so invalidating All() drops every cached
// paxmon result; keys under Trip() can be dropped together the same way.
var QueryKeys Keys

// Keys is the type of QueryKeys.
type Keys struct{}

// All is the root of every paxmon key.
func (Keys) All() query.Key {
	return query.Key{Domain}
}

// Status keys the status of a universe.
func (k Keys) Status(universe uint32) query.Key {
	return k.All().Append("status", universe)
}

// FindTrips keys a train number search. A train number that is missing or
// not a valid uint32 (NaN, infinite, negative, too large) is keyed as null.
func (k Keys) FindTrips(universe uint32, trainNr *float64) query.Key {
	var nr any
	if _, ok := validTrainNr(trainNr); ok {
		nr = *trainNr
	}
	return k.All().Append("find_trips", universe, nr)
}

// validTrainNr converts a search field value into a train number.
func validTrainNr(trainNr *float64) (uint32, bool) {
	if trainNr == nil {
		return 0, false
	}
	n := *trainNr
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n > math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

// Trip is the parent of every per-trip key.
func (k Keys) Trip() query.Key {
	return k.All().Append("trip")
}

// TripLoad keys the load info of a single trip.
func (k Keys) TripLoad(universe uint32, tripID protocol.TripID) query.Key {
	return k.Trip().Append("load", universe, tripID)
}

// TripGroups keys the groups of a trip. It lives under Trip().
func (k Keys) TripGroups(req protocol.PaxMonGetGroupsInTripRequest) query.Key {
	return k.Trip().Append("groups", req)
}

// FilterTrips keys one filter_trips page.
func (k Keys) FilterTrips(req protocol.PaxMonFilterTripsRequest) query.Key {
	return k.All().Append("filter_trips", req)
}

// FilterGroups keys one filter_groups page.
func (k Keys) FilterGroups(req protocol.PaxMonFilterGroupsRequest) query.Key {
	return k.All().Append("filter_groups", req)
}

// GetGroups keys a group lookup by id or data source.
func (k Keys) GetGroups(req protocol.PaxMonGetGroupsRequest) query.Key {
	return k.All().Append("get_groups", req)
}

// AddressableGroups keys the addressable groups of a trip.
func (k Keys) AddressableGroups(req protocol.PaxMonGetAddressableGroupsRequest) query.Key {
	return k.All().Append("addressable_groups", req)
}

// KeepAlive keys a keep-alive request.
func (k Keys) KeepAlive(req protocol.PaxMonKeepAliveRequest) query.Key {
	return k.All().Append("keep_alive", req)
}

// GroupStatistics keys the group histograms of a universe.
func (k Keys) GroupStatistics(req protocol.PaxMonGroupStatisticsRequest) query.Key {
	return k.All().Append("group_statistics", req)
}

// DebugGraph keys a debug subgraph request.
func (k Keys) DebugGraph(req protocol.PaxMonDebugGraphRequest) query.Key {
	return k.All().Append("debug_graph", req)
}

// Universes keys the universe listing.
func (k Keys) Universes() query.Key {
	return k.All().Append("universes")
}

// TripCapacity keys capacity data for a set of trips.
func (k Keys) TripCapacity(req protocol.PaxMonGetTripCapacityRequest) query.Key {
	return k.All().Append("trip_capacity", req)
}

// CapacityStatus keys the capacity coverage summary.
func (k Keys) CapacityStatus(req protocol.PaxMonCapacityStatusRequest) query.Key {
	return k.All().Append("capacity_status", req)
}

// DetailedCapacityStatus keys the per-vehicle capacity coverage.
func (k Keys) DetailedCapacityStatus(req protocol.PaxMonDetailedCapacityStatusRequest) query.Key {
	return k.All().Append("detailed_capacity_status", req)
}

// Metrics keys the time series metrics of a universe.
func (k Keys) Metrics(req protocol.PaxMonMetricsRequest) query.Key {
	return k.All().Append("metrics", req)
}

// BrokenTransfers keys one broken_transfers page.
func (k Keys) BrokenTransfers(req protocol.PaxMonBrokenTransfersRequest) query.Key {
	return k.All().Append("broken_transfers", req)
}

// TransferDetails keys the details of one transfer.
func (k Keys) TransferDetails(req protocol.PaxMonTransferDetailsRequest) query.Key {
	return k.All().Append("transfer_details", req)
}

// ReviseCompactJourney keys a journey revision request.
func (k Keys) ReviseCompactJourney(req protocol.PaxMonReviseCompactJourneyRequest) query.Key {
	return k.All().Append("revise_compact_journey", req)
}

// DatasetInfo keys the dataset description.
func (k Keys) DatasetInfo() query.Key {
	return k.All().Append("dataset_info")
}
