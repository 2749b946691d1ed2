package protocol

import "encoding/json"

// Universe 0 is the primary universe. Forked universes get ids > 0.
const PrimaryUniverse uint32 = 0

// PaxMonStatusRequest requests the tracking status of a universe.
type PaxMonStatusRequest struct {
	Universe uint32 `json:"universe"`
}

// PaxMonFeedStatus describes the state of one realtime input feed.
type PaxMonFeedStatus struct {
	Enabled           bool  `json:"enabled"`
	ReceivingMessages bool  `json:"receiving_messages"`
	UpToDate          bool  `json:"up_to_date"`
	LastUpdateTime    int64 `json:"last_update_time"`
	LastMessageTime   int64 `json:"last_message_time"`
}

// PaxMonStatusResponse summarizes a universe.
type PaxMonStatusResponse struct {
	SystemTime       int64            `json:"system_time"`
	MultiverseID     int64            `json:"multiverse_id"`
	ActiveGroups     uint64           `json:"active_groups"`
	TripCount        uint64           `json:"trip_count"`
	PrimarySysTime   int64            `json:"primary_system_time"`
	RibasisFeed      PaxMonFeedStatus `json:"ribasis_fahrt_status"`
	RibasisFormation PaxMonFeedStatus `json:"ribasis_formation_status"`
}

// PaxMonGetTripLoadInfosRequest requests load information for trips.
type PaxMonGetTripLoadInfosRequest struct {
	Universe uint32   `json:"universe"`
	Trips    []TripID `json:"trips"`
}

// PaxMonEdgeLoadInfo is the load of one trip section.
type PaxMonEdgeLoadInfo struct {
	From               Station         `json:"from"`
	To                 Station         `json:"to"`
	DepartureSchedule  int64           `json:"departure_schedule_time"`
	DepartureCurrent   int64           `json:"departure_current_time"`
	ArrivalSchedule    int64           `json:"arrival_schedule_time"`
	ArrivalCurrent     int64           `json:"arrival_current_time"`
	CapacityType       string          `json:"capacity_type"`
	Capacity           uint32          `json:"capacity"`
	PassengerCDF       json.RawMessage `json:"passenger_cdf"`
	Updated            bool            `json:"updated"`
	ProbOverCapacity   float64         `json:"prob_over_capacity"`
	ExpectedPassengers float64         `json:"expected_passengers"`
}

// PaxMonTripLoadInfo is the load of every section of a trip.
type PaxMonTripLoadInfo struct {
	Tsi   TripServiceInfo      `json:"tsi"`
	Edges []PaxMonEdgeLoadInfo `json:"edges"`
}

// PaxMonGetTripLoadInfosResponse carries load infos in request order.
type PaxMonGetTripLoadInfosResponse struct {
	LoadInfos []PaxMonTripLoadInfo `json:"load_infos"`
}

// PaxMonFindTripsRequest searches trips by train number.
type PaxMonFindTripsRequest struct {
	Universe                uint32 `json:"universe"`
	TrainNr                 uint32 `json:"train_nr"`
	OnlyTripsWithPaxMonData bool   `json:"only_trips_with_paxmon_data"`
	FilterClass             bool   `json:"filter_class"`
	MaxClass                uint32 `json:"max_class"`
}

// PaxMonTripInfo is a search hit.
type PaxMonTripInfo struct {
	Tsi                      TripServiceInfo `json:"tsi"`
	HasPaxMonData            bool            `json:"has_paxmon_data"`
	AllEdgesHaveCapacityInfo bool            `json:"all_edges_have_capacity_info"`
	HasPassengers            bool            `json:"has_passengers"`
}

// PaxMonFindTripsResponse lists matching trips.
type PaxMonFindTripsResponse struct {
	Trips []PaxMonTripInfo `json:"trips"`
}

// PaxMonGetGroupsInTripRequest lists the groups on each section of a trip.
type PaxMonGetGroupsInTripRequest struct {
	Universe          uint32 `json:"universe"`
	Trip              TripID `json:"trip"`
	Filter            string `json:"filter"`
	GroupByStation    string `json:"group_by_station"`
	GroupByOtherTrip  bool   `json:"group_by_other_trip"`
	IncludeGroupInfos bool   `json:"include_group_infos"`
}

// PaxMonGetGroupsInTripResponse holds per-section group summaries.
type PaxMonGetGroupsInTripResponse struct {
	Sections []json.RawMessage `json:"sections"`
}

// PaxMonGetAddressableGroupsRequest lists groups that can be addressed on a trip.
type PaxMonGetAddressableGroupsRequest struct {
	Universe uint32 `json:"universe"`
	Trip     TripID `json:"trip"`
}

// PaxMonGetAddressableGroupsResponse holds addressable group sections.
type PaxMonGetAddressableGroupsResponse struct {
	Sections    []json.RawMessage `json:"sections"`
	GroupRoutes []json.RawMessage `json:"group_routes"`
}

// PaxMonForkUniverseRequest creates a copy of a universe.
type PaxMonForkUniverseRequest struct {
	Universe     uint32 `json:"universe"`
	ForkSchedule bool   `json:"fork_schedule"`
	TTL          uint32 `json:"ttl"`
}

// PaxMonForkUniverseResponse identifies the new universe.
type PaxMonForkUniverseResponse struct {
	Universe uint32 `json:"universe"`
	Schedule uint64 `json:"schedule"`
	TTL      uint32 `json:"ttl"`
}

// PaxMonDestroyUniverseRequest deletes a forked universe.
type PaxMonDestroyUniverseRequest struct {
	Universe uint32 `json:"universe"`
}

// PaxMonFilterTripsRequest selects and sorts trips by load.
type PaxMonFilterTripsRequest struct {
	Universe                        uint32   `json:"universe"`
	IgnorePastSections              bool     `json:"ignore_past_sections"`
	IncludeLoadThreshold            float64  `json:"include_load_threshold"`
	CriticalLoadThreshold           float64  `json:"critical_load_threshold"`
	CrowdedLoadThreshold            float64  `json:"crowded_load_threshold"`
	IncludeEdges                    bool     `json:"include_edges"`
	SortBy                          string   `json:"sort_by"`
	MaxResults                      uint32   `json:"max_results"`
	SkipFirst                       uint32   `json:"skip_first"`
	FilterByTime                    string   `json:"filter_by_time"`
	FilterInterval                  Interval `json:"filter_interval"`
	FilterByTrainNr                 bool     `json:"filter_by_train_nr"`
	FilterTrainNrs                  []uint32 `json:"filter_train_nrs"`
	FilterByServiceClass            bool     `json:"filter_by_service_class"`
	FilterServiceClasses            []uint32 `json:"filter_service_classes"`
	FilterByCapacityStatus          bool     `json:"filter_by_capacity_status"`
	FilterHasTripFormation          bool     `json:"filter_has_trip_formation"`
	FilterHasCapacityForAllSections bool     `json:"filter_has_capacity_for_all_sections"`
}

// PaxMonFilteredTripInfo is one trip matched by a filter request.
type PaxMonFilteredTripInfo struct {
	Tsi                 TripServiceInfo `json:"tsi"`
	SectionCount        uint32          `json:"section_count"`
	CriticalSections    uint32          `json:"critical_sections"`
	CrowdedSections     uint32          `json:"crowded_sections"`
	MaxExcessPax        uint32          `json:"max_excess_pax"`
	CumulativeExcessPax uint32          `json:"cumulative_excess_pax"`
	MaxLoad             float64         `json:"max_load"`
	MaxExpectedPax      uint32          `json:"max_expected_pax"`
	Edges               json.RawMessage `json:"edges,omitempty"`
}

// PaxMonFilterTripsResponse is one page of filtered trips.
type PaxMonFilterTripsResponse struct {
	TotalMatchingTrips    uint64                   `json:"total_matching_trips"`
	FilteredTrips         uint64                   `json:"filtered_trips"`
	RemainingTrips        uint64                   `json:"remaining_trips"`
	NextSkip              uint64                   `json:"next_skip"`
	TotalCriticalSections uint64                   `json:"total_critical_sections"`
	Trips                 []PaxMonFilteredTripInfo `json:"trips"`
}

// PaxMonFilterGroupsRequest selects and sorts passenger groups.
type PaxMonFilterGroupsRequest struct {
	Universe              uint32            `json:"universe"`
	SortBy                string            `json:"sort_by"`
	MaxResults            uint32            `json:"max_results"`
	SkipFirst             uint32            `json:"skip_first"`
	IncludeReroutes       bool              `json:"include_reroutes"`
	FilterByStart         []string          `json:"filter_by_start"`
	FilterByDestination   []string          `json:"filter_by_destination"`
	FilterByViaStations   []string          `json:"filter_by_via"`
	FilterByGroupID       []uint64          `json:"filter_by_group_id"`
	FilterByDataSource    []json.RawMessage `json:"filter_by_data_source"`
	FilterByTrainNr       []uint32          `json:"filter_by_train_nr"`
	FilterByTimeMode      string            `json:"filter_by_time"`
	FilterInterval        Interval          `json:"filter_interval"`
	FilterByRerouteReason []string          `json:"filter_by_reroute_reason"`
}

// PaxMonGroupWithStats is a group plus derived statistics.
type PaxMonGroupWithStats struct {
	Group                      PaxMonGroup `json:"group"`
	MinEstimatedDelay          int32       `json:"min_estimated_delay"`
	MaxEstimatedDelay          int32       `json:"max_estimated_delay"`
	ExpectedEstimatedDelay     float32     `json:"expected_estimated_delay"`
	ProbDestinationUnreachable float32     `json:"prob_destination_unreachable"`
}

// PaxMonFilterGroupsResponse is one page of filtered groups.
type PaxMonFilterGroupsResponse struct {
	TotalMatchingGroups     uint64                 `json:"total_matching_groups"`
	TotalMatchingPassengers uint64                 `json:"total_matching_passengers"`
	FilteredGroups          uint64                 `json:"filtered_groups"`
	RemainingGroups         uint64                 `json:"remaining_groups"`
	NextSkip                uint64                 `json:"next_skip"`
	Groups                  []PaxMonGroupWithStats `json:"groups"`
}

// PaxMonDataSource identifies where a group was loaded from.
type PaxMonDataSource struct {
	PrimaryRef   uint64 `json:"primary_ref"`
	SecondaryRef uint64 `json:"secondary_ref"`
}

// PaxMonCompactJourneyLeg is one ride of a compact journey.
type PaxMonCompactJourneyLeg struct {
	Trip          TripServiceInfo `json:"trip"`
	EnterStation  Station         `json:"enter_station"`
	ExitStation   Station         `json:"exit_station"`
	EnterTime     int64           `json:"enter_time"`
	ExitTime      int64           `json:"exit_time"`
	EnterTransfer json.RawMessage `json:"enter_transfer,omitempty"`
}

// PaxMonCompactJourney is the condensed itinerary of a group route.
type PaxMonCompactJourney struct {
	Legs          []PaxMonCompactJourneyLeg `json:"legs"`
	FinalFootpath json.RawMessage           `json:"final_footpath,omitempty"`
}

// PaxMonGroupRoute is one alternative route of a group.
type PaxMonGroupRoute struct {
	Index                  int32                `json:"index"`
	Journey                PaxMonCompactJourney `json:"journey"`
	Probability            float32              `json:"probability"`
	PlannedArrivalTime     int64                `json:"planned_arrival_time"`
	EstimatedDelay         int32                `json:"estimated_delay"`
	SourceFlags            uint8                `json:"source_flags"`
	Planned                bool                 `json:"planned"`
	Broken                 bool                 `json:"broken"`
	Disabled               bool                 `json:"disabled"`
	DestinationUnreachable bool                 `json:"destination_unreachable"`
}

// PaxMonGroup is a cohort of passengers sharing an itinerary.
type PaxMonGroup struct {
	ID             uint64             `json:"id"`
	Source         PaxMonDataSource   `json:"source"`
	PassengerCount uint32             `json:"passenger_count"`
	Routes         []PaxMonGroupRoute `json:"routes"`
	RerouteLog     []json.RawMessage  `json:"reroute_log"`
}

// PaxMonGetGroupsRequest fetches groups by id or data source.
type PaxMonGetGroupsRequest struct {
	Universe          uint32             `json:"universe"`
	IDs               []uint64           `json:"ids"`
	Sources           []PaxMonDataSource `json:"sources"`
	AllGenerations    bool               `json:"all_generations"`
	IncludeRerouteLog bool               `json:"include_reroute_log"`
}

// PaxMonGetGroupsResponse carries the requested groups.
type PaxMonGetGroupsResponse struct {
	Groups []PaxMonGroup `json:"groups"`
}

// PaxMonKeepAliveRequest extends the lifetime of forked universes.
type PaxMonKeepAliveRequest struct {
	MultiverseID int64    `json:"multiverse_id"`
	Universes    []uint32 `json:"universes"`
}

// PaxMonUniverseKeepAliveInfo reports the remaining lifetime of a universe.
type PaxMonUniverseKeepAliveInfo struct {
	Universe  uint32 `json:"universe"`
	Schedule  uint64 `json:"schedule"`
	ExpiresIn uint32 `json:"expires_in"`
}

// PaxMonKeepAliveResponse lists universes still alive and those already gone.
type PaxMonKeepAliveResponse struct {
	MultiverseID int64                         `json:"multiverse_id"`
	Alive        []PaxMonUniverseKeepAliveInfo `json:"alive"`
	Expired      []uint32                      `json:"expired"`
}

// PaxMonGroupStatisticsRequest requests histograms over all groups.
type PaxMonGroupStatisticsRequest struct {
	Universe        uint32 `json:"universe"`
	CountPassengers bool   `json:"count_passengers"`
}

// PaxMonHistogram is a bucketed distribution.
type PaxMonHistogram struct {
	MinValue    int32    `json:"min_value"`
	MaxValue    int32    `json:"max_value"`
	AvgValue    float32  `json:"avg_value"`
	MedianValue float32  `json:"median_value"`
	MaxCount    uint32   `json:"max_count"`
	TotalCount  uint32   `json:"total_count"`
	Counts      []uint32 `json:"counts"`
}

// PaxMonGroupStatisticsResponse carries group statistics.
type PaxMonGroupStatisticsResponse struct {
	GroupCount                   uint32          `json:"group_count"`
	TotalGroupRouteCount         uint32          `json:"total_group_route_count"`
	ActiveGroupRouteCount        uint32          `json:"active_group_route_count"`
	UnreachableDestinationGroups uint32          `json:"unreachable_destination_groups"`
	TotalPax                     uint32          `json:"total_pax"`
	UnreachableDestinationPax    uint32          `json:"unreachable_destination_pax"`
	MinEstimatedDelay            PaxMonHistogram `json:"min_estimated_delay"`
	MaxEstimatedDelay            PaxMonHistogram `json:"max_estimated_delay"`
	ExpectedEstimatedDelay       PaxMonHistogram `json:"expected_estimated_delay"`
	RoutesPerGroup               PaxMonHistogram `json:"routes_per_group"`
	ActiveRoutesPerGroup         PaxMonHistogram `json:"active_routes_per_group"`
	ReroutesPerGroup             PaxMonHistogram `json:"reroutes_per_group"`
	GroupRouteProbabilities      PaxMonHistogram `json:"group_route_probabilities"`
}

// PaxMonDebugGraphRequest requests a subgraph of the monitoring graph.
type PaxMonDebugGraphRequest struct {
	Universe                        uint32            `json:"universe"`
	NodeIndices                     []uint32          `json:"node_indices"`
	GroupRoutes                     []json.RawMessage `json:"group_routes"`
	TripIDs                         []TripID          `json:"trip_ids"`
	FilterGroups                    bool              `json:"filter_groups"`
	IncludeFullTripsFromGroupRoutes bool              `json:"include_full_trips_from_group_routes"`
	IncludeCanceledTripNodes        bool              `json:"include_canceled_trip_nodes"`
}

// PaxMonDebugGraphResponse holds raw graph nodes and edges.
type PaxMonDebugGraphResponse struct {
	GraphGeneration uint32            `json:"graph_generation"`
	Nodes           []json.RawMessage `json:"nodes"`
	Edges           []json.RawMessage `json:"edges"`
}

// PaxMonUniverseInfo describes a universe of the multiverse.
type PaxMonUniverseInfo struct {
	Universe  uint32 `json:"universe"`
	Schedule  uint64 `json:"schedule"`
	TTL       uint32 `json:"ttl"`
	ExpiresAt int64  `json:"expires_at"`
}

// PaxMonGetUniversesResponse lists all universes.
type PaxMonGetUniversesResponse struct {
	MultiverseID int64                `json:"multiverse_id"`
	Universes    []PaxMonUniverseInfo `json:"universes"`
}

// PaxMonGetTripCapacityRequest requests capacity details for trips.
type PaxMonGetTripCapacityRequest struct {
	Universe uint32   `json:"universe"`
	Trips    []TripID `json:"trips"`
}

// PaxMonTripCapacityInfo holds capacity data of one trip.
type PaxMonTripCapacityInfo struct {
	Tsi      TripServiceInfo   `json:"tsi"`
	Status   json.RawMessage   `json:"status"`
	Sections []json.RawMessage `json:"sections"`
}

// PaxMonGetTripCapacityResponse carries capacity data per trip.
type PaxMonGetTripCapacityResponse struct {
	Trips                   []PaxMonTripCapacityInfo `json:"trips"`
	MinCapacity             uint32                   `json:"min_capacity"`
	FuzzyMatchMaxTimeDiff   int32                    `json:"fuzzy_match_max_time_diff"`
	TripCapacityMapSize     uint64                   `json:"trip_capacity_map_size"`
	CategoryCapacityMapSize uint64                   `json:"category_capacity_map_size"`
	VehicleCapacityMapSize  uint64                   `json:"vehicle_capacity_map_size"`
	TripFormationMapSize    uint64                   `json:"trip_formation_map_size"`
}

// PaxMonCapacityStatusRequest requests aggregated capacity coverage.
type PaxMonCapacityStatusRequest struct {
	Universe       uint32   `json:"universe"`
	FilterByTime   string   `json:"filter_by_time"`
	FilterInterval Interval `json:"filter_interval"`
}

// PaxMonCapacityStatusResponse reports coverage counters.
type PaxMonCapacityStatusResponse struct {
	AllTrips          json.RawMessage   `json:"all_trips"`
	HighSpeedTrips    json.RawMessage   `json:"high_speed_rail_trips"`
	LongDistanceTrips json.RawMessage   `json:"long_distance_trips"`
	OtherTrips        json.RawMessage   `json:"other_trips"`
	ByCategory        []json.RawMessage `json:"by_category"`
	ByProvider        []json.RawMessage `json:"by_provider"`
}

// PaxMonDetailedCapacityStatusRequest requests per-vehicle coverage.
type PaxMonDetailedCapacityStatusRequest struct {
	Universe                   uint32   `json:"universe"`
	FilterByTime               string   `json:"filter_by_time"`
	FilterInterval             Interval `json:"filter_interval"`
	IncludeMissingVehicleInfos bool     `json:"include_missing_vehicle_infos"`
	IncludeUICsNotFound        bool     `json:"include_uics_not_found"`
}

// PaxMonDetailedCapacityStatusResponse reports detailed coverage.
type PaxMonDetailedCapacityStatusResponse struct {
	AllTrips            json.RawMessage   `json:"all_trips"`
	MissingVehicleInfos []json.RawMessage `json:"missing_vehicle_infos"`
	UICsNotFound        []uint64          `json:"uics_not_found"`
}

// PaxMonMetricsRequest requests time series metrics.
type PaxMonMetricsRequest struct {
	Universe uint32 `json:"universe"`
}

// PaxMonMetrics is a time series set with a shared start and step.
type PaxMonMetrics struct {
	StartTime  int64           `json:"start_time"`
	EntryCount uint32          `json:"entry_count"`
	Values     json.RawMessage `json:"values"`
}

// PaxMonMetricsResponse carries metrics by system and processing time.
type PaxMonMetricsResponse struct {
	BySystemTime     PaxMonMetrics `json:"by_system_time"`
	ByProcessingTime PaxMonMetrics `json:"by_processing_time"`
}

// PaxMonBrokenTransfersRequest lists broken transfers.
type PaxMonBrokenTransfersRequest struct {
	Universe                        uint32   `json:"universe"`
	FilterInterval                  Interval `json:"filter_interval"`
	IgnorePastTransfers             bool     `json:"ignore_past_transfers"`
	IncludeInsufficientTransferTime bool     `json:"include_insufficient_transfer_time"`
	IncludeMissedInitialDeparture   bool     `json:"include_missed_initial_departure"`
	IncludeCanceledTransfer         bool     `json:"include_canceled_transfer"`
	IncludeCanceledInitialDeparture bool     `json:"include_canceled_initial_departure"`
	IncludeCanceledFinalArrival     bool     `json:"include_canceled_final_arrival"`
	OnlyPlannedRoutes               bool     `json:"only_planned_routes"`
	SortBy                          string   `json:"sort_by"`
	MaxResults                      uint32   `json:"max_results"`
	SkipFirst                       uint32   `json:"skip_first"`
}

// PaxMonTransferID identifies a transfer by node and edge index.
type PaxMonTransferID struct {
	N uint32 `json:"n"`
	E uint32 `json:"e"`
}

// PaxMonBrokenTransfersResponse is one page of broken transfers.
type PaxMonBrokenTransfersResponse struct {
	TotalMatchingTransfers uint64            `json:"total_matching_transfers"`
	TransfersInResult      uint64            `json:"transfers_in_result"`
	RemainingTransfers     uint64            `json:"remaining_transfers"`
	NextSkip               uint64            `json:"next_skip"`
	Transfers              []json.RawMessage `json:"transfers"`
}

// PaxMonTransferDetailsRequest requests one transfer with affected groups.
type PaxMonTransferDetailsRequest struct {
	Universe                   uint32           `json:"universe"`
	ID                         PaxMonTransferID `json:"id"`
	IncludeDisabledGroupRoutes bool             `json:"include_disabled_group_routes"`
	IncludeFullGroups          bool             `json:"include_full_groups"`
	IncludeRerouteLog          bool             `json:"include_reroute_log"`
}

// PaxMonTransferDetailsResponse carries transfer info and its groups.
type PaxMonTransferDetailsResponse struct {
	Info   json.RawMessage `json:"info"`
	Groups []PaxMonGroup   `json:"groups"`
}

// PaxMonReviseCompactJourneyRequest converts compact journeys into full
// connections using the current schedule of a universe.
type PaxMonReviseCompactJourneyRequest struct {
	Universe uint32                 `json:"universe"`
	Journeys []PaxMonCompactJourney `json:"journeys"`
}

// PaxMonReviseCompactJourneyResponse carries one connection per journey.
type PaxMonReviseCompactJourneyResponse struct {
	Connections []Connection `json:"connections"`
}

// PaxMonDatasetInfoResponse describes the loaded input data.
type PaxMonDatasetInfoResponse struct {
	JourneyFiles   []json.RawMessage `json:"journey_files"`
	CapacityFiles  []json.RawMessage `json:"capacity_files"`
	Schedule       json.RawMessage   `json:"schedule"`
	MotisStartTime int64             `json:"motis_start_time"`
}
