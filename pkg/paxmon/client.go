// Package paxmon is the typed data-access layer for the passenger
// monitoring module of a MOTIS backend.
//
// Client has one method per backend endpoint. Each method sends the typed
// request, checks that the reply declares the expected content type and
// returns the decoded payload. QueryKeys and the *Query functions build on
// it for cached reads through package query.
package paxmon

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/motis-project/paxmon-client/pkg/logging"
	"github.com/motis-project/paxmon-client/pkg/protocol"
	"github.com/rs/zerolog"
)

// Sender delivers a request envelope to a MOTIS target and returns the
// reply envelope. An empty contentType means the request has no payload.
// *transport.Client implements it.
type Sender interface {
	SendRequest(ctx context.Context, target, contentType string, content any) (*protocol.Message, error)
}

// Client dispatches typed paxmon requests. It never retries or caches;
// both belong to the transport and the query engine. Safe for concurrent
// use when the Sender is.
type Client struct {
	sender Sender
	logger zerolog.Logger
}

// NewClient creates a dispatcher on top of sender.
func NewClient(sender Sender) *Client {
	if sender == nil {
		panic("paxmon: sender cannot be nil")
	}
	return &Client{
		sender: sender,
		logger: logging.NewLogger("paxmon"),
	}
}

// SetLogger replaces the component logger.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// send performs one request/response exchange for ep and decodes the reply
// into Resp. Content type mismatches are returned as *protocol.ContentTypeError.
func send[Resp any](ctx context.Context, c *Client, ep Endpoint, payload any) (*Resp, error) {
	msg, err := c.exchange(ctx, ep, payload)
	if err != nil {
		return nil, err
	}

	var resp Resp
	if err := msg.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%s: %w", ep.Name, err)
	}
	return &resp, nil
}

// exchange sends the request and verifies the reply's content type.
func (c *Client) exchange(ctx context.Context, ep Endpoint, payload any) (*protocol.Message, error) {
	start := time.Now()

	if !ep.HasPayload() {
		payload = nil
	}

	msg, err := c.sender.SendRequest(ctx, ep.Path, ep.RequestType, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ep.Name, err)
	}

	if err := protocol.VerifyContentType(msg, ep.ResponseType); err != nil {
		c.logger.Debug().
			Str("target", ep.Path).
			Str("content_type", msg.ContentType).
			Str("expected", ep.ResponseType).
			Msg("Unexpected reply content type")
		return nil, fmt.Errorf("%s: %w", ep.Name, err)
	}

	c.logger.Debug().
		Str("target", ep.Path).
		Str("content_type", msg.ContentType).
		Dur("duration", time.Since(start)).
		Msg("paxmon request complete")

	return msg, nil
}

// Call sends a raw JSON payload to the named endpoint and returns the
// verified reply envelope. Endpoints without a request type ignore payload.
func (c *Client) Call(ctx context.Context, ep Endpoint, payload json.RawMessage) (*protocol.Message, error) {
	if ep.HasPayload() && len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	var content any
	if ep.HasPayload() {
		content = payload
	}
	return c.exchange(ctx, ep, content)
}

// Status returns the tracking status of a universe.
func (c *Client) Status(ctx context.Context, req protocol.PaxMonStatusRequest) (*protocol.PaxMonStatusResponse, error) {
	return send[protocol.PaxMonStatusResponse](ctx, c, epStatus, req)
}

// TripLoadInfos returns section loads for the requested trips.
func (c *Client) TripLoadInfos(ctx context.Context, req protocol.PaxMonGetTripLoadInfosRequest) (*protocol.PaxMonGetTripLoadInfosResponse, error) {
	return send[protocol.PaxMonGetTripLoadInfosResponse](ctx, c, epTripLoadInfos, req)
}

// FindTrips searches trips by train number.
func (c *Client) FindTrips(ctx context.Context, req protocol.PaxMonFindTripsRequest) (*protocol.PaxMonFindTripsResponse, error) {
	return send[protocol.PaxMonFindTripsResponse](ctx, c, epFindTrips, req)
}

// GroupsInTrip returns the groups on each section of a trip.
func (c *Client) GroupsInTrip(ctx context.Context, req protocol.PaxMonGetGroupsInTripRequest) (*protocol.PaxMonGetGroupsInTripResponse, error) {
	return send[protocol.PaxMonGetGroupsInTripResponse](ctx, c, epGroupsInTrip, req)
}

// AddressableGroups returns the groups that can be addressed on a trip.
func (c *Client) AddressableGroups(ctx context.Context, req protocol.PaxMonGetAddressableGroupsRequest) (*protocol.PaxMonGetAddressableGroupsResponse, error) {
	return send[protocol.PaxMonGetAddressableGroupsResponse](ctx, c, epAddressableGroups, req)
}

// ForkUniverse copies a universe and returns the new universe id.
func (c *Client) ForkUniverse(ctx context.Context, req protocol.PaxMonForkUniverseRequest) (*protocol.PaxMonForkUniverseResponse, error) {
	return send[protocol.PaxMonForkUniverseResponse](ctx, c, epForkUniverse, req)
}

// DestroyUniverse deletes a forked universe.
func (c *Client) DestroyUniverse(ctx context.Context, req protocol.PaxMonDestroyUniverseRequest) (*protocol.MotisSuccess, error) {
	return send[protocol.MotisSuccess](ctx, c, epDestroyUniverse, req)
}

// FilterTrips returns one page of trips matching a load filter.
func (c *Client) FilterTrips(ctx context.Context, req protocol.PaxMonFilterTripsRequest) (*protocol.PaxMonFilterTripsResponse, error) {
	return send[protocol.PaxMonFilterTripsResponse](ctx, c, epFilterTrips, req)
}

// FilterGroups returns one page of groups matching a filter.
func (c *Client) FilterGroups(ctx context.Context, req protocol.PaxMonFilterGroupsRequest) (*protocol.PaxMonFilterGroupsResponse, error) {
	return send[protocol.PaxMonFilterGroupsResponse](ctx, c, epFilterGroups, req)
}

// GetGroups fetches groups by id or data source.
func (c *Client) GetGroups(ctx context.Context, req protocol.PaxMonGetGroupsRequest) (*protocol.PaxMonGetGroupsResponse, error) {
	return send[protocol.PaxMonGetGroupsResponse](ctx, c, epGetGroups, req)
}

// KeepAlive extends the lifetime of forked universes.
func (c *Client) KeepAlive(ctx context.Context, req protocol.PaxMonKeepAliveRequest) (*protocol.PaxMonKeepAliveResponse, error) {
	return send[protocol.PaxMonKeepAliveResponse](ctx, c, epKeepAlive, req)
}

// GroupStatistics returns delay and route histograms over all groups.
func (c *Client) GroupStatistics(ctx context.Context, req protocol.PaxMonGroupStatisticsRequest) (*protocol.PaxMonGroupStatisticsResponse, error) {
	return send[protocol.PaxMonGroupStatisticsResponse](ctx, c, epGroupStatistics, req)
}

// DebugGraph returns a subgraph of the monitoring graph.
func (c *Client) DebugGraph(ctx context.Context, req protocol.PaxMonDebugGraphRequest) (*protocol.PaxMonDebugGraphResponse, error) {
	return send[protocol.PaxMonDebugGraphResponse](ctx, c, epDebugGraph, req)
}

// GetUniverses lists the universes of the multiverse. The request carries
// no payload.
func (c *Client) GetUniverses(ctx context.Context) (*protocol.PaxMonGetUniversesResponse, error) {
	return send[protocol.PaxMonGetUniversesResponse](ctx, c, epGetUniverses, nil)
}

// TripCapacity returns the capacity data of the requested trips.
func (c *Client) TripCapacity(ctx context.Context, req protocol.PaxMonGetTripCapacityRequest) (*protocol.PaxMonGetTripCapacityResponse, error) {
	return send[protocol.PaxMonGetTripCapacityResponse](ctx, c, epTripCapacity, req)
}

// CapacityStatus returns how many trips have capacity information.
func (c *Client) CapacityStatus(ctx context.Context, req protocol.PaxMonCapacityStatusRequest) (*protocol.PaxMonCapacityStatusResponse, error) {
	return send[protocol.PaxMonCapacityStatusResponse](ctx, c, epCapacityStatus, req)
}

// DetailedCapacityStatus is CapacityStatus with per-vehicle details.
func (c *Client) DetailedCapacityStatus(ctx context.Context, req protocol.PaxMonDetailedCapacityStatusRequest) (*protocol.PaxMonDetailedCapacityStatusResponse, error) {
	return send[protocol.PaxMonDetailedCapacityStatusResponse](ctx, c, epDetailedCapacityStatus, req)
}

// Metrics returns time series metrics of a universe.
func (c *Client) Metrics(ctx context.Context, req protocol.PaxMonMetricsRequest) (*protocol.PaxMonMetricsResponse, error) {
	return send[protocol.PaxMonMetricsResponse](ctx, c, epMetrics, req)
}

// BrokenTransfers returns one page of broken transfers.
func (c *Client) BrokenTransfers(ctx context.Context, req protocol.PaxMonBrokenTransfersRequest) (*protocol.PaxMonBrokenTransfersResponse, error) {
	return send[protocol.PaxMonBrokenTransfersResponse](ctx, c, epBrokenTransfers, req)
}

// TransferDetails returns one transfer and the groups affected by it.
func (c *Client) TransferDetails(ctx context.Context, req protocol.PaxMonTransferDetailsRequest) (*protocol.PaxMonTransferDetailsResponse, error) {
	return send[protocol.PaxMonTransferDetailsResponse](ctx, c, epTransferDetails, req)
}

// ReviseCompactJourney expands compact journeys into connections on the
// universe's current schedule.
func (c *Client) ReviseCompactJourney(ctx context.Context, req protocol.PaxMonReviseCompactJourneyRequest) (*protocol.PaxMonReviseCompactJourneyResponse, error) {
	return send[protocol.PaxMonReviseCompactJourneyResponse](ctx, c, epReviseCompactJourney, req)
}

// DatasetInfo describes the data loaded into the backend. The request
// carries no payload.
func (c *Client) DatasetInfo(ctx context.Context) (*protocol.PaxMonDatasetInfoResponse, error) {
	return send[protocol.PaxMonDatasetInfoResponse](ctx, c, epDatasetInfo, nil)
}
