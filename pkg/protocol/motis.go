package protocol

import "encoding/json"

// TripID identifies a trip by its first departure and last arrival.
type TripID struct {
	ID              string `json:"id,omitempty"`
	StationID       string `json:"station_id"`
	TrainNr         uint32 `json:"train_nr"`
	Time            int64  `json:"time"`
	TargetStationID string `json:"target_station_id"`
	TargetTime      int64  `json:"target_time"`
	LineID          string `json:"line_id"`
}

// Station is a schedule station.
type Station struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Pos  *LatLng `json:"pos,omitempty"`
}

// LatLng is a WGS84 position.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ServiceInfo describes the transport service of a trip section.
type ServiceInfo struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	TrainNr  uint32 `json:"train_nr"`
	Line     string `json:"line"`
	Provider string `json:"provider"`
	Clasz    uint32 `json:"clasz"`
}

// TripServiceInfo combines a trip id with its service and endpoint stations.
type TripServiceInfo struct {
	Trip             TripID        `json:"trip"`
	PrimaryStation   Station       `json:"primary_station"`
	SecondaryStation Station       `json:"secondary_station"`
	ServiceInfos     []ServiceInfo `json:"service_infos"`
}

// Interval is a closed time range in unix seconds.
type Interval struct {
	Begin int64 `json:"begin"`
	End   int64 `json:"end"`
}

// MotisSuccess is the empty acknowledgement payload.
type MotisSuccess struct{}

// Connection is a journey as returned by the routing module. Its structure
// is not inspected here.
type Connection = json.RawMessage
