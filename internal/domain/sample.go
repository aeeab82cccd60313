package domain

import (
	"context"
	"time"
)

// RawSample is one tide-level observation as supplied by the collector:
// an ISO-8601 timestamp string and a level in centimeters relative to the
// station datum. Raw samples are owned by the caller and never mutated.
type RawSample struct {
	Time  string  `json:"time"`
	Level float64 `json:"level"`
}

// TideReading is the chart-ready form of a sample after validation and
// transformation: a parsed UTC timestamp and a level rounded to the
// gauge's reporting precision.
type TideReading struct {
	Time  time.Time `json:"time"`
	Level float64   `json:"level"`
	Unit  string    `json:"unit"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ChartRequest is the flat JSON structure produced by the collector: one
// station's sample series plus the locale the requesting client prefers
// for any validation messaging.
type ChartRequest struct {
	StationID string      `json:"station_id"`
	Locale    string      `json:"locale,omitempty"`
	Samples   []RawSample `json:"samples"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
