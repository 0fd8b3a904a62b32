// Package queue defines message payloads exchanged over the message broker.
package queue

// IncidentReportedEvent is published when a new incident is recorded.
// It carries enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type IncidentReportedEvent struct {
    IncidentID  uint64  `json:"incident_id"`
    SensorID    *uint64 `json:"sensor_id"`
    BuildingID  uint64  `json:"building_id"`
    Level       string  `json:"level"`
    Description string  `json:"description,omitempty"`
    DetectedAt  string  `json:"detected_at"`
}
