package domain

import "time"

// StatusUpdateEvent is a status change delivered over the realtime channel.
// Events are transient: they are folded into a Snapshot and then dropped.
type StatusUpdateEvent struct {
	// ShipmentID identifies which shipment the change belongs to.
	ShipmentID int64 `json:"shipmentId"`
	// Status is the newly asserted status.
	Status Status `json:"status"`
	// OccurredAt is the server-side timestamp of the change.
	OccurredAt time.Time `json:"occurredAt"`
	// Note is an optional operator annotation.
	Note *string `json:"note,omitempty"`
}

// ConnectionState describes the lifecycle of the realtime connection.
type ConnectionState string

const (
	// ConnectionDisconnected means no connection exists and none is being attempted.
	ConnectionDisconnected ConnectionState = "DISCONNECTED"
	// ConnectionConnecting means a handshake or reconnect attempt is in progress.
	ConnectionConnecting ConnectionState = "CONNECTING"
	// ConnectionConnected means the channel is live and delivering events.
	ConnectionConnected ConnectionState = "CONNECTED"
	// ConnectionError means the transport failed; a reconnect will follow.
	ConnectionError ConnectionState = "ERROR"
)
