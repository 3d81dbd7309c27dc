package ports

import (
	"context"
	"errors"

	"live-tracker/internal/features/tracking/domain"
)

var (
	// ErrSnapshotNotFound is returned when the tracking number is unknown upstream.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrUnauthorized is returned when the credential is missing or rejected.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnreachable is returned when the tracking API cannot be reached.
	ErrUnreachable = errors.New("tracking api unreachable")
	// ErrMalformed is returned when the response fails schema validation.
	// The fetch fails closed: no partially populated snapshot is ever returned.
	ErrMalformed = errors.New("malformed tracking response")
)

// SnapshotProvider retrieves the current tracking snapshot for a shipment.
// Implementations do not retry; retry policy belongs to the caller.
type SnapshotProvider interface {
	// FetchSnapshot fetches the snapshot for a human-facing tracking number.
	// It returns one of the typed failures above, or a fully populated snapshot.
	FetchSnapshot(ctx context.Context, trackingNumber string) (*domain.Snapshot, error)
}

// Channel is the persistent realtime connection used for live event delivery.
// One instance exists per process. Events and connection-state transitions are
// delivered as typed messages, in order, on the channels below.
type Channel interface {
	// Connect begins the handshake, presenting the bearer credential.
	// Idempotent: a no-op while connecting, connected, or retrying after a
	// transport error. With an empty credential no connection is attempted
	// and the state stays DISCONNECTED.
	Connect(credential string) error

	// Disconnect tears the connection down and releases resources. Safe to
	// call multiple times; no events are delivered afterward.
	Disconnect()

	// State reports the current connection state.
	State() domain.ConnectionState

	// Events delivers inbound status updates in the order received.
	Events() <-chan domain.StatusUpdateEvent

	// States delivers connection-state transitions in the order they occur.
	States() <-chan domain.ConnectionState

	// JoinShipment asks the server to deliver events for the shipment.
	// Only the subscription scope issues joins.
	JoinShipment(shipmentID int64) error

	// LeaveShipment stops delivery of events for the shipment.
	// Only the subscription scope issues leaves.
	LeaveShipment(shipmentID int64) error
}
