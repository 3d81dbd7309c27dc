package domain

import "time"

// Location identifies a city endpoint of a shipment route.
type Location struct {
	// ID is the internal identifier of the city.
	ID int64 `json:"id"`
	// CityName is the human-readable city name.
	CityName string `json:"city_name"`
}

// StatusHistoryEntry is a single applied status change. The history is
// append-only from the client's perspective.
type StatusHistoryEntry struct {
	// Status is the status asserted by this entry.
	Status Status `json:"status"`
	// OccurredAt is the server-side timestamp of the change.
	OccurredAt time.Time `json:"occurred_at"`
	// Note is an optional operator annotation.
	Note *string `json:"note,omitempty"`
}

// Snapshot is the point-in-time view of a shipment's tracking state.
// It is owned by the session that fetched it: replaced wholesale on
// re-fetch and mutated only through Reconcile.
type Snapshot struct {
	// ShipmentID is the stable numeric key of the shipment.
	ShipmentID int64 `json:"shipment_id"`
	// TrackingNumber is the human-facing tracking code.
	TrackingNumber string `json:"tracking_number"`
	// CurrentStatus is the latest asserted status. It always equals the
	// status of the last history entry, or the bootstrap status when the
	// history is empty.
	CurrentStatus Status `json:"current_status"`
	// Origin is where the shipment was handed to the carrier.
	Origin Location `json:"origin"`
	// Destination is where the shipment is headed.
	Destination Location `json:"destination"`
	// ActualWeightKg is the measured weight, produced by a remote service.
	ActualWeightKg float64 `json:"actual_weight_kg"`
	// ChargeableWeightKg is the billed weight, produced by a remote service.
	ChargeableWeightKg float64 `json:"chargeable_weight_kg"`
	// QuotedPriceCents is the quoted price, produced by a remote service.
	QuotedPriceCents int64 `json:"quoted_price_cents"`
	// History contains the applied status changes in arrival order.
	History []StatusHistoryEntry `json:"history"`
}
