package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"live-tracker/internal/core/config"
	"live-tracker/internal/core/httpclient"
	"live-tracker/internal/core/proxy"
	"live-tracker/internal/features/tracking/domain"
	"live-tracker/internal/features/tracking/ports"
)

// TrackingAPIAdapter implements the SnapshotProvider port against the
// shipment tracking REST API.
type TrackingAPIAdapter struct {
	// baseURL is the root of the tracking API.
	baseURL string
	// client is the HTTP client used for API requests.
	client *http.Client
}

// NewTrackingAPIAdapter creates a new TrackingAPIAdapter.
func NewTrackingAPIAdapter(cfg config.TrackingConfig, p proxy.Settings) *TrackingAPIAdapter {
	return &TrackingAPIAdapter{
		baseURL: cfg.APIURL,
		client:  httpclient.NewAuthenticatedClient(10*time.Second, cfg.AuthToken, p),
	}
}

// apiEnvelope is the generic response wrapper used by the tracking API.
type apiEnvelope struct {
	// Success indicates whether the request was handled.
	Success bool `json:"success"`
	// Data carries the payload on success.
	Data json.RawMessage `json:"data"`
	// Error carries the failure detail on non-success.
	Error *apiError `json:"error"`
	// Meta carries request bookkeeping.
	Meta apiMeta `json:"meta"`
}

// apiError is the failure detail inside the envelope.
type apiError struct {
	// Code is the machine-readable error code.
	Code string `json:"code"`
	// Message is a user-facing description.
	Message string `json:"message"`
}

// apiMeta is the bookkeeping block inside the envelope.
type apiMeta struct {
	// Timestamp is when the response was produced.
	Timestamp string `json:"timestamp"`
	// RequestID is the upstream request identifier.
	RequestID string `json:"requestId"`
}

// shipmentTrackingDTO is the snapshot payload as the API serves it.
type shipmentTrackingDTO struct {
	ID                 int64            `json:"id"`
	TrackingNumber     string           `json:"trackingNumber"`
	CurrentStatus      string           `json:"currentStatus"`
	Origin             locationDTO      `json:"origin"`
	Destination        locationDTO      `json:"destination"`
	ActualWeightKg     float64          `json:"actualWeightKg"`
	ChargeableWeightKg float64          `json:"chargeableWeightKg"`
	QuotedPriceCents   int64            `json:"quotedPriceCents"`
	History            []historyItemDTO `json:"history"`
}

type locationDTO struct {
	ID       int64  `json:"id"`
	CityName string `json:"cityName"`
}

type historyItemDTO struct {
	Status     string  `json:"status"`
	OccurredAt string  `json:"occurredAt"`
	Note       *string `json:"note"`
}

// FetchSnapshot retrieves the tracking snapshot for a tracking number.
// It returns one of the typed failures from the ports package; on a schema
// violation the fetch fails closed and no partial snapshot is returned.
func (a *TrackingAPIAdapter) FetchSnapshot(ctx context.Context, trackingNumber string) (*domain.Snapshot, error) {
	url := fmt.Sprintf("%s/shipments/%s/status", a.baseURL, trackingNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ports.ErrSnapshotNotFound, trackingNumber)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ports.ErrUnauthorized
	default:
		return nil, fmt.Errorf("%w: tracking api returned status %d", ports.ErrUnreachable, resp.StatusCode)
	}

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrMalformed, err)
	}

	if !env.Success {
		return nil, mapEnvelopeError(env.Error, trackingNumber)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: success response without data", ports.ErrMalformed)
	}

	var dto shipmentTrackingDTO
	if err := json.Unmarshal(env.Data, &dto); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrMalformed, err)
	}

	return mapToDomain(dto)
}

// mapEnvelopeError converts an envelope failure into a typed error whose
// message stays usable as a user-facing string.
func mapEnvelopeError(apiErr *apiError, trackingNumber string) error {
	if apiErr == nil {
		return fmt.Errorf("%w: non-success response without error detail", ports.ErrMalformed)
	}

	switch apiErr.Code {
	case "NOT_FOUND", "SHIPMENT_NOT_FOUND":
		return fmt.Errorf("%w: %s", ports.ErrSnapshotNotFound, apiErr.Message)
	case "UNAUTHORIZED", "FORBIDDEN":
		return fmt.Errorf("%w: %s", ports.ErrUnauthorized, apiErr.Message)
	default:
		return fmt.Errorf("tracking api error for %s: %s", trackingNumber, apiErr.Message)
	}
}

// mapToDomain validates the DTO and converts it into a domain snapshot. Any
// missing or unparseable required field makes the whole fetch fail.
func mapToDomain(dto shipmentTrackingDTO) (*domain.Snapshot, error) {
	if dto.ID <= 0 {
		return nil, fmt.Errorf("%w: missing shipment id", ports.ErrMalformed)
	}
	if dto.CurrentStatus == "" {
		return nil, fmt.Errorf("%w: missing current status", ports.ErrMalformed)
	}

	history := make([]domain.StatusHistoryEntry, 0, len(dto.History))
	for i, item := range dto.History {
		if item.Status == "" {
			return nil, fmt.Errorf("%w: history entry %d missing status", ports.ErrMalformed, i)
		}
		occurredAt, err := time.Parse(time.RFC3339, item.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("%w: history entry %d has invalid timestamp: %v", ports.ErrMalformed, i, err)
		}
		history = append(history, domain.StatusHistoryEntry{
			Status:     domain.Status(item.Status),
			OccurredAt: occurredAt,
			Note:       item.Note,
		})
	}

	return &domain.Snapshot{
		ShipmentID:         dto.ID,
		TrackingNumber:     dto.TrackingNumber,
		CurrentStatus:      domain.Status(dto.CurrentStatus),
		Origin:             domain.Location{ID: dto.Origin.ID, CityName: dto.Origin.CityName},
		Destination:        domain.Location{ID: dto.Destination.ID, CityName: dto.Destination.CityName},
		ActualWeightKg:     dto.ActualWeightKg,
		ChargeableWeightKg: dto.ChargeableWeightKg,
		QuotedPriceCents:   dto.QuotedPriceCents,
		History:            history,
	}, nil
}
