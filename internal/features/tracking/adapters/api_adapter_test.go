package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"live-tracker/internal/core/config"
	"live-tracker/internal/core/proxy"
	"live-tracker/internal/features/tracking/domain"
	"live-tracker/internal/features/tracking/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(baseURL string) *TrackingAPIAdapter {
	return NewTrackingAPIAdapter(config.TrackingConfig{
		APIURL:    baseURL,
		AuthToken: "test-token",
	}, proxy.Settings{})
}

const successEnvelope = `{
	"success": true,
	"data": {
		"id": 7,
		"trackingNumber": "FLK-2025-0007",
		"currentStatus": "AWAITING_PICKUP",
		"origin": {"id": 1, "cityName": "Bogota"},
		"destination": {"id": 2, "cityName": "Medellin"},
		"actualWeightKg": 2.5,
		"chargeableWeightKg": 3.0,
		"quotedPriceCents": 1250000,
		"history": [
			{"status": "AWAITING_PICKUP", "occurredAt": "2025-01-01T00:00:00Z", "note": null}
		]
	},
	"meta": {"timestamp": "2025-01-01T00:00:01Z", "requestId": "req-1"}
}`

// TestTrackingAPIAdapter_FetchSnapshot_Success verifies envelope parsing and
// domain mapping.
func TestTrackingAPIAdapter_FetchSnapshot_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shipments/FLK-2025-0007/status", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(successEnvelope))
	}))
	defer ts.Close()

	a := newTestAdapter(ts.URL)
	snap, err := a.FetchSnapshot(context.Background(), "FLK-2025-0007")

	require.NoError(t, err)
	assert.Equal(t, int64(7), snap.ShipmentID)
	assert.Equal(t, "FLK-2025-0007", snap.TrackingNumber)
	assert.Equal(t, domain.StatusAwaitingPickup, snap.CurrentStatus)
	assert.Equal(t, "Bogota", snap.Origin.CityName)
	assert.Equal(t, "Medellin", snap.Destination.CityName)
	assert.Equal(t, int64(1250000), snap.QuotedPriceCents)
	require.Len(t, snap.History, 1)
	assert.Equal(t, domain.StatusAwaitingPickup, snap.History[0].Status)
	assert.Nil(t, snap.History[0].Note)
}

// TestTrackingAPIAdapter_FetchSnapshot_NotFoundStatus verifies the 404 mapping.
func TestTrackingAPIAdapter_FetchSnapshot_NotFoundStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	a := newTestAdapter(ts.URL)
	snap, err := a.FetchSnapshot(context.Background(), "MISSING")

	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)
}

// TestTrackingAPIAdapter_FetchSnapshot_EnvelopeError verifies that envelope
// failures keep the upstream message displayable.
func TestTrackingAPIAdapter_FetchSnapshot_EnvelopeError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": false,
			"error": {"code": "SHIPMENT_NOT_FOUND", "message": "shipment does not exist"},
			"meta": {"timestamp": "2025-01-01T00:00:01Z", "requestId": "req-2"}
		}`))
	}))
	defer ts.Close()

	a := newTestAdapter(ts.URL)
	_, err := a.FetchSnapshot(context.Background(), "GHOST")

	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)
	assert.Contains(t, err.Error(), "shipment does not exist")
}

// TestTrackingAPIAdapter_FetchSnapshot_Unauthorized verifies the credential
// rejection mapping.
func TestTrackingAPIAdapter_FetchSnapshot_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	a := newTestAdapter(ts.URL)
	_, err := a.FetchSnapshot(context.Background(), "FLK-2025-0007")

	assert.ErrorIs(t, err, ports.ErrUnauthorized)
}

// TestTrackingAPIAdapter_FetchSnapshot_Unreachable verifies network failures
// map to the unreachable error.
func TestTrackingAPIAdapter_FetchSnapshot_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // refuse connections

	a := newTestAdapter(ts.URL)
	_, err := a.FetchSnapshot(context.Background(), "FLK-2025-0007")

	assert.ErrorIs(t, err, ports.ErrUnreachable)
}

// TestTrackingAPIAdapter_FetchSnapshot_Malformed verifies schema violations
// fail closed instead of returning a partial snapshot.
func TestTrackingAPIAdapter_FetchSnapshot_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			"missing shipment id",
			`{"success": true, "data": {"currentStatus": "IN_TRANSIT", "history": []}, "meta": {}}`,
		},
		{
			"missing current status",
			`{"success": true, "data": {"id": 7, "history": []}, "meta": {}}`,
		},
		{
			"invalid history timestamp",
			`{"success": true, "data": {"id": 7, "currentStatus": "IN_TRANSIT",
				"history": [{"status": "IN_TRANSIT", "occurredAt": "yesterday"}]}, "meta": {}}`,
		},
		{
			"history entry without status",
			`{"success": true, "data": {"id": 7, "currentStatus": "IN_TRANSIT",
				"history": [{"occurredAt": "2025-01-01T00:00:00Z"}]}, "meta": {}}`,
		},
		{
			"success without data",
			`{"success": true, "meta": {}}`,
		},
		{
			"not json at all",
			`<html>gateway error</html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			a := newTestAdapter(ts.URL)
			snap, err := a.FetchSnapshot(context.Background(), "FLK-2025-0007")

			assert.Nil(t, snap)
			assert.ErrorIs(t, err, ports.ErrMalformed)
		})
	}
}

// TestTrackingAPIAdapter_FetchSnapshot_UnknownStatusAccepted verifies that
// unrecognized statuses are recorded opaquely rather than rejected.
func TestTrackingAPIAdapter_FetchSnapshot_UnknownStatusAccepted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"data": {"id": 7, "currentStatus": "CUSTOMS_HOLD",
				"history": [{"status": "CUSTOMS_HOLD", "occurredAt": "2025-01-01T00:00:00Z"}]},
			"meta": {}
		}`))
	}))
	defer ts.Close()

	a := newTestAdapter(ts.URL)
	snap, err := a.FetchSnapshot(context.Background(), "FLK-2025-0007")

	require.NoError(t, err)
	assert.Equal(t, domain.Status("CUSTOMS_HOLD"), snap.CurrentStatus)
	assert.False(t, snap.CurrentStatus.Known())
}
