package handler

import (
	"errors"

	"live-tracker/internal/features/tracking/ports"
	"live-tracker/internal/features/tracking/service"

	"github.com/gofiber/fiber/v2"
)

// TrackingHandler handles HTTP requests for tracking operations.
type TrackingHandler struct {
	snapshots *service.SnapshotService
	session   *service.Session
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(snapshots *service.SnapshotService, session *service.Session) *TrackingHandler {
	return &TrackingHandler{
		snapshots: snapshots,
		session:   session,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// WatchResponse acknowledges a watch request.
type WatchResponse struct {
	// Watching is the tracking number now being followed.
	Watching string `json:"watching"`
}

// GetShipmentStatus godoc
// @Summary Get the tracking snapshot for a shipment
// @Description Retrieves the point-in-time tracking snapshot for a tracking number
// @Tags tracking
// @Accept json
// @Produce json
// @Param number path string true "Tracking Number"
// @Success 200 {object} domain.Snapshot
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /shipments/{number}/status [get]
func (h *TrackingHandler) GetShipmentStatus(c *fiber.Ctx) error {
	trackingNumber := c.Params("number")
	if trackingNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "tracking number is required",
			RayID:   rayID(c),
		})
	}

	snap, err := h.snapshots.GetSnapshot(c.Context(), trackingNumber)
	if err != nil {
		return c.Status(fetchStatusCode(err)).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	return c.JSON(snap)
}

// WatchShipment godoc
// @Summary Start following a shipment live
// @Description Connects the realtime channel, fetches the snapshot and scopes event delivery to the shipment
// @Tags tracking
// @Accept json
// @Produce json
// @Param number path string true "Tracking Number"
// @Success 202 {object} WatchResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /watch/{number} [post]
func (h *TrackingHandler) WatchShipment(c *fiber.Ctx) error {
	trackingNumber := c.Params("number")
	if trackingNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "tracking number is required",
			RayID:   rayID(c),
		})
	}

	if err := h.session.Watch(trackingNumber); err != nil {
		return c.Status(watchStatusCode(err)).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(WatchResponse{Watching: trackingNumber})
}

// UnwatchShipment godoc
// @Summary Stop following the current shipment
// @Description Leaves the shipment scope and releases the realtime channel
// @Tags tracking
// @Produce json
// @Success 204
// @Router /watch [delete]
func (h *TrackingHandler) UnwatchShipment(c *fiber.Ctx) error {
	h.session.Unwatch()
	return c.SendStatus(fiber.StatusNoContent)
}

// GetLiveView godoc
// @Summary Get the live reconciled view
// @Description Returns the current reconciled snapshot, connection state and last reconcile outcome
// @Tags tracking
// @Produce json
// @Success 200 {object} service.LiveView
// @Router /watch [get]
func (h *TrackingHandler) GetLiveView(c *fiber.Ctx) error {
	return c.JSON(h.session.View())
}

// fetchStatusCode maps typed snapshot fetch failures to HTTP status codes.
func fetchStatusCode(err error) int {
	switch {
	case errors.Is(err, ports.ErrSnapshotNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ports.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, ports.ErrMalformed), errors.Is(err, ports.ErrUnreachable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// watchStatusCode maps watch failures to HTTP status codes. A stopped
// session is a service problem, not a credential one.
func watchStatusCode(err error) int {
	if errors.Is(err, service.ErrSessionClosed) {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusUnauthorized
}

func rayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
