package scope

import (
	"live-tracker/internal/core/logger"
	"live-tracker/internal/features/tracking/domain"
	"live-tracker/internal/features/tracking/ports"

	"go.uber.org/zap"
)

// Scope binds the realtime channel's attention to at most one shipment at a
// time. It issues the join/leave control messages and re-joins the active
// shipment after every reconnect, since server-side subscription state does
// not survive a connection drop.
//
// Scope is not safe for concurrent use: the session event loop is its only
// caller, which is the serialization discipline for the whole tracked view.
type Scope struct {
	channel ports.Channel
	log     *zap.Logger

	active *int64
	// joined tracks whether the active id has been joined on the current
	// live connection; false means the join is deferred until CONNECTED.
	joined bool
}

// New creates a Scope over the given channel.
func New(channel ports.Channel) *Scope {
	return &Scope{
		channel: channel,
		log:     logger.Get(),
	}
}

// Active returns the currently active shipment id, if any.
func (s *Scope) Active() (int64, bool) {
	if s.active == nil {
		return 0, false
	}
	return *s.active, true
}

// SetActive makes shipmentID the single active shipment. The previous id, if
// different, is left first. Setting the same id twice is a no-op. When the
// channel is not yet connected the join is deferred until it is.
func (s *Scope) SetActive(shipmentID int64) {
	if s.active != nil && *s.active == shipmentID {
		return
	}

	s.leaveCurrent()

	id := shipmentID
	s.active = &id
	s.joined = false

	if s.channel.State() == domain.ConnectionConnected {
		s.join(id)
	}
}

// Clear deactivates the current shipment, leaving it if the channel is
// connected. Safe to call when nothing is active.
func (s *Scope) Clear() {
	s.leaveCurrent()
	s.active = nil
	s.joined = false
}

// HandleState reacts to a connection-state transition. On CONNECTED the
// active shipment is (re-)joined; on any loss of the connection the join is
// marked stale so the next CONNECTED repeats it.
func (s *Scope) HandleState(state domain.ConnectionState) {
	switch state {
	case domain.ConnectionConnected:
		if s.active != nil && !s.joined {
			s.join(*s.active)
		}
	case domain.ConnectionError, domain.ConnectionDisconnected:
		s.joined = false
	}
}

func (s *Scope) join(shipmentID int64) {
	if err := s.channel.JoinShipment(shipmentID); err != nil {
		s.log.Warn("Failed to join shipment", zap.Int64("shipment_id", shipmentID), zap.Error(err))
		return
	}
	s.joined = true
	s.log.Debug("Joined shipment", zap.Int64("shipment_id", shipmentID))
}

func (s *Scope) leaveCurrent() {
	if s.active == nil || !s.joined {
		return
	}
	if s.channel.State() != domain.ConnectionConnected {
		return
	}
	if err := s.channel.LeaveShipment(*s.active); err != nil {
		s.log.Warn("Failed to leave shipment", zap.Int64("shipment_id", *s.active), zap.Error(err))
		return
	}
	s.log.Debug("Left shipment", zap.Int64("shipment_id", *s.active))
}
