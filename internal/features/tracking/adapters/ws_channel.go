package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"live-tracker/internal/core/logger"
	"live-tracker/internal/core/proxy"
	"live-tracker/internal/features/tracking/domain"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// ErrMissingCredential is returned by Connect when no credential is
	// available. No connection is attempted in that case.
	ErrMissingCredential = errors.New("no credential available")
	// ErrNotConnected is returned when a control frame is sent while the
	// channel is not live.
	ErrNotConnected = errors.New("channel not connected")
)

const (
	frameStatusUpdated = "status_updated"
	frameJoinShipment  = "join_shipment"
	frameLeaveShipment = "leave_shipment"
)

// controlFrame is an outbound join/leave message.
type controlFrame struct {
	// Type is the control message type.
	Type string `json:"type"`
	// ShipmentID is the shipment the control message refers to.
	ShipmentID int64 `json:"shipmentId"`
}

// eventFrame is an inbound message from the event service.
type eventFrame struct {
	// Type is the message type; only status_updated frames are consumed.
	Type string `json:"type"`
	// ShipmentID identifies the shipment the update belongs to.
	ShipmentID int64 `json:"shipmentId"`
	// Status is the newly asserted status.
	Status domain.Status `json:"status"`
	// OccurredAt is the server-side timestamp of the change.
	OccurredAt time.Time `json:"occurredAt"`
	// Note is an optional operator annotation.
	Note *string `json:"note"`
}

// ChannelConfig configures the websocket channel adapter.
type ChannelConfig struct {
	// URL is the websocket endpoint of the event service.
	URL string
	// Proxy routes the connection through an outbound proxy when enabled.
	Proxy proxy.Settings
	// HandshakeTimeout bounds the websocket handshake. Defaults to 10s.
	HandshakeTimeout time.Duration
	// InitialReconnectDelay seeds the reconnect backoff. Defaults to 500ms.
	InitialReconnectDelay time.Duration
	// MaxReconnectDelay caps the reconnect backoff. Defaults to 30s.
	MaxReconnectDelay time.Duration
}

// WSChannel is the websocket implementation of the realtime channel port.
// One instance exists per process; it owns the persistent connection,
// performs the authentication handshake and reconnects with exponential
// backoff on transport failure.
type WSChannel struct {
	cfg    ChannelConfig
	dialer *websocket.Dialer
	log    *zap.Logger

	events chan domain.StatusUpdateEvent
	states chan domain.ConnectionState

	// mu guards the connection lifecycle fields below.
	mu       sync.Mutex
	state    domain.ConnectionState
	cancel   context.CancelFunc
	done     chan struct{}
	outbound chan controlFrame
}

// NewWSChannel creates the websocket channel adapter. The connection is not
// established until Connect is called with a credential.
func NewWSChannel(cfg ChannelConfig) *WSChannel {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.InitialReconnectDelay == 0 {
		cfg.InitialReconnectDelay = 500 * time.Millisecond
	}
	if cfg.MaxReconnectDelay == 0 {
		cfg.MaxReconnectDelay = 30 * time.Second
	}

	dialer := &websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}

	if u, err := cfg.Proxy.URL(); err == nil && u != nil {
		dialer.Proxy = http.ProxyURL(u)
	} else if err != nil {
		logger.Get().Warn("Ignoring invalid proxy configuration", zap.Error(err))
	}

	return &WSChannel{
		cfg:    cfg,
		dialer: dialer,
		log:    logger.Get(),
		events: make(chan domain.StatusUpdateEvent, 64),
		states: make(chan domain.ConnectionState, 32),
		state:  domain.ConnectionDisconnected,
	}
}

// Connect begins the handshake, presenting the bearer credential.
// Calling while a run loop is already alive (connecting, connected, or
// retrying after an error) is a no-op. With an empty credential no
// connection is attempted and the state stays DISCONNECTED.
func (c *WSChannel) Connect(credential string) error {
	if credential == "" {
		c.log.Warn("Realtime connect skipped: no credential available")
		return ErrMissingCredential
	}

	c.mu.Lock()
	// ERROR means a run loop exists and is mid-backoff; it will retry on its
	// own. Starting a second run here would leave two goroutines publishing
	// state against each other.
	if c.state == domain.ConnectionConnecting || c.state == domain.ConnectionConnected || c.state == domain.ConnectionError {
		c.mu.Unlock()
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.outbound = make(chan controlFrame, 16)
	c.state = domain.ConnectionConnecting
	done, outbound := c.done, c.outbound
	c.mu.Unlock()

	c.publish(domain.ConnectionConnecting)

	go c.run(ctx, credential, done, outbound)
	return nil
}

// Disconnect tears the connection down. Safe to call multiple times.
func (c *WSChannel) Disconnect() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if done != nil {
		<-done
	}
}

// State reports the current connection state.
func (c *WSChannel) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Events delivers inbound status updates in the order received. The channel
// survives reconnects; consumers keep reading the same channel for the
// process lifetime.
func (c *WSChannel) Events() <-chan domain.StatusUpdateEvent {
	return c.events
}

// States delivers connection-state transitions in the order they occur.
func (c *WSChannel) States() <-chan domain.ConnectionState {
	return c.states
}

// JoinShipment asks the server to deliver events for the shipment.
func (c *WSChannel) JoinShipment(shipmentID int64) error {
	return c.send(frameJoinShipment, shipmentID)
}

// LeaveShipment stops delivery of events for the shipment.
func (c *WSChannel) LeaveShipment(shipmentID int64) error {
	return c.send(frameLeaveShipment, shipmentID)
}

func (c *WSChannel) send(frameType string, shipmentID int64) error {
	c.mu.Lock()
	state, outbound := c.state, c.outbound
	c.mu.Unlock()

	if state != domain.ConnectionConnected || outbound == nil {
		return fmt.Errorf("%w: cannot send %s", ErrNotConnected, frameType)
	}

	select {
	case outbound <- controlFrame{Type: frameType, ShipmentID: shipmentID}:
		return nil
	default:
		return fmt.Errorf("outbound queue full, dropping %s for shipment %d", frameType, shipmentID)
	}
}

// setState records and publishes a state transition.
func (c *WSChannel) setState(s domain.ConnectionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.publish(s)
}

func (c *WSChannel) publish(s domain.ConnectionState) {
	select {
	case c.states <- s:
	default:
		c.log.Warn("Dropping connection state notification", zap.String("state", string(s)))
	}
}

// run owns the connection for one Connect call: dial, pump, reconnect with
// backoff. It exits on Disconnect or when the credential is rejected.
func (c *WSChannel) run(ctx context.Context, credential string, done chan struct{}, outbound chan controlFrame) {
	defer close(done)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialReconnectDelay
	bo.MaxInterval = c.cfg.MaxReconnectDelay
	bo.MaxElapsedTime = 0

	header := http.Header{"Authorization": []string{"Bearer " + credential}}

	for {
		conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
		if err != nil {
			if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
				// Rejected credential. Reconnecting would loop on the same
				// failure; stay down until Connect is called with a new one.
				c.log.Error("Realtime credential rejected", zap.Int("status", resp.StatusCode))
				c.setState(domain.ConnectionDisconnected)
				return
			}
			if ctx.Err() != nil {
				c.setState(domain.ConnectionDisconnected)
				return
			}

			c.log.Warn("Realtime dial failed", zap.String("url", c.cfg.URL), zap.Error(err))
			c.setState(domain.ConnectionError)
			if !c.wait(ctx, bo.NextBackOff()) {
				c.setState(domain.ConnectionDisconnected)
				return
			}
			c.setState(domain.ConnectionConnecting)
			continue
		}

		bo.Reset()
		c.log.Info("Realtime channel connected", zap.String("url", c.cfg.URL))
		c.setState(domain.ConnectionConnected)

		err = c.pump(ctx, conn, outbound)
		conn.Close()

		if ctx.Err() != nil {
			c.setState(domain.ConnectionDisconnected)
			return
		}

		c.log.Warn("Realtime connection lost", zap.Error(err))
		c.setState(domain.ConnectionError)
		if !c.wait(ctx, bo.NextBackOff()) {
			c.setState(domain.ConnectionDisconnected)
			return
		}
		c.setState(domain.ConnectionConnecting)
	}
}

// pump reads inbound frames and writes queued control frames until the
// connection fails or the channel is torn down.
func (c *WSChannel) pump(ctx context.Context, conn *websocket.Conn, outbound <-chan controlFrame) error {
	stop := make(chan struct{})
	defer close(stop)

	// ReadJSON does not observe the context; close the conn to unblock it
	// on teardown.
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case frame := <-outbound:
				if err := conn.WriteJSON(frame); err != nil {
					c.log.Warn("Failed to send control frame",
						zap.String("type", frame.Type),
						zap.Int64("shipment_id", frame.ShipmentID),
						zap.Error(err),
					)
					return
				}
			}
		}
	}()

	for {
		var frame eventFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return err
		}

		switch frame.Type {
		case frameStatusUpdated:
			ev := domain.StatusUpdateEvent{
				ShipmentID: frame.ShipmentID,
				Status:     frame.Status,
				OccurredAt: frame.OccurredAt,
				Note:       frame.Note,
			}
			select {
			case c.events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			c.log.Debug("Ignoring unknown realtime frame", zap.String("type", frame.Type))
		}
	}
}

func (c *WSChannel) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
