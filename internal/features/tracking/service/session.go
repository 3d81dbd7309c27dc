package service

import (
	"context"
	"errors"
	"sync"

	"live-tracker/internal/core/logger"
	"live-tracker/internal/features/tracking/domain"
	"live-tracker/internal/features/tracking/ports"
	"live-tracker/internal/features/tracking/scope"

	"go.uber.org/zap"
)

// ErrSessionClosed is returned when the session event loop has stopped.
var ErrSessionClosed = errors.New("tracking session closed")

// LiveView is a point-in-time copy of the tracked state, safe to hand out to
// callers on other goroutines.
type LiveView struct {
	// Watching is the tracking number currently followed, if any.
	Watching string `json:"watching,omitempty"`
	// Loading is true while the snapshot fetch is in flight.
	Loading bool `json:"loading"`
	// Connection is the realtime channel state.
	Connection domain.ConnectionState `json:"connection"`
	// Snapshot is the reconciled view, nil until the fetch resolves.
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
	// LastResult describes the most recent reconciliation, if any.
	LastResult *domain.ReconcileResult `json:"last_result,omitempty"`
	// FetchError is the displayable fetch failure, if the last fetch failed.
	FetchError string `json:"fetch_error,omitempty"`
}

type watchRequest struct {
	trackingNumber string
	resp           chan error
}

type unwatchRequest struct {
	resp chan struct{}
}

type viewRequest struct {
	resp chan LiveView
}

type fetchResult struct {
	generation uint64
	snapshot   *domain.Snapshot
	err        error
}

// Session keeps one live shipment view correct against the snapshot fetch
// and the realtime stream racing each other. All state lives on a single
// event-loop goroutine: commands, wire events, connection transitions and
// fetch completions are delivered to it over channels, so the view needs no
// locks.
type Session struct {
	provider   ports.SnapshotProvider
	channel    ports.Channel
	scope      *scope.Scope
	credential string
	log        *zap.Logger

	commands chan interface{}
	fetches  chan fetchResult
	quit     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// Fields below are owned by the event loop.
	trackingNumber string
	snapshot       *domain.Snapshot
	pending        []domain.StatusUpdateEvent
	loading        bool
	generation     uint64
	cancelFetch    context.CancelFunc
	connection     domain.ConnectionState
	lastResult     *domain.ReconcileResult
	fetchErr       error
}

// NewSession creates a Session over the given provider and channel. The
// credential is presented to the channel when the first watcher attaches.
func NewSession(provider ports.SnapshotProvider, channel ports.Channel, credential string) *Session {
	return &Session{
		provider:   provider,
		channel:    channel,
		scope:      scope.New(channel),
		credential: credential,
		log:        logger.Get(),
		commands:   make(chan interface{}),
		fetches:    make(chan fetchResult),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
		connection: domain.ConnectionDisconnected,
	}
}

// Start launches the event loop.
func (s *Session) Start() {
	s.connection = s.channel.State()
	go s.loop()
}

// Stop tears the session down: leaves the active shipment, abandons any
// in-flight fetch and disconnects the channel. Safe to call multiple times.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	<-s.stopped
}

// Watch starts following a tracking number: the channel is connected on the
// first watcher, a snapshot fetch is started, and once the shipment id is
// known the subscription scope joins it. Watching the number already being
// watched is a no-op. The snapshot loads asynchronously; observe progress
// through View.
func (s *Session) Watch(trackingNumber string) error {
	resp := make(chan error, 1)
	select {
	case s.commands <- watchRequest{trackingNumber: trackingNumber, resp: resp}:
		return <-resp
	case <-s.stopped:
		return ErrSessionClosed
	}
}

// Unwatch stops following the current shipment: leaves its scope, abandons
// any in-flight fetch and, the last observer now gone, disconnects the
// channel.
func (s *Session) Unwatch() {
	resp := make(chan struct{})
	select {
	case s.commands <- unwatchRequest{resp: resp}:
		<-resp
	case <-s.stopped:
	}
}

// View returns a copy of the current live view.
func (s *Session) View() LiveView {
	resp := make(chan LiveView, 1)
	select {
	case s.commands <- viewRequest{resp: resp}:
		return <-resp
	case <-s.stopped:
		return LiveView{Connection: domain.ConnectionDisconnected}
	}
}

func (s *Session) loop() {
	defer close(s.stopped)

	for {
		select {
		case <-s.quit:
			s.teardown()
			return
		case cmd := <-s.commands:
			switch c := cmd.(type) {
			case watchRequest:
				c.resp <- s.handleWatch(c.trackingNumber)
			case unwatchRequest:
				s.handleUnwatch()
				close(c.resp)
			case viewRequest:
				c.resp <- s.currentView()
			}
		case res := <-s.fetches:
			s.handleFetchResult(res)
		case ev := <-s.channel.Events():
			s.handleEvent(ev)
		case st := <-s.channel.States():
			s.connection = st
			s.scope.HandleState(st)
		}
	}
}

func (s *Session) handleWatch(trackingNumber string) error {
	if s.trackingNumber == trackingNumber && (s.snapshot != nil || s.loading) {
		return nil
	}

	if err := s.channel.Connect(s.credential); err != nil {
		return err
	}

	s.startFetch(trackingNumber)
	return nil
}

func (s *Session) handleUnwatch() {
	s.scope.Clear()
	s.abortFetch()
	// Invalidate any fetch still in flight so a late result is discarded.
	s.generation++

	s.trackingNumber = ""
	s.snapshot = nil
	s.pending = nil
	s.loading = false
	s.lastResult = nil
	s.fetchErr = nil

	s.channel.Disconnect()
}

// startFetch abandons any previous fetch and begins a new one. The
// generation counter makes a late result from an abandoned fetch
// recognizable so it is discarded instead of applied to an irrelevant view.
func (s *Session) startFetch(trackingNumber string) {
	s.abortFetch()

	// Leave the previous shipment right away. Deferring the leave until the
	// new fetch resolves would keep its events flowing for as long as the
	// fetch takes, or forever if the fetch fails.
	s.scope.Clear()

	s.trackingNumber = trackingNumber
	s.snapshot = nil
	s.pending = nil
	s.loading = true
	s.lastResult = nil
	s.fetchErr = nil

	s.generation++
	gen := s.generation

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelFetch = cancel

	go func() {
		snap, err := s.provider.FetchSnapshot(ctx, trackingNumber)
		select {
		case s.fetches <- fetchResult{generation: gen, snapshot: snap, err: err}:
		case <-s.quit:
		}
	}()
}

func (s *Session) abortFetch() {
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
}

func (s *Session) handleFetchResult(res fetchResult) {
	if res.generation != s.generation {
		s.log.Debug("Discarding abandoned fetch result", zap.Uint64("generation", res.generation))
		return
	}

	s.loading = false

	if res.err != nil {
		s.fetchErr = res.err
		s.pending = nil
		s.log.Warn("Snapshot fetch failed",
			zap.String("tracking_number", s.trackingNumber),
			zap.Error(res.err),
		)
		return
	}

	s.snapshot = res.snapshot
	s.scope.SetActive(res.snapshot.ShipmentID)

	// Replay events that raced the fetch, in arrival order. Reconcile
	// handles the ones that turn out to be duplicates or out of scope.
	pending := s.pending
	s.pending = nil
	for _, ev := range pending {
		s.apply(ev)
	}

	s.log.Info("Snapshot loaded",
		zap.String("tracking_number", s.trackingNumber),
		zap.Int64("shipment_id", res.snapshot.ShipmentID),
		zap.String("status", string(res.snapshot.CurrentStatus)),
		zap.Int("replayed_events", len(pending)),
	)
}

func (s *Session) handleEvent(ev domain.StatusUpdateEvent) {
	if s.snapshot == nil {
		if s.loading {
			// The fetch has not resolved yet. Buffer instead of reconciling
			// against a snapshot that does not exist, and replay later.
			s.pending = append(s.pending, ev)
			return
		}
		s.log.Debug("Dropping event with no active view", zap.Int64("shipment_id", ev.ShipmentID))
		return
	}

	s.apply(ev)
}

func (s *Session) apply(ev domain.StatusUpdateEvent) {
	snap, res := domain.Reconcile(*s.snapshot, ev)
	s.snapshot = &snap
	s.lastResult = &res

	switch res.Outcome {
	case domain.OutcomeApplied:
		if res.Transition == domain.TransitionForward || res.Transition == domain.TransitionRepeat {
			s.log.Info("Status update applied",
				zap.Int64("shipment_id", ev.ShipmentID),
				zap.String("status", string(ev.Status)),
				zap.String("transition", string(res.Transition)),
			)
		} else {
			s.log.Warn("Anomalous status update applied",
				zap.Int64("shipment_id", ev.ShipmentID),
				zap.String("status", string(ev.Status)),
				zap.String("transition", string(res.Transition)),
			)
		}
	case domain.OutcomeDuplicate:
		s.log.Debug("Duplicate status update discarded", zap.Int64("shipment_id", ev.ShipmentID))
	case domain.OutcomeScopeMismatch:
		s.log.Debug("Out-of-scope status update discarded",
			zap.Int64("shipment_id", ev.ShipmentID),
			zap.Int64("active_shipment_id", s.snapshot.ShipmentID),
		)
	}
}

func (s *Session) currentView() LiveView {
	view := LiveView{
		Watching:   s.trackingNumber,
		Loading:    s.loading,
		Connection: s.connection,
	}

	if s.fetchErr != nil {
		view.FetchError = s.fetchErr.Error()
	}
	if s.lastResult != nil {
		res := *s.lastResult
		view.LastResult = &res
	}
	if s.snapshot != nil {
		snap := *s.snapshot
		snap.History = append([]domain.StatusHistoryEntry(nil), s.snapshot.History...)
		view.Snapshot = &snap
	}

	return view
}

func (s *Session) teardown() {
	s.scope.Clear()
	s.abortFetch()
	s.channel.Disconnect()
}
