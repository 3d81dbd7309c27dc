package scope

import (
	"testing"

	"live-tracker/internal/features/tracking/domain"

	"github.com/stretchr/testify/assert"
)

// fakeChannel records join/leave calls for assertions.
type fakeChannel struct {
	state  domain.ConnectionState
	joins  []int64
	leaves []int64
}

func (f *fakeChannel) Connect(credential string) error { return nil }
func (f *fakeChannel) Disconnect()                     {}

func (f *fakeChannel) State() domain.ConnectionState { return f.state }

func (f *fakeChannel) Events() <-chan domain.StatusUpdateEvent { return nil }
func (f *fakeChannel) States() <-chan domain.ConnectionState   { return nil }

func (f *fakeChannel) JoinShipment(id int64) error {
	f.joins = append(f.joins, id)
	return nil
}

func (f *fakeChannel) LeaveShipment(id int64) error {
	f.leaves = append(f.leaves, id)
	return nil
}

// TestScope_SetActive_JoinsWhenConnected verifies the immediate join.
func TestScope_SetActive_JoinsWhenConnected(t *testing.T) {
	ch := &fakeChannel{state: domain.ConnectionConnected}
	s := New(ch)

	s.SetActive(7)

	assert.Equal(t, []int64{7}, ch.joins)
	assert.Empty(t, ch.leaves)

	id, ok := s.Active()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

// TestScope_SetActive_Idempotent verifies setting the same id twice is a no-op.
func TestScope_SetActive_Idempotent(t *testing.T) {
	ch := &fakeChannel{state: domain.ConnectionConnected}
	s := New(ch)

	s.SetActive(7)
	s.SetActive(7)

	assert.Equal(t, []int64{7}, ch.joins)
	assert.Empty(t, ch.leaves)
}

// TestScope_SetActive_SwitchLeavesPrevious verifies A -> B emits leave A then join B.
func TestScope_SetActive_SwitchLeavesPrevious(t *testing.T) {
	ch := &fakeChannel{state: domain.ConnectionConnected}
	s := New(ch)

	s.SetActive(7)
	s.SetActive(9)

	assert.Equal(t, []int64{7}, ch.leaves)
	assert.Equal(t, []int64{7, 9}, ch.joins)
}

// TestScope_SetActive_DeferredUntilConnected verifies the join waits for the
// channel when not yet connected.
func TestScope_SetActive_DeferredUntilConnected(t *testing.T) {
	ch := &fakeChannel{state: domain.ConnectionConnecting}
	s := New(ch)

	s.SetActive(7)
	assert.Empty(t, ch.joins)

	ch.state = domain.ConnectionConnected
	s.HandleState(domain.ConnectionConnected)

	assert.Equal(t, []int64{7}, ch.joins)
}

// TestScope_Rejoin_AfterReconnect verifies the active shipment is re-joined
// exactly once after each reconnect.
func TestScope_Rejoin_AfterReconnect(t *testing.T) {
	ch := &fakeChannel{state: domain.ConnectionConnected}
	s := New(ch)

	s.SetActive(7)

	ch.state = domain.ConnectionError
	s.HandleState(domain.ConnectionError)
	s.HandleState(domain.ConnectionConnecting)

	ch.state = domain.ConnectionConnected
	s.HandleState(domain.ConnectionConnected)
	// A repeated CONNECTED notification must not double-join.
	s.HandleState(domain.ConnectionConnected)

	assert.Equal(t, []int64{7, 7}, ch.joins)
}

// TestScope_Clear verifies deactivation leaves the active shipment.
func TestScope_Clear(t *testing.T) {
	ch := &fakeChannel{state: domain.ConnectionConnected}
	s := New(ch)

	s.SetActive(7)
	s.Clear()

	assert.Equal(t, []int64{7}, ch.leaves)
	_, ok := s.Active()
	assert.False(t, ok)

	// Clearing again is safe.
	s.Clear()
	assert.Equal(t, []int64{7}, ch.leaves)
}

// TestScope_Clear_NotConnected verifies no leave is sent while disconnected.
func TestScope_Clear_NotConnected(t *testing.T) {
	ch := &fakeChannel{state: domain.ConnectionDisconnected}
	s := New(ch)

	s.SetActive(7)
	s.Clear()

	assert.Empty(t, ch.joins)
	assert.Empty(t, ch.leaves)
}
