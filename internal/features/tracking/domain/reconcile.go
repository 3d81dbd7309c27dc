package domain

// Outcome describes what Reconcile did with an event.
type Outcome string

const (
	// OutcomeApplied means the event was appended to the history.
	OutcomeApplied Outcome = "APPLIED"
	// OutcomeDuplicate means the event matched the last history entry and
	// was discarded (idempotent re-delivery, e.g. a reconnect replay).
	OutcomeDuplicate Outcome = "DUPLICATE"
	// OutcomeScopeMismatch means the event belongs to a different shipment
	// and was discarded.
	OutcomeScopeMismatch Outcome = "SCOPE_MISMATCH"
)

// ReconcileResult carries the outcome of a reconciliation together with the
// advisory transition classification for applied events.
type ReconcileResult struct {
	// Outcome says whether the event was applied or why it was discarded.
	Outcome Outcome `json:"outcome"`
	// Transition classifies the applied move relative to the previous
	// status. Empty unless Outcome is APPLIED. Observability metadata only.
	Transition Transition `json:"transition,omitempty"`
}

// Reconcile folds one status update event into a snapshot and returns the
// resulting snapshot. The input snapshot is not modified.
//
// Events for a different shipment are discarded, as are exact duplicates of
// the last history entry. Everything else is appended in arrival order and
// becomes the current status, even when the state machine would classify the
// move as a regression or a skip: the client mirrors server-asserted truth,
// it does not enforce the lifecycle. Reconcile is total over its inputs and
// never fails.
func Reconcile(snap Snapshot, ev StatusUpdateEvent) (Snapshot, ReconcileResult) {
	if ev.ShipmentID != snap.ShipmentID {
		return snap, ReconcileResult{Outcome: OutcomeScopeMismatch}
	}

	if n := len(snap.History); n > 0 {
		last := snap.History[n-1]
		if last.Status == ev.Status && last.OccurredAt.Equal(ev.OccurredAt) {
			return snap, ReconcileResult{Outcome: OutcomeDuplicate}
		}
	}

	transition := Classify(snap.CurrentStatus, ev.Status)

	history := make([]StatusHistoryEntry, len(snap.History), len(snap.History)+1)
	copy(history, snap.History)
	history = append(history, StatusHistoryEntry{
		Status:     ev.Status,
		OccurredAt: ev.OccurredAt,
		Note:       ev.Note,
	})

	snap.CurrentStatus = ev.Status
	snap.History = history

	return snap, ReconcileResult{Outcome: OutcomeApplied, Transition: transition}
}
