package domain

// Status represents the lifecycle stage of a shipment.
type Status string

const (
	// StatusAwaitingPickup indicates the shipment is waiting to be collected by the carrier.
	StatusAwaitingPickup Status = "AWAITING_PICKUP"
	// StatusInTransit indicates the shipment is moving through the carrier network.
	StatusInTransit Status = "IN_TRANSIT"
	// StatusDelivered indicates the shipment reached its destination. Terminal.
	StatusDelivered Status = "DELIVERED"
)

// statusOrder maps each known status to its position in the shipment lifecycle.
var statusOrder = map[Status]int{
	StatusAwaitingPickup: 0,
	StatusInTransit:      1,
	StatusDelivered:      2,
}

// Known returns true if the status belongs to the ordered lifecycle.
// Unknown statuses are still recorded on snapshots, they just carry no
// ordering semantics.
func (s Status) Known() bool {
	_, ok := statusOrder[s]
	return ok
}

// Index returns the lifecycle position of the status and whether it is known.
func (s Status) Index() (int, bool) {
	i, ok := statusOrder[s]
	return i, ok
}

// IsTerminal returns true for statuses after which no forward move exists.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered
}

// Transition classifies how a status relates to the one that preceded it.
type Transition string

const (
	// TransitionForward is a move to the immediately next lifecycle stage.
	TransitionForward Transition = "FORWARD"
	// TransitionRepeat is a re-assertion of the current status.
	TransitionRepeat Transition = "REPEAT"
	// TransitionRegression is a move backwards in the lifecycle, e.g. an
	// operator correction.
	TransitionRegression Transition = "REGRESSION"
	// TransitionSkip jumps over at least one lifecycle stage.
	TransitionSkip Transition = "SKIP"
	// TransitionUnknown involves a status outside the ordered lifecycle.
	TransitionUnknown Transition = "UNKNOWN"
)

// Classify reports how `to` relates to `from` in the shipment lifecycle.
// The classification is advisory: callers may use it to flag anomalies
// (a regression after DELIVERED, a skipped stage) but it never decides
// whether an event is applied.
func Classify(from, to Status) Transition {
	fromIdx, fromKnown := from.Index()
	toIdx, toKnown := to.Index()

	if !fromKnown || !toKnown {
		return TransitionUnknown
	}

	switch diff := toIdx - fromIdx; {
	case diff == 0:
		return TransitionRepeat
	case diff == 1:
		return TransitionForward
	case diff < 0:
		return TransitionRegression
	default:
		return TransitionSkip
	}
}
