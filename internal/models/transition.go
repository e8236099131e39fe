package models

// transitions is the complete set of legal status edges, keyed by the
// current status and the event outcome attempting to move it. Anything
// absent from this table is an illegal transition and must be rejected
// without mutating the row.
var transitions = map[TransactionStatus]map[EventOutcome]TransactionStatus{
	StatusPending: {
		OutcomeSucceeded: StatusCompleted,
		OutcomeFailed:    StatusFailed,
	},
	StatusCompleted: {
		OutcomeRefunded: StatusRefunded,
	},
}

// outcomeTarget maps each outcome to the status it drives a transaction
// toward, independent of the current status. Used to recognize duplicate
// deliveries of an already-applied event.
var outcomeTarget = map[EventOutcome]TransactionStatus{
	OutcomeSucceeded: StatusCompleted,
	OutcomeFailed:    StatusFailed,
	OutcomeRefunded:  StatusRefunded,
}

// NextStatus returns the status an outcome moves current to, and whether
// that edge is legal.
func NextStatus(current TransactionStatus, outcome EventOutcome) (TransactionStatus, bool) {
	next, ok := transitions[current][outcome]
	return next, ok
}

// IsDuplicate reports whether an outcome's target state has already been
// reached, i.e. the event is a redelivery whose effect was applied before.
func IsDuplicate(current TransactionStatus, outcome EventOutcome) bool {
	return outcomeTarget[outcome] == current
}

// IsTerminal reports whether no further transition is expected from the
// given status, except the explicitly modeled completed -> refunded edge.
func IsTerminal(status TransactionStatus) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusRefunded:
		return true
	default:
		return false
	}
}
