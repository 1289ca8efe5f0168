// Статусы допуска и таблица переходов; все изменения статуса идут через неё.
package permits

// Status constants used by the permit state machine.
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusExpired  = "expired"
	StatusRejected = "rejected"
)

var transitions = map[string]map[string]struct{}{
	StatusPending:  {StatusActive: {}, StatusRejected: {}},
	StatusActive:   {StatusExpired: {}},
	StatusExpired:  {},
	StatusRejected: {},
}

// CanTransition returns whether a permit can move from the current status to the target status.
func CanTransition(from, to string) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(status string) bool {
	allowed, ok := transitions[status]
	return ok && len(allowed) == 0
}

// ValidStatus reports whether the value is one of the four known statuses.
func ValidStatus(status string) bool {
	_, ok := transitions[status]
	return ok
}
