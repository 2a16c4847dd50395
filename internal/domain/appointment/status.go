package appointment

import "github.com/medichannel/medichannel/internal/platform/auth"

// transitions is the single source of truth for which status edges each role
// may take. Absence means forbidden; there are no self-loop edges, so asking
// for the current status again is itself an invalid transition. Only admins
// can restore a terminal appointment back to scheduled.
var transitions = map[string]map[Status][]Status{
	auth.RolePatient: {
		StatusScheduled: {StatusCancelled},
		StatusConfirmed: {StatusCancelled},
	},
	auth.RoleDoctor: {
		StatusScheduled: {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusCompleted, StatusNoShow, StatusCancelled},
	},
	auth.RoleAdmin: {
		StatusScheduled: {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusCompleted, StatusNoShow, StatusCancelled},
		StatusCompleted: {StatusCancelled},
		StatusCancelled: {StatusScheduled},
		StatusNoShow:    {StatusScheduled},
	},
}

// CanTransition reports whether role may move an appointment from one status
// to another.
func CanTransition(role string, from, to Status) bool {
	for _, allowed := range transitions[role][from] {
		if allowed == to {
			return true
		}
	}
	return false
}
