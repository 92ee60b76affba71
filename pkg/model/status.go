package model

// BookingStatus is the closed set of booking lifecycle states. The
// transition table below is the single source of truth for which status
// changes are legal and which statuses occupy a vehicle; repositories and
// services must not compare raw status strings anywhere else.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusApproved  BookingStatus = "approved"
	StatusRejected  BookingStatus = "rejected"
	StatusCancelled BookingStatus = "cancelled"
)

// transitions maps current status to the set of statuses reachable from it.
// Rejected and cancelled are terminal.
var transitions = map[BookingStatus]map[BookingStatus]bool{
	StatusPending: {
		StatusApproved:  true,
		StatusRejected:  true,
		StatusCancelled: true,
	},
	StatusApproved: {
		StatusCancelled: true,
	},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to BookingStatus) bool {
	return transitions[from][to]
}

// Occupying reports whether a booking in this status blocks the vehicle
// for overlapping date ranges.
func (s BookingStatus) Occupying() bool {
	return s == StatusPending || s == StatusApproved
}

// OccupyingStatuses is the query-side form of Occupying, shared by the
// conflict detector and the availability resolver.
var OccupyingStatuses = []BookingStatus{StatusPending, StatusApproved}

func (s BookingStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Role identifies what an actor may do with a booking.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
)

// Actor is the explicit identity performing a mutation. Authorization is
// a pure function of (actor, booking, requested change); there is no
// ambient request context.
type Actor struct {
	ID   string
	Role Role
}

// transitionActor names who may request each target status.
var transitionActor = map[BookingStatus]Role{
	StatusApproved:  RoleOwner,
	StatusRejected:  RoleOwner,
	StatusCancelled: RoleCustomer,
}

// AuthorizedFor reports whether the actor is the party of record allowed
// to move the booking into the target status. Admins may perform any
// transition that is legal for the booking's current state.
func (a Actor) AuthorizedFor(b *Booking, to BookingStatus) bool {
	if a.Role == RoleAdmin {
		return true
	}
	switch transitionActor[to] {
	case RoleOwner:
		return a.ID == b.OwnerID
	case RoleCustomer:
		return a.ID == b.CustomerID
	default:
		return false
	}
}
