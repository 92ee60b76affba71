package model

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{"pending to approved", StatusPending, StatusApproved, true},
		{"pending to rejected", StatusPending, StatusRejected, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"approved to cancelled", StatusApproved, StatusCancelled, true},
		{"approved to rejected", StatusApproved, StatusRejected, false},
		{"approved to pending", StatusApproved, StatusPending, false},
		{"approved to approved", StatusApproved, StatusApproved, false},
		{"rejected is terminal", StatusRejected, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusPending, false},
		{"cancelled to cancelled", StatusCancelled, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestOccupying(t *testing.T) {
	occupying := map[BookingStatus]bool{
		StatusPending:   true,
		StatusApproved:  true,
		StatusRejected:  false,
		StatusCancelled: false,
	}
	for status, want := range occupying {
		if got := status.Occupying(); got != want {
			t.Errorf("%s.Occupying() = %v, want %v", status, got, want)
		}
	}

	if len(OccupyingStatuses) != 2 {
		t.Fatalf("expected exactly 2 occupying statuses, got %d", len(OccupyingStatuses))
	}
	for _, s := range OccupyingStatuses {
		if !s.Occupying() {
			t.Errorf("OccupyingStatuses contains non-occupying status %s", s)
		}
	}
}

func TestAuthorizedFor(t *testing.T) {
	booking := &Booking{
		ID:         "65f000000000000000000001",
		CustomerID: "65f000000000000000000002",
		OwnerID:    "65f000000000000000000003",
		Status:     StatusPending,
	}

	tests := []struct {
		name  string
		actor Actor
		to    BookingStatus
		want  bool
	}{
		{"owner approves", Actor{ID: booking.OwnerID, Role: RoleOwner}, StatusApproved, true},
		{"owner rejects", Actor{ID: booking.OwnerID, Role: RoleOwner}, StatusRejected, true},
		{"owner cannot cancel", Actor{ID: booking.OwnerID, Role: RoleOwner}, StatusCancelled, false},
		{"customer cancels", Actor{ID: booking.CustomerID, Role: RoleCustomer}, StatusCancelled, true},
		{"customer cannot approve", Actor{ID: booking.CustomerID, Role: RoleCustomer}, StatusApproved, false},
		{"stranger cannot approve", Actor{ID: "65f0000000000000000000ff", Role: RoleOwner}, StatusApproved, false},
		{"stranger cannot cancel", Actor{ID: "65f0000000000000000000ff", Role: RoleCustomer}, StatusCancelled, false},
		{"admin may approve", Actor{ID: "65f0000000000000000000aa", Role: RoleAdmin}, StatusApproved, true},
		{"admin may cancel", Actor{ID: "65f0000000000000000000aa", Role: RoleAdmin}, StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.actor.AuthorizedFor(booking, tt.to); got != tt.want {
				t.Errorf("AuthorizedFor(%+v, %s) = %v, want %v", tt.actor, tt.to, got, tt.want)
			}
		})
	}
}
