package model

import "time"

// Booking statuses. PENDING is the initial state; ACCEPTED and
// REJECTED are set by the service owner (or an admin). Transitions
// are not gated on the previous status: any authorized actor may set
// any valid status at any time. Tightening this into a strict state
// machine would change observable behaviour, so it stays permissive.
const (
	BookingPending  = "PENDING"
	BookingAccepted = "ACCEPTED"
	BookingRejected = "REJECTED"
)

// ValidBookingStatus reports whether s is a known booking status.
func ValidBookingStatus(s string) bool {
	return s == BookingPending || s == BookingAccepted || s == BookingRejected
}

// Booking records a client's request for a service on a given date.
//
// Fields:
//  ID          – primary key identifier.
//  ClientID    – user who placed the booking.
//  ServiceID   – service being booked.
//  BookingDate – requested date of the service.
//  Status      – PENDING, ACCEPTED or REJECTED.
//  Notes       – free-form notes from the client.
//  CreatedAt   – creation timestamp.
type Booking struct {
	ID          uint64    // bookings.id
	ClientID    uint64    // bookings.client_id
	ServiceID   uint64    // bookings.service_id
	BookingDate time.Time // bookings.booking_date
	Status      string    // bookings.status
	Notes       string    // bookings.notes
	CreatedAt   time.Time // bookings.created_at
}
