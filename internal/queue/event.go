// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingStatusEvent is published whenever a booking's status changes
// (the owner accepting or rejecting, or an admin override). It carries
// enough context for downstream consumers to log or trigger analytics
// without querying the primary database.
type BookingStatusEvent struct {
	BookingID    uint64  `json:"booking_id"`
	ClientID     uint64  `json:"client_id"`
	ServiceID    uint64  `json:"service_id"`
	ServiceTitle string  `json:"service_title"`
	Category     string  `json:"category"`
	OldStatus    string  `json:"old_status"`
	NewStatus    string  `json:"new_status"`
	ChangedBy    uint64  `json:"changed_by"`
	Price        float64 `json:"price"`
	BookingDate  string  `json:"booking_date"`
	ChangedAt    string  `json:"changed_at"`
}
