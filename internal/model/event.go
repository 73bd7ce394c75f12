package model

import (
	"time"

	"github.com/google/uuid"
)

const EventAppointmentBooked = "appointment.booked"

// AppointmentBookedEvent is published after a successful booking.
type AppointmentBookedEvent struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	UserID        string    `json:"user_id"`
	Date          string    `json:"date"`
	Type          string    `json:"type"`
	Doctor        string    `json:"doctor"`
	OccurredAt    time.Time `json:"occurred_at"`
}
