package model

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-date format used for availability and bookings.
const DateLayout = "2006-01-02"

// Appointment is append-only: it is created by a booking and never changed.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Date      string    `db:"date" json:"date"`
	Type      string    `db:"type" json:"type"`
	Doctor    string    `db:"doctor" json:"doctor"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type BookAppointmentRequest struct {
	UserID        string `json:"user_id" binding:"required,max=64"`
	Date          string `json:"date" binding:"required,yyyymmdd"`
	ProcedureType string `json:"procedure_type" binding:"required,max=128"`
	DoctorName    string `json:"doctor_name" binding:"required,max=128"`
}

// BookingResult wraps the text returned by the booking operation.
type BookingResult struct {
	Booked  bool   `json:"booked"`
	Message string `json:"message"`
}
