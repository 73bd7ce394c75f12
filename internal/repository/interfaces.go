package repository

import (
	"context"

	"github.com/jwalitptl/emr-assistant/internal/model"
)

// All repository interfaces in one file
type (
	// RecordRepository is the EMR record store. Lookups of unknown users or
	// doctors return a pkg/errors NotFound.
	RecordRepository interface {
		GetUser(ctx context.Context, id string) (*model.User, error)
		FindUserByName(ctx context.Context, name string) (*model.User, error)
		ListAppointments(ctx context.Context, userID string) ([]model.Appointment, error)
		AddAppointment(ctx context.Context, appt *model.Appointment) error

		ListDoctors(ctx context.Context) ([]*model.Doctor, error)
		GetDoctor(ctx context.Context, name string) (*model.Doctor, error)
		DoctorsAvailableOn(ctx context.Context, date string) ([]*model.Doctor, error)

		Ping(ctx context.Context) error
	}

	// SessionRepository keeps the last EMR context string per conversation.
	SessionRepository interface {
		GetContext(ctx context.Context, sessionID string) (string, error)
		SetContext(ctx context.Context, sessionID, value string) error
	}
)
