package emr

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/emr-assistant/internal/model"
	"github.com/jwalitptl/emr-assistant/internal/repository"
	"github.com/jwalitptl/emr-assistant/pkg/errors"
	"github.com/jwalitptl/emr-assistant/pkg/logger"
	"github.com/jwalitptl/emr-assistant/pkg/messaging"
	"github.com/jwalitptl/emr-assistant/pkg/metrics"
)

// Placeholders returned when a record has no data.
const (
	NoVitals        = "No vitals found."
	NoGenotype      = "Genotype not available."
	NoBloodPressure = "Blood pressure not available."

	UserNotFound       = "User not found."
	DoctorNotAvailable = "Doctor not available on that date."
)

type Service struct {
	repo      repository.RecordRepository
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(repo repository.RecordRepository, publisher messaging.Publisher, m *metrics.Metrics, l *logger.Logger) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		logger:    l.With("emr"),
		now:       time.Now,
	}
}

// GetUserVitals returns nil when the user is unknown.
func (s *Service) GetUserVitals(ctx context.Context, userID string) (*model.Vitals, error) {
	user, err := s.lookupUser(ctx, userID)
	if err != nil || user == nil {
		return nil, err
	}
	v := user.Vitals
	return &v, nil
}

func (s *Service) GetUserGenotype(ctx context.Context, userID string) (string, error) {
	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil || user.Genotype == "" {
		return NoGenotype, nil
	}
	return user.Genotype, nil
}

func (s *Service) GetUserBloodPressure(ctx context.Context, userID string) (string, error) {
	user, err := s.lookupUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil || user.BloodPressure == "" {
		return NoBloodPressure, nil
	}
	return user.BloodPressure, nil
}

// GetDoctorAvailability lists the doctors available on date in store order.
func (s *Service) GetDoctorAvailability(ctx context.Context, date string) ([]*model.Doctor, error) {
	docs, err := s.repo.DoctorsAvailableOn(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor availability: %w", err)
	}
	return docs, nil
}

// BookAppointment appends an appointment for the user and returns a
// confirmation. An unknown user or an unavailable doctor is reported in the
// returned text, not as an error.
func (s *Service) BookAppointment(ctx context.Context, userID, date, procedureType, doctorName string) (string, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		if errors.IsNotFound(err) {
			s.countBooking("user_not_found")
			return UserNotFound, nil
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	doctor, err := s.repo.GetDoctor(ctx, doctorName)
	if err != nil && !errors.IsNotFound(err) {
		return "", fmt.Errorf("failed to get doctor: %w", err)
	}
	if doctor == nil || !doctor.AvailableOn(date) {
		s.countBooking("doctor_unavailable")
		return DoctorNotAvailable, nil
	}

	appt := &model.Appointment{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      date,
		Type:      procedureType,
		Doctor:    doctorName,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.AddAppointment(ctx, appt); err != nil {
		if errors.IsNotFound(err) {
			s.countBooking("user_not_found")
			return UserNotFound, nil
		}
		return "", fmt.Errorf("failed to create appointment: %w", err)
	}
	s.countBooking("booked")

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID.String(),
		"doctor", doctorName,
		"date", date,
	)
	s.publishBooked(ctx, appt)

	return fmt.Sprintf("Appointment booked with %s on %s for %s.", doctorName, date, procedureType), nil
}

// GetUserByName finds a user by name, ignoring case. Returns nil when unknown.
func (s *Service) GetUserByName(ctx context.Context, name string) (*model.User, error) {
	user, err := s.repo.FindUserByName(ctx, name)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// GetUser returns the full record or a NotFound AppError.
func (s *Service) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Service) ListAppointments(ctx context.Context, userID string) ([]model.Appointment, error) {
	appts, err := s.repo.ListAppointments(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	docs, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return docs, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// lookupUser maps not-found to a nil user so callers can return placeholders.
func (s *Service) lookupUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Service) publishBooked(ctx context.Context, appt *model.Appointment) {
	event := model.AppointmentBookedEvent{
		ID:            uuid.New(),
		AppointmentID: appt.ID,
		UserID:        appt.UserID,
		Date:          appt.Date,
		Type:          appt.Type,
		Doctor:        appt.Doctor,
		OccurredAt:    appt.CreatedAt,
	}

	status := "ok"
	if err := s.publisher.Publish(ctx, model.EventAppointmentBooked, event); err != nil {
		status = "error"
		s.logger.Error(err, "failed to publish booking event", "appointment_id", appt.ID.String())
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(model.EventAppointmentBooked, status).Inc()
	}
}

func (s *Service) countBooking(result string) {
	if s.metrics != nil {
		s.metrics.Bookings.WithLabelValues(result).Inc()
	}
}
