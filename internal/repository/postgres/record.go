package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/emr-assistant/internal/model"
	"github.com/jwalitptl/emr-assistant/internal/repository"
	apperrors "github.com/jwalitptl/emr-assistant/pkg/errors"
)

type recordRepository struct {
	db *sqlx.DB
}

func NewRecordRepository(db *sqlx.DB) repository.RecordRepository {
	return &recordRepository{db: db}
}

type userRow struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	Genotype      string `db:"genotype"`
	BloodPressure string `db:"blood_pressure"`
	HeartRate     int    `db:"heart_rate"`
	Temperature   string `db:"temperature"`
	Weight        string `db:"weight"`
}

func (r userRow) toModel() *model.User {
	return &model.User{
		ID:            r.ID,
		Name:          r.Name,
		Genotype:      r.Genotype,
		BloodPressure: r.BloodPressure,
		Vitals: model.Vitals{
			HeartRate:   r.HeartRate,
			Temperature: r.Temperature,
			Weight:      r.Weight,
		},
	}
}

const userColumns = `id, name, genotype, blood_pressure, heart_rate, temperature, weight`

func (r *recordRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *recordRepository) FindUserByName(ctx context.Context, name string) (*model.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(name) = LOWER($1)`, name)
}

func (r *recordRepository) getUser(ctx context.Context, query string, arg string) (*model.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user := row.toModel()
	appts, err := r.ListAppointments(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Appointments = appts
	return user, nil
}

func (r *recordRepository) ListAppointments(ctx context.Context, userID string) ([]model.Appointment, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID); err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("user", nil)
	}

	appts := []model.Appointment{}
	query := `
		SELECT id, user_id, date, type, doctor, created_at
		FROM appointments
		WHERE user_id = $1
		ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &appts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

func (r *recordRepository) AddAppointment(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (id, user_id, date, type, doctor, created_at)
		VALUES (:id, :user_id, :date, :type, :doctor, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, appt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return apperrors.NewNotFound("user", err)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *recordRepository) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	return r.selectDoctors(ctx, `SELECT name, specialty FROM doctors ORDER BY position`)
}

func (r *recordRepository) GetDoctor(ctx context.Context, name string) (*model.Doctor, error) {
	docs, err := r.selectDoctors(ctx, `SELECT name, specialty FROM doctors WHERE name = $1`, name)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, apperrors.NewNotFound("doctor", nil)
	}
	return docs[0], nil
}

func (r *recordRepository) DoctorsAvailableOn(ctx context.Context, date string) ([]*model.Doctor, error) {
	query := `
		SELECT d.name, d.specialty
		FROM doctors d
		WHERE EXISTS (
			SELECT 1 FROM doctor_availability a
			WHERE a.doctor_name = d.name AND a.date = $1
		)
		ORDER BY d.position`
	return r.selectDoctors(ctx, query, date)
}

func (r *recordRepository) selectDoctors(ctx context.Context, query string, args ...interface{}) ([]*model.Doctor, error) {
	var docs []*model.Doctor
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	if len(docs) == 0 {
		return docs, nil
	}

	names := make([]string, 0, len(docs))
	byName := make(map[string]*model.Doctor, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
		byName[d.Name] = d
	}

	var slots []struct {
		DoctorName string `db:"doctor_name"`
		Date       string `db:"date"`
	}
	err := r.db.SelectContext(ctx, &slots, `
		SELECT doctor_name, date
		FROM doctor_availability
		WHERE doctor_name = ANY($1)
		ORDER BY date`, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("failed to load doctor availability: %w", err)
	}
	for _, s := range slots {
		d := byName[s.DoctorName]
		d.Available = append(d.Available, s.Date)
	}
	return docs, nil
}

func (r *recordRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
