package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jwalitptl/emr-assistant/internal/model"
	"github.com/jwalitptl/emr-assistant/internal/repository"
	"github.com/jwalitptl/emr-assistant/pkg/errors"
)

// Store is an in-process record store. Its contents live for the lifetime of
// the process and are reset on restart.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*model.User
	doctors []*model.Doctor
}

var _ repository.RecordRepository = (*Store)(nil)

// NewStore creates a store holding copies of the given users and doctors.
// Doctor order is kept and is the order availability lookups return.
func NewStore(users []model.User, doctors []model.Doctor) *Store {
	s := &Store{
		users:   make(map[string]*model.User, len(users)),
		doctors: make([]*model.Doctor, 0, len(doctors)),
	}
	for i := range users {
		u := copyUser(&users[i])
		s.users[u.ID] = u
	}
	for i := range doctors {
		s.doctors = append(s.doctors, copyDoctor(&doctors[i]))
	}
	return s
}

// NewSeededStore returns a store with the demo data loaded.
func NewSeededStore() *Store {
	return NewStore(SeedUsers(), SeedDoctors())
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, errors.NewNotFound("user", nil)
	}
	return copyUser(u), nil
}

func (s *Store) FindUserByName(ctx context.Context, name string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Name, name) {
			return copyUser(u), nil
		}
	}
	return nil, errors.NewNotFound("user", nil)
}

func (s *Store) ListAppointments(ctx context.Context, userID string) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, errors.NewNotFound("user", nil)
	}
	return append([]model.Appointment(nil), u.Appointments...), nil
}

func (s *Store) AddAppointment(ctx context.Context, appt *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[appt.UserID]
	if !ok {
		return errors.NewNotFound("user", fmt.Errorf("user %q", appt.UserID))
	}
	u.Appointments = append(u.Appointments, *appt)
	return nil
}

func (s *Store) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		out = append(out, copyDoctor(d))
	}
	return out, nil
}

func (s *Store) GetDoctor(ctx context.Context, name string) (*model.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.doctors {
		if d.Name == name {
			return copyDoctor(d), nil
		}
	}
	return nil, errors.NewNotFound("doctor", nil)
}

func (s *Store) DoctorsAvailableOn(ctx context.Context, date string) ([]*model.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Doctor
	for _, d := range s.doctors {
		if d.AvailableOn(date) {
			out = append(out, copyDoctor(d))
		}
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.Appointments = append([]model.Appointment(nil), u.Appointments...)
	return &c
}

func copyDoctor(d *model.Doctor) *model.Doctor {
	c := *d
	c.Available = append([]string(nil), d.Available...)
	return &c
}
