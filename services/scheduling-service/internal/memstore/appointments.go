package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

func (s *Store) GetAppointment(_ context.Context, id string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, model.ErrNotFound
	}
	return a, nil
}

func (s *Store) ListBusy(_ context.Context, professionalID string, from, to time.Time) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	window := model.TimeRange{Start: from, End: to}
	var out []model.Appointment
	for _, a := range s.appointments {
		if a.ProfessionalID == professionalID && a.Status.Occupies() && a.Range().Overlaps(window) {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *Store) ListAppointments(_ context.Context, professionalID string, from, to time.Time) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	window := model.TimeRange{Start: from, End: to}
	var out []model.Appointment
	for _, a := range s.appointments {
		if a.ProfessionalID == professionalID && a.Range().Overlaps(window) {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

// CreateAppointment inserts a under the store lock after re-checking that no occupying
// appointment of the same professional overlaps it.
func (s *Store) CreateAppointment(ctx context.Context, a model.Appointment, evt model.StatusChange) (model.Appointment, error) {
	s.mu.Lock()
	if s.conflictLocked(a, "") {
		s.mu.Unlock()
		return model.Appointment{}, model.ErrConcurrentConflict
	}
	s.appointments[a.ID] = a
	s.mu.Unlock()

	s.emit(ctx, evt)
	return a, nil
}

// UpdateAppointment applies mutate to the current row while holding the lock. When the
// time range changes the overlap check runs again, ignoring the row itself.
func (s *Store) UpdateAppointment(ctx context.Context, id string, mutate func(*model.Appointment) (model.StatusChange, error)) (model.Appointment, error) {
	s.mu.Lock()
	cur, ok := s.appointments[id]
	if !ok {
		s.mu.Unlock()
		return model.Appointment{}, model.ErrNotFound
	}
	next := cur
	evt, err := mutate(&next)
	if err != nil {
		s.mu.Unlock()
		return model.Appointment{}, err
	}
	moved := !next.StartTime.Equal(cur.StartTime) || !next.EndTime.Equal(cur.EndTime)
	if moved && next.Status.Occupies() && s.conflictLocked(next, id) {
		s.mu.Unlock()
		return model.Appointment{}, model.ErrConcurrentConflict
	}
	s.appointments[id] = next
	s.mu.Unlock()

	s.emit(ctx, evt)
	return next, nil
}

func (s *Store) conflictLocked(a model.Appointment, ignoreID string) bool {
	for id, other := range s.appointments {
		if id == ignoreID || other.ProfessionalID != a.ProfessionalID || !other.Status.Occupies() {
			continue
		}
		if other.Range().Overlaps(a.Range()) {
			return true
		}
	}
	return false
}

func sortByStart(appts []model.Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		if !appts[i].StartTime.Equal(appts[j].StartTime) {
			return appts[i].StartTime.Before(appts[j].StartTime)
		}
		return appts[i].ID < appts[j].ID
	})
}
