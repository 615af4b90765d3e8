// Package memstore keeps every scheduling table in process memory behind one mutex. It
// backs STORAGE_DRIVER=memory and the package tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/catalog"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

// EventSink receives committed status changes after the store lock is released.
type EventSink func(ctx context.Context, evt model.StatusChange)

type weeklyKey struct {
	scope   model.Scope
	weekday time.Weekday
}

type exceptionKey struct {
	scope model.Scope
	date  string
}

type Store struct {
	mu           sync.Mutex
	weekly       map[weeklyKey]model.WeeklyHours
	exceptions   map[exceptionKey]model.DateException
	blocks       map[string]model.BlockedSlot
	appointments map[string]model.Appointment
	professional map[string]catalog.Professional
	services     map[string]catalog.Service
	sink         EventSink
	now          func() time.Time
}

func New() *Store {
	return &Store{
		weekly:       make(map[weeklyKey]model.WeeklyHours),
		exceptions:   make(map[exceptionKey]model.DateException),
		blocks:       make(map[string]model.BlockedSlot),
		appointments: make(map[string]model.Appointment),
		professional: make(map[string]catalog.Professional),
		services:     make(map[string]catalog.Service),
		now:          time.Now,
	}
}

func (s *Store) SetEventSink(sink EventSink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

func (s *Store) emit(ctx context.Context, evt model.StatusChange) {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink != nil {
		sink(ctx, evt)
	}
}

// Ready always succeeds; it keeps the readiness wiring identical to the postgres driver.
func (s *Store) Ready(context.Context) error { return nil }

func (s *Store) UpsertWeeklyHours(_ context.Context, wh model.WeeklyHours) (model.WeeklyHours, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := weeklyKey{scope: wh.Scope, weekday: wh.Weekday}
	if prev, ok := s.weekly[key]; ok {
		wh.ID = prev.ID
	} else if wh.ID == "" {
		wh.ID = uuid.NewString()
	}
	wh.UpdatedAt = s.now().UTC()
	s.weekly[key] = wh
	return wh, nil
}

func (s *Store) GetWeeklyHours(_ context.Context, scope model.Scope, weekday time.Weekday) (model.WeeklyHours, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wh, ok := s.weekly[weeklyKey{scope: scope, weekday: weekday}]
	if !ok || !wh.Active {
		return model.WeeklyHours{}, model.ErrNotFound
	}
	return wh, nil
}

func (s *Store) ListWeeklyHours(_ context.Context, scope model.Scope) ([]model.WeeklyHours, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.WeeklyHours
	for key, wh := range s.weekly {
		if key.scope == scope && wh.Active {
			out = append(out, wh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	return out, nil
}

func (s *Store) DeactivateWeeklyHours(_ context.Context, scope model.Scope, weekday time.Weekday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := weeklyKey{scope: scope, weekday: weekday}
	wh, ok := s.weekly[key]
	if !ok || !wh.Active {
		return model.ErrNotFound
	}
	wh.Active = false
	wh.UpdatedAt = s.now().UTC()
	s.weekly[key] = wh
	return nil
}

func (s *Store) UpsertException(_ context.Context, exc model.DateException) (model.DateException, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := exceptionKey{scope: exc.Scope, date: model.DateKey(exc.Date)}
	if prev, ok := s.exceptions[key]; ok {
		exc.ID = prev.ID
	} else if exc.ID == "" {
		exc.ID = uuid.NewString()
	}
	exc.UpdatedAt = s.now().UTC()
	s.exceptions[key] = exc
	return exc, nil
}

func (s *Store) GetException(_ context.Context, scope model.Scope, date time.Time) (model.DateException, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exc, ok := s.exceptions[exceptionKey{scope: scope, date: model.DateKey(date)}]
	if !ok || !exc.Active {
		return model.DateException{}, model.ErrNotFound
	}
	return exc, nil
}

func (s *Store) ListExceptions(_ context.Context, scope model.Scope, from, to time.Time) ([]model.DateException, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := model.DateKey(from), model.DateKey(to)
	var out []model.DateException
	for key, exc := range s.exceptions {
		if key.scope != scope || !exc.Active || key.date < lo || key.date > hi {
			continue
		}
		out = append(out, exc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) DeactivateException(_ context.Context, scope model.Scope, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := exceptionKey{scope: scope, date: model.DateKey(date)}
	exc, ok := s.exceptions[key]
	if !ok || !exc.Active {
		return model.ErrNotFound
	}
	exc.Active = false
	exc.UpdatedAt = s.now().UTC()
	s.exceptions[key] = exc
	return nil
}

func (s *Store) InsertBlock(_ context.Context, b model.BlockedSlot) (model.BlockedSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = s.now().UTC()
	s.blocks[b.ID] = b
	return b, nil
}

// ListBlocks returns the professional's blocks dated within [from, to], both inclusive,
// ordered by date then start.
func (s *Store) ListBlocks(_ context.Context, professionalID string, from, to time.Time) ([]model.BlockedSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := model.DateKey(from), model.DateKey(to)
	var out []model.BlockedSlot
	for _, b := range s.blocks {
		key := model.DateKey(b.Date)
		if b.ProfessionalID != professionalID || key < lo || key > hi {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteBlock(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.blocks, id)
	return nil
}

func (s *Store) DeleteBlocksForDate(_ context.Context, professionalID string, date time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := model.DateKey(date)
	var n int64
	for id, b := range s.blocks {
		if b.ProfessionalID == professionalID && model.DateKey(b.Date) == key {
			delete(s.blocks, id)
			n++
		}
	}
	return n, nil
}
