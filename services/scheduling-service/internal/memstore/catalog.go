package memstore

import (
	"context"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/catalog"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

func (s *Store) GetProfessional(_ context.Context, id string) (catalog.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.professional[id]
	if !ok {
		return catalog.Professional{}, model.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpsertProfessional(_ context.Context, p catalog.Professional) (catalog.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.professional[p.ID] = p
	return p, nil
}

func (s *Store) GetService(_ context.Context, id string) (catalog.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[id]
	if !ok {
		return catalog.Service{}, model.ErrNotFound
	}
	return svc, nil
}

func (s *Store) UpsertService(_ context.Context, svc catalog.Service) (catalog.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
	return svc, nil
}
