package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

type Store interface {
	GetProfessional(ctx context.Context, id string) (Professional, error)
	UpsertProfessional(ctx context.Context, p Professional) (Professional, error)
	GetService(ctx context.Context, id string) (Service, error)
	UpsertService(ctx context.Context, s Service) (Service, error)
}

// Lookup answers capability and duration questions for the booking engine.
type Lookup struct {
	store    Store
	profiles Profiles
}

func NewLookup(store Store, profiles Profiles) *Lookup {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	return &Lookup{store: store, profiles: profiles}
}

func (l *Lookup) Profiles() Profiles { return l.profiles }

func (l *Lookup) CanPerform(ctx context.Context, professionalID, serviceID string) (bool, error) {
	pro, err := l.store.GetProfessional(ctx, professionalID)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get professional: %w", err)
	}
	svc, err := l.store.GetService(ctx, serviceID)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get service: %w", err)
	}
	return CanPerform(l.profiles, pro, svc), nil
}

func (l *Lookup) Duration(ctx context.Context, serviceID string) (time.Duration, error) {
	svc, err := l.store.GetService(ctx, serviceID)
	if err != nil {
		return 0, fmt.Errorf("service %s: %w", serviceID, err)
	}
	return time.Duration(svc.DurationMinutes) * time.Minute, nil
}

func (l *Lookup) BusinessOf(ctx context.Context, professionalID string) (string, error) {
	pro, err := l.store.GetProfessional(ctx, professionalID)
	if err != nil {
		return "", fmt.Errorf("professional %s: %w", professionalID, err)
	}
	return pro.BusinessID, nil
}

func (l *Lookup) Professional(ctx context.Context, id string) (Professional, error) {
	return l.store.GetProfessional(ctx, id)
}

func (l *Lookup) Service(ctx context.Context, id string) (Service, error) {
	return l.store.GetService(ctx, id)
}

func (l *Lookup) SaveProfessional(ctx context.Context, p Professional) (Professional, error) {
	p.Profession = Profession(strings.ToUpper(strings.TrimSpace(string(p.Profession))))
	if err := p.Validate(l.profiles); err != nil {
		return Professional{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return l.store.UpsertProfessional(ctx, p)
}

func (l *Lookup) SaveService(ctx context.Context, s Service) (Service, error) {
	s.Tag = strings.ToUpper(strings.TrimSpace(s.Tag))
	if err := s.Validate(); err != nil {
		return Service{}, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return l.store.UpsertService(ctx, s)
}
