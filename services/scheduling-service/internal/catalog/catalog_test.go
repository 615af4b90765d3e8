package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

type mapStore struct {
	pros map[string]Professional
	svcs map[string]Service
}

func newMapStore() *mapStore {
	return &mapStore{pros: map[string]Professional{}, svcs: map[string]Service{}}
}

func (m *mapStore) GetProfessional(_ context.Context, id string) (Professional, error) {
	p, ok := m.pros[id]
	if !ok {
		return Professional{}, model.ErrNotFound
	}
	return p, nil
}

func (m *mapStore) UpsertProfessional(_ context.Context, p Professional) (Professional, error) {
	m.pros[p.ID] = p
	return p, nil
}

func (m *mapStore) GetService(_ context.Context, id string) (Service, error) {
	s, ok := m.svcs[id]
	if !ok {
		return Service{}, model.ErrNotFound
	}
	return s, nil
}

func (m *mapStore) UpsertService(_ context.Context, s Service) (Service, error) {
	m.svcs[s.ID] = s
	return s, nil
}

func TestCanPerform_Table(t *testing.T) {
	profiles := DefaultProfiles()
	barber := Professional{ID: "p1", BusinessID: "b1", Name: "Ana", Profession: ProfessionBarber, Active: true}
	haircut := Service{ID: "s1", BusinessID: "b1", Name: "Cut", Tag: "HAIRCUT", DurationMinutes: 30, Active: true}

	cases := []struct {
		name string
		pro  Professional
		svc  Service
		want bool
	}{
		{"allowed", barber, haircut, true},
		{"tag not allowed", barber, Service{ID: "s2", BusinessID: "b1", Tag: "MANICURE", Active: true}, false},
		{"other business", barber, Service{ID: "s3", BusinessID: "b2", Tag: "HAIRCUT", Active: true}, false},
		{"inactive professional", Professional{BusinessID: "b1", Profession: ProfessionBarber}, haircut, false},
		{"inactive service", barber, Service{BusinessID: "b1", Tag: "HAIRCUT"}, false},
		{"unknown profession", Professional{BusinessID: "b1", Profession: "DJ", Active: true}, haircut, false},
		{"lowercase tag", barber, Service{BusinessID: "b1", Tag: "beard", Active: true}, true},
	}
	for _, tc := range cases {
		if got := CanPerform(profiles, tc.pro, tc.svc); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestLookup_CapabilityAndDuration(t *testing.T) {
	ctx := context.Background()
	l := NewLookup(newMapStore(), nil)

	pro, err := l.SaveProfessional(ctx, Professional{BusinessID: "b1", Name: "Rui", Profession: "manicurist", Active: true})
	if err != nil {
		t.Fatalf("save professional: %v", err)
	}
	if pro.ID == "" || pro.Profession != ProfessionManicurist {
		t.Fatalf("unexpected professional %+v", pro)
	}
	svc, err := l.SaveService(ctx, Service{BusinessID: "b1", Name: "Nails", Tag: "manicure", DurationMinutes: 45, Active: true})
	if err != nil {
		t.Fatalf("save service: %v", err)
	}

	ok, err := l.CanPerform(ctx, pro.ID, svc.ID)
	if err != nil || !ok {
		t.Fatalf("expected capability, got %v %v", ok, err)
	}
	ok, err = l.CanPerform(ctx, "missing", svc.ID)
	if err != nil || ok {
		t.Fatalf("unknown professional must not perform, got %v %v", ok, err)
	}

	d, err := l.Duration(ctx, svc.ID)
	if err != nil || d.Minutes() != 45 {
		t.Fatalf("duration = %v, %v", d, err)
	}
	if _, err := l.Duration(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	biz, err := l.BusinessOf(ctx, pro.ID)
	if err != nil || biz != "b1" {
		t.Fatalf("business = %q, %v", biz, err)
	}
}

func TestLookup_RejectsInvalid(t *testing.T) {
	l := NewLookup(newMapStore(), nil)
	if _, err := l.SaveService(context.Background(), Service{BusinessID: "b1", Name: "x", Tag: "HAIRCUT"}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for zero duration, got %v", err)
	}
	if _, err := l.SaveProfessional(context.Background(), Professional{BusinessID: "b1", Name: "x", Profession: "PILOT"}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for unknown profession, got %v", err)
	}
}
