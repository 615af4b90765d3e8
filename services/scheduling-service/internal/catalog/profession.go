package catalog

import (
	"slices"
	"strings"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

type Profession string

const (
	ProfessionBarber      Profession = "BARBER"
	ProfessionHairdresser Profession = "HAIRDRESSER"
	ProfessionManicurist  Profession = "MANICURIST"
	ProfessionEsthetician Profession = "ESTHETICIAN"
)

// Profile is the per-profession row of the capability table.
type Profile struct {
	Profession         Profession `json:"profession"`
	CommissionRate     float64    `json:"commission_rate"`
	AllowedServiceTags []string   `json:"allowed_service_tags"`
}

func (p Profile) Allows(tag string) bool {
	return slices.Contains(p.AllowedServiceTags, strings.ToUpper(strings.TrimSpace(tag)))
}

type Profiles map[Profession]Profile

// DefaultProfiles mirrors the commission rates used by the shops today.
func DefaultProfiles() Profiles {
	return Profiles{
		ProfessionBarber: {
			Profession:         ProfessionBarber,
			CommissionRate:     0.40,
			AllowedServiceTags: []string{"HAIRCUT", "BEARD", "SHAVE"},
		},
		ProfessionHairdresser: {
			Profession:         ProfessionHairdresser,
			CommissionRate:     0.45,
			AllowedServiceTags: []string{"HAIRCUT", "COLORING", "STYLING", "TREATMENT"},
		},
		ProfessionManicurist: {
			Profession:         ProfessionManicurist,
			CommissionRate:     0.35,
			AllowedServiceTags: []string{"MANICURE", "PEDICURE"},
		},
		ProfessionEsthetician: {
			Profession:         ProfessionEsthetician,
			CommissionRate:     0.50,
			AllowedServiceTags: []string{"FACIAL", "WAXING", "EYEBROWS"},
		},
	}
}

type Professional struct {
	ID         string     `json:"id"`
	BusinessID string     `json:"business_id"`
	Name       string     `json:"name"`
	Profession Profession `json:"profession"`
	Active     bool       `json:"active"`
}

func (p Professional) Validate(profiles Profiles) error {
	if strings.TrimSpace(p.BusinessID) == "" {
		return model.Invalid("business id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return model.Invalid("professional name is required")
	}
	if _, ok := profiles[p.Profession]; !ok {
		return model.Invalid("unknown profession %q", p.Profession)
	}
	return nil
}

type Service struct {
	ID              string `json:"id"`
	BusinessID      string `json:"business_id"`
	Name            string `json:"name"`
	Tag             string `json:"tag"`
	DurationMinutes int    `json:"duration_minutes"`
	Active          bool   `json:"active"`
}

func (s Service) Validate() error {
	if strings.TrimSpace(s.BusinessID) == "" {
		return model.Invalid("business id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return model.Invalid("service name is required")
	}
	if strings.TrimSpace(s.Tag) == "" {
		return model.Invalid("service tag is required")
	}
	if s.DurationMinutes <= 0 || s.DurationMinutes > int(model.MinutesPerDay) {
		return model.Invalid("duration_minutes must be between 1 and %d", int(model.MinutesPerDay))
	}
	return nil
}

// CanPerform reports whether pro may perform svc: both active, same business, and the
// service tag allowed by the professional's profession.
func CanPerform(profiles Profiles, pro Professional, svc Service) bool {
	if !pro.Active || !svc.Active || pro.BusinessID != svc.BusinessID {
		return false
	}
	profile, ok := profiles[pro.Profession]
	if !ok {
		return false
	}
	return profile.Allows(svc.Tag)
}
