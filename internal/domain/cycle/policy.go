// internal/domain/cycle/policy.go
package cycle

import (
	"fmt"

	"github.com/google/uuid"
)

// Default reproductive offsets, in days.
const (
	DefaultGestationDays      = 114
	DefaultWeaningAgeDays     = 21
	DefaultHeatReturnDays     = 7
	DefaultPregnancyCheckDays = 21

	DefaultFarrowingLeadDays      = 3
	DefaultWeaningLeadDays        = 1
	DefaultBreedingLeadDays       = 1
	DefaultPregnancyCheckLeadDays = 1

	DefaultSoonDays = 7
)

// Policy holds the offsets and reminder windows used by the engine.
type Policy struct {
	GestationDays      int `yaml:"gestation_days"`
	WeaningAgeDays     int `yaml:"weaning_age_days"`
	HeatReturnDays     int `yaml:"heat_return_days"`
	PregnancyCheckDays int `yaml:"pregnancy_check_days"`

	// Lead windows: a reminder is due while 0 <= daysUntil <= lead.
	FarrowingLeadDays      int `yaml:"farrowing_lead_days"`
	WeaningLeadDays        int `yaml:"weaning_lead_days"`
	BreedingLeadDays       int `yaml:"breeding_lead_days"`
	PregnancyCheckLeadDays int `yaml:"pregnancy_check_lead_days"`

	// SoonDays is the default DueSoon threshold for urgency labels.
	SoonDays int `yaml:"soon_days"`
	// VaccinationSoonDays is the DueSoon threshold for vaccination milestones.
	VaccinationSoonDays int `yaml:"vaccination_soon_days"`
}

// DefaultPolicy returns the standard swine offsets (114/21/7/21).
func DefaultPolicy() Policy {
	return Policy{
		GestationDays:          DefaultGestationDays,
		WeaningAgeDays:         DefaultWeaningAgeDays,
		HeatReturnDays:         DefaultHeatReturnDays,
		PregnancyCheckDays:     DefaultPregnancyCheckDays,
		FarrowingLeadDays:      DefaultFarrowingLeadDays,
		WeaningLeadDays:        DefaultWeaningLeadDays,
		BreedingLeadDays:       DefaultBreedingLeadDays,
		PregnancyCheckLeadDays: DefaultPregnancyCheckLeadDays,
		SoonDays:               DefaultSoonDays,
		VaccinationSoonDays:    DefaultSoonDays,
	}
}

// Validate checks that offsets are positive and every lead window fits inside its offset.
func (p Policy) Validate() error {
	offsets := []struct {
		name         string
		offset, lead int
	}{
		{"gestation", p.GestationDays, p.FarrowingLeadDays},
		{"weaning", p.WeaningAgeDays, p.WeaningLeadDays},
		{"heat return", p.HeatReturnDays, p.BreedingLeadDays},
		{"pregnancy check", p.PregnancyCheckDays, p.PregnancyCheckLeadDays},
	}
	for _, o := range offsets {
		if o.offset <= 0 {
			return fmt.Errorf("%s offset must be positive, got %d", o.name, o.offset)
		}
		if o.lead < 0 || o.lead >= o.offset {
			return fmt.Errorf("%s lead window must be in [0, %d), got %d", o.name, o.offset, o.lead)
		}
	}
	if p.PregnancyCheckDays >= p.GestationDays {
		return fmt.Errorf("pregnancy check (%d) must fall before farrowing (%d)", p.PregnancyCheckDays, p.GestationDays)
	}
	if p.SoonDays < 0 || p.VaccinationSoonDays < 0 {
		return fmt.Errorf("urgency thresholds must not be negative")
	}
	return nil
}

// PolicySet resolves the policy of an organization, falling back to the default.
type PolicySet struct {
	Default   Policy
	Overrides map[uuid.UUID]Policy
}

// NewPolicySet wraps a single default policy.
func NewPolicySet(def Policy) *PolicySet {
	return &PolicySet{Default: def, Overrides: map[uuid.UUID]Policy{}}
}

// For returns the policy effective for the organization.
func (s *PolicySet) For(orgID uuid.UUID) Policy {
	if s == nil {
		return DefaultPolicy()
	}
	if p, ok := s.Overrides[orgID]; ok {
		return p
	}
	return s.Default
}

// Widest returns, per field, the largest value across the default and all overrides.
// Sweeps use it to bound their datastore queries before filtering rows per organization.
func (s *PolicySet) Widest() Policy {
	if s == nil {
		return DefaultPolicy()
	}
	w := s.Default
	for _, p := range s.Overrides {
		w.GestationDays = max(w.GestationDays, p.GestationDays)
		w.WeaningAgeDays = max(w.WeaningAgeDays, p.WeaningAgeDays)
		w.HeatReturnDays = max(w.HeatReturnDays, p.HeatReturnDays)
		w.PregnancyCheckDays = max(w.PregnancyCheckDays, p.PregnancyCheckDays)
		w.FarrowingLeadDays = max(w.FarrowingLeadDays, p.FarrowingLeadDays)
		w.WeaningLeadDays = max(w.WeaningLeadDays, p.WeaningLeadDays)
		w.BreedingLeadDays = max(w.BreedingLeadDays, p.BreedingLeadDays)
		w.PregnancyCheckLeadDays = max(w.PregnancyCheckLeadDays, p.PregnancyCheckLeadDays)
	}
	return w
}
