package cycle

import "time"

// Stage is the derived pregnancy stage of a breeding.
type Stage string

const (
	StagePending   Stage = "pending"
	StageConfirmed Stage = "confirmed"
	StageOpen      Stage = "open"
	StageFarrowed  Stage = "farrowed"
)

// PregnancyFacts are the observations ClassifyPregnancyStage works from.
type PregnancyFacts struct {
	BreedingDate time.Time
	// Confirmed is set once a positive pregnancy check has been recorded.
	Confirmed bool
	// Negative is set once a check recorded the sow as not pregnant.
	Negative bool
	// FarrowedOn is the actual farrowing date of the linked farrowing, if any.
	FarrowedOn *time.Time
}

// ClassifyPregnancyStage derives the stage of a breeding as of today.
//
// Open is never derived from elapsed time; it only follows an explicit negative check.
func (p Policy) ClassifyPregnancyStage(f PregnancyFacts, today time.Time) Stage {
	mustDate("breeding date", f.BreedingDate)
	if f.FarrowedOn != nil {
		return StageFarrowed
	}
	if f.Negative {
		return StageOpen
	}
	since := DaysBetween(DateOf(f.BreedingDate), DateOf(today))
	if f.Confirmed && since > p.PregnancyCheckDays && since < p.GestationDays {
		return StageConfirmed
	}
	return StagePending
}
