package cycle

import (
	"sort"
	"time"
)

// MilestoneKind names a reproductive milestone.
type MilestoneKind string

const (
	MilestonePregnancyCheck MilestoneKind = "pregnancy_check"
	MilestoneFarrowing      MilestoneKind = "farrowing"
	MilestoneWeaning        MilestoneKind = "weaning"
	MilestoneReturnToHeat   MilestoneKind = "return_to_heat"
	MilestoneVaccination    MilestoneKind = "vaccination"
)

// Milestone is a dated milestone classified against today.
type Milestone struct {
	Kind      MilestoneKind `json:"kind"`
	Date      time.Time     `json:"date"`
	DaysUntil int           `json:"daysUntil"`
	Urgency   Urgency       `json:"urgency"`
	// Reached is true once the milestone is known to have happened.
	Reached bool `json:"reached"`
}

// NewMilestone classifies date against today using the policy thresholds for kind.
func (p Policy) NewMilestone(kind MilestoneKind, date, today time.Time) Milestone {
	d := DaysBetween(DateOf(today), DateOf(date))
	return Milestone{
		Kind:      kind,
		Date:      DateOf(date),
		DaysUntil: d,
		Urgency:   ClassifyUrgency(d, p.ThresholdsFor(kind)),
	}
}

// TimelineInput describes one breeding and what is known downstream of it.
type TimelineInput struct {
	PregnancyFacts
	// ExpectedFarrowing overrides the computed farrowing date when a farrowing
	// record already fixed it at insertion.
	ExpectedFarrowing *time.Time
	// LatestBirth is the most recent birth date in the resulting litter.
	LatestBirth *time.Time
	// LatestWeaning is the most recent weaning date in the resulting litter.
	LatestWeaning *time.Time
}

// Timeline is the computed view of one breeding.
type Timeline struct {
	Stage      Stage       `json:"stage"`
	Milestones []Milestone `json:"milestones"`
}

// BuildTimeline lists every milestone derivable from in, ordered by date.
func (p Policy) BuildTimeline(in TimelineInput, today time.Time) Timeline {
	stage := p.ClassifyPregnancyStage(in.PregnancyFacts, today)

	check := p.NewMilestone(MilestonePregnancyCheck, p.PregnancyCheckDate(in.BreedingDate), today)
	check.Reached = in.Confirmed || in.Negative || in.FarrowedOn != nil
	milestones := []Milestone{check}

	if stage == StageOpen {
		return Timeline{Stage: stage, Milestones: milestones}
	}

	expected := p.ExpectedFarrowingDate(in.BreedingDate)
	if in.ExpectedFarrowing != nil {
		expected = *in.ExpectedFarrowing
	}
	farrow := p.NewMilestone(MilestoneFarrowing, expected, today)
	if in.FarrowedOn != nil {
		farrow = p.NewMilestone(MilestoneFarrowing, *in.FarrowedOn, today)
		farrow.Reached = true
	}
	milestones = append(milestones, farrow)

	birth := in.LatestBirth
	if birth == nil {
		birth = in.FarrowedOn
	}
	if birth != nil {
		wean := p.NewMilestone(MilestoneWeaning, p.WeaningDate(*birth), today)
		weanedOn := p.WeaningDate(*birth)
		if in.LatestWeaning != nil {
			wean = p.NewMilestone(MilestoneWeaning, *in.LatestWeaning, today)
			wean.Reached = true
			weanedOn = *in.LatestWeaning
		}
		milestones = append(milestones, wean, p.NewMilestone(MilestoneReturnToHeat, p.ReturnToHeatDate(weanedOn), today))
	}

	sort.SliceStable(milestones, func(i, j int) bool { return milestones[i].Date.Before(milestones[j].Date) })
	return Timeline{Stage: stage, Milestones: milestones}
}
