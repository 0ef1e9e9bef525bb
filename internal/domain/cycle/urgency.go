package cycle

// Urgency labels how close a milestone is.
type Urgency string

const (
	UrgencyOverdue  Urgency = "overdue"
	UrgencyDueToday Urgency = "due_today"
	UrgencyDueSoon  Urgency = "due_soon"
	UrgencyUpcoming Urgency = "upcoming"
)

// Thresholds configures ClassifyUrgency. Soon is inclusive.
type Thresholds struct {
	Soon int
}

// DefaultThresholds uses DefaultSoonDays.
func DefaultThresholds() Thresholds {
	return Thresholds{Soon: DefaultSoonDays}
}

// ClassifyUrgency maps a signed day distance to an urgency label.
func ClassifyUrgency(daysUntil int, t Thresholds) Urgency {
	switch {
	case daysUntil < 0:
		return UrgencyOverdue
	case daysUntil == 0:
		return UrgencyDueToday
	case daysUntil <= t.Soon:
		return UrgencyDueSoon
	default:
		return UrgencyUpcoming
	}
}

// ThresholdsFor returns the urgency thresholds the policy assigns to a milestone kind.
func (p Policy) ThresholdsFor(kind MilestoneKind) Thresholds {
	switch kind {
	case MilestoneFarrowing:
		return Thresholds{Soon: p.FarrowingLeadDays}
	case MilestoneVaccination:
		return Thresholds{Soon: p.VaccinationSoonDays}
	default:
		return Thresholds{Soon: p.SoonDays}
	}
}

// InReminderWindow reports whether a milestone daysUntil away should produce a reminder today.
func (p Policy) InReminderWindow(kind MilestoneKind, daysUntil int) bool {
	lead := 0
	switch kind {
	case MilestoneFarrowing:
		lead = p.FarrowingLeadDays
	case MilestoneWeaning:
		lead = p.WeaningLeadDays
	case MilestoneReturnToHeat:
		lead = p.BreedingLeadDays
	case MilestonePregnancyCheck:
		lead = p.PregnancyCheckLeadDays
	default:
		return false
	}
	return daysUntil >= 0 && daysUntil <= lead
}
