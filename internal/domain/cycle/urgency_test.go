package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyUrgency(t *testing.T) {
	th := Thresholds{Soon: 7}
	cases := []struct {
		days int
		want Urgency
	}{
		{-3, UrgencyOverdue},
		{-1, UrgencyOverdue},
		{0, UrgencyDueToday},
		{1, UrgencyDueSoon},
		{7, UrgencyDueSoon},
		{8, UrgencyUpcoming},
		{90, UrgencyUpcoming},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyUrgency(tc.days, th), "daysUntil=%d", tc.days)
	}
}

func TestThresholdsFor(t *testing.T) {
	p := DefaultPolicy()
	p.VaccinationSoonDays = 14

	assert.Equal(t, UrgencyUpcoming, ClassifyUrgency(5, p.ThresholdsFor(MilestoneFarrowing)))
	assert.Equal(t, UrgencyDueSoon, ClassifyUrgency(3, p.ThresholdsFor(MilestoneFarrowing)))
	assert.Equal(t, UrgencyDueSoon, ClassifyUrgency(5, p.ThresholdsFor(MilestoneWeaning)))
	assert.Equal(t, UrgencyDueSoon, ClassifyUrgency(12, p.ThresholdsFor(MilestoneVaccination)))
	assert.Equal(t, DefaultThresholds(), p.ThresholdsFor(MilestonePregnancyCheck))
}

func TestInReminderWindow(t *testing.T) {
	p := DefaultPolicy()
	bred := date(2025, time.January, 1)
	expected := p.ExpectedFarrowingDate(bred)

	var alertDays []int
	for offset := 105; offset <= 118; offset++ {
		today := AddDays(bred, offset)
		if p.InReminderWindow(MilestoneFarrowing, DaysBetween(today, expected)) {
			alertDays = append(alertDays, offset)
		}
	}
	assert.Equal(t, []int{111, 112, 113, 114}, alertDays)

	assert.True(t, p.InReminderWindow(MilestonePregnancyCheck, 1))
	assert.True(t, p.InReminderWindow(MilestonePregnancyCheck, 0))
	assert.False(t, p.InReminderWindow(MilestonePregnancyCheck, 2))
	assert.False(t, p.InReminderWindow(MilestoneWeaning, -1))
	assert.False(t, p.InReminderWindow(MilestoneVaccination, 0))
}
