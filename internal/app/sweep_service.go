// internal/app/sweep_service.go
package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"sow_tracker/internal/domain/breeding"
	"sow_tracker/internal/domain/cycle"
	"sow_tracker/internal/domain/notification"
	"sow_tracker/internal/domain/user"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SweepSummary is the outcome of one reminder sweep across all four categories.
type SweepSummary struct {
	FarrowingAlerts         int      `json:"farrowingAlerts"`
	WeaningReminders        int      `json:"weaningReminders"`
	BreedingReminders       int      `json:"breedingReminders"`
	PregnancyCheckReminders int      `json:"pregnancyCheckReminders"`
	Errors                  []string `json:"errors"`
}

// Failed reports whether every category reported an error and nothing was
// scheduled, meaning the sweep made no progress at all.
func (s SweepSummary) Failed() bool {
	if s.FarrowingAlerts+s.WeaningReminders+s.BreedingReminders+s.PregnancyCheckReminders > 0 {
		return false
	}
	for _, t := range notification.AllTypes {
		if !slices.ContainsFunc(s.Errors, func(e string) bool { return strings.HasPrefix(e, string(t)+":") }) {
			return false
		}
	}
	return true
}

// ReminderSweeper runs the periodic reminder sweep.
type ReminderSweeper interface {
	RunSweep(ctx context.Context, scope user.Scope) SweepSummary
}

// SweepRecorder receives per-category sweep outcomes.
type SweepRecorder interface {
	ObserveSweep(t notification.Type, scheduled, failures int, elapsed time.Duration)
}

// SweepOptions configure when reminders are delivered.
type SweepOptions struct {
	Location     *time.Location // farm timezone
	ReminderHour int            // local hour reminders are scheduled for
}

// SweepServiceImpl implements ReminderSweeper.
type SweepServiceImpl struct {
	source    breeding.SweepSource
	scheduler *Scheduler
	policies  *cycle.PolicySet
	opts      SweepOptions
	now       func() time.Time
	recorder  SweepRecorder
	logger    *logrus.Entry
}

func NewSweepService(
	source breeding.SweepSource,
	scheduler *Scheduler,
	policies *cycle.PolicySet,
	opts SweepOptions,
	now func() time.Time,
	recorder SweepRecorder,
	logger *logrus.Entry,
) *SweepServiceImpl {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &SweepServiceImpl{
		source:    source,
		scheduler: scheduler,
		policies:  policies,
		opts:      opts,
		now:       now,
		recorder:  recorder,
		logger:    logger.WithField("component", "sweep"),
	}
}

type categoryResult struct {
	scheduled int
	errs      []string
}

type sweepRun struct {
	scope        user.Scope
	today        time.Time
	scheduledFor time.Time
}

// RunSweep evaluates every milestone category and schedules due reminders.
// Categories run independently: a failure in one is reported in Errors and
// never stops the others.
func (s *SweepServiceImpl) RunSweep(ctx context.Context, scope user.Scope) SweepSummary {
	now := s.now()
	today := cycle.Today(now, s.opts.Location)
	run := sweepRun{
		scope:        scope,
		today:        today,
		scheduledFor: time.Date(today.Year(), today.Month(), today.Day(), s.opts.ReminderHour, 0, 0, 0, s.opts.Location),
	}
	s.logger.WithFields(logrus.Fields{
		"today":         today.Format("2006-01-02"),
		"scheduled_for": run.scheduledFor,
		"all_orgs":      scope.All(),
	}).Info("Reminder sweep started")

	sweeps := map[notification.Type]func(context.Context, sweepRun) categoryResult{
		notification.TypeFarrowingAlert:   s.sweepFarrowingAlerts,
		notification.TypeWeaningReminder:  s.sweepWeaningReminders,
		notification.TypeBreedingReminder: s.sweepBreedingReminders,
		notification.TypePregnancyCheck:   s.sweepPregnancyChecks,
	}
	results := make([]categoryResult, len(notification.AllTypes))

	var g errgroup.Group
	for i, t := range notification.AllTypes {
		fn := sweeps[t]
		g.Go(func() error {
			started := time.Now()
			res := fn(ctx, run)
			results[i] = res
			if s.recorder != nil {
				s.recorder.ObserveSweep(t, res.scheduled, len(res.errs), time.Since(started))
			}
			return nil
		})
	}
	_ = g.Wait() // categories report failures through their results

	summary := SweepSummary{
		FarrowingAlerts:         results[0].scheduled,
		WeaningReminders:        results[1].scheduled,
		BreedingReminders:       results[2].scheduled,
		PregnancyCheckReminders: results[3].scheduled,
		Errors:                  []string{},
	}
	for _, r := range results {
		summary.Errors = append(summary.Errors, r.errs...)
	}

	s.logger.WithFields(logrus.Fields{
		"farrowing_alerts":          summary.FarrowingAlerts,
		"weaning_reminders":         summary.WeaningReminders,
		"breeding_reminders":        summary.BreedingReminders,
		"pregnancy_check_reminders": summary.PregnancyCheckReminders,
		"errors":                    len(summary.Errors),
	}).Info("Reminder sweep finished")
	return summary
}

// sweepFarrowingAlerts warns ahead of each expected farrowing.
func (s *SweepServiceImpl) sweepFarrowingAlerts(ctx context.Context, run sweepRun) categoryResult {
	var res categoryResult
	// alerts never fire after the expected date, so rows due before today are skipped
	rows, err := s.source.ListUnfarrowedBreedings(ctx, run.scope.OrganizationID, run.today, s.policies.Widest().GestationDays)
	if err != nil {
		return s.fail(res, notification.TypeFarrowingAlert, fmt.Errorf("fetch breeding events: %w", err))
	}

	for _, row := range rows {
		if err := row.Validate(); err != nil {
			res = s.fail(res, notification.TypeFarrowingAlert, err)
			continue
		}
		p := s.policies.For(row.OrganizationID)
		expected := p.ExpectedFarrowingDate(row.BreedingDate)
		if row.ExpectedFarrowing != nil {
			expected = cycle.DateOf(*row.ExpectedFarrowing)
		}
		days := cycle.DaysBetween(run.today, expected)
		if !p.InReminderWindow(cycle.MilestoneFarrowing, days) {
			continue
		}
		res = s.schedule(ctx, res, notification.Candidate{
			UserID:       row.UserID,
			Type:         notification.TypeFarrowingAlert,
			DedupKey:     notification.BreedingKey(row.EventID),
			DueOn:        expected,
			ScheduledFor: run.scheduledFor,
			Title:        "Farrowing expected soon",
			Body:         fmt.Sprintf("Sow %s is expected to farrow %s (%s).", row.AnimalTag, dueText(days), expected.Format("Jan 2")),
		})
	}
	return res
}

// sweepWeaningReminders reminds once per nursing sow, keyed off its youngest piglet.
func (s *SweepServiceImpl) sweepWeaningReminders(ctx context.Context, run sweepRun) categoryResult {
	var res categoryResult
	since := cycle.AddDays(run.today, -s.policies.Widest().WeaningAgeDays)
	rows, err := s.source.ListNursingPiglets(ctx, run.scope.OrganizationID, since)
	if err != nil {
		return s.fail(res, notification.TypeWeaningReminder, fmt.Errorf("fetch nursing piglets: %w", err))
	}

	valid, res := s.validLitter(rows, notification.TypeWeaningReminder, res)
	for _, sow := range breeding.LatestPerSow(valid) {
		p := s.policies.For(sow.OrganizationID)
		weaning := p.WeaningDate(sow.Date)
		days := cycle.DaysBetween(run.today, weaning)
		if !p.InReminderWindow(cycle.MilestoneWeaning, days) {
			continue
		}
		res = s.schedule(ctx, res, notification.Candidate{
			UserID:       sow.UserID,
			Type:         notification.TypeWeaningReminder,
			DedupKey:     notification.SowKey(sow.SowID),
			DueOn:        weaning,
			ScheduledFor: run.scheduledFor,
			Title:        "Weaning due",
			Body:         fmt.Sprintf("Litter of sow %s is due for weaning %s (%s).", sow.SowTag, dueText(days), weaning.Format("Jan 2")),
		})
	}
	return res
}

// sweepBreedingReminders flags available sows about to return to heat after weaning.
func (s *SweepServiceImpl) sweepBreedingReminders(ctx context.Context, run sweepRun) categoryResult {
	var res categoryResult
	since := cycle.AddDays(run.today, -s.policies.Widest().HeatReturnDays)
	rows, err := s.source.ListWeanedForAvailableSows(ctx, run.scope.OrganizationID, since)
	if err != nil {
		return s.fail(res, notification.TypeBreedingReminder, fmt.Errorf("fetch weaned litters: %w", err))
	}

	valid, res := s.validLitter(rows, notification.TypeBreedingReminder, res)
	for _, sow := range breeding.LatestPerSow(valid) {
		p := s.policies.For(sow.OrganizationID)
		heat := p.ReturnToHeatDate(sow.Date)
		days := cycle.DaysBetween(run.today, heat)
		if !p.InReminderWindow(cycle.MilestoneReturnToHeat, days) {
			continue
		}
		res = s.schedule(ctx, res, notification.Candidate{
			UserID:       sow.UserID,
			Type:         notification.TypeBreedingReminder,
			DedupKey:     notification.SowKey(sow.SowID),
			DueOn:        heat,
			ScheduledFor: run.scheduledFor,
			Title:        "Sow returning to heat",
			Body:         fmt.Sprintf("Sow %s should return to heat %s (%s). Plan breeding.", sow.SowTag, dueText(days), heat.Format("Jan 2")),
		})
	}
	return res
}

// sweepPregnancyChecks reminds to check breedings still pending.
func (s *SweepServiceImpl) sweepPregnancyChecks(ctx context.Context, run sweepRun) categoryResult {
	var res categoryResult
	since := cycle.AddDays(run.today, -s.policies.Widest().PregnancyCheckDays)
	rows, err := s.source.ListPendingBreedings(ctx, run.scope.OrganizationID, since)
	if err != nil {
		return s.fail(res, notification.TypePregnancyCheck, fmt.Errorf("fetch pending breedings: %w", err))
	}

	for _, row := range rows {
		if err := row.Validate(); err != nil {
			res = s.fail(res, notification.TypePregnancyCheck, err)
			continue
		}
		p := s.policies.For(row.OrganizationID)
		check := p.PregnancyCheckDate(row.BreedingDate)
		days := cycle.DaysBetween(run.today, check)
		if !p.InReminderWindow(cycle.MilestonePregnancyCheck, days) {
			continue
		}
		res = s.schedule(ctx, res, notification.Candidate{
			UserID:       row.UserID,
			Type:         notification.TypePregnancyCheck,
			DedupKey:     notification.BreedingKey(row.EventID),
			DueOn:        check,
			ScheduledFor: run.scheduledFor,
			Title:        "Pregnancy check due",
			Body:         fmt.Sprintf("Sow %s is due for a pregnancy check %s (%s).", row.AnimalTag, dueText(days), check.Format("Jan 2")),
		})
	}
	return res
}

func (s *SweepServiceImpl) validLitter(rows []breeding.LitterMemberView, t notification.Type, res categoryResult) ([]breeding.LitterMemberView, categoryResult) {
	valid := make([]breeding.LitterMemberView, 0, len(rows))
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			res = s.fail(res, t, err)
			continue
		}
		valid = append(valid, row)
	}
	return valid, res
}

func (s *SweepServiceImpl) schedule(ctx context.Context, res categoryResult, c notification.Candidate) categoryResult {
	inserted, err := s.scheduler.EnsureScheduled(ctx, c)
	if err != nil {
		return s.fail(res, c.Type, err)
	}
	if inserted {
		res.scheduled++
	}
	return res
}

func (s *SweepServiceImpl) fail(res categoryResult, t notification.Type, err error) categoryResult {
	s.logger.WithField("notification_type", t).WithError(err).Error("Sweep item failed")
	res.errs = append(res.errs, fmt.Sprintf("%s: %v", t, err))
	return res
}

func dueText(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}
