package app

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"sow_tracker/internal/domain/breeding"
	"sow_tracker/internal/domain/housing"
	"sow_tracker/internal/domain/notification"
	"sow_tracker/internal/domain/user"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func jan(d int) time.Time {
	return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
}

// --- notifications ---

type milestoneKey struct {
	user  uuid.UUID
	typ   notification.Type
	dedup string
	due   string
}

type fakeNotifRepo struct {
	mu        sync.Mutex
	rows      map[milestoneKey]*notification.Pending
	chats     map[uuid.UUID]int64
	insertErr error
}

func newFakeNotifRepo() *fakeNotifRepo {
	return &fakeNotifRepo{rows: map[milestoneKey]*notification.Pending{}, chats: map[uuid.UUID]int64{}}
}

func keyOf(p *notification.Pending) milestoneKey {
	return milestoneKey{p.UserID, p.Type, p.DedupKey, p.DueOn.Format("2006-01-02")}
}

func (r *fakeNotifRepo) InsertIfAbsent(_ context.Context, p *notification.Pending) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return false, r.insertErr
	}
	k := keyOf(p)
	if _, ok := r.rows[k]; ok {
		return false, nil
	}
	cp := *p
	r.rows[k] = &cp
	return true, nil
}

func (r *fakeNotifRepo) ListDue(_ context.Context, now time.Time, maxAttempts, limit int) ([]*notification.Due, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Due
	for _, p := range r.sorted() {
		chat, linked := r.chats[p.UserID]
		if p.Sent || p.ScheduledFor.After(now) || !linked || p.Attempts >= maxAttempts {
			continue
		}
		if p.NextAttemptAt != nil && p.NextAttemptAt.After(now) {
			continue
		}
		out = append(out, &notification.Due{Pending: *p, ChatID: chat})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeNotifRepo) MarkSent(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.ID == id {
			p.Sent = true
			p.SentAt = &at
			return nil
		}
	}
	return notification.ErrNotFound
}

func (r *fakeNotifRepo) RecordFailure(_ context.Context, id uuid.UUID, retryAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.ID == id && !p.Sent {
			p.Attempts++
			p.NextAttemptAt = &retryAt
			return nil
		}
	}
	return notification.ErrNotFound
}

func (r *fakeNotifRepo) CancelUnsent(_ context.Context, userID uuid.UUID, dedupKey string, types []notification.Type) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, p := range r.rows {
		if p.Sent || p.UserID != userID || p.DedupKey != dedupKey {
			continue
		}
		for _, t := range types {
			if p.Type == t {
				delete(r.rows, k)
				n++
				break
			}
		}
	}
	return n, nil
}

func (r *fakeNotifRepo) ListUpcoming(_ context.Context, userID uuid.UUID, from time.Time, limit int) ([]*notification.Pending, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Pending
	for _, p := range r.sorted() {
		if p.UserID == userID && !p.Sent && !p.DueOn.Before(from) {
			out = append(out, p)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotifRepo) sorted() []*notification.Pending {
	out := make([]*notification.Pending, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueOn.Equal(out[j].DueOn) {
			return out[i].DueOn.Before(out[j].DueOn)
		}
		return out[i].DedupKey < out[j].DedupKey
	})
	return out
}

func (r *fakeNotifRepo) byType(t notification.Type) []*notification.Pending {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Pending
	for _, p := range r.sorted() {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

func (r *fakeNotifRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// --- sweep source ---

type fakeSweepSource struct {
	unfarrowed []breeding.BreedingView
	pending    []breeding.BreedingView
	nursing    []breeding.LitterMemberView
	weaned     []breeding.LitterMemberView
	failOn     map[string]error
	since      map[string]time.Time
	mu         sync.Mutex
}

func (f *fakeSweepSource) record(name string, since time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.since == nil {
		f.since = map[string]time.Time{}
	}
	f.since[name] = since
	return f.failOn[name]
}

func inScope(org uuid.NullUUID, rowOrg uuid.UUID) bool {
	return !org.Valid || org.UUID == rowOrg
}

func (f *fakeSweepSource) ListUnfarrowedBreedings(_ context.Context, org uuid.NullUUID, dueFrom time.Time, gestationDays int) ([]breeding.BreedingView, error) {
	if err := f.record("unfarrowed", dueFrom); err != nil {
		return nil, err
	}
	var out []breeding.BreedingView
	for _, v := range f.unfarrowed {
		expected := v.BreedingDate.AddDate(0, 0, gestationDays)
		if v.ExpectedFarrowing != nil {
			expected = *v.ExpectedFarrowing
		}
		if inScope(org, v.OrganizationID) && !expected.Before(dueFrom) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeSweepSource) ListPendingBreedings(_ context.Context, org uuid.NullUUID, since time.Time) ([]breeding.BreedingView, error) {
	if err := f.record("pending", since); err != nil {
		return nil, err
	}
	var out []breeding.BreedingView
	for _, v := range f.pending {
		if inScope(org, v.OrganizationID) && !v.BreedingDate.Before(since) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeSweepSource) ListNursingPiglets(_ context.Context, org uuid.NullUUID, since time.Time) ([]breeding.LitterMemberView, error) {
	if err := f.record("nursing", since); err != nil {
		return nil, err
	}
	var out []breeding.LitterMemberView
	for _, v := range f.nursing {
		if inScope(org, v.OrganizationID) && !v.Date.Before(since) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeSweepSource) ListWeanedForAvailableSows(_ context.Context, org uuid.NullUUID, since time.Time) ([]breeding.LitterMemberView, error) {
	if err := f.record("weaned", since); err != nil {
		return nil, err
	}
	var out []breeding.LitterMemberView
	for _, v := range f.weaned {
		if inScope(org, v.OrganizationID) && !v.Date.Before(since) {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- breeding repository ---

type fakeBreedingRepo struct {
	animals    map[uuid.UUID]*breeding.Animal
	events     map[uuid.UUID]*breeding.Event
	farrowings map[uuid.UUID]*breeding.Farrowing
	piglets    map[uuid.UUID]*breeding.Piglet
}

func newFakeBreedingRepo() *fakeBreedingRepo {
	return &fakeBreedingRepo{
		animals:    map[uuid.UUID]*breeding.Animal{},
		events:     map[uuid.UUID]*breeding.Event{},
		farrowings: map[uuid.UUID]*breeding.Farrowing{},
		piglets:    map[uuid.UUID]*breeding.Piglet{},
	}
}

func (r *fakeBreedingRepo) addSow(owner uuid.UUID, tag string, status breeding.AnimalStatus) *breeding.Animal {
	a := &breeding.Animal{ID: uuid.New(), OrganizationID: uuid.New(), OwnerUserID: owner, Tag: tag, Kind: breeding.KindSow, Status: status}
	r.animals[a.ID] = a
	return a
}

func (r *fakeBreedingRepo) GetAnimal(_ context.Context, id uuid.UUID) (*breeding.Animal, error) {
	a, ok := r.animals[id]
	if !ok {
		return nil, breeding.ErrAnimalNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeBreedingRepo) UpdateAnimalStatus(_ context.Context, id uuid.UUID, status breeding.AnimalStatus) error {
	a, ok := r.animals[id]
	if !ok {
		return breeding.ErrAnimalNotFound
	}
	a.Status = status
	return nil
}

func (r *fakeBreedingRepo) CreateEvent(_ context.Context, ev *breeding.Event) error {
	a, ok := r.animals[ev.AnimalID]
	if !ok {
		return breeding.ErrAnimalNotFound
	}
	for _, open := range r.events {
		if open.AnimalID != ev.AnimalID {
			continue
		}
		if open.Result != breeding.ResultPending && open.Result != breeding.ResultPregnant {
			continue
		}
		if f, err := r.GetFarrowingByEvent(context.Background(), open.ID); err == nil && f.ActualDate != nil {
			continue
		}
		return breeding.ErrOpenBreeding
	}
	cp := *ev
	r.events[ev.ID] = &cp
	a.Status = breeding.AnimalBred
	return nil
}

func (r *fakeBreedingRepo) GetEvent(_ context.Context, id uuid.UUID) (*breeding.Event, error) {
	ev, ok := r.events[id]
	if !ok {
		return nil, breeding.ErrEventNotFound
	}
	cp := *ev
	return &cp, nil
}

func (r *fakeBreedingRepo) UpdateEventResult(_ context.Context, id uuid.UUID, result breeding.ResultState, confirmed bool) error {
	ev, ok := r.events[id]
	if !ok {
		return breeding.ErrEventNotFound
	}
	ev.Result = result
	ev.CheckConfirmed = confirmed
	return nil
}

func (r *fakeBreedingRepo) CreateFarrowing(_ context.Context, f *breeding.Farrowing) error {
	for _, existing := range r.farrowings {
		if f.BreedingEventID.Valid && existing.BreedingEventID == f.BreedingEventID {
			return breeding.ErrFarrowingExists
		}
	}
	cp := *f
	r.farrowings[f.ID] = &cp
	return nil
}

func (r *fakeBreedingRepo) GetFarrowing(_ context.Context, id uuid.UUID) (*breeding.Farrowing, error) {
	f, ok := r.farrowings[id]
	if !ok {
		return nil, breeding.ErrFarrowingNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeBreedingRepo) GetFarrowingByEvent(_ context.Context, eventID uuid.UUID) (*breeding.Farrowing, error) {
	for _, f := range r.farrowings {
		if f.BreedingEventID.Valid && f.BreedingEventID.UUID == eventID {
			cp := *f
			return &cp, nil
		}
	}
	return nil, breeding.ErrFarrowingNotFound
}

func (r *fakeBreedingRepo) CompleteFarrowing(_ context.Context, id uuid.UUID, actual time.Time, counts breeding.Counts) error {
	f, ok := r.farrowings[id]
	if !ok {
		return breeding.ErrFarrowingNotFound
	}
	if f.ActualDate != nil {
		return breeding.ErrFarrowingAlreadyCompleted
	}
	f.ActualDate = &actual
	f.Counts = counts
	return nil
}

func (r *fakeBreedingRepo) GetPiglet(_ context.Context, id uuid.UUID) (*breeding.Piglet, error) {
	p, ok := r.piglets[id]
	if !ok {
		return nil, breeding.ErrPigletNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeBreedingRepo) UpdatePigletStatus(_ context.Context, id uuid.UUID, status breeding.PigletStatus, weaning *time.Time) error {
	p, ok := r.piglets[id]
	if !ok {
		return breeding.ErrPigletNotFound
	}
	if p.Status != breeding.PigletNursing {
		return breeding.ErrInvalidPigletTransition
	}
	p.Status = status
	p.WeaningDate = weaning
	return nil
}

func (r *fakeBreedingRepo) CountNursing(_ context.Context, farrowingID uuid.UUID) (int, error) {
	n := 0
	for _, p := range r.piglets {
		if p.FarrowingID == farrowingID && p.Status == breeding.PigletNursing {
			n++
		}
	}
	return n, nil
}

func (r *fakeBreedingRepo) LitterDates(_ context.Context, farrowingID uuid.UUID) (*time.Time, *time.Time, error) {
	var birth, weaning *time.Time
	for _, p := range r.piglets {
		if p.FarrowingID != farrowingID {
			continue
		}
		if birth == nil || p.BirthDate.After(*birth) {
			b := p.BirthDate
			birth = &b
		}
		if p.WeaningDate != nil && (weaning == nil || p.WeaningDate.After(*weaning)) {
			w := *p.WeaningDate
			weaning = &w
		}
	}
	return birth, weaning, nil
}

// --- housing repository ---

type fakeHousingRepo struct {
	units     map[uuid.UUID]*housing.Unit
	intervals []housing.Interval
}

func (r *fakeHousingRepo) GetUnit(_ context.Context, id uuid.UUID) (*housing.Unit, error) {
	u, ok := r.units[id]
	if !ok {
		return nil, housing.ErrUnitNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeHousingRepo) ListIntervals(_ context.Context, animalID uuid.UUID, from, to time.Time) ([]housing.Interval, error) {
	var out []housing.Interval
	for _, iv := range r.intervals {
		if iv.AnimalID != animalID || iv.MovedIn.After(to) {
			continue
		}
		if iv.MovedOut != nil && iv.MovedOut.Before(from) {
			continue
		}
		out = append(out, iv)
	}
	return out, nil
}

func (r *fakeHousingRepo) MoveAnimal(_ context.Context, animalID, unitID uuid.UUID, at time.Time) (*housing.Interval, error) {
	for i := range r.intervals {
		iv := &r.intervals[i]
		if iv.AnimalID == animalID && iv.MovedOut == nil {
			if iv.HousingUnitID == unitID {
				return nil, housing.ErrAlreadyHoused
			}
			out := at
			iv.MovedOut = &out
			r.units[iv.HousingUnitID].CurrentOccupants--
		}
	}
	u := r.units[unitID]
	u.CurrentOccupants++
	iv := housing.Interval{ID: uuid.New(), AnimalID: animalID, HousingUnitID: unitID, UnitType: u.Type, MovedIn: at}
	r.intervals = append(r.intervals, iv)
	return &iv, nil
}

// --- users ---

type fakeUserRepo struct {
	users map[uuid.UUID]*user.User
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByTelegramChatID(_ context.Context, chatID int64) (*user.User, error) {
	for _, u := range r.users {
		if u.TelegramChatID.Valid && u.TelegramChatID.Int64 == chatID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) LinkTelegram(_ context.Context, id uuid.UUID, chatID int64) error {
	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.TelegramChatID.Int64, u.TelegramChatID.Valid = chatID, true
	return nil
}

// --- transport ---

type sentMessage struct {
	chatID int64
	title  string
}

type fakeClient struct {
	mu     sync.Mutex
	sent   []sentMessage
	failTo map[int64]bool
}

func (c *fakeClient) SendReminder(_ context.Context, chatID int64, title, _, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failTo[chatID] {
		return errors.New("telegram: chat not found")
	}
	c.sent = append(c.sent, sentMessage{chatID: chatID, title: title})
	return nil
}
