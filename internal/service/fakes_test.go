package service

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/terrainbook/booking-api/internal/availability"
	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/repository"
)

type fakeFields struct {
	byID map[uint]domain.Field
}

func newFakeFields(fields ...domain.Field) *fakeFields {
	f := &fakeFields{byID: map[uint]domain.Field{}}
	for _, field := range fields {
		f.byID[field.ID] = field
	}
	return f
}

func (f *fakeFields) FindByID(_ context.Context, id uint) (domain.Field, error) {
	field, ok := f.byID[id]
	if !ok {
		return domain.Field{}, repository.ErrFieldNotFound
	}
	return field, nil
}

type fakeReservations struct {
	mu     sync.Mutex
	rows   map[uint]domain.Reservation
	nextID uint
	fields *fakeFields
	subs   *fakeSubscriptions

	// racing makes every insert lose against a concurrent transaction.
	racing bool
}

func newFakeReservations(fields *fakeFields, subs *fakeSubscriptions) *fakeReservations {
	return &fakeReservations{rows: map[uint]domain.Reservation{}, fields: fields, subs: subs}
}

func (f *fakeReservations) CreateIfFree(ctx context.Context, res domain.Reservation, check repository.SlotCheck) (domain.Reservation, error) {
	field, err := f.fields.FindByID(ctx, res.FieldID)
	if err != nil {
		return domain.Reservation{}, err
	}
	subs, _ := f.subs.FindByField(ctx, res.FieldID)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err = check(field, f.day(res.FieldID, res.Date, 0, subs)); err != nil {
		return domain.Reservation{}, err
	}
	if f.racing {
		return domain.Reservation{}, repository.ErrConcurrentWrite
	}

	f.nextID++
	res.ID = f.nextID
	f.rows[res.ID] = res
	return res, nil
}

// day is what the field holds on date, minus row skip. Callers hold f.mu.
func (f *fakeReservations) day(fieldID uint, date time.Time, skip uint, subs []domain.Subscription) availability.Snapshot {
	snap := availability.Snapshot{Subscriptions: subs}
	for _, r := range f.rows {
		if r.ID != skip && r.FieldID == fieldID && domain.SameDate(r.Date, date) && r.Status.Occupying() {
			snap.Reservations = append(snap.Reservations, r)
		}
	}
	sort.Slice(snap.Reservations, func(i, j int) bool { return snap.Reservations[i].ID < snap.Reservations[j].ID })
	return snap
}

func (f *fakeReservations) UpdateStatusIfFree(ctx context.Context, id uint, from, to domain.ReservationStatus, check repository.SlotCheck) (domain.Reservation, error) {
	cur, err := f.FindByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	field, err := f.fields.FindByID(ctx, cur.FieldID)
	if err != nil {
		return domain.Reservation{}, err
	}
	subs, _ := f.subs.FindByField(ctx, cur.FieldID)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err = check(field, f.day(cur.FieldID, cur.Date, id, subs)); err != nil {
		return domain.Reservation{}, err
	}
	r := f.rows[id]
	if r.Status != from {
		return domain.Reservation{}, repository.ErrReservationStale
	}
	r.Status = to
	f.rows[id] = r
	return r, nil
}

func (f *fakeReservations) put(res domain.Reservation) domain.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	res.ID = f.nextID
	f.rows[res.ID] = res
	return res
}

func (f *fakeReservations) FindByID(_ context.Context, id uint) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return domain.Reservation{}, repository.ErrReservationNotFound
	}
	return r, nil
}

func (f *fakeReservations) FindByToken(_ context.Context, token string) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Token != "" && r.Token == token {
			return r, nil
		}
	}
	return domain.Reservation{}, repository.ErrReservationNotFound
}

func (f *fakeReservations) UpdateStatus(_ context.Context, id uint, from, to domain.ReservationStatus) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return domain.Reservation{}, repository.ErrReservationNotFound
	}
	if r.Status != from {
		return domain.Reservation{}, repository.ErrReservationStale
	}
	r.Status = to
	f.rows[id] = r
	return r, nil
}

func (f *fakeReservations) filter(keep func(domain.Reservation) bool) []domain.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Reservation{}
	for _, r := range f.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeReservations) FindByFieldAndDate(_ context.Context, fieldID uint, date time.Time) ([]domain.Reservation, error) {
	return f.filter(func(r domain.Reservation) bool {
		return r.FieldID == fieldID && domain.SameDate(r.Date, date)
	}), nil
}

func (f *fakeReservations) FindFrom(_ context.Context, date time.Time) ([]domain.Reservation, error) {
	return f.filter(func(r domain.Reservation) bool {
		return !domain.DateBefore(r.Date, date)
	}), nil
}

func (f *fakeReservations) FindPendingIssuedBefore(_ context.Context, cutoff time.Time) ([]domain.Reservation, error) {
	return f.filter(func(r domain.Reservation) bool {
		return r.Status == domain.StatusPending && r.Token != "" && r.TokenCreatedAt.Before(cutoff)
	}), nil
}

func (f *fakeReservations) FindBySubscriptionFrom(_ context.Context, subscriptionID uint, date time.Time) ([]domain.Reservation, error) {
	return f.filter(func(r domain.Reservation) bool {
		return r.SubscriptionID != nil && *r.SubscriptionID == subscriptionID && !domain.DateBefore(r.Date, date)
	}), nil
}

type fakeSubscriptions struct {
	mu     sync.Mutex
	rows   map[uint]domain.Subscription
	nextID uint
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{rows: map[uint]domain.Subscription{}}
}

func (f *fakeSubscriptions) Create(_ context.Context, s domain.Subscription) (domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s.ID = f.nextID
	f.rows[s.ID] = s
	return s, nil
}

func (f *fakeSubscriptions) FindByID(_ context.Context, id uint) (domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return domain.Subscription{}, repository.ErrSubscriptionNotFound
	}
	return s, nil
}

func (f *fakeSubscriptions) list(keep func(domain.Subscription) bool) []domain.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Subscription{}
	for _, s := range f.rows {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeSubscriptions) FindByField(_ context.Context, fieldID uint) ([]domain.Subscription, error) {
	return f.list(func(s domain.Subscription) bool { return s.FieldID == fieldID }), nil
}

func (f *fakeSubscriptions) FindAll(_ context.Context) ([]domain.Subscription, error) {
	return f.list(func(domain.Subscription) bool { return true }), nil
}

func (f *fakeSubscriptions) FindActiveEndedBefore(_ context.Context, date time.Time) ([]domain.Subscription, error) {
	return f.list(func(s domain.Subscription) bool {
		return s.Status == domain.SubscriptionActive && domain.DateBefore(s.EndDate, date)
	}), nil
}

func (f *fakeSubscriptions) UpdateStatus(_ context.Context, id uint, from, to domain.SubscriptionStatus) (domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return domain.Subscription{}, repository.ErrSubscriptionNotFound
	}
	if s.Status != from {
		return domain.Subscription{}, repository.ErrSubscriptionStale
	}
	s.Status = to
	f.rows[id] = s
	return s, nil
}

type fakeSettings struct {
	values map[string]string
}

func (f *fakeSettings) Get(_ context.Context, key string) (domain.Setting, error) {
	v, ok := f.values[key]
	if !ok {
		return domain.Setting{}, repository.ErrSettingNotFound
	}
	return domain.Setting{Key: key, Value: v}, nil
}

func (f *fakeSettings) Put(_ context.Context, s domain.Setting) (domain.Setting, error) {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[s.Key] = s.Value
	return s, nil
}

type fakeGate struct {
	blocked   bool
	throttled bool
}

func (g *fakeGate) CheckContact(_ context.Context, phone, _ string) error {
	if g.blocked {
		return domain.Reject(domain.ErrBlocked, "contact %s is blacklisted", phone)
	}
	return nil
}

func (g *fakeGate) MayReserve(ctx context.Context, phone, email, _ string) error {
	if err := g.CheckContact(ctx, phone, email); err != nil {
		return err
	}
	if g.throttled {
		return domain.Reject(domain.ErrBlocked, "too many reservations, try again later")
	}
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.ReservationEvent
}

func (n *recordingNotifier) Notify(_ context.Context, ev domain.ReservationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) types() []domain.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.EventType, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeUsers struct {
	rows   map[uint]domain.User
	nextID uint
}

func (f *fakeUsers) Create(_ context.Context, user domain.User) (domain.User, error) {
	if f.rows == nil {
		f.rows = map[uint]domain.User{}
	}
	for _, u := range f.rows {
		if u.Email == user.Email {
			return domain.User{}, repository.ErrUserEmailExists
		}
	}
	f.nextID++
	user.ID = f.nextID
	f.rows[user.ID] = user
	return user, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uint) (domain.User, error) {
	u, ok := f.rows[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range f.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) FindByRole(_ context.Context, roles ...domain.Role) ([]domain.User, error) {
	out := []domain.User{}
	for _, u := range f.rows {
		if len(roles) == 0 || slices.Contains(roles, u.Role) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsAdmin() != out[j].IsAdmin() {
			return out[i].IsAdmin()
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// fixture wires a ReservationService and a SubscriptionService over fakes.
// The clock starts on Monday 2024-06-03 at noon.
type fixture struct {
	clock    *domain.FixedClock
	fields   *fakeFields
	res      *fakeReservations
	subs     *fakeSubscriptions
	settings *fakeSettings
	gate     *fakeGate
	notifier *recordingNotifier

	reservations  *ReservationService
	subscriptions *SubscriptionService
}

var (
	monday  = time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	tuesday = time.Date(2024, time.June, 4, 0, 0, 0, 0, time.UTC)
)

func nightPrice(v float64) *float64 {
	return &v
}

func tennisField(id uint) domain.Field {
	return domain.Field{ID: id, Name: "Court " + string(rune('A'+id-1)), Sport: domain.SportTennis, DayPrice: 20, NightPrice: nightPrice(30), Active: true}
}

func footballField(id uint) domain.Field {
	return domain.Field{ID: id, Name: "Five pitch", Sport: domain.SportFootball, Format: domain.FormatSixASide, DayPrice: 50, NightPrice: nightPrice(60), Active: true}
}

func newFixture(fields ...domain.Field) *fixture {
	fx := &fixture{
		clock:    &domain.FixedClock{At: monday.Add(12 * time.Hour)},
		fields:   newFakeFields(fields...),
		subs:     newFakeSubscriptions(),
		settings: &fakeSettings{},
		gate:     &fakeGate{},
		notifier: &recordingNotifier{},
	}
	fx.res = newFakeReservations(fx.fields, fx.subs)

	policy := availability.NewPolicyStore(availability.DefaultPolicy())
	fx.reservations = NewReservationService(ReservationDeps{
		Repo:               fx.res,
		Fields:             fx.fields,
		Subscriptions:      fx.subs,
		NightStart:         NewSettingService(fx.settings, domain.MustParseTimeOfDay(domain.DefaultNightStart)),
		Gate:               fx.gate,
		Notifier:           fx.notifier,
		Policy:             policy,
		Clock:              fx.clock,
		ConfirmationWindow: 15 * time.Minute,
	})
	fx.subscriptions = NewSubscriptionService(fx.subs, fx.fields, fx.reservations, policy, fx.clock)

	return fx
}

func tod(s string) domain.TimeOfDay {
	return domain.MustParseTimeOfDay(s)
}

func booking(fieldID uint, date time.Time, start string, hours float64) CreateReservationInput {
	return CreateReservationInput{
		Customer:      domain.Customer{Name: "Ana", Phone: "+33 6 12 34 56 78", Email: "ana@example.com"},
		FieldID:       fieldID,
		Date:          date,
		Start:         tod(start),
		DurationHours: hours,
		Fingerprint:   "device-1",
	}
}
