package service

import (
	"context"
	"sort"
	"time"

	"slotbook/cmd/internal/domain/entity"
	"slotbook/cmd/internal/utils"
	"slotbook/cmd/internal/utils/validators"
)

// fakeUserRepo keeps users in a map keyed by id.
type fakeUserRepo struct {
	users  map[int]*entity.User
	nextID int
	err    error
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int]*entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
		if u.ID >= r.nextID {
			r.nextID = u.ID
		}
	}
	return r
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int) (*entity.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.users[id], nil
}

func (r *fakeUserRepo) FindBySub(_ context.Context, sub string) (*entity.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.SubUUID == sub {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindProvider(_ context.Context, id int) (*entity.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	if u, ok := r.users[id]; ok && u.Provider {
		return u, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) FindProviders(_ context.Context) ([]*entity.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	var providers []*entity.User
	for _, u := range r.users {
		if u.Provider {
			providers = append(providers, u)
		}
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].Name < providers[j].Name })
	return providers, nil
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Save(_ context.Context, user *entity.User) error {
	if r.err != nil {
		return r.err
	}
	if user.ID == 0 {
		r.nextID++
		user.ID = r.nextID
	}
	r.users[user.ID] = user
	return nil
}

// fakeAppointmentRepo mimics the storage layer including the unique active
// slot per provider. The *Fn fields override the default behaviour.
type fakeAppointmentRepo struct {
	users  *fakeUserRepo
	appts  map[int]*entity.Appointment
	nextID int

	slotChecks int

	createFn func(appt *entity.Appointment) error
	cancelFn func(appt *entity.Appointment, at time.Time) (bool, error)
	findErr  error
}

func newFakeAppointmentRepo(users *fakeUserRepo) *fakeAppointmentRepo {
	return &fakeAppointmentRepo{users: users, appts: make(map[int]*entity.Appointment)}
}

func (r *fakeAppointmentRepo) FindByID(_ context.Context, id int) (*entity.Appointment, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	appt, ok := r.appts[id]
	if !ok {
		return nil, nil
	}
	return r.hydrate(appt), nil
}

func (r *fakeAppointmentRepo) IsSlotTaken(_ context.Context, providerID int, slot time.Time) (bool, error) {
	r.slotChecks++
	return r.active(providerID, slot) != nil, nil
}

func (r *fakeAppointmentRepo) Create(_ context.Context, appt *entity.Appointment) error {
	if r.createFn != nil {
		if err := r.createFn(appt); err != nil {
			return err
		}
	}
	if r.active(appt.ProviderID, appt.Slot) != nil {
		return entity.ErrSlotTaken
	}

	r.nextID++
	appt.ID = r.nextID
	appt.CreatedAt = appt.Date.Add(-24 * time.Hour)
	appt.UpdatedAt = appt.CreatedAt
	stored := *appt
	r.appts[appt.ID] = &stored
	return nil
}

func (r *fakeAppointmentRepo) Cancel(_ context.Context, appt *entity.Appointment, at time.Time) (bool, error) {
	if r.cancelFn != nil {
		return r.cancelFn(appt, at)
	}
	stored, ok := r.appts[appt.ID]
	if !ok || stored.CanceledAt != nil {
		return false, nil
	}
	stored.CanceledAt = &at
	appt.CanceledAt = &at
	return true, nil
}

func (r *fakeAppointmentRepo) FindActiveByCustomer(_ context.Context, customerID, limit, offset int) ([]*entity.Appointment, error) {
	var result []*entity.Appointment
	for _, appt := range r.appts {
		if appt.CustomerID == customerID && appt.CanceledAt == nil {
			result = append(result, r.hydrate(appt))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })

	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (r *fakeAppointmentRepo) FindProviderSlots(_ context.Context, providerID int, from, to time.Time) ([]*entity.Appointment, error) {
	var result []*entity.Appointment
	for _, appt := range r.appts {
		if appt.ProviderID == providerID && appt.CanceledAt == nil &&
			!appt.Slot.Before(from) && appt.Slot.Before(to) {
			result = append(result, &entity.Appointment{Slot: appt.Slot})
		}
	}
	return result, nil
}

func (r *fakeAppointmentRepo) active(providerID int, slot time.Time) *entity.Appointment {
	for _, appt := range r.appts {
		if appt.ProviderID == providerID && appt.Slot.Equal(slot) && appt.CanceledAt == nil {
			return appt
		}
	}
	return nil
}

func (r *fakeAppointmentRepo) hydrate(appt *entity.Appointment) *entity.Appointment {
	cp := *appt
	if p := r.users.users[appt.ProviderID]; p != nil {
		cp.Provider = *p
	}
	if c := r.users.users[appt.CustomerID]; c != nil {
		cp.Customer = *c
	}
	return &cp
}

type fakeNotifier struct {
	notifications []*entity.Notification
	err           error
}

func (n *fakeNotifier) Notify(_ context.Context, recipientID int, content string) (*entity.Notification, error) {
	if n.err != nil {
		return nil, n.err
	}
	notification := &entity.Notification{ID: len(n.notifications) + 1, RecipientID: recipientID, Content: content}
	n.notifications = append(n.notifications, notification)
	return notification, nil
}

type enqueuedJob struct {
	key     string
	payload any
}

type fakeDispatcher struct {
	jobs []enqueuedJob
	err  error
}

func (d *fakeDispatcher) Enqueue(_ context.Context, key string, payload any) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, enqueuedJob{key: key, payload: payload})
	return nil
}

// testClock is a settable clock for the rule engines.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Set(raw string) {
	t, err := utils.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	c.now = t
}

var (
	customerAna   = &entity.User{ID: 1, SubUUID: "sub-ana", Name: "Ana", Email: "ana@example.com"}
	providerBruno = &entity.User{ID: 2, SubUUID: "sub-bruno", Name: "Bruno", Email: "bruno@example.com", Provider: true,
		AvatarID: intPtr(7), Avatar: &entity.File{ID: 7, Name: "bruno.png", Path: "abc123.png"}}
	customerCaio   = &entity.User{ID: 3, SubUUID: "sub-caio", Name: "Caio", Email: "caio@example.com"}
	providerDalila = &entity.User{ID: 4, SubUUID: "sub-dalila", Name: "Dalila", Email: "dalila@example.com", Provider: true}
)

func intPtr(i int) *int {
	return &i
}

type appointmentFixture struct {
	svc        *DefaultAppointmentService
	users      *fakeUserRepo
	appts      *fakeAppointmentRepo
	notifier   *fakeNotifier
	dispatcher *fakeDispatcher
	clock      *testClock
}

func newAppointmentFixture(now string) *appointmentFixture {
	users := newFakeUserRepo(customerAna, providerBruno, customerCaio, providerDalila)
	appts := newFakeAppointmentRepo(users)
	notifier := &fakeNotifier{}
	dispatcher := &fakeDispatcher{}
	clock := &testClock{}
	clock.Set(now)

	svc := NewAppointmentService(appts, users, notifier, dispatcher, validators.New())
	svc.Clock = clock
	svc.FilesBaseURL = "https://cdn.example.com/files"

	return &appointmentFixture{svc: svc, users: users, appts: appts, notifier: notifier, dispatcher: dispatcher, clock: clock}
}

func (f *appointmentFixture) book(sub string, providerID int, date string) (*AppointmentResponse, error) {
	resp, apierr := f.svc.CreateAppointment(context.Background(), &AppointmentRequest{ProviderID: intPtr(providerID), Date: date}, sub)
	if apierr != nil {
		return nil, apierr
	}
	return resp, nil
}
