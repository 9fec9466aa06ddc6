package appointment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medtrack/medtrack/internal/domain/identity"
	"github.com/medtrack/medtrack/internal/platform/auth"
	"github.com/medtrack/medtrack/internal/platform/notification"
)

type mockApptRepo struct {
	appts []*Appointment
}

func (m *mockApptRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appts = append(m.appts, a)
	return nil
}

func (m *mockApptRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	for _, a := range m.appts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *mockApptRepo) Update(_ context.Context, a *Appointment) error {
	for i, existing := range m.appts {
		if existing.ID == a.ID {
			a.UpdatedAt = time.Now()
			m.appts[i] = a
			return nil
		}
	}
	return ErrAppointmentNotFound
}

func (m *mockApptRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return m.filter(func(a *Appointment) bool { return a.PatientID == patientID }, limit, offset)
}

func (m *mockApptRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return m.filter(func(a *Appointment) bool { return a.DoctorID == doctorID }, limit, offset)
}

func (m *mockApptRepo) filter(keep func(*Appointment) bool, limit, offset int) ([]*Appointment, int, error) {
	var matched []*Appointment
	for _, a := range m.appts {
		if keep(a) {
			matched = append(matched, a)
		}
	}
	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *mockApptRepo) SlotTaken(_ context.Context, doctorID uuid.UUID, date, timeOfDay string) (bool, error) {
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Date == date && a.Time == timeOfDay && a.Status == StatusBooked {
			return true, nil
		}
	}
	return false, nil
}

type mockUserRepo struct {
	users map[uuid.UUID]*identity.User
}

func (m *mockUserRepo) Create(_ context.Context, u *identity.User) error {
	u.ID = uuid.New()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, identity.ErrUserNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *identity.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string, limit, offset int) ([]*identity.User, int, error) {
	var matched []*identity.User
	for _, u := range m.users {
		if u.Role == role {
			matched = append(matched, u)
		}
	}
	return matched, len(matched), nil
}

type fixture struct {
	svc     *Service
	appts   *mockApptRepo
	sender  *notification.MockEmailSender
	patient *identity.User
	doctor  *identity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	appts := &mockApptRepo{}
	users := &mockUserRepo{users: make(map[uuid.UUID]*identity.User)}
	sender := &notification.MockEmailSender{}
	notifier := notification.NewManager(sender, zerolog.Nop())

	patient := &identity.User{Name: "Alice Wong", Email: "alice@example.com", Role: auth.RolePatient, Active: true}
	doctor := &identity.User{Name: "Dr. Lee", Email: "lee@example.com", Role: auth.RoleDoctor, Active: true}
	users.Create(context.Background(), patient)
	users.Create(context.Background(), doctor)

	return &fixture{
		svc:     NewService(appts, users, notifier),
		appts:   appts,
		sender:  sender,
		patient: patient,
		doctor:  doctor,
	}
}

func (f *fixture) book(t *testing.T) *Appointment {
	t.Helper()
	a, err := f.svc.Book(context.Background(), f.patient.ID, f.doctor.ID, "2026-09-01", "10:30", "Checkup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return a
}

func TestBook(t *testing.T) {
	f := newFixture(t)

	a := f.book(t)

	if a.Status != StatusBooked {
		t.Errorf("expected status booked, got %s", a.Status)
	}
	if a.PatientName != "Alice Wong" || a.DoctorName != "Dr. Lee" {
		t.Errorf("expected names denormalized, got %q / %q", a.PatientName, a.DoctorName)
	}

	calls := f.sender.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 email, got %d", len(calls))
	}
	if calls[0].To != "lee@example.com" {
		t.Errorf("expected booking email to the doctor, got %q", calls[0].To)
	}
	if !strings.Contains(calls[0].Body, "Alice Wong") {
		t.Errorf("expected booking email to name the patient, got %q", calls[0].Body)
	}
}

func TestBook_SlotTaken(t *testing.T) {
	f := newFixture(t)
	f.book(t)

	_, err := f.svc.Book(context.Background(), f.patient.ID, f.doctor.ID, "2026-09-01", "10:30", "Follow-up")
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}
}

func TestBook_SlotFreedByCancel(t *testing.T) {
	f := newFixture(t)
	a := f.book(t)

	if _, err := f.svc.Cancel(context.Background(), a.ID, f.patient.ID.String(), auth.RolePatient); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Book(context.Background(), f.patient.ID, f.doctor.ID, "2026-09-01", "10:30", "Retry"); err != nil {
		t.Errorf("expected cancelled slot to be bookable again, got %v", err)
	}
}

func TestBook_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Book(ctx, f.patient.ID, f.doctor.ID, "01-09-2026", "10:30", ""); err == nil {
		t.Error("expected error for bad date format")
	}
	if _, err := f.svc.Book(ctx, f.patient.ID, f.doctor.ID, "2026-09-01", "10.30", ""); err == nil {
		t.Error("expected error for bad time format")
	}
	if _, err := f.svc.Book(ctx, f.patient.ID, uuid.New(), "2026-09-01", "10:30", ""); err == nil {
		t.Error("expected error for unknown doctor")
	}
	if _, err := f.svc.Book(ctx, f.patient.ID, f.patient.ID, "2026-09-01", "10:30", ""); err == nil {
		t.Error("expected error when the target account is not a doctor")
	}
}

func TestGet_OwnershipScoping(t *testing.T) {
	f := newFixture(t)
	a := f.book(t)
	ctx := context.Background()

	if _, err := f.svc.Get(ctx, a.ID, f.patient.ID.String(), auth.RolePatient); err != nil {
		t.Errorf("expected patient to see their appointment: %v", err)
	}
	if _, err := f.svc.Get(ctx, a.ID, f.doctor.ID.String(), auth.RoleDoctor); err != nil {
		t.Errorf("expected doctor to see their appointment: %v", err)
	}

	if _, err := f.svc.Get(ctx, a.ID, uuid.NewString(), auth.RolePatient); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected not found for another patient, got %v", err)
	}
	if _, err := f.svc.Get(ctx, uuid.New(), f.patient.ID.String(), auth.RolePatient); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected not found for unknown id, got %v", err)
	}
}

func TestComplete(t *testing.T) {
	f := newFixture(t)
	a := f.book(t)
	ctx := context.Background()

	done, err := f.svc.Complete(ctx, a.ID, f.doctor.ID.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Errorf("expected status completed, got %s", done.Status)
	}

	calls := f.sender.Calls()
	last := calls[len(calls)-1]
	if last.To != "alice@example.com" {
		t.Errorf("expected completion email to the patient, got %q", last.To)
	}

	if _, err := f.svc.Complete(ctx, a.ID, f.doctor.ID.String()); !errors.Is(err, ErrNotBooked) {
		t.Errorf("expected ErrNotBooked on second completion, got %v", err)
	}
}

func TestComplete_WrongDoctor(t *testing.T) {
	f := newFixture(t)
	a := f.book(t)

	_, err := f.svc.Complete(context.Background(), a.ID, uuid.NewString())
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected not found for another doctor, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	a := f.book(t)
	ctx := context.Background()

	cancelled, err := f.svc.Cancel(ctx, a.ID, f.patient.ID.String(), auth.RolePatient)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected status cancelled, got %s", cancelled.Status)
	}

	calls := f.sender.Calls()
	last := calls[len(calls)-1]
	if last.To != "alice@example.com" {
		t.Errorf("expected cancellation email to the patient, got %q", last.To)
	}
}

func TestCancel_CompletedAppointment(t *testing.T) {
	f := newFixture(t)
	a := f.book(t)
	ctx := context.Background()

	f.svc.Complete(ctx, a.ID, f.doctor.ID.String())

	_, err := f.svc.Cancel(ctx, a.ID, f.patient.ID.String(), auth.RolePatient)
	if !errors.Is(err, ErrNotBooked) {
		t.Errorf("expected ErrNotBooked, got %v", err)
	}
}

func TestListForUser(t *testing.T) {
	f := newFixture(t)
	f.book(t)
	ctx := context.Background()

	appts, total, err := f.svc.ListForUser(ctx, f.patient.ID.String(), auth.RolePatient, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(appts) != 1 {
		t.Errorf("expected 1 appointment for patient, got total=%d len=%d", total, len(appts))
	}

	appts, total, err = f.svc.ListForUser(ctx, f.doctor.ID.String(), auth.RoleDoctor, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(appts) != 1 {
		t.Errorf("expected 1 appointment for doctor, got total=%d len=%d", total, len(appts))
	}

	if _, _, err := f.svc.ListForUser(ctx, "not-a-uuid", auth.RolePatient, 10, 0); err == nil {
		t.Error("expected error for invalid user id")
	}
}
