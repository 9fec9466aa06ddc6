package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medtrack/medtrack/internal/domain/identity"
	"github.com/medtrack/medtrack/internal/platform/auth"
	"github.com/medtrack/medtrack/internal/platform/notification"
)

var (
	// ErrSlotTaken is returned when the doctor already has a booked
	// appointment at the requested date and time.
	ErrSlotTaken = errors.New("the doctor is already booked at that time")
	// ErrNotBooked is returned when completing or cancelling an appointment
	// that is not in the booked state.
	ErrNotBooked = errors.New("appointment is no longer booked")
)

type Service struct {
	appts    AppointmentRepository
	users    identity.UserRepository
	notifier *notification.Manager
}

func NewService(appts AppointmentRepository, users identity.UserRepository, notifier *notification.Manager) *Service {
	return &Service{appts: appts, users: users, notifier: notifier}
}

// Book creates an appointment for the patient with the chosen doctor and
// emails the doctor about it.
func (s *Service) Book(ctx context.Context, patientID, doctorID uuid.UUID, date, timeOfDay, reason string) (*Appointment, error) {
	date = strings.TrimSpace(date)
	timeOfDay = strings.TrimSpace(timeOfDay)
	if err := validateSlot(date, timeOfDay); err != nil {
		return nil, err
	}

	patient, err := s.users.GetByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("lookup patient: %w", err)
	}
	doctor, err := s.users.GetByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("lookup doctor: %w", err)
	}
	if doctor.Role != auth.RoleDoctor {
		return nil, fmt.Errorf("selected account is not a doctor")
	}

	taken, err := s.appts.SlotTaken(ctx, doctorID, date, timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if taken {
		return nil, ErrSlotTaken
	}

	a := &Appointment{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		PatientName: patient.Name,
		DoctorName:  doctor.Name,
		Date:        date,
		Time:        timeOfDay,
		Reason:      strings.TrimSpace(reason),
		Status:      StatusBooked,
	}
	if err := s.appts.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	// Notification failures never roll back the booking.
	s.notifier.SendFromTemplate(ctx, doctor.Email, "appointment-booked", s.templateData(a))

	return a, nil
}

// Get returns the appointment if it belongs to the requester. An
// appointment owned by someone else is reported as not found.
func (s *Service) Get(ctx context.Context, id uuid.UUID, requesterID, requesterRole string) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(a, requesterID, requesterRole) {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

// ListForUser returns the requester's appointments, newest first.
func (s *Service) ListForUser(ctx context.Context, userID, role string, limit, offset int) ([]*Appointment, int, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid user id")
	}
	if role == auth.RoleDoctor {
		return s.appts.ListByDoctor(ctx, id, limit, offset)
	}
	return s.appts.ListByPatient(ctx, id, limit, offset)
}

// Complete marks a booked appointment as completed. Only the appointment's
// doctor may complete it. The patient is emailed afterwards.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, doctorID string) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.DoctorID.String() != doctorID {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != StatusBooked {
		return nil, ErrNotBooked
	}

	a.Status = StatusCompleted
	if err := s.appts.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.notifyPatient(ctx, a, "appointment-completed")
	return a, nil
}

// Cancel cancels a booked appointment. Either party may cancel their own
// appointment. The patient is emailed afterwards.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, requesterID, requesterRole string) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(a, requesterID, requesterRole) {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != StatusBooked {
		return nil, ErrNotBooked
	}

	a.Status = StatusCancelled
	if err := s.appts.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.notifyPatient(ctx, a, "appointment-cancelled")
	return a, nil
}

func (s *Service) notifyPatient(ctx context.Context, a *Appointment, templateID string) {
	patient, err := s.users.GetByID(ctx, a.PatientID)
	if err != nil {
		return
	}
	s.notifier.SendFromTemplate(ctx, patient.Email, templateID, s.templateData(a))
}

func (s *Service) templateData(a *Appointment) map[string]string {
	return map[string]string{
		"patient_name": a.PatientName,
		"doctor_name":  a.DoctorName,
		"date":         a.Date,
		"time":         a.Time,
		"reason":       a.Reason,
	}
}

func owns(a *Appointment, requesterID, requesterRole string) bool {
	switch requesterRole {
	case auth.RoleDoctor:
		return a.DoctorID.String() == requesterID
	case auth.RolePatient:
		return a.PatientID.String() == requesterID
	}
	return false
}
