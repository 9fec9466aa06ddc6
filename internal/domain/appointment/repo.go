package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrAppointmentNotFound is returned when no appointment matches the lookup.
var ErrAppointmentNotFound = errors.New("appointment not found")

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	SlotTaken(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (bool, error)
}
