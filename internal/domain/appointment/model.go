// Package appointment manages the booking lifecycle between patients and
// doctors and serves the portal views over it.
package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	StatusBooked    = "booked"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Appointment is a booked visit. Patient and doctor names are denormalized
// at booking time so listings and views render without extra lookups.
type Appointment struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	PatientName string    `json:"patient_name"`
	DoctorName  string    `json:"doctor_name"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func validateSlot(date, timeOfDay string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	if _, err := time.Parse(timeLayout, timeOfDay); err != nil {
		return fmt.Errorf("time must be in HH:MM format")
	}
	return nil
}
