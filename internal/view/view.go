// Package view builds display models for the patient-facing portal pages.
// It is a pure projection layer: it receives records fetched and authorized
// elsewhere and maps them to structures a rendering collaborator (JSON
// encoder or HTML layout) can consume.
package view

import "fmt"

// AppointmentRecord is the minimal read-only data needed to display one
// appointment. All fields are opaque display strings owned by the caller.
type AppointmentRecord struct {
	ID     string `json:"id"`
	Doctor string `json:"doctor"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

// Field is one labelled value on a detail page.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Link is a resolved navigation target.
type Link struct {
	Name   string `json:"name"`
	Target string `json:"target"`
}

// DisplayModel is the output of a render call. It is constructed fresh per
// call and never cached or mutated afterwards.
type DisplayModel struct {
	Title           string  `json:"title,omitempty"`
	Fields          []Field `json:"fields,omitempty"`
	NotFoundMessage string  `json:"not_found_message,omitempty"`
	Navigation      []Link  `json:"navigation"`
}

// LinkResolver maps a named route to a navigation target. Implementations
// wrap the host router; the view never constructs URLs itself.
type LinkResolver interface {
	Resolve(route string) (string, error)
}

// ResolverFunc adapts a function to the LinkResolver interface.
type ResolverFunc func(route string) (string, error)

func (f ResolverFunc) Resolve(route string) (string, error) { return f(route) }

// Named routes consumed by the appointment detail view.
const (
	RoutePatientDashboard = "patient_dashboard"
	RouteLogout           = "logout"
)

// Appointment maps an appointment record, or its absence, to a DisplayModel.
//
// A nil record is not an error: the model carries a not-found message and the
// navigation links stay intact. Resolver failures are returned unmodified.
func Appointment(record *AppointmentRecord, links LinkResolver) (DisplayModel, error) {
	nav, err := navigation(links)
	if err != nil {
		return DisplayModel{}, err
	}

	if record == nil {
		return DisplayModel{
			NotFoundMessage: "Appointment not found.",
			Navigation:      nav,
		}, nil
	}

	return DisplayModel{
		Title: fmt.Sprintf("Patient View – Appointment #%s", record.ID),
		Fields: []Field{
			{Label: "Doctor", Value: record.Doctor},
			{Label: "Date", Value: record.Date},
			{Label: "Time", Value: record.Time},
		},
		Navigation: nav,
	}, nil
}

func navigation(links LinkResolver) ([]Link, error) {
	dashboard, err := links.Resolve(RoutePatientDashboard)
	if err != nil {
		return nil, err
	}
	logout, err := links.Resolve(RouteLogout)
	if err != nil {
		return nil, err
	}
	return []Link{
		{Name: "Back to Dashboard", Target: dashboard},
		{Name: "Logout", Target: logout},
	}, nil
}
