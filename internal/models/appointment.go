package models

// Appointment is an appointment record from the jpm v2 endpoint.
type Appointment struct {
	ID                 int64   `json:"id"`
	AppointmentNumber  string  `json:"appointmentNumber,omitempty"`
	Start              APITime `json:"start"`
	End                APITime `json:"end"`
	ArrivalWindowStart APITime `json:"arrivalWindowStart"`
	Status             string  `json:"status,omitempty"`
	JobID              int64   `json:"jobId,omitempty"`
	Active             bool    `json:"active,omitempty"`

	// Assignment and customer fields, stripped by Scrubbed.
	TechnicianID        int64                `json:"technicianId,omitempty"`
	AssignedTechnicians []AssignedTechnician `json:"assignedTechnicians,omitempty"`
	CustomerID          int64                `json:"customerId,omitempty"`
	SpecialInstructions string               `json:"specialInstructions,omitempty"`
}

// AssignedTechnician is one entry in an appointment's crew list.
type AssignedTechnician struct {
	TechnicianID int64  `json:"technicianId"`
	Role         string `json:"role,omitempty"`
	IsOriginal   bool   `json:"isOriginal,omitempty"`
}

// SafeAppointment carries the schedule fields of an appointment and
// nothing that could identify the customer or address.
type SafeAppointment struct {
	ID                 int64   `json:"id"`
	AppointmentNumber  string  `json:"appointmentNumber,omitempty"`
	Start              APITime `json:"start"`
	End                APITime `json:"end"`
	ArrivalWindowStart APITime `json:"arrivalWindowStart"`
	Status             string  `json:"status,omitempty"`
	JobID              int64   `json:"jobId,omitempty"`
	Active             bool    `json:"active,omitempty"`
}

// Scrubbed returns the appointment reduced to its schedule fields.
func (a Appointment) Scrubbed() SafeAppointment {
	return SafeAppointment{
		ID:                 a.ID,
		AppointmentNumber:  a.AppointmentNumber,
		Start:              a.Start,
		End:                a.End,
		ArrivalWindowStart: a.ArrivalWindowStart,
		Status:             a.Status,
		JobID:              a.JobID,
		Active:             a.Active,
	}
}

// DurationHours returns the scheduled length in hours. Appointments with
// a missing or inverted start/end pair count as zero, matching how the
// dashboard totals scheduled time.
func (a SafeAppointment) DurationHours() float64 {
	if a.Start.IsZero() || a.End.IsZero() {
		return 0
	}
	h := a.End.Sub(a.Start.Time).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// Appointment statuses returned by the jpm endpoint.
const (
	AppointmentStatusScheduled  = "Scheduled"
	AppointmentStatusDispatched = "Dispatched"
	AppointmentStatusWorking    = "Working"
	AppointmentStatusDone       = "Done"
	AppointmentStatusCanceled   = "Canceled"
)
