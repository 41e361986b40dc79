package models

import "encoding/json"

// Job is a job record exactly as the ServiceTitan jpm v2 endpoint returns
// it, including fields that may carry customer information. Raw jobs never
// leave the server process: anything rendered into a tool response goes
// through Scrubbed first.
type Job struct {
	ID                 int64   `json:"id"`
	JobNumber          string  `json:"jobNumber,omitempty"`
	JobStatus          string  `json:"jobStatus,omitempty"`
	CompletedOn        APITime `json:"completedOn"`
	BusinessUnitID     int64   `json:"businessUnitId,omitempty"`
	JobTypeID          int64   `json:"jobTypeId,omitempty"`
	TechnicianID       int64   `json:"technicianId,omitempty"`
	Total              float64 `json:"total,omitempty"`
	CreatedOn          APITime `json:"createdOn"`
	AppointmentCount   int     `json:"appointmentCount,omitempty"`
	NoCharge           bool    `json:"noCharge,omitempty"`
	RecallForID        int64   `json:"recallForId,omitempty"`
	InvoiceID          int64   `json:"invoiceId,omitempty"`
	TagTypeIDs         []int64 `json:"tagTypeIds,omitempty"`
	FirstAppointmentID int64   `json:"firstAppointmentId,omitempty"`

	// RelatedJob links some older recall bookings that predate recallForId.
	RelatedJob *NameRef `json:"relatedJob,omitempty"`

	// Fields below may contain customer identifiers or free-text notes
	// written by dispatchers. SafeJob has no corresponding fields.
	Summary                string          `json:"summary,omitempty"`
	CustomerID             int64           `json:"customerId,omitempty"`
	LocationID             int64           `json:"locationId,omitempty"`
	CustomerPO             string          `json:"customerPo,omitempty"`
	LeadCallID             int64           `json:"leadCallId,omitempty"`
	PartnerLeadCallID      int64           `json:"partnerLeadCallId,omitempty"`
	BookingID              int64           `json:"bookingId,omitempty"`
	SoldByID               int64           `json:"soldById,omitempty"`
	ExternalData           json.RawMessage `json:"externalData,omitempty"`
	JobGeneratedLeadSource json.RawMessage `json:"jobGeneratedLeadSource,omitempty"`
}

// SafeJob is the customer-free projection of a Job. It is a separate type
// rather than a filtered copy so the compiler guarantees the stripped
// fields cannot be referenced downstream.
type SafeJob struct {
	ID                 int64   `json:"id"`
	JobNumber          string  `json:"jobNumber,omitempty"`
	JobStatus          string  `json:"jobStatus,omitempty"`
	CompletedOn        APITime `json:"completedOn"`
	BusinessUnitID     int64   `json:"businessUnitId,omitempty"`
	JobTypeID          int64   `json:"jobTypeId,omitempty"`
	TechnicianID       int64   `json:"technicianId,omitempty"`
	Total              float64 `json:"total,omitempty"`
	CreatedOn          APITime `json:"createdOn"`
	AppointmentCount   int     `json:"appointmentCount,omitempty"`
	NoCharge           bool    `json:"noCharge,omitempty"`
	RecallForID        int64   `json:"recallForId,omitempty"`
	InvoiceID          int64   `json:"invoiceId,omitempty"`
	TagTypeIDs         []int64 `json:"tagTypeIds,omitempty"`
	FirstAppointmentID int64   `json:"firstAppointmentId,omitempty"`
}

// Scrubbed returns the job with all customer-related fields removed.
func (j Job) Scrubbed() SafeJob {
	return SafeJob{
		ID:                 j.ID,
		JobNumber:          j.JobNumber,
		JobStatus:          j.JobStatus,
		CompletedOn:        j.CompletedOn,
		BusinessUnitID:     j.BusinessUnitID,
		JobTypeID:          j.JobTypeID,
		TechnicianID:       j.TechnicianID,
		Total:              j.Total,
		CreatedOn:          j.CreatedOn,
		AppointmentCount:   j.AppointmentCount,
		NoCharge:           j.NoCharge,
		RecallForID:        j.RecallForID,
		InvoiceID:          j.InvoiceID,
		TagTypeIDs:         j.TagTypeIDs,
		FirstAppointmentID: j.FirstAppointmentID,
	}
}

// IsRecall reports whether this job was opened as a recall of another job.
func (j Job) IsRecall() bool {
	return j.RecallForID != 0
}

// HasTag reports whether the job carries the given tag type.
func (j Job) HasTag(tagTypeID int64) bool {
	for _, id := range j.TagTypeIDs {
		if id == tagTypeID {
			return true
		}
	}
	return false
}

// IsRecall reports whether this job was opened as a recall of another job.
func (j SafeJob) IsRecall() bool {
	return j.RecallForID != 0
}

// HasTag reports whether the job carries the given tag type.
func (j SafeJob) HasTag(tagTypeID int64) bool {
	for _, id := range j.TagTypeIDs {
		if id == tagTypeID {
			return true
		}
	}
	return false
}

// Job statuses returned by the jpm endpoint.
const (
	JobStatusCompleted  = "Completed"
	JobStatusCanceled   = "Canceled"
	JobStatusScheduled  = "Scheduled"
	JobStatusInProgress = "InProgress"
	JobStatusHold       = "Hold"
)
