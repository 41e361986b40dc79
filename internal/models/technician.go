package models

import "encoding/json"

// Technician is a technician record from the settings v2 endpoint. It
// carries contact details, payroll rates, and login identifiers that must
// never appear in tool output.
type Technician struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name,omitempty"`
	Active         bool    `json:"active,omitempty"`
	BusinessUnitID int64   `json:"businessUnitId,omitempty"`
	Team           string  `json:"team,omitempty"`
	DailyGoal      float64 `json:"dailyGoal,omitempty"`
	IsManagedTech  bool    `json:"isManagedTech,omitempty"`
	CreatedOn      APITime `json:"createdOn"`
	ModifiedOn     APITime `json:"modifiedOn"`

	// Personal and payroll fields, stripped by Scrubbed.
	Email            string          `json:"email,omitempty"`
	PhoneNumber      string          `json:"phoneNumber,omitempty"`
	MobilePhone      string          `json:"mobilePhone,omitempty"`
	OutboundCallerID string          `json:"outboundCallerId,omitempty"`
	LoginName        string          `json:"loginName,omitempty"`
	Home             *TechnicianHome `json:"home,omitempty"`
	Location         *TechnicianHome `json:"location,omitempty"`
	Bio              string          `json:"bio,omitempty"`
	Memo             string          `json:"memo,omitempty"`
	PayrollID        string          `json:"payrollId,omitempty"`
	PayrollProfileID int64           `json:"payrollProfileId,omitempty"`
	HourlyRate       float64         `json:"hourlyRate,omitempty"`
	BurdenRate       float64         `json:"burdenRate,omitempty"`
	CommissionRate   float64         `json:"commissionRate,omitempty"`
	SoldByRate       float64         `json:"soldByRate,omitempty"`
	AADUserID        string          `json:"aadUserId,omitempty"`
	UserID           int64           `json:"userId,omitempty"`
	AccountLocked    bool            `json:"accountLocked,omitempty"`
	Permissions      json.RawMessage `json:"permissions,omitempty"`
}

// TechnicianHome is a street address attached to a technician record.
// Only present on raw records; it never survives scrubbing.
type TechnicianHome struct {
	Street  string `json:"street,omitempty"`
	Unit    string `json:"unit,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// SafeTechnician is the projection of a Technician used by tools: the
// name and organizational fields, nothing personal.
type SafeTechnician struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name,omitempty"`
	Active         bool    `json:"active,omitempty"`
	BusinessUnitID int64   `json:"businessUnitId,omitempty"`
	Team           string  `json:"team,omitempty"`
	DailyGoal      float64 `json:"dailyGoal,omitempty"`
	IsManagedTech  bool    `json:"isManagedTech,omitempty"`
	CreatedOn      APITime `json:"createdOn"`
	ModifiedOn     APITime `json:"modifiedOn"`
}

// Scrubbed returns the technician with contact, payroll, and login
// fields removed.
func (t Technician) Scrubbed() SafeTechnician {
	return SafeTechnician{
		ID:             t.ID,
		Name:           t.Name,
		Active:         t.Active,
		BusinessUnitID: t.BusinessUnitID,
		Team:           t.Team,
		DailyGoal:      t.DailyGoal,
		IsManagedTech:  t.IsManagedTech,
		CreatedOn:      t.CreatedOn,
		ModifiedOn:     t.ModifiedOn,
	}
}
