package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentScrubbed(t *testing.T) {
	appt := Appointment{
		ID:                1,
		AppointmentNumber: "A-100",
		Start:             NewAPITime(time.Date(2025, 11, 18, 8, 0, 0, 0, time.UTC)),
		End:               NewAPITime(time.Date(2025, 11, 18, 10, 30, 0, 0, time.UTC)),
		Status:            AppointmentStatusDone,
		JobID:             55,
		Active:            true,

		TechnicianID:        900,
		CustomerID:          5501,
		SpecialInstructions: "Gate code 4412, dog in yard",
		AssignedTechnicians: []AssignedTechnician{{TechnicianID: 900, Role: "Primary"}},
	}

	safe := appt.Scrubbed()
	assert.Equal(t, appt.ID, safe.ID)
	assert.Equal(t, appt.JobID, safe.JobID)
	assert.Equal(t, appt.Status, safe.Status)

	out, err := json.Marshal(safe)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.NotContains(t, decoded, "customerId")
	assert.NotContains(t, decoded, "specialInstructions")
	assert.NotContains(t, decoded, "technicianId")
	assert.NotContains(t, decoded, "assignedTechnicians")
	assert.NotContains(t, string(out), "Gate code")
}

func TestAppointmentDurationHours(t *testing.T) {
	start := NewAPITime(time.Date(2025, 11, 18, 8, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		appt SafeAppointment
		want float64
	}{
		{"normal", SafeAppointment{Start: start, End: NewAPITime(start.Add(150 * time.Minute))}, 2.5},
		{"missing end", SafeAppointment{Start: start}, 0},
		{"missing start", SafeAppointment{End: start}, 0},
		{"inverted", SafeAppointment{Start: start, End: NewAPITime(start.Add(-time.Hour))}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.appt.DurationHours(), 0.0001)
		})
	}
}
