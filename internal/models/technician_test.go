package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Field names that must never appear in scrubbed technician output.
var technicianPIIKeys = []string{
	"email", "phoneNumber", "mobilePhone", "outboundCallerId", "loginName",
	"home", "location", "bio", "memo", "payrollId", "payrollProfileId",
	"hourlyRate", "burdenRate", "commissionRate", "soldByRate",
	"aadUserId", "userId", "accountLocked", "permissions",
}

func sampleTechnician() Technician {
	return Technician{
		ID:             900,
		Name:           "Danny Rodriguez",
		Active:         true,
		BusinessUnitID: 7,
		Team:           "Slab",

		Email:       "danny@example.com",
		PhoneNumber: "555-0142",
		MobilePhone: "555-0143",
		LoginName:   "drodriguez",
		Home:        &TechnicianHome{Street: "12 Oak Lane", City: "Riverside", State: "CA"},
		PayrollID:   "PR-900",
		HourlyRate:  38.50,
	}
}

func TestTechnicianScrubbed(t *testing.T) {
	tech := sampleTechnician()
	safe := tech.Scrubbed()

	assert.Equal(t, tech.ID, safe.ID)
	assert.Equal(t, tech.Name, safe.Name)
	assert.True(t, safe.Active)
	assert.Equal(t, tech.BusinessUnitID, safe.BusinessUnitID)
	assert.Equal(t, tech.Team, safe.Team)
}

func TestTechnicianScrubbedMarshalHasNoPIIKeys(t *testing.T) {
	out, err := json.Marshal(sampleTechnician().Scrubbed())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))

	for _, key := range technicianPIIKeys {
		assert.NotContains(t, decoded, key)
	}
	assert.NotContains(t, string(out), "danny@example.com")
	assert.NotContains(t, string(out), "555-0142")
	assert.NotContains(t, string(out), "Oak Lane")

	assert.Contains(t, decoded, "id")
	assert.Contains(t, decoded, "name")
	assert.Contains(t, decoded, "active")
}
