package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"servicetitan-mcp/internal/models"
)

// recallFixture covers the revisit tools: job 200 is a true recall of
// job 100, job 300 is a recall whose original fell outside the window.
func recallFixture() *stubAPI {
	return &stubAPI{responses: map[string]string{
		"settings /technicians":    techPage(),
		"settings /business-units": page(`{"id":5,"name":"Leak Detection"}`),
		"settings /tag-types":      page(`{"id":7,"name":"SET TEST"},{"id":8,"name":"Warranty"}`),
		"jpm /job-types":           page(`{"id":1,"name":"CSLD"},{"id":2,"name":"GO BACK"}`),
		"jpm /jobs": page(`{"id":100,"jobNumber":"J-100","jobStatus":"Completed","completedOn":"2025-06-09T10:00:00Z","total":1000,"technicianId":11,"jobTypeId":1,"businessUnitId":5},` +
			`{"id":200,"jobNumber":"J-200","jobStatus":"Completed","completedOn":"2025-06-12T10:00:00Z","total":0,"noCharge":true,"technicianId":12,"jobTypeId":2,"businessUnitId":5,"recallForId":100,"tagTypeIds":[8],"summary":"Customer says leak came back"},` +
			`{"id":300,"jobNumber":"J-300","jobStatus":"Completed","completedOn":"2025-06-13T09:00:00Z","total":150,"technicianId":11,"jobTypeId":2,"businessUnitId":5,"recallForId":999},` +
			`{"id":400,"jobNumber":"J-400","jobStatus":"Completed","completedOn":"2025-06-11T08:00:00Z","total":500,"technicianId":12,"jobTypeId":1,"businessUnitId":5}`),
	}}
}

func TestRecalls(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.Recalls(context.Background(), "", "", "", "")
	sep := strings.Repeat("─", 60)
	want := strings.Join([]string{
		"Recall Jobs  |  " + testWindow,
		sep,
		"Recall #J-200  |  2025-06-12  |  Leak Detection  |  $0.00  |  No-Charge",
		"  Recall Tech:  Freddy Gonzalez",
		"  Tags:         Warranty",
		"  Original Job: #J-100  |  2025-06-09  |  CSLD  |  $1,000.00  |  Danny Rivera  |  3d later",
		`  ⚠️  Summary (may contain customer info): "Customer says leak came back"`,
		"",
		"Recall #J-300  |  2025-06-13  |  Leak Detection  |  $150.00",
		"  Recall Tech:  Danny Rivera",
		"  Original Job: ID 999  (outside current date range — widen dates to see details)",
		"",
		sep,
		"Total recalls: 2  |  " + testWindow,
	}, "\n")
	assert.Equal(t, want, out)
}

func TestRecallsTechnicianFilter(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.Recalls(context.Background(), "", "", "Freddy", "")
	assert.Contains(t, out, "Filter: Recall Tech = Freddy")
	assert.Contains(t, out, "Recall #J-200")
	assert.NotContains(t, out, "Recall #J-300")
	assert.Contains(t, out, "Total recalls: 1")
}

func TestRecallsTechnicianFilterMiss(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.Recalls(context.Background(), "", "", "Zelda", "")
	assert.Equal(t, "No technician found matching 'Zelda'. Available: Danny Rivera, Freddy Gonzalez", out)
}

func TestRecallsBusinessUnitFilter(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.Recalls(context.Background(), "", "", "", "leak")
	assert.Contains(t, out, "Filter: Business Unit = leak")
	assert.Contains(t, out, "Total recalls: 2")

	// A unit nothing matches simply yields the empty-result note.
	out = ts.Recalls(context.Background(), "", "", "", "Plumbing")
	assert.Contains(t, out, "No recall jobs found in this date range.")
}

func TestRecallsEmpty(t *testing.T) {
	ts := newTestToolset(&stubAPI{})

	out := ts.Recalls(context.Background(), "", "", "", "")
	sep := strings.Repeat("─", 60)
	want := strings.Join([]string{
		"Recall Jobs  |  " + testWindow,
		sep,
		"No recall jobs found in this date range.",
		"",
		"Note: Only jobs booked via Job Actions → 'Recall...' are counted here. GO BACK jobs without a recallForId are not true recalls.",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestCallbackChains(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.CallbackChains(context.Background(), "", "", "", 0)
	sep := strings.Repeat("─", 60)
	want := strings.Join([]string{
		"Callback Chains  |  " + testWindow + "  |  Min length: 2",
		sep,
		"Chain: Original Job #100  (2 truck rolls  |  3d span)",
		"  Original  |  2025-06-09  |  CSLD  |  Danny Rivera  |  $1,000.00",
		"  Recall 1   |  2025-06-12  |  GO BACK  |  Freddy Gonzalez  |  $0.00  |  No-Charge  |  Tags: Warranty",
		"  Opportunity Cost: ~$412.50  (1 recall visit × $412.50 avg/job)",
		"",
		"Chain: Original Job #999  (2 truck rolls)",
		"  Original Job #999  (outside date range)",
		"  Recall 1   |  2025-06-13  |  GO BACK  |  Danny Rivera  |  $150.00",
		"  Opportunity Cost: ~$412.50  (1 recall visit × $412.50 avg/job)",
		"",
		sep,
		"Total chains: 2  |  Total truck rolls: 4  |  Total opportunity cost: ~$825.00",
		"Note: Chains based on recallForId links only. GO BACK jobs without a recall link are not included.",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestCallbackChainsMinLength(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.CallbackChains(context.Background(), "", "", "", 3)
	want := "Callback Chains  |  " + testWindow + "  |  Min length: 3\n" +
		strings.Repeat("─", 60) + "\n" +
		"No callback chains with 3+ visits found in this date range."
	assert.Equal(t, want, out)
}

func TestCallbackChainsFiltersOnOriginalTechnician(t *testing.T) {
	ts := newTestToolset(recallFixture())

	// Danny ran original job 100; the chain rooted at unknown job 999
	// has no original technician and drops out.
	out := ts.CallbackChains(context.Background(), "", "", "Danny", 0)
	assert.Contains(t, out, "Chain: Original Job #100")
	assert.NotContains(t, out, "Chain: Original Job #999")
	assert.Contains(t, out, "Total chains: 1")
}

func TestRecallSummaryByTechnician(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.RecallSummary(context.Background(), "", "", "technician")
	sep := strings.Repeat("─", 60)
	want := strings.Join([]string{
		"Recall Summary  |  " + testWindow + "  |  by Technician",
		sep,
		"Danny Rivera     |  1 recall / 2 jobs  |  50.0%  |  Avg 3d to recall  |  ~$412.50 opp cost",
		"Freddy Gonzalez  |  0 recalls / 2 jobs  |  0.0%",
		"Unknown          |  1 recall / 0 jobs  |  0.0%  |  Avg 0d to recall  |  ~$412.50 opp cost",
		"",
		sep,
		"GO BACK Classification (all GO BACK jobs in range):",
		"  True Recalls (recallForId set):          2  (50.0% of completed jobs)",
		"  Set Test (tag-based):                    0",
		"  Other GO BACK / Unclassified:            0",
		"  Total GO BACK jobs:                      2",
		"",
		"Overall Recall Rate:    50.0%  (2 recalls / 4 completed jobs)",
		"Total Opportunity Cost: ~$825.00",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestRecallSummaryByJobType(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.RecallSummary(context.Background(), "", "", "job_type")
	assert.Contains(t, out, "  |  by Job Type")
	// Both recalls' originals are CSLD jobs or unknown; the GO BACK type
	// itself never accumulates recalls.
	assert.Contains(t, out, "CSLD")
}

func TestRecallSummaryNoRecallsClassifiesGoBacks(t *testing.T) {
	api := &stubAPI{responses: map[string]string{
		"settings /technicians": techPage(),
		"jpm /job-types":        page(`{"id":2,"name":"GO BACK"}`),
		"jpm /jobs":             page(`{"id":500,"jobNumber":"J-500","jobStatus":"Completed","completedOn":"2025-06-10T10:00:00Z","jobTypeId":2,"technicianId":11}`),
	}}
	ts := newTestToolset(api)

	out := ts.RecallSummary(context.Background(), "", "", "")
	sep := strings.Repeat("─", 60)
	want := strings.Join([]string{
		"Recall Summary  |  " + testWindow + "  |  by Technician",
		sep,
		"No recall jobs found in this date range.",
		"",
		"Total GO BACK jobs: 1",
		"None have recallForId set (no true recalls via Recall action).",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestJobsByTag(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.JobsByTag(context.Background(), "Warranty", "", "", "")
	sep := strings.Repeat("─", 60)
	want := strings.Join([]string{
		`Jobs by Tag: "Warranty"  |  ` + testWindow,
		sep,
		"Job #J-200  |  2025-06-12  |  GO BACK  |  Freddy Gonzalez  |  $0.00  No-Charge  |  Completed  ← RECALL",
		"  Tags:  [Warranty]",
		"",
		sep,
		`Total: 1 job with tag(s) "Warranty"  |  ` + testWindow,
	}, "\n")
	assert.Equal(t, want, out)
}

func TestJobsByTagUnknownTag(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.JobsByTag(context.Background(), "Bogus, Warranty", "", "", "")
	assert.Equal(t, "Unknown tag name(s): Bogus\n\nAvailable tags: SET TEST, Warranty", out)
}

func TestJobsByTagDisplaySortedByTagID(t *testing.T) {
	ts := newTestToolset(recallFixture())

	// SET TEST has the lower tag id and leads the display regardless of
	// the order the caller wrote the names in.
	out := ts.JobsByTag(context.Background(), "Warranty, SET TEST", "", "", "")
	assert.Contains(t, out, `Jobs by Tag: "SET TEST", "Warranty"  |  `)
}

func TestJobsByTagNoMatches(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.JobsByTag(context.Background(), "SET TEST", "", "", "")
	assert.Contains(t, out, "No jobs found with the specified tag(s) in this date range.")
}

func TestJobsByTagTechnicianFilter(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.JobsByTag(context.Background(), "Warranty", "", "", "Danny")
	assert.Contains(t, out, "Filter: Technician = Danny")
	assert.Contains(t, out, "No jobs found with the specified tag(s) in this date range.")
}

func TestSearchJobSummaries(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.SearchJobSummaries(context.Background(), "leak came", "", "", "", "")
	sep := strings.Repeat("─", 60)
	want := strings.Join([]string{
		`Job Summary Search: "leak came"  |  ` + testWindow,
		"⚠️  WARNING: Job summaries are free-text dispatcher notes and may contain",
		"    customer names, phone numbers, or addresses.",
		sep,
		"Job #J-200  |  2025-06-12  |  GO BACK  |  Freddy Gonzalez  |  Completed  ← RECALL",
		`  Summary: "Customer says leak came back"`,
		"",
		sep,
		"Showing 1 of 1 match.",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestSearchJobSummariesNoMatches(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.SearchJobSummaries(context.Background(), "water heater", "", "", "", "")
	assert.Contains(t, out, `No jobs found with "water heater" in the summary.`)
}

func TestSearchJobSummariesFilters(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.SearchJobSummaries(context.Background(), "leak came", "", "", "Danny", "CSLD")
	assert.Contains(t, out, "Filter: Technician = Danny")
	assert.Contains(t, out, "Filter: Job Type = CSLD")
	assert.Contains(t, out, `No jobs found with "leak came" in the summary.`)
}

func TestSearchJobSummariesCaseInsensitive(t *testing.T) {
	ts := newTestToolset(recallFixture())

	out := ts.SearchJobSummaries(context.Background(), "LEAK CAME", "", "", "", "")
	assert.Contains(t, out, "Showing 1 of 1 match.")
}

func TestDaysApart(t *testing.T) {
	a := models.NewAPITime(day(2025, 6, 9).Add(10 * time.Hour))
	b := models.NewAPITime(day(2025, 6, 12).Add(10 * time.Hour))

	days, known := daysApart(a, b)
	assert.True(t, known)
	assert.Equal(t, 3, days)

	// Inverted order still yields the absolute distance.
	days, known = daysApart(b, a)
	assert.True(t, known)
	assert.Equal(t, 3, days)

	// Partial days truncate toward zero.
	c := models.NewAPITime(day(2025, 6, 12).Add(9 * time.Hour))
	days, _ = daysApart(a, c)
	assert.Equal(t, 2, days)

	_, known = daysApart(models.APITime{}, b)
	assert.False(t, known)
}
