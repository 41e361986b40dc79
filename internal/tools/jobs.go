package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"servicetitan-mcp/internal/common/logging"
	"servicetitan-mcp/internal/common/pagination"
	"servicetitan-mcp/internal/models"
)

// ListTechnicians lists active technicians, optionally narrowed by a
// partial name.
func (t *Toolset) ListTechnicians(ctx context.Context, nameFilter string) string {
	t.logger.Info("tool.list_technicians", logging.String("name_filter", nameFilter))

	if nameFilter != "" {
		q := TechnicianNameQuery{NameFragment: nameFilter}
		if err := q.Validate(); err != nil {
			return errorReply(err)
		}
	}

	matches, err := t.findTechnicians(ctx, nameFilter)
	if err != nil {
		return t.failure("list_technicians", err)
	}

	if len(matches) == 0 {
		if nameFilter != "" {
			return fmt.Sprintf("No active technicians found matching %q.", nameFilter)
		}
		return "No active technicians found."
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	lines := []string{fmt.Sprintf("Active technicians (%d found):", len(matches))}
	for _, tech := range matches {
		lines = append(lines, "  • "+tech.Name)
	}
	return strings.Join(lines, "\n")
}

// TechnicianJobs reports one technician's job counts by status over a
// date range.
func (t *Toolset) TechnicianJobs(ctx context.Context, technicianName, startDate, endDate string) string {
	t.logger.Info("tool.get_technician_jobs",
		logging.String("technician_name", technicianName),
		logging.String("start_date", startDate),
		logging.String("end_date", endDate))

	q := TechnicianJobQuery{
		TechnicianName: technicianName,
		DateRange:      DateRange{Start: startDate, End: endDate},
	}
	if err := q.Validate(); err != nil {
		return errorReply(err)
	}
	start, end, err := q.Resolve(t.today())
	if err != nil {
		return errorReply(err)
	}

	tech, reply, err := t.resolveTechnician(ctx, q.TechnicianName)
	if err != nil {
		return t.failure("get_technician_jobs", err)
	}
	if reply != "" {
		return reply
	}

	jobs, err := pagination.FetchAll[models.SafeJob](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, tech.ID), 1000)
	if err != nil {
		return t.failure("get_technician_jobs", err)
	}

	return statusBreakdown(fmt.Sprintf("Jobs for %s", tech.Name), jobs, start, end)
}

// JobsSummary reports business-wide job counts by status.
func (t *Toolset) JobsSummary(ctx context.Context, startDate, endDate string) string {
	t.logger.Info("tool.get_jobs_summary",
		logging.String("start_date", startDate),
		logging.String("end_date", endDate))

	r := DateRange{Start: startDate, End: endDate}
	start, end, err := r.Resolve(t.today())
	if err != nil {
		return errorReply(err)
	}

	jobs, err := pagination.FetchAll[models.SafeJob](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, 0), 1000)
	if err != nil {
		return t.failure("get_jobs_summary", err)
	}

	return statusBreakdown("Business Job Summary", jobs, start, end)
}

// statusBreakdown renders the shared count-by-status report body.
func statusBreakdown(title string, jobs []models.SafeJob, start, end time.Time) string {
	counts := countJobsByStatus(jobs)
	total := len(jobs)

	lines := []string{
		fmt.Sprintf("%s  |  %s", title, formatDateRange(start, end)),
		rule(45),
		fmt.Sprintf("Total jobs:  %d", total),
	}
	if len(counts) > 0 {
		lines = append(lines, "")
		for _, status := range sortedStatusKeys(counts) {
			lines = append(lines, fmt.Sprintf("  %s %d", padRight(status, 20), counts[status]))
		}
	}
	if total == 0 {
		lines = append(lines, "\nNo completed jobs found in this date range.")
	}
	return strings.Join(lines, "\n")
}

// JobsByType lists individual jobs of the requested types with their
// full crews, revenue, and recall links.
func (t *Toolset) JobsByType(ctx context.Context, jobTypes, startDate, endDate, technicianName, status string) string {
	t.logger.Info("tool.get_jobs_by_type",
		logging.String("job_types", jobTypes),
		logging.String("start_date", startDate),
		logging.String("end_date", endDate),
		logging.String("technician_name", technicianName),
		logging.String("status", status))

	q := JobsByTypeQuery{
		JobTypes:       jobTypes,
		TechnicianName: technicianName,
		Status:         status,
		DateRange:      DateRange{Start: startDate, End: endDate},
	}
	if err := q.Validate(); err != nil {
		return errorReply(err)
	}
	start, end, err := q.Resolve(t.today())
	if err != nil {
		return errorReply(err)
	}

	typeNames, typeIndex, typeOrder, err := t.fetchJobTypeNames(ctx, 500, "ID")
	if err != nil {
		return t.failure("get_jobs_by_type", err)
	}

	wanted := q.JobTypeList()
	wantedIDs := make(map[int64]bool)
	var missing []string
	for _, name := range wanted {
		if id, ok := typeIndex[strings.ToLower(name)]; ok {
			wantedIDs[id] = true
		} else {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Sprintf("Unknown job type(s): %s.\nAvailable job types (sample): %s",
			strings.Join(missing, ", "), typeSample(typeOrder))
	}

	jobs, err := pagination.FetchAll[models.Job](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, 0), 3000)
	if err != nil {
		return t.failure("get_jobs_by_type", err)
	}
	appts, err := pagination.FetchAll[models.Appointment](ctx, t.api, "jpm", "/appointments",
		apptsParams(start, end, 0), 5000)
	if err != nil {
		return t.failure("get_jobs_by_type", err)
	}
	techs, err := t.findTechnicians(ctx, "")
	if err != nil {
		return t.failure("get_jobs_by_type", err)
	}
	techNames := technicianNames(techs)

	busRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "settings", "/business-units", nil, 200)
	if err != nil {
		return t.failure("get_jobs_by_type", err)
	}
	busNames := refNames(busRefs, "BU")

	jobCrews := buildJobCrews(appts)

	var techFilterID int64
	if q.TechnicianName != "" {
		tech, reply, err := t.matchTechnician(ctx, q.TechnicianName)
		if err != nil {
			return t.failure("get_jobs_by_type", err)
		}
		if reply != "" {
			return reply
		}
		techFilterID = tech.ID
	}

	var filtered []models.Job
	for _, job := range jobs {
		if !wantedIDs[job.JobTypeID] {
			continue
		}
		if q.Status != "All" && job.JobStatus != q.Status {
			continue
		}
		if techFilterID != 0 && job.TechnicianID != techFilterID && !crewContains(jobCrews[job.ID], techFilterID) {
			continue
		}
		filtered = append(filtered, job)
	}

	headerType := ""
	for _, name := range wanted {
		if id, ok := typeIndex[strings.ToLower(name)]; ok && typeNames[id] != "" {
			headerType = typeNames[id]
			break
		}
	}
	if headerType == "" {
		headerType = strings.Join(wanted, ", ")
	}

	lines := []string{
		fmt.Sprintf("%s Jobs  |  %s", headerType, formatDateRange(start, end)),
		rule(50),
	}
	if len(filtered) == 0 {
		lines = append(lines, "No matching jobs found in this date range.")
		return strings.Join(lines, "\n")
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CompletedOn.Time.Before(filtered[j].CompletedOn.Time)
	})

	techCounts := make(map[string]int)
	var techOrder []string
	var totalRevenue float64
	noCharge := 0

	for _, job := range filtered {
		jobNum := job.JobNumber
		if jobNum == "" {
			jobNum = strconv.FormatInt(job.ID, 10)
		}
		totalRevenue += job.Total
		if job.NoCharge {
			noCharge++
		}

		lines = append(lines, fmt.Sprintf("Job #%s  |  %s  |  %s  |  %s",
			jobNum, dateOrDash(job.CompletedOn), fmtCurrency(job.Total),
			nameOr(busNames, job.BusinessUnitID, dash)))

		crew := jobCrews[job.ID]
		if job.TechnicianID != 0 && !crewContains(crew, job.TechnicianID) {
			crew = append([]crewEntry{{id: job.TechnicianID, role: "Primary"}}, crew...)
		}

		var labels []string
		for _, e := range crew {
			name := nameOr(techNames, e.id, fmt.Sprintf("Tech %d", e.id))
			label := fmt.Sprintf("%s (%s)", name, e.role)
			if e.original {
				label += " (Original)"
			}
			labels = append(labels, label)
			if _, seen := techCounts[name]; !seen {
				techOrder = append(techOrder, name)
			}
			techCounts[name]++
		}
		if len(labels) > 0 {
			lines = append(lines, "  Technicians: "+strings.Join(labels, ", "))
		} else {
			lines = append(lines, "  Technicians: "+dash)
		}

		relatedID := job.RecallForID
		if relatedID == 0 && job.RelatedJob != nil {
			relatedID = job.RelatedJob.ID
		}
		if relatedID != 0 {
			lines = append(lines, fmt.Sprintf("  Related job: %d", relatedID))
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		"Summary:",
		fmt.Sprintf("  total_jobs: %d", len(filtered)),
		fmt.Sprintf("  total_revenue: %s", fmtCurrency(totalRevenue)),
		fmt.Sprintf("  no_charge_count: %d", noCharge))

	if len(techOrder) > 0 {
		sort.SliceStable(techOrder, func(i, j int) bool {
			return techCounts[techOrder[i]] > techCounts[techOrder[j]]
		})
		parts := make([]string, len(techOrder))
		for i, name := range techOrder {
			parts[i] = fmt.Sprintf("%s: %d", name, techCounts[name])
		}
		lines = append(lines, "  technician_summary: "+strings.Join(parts, "  |  "))
	}

	return strings.Join(lines, "\n")
}

// crewEntry is one technician's appearance on a job, deduplicated per
// (technician, role) pair across that job's appointments.
type crewEntry struct {
	id       int64
	role     string
	original bool
}

// buildJobCrews flattens appointment crew lists into a per-job roster.
// Entries missing a role inherit "Primary" when they match the
// appointment's lead technician, "Added" otherwise.
func buildJobCrews(appts []models.Appointment) map[int64][]crewEntry {
	crews := make(map[int64][]crewEntry)
	for _, a := range appts {
		if a.JobID == 0 {
			continue
		}
		for _, at := range a.AssignedTechnicians {
			if at.TechnicianID == 0 {
				continue
			}
			role := at.Role
			if role == "" {
				if at.TechnicianID == a.TechnicianID {
					role = "Primary"
				} else {
					role = "Added"
				}
			}
			entry := crewEntry{id: at.TechnicianID, role: role, original: at.IsOriginal}
			dup := false
			for _, e := range crews[a.JobID] {
				if e.id == entry.id && e.role == entry.role {
					dup = true
					break
				}
			}
			if !dup {
				crews[a.JobID] = append(crews[a.JobID], entry)
			}
		}
	}
	return crews
}

func crewContains(crew []crewEntry, techID int64) bool {
	for _, e := range crew {
		if e.id == techID {
			return true
		}
	}
	return false
}
