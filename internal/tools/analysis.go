package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"servicetitan-mcp/internal/common/logging"
	"servicetitan-mcp/internal/common/pagination"
	"servicetitan-mcp/internal/common/utils"
	"servicetitan-mcp/internal/models"
)

// TechnicianJobMix breaks one technician's work down by job type:
// volume, billed/no-charge split, revenue, and share of the total.
func (t *Toolset) TechnicianJobMix(ctx context.Context, technicianName, startDate, endDate string) string {
	t.logger.Info("tool.get_technician_job_mix",
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
		return t.failure("get_technician_job_mix", err)
	}
	if reply != "" {
		return reply
	}

	jobs, err := pagination.FetchAll[models.SafeJob](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, tech.ID), 1000)
	if err != nil {
		return t.failure("get_technician_job_mix", err)
	}
	typeRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "jpm", "/job-types", nil, 500)
	if err != nil {
		return t.failure("get_technician_job_mix", err)
	}
	typeNames := refNames(typeRefs, "ID")

	type mixStat struct {
		jobs     int
		billed   int
		noCharge int
		revenue  float64
	}
	stats := make(map[int64]*mixStat)
	var order []int64

	for _, job := range jobs {
		if job.JobTypeID == 0 {
			continue
		}
		s := stats[job.JobTypeID]
		if s == nil {
			s = &mixStat{}
			stats[job.JobTypeID] = s
			order = append(order, job.JobTypeID)
		}
		s.jobs++
		if job.NoCharge {
			s.noCharge++
		} else {
			s.billed++
			s.revenue += job.Total
		}
	}

	dateLabel := formatDateRange(start, end)
	totalJobs := len(jobs)
	totalRevenue := sumRevenue(jobs)

	if len(stats) == 0 {
		return fmt.Sprintf("Job Mix for %s  |  %s\n%s\nNo jobs found in this date range.",
			tech.Name, dateLabel, rule(50))
	}

	sort.SliceStable(order, func(i, j int) bool { return stats[order[i]].jobs > stats[order[j]].jobs })

	nameW := 10
	for _, id := range order {
		if w := runeLen(nameOr(typeNames, id, fmt.Sprintf("ID %d", id))); w > nameW {
			nameW = w
		}
	}

	header := fmt.Sprintf("%s  %s  %s  %s  %s  %s  %s  %s",
		padRight("Job Type", nameW), padLeft("Jobs", 5), padLeft("Billed", 6), padLeft("No-Chg", 6),
		padLeft("Revenue", 10), padLeft("Avg $/Job", 9), padLeft("% Jobs", 6), padLeft("% Rev", 6))
	sep := rule(runeLen(header))

	lines := []string{
		fmt.Sprintf("Job Mix for %s  |  %s", tech.Name, dateLabel),
		sep,
		header,
		sep,
	}

	for _, id := range order {
		s := stats[id]
		avg := 0.0
		if s.billed > 0 {
			avg = s.revenue / float64(s.billed)
		}
		pctJobs := 0.0
		if totalJobs > 0 {
			pctJobs = float64(s.jobs) / float64(totalJobs) * 100
		}
		pctRev := 0.0
		if totalRevenue > 0 {
			pctRev = s.revenue / totalRevenue * 100
		}
		lines = append(lines, fmt.Sprintf("%s  %s  %s  %s  %s  %s  %s%%  %s%%",
			padRight(nameOr(typeNames, id, fmt.Sprintf("ID %d", id)), nameW),
			padLeft(strconv.Itoa(s.jobs), 5),
			padLeft(strconv.Itoa(s.billed), 6),
			padLeft(strconv.Itoa(s.noCharge), 6),
			padLeft(fmtCurrency(s.revenue), 10),
			padLeft(fmtCurrency(avg), 9),
			padLeft(fmt.Sprintf("%.1f", pctJobs), 5),
			padLeft(fmt.Sprintf("%.1f", pctRev), 5)))
	}

	totalBilled := totalJobs - countNoCharge(jobs)
	overallAvg := 0.0
	if totalBilled > 0 {
		overallAvg = totalRevenue / float64(totalBilled)
	}

	topVolume, topRevenue := order[0], order[0]
	for _, id := range order {
		if stats[id].jobs > stats[topVolume].jobs {
			topVolume = id
		}
		if stats[id].revenue > stats[topRevenue].revenue {
			topRevenue = id
		}
	}

	lines = append(lines, sep,
		"Summary:",
		fmt.Sprintf("  %d total jobs  |  %d billed  |  %d no-charge",
			totalJobs, totalBilled, totalJobs-totalBilled),
		fmt.Sprintf("  %s total revenue  |  %s avg/billed job",
			fmtCurrency(totalRevenue), fmtCurrency(overallAvg)),
		fmt.Sprintf("  %d unique job types", len(stats)),
		fmt.Sprintf("  Top by volume: %s (%d)", nameOr(typeNames, topVolume, "?"), stats[topVolume].jobs),
		fmt.Sprintf("  Top by revenue: %s (%s)", nameOr(typeNames, topRevenue, "?"), fmtCurrency(stats[topRevenue].revenue)))

	return strings.Join(lines, "\n")
}

// CompareTechnicianJobMix is a matrix of job counts and average tickets
// per technician per job type, with variance against the company
// average for that type.
func (t *Toolset) CompareTechnicianJobMix(ctx context.Context, startDate, endDate, jobType string) string {
	t.logger.Info("tool.compare_technician_job_mix",
		logging.String("start_date", startDate),
		logging.String("end_date", endDate),
		logging.String("job_type", jobType))

	q := JobMixCompareQuery{JobType: jobType, DateRange: DateRange{Start: startDate, End: endDate}}
	if err := q.Validate(); err != nil {
		return errorReply(err)
	}
	start, end, err := q.Resolve(t.today())
	if err != nil {
		return errorReply(err)
	}

	techs, err := t.findTechnicians(ctx, "")
	if err != nil {
		return t.failure("compare_technician_job_mix", err)
	}
	techNames := technicianNames(techs)

	jobs, err := pagination.FetchAll[models.SafeJob](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, 0), 2000)
	if err != nil {
		return t.failure("compare_technician_job_mix", err)
	}
	typeNames, typeIndex, typeOrder, err := t.fetchJobTypeNames(ctx, 500, "ID")
	if err != nil {
		return t.failure("compare_technician_job_mix", err)
	}

	var filterTypeID int64
	if q.JobType != "" {
		id, ok := typeIndex[strings.ToLower(q.JobType)]
		if !ok {
			return fmt.Sprintf("Unknown job type: %q.\nAvailable job types (sample): %s",
				q.JobType, typeSample(typeOrder))
		}
		filterTypeID = id
	}

	type mixCell struct {
		jobs    int
		revenue float64
		billed  int
	}
	matrix := make(map[int64]map[int64]*mixCell)
	var typeSeen []int64
	var techSeen []int64
	techKnown := make(map[int64]bool)

	for _, job := range jobs {
		if job.JobTypeID == 0 || job.TechnicianID == 0 {
			continue
		}
		if filterTypeID != 0 && job.JobTypeID != filterTypeID {
			continue
		}
		if matrix[job.JobTypeID] == nil {
			matrix[job.JobTypeID] = make(map[int64]*mixCell)
			typeSeen = append(typeSeen, job.JobTypeID)
		}
		cell := matrix[job.JobTypeID][job.TechnicianID]
		if cell == nil {
			cell = &mixCell{}
			matrix[job.JobTypeID][job.TechnicianID] = cell
		}
		if !techKnown[job.TechnicianID] {
			techKnown[job.TechnicianID] = true
			techSeen = append(techSeen, job.TechnicianID)
		}
		cell.jobs++
		if !job.NoCharge {
			cell.billed++
			cell.revenue += job.Total
		}
	}

	techTotals := make(map[int64]float64)
	for _, typeData := range matrix {
		for tid, cell := range typeData {
			techTotals[tid] += cell.revenue
		}
	}

	dateLabel := formatDateRange(start, end)
	if len(matrix) == 0 {
		return fmt.Sprintf("Technician Job Mix Comparison  |  %s\n%s\nNo jobs found in this date range.",
			dateLabel, rule(55))
	}

	sort.SliceStable(techSeen, func(i, j int) bool { return techTotals[techSeen[i]] > techTotals[techSeen[j]] })

	typeTotals := make(map[int64]int)
	for jtid, typeData := range matrix {
		for _, cell := range typeData {
			typeTotals[jtid] += cell.jobs
		}
	}
	sort.SliceStable(typeSeen, func(i, j int) bool { return typeTotals[typeSeen[i]] > typeTotals[typeSeen[j]] })

	typeW := 10
	for _, jtid := range typeSeen {
		if w := runeLen(nameOr(typeNames, jtid, "?")); w > typeW {
			typeW = w
		}
	}
	const techColW = 14

	headerCells := make([]string, len(techSeen))
	for i, tid := range techSeen {
		headerCells[i] = padLeft(truncateRunes(nameOr(techNames, tid, "?"), 12), techColW)
	}
	header := padRight("Job Type", typeW) + "  " + padLeft("Co. Avg", techColW) + "  " +
		strings.Join(headerCells, "  ")
	sep := rule(runeLen(header))

	lines := []string{
		fmt.Sprintf("Technician Job Mix Comparison  |  %s", dateLabel),
		sep,
		header,
		sep,
	}

	for _, jtid := range typeSeen {
		typeData := matrix[jtid]

		var coJobs, coBilled int
		var coRev float64
		for _, cell := range typeData {
			coJobs += cell.jobs
			coBilled += cell.billed
			coRev += cell.revenue
		}
		coAvg := 0.0
		if coBilled > 0 {
			coAvg = coRev / float64(coBilled)
		}

		coCell := strconv.Itoa(coJobs)
		if coBilled > 0 {
			coCell = fmt.Sprintf("%d/%s", coJobs, fmtDollarShort(coAvg))
		}

		cells := make([]string, len(techSeen))
		for i, tid := range techSeen {
			cell := typeData[tid]
			switch {
			case cell == nil:
				cells[i] = padLeft(dash, techColW)
			case cell.billed > 0:
				avg := cell.revenue / float64(cell.billed)
				if coAvg > 0 {
					varPct := (avg - coAvg) / coAvg * 100
					sign := ""
					if varPct >= 0 {
						sign = "+"
					}
					cells[i] = padLeft(fmt.Sprintf("%d/%s(%s%.0f%%)",
						cell.jobs, fmtDollarShort(avg), sign, varPct), techColW)
				} else {
					cells[i] = padLeft(fmt.Sprintf("%d/%s", cell.jobs, fmtDollarShort(avg)), techColW)
				}
			default:
				cells[i] = padLeft(strconv.Itoa(cell.jobs), techColW)
			}
		}

		lines = append(lines, padRight(nameOr(typeNames, jtid, fmt.Sprintf("ID %d", jtid)), typeW)+
			"  "+padLeft(coCell, techColW)+"  "+strings.Join(cells, "  "))
	}

	lines = append(lines, sep)
	return strings.Join(lines, "\n")
}

// Cancellations lists canceled jobs with how much notice the customer
// gave, flagging late cancels inside 24 hours.
func (t *Toolset) Cancellations(ctx context.Context, startDate, endDate, technicianName string, lateOnly bool) string {
	t.logger.Info("tool.get_cancellations",
		logging.String("start_date", startDate),
		logging.String("end_date", endDate),
		logging.String("technician_name", technicianName),
		logging.Bool("late_only", lateOnly))

	q := CancellationQuery{
		TechnicianName: technicianName,
		LateOnly:       lateOnly,
		DateRange:      DateRange{Start: startDate, End: endDate},
	}
	if err := q.Validate(); err != nil {
		return errorReply(err)
	}
	start, end, err := q.Resolve(t.today())
	if err != nil {
		return errorReply(err)
	}

	allJobs, err := pagination.FetchAll[models.SafeJob](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, 0), 2000)
	if err != nil {
		return t.failure("get_cancellations", err)
	}
	allAppts, err := pagination.FetchAll[models.SafeAppointment](ctx, t.api, "jpm", "/appointments",
		apptsParams(start, end, 0), 5000)
	if err != nil {
		return t.failure("get_cancellations", err)
	}
	techs, err := t.findTechnicians(ctx, "")
	if err != nil {
		return t.failure("get_cancellations", err)
	}
	techNames := technicianNames(techs)

	typeRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "jpm", "/job-types", nil, 500)
	if err != nil {
		return t.failure("get_cancellations", err)
	}
	typeNames := refNames(typeRefs, "ID")

	tagRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "settings", "/tag-types", nil, 500)
	if err != nil {
		return t.failure("get_cancellations", err)
	}
	tagNames := refNames(tagRefs, "Tag")

	// Earliest appointment start per job, used as the "scheduled for"
	// time a cancellation is measured against.
	jobApptStart := make(map[int64]models.APITime)
	for _, a := range allAppts {
		if a.JobID == 0 || a.Start.IsZero() {
			continue
		}
		if existing, ok := jobApptStart[a.JobID]; !ok || a.Start.Time.Before(existing.Time) {
			jobApptStart[a.JobID] = a.Start
		}
	}

	var canceled []models.SafeJob
	for _, j := range allJobs {
		if j.JobStatus == models.JobStatusCanceled {
			canceled = append(canceled, j)
		}
	}
	totalScheduled := len(allJobs)

	if q.TechnicianName != "" {
		tech, reply, err := t.matchTechnician(ctx, q.TechnicianName)
		if err != nil {
			return t.failure("get_cancellations", err)
		}
		if reply != "" {
			return reply
		}
		kept := canceled[:0]
		for _, j := range canceled {
			if j.TechnicianID == tech.ID {
				kept = append(kept, j)
			}
		}
		canceled = kept
	}

	type cancelEntry struct {
		job       models.SafeJob
		hours     *float64
		late      bool
		tags      []string
		apptStart models.APITime
	}
	var entries []cancelEntry

	for _, job := range canceled {
		apptStart := jobApptStart[job.ID]

		var hours *float64
		if !job.CompletedOn.IsZero() && !apptStart.IsZero() {
			h := apptStart.Sub(job.CompletedOn.Time).Hours()
			hours = &h
		}
		late := hours != nil && *hours <= 24
		if q.LateOnly && !late {
			continue
		}

		var tags []string
		for _, tagID := range job.TagTypeIDs {
			if name, ok := tagNames[tagID]; ok {
				tags = append(tags, name)
			}
		}

		entries = append(entries, cancelEntry{job: job, hours: hours, late: late, tags: tags, apptStart: apptStart})
	}

	lines := []string{
		fmt.Sprintf("Cancellations  |  %s", formatDateRange(start, end)),
		rule(55),
	}

	if len(entries) == 0 {
		qualifier := ""
		if q.LateOnly {
			qualifier = " late"
		}
		lines = append(lines, fmt.Sprintf("No%s cancellations found in this date range.", qualifier))
		return strings.Join(lines, "\n")
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].job.CompletedOn.Time.Before(entries[j].job.CompletedOn.Time)
	})

	for _, e := range entries {
		job := e.job
		jobNum := job.JobNumber
		if jobNum == "" {
			jobNum = strconv.FormatInt(job.ID, 10)
		}
		techName := "Unassigned"
		if job.TechnicianID != 0 {
			techName = nameOr(techNames, job.TechnicianID, "Unassigned")
		}

		line := fmt.Sprintf("Job #%s  |  %s  |  Canceled: %s",
			jobNum, nameOr(typeNames, job.JobTypeID, dash), job.CompletedOn.DateKey())
		if key := e.apptStart.DateKey(); key != "" {
			line += fmt.Sprintf("  |  Scheduled: %s", key)
		}
		lines = append(lines, line, fmt.Sprintf("  Tech: %s", techName))

		if e.hours != nil {
			h := *e.hours
			switch {
			case h < 0:
				lines = append(lines, "  Notice: canceled after scheduled time")
			case h < 1:
				lines = append(lines, fmt.Sprintf("  Notice: %.0f min before appointment (LATE)", h*60))
			case h <= 24:
				lines = append(lines, fmt.Sprintf("  Notice: %.1f hours before appointment (LATE)", h))
			default:
				lines = append(lines, fmt.Sprintf("  Notice: %.1f days before appointment", h/24))
			}
		}

		if len(e.tags) > 0 {
			lines = append(lines, fmt.Sprintf("  Tags: %s", strings.Join(e.tags, ", ")))
		}
		lines = append(lines, "")
	}

	totalCancels := len(entries)
	lateCount := 0
	var hoursSum float64
	hoursN := 0
	for _, e := range entries {
		if e.late {
			lateCount++
		}
		if e.hours != nil {
			hoursSum += *e.hours
			hoursN++
		}
	}
	cancelRate := 0.0
	if totalScheduled > 0 {
		cancelRate = float64(totalCancels) / float64(totalScheduled) * 100
	}
	lateRate := 0.0
	if totalCancels > 0 {
		lateRate = float64(lateCount) / float64(totalCancels) * 100
	}

	techCancels := make(map[string]*struct{ total, late int })
	var techOrder []string
	for _, e := range entries {
		name := "Unassigned"
		if e.job.TechnicianID != 0 {
			name = nameOr(techNames, e.job.TechnicianID, "Unassigned")
		}
		tc := techCancels[name]
		if tc == nil {
			tc = &struct{ total, late int }{}
			techCancels[name] = tc
			techOrder = append(techOrder, name)
		}
		tc.total++
		if e.late {
			tc.late++
		}
	}

	lines = append(lines,
		"Summary:",
		fmt.Sprintf("  Total cancellations: %d of %d jobs (%.1f%%)", totalCancels, totalScheduled, cancelRate),
		fmt.Sprintf("  Late cancels (<24h): %d (%.1f%% of cancels)", lateCount, lateRate))
	if hoursN > 0 {
		lines = append(lines, fmt.Sprintf("  Avg notice: %.1f hours", hoursSum/float64(hoursN)))
	}

	if len(techOrder) > 0 {
		sort.SliceStable(techOrder, func(i, j int) bool {
			return techCancels[techOrder[i]].total > techCancels[techOrder[j]].total
		})
		lines = append(lines, "", "  By technician:")
		for _, name := range techOrder {
			tc := techCancels[name]
			lines = append(lines, fmt.Sprintf("    %s: %d cancels (%d late)", name, tc.total, tc.late))
		}
	}

	return strings.Join(lines, "\n")
}

// TechnicianDiscounts reports discounted invoices: who gave the
// discount, how much, and the stated line-item reasons.
func (t *Toolset) TechnicianDiscounts(ctx context.Context, startDate, endDate, technicianName string, minDiscountAmount float64) string {
	t.logger.Info("tool.get_technician_discounts",
		logging.String("start_date", startDate),
		logging.String("end_date", endDate),
		logging.String("technician_name", technicianName),
		logging.Float64("min_discount_amount", minDiscountAmount))

	q := DiscountQuery{
		TechnicianName:    technicianName,
		MinDiscountAmount: minDiscountAmount,
		DateRange:         DateRange{Start: startDate, End: endDate},
	}
	if err := q.Validate(); err != nil {
		return errorReply(err)
	}
	start, end, err := q.Resolve(t.today())
	if err != nil {
		return errorReply(err)
	}

	invoices, err := pagination.FetchAll[models.Invoice](ctx, t.api, "accounting", "/invoices",
		map[string]string{
			"modifiedOnOrAfter": start.Format(utils.DateLayout) + "T00:00:00Z",
			"pageSize":          "100",
		}, 2000)
	if err != nil {
		return t.failure("get_technician_discounts", err)
	}
	allJobs, err := pagination.FetchAll[models.SafeJob](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, 0), 2000)
	if err != nil {
		return t.failure("get_technician_discounts", err)
	}
	techs, err := t.findTechnicians(ctx, "")
	if err != nil {
		return t.failure("get_technician_discounts", err)
	}
	techNames := technicianNames(techs)

	typeRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "jpm", "/job-types", nil, 500)
	if err != nil {
		return t.failure("get_technician_discounts", err)
	}
	typeNames := refNames(typeRefs, "ID")

	type jobLink struct {
		techID int64
		typeID int64
	}
	jobInfo := make(map[int64]jobLink, len(allJobs))
	for _, job := range allJobs {
		if job.ID != 0 {
			jobInfo[job.ID] = jobLink{techID: job.TechnicianID, typeID: job.JobTypeID}
		}
	}

	var techFilterID int64
	if q.TechnicianName != "" {
		tech, reply, err := t.matchTechnician(ctx, q.TechnicianName)
		if err != nil {
			return t.failure("get_technician_discounts", err)
		}
		if reply != "" {
			return reply
		}
		techFilterID = tech.ID
	}

	type discountRow struct {
		jobNum   string
		jobType  string
		date     string
		techID   int64
		gross    float64
		discount float64
		net      float64
		pct      float64
		reasons  []string
		bu       string
	}
	var rows []discountRow
	totalInvoices := 0

	for _, inv := range invoices {
		jobNum, jobTypeName := dash, dash
		var jobID int64
		if inv.Job != nil {
			jobID = inv.Job.ID
			jobNum = orDash(inv.Job.Number)
			jobTypeName = orDash(inv.Job.Type)
		}

		link := jobInfo[jobID]
		if techFilterID != 0 && link.techID != techFilterID {
			continue
		}
		totalInvoices++

		discounts := inv.Discounts()
		if len(discounts) == 0 {
			continue
		}
		var totalDiscount float64
		for _, d := range discounts {
			totalDiscount += d.Amount
		}
		if totalDiscount < q.MinDiscountAmount {
			continue
		}

		buName := dash
		if inv.BusinessUnit != nil {
			buName = orDash(inv.BusinessUnit.Name)
		}
		if name, ok := typeNames[link.typeID]; ok && link.typeID != 0 {
			jobTypeName = name
		}

		pct := 0.0
		if inv.SubTotal > 0 {
			pct = totalDiscount / inv.SubTotal * 100
		}
		reasons := make([]string, 0, len(discounts))
		for _, d := range discounts {
			reasons = append(reasons, d.Reason)
		}

		rows = append(rows, discountRow{
			jobNum:   jobNum,
			jobType:  jobTypeName,
			date:     inv.InvoiceDate.DateKey(),
			techID:   link.techID,
			gross:    inv.SubTotal,
			discount: totalDiscount,
			net:      inv.Total,
			pct:      pct,
			reasons:  reasons,
			bu:       buName,
		})
	}

	lines := []string{
		fmt.Sprintf("Discount Report  |  %s", formatDateRange(start, end)),
		rule(55),
	}
	if len(rows) == 0 {
		lines = append(lines, "No discounted invoices found in this date range.")
		return strings.Join(lines, "\n")
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date < rows[j].date })

	for _, row := range rows {
		techName := "Unassigned"
		if row.techID != 0 {
			techName = nameOr(techNames, row.techID, "Unassigned")
		}
		lines = append(lines,
			fmt.Sprintf("Job #%s  |  %s  |  %s  |  %s", row.jobNum, row.date, row.jobType, row.bu),
			fmt.Sprintf("  Gross: %s  |  Discount: %s (%.1f%%)  |  Net: %s",
				fmtCurrency(row.gross), fmtCurrency(row.discount), row.pct, fmtCurrency(row.net)),
			fmt.Sprintf("  Tech: %s", techName))
		if len(row.reasons) > 0 {
			lines = append(lines, fmt.Sprintf("  Reason: %s", strings.Join(uniqueStrings(row.reasons), ", ")))
		}
		lines = append(lines, "")
	}

	totalCount := len(rows)
	var totalDiscount, totalGross, totalNet float64
	for _, row := range rows {
		totalDiscount += row.discount
		totalGross += row.gross
		totalNet += row.net
	}
	discRate := 0.0
	if totalInvoices > 0 {
		discRate = float64(totalCount) / float64(totalInvoices) * 100
	}
	revImpact := 0.0
	if totalGross > 0 {
		revImpact = totalDiscount / totalGross * 100
	}
	avgDiscount := totalDiscount / float64(totalCount)

	type techDisc struct {
		count int
		total float64
	}
	perTech := make(map[string]*techDisc)
	var techOrder []string
	for _, row := range rows {
		name := "Unassigned"
		if row.techID != 0 {
			name = nameOr(techNames, row.techID, "Unassigned")
		}
		td := perTech[name]
		if td == nil {
			td = &techDisc{}
			perTech[name] = td
			techOrder = append(techOrder, name)
		}
		td.count++
		td.total += row.discount
	}

	lines = append(lines,
		"Summary:",
		fmt.Sprintf("  %d of %d invoices discounted (%.1f%%)", totalCount, totalInvoices, discRate),
		fmt.Sprintf("  Total discounted: %s", fmtCurrency(totalDiscount)),
		fmt.Sprintf("  Gross revenue: %s  |  Net revenue: %s", fmtCurrency(totalGross), fmtCurrency(totalNet)),
		fmt.Sprintf("  Revenue impact: %.1f%%", revImpact),
		fmt.Sprintf("  Avg discount: %s per discounted job", fmtCurrency(avgDiscount)))

	if len(techOrder) > 0 {
		sort.SliceStable(techOrder, func(i, j int) bool {
			return perTech[techOrder[i]].total > perTech[techOrder[j]].total
		})
		lines = append(lines, "", "  By technician:")
		for _, name := range techOrder {
			td := perTech[name]
			lines = append(lines, fmt.Sprintf("    %s: %d discounts, %s total", name, td.count, fmtCurrency(td.total)))
		}
	}

	return strings.Join(lines, "\n")
}

// uniqueStrings keeps the first occurrence of each value.
func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
