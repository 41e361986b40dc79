package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"servicetitan-mcp/internal/common/logging"
	"servicetitan-mcp/internal/common/pagination"
	"servicetitan-mcp/internal/models"
)

// TechnicianRevenue reports one technician's revenue and billed/no-charge
// split over a date range.
func (t *Toolset) TechnicianRevenue(ctx context.Context, technicianName, startDate, endDate string) string {
	t.logger.Info("tool.get_technician_revenue",
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
		return t.failure("get_technician_revenue", err)
	}
	if reply != "" {
		return reply
	}

	jobs, err := pagination.FetchAll[models.SafeJob](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, tech.ID), 1000)
	if err != nil {
		return t.failure("get_technician_revenue", err)
	}

	totalJobs := len(jobs)
	noCharge := countNoCharge(jobs)
	billed := totalJobs - noCharge
	revenue := sumRevenue(jobs)

	lines := []string{
		fmt.Sprintf("Revenue for %s  |  %s", tech.Name, formatDateRange(start, end)),
		rule(45),
		fmt.Sprintf("Total revenue:    %s", fmtCurrency(revenue)),
		fmt.Sprintf("Total jobs:       %d", totalJobs),
		fmt.Sprintf("  Billed:         %d   (%s)", billed, fmtCurrency(revenue)),
		fmt.Sprintf("  No-charge:      %d", noCharge),
	}
	if billed > 0 {
		lines = append(lines, fmt.Sprintf("Revenue per job:  %s", fmtCurrency(revenue/float64(billed))))
	}
	if totalJobs == 0 {
		lines = append(lines, "\nNo completed jobs found in this date range.")
	}
	return strings.Join(lines, "\n")
}

// RevenueSummary reports business-wide revenue over a date range.
func (t *Toolset) RevenueSummary(ctx context.Context, startDate, endDate string) string {
	t.logger.Info("tool.get_revenue_summary",
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
		return t.failure("get_revenue_summary", err)
	}

	totalJobs := len(jobs)
	noCharge := countNoCharge(jobs)

	lines := []string{
		fmt.Sprintf("Business Revenue Summary  |  %s", formatDateRange(start, end)),
		rule(45),
		fmt.Sprintf("Total revenue:   %s", fmtCurrency(sumRevenue(jobs))),
		fmt.Sprintf("Total jobs:      %d", totalJobs),
		fmt.Sprintf("  Billed:        %d", totalJobs-noCharge),
		fmt.Sprintf("  No-charge:     %d", noCharge),
	}
	if totalJobs == 0 {
		lines = append(lines, "\nNo completed jobs found in this date range.")
	}
	return strings.Join(lines, "\n")
}

// NoChargeJobs reports the share of warranty and goodwill work.
func (t *Toolset) NoChargeJobs(ctx context.Context, startDate, endDate string) string {
	t.logger.Info("tool.get_no_charge_jobs",
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
		return t.failure("get_no_charge_jobs", err)
	}

	lines := []string{
		fmt.Sprintf("No-Charge Jobs  |  %s", formatDateRange(start, end)),
		rule(45),
	}
	if len(jobs) == 0 {
		lines = append(lines, "No completed jobs found in this date range.")
	} else {
		noCharge := countNoCharge(jobs)
		pct := float64(noCharge) / float64(len(jobs)) * 100
		lines = append(lines, fmt.Sprintf("No-charge jobs:  %d of %d  (%.1f%%)", noCharge, len(jobs), pct))
	}
	return strings.Join(lines, "\n")
}

// CompareTechnicians renders a side-by-side jobs/revenue table across
// all technicians with work in the range.
func (t *Toolset) CompareTechnicians(ctx context.Context, startDate, endDate string) string {
	t.logger.Info("tool.compare_technicians",
		logging.String("start_date", startDate),
		logging.String("end_date", endDate))

	r := DateRange{Start: startDate, End: endDate}
	start, end, err := r.Resolve(t.today())
	if err != nil {
		return errorReply(err)
	}

	techs, err := t.findTechnicians(ctx, "")
	if err != nil {
		return t.failure("compare_technicians", err)
	}
	techNames := technicianNames(techs)

	jobs, err := pagination.FetchAll[models.SafeJob](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, 0), 1000)
	if err != nil {
		return t.failure("compare_technicians", err)
	}

	type techStat struct {
		jobs     int
		revenue  float64
		noCharge int
	}
	stats := make(map[int64]*techStat)
	var order []int64
	unassigned := 0

	for _, job := range jobs {
		if job.TechnicianID == 0 {
			unassigned++
			continue
		}
		st := stats[job.TechnicianID]
		if st == nil {
			st = &techStat{}
			stats[job.TechnicianID] = st
			order = append(order, job.TechnicianID)
		}
		st.jobs++
		st.revenue += job.Total
		if job.NoCharge {
			st.noCharge++
		}
	}

	dateLabel := formatDateRange(start, end)
	if len(stats) == 0 {
		return fmt.Sprintf("Technician Comparison  |  %s\n%s\nNo jobs with assigned technicians found in this date range.",
			dateLabel, rule(55))
	}

	sort.SliceStable(order, func(i, j int) bool {
		return stats[order[i]].revenue > stats[order[j]].revenue
	})

	nameW := 10
	for _, tid := range order {
		if w := runeLen(nameOr(techNames, tid, fmt.Sprintf("Tech %d", tid))); w > nameW {
			nameW = w
		}
	}

	header := fmt.Sprintf("%s  %s  %s  %s  %s",
		padRight("Technician", nameW), padLeft("Jobs", 5), padLeft("Revenue", 12),
		padLeft("$/Job", 10), padLeft("No-charge", 9))
	sep := rule(runeLen(header))

	lines := []string{
		fmt.Sprintf("Technician Comparison  |  %s", dateLabel),
		sep,
		header,
		sep,
	}

	var totalJobs, totalNoCharge int
	var totalRevenue float64

	for _, tid := range order {
		st := stats[tid]
		billed := st.jobs - st.noCharge
		perJob := 0.0
		if billed > 0 {
			perJob = st.revenue / float64(billed)
		}
		lines = append(lines, fmt.Sprintf("%s  %s  %s  %s  %s",
			padRight(nameOr(techNames, tid, fmt.Sprintf("Tech %d", tid)), nameW),
			padLeft(strconv.Itoa(st.jobs), 5),
			padLeft(fmtCurrency(st.revenue), 12),
			padLeft(fmtCurrency(perJob), 10),
			padLeft(strconv.Itoa(st.noCharge), 9)))

		totalJobs += st.jobs
		totalRevenue += st.revenue
		totalNoCharge += st.noCharge
	}

	totalBilled := totalJobs - totalNoCharge
	totalPerJob := 0.0
	if totalBilled > 0 {
		totalPerJob = totalRevenue / float64(totalBilled)
	}

	lines = append(lines, sep, fmt.Sprintf("%s  %s  %s  %s  %s",
		padRight("TOTAL", nameW),
		padLeft(strconv.Itoa(totalJobs), 5),
		padLeft(fmtCurrency(totalRevenue), 12),
		padLeft(fmtCurrency(totalPerJob), 10),
		padLeft(strconv.Itoa(totalNoCharge), 9)))

	if unassigned > 0 {
		lines = append(lines, fmt.Sprintf("\n(%d jobs had no assigned technician and are excluded)", unassigned))
	}

	return strings.Join(lines, "\n")
}

// RevenueTrend shows average revenue per billed job by category and
// month, with the percentage change from the first to the last month.
func (t *Toolset) RevenueTrend(ctx context.Context, groupBy, startDate, endDate string) string {
	t.logger.Info("tool.get_revenue_trend",
		logging.String("group_by", groupBy),
		logging.String("start_date", startDate),
		logging.String("end_date", endDate))

	if groupBy != "job_type" && groupBy != "business_unit" {
		return `Error: group_by must be "job_type" or "business_unit".`
	}

	r := DateRange{Start: startDate, End: endDate}
	start, end, err := r.Resolve(t.today())
	if err != nil {
		return errorReply(err)
	}

	catLabel := "Job Type"
	var catRefs []models.NameRef
	if groupBy == "job_type" {
		catRefs, err = pagination.FetchAll[models.NameRef](ctx, t.api, "jpm", "/job-types", nil, 200)
	} else {
		catLabel = "Business Unit"
		catRefs, err = pagination.FetchAll[models.NameRef](ctx, t.api, "settings", "/business-units", nil, 100)
	}
	if err != nil {
		return t.failure("get_revenue_trend", err)
	}
	catNames := refNames(catRefs, "ID")

	jobs, err := pagination.FetchAll[models.SafeJob](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, 0), 2000)
	if err != nil {
		return t.failure("get_revenue_trend", err)
	}

	months := monthBuckets(start, end)
	inWindow := make(map[monthBucket]bool, len(months))
	for _, b := range months {
		inWindow[b] = true
	}
	crossYear := len(months) > 1 && months[0].year != months[len(months)-1].year

	type monthStat struct {
		revenue float64
		billed  int
		total   int
	}
	catMonths := make(map[int64]map[monthBucket]*monthStat)
	var catOrder []int64

	for _, job := range jobs {
		cid := job.JobTypeID
		if groupBy == "business_unit" {
			cid = job.BusinessUnitID
		}
		if cid == 0 {
			continue
		}
		y, m := job.CompletedOn.YearMonth()
		if y == 0 {
			continue
		}
		b := monthBucket{year: y, month: m}
		if !inWindow[b] {
			continue
		}
		if catMonths[cid] == nil {
			catMonths[cid] = make(map[monthBucket]*monthStat)
			catOrder = append(catOrder, cid)
		}
		ms := catMonths[cid][b]
		if ms == nil {
			ms = &monthStat{}
			catMonths[cid][b] = ms
		}
		ms.total++
		if !job.NoCharge {
			ms.revenue += job.Total
			ms.billed++
		}
	}

	dateLabel := formatDateRange(start, end)
	if len(catMonths) == 0 {
		return fmt.Sprintf("Revenue Trend by %s  |  %s\n%s\nNo jobs found in this date range.",
			catLabel, dateLabel, rule(50))
	}

	type trendRow struct {
		name   string
		jobs   int
		rev    float64
		avg    float64
		cells  []*float64
		change *float64
	}
	rows := make([]trendRow, 0, len(catOrder))
	grandBilled := 0

	for _, cid := range catOrder {
		mdata := catMonths[cid]
		var tJobs, tBilled int
		var tRev float64
		for _, ms := range mdata {
			tJobs += ms.total
			tBilled += ms.billed
			tRev += ms.revenue
		}
		grandBilled += tBilled

		avg := 0.0
		if tBilled > 0 {
			avg = tRev / float64(tBilled)
		}

		cells := make([]*float64, len(months))
		for i, b := range months {
			if ms := mdata[b]; ms != nil && ms.billed > 0 {
				v := ms.revenue / float64(ms.billed)
				cells[i] = &v
			}
		}

		rows = append(rows, trendRow{
			name:   nameOr(catNames, cid, fmt.Sprintf("ID %d", cid)),
			jobs:   tJobs,
			rev:    tRev,
			avg:    avg,
			cells:  cells,
			change: trendChange(cells),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].rev > rows[j].rev })

	grandCells := make([]*float64, len(months))
	for i, b := range months {
		var rev float64
		billed := 0
		for _, mdata := range catMonths {
			if ms := mdata[b]; ms != nil {
				rev += ms.revenue
				billed += ms.billed
			}
		}
		if billed > 0 {
			v := rev / float64(billed)
			grandCells[i] = &v
		}
	}

	var grandJobs int
	var grandRev float64
	for _, row := range rows {
		grandJobs += row.jobs
		grandRev += row.rev
	}
	grandAvg := 0.0
	if grandBilled > 0 {
		grandAvg = grandRev / float64(grandBilled)
	}

	nameW := 10
	if w := runeLen(catLabel); w > nameW {
		nameW = w
	}
	for _, row := range rows {
		if w := runeLen(row.name); w > nameW {
			nameW = w
		}
	}

	const mcolW = 8
	headerCells := make([]string, len(months))
	for i, b := range months {
		headerCells[i] = padLeft(monthLabel(b, crossYear), mcolW)
	}
	header := fmt.Sprintf("%s  %s  %s  %s  %s",
		padRight(catLabel, nameW), padLeft("Jobs", 5), padLeft("Avg $/Job", 10),
		strings.Join(headerCells, "  "), padLeft("Change", 8))
	sep := rule(runeLen(header))

	lines := []string{
		fmt.Sprintf("Revenue per Job Trend by %s  |  %s", catLabel, dateLabel),
		sep,
		header,
		sep,
	}

	renderRow := func(name string, jobs int, avg float64, cells []*float64, change *float64) string {
		parts := make([]string, len(cells))
		for i, v := range cells {
			if v != nil {
				parts[i] = padLeft(fmtDollarShort(*v), mcolW)
			} else {
				parts[i] = padLeft(dash, mcolW)
			}
		}
		return fmt.Sprintf("%s  %s  %s  %s  %s",
			padRight(name, nameW), padLeft(strconv.Itoa(jobs), 5),
			padLeft(fmtCurrency(avg), 10), strings.Join(parts, "  "),
			padLeft(changeCell(change), 8))
	}

	for _, row := range rows {
		lines = append(lines, renderRow(row.name, row.jobs, row.avg, row.cells, row.change))
	}

	lines = append(lines, sep,
		renderRow("TOTAL", grandJobs, grandAvg, grandCells, trendChange(grandCells)))

	if len(months) < 2 {
		lines = append(lines, "\n(Only 1 month in range — use 60-90 days for meaningful trends)")
	}

	return strings.Join(lines, "\n")
}

// trendChange computes first-to-last month percentage change. It needs a
// positive first month and a nonzero last month; anything else renders
// as the placeholder.
func trendChange(cells []*float64) *float64 {
	var first, last *float64
	for _, v := range cells {
		if v != nil {
			first = v
			break
		}
	}
	for i := len(cells) - 1; i >= 0; i-- {
		if cells[i] != nil {
			last = cells[i]
			break
		}
	}
	if first == nil || last == nil || *first <= 0 || *last == 0 {
		return nil
	}
	change := (*last - *first) / *first * 100
	return &change
}

func changeCell(change *float64) string {
	if change == nil {
		return dash
	}
	arrow, sign := "↑", "+"
	if *change < 0 {
		arrow, sign = "↓", ""
	}
	return fmt.Sprintf("%s %s%.0f%%", arrow, sign, *change)
}
