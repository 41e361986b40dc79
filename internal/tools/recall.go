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
	"servicetitan-mcp/internal/common/utils"
	"servicetitan-mcp/internal/models"
)

// Revisit work reaches these tools through the recallForId link that
// ServiceTitan sets when a job is booked via Job Actions > "Recall...".
// GO BACK jobs without that link are intentionally not counted as true
// recalls; get_recall_summary classifies them separately.

var recallSep = rule(60)

// daysApart is the whole-day distance between two timestamps,
// truncated toward zero.
func daysApart(a, b models.APITime) (int, bool) {
	if a.IsZero() || b.IsZero() {
		return 0, false
	}
	days := int(b.Time.Sub(a.Time).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days, true
}

// techTargets resolves a name fragment to the IDs of every technician
// whose name contains it. When nothing matches it returns the full
// roster so the caller can suggest valid names.
func techTargets(techNames map[int64]string, fragment string) (map[int64]bool, string) {
	needle := strings.ToLower(fragment)
	targets := make(map[int64]bool)
	for id, name := range techNames {
		if strings.Contains(strings.ToLower(name), needle) {
			targets[id] = true
		}
	}
	if len(targets) == 0 {
		names := make([]string, 0, len(techNames))
		for _, name := range techNames {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Sprintf("No technician found matching '%s'. Available: %s",
			fragment, strings.Join(names, ", "))
	}
	return targets, ""
}

func jobNumberOrID(num string, id int64) string {
	if num != "" {
		return num
	}
	return strconv.FormatInt(id, 10)
}

// Recalls lists jobs where recallForId is set, each with its original
// job, elapsed days, tags, and the raw dispatcher summary behind a PII
// disclaimer.
func (t *Toolset) Recalls(ctx context.Context, startDate, endDate, technicianName, businessUnit string) string {
	q := RecallQuery{
		TechnicianName: technicianName,
		BusinessUnit:   businessUnit,
		DateRange:      DateRange{Start: startDate, End: endDate},
	}
	if err := q.Validate(); err != nil {
		return errorReply(err)
	}
	start, end, err := q.Resolve(t.today())
	if err != nil {
		return errorReply(err)
	}

	dateLabel := formatDateRange(start, end)
	t.logger.Info("get_recalls.start",
		logging.String("start", utils.FormatDate(start)),
		logging.String("end", utils.FormatDate(end)))

	allJobs, err := pagination.FetchAll[models.Job](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, 0), 2000)
	if err != nil {
		return t.failure("get_recalls", err)
	}
	techs, err := t.findTechnicians(ctx, "")
	if err != nil {
		return t.failure("get_recalls", err)
	}
	techNames := technicianNames(techs)

	typeRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "jpm", "/job-types", nil, 500)
	if err != nil {
		return t.failure("get_recalls", err)
	}
	typeNames := refNames(typeRefs, "Type")

	buRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "settings", "/business-units", nil, 200)
	if err != nil {
		return t.failure("get_recalls", err)
	}
	buNames := refNames(buRefs, "BU")

	tagRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "settings", "/tag-types", nil, 500)
	if err != nil {
		return t.failure("get_recalls", err)
	}
	tagNames := refNames(tagRefs, "Tag")

	jobByID := make(map[int64]models.Job, len(allJobs))
	for _, j := range allJobs {
		if j.ID != 0 {
			jobByID[j.ID] = j
		}
	}

	var recalls []models.Job
	for _, j := range allJobs {
		if j.RecallForID != 0 {
			recalls = append(recalls, j)
		}
	}

	if q.TechnicianName != "" {
		targets, notFound := techTargets(techNames, q.TechnicianName)
		if notFound != "" {
			return notFound
		}
		kept := recalls[:0]
		for _, r := range recalls {
			if targets[r.TechnicianID] {
				kept = append(kept, r)
			}
		}
		recalls = kept
	}

	if q.BusinessUnit != "" {
		needle := strings.ToLower(q.BusinessUnit)
		kept := recalls[:0]
		for _, r := range recalls {
			if name, ok := buNames[r.BusinessUnitID]; ok && strings.Contains(strings.ToLower(name), needle) {
				kept = append(kept, r)
			}
		}
		recalls = kept
	}

	sort.SliceStable(recalls, func(i, j int) bool {
		return recalls[i].CompletedOn.Time.Before(recalls[j].CompletedOn.Time)
	})

	lines := []string{
		fmt.Sprintf("Recall Jobs  |  %s", dateLabel),
		recallSep,
	}

	if q.TechnicianName != "" {
		lines = append(lines, fmt.Sprintf("Filter: Recall Tech = %s", q.TechnicianName))
	}
	if q.BusinessUnit != "" {
		lines = append(lines, fmt.Sprintf("Filter: Business Unit = %s", q.BusinessUnit))
	}
	if q.TechnicianName != "" || q.BusinessUnit != "" {
		lines = append(lines, recallSep)
	}

	if len(recalls) == 0 {
		lines = append(lines,
			"No recall jobs found in this date range.",
			"",
			"Note: Only jobs booked via Job Actions → 'Recall...' are counted here. "+
				"GO BACK jobs without a recallForId are not true recalls.")
		return strings.Join(lines, "\n")
	}

	for _, job := range recalls {
		noCharge := ""
		if job.NoCharge {
			noCharge = "  |  No-Charge"
		}
		var tags []string
		for _, tid := range job.TagTypeIDs {
			if name, ok := tagNames[tid]; ok {
				tags = append(tags, name)
			}
		}

		lines = append(lines,
			fmt.Sprintf("Recall #%s  |  %s  |  %s  |  %s%s",
				jobNumberOrID(job.JobNumber, job.ID),
				dateOrDash(job.CompletedOn),
				nameOr(buNames, job.BusinessUnitID, dash),
				fmtCurrency(job.Total), noCharge),
			fmt.Sprintf("  Recall Tech:  %s", nameOr(techNames, job.TechnicianID, dash)))
		if len(tags) > 0 {
			lines = append(lines, fmt.Sprintf("  Tags:         %s", strings.Join(tags, ", ")))
		}

		if orig, ok := jobByID[job.RecallForID]; ok {
			daysStr := ""
			if days, known := daysApart(orig.CompletedOn, job.CompletedOn); known {
				daysStr = fmt.Sprintf("  |  %dd later", days)
			}
			lines = append(lines, fmt.Sprintf("  Original Job: #%s  |  %s  |  %s  |  %s  |  %s%s",
				jobNumberOrID(orig.JobNumber, orig.ID),
				dateOrDash(orig.CompletedOn),
				nameOr(typeNames, orig.JobTypeID, dash),
				fmtCurrency(orig.Total),
				nameOr(techNames, orig.TechnicianID, dash),
				daysStr))
		} else {
			lines = append(lines, fmt.Sprintf(
				"  Original Job: ID %d  (outside current date range — widen dates to see details)",
				job.RecallForID))
		}

		if summary := strings.TrimSpace(job.Summary); summary != "" {
			lines = append(lines, fmt.Sprintf(
				"  ⚠️  Summary (may contain customer info): \"%s\"", summary))
		}

		lines = append(lines, "")
	}

	lines = append(lines, recallSep,
		fmt.Sprintf("Total recalls: %d  |  %s", len(recalls), dateLabel))
	return strings.Join(lines, "\n")
}

// CallbackChains groups recalls under their original job and prices the
// repeat visits at the period's average billed job.
func (t *Toolset) CallbackChains(ctx context.Context, startDate, endDate, technicianName string, minChainLength int) string {
	q := CallbackChainQuery{
		TechnicianName: technicianName,
		MinChainLength: minChainLength,
		DateRange:      DateRange{Start: startDate, End: endDate},
	}
	if err := q.Validate(); err != nil {
		return errorReply(err)
	}
	start, end, err := q.Resolve(t.today())
	if err != nil {
		return errorReply(err)
	}

	dateLabel := formatDateRange(start, end)
	t.logger.Info("get_callback_chains.start",
		logging.String("start", utils.FormatDate(start)),
		logging.String("end", utils.FormatDate(end)))

	allJobs, err := pagination.FetchAll[models.Job](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, 0), 2000)
	if err != nil {
		return t.failure("get_callback_chains", err)
	}
	techs, err := t.findTechnicians(ctx, "")
	if err != nil {
		return t.failure("get_callback_chains", err)
	}
	techNames := technicianNames(techs)

	typeRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "jpm", "/job-types", nil, 500)
	if err != nil {
		return t.failure("get_callback_chains", err)
	}
	typeNames := refNames(typeRefs, "Type")

	tagRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "settings", "/tag-types", nil, 500)
	if err != nil {
		return t.failure("get_callback_chains", err)
	}
	tagNames := refNames(tagRefs, "Tag")

	jobByID := make(map[int64]models.Job, len(allJobs))
	for _, j := range allJobs {
		if j.ID != 0 {
			jobByID[j.ID] = j
		}
	}

	var completedCount int
	var totalRev float64
	for _, j := range allJobs {
		if j.JobStatus != models.JobStatusCompleted {
			continue
		}
		completedCount++
		totalRev += j.Total
	}
	avgRev := 0.0
	if completedCount > 0 {
		avgRev = totalRev / float64(completedCount)
	}

	chains := make(map[int64][]models.SafeJob)
	var chainOrder []int64
	for _, job := range allJobs {
		if job.RecallForID == 0 {
			continue
		}
		if _, ok := chains[job.RecallForID]; !ok {
			chainOrder = append(chainOrder, job.RecallForID)
		}
		chains[job.RecallForID] = append(chains[job.RecallForID], job.Scrubbed())
	}

	if q.TechnicianName != "" {
		targets, notFound := techTargets(techNames, q.TechnicianName)
		if notFound != "" {
			return notFound
		}
		kept := chainOrder[:0]
		for _, origID := range chainOrder {
			if targets[jobByID[origID].TechnicianID] {
				kept = append(kept, origID)
			} else {
				delete(chains, origID)
			}
		}
		chainOrder = kept
	}

	qualifying := chainOrder[:0]
	for _, origID := range chainOrder {
		if 1+len(chains[origID]) >= q.MinChainLength {
			qualifying = append(qualifying, origID)
		}
	}

	lines := []string{
		fmt.Sprintf("Callback Chains  |  %s  |  Min length: %d", dateLabel, q.MinChainLength),
		recallSep,
	}

	if len(qualifying) == 0 {
		lines = append(lines, fmt.Sprintf(
			"No callback chains with %d+ visits found in this date range.", q.MinChainLength))
		return strings.Join(lines, "\n")
	}

	sort.SliceStable(qualifying, func(i, j int) bool {
		return len(chains[qualifying[i]]) > len(chains[qualifying[j]])
	})

	totalTruckRolls := 0
	totalOppCost := 0.0

	for _, origID := range qualifying {
		recalls := chains[origID]
		orig, origKnown := jobByID[origID]
		truckRolls := 1 + len(recalls)
		totalTruckRolls += truckRolls

		oppCost := float64(len(recalls)) * avgRev
		totalOppCost += oppCost

		var dates []time.Time
		if origKnown && !orig.CompletedOn.IsZero() {
			dates = append(dates, orig.CompletedOn.Time)
		}
		for _, r := range recalls {
			if !r.CompletedOn.IsZero() {
				dates = append(dates, r.CompletedOn.Time)
			}
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		durStr := ""
		if len(dates) >= 2 {
			if days, known := daysApart(models.APITime{Time: dates[0]}, models.APITime{Time: dates[len(dates)-1]}); known {
				durStr = fmt.Sprintf("  |  %dd span", days)
			}
		}

		lines = append(lines, fmt.Sprintf("Chain: Original Job #%d  (%d truck rolls%s)",
			origID, truckRolls, durStr))

		if origKnown {
			lines = append(lines, fmt.Sprintf("  Original  |  %s  |  %s  |  %s  |  %s",
				dateOrDash(orig.CompletedOn),
				nameOr(typeNames, orig.JobTypeID, dash),
				nameOr(techNames, orig.TechnicianID, dash),
				fmtCurrency(orig.Total)))
		} else {
			lines = append(lines, fmt.Sprintf("  Original Job #%d  (outside date range)", origID))
		}

		sorted := make([]models.SafeJob, len(recalls))
		copy(sorted, recalls)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CompletedOn.Time.Before(sorted[j].CompletedOn.Time)
		})
		for i, recall := range sorted {
			noChargeStr := ""
			if recall.NoCharge {
				noChargeStr = "  |  No-Charge"
			}
			var tags []string
			for _, tid := range recall.TagTypeIDs {
				if name, ok := tagNames[tid]; ok {
					tags = append(tags, name)
				}
			}
			tagStr := ""
			if len(tags) > 0 {
				tagStr = fmt.Sprintf("  |  Tags: %s", strings.Join(tags, ", "))
			}
			lines = append(lines, fmt.Sprintf("  Recall %d   |  %s  |  %s  |  %s  |  %s%s%s",
				i+1,
				dateOrDash(recall.CompletedOn),
				nameOr(typeNames, recall.JobTypeID, dash),
				nameOr(techNames, recall.TechnicianID, dash),
				fmtCurrency(recall.Total), noChargeStr, tagStr))
		}

		plural := ""
		if len(recalls) > 1 {
			plural = "s"
		}
		lines = append(lines,
			fmt.Sprintf("  Opportunity Cost: ~%s  (%d recall visit%s × %s avg/job)",
				fmtCurrency(oppCost), len(recalls), plural, fmtCurrency(avgRev)),
			"")
	}

	lines = append(lines, recallSep,
		fmt.Sprintf("Total chains: %d  |  Total truck rolls: %d  |  Total opportunity cost: ~%s",
			len(qualifying), totalTruckRolls, fmtCurrency(totalOppCost)),
		"Note: Chains based on recallForId links only. GO BACK jobs without a recall link are not included.")
	return strings.Join(lines, "\n")
}

// RecallSummary reports the recall rate per technician, business unit,
// or job type, attributed to the original job rather than the revisit.
func (t *Toolset) RecallSummary(ctx context.Context, startDate, endDate, groupBy string) string {
	q := RecallSummaryQuery{GroupBy: groupBy, DateRange: DateRange{Start: startDate, End: endDate}}
	if err := q.Validate(); err != nil {
		return errorReply(err)
	}
	start, end, err := q.Resolve(t.today())
	if err != nil {
		return errorReply(err)
	}

	dateLabel := formatDateRange(start, end)
	t.logger.Info("get_recall_summary.start",
		logging.String("start", utils.FormatDate(start)),
		logging.String("end", utils.FormatDate(end)),
		logging.String("group_by", q.GroupBy))

	allJobs, err := pagination.FetchAll[models.Job](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, 0), 2000)
	if err != nil {
		return t.failure("get_recall_summary", err)
	}
	techs, err := t.findTechnicians(ctx, "")
	if err != nil {
		return t.failure("get_recall_summary", err)
	}
	techNames := technicianNames(techs)

	typeRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "jpm", "/job-types", nil, 500)
	if err != nil {
		return t.failure("get_recall_summary", err)
	}
	typeNames := refNames(typeRefs, "Type")

	buRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "settings", "/business-units", nil, 200)
	if err != nil {
		return t.failure("get_recall_summary", err)
	}
	buNames := refNames(buRefs, "BU")

	tagRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "settings", "/tag-types", nil, 500)
	if err != nil {
		return t.failure("get_recall_summary", err)
	}
	tagNames := refNames(tagRefs, "Tag")

	jobByID := make(map[int64]models.Job, len(allJobs))
	for _, j := range allJobs {
		if j.ID != 0 {
			jobByID[j.ID] = j
		}
	}

	var completed, recalls []models.Job
	for _, j := range allJobs {
		if j.JobStatus == models.JobStatusCompleted {
			completed = append(completed, j)
		}
		if j.RecallForID != 0 {
			recalls = append(recalls, j)
		}
	}
	var totalRev float64
	for _, j := range completed {
		totalRev += j.Total
	}
	avgRev := 0.0
	if len(completed) > 0 {
		avgRev = totalRev / float64(len(completed))
	}

	groupKey := func(job models.Job) string {
		switch q.GroupBy {
		case "technician":
			return nameOr(techNames, job.TechnicianID, "Unknown")
		case "business_unit":
			return nameOr(buNames, job.BusinessUnitID, "Unknown")
		default:
			return nameOr(typeNames, job.JobTypeID, "Unknown")
		}
	}

	completedByGroup := make(map[string]int)
	for _, j := range completed {
		completedByGroup[groupKey(j)]++
	}

	recallCounts := make(map[string]int)
	recallDays := make(map[string][]int)
	for _, recall := range recalls {
		group := "Unknown"
		orig, ok := jobByID[recall.RecallForID]
		if ok {
			group = groupKey(orig)
		}
		recallCounts[group]++
		if ok {
			if days, known := daysApart(orig.CompletedOn, recall.CompletedOn); known {
				recallDays[group] = append(recallDays[group], days)
			}
		}
	}

	groupSet := make(map[string]bool)
	for g := range completedByGroup {
		groupSet[g] = true
	}
	for g := range recallCounts {
		groupSet[g] = true
	}
	allGroups := make([]string, 0, len(groupSet))
	for g := range groupSet {
		allGroups = append(allGroups, g)
	}
	sort.Strings(allGroups)

	var groupLabel string
	switch q.GroupBy {
	case "business_unit":
		groupLabel = "Business Unit"
	case "job_type":
		groupLabel = "Job Type"
	default:
		groupLabel = "Technician"
	}

	lines := []string{
		fmt.Sprintf("Recall Summary  |  %s  |  by %s", dateLabel, groupLabel),
		recallSep,
	}

	if len(recalls) == 0 {
		totalGoBacks := 0
		for _, j := range allJobs {
			if strings.ToUpper(typeNames[j.JobTypeID]) == "GO BACK" {
				totalGoBacks++
			}
		}
		lines = append(lines,
			"No recall jobs found in this date range.",
			"",
			fmt.Sprintf("Total GO BACK jobs: %d", totalGoBacks),
			"None have recallForId set (no true recalls via Recall action).")
		return strings.Join(lines, "\n")
	}

	type summaryRow struct {
		group   string
		rc, cc  int
		rate    float64
		avgDays int
		opp     float64
	}
	totalOppCost := 0.0
	var rows []summaryRow
	for _, group := range allGroups {
		rc := recallCounts[group]
		cc := completedByGroup[group]
		rate := 0.0
		if cc > 0 {
			rate = float64(rc) / float64(cc) * 100
		}
		avgDays := 0
		if days := recallDays[group]; len(days) > 0 {
			sum := 0
			for _, d := range days {
				sum += d
			}
			avgDays = sum / len(days)
		}
		opp := float64(rc) * avgRev
		totalOppCost += opp
		if rc > 0 || cc > 0 {
			rows = append(rows, summaryRow{group: group, rc: rc, cc: cc, rate: rate, avgDays: avgDays, opp: opp})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].cc > rows[j].cc })

	nameW := 10
	if len(rows) > 0 {
		nameW = 0
		for _, r := range rows {
			if w := runeLen(r.group); w > nameW {
				nameW = w
			}
		}
	}
	for _, r := range rows {
		plural := "s"
		if r.rc == 1 {
			plural = ""
		}
		avgStr, oppStr := "", ""
		if r.rc > 0 {
			avgStr = fmt.Sprintf("  |  Avg %dd to recall", r.avgDays)
			oppStr = fmt.Sprintf("  |  ~%s opp cost", fmtCurrency(r.opp))
		}
		lines = append(lines, fmt.Sprintf("%s  |  %d recall%s / %d jobs  |  %.1f%%%s%s",
			padRight(r.group, nameW), r.rc, plural, r.cc, r.rate, avgStr, oppStr))
	}

	lines = append(lines, "", recallSep)

	// GO BACK jobs split three ways: linked recalls, Set Test visits
	// identified by tag, and everything else.
	goBackTypeIDs := make(map[int64]bool)
	for tid, name := range typeNames {
		if strings.Contains(strings.ToUpper(name), "GO BACK") {
			goBackTypeIDs[tid] = true
		}
	}
	setTestTagIDs := make(map[int64]bool)
	for tid, name := range tagNames {
		if strings.Contains(strings.ToUpper(name), "SET TEST") {
			setTestTagIDs[tid] = true
		}
	}

	var goBacks, trueRecalls, setTests, otherGoBacks int
	for _, j := range allJobs {
		if !goBackTypeIDs[j.JobTypeID] {
			continue
		}
		goBacks++
		switch {
		case j.RecallForID != 0:
			trueRecalls++
		case hasAnyTag(j.TagTypeIDs, setTestTagIDs):
			setTests++
		default:
			otherGoBacks++
		}
	}

	recallPct := 0.0
	if len(completed) > 0 {
		recallPct = float64(trueRecalls) / float64(len(completed)) * 100
	}

	lines = append(lines,
		"GO BACK Classification (all GO BACK jobs in range):",
		fmt.Sprintf("  True Recalls (recallForId set):       %s  (%.1f%% of completed jobs)",
			padLeft(strconv.Itoa(trueRecalls), 4), recallPct),
		fmt.Sprintf("  Set Test (tag-based):                 %s", padLeft(strconv.Itoa(setTests), 4)),
		fmt.Sprintf("  Other GO BACK / Unclassified:         %s", padLeft(strconv.Itoa(otherGoBacks), 4)),
		fmt.Sprintf("  Total GO BACK jobs:                   %s", padLeft(strconv.Itoa(goBacks), 4)),
		"",
		fmt.Sprintf("Overall Recall Rate:    %.1f%%  (%d recalls / %d completed jobs)",
			recallPct, trueRecalls, len(completed)),
		fmt.Sprintf("Total Opportunity Cost: ~%s", fmtCurrency(totalOppCost)))
	return strings.Join(lines, "\n")
}

func hasAnyTag(tagIDs []int64, wanted map[int64]bool) bool {
	for _, tid := range tagIDs {
		if wanted[tid] {
			return true
		}
	}
	return false
}

// JobsByTag lists jobs carrying any of the named tags, showing which
// requested tags matched and which other tags ride along.
func (t *Toolset) JobsByTag(ctx context.Context, tagNames, startDate, endDate, technicianName string) string {
	q := JobsByTagQuery{
		TagNames:       tagNames,
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

	dateLabel := formatDateRange(start, end)
	t.logger.Info("get_jobs_by_tag.start",
		logging.String("start", utils.FormatDate(start)),
		logging.String("end", utils.FormatDate(end)))

	allJobs, err := pagination.FetchAll[models.Job](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, 0), 2000)
	if err != nil {
		return t.failure("get_jobs_by_tag", err)
	}
	techs, err := t.findTechnicians(ctx, "")
	if err != nil {
		return t.failure("get_jobs_by_tag", err)
	}
	techNames := technicianNames(techs)

	typeRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "jpm", "/job-types", nil, 500)
	if err != nil {
		return t.failure("get_jobs_by_tag", err)
	}
	typeNames := refNames(typeRefs, "Type")

	tagRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "settings", "/tag-types", nil, 500)
	if err != nil {
		return t.failure("get_jobs_by_tag", err)
	}
	tagIDToName := refNames(tagRefs, "Tag")
	tagNameToID := make(map[string]int64, len(tagIDToName))
	for id, name := range tagIDToName {
		tagNameToID[strings.ToLower(name)] = id
	}

	resolvedIDs := make(map[int64]bool)
	var unresolved []string
	for _, name := range q.TagNameList() {
		if id, ok := tagNameToID[strings.ToLower(name)]; ok {
			resolvedIDs[id] = true
		} else {
			unresolved = append(unresolved, name)
		}
	}

	if len(unresolved) > 0 {
		available := make([]string, 0, len(tagIDToName))
		for _, name := range tagIDToName {
			available = append(available, name)
		}
		sort.Strings(available)
		return fmt.Sprintf("Unknown tag name(s): %s\n\nAvailable tags: %s",
			strings.Join(unresolved, ", "), strings.Join(available, ", "))
	}

	if q.TechnicianName != "" {
		targets, notFound := techTargets(techNames, q.TechnicianName)
		if notFound != "" {
			return notFound
		}
		kept := allJobs[:0]
		for _, j := range allJobs {
			if targets[j.TechnicianID] {
				kept = append(kept, j)
			}
		}
		allJobs = kept
	}

	var matching []models.Job
	for _, j := range allJobs {
		if hasAnyTag(j.TagTypeIDs, resolvedIDs) {
			matching = append(matching, j)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].CompletedOn.Time.Before(matching[j].CompletedOn.Time)
	})

	sortedIDs := make([]int64, 0, len(resolvedIDs))
	for id := range resolvedIDs {
		sortedIDs = append(sortedIDs, id)
	}
	sort.Slice(sortedIDs, func(i, j int) bool { return sortedIDs[i] < sortedIDs[j] })
	quoted := make([]string, 0, len(sortedIDs))
	for _, id := range sortedIDs {
		if name, ok := tagIDToName[id]; ok {
			quoted = append(quoted, fmt.Sprintf("\"%s\"", name))
		}
	}
	tagDisplay := strings.Join(quoted, ", ")

	lines := []string{
		fmt.Sprintf("Jobs by Tag: %s  |  %s", tagDisplay, dateLabel),
		recallSep,
	}
	if q.TechnicianName != "" {
		lines = append(lines, fmt.Sprintf("Filter: Technician = %s", q.TechnicianName), recallSep)
	}

	if len(matching) == 0 {
		lines = append(lines, "No jobs found with the specified tag(s) in this date range.")
		return strings.Join(lines, "\n")
	}

	for _, job := range matching {
		noChargeStr := ""
		if job.NoCharge {
			noChargeStr = "  No-Charge"
		}
		var matched, others []string
		for _, tid := range job.TagTypeIDs {
			name, ok := tagIDToName[tid]
			if !ok {
				continue
			}
			if resolvedIDs[tid] {
				matched = append(matched, name)
			} else {
				others = append(others, name)
			}
		}
		tagStr := fmt.Sprintf("  [%s]", strings.Join(matched, ", "))
		if len(others) > 0 {
			tagStr += fmt.Sprintf("  +%s", strings.Join(others, ", "))
		}
		isRecall := ""
		if job.RecallForID != 0 {
			isRecall = "  ← RECALL"
		}

		lines = append(lines,
			fmt.Sprintf("Job #%s  |  %s  |  %s  |  %s  |  %s%s  |  %s%s",
				jobNumberOrID(job.JobNumber, job.ID),
				dateOrDash(job.CompletedOn),
				nameOr(typeNames, job.JobTypeID, dash),
				nameOr(techNames, job.TechnicianID, dash),
				fmtCurrency(job.Total), noChargeStr,
				orDash(job.JobStatus), isRecall),
			fmt.Sprintf("  Tags:%s", tagStr))
	}

	plural := "s"
	if len(matching) == 1 {
		plural = ""
	}
	lines = append(lines, "", recallSep,
		fmt.Sprintf("Total: %d job%s with tag(s) %s  |  %s",
			len(matching), plural, tagDisplay, dateLabel))
	return strings.Join(lines, "\n")
}

// SearchJobSummaries is a case-insensitive substring search over the
// raw dispatcher summary notes. Summaries are free text and can hold
// customer details, so every response opens with a PII warning.
func (t *Toolset) SearchJobSummaries(ctx context.Context, searchText, startDate, endDate, technicianName, jobType string) string {
	q := SummarySearchQuery{
		SearchText:     searchText,
		TechnicianName: technicianName,
		JobType:        jobType,
		DateRange:      DateRange{Start: startDate, End: endDate},
	}
	if err := q.Validate(); err != nil {
		return errorReply(err)
	}
	start, end, err := q.Resolve(t.today())
	if err != nil {
		return errorReply(err)
	}

	dateLabel := formatDateRange(start, end)
	t.logger.Info("search_job_summaries.start",
		logging.String("start", utils.FormatDate(start)),
		logging.String("end", utils.FormatDate(end)))

	rawJobs, err := pagination.FetchAll[models.Job](ctx, t.api, "jpm", "/jobs",
		jobsParams(start, end, 0), 2000)
	if err != nil {
		return t.failure("search_job_summaries", err)
	}
	techs, err := t.findTechnicians(ctx, "")
	if err != nil {
		return t.failure("search_job_summaries", err)
	}
	techNames := technicianNames(techs)

	typeRefs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "jpm", "/job-types", nil, 500)
	if err != nil {
		return t.failure("search_job_summaries", err)
	}
	typeNames := refNames(typeRefs, "Type")

	if q.TechnicianName != "" {
		targets, notFound := techTargets(techNames, q.TechnicianName)
		if notFound != "" {
			return notFound
		}
		kept := rawJobs[:0]
		for _, j := range rawJobs {
			if targets[j.TechnicianID] {
				kept = append(kept, j)
			}
		}
		rawJobs = kept
	}

	if q.JobType != "" {
		needle := strings.ToLower(q.JobType)
		targetTypes := make(map[int64]bool)
		for tid, name := range typeNames {
			if strings.Contains(strings.ToLower(name), needle) {
				targetTypes[tid] = true
			}
		}
		kept := rawJobs[:0]
		for _, j := range rawJobs {
			if targetTypes[j.JobTypeID] {
				kept = append(kept, j)
			}
		}
		rawJobs = kept
	}

	needle := strings.ToLower(q.SearchText)
	var matches []models.Job
	for _, j := range rawJobs {
		if strings.Contains(strings.ToLower(j.Summary), needle) {
			matches = append(matches, j)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CompletedOn.Time.Before(matches[j].CompletedOn.Time)
	})

	lines := []string{
		fmt.Sprintf("Job Summary Search: \"%s\"  |  %s", q.SearchText, dateLabel),
		"⚠️  WARNING: Job summaries are free-text dispatcher notes and may contain",
		"    customer names, phone numbers, or addresses.",
		recallSep,
	}

	if q.TechnicianName != "" {
		lines = append(lines, fmt.Sprintf("Filter: Technician = %s", q.TechnicianName))
	}
	if q.JobType != "" {
		lines = append(lines, fmt.Sprintf("Filter: Job Type = %s", q.JobType))
	}
	if q.TechnicianName != "" || q.JobType != "" {
		lines = append(lines, recallSep)
	}

	if len(matches) == 0 {
		lines = append(lines, fmt.Sprintf("No jobs found with \"%s\" in the summary.", q.SearchText))
		return strings.Join(lines, "\n")
	}

	shown := matches
	if len(shown) > 50 {
		shown = shown[:50]
	}
	for _, job := range shown {
		isRecall := ""
		if job.RecallForID != 0 {
			isRecall = "  ← RECALL"
		}
		lines = append(lines,
			fmt.Sprintf("Job #%s  |  %s  |  %s  |  %s  |  %s%s",
				jobNumberOrID(job.JobNumber, job.ID),
				dateOrDash(job.CompletedOn),
				nameOr(typeNames, job.JobTypeID, dash),
				nameOr(techNames, job.TechnicianID, dash),
				orDash(job.JobStatus), isRecall),
			fmt.Sprintf("  Summary: \"%s\"", strings.TrimSpace(job.Summary)),
			"")
	}

	pluralEs := "es"
	if len(matches) == 1 {
		pluralEs = ""
	}
	lines = append(lines, recallSep,
		fmt.Sprintf("Showing %d of %d match%s.", len(shown), len(matches), pluralEs))
	return strings.Join(lines, "\n")
}
