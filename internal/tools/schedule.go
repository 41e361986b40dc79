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

// TechnicianSchedule lists one technician's appointments grouped by day.
// Canceled appointments are dropped; times are scheduled UTC times, not
// clock-in/out.
func (t *Toolset) TechnicianSchedule(ctx context.Context, technicianName, startDate, endDate string) string {
	t.logger.Info("tool.get_technician_schedule",
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
		return t.failure("get_technician_schedule", err)
	}
	if reply != "" {
		return reply
	}

	appts, err := t.fetchSchedule(ctx, start, end, tech.ID)
	if err != nil {
		return t.failure("get_technician_schedule", err)
	}

	totalHours := 0.0
	for _, a := range appts {
		totalHours += a.DurationHours()
	}

	lines := []string{
		fmt.Sprintf("Schedule for %s  |  %s", tech.Name, formatDateRange(start, end)),
		rule(50),
		fmt.Sprintf("Appointments:       %d", len(appts)),
		fmt.Sprintf("Total scheduled:    %s", fmtHours(totalHours)),
	}

	if len(appts) == 0 {
		lines = append(lines, "\nNo appointments found in this date range.")
		return strings.Join(lines, "\n")
	}

	days := make(map[string][]models.SafeAppointment)
	for _, a := range appts {
		key := a.Start.DateKey()
		if key == "" {
			key = "Unknown"
		}
		days[key] = append(days[key], a)
	}
	dayKeys := make([]string, 0, len(days))
	for key := range days {
		dayKeys = append(dayKeys, key)
	}
	sort.Strings(dayKeys)

	lines = append(lines, "")
	for _, key := range dayKeys {
		label := key
		if d, parseErr := time.Parse(utils.DateLayout, key); parseErr == nil {
			label = d.Format("Mon Jan 2")
		}
		dayAppts := days[key]
		dayHours := 0.0
		for _, a := range dayAppts {
			dayHours += a.DurationHours()
		}
		lines = append(lines, fmt.Sprintf("  %s  (%s)", label, fmtHours(dayHours)))
		for _, a := range dayAppts {
			lines = append(lines, fmt.Sprintf("    %s → %s  (%s)",
				fmtTimeUTC(a.Start), fmtTimeUTC(a.End), fmtHours(a.DurationHours())))
		}
	}

	lines = append(lines, "\n(Times are UTC — scheduled, not actual clock-in/out)")
	return strings.Join(lines, "\n")
}

// CompareTechnicianHours compares scheduled hours and earliest start
// across every active technician. One appointment query per technician.
func (t *Toolset) CompareTechnicianHours(ctx context.Context, startDate, endDate string) string {
	t.logger.Info("tool.compare_technician_hours",
		logging.String("start_date", startDate),
		logging.String("end_date", endDate))

	r := DateRange{Start: startDate, End: endDate}
	start, end, err := r.Resolve(t.today())
	if err != nil {
		return errorReply(err)
	}

	techs, err := t.findTechnicians(ctx, "")
	if err != nil {
		return t.failure("compare_technician_hours", err)
	}

	type hoursRow struct {
		name  string
		hours float64
		first models.APITime
		appts int
	}
	var rows []hoursRow

	for _, tech := range techs {
		if tech.ID == 0 {
			continue
		}
		appts, err := t.fetchSchedule(ctx, start, end, tech.ID)
		if err != nil {
			return t.failure("compare_technician_hours", err)
		}
		if len(appts) == 0 {
			continue
		}
		total := 0.0
		for _, a := range appts {
			total += a.DurationHours()
		}
		name := tech.Name
		if name == "" {
			name = fmt.Sprintf("Tech %d", tech.ID)
		}
		rows = append(rows, hoursRow{name: name, hours: total, first: appts[0].Start, appts: len(appts)})
	}

	dateLabel := formatDateRange(start, end)
	if len(rows) == 0 {
		return fmt.Sprintf("Technician Hours Comparison  |  %s\n%s\nNo appointments found in this date range.",
			dateLabel, rule(55))
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].hours > rows[j].hours })

	nameW := 12
	for _, row := range rows {
		if w := runeLen(row.name); w > nameW {
			nameW = w
		}
	}

	header := fmt.Sprintf("%s  %s  %s  %s",
		padRight("Technician", nameW), padLeft("Appts", 5),
		padLeft("Sched Hours", 11), padLeft("First Start (UTC)", 17))
	sep := rule(runeLen(header))

	lines := []string{
		fmt.Sprintf("Technician Hours Comparison  |  %s", dateLabel),
		sep,
		header,
		sep,
	}

	totalAppts := 0
	totalHours := 0.0
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%s  %s  %s  %s",
			padRight(row.name, nameW),
			padLeft(strconv.Itoa(row.appts), 5),
			padLeft(fmtHours(row.hours), 11),
			padLeft(fmtTimeUTC(row.first), 17)))
		totalAppts += row.appts
		totalHours += row.hours
	}

	lines = append(lines, sep, fmt.Sprintf("%s  %s  %s",
		padRight("TOTAL", nameW),
		padLeft(strconv.Itoa(totalAppts), 5),
		padLeft(fmtHours(totalHours), 11)))
	lines = append(lines, "\n(Scheduled appointment hours — not actual clock-in/out)")

	return strings.Join(lines, "\n")
}

// fetchSchedule pulls a technician's non-canceled appointments in the
// range, sorted by start time.
func (t *Toolset) fetchSchedule(ctx context.Context, start, end time.Time, techID int64) ([]models.SafeAppointment, error) {
	raw, err := pagination.FetchAll[models.SafeAppointment](ctx, t.api, "jpm", "/appointments",
		apptsParams(start, end, techID), 500)
	if err != nil {
		return nil, err
	}
	appts := raw[:0]
	for _, a := range raw {
		if a.Status != models.AppointmentStatusCanceled {
			appts = append(appts, a)
		}
	}
	sort.SliceStable(appts, func(i, j int) bool { return appts[i].Start.Time.Before(appts[j].Start.Time) })
	return appts, nil
}
