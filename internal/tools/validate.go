package tools

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"servicetitan-mcp/internal/common/errors"
	"servicetitan-mcp/internal/common/utils"
)

// Argument validation. Every tool argument passes through one of these
// query types before any API call is made. Name fields are restricted to
// letters, spaces, and hyphens because they end up inside query
// parameters; fields that only filter in memory are length-capped but
// otherwise free-form.

const (
	maxRangeDays  = 90
	maxNameLength = 100
	maxListLength = 200
)

var namePattern = regexp.MustCompile(`^[A-Za-z\s\-]+$`)

// DateRange holds the raw start/end arguments of a tool call. Empty
// strings mean the argument was omitted.
type DateRange struct {
	Start string
	End   string
}

// Resolve parses and defaults the range against today's date:
//
//	neither given:  last full Mon-Sun week
//	start only:     that single day
//	end only:       the 7 days ending on end
//	both given:     the range as-is, capped at 90 days
func (r DateRange) Resolve(today time.Time) (time.Time, time.Time, error) {
	start, err := parseDateArg(r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDateArg(r.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	switch {
	case start.IsZero() && end.IsZero():
		start, end = utils.LastFullWeek(today)
	case !start.IsZero() && end.IsZero():
		end = start
	case start.IsZero() && !end.IsZero():
		start = end.AddDate(0, 0, -6)
	default:
		if start.After(end) {
			return time.Time{}, time.Time{}, errors.ValidationError("start_date must be on or before end_date")
		}
	}

	if days := utils.DaysBetween(start, end); days > maxRangeDays {
		return time.Time{}, time.Time{}, errors.ValidationError(fmt.Sprintf(
			"Date range is too large (%d days). Maximum is %d days.", days, maxRangeDays))
	}
	return start, end, nil
}

func parseDateArg(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, nil
	}
	t, err := utils.ParseDate(trimmed)
	if err != nil {
		return time.Time{}, errors.ValidationError(fmt.Sprintf(
			"Invalid date %q — use YYYY-MM-DD format", s)).WithCause(err)
	}
	return t, nil
}

// validateName enforces the strict technician-name rules: bounded,
// non-blank, and matching the letters/spaces/hyphens pattern.
func validateName(name string) (string, error) {
	if len(name) > maxNameLength {
		return "", errors.ValidationError(fmt.Sprintf(
			"Technician name is too long (max %d characters)", maxNameLength))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.ValidationError("Technician name cannot be empty")
	}
	if !namePattern.MatchString(name) {
		return "", errors.ValidationError("Technician name may only contain letters, spaces, and hyphens")
	}
	return name, nil
}

// validateOptionalName is validateName for fields where blank means "no
// filter".
func validateOptionalName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	return validateName(name)
}

// validateFilter bounds a free-form field that only ever filters records
// in memory and never reaches a query parameter.
func validateFilter(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if len(value) > maxNameLength {
		return "", errors.ValidationError(fmt.Sprintf(
			"%s is too long (max %d characters)", field, maxNameLength))
	}
	return value, nil
}

// TechnicianJobQuery validates tools that require a technician name plus
// a date range.
type TechnicianJobQuery struct {
	TechnicianName string
	DateRange
}

func (q *TechnicianJobQuery) Validate() error {
	name, err := validateName(q.TechnicianName)
	if err != nil {
		return err
	}
	q.TechnicianName = name
	return nil
}

// TechnicianNameQuery validates a bare name fragment. A blank fragment
// is allowed and means "list everyone". Validate gates without
// normalizing; the fragment matches as given.
type TechnicianNameQuery struct {
	NameFragment string
}

func (q *TechnicianNameQuery) Validate() error {
	if len(q.NameFragment) > maxNameLength {
		return errors.ValidationError(fmt.Sprintf(
			"Search text is too long (max %d characters)", maxNameLength))
	}
	fragment := strings.TrimSpace(q.NameFragment)
	if fragment != "" && !namePattern.MatchString(fragment) {
		return errors.ValidationError("Search text may only contain letters, spaces, and hyphens")
	}
	return nil
}

// JobsByTypeQuery validates get_jobs_by_type arguments.
type JobsByTypeQuery struct {
	JobTypes       string
	TechnicianName string
	Status         string
	DateRange
}

func (q *JobsByTypeQuery) Validate() error {
	types := strings.TrimSpace(q.JobTypes)
	if types == "" {
		return errors.ValidationError("job_types cannot be empty — provide one or more job type names")
	}
	if len(types) > maxListLength {
		return errors.ValidationError(fmt.Sprintf(
			"job_types is too long (max %d characters)", maxListLength))
	}
	q.JobTypes = types

	name, err := validateOptionalName(q.TechnicianName)
	if err != nil {
		return err
	}
	q.TechnicianName = name

	status := strings.TrimSpace(q.Status)
	if status == "" {
		status = "All"
	}
	switch status {
	case "Completed", "Canceled", "All":
	default:
		return errors.ValidationError("status must be one of: Completed, Canceled, All")
	}
	q.Status = status
	return nil
}

// JobTypeList splits the comma-separated job_types argument into trimmed,
// non-empty names.
func (q JobsByTypeQuery) JobTypeList() []string {
	var out []string
	for _, part := range strings.Split(q.JobTypes, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RecallQuery validates get_recalls arguments. Both filters are optional
// and only match in memory.
type RecallQuery struct {
	TechnicianName string
	BusinessUnit   string
	DateRange
}

func (q *RecallQuery) Validate() error {
	name, err := validateFilter("Technician name", q.TechnicianName)
	if err != nil {
		return err
	}
	q.TechnicianName = name

	bu, err := validateFilter("Business unit", q.BusinessUnit)
	if err != nil {
		return err
	}
	q.BusinessUnit = bu
	return nil
}

// CallbackChainQuery validates get_callback_chains arguments.
type CallbackChainQuery struct {
	TechnicianName string
	MinChainLength int
	DateRange
}

func (q *CallbackChainQuery) Validate() error {
	name, err := validateFilter("Technician name", q.TechnicianName)
	if err != nil {
		return err
	}
	q.TechnicianName = name

	if q.MinChainLength == 0 {
		q.MinChainLength = 2
	}
	if q.MinChainLength < 1 || q.MinChainLength > 10 {
		return errors.ValidationError("min_chain_length must be between 1 and 10")
	}
	return nil
}

// RecallSummaryQuery validates get_recall_summary arguments.
type RecallSummaryQuery struct {
	GroupBy string
	DateRange
}

func (q *RecallSummaryQuery) Validate() error {
	group := strings.TrimSpace(q.GroupBy)
	if group == "" {
		group = "technician"
	}
	switch group {
	case "technician", "business_unit", "job_type":
	default:
		return errors.ValidationError("group_by must be one of: technician, business_unit, job_type")
	}
	q.GroupBy = group
	return nil
}

// JobsByTagQuery validates get_jobs_by_tag arguments.
type JobsByTagQuery struct {
	TagNames       string
	TechnicianName string
	DateRange
}

func (q *JobsByTagQuery) Validate() error {
	tags := strings.TrimSpace(q.TagNames)
	if tags == "" {
		return errors.ValidationError("tag_names cannot be empty — provide one or more tag names")
	}
	if len(tags) > maxListLength {
		return errors.ValidationError(fmt.Sprintf(
			"tag_names is too long (max %d characters)", maxListLength))
	}
	q.TagNames = tags

	name, err := validateFilter("Technician name", q.TechnicianName)
	if err != nil {
		return err
	}
	q.TechnicianName = name
	return nil
}

// TagNameList splits the comma-separated tag_names argument into trimmed,
// non-empty names.
func (q JobsByTagQuery) TagNameList() []string {
	var out []string
	for _, part := range strings.Split(q.TagNames, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SummarySearchQuery validates search_job_summaries arguments. The search
// needle is matched against summaries in memory only, so it is length
// bounded but not pattern restricted.
type SummarySearchQuery struct {
	SearchText     string
	TechnicianName string
	JobType        string
	DateRange
}

func (q *SummarySearchQuery) Validate() error {
	text := strings.TrimSpace(q.SearchText)
	if len(text) < 2 {
		return errors.ValidationError("search_text must be at least 2 characters")
	}
	if len(text) > maxNameLength {
		return errors.ValidationError(fmt.Sprintf(
			"search_text is too long (max %d characters)", maxNameLength))
	}
	q.SearchText = text

	name, err := validateFilter("Technician name", q.TechnicianName)
	if err != nil {
		return err
	}
	q.TechnicianName = name

	jobType, err := validateFilter("Job type", q.JobType)
	if err != nil {
		return err
	}
	q.JobType = jobType
	return nil
}

// JobMixCompareQuery validates compare_technician_job_mix arguments.
type JobMixCompareQuery struct {
	JobType string
	DateRange
}

func (q *JobMixCompareQuery) Validate() error {
	jobType, err := validateFilter("Job type", q.JobType)
	if err != nil {
		return err
	}
	q.JobType = jobType
	return nil
}

// CancellationQuery validates get_cancellations arguments.
type CancellationQuery struct {
	TechnicianName string
	LateOnly       bool
	DateRange
}

func (q *CancellationQuery) Validate() error {
	name, err := validateOptionalName(q.TechnicianName)
	if err != nil {
		return err
	}
	q.TechnicianName = name
	return nil
}

// DiscountQuery validates get_technician_discounts arguments.
type DiscountQuery struct {
	TechnicianName    string
	MinDiscountAmount float64
	DateRange
}

func (q *DiscountQuery) Validate() error {
	name, err := validateOptionalName(q.TechnicianName)
	if err != nil {
		return err
	}
	q.TechnicianName = name

	if q.MinDiscountAmount < 0 {
		return errors.ValidationError("min_discount_amount cannot be negative")
	}
	return nil
}
