package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"servicetitan-mcp/internal/common/errors"
	"servicetitan-mcp/internal/common/logging"
	"servicetitan-mcp/internal/common/pagination"
	"servicetitan-mcp/internal/common/utils"
	"servicetitan-mcp/internal/models"
)

// Toolset carries the shared dependencies of every tool: the read-only
// API client, a logger, and the clock used when date arguments are
// omitted. One Toolset serves the whole MCP session; the underlying
// client pools connections and meters the query budget across tools.
type Toolset struct {
	api    pagination.Fetcher
	logger logging.Logger
	now    func() time.Time
}

func NewToolset(api pagination.Fetcher, logger logging.Logger) *Toolset {
	return &Toolset{api: api, logger: logger, now: time.Now}
}

// today returns the current UTC calendar day, the anchor for default
// date ranges.
func (t *Toolset) today() time.Time {
	return utils.TruncateToDay(t.now().UTC())
}

// errorReply is the single-line form every tool failure takes. Internal
// error text never passes through; only the taxonomy-mapped wording does.
func errorReply(err error) string {
	return "Error: " + errors.UserMessage(err)
}

// failure logs a tool-stage error and returns the user-facing reply.
func (t *Toolset) failure(tool string, err error) string {
	t.logger.Error("tool."+tool+".error", err,
		logging.String("error_type", string(errors.GetType(err))))
	return errorReply(err)
}

// findTechnicians returns active technicians whose name contains the
// fragment, case-insensitively. An empty fragment matches everyone.
func (t *Toolset) findTechnicians(ctx context.Context, fragment string) ([]models.SafeTechnician, error) {
	techs, err := pagination.FetchAll[models.SafeTechnician](ctx, t.api, "settings", "/technicians",
		map[string]string{"active": "true"}, 500)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(fragment)
	var matches []models.SafeTechnician
	for _, tech := range techs {
		if strings.Contains(strings.ToLower(tech.Name), needle) {
			matches = append(matches, tech)
		}
	}
	return matches, nil
}

// resolveTechnician narrows a name fragment to exactly one technician.
// When the lookup is empty or ambiguous the second return value is a
// complete reply for the caller, listing alternatives so the model can
// retry with a better name.
func (t *Toolset) resolveTechnician(ctx context.Context, fragment string) (models.SafeTechnician, string, error) {
	matches, err := t.findTechnicians(ctx, fragment)
	if err != nil {
		return models.SafeTechnician{}, "", err
	}

	if len(matches) == 0 {
		all, err := t.findTechnicians(ctx, "")
		if err != nil {
			return models.SafeTechnician{}, "", err
		}
		if len(all) > 10 {
			all = all[:10]
		}
		names := make([]string, len(all))
		for i, tech := range all {
			names[i] = tech.Name
		}
		reply := fmt.Sprintf("No technician found matching %q.\nActive technicians include:\n  %s",
			fragment, strings.Join(names, "\n  "))
		return models.SafeTechnician{}, reply, nil
	}

	if len(matches) > 1 {
		names := make([]string, len(matches))
		for i, tech := range matches {
			names[i] = tech.Name
		}
		reply := fmt.Sprintf("%q matches multiple technicians: %s.\nPlease be more specific.",
			fragment, strings.Join(names, ", "))
		return models.SafeTechnician{}, reply, nil
	}

	tech := matches[0]
	if tech.Name == "" {
		tech.Name = fragment
	}
	return tech, "", nil
}

// matchTechnician is the terse variant used by tools that filter an
// already-fetched dataset: no suggestion list on a miss.
func (t *Toolset) matchTechnician(ctx context.Context, fragment string) (models.SafeTechnician, string, error) {
	matches, err := t.findTechnicians(ctx, fragment)
	if err != nil {
		return models.SafeTechnician{}, "", err
	}
	if len(matches) == 0 {
		return models.SafeTechnician{}, fmt.Sprintf("No technician found matching %q.", fragment), nil
	}
	if len(matches) > 1 {
		names := make([]string, len(matches))
		for i, tech := range matches {
			names[i] = tech.Name
		}
		reply := fmt.Sprintf("%q matches multiple technicians: %s.\nPlease be more specific.",
			fragment, strings.Join(names, ", "))
		return models.SafeTechnician{}, reply, nil
	}
	return matches[0], "", nil
}

// jobsParams builds the jpm/jobs query for a resolved date range. The
// completedBefore bound is exclusive, so it points at the day after end.
func jobsParams(start, end time.Time, techID int64) map[string]string {
	params := map[string]string{
		"completedOnOrAfter": start.Format(utils.DateLayout) + "T00:00:00Z",
		"completedBefore":    end.AddDate(0, 0, 1).Format(utils.DateLayout) + "T00:00:00Z",
	}
	if techID != 0 {
		params["technicianId"] = strconv.FormatInt(techID, 10)
	}
	return params
}

// apptsParams builds the jpm/appointments query for a resolved range.
func apptsParams(start, end time.Time, techID int64) map[string]string {
	params := map[string]string{
		"startsOnOrAfter": start.Format(utils.DateLayout) + "T00:00:00Z",
		"startsBefore":    end.AddDate(0, 0, 1).Format(utils.DateLayout) + "T00:00:00Z",
	}
	if techID != 0 {
		params["technicianId"] = strconv.FormatInt(techID, 10)
	}
	return params
}

func countJobsByStatus(jobs []models.SafeJob) map[string]int {
	counts := make(map[string]int)
	for _, j := range jobs {
		status := j.JobStatus
		if status == "" {
			status = "Unknown"
		}
		counts[status]++
	}
	return counts
}

func sumRevenue(jobs []models.SafeJob) float64 {
	var total float64
	for _, j := range jobs {
		total += j.Total
	}
	return total
}

func countNoCharge(jobs []models.SafeJob) int {
	n := 0
	for _, j := range jobs {
		if j.NoCharge {
			n++
		}
	}
	return n
}

// refNames builds an id → display-name map from a reference listing.
// Records without a name fall back to "<prefix> <id>".
func refNames(refs []models.NameRef, prefix string) map[int64]string {
	out := make(map[int64]string, len(refs))
	for _, r := range refs {
		if r.ID == 0 {
			continue
		}
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("%s %d", prefix, r.ID)
		}
		out[r.ID] = name
	}
	return out
}

// technicianNames is refNames for technician listings.
func technicianNames(techs []models.SafeTechnician) map[int64]string {
	out := make(map[int64]string, len(techs))
	for _, t := range techs {
		if t.ID == 0 {
			continue
		}
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("Tech %d", t.ID)
		}
		out[t.ID] = name
	}
	return out
}

// nameOr looks up an id, returning the fallback for unknown or zero ids.
func nameOr(names map[int64]string, id int64, fallback string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return fallback
}

func sortedStatusKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fetchJobTypeNames pulls the job-type reference list and returns both
// lookup directions. The name index is lowercased for case-insensitive
// resolution of user-supplied type names.
func (t *Toolset) fetchJobTypeNames(ctx context.Context, maxRecords int, prefix string) (map[int64]string, map[string]int64, []string, error) {
	refs, err := pagination.FetchAll[models.NameRef](ctx, t.api, "jpm", "/job-types", nil, maxRecords)
	if err != nil {
		return nil, nil, nil, err
	}
	names := refNames(refs, prefix)
	index := make(map[string]int64, len(refs))
	order := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.ID == 0 {
			continue
		}
		key := strings.ToLower(r.Name)
		if _, seen := index[key]; !seen {
			order = append(order, key)
		}
		index[key] = r.ID
	}
	return names, index, order, nil
}

// typeSample renders the "(sample)" suffix of unknown-type replies: the
// first 20 known names, sorted.
func typeSample(order []string) string {
	sample := order
	if len(sample) > 20 {
		sample = sample[:20]
	}
	sorted := make([]string, len(sample))
	copy(sorted, sample)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}
