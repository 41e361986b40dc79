package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"servicetitan-mcp/internal/common/logging"
	"servicetitan-mcp/internal/common/utils"
)

// Recorder receives one observation per tool invocation. The app layer
// uses it to feed the /stats endpoint; a nil Recorder disables counting.
type Recorder interface {
	Record(tool string, failed bool)
}

const (
	startDateDesc = "Start of date range in YYYY-MM-DD format. Defaults to last Monday."
	endDateDesc   = "End of date range in YYYY-MM-DD format. Defaults to last Sunday."
	techNameDesc  = "Full or partial technician name (e.g. \"Danny\", \"Danny R\")."
)

// RegisterAll wires every tool onto the MCP server. Handlers never
// return a protocol-level error: failures come back as plain text so
// the model can read them and retry with corrected input.
func RegisterAll(s *server.MCPServer, ts *Toolset, rec Recorder) {
	add := func(tool mcp.Tool, fn func(context.Context, mcp.CallToolRequest) string) {
		s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id := utils.NewInvocationID()
			ts.logger.Debug("tool.invoke",
				logging.String("invocation_id", id),
				logging.String("tool", tool.Name))
			out := fn(ctx, req)
			failed := strings.HasPrefix(out, "Error: ")
			if rec != nil {
				rec.Record(tool.Name, failed)
			}
			ts.logger.Debug("tool.complete",
				logging.String("invocation_id", id),
				logging.String("tool", tool.Name),
				logging.Bool("failed", failed))
			return mcp.NewToolResultText(out), nil
		})
	}

	// Job tools.

	add(mcp.NewTool("list_technicians",
		mcp.WithDescription("List active technicians at American Leak Detection. Returns a formatted list of technician names."),
		mcp.WithString("name_filter",
			mcp.Description("Optional partial name to search for (e.g. \"Danny\"). Leave blank to list all active technicians.")),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.ListTechnicians(ctx, req.GetString("name_filter", ""))
	})

	add(mcp.NewTool("get_technician_jobs",
		mcp.WithDescription("Get job counts for a specific technician over a date range, broken down by status. No customer names or personal information is included."),
		mcp.WithString("technician_name", mcp.Required(), mcp.Description(techNameDesc)),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.TechnicianJobs(ctx,
			req.GetString("technician_name", ""),
			req.GetString("start_date", ""),
			req.GetString("end_date", ""))
	})

	add(mcp.NewTool("get_jobs_summary",
		mcp.WithDescription("Get an overall jobs summary for the business over a date range: total job counts broken down by status across all technicians."),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.JobsSummary(ctx,
			req.GetString("start_date", ""),
			req.GetString("end_date", ""))
	})

	add(mcp.NewTool("get_jobs_by_type",
		mcp.WithDescription("Return individual job-level records filtered by job type, including all technicians assigned. Returns a PII-free, human-readable list."),
		mcp.WithString("job_types", mcp.Required(),
			mcp.Description("Comma-separated job type names (e.g. \"CSLD, Slab Repair\").")),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
		mcp.WithString("technician_name",
			mcp.Description("Optional filter: only jobs where this technician was primary or on the crew.")),
		mcp.WithString("status", mcp.DefaultString("All"),
			mcp.Description("Job status filter: Completed, Canceled, or All.")),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.JobsByType(ctx,
			req.GetString("job_types", ""),
			req.GetString("start_date", ""),
			req.GetString("end_date", ""),
			req.GetString("technician_name", ""),
			req.GetString("status", "All"))
	})

	// Revenue tools.

	add(mcp.NewTool("get_technician_revenue",
		mcp.WithDescription("Get total revenue earned by a specific technician over a date range. Returns revenue totals and job counts. No customer information is included."),
		mcp.WithString("technician_name", mcp.Required(), mcp.Description(techNameDesc)),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.TechnicianRevenue(ctx,
			req.GetString("technician_name", ""),
			req.GetString("start_date", ""),
			req.GetString("end_date", ""))
	})

	add(mcp.NewTool("get_revenue_summary",
		mcp.WithDescription("Get total business revenue over a date range: total revenue, job counts, and no-charge breakdown. No customer information is included."),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.RevenueSummary(ctx,
			req.GetString("start_date", ""),
			req.GetString("end_date", ""))
	})

	add(mcp.NewTool("get_no_charge_jobs",
		mcp.WithDescription("Get a count of no-charge (warranty, goodwill, or waived-fee) jobs over a date range, as a number and a percentage. No customer information is included."),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.NoChargeJobs(ctx,
			req.GetString("start_date", ""),
			req.GetString("end_date", ""))
	})

	add(mcp.NewTool("compare_technicians",
		mcp.WithDescription("Compare all technicians side-by-side: jobs completed, revenue, and revenue per job. Only technicians with jobs in the period are shown. No customer information is included."),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.CompareTechnicians(ctx,
			req.GetString("start_date", ""),
			req.GetString("end_date", ""))
	})

	add(mcp.NewTool("get_revenue_trend",
		mcp.WithDescription("Show average revenue per job by category, broken down by month. Reveals which job types or business units are trending up or down in per-job revenue. Best with a wide date range (60-90 days). Monthly avg $/job is calculated from billed jobs only."),
		mcp.WithString("group_by", mcp.DefaultString("job_type"),
			mcp.Description("\"job_type\" (e.g. CSLD, Slab Repair) or \"business_unit\" (e.g. Slab, Pool).")),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.RevenueTrend(ctx,
			req.GetString("group_by", "job_type"),
			req.GetString("start_date", ""),
			req.GetString("end_date", ""))
	})

	// Schedule tools.

	add(mcp.NewTool("get_technician_schedule",
		mcp.WithDescription("Get the appointment schedule for a specific technician over a date range: each appointment's scheduled start time, duration, and daily totals. Times are shown in UTC. No customer information is included."),
		mcp.WithString("technician_name", mcp.Required(), mcp.Description(techNameDesc)),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.TechnicianSchedule(ctx,
			req.GetString("technician_name", ""),
			req.GetString("start_date", ""),
			req.GetString("end_date", ""))
	})

	add(mcp.NewTool("compare_technician_hours",
		mcp.WithDescription("Compare scheduled hours and earliest start time across all technicians. These are scheduled appointment hours in UTC, not actual clock-in/out times. No customer information is included."),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.CompareTechnicianHours(ctx,
			req.GetString("start_date", ""),
			req.GetString("end_date", ""))
	})

	// Analysis tools.

	add(mcp.NewTool("get_technician_job_mix",
		mcp.WithDescription("Break down a technician's jobs by job type, showing count, revenue, and avg $/job for each type. Explains whether a tech's lower $/job comes from their job mix or their pricing within a type. No customer information is included."),
		mcp.WithString("technician_name", mcp.Required(), mcp.Description(techNameDesc)),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.TechnicianJobMix(ctx,
			req.GetString("technician_name", ""),
			req.GetString("start_date", ""),
			req.GetString("end_date", ""))
	})

	add(mcp.NewTool("compare_technician_job_mix",
		mcp.WithDescription("Compare all technicians' job type distribution side-by-side: which techs handle which types of work and their relative revenue performance within each type. No customer information is included."),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
		mcp.WithString("job_type",
			mcp.Description("Optional filter to compare all techs within a single job type. Omit for the full matrix.")),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.CompareTechnicianJobMix(ctx,
			req.GetString("start_date", ""),
			req.GetString("end_date", ""),
			req.GetString("job_type", ""))
	})

	add(mcp.NewTool("get_cancellations",
		mcp.WithDescription("Show canceled jobs with timing, assigned technician, and tags. Tracks cancel rates, late cancels (within 24h of appointment), and patterns by technician. No customer information is included; tags are shown as a cancel-reason proxy."),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
		mcp.WithString("technician_name", mcp.Description("Optional filter by assigned tech.")),
		mcp.WithBoolean("late_only", mcp.DefaultBool(false),
			mcp.Description("If true, only show cancellations within 24 hours of the appointment.")),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.Cancellations(ctx,
			req.GetString("start_date", ""),
			req.GetString("end_date", ""),
			req.GetString("technician_name", ""),
			req.GetBool("late_only", false))
	})

	add(mcp.NewTool("get_technician_discounts",
		mcp.WithDescription("Track discount and credit activity per technician from invoices: who is discounting, how often, and the total revenue impact. Discounts appear as negative line items on ServiceTitan invoices. No customer information is included."),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
		mcp.WithString("technician_name", mcp.Description("Optional filter by technician.")),
		mcp.WithNumber("min_discount_amount", mcp.DefaultNumber(0),
			mcp.Description("Only show discounts above this dollar amount (default 0).")),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.TechnicianDiscounts(ctx,
			req.GetString("start_date", ""),
			req.GetString("end_date", ""),
			req.GetString("technician_name", ""),
			req.GetFloat("min_discount_amount", 0))
	})

	// Recall tools.

	add(mcp.NewTool("get_recalls",
		mcp.WithDescription("Return jobs where recallForId is set — true recalls booked through ServiceTitan's Job Actions > Recall workflow. Shows each recall with the original job it links back to, days elapsed, technicians, and tags. The raw job summary is included behind a PII disclaimer."),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
		mcp.WithString("technician_name", mcp.Description("Optional filter by recall technician name.")),
		mcp.WithString("business_unit", mcp.Description("Optional filter by business unit name.")),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.Recalls(ctx,
			req.GetString("start_date", ""),
			req.GetString("end_date", ""),
			req.GetString("technician_name", ""),
			req.GetString("business_unit", ""))
	})

	add(mcp.NewTool("get_callback_chains",
		mcp.WithDescription("Group recall jobs into chains (original job plus recalls linked by recallForId) with truck roll count, opportunity cost, and chain duration per chain."),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
		mcp.WithString("technician_name",
			mcp.Description("Optional filter: chains whose ORIGINAL job belongs to this technician.")),
		mcp.WithNumber("min_chain_length", mcp.DefaultNumber(2),
			mcp.Description("Minimum total visits to show (default 2, max 10).")),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.CallbackChains(ctx,
			req.GetString("start_date", ""),
			req.GetString("end_date", ""),
			req.GetString("technician_name", ""),
			req.GetInt("min_chain_length", 2))
	})

	add(mcp.NewTool("get_recall_summary",
		mcp.WithDescription("High-level recall metrics for management reporting. The recall rate is attributed to the ORIGINAL job's tech/BU/type — measuring who caused the rework, not who performed it."),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
		mcp.WithString("group_by", mcp.DefaultString("technician"),
			mcp.Description("\"technician\", \"business_unit\", or \"job_type\".")),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.RecallSummary(ctx,
			req.GetString("start_date", ""),
			req.GetString("end_date", ""),
			req.GetString("group_by", "technician"))
	})

	add(mcp.NewTool("get_jobs_by_tag",
		mcp.WithDescription("Return jobs that have one or more of the specified tags applied. Tag names are resolved to IDs server-side — use the exact display names shown in ServiceTitan (e.g. \"Set Test\", \"CC on FILE\")."),
		mcp.WithString("tag_names",
			mcp.Description("Comma-separated tag names (required).")),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
		mcp.WithString("technician_name", mcp.Description("Optional filter by technician name.")),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.JobsByTag(ctx,
			req.GetString("tag_names", ""),
			req.GetString("start_date", ""),
			req.GetString("end_date", ""),
			req.GetString("technician_name", ""))
	})

	add(mcp.NewTool("search_job_summaries",
		mcp.WithDescription("Case-insensitive text search across job summary notes, returning up to 50 matching jobs. Summaries are free-text dispatcher notes and may contain customer names, phone numbers, or addresses; a PII warning is shown with every response."),
		mcp.WithString("search_text",
			mcp.Description("Substring to search for (min 2 chars, required).")),
		mcp.WithString("start_date", mcp.Description(startDateDesc)),
		mcp.WithString("end_date", mcp.Description(endDateDesc)),
		mcp.WithString("technician_name", mcp.Description("Optional filter by technician name.")),
		mcp.WithString("job_type", mcp.Description("Optional filter by job type name.")),
	), func(ctx context.Context, req mcp.CallToolRequest) string {
		return ts.SearchJobSummaries(ctx,
			req.GetString("search_text", ""),
			req.GetString("start_date", ""),
			req.GetString("end_date", ""),
			req.GetString("technician_name", ""),
			req.GetString("job_type", ""))
	})
}
