// Package tools implements the MCP reporting tools exposed by the server.
//
// Every tool follows the same shape: validate the arguments, resolve the
// date range, page data out of ServiceTitan through the read-only client,
// aggregate in memory, and render a plain-text report. Tools never return
// raw API payloads; jobs, technicians, and appointments are reduced to
// their scrubbed projections before any formatting happens, so customer
// names, addresses, and phone numbers cannot reach the model.
//
// Failures come back as a single "Error: ..." line built from the error
// taxonomy in common/errors. Upstream response bodies and token material
// never appear in tool output.
package tools
