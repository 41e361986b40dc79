package pagination

import (
	"context"
	"encoding/json"
	"strconv"

	"servicetitan-mcp/internal/common/errors"
)

// DefaultPageSize is the page size requested when the caller sets none
const DefaultPageSize = 100

// MaxPageSize is the largest page size ServiceTitan list endpoints accept
const MaxPageSize = 200

// DefaultMaxRecords caps a fetch when the caller sets no limit
const DefaultMaxRecords = 1000

// Fetcher is the slice of the API client the aggregator needs.
type Fetcher interface {
	Get(ctx context.Context, module, path string, params map[string]string) (json.RawMessage, error)
}

// Page is the envelope ServiceTitan list endpoints return.
type Page[T any] struct {
	Data    []T  `json:"data"`
	HasMore bool `json:"hasMore"`
}

// FetchAll pages through a list endpoint and returns every record up to
// maxRecords. The cap bounds runaway reads against large tenants; results
// are truncated to exactly maxRecords even when the last page overshoots.
//
// The page and pageSize keys in params are overwritten each iteration.
// Any page failing discards the whole fetch, since a partial dataset
// would silently skew every aggregate computed from it.
func FetchAll[T any](ctx context.Context, client Fetcher, module, path string, params map[string]string, maxRecords int) ([]T, error) {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}

	pageSize := DefaultPageSize
	if requested, err := strconv.Atoi(params["pageSize"]); err == nil && requested > 0 {
		pageSize = requested
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	results := make([]T, 0, pageSize)

	for pageNum := 1; ; pageNum++ {
		batchParams := make(map[string]string, len(params)+2)
		for k, v := range params {
			batchParams[k] = v
		}
		batchParams["page"] = strconv.Itoa(pageNum)
		batchParams["pageSize"] = strconv.Itoa(pageSize)

		raw, err := client.Get(ctx, module, path, batchParams)
		if err != nil {
			return nil, err
		}

		var page Page[T]
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, errors.APIError(0, "API returned a malformed page").WithCause(err)
		}

		results = append(results, page.Data...)

		if !page.HasMore || len(results) >= maxRecords {
			break
		}

		// An empty page with hasMore set would loop forever; treat it
		// as the end of the listing.
		if len(page.Data) == 0 {
			break
		}
	}

	if len(results) > maxRecords {
		results = results[:maxRecords]
	}

	return results, nil
}
