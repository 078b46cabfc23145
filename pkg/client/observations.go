package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/inat-client/pkg/pagination"
)

// Quality grades accepted by the observations endpoint.
const (
	QualityResearch = "research"
	QualityNeedsID  = "needs_id"
	QualityCasual   = "casual"
)

// ObservationQuery filters the observations endpoint.
type ObservationQuery struct {
	ProjectID    int
	QualityGrade string
	TaxonIDs     []int
	PlaceIDs     []int
	// Order and OrderBy default to "desc" and "created_at".
	Order   string
	OrderBy string
}

// Encode renders the query string without page parameters:
//
//	project_id=411&quality_grade=research&taxon_id=20979&place_id=441,1767&order=desc&order_by=created_at
//
// Multi-valued filters are comma separated and the commas are left
// unescaped.
func (q ObservationQuery) Encode() string {
	order, orderBy := q.Order, q.OrderBy
	if order == "" {
		order = "desc"
	}
	if orderBy == "" {
		orderBy = "created_at"
	}

	params := [][2]string{
		{"project_id", strconv.Itoa(q.ProjectID)},
		{"quality_grade", q.QualityGrade},
		{"taxon_id", JoinIDs(q.TaxonIDs)},
		{"place_id", JoinIDs(q.PlaceIDs)},
		{"order", order},
		{"order_by", orderBy},
	}

	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p[0] + "=" + escapeListValue(p[1])
	}
	return strings.Join(parts, "&")
}

// escapeListValue query-escapes v but keeps commas literal.
func escapeListValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "%2C", ",")
}

// JoinIDs renders IDs as a comma separated list.
func JoinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// Observations walks every page of observations matching q, starting at
// page 1, and calls fn for each record in API order. An error from fn or from
// a request stops the walk and is returned.
func (c *Client) Observations(ctx context.Context, q ObservationQuery, fn func(Observation) error) (pagination.Summary, error) {
	base := q.Encode()
	c.logger.Debug().
		Str("url", c.endpointURL("observations").String()+"?"+base).
		Msg("Observation query")

	fetcher := pagination.PageFetcherFunc(func(ctx context.Context, pageNum int) (pagination.Page, error) {
		rawQuery := base
		if c.config.PerPage > 0 {
			rawQuery += "&per_page=" + strconv.Itoa(c.config.PerPage)
		}
		rawQuery += "&page=" + strconv.Itoa(pageNum)

		var page SearchPage
		if err := c.getJSON(ctx, "observations", rawQuery, &page); err != nil {
			return pagination.Page{}, err
		}

		for i, raw := range page.Results {
			var obs Observation
			if err := json.Unmarshal(raw, &obs); err != nil {
				return pagination.Page{}, fmt.Errorf("decode observation %d on page %d: %w", i, pageNum, err)
			}
			if err := fn(obs); err != nil {
				return pagination.Page{}, err
			}
		}

		return pagination.Page{
			Number:       pageNum,
			PerPage:      page.PerPage,
			TotalResults: page.TotalResults,
			Results:      len(page.Results),
		}, nil
	})

	walker := pagination.NewWalker(fetcher, pagination.Config{MaxPages: c.config.MaxPages}, c.logger)
	summary, err := walker.Walk(ctx)
	if err != nil {
		return summary, fmt.Errorf("observations: %w", err)
	}
	return summary, nil
}
