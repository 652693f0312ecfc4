package roset

import (
	"context"
	"strings"
	"time"
)

// SearchService queries the search index
type SearchService struct {
	transport *Transport
}

// SearchOptions filter a search query. Zero-valued filters are omitted
// from the request thanks to the transport's nil-dropping; callers can
// build the struct unconditionally.
type SearchOptions struct {
	Type       NodeType
	ParentID   string
	Extensions []string
	MinSize    int64
	MaxSize    int64
	StartDate  time.Time
	EndDate    time.Time
	Page       int
	PageSize   int
}

// Query searches files and folders
func (s *SearchService) Query(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	if query == "" {
		return nil, &ValidationError{Message: "search query is required"}
	}

	params := map[string]any{
		"q":         query,
		"page":      orDefault(opts.Page, 1),
		"page_size": orDefault(opts.PageSize, 50),
	}
	if opts.Type != "" {
		params["type"] = string(opts.Type)
	}
	if opts.ParentID != "" {
		params["parent_id"] = opts.ParentID
	}
	if len(opts.Extensions) > 0 {
		params["extensions"] = strings.Join(opts.Extensions, ",")
	}
	if opts.MinSize > 0 {
		params["min_size"] = opts.MinSize
	}
	if opts.MaxSize > 0 {
		params["max_size"] = opts.MaxSize
	}
	if !opts.StartDate.IsZero() {
		params["start_date"] = opts.StartDate.Format(time.RFC3339)
	}
	if !opts.EndDate.IsZero() {
		params["end_date"] = opts.EndDate.Format(time.RFC3339)
	}

	body, err := s.transport.Do(ctx, "GET", "/v1/search", &RequestOptions{Query: params})
	if err != nil {
		return nil, err
	}
	return decodeItems[SearchResult](body, "items")
}
