package roset

import "context"

// AuditService queries the audit log
type AuditService struct {
	transport *Transport
}

// AuditQueryOptions filter an audit log query. Zero-valued filters are
// omitted from the request.
type AuditQueryOptions struct {
	ActorID   string
	Action    string
	TargetID  string
	StartDate string // RFC 3339
	EndDate   string
	Page      int
	PageSize  int
}

// Query lists audit log entries matching the filters, paginated
func (s *AuditService) Query(ctx context.Context, opts AuditQueryOptions) (*Page[AuditOp], error) {
	query := map[string]any{
		"page":     orDefault(opts.Page, 1),
		"pageSize": orDefault(opts.PageSize, 50),
	}
	if opts.ActorID != "" {
		query["actorId"] = opts.ActorID
	}
	if opts.Action != "" {
		query["action"] = opts.Action
	}
	if opts.TargetID != "" {
		query["targetId"] = opts.TargetID
	}
	if opts.StartDate != "" {
		query["startDate"] = opts.StartDate
	}
	if opts.EndDate != "" {
		query["endDate"] = opts.EndDate
	}

	body, err := s.transport.Do(ctx, "GET", "/v1/audit", &RequestOptions{Query: query})
	if err != nil {
		return nil, err
	}
	return decodePage[AuditOp](body)
}
