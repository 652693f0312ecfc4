package roset

import "context"

// SharesService manages sharing links
type SharesService struct {
	transport *Transport
}

// CreateShareParams are the inputs to Shares.Create
type CreateShareParams struct {
	NodeID         string
	Role           string // "viewer" (default) or "editor"
	ExpiresAt      string // RFC 3339, optional
	Scope          string
	Password       string
	IdempotencyKey string
}

// Create makes a new share link for a node
func (s *SharesService) Create(ctx context.Context, params CreateShareParams) (*Share, error) {
	if params.NodeID == "" {
		return nil, &ValidationError{Message: "node ID is required"}
	}
	role := params.Role
	if role == "" {
		role = "viewer"
	}

	payload := map[string]any{"nodeId": params.NodeID, "role": role}
	if params.ExpiresAt != "" {
		payload["expiresAt"] = params.ExpiresAt
	}
	if params.Scope != "" {
		payload["scope"] = params.Scope
	}
	if params.Password != "" {
		payload["password"] = params.Password
	}

	opts := &RequestOptions{Body: payload}
	if params.IdempotencyKey != "" {
		opts.Headers = map[string]string{"Idempotency-Key": params.IdempotencyKey}
	}

	body, err := s.transport.Do(ctx, "POST", "/v1/shares", opts)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Share](body, "share")
}

// Get fetches share details by token
func (s *SharesService) Get(ctx context.Context, token string) (*Share, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/shares/"+token, nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Share](body, "share")
}

// Revoke disables a share link
func (s *SharesService) Revoke(ctx context.Context, token string) error {
	_, err := s.transport.Do(ctx, "DELETE", "/v1/shares/"+token, nil)
	return err
}
