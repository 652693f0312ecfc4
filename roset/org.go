package roset

import (
	"context"
	"encoding/json"
	"fmt"
)

// OrgService manages the tenant, its members and API keys
type OrgService struct {
	transport *Transport
}

// Tenant fetches the current tenant
func (s *OrgService) Tenant(ctx context.Context) (*Tenant, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/org", nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Tenant](body, "tenant")
}

// ListMembers lists workspace members
func (s *OrgService) ListMembers(ctx context.Context) ([]Member, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/org/members", nil)
	if err != nil {
		return nil, err
	}
	return decodeItems[Member](body, "members")
}

// InviteMember invites a new member by email
func (s *OrgService) InviteMember(ctx context.Context, email, role string) (*Invitation, error) {
	if email == "" {
		return nil, &ValidationError{Message: "email is required"}
	}

	body, err := s.transport.Do(ctx, "POST", "/v1/org/invites", &RequestOptions{
		Body: map[string]any{"email": email, "role": role},
	})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Invitation](body, "invitation")
}

// ListAPIKeys lists issued API keys
func (s *OrgService) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/org/api-keys", nil)
	if err != nil {
		return nil, err
	}
	return decodeItems[APIKey](body, "keys")
}

// CreatedAPIKey pairs the key record with the secret, which is only
// returned once at creation time.
type CreatedAPIKey struct {
	APIKey APIKey
	Secret string
}

// CreateAPIKey issues a new API key
func (s *OrgService) CreateAPIKey(ctx context.Context, name string, scopes []string) (*CreatedAPIKey, error) {
	if name == "" {
		return nil, &ValidationError{Message: "key name is required"}
	}

	body, err := s.transport.Do(ctx, "POST", "/v1/org/api-keys", &RequestOptions{
		Body: map[string]any{"name": name, "scopes": scopes},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		APIKey APIKey `json:"apiKey"`
		Key    string `json:"key"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode api key response: %w", err)
	}
	return &CreatedAPIKey{APIKey: payload.APIKey, Secret: payload.Key}, nil
}

// RevokeAPIKey revokes an API key
func (s *OrgService) RevokeAPIKey(ctx context.Context, keyID string) error {
	_, err := s.transport.Do(ctx, "DELETE", "/v1/org/api-keys/"+keyID, nil)
	return err
}
