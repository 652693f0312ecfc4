package roset

import (
	"context"
	"encoding/json"
	"fmt"
)

// WebhooksService manages webhook endpoints and their deliveries
type WebhooksService struct {
	transport *Transport
}

// CreateWebhookParams are the inputs to Webhooks.Create
type CreateWebhookParams struct {
	URL         string
	Events      []string
	Secret      string
	Description string
	Disabled    bool
}

// UpdateWebhookParams update a webhook; nil/zero fields are left unchanged
type UpdateWebhookParams struct {
	URL         string
	Events      []string
	Secret      string
	Description string
	Enabled     *bool
}

// List returns all webhooks
func (s *WebhooksService) List(ctx context.Context) ([]Webhook, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/webhooks", nil)
	if err != nil {
		return nil, err
	}
	return decodeItems[Webhook](body, "items")
}

// Get fetches a webhook by ID
func (s *WebhooksService) Get(ctx context.Context, webhookID string) (*Webhook, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/webhooks/"+webhookID, nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Webhook](body, "webhook")
}

// Create registers a new webhook endpoint
func (s *WebhooksService) Create(ctx context.Context, params CreateWebhookParams) (*Webhook, error) {
	if params.URL == "" {
		return nil, &ValidationError{Message: "webhook URL is required"}
	}
	if len(params.Events) == 0 {
		return nil, &ValidationError{Message: "at least one event is required"}
	}

	payload := map[string]any{
		"url":     params.URL,
		"events":  params.Events,
		"enabled": !params.Disabled,
	}
	if params.Secret != "" {
		payload["secret"] = params.Secret
	}
	if params.Description != "" {
		payload["description"] = params.Description
	}

	body, err := s.transport.Do(ctx, "POST", "/v1/webhooks", &RequestOptions{Body: payload})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Webhook](body, "webhook")
}

// Update changes a webhook's configuration
func (s *WebhooksService) Update(ctx context.Context, webhookID string, params UpdateWebhookParams) (*Webhook, error) {
	payload := map[string]any{}
	if params.URL != "" {
		payload["url"] = params.URL
	}
	if params.Events != nil {
		payload["events"] = params.Events
	}
	if params.Secret != "" {
		payload["secret"] = params.Secret
	}
	if params.Description != "" {
		payload["description"] = params.Description
	}
	if params.Enabled != nil {
		payload["enabled"] = *params.Enabled
	}

	body, err := s.transport.Do(ctx, "PATCH", "/v1/webhooks/"+webhookID, &RequestOptions{Body: payload})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Webhook](body, "webhook")
}

// Delete removes a webhook
func (s *WebhooksService) Delete(ctx context.Context, webhookID string) error {
	_, err := s.transport.Do(ctx, "DELETE", "/v1/webhooks/"+webhookID, nil)
	return err
}

// Test sends a dummy event to the webhook and returns the delivery record
func (s *WebhooksService) Test(ctx context.Context, webhookID string) (*WebhookDelivery, error) {
	body, err := s.transport.Do(ctx, "POST", "/v1/webhooks/"+webhookID+"/test", &RequestOptions{Body: map[string]any{}})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[WebhookDelivery](body, "delivery")
}

// ListDeliveries lists recent delivery attempts, paginated
func (s *WebhooksService) ListDeliveries(ctx context.Context, webhookID string, page, pageSize int) (*Page[WebhookDelivery], error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/webhooks/"+webhookID+"/deliveries", &RequestOptions{
		Query: map[string]any{
			"page":      orDefault(page, 1),
			"page_size": orDefault(pageSize, 20),
		},
	})
	if err != nil {
		return nil, err
	}
	return decodePage[WebhookDelivery](body)
}

// RetryDelivery re-attempts a failed delivery
func (s *WebhooksService) RetryDelivery(ctx context.Context, webhookID, deliveryID string) (*WebhookDelivery, error) {
	body, err := s.transport.Do(ctx, "POST", "/v1/webhooks/"+webhookID+"/deliveries/"+deliveryID+"/retry", &RequestOptions{Body: map[string]any{}})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[WebhookDelivery](body, "delivery")
}

// decodeItems unwraps a list response like {"items": [...]}
func decodeItems[T any](body json.RawMessage, key string) ([]T, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode list envelope: %w", err)
	}
	raw, ok := envelope[key]
	if !ok {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return items, nil
}
