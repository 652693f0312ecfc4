package roset

import "context"

// IntegrationsService manages cloud provider connections
type IntegrationsService struct {
	transport *Transport
}

// List returns active integrations
func (s *IntegrationsService) List(ctx context.Context) ([]Integration, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/integrations", nil)
	if err != nil {
		return nil, err
	}
	return decodeItems[Integration](body, "integrations")
}

// Connect links a new cloud provider
func (s *IntegrationsService) Connect(ctx context.Context, provider string, config map[string]any) (*Integration, error) {
	if provider == "" {
		return nil, &ValidationError{Message: "provider is required"}
	}

	payload := map[string]any{"provider": provider}
	for k, v := range config {
		payload[k] = v
	}

	body, err := s.transport.Do(ctx, "POST", "/v1/integrations", &RequestOptions{Body: payload})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Integration](body, "integration")
}

// Disconnect revokes an integration
func (s *IntegrationsService) Disconnect(ctx context.Context, integrationID string) error {
	_, err := s.transport.Do(ctx, "DELETE", "/v1/integrations/"+integrationID, nil)
	return err
}
