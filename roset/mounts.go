package roset

import "context"

// MountsService manages storage mounts
type MountsService struct {
	transport *Transport
}

// CreateMountParams are the inputs to Mounts.Create
type CreateMountParams struct {
	Name     string
	Provider string // s3, gcs, azure, r2, minio
	Config   map[string]any
	ReadOnly bool
}

// List returns all mounts
func (s *MountsService) List(ctx context.Context) ([]Mount, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/mounts", nil)
	if err != nil {
		return nil, err
	}
	return decodeItems[Mount](body, "items")
}

// Get fetches a mount by ID
func (s *MountsService) Get(ctx context.Context, mountID string) (*Mount, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/mounts/"+mountID, nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Mount](body, "mount")
}

// Create attaches a new storage backend
func (s *MountsService) Create(ctx context.Context, params CreateMountParams) (*Mount, error) {
	if params.Name == "" {
		return nil, &ValidationError{Message: "mount name is required"}
	}
	if params.Provider == "" {
		return nil, &ValidationError{Message: "mount provider is required"}
	}

	body, err := s.transport.Do(ctx, "POST", "/v1/mounts", &RequestOptions{
		Body: map[string]any{
			"name":     params.Name,
			"provider": params.Provider,
			"config":   params.Config,
			"readOnly": params.ReadOnly,
		},
	})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Mount](body, "mount")
}

// Delete detaches a mount
func (s *MountsService) Delete(ctx context.Context, mountID string) error {
	_, err := s.transport.Do(ctx, "DELETE", "/v1/mounts/"+mountID, nil)
	return err
}
