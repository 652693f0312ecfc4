package roset

import (
	"context"
	"encoding/json"
	"fmt"
)

// UploadsService hands out signed URLs for direct-to-storage transfers
type UploadsService struct {
	transport *Transport
}

// SignedURLOperation selects read or write access for a signed URL
type SignedURLOperation string

const (
	SignedURLRead  SignedURLOperation = "read"
	SignedURLWrite SignedURLOperation = "write"
)

// SignedURL returns a pre-signed URL for reading or writing a file node's
// content. expiresIn is in seconds; zero means one hour.
func (s *UploadsService) SignedURL(ctx context.Context, nodeID string, operation SignedURLOperation, expiresIn int) (string, error) {
	if nodeID == "" {
		return "", &ValidationError{Message: "node ID is required"}
	}
	if operation == "" {
		operation = SignedURLRead
	}
	if expiresIn == 0 {
		expiresIn = 3600
	}

	body, err := s.transport.Do(ctx, "POST", "/v1/uploads/signed-url", &RequestOptions{
		Body: map[string]any{
			"nodeId":    nodeID,
			"operation": string(operation),
			"expiresIn": expiresIn,
		},
	})
	if err != nil {
		return "", err
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode signed-url response: %w", err)
	}
	return payload.URL, nil
}

// UploadPart identifies one completed part of a multipart upload
type UploadPart struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"etag"`
}

// Complete finalizes a multipart upload
func (s *UploadsService) Complete(ctx context.Context, uploadID string, parts []UploadPart) error {
	_, err := s.transport.Do(ctx, "POST", "/v1/uploads/"+uploadID+"/complete", &RequestOptions{
		Body: map[string]any{"parts": parts},
	})
	return err
}
