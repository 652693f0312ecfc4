package roset

import "context"

// RefsService manages named pointers to commits (e.g. "latest")
type RefsService struct {
	transport *Transport
}

// UpdateRefOptions tune Refs.Update
type UpdateRefOptions struct {
	// ExpectedCommitID enables compare-and-swap: the server rejects the
	// update with Conflict unless the ref currently points at this commit.
	// This is the only guard against lost updates when multiple writers
	// race to advance the same ref. When empty, the update is an
	// unconditional last-writer-wins overwrite.
	ExpectedCommitID string
}

// Get fetches a ref by name. Returns (nil, nil) if the ref does not exist.
func (s *RefsService) Get(ctx context.Context, name string) (*Ref, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/refs/"+name, nil)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return decodeEnvelope[Ref](body, "ref")
}

// Update points a ref at a commit, creating the ref if it does not exist.
// See UpdateRefOptions for the CAS guard.
func (s *RefsService) Update(ctx context.Context, name, commitID string, opts UpdateRefOptions) (*Ref, error) {
	if name == "" {
		return nil, &ValidationError{Message: "ref name is required"}
	}
	if commitID == "" {
		return nil, &ValidationError{Message: "commit ID is required"}
	}

	payload := map[string]any{"commit_id": commitID}
	if opts.ExpectedCommitID != "" {
		payload["expected_commit_id"] = opts.ExpectedCommitID
	}

	body, err := s.transport.Do(ctx, "PUT", "/v1/refs/"+name, &RequestOptions{Body: payload})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Ref](body, "ref")
}

// Delete removes a ref. No history is retained; re-creating the name later
// does not imply continuity with the deleted ref.
func (s *RefsService) Delete(ctx context.Context, name string) error {
	_, err := s.transport.Do(ctx, "DELETE", "/v1/refs/"+name, nil)
	return err
}
