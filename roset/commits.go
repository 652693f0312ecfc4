package roset

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roset-dev/roset-go/logger"
)

// CommitsService drives the commit/ref atomicity protocol: creating
// snapshot commits, polling them to a terminal state, and coordinating
// cross-folder commit groups.
type CommitsService struct {
	transport *Transport
	clock     Clock
	log       *logger.Logger
}

// CreateCommitParams are the inputs to Commits.Create
type CreateCommitParams struct {
	// NodeID is the folder to snapshot. Required.
	NodeID string

	// Message is an optional human-readable description.
	Message string

	// GroupID attaches the commit to a pending commit group for
	// cross-folder atomicity. Attaching to a sealed or failed group is a
	// server Conflict.
	GroupID string

	// Metadata is attached to the commit record verbatim.
	Metadata map[string]any
}

// Create requests an atomic snapshot of a folder. It returns a pending
// Commit immediately; the snapshot materializes asynchronously server-side.
// Poll with Get or WaitFor.
//
// Creating two commits for the same node yields two independent records;
// there is no implicit deduplication. Callers wanting at-most-one-in-flight
// must track the pending commit ID themselves.
func (s *CommitsService) Create(ctx context.Context, params CreateCommitParams) (*Commit, error) {
	if params.NodeID == "" {
		return nil, &ValidationError{Message: "node ID is required"}
	}

	payload := map[string]any{"node_id": params.NodeID}
	if params.Message != "" {
		payload["message"] = params.Message
	}
	if params.GroupID != "" {
		payload["group_id"] = params.GroupID
	}
	if params.Metadata != nil {
		payload["metadata"] = params.Metadata
	}

	body, err := s.transport.Do(ctx, "POST", "/v1/commits", &RequestOptions{Body: payload})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Commit](body, "commit")
}

// Get fetches a commit by ID. This is the poll primitive behind WaitFor.
func (s *CommitsService) Get(ctx context.Context, commitID string) (*Commit, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/commits/"+commitID, nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Commit](body, "commit")
}

// WaitOptions tune the WaitFor poll loop. Zero values use the defaults.
type WaitOptions struct {
	// Timeout is the client-side give-up bound. Default 60s.
	Timeout time.Duration

	// PollInterval is the sleep between polls. Default 500ms.
	PollInterval time.Duration
}

// WaitFor polls a commit until it leaves the pending state.
//
// It returns the commit as soon as it is completed. A failed commit
// returns *CommitFailedError immediately, without further polling. If the
// commit is still pending when Timeout elapses, WaitFor returns
// *WaitTimeoutError: that is a client-side give-up, not a server verdict.
// The commit may still complete later, and callers needing certainty
// should re-poll with Get rather than assume failure.
func (s *CommitsService) WaitFor(ctx context.Context, commitID string, opts WaitOptions) (*Commit, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	pollInterval := opts.PollInterval
	if pollInterval == 0 {
		pollInterval = 500 * time.Millisecond
	}

	log := s.log.WithCommitID(commitID)
	deadline := s.clock.Now().Add(timeout)

	for s.clock.Now().Before(deadline) {
		commit, err := s.Get(ctx, commitID)
		if err != nil {
			return nil, err
		}

		switch commit.Status {
		case CommitCompleted:
			log.Debug("commit completed")
			return commit, nil
		case CommitFailed:
			log.Warn("commit failed server-side")
			return nil, &CommitFailedError{CommitID: commitID, Commit: commit}
		}

		if err := s.clock.Sleep(ctx, pollInterval); err != nil {
			return nil, err
		}
	}

	log.Warn("gave up waiting for commit", "timeout", timeout)
	return nil, &WaitTimeoutError{CommitID: commitID, Timeout: timeout}
}

// CreateGroup opens a commit group: a coordinator enabling all-or-nothing
// visibility across multiple folder commits. Attach participants by
// creating commits with GroupID set, then SealGroup.
func (s *CommitsService) CreateGroup(ctx context.Context, message string) (*CommitGroup, error) {
	payload := map[string]any{}
	if message != "" {
		payload["message"] = message
	}

	body, err := s.transport.Do(ctx, "POST", "/v1/commit-groups", &RequestOptions{Body: payload})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[CommitGroup](body, "group")
}

// GetGroup fetches a commit group by ID
func (s *CommitsService) GetGroup(ctx context.Context, groupID string) (*CommitGroup, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/commit-groups/"+groupID, nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[CommitGroup](body, "group")
}

// SealGroup asks the server to run the group's coordinator step: every
// attached commit atomically becomes completed (group committed), or on
// any participant failure every attached commit becomes failed (group
// failed), never a partial outcome. The client only triggers sealing;
// fetch the group or its commits afterwards to learn the result.
func (s *CommitsService) SealGroup(ctx context.Context, groupID string) (*CommitGroup, error) {
	body, err := s.transport.Do(ctx, "POST", "/v1/commit-groups/"+groupID+"/seal", nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[CommitGroup](body, "group")
}

// Compare diffs two completed commits server-side
func (s *CommitsService) Compare(ctx context.Context, targetID, baseID string) (*CompareResult, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/commits/"+targetID+"/compare", &RequestOptions{
		Query: map[string]any{"base_id": baseID},
	})
	if err != nil {
		return nil, err
	}

	var result CompareResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode compare response: %w", err)
	}
	return &result, nil
}

// decodeEnvelope unwraps the single-key response envelope the API uses for
// object responses, e.g. {"commit": {...}}.
func decodeEnvelope[T any](body json.RawMessage, key string) (*T, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response envelope: %w", err)
	}
	raw, ok := envelope[key]
	if !ok {
		return nil, fmt.Errorf("response envelope missing %q", key)
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return &value, nil
}
