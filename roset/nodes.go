package roset

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/roset-dev/roset-go/cache"
	"github.com/roset-dev/roset-go/logger"
)

// NodesService manages files and folders
type NodesService struct {
	transport *Transport
	cache     cache.Cache
	cacheTTL  time.Duration
	log       *logger.Logger
}

// ListChildrenOptions filter and paginate ListChildren
type ListChildrenOptions struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
	Type      NodeType
}

// CreateNodeParams are the inputs to Nodes.Create
type CreateNodeParams struct {
	Name       string
	Type       NodeType
	ParentID   string
	ParentPath string
	Metadata   map[string]any

	// IdempotencyKey guards the create against duplicate delivery under
	// retries. See NewIdempotencyKey.
	IdempotencyKey string
}

// UpdateNodeParams are the inputs to Nodes.Update. Zero-valued fields are
// left unchanged.
type UpdateNodeParams struct {
	Name           string
	ParentID       string
	Metadata       map[string]any
	IdempotencyKey string
}

func nodeCacheKey(nodeID string) string {
	return "roset:node:" + nodeID
}

// Get fetches a node by ID. When a node cache is configured the result is
// served read-through with the configured TTL.
func (s *NodesService) Get(ctx context.Context, nodeID string) (*Node, error) {
	if s.cache != nil {
		if cached, hit, err := s.cache.Get(ctx, nodeCacheKey(nodeID)); err == nil && hit {
			var node Node
			if json.Unmarshal(cached, &node) == nil {
				s.log.Debug("node cache hit", "node_id", nodeID)
				return &node, nil
			}
		}
	}

	body, err := s.transport.Do(ctx, "GET", "/v1/nodes/"+nodeID, nil)
	if err != nil {
		return nil, err
	}
	node, err := decodeEnvelope[Node](body, "node")
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, marshalErr := json.Marshal(node); marshalErr == nil {
			// Cache write failures only cost us a future miss.
			_ = s.cache.Set(ctx, nodeCacheKey(nodeID), encoded, s.cacheTTL)
		}
	}
	return node, nil
}

// Resolve maps a single absolute path to a node. Returns (nil, nil) if
// nothing exists at the path.
func (s *NodesService) Resolve(ctx context.Context, path string) (*Node, error) {
	nodes, err := s.ResolveMany(ctx, []string{path})
	if err != nil {
		return nil, err
	}
	return nodes[path], nil
}

// ResolveMany maps up to 100 paths to nodes in a single request. Paths
// that do not resolve map to nil.
func (s *NodesService) ResolveMany(ctx context.Context, paths []string) (map[string]*Node, error) {
	body, err := s.transport.Do(ctx, "POST", "/v1/resolve", &RequestOptions{
		Body: map[string]any{"paths": paths},
	})
	if err != nil {
		return nil, err
	}

	var payload map[string]*Node
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode resolve response: %w", err)
	}

	result := make(map[string]*Node, len(paths))
	for _, path := range paths {
		result[path] = payload[path]
	}
	return result, nil
}

// StatMany fetches metadata for up to 100 nodes by ID in a single request.
// Unknown IDs map to nil.
func (s *NodesService) StatMany(ctx context.Context, ids []string) (map[string]*Node, error) {
	body, err := s.transport.Do(ctx, "POST", "/v1/nodes/batch/stat", &RequestOptions{
		Body: map[string]any{"ids": ids},
	})
	if err != nil {
		return nil, err
	}

	var payload map[string]*Node
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode stat response: %w", err)
	}

	result := make(map[string]*Node, len(ids))
	for _, id := range ids {
		result[id] = payload[id]
	}
	return result, nil
}

// ListChildren lists a folder's direct children, paginated
func (s *NodesService) ListChildren(ctx context.Context, nodeID string, opts ListChildrenOptions) (*Page[Node], error) {
	query := map[string]any{
		"page":     orDefault(opts.Page, 1),
		"pageSize": orDefault(opts.PageSize, 50),
	}
	if opts.SortBy != "" {
		query["sortBy"] = opts.SortBy
	}
	if opts.SortOrder != "" {
		query["sortOrder"] = opts.SortOrder
	}
	if opts.Type != "" {
		query["type"] = string(opts.Type)
	}

	body, err := s.transport.Do(ctx, "GET", "/v1/nodes/"+nodeID+"/children", &RequestOptions{Query: query})
	if err != nil {
		return nil, err
	}
	return decodePage[Node](body)
}

// Create makes a new file or folder
func (s *NodesService) Create(ctx context.Context, params CreateNodeParams) (*Node, error) {
	if params.Name == "" {
		return nil, &ValidationError{Message: "node name is required"}
	}
	if params.Type != NodeTypeFile && params.Type != NodeTypeFolder {
		return nil, &ValidationError{Message: "node type must be file or folder"}
	}

	payload := map[string]any{"name": params.Name, "type": string(params.Type)}
	if params.ParentID != "" {
		payload["parentId"] = params.ParentID
	}
	if params.ParentPath != "" {
		payload["parentPath"] = params.ParentPath
	}
	if params.Metadata != nil {
		payload["metadata"] = params.Metadata
	}

	opts := &RequestOptions{Body: payload}
	if params.IdempotencyKey != "" {
		opts.Headers = map[string]string{"Idempotency-Key": params.IdempotencyKey}
	}

	body, err := s.transport.Do(ctx, "POST", "/v1/nodes", opts)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[Node](body, "node")
}

// CreateFolder is a convenience wrapper over Create
func (s *NodesService) CreateFolder(ctx context.Context, name, parentPath string) (*Node, error) {
	return s.Create(ctx, CreateNodeParams{Name: name, Type: NodeTypeFolder, ParentPath: parentPath})
}

// Update renames, moves, or updates the metadata of a node
func (s *NodesService) Update(ctx context.Context, nodeID string, params UpdateNodeParams) (*Node, error) {
	payload := map[string]any{}
	if params.Name != "" {
		payload["name"] = params.Name
	}
	if params.ParentID != "" {
		payload["parentId"] = params.ParentID
	}
	if params.Metadata != nil {
		payload["metadata"] = params.Metadata
	}

	opts := &RequestOptions{Body: payload}
	if params.IdempotencyKey != "" {
		opts.Headers = map[string]string{"Idempotency-Key": params.IdempotencyKey}
	}

	body, err := s.transport.Do(ctx, "PATCH", "/v1/nodes/"+nodeID, opts)
	if err != nil {
		return nil, err
	}
	node, err := decodeEnvelope[Node](body, "node")
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, nodeID)
	return node, nil
}

// Rename renames a node
func (s *NodesService) Rename(ctx context.Context, nodeID, newName string) (*Node, error) {
	return s.Update(ctx, nodeID, UpdateNodeParams{Name: newName})
}

// Move re-parents a node, optionally renaming it
func (s *NodesService) Move(ctx context.Context, nodeID, newParentID, newName string) (*Node, error) {
	return s.Update(ctx, nodeID, UpdateNodeParams{ParentID: newParentID, Name: newName})
}

// MergeMetadata applies an RFC 7386 merge patch to a node's metadata:
// fields in patch overwrite, nil values delete, everything else is kept.
// The merge happens client-side against the node's current metadata and
// the result is written back with Update.
func (s *NodesService) MergeMetadata(ctx context.Context, nodeID string, patch map[string]any) (*Node, error) {
	node, err := s.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	current, err := json.Marshal(node.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode current metadata: %w", err)
	}
	patchDoc, err := json.Marshal(patch)
	if err != nil {
		return nil, &ValidationError{Message: "metadata patch is not JSON-serializable", Err: err}
	}

	merged, err := jsonpatch.MergePatch(current, patchDoc)
	if err != nil {
		return nil, fmt.Errorf("failed to merge metadata: %w", err)
	}

	var metadata map[string]any
	if err := json.Unmarshal(merged, &metadata); err != nil {
		return nil, fmt.Errorf("failed to decode merged metadata: %w", err)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	return s.Update(ctx, nodeID, UpdateNodeParams{Metadata: metadata})
}

// Delete soft-deletes a node (moves it to trash)
func (s *NodesService) Delete(ctx context.Context, nodeID string) error {
	if _, err := s.transport.Do(ctx, "DELETE", "/v1/nodes/"+nodeID, nil); err != nil {
		return err
	}
	s.invalidate(ctx, nodeID)
	return nil
}

// DeleteMany soft-deletes up to 100 nodes in one request
func (s *NodesService) DeleteMany(ctx context.Context, ids []string) error {
	if _, err := s.transport.Do(ctx, "POST", "/v1/nodes/batch/delete", &RequestOptions{
		Body: map[string]any{"ids": ids},
	}); err != nil {
		return err
	}
	for _, id := range ids {
		s.invalidate(ctx, id)
	}
	return nil
}

// MoveMany re-parents up to 100 nodes in one request
func (s *NodesService) MoveMany(ctx context.Context, ids []string, parentID string) ([]Node, error) {
	body, err := s.transport.Do(ctx, "POST", "/v1/nodes/batch/move", &RequestOptions{
		Body: map[string]any{"ids": ids, "parentId": parentID},
	})
	if err != nil {
		return nil, err
	}

	var nodes []Node
	if err := json.Unmarshal(body, &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode move response: %w", err)
	}
	for _, id := range ids {
		s.invalidate(ctx, id)
	}
	return nodes, nil
}

// Restore brings a node back from trash
func (s *NodesService) Restore(ctx context.Context, nodeID string) (*Node, error) {
	body, err := s.transport.Do(ctx, "POST", "/v1/nodes/"+nodeID+"/restore", &RequestOptions{Body: map[string]any{}})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, nodeID)
	return decodeEnvelope[Node](body, "node")
}

// PermanentDelete removes a trashed node for good
func (s *NodesService) PermanentDelete(ctx context.Context, nodeID string) error {
	_, err := s.transport.Do(ctx, "DELETE", "/v1/nodes/"+nodeID+"/permanent", nil)
	return err
}

// PermanentDeleteMany removes up to 100 trashed nodes for good
func (s *NodesService) PermanentDeleteMany(ctx context.Context, ids []string) error {
	_, err := s.transport.Do(ctx, "POST", "/v1/nodes/batch/permanent-delete", &RequestOptions{
		Body: map[string]any{"ids": ids},
	})
	return err
}

// ListTrashOptions paginate ListTrash
type ListTrashOptions struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ListTrash lists trashed nodes
func (s *NodesService) ListTrash(ctx context.Context, opts ListTrashOptions) (*Page[Node], error) {
	query := map[string]any{
		"page":     orDefault(opts.Page, 1),
		"pageSize": orDefault(opts.PageSize, 50),
	}
	if opts.SortBy != "" {
		query["sortBy"] = opts.SortBy
	}
	if opts.SortOrder != "" {
		query["sortOrder"] = opts.SortOrder
	}

	body, err := s.transport.Do(ctx, "GET", "/v1/trash", &RequestOptions{Query: query})
	if err != nil {
		return nil, err
	}
	return decodePage[Node](body)
}

// EmptyTrash permanently deletes everything in trash and returns the
// number of nodes removed
func (s *NodesService) EmptyTrash(ctx context.Context) (int, error) {
	body, err := s.transport.Do(ctx, "DELETE", "/v1/trash", nil)
	if err != nil {
		return 0, err
	}

	var payload struct {
		DeletedCount int `json:"deletedCount"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("failed to decode empty-trash response: %w", err)
	}
	return payload.DeletedCount, nil
}

func (s *NodesService) invalidate(ctx context.Context, nodeID string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, nodeCacheKey(nodeID))
	}
}

func orDefault(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func decodePage[T any](body json.RawMessage) (*Page[T], error) {
	var page Page[T]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode paginated response: %w", err)
	}
	return &page, nil
}
