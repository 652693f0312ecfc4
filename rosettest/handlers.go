package rosettest

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/roset-dev/roset-go/roset"
)

const tenantID = "tenant-test"

func strPtr(s string) *string { return &s }

// --- nodes ---

func (s *Server) createNode(c echo.Context) error {
	var req struct {
		Name       string         `json:"name"`
		Type       string         `json:"type"`
		ParentID   string         `json:"parentId"`
		ParentPath string         `json:"parentPath"`
		Metadata   map[string]any `json:"metadata"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return errorJSON(c, http.StatusBadRequest, "BAD_REQUEST", "name is required")
	}
	if req.Type != "file" && req.Type != "folder" {
		return errorJSON(c, http.StatusBadRequest, "BAD_REQUEST", "type must be file or folder")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	node := &roset.Node{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		MountID:      "mount-default",
		Name:         req.Name,
		Type:         roset.NodeType(req.Type),
		CommitStatus: roset.NodeActive,
		Metadata:     req.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	parentPath := req.ParentPath
	if req.ParentID != "" {
		parent, ok := s.nodes[req.ParentID]
		if !ok {
			return errorJSON(c, http.StatusNotFound, "NOT_FOUND", "parent not found")
		}
		node.ParentID = &parent.ID
		parentPath = s.pathOf(parent.ID)
	} else if req.ParentPath != "" {
		if parentID, ok := s.paths[req.ParentPath]; ok {
			node.ParentID = strPtr(parentID)
		}
	}

	path := strings.TrimRight(parentPath, "/") + "/" + req.Name
	if _, exists := s.paths[path]; exists {
		return errorJSON(c, http.StatusConflict, "CONFLICT", "a node already exists at "+path)
	}

	s.nodes[node.ID] = node
	s.paths[path] = node.ID
	return c.JSON(http.StatusCreated, map[string]any{"node": node})
}

func (s *Server) getNode(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[c.Param("id")]
	if !ok || s.trash[c.Param("id")] {
		return errorJSON(c, http.StatusNotFound, "NOT_FOUND", "node not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"node": node})
}

func (s *Server) updateNode(c echo.Context) error {
	var req struct {
		Name     string         `json:"name"`
		ParentID string         `json:"parentId"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "BAD_REQUEST", "malformed body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[c.Param("id")]
	if !ok {
		return errorJSON(c, http.StatusNotFound, "NOT_FOUND", "node not found")
	}

	if req.Name != "" {
		oldPath := s.pathOf(node.ID)
		delete(s.paths, oldPath)
		node.Name = req.Name
		s.paths[parentOf(oldPath)+"/"+req.Name] = node.ID
	}
	if req.ParentID != "" {
		if _, exists := s.nodes[req.ParentID]; !exists {
			return errorJSON(c, http.StatusNotFound, "NOT_FOUND", "parent not found")
		}
		node.ParentID = strPtr(req.ParentID)
	}
	if req.Metadata != nil {
		node.Metadata = req.Metadata
	}
	node.UpdatedAt = time.Now().UTC()
	return c.JSON(http.StatusOK, map[string]any{"node": node})
}

func (s *Server) deleteNode(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.nodes[id]; !ok {
		return errorJSON(c, http.StatusNotFound, "NOT_FOUND", "node not found")
	}
	s.trash[id] = true
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) resolvePaths(c echo.Context) error {
	var req struct {
		Paths []string `json:"paths"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "BAD_REQUEST", "malformed body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string]*roset.Node, len(req.Paths))
	for _, path := range req.Paths {
		if id, ok := s.paths[path]; ok && !s.trash[id] {
			result[path] = s.nodes[id]
		} else {
			result[path] = nil
		}
	}
	return c.JSON(http.StatusOK, result)
}

// pathOf finds the registered path for a node id. Callers hold s.mu.
func (s *Server) pathOf(nodeID string) string {
	for path, id := range s.paths {
		if id == nodeID {
			return path
		}
	}
	return ""
}

func parentOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return ""
	}
	return path[:idx]
}

// --- commits & groups ---

func (s *Server) createCommit(c echo.Context) error {
	var req struct {
		NodeID   string         `json:"node_id"`
		Message  string         `json:"message"`
		GroupID  string         `json:"group_id"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := c.Bind(&req); err != nil || req.NodeID == "" {
		return errorJSON(c, http.StatusBadRequest, "BAD_REQUEST", "node_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[req.NodeID]
	if !ok {
		return errorJSON(c, http.StatusNotFound, "NOT_FOUND", "node not found")
	}
	if node.Type != roset.NodeTypeFolder {
		return errorJSON(c, http.StatusConflict, "CONFLICT", "only folders can be committed")
	}

	commit := &roset.Commit{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		NodeID:    req.NodeID,
		Status:    roset.CommitPending,
		CreatedAt: time.Now().UTC(),
	}
	if req.Message != "" {
		commit.Message = strPtr(req.Message)
	}
	if req.GroupID != "" {
		group, ok := s.groups[req.GroupID]
		if !ok {
			return errorJSON(c, http.StatusNotFound, "NOT_FOUND", "commit group not found")
		}
		if group.Status != roset.GroupPending {
			return errorJSON(c, http.StatusConflict, "CONFLICT", "commit group is already sealed")
		}
		commit.GroupID = strPtr(req.GroupID)
	}

	node.CommitStatus = roset.NodeCommitting
	s.commits[commit.ID] = commit
	return c.JSON(http.StatusCreated, map[string]any{"commit": commit})
}

func (s *Server) getCommit(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	commit, ok := s.commits[c.Param("id")]
	if !ok {
		return errorJSON(c, http.StatusNotFound, "NOT_FOUND", "commit not found")
	}

	// Non-grouped commits materialize asynchronously; the fake advances
	// them after a configurable number of observed polls. Grouped commits
	// only move when their group is sealed.
	if commit.Status == roset.CommitPending && commit.GroupID == nil {
		s.polls[commit.ID]++
		if s.polls[commit.ID] > s.PollsUntilComplete {
			if s.FailCommits {
				s.failCommit(commit)
			} else {
				s.completeCommit(commit)
			}
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"commit": commit})
}

func (s *Server) completeCommit(commit *roset.Commit) {
	commit.Status = roset.CommitCompleted
	commit.ManifestStorageKey = strPtr("manifests/" + commit.ID + ".json")
	if node, ok := s.nodes[commit.NodeID]; ok {
		node.CommitStatus = roset.NodeCommitted
	}
}

func (s *Server) failCommit(commit *roset.Commit) {
	commit.Status = roset.CommitFailed
	commit.ManifestStorageKey = nil
	if node, ok := s.nodes[commit.NodeID]; ok {
		node.CommitStatus = roset.NodeActive
	}
}

func (s *Server) createGroup(c echo.Context) error {
	var req struct {
		Message string `json:"message"`
	}
	_ = c.Bind(&req)

	s.mu.Lock()
	defer s.mu.Unlock()

	group := &roset.CommitGroup{
		ID:        uuid.NewString(),
		Status:    roset.GroupPending,
		CreatedAt: time.Now().UTC(),
	}
	if req.Message != "" {
		group.Message = strPtr(req.Message)
	}
	s.groups[group.ID] = group
	return c.JSON(http.StatusCreated, map[string]any{"group": group})
}

func (s *Server) getGroup(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[c.Param("id")]
	if !ok {
		return errorJSON(c, http.StatusNotFound, "NOT_FOUND", "commit group not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"group": group})
}

func (s *Server) sealGroup(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[c.Param("id")]
	if !ok {
		return errorJSON(c, http.StatusNotFound, "NOT_FOUND", "commit group not found")
	}
	if group.Status != roset.GroupPending {
		return errorJSON(c, http.StatusConflict, "CONFLICT", "commit group is already sealed")
	}

	// Coordinator step: all members flip together, never partially.
	if s.FailSeal {
		group.Status = roset.GroupFailed
		for _, commit := range s.commits {
			if commit.GroupID != nil && *commit.GroupID == group.ID {
				s.failCommit(commit)
			}
		}
	} else {
		group.Status = roset.GroupCommitted
		now := time.Now().UTC()
		group.CommittedAt = &now
		for _, commit := range s.commits {
			if commit.GroupID != nil && *commit.GroupID == group.ID {
				s.completeCommit(commit)
			}
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"group": group})
}

// --- refs ---

func (s *Server) getRef(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.refs[c.Param("name")]
	if !ok {
		return errorJSON(c, http.StatusNotFound, "NOT_FOUND", "ref not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"ref": ref})
}

func (s *Server) updateRef(c echo.Context) error {
	var req struct {
		CommitID         string `json:"commit_id"`
		ExpectedCommitID string `json:"expected_commit_id"`
	}
	if err := c.Bind(&req); err != nil || req.CommitID == "" {
		return errorJSON(c, http.StatusBadRequest, "BAD_REQUEST", "commit_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := c.Param("name")
	current := s.refs[name]

	// CAS guard: reject unless the caller's expectation matches reality.
	if req.ExpectedCommitID != "" {
		if current == nil || current.CommitID != req.ExpectedCommitID {
			return errorJSON(c, http.StatusConflict, "CONFLICT", "ref update conflict: expected commit does not match")
		}
	}

	ref := &roset.Ref{
		Name:      name,
		CommitID:  req.CommitID,
		UpdatedAt: time.Now().UTC(),
	}
	if commit, ok := s.commits[req.CommitID]; ok {
		ref.Commit = &roset.RefCommit{
			ID:        commit.ID,
			NodeID:    commit.NodeID,
			Status:    commit.Status,
			Message:   commit.Message,
			CreatedAt: commit.CreatedAt,
		}
	}
	s.refs[name] = ref
	return c.JSON(http.StatusOK, map[string]any{"ref": ref})
}

func (s *Server) deleteRef(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := c.Param("name")
	if _, ok := s.refs[name]; !ok {
		return errorJSON(c, http.StatusNotFound, "NOT_FOUND", "ref not found")
	}
	delete(s.refs, name)
	return c.NoContent(http.StatusNoContent)
}

// --- org ---

func (s *Server) listMembers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"members": []map[string]any{
			{"id": "member-1", "role": "owner", "joined_at": time.Now().UTC()},
		},
	})
}
