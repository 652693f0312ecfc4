// Package rosettest provides an in-process fake of the Roset API for
// testing SDK consumers without a network. It implements the node, commit,
// commit-group and ref endpoints with real protocol semantics: commits
// materialize asynchronously (after a configurable number of polls), group
// sealing is all-or-nothing, and ref updates honor compare-and-swap.
//
// A group-seal failure marks every member commit failed and nulls its
// manifest storage key. Older server versions kept the manifest key on
// failed members; that behavior is a known compatibility risk and is not
// modeled here.
package rosettest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/roset-dev/roset-go/roset"
)

// Server is a fake Roset API backed by in-memory state. All exported
// methods and configuration fields are safe for concurrent use with the
// requests they observe.
type Server struct {
	mu sync.Mutex

	nodes   map[string]*roset.Node
	paths   map[string]string // absolute path -> node id
	trash   map[string]bool
	commits map[string]*roset.Commit
	groups  map[string]*roset.CommitGroup
	refs    map[string]*roset.Ref

	polls         map[string]int // commit id -> observed GETs
	faults        []fault
	requestCounts map[string]int

	// PollsUntilComplete is how many GETs a non-grouped commit stays
	// pending before completing. Zero means it completes on the first poll.
	PollsUntilComplete int

	// FailCommits makes non-grouped commits fail instead of complete.
	FailCommits bool

	// FailSeal makes group sealing fail: the group and every attached
	// commit become failed, none are exposed.
	FailSeal bool

	httpServer *httptest.Server
}

type fault struct {
	status     int
	retryAfter int
	code       string
}

// New starts a fake server. Callers must Close it.
func New() *Server {
	s := &Server{
		nodes:   make(map[string]*roset.Node),
		paths:   make(map[string]string),
		trash:   make(map[string]bool),
		commits: make(map[string]*roset.Commit),
		groups:  make(map[string]*roset.CommitGroup),
		refs:    make(map[string]*roset.Ref),
		polls:   make(map[string]int),

		requestCounts: make(map[string]int),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(s.faultMiddleware)

	e.POST("/v1/nodes", s.createNode)
	e.GET("/v1/nodes/:id", s.getNode)
	e.PATCH("/v1/nodes/:id", s.updateNode)
	e.DELETE("/v1/nodes/:id", s.deleteNode)
	e.POST("/v1/resolve", s.resolvePaths)

	e.POST("/v1/commits", s.createCommit)
	e.GET("/v1/commits/:id", s.getCommit)
	e.POST("/v1/commit-groups", s.createGroup)
	e.GET("/v1/commit-groups/:id", s.getGroup)
	e.POST("/v1/commit-groups/:id/seal", s.sealGroup)

	e.GET("/v1/refs/:name", s.getRef)
	e.PUT("/v1/refs/:name", s.updateRef)
	e.DELETE("/v1/refs/:name", s.deleteRef)

	e.GET("/v1/org/members", s.listMembers)

	s.httpServer = httptest.NewServer(e)
	return s
}

// URL returns the base URL clients should point at
func (s *Server) URL() string {
	return s.httpServer.URL
}

// Close shuts the server down
func (s *Server) Close() {
	s.httpServer.Close()
}

// ClientConfig returns a Config wired to this server with retries tuned
// for tests.
func (s *Server) ClientConfig() roset.Config {
	return roset.Config{
		APIKey:        "rsk_test",
		BaseURL:       s.URL(),
		MaxRetries:    2,
		BackoffFactor: 0.001,
	}
}

// InjectFault queues a one-shot error response served to the next request.
// retryAfter > 0 adds a Retry-After header (seconds).
func (s *Server) InjectFault(status, retryAfter int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{status: status, retryAfter: retryAfter})
}

// InjectFaultWithCode queues a one-shot error response carrying a machine
// code in the body, e.g. QUOTA_EXCEEDED on a 429.
func (s *Server) InjectFaultWithCode(status int, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{status: status, code: code})
}

// RequestCount returns how many requests reached the given path (faulted
// requests included).
func (s *Server) RequestCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestCounts[path]
}

func (s *Server) faultMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.requestCounts[c.Request().URL.Path]++
		if len(s.faults) > 0 {
			f := s.faults[0]
			s.faults = s.faults[1:]
			s.mu.Unlock()
			if f.retryAfter > 0 {
				c.Response().Header().Set("Retry-After", intString(f.retryAfter))
			}
			body := map[string]any{"error": http.StatusText(f.status)}
			if f.code != "" {
				body["code"] = f.code
			}
			return c.JSON(f.status, body)
		}
		s.mu.Unlock()
		return next(c)
	}
}

// SeedNode registers a node (and its path) directly, bypassing the API
func (s *Server) SeedNode(path string, node *roset.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	s.nodes[node.ID] = node
	if path != "" {
		s.paths[path] = node.ID
	}
}

// LookupCommit returns a copy of a stored commit for assertions
func (s *Server) LookupCommit(commitID string) (roset.Commit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	commit, ok := s.commits[commitID]
	if !ok {
		return roset.Commit{}, false
	}
	return *commit, true
}

func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, map[string]any{"error": message, "code": code})
}

func intString(v int) string {
	return strconv.Itoa(v)
}
