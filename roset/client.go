// Package roset is the Go client for the Roset API: versioned object
// storage with atomic folder commits and CAS-updatable refs.
//
// Construct a Client, then use the resource facades hung off it:
//
//	client, err := roset.NewClient(roset.Config{APIKey: "rsk_..."})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	commit, err := client.Commits.Create(ctx, roset.CreateCommitParams{NodeID: folder.ID})
//	commit, err = client.Commits.WaitFor(ctx, commit.ID, roset.WaitOptions{})
//	ref, err := client.Refs.Update(ctx, "latest", commit.ID, roset.UpdateRefOptions{})
//
// API errors branch cleanly with the Is* predicates (IsNotFound,
// IsConflict, ...) or errors.As against *APIError.
package roset

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/roset-dev/roset-go/cache"
	"github.com/roset-dev/roset-go/logger"
)

const (
	// DefaultBaseURL is the production API endpoint
	DefaultBaseURL = "https://api.roset.dev"

	defaultTimeout       = 30 * time.Second
	defaultMaxRetries    = 3
	defaultBackoffFactor = 0.5

	userAgent = "roset-go/0.2.0"

	apiKeyPrefix = "rsk_"
)

// Config configures a Client. Zero values fall back to defaults; invalid
// values fail construction with a *ValidationError before any request is
// sent.
type Config struct {
	// APIKey is required and must carry the rsk_ prefix.
	APIKey string

	// BaseURL defaults to DefaultBaseURL. Trailing slashes are stripped.
	BaseURL string

	// MountID, when set, is sent as X-Mount-Id on every request.
	MountID string

	// Timeout bounds each individual HTTP attempt. Default 30s.
	Timeout time.Duration

	// MaxRetries is the retry budget for transient errors; the first try
	// is not counted, so total attempts are MaxRetries+1. Default 3.
	// Set to -1 to disable retries entirely.
	MaxRetries int

	// BackoffFactor scales the exponential backoff between retries:
	// BackoffFactor * 2^attempt seconds. Default 0.5.
	BackoffFactor float64

	// HTTPClient overrides the underlying client (its Timeout is left
	// untouched when set).
	HTTPClient *http.Client

	// Logger receives structured request/retry logs. Defaults to a no-op.
	Logger *logger.Logger

	// NodeCache, when set, enables a read-through cache on Nodes.Get with
	// NodeCacheTTL (default 5s) freshness.
	NodeCache    cache.Cache
	NodeCacheTTL time.Duration

	// clock is injectable for tests
	clock Clock
}

func (c Config) validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.APIKey,
			validation.Required,
			validation.By(func(any) error {
				if !strings.HasPrefix(c.APIKey, apiKeyPrefix) {
					return validation.NewError("api_key_prefix", "API key must start with "+apiKeyPrefix)
				}
				return nil
			}),
		),
		validation.Field(&c.BaseURL, validation.By(func(any) error {
			if c.BaseURL == "" {
				return nil
			}
			parsed, parseErr := url.Parse(c.BaseURL)
			if parseErr != nil || !parsed.IsAbs() || parsed.Host == "" {
				return validation.NewError("base_url", "base URL must be absolute")
			}
			return nil
		})),
		validation.Field(&c.MaxRetries, validation.Min(-1)),
		validation.Field(&c.BackoffFactor, validation.Min(0.0)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return &ValidationError{Message: "invalid client configuration", Err: err}
	}
	return nil
}

// Client is the top-level Roset API client. All facades share one
// Transport by reference; the Client itself is safe for concurrent use.
type Client struct {
	Nodes        *NodesService
	Commits      *CommitsService
	Refs         *RefsService
	Webhooks     *WebhooksService
	Shares       *SharesService
	Mounts       *MountsService
	Search       *SearchService
	Org          *OrgService
	Billing      *BillingService
	Audit        *AuditService
	Uploads      *UploadsService
	Integrations *IntegrationsService

	transport *Transport
	log       *logger.Logger
	nodeCache cache.Cache
	cacheTTL  time.Duration
}

// NewClient validates cfg and builds a Client. Validation failures are
// local (*ValidationError); no network I/O happens here.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	backoffFactor := cfg.BackoffFactor
	if backoffFactor == 0 {
		backoffFactor = defaultBackoffFactor
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	clock := cfg.clock
	if clock == nil {
		clock = realClock{}
	}
	cacheTTL := cfg.NodeCacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Second
	}

	transport := &Transport{
		baseURL:       baseURL,
		apiKey:        cfg.APIKey,
		mountID:       cfg.MountID,
		maxRetries:    maxRetries,
		backoffFactor: backoffFactor,
		client:        httpClient,
		clock:         clock,
		log:           log,
	}

	c := &Client{
		transport: transport,
		log:       log,
		nodeCache: cfg.NodeCache,
		cacheTTL:  cacheTTL,
	}
	c.Nodes = &NodesService{transport: transport, cache: cfg.NodeCache, cacheTTL: cacheTTL, log: log}
	c.Commits = &CommitsService{transport: transport, clock: clock, log: log}
	c.Refs = &RefsService{transport: transport}
	c.Webhooks = &WebhooksService{transport: transport}
	c.Shares = &SharesService{transport: transport}
	c.Mounts = &MountsService{transport: transport}
	c.Search = &SearchService{transport: transport}
	c.Org = &OrgService{transport: transport}
	c.Billing = &BillingService{transport: transport}
	c.Audit = &AuditService{transport: transport}
	c.Uploads = &UploadsService{transport: transport}
	c.Integrations = &IntegrationsService{transport: transport}

	return c, nil
}

// Transport exposes the resilient request layer for callers that need raw
// access to endpoints without a facade.
func (c *Client) Transport() *Transport {
	return c.transport
}

// Close releases idle connections held by the underlying HTTP client
func (c *Client) Close() {
	c.transport.client.CloseIdleConnections()
}

// NewIdempotencyKey returns a fresh key for the Idempotency-Key header,
// used to guard non-idempotent creates against duplicate delivery under
// retries.
func NewIdempotencyKey() string {
	return uuid.NewString()
}
