package roset

import "time"

// NodeType distinguishes files from folders
type NodeType string

const (
	NodeTypeFile   NodeType = "file"
	NodeTypeFolder NodeType = "folder"
)

// NodeCommitStatus tracks a node through the server-side commit pipeline.
// It only advances active → committing → committed, never backward, and is
// observed (not driven) by clients.
type NodeCommitStatus string

const (
	NodeActive     NodeCommitStatus = "active"
	NodeCommitting NodeCommitStatus = "committing"
	NodeCommitted  NodeCommitStatus = "committed"
)

// CommitStatus is the lifecycle of a commit. completed and failed are
// terminal; a commit never leaves a terminal state.
type CommitStatus string

const (
	CommitPending   CommitStatus = "pending"
	CommitCompleted CommitStatus = "completed"
	CommitFailed    CommitStatus = "failed"
)

// GroupStatus is the lifecycle of a commit group coordinator
type GroupStatus string

const (
	GroupPending   GroupStatus = "pending"
	GroupCommitted GroupStatus = "committed"
	GroupFailed    GroupStatus = "failed"
)

// Node is a file or folder in the Roset filesystem
type Node struct {
	ID           string           `json:"id"`
	TenantID     string           `json:"tenant_id"`
	MountID      string           `json:"mount_id"`
	ParentID     *string          `json:"parent_id"`
	Name         string           `json:"name"`
	Type         NodeType         `json:"type"`
	Size         *int64           `json:"size,omitempty"`
	ContentType  *string          `json:"content_type,omitempty"`
	CommitStatus NodeCommitStatus `json:"commit_status"`
	Metadata     map[string]any   `json:"metadata,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Commit is an immutable, atomic snapshot request for one folder
type Commit struct {
	ID                 string       `json:"id"`
	TenantID           string       `json:"tenant_id"`
	NodeID             string       `json:"node_id"`
	Status             CommitStatus `json:"status"`
	Message            *string      `json:"message,omitempty"`
	ManifestStorageKey *string      `json:"manifest_storage_key,omitempty"`
	GroupID            *string      `json:"group_id,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
}

// CommitGroup coordinates all-or-nothing sealing across multiple commits
type CommitGroup struct {
	ID          string      `json:"id"`
	Status      GroupStatus `json:"status"`
	Message     *string     `json:"message,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CommittedAt *time.Time  `json:"committed_at,omitempty"`
}

// RefCommit is the embedded commit summary in a Ref response
type RefCommit struct {
	ID        string       `json:"id"`
	NodeID    string       `json:"node_id"`
	Status    CommitStatus `json:"status"`
	Message   *string      `json:"message,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Ref is a named, mutable pointer to exactly one commit (e.g. "latest")
type Ref struct {
	Name      string     `json:"name"`
	CommitID  string     `json:"commit_id"`
	UpdatedAt time.Time  `json:"updated_at"`
	Commit    *RefCommit `json:"commit,omitempty"`
}

// Page is a generic paginated list response
type Page[T any] struct {
	Items    []T  `json:"items"`
	Total    int  `json:"total"`
	HasMore  bool `json:"has_more"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
}

// Tenant is an organization workspace
type Tenant struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	Settings  map[string]any `json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
}

// Member is a workspace member
type Member struct {
	ID       string    `json:"id"`
	Email    *string   `json:"email"`
	Name     *string   `json:"name"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Invitation is a pending member invitation
type Invitation struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	Status    string    `json:"status"`
}

// APIKey describes an issued API key (the secret itself is only returned
// once, at creation)
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	Scopes     []string   `json:"scopes"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Integration is a connected cloud provider
type Integration struct {
	ID           string     `json:"id"`
	Provider     string     `json:"provider"`
	Status       string     `json:"status"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SearchResult is one search hit
type SearchResult struct {
	Node       Node                `json:"node"`
	Score      float64             `json:"score"`
	Highlights map[string][]string `json:"highlights"`
}

// FileDiff is a per-file entry in a commit comparison
type FileDiff struct {
	Path       string  `json:"path"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	SizeA      *int64  `json:"size_a,omitempty"`
	SizeB      *int64  `json:"size_b,omitempty"`
	ChecksumA  *string `json:"checksum_a,omitempty"`
	ChecksumB  *string `json:"checksum_b,omitempty"`
	IsTextFile bool    `json:"is_text_file"`
}

// CompareSummary aggregates comparison stats
type CompareSummary struct {
	Added            int     `json:"added"`
	Removed          int     `json:"removed"`
	Changed          int     `json:"changed"`
	SizeDelta        int64   `json:"size_delta"`
	SizeDeltaPercent float64 `json:"size_delta_percent"`
}

// CompareResult is the full result of comparing two commits
type CompareResult struct {
	Summary CompareSummary `json:"summary"`
	Files   []FileDiff     `json:"files"`
	Metrics map[string]any `json:"metrics,omitempty"`
}

// Webhook is a registered webhook endpoint
type Webhook struct {
	ID              string     `json:"id"`
	URL             string     `json:"url"`
	Secret          string     `json:"secret"`
	Events          []string   `json:"events"`
	Enabled         bool       `json:"enabled"`
	Description     *string    `json:"description,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	FailureCount    int        `json:"failure_count"`
}

// WebhookDelivery is one delivery attempt of a webhook event
type WebhookDelivery struct {
	ID           string         `json:"id"`
	WebhookID    string         `json:"webhook_id"`
	Event        string         `json:"event"`
	Payload      map[string]any `json:"payload"`
	StatusCode   *int           `json:"status_code,omitempty"`
	Success      bool           `json:"success"`
	AttemptCount int            `json:"attempt_count"`
	CreatedAt    time.Time      `json:"created_at"`
	DeliveredAt  *time.Time     `json:"delivered_at,omitempty"`
	Error        *string        `json:"error,omitempty"`
}

// Share is a sharing link for a node
type Share struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	NodeID    string     `json:"node_id"`
	Role      string     `json:"role"`
	CreatedBy string     `json:"created_by"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	URL       string     `json:"url"`
}

// AuditOp is one audit log entry
type AuditOp struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenant_id"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	TargetID  *string        `json:"target_id,omitempty"`
	Payload   map[string]any `json:"payload"`
	Status    string         `json:"status"`
	IPAddress *string        `json:"ip_address,omitempty"`
	UserAgent *string        `json:"user_agent,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Mount is a storage backend attachment
type Mount struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	Bucket    string    `json:"bucket"`
	Region    *string   `json:"region,omitempty"`
	Prefix    *string   `json:"prefix,omitempty"`
	ReadOnly  bool      `json:"read_only"`
	CreatedAt time.Time `json:"created_at"`
}

// BillingUsage is current usage per meter
type BillingUsage struct {
	ManagedFiles  int64 `json:"managed_files"`
	APICalls      int64 `json:"api_calls"`
	MountOps      int64 `json:"mount_ops"`
	Connectors    int64 `json:"connectors"`
	ActiveDevices int64 `json:"active_devices"`
	TeamMembers   int64 `json:"team_members"`
}

// BillingLimits is per-meter plan limits. A nil limit means unlimited.
type BillingLimits struct {
	APICalls      *int64 `json:"api_calls"`
	ManagedFiles  *int64 `json:"managed_files"`
	Connectors    *int64 `json:"connectors"`
	ActiveDevices *int64 `json:"active_devices"`
	MountOps      *int64 `json:"mount_ops"`
	TeamMembers   *int64 `json:"team_members"`
}

// TrendMetric holds growth statistics for one meter
type TrendMetric struct {
	Growth  float64   `json:"growth"`
	History []float64 `json:"history"`
}

// BillingTrend holds usage trends
type BillingTrend struct {
	ManagedFiles *TrendMetric `json:"managed_files,omitempty"`
	APICalls     *TrendMetric `json:"api_calls,omitempty"`
}

// BillingInfo is the full billing picture: plan, usage, limits
type BillingInfo struct {
	Plan      string        `json:"plan"`
	Usage     BillingUsage  `json:"usage"`
	Limits    BillingLimits `json:"limits"`
	Trend     *BillingTrend `json:"trend,omitempty"`
	PeriodEnd time.Time     `json:"period_end"`
}

// QuotaStatus is client-side quota math for one meter
type QuotaStatus struct {
	Used        int64
	Limit       *int64 // nil = unlimited
	Remaining   *int64 // nil = unlimited
	PercentUsed float64
	IsExceeded  bool
}
