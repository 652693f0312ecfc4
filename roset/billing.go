package roset

import (
	"context"
	"encoding/json"
	"fmt"
)

// BillingService reports plan, usage and quota state
type BillingService struct {
	transport *Transport
}

// Billing meter names accepted by CheckQuota
const (
	MeterManagedFiles  = "managed_files"
	MeterAPICalls      = "api_calls"
	MeterMountOps      = "mount_ops"
	MeterConnectors    = "connectors"
	MeterActiveDevices = "active_devices"
	MeterTeamMembers   = "team_members"
)

// Usage fetches the full billing picture
func (s *BillingService) Usage(ctx context.Context) (*BillingInfo, error) {
	body, err := s.transport.Do(ctx, "GET", "/v1/billing", nil)
	if err != nil {
		return nil, err
	}

	var info BillingInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode billing response: %w", err)
	}
	return &info, nil
}

// CheckQuota computes usage state for one meter client-side. A nil limit
// means the plan is unlimited for that meter.
func (s *BillingService) CheckQuota(ctx context.Context, meter string) (*QuotaStatus, error) {
	info, err := s.Usage(ctx)
	if err != nil {
		return nil, err
	}

	used, limit, err := meterValues(info, meter)
	if err != nil {
		return nil, err
	}

	status := &QuotaStatus{Used: used, Limit: limit}
	if limit == nil {
		return status, nil
	}

	remaining := *limit - used
	if remaining < 0 {
		remaining = 0
	}
	status.Remaining = &remaining
	if *limit > 0 {
		status.PercentUsed = float64(used) / float64(*limit) * 100
	} else {
		status.PercentUsed = 100
	}
	status.IsExceeded = used >= *limit
	return status, nil
}

func meterValues(info *BillingInfo, meter string) (int64, *int64, error) {
	switch meter {
	case MeterManagedFiles:
		return info.Usage.ManagedFiles, info.Limits.ManagedFiles, nil
	case MeterAPICalls:
		return info.Usage.APICalls, info.Limits.APICalls, nil
	case MeterMountOps:
		return info.Usage.MountOps, info.Limits.MountOps, nil
	case MeterConnectors:
		return info.Usage.Connectors, info.Limits.Connectors, nil
	case MeterActiveDevices:
		return info.Usage.ActiveDevices, info.Limits.ActiveDevices, nil
	case MeterTeamMembers:
		return info.Usage.TeamMembers, info.Limits.TeamMembers, nil
	default:
		return 0, nil, &ValidationError{Message: "unknown billing meter: " + meter}
	}
}
