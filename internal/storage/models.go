package storage

import "time"

// NetworkSnapshot is the immutable aggregate row written once per successful
// poll cycle.
type NetworkSnapshot struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	TotalNodes    int       `json:"total_nodes"`
	OnlineNodes   int       `json:"online_nodes"`
	DegradedNodes int       `json:"degraded_nodes"`
	OfflineNodes  int       `json:"offline_nodes"`
	TotalStorage  int64     `json:"total_storage_bytes"`
	UsedStorage   int64     `json:"used_storage_bytes"`
	AvgUptime     float64   `json:"avg_uptime"`
	AvgCredits    float64   `json:"avg_credits"`
	TotalCredits  int64     `json:"total_credits"`
}

// NodeSnapshotRow is one node's state within one network snapshot. At most
// one row exists per (snapshot_id, node_id).
type NodeSnapshotRow struct {
	ID                  int64   `json:"id"`
	SnapshotID          int64   `json:"snapshot_id"`
	NodeID              string  `json:"node_id"`
	Status              string  `json:"status"`
	UptimePercent       float64 `json:"uptime_percent"`
	StorageUsagePercent float64 `json:"storage_usage_percent"`
	Credits             int64   `json:"credits"`
	Version             string  `json:"version"`
	IsPublic            bool    `json:"is_public"`
}
