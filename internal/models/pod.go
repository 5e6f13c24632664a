package models

// RawPod is one pod's telemetry exactly as a seed reports it. Every field is
// untrusted: seeds running older gossip versions omit pubkey and storage
// fields entirely, so consumers must apply explicit defaults.
type RawPod struct {
	Pubkey              string  `json:"pubkey"`
	Address             string  `json:"address"`
	RPCPort             int     `json:"rpc_port"`
	IsPublic            bool    `json:"is_public"`
	Version             string  `json:"version"`
	LastSeen            string  `json:"last_seen"`
	LastSeenTimestamp   int64   `json:"last_seen_timestamp"`
	Uptime              int64   `json:"uptime"`
	StorageCommitted    int64   `json:"storage_committed"`
	StorageUsed         int64   `json:"storage_used"`
	StorageUsagePercent float64 `json:"storage_usage_percent"`
}

// NodeStatus classifies how recently a pod was seen relative to the batch.
type NodeStatus string

const (
	StatusOnline   NodeStatus = "online"
	StatusDegraded NodeStatus = "degraded"
	StatusOffline  NodeStatus = "offline"
)

// DerivedNode is the derived view of one RawPod for a given reference
// timestamp. Core fields (ID, Status, UptimePercent, HealthScore) are a pure
// function of (RawPod, maxTimestamp); the remainder is best-effort
// enrichment.
type DerivedNode struct {
	ID            string     `json:"id"`
	Pubkey        string     `json:"pubkey"`
	Address       string     `json:"address"`
	Status        NodeStatus `json:"status"`
	UptimePercent float64    `json:"uptime_percent"`
	HealthScore   int        `json:"health_score"`

	Version       string `json:"version"`
	VersionStatus string `json:"version_status,omitempty"`
	IsPublic      bool   `json:"is_public"`

	StorageCommitted    int64   `json:"storage_committed"`
	StorageUsed         int64   `json:"storage_used"`
	StorageUsagePercent float64 `json:"storage_usage_percent"`

	Credits     int64 `json:"credits"`
	CreditsRank int   `json:"credits_rank,omitempty"`

	Country string  `json:"country,omitempty"`
	City    string  `json:"city,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

// NetworkStats aggregates one derivation pass over a pod batch.
type NetworkStats struct {
	TotalNodes    int     `json:"total_nodes"`
	OnlineNodes   int     `json:"online_nodes"`
	DegradedNodes int     `json:"degraded_nodes"`
	OfflineNodes  int     `json:"offline_nodes"`
	TotalStorage  int64   `json:"total_storage_bytes"`
	UsedStorage   int64   `json:"used_storage_bytes"`
	AvgUptime     float64 `json:"average_uptime"`
	AvgCredits    float64 `json:"average_credits"`
	TotalCredits  int64   `json:"total_credits"`
	NetworkHealth float64 `json:"network_health"`
}
