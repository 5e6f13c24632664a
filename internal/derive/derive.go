// Package derive turns raw pod telemetry into status, uptime and health
// values. Every function here is pure: no clock reads, no I/O, no package
// state. The interactive and batch paths both go through this package so the
// two can never drift apart.
package derive

import (
	"fmt"
	"math"
	"strings"

	"github.com/abulimen/pnode-watch/internal/models"
)

// Status thresholds in seconds relative to the batch reference timestamp.
// Single source of truth for every call site.
const (
	OnlineThresholdSeconds   = 60
	DegradedThresholdSeconds = 300
)

const secondsPerDay = 86400

// UnknownSegment substitutes for a missing pubkey or address in node ids.
const UnknownSegment = "unknown"

// MaxTimestamp returns the largest last_seen_timestamp in the batch. A batch
// is always judged against its own newest heartbeat, not the wall clock, so
// derivation stays reproducible.
func MaxTimestamp(pods []models.RawPod) int64 {
	var max int64
	for _, p := range pods {
		if p.LastSeenTimestamp > max {
			max = p.LastSeenTimestamp
		}
	}
	return max
}

// Status classifies a pod by how long before the batch reference it was last
// seen: online within 60s, degraded within 300s, offline beyond that.
func Status(lastSeenTimestamp, maxTimestamp int64) models.NodeStatus {
	secondsAgo := maxTimestamp - lastSeenTimestamp
	switch {
	case secondsAgo <= OnlineThresholdSeconds:
		return models.StatusOnline
	case secondsAgo <= DegradedThresholdSeconds:
		return models.StatusDegraded
	default:
		return models.StatusOffline
	}
}

// UptimePercent maps cumulative session uptime onto 0-100, one decimal. A pod
// that is not online pays a penalty proportional to how long it has been
// unseen, floored at zero.
func UptimePercent(uptimeSeconds, lastSeenTimestamp, maxTimestamp int64, status models.NodeStatus) float64 {
	pct := math.Min(100, float64(uptimeSeconds)/secondsPerDay*100)
	if status != models.StatusOnline {
		penalty := float64(maxTimestamp-lastSeenTimestamp) / secondsPerDay * 100
		pct -= penalty
		if pct < 0 {
			pct = 0
		}
	}
	return math.Round(pct*10) / 10
}

// HealthScore is an additive 0-100 score with independently capped terms:
// 40 for status, 30 for uptime, 20 for storage, 10 for identity completeness.
func HealthScore(pod models.RawPod, status models.NodeStatus) int {
	var score float64

	switch status {
	case models.StatusOnline:
		score += 40
	case models.StatusDegraded:
		score += 20
	}

	uptimeHours := float64(pod.Uptime) / 3600
	score += math.Min(30, uptimeHours/24*30)

	if pod.StorageCommitted > 0 {
		score += 10
		if pod.StorageUsagePercent < 80 {
			score += 10
		} else if pod.StorageUsagePercent < 95 {
			score += 5
		}
	}

	if pod.Version != "" {
		score += 5
	}
	if pod.Pubkey != "" {
		score += 5
	}

	return int(math.Round(score))
}

// NodeID builds the cross-snapshot join key: the first 8 characters of the
// pubkey joined with the final dot segment of the address host. Not
// collision-free when two pods share both a pubkey prefix and a host suffix;
// downstream treats it as an accepted approximation.
func NodeID(pubkey, address string) string {
	keyPart := UnknownSegment
	if pubkey != "" {
		keyPart = pubkey
		if len(keyPart) > 8 {
			keyPart = keyPart[:8]
		}
	}

	hostPart := UnknownSegment
	if address != "" {
		host := address
		if i := strings.Index(host, ":"); i >= 0 {
			host = host[:i]
		}
		if host != "" {
			segments := strings.Split(host, ".")
			hostPart = segments[len(segments)-1]
		}
	}

	return fmt.Sprintf("%s-%s", keyPart, hostPart)
}

// Node derives one pod against the shared batch reference timestamp.
func Node(pod models.RawPod, maxTimestamp int64) models.DerivedNode {
	status := Status(pod.LastSeenTimestamp, maxTimestamp)
	return models.DerivedNode{
		ID:                  NodeID(pod.Pubkey, pod.Address),
		Pubkey:              pod.Pubkey,
		Address:             pod.Address,
		Status:              status,
		UptimePercent:       UptimePercent(pod.Uptime, pod.LastSeenTimestamp, maxTimestamp, status),
		HealthScore:         HealthScore(pod, status),
		Version:             pod.Version,
		IsPublic:            pod.IsPublic,
		StorageCommitted:    pod.StorageCommitted,
		StorageUsed:         pod.StorageUsed,
		StorageUsagePercent: pod.StorageUsagePercent,
	}
}

// Nodes derives the whole batch against one shared reference timestamp.
func Nodes(pods []models.RawPod, maxTimestamp int64) []models.DerivedNode {
	nodes := make([]models.DerivedNode, 0, len(pods))
	for _, pod := range pods {
		nodes = append(nodes, Node(pod, maxTimestamp))
	}
	return nodes
}
