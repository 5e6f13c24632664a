package derive

import (
	"math"

	"github.com/abulimen/pnode-watch/internal/models"
)

// Aggregate rolls one derived batch up into network-wide statistics. Credits
// are read off the already-enriched nodes, so a failed credits fetch simply
// contributes zeros.
func Aggregate(nodes []models.DerivedNode) models.NetworkStats {
	stats := models.NetworkStats{
		TotalNodes: len(nodes),
	}
	if len(nodes) == 0 {
		return stats
	}

	var sumUptime float64
	var nodesWithCredits int

	for _, n := range nodes {
		switch n.Status {
		case models.StatusOnline:
			stats.OnlineNodes++
		case models.StatusDegraded:
			stats.DegradedNodes++
		case models.StatusOffline:
			stats.OfflineNodes++
		}

		stats.TotalStorage += n.StorageCommitted
		stats.UsedStorage += n.StorageUsed
		sumUptime += n.UptimePercent

		if n.Credits > 0 {
			stats.TotalCredits += n.Credits
			nodesWithCredits++
		}
	}

	stats.AvgUptime = sumUptime / float64(len(nodes))
	if nodesWithCredits > 0 {
		stats.AvgCredits = float64(stats.TotalCredits) / float64(nodesWithCredits)
	}

	onlineRatio := float64(stats.OnlineNodes) / float64(stats.TotalNodes)
	stats.NetworkHealth = math.Min(100, onlineRatio*80+stats.AvgUptime*0.2)

	return stats
}
