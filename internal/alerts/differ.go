// Package alerts decides which node transitions between two consecutive
// snapshots are alert-worthy. Delivery (email, push, bots) happens outside
// this repo; the pipeline only hands the differ the fresh rows and the
// previously persisted state.
package alerts

import (
	"time"

	"github.com/google/uuid"

	"github.com/abulimen/pnode-watch/internal/storage"
)

// ScoreDropThreshold is the uptime-percent drop between two snapshots that
// counts as a degradation alert.
const ScoreDropThreshold = 20.0

// Alert is one alert-worthy transition for one node.
type Alert struct {
	ID        string    `json:"id"`
	NodeID    string    `json:"node_id"`
	Kind      string    `json:"kind"`
	Previous  string    `json:"previous"`
	Current   string    `json:"current"`
	CreatedAt time.Time `json:"created_at"`
}

// Transitions is the differ's verdict for one poll cycle.
type Transitions struct {
	OfflineAlerts   []Alert `json:"offline_alerts"`
	ScoreDropAlerts []Alert `json:"score_drop_alerts"`
	Errors          []error `json:"-"`
}

// Differ consumes freshly derived, deduplicated node rows plus the previous
// persisted state and flags alert-worthy transitions.
type Differ interface {
	DetectTransitions(rows []storage.NodeSnapshotRow, previous map[string]storage.NodeSnapshotRow) Transitions
}

// StatusDiffer is the default policy: a node going offline, or its uptime
// percent dropping by ScoreDropThreshold or more, is alert-worthy. Nodes
// without a previous row are new and never alert.
type StatusDiffer struct{}

func NewStatusDiffer() *StatusDiffer {
	return &StatusDiffer{}
}

func (d *StatusDiffer) DetectTransitions(rows []storage.NodeSnapshotRow, previous map[string]storage.NodeSnapshotRow) Transitions {
	var t Transitions
	now := time.Now()

	for _, row := range rows {
		prev, ok := previous[row.NodeID]
		if !ok {
			continue
		}

		if row.Status == "offline" && prev.Status != "offline" {
			t.OfflineAlerts = append(t.OfflineAlerts, Alert{
				ID:        uuid.NewString(),
				NodeID:    row.NodeID,
				Kind:      "offline",
				Previous:  prev.Status,
				Current:   row.Status,
				CreatedAt: now,
			})
		}

		if prev.UptimePercent-row.UptimePercent >= ScoreDropThreshold {
			t.ScoreDropAlerts = append(t.ScoreDropAlerts, Alert{
				ID:        uuid.NewString(),
				NodeID:    row.NodeID,
				Kind:      "score_drop",
				Previous:  formatPercent(prev.UptimePercent),
				Current:   formatPercent(row.UptimePercent),
				CreatedAt: now,
			})
		}
	}

	return t
}
