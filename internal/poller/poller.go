// Package poller runs the telemetry acquisition pipeline: query seeds,
// derive node state, enrich, persist, diff. The interactive and batch entry
// points share every derivation step so the two paths cannot diverge.
package poller

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/abulimen/pnode-watch/internal/alerts"
	"github.com/abulimen/pnode-watch/internal/credits"
	"github.com/abulimen/pnode-watch/internal/derive"
	"github.com/abulimen/pnode-watch/internal/geo"
	"github.com/abulimen/pnode-watch/internal/models"
	"github.com/abulimen/pnode-watch/internal/seeds"
	"github.com/abulimen/pnode-watch/internal/storage"
)

// PersistError marks a storage failure during the batch path so callers can
// report it separately from seed exhaustion.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist snapshot: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

type Poller struct {
	interactive   *seeds.Coordinator
	batch         *seeds.Coordinator
	credits       *credits.Client
	geo           *geo.Resolver
	storage       *storage.Storage
	differ        alerts.Differ
	latestVersion string
}

func New(
	interactive *seeds.Coordinator,
	batch *seeds.Coordinator,
	creditsClient *credits.Client,
	geoResolver *geo.Resolver,
	store *storage.Storage,
	differ alerts.Differ,
	latestVersion string,
) *Poller {
	return &Poller{
		interactive:   interactive,
		batch:         batch,
		credits:       creditsClient,
		geo:           geoResolver,
		storage:       store,
		differ:        differ,
		latestVersion: latestVersion,
	}
}

// CycleResult summarizes one persisted batch poll.
type CycleResult struct {
	SnapshotID  int64               `json:"snapshot_id"`
	Stats       models.NetworkStats `json:"stats"`
	Nodes       int                 `json:"nodes"`
	Transitions alerts.Transitions  `json:"transitions"`
}

// FetchNodes is the interactive read path: concurrent fan-out across all
// seeds, derive, enrich, return. Nothing is persisted.
func (p *Poller) FetchNodes(ctx context.Context) ([]models.DerivedNode, error) {
	pods, err := p.interactive.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	return p.deriveAndEnrich(ctx, pods), nil
}

// RunCycle is the batch path: sequential failover across seeds, derive,
// enrich, persist one snapshot, then diff against the previous one. A failed
// cycle is terminal; the scheduler simply tries again at its next tick.
func (p *Poller) RunCycle(ctx context.Context) (*CycleResult, error) {
	pods, err := p.batch.QuerySequential(ctx)
	if err != nil {
		return nil, err
	}

	nodes := p.deriveAndEnrich(ctx, pods)
	stats := derive.Aggregate(nodes)

	// Previous state must be read before this cycle's snapshot lands.
	previous, err := p.storage.GetLatestNodeRows()
	if err != nil {
		return nil, &PersistError{Err: err}
	}

	snapshotID, err := p.storage.CreateSnapshot(stats, time.Now())
	if err != nil {
		return nil, &PersistError{Err: err}
	}

	rows := toRows(snapshotID, nodes)
	if err := p.storage.InsertNodeSnapshots(snapshotID, rows); err != nil {
		return nil, &PersistError{Err: err}
	}

	transitions := p.differ.DetectTransitions(storage.DedupRows(rows), previous)

	log.Printf("poll cycle complete: snapshot %d, %d nodes (%d online, %d degraded, %d offline), %d offline alerts, %d score drops",
		snapshotID, stats.TotalNodes, stats.OnlineNodes, stats.DegradedNodes, stats.OfflineNodes,
		len(transitions.OfflineAlerts), len(transitions.ScoreDropAlerts))

	return &CycleResult{
		SnapshotID:  snapshotID,
		Stats:       stats,
		Nodes:       len(nodes),
		Transitions: transitions,
	}, nil
}

// deriveAndEnrich is the one shared derivation funnel for both paths.
// Derivation itself is pure; credits and geo bolt on afterwards and degrade
// to defaults when unavailable.
func (p *Poller) deriveAndEnrich(ctx context.Context, pods []models.RawPod) []models.DerivedNode {
	maxTS := derive.MaxTimestamp(pods)
	nodes := derive.Nodes(pods, maxTS)

	if p.latestVersion != "" {
		for i := range nodes {
			nodes[i].VersionStatus = derive.VersionStatus(nodes[i].Version, p.latestVersion)
		}
	}

	if p.credits != nil {
		byPubkey, err := p.credits.Fetch(ctx)
		if err != nil {
			log.Printf("credits enrichment skipped: %v", err)
		} else {
			credits.Apply(nodes, byPubkey)
		}
	}

	p.geo.Enrich(nodes)

	return nodes
}

func toRows(snapshotID int64, nodes []models.DerivedNode) []storage.NodeSnapshotRow {
	rows := make([]storage.NodeSnapshotRow, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, storage.NodeSnapshotRow{
			SnapshotID:          snapshotID,
			NodeID:              n.ID,
			Status:              string(n.Status),
			UptimePercent:       n.UptimePercent,
			StorageUsagePercent: n.StorageUsagePercent,
			Credits:             n.Credits,
			Version:             n.Version,
			IsPublic:            n.IsPublic,
		})
	}
	return rows
}
