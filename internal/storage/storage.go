package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abulimen/pnode-watch/internal/models"
)

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	// foreign_keys must be set in the DSN so every pooled connection
	// enforces the snapshot -> node row cascade.
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Storage) migrate() error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// CreateSnapshot inserts one immutable aggregate row and returns its id.
func (s *Storage) CreateSnapshot(stats models.NetworkStats, createdAt time.Time) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO network_snapshots (
			created_at, total_nodes, online_nodes, degraded_nodes, offline_nodes,
			total_storage_bytes, used_storage_bytes, avg_uptime, avg_credits, total_credits
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		createdAt, stats.TotalNodes, stats.OnlineNodes, stats.DegradedNodes, stats.OfflineNodes,
		stats.TotalStorage, stats.UsedStorage, stats.AvgUptime, stats.AvgCredits, stats.TotalCredits,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create snapshot: %w", err)
	}
	return result.LastInsertId()
}

// InsertNodeSnapshots writes the per-node rows of one snapshot as a single
// transaction. The input is deduplicated by node_id first, last occurrence
// winning, so the (snapshot_id, node_id) uniqueness constraint can never
// abort a batch halfway.
func (s *Storage) InsertNodeSnapshots(snapshotID int64, rows []NodeSnapshotRow) error {
	deduped := DedupRows(rows)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO node_snapshots (
			snapshot_id, node_id, status, uptime_percent,
			storage_usage_percent, credits, version, is_public
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range deduped {
		if _, err := stmt.Exec(
			snapshotID, row.NodeID, row.Status, row.UptimePercent,
			row.StorageUsagePercent, row.Credits, row.Version, row.IsPublic,
		); err != nil {
			return fmt.Errorf("failed to insert node snapshot %s: %w", row.NodeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit node snapshots: %w", err)
	}
	return nil
}

// DedupRows collapses duplicate node ids, keeping the last occurrence in
// iteration order.
func DedupRows(rows []NodeSnapshotRow) []NodeSnapshotRow {
	seen := make(map[string]int, len(rows))
	deduped := make([]NodeSnapshotRow, 0, len(rows))
	for _, row := range rows {
		if i, ok := seen[row.NodeID]; ok {
			deduped[i] = row
			continue
		}
		seen[row.NodeID] = len(deduped)
		deduped = append(deduped, row)
	}
	return deduped
}

// PruneOldSnapshots deletes snapshots older than the retention window,
// cascading to their node rows. Returns the number of snapshots removed;
// a second run with no new data removes zero.
func (s *Storage) PruneOldSnapshots(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result, err := s.db.Exec("DELETE FROM network_snapshots WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune old snapshots: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned snapshots: %w", err)
	}
	return removed, nil
}

// GetLatestSnapshot returns the most recent aggregate row, or nil when the
// store is empty.
func (s *Storage) GetLatestSnapshot() (*NetworkSnapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, created_at, total_nodes, online_nodes, degraded_nodes, offline_nodes,
			total_storage_bytes, used_storage_bytes, avg_uptime, avg_credits, total_credits
		FROM network_snapshots
		ORDER BY created_at DESC, id DESC
		LIMIT 1`)

	var snap NetworkSnapshot
	err := row.Scan(
		&snap.ID, &snap.CreatedAt, &snap.TotalNodes, &snap.OnlineNodes, &snap.DegradedNodes,
		&snap.OfflineNodes, &snap.TotalStorage, &snap.UsedStorage, &snap.AvgUptime,
		&snap.AvgCredits, &snap.TotalCredits,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	return &snap, nil
}

// GetLatestNodeRows returns the node rows of the most recent snapshot, keyed
// by node id. This is the previous state the alert differ compares against.
func (s *Storage) GetLatestNodeRows() (map[string]NodeSnapshotRow, error) {
	snap, err := s.GetLatestSnapshot()
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return map[string]NodeSnapshotRow{}, nil
	}

	rows, err := s.GetNodeSnapshots(snap.ID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]NodeSnapshotRow, len(rows))
	for _, row := range rows {
		byID[row.NodeID] = row
	}
	return byID, nil
}

// GetNodeSnapshots returns the node rows belonging to one snapshot.
func (s *Storage) GetNodeSnapshots(snapshotID int64) ([]NodeSnapshotRow, error) {
	rows, err := s.db.Query(`
		SELECT id, snapshot_id, node_id, status, uptime_percent,
			storage_usage_percent, credits, version, is_public
		FROM node_snapshots
		WHERE snapshot_id = ?`,
		snapshotID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query node snapshots: %w", err)
	}
	defer rows.Close()

	var nodeRows []NodeSnapshotRow
	for rows.Next() {
		var row NodeSnapshotRow
		var version sql.NullString
		if err := rows.Scan(
			&row.ID, &row.SnapshotID, &row.NodeID, &row.Status, &row.UptimePercent,
			&row.StorageUsagePercent, &row.Credits, &version, &row.IsPublic,
		); err != nil {
			return nil, fmt.Errorf("failed to scan node snapshot: %w", err)
		}
		row.Version = version.String
		nodeRows = append(nodeRows, row)
	}

	return nodeRows, rows.Err()
}

// GetNetworkHistory returns aggregate snapshots from the last N hours, newest
// first.
func (s *Storage) GetNetworkHistory(hours int) ([]NetworkSnapshot, error) {
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	rows, err := s.db.Query(`
		SELECT id, created_at, total_nodes, online_nodes, degraded_nodes, offline_nodes,
			total_storage_bytes, used_storage_bytes, avg_uptime, avg_credits, total_credits
		FROM network_snapshots
		WHERE created_at >= ?
		ORDER BY created_at DESC`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query network history: %w", err)
	}
	defer rows.Close()

	var snapshots []NetworkSnapshot
	for rows.Next() {
		var snap NetworkSnapshot
		if err := rows.Scan(
			&snap.ID, &snap.CreatedAt, &snap.TotalNodes, &snap.OnlineNodes, &snap.DegradedNodes,
			&snap.OfflineNodes, &snap.TotalStorage, &snap.UsedStorage, &snap.AvgUptime,
			&snap.AvgCredits, &snap.TotalCredits,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

// NodeHistoryPoint is one node's state at one snapshot time.
type NodeHistoryPoint struct {
	CreatedAt           time.Time `json:"created_at"`
	Status              string    `json:"status"`
	UptimePercent       float64   `json:"uptime_percent"`
	StorageUsagePercent float64   `json:"storage_usage_percent"`
	Credits             int64     `json:"credits"`
}

// GetNodeHistory returns one node's rows across snapshots from the last N
// hours, newest first.
func (s *Storage) GetNodeHistory(nodeID string, hours int) ([]NodeHistoryPoint, error) {
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	rows, err := s.db.Query(`
		SELECT ns.created_at, n.status, n.uptime_percent, n.storage_usage_percent, n.credits
		FROM node_snapshots n
		JOIN network_snapshots ns ON ns.id = n.snapshot_id
		WHERE n.node_id = ? AND ns.created_at >= ?
		ORDER BY ns.created_at DESC`,
		nodeID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query node history: %w", err)
	}
	defer rows.Close()

	var points []NodeHistoryPoint
	for rows.Next() {
		var p NodeHistoryPoint
		if err := rows.Scan(&p.CreatedAt, &p.Status, &p.UptimePercent, &p.StorageUsagePercent, &p.Credits); err != nil {
			return nil, fmt.Errorf("failed to scan node history: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}
