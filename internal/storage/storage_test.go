package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/abulimen/pnode-watch/internal/models"
)

func testStore(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateSnapshotAndReadBack(t *testing.T) {
	s := testStore(t)

	stats := models.NetworkStats{
		TotalNodes:   3,
		OnlineNodes:  2,
		OfflineNodes: 1,
		TotalStorage: 1000,
		UsedStorage:  400,
		AvgUptime:    87.5,
		TotalCredits: 120,
		AvgCredits:   60,
	}

	id, err := s.CreateSnapshot(stats, time.Now())
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero snapshot id")
	}

	snap, err := s.GetLatestSnapshot()
	if err != nil {
		t.Fatalf("GetLatestSnapshot failed: %v", err)
	}
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	if snap.ID != id || snap.TotalNodes != 3 || snap.AvgUptime != 87.5 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestGetLatestSnapshotEmpty(t *testing.T) {
	s := testStore(t)

	snap, err := s.GetLatestSnapshot()
	if err != nil {
		t.Fatalf("GetLatestSnapshot failed: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot on empty store, got %+v", snap)
	}
}

func TestInsertNodeSnapshotsDedup(t *testing.T) {
	s := testStore(t)

	id, err := s.CreateSnapshot(models.NetworkStats{}, time.Now())
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	rows := []NodeSnapshotRow{
		{NodeID: "AAAA-1", Status: "online", UptimePercent: 50},
		{NodeID: "BBBB-2", Status: "offline"},
		{NodeID: "AAAA-1", Status: "degraded", UptimePercent: 75},
	}
	if err := s.InsertNodeSnapshots(id, rows); err != nil {
		t.Fatalf("InsertNodeSnapshots failed: %v", err)
	}

	got, err := s.GetNodeSnapshots(id)
	if err != nil {
		t.Fatalf("GetNodeSnapshots failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows after dedup, got %d", len(got))
	}

	byID := make(map[string]NodeSnapshotRow)
	for _, row := range got {
		byID[row.NodeID] = row
	}
	// Last occurrence wins.
	if byID["AAAA-1"].Status != "degraded" || byID["AAAA-1"].UptimePercent != 75 {
		t.Errorf("dedup kept wrong row: %+v", byID["AAAA-1"])
	}
}

func TestInsertNodeSnapshotsAtomic(t *testing.T) {
	s := testStore(t)

	id, err := s.CreateSnapshot(models.NetworkStats{}, time.Now())
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	// Reference a snapshot that does not exist; the FK violation must roll
	// back the whole batch.
	if err := s.InsertNodeSnapshots(id+999, []NodeSnapshotRow{
		{NodeID: "AAAA-1", Status: "online"},
	}); err == nil {
		t.Fatal("expected FK violation")
	}

	got, err := s.GetNodeSnapshots(id + 999)
	if err != nil {
		t.Fatalf("GetNodeSnapshots failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no rows after rollback, got %d", len(got))
	}
}

func TestDedupRows(t *testing.T) {
	rows := []NodeSnapshotRow{
		{NodeID: "a", Credits: 1},
		{NodeID: "b", Credits: 2},
		{NodeID: "a", Credits: 3},
		{NodeID: "c", Credits: 4},
	}

	deduped := DedupRows(rows)
	if len(deduped) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(deduped))
	}
	if deduped[0].NodeID != "a" || deduped[0].Credits != 3 {
		t.Errorf("expected last write to win for a: %+v", deduped[0])
	}
	if deduped[1].NodeID != "b" || deduped[2].NodeID != "c" {
		t.Errorf("order not preserved: %+v", deduped)
	}
}

func TestPruneOldSnapshotsIdempotent(t *testing.T) {
	s := testStore(t)

	oldID, err := s.CreateSnapshot(models.NetworkStats{}, time.Now().AddDate(0, 0, -40))
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}
	if err := s.InsertNodeSnapshots(oldID, []NodeSnapshotRow{{NodeID: "old-1", Status: "online"}}); err != nil {
		t.Fatalf("InsertNodeSnapshots failed: %v", err)
	}

	freshID, err := s.CreateSnapshot(models.NetworkStats{}, time.Now())
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	removed, err := s.PruneOldSnapshots(30)
	if err != nil {
		t.Fatalf("PruneOldSnapshots failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("first prune removed %d, want 1", removed)
	}

	// Cascade must take the node rows with the snapshot.
	rows, err := s.GetNodeSnapshots(oldID)
	if err != nil {
		t.Fatalf("GetNodeSnapshots failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected cascade to delete node rows, got %d", len(rows))
	}

	removed, err = s.PruneOldSnapshots(30)
	if err != nil {
		t.Fatalf("second PruneOldSnapshots failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("second prune removed %d, want 0", removed)
	}

	snap, err := s.GetLatestSnapshot()
	if err != nil {
		t.Fatalf("GetLatestSnapshot failed: %v", err)
	}
	if snap == nil || snap.ID != freshID {
		t.Errorf("fresh snapshot missing after prune: %+v", snap)
	}
}

func TestGetLatestNodeRows(t *testing.T) {
	s := testStore(t)

	first, _ := s.CreateSnapshot(models.NetworkStats{}, time.Now().Add(-time.Hour))
	if err := s.InsertNodeSnapshots(first, []NodeSnapshotRow{{NodeID: "n1", Status: "online"}}); err != nil {
		t.Fatalf("InsertNodeSnapshots failed: %v", err)
	}

	second, _ := s.CreateSnapshot(models.NetworkStats{}, time.Now())
	if err := s.InsertNodeSnapshots(second, []NodeSnapshotRow{
		{NodeID: "n1", Status: "offline"},
		{NodeID: "n2", Status: "online"},
	}); err != nil {
		t.Fatalf("InsertNodeSnapshots failed: %v", err)
	}

	latest, err := s.GetLatestNodeRows()
	if err != nil {
		t.Fatalf("GetLatestNodeRows failed: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(latest))
	}
	if latest["n1"].Status != "offline" {
		t.Errorf("expected latest n1 to be offline, got %q", latest["n1"].Status)
	}
}

func TestGetNodeHistory(t *testing.T) {
	s := testStore(t)

	id, _ := s.CreateSnapshot(models.NetworkStats{}, time.Now())
	if err := s.InsertNodeSnapshots(id, []NodeSnapshotRow{
		{NodeID: "n1", Status: "online", UptimePercent: 99.5, Credits: 7},
	}); err != nil {
		t.Fatalf("InsertNodeSnapshots failed: %v", err)
	}

	points, err := s.GetNodeHistory("n1", 24)
	if err != nil {
		t.Fatalf("GetNodeHistory failed: %v", err)
	}
	if len(points) != 1 || points[0].UptimePercent != 99.5 || points[0].Credits != 7 {
		t.Errorf("unexpected history: %+v", points)
	}

	none, err := s.GetNodeHistory("missing", 24)
	if err != nil {
		t.Fatalf("GetNodeHistory failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no history, got %+v", none)
	}
}
