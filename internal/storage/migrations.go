package storage

const schema = `
CREATE TABLE IF NOT EXISTS network_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at DATETIME NOT NULL,
	total_nodes INTEGER NOT NULL DEFAULT 0,
	online_nodes INTEGER NOT NULL DEFAULT 0,
	degraded_nodes INTEGER NOT NULL DEFAULT 0,
	offline_nodes INTEGER NOT NULL DEFAULT 0,
	total_storage_bytes INTEGER NOT NULL DEFAULT 0,
	used_storage_bytes INTEGER NOT NULL DEFAULT 0,
	avg_uptime REAL NOT NULL DEFAULT 0,
	avg_credits REAL NOT NULL DEFAULT 0,
	total_credits INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_network_snapshots_created ON network_snapshots(created_at);

CREATE TABLE IF NOT EXISTS node_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	snapshot_id INTEGER NOT NULL,
	node_id TEXT NOT NULL,
	status TEXT NOT NULL,
	uptime_percent REAL NOT NULL DEFAULT 0,
	storage_usage_percent REAL NOT NULL DEFAULT 0,
	credits INTEGER NOT NULL DEFAULT 0,
	version TEXT,
	is_public INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (snapshot_id) REFERENCES network_snapshots(id) ON DELETE CASCADE,
	UNIQUE (snapshot_id, node_id)
);

CREATE INDEX IF NOT EXISTS idx_node_snapshots_snapshot ON node_snapshots(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_node_snapshots_node ON node_snapshots(node_id);
`
