package db

import "database/sql"

// SchemaSQL is the complete schema for fresh installs. It reflects the state
// after every migration has run.
//
// This is the single source of truth for the database schema. Repository
// tests load it through GetSchemaSQL() instead of declaring their own tables,
// so a column referenced by code but missing here fails with "no such column".
//
// When adding columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Targets (planned insertions)
CREATE TABLE IF NOT EXISTS targets (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	ap REAL NOT NULL,
	ml REAL NOT NULL,
	dv REAL NOT NULL,
	yaw REAL NOT NULL DEFAULT 0,
	pitch REAL NOT NULL DEFAULT 90,
	roll REAL NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Probes (manipulator-driven probes and their calibration data)
CREATE TABLE IF NOT EXISTS probes (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	manipulator_id TEXT NOT NULL UNIQUE,
	automation_state TEXT NOT NULL DEFAULT 'is_uncalibrated',
	target_id TEXT,
	data TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (target_id) REFERENCES targets(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_probes_target ON probes(target_id);

-- Drive panels (manual step-by-step drive state per probe)
CREATE TABLE IF NOT EXISTS drive_panels (
	probe_id TEXT PRIMARY KEY,
	state TEXT NOT NULL DEFAULT 'outside',
	base_speed REAL NOT NULL,
	drive_past_distance REAL NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (probe_id) REFERENCES probes(id) ON DELETE CASCADE
);

-- Automation events (append-only drive log; survives probe removal)
CREATE TABLE IF NOT EXISTS automation_events (
	id TEXT PRIMARY KEY,
	probe_id TEXT NOT NULL,
	kind TEXT NOT NULL CHECK(kind IN ('step', 'stop', 'calibration', 'error')),
	phase TEXT,
	state TEXT,
	message TEXT,
	actor_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_automation_events_probe ON automation_events(probe_id);
CREATE INDEX IF NOT EXISTS idx_automation_events_created ON automation_events(created_at);
`

// InitSchema creates the schema on a fresh database and migrates an
// existing one.
func InitSchema(db *sql.DB) error {
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}
	if tableCount > 0 {
		return RunMigrations(db)
	}

	var probeTables int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='probes'").Scan(&probeTables)
	if err != nil {
		return err
	}
	if probeTables > 0 {
		// Pre-versioning database: bring it forward one migration at a time.
		return RunMigrations(db)
	}

	if _, err := db.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := ensureVersionTable(db); err != nil {
		return err
	}
	// A fresh schema already contains every migration.
	for _, m := range migrations {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
