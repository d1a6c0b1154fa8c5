package audit

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the decision log and rotation tables.
const Schema = `
CREATE TABLE IF NOT EXISTS gate_decisions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT NOT NULL,
    recorded_at TIMESTAMP NOT NULL,
    import_name TEXT NOT NULL,
    policy_number INTEGER NOT NULL,
    service_class INTEGER NOT NULL,
    bulk_service INTEGER NOT NULL,
    flags INTEGER NOT NULL,
    accepted BOOLEAN NOT NULL,
    changed BOOLEAN NOT NULL,
    diagnostic TEXT
);

CREATE TABLE IF NOT EXISTS gate_rotations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT NOT NULL,
    recorded_at TIMESTAMP NOT NULL,
    import_name TEXT NOT NULL,
    policy_number INTEGER NOT NULL,
    service_class INTEGER NOT NULL,
    bulk_service INTEGER NOT NULL,
    flags INTEGER NOT NULL,
    grace_seconds REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_gate_decisions_import ON gate_decisions(import_name);
CREATE INDEX IF NOT EXISTS idx_gate_decisions_time ON gate_decisions(recorded_at);
CREATE INDEX IF NOT EXISTS idx_gate_rotations_import ON gate_rotations(import_name);
`

// InsertSchemaVersion records the applied schema version, a no-op on conflict.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the highest applied schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const insertDecision = `
INSERT INTO gate_decisions (
    request_id, recorded_at, import_name, policy_number, service_class, bulk_service, flags,
    accepted, changed, diagnostic
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`

const insertRotation = `
INSERT INTO gate_rotations (
    request_id, recorded_at, import_name, policy_number, service_class, bulk_service, flags, grace_seconds
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`

const selectRecentDecisions = `
SELECT request_id, recorded_at, import_name, policy_number, service_class, bulk_service, flags,
       accepted, changed, diagnostic
FROM gate_decisions
WHERE import_name = ?
ORDER BY recorded_at DESC
LIMIT ?;
`
