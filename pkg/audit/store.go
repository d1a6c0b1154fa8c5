package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/flavorgate"
)

// Config configures the audit storage backend. Driver selects the
// registered database/sql driver name: "sqlite3" (github.com/mattn/go-sqlite3,
// CGO) for production, "sqlite" (modernc.org/sqlite, pure Go) for
// CGO-less test builds — grounded on the dual-driver pattern used by
// the evidence SQLite backend this package is modeled on.
type Config struct {
	Driver       string
	Path         string
	MaxOpenConns int
	WALMode      bool
	BusyTimeout  time.Duration
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() *Config {
	return &Config{
		Driver:       "sqlite3",
		Path:         "data/audit.db",
		MaxOpenConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// Store persists flavor-gate decisions and rotation events.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *slog.Logger
}

// Open opens (creating if necessary) the audit database and applies
// its schema.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := slog.Default().With("component", "audit.store")

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, newStorageError("open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	s := &Store{db: db, logger: logger}
	if err := s.initialize(cfg); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize(cfg *Config) error {
	if cfg.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return newStorageError("enable_wal", err)
		}
	}
	busyMs := cfg.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyMs)); err != nil {
		return newStorageError("set_busy_timeout", err)
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return newStorageError("create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return newStorageError("insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return newStorageError("get_schema_version", err)
	}
	if version != SchemaVersion {
		return newStorageError("schema_version_mismatch",
			fmt.Errorf("expected %d, got %d", SchemaVersion, version))
	}
	return nil
}

// DecisionRecord is one coalesced flavor-gate check, as returned by
// RecentDecisions.
type DecisionRecord struct {
	RequestID  string
	RecordedAt time.Time
	ImportName string
	Flavor     flavor.Flavor
	Accepted   bool
	Changed    bool
	Diagnostic string
}

// RecordDecision persists one Gate.Check outcome under a freshly
// generated request ID, so a later correlation pass (e.g. matching an
// audit entry to the trace span that produced it) has a stable key
// that isn't the SQLite rowid.
func (s *Store) RecordDecision(ctx context.Context, importName string, f flavor.Flavor, result flavorgate.Result) error {
	_, err := s.db.ExecContext(ctx, insertDecision,
		uuid.NewString(), time.Now().UTC(), importName,
		int(f.Policy), int(f.Service), int(f.Bulk), int(f.Flags),
		result.Accept, result.Changed, result.Diagnostic,
	)
	if err != nil {
		return newStorageError("record_decision", err)
	}
	return nil
}

// RecordRotation persists one rotation confirmed by Gate.Check (a rotation
// actually taking effect, not just being staged) under a freshly
// generated request ID.
func (s *Store) RecordRotation(ctx context.Context, importName string, f flavor.Flavor, grace time.Duration) error {
	_, err := s.db.ExecContext(ctx, insertRotation,
		uuid.NewString(), time.Now().UTC(), importName,
		int(f.Policy), int(f.Service), int(f.Bulk), int(f.Flags),
		grace.Seconds(),
	)
	if err != nil {
		return newStorageError("record_rotation", err)
	}
	return nil
}

// RecentDecisions returns the most recent decisions for importName,
// newest first, up to limit records.
func (s *Store) RecentDecisions(ctx context.Context, importName string, limit int) ([]DecisionRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectRecentDecisions, importName, limit)
	if err != nil {
		return nil, newStorageError("recent_decisions", err)
	}
	defer rows.Close()

	var out []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		var policyNum, service, bulk, flags int
		var diagnostic sql.NullString
		if err := rows.Scan(&rec.RequestID, &rec.RecordedAt, &rec.ImportName, &policyNum, &service, &bulk, &flags,
			&rec.Accepted, &rec.Changed, &diagnostic); err != nil {
			return nil, newStorageError("scan_decision", err)
		}
		rec.Flavor = flavor.Flavor{
			Policy:  flavor.PolicyNumber(policyNum),
			Service: flavor.Service(service),
			Bulk:    flavor.BulkService(bulk),
			Flags:   flavor.Flag(flags),
		}
		if diagnostic.Valid {
			rec.Diagnostic = diagnostic.String
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("recent_decisions", err)
	}
	return out, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return newStorageError("close", err)
	}
	return nil
}
