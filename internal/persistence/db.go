// Package persistence records tick reports to SQLite. It is a downstream
// consumer of the TickReport contract; it never reaches into subsystem
// state.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/emberline/crucible/internal/engine"
)

// DB wraps a SQLite connection for report storage.
type DB struct {
	conn    *sqlx.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// StoredEvent is one curated event row.
type StoredEvent struct {
	Tick       uint64  `db:"tick" json:"tick"`
	Message    string  `db:"message" json:"message"`
	DistrictID string  `db:"district_id" json:"district_id"`
	Scope      string  `db:"scope" json:"scope"`
	Score      float64 `db:"score" json:"score"`
}

// Open opens or creates the report database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	db := &DB{conn: conn, encoder: enc, decoder: dec}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.encoder.Close()
	db.decoder.Close()
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		city TEXT NOT NULL,
		seed INTEGER NOT NULL,
		started_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reports (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		suppressed INTEGER NOT NULL,
		anomaly_count INTEGER NOT NULL,
		scarcity_pressure REAL NOT NULL,
		blob BLOB NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		message TEXT NOT NULL,
		district_id TEXT NOT NULL,
		scope TEXT NOT NULL,
		score REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun registers a new simulation run and returns its id.
func (db *DB) BeginRun(city string, seed int64) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, city, seed, started_at) VALUES (?, ?, ?, ?)",
		id, city, seed, time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// SaveReports appends a batch of tick reports. The full report is stored
// as a zstd-compressed JSON blob; events and headline numbers land in
// queryable columns.
func (db *DB) SaveReports(runID string, reports []engine.TickReport) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range reports {
		raw, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal report %d: %w", r.Tick, err)
		}
		blob := db.encoder.EncodeAll(raw, nil)

		_, err = tx.Exec(`INSERT OR REPLACE INTO reports
			(run_id, tick, suppressed, anomaly_count, scarcity_pressure, blob)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, r.Tick, r.Suppressed, len(r.Anomalies), r.Impact.ScarcityPressure, blob,
		)
		if err != nil {
			return fmt.Errorf("insert report %d: %w", r.Tick, err)
		}

		for _, ev := range r.Events {
			_, err := tx.Exec(
				"INSERT INTO events (run_id, tick, message, district_id, scope, score) VALUES (?, ?, ?, ?, ?, ?)",
				runID, r.Tick, ev.Message, ev.DistrictID, string(ev.Scope), ev.Score,
			)
			if err != nil {
				return fmt.Errorf("insert event: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("reports saved", "run", runID, "count", len(reports), "through_tick", reports[len(reports)-1].Tick)
	return nil
}

// LoadReport decompresses and decodes one stored report.
func (db *DB) LoadReport(runID string, tick uint64) (*engine.TickReport, error) {
	var blob []byte
	err := db.conn.Get(&blob, "SELECT blob FROM reports WHERE run_id = ? AND tick = ?", runID, tick)
	if err != nil {
		return nil, fmt.Errorf("load report %d: %w", tick, err)
	}
	raw, err := db.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress report %d: %w", tick, err)
	}
	var report engine.TickReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("decode report %d: %w", tick, err)
	}
	return &report, nil
}

// RecentEvents returns the most recent curated events for a run.
func (db *DB) RecentEvents(runID string, limit int) ([]StoredEvent, error) {
	var events []StoredEvent
	err := db.conn.Select(&events,
		"SELECT tick, message, district_id, scope, score FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return events, err
}

// LastTick returns the highest stored tick for a run, or 0.
func (db *DB) LastTick(runID string) (uint64, error) {
	var tick uint64
	err := db.conn.Get(&tick, "SELECT COALESCE(MAX(tick), 0) FROM reports WHERE run_id = ?", runID)
	return tick, err
}
