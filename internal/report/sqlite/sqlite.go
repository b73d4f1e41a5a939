package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/openintercom/intercomd/internal/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS calls (
	id             TEXT PRIMARY KEY,
	device_id      TEXT NOT NULL,
	room_id        TEXT NOT NULL,
	direction      TEXT NOT NULL,
	started_at     DATETIME NOT NULL,
	ended_at       DATETIME NOT NULL,
	hang_up_party  TEXT NOT NULL,
	hang_up_reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS call_participants (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	call_id          TEXT NOT NULL REFERENCES calls(id),
	raw_display_name TEXT,
	matrix_device_id TEXT,
	mxid             TEXT
);

CREATE TABLE IF NOT EXISTS visitor_events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id    TEXT NOT NULL,
	type         TEXT NOT NULL,
	triggered_at DATETIME NOT NULL,
	state_json   TEXT NOT NULL
);
`

// Store implements report.Reporter on SQLite.
type Store struct {
	db *sql.DB
}

// New opens the report database and applies the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReportCall persists the terminal record of a call session.
func (s *Store) ReportCall(ctx context.Context, call report.Call) error {
	query := `
		INSERT INTO calls (id, device_id, room_id, direction, started_at, ended_at, hang_up_party, hang_up_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		call.CallID,
		call.DeviceID,
		call.RoomID,
		string(call.Direction),
		call.StartedAt,
		call.EndedAt,
		call.HangUpParty,
		call.HangUpReason,
	)
	if err != nil {
		return fmt.Errorf("insert call report: %w", err)
	}
	return nil
}

// ReportParticipant persists the opponent record for a reported call.
func (s *Store) ReportParticipant(ctx context.Context, p report.Participant) error {
	query := `
		INSERT INTO call_participants (call_id, raw_display_name, matrix_device_id, mxid)
		VALUES (?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, p.CallID, p.RawDisplayName, p.MatrixDeviceID, p.MXID)
	if err != nil {
		return fmt.Errorf("insert participant report: %w", err)
	}
	return nil
}

// ReportVisitorEvent persists one visitor interaction with its state snapshot.
func (s *Store) ReportVisitorEvent(ctx context.Context, ev report.VisitorEvent) error {
	state, err := json.Marshal(ev.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal state snapshot: %w", err)
	}

	query := `
		INSERT INTO visitor_events (device_id, type, triggered_at, state_json)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, ev.DeviceID, string(ev.Type), ev.TriggeredAt, string(state)); err != nil {
		return fmt.Errorf("insert visitor event: %w", err)
	}
	return nil
}

// CountCalls returns the number of reported calls.
func (s *Store) CountCalls(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calls`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count calls: %w", err)
	}
	return n, nil
}

// GetCall retrieves one reported call by id.
func (s *Store) GetCall(ctx context.Context, callID string) (*report.Call, error) {
	query := `
		SELECT id, device_id, room_id, direction, started_at, ended_at, hang_up_party, hang_up_reason
		FROM calls
		WHERE id = ?
	`
	var call report.Call
	var direction string
	err := s.db.QueryRowContext(ctx, query, callID).Scan(
		&call.CallID,
		&call.DeviceID,
		&call.RoomID,
		&direction,
		&call.StartedAt,
		&call.EndedAt,
		&call.HangUpParty,
		&call.HangUpReason,
	)
	if err != nil {
		return nil, fmt.Errorf("query call: %w", err)
	}
	call.Direction = report.CallDirection(direction)
	return &call, nil
}

var _ report.Reporter = (*Store)(nil)
