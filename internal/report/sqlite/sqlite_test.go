package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/openintercom/intercomd/internal/report"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := New(filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestReportCallRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	ended := time.Now().UTC().Truncate(time.Second)

	call := report.Call{
		CallID:       "call-1",
		DeviceID:     "door-1",
		RoomID:       "front-door",
		Direction:    report.DirectionOutbound,
		StartedAt:    started,
		EndedAt:      ended,
		HangUpParty:  "user",
		HangUpReason: "user_hangup",
	}
	if err := st.ReportCall(ctx, call); err != nil {
		t.Fatalf("report call: %v", err)
	}

	got, err := st.GetCall(ctx, "call-1")
	if err != nil {
		t.Fatalf("get call: %v", err)
	}
	if got.DeviceID != call.DeviceID || got.RoomID != call.RoomID || got.Direction != call.Direction {
		t.Fatalf("stored call mismatch: %+v", got)
	}
	if got.HangUpParty != "user" || got.HangUpReason != "user_hangup" {
		t.Fatalf("hangup cause mismatch: %+v", got)
	}
	if !got.StartedAt.Equal(started) || !got.EndedAt.Equal(ended) {
		t.Fatalf("timestamps mismatch: got %v / %v", got.StartedAt, got.EndedAt)
	}

	n, err := st.CountCalls(ctx)
	if err != nil {
		t.Fatalf("count calls: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 call, got %d", n)
	}
}

func TestGetCallNotFound(t *testing.T) {
	st := newTestStore(t)

	if _, err := st.GetCall(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing call")
	}
}

func TestReportParticipant(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	call := report.Call{
		CallID:    "call-2",
		DeviceID:  "door-1",
		RoomID:    "front-door",
		Direction: report.DirectionOutbound,
		StartedAt: time.Now(),
		EndedAt:   time.Now(),
	}
	if err := st.ReportCall(ctx, call); err != nil {
		t.Fatalf("report call: %v", err)
	}

	p := report.Participant{
		CallID:         "call-2",
		RawDisplayName: "Alice",
		MatrixDeviceID: "PHONE1",
		MXID:           "@alice:example.org",
	}
	if err := st.ReportParticipant(ctx, p); err != nil {
		t.Fatalf("report participant: %v", err)
	}
}

func TestReportVisitorEvent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ev := report.VisitorEvent{
		DeviceID:    "door-1",
		Type:        report.VisitorInitRing,
		TriggeredAt: time.Now(),
		Snapshot: report.StateSnapshot{
			Presence: "person1",
			DoorBell: "active",
			Door:     "closed",
		},
	}
	if err := st.ReportVisitorEvent(ctx, ev); err != nil {
		t.Fatalf("report visitor event: %v", err)
	}

	var typ, stateJSON string
	row := st.db.QueryRowContext(ctx, `SELECT type, state_json FROM visitor_events WHERE device_id = ?`, "door-1")
	if err := row.Scan(&typ, &stateJSON); err != nil {
		t.Fatalf("scan visitor event: %v", err)
	}
	if typ != string(report.VisitorInitRing) {
		t.Fatalf("expected INIT_RING, got %q", typ)
	}
	want := `{"presenceState":"person1","doorBellState":"active","doorState":"closed"}`
	if stateJSON != want {
		t.Fatalf("state snapshot mismatch:\n got %s\nwant %s", stateJSON, want)
	}
}
