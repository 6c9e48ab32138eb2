package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewEmitter_CreatesFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "events.jsonl")

	em, err := NewEmitter(path, "index")
	if err != nil {
		t.Fatalf("NewEmitter(%q): %v", path, err)
	}
	defer em.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist at %q: %v", path, err)
	}
}

func TestNewEmitter_ErrorOnBadPath(t *testing.T) {
	t.Parallel()
	_, err := NewEmitter("/nonexistent/dir/events.jsonl", "index")
	if err == nil {
		t.Fatal("expected error for bad path, got nil")
	}
	if !strings.Contains(err.Error(), "telemetry: open") {
		t.Errorf("expected wrapped error, got: %v", err)
	}
}

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var decoded []Event
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			t.Fatalf("invalid JSON line: %v\nline: %s", err, line)
		}
		decoded = append(decoded, evt)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return decoded
}

func TestEmit_WritesValidJSONL(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "events.jsonl")

	em, err := NewEmitter(path, "index")
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}

	events := []Event{
		{Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Kind: KindRunStart, Pass: "index"},
		{Timestamp: time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC), Kind: KindRecipeSkipped, Pass: "index", Recipe: "broken", Data: map[string]string{"reason": "parse_error"}},
		{Timestamp: time.Date(2025, 1, 1, 0, 2, 0, 0, time.UTC), Kind: KindRunDone, Pass: "index"},
	}

	for _, evt := range events {
		if err := em.Emit(evt); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	if err := em.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	decoded := readEvents(t, path)
	if len(decoded) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(decoded))
	}
	for i, evt := range decoded {
		if evt.Kind != events[i].Kind {
			t.Errorf("event %d: kind = %q, want %q", i, evt.Kind, events[i].Kind)
		}
		if !evt.Timestamp.Equal(events[i].Timestamp) {
			t.Errorf("event %d: ts = %v, want %v", i, evt.Timestamp, events[i].Timestamp)
		}
	}
	if decoded[1].Recipe != "broken" {
		t.Errorf("recipe = %q, want %q", decoded[1].Recipe, "broken")
	}
}

func TestRecord_StampsPassAndTime(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "record.jsonl")

	em, err := NewEmitter(path, "check")
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	fixed := time.Date(2025, 3, 4, 5, 6, 7, 0, time.FixedZone("CET", 3600))
	em.now = func() time.Time { return fixed }

	em.Record(KindIdentifierConflict, "", map[string]any{"uuid": "clock@statuskitchen.app"})
	em.Record(KindRecipeIndexed, "clock", nil)
	if err := em.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	decoded := readEvents(t, path)
	if len(decoded) != 2 {
		t.Fatalf("expected 2 events, got %d", len(decoded))
	}
	for _, evt := range decoded {
		if evt.Pass != "check" {
			t.Errorf("pass = %q, want %q", evt.Pass, "check")
		}
		if !evt.Timestamp.Equal(fixed) || evt.Timestamp.Location() != time.UTC {
			t.Errorf("ts = %v, want %v in UTC", evt.Timestamp, fixed.UTC())
		}
	}
	if decoded[1].Recipe != "clock" || decoded[1].Kind != KindRecipeIndexed {
		t.Errorf("unexpected second event: %+v", decoded[1])
	}
}

func TestEmit_ConcurrentSafety(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "concurrent.jsonl")

	em, err := NewEmitter(path, "index")
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func(idx int) {
			defer wg.Done()
			em.Record(KindRecipeIndexed, "concurrent", map[string]int{"idx": idx})
		}(i)
	}
	wg.Wait()

	if err := em.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != n {
		t.Fatalf("expected %d lines, got %d", n, len(lines))
	}
	for i, line := range lines {
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			t.Errorf("line %d: invalid JSON: %v", i, err)
		}
	}
}

func TestNilEmitter_NoOp(t *testing.T) {
	t.Parallel()
	var em *Emitter

	if err := em.Emit(Event{Kind: KindRunStart}); err != nil {
		t.Errorf("nil Emit: %v", err)
	}
	em.Record(KindRunDone, "", nil)
	if err := em.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}

	// A nil *Emitter must still satisfy Recorder.
	var r Recorder = em
	r.Record(KindRunStart, "", nil)
}

func TestNop_DiscardsEvents(t *testing.T) {
	t.Parallel()
	var r Recorder = Nop{}
	r.Record(KindRecipeSkipped, "anything", map[string]string{"reason": "no_artifact"})
}

func TestEmit_AppendsToExistingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "append.jsonl")

	em1, err := NewEmitter(path, "index")
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	em1.Record(KindRunStart, "", nil)
	em1.Close()

	em2, err := NewEmitter(path, "check")
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	em2.Record(KindRunStart, "", nil)
	em2.Close()

	decoded := readEvents(t, path)
	if len(decoded) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(decoded))
	}
	if decoded[0].Pass != "index" || decoded[1].Pass != "check" {
		t.Errorf("passes = %q, %q; want index, check", decoded[0].Pass, decoded[1].Pass)
	}
}

func TestEventKinds_AreDistinct(t *testing.T) {
	t.Parallel()
	kinds := []string{
		KindRunStart,
		KindRunDone,
		KindRecipeIndexed,
		KindRecipeSkipped,
		KindIdentifierConflict,
	}
	seen := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		if k == "" {
			t.Errorf("empty kind constant found")
		}
		if seen[k] {
			t.Errorf("duplicate kind: %q", k)
		}
		seen[k] = true
	}
}

func TestEvent_OmitsEmptyFields(t *testing.T) {
	t.Parallel()
	evt := Event{
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Kind:      KindRunStart,
	}
	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	for _, field := range []string{`"pass"`, `"recipe"`, `"data"`} {
		if strings.Contains(s, field) {
			t.Errorf("expected %s to be omitted, got: %s", field, s)
		}
	}
}
