// Package telemetry provides a JSONL event stream recording what an index or
// check pass did with each recipe directory. Every indexed recipe, skipped
// directory, and identifier conflict becomes one structured JSON line, so a CI
// run can be audited after the fact.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Event kinds identify the type of telemetry event.
const (
	KindRunStart           = "run_start"
	KindRunDone            = "run_done"
	KindRecipeIndexed      = "recipe_indexed"
	KindRecipeSkipped      = "recipe_skipped"
	KindIdentifierConflict = "identifier_conflict"
)

// Event represents a single telemetry record. Pass names the batch pass that
// produced it ("index" or "check"); Recipe names the recipe directory.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Pass      string    `json:"pass,omitempty"`
	Recipe    string    `json:"recipe,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Recorder is the narrow interface the index and check passes depend on.
// *Emitter satisfies it, including a nil *Emitter.
type Recorder interface {
	Record(kind, recipe string, data any)
}

// Emitter writes telemetry events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	// Pass is stamped on every event recorded through Record.
	Pass string

	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
	now  func() time.Time
}

// NewEmitter creates a new Emitter that writes JSONL events to the file at
// path. The file is created if it does not exist, or appended to if it does.
func NewEmitter(path, pass string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		Pass: pass,
		file: f,
		enc:  json.NewEncoder(f),
		now:  time.Now,
	}, nil
}

// Emit writes a single event to the JSONL file. It is safe for concurrent use.
// Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Record emits an event stamped with the current UTC time and the emitter's
// pass. Encoding failures are dropped; the event log never fails a pass.
func (e *Emitter) Record(kind, recipe string, data any) {
	if e == nil {
		return
	}
	_ = e.Emit(Event{
		Timestamp: e.now().UTC(),
		Kind:      kind,
		Pass:      e.Pass,
		Recipe:    recipe,
		Data:      data,
	})
}

// Close flushes and closes the underlying file. Calling Close on a nil
// Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}

// Nop is a Recorder that discards every event.
type Nop struct{}

// Record does nothing.
func (Nop) Record(string, string, any) {}
