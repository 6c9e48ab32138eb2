package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/kitchen/internal/config"
	"github.com/papapumpkin/kitchen/internal/telemetry"
)

var eventsCmd = &cobra.Command{
	Use:   "events [file]",
	Short: "View the JSONL event log written by index and check",
	Long: `Reads and formats a JSONL event log. Without an argument, the path set
by --events (or KITCHEN_EVENTS) is used.
With --follow (-f), watches the file for new events (like tail -f).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().BoolP("follow", "f", false, "follow the file for new events")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	follow, _ := cmd.Flags().GetBool("follow")

	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path = cfg.Events
	}
	if path == "" {
		return fmt.Errorf("events: no log file given; pass a path or set --events")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("events: open %s: %w", path, err)
	}
	defer f.Close()

	// Print all existing events.
	reader := &eventReader{r: bufio.NewReader(f)}
	if err := reader.printLines(cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("events: read %s: %w", path, err)
	}

	if !follow {
		reader.flush(cmd.OutOrStdout())
		return nil
	}
	return tailFollow(cmd.Context(), cmd.OutOrStdout(), reader, path)
}

// eventReader reads JSONL events, holding back a trailing fragment until
// the rest of its line has been written.
type eventReader struct {
	r       *bufio.Reader
	partial string
}

// printLines prints every complete line available from the reader.
func (e *eventReader) printLines(w io.Writer) error {
	for {
		chunk, err := e.r.ReadString('\n')
		if err == io.EOF {
			e.partial += chunk
			return nil
		}
		if err != nil {
			return err
		}
		line := strings.TrimSpace(e.partial + chunk)
		e.partial = ""
		if line != "" {
			printEvent(w, line)
		}
	}
}

// flush prints a held-back fragment, for when no more data will arrive.
func (e *eventReader) flush(w io.Writer) {
	if line := strings.TrimSpace(e.partial); line != "" {
		printEvent(w, line)
	}
	e.partial = ""
}

// tailFollow watches the file for new data using fsnotify and prints new
// events until ctx is cancelled.
func tailFollow(ctx context.Context, w io.Writer, r *eventReader, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("events: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("events: watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) {
				continue
			}
			if err := r.printLines(w); err != nil {
				return fmt.Errorf("events: read %s: %w", path, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("events: watch %s: %w", path, err)
		}
	}
}

// printEvent decodes a JSONL line and prints a human-readable representation.
func printEvent(w io.Writer, line string) {
	var evt telemetry.Event
	if err := json.Unmarshal([]byte(line), &evt); err != nil {
		fmt.Fprintf(w, "??? %s\n", line)
		return
	}

	ts := evt.Timestamp.Format(time.TimeOnly)
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", ts))
	if evt.Pass != "" {
		parts = append(parts, evt.Pass)
	}
	parts = append(parts, evt.Kind)

	if evt.Recipe != "" {
		parts = append(parts, fmt.Sprintf("recipe=%s", evt.Recipe))
	}
	if evt.Data != nil {
		if m, ok := evt.Data.(map[string]any); ok {
			parts = append(parts, formatDataMap(m))
		} else {
			data, _ := json.Marshal(evt.Data)
			parts = append(parts, string(data))
		}
	}

	fmt.Fprintln(w, strings.Join(parts, " "))
}

// formatDataMap formats a data map as key=value pairs sorted by key.
func formatDataMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, m[k])
	}
	return b.String()
}
