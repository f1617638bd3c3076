package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/genui"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/render"
)

// Command is one JSON line read in headless mode. A line that is not a
// JSON object is submitted as a prompt.
type Command struct {
	Op     string         `json:"op"`
	Text   string         `json:"text,omitempty"`
	Path   string         `json:"path,omitempty"`
	Value  string         `json:"value,omitempty"`
	On     *bool          `json:"on,omitempty"`
	Action *domain.Action `json:"action,omitempty"`
}

// Event is one JSON line written in headless mode.
type Event struct {
	Type     string           `json:"type"`
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
	View     *render.View     `json:"view,omitempty"`
	Effect   domain.Effect    `json:"effect,omitempty"`
	Error    string           `json:"error,omitempty"`
}

const (
	EventSnapshot = "snapshot"
	EventView     = "view"
	EventEffect   = "effect"
	EventError    = "error"
)

// EventWriter serializes events as JSON lines. It is also the effect sink
// of a headless client, so effects arrive in order with the snapshots.
type EventWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewEventWriter(w io.Writer) *EventWriter {
	return &EventWriter{enc: json.NewEncoder(w)}
}

func (w *EventWriter) Write(ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(ev)
}

// Trigger implements ports.EffectSink.
func (w *EventWriter) Trigger(_ context.Context, _ string, effect domain.Effect) error {
	return w.Write(Event{Type: EventEffect, Effect: effect})
}

// Headless drives a conversation with JSON lines, for hosts that embed the
// client as a subprocess.
type Headless struct {
	client *genui.Client
	id     string
	events *EventWriter
}

func NewHeadless(client *genui.Client, id string, events *EventWriter) *Headless {
	return &Headless{client: client, id: id, events: events}
}

// Run handles commands from in until EOF, a quit command or ctx ends. The
// current snapshot is written first. Command failures are reported as
// error events and do not stop the loop.
func (h *Headless) Run(ctx context.Context, in io.Reader) error {
	if err := h.emitSnapshot(ctx); err != nil {
		return err
	}

	readCtx, stop := context.WithCancel(ctx)
	defer stop()
	lines, readErr := scanLines(readCtx, in)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			err := h.Handle(ctx, line)
			switch {
			case errors.Is(err, errQuit):
				return nil
			case errors.Is(err, context.Canceled) && ctx.Err() != nil:
				return err
			case err != nil:
				if werr := h.events.Write(Event{Type: EventError, Error: err.Error()}); werr != nil {
					return werr
				}
			}
		}
	}
}

// Handle executes one line and writes the resulting event.
func (h *Headless) Handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	cmd := Command{Op: "submit", Text: line}
	if strings.HasPrefix(line, "{") {
		cmd = Command{}
		if err := json.Unmarshal([]byte(line), &cmd); err != nil {
			return fmt.Errorf("invalid command: %w", err)
		}
	}

	text, err := SanitizeInput(cmd.Text)
	if err != nil {
		return err
	}

	switch cmd.Op {
	case "quit":
		return errQuit
	case "submit":
		err = h.client.Submit(ctx, h.id, text)
	case "input":
		err = h.client.Input(ctx, h.id, cmd.Path, cmd.Value)
		h.client.Wait()
	case "dispatch":
		if cmd.Action == nil {
			return errors.New("dispatch needs an action")
		}
		err = h.client.Dispatch(ctx, h.id, *cmd.Action)
	case "edit":
		on := true
		if cmd.On != nil {
			on = *cmd.On
		}
		err = h.client.SetEditMode(ctx, h.id, on)
	case "select":
		err = h.client.Select(ctx, h.id, cmd.Path)
	case "refine":
		err = h.client.Refine(ctx, h.id, text)
	case "render":
		root, rerr := h.client.Render(ctx, h.id)
		if rerr != nil {
			return rerr
		}
		return h.events.Write(Event{Type: EventView, View: render.NewView(root)})
	case "snapshot":
	default:
		return fmt.Errorf("unknown op %q", cmd.Op)
	}
	if err != nil {
		return err
	}
	return h.emitSnapshot(ctx)
}

func (h *Headless) emitSnapshot(ctx context.Context) error {
	snap, err := h.client.Snapshot(ctx, h.id)
	if err != nil {
		return err
	}
	return h.events.Write(Event{Type: EventSnapshot, Snapshot: &snap})
}
