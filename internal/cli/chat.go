package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/aretw0/genui"
	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/internal/presentation/graph"
	"github.com/aretw0/genui/internal/presentation/tui"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/render"
	"github.com/aretw0/genui/pkg/treepath"
)

// errQuit ends the loop without an error.
var errQuit = errors.New("quit")

const helpText = `Type a request to generate an interface. Commands:

| command | effect |
|---|---|
| /edit [on\|off] | toggle edit mode |
| /paths | list addressable nodes |
| /select <path> | mark a node for refinement (edit mode) |
| /refine <instruction> | rewrite the selected node |
| /input <path> <value> | type into the input at path |
| /click <path> | press the button at path |
| /show | repaint the current interface |
| /json | print the current tree |
| /graph | print the current tree as a Mermaid diagram |
| /history | list the conversation |
| /quit | leave |
`

// Chat is the interactive terminal client. Lines are requests unless they
// start with a slash.
type Chat struct {
	client   *genui.Client
	id       string
	out      io.Writer
	painter  *tui.Painter
	markdown func(string) (string, error)
	logger   *slog.Logger
	progress *progress

	seen    int
	painted any
}

// ChatOption configures a Chat.
type ChatOption func(*Chat)

func WithPainter(p *tui.Painter) ChatOption {
	return func(c *Chat) { c.painter = p }
}

// WithMarkdownRenderer sets how assistant and system text is printed.
func WithMarkdownRenderer(fn func(string) (string, error)) ChatOption {
	return func(c *Chat) { c.markdown = fn }
}

// WithProgress reports streaming progress on w, usually stderr.
func WithProgress(w io.Writer) ChatOption {
	return func(c *Chat) { c.progress = newProgress(w) }
}

func WithChatLogger(l *slog.Logger) ChatOption {
	return func(c *Chat) { c.logger = l }
}

// NewChat attaches to conversation id and writes to out.
func NewChat(client *genui.Client, id string, out io.Writer, opts ...ChatOption) *Chat {
	c := &Chat{client: client, id: id, out: out, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.painter == nil {
		c.painter = tui.NewPainter()
	}
	if c.markdown == nil {
		c.markdown = func(s string) (string, error) { return s + "\n", nil }
	}
	return c
}

// ConversationID is the conversation this chat drives.
func (c *Chat) ConversationID() string { return c.id }

// Run reads lines from in until EOF, /quit or ctx is cancelled. A resumed
// conversation is replayed first.
func (c *Chat) Run(ctx context.Context, in io.Reader) error {
	if err := c.flush(ctx); err != nil {
		return err
	}
	if c.progress != nil {
		unsubscribe, err := c.client.Subscribe(ctx, c.id, c.progress.observe)
		if err != nil {
			return err
		}
		defer unsubscribe()
	}

	readCtx, stop := context.WithCancel(ctx)
	defer stop()
	lines, readErr := scanLines(readCtx, in)

	for {
		fmt.Fprint(c.out, "> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			fmt.Fprintln(c.out)
			return err
		case line := <-lines:
			err := c.Handle(ctx, line)
			switch {
			case errors.Is(err, errQuit):
				return nil
			case errors.Is(err, context.Canceled) && ctx.Err() != nil:
				return err
			case err != nil:
				printSystemMessage(c.out, "%v", err)
			}
		}
	}
}

// scanLines feeds lines of in until EOF, then reports io.EOF or the read
// error. The reader goroutine stops early when ctx ends.
func scanLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		readErr <- err
	}()
	return lines, readErr
}

// Handle executes one input line.
func (c *Chat) Handle(ctx context.Context, line string) error {
	line, err := SanitizeInput(line)
	if err != nil {
		return err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		if err := c.client.Submit(ctx, c.id, line); err != nil {
			return err
		}
		return c.flush(ctx)
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case "quit", "q", "exit":
		return errQuit
	case "help", "?":
		c.print(helpText)
		return nil
	case "edit":
		return c.toggleEdit(ctx, arg)
	case "paths":
		return c.paths(ctx)
	case "select":
		if arg == "" {
			return errors.New("usage: /select <path>")
		}
		if err := c.client.Select(ctx, c.id, arg); err != nil {
			return err
		}
		return c.show(ctx)
	case "refine":
		if arg == "" {
			return errors.New("usage: /refine <instruction>")
		}
		if err := c.client.Refine(ctx, c.id, arg); err != nil {
			return err
		}
		return c.flush(ctx)
	case "input":
		path, value, ok := strings.Cut(arg, " ")
		if !ok {
			return errors.New("usage: /input <path> <value>")
		}
		return c.input(ctx, path, value)
	case "click":
		return c.click(ctx, arg)
	case "show":
		return c.show(ctx)
	case "json":
		return c.dumpTree(ctx)
	case "graph":
		root, err := c.client.Render(ctx, c.id)
		if err != nil {
			return err
		}
		fmt.Fprint(c.out, graph.GenerateMermaid(root))
		return nil
	case "history":
		return c.history(ctx)
	}
	return fmt.Errorf("unknown command /%s, try /help", cmd)
}

func (c *Chat) toggleEdit(ctx context.Context, arg string) error {
	snap, err := c.client.Snapshot(ctx, c.id)
	if err != nil {
		return err
	}
	on := !snap.EditMode
	switch strings.ToLower(arg) {
	case "on":
		on = true
	case "off":
		on = false
	}
	if err := c.client.SetEditMode(ctx, c.id, on); err != nil {
		return err
	}
	state := "off"
	if on {
		state = "on"
	}
	printSystemMessage(c.out, "Edit mode %s.", state)
	return nil
}

func (c *Chat) paths(ctx context.Context) error {
	root, err := c.client.Render(ctx, c.id)
	if err != nil {
		return err
	}
	render.Walk(root, func(el *render.Element) {
		depth := strings.Count(el.Path, ".children.") + strings.Count(el.Path, ".rows.") + strings.Count(el.Path, ".items.") + strings.Count(el.Path, ".columns.")
		fmt.Fprintf(c.out, "%s%s  %s\n", strings.Repeat("  ", depth), el.Path, label(el))
	})
	return nil
}

func label(el *render.Element) string {
	if el.Status == render.StatusDiagnostic {
		return fmt.Sprintf("(unknown %s)", el.Key)
	}
	s := string(el.Component)
	if el.Status != render.StatusOK {
		s += " " + el.Status.String()
	}
	return s
}

// input types value into the input node at path and waits for the
// debounced patch to land.
func (c *Chat) input(ctx context.Context, path, value string) error {
	el, err := c.find(ctx, path)
	if err != nil {
		return err
	}
	if _, ok := el.Props.(*domain.InputProps); !ok {
		return fmt.Errorf("%s is not an input", path)
	}
	if err := c.client.Input(ctx, c.id, el.PropsPath, value); err != nil {
		return err
	}
	c.client.Wait()
	return c.show(ctx)
}

func (c *Chat) find(ctx context.Context, path string) (*render.Element, error) {
	root, err := c.client.Render(ctx, c.id)
	if err != nil {
		return nil, err
	}
	el := render.Find(root, path)
	if el == nil || el.Status != render.StatusOK {
		return nil, fmt.Errorf("no rendered node at %s", path)
	}
	return el, nil
}

// click dispatches the action of the button at path. PATCH_STATE actions
// without a path target the button's own props.
func (c *Chat) click(ctx context.Context, path string) error {
	el, err := c.find(ctx, path)
	if err != nil {
		return err
	}
	props, ok := el.Props.(*domain.ButtonProps)
	if !ok || props.Action == nil {
		return fmt.Errorf("%s is not a button with an action", path)
	}
	action := *props.Action
	if action.Type == domain.ActionPatchState && action.Path == "" {
		action.Path = treepath.Strip(el.PropsPath)
	}
	if err := c.client.Dispatch(ctx, c.id, action); err != nil {
		return err
	}
	return c.flush(ctx)
}

func (c *Chat) dumpTree(ctx context.Context) error {
	snap, err := c.client.Snapshot(ctx, c.id)
	if err != nil {
		return err
	}
	i := domain.LastUIIndex(snap.Messages)
	if i < 0 {
		return domain.ErrNoUITree
	}
	raw, err := json.MarshalIndent(snap.Messages[i].UI, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, string(raw))
	return nil
}

func (c *Chat) history(ctx context.Context) error {
	snap, err := c.client.Snapshot(ctx, c.id)
	if err != nil {
		return err
	}
	for i, m := range snap.Messages {
		text := m.Text
		if m.HasUI() && text == "" {
			text = "[interface]"
		}
		fmt.Fprintf(c.out, "%3d %-9s %s\n", i, m.Role, text)
	}
	return nil
}

// flush prints the messages that arrived since the last call and repaints
// the newest tree when it changed, including in-place patches and heals.
func (c *Chat) flush(ctx context.Context) error {
	snap, err := c.client.Snapshot(ctx, c.id)
	if err != nil {
		return err
	}
	if c.seen > len(snap.Messages) {
		c.seen = 0
	}
	for _, m := range snap.Messages[c.seen:] {
		if m.Role != domain.RoleUser && m.Text != "" {
			c.print(m.Text)
		}
	}
	c.seen = len(snap.Messages)

	i := domain.LastUIIndex(snap.Messages)
	if i < 0 || reflect.DeepEqual(snap.Messages[i].UI, c.painted) {
		return nil
	}
	return c.show(ctx)
}

func (c *Chat) show(ctx context.Context) error {
	root, err := c.client.Render(ctx, c.id)
	if errors.Is(err, domain.ErrNoUITree) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, c.painter.Paint(root))
	if snap, err := c.client.Snapshot(ctx, c.id); err == nil {
		if i := domain.LastUIIndex(snap.Messages); i >= 0 {
			c.painted = snap.Messages[i].UI
		}
	}
	return nil
}

func (c *Chat) print(markdown string) {
	out, err := c.markdown(markdown)
	if err != nil {
		c.logger.Debug("markdown render failed", "err", err)
		out = markdown + "\n"
	}
	fmt.Fprint(c.out, out)
}
