package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/genui"
	"github.com/aretw0/genui/internal/config"
	"github.com/aretw0/genui/internal/presentation/tui"
)

// ChatOptions contains all the configuration for the chat command.
type ChatOptions struct {
	Config         config.Config
	ConversationID string
	// Fresh deletes ConversationID and starts over.
	Fresh bool
	// Offline uses the scripted in-memory model instead of the endpoint.
	Offline bool
	Quiet   bool
	// JSON switches to headless mode: JSON line commands on stdin, events on
	// stdout.
	JSON bool
}

// RunChat runs the interactive client on stdin and stdout until the user
// quits or a signal arrives.
func RunChat(opts ChatOptions) error {
	logger, err := NewLogger(opts.Config)
	if err != nil {
		return err
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	width := tui.TerminalWidth()
	var events *EventWriter
	appOpts := []AppOption{WithLogger(logger)}
	if opts.JSON {
		events = NewEventWriter(os.Stdout)
		appOpts = append(appOpts, WithEffectSink(events))
	} else {
		appOpts = append(appOpts, WithEffectSink(tui.NewEffects(os.Stdout, width)))
	}
	if opts.Offline {
		appOpts = append(appOpts, WithOffline())
	}
	app, err := NewApp(sigCtx, opts.Config, appOpts...)
	if err != nil {
		return fmt.Errorf("error initializing genui: %w", err)
	}
	defer app.Close()

	if opts.Fresh && opts.ConversationID != "" {
		if err := app.Client.Delete(sigCtx, opts.ConversationID); err != nil {
			logger.Warn("fresh start could not delete conversation", "conversation", opts.ConversationID, "err", err)
		}
		opts.ConversationID = ""
	}
	id, err := app.Open(sigCtx, opts.ConversationID)
	if err != nil {
		return fmt.Errorf("failed to open conversation: %w", err)
	}

	if opts.JSON {
		return handleExecutionError(NewHeadless(app.Client, id, events).Run(sigCtx, os.Stdin))
	}

	if !opts.Quiet {
		tui.PrintBanner(os.Stdout)
		printSystemMessage(os.Stdout, "GenUI %s. Conversation %s. Type /help for commands.", genui.Version, id)
	}

	markdown := tui.NewMarkdown(width)
	chatOpts := []ChatOption{
		WithPainter(tui.NewPainter(tui.WithWidth(width), tui.WithMarkdown(markdown))),
		WithMarkdownRenderer(markdown),
		WithChatLogger(logger),
	}
	if tui.IsInteractive() {
		chatOpts = append(chatOpts, WithProgress(os.Stderr))
	}
	chat := NewChat(app.Client, id, os.Stdout, chatOpts...)

	runErr := chat.Run(sigCtx, os.Stdin)
	if !opts.Quiet {
		logCompletion(os.Stdout, id, sigCtx.Signal())
	}
	return handleExecutionError(runErr)
}
