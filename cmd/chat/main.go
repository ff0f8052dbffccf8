package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/peterh/liner"

	"github.com/comigor/openai-chat-go/internal/config"
	"github.com/comigor/openai-chat-go/internal/history"
	"github.com/comigor/openai-chat-go/internal/logger"
	"github.com/comigor/openai-chat-go/pkg/openai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		logger.L.Error("chat failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger.SetLevel(cfg.Log.Level)

	clientCfg := cfg.OpenAI.ClientConfig()
	clientCfg.Logger = logger.L

	var store *history.Store
	if cfg.History.Path != "" {
		store = history.Open(cfg.History.Path)
		defer store.Close()
		clientCfg.Recorder = store
	}

	client, err := openai.New(clientCfg)
	if err != nil {
		return err
	}

	cmd := "chat"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "models":
		return listModels(ctx, client, os.Stdout)
	case "transcript":
		if store == nil || len(args) < 2 {
			return errors.New("usage: chat transcript <session-id> (requires history.path)")
		}
		return printTranscript(ctx, store, args[1], os.Stdout)
	case "chat":
		session := client.StartChat(cfg.OpenAI.Model)
		session.Params = cfg.OpenAI.ChatParams()
		session.Bootstrap(cfg.OpenAI.Bootstrap()...)
		logger.L.Info("chat started", "model", session.Model(), "session", session.ID())
		return loop(ctx, session, os.Stdout)
	default:
		return fmt.Errorf("unknown command %q (want chat, models or transcript)", cmd)
	}
}

func loop(ctx context.Context, session *openai.Session, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	r := &repl{session: session, out: out}
	for {
		input, err := line.Prompt("You: ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line.AppendHistory(input)

		if quit := r.handle(ctx, input); quit {
			return nil
		}
	}
}

// repl interprets one line of input at a time.
type repl struct {
	session *openai.Session
	out     io.Writer
}

func (r *repl) handle(ctx context.Context, input string) (quit bool) {
	switch m := strings.TrimSpace(input); m {
	case "":
		return false
	case "!quit":
		return true
	case "!history":
		for _, msg := range r.session.History() {
			fmt.Fprintf(r.out, "[%s] %s\n", msg.Role, msg.Content)
		}
	case "!reset":
		r.session.Reset()
		fmt.Fprintln(r.out, "(conversation cleared)")
	default:
		turnCtx, cancel := context.WithTimeout(ctx, openai.DefaultTimeout)
		defer cancel()
		resp, err := r.session.Send(turnCtx, m)
		if err != nil {
			logger.L.Error("send failed", "session", r.session.ID(), "error", err)
			fmt.Fprintf(r.out, "error: %v\n", err)
			return false
		}
		fmt.Fprintf(r.out, "Assistant: %s\n", resp)
	}
	return false
}

func listModels(ctx context.Context, client *openai.Client, out io.Writer) error {
	models, err := client.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, m := range models {
		fmt.Fprintf(out, "%s\t%s\n", m.ID, m.OwnedBy)
	}
	return nil
}

func printTranscript(ctx context.Context, store *history.Store, sessionID string, out io.Writer) error {
	msgs, err := store.List(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		fmt.Fprintf(out, "%s [%s] %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"), m.Role, m.Content)
	}
	return nil
}
