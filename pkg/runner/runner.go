package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
)

// Engine is what the Runner drives. Wait blocks until scheduled side effects
// have settled so their outcome is rendered before the next prompt.
type Engine interface {
	ports.SessionEngine
	Wait()
}

// Runner handles the chat loop of the onboarding engine using provided IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Renderer is applied to system turns by the default TextHandler.
	Renderer ContentRenderer

	readFile func(path string) ([]byte, error)
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		readFile: defaultReadFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// command is one parsed line of user input.
type command struct {
	token string
	text  string
	jump  domain.StageID
	file  string
	stage domain.StageID
	help  bool
}

// Run starts or resumes sessionID and converses until the session closes,
// the input ends or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, engine Engine, sessionID string, sc domain.SessionContext) error {
	handler := r.resolveHandler()

	view, err := engine.Start(ctx, sessionID, sc)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	sessionID = view.SessionID
	r.Logger.Debug("runner attached", "session_id", sessionID, "stage", view.CurrentStage)

	shown := 0
	for {
		if err := handler.Output(ctx, view.Turns[shown:]); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		shown = len(view.Turns)

		if view.Status != domain.StatusActive {
			return nil
		}

		line, err := handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		cmd, err := parseCommand(line, latestChoices(view.Turns))
		if err != nil {
			handler.SystemOutput(ctx, err.Error())
			continue
		}

		next, err := r.dispatch(ctx, engine, view, cmd)
		if err != nil {
			if recoverable(err) {
				handler.SystemOutput(ctx, err.Error())
				continue
			}
			return err
		}
		if next == nil {
			continue
		}

		engine.Wait()
		if view, err = engine.View(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to reload session: %w", err)
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, engine Engine, view *domain.SessionView, cmd command) (*domain.SessionView, error) {
	switch {
	case cmd.help:
		r.Handler.SystemOutput(ctx, helpText)
		return nil, nil
	case cmd.jump != "":
		return engine.Jump(ctx, view.SessionID, cmd.jump)
	case cmd.file != "":
		stage := cmd.stage
		if stage == "" {
			stage = view.CurrentStage
		}
		content, err := r.readFile(cmd.file)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read %s: %v", errCommand, cmd.file, err)
		}
		upload := domain.Upload{Name: filepath.Base(cmd.file), Content: content}
		return engine.SelectFile(ctx, view.SessionID, stage, upload)
	default:
		return engine.Input(ctx, view.SessionID, cmd.token, cmd.text)
	}
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout, WithTextHandlerRenderer(r.Renderer))
	}
	return r.Handler
}

var errCommand = errors.New("invalid command")

const helpText = `Answer with a choice number, type your reply, or use:
  /jump <stage>          go to another step
  /file <path> [stage]   upload a CSV for the current (or given) step
  /help                  show this help
  exit                   leave the chat (progress is kept)
End a line with \ to continue typing on the next one.`

// recoverable reports errors the user can fix by typing something else.
func recoverable(err error) bool {
	return errors.Is(err, errCommand) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrSessionClosed)
}

// parseCommand turns a line into a command. A number picks one of choices,
// a slash starts a command and anything else is free text.
func parseCommand(line string, choices []domain.Choice) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{}, fmt.Errorf("%w: type a reply or /help", errCommand)
	}

	if n, err := strconv.Atoi(line); err == nil {
		if n < 1 || n > len(choices) {
			return command{}, fmt.Errorf("%w: choose between 1 and %d", errCommand, len(choices))
		}
		return command{token: choices[n-1].Token}, nil
	}
	for _, c := range choices {
		if line == c.Token {
			return command{token: c.Token}, nil
		}
	}

	if !strings.HasPrefix(line, "/") {
		return command{text: line}, nil
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		return command{help: true}, nil
	case "/jump":
		if len(fields) != 2 {
			return command{}, fmt.Errorf("%w: usage /jump <stage>", errCommand)
		}
		return command{jump: domain.StageID(fields[1])}, nil
	case "/file":
		if len(fields) < 2 || len(fields) > 3 {
			return command{}, fmt.Errorf("%w: usage /file <path> [stage]", errCommand)
		}
		cmd := command{file: fields[1]}
		if len(fields) == 3 {
			cmd.stage = domain.StageID(fields[2])
		}
		return cmd, nil
	}
	return command{}, fmt.Errorf("%w: unknown command %s", errCommand, fields[0])
}

// latestChoices returns the choices of the most recent system turn that
// offered any.
func latestChoices(turns []domain.Turn) []domain.Choice {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Speaker == domain.SpeakerSystem && len(turns[i].Choices) > 0 {
			return turns[i].Choices
		}
	}
	return nil
}
