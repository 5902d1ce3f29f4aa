package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/internal/presentation/tui"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/runner"
	"github.com/google/uuid"
	"golang.org/x/term"
)

// ChatOptions contains the configuration for the chat command.
type ChatOptions struct {
	SessionID      string
	Role           domain.Role
	OrganizationID string
	UserID         string
	Token          string

	// Plain disables the banner, sidebar and markdown rendering. It is forced
	// when stdout is not a terminal.
	Plain bool

	In  io.Reader
	Out io.Writer
}

// RunChat converses with a session on the terminal until it closes or the
// user leaves.
func RunChat(ctx context.Context, stack *Stack, opts ChatOptions, logger *slog.Logger) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if !opts.Plain && !isTerminal(opts.Out) {
		opts.Plain = true
	}

	sc := domain.SessionContext{
		ActorRole:       opts.Role,
		OrganizationID:  opts.OrganizationID,
		UserID:          opts.UserID,
		IsAuthenticated: opts.Token != "",
		AuthToken:       opts.Token,
	}
	if !sc.ActorRole.Valid() {
		return fmt.Errorf("unsupported role %q", opts.Role)
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	handlerOpts := []runner.TextHandlerOption{}
	if !opts.Plain {
		tui.PrintBanner(opts.Out, onboard.Version)
		handlerOpts = append(handlerOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithInputHandler(runner.NewTextHandler(opts.In, opts.Out, handlerOpts...)),
	)

	runErr := r.Run(sigCtx, stack.Engine, opts.SessionID, sc)

	// The session survives the chat: report where it stands so the user can
	// come back with --session.
	if view, err := stack.Engine.View(context.WithoutCancel(ctx), opts.SessionID); err == nil {
		if !opts.Plain {
			tui.PrintSidebar(opts.Out, view)
		}
		if view.Status == domain.StatusActive {
			printSystemMessage(opts.Out, "Progress saved. Resume with --session %s", view.SessionID)
		} else {
			printSystemMessage(opts.Out, "Setup complete.")
		}
	}
	if sig := sigCtx.Signal(); sig != nil {
		logger.Info("chat interrupted", "signal", sig)
	}

	return handleExecutionError(runErr)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
