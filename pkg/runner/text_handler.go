package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/onboard/pkg/domain"
)

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// continuation ends a line that continues on the next one, so a team list
// can be typed one member per line.
const continuation = `\`

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult, DefaultInputBufferSize)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honor context cancellation.
func (h *TextHandler) pump() {
	defer close(h.inputChan)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			return
		}
	}
}

// Output prints system turns and file acknowledgements. Typed user turns are
// not repeated since the user just entered them.
func (h *TextHandler) Output(ctx context.Context, turns []domain.Turn) error {
	for _, turn := range turns {
		switch {
		case turn.Speaker == domain.SpeakerUser && turn.Kind == domain.TurnFile:
			fmt.Fprintf(h.Writer, "📎 %s\n", turn.Body)
		case turn.Speaker == domain.SpeakerSystem:
			fmt.Fprintln(h.Writer, h.render(turn.Body))
			for i, choice := range turn.Choices {
				fmt.Fprintf(h.Writer, "  %d) %s\n", i+1, choice.Label)
			}
		}
	}
	return nil
}

func (h *TextHandler) render(body string) string {
	if h.Renderer == nil {
		return body
	}
	rendered, err := h.Renderer(body)
	if err != nil {
		return body
	}
	return strings.TrimSpace(rendered)
}

// Input reads a line from the user. Lines ending in a backslash are joined
// with the following ones, separated by newlines.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	var lines []string
	for {
		prompt := "> "
		if len(lines) > 0 {
			prompt = "… "
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, prompt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				if len(lines) > 0 {
					return h.sanitize(lines)
				}
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}

			line := strings.TrimRight(res.text, "\r\n")
			if strings.HasSuffix(line, continuation) {
				lines = append(lines, strings.TrimSuffix(line, continuation))
				continue
			}
			lines = append(lines, line)

			clean, err := h.sanitize(lines)
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				lines = nil
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) sanitize(lines []string) (string, error) {
	return SanitizeInput(strings.TrimSpace(strings.Join(lines, "\n")))
}

// SystemOutput prints a meta-message with a "[System]" prefix.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return nil
}
