package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize bounds a single typed message. Team lists are the
	// longest legitimate input, so it is sized for a few hundred lines.
	DefaultMaxInputSize = 16 * 1024
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "ONBOARD_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput cleans typed user text before it reaches the conversation.
// It rejects oversized or invalid UTF-8 input, normalizes line endings and
// strips control characters other than newline and tab.
func SanitizeInput(input string) (string, error) {
	limit := maxInputSize()
	if len(input) > limit {
		// Reject rather than truncate: a cut team list would silently drop members.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	input = strings.ReplaceAll(input, "\r\n", "\n")
	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if unsafeControl(r) {
			return -1
		}
		return r
	}, input), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t'
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
