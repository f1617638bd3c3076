package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultInputLimit bounds one line of user input, in bytes.
	DefaultInputLimit = 4096
	// EnvInputLimit overrides DefaultInputLimit.
	EnvInputLimit = "GENUI_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput checks a line typed by the user before it reaches the
// prompt, the logs or the terminal. Oversized lines and invalid UTF-8 are
// rejected; control characters other than tab and line breaks are dropped.
func SanitizeInput(input string) (string, error) {
	if n, limit := len(input), inputLimit(); n > limit {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, n, limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	return strings.Map(keepPrintable, input), nil
}

func keepPrintable(r rune) rune {
	switch {
	case r == '\n' || r == '\r' || r == '\t':
		return r
	case unicode.IsControl(r):
		return -1
	}
	return r
}

func inputLimit() int {
	n, err := strconv.Atoi(os.Getenv(EnvInputLimit))
	if err != nil || n <= 0 {
		return DefaultInputLimit
	}
	return n
}
