package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize bounds one line of input. Choices are short.
	DefaultMaxInputSize = 256
	// EnvMaxInputSize is the environment variable to override the default.
	EnvMaxInputSize = "SHINDAN_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
	ErrUnknownInput  = errors.New("unrecognized input")
)

// CommandKind is what a line of input asks the runner to do.
type CommandKind int

const (
	CommandAnswer CommandKind = iota
	CommandBack
	CommandRestart
	CommandQuit
)

// Command is a parsed line of input. Index is zero-based and only set for CommandAnswer.
type Command struct {
	Kind  CommandKind
	Index int
}

// ParseCommand interprets one sanitized line. Answers are typed one-based.
func ParseCommand(line string) (Command, error) {
	switch s := strings.ToLower(strings.TrimSpace(line)); s {
	case "b", "back":
		return Command{Kind: CommandBack}, nil
	case "r", "restart":
		return Command{Kind: CommandRestart}, nil
	case "q", "quit", "exit":
		return Command{Kind: CommandQuit}, nil
	default:
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return Command{}, fmt.Errorf("%w: %q", ErrUnknownInput, line)
		}
		return Command{Kind: CommandAnswer, Index: n - 1}, nil
	}
}

// SanitizeInput enforces the size limit, validates UTF-8 and strips control characters.
func SanitizeInput(input string) (string, error) {
	limit := getMaxInputSize()
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\t' {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func getMaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}

type inputResult struct {
	text string
	err  error
}

// lineReader pumps lines from r so a blocked read never outlives a canceled context.
// close stops the pump at its next send; a read already blocked in r returns first.
type lineReader struct {
	lines chan inputResult
	done  chan struct{}
	once  sync.Once
}

func newLineReader(r io.Reader) *lineReader {
	lr := &lineReader{
		lines: make(chan inputResult),
		done:  make(chan struct{}),
	}
	go lr.pump(bufio.NewReader(r))
	return lr
}

func (lr *lineReader) pump(br *bufio.Reader) {
	defer close(lr.lines)
	for {
		text, err := br.ReadString('\n')
		if text != "" && !lr.send(inputResult{text: text}) {
			return
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				lr.send(inputResult{err: err})
			}
			return
		}
	}
}

func (lr *lineReader) send(res inputResult) bool {
	select {
	case lr.lines <- res:
		return true
	case <-lr.done:
		return false
	}
}

func (lr *lineReader) close() {
	lr.once.Do(func() { close(lr.done) })
}

// next returns the next line, io.EOF once input is exhausted, or ctx.Err().
func (lr *lineReader) next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-lr.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimRight(res.text, "\r\n"), res.err
	}
}
