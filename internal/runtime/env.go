package runtime

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"myst/internal/runtime/builtins"
	builtinsio "myst/internal/runtime/builtins/io"
)

// Env aggregates host services used by builtins.
// Env implements builtins.Env to avoid import cycles.
type Env struct {
	ioService builtinsio.IO
}

// IO returns the IO service. Implements builtins.Env interface.
func (e *Env) IO() builtins.IO {
	if e == nil {
		return nil
	}
	return e.ioService
}

// stdIO is the default IO implementation for CLI/console.
type stdIO struct {
	out    io.Writer
	reader *bufio.Reader
}

func newStdIO() *stdIO {
	return &stdIO{
		out:    os.Stdout,
		reader: bufio.NewReader(os.Stdin),
	}
}

func (s *stdIO) Print(str string) {
	fmt.Fprint(s.out, str)
}

func (s *stdIO) Println(str string) {
	fmt.Fprintln(s.out, str)
}

func (s *stdIO) ReadLine() (string, error) {
	if s.reader == nil {
		s.reader = bufio.NewReader(os.Stdin)
	}
	line, err := s.reader.ReadString('\n')
	if err != nil {
		// Handle EOF - io.EOF is returned when stdin is closed
		if errors.Is(err, io.EOF) {
			return strings.TrimSpace(line), nil
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	// Trim leading and trailing whitespace (including newlines)
	return strings.TrimSpace(line), nil
}

// DefaultEnv returns an Env printing to stdout and reading from stdin.
func DefaultEnv() *Env {
	return &Env{ioService: newStdIO()}
}

// NewEnv creates a new Env with the given IO service.
// This is useful for tests that need to provide a custom IO implementation.
func NewEnv(io builtinsio.IO) *Env {
	return &Env{ioService: io}
}

// StreamIO returns an IO service over the given reader and writer.
func StreamIO(r io.Reader, w io.Writer) builtinsio.IO {
	return &stdIO{out: w, reader: bufio.NewReader(r)}
}
