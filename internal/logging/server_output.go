package logging

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	// MaxLineLength is the maximum length of a single server output
	// line before truncation.
	MaxLineLength = 4096

	// MaxBufferedLines is the number of recent lines kept for the
	// exit report.
	MaxBufferedLines = 100
)

// ServerOutput forwards a store server's stdout/stderr to the logger
// and keeps a ring of recent lines for the run report.
type ServerOutput struct {
	name    string
	logger  *slog.Logger
	verbose bool

	buffer []string
	bufIdx int
	mu     sync.Mutex
}

// NewServerOutput creates a forwarder for one server stream.
func NewServerOutput(name string, logger *slog.Logger, verbose bool) *ServerOutput {
	return &ServerOutput{
		name:    name,
		logger:  logger,
		verbose: verbose,
		buffer:  make([]string, MaxBufferedLines),
	}
}

// HandleReader reads lines from r until EOF. Run it in a goroutine
// attached to the server's pipe.
func (o *ServerOutput) HandleReader(r io.Reader) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, MaxLineLength)
	scanner.Buffer(buf, MaxLineLength)

	for scanner.Scan() {
		o.HandleLine(scanner.Text())
	}
}

// HandleLine processes a single output line.
func (o *ServerOutput) HandleLine(line string) {
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	o.mu.Lock()
	o.buffer[o.bufIdx] = line
	o.bufIdx = (o.bufIdx + 1) % MaxBufferedLines
	o.mu.Unlock()

	level := classifyLine(line)
	if !o.verbose && level == slog.LevelDebug {
		return
	}

	o.logger.Log(nil, level, "server_output",
		"server", o.name,
		"line", line,
	)
}

// classifyLine picks a log level from line content. Store servers
// write plain text; only obvious error markers are promoted.
func classifyLine(line string) slog.Level {
	lower := strings.ToLower(line)

	if strings.Contains(lower, "error") ||
		strings.Contains(lower, "exception") ||
		strings.Contains(lower, "fatal") ||
		strings.Contains(lower, "address already in use") {
		return slog.LevelWarn
	}

	if strings.Contains(lower, "warn") {
		return slog.LevelWarn
	}

	return slog.LevelDebug
}

// RecentLines returns up to n of the most recent lines.
func (o *ServerOutput) RecentLines(n int) []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	if n > MaxBufferedLines {
		n = MaxBufferedLines
	}

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := (o.bufIdx - n + i + MaxBufferedLines) % MaxBufferedLines
		if o.buffer[idx] != "" {
			lines = append(lines, o.buffer[idx])
		}
	}
	return lines
}
