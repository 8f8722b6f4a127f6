// Package cli provides terminal output helpers for wltctl: status lines,
// a spinner for slow calls and aligned tables.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// Printer writes status lines and tables to one writer.
type Printer struct {
	w        io.Writer
	colorize bool
}

// NewPrinter returns a printer for w. Colors are used only when w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, colorize: isTerminal(w)}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

func (p *Printer) mark(symbol, color, message string) {
	if p.colorize {
		fmt.Fprintf(p.w, "%s%s%s %s\n", color, symbol, ColorReset, message)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", symbol, message)
}

// Success prints a success message.
func (p *Printer) Success(message string) { p.mark("✓", ColorGreen, message) }

// Error prints an error message.
func (p *Printer) Error(message string) { p.mark("✗", ColorRed, message) }

// Warning prints a warning message.
func (p *Printer) Warning(message string) { p.mark("⚠", ColorYellow, message) }

// Table renders rows under header with columns aligned.
func (p *Printer) Table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	head := strings.Join(header, "\t")
	if p.colorize {
		head = ColorBold + head + ColorReset
	}
	fmt.Fprintln(tw, head)
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// KeyValues renders label/value pairs as a two-column block.
func (p *Printer) KeyValues(pairs [][2]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, kv := range pairs {
		fmt.Fprintf(tw, "%s:\t%s\n", kv[0], kv[1])
	}
	return tw.Flush()
}

// Spinner animates while a call is in flight. It draws nothing when the
// writer is not a terminal.
type Spinner struct {
	frames []string
	prefix string
	w      io.Writer
	active bool
	mu     sync.Mutex
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewSpinner returns a stopped spinner labelled prefix.
func (p *Printer) NewSpinner(prefix string) *Spinner {
	return &Spinner{
		frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		prefix: prefix,
		w:      p.w,
	}
}

// Start begins drawing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active || !isTerminal(s.w) {
		return
	}
	s.active = true
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.loop(s.done)
}

func (s *Spinner) loop(done <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for i := 0; ; i = (i + 1) % len(s.frames) {
		select {
		case <-done:
			return
		case <-ticker.C:
			fmt.Fprintf(s.w, "\r%s%s%s %s", ColorCyan, s.frames[i], ColorReset, s.prefix)
		}
	}
}

// Stop clears the line. It is safe to call on a stopped spinner.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
	fmt.Fprint(s.w, "\r"+strings.Repeat(" ", len(s.prefix)+4)+"\r")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
