package protocol

import "io"

// LineWriter sends one line of text. Implementations add their own framing.
type LineWriter interface {
	WriteLine(line string) error
}

// LineWriterFunc adapts a function to LineWriter.
type LineWriterFunc func(line string) error

// WriteLine implements LineWriter.
func (f LineWriterFunc) WriteLine(line string) error { return f(line) }

// NewlineWriter writes each line to an io.Writer followed by '\n'.
type NewlineWriter struct {
	W io.Writer
}

// WriteLine implements LineWriter.
func (n NewlineWriter) WriteLine(line string) error {
	_, err := io.WriteString(n.W, line+"\n")
	return err
}

// Reporter renders events to a LineWriter. A failed write drops the event.
type Reporter struct {
	w       LineWriter
	dropped int
}

// NewReporter creates a reporter on w.
func NewReporter(w LineWriter) *Reporter {
	return &Reporter{w: w}
}

// Emit writes e.
func (r *Reporter) Emit(e Event) {
	if err := r.w.WriteLine(Format(e)); err != nil {
		r.dropped++
	}
}

// Dropped returns how many events failed to send.
func (r *Reporter) Dropped() int {
	return r.dropped
}
