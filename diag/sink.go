package diag

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

/*
A Sink consumes the diagnostic records of a run, in order of increasing
time. Flush is called once after the last record.
*/
type Sink interface {
	Emit(Record) error
	Flush() error
}

// Discard is a Sink that ignores all records.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Record) error { return nil }
func (discard) Flush() error      { return nil }

// Header is the first line of a text record stream.
const Header = "#t\t\tnrmu\t\tnrmv\n"

/*
A TextSink writes records as tab-separated lines, preceded by Header:

	#t		nrmu		nrmv
	0.000000	1024.000000	42.000000

The header is written even if no record is emitted.
*/
type TextSink struct {
	w      *bufio.Writer
	c      io.Closer
	header bool
}

// NewTextSink returns a TextSink writing to w.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: bufio.NewWriter(w)}
}

// CreateTextSink creates the named file and returns a TextSink writing to
// it. Close must be called to close the file.
func CreateTextSink(name string) (*TextSink, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("diag: %w", err)
	}
	s := NewTextSink(f)
	s.c = f
	return s, nil
}

func (s *TextSink) writeHeader() error {
	if s.header {
		return nil
	}
	s.header = true
	_, err := s.w.WriteString(Header)
	return err
}

// Emit implements Sink.
func (s *TextSink) Emit(r Record) error {
	if err := s.writeHeader(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.w, "%f\t%f\t%f\n", r.T, r.NormU, r.NormV)
	return err
}

// Flush implements Sink.
func (s *TextSink) Flush() error {
	if err := s.writeHeader(); err != nil {
		return err
	}
	return s.w.Flush()
}

// Close flushes the sink and closes the file created by CreateTextSink.
func (s *TextSink) Close() error {
	err := s.Flush()
	if s.c != nil {
		if cerr := s.c.Close(); err == nil {
			err = cerr
		}
		s.c = nil
	}
	return err
}

// A ConsoleSink prints one progress line per record.
type ConsoleSink struct {
	W io.Writer
}

// Emit implements Sink.
func (s ConsoleSink) Emit(r Record) error {
	_, err := fmt.Fprintf(s.W, "t = %2.1f\tu-norm = %2.5f\tv-norm = %2.5f\n", r.T, r.NormU, r.NormV)
	return err
}

// Flush implements Sink.
func (ConsoleSink) Flush() error { return nil }

// Tee returns a Sink that passes each record to all sinks, in order. It
// stops at the first error.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

type tee []Sink

func (t tee) Emit(r Record) error {
	for _, s := range t {
		if err := s.Emit(r); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) Flush() (err error) {
	for _, s := range t {
		if nerr := s.Flush(); err == nil {
			err = nerr
		}
	}
	return
}

// A Recorder keeps all records in memory.
type Recorder struct {
	Records []Record
	Flushed bool
}

// Emit implements Sink.
func (r *Recorder) Emit(rec Record) error {
	r.Records = append(r.Records, rec)
	return nil
}

// Flush implements Sink.
func (r *Recorder) Flush() error {
	r.Flushed = true
	return nil
}
