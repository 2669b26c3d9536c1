// Package event reads and writes streams of trigger/offline event summaries
// stored as YAML documents, one document per event.
//
//	pileup: 14
//	towers:
//	  - {ieta: 1, iphi: 0, iet: 10}
//	offline: {JetPt: 45.2}
//	online: {JetPt: 40}
//	---
//	pileup: 22
//	...
package event

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/decibelcooper/turnon/recalc"
)

// Event is one bunch crossing.
type Event struct {
	Pileup float64 `yaml:"pileup"`
	// Weight defaults to 1 when absent.
	Weight  float64            `yaml:"weight"`
	Towers  []recalc.Tower     `yaml:"towers,omitempty"`
	Offline map[string]float64 `yaml:"offline,omitempty"`
	Online  map[string]float64 `yaml:"online,omitempty"`
}

// Pair returns an offline quantity and an online quantity; ok is false
// unless the event carries both.
func (e *Event) Pair(offline, online string) (off, on float64, ok bool) {
	off, ok1 := e.Offline[offline]
	on, ok2 := e.Online[online]
	return off, on, ok1 && ok2
}

// Reader decodes events from a YAML stream.
type Reader struct {
	dec    *yaml.Decoder
	closer io.Closer
	n      int
	err    error
}

func NewReader(r io.Reader) *Reader {
	return &Reader{dec: yaml.NewDecoder(r)}
}

// Open opens an event file; Close releases it.
func Open(fname string) (*Reader, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrap(err, "opening event file")
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Next decodes the next event. It returns io.EOF at the end of the stream.
func (r *Reader) Next() (*Event, error) {
	ev := &Event{Weight: 1}
	if err := r.dec.Decode(ev); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, errors.Wrapf(err, "decoding event %d", r.n)
	}
	r.n++
	return ev, nil
}

// ScanEvents streams every remaining event and closes the channel at the end
// of the stream or on the first error, which Err then reports.
func (r *Reader) ScanEvents() <-chan *Event {
	events := make(chan *Event)
	go func() {
		defer close(events)
		for {
			ev, err := r.Next()
			if err != nil {
				if err != io.EOF {
					r.err = err
				}
				return
			}
			events <- ev
		}
	}()
	return events
}

// Err returns the error that stopped ScanEvents, if any. It must only be
// called once the channel is drained.
func (r *Reader) Err() error { return r.err }

// NEvents is the number of events decoded so far.
func (r *Reader) NEvents() int { return r.n }

// Writer encodes events as a YAML stream.
type Writer struct {
	enc *yaml.Encoder
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: yaml.NewEncoder(w)}
}

func (w *Writer) Write(ev *Event) error {
	return errors.Wrap(w.enc.Encode(ev), "encoding event")
}

// Close flushes the stream. It does not close the underlying writer.
func (w *Writer) Close() error {
	return errors.Wrap(w.enc.Close(), "closing event stream")
}
