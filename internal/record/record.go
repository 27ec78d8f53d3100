// Package record implements a gzip-compressed transcript log of every
// prompt/response round trip, the durable record a user can replay to see
// exactly what a script asked a model and what it got back.
package record

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Entry is one recorded prompt round trip.
type Entry struct {
	Timestamp int64  `json:"timestamp"`
	Rendered  string `json:"rendered"`
	Response  string `json:"response"`
}

// Recorder appends newline-delimited JSON entries to a gzip-compressed file,
// matching the eval.Recorder interface the interpreter's prompt loop calls
// into on every completed round trip.
type Recorder struct {
	mu  sync.Mutex
	f   *os.File
	gz  *gzip.Writer
	enc *json.Encoder
	now func() int64
}

// Open creates or truncates path and returns a Recorder writing to it.
// Callers must call Close when done to flush the gzip trailer.
func Open(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript file: %w", err)
	}
	gz := gzip.NewWriter(f)
	return &Recorder{
		f:   f,
		gz:  gz,
		enc: json.NewEncoder(gz),
		now: func() int64 { return time.Now().Unix() },
	}, nil
}

// RecordPrompt satisfies eval.Recorder: it appends one Entry for the
// rendered prompt text and the final text the provider returned.
func (r *Recorder) RecordPrompt(rendered string, response string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(Entry{
		Timestamp: r.now(),
		Rendered:  rendered,
		Response:  response,
	})
}

// Close flushes the gzip stream and closes the underlying file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.gz.Close(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}
