// Package replay reads, writes and plays back landmark recordings.
//
// A recording is JSON Lines: one object per frame holding the protocol
// landmarks payload plus offset_ms, the time since the first frame.
//
//	{"offset_ms":0,"frame_id":1,"faces":[[{"x":0.5,"y":0.4,"z":-0.02}, ...]]}
package replay

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/go-facecap/pkg/protocol"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxLine bounds one recorded frame.
const maxLine = 4 << 20

// Record is one recorded frame.
type Record struct {
	OffsetMs int64 `json:"offset_ms"`
	protocol.LandmarksData
}

// Offset returns the record offset as a duration.
func (r Record) Offset() time.Duration {
	return time.Duration(r.OffsetMs) * time.Millisecond
}

// Reader decodes records from a recording.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Reader{sc: sc}
}

// Next returns the next record, or io.EOF at the end. Blank lines are
// skipped.
func (r *Reader) Next() (Record, error) {
	for r.sc.Scan() {
		r.line++
		line := bytes.TrimSpace(r.sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return Record{}, fmt.Errorf("%w: line %d: %v", ErrBadRecord, r.line, err)
		}
		if rec.OffsetMs < 0 {
			return Record{}, fmt.Errorf("%w: line %d: negative offset %d", ErrBadRecord, r.line, rec.OffsetMs)
		}
		return rec, nil
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, err
	}
	return Record{}, io.EOF
}

// ReadAll reads every remaining record.
func (r *Reader) ReadAll() ([]Record, error) {
	var recs []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
}

// Writer appends records to a recording.
type Writer struct {
	w     *bufio.Writer
	start time.Time
	n     int
}

// NewWriter creates a writer over w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	w.n++
	return w.w.WriteByte('\n')
}

// Capture appends a live frame, stamping it with the time since the first
// captured frame.
func (w *Writer) Capture(data protocol.LandmarksData) error {
	now := time.Now()
	if w.start.IsZero() {
		w.start = now
	}
	return w.Write(Record{
		OffsetMs:      now.Sub(w.start).Milliseconds(),
		LandmarksData: data,
	})
}

// Count returns how many records were written.
func (w *Writer) Count() int {
	return w.n
}

// Flush writes buffered records to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
