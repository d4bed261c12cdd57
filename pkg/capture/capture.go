// Package capture records per-packet lifecycle events (queue admissions,
// drops, arrivals) to an append-only binary trace, one CBOR record per
// event, for offline inspection with `araneid capture inspect`.
package capture

import (
	"errors"
	"io"
	"net/netip"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/araneid-sim/araneid/internal/errx"
	"github.com/araneid-sim/araneid/pkg/units"
	"github.com/araneid-sim/araneid/pkg/vtime"
)

// Event names stored in a Record.
const (
	EventAdmit   = "admit"
	EventDrop    = "drop"
	EventArrival = "arrival"
)

// Record is one packet lifecycle event. Addresses are dotted-quad strings
// so traces stay readable without this package's types.
type Record struct {
	TimeNs int64  `cbor:"t"`
	Event  string `cbor:"ev"`
	Reason string `cbor:"why,omitempty"`
	Src    string `cbor:"src,omitempty"`
	Dst    string `cbor:"dst,omitempty"`
	Bytes  uint64 `cbor:"sz"`
}

// Writer appends Records to a trace file. It satisfies
// transmission.Recorder and is safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	enc  *cbor.Encoder
}

// NewWriter creates (or truncates) the trace file at path.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errx.Wrap(ErrCreateTrace, err)
	}
	return &Writer{file: f, enc: cbor.NewEncoder(f)}, nil
}

func (w *Writer) RecordAdmit(t vtime.TimePoint, src, dst netip.Addr, size units.DataSize) {
	w.write(Record{TimeNs: t.AsWallClock().UnixNano(), Event: EventAdmit, Src: addrString(src), Dst: addrString(dst), Bytes: size.Bytes()})
}

func (w *Writer) RecordDrop(t vtime.TimePoint, reason string, src, dst netip.Addr, size units.DataSize) {
	w.write(Record{TimeNs: t.AsWallClock().UnixNano(), Event: EventDrop, Reason: reason, Src: addrString(src), Dst: addrString(dst), Bytes: size.Bytes()})
}

func (w *Writer) RecordArrival(t vtime.TimePoint, src, dst netip.Addr, size units.DataSize) {
	w.write(Record{TimeNs: t.AsWallClock().UnixNano(), Event: EventArrival, Src: addrString(src), Dst: addrString(dst), Bytes: size.Bytes()})
}

func (w *Writer) write(rec Record) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// A trace is observability, not simulation state: a failed write must
	// not disturb the packet pipeline, so the error stops at the file.
	_ = w.enc.Encode(rec)
}

// Close syncs and closes the trace file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.file.Sync()
	return w.file.Close()
}

func addrString(a netip.Addr) string {
	if !a.IsValid() {
		return ""
	}
	return a.String()
}

// ReadAll decodes every Record in the trace file at path.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errx.Wrap(ErrReadTrace, err)
	}
	defer f.Close()

	var records []Record
	dec := cbor.NewDecoder(f)
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, errx.Wrap(ErrReadTrace, err)
		}
		records = append(records, rec)
	}
}
