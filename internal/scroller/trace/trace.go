// Package trace records view change activity to a framed CBOR stream and
// reads it back for replay.
//
// Each frame is an 8-byte header followed by a CBOR payload:
//
//	[0:2]  magic   (big-endian uint16, 0x5354)
//	[2]    version (uint8, 1)
//	[3]    type    (uint8, Type)
//	[4:8]  length  (little-endian uint32, payload bytes)
//
// The first frame of every stream is a session record carrying a random
// session id.
package trace

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Wire format constants.
const (
	HeaderSize = 8
	Magic      = 0x5354 // ASCII 'ST'
	Version    = 1

	// maxPayload bounds a single record when reading untrusted input.
	maxPayload = 1 << 20
)

// Errors returned by the codec.
var (
	ErrBadMagic       = errors.New("trace: invalid magic bytes in frame header")
	ErrBadVersion     = errors.New("trace: unsupported version")
	ErrPayloadTooLong = errors.New("trace: payload exceeds limit")
	ErrNoSession      = errors.New("trace: stream does not start with a session record")
)

// Type identifies a record.
type Type uint8

const (
	TypeSession Type = iota + 1
	TypeSubmit
	TypeCoalesce
	TypeDispatch
	TypeNotification
	TypeCompletion
	TypeTick
)

// String returns the record type name.
func (t Type) String() string {
	switch t {
	case TypeSession:
		return "session"
	case TypeSubmit:
		return "submit"
	case TypeCoalesce:
		return "coalesce"
	case TypeDispatch:
		return "dispatch"
	case TypeNotification:
		return "notification"
	case TypeCompletion:
		return "completion"
	case TypeTick:
		return "tick"
	default:
		return "unknown"
	}
}

// Record is one traced event. Fields not relevant to the type are zero.
type Record struct {
	Type         Type    `cbor:"1,keyasint"`
	Frame        uint64  `cbor:"2,keyasint,omitempty"`
	ViewChangeID int32   `cbor:"3,keyasint,omitempty"`
	RequestID    int32   `cbor:"4,keyasint,omitempty"`
	Kind         string  `cbor:"5,keyasint,omitempty"`
	Trigger      string  `cbor:"6,keyasint,omitempty"`
	Result       string  `cbor:"7,keyasint,omitempty"`
	Detail       string  `cbor:"8,keyasint,omitempty"`
	X            float64 `cbor:"9,keyasint,omitempty"`
	Y            float64 `cbor:"10,keyasint,omitempty"`
	Zoom         float64 `cbor:"11,keyasint,omitempty"`
	Session      string  `cbor:"12,keyasint,omitempty"`
	UnixNano     int64   `cbor:"13,keyasint,omitempty"`
}

// String formats a record for the replay listing.
func (r Record) String() string {
	switch r.Type {
	case TypeSession:
		return fmt.Sprintf("session %s started %s", r.Session, time.Unix(0, r.UnixNano).UTC().Format(time.RFC3339))
	case TypeSubmit, TypeCoalesce:
		return fmt.Sprintf("#%d %-12s id=%d %s trigger=%s", r.Frame, r.Type, r.ViewChangeID, r.Detail, r.Trigger)
	case TypeDispatch:
		return fmt.Sprintf("#%d %-12s id=%d req=%d %s", r.Frame, r.Type, r.ViewChangeID, r.RequestID, r.Kind)
	case TypeNotification:
		return fmt.Sprintf("#%d %-12s %s req=%d pos=(%g, %g) zoom=%g", r.Frame, r.Type, r.Kind, r.RequestID, r.X, r.Y, r.Zoom)
	case TypeCompletion:
		return fmt.Sprintf("#%d %-12s id=%d %s %s", r.Frame, r.Type, r.ViewChangeID, r.Kind, r.Result)
	case TypeTick:
		return fmt.Sprintf("#%d %-12s", r.Frame, r.Type)
	default:
		return fmt.Sprintf("#%d %s", r.Frame, r.Type)
	}
}

// Recorder writes records to a stream. A nil *Recorder is valid and
// discards everything.
type Recorder struct {
	mu      sync.Mutex
	w       io.Writer
	session uuid.UUID
	frame   uint64
	err     error
}

// NewRecorder writes the session record and returns a recorder.
func NewRecorder(w io.Writer) (*Recorder, error) {
	r := &Recorder{w: w, session: uuid.New()}
	err := r.write(Record{
		Type:     TypeSession,
		Session:  r.session.String(),
		UnixNano: time.Now().UnixNano(),
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Session returns the session id.
func (r *Recorder) Session() uuid.UUID {
	if r == nil {
		return uuid.Nil
	}
	return r.session
}

// Tick advances the frame counter stamped on subsequent records.
func (r *Recorder) Tick() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.frame++
	r.mu.Unlock()
	r.Record(Record{Type: TypeTick})
}

// Record writes rec stamped with the current frame. The first write error
// is kept and returned by Err; later records are dropped.
func (r *Recorder) Record(rec Record) {
	if r == nil {
		return
	}
	r.mu.Lock()
	rec.Frame = r.frame
	r.mu.Unlock()
	_ = r.write(rec)
}

// Err returns the first write error.
func (r *Recorder) Err() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) write(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	frame, err := EncodeFrame(rec)
	if err == nil {
		_, err = r.w.Write(frame)
	}
	if err != nil {
		r.err = fmt.Errorf("trace: write %s record: %w", rec.Type, err)
	}
	return r.err
}

// EncodeFrame encodes rec into a complete frame.
func EncodeFrame(rec Record) ([]byte, error) {
	payload, err := cbor.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("cbor encode: %w", err)
	}

	frame := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint16(frame[0:2], Magic)
	frame[2] = Version
	frame[3] = byte(rec.Type)
	binary.LittleEndian.PutUint32(frame[4:8], uint32(len(payload)))
	copy(frame[HeaderSize:], payload)
	return frame, nil
}

// Reader reads records from a stream.
type Reader struct {
	r       io.Reader
	session string
	header  [HeaderSize]byte
}

// NewReader reads the session record and returns a reader positioned at
// the first event.
func NewReader(r io.Reader) (*Reader, error) {
	rd := &Reader{r: r}
	rec, err := rd.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	if rec.Type != TypeSession {
		return nil, ErrNoSession
	}
	rd.session = rec.Session
	return rd, nil
}

// Session returns the session id of the stream.
func (rd *Reader) Session() string {
	return rd.session
}

// Next returns the next record, or io.EOF at the end of the stream.
func (rd *Reader) Next() (Record, error) {
	if _, err := io.ReadFull(rd.r, rd.header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, fmt.Errorf("trace: truncated header: %w", err)
		}
		return Record{}, err
	}

	if binary.BigEndian.Uint16(rd.header[0:2]) != Magic {
		return Record{}, ErrBadMagic
	}
	if rd.header[2] != Version {
		return Record{}, fmt.Errorf("%w: %d", ErrBadVersion, rd.header[2])
	}
	n := binary.LittleEndian.Uint32(rd.header[4:8])
	if n > maxPayload {
		return Record{}, ErrPayloadTooLong
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(rd.r, payload); err != nil {
		return Record{}, fmt.Errorf("trace: truncated payload: %w", err)
	}

	var rec Record
	if err := cbor.Unmarshal(payload, &rec); err != nil {
		return Record{}, fmt.Errorf("cbor unmarshal: %w", err)
	}
	return rec, nil
}

// ReadAll returns every record after the session record.
func (rd *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
