package trace

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRecordAndRead(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if rec.Session() == uuid.Nil {
		t.Error("expected a session id")
	}

	rec.Record(Record{Type: TypeSubmit, ViewChangeID: 1, Detail: "absolute-offsets(10, 0)", Trigger: "direct"})
	rec.Tick()
	rec.Record(Record{Type: TypeDispatch, ViewChangeID: 1, RequestID: 4, Kind: "absolute-offsets"})
	rec.Record(Record{Type: TypeNotification, RequestID: 4, Kind: "values", X: 10, Zoom: 1})
	rec.Record(Record{Type: TypeCompletion, ViewChangeID: 1, Kind: "scroll", Result: "completed"})
	if err := rec.Err(); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}

	rd, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if rd.Session() != rec.Session().String() {
		t.Errorf("expected session %s, got %s", rec.Session(), rd.Session())
	}

	got, err := rd.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	wantTypes := []Type{TypeSubmit, TypeTick, TypeDispatch, TypeNotification, TypeCompletion}
	if len(got) != len(wantTypes) {
		t.Fatalf("expected %d records, got %d", len(wantTypes), len(got))
	}
	for i, want := range wantTypes {
		if got[i].Type != want {
			t.Errorf("record %d: expected %s, got %s", i, want, got[i].Type)
		}
	}
	if got[0].Frame != 0 || got[2].Frame != 1 {
		t.Errorf("expected frames 0 and 1, got %d and %d", got[0].Frame, got[2].Frame)
	}
	if got[2].RequestID != 4 {
		t.Errorf("expected request id 4, got %d", got[2].RequestID)
	}
	if !strings.Contains(got[4].String(), "completed") {
		t.Errorf("expected completion listing, got %q", got[4].String())
	}
}

func TestReaderErrors(t *testing.T) {
	if _, err := NewReader(bytes.NewReader(nil)); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession for empty stream, got %v", err)
	}

	frame, err := EncodeFrame(Record{Type: TypeTick})
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if _, err := NewReader(bytes.NewReader(frame)); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}

	bad := append([]byte{}, frame...)
	bad[0] = 0
	rd := &Reader{r: bytes.NewReader(bad)}
	if _, err := rd.Next(); !errors.Is(err, ErrBadMagic) {
		t.Errorf("expected ErrBadMagic, got %v", err)
	}

	rd = &Reader{r: bytes.NewReader(frame[:len(frame)-1])}
	if _, err := rd.Next(); err == nil || errors.Is(err, io.EOF) {
		t.Errorf("expected truncation error, got %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRecorderWriteError(t *testing.T) {
	if _, err := NewRecorder(failingWriter{}); err == nil {
		t.Error("expected error from failing writer")
	}

	var nilRec *Recorder
	nilRec.Record(Record{Type: TypeTick})
	nilRec.Tick()
	if nilRec.Err() != nil {
		t.Error("expected nil recorder to have no error")
	}
}
