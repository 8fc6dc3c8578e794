package nativehost

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte(`{"type":"installed"}`)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if got := binary.LittleEndian.Uint32(buf.Bytes()[:4]); got != 20 {
		t.Fatalf("unexpected length prefix %d", got)
	}
	payload, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(payload) != `{"type":"installed"}` {
		t.Fatalf("unexpected payload %q", payload)
	}
	if _, err := ReadFrame(&buf); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF at end of stream, got %v", err)
	}
}

func TestReadFrameRejectsOversize(t *testing.T) {
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, MaxFrameSize+1)
	if _, err := ReadFrame(bytes.NewReader(header)); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	if err := WriteFrame(io.Discard, make([]byte, MaxFrameSize+1)); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge on write, got %v", err)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, 10)
	_, err := ReadFrame(bytes.NewReader(append(header, 'x', 'y')))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
	if _, err := ReadFrame(bytes.NewReader([]byte{1, 0})); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF for short header, got %v", err)
	}
}
