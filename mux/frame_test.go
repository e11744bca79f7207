package mux

import (
	"bytes"
	"testing"
)

func TestEncodeDecode_RoundTrip_AllKinds(t *testing.T) {
	frames := []Frame{
		DataFrame{StreamID: 7, Payload: []byte("Hello")},
		ControlFrame{Code: 3, Body: []byte{0x01, 0x02}},
		KeepaliveFrame{},
		CloseFrame{StreamID: 7},
	}

	encoded, err := EncodeAll(frames)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	decoded, err := DecodeAll(encoded)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(decoded) != len(frames) {
		t.Fatalf("got %d frames, want %d", len(decoded), len(frames))
	}

	df, ok := decoded[0].(DataFrame)
	if !ok || df.StreamID != 7 || !bytes.Equal(df.Payload, []byte("Hello")) {
		t.Fatalf("data frame mismatch: %#v", decoded[0])
	}
	cf, ok := decoded[1].(ControlFrame)
	if !ok || cf.Code != 3 || !bytes.Equal(cf.Body, []byte{0x01, 0x02}) {
		t.Fatalf("control frame mismatch: %#v", decoded[1])
	}
	if _, ok := decoded[2].(KeepaliveFrame); !ok {
		t.Fatalf("keepalive frame mismatch: %#v", decoded[2])
	}
	clf, ok := decoded[3].(CloseFrame)
	if !ok || clf.StreamID != 7 {
		t.Fatalf("close frame mismatch: %#v", decoded[3])
	}
}

func TestDecodeAll_TruncatedHeader(t *testing.T) {
	if _, err := DecodeAll([]byte{1, 0}); err == nil {
		t.Fatal("expected truncation error")
	}
}

func TestDecodeAll_TruncatedBody(t *testing.T) {
	// Claims a 10-byte body but only supplies 2.
	buf := []byte{byte(KindData), 0, 10, 0xAA, 0xBB}
	if _, err := DecodeAll(buf); err == nil {
		t.Fatal("expected truncation error")
	}
}

func TestDecodeAll_UnknownKind(t *testing.T) {
	buf := []byte{0xEE, 0, 0}
	if _, err := DecodeAll(buf); err == nil {
		t.Fatal("expected unknown-kind error")
	}
}

func TestEncodeAll_MultipleFramesShareOneBatch(t *testing.T) {
	frames := []Frame{
		DataFrame{StreamID: 1, Payload: []byte("a")},
		DataFrame{StreamID: 2, Payload: []byte("b")},
	}
	encoded, err := EncodeAll(frames)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeAll(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 {
		t.Fatalf("want 2 frames in one batch, got %d", len(decoded))
	}
}
