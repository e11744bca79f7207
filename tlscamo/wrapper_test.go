package tlscamo

import (
	"bytes"
	"crypto/rand"
	"testing"
)

// TestWrapUnwrapAll_RoundTrip confirms UnwrapAll recovers every
// wrapped record in order from a concatenated stream.
func TestWrapUnwrapAll_RoundTrip(t *testing.T) {
	sizes := []int{0, 1, 16383, 16384, 16385, 30000, 50000}
	for _, n := range sizes {
		data := make([]byte, n)
		_, _ = rand.Read(data)

		wrapped := Wrap(data)
		wantLen := HeaderSize*numRecords(n) + n
		if len(wrapped) != wantLen {
			t.Fatalf("n=%d: wrapped len = %d, want %d", n, len(wrapped), wantLen)
		}

		unwrapped, err := UnwrapAll(wrapped)
		if err != nil {
			t.Fatalf("n=%d: UnwrapAll: %v", n, err)
		}
		if !bytes.Equal(unwrapped, data) {
			t.Fatalf("n=%d: roundtrip mismatch", n)
		}
	}
}

func numRecords(n int) int {
	if n == 0 {
		return 1
	}
	return (n + MaxRecordPayload - 1) / MaxRecordPayload
}

// TestFragmentation_30000Bytes is the fixed worked example from the
// fragmentation math: a 30000-byte payload wraps into exactly two
// records, 16384 + 13616 payload, 30010 total.
func TestFragmentation_30000Bytes(t *testing.T) {
	data := make([]byte, 30000)
	_, _ = rand.Read(data)

	wrapped := Wrap(data)
	if len(wrapped) != 30010 {
		t.Fatalf("wrapped len = %d, want 30010", len(wrapped))
	}

	h1, err := ParseHeader(wrapped)
	if err != nil {
		t.Fatal(err)
	}
	if h1.Length != 16384 {
		t.Fatalf("first record length = %d, want 16384", h1.Length)
	}

	second := wrapped[HeaderSize+int(h1.Length):]
	h2, err := ParseHeader(second)
	if err != nil {
		t.Fatal(err)
	}
	if h2.Length != 13616 {
		t.Fatalf("second record length = %d, want 13616", h2.Length)
	}

	recovered, err := UnwrapAll(wrapped)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(recovered, data) {
		t.Fatal("recovered data mismatch")
	}
}

func TestWrap_EmptyProducesOneEmptyRecord(t *testing.T) {
	wrapped := Wrap(nil)
	if len(wrapped) != HeaderSize {
		t.Fatalf("len = %d, want %d", len(wrapped), HeaderSize)
	}
	h, err := ParseHeader(wrapped)
	if err != nil {
		t.Fatal(err)
	}
	if h.Length != 0 {
		t.Fatalf("length = %d, want 0", h.Length)
	}
}

func TestUnwrap_RejectsNonApplicationData(t *testing.T) {
	rec := buildHeader(Header{ContentType: ContentTypeHandshake, LegacyVersion: legacyVersion, Length: 0})
	if _, err := Unwrap(rec); err == nil {
		t.Fatal("expected NotApplicationData error")
	}
}

func TestUnwrap_RejectsUnknownContentType(t *testing.T) {
	rec := buildHeader(Header{ContentType: 0xFF, LegacyVersion: legacyVersion, Length: 0})
	if _, err := ParseHeader(rec); err == nil {
		t.Fatal("expected error for unknown content type")
	}
}

func TestUnwrap_RejectsTruncatedPayload(t *testing.T) {
	rec := buildHeader(Header{ContentType: ContentTypeApplicationData, LegacyVersion: legacyVersion, Length: 10})
	rec = append(rec, []byte{1, 2, 3}...) // claims 10, supplies 3
	if _, err := Unwrap(rec); err == nil {
		t.Fatal("expected Incomplete error")
	}
}

func TestUnwrapAll_FailsFastOnInvalidSecondRecord(t *testing.T) {
	good := Wrap([]byte("ok"))
	bad := buildHeader(Header{ContentType: 0xFF, LegacyVersion: legacyVersion, Length: 0})
	if _, err := UnwrapAll(append(good, bad...)); err == nil {
		t.Fatal("expected failure on invalid second record")
	}
}

func TestEndiannessOfHeaderFields(t *testing.T) {
	rec := buildHeader(Header{ContentType: ContentTypeApplicationData, LegacyVersion: 0x0303, Length: 0x0102})
	want := []byte{0x17, 0x03, 0x03, 0x01, 0x02}
	if !bytes.Equal(rec, want) {
		t.Fatalf("header bytes = % x, want % x", rec, want)
	}
}
