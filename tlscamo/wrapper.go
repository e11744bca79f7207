// Package tlscamo implements the cosmetic TLS 1.3 record framing that
// makes the VEIL record stream look like application-data traffic to
// middleboxes. It performs no cryptography and runs no
// handshake — it is a pure outer-wrapper codec, ported from VEIL's own
// C++ original at
// _examples/original_source/src/common/protocol_wrapper/tls_wrapper.{h,cpp},
// whose header comment records the intent: make the wrapped,
// already-AEAD-sealed record stream look like wss:// (WebSocket over
// TLS) traffic to deep packet inspection.
package tlscamo

import (
	"encoding/binary"

	"github.com/veilvpn/veil-core/errs"
)

// ContentType is a TLS 1.3 record content type (RFC 8446 §5.1).
type ContentType uint8

const (
	ContentTypeChangeCipherSpec ContentType = 0x14
	ContentTypeAlert            ContentType = 0x15
	ContentTypeHandshake        ContentType = 0x16
	ContentTypeApplicationData  ContentType = 0x17
)

const (
	// MaxRecordPayload is the largest payload a single TLS record may
	// carry (RFC 8446 §5.1, 2^14 bytes).
	MaxRecordPayload = 16384
	// HeaderSize is the fixed 5-byte TLS record header.
	HeaderSize = 5

	legacyVersion = 0x0303 // TLS 1.2, used by TLS 1.3 for compatibility.
)

// Header is a parsed TLS record header.
type Header struct {
	ContentType   ContentType
	LegacyVersion uint16
	Length        uint16
}

// buildHeader encodes h as 5 big-endian bytes.
func buildHeader(h Header) []byte {
	out := make([]byte, 0, HeaderSize)
	out = append(out, byte(h.ContentType))
	var v, l [2]byte
	binary.BigEndian.PutUint16(v[:], h.LegacyVersion)
	binary.BigEndian.PutUint16(l[:], h.Length)
	out = append(out, v[:]...)
	return append(out, l[:]...)
}

// ParseHeader reads one 5-byte TLS record header from the front of
// data, validating the content type against the four RFC 8446 §5.1
// values and the length against MaxRecordPayload — the same order the
// C++ original's TLSWrapper::parse_header uses.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errs.New("tlscamo: short header").WithKind(errs.Incomplete)
	}
	h := Header{
		ContentType:   ContentType(data[0]),
		LegacyVersion: binary.BigEndian.Uint16(data[1:3]),
		Length:        binary.BigEndian.Uint16(data[3:5]),
	}
	switch h.ContentType {
	case ContentTypeChangeCipherSpec, ContentTypeAlert, ContentTypeHandshake, ContentTypeApplicationData:
	default:
		return Header{}, errs.New("tlscamo: unknown content type").WithKind(errs.NotApplicationData)
	}
	if h.Length > MaxRecordPayload {
		return Header{}, errs.New("tlscamo: length exceeds maximum record size").WithKind(errs.MalformedRecord)
	}
	return h, nil
}

// Wrap splits data into chunks of at most MaxRecordPayload bytes and
// prefixes each with a 5-byte application-data header. An empty input
// still produces exactly one (empty) record.
func Wrap(data []byte) []byte {
	if len(data) == 0 {
		return buildHeader(Header{ContentType: ContentTypeApplicationData, LegacyVersion: legacyVersion, Length: 0})
	}

	numRecords := (len(data) + MaxRecordPayload - 1) / MaxRecordPayload
	out := make([]byte, 0, numRecords*HeaderSize+len(data))

	offset := 0
	for offset < len(data) {
		chunkSize := MaxRecordPayload
		if remaining := len(data) - offset; remaining < chunkSize {
			chunkSize = remaining
		}
		out = append(out, buildHeader(Header{
			ContentType:   ContentTypeApplicationData,
			LegacyVersion: legacyVersion,
			Length:        uint16(chunkSize),
		})...)
		out = append(out, data[offset:offset+chunkSize]...)
		offset += chunkSize
	}
	return out
}

// Unwrap parses exactly one TLS record from the front of record and
// returns its payload. Only application-data records are accepted;
// any other legal content type fails as NotApplicationData rather
// than being silently skipped, matching the C++ original.
func Unwrap(record []byte) ([]byte, error) {
	h, err := ParseHeader(record)
	if err != nil {
		return nil, err
	}
	if h.ContentType != ContentTypeApplicationData {
		return nil, errs.New("tlscamo: non application-data record").WithKind(errs.NotApplicationData)
	}
	if len(record) < HeaderSize+int(h.Length) {
		return nil, errs.New("tlscamo: truncated payload").WithKind(errs.Incomplete)
	}
	return record[HeaderSize : HeaderSize+int(h.Length)], nil
}

// UnwrapAll repeatedly unwraps records from the front of data,
// concatenating their payloads, and fails fast on the first invalid
// or non-application-data record.
func UnwrapAll(data []byte) ([]byte, error) {
	var out []byte
	for len(data) > 0 {
		payload, err := Unwrap(data)
		if err != nil {
			return nil, err
		}
		out = append(out, payload...)
		data = data[HeaderSize+len(payload):]
	}
	return out, nil
}
