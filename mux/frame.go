// Package mux implements the tagged-union frame format carried inside
// a session record's decrypted payload: a length-prefixed, multi-kind
// union supporting data, control, keepalive, and close frames. It is a
// pure byte-slice codec with no I/O.
package mux

import (
	"encoding/binary"

	"github.com/veilvpn/veil-core/errs"
)

// Kind is the wire tag for a frame. Values are a small, dense uint8
// enum starting at 1 so a zeroed Kind is never mistaken for KindData.
type Kind uint8

const (
	KindData Kind = 1 + iota
	KindControl
	KindKeepalive
	KindClose
)

// Frame is the common interface for all mux frame kinds.
type Frame interface {
	Kind() Kind
	// encodeBody appends this frame's body bytes (not the kind/length
	// header) to dst and returns the result.
	encodeBody(dst []byte) []byte
}

type DataFrame struct {
	StreamID uint32
	Payload  []byte
}

func (DataFrame) Kind() Kind { return KindData }

func (f DataFrame) encodeBody(dst []byte) []byte {
	var sid [4]byte
	binary.BigEndian.PutUint32(sid[:], f.StreamID)
	dst = append(dst, sid[:]...)
	return append(dst, f.Payload...)
}

// ControlFrame carries an opaque, numbered control message. Control
// message semantics above the numbered Code are left to the tunnel
// layer; mux only frames and delivers the bytes.
type ControlFrame struct {
	Code uint16
	Body []byte
}

func (ControlFrame) Kind() Kind { return KindControl }

func (f ControlFrame) encodeBody(dst []byte) []byte {
	var code [2]byte
	binary.BigEndian.PutUint16(code[:], f.Code)
	dst = append(dst, code[:]...)
	return append(dst, f.Body...)
}

// KeepaliveFrame has no body. The enclosing tunnel emits one on an
// otherwise idle send loop; the receiving tunnel decrypts it and
// otherwise ignores it.
type KeepaliveFrame struct{}

func (KeepaliveFrame) Kind() Kind               { return KindKeepalive }
func (KeepaliveFrame) encodeBody(dst []byte) []byte { return dst }

type CloseFrame struct {
	StreamID uint32
}

func (CloseFrame) Kind() Kind { return KindClose }

func (f CloseFrame) encodeBody(dst []byte) []byte {
	var sid [4]byte
	binary.BigEndian.PutUint32(sid[:], f.StreamID)
	return append(dst, sid[:]...)
}

// maxFrameBody bounds a single frame's body length field (uint16) and
// guards against pathological allocation on malformed input.
const maxFrameBody = 1 << 16 - 1

// Encode appends one length-prefixed, kind-tagged frame to dst:
// kind(1) || body_len(2, big-endian) || body.
func Encode(dst []byte, f Frame) ([]byte, error) {
	body := f.encodeBody(nil)
	if len(body) > maxFrameBody {
		return nil, errs.New("mux: frame body too large").WithKind(errs.MalformedRecord)
	}
	dst = append(dst, byte(f.Kind()))
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(body)))
	dst = append(dst, l[:]...)
	return append(dst, body...), nil
}

// EncodeAll encodes frames in order into a single contiguous batch.
func EncodeAll(frames []Frame) ([]byte, error) {
	var out []byte
	for _, f := range frames {
		var err error
		out, err = Encode(out, f)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeAll parses every length-prefixed frame in a decrypted record
// payload. It rejects truncation rather than
// returning a partial frame list.
func DecodeAll(data []byte) ([]Frame, error) {
	var frames []Frame
	for len(data) > 0 {
		if len(data) < 3 {
			return nil, errs.New("mux: truncated frame header").WithKind(errs.MalformedRecord)
		}
		kind := Kind(data[0])
		bodyLen := binary.BigEndian.Uint16(data[1:3])
		data = data[3:]
		if len(data) < int(bodyLen) {
			return nil, errs.New("mux: truncated frame body").WithKind(errs.MalformedRecord)
		}
		body := data[:bodyLen]
		data = data[bodyLen:]

		f, err := decodeBody(kind, body)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func decodeBody(kind Kind, body []byte) (Frame, error) {
	switch kind {
	case KindData:
		if len(body) < 4 {
			return nil, errs.New("mux: data frame too short").WithKind(errs.MalformedRecord)
		}
		return DataFrame{
			StreamID: binary.BigEndian.Uint32(body[:4]),
			Payload:  append([]byte{}, body[4:]...),
		}, nil
	case KindControl:
		if len(body) < 2 {
			return nil, errs.New("mux: control frame too short").WithKind(errs.MalformedRecord)
		}
		return ControlFrame{
			Code: binary.BigEndian.Uint16(body[:2]),
			Body: append([]byte{}, body[2:]...),
		}, nil
	case KindKeepalive:
		return KeepaliveFrame{}, nil
	case KindClose:
		if len(body) < 4 {
			return nil, errs.New("mux: close frame too short").WithKind(errs.MalformedRecord)
		}
		return CloseFrame{StreamID: binary.BigEndian.Uint32(body[:4])}, nil
	default:
		return nil, errs.New("mux: unknown frame kind").WithKind(errs.MalformedRecord)
	}
}
