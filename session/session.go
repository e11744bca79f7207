// Package session implements the transport session: per-session
// encrypt/decrypt pipeline, replay protection, and mux framing over an
// established handshake result, including obfuscated-sequence record
// framing and a sliding replay window.
package session

import (
	"sync"
	"sync/atomic"

	"github.com/veilvpn/veil-core/crypto"
	"github.com/veilvpn/veil-core/errs"
	"github.com/veilvpn/veil-core/mux"
)

// maxSeq is the first sequence number a session refuses to use,
// reporting CounterExhausted instead: half the 64-bit space, leaving headroom
// below the point at which nonce reuse would become a live risk under
// the XOR-into-low-8-bytes nonce construction.
const maxSeq = uint64(1) << 63

// recordOverhead is the fixed non-ciphertext portion of a wire record:
// an 8-byte obfuscated sequence number followed by an 8-byte session
// id, ahead of the AEAD ciphertext+tag. Carrying session id on the
// wire (rather than only in the AAD) lets a multi-session responder
// demux an incoming datagram to the right Session without keeping any
// per-source-address state.
const recordOverhead = 16

// Stats are atomic counters describing a session's traffic and drop
// history, read concurrently with the send/receive paths that update
// them.
type Stats struct {
	SentFrames        atomic.Uint64
	SentBytes         atomic.Uint64
	RecvFrames        atomic.Uint64
	RecvBytes         atomic.Uint64
	ReplayDrops       atomic.Uint64
	TooOldDrops       atomic.Uint64
	AuthFailures      atomic.Uint64
	WrongSessionDrops atomic.Uint64
}

// State is a session's lifecycle position.
type State int

const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

// Session holds one VEIL transport session's keys, counters, and
// replay window, and implements the encrypt/decrypt pipeline. A
// Session is safe for concurrent use by one sender and one receiver
// goroutine, plus a concurrent call to Close: keyMu guards the key
// material itself against a Close that zeroizes it out from under an
// in-flight Encrypt/Decrypt call.
type Session struct {
	ID uint64

	keyMu sync.RWMutex
	keys  crypto.SessionKeys

	sendSeq atomic.Uint64
	replay  *ReplayWindow

	state atomic.Int32
	Stats Stats
}

// New constructs a Session from a completed handshake's keys, locking
// the key material against swap for the life of the session.
// replayWindowBits <= 0 selects DefaultReplayWindowBits.
func New(sessionID uint64, keys crypto.SessionKeys, replayWindowBits int) *Session {
	s := &Session{
		ID:     sessionID,
		keys:   keys,
		replay: NewReplayWindow(replayWindowBits),
	}
	crypto.LockSessionKeys(&s.keys)
	return s
}

func (s *Session) State() State { return State(s.state.Load()) }

// Close marks the session closed and scrubs its key material: every
// derived key field is zeroized and unlocked so no key byte survives
// the session's lifetime in memory. Close may run concurrently with an
// in-flight EncryptFrames/DecryptRecord call; keyMu ensures the
// zeroize happens only once that call has released its read lock on
// the keys.
func (s *Session) Close() {
	s.state.Store(int32(StateClosed))
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	crypto.UnlockSessionKeys(&s.keys)
	crypto.ZeroizeSessionKeys(&s.keys)
}

// sessionAAD is the 8-byte big-endian obfuscated sequence number
// followed by the 8-byte big-endian session id — the same order the
// two fields take on the wire — binding a record's authentication tag
// to both its position and its session so neither can be transplanted
// onto another record.
func sessionAAD(obfSeq uint64, sessionID uint64) []byte {
	aad := make([]byte, 16)
	putUint64(aad[0:8], obfSeq)
	putUint64(aad[8:16], sessionID)
	return aad
}

func putUint64(dst []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

func getUint64(src []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(src[i])
	}
	return v
}

// EncryptFrames runs the send-side pipeline: frame the payload,
// consume the next sequence number, seal it, and prefix the
// wire-visible obfuscated sequence number.
func (s *Session) EncryptFrames(frames []mux.Frame) ([]byte, error) {
	if s.State() != StateOpen {
		return nil, errs.New("session: closed").WithKind(errs.SessionClosed)
	}

	plaintext, err := mux.EncodeAll(frames)
	if err != nil {
		return nil, err
	}

	seq := s.sendSeq.Add(1) - 1
	if seq >= maxSeq {
		return nil, errs.New("session: sequence space exhausted").WithKind(errs.CounterExhausted)
	}

	s.keyMu.RLock()
	sendKey := s.keys.SendKey
	sendNoncePrefix := s.keys.SendNoncePrefix
	sendSeqObfKey := s.keys.SendSeqObfKey
	s.keyMu.RUnlock()

	obfSeq := crypto.ObfuscateSequence(seq, sendSeqObfKey)
	nonce := crypto.BuildNonce(sendNoncePrefix, seq)
	aad := sessionAAD(obfSeq, s.ID)

	ciphertext, err := crypto.Seal(sendKey[:], nonce[:], aad, plaintext)
	if err != nil {
		return nil, err
	}

	record := make([]byte, recordOverhead+len(ciphertext))
	putUint64(record[0:8], obfSeq)
	putUint64(record[8:16], s.ID)
	copy(record[recordOverhead:], ciphertext)

	s.Stats.SentFrames.Add(uint64(len(frames)))
	s.Stats.SentBytes.Add(uint64(len(record)))
	return record, nil
}

// DecryptRecord runs the receive-side pipeline: deobfuscate the
// sequence number, reject known-bad sequences cheaply before paying
// for AEAD verification, verify, and only then mark the replay
// window — an unauthenticated record never advances replay state.
func (s *Session) DecryptRecord(record []byte) ([]mux.Frame, error) {
	if s.State() == StateClosed {
		return nil, errs.New("session: closed").WithKind(errs.SessionClosed)
	}
	if len(record) < recordOverhead+crypto.AeadTagLen {
		return nil, errs.New("session: record too short").WithKind(errs.MalformedRecord)
	}

	obfSeq := getUint64(record[0:8])
	wireSessionID := getUint64(record[8:16])
	if wireSessionID != s.ID {
		s.Stats.WrongSessionDrops.Add(1)
		return nil, errs.New("session: record addressed to a different session").WithKind(errs.WrongSession)
	}
	ciphertext := record[recordOverhead:]

	s.keyMu.RLock()
	recvKey := s.keys.RecvKey
	recvNoncePrefix := s.keys.RecvNoncePrefix
	recvSeqObfKey := s.keys.RecvSeqObfKey
	s.keyMu.RUnlock()

	seq := crypto.DeobfuscateSequence(obfSeq, recvSeqObfKey)

	if err := s.replay.Check(seq); err != nil {
		switch kind, _ := errs.KindOf(err); kind {
		case errs.TooOld:
			s.Stats.TooOldDrops.Add(1)
		case errs.Replay:
			s.Stats.ReplayDrops.Add(1)
		}
		return nil, err
	}

	nonce := crypto.BuildNonce(recvNoncePrefix, seq)
	aad := sessionAAD(obfSeq, s.ID)

	plaintext, err := crypto.Open(recvKey[:], nonce[:], aad, ciphertext)
	if err != nil {
		s.Stats.AuthFailures.Add(1)
		return nil, err
	}

	if err := s.replay.Accept(seq); err != nil {
		// Lost the race against a concurrent duplicate between Check
		// and Accept; the window itself is the source of truth.
		return nil, err
	}

	frames, err := mux.DecodeAll(plaintext)
	if err != nil {
		return nil, err
	}

	s.Stats.RecvFrames.Add(uint64(len(frames)))
	s.Stats.RecvBytes.Add(uint64(len(record)))
	return frames, nil
}
