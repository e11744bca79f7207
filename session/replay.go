package session

import (
	"sync"

	"github.com/veilvpn/veil-core/errs"
)

// DefaultReplayWindowBits is the recommended default window width
// (1024 sequence numbers).
const DefaultReplayWindowBits = 1024

// ReplayWindow is a fixed-width sliding bitmap over the most recent
// sequence numbers seen on a session: reject too-old, reject
// duplicate, shift-on-new-high-water.
// It is deliberately not updated by Check alone — callers must call
// Accept only once the AEAD tag covering the sequence number has
// verified, so an attacker cannot burn a legitimate sequence number's
// slot by replaying a tampered record.
type ReplayWindow struct {
	mu        sync.Mutex
	bits      []uint64 // little-endian bit i -> (highWater - i)
	size      uint64
	highWater uint64
	haveAny   bool
}

func NewReplayWindow(bits int) *ReplayWindow {
	if bits <= 0 {
		bits = DefaultReplayWindowBits
	}
	words := (bits + 63) / 64
	return &ReplayWindow{
		bits: make([]uint64, words),
		size: uint64(bits),
	}
}

// Check reports whether seq is acceptable without mutating the
// window: not already seen, and not older than the window's trailing
// edge.
func (w *ReplayWindow) Check(seq uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.checkLocked(seq)
}

func (w *ReplayWindow) checkLocked(seq uint64) error {
	if !w.haveAny {
		return nil
	}
	if seq > w.highWater {
		return nil
	}
	age := w.highWater - seq
	if age >= w.size {
		return errs.New("session: sequence too old for replay window").WithKind(errs.TooOld)
	}
	word, bit := age/64, age%64
	if w.bits[word]&(1<<bit) != 0 {
		return errs.New("session: duplicate sequence number").WithKind(errs.Replay)
	}
	return nil
}

// Accept marks seq as seen, shifting the window forward if seq is a
// new high water mark. Callers must only call this after the record
// carrying seq has passed AEAD verification.
func (w *ReplayWindow) Accept(seq uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkLocked(seq); err != nil {
		return err
	}

	if !w.haveAny {
		w.highWater = seq
		w.haveAny = true
		w.setBit(0)
		return nil
	}

	if seq > w.highWater {
		shift := seq - w.highWater
		w.shift(shift)
		w.highWater = seq
		w.setBit(0)
		return nil
	}

	age := w.highWater - seq
	w.setBit(age)
	return nil
}

// Snapshot returns a copy of the window's raw bitmap words and high
// water mark, for tests asserting the exact shift arithmetic rather
// than just accept/reject outcomes.
func (w *ReplayWindow) Snapshot() (bits []uint64, highWater uint64, haveAny bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	bits = append([]uint64(nil), w.bits...)
	return bits, w.highWater, w.haveAny
}

func (w *ReplayWindow) setBit(age uint64) {
	word, bit := age/64, age%64
	w.bits[word] |= 1 << bit
}

// shift moves the window forward by n bits, discarding the trailing
// n oldest bits and leaving the newest (now-empty) n slots at age 0.
func (w *ReplayWindow) shift(n uint64) {
	if n >= w.size {
		for i := range w.bits {
			w.bits[i] = 0
		}
		return
	}
	wordShift := n / 64
	bitShift := n % 64

	words := len(w.bits)
	for i := words - 1; i >= 0; i-- {
		src := i - int(wordShift)
		var hi, lo uint64
		if src >= 0 {
			hi = w.bits[src]
		}
		if src-1 >= 0 && bitShift != 0 {
			lo = w.bits[src-1]
		}
		if bitShift == 0 {
			w.bits[i] = hi
		} else {
			w.bits[i] = (hi << bitShift) | (lo >> (64 - bitShift))
		}
	}
}
