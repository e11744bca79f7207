//go:build unix

package crypto

import "golang.org/x/sys/unix"

// mlock best-effort-locks b's backing pages against swap for the
// lifetime of a session's key material. Failure is non-fatal — a
// sandboxed process without CAP_IPC_LOCK simply keeps running without
// the hardening.
func mlock(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Mlock(b)
}

func munlock(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Munlock(b)
}
