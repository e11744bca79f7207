//go:build !unix

package crypto

// mlock is a no-op on platforms without an mlock/munlock syscall pair.
func mlock(b []byte)   {}
func munlock(b []byte) {}
