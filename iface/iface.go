// Package iface declares the two external collaborators veil-core
// consumes but never implements: a datagram transport and a cleartext
// IP payload sink/source. Production implementations
// (a real UDP socket, a TUN device) live outside this module; tests
// and examples use the hand-written mocks in package mocks.
package iface

import "context"

// DatagramTransport delivers opaque byte vectors between endpoints
// with no ordering or reliability guarantee.
type DatagramTransport interface {
	// Send hands b to the transport for delivery to dst. The caller
	// retains no ownership of b after Send returns.
	Send(ctx context.Context, dst string, b []byte) error

	// Recv blocks until a datagram arrives or ctx is done.
	Recv(ctx context.Context) (src string, b []byte, err error)
}

// PayloadSink consumes cleartext IP packets recovered from decrypted
// session records.
type PayloadSink interface {
	Deliver(pkt []byte) error
}

// PayloadSource produces cleartext IP packets to be tunneled.
type PayloadSource interface {
	NextOutbound(ctx context.Context) ([]byte, error)
}
