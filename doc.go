// Package veil glues the four VEIL components together: C1 crypto
// primitives, C2 the handshake engine, C3 the transport session, and
// C4 the TLS camouflage wrapper. Each component is independently
// usable from its own package (crypto, handshake, session, tlscamo);
// this package is the thin facade a caller reaches for to run a full
// handshake-then-session lifecycle over an iface.DatagramTransport it
// supplies: VEIL owns the cryptographic protocol, the caller owns the
// socket.
package veil
