package veil_test

import (
	"context"
	"strings"
	"testing"
	"time"

	veil "github.com/veilvpn/veil-core"
	"github.com/veilvpn/veil-core/config"
)

// chanTransport is an in-memory iface.DatagramTransport pairing two
// ends through buffered channels, standing in for a UDP socket; socket
// I/O itself lives outside this module.
type chanTransport struct {
	out chan []byte
	in  chan []byte
}

func newChanPair() (client, server *chanTransport) {
	c2s, s2c := make(chan []byte, 16), make(chan []byte, 16)
	return &chanTransport{out: c2s, in: s2c}, &chanTransport{out: s2c, in: c2s}
}

func (c *chanTransport) Send(ctx context.Context, dst string, b []byte) error {
	cp := append([]byte{}, b...)
	select {
	case c.out <- cp:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *chanTransport) Recv(ctx context.Context) (string, []byte, error) {
	select {
	case b := <-c.in:
		return "peer", b, nil
	case <-ctx.Done():
		return "", nil, ctx.Err()
	}
}

// onceSource emits payload exactly once, then blocks until its context
// is cancelled, like an idle application with nothing further to send.
type onceSource struct {
	payload []byte
	sent    bool
}

func (s *onceSource) NextOutbound(ctx context.Context) ([]byte, error) {
	if !s.sent {
		s.sent = true
		return s.payload, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

type chanSink struct {
	delivered chan []byte
}

func (s *chanSink) Deliver(pkt []byte) error {
	s.delivered <- append([]byte{}, pkt...)
	return nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.PskHex = "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
	cfg.HandshakeTimeoutMs = 200
	return cfg
}

// TestDialAccept_HappyPath drives a full handshake followed by one
// application payload delivered end to end through the
// TLS-camouflaged transport.
func TestDialAccept_HappyPath(t *testing.T) {
	cfg := testConfig()
	clientT, serverT := newChanPair()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	serverDeliveredCh := make(chan chan []byte, 1)
	serverRunErrCh := make(chan error, 1)
	go func() {
		tunnel, err := veil.Accept(ctx, serverT, cfg, nil)
		if err != nil {
			serverRunErrCh <- err
			return
		}
		sink := &chanSink{delivered: make(chan []byte, 1)}
		tunnel.Sink = sink
		tunnel.Source = &onceSource{payload: []byte{}}
		serverDeliveredCh <- sink.delivered
		serverRunErrCh <- tunnel.Run(ctx, nil)
	}()

	source := &onceSource{payload: []byte("hello from client")}
	sink := &chanSink{delivered: make(chan []byte, 1)}
	clientTunnel, err := veil.Dial(ctx, clientT, "server", cfg, source, sink)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	go clientTunnel.Run(ctx, nil)

	var delivered chan []byte
	select {
	case delivered = <-serverDeliveredCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server to accept")
	}

	select {
	case got := <-delivered:
		if string(got) != "hello from client" {
			t.Fatalf("delivered = %q, want %q", got, "hello from client")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server delivery")
	}
}

// TestDialAccept_WrongPskFails is the negative handshake path: a
// client with a different PSK must never reach Established.
func TestDialAccept_WrongPskFails(t *testing.T) {
	clientCfg := testConfig()
	serverCfg := testConfig()
	serverCfg.PskHex = strings.Repeat("20", 32)
	clientT, serverT := newChanPair()

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	go veil.Accept(ctx, serverT, serverCfg, nil)

	_, err := veil.Dial(ctx, clientT, "server", clientCfg, &onceSource{}, &chanSink{delivered: make(chan []byte, 1)})
	if err == nil {
		t.Fatal("expected handshake failure with mismatched PSK")
	}
}
