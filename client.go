package veil

import (
	"context"
	"time"

	"github.com/veilvpn/veil-core/config"
	"github.com/veilvpn/veil-core/errs"
	"github.com/veilvpn/veil-core/handshake"
	"github.com/veilvpn/veil-core/iface"
	"github.com/veilvpn/veil-core/session"
)

// Dial runs a full client-side handshake against peerAddr over
// transport (wrapped in TLS camouflage) and, on success, returns a
// Tunnel ready to run. source and sink are the caller's application
// data endpoints.
func Dial(ctx context.Context, transport iface.DatagramTransport, peerAddr string, cfg config.Config, source iface.PayloadSource, sink iface.PayloadSink) (*session.Tunnel, error) {
	camo := WithCamouflage(transport)

	hsCfg, err := cfg.HandshakeConfig()
	if err != nil {
		return nil, err
	}
	initiator, err := handshake.NewInitiator(hsCfg)
	if err != nil {
		return nil, err
	}

	send := func(b []byte) error {
		return camo.Send(ctx, peerAddr, b)
	}
	recv := func(ctx context.Context, timeout time.Duration) ([]byte, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		_, b, err := camo.Recv(attemptCtx)
		return b, err
	}

	result, err := initiator.Run(ctx, send, recv)
	if err != nil {
		return nil, errs.New("veil: dial handshake failed").Base(err)
	}

	sess := session.New(result.SessionID, result.Keys, cfg.ReplayWindowBits)
	return &session.Tunnel{
		Session:           sess,
		Transport:         camo,
		Source:            source,
		Sink:              sink,
		PeerAddr:          peerAddr,
		KeepaliveInterval: cfg.KeepaliveInterval(),
		MaxRecordPayload:  cfg.MaxRecordPayload,
	}, nil
}
