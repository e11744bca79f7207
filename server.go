package veil

import (
	"context"

	"github.com/veilvpn/veil-core/config"
	"github.com/veilvpn/veil-core/errs"
	"github.com/veilvpn/veil-core/handshake"
	"github.com/veilvpn/veil-core/iface"
	"github.com/veilvpn/veil-core/session"
)

// Accept waits for and answers one client INIT on transport (wrapped
// in TLS camouflage), returning a Tunnel whose Session is ready. The
// caller must still set the returned Tunnel's Source and Sink before
// calling Run. A retransmitted INIT for an already-answered client
// gets its cached RESPONSE replayed and Accept keeps waiting; any
// other malformed or unauthenticated INIT is dropped and logged.
func Accept(ctx context.Context, transport iface.DatagramTransport, cfg config.Config, logger errs.Logger) (*session.Tunnel, error) {
	if logger == nil {
		logger = errs.NopLogger{}
	}
	camo := WithCamouflage(transport)

	hsCfg, err := cfg.HandshakeConfig()
	if err != nil {
		return nil, err
	}
	responder, err := handshake.NewResponder(hsCfg)
	if err != nil {
		return nil, err
	}

	for {
		peerAddr, data, err := camo.Recv(ctx)
		if err != nil {
			return nil, err
		}

		respBytes, result, err := responder.HandleInit(data)
		if err != nil {
			if respBytes != nil {
				// retransmitted INIT for an already-answered client_nonce
				if sendErr := camo.Send(ctx, peerAddr, respBytes); sendErr != nil {
					return nil, sendErr
				}
			} else {
				errs.LogIfWarning(logger, err)
			}
			continue
		}

		if err := camo.Send(ctx, peerAddr, respBytes); err != nil {
			return nil, err
		}

		sess := session.New(result.SessionID, result.Keys, cfg.ReplayWindowBits)
		return &session.Tunnel{
			Session:           sess,
			Transport:         camo,
			PeerAddr:          peerAddr,
			KeepaliveInterval: cfg.KeepaliveInterval(),
			MaxRecordPayload:  cfg.MaxRecordPayload,
		}, nil
	}
}
