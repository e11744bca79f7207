package veil

import (
	"context"

	"github.com/veilvpn/veil-core/iface"
	"github.com/veilvpn/veil-core/tlscamo"
)

// camouflagedTransport decorates an iface.DatagramTransport with C4's
// TLS record framing, so every datagram this module sends or receives
// looks like TLS application data on the wire.
type camouflagedTransport struct {
	inner iface.DatagramTransport
}

// WithCamouflage wraps transport so every Send/Recv passes through the
// TLS camouflage codec.
func WithCamouflage(transport iface.DatagramTransport) iface.DatagramTransport {
	return &camouflagedTransport{inner: transport}
}

func (c *camouflagedTransport) Send(ctx context.Context, dst string, b []byte) error {
	return c.inner.Send(ctx, dst, tlscamo.Wrap(b))
}

func (c *camouflagedTransport) Recv(ctx context.Context) (string, []byte, error) {
	src, wrapped, err := c.inner.Recv(ctx)
	if err != nil {
		return "", nil, err
	}
	b, err := tlscamo.UnwrapAll(wrapped)
	if err != nil {
		return "", nil, err
	}
	return src, b, nil
}
