package session

import (
	"context"
	"time"

	"github.com/sagernet/sing/common/buf"
	"golang.org/x/sync/errgroup"

	"github.com/veilvpn/veil-core/errs"
	"github.com/veilvpn/veil-core/iface"
	"github.com/veilvpn/veil-core/mux"
)

// Tunnel orchestrates one Session over a DatagramTransport, pumping
// payloads to and from a PayloadSource/PayloadSink pair. A send
// goroutine and a receive goroutine run concurrently under an
// errgroup, each relaying one direction as a stream of mux frame
// batches rather than a raw byte stream.
type Tunnel struct {
	Session   *Session
	Transport iface.DatagramTransport
	Sink      iface.PayloadSink
	Source    iface.PayloadSource
	PeerAddr  string

	// KeepaliveInterval, if nonzero, sends a KeepaliveFrame on an
	// otherwise-idle send loop at this period.
	KeepaliveInterval time.Duration

	// MaxRecordPayload caps the total plaintext payload bytes carried
	// in one encrypted record. A single outbound payload larger than
	// this is split across multiple DataFrame chunks; several small
	// payloads pulled back to back may be coalesced into one record
	// instead, up to the same cap. <= 0 disables both behaviors: every
	// outbound payload becomes its own single-frame record.
	MaxRecordPayload int
}

// Run drives the tunnel's send and receive loops until ctx is
// cancelled or either loop returns an unrecoverable error. Malformed
// or unauthenticated inbound records are dropped and logged, not
// treated as fatal — only errors from the Source, Sink, or Transport
// itself end the tunnel.
func (t *Tunnel) Run(ctx context.Context, logger errs.Logger) error {
	if logger == nil {
		logger = errs.NopLogger{}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return t.sendLoop(ctx, logger) })
	g.Go(func() error { return t.recvLoop(ctx, logger) })
	return g.Wait()
}

// sendLoop pumps Source.NextOutbound into frame batches. NextOutbound
// runs in its own goroutine feeding outboundCh so the select below can
// still observe ctx.Done and the keepalive ticker while a call to
// NextOutbound is blocked waiting on idle application traffic — a
// blocking Source call inline in the select would starve the
// keepalive branch for as long as the tunnel stays idle.
func (t *Tunnel) sendLoop(ctx context.Context, logger errs.Logger) error {
	outboundCh := make(chan []byte)
	errCh := make(chan error, 1)
	if t.Source != nil {
		go func() {
			for {
				payload, err := t.Source.NextOutbound(ctx)
				if err != nil {
					errCh <- err
					return
				}
				select {
				case outboundCh <- payload:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	var keepalive <-chan time.Time
	if t.KeepaliveInterval > 0 {
		ticker := time.NewTicker(t.KeepaliveInterval)
		defer ticker.Stop()
		keepalive = ticker.C
	}

	// carry holds the unsent tail of a payload that didn't fit in the
	// previous frame batch, reused via sagernet/sing's pooled buffer
	// instead of allocating a fresh slice each time a payload is split
	// across batches.
	carry := buf.New()
	defer carry.Release()

	for {
		if carry.Len() > 0 {
			payload := append([]byte(nil), carry.Bytes()...)
			carry.Reset()
			if err := t.sendBatch(ctx, outboundCh, carry, payload); err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errs.New("tunnel: source").Base(err)
		case <-keepalive:
			if err := t.sendFrames(ctx, []mux.Frame{mux.KeepaliveFrame{}}); err != nil {
				return err
			}
		case payload := <-outboundCh:
			if err := t.sendBatch(ctx, outboundCh, carry, payload); err != nil {
				return err
			}
		}
	}
}

// sendBatch builds one frame batch starting from first, splitting it
// into MaxRecordPayload-sized DataFrame chunks and, while the batch
// still has room, opportunistically coalescing any further payloads
// already queued on outboundCh into the same record. Bytes that don't
// fit are left in carry for the next batch.
func (t *Tunnel) sendBatch(ctx context.Context, outboundCh <-chan []byte, carry *buf.Buffer, first []byte) error {
	maxPayload := t.MaxRecordPayload
	if maxPayload <= 0 {
		return t.sendFrames(ctx, []mux.Frame{mux.DataFrame{StreamID: 0, Payload: first}})
	}

	var frames []mux.Frame
	budget := maxPayload
	payload := first

	for {
		if len(payload) > 0 && budget > 0 {
			n := len(payload)
			if n > budget {
				n = budget
			}
			frames = append(frames, mux.DataFrame{StreamID: 0, Payload: append([]byte(nil), payload[:n]...)})
			budget -= n
			payload = payload[n:]
		}

		if len(payload) > 0 {
			carry.Write(payload)
			break
		}
		if budget == 0 {
			break
		}

		select {
		case payload = <-outboundCh:
		default:
			payload = nil
		}
		if payload == nil {
			break
		}
	}

	if len(frames) == 0 {
		return nil
	}
	return t.sendFrames(ctx, frames)
}

func (t *Tunnel) sendFrames(ctx context.Context, frames []mux.Frame) error {
	record, err := t.Session.EncryptFrames(frames)
	if err != nil {
		return errs.New("tunnel: encrypt").Base(err)
	}
	return t.Transport.Send(ctx, t.PeerAddr, record)
}

func (t *Tunnel) recvLoop(ctx context.Context, logger errs.Logger) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, record, err := t.Transport.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errs.New("tunnel: transport recv").Base(err)
		}

		frames, err := t.Session.DecryptRecord(record)
		if err != nil {
			errs.LogIfWarning(logger, err)
			continue
		}

		for _, f := range frames {
			switch fr := f.(type) {
			case mux.DataFrame:
				if err := t.Sink.Deliver(fr.Payload); err != nil {
					return errs.New("tunnel: sink").Base(err)
				}
			case mux.CloseFrame:
				t.Session.Close()
				return nil
			case mux.KeepaliveFrame:
				// no-op: the tunnel keeps no idle timer; the frame only
				// keeps traffic flowing on an otherwise idle link.
			case mux.ControlFrame:
				// control-plane semantics live above the tunnel.
			}
		}
	}
}
