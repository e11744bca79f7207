package handshake

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/veilvpn/veil-core/crypto"
	"github.com/veilvpn/veil-core/errs"
)

// Config bundles the handshake-relevant fields of the configuration
// surface, kept separate from config.Config so this package
// has no import-cycle dependency on it.
type Config struct {
	Psk                    [32]byte
	Info                   []byte
	MaxClockSkew           time.Duration
	Timeout                time.Duration
	MaxRetries             int
	AllowPrereleaseVersion bool
}

// Result is the output of a completed handshake: the derived session
// keys plus the session identity both sides agreed on.
type Result struct {
	SessionID   uint64
	ClientNonce [16]byte
	ServerNonce [16]byte
	Keys        crypto.SessionKeys
}

// initiatorState names the Initiator's place in its own small state
// machine: Idle -> SentInit -> Established | Failed.
type initiatorState int

const (
	stateIdle initiatorState = iota
	stateSentInit
	stateEstablished
	stateFailed
)

// Initiator drives the client side of a handshake: send INIT, wait for
// RESPONSE, retransmit INIT with exponential backoff on timeout, and
// fail after Config.MaxRetries retransmissions.
type Initiator struct {
	cfg Config

	state       initiatorState
	keyPair     crypto.KeyPair
	clientNonce [16]byte
}

// NewInitiator generates a fresh ephemeral key pair and nonce for one
// handshake attempt.
func NewInitiator(cfg Config) (*Initiator, error) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, errs.New("handshake: generate keypair").Base(err)
	}
	nonce, err := crypto.RandomNonce16()
	if err != nil {
		return nil, errs.New("handshake: generate nonce").Base(err)
	}
	return &Initiator{
		cfg:         cfg,
		state:       stateIdle,
		keyPair:     kp,
		clientNonce: nonce,
	}, nil
}

// BuildInit serializes the INIT message to send. Calling it more than
// once (e.g. for a retransmit) re-encodes with a fresh timestamp but
// the same client keys and nonce, so the responder's idempotent cache
// still recognizes it as the same handshake.
func (in *Initiator) BuildInit() []byte {
	in.state = stateSentInit
	return EncodeInit(in.keyPair.Public, in.clientNonce, in.cfg.Psk)
}

// HandleResponse validates a RESPONSE against the in-flight INIT and,
// on success, derives the session keys and transitions to Established.
func (in *Initiator) HandleResponse(data []byte) (Result, error) {
	resp, err := DecodeResponse(data, in.clientNonce, in.cfg.Psk, in.cfg.MaxClockSkew, in.cfg.AllowPrereleaseVersion)
	if err != nil {
		in.state = stateFailed
		return Result{}, err
	}

	shared, err := crypto.X25519(in.keyPair.Private, resp.ServerPub)
	if err != nil {
		in.state = stateFailed
		return Result{}, err
	}

	info := SessionInfo(in.cfg.Info, in.clientNonce, resp.ServerNonce, resp.SessionID)
	keys, err := crypto.DeriveSessionKeys(shared, in.cfg.Psk, info, true)
	if err != nil {
		in.state = stateFailed
		return Result{}, err
	}

	in.state = stateEstablished
	return Result{
		SessionID:   resp.SessionID,
		ClientNonce: in.clientNonce,
		ServerNonce: resp.ServerNonce,
		Keys:        keys,
	}, nil
}

// Run drives the full client-side retransmit loop: send INIT, wait
// (via recv) for a RESPONSE, retrying with exponential backoff up to
// Config.MaxRetries times before giving up.
func (in *Initiator) Run(ctx context.Context, send func([]byte) error, recv func(context.Context, time.Duration) ([]byte, error)) (Result, error) {
	backoff := in.cfg.Timeout
	if backoff <= 0 {
		backoff = time.Second
	}
	maxRetries := in.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := send(in.BuildInit()); err != nil {
			return Result{}, errs.New("handshake: send INIT").Base(err)
		}

		data, err := recv(ctx, backoff)
		if err == nil {
			res, herr := in.HandleResponse(data)
			if herr == nil {
				return res, nil
			}
			// A malformed/unauthenticated RESPONSE is silently
			// retried exactly like a timeout: the
			// attacker learns nothing from the difference.
		}
		if ctx.Err() != nil {
			in.state = stateFailed
			return Result{}, errs.New("handshake: context done").Base(ctx.Err()).WithKind(errs.HandshakeTimeout)
		}
		backoff *= 2
	}

	in.state = stateFailed
	return Result{}, errs.New("handshake: exhausted retries").WithKind(errs.HandshakeTimeout)
}

// Responder handles the server side of a handshake: authenticate an
// INIT, derive keys, and produce a RESPONSE, reusing Cache for
// idempotent answers to retransmitted INITs.
type Responder struct {
	cfg       Config
	cache     *Cache
	keyPair   crypto.KeyPair
	sessionID func() (uint64, error)
}

// NewResponder generates a fresh server key pair. In production the
// same key pair is reused across many client handshakes (unlike the
// Initiator's one-shot ephemeral key): regenerating it per INIT would
// mean a single Responder value couldn't answer concurrent clients
// with a consistent public key to advertise out of band.
func NewResponder(cfg Config) (*Responder, error) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, errs.New("handshake: generate keypair").Base(err)
	}
	return &Responder{
		cfg:       cfg,
		cache:     NewCache(),
		keyPair:   kp,
		sessionID: randomSessionID,
	}, nil
}

// HandleInit authenticates and processes one INIT datagram, returning
// the RESPONSE bytes to send back plus the negotiated Result. A
// retransmitted INIT for a client_nonce already in Cache gets the
// previously computed RESPONSE bytes verbatim without re-deriving
// keys (idempotence); every other failure is reported for local
// logging only — callers MUST silently drop on error rather than
// reply: a malformed or unauthenticated INIT is dropped without a
// response.
func (r *Responder) HandleInit(data []byte) ([]byte, Result, error) {
	hs, err := DecodeInit(data, r.cfg.Psk, r.cfg.MaxClockSkew, r.cfg.AllowPrereleaseVersion)
	if err != nil {
		return nil, Result{}, err
	}

	if cached, ok := r.cache.Lookup(hs.ClientNonce); ok {
		return cached, Result{}, errs.New("handshake: cached response, no new Result derived").WithKind(errs.HandshakeReject)
	}

	serverNonce, err := crypto.RandomNonce16()
	if err != nil {
		return nil, Result{}, errs.New("handshake: generate server nonce").Base(err)
	}
	sessionID, err := r.sessionID()
	if err != nil {
		return nil, Result{}, errs.New("handshake: generate session id").Base(err)
	}

	shared, err := crypto.X25519(r.keyPair.Private, hs.ClientPub)
	if err != nil {
		return nil, Result{}, err
	}

	info := SessionInfo(r.cfg.Info, hs.ClientNonce, serverNonce, sessionID)
	keys, err := crypto.DeriveSessionKeys(shared, r.cfg.Psk, info, false)
	if err != nil {
		return nil, Result{}, err
	}

	response := EncodeResponse(r.keyPair.Public, serverNonce, sessionID, hs.ClientNonce, r.cfg.Psk)
	r.cache.Store(hs.ClientNonce, response)

	return response, Result{
		SessionID:   sessionID,
		ClientNonce: hs.ClientNonce,
		ServerNonce: serverNonce,
		Keys:        keys,
	}, nil
}

func randomSessionID() (uint64, error) {
	var b [8]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, err
		}
		if id := binary.BigEndian.Uint64(b[:]); id != 0 {
			return id, nil
		}
	}
}
