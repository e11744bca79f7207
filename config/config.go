// Package config implements the configuration surface: the fixed set
// of parameters both peers of a VEIL session must agree on out of
// band. It is grounded on infra/conf/reflex.go's JSON-tagged config
// struct plus Build()/validation style, adapted from "build a
// protobuf message for xray-core's registry" (out of scope here, per
// DESIGN.md's dropped-dependency notes on protobuf/grpc) to a plain
// Validate() check plus HandshakeConfig(), which projects the fields
// into handshake.Config directly.
package config

import (
	"encoding/hex"
	"time"

	"github.com/ghodss/yaml"

	"github.com/veilvpn/veil-core/errs"
	"github.com/veilvpn/veil-core/handshake"
)

// Config is the full out-of-band agreement both peers share before a
// handshake can run.
type Config struct {
	// PskHex is the shared pre-key, hex-encoded, 32 bytes.
	PskHex string `json:"psk"`
	// Info is an opaque, caller-supplied domain separator mixed into
	// the key schedule; may be empty.
	Info string `json:"info,omitempty"`

	MaxClockSkewMs         int64 `json:"max_clock_skew_ms"`
	ReplayWindowBits       int   `json:"replay_window_bits"`
	HandshakeTimeoutMs     int64 `json:"handshake_timeout_ms"`
	HandshakeMaxRetries    int   `json:"handshake_max_retries"`
	MaxRecordPayload       int   `json:"max_record_payload"`
	AllowPrereleaseVersion bool  `json:"allow_prerelease_version,omitempty"`
	KeepaliveIntervalMs    int64 `json:"keepalive_interval_ms,omitempty"`
}

// Default returns the recommended baseline configuration.
func Default() Config {
	return Config{
		MaxClockSkewMs:      60000,
		ReplayWindowBits:    DefaultReplayWindowBits,
		HandshakeTimeoutMs:  30000,
		HandshakeMaxRetries: 5,
		MaxRecordPayload:    1200,
	}
}

// DefaultReplayWindowBits mirrors session.DefaultReplayWindowBits;
// config does not import the session package.
const DefaultReplayWindowBits = 1024

// LoadYAML parses a YAML document into a Config on top of Default(),
// for test fixtures and local development; production deployments are
// expected to construct Config programmatically instead. This package
// covers validating and projecting the fields, not distributing them.
func LoadYAML(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errs.New("config: parse yaml").Base(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks internal consistency of the configuration surface.
func (c Config) Validate() error {
	if _, err := c.Psk(); err != nil {
		return err
	}
	if c.MaxClockSkewMs <= 0 {
		return errs.New("config: max_clock_skew_ms must be positive").WithKind(errs.MalformedRecord)
	}
	if c.ReplayWindowBits <= 0 {
		return errs.New("config: replay_window_bits must be positive").WithKind(errs.MalformedRecord)
	}
	if c.HandshakeTimeoutMs <= 0 {
		return errs.New("config: handshake_timeout_ms must be positive").WithKind(errs.MalformedRecord)
	}
	if c.MaxRecordPayload <= 0 {
		return errs.New("config: max_record_payload must be positive").WithKind(errs.MalformedRecord)
	}
	return nil
}

// Psk decodes the hex-encoded pre-shared key, validating its length.
func (c Config) Psk() ([32]byte, error) {
	var psk [32]byte
	raw, err := hex.DecodeString(c.PskHex)
	if err != nil {
		return psk, errs.New("config: psk is not valid hex").Base(err).WithKind(errs.MalformedRecord)
	}
	if len(raw) != 32 {
		return psk, errs.New("config: psk must be 32 bytes").WithKind(errs.MalformedRecord)
	}
	copy(psk[:], raw)
	return psk, nil
}

// HandshakeConfig projects this Config into the fields handshake.Config
// needs.
func (c Config) HandshakeConfig() (handshake.Config, error) {
	psk, err := c.Psk()
	if err != nil {
		return handshake.Config{}, err
	}
	return handshake.Config{
		Psk:                    psk,
		Info:                   []byte(c.Info),
		MaxClockSkew:           time.Duration(c.MaxClockSkewMs) * time.Millisecond,
		Timeout:                time.Duration(c.HandshakeTimeoutMs) * time.Millisecond,
		MaxRetries:             c.HandshakeMaxRetries,
		AllowPrereleaseVersion: c.AllowPrereleaseVersion,
	}, nil
}

// KeepaliveInterval converts KeepaliveIntervalMs to a time.Duration,
// zero meaning "disabled".
func (c Config) KeepaliveInterval() time.Duration {
	return time.Duration(c.KeepaliveIntervalMs) * time.Millisecond
}
