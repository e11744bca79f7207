package config

import "testing"

const validYAML = `
psk: "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
info: "veil-example"
max_clock_skew_ms: 45000
`

func TestLoadYAML_ValidDocument(t *testing.T) {
	cfg, err := LoadYAML([]byte(validYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxClockSkewMs != 45000 {
		t.Fatalf("max_clock_skew_ms = %d, want 45000", cfg.MaxClockSkewMs)
	}
	if cfg.ReplayWindowBits != DefaultReplayWindowBits {
		t.Fatalf("replay_window_bits should default to %d, got %d", DefaultReplayWindowBits, cfg.ReplayWindowBits)
	}
	if _, err := cfg.Psk(); err != nil {
		t.Fatalf("psk should decode: %v", err)
	}
}

func TestLoadYAML_RejectsShortPsk(t *testing.T) {
	_, err := LoadYAML([]byte(`psk: "aabb"`))
	if err == nil {
		t.Fatal("expected validation error for short psk")
	}
}

func TestLoadYAML_RejectsNonHexPsk(t *testing.T) {
	_, err := LoadYAML([]byte(`psk: "not-hex-at-all-zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"`))
	if err == nil {
		t.Fatal("expected validation error for non-hex psk")
	}
}

func TestConfig_HandshakeConfig_Projection(t *testing.T) {
	cfg, err := LoadYAML([]byte(validYAML))
	if err != nil {
		t.Fatal(err)
	}
	hc, err := cfg.HandshakeConfig()
	if err != nil {
		t.Fatal(err)
	}
	if string(hc.Info) != "veil-example" {
		t.Fatalf("info = %q, want %q", hc.Info, "veil-example")
	}
}
