package stratacache

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig() should validate, got %v", err)
	}
	if !cfg.MemoryCacheEnabled {
		t.Error("expected memory cache enabled by default")
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	var cfg Config
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero-value Config should validate with defaults filled in, got %v", err)
	}
	if !cfg.MemoryCacheEnabled {
		t.Error("expected memory tier to be enabled when no tier was configured")
	}
	if cfg.CacheMaxSize != DefaultMaxSize {
		t.Errorf("CacheMaxSize = %d, want %d", cfg.CacheMaxSize, DefaultMaxSize)
	}
	if cfg.EvictionPolicy != DefaultEvictionPolicy {
		t.Errorf("EvictionPolicy = %v, want %v", cfg.EvictionPolicy, DefaultEvictionPolicy)
	}
	if cfg.Logger == nil || cfg.TimeProvider == nil || cfg.MetricsCollector == nil {
		t.Error("expected ambient defaults to be filled in")
	}
}

func TestValidateRejectsNegativeMaxSize(t *testing.T) {
	cfg := Config{CacheMaxSize: -1}
	if err := cfg.Validate(); err == nil || !IsConfigError(err) {
		t.Fatalf("expected config error for negative max size, got %v", err)
	}
}

func TestValidateRejectsUnknownEvictionPolicy(t *testing.T) {
	cfg := Config{EvictionPolicy: "mru"}
	if err := cfg.Validate(); err == nil || !IsConfigError(err) {
		t.Fatalf("expected config error for unknown eviction policy, got %v", err)
	}
}

func TestValidateRequiresEncryptionKeyWhenEnabled(t *testing.T) {
	cfg := Config{EnableEncryption: true}
	if err := cfg.Validate(); err == nil || !IsConfigError(err) {
		t.Fatalf("expected config error for missing encryption key, got %v", err)
	}
}

func TestValidateRequiresSigningKeyWhenEnabled(t *testing.T) {
	cfg := Config{EnableDataSigning: true}
	if err := cfg.Validate(); err == nil || !IsConfigError(err) {
		t.Fatalf("expected config error for missing signing key, got %v", err)
	}
}

func TestValidateRejectsBadSigningAlgorithm(t *testing.T) {
	cfg := Config{EnableDataSigning: true, SigningKey: "k", SigningAlgorithm: "md5"}
	if err := cfg.Validate(); err == nil || !IsConfigError(err) {
		t.Fatalf("expected config error for unsupported signing algorithm, got %v", err)
	}
}

func TestValidateRequiresWarmupKeysFileWhenEnabled(t *testing.T) {
	cfg := Config{EnableWarmup: true}
	if err := cfg.Validate(); err == nil || !IsConfigError(err) {
		t.Fatalf("expected config error for missing warmup keys file, got %v", err)
	}
}

func TestValidateRejectsInvertedAdaptiveTTLRange(t *testing.T) {
	cfg := Config{
		EnableAdaptiveTTL: true,
		AdaptiveTTLMin:    2 * 1_000_000_000,
		AdaptiveTTLMax:    1 * 1_000_000_000,
	}
	if err := cfg.Validate(); err == nil || !IsConfigError(err) {
		t.Fatalf("expected config error for adaptive_ttl_max < adaptive_ttl_min, got %v", err)
	}
}
