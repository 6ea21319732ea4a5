package stratacache

import (
	goerrors "errors"
	"testing"
)

func TestIsKeyError(t *testing.T) {
	cases := []error{
		NewErrKeyEmpty("get"),
		NewErrKeyTooLong("x"),
		NewErrKeyControlChar("a\x00b"),
	}
	for _, err := range cases {
		if !IsKeyError(err) {
			t.Errorf("IsKeyError(%v) = false, want true", err)
		}
	}
	if IsKeyError(NewErrInvalidConfig("field", "reason")) {
		t.Error("IsKeyError should not classify a config error as a key error")
	}
}

func TestIsSerializationError(t *testing.T) {
	err := NewErrEncodeFailed(goerrors.New("boom"))
	if !IsSerializationError(err) {
		t.Error("expected encode failure to be a serialization error")
	}
	if IsIntegrityError(err) {
		t.Error("encode failure should not be classified as an integrity error")
	}
}

func TestIsIntegrityError(t *testing.T) {
	err := NewErrSignatureInvalid("key1")
	if !IsIntegrityError(err) {
		t.Error("expected signature failure to be an integrity error")
	}
}

func TestIsTierUnavailable(t *testing.T) {
	err := NewErrCircuitOpen("disk")
	if !IsTierUnavailable(err) {
		t.Error("expected circuit-open error to report tier unavailable")
	}
	if !IsRetryable(err) {
		t.Error("a circuit-open error should be retryable")
	}
}

func TestIsConfigError(t *testing.T) {
	err := NewErrInvalidConfig("cache_max_size", "must not be negative")
	if !IsConfigError(err) {
		t.Error("expected invalid config error to be classified as config error")
	}
}

func TestIsRetryableFalseForNonRetryable(t *testing.T) {
	err := NewErrTierRejected("memory", goerrors.New("boom"))
	if IsRetryable(err) {
		t.Error("a rejected-after-retries error should not itself be retryable")
	}
}

func TestGetErrorCodeAndContext(t *testing.T) {
	err := NewErrTierTimeout("disk", goerrors.New("deadline exceeded"))
	if GetErrorCode(err) != ErrCodeTierTimeout {
		t.Errorf("GetErrorCode() = %v, want %v", GetErrorCode(err), ErrCodeTierTimeout)
	}
	ctx := GetErrorContext(err)
	if ctx["tier"] != "disk" {
		t.Errorf("expected context tier=disk, got %v", ctx)
	}
}

func TestGetErrorCodeNilError(t *testing.T) {
	if GetErrorCode(nil) != "" {
		t.Error("GetErrorCode(nil) should return empty code")
	}
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) should be false")
	}
}
