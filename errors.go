// errors.go: structured error taxonomy for stratacache operations.
//
// Builds rich, categorized errors over go-errors rather than bare
// fmt.Errorf: every failure mode gets an error code, a context map, and
// (where the caller can usefully retry) a retryable flag.
package stratacache

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes, grouped by the taxonomy described in the package doc.
const (
	// Key errors
	ErrCodeKeyEmpty       errors.ErrorCode = "STRATA_KEY_EMPTY"
	ErrCodeKeyTooLong     errors.ErrorCode = "STRATA_KEY_TOO_LONG"
	ErrCodeKeyControlChar errors.ErrorCode = "STRATA_KEY_CONTROL_CHAR"

	// Serialization errors
	ErrCodeEncodeFailed errors.ErrorCode = "STRATA_ENCODE_FAILED"
	ErrCodeDecodeFailed errors.ErrorCode = "STRATA_DECODE_FAILED"

	// Integrity errors
	ErrCodeSignatureInvalid errors.ErrorCode = "STRATA_SIGNATURE_INVALID"
	ErrCodeDecryptFailed    errors.ErrorCode = "STRATA_DECRYPT_FAILED"

	// Tier availability errors
	ErrCodeCircuitOpen  errors.ErrorCode = "STRATA_CIRCUIT_OPEN"
	ErrCodeTierTimeout  errors.ErrorCode = "STRATA_TIER_TIMEOUT"
	ErrCodeTierRejected errors.ErrorCode = "STRATA_TIER_REJECTED"

	// Configuration errors
	ErrCodeInvalidConfig errors.ErrorCode = "STRATA_INVALID_CONFIG"

	// Internal errors
	ErrCodeInternal errors.ErrorCode = "STRATA_INTERNAL"
)

// NewErrKeyEmpty reports an empty key passed to a public operation.
func NewErrKeyEmpty(operation string) error {
	return errors.NewWithField(ErrCodeKeyEmpty, "key cannot be empty", "operation", operation)
}

// NewErrKeyTooLong reports a key exceeding the configured length limit.
func NewErrKeyTooLong(key string) error {
	return errors.NewWithContext(ErrCodeKeyTooLong, "key exceeds maximum length", map[string]interface{}{
		"length": len(key),
		"max":    maxKeyLength,
	})
}

// NewErrKeyControlChar reports a key containing a forbidden control character.
func NewErrKeyControlChar(key string) error {
	return errors.NewWithField(ErrCodeKeyControlChar, "key contains a control character", "key", key)
}

// NewErrEncodeFailed wraps a value-encoding failure from the codec pipeline.
func NewErrEncodeFailed(cause error) error {
	return errors.Wrap(cause, ErrCodeEncodeFailed, "failed to encode value")
}

// NewErrDecodeFailed wraps a value-decoding failure from the codec pipeline.
func NewErrDecodeFailed(cause error) error {
	return errors.Wrap(cause, ErrCodeDecodeFailed, "failed to decode value")
}

// NewErrSignatureInvalid reports a MAC verification failure.
func NewErrSignatureInvalid(key string) error {
	return errors.NewWithField(ErrCodeSignatureInvalid, "signature verification failed", "key", key)
}

// NewErrDecryptFailed wraps an AEAD open failure.
func NewErrDecryptFailed(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeDecryptFailed, "decryption failed").WithContext("key", key)
}

// NewErrCircuitOpen reports a short-circuited call to a tripped breaker.
func NewErrCircuitOpen(tier string) error {
	return errors.NewWithField(ErrCodeCircuitOpen, "circuit breaker is open", "tier", tier).AsRetryable()
}

// NewErrTierTimeout reports a tier call exceeding its configured timeout.
func NewErrTierTimeout(tier string, cause error) error {
	return errors.Wrap(cause, ErrCodeTierTimeout, "tier call timed out").
		WithContext("tier", tier).
		AsRetryable()
}

// NewErrTierRejected wraps an arbitrary tier-level failure after retries are exhausted.
func NewErrTierRejected(tier string, cause error) error {
	return errors.Wrap(cause, ErrCodeTierRejected, "tier rejected the operation").
		WithContext("tier", tier)
}

// NewErrInvalidConfig reports a structurally invalid configuration value.
func NewErrInvalidConfig(field string, reason string) error {
	return errors.NewWithContext(ErrCodeInvalidConfig, "invalid configuration", map[string]interface{}{
		"field":  field,
		"reason": reason,
	})
}

// NewErrInternal wraps an unexpected internal failure with a correlation id.
func NewErrInternal(correlationID string, cause error) error {
	return errors.Wrap(cause, ErrCodeInternal, "internal error").
		WithContext("correlation_id", correlationID).
		WithSeverity("critical")
}

// NewErrPanicRecovered reports a recovered panic inside a background task.
func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodeInternal, "panic recovered", map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// IsKeyError reports whether err is any member of the key-error family.
func IsKeyError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrCodeKeyEmpty || code == ErrCodeKeyTooLong || code == ErrCodeKeyControlChar
}

// IsSerializationError reports whether err is an encode/decode failure.
func IsSerializationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrCodeEncodeFailed || code == ErrCodeDecodeFailed
}

// IsIntegrityError reports whether err is a signature or decryption failure.
func IsIntegrityError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrCodeSignatureInvalid || code == ErrCodeDecryptFailed
}

// IsTierUnavailable reports whether err reflects a tier that could not serve the call.
func IsTierUnavailable(err error) bool {
	code := GetErrorCode(err)
	return code == ErrCodeCircuitOpen || code == ErrCodeTierTimeout || code == ErrCodeTierRejected
}

// IsConfigError reports whether err is a construction-time configuration error.
func IsConfigError(err error) bool {
	return GetErrorCode(err) == ErrCodeInvalidConfig
}

// IsRetryable reports whether err carries the go-errors retryable marker.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the structured error code from err, or "" if err
// does not carry one.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts the context map from err, if any.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var strataErr *errors.Error
	if goerrors.As(err, &strataErr) {
		return strataErr.Context
	}
	return nil
}
