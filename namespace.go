// namespace.go: the namespace resolver (§4.2) — pure functions mapping
// logical keys to tier-local keys and back, plus the key validation rules
// from §3.
package stratacache

import "strings"

// ValidateKey enforces the §3 key invariants: non-empty, UTF-8, length
// ≤ 512, no control characters.
func ValidateKey(key string) error {
	if key == "" {
		return NewErrKeyEmpty("validate")
	}
	if len(key) > maxKeyLength {
		return NewErrKeyTooLong(key)
	}
	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return NewErrKeyControlChar(key)
		}
	}
	return nil
}

// namespaceResolver implements to_tier/from_tier for a single namespace.
type namespaceResolver struct {
	namespace string
}

func newNamespaceResolver(namespace string) namespaceResolver {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespaceResolver{namespace: namespace}
}

// toTier maps a logical key to its tier-local form. When the namespace is
// the reserved "default" value, the mapping is the identity.
func (r namespaceResolver) toTier(key string) string {
	if r.namespace == DefaultNamespace {
		return key
	}
	return r.namespace + ":" + key
}

// fromTier recovers the logical key from a tier-local key, reporting
// whether the tier-local key belongs to this namespace at all. Used by
// scan-like operations (clear, retention sweeps) to enumerate only the
// current namespace's entries.
func (r namespaceResolver) fromTier(tierKey string) (key string, ok bool) {
	if r.namespace == DefaultNamespace {
		// The default namespace owns every key with no recognized
		// "<ns>:" prefix belonging to another namespace's form. Since
		// tiers are partitioned per-namespace by construction (each
		// namespaceResolver only ever sees its own keys), identity holds.
		return tierKey, true
	}
	prefix := r.namespace + ":"
	if !strings.HasPrefix(tierKey, prefix) {
		return "", false
	}
	return strings.TrimPrefix(tierKey, prefix), true
}

// sidecarKey returns the companion sidecar tier-key holding K's absolute
// expiry, per the persistent tier's §4.4 layout.
func sidecarKey(tierKey string) string {
	return tierKey + sidecarSuffix
}

// isSidecarKey reports whether tierKey is itself a sidecar key.
func isSidecarKey(tierKey string) bool {
	return strings.HasSuffix(tierKey, sidecarSuffix)
}
