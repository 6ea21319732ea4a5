package stratacache

import "time"

// Defaults applied by Config.Validate when a field is left at its zero value.
const (
	maxKeyLength = 512

	DefaultNamespace        = "default"
	DefaultBasename         = "stratacache"
	DefaultMaxSize          = 10_000
	DefaultEvictionPolicy   = EvictionLRU
	DefaultCompressionLevel = 6
	DefaultCompressionMin   = 256
	DefaultSigningAlgorithm = SignSHA256

	DefaultDiskUsageThreshold     = 80.0
	DefaultDiskCriticalThreshold  = 0.9
	DefaultDiskRetentionDays      = 30
	DefaultDiskAggressiveFraction = 0.5

	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 100 * time.Millisecond

	DefaultJanitorInterval = 5 * time.Minute

	DefaultAdaptiveTTLMin              = 30 * time.Second
	DefaultAdaptiveTTLMax              = 24 * time.Hour
	DefaultAccessCountThreshold        = 10
	DefaultAdaptiveTTLAdjustmentFactor = 1.5

	DefaultBreakerFailureThreshold = 5
	DefaultBreakerCooldown         = 30 * time.Second

	DefaultInvalidationChannel = "stratacache.invalidation"

	sidecarSuffix = "__expires"
)

// EvictionPolicy selects the memory tier's eviction discipline.
type EvictionPolicy string

const (
	EvictionLRU  EvictionPolicy = "lru"
	EvictionFIFO EvictionPolicy = "fifo"
	EvictionLFU  EvictionPolicy = "lfu"
)

// SigningAlgorithm selects the keyed MAC algorithm for the codec pipeline's
// sign stage.
type SigningAlgorithm string

const (
	SignSHA256 SigningAlgorithm = "sha256"
	SignSHA384 SigningAlgorithm = "sha384"
	SignSHA512 SigningAlgorithm = "sha512"
)
