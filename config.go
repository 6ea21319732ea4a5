// config.go: the full configuration surface (§6), normalized by
// Validate the way the teacher's Config.Validate fills in sensible
// defaults rather than failing — except for the handful of structurally
// invalid values that must raise ConfigError at construction time.
package stratacache

import "time"

// CacheLayerConfig describes one entry of an explicit cache_layers list,
// used when UseLayeredCache is true instead of the default
// [memory?, shared?, disk?] assembly.
type CacheLayerConfig struct {
	// Type names the tier kind: "memory", "disk", or "shared".
	Type string

	// TTL is this layer's default TTL override. Zero means "use
	// CacheTTL".
	TTL time.Duration

	// Enabled toggles the layer without removing it from the list.
	Enabled bool

	// Weight is advisory (e.g. for a future shard router); the
	// orchestrator does not interpret it.
	Weight float64

	// MaxSize overrides CacheMaxSize for this layer; 0 means "use
	// CacheMaxSize". Only meaningful for the memory layer.
	MaxSize int
}

// Config holds every recognized configuration option from §6.
type Config struct {
	// --- storage location ---

	// CacheDir is the directory the persistent tier's file lives under.
	CacheDir string
	// CacheFile is the basename used to derive
	// "<CacheDir>/<CacheFile>_<namespace>.db".
	CacheFile string

	// --- sizing and eviction ---

	CacheMaxSize   int
	CacheTTL       time.Duration
	EvictionPolicy EvictionPolicy
	Namespace      string

	// --- tier enablement ---

	MemoryCacheEnabled bool
	MemoryCacheTTL     time.Duration
	DiskCacheEnabled   bool
	DiskCacheTTL       time.Duration
	UseLayeredCache    bool
	CacheLayers        []CacheLayerConfig

	// SharedTier, if non-nil, plugs a networked shared tier into the
	// default or layered assembly. Its concrete implementation is an
	// external collaborator; only the Tier contract is specified here.
	SharedTier Tier

	// --- read/write policy ---

	WriteThrough bool
	ReadThrough  bool

	// --- codec pipeline ---

	EnableCompression  bool
	CompressionMinSize int
	CompressionLevel   int

	EnableEncryption bool
	EncryptionKey    string
	EncryptionSalt   string

	EnableDataSigning bool
	SigningKey        string
	SigningAlgorithm  SigningAlgorithm

	// --- persistent tier retention ---

	DiskUsageThreshold     float64
	DiskCriticalThreshold  float64
	DiskRetentionDays      int
	DiskAggressiveFraction float64

	// --- failure guard ---

	RetryAttempts           int
	RetryDelay              time.Duration
	BreakerFailureThreshold int
	BreakerCooldown         time.Duration
	RedisConnectionTimeout  time.Duration

	// --- adaptive TTL ---

	EnableAdaptiveTTL           bool
	AdaptiveTTLMin              time.Duration
	AdaptiveTTLMax              time.Duration
	AccessCountThreshold        uint64
	AdaptiveTTLAdjustmentFactor float64

	// --- warmup ---

	EnableWarmup   bool
	WarmupKeysFile string

	// --- invalidation bus ---

	EnableInvalidation  bool
	InvalidationChannel string

	// --- background maintenance ---

	// JanitorInterval is the period between background maintenance
	// passes (persistent tier retention sweep and compaction, adaptive
	// TTL aging sweep). Zero means DefaultJanitorInterval.
	JanitorInterval time.Duration

	// --- ambient stack ---

	Logger           Logger
	TimeProvider     TimeProvider
	MetricsCollector MetricsCollector

	// OnEvict is called when an entry is evicted from the memory tier.
	// Must be fast and non-blocking.
	OnEvict func(key string, tier string)
	// OnExpire is called when an entry expires (TTL-based removal).
	// Must be fast and non-blocking.
	OnExpire func(key string, tier string)
}

// DefaultConfig returns a Config with every option at its documented
// default: a single memory tier, LRU eviction, write-through and
// read-through both on, no compression/encryption/signing, adaptive TTL
// and warmup and invalidation all off.
func DefaultConfig() Config {
	c := Config{
		CacheFile:          DefaultBasename,
		CacheMaxSize:       DefaultMaxSize,
		EvictionPolicy:     DefaultEvictionPolicy,
		Namespace:          DefaultNamespace,
		MemoryCacheEnabled: true,
		WriteThrough:       true,
		ReadThrough:        true,
		CompressionMinSize: DefaultCompressionMin,
		CompressionLevel:   DefaultCompressionLevel,
		SigningAlgorithm:   DefaultSigningAlgorithm,

		DiskUsageThreshold:     DefaultDiskUsageThreshold,
		DiskCriticalThreshold:  DefaultDiskCriticalThreshold,
		DiskRetentionDays:      DefaultDiskRetentionDays,
		DiskAggressiveFraction: DefaultDiskAggressiveFraction,

		RetryAttempts:           DefaultRetryAttempts,
		RetryDelay:              DefaultRetryDelay,
		BreakerFailureThreshold: DefaultBreakerFailureThreshold,
		BreakerCooldown:         DefaultBreakerCooldown,
		RedisConnectionTimeout:  5 * time.Second,

		AdaptiveTTLMin:              DefaultAdaptiveTTLMin,
		AdaptiveTTLMax:              DefaultAdaptiveTTLMax,
		AccessCountThreshold:        DefaultAccessCountThreshold,
		AdaptiveTTLAdjustmentFactor: DefaultAdaptiveTTLAdjustmentFactor,

		InvalidationChannel: DefaultInvalidationChannel,
		JanitorInterval:     DefaultJanitorInterval,

		Logger:           NoOpLogger{},
		TimeProvider:     systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
	return c
}

// Validate normalizes zero-valued fields to their defaults and rejects
// the handful of settings that are structurally invalid rather than
// merely unset. It is called automatically by New.
func (c *Config) Validate() error {
	if c.CacheFile == "" {
		c.CacheFile = DefaultBasename
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.CacheMaxSize < 0 {
		return NewErrInvalidConfig("cache_max_size", "must not be negative")
	} else if c.CacheMaxSize == 0 {
		c.CacheMaxSize = DefaultMaxSize
	}

	switch c.EvictionPolicy {
	case "":
		c.EvictionPolicy = DefaultEvictionPolicy
	case EvictionLRU, EvictionFIFO, EvictionLFU:
		// valid
	default:
		return NewErrInvalidConfig("eviction_policy", "must be one of lru, fifo, lfu")
	}

	if !c.MemoryCacheEnabled && !c.DiskCacheEnabled && c.SharedTier == nil && !c.UseLayeredCache {
		c.MemoryCacheEnabled = true
	}

	if c.CompressionMinSize < 0 {
		return NewErrInvalidConfig("compression_min_size", "must not be negative")
	}
	if c.CompressionMinSize == 0 {
		c.CompressionMinSize = DefaultCompressionMin
	}
	if c.EnableCompression {
		if c.CompressionLevel < 1 || c.CompressionLevel > 9 {
			if c.CompressionLevel == 0 {
				c.CompressionLevel = DefaultCompressionLevel
			} else {
				return NewErrInvalidConfig("compression_level", "must be between 1 and 9")
			}
		}
	}

	if c.EnableEncryption && c.EncryptionKey == "" {
		return NewErrInvalidConfig("encryption_key", "required when enable_encryption is true")
	}

	if c.EnableDataSigning {
		if c.SigningKey == "" {
			return NewErrInvalidConfig("signing_key", "required when enable_data_signing is true")
		}
		switch c.SigningAlgorithm {
		case "":
			c.SigningAlgorithm = DefaultSigningAlgorithm
		case SignSHA256, SignSHA384, SignSHA512:
			// valid
		default:
			return NewErrInvalidConfig("signing_algorithm", "must be one of sha256, sha384, sha512")
		}
	}

	if c.DiskUsageThreshold <= 0 {
		c.DiskUsageThreshold = DefaultDiskUsageThreshold
	} else if c.DiskUsageThreshold > 100 {
		return NewErrInvalidConfig("disk_usage_threshold", "must be between 0 and 100")
	}
	if c.DiskCriticalThreshold <= 0 || c.DiskCriticalThreshold > 1 {
		c.DiskCriticalThreshold = DefaultDiskCriticalThreshold
	}
	if c.DiskRetentionDays <= 0 {
		c.DiskRetentionDays = DefaultDiskRetentionDays
	}
	if c.DiskAggressiveFraction <= 0 || c.DiskAggressiveFraction > 1 {
		c.DiskAggressiveFraction = DefaultDiskAggressiveFraction
	}

	if c.RetryAttempts <= 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.BreakerFailureThreshold <= 0 {
		c.BreakerFailureThreshold = DefaultBreakerFailureThreshold
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = DefaultBreakerCooldown
	}
	if c.RedisConnectionTimeout <= 0 {
		c.RedisConnectionTimeout = 5 * time.Second
	}

	if c.EnableAdaptiveTTL {
		if c.AdaptiveTTLMin <= 0 {
			c.AdaptiveTTLMin = DefaultAdaptiveTTLMin
		}
		if c.AdaptiveTTLMax <= 0 {
			c.AdaptiveTTLMax = DefaultAdaptiveTTLMax
		}
		if c.AdaptiveTTLMax < c.AdaptiveTTLMin {
			return NewErrInvalidConfig("adaptive_ttl_max", "must be >= adaptive_ttl_min")
		}
		if c.AccessCountThreshold == 0 {
			c.AccessCountThreshold = DefaultAccessCountThreshold
		}
		if c.AdaptiveTTLAdjustmentFactor <= 1 {
			c.AdaptiveTTLAdjustmentFactor = DefaultAdaptiveTTLAdjustmentFactor
		}
	}

	if c.EnableWarmup && c.WarmupKeysFile == "" {
		return NewErrInvalidConfig("warmup_keys_file", "required when enable_warmup is true")
	}

	if c.InvalidationChannel == "" {
		c.InvalidationChannel = DefaultInvalidationChannel
	}

	if c.JanitorInterval <= 0 {
		c.JanitorInterval = DefaultJanitorInterval
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.TimeProvider == nil {
		c.TimeProvider = systemTimeProvider{}
	}
	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	return nil
}
