package resilience

import "time"

type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxReq:   1,
	}
}

func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	defaults := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return cfg
}

// RateLimitConfig caps outbound calls to one upstream. A zero
// RequestsPerMinute disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

func NormalizeRateLimitConfig(cfg RateLimitConfig) RateLimitConfig {
	if cfg.RequestsPerMinute < 0 {
		cfg.RequestsPerMinute = 0
	}
	if cfg.RequestsPerMinute > 0 && cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return cfg
}
