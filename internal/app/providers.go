package app

import (
	"github.com/riskibarqy/sportscorex/external/apisports"
	"github.com/riskibarqy/sportscorex/external/footballapi"
	"github.com/riskibarqy/sportscorex/external/thesportsdb"
	"github.com/riskibarqy/sportscorex/internal/config"
	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
	"github.com/riskibarqy/sportscorex/internal/platform/resilience"
	"github.com/riskibarqy/sportscorex/internal/usecase"
)

// buildProviders constructs one adapter per enabled provider. Registry
// ordering comes from the adapter's position in the returned slice.
func buildProviders(cfg config.Config, onBreaker resilience.StateChangeFunc, logger *logging.Logger) []usecase.Provider {
	enabled := cfg.EnabledProviders()
	out := make([]usecase.Provider, 0, len(enabled))

	for _, p := range enabled {
		timeout := p.Timeout
		if timeout <= 0 {
			timeout = cfg.ProviderTimeout
		}
		limit := resilience.RateLimitConfig{RequestsPerMinute: p.RequestsPerMinute}
		providerLogger := logger.With("provider", string(p.Name))

		switch p.Name {
		case scores.ProviderAPISports:
			out = append(out, apisports.NewClient(apisports.ClientConfig{
				BaseURL:        p.BaseURL,
				APIKey:         p.APIKey,
				Timeout:        timeout,
				MaxRetries:     p.MaxRetries,
				RateLimit:      limit,
				CircuitBreaker: cfg.ProviderCircuit,
				OnBreakerState: onBreaker,
				Logger:         providerLogger,
			}))
		case scores.ProviderFootballAPI:
			out = append(out, footballapi.NewClient(footballapi.ClientConfig{
				BaseURL:        p.BaseURL,
				APIKey:         p.APIKey,
				Timeout:        timeout,
				MaxRetries:     p.MaxRetries,
				RateLimit:      limit,
				CircuitBreaker: cfg.ProviderCircuit,
				OnBreakerState: onBreaker,
				Logger:         providerLogger,
			}))
		case scores.ProviderTheSportsDB:
			out = append(out, thesportsdb.NewClient(thesportsdb.ClientConfig{
				BaseURL:          p.BaseURL,
				APIKey:           p.APIKey,
				StandingsEnabled: cfg.TheSportsDBStandingsEnabled,
				Timeout:          timeout,
				MaxRetries:       p.MaxRetries,
				RateLimit:        limit,
				CircuitBreaker:   cfg.ProviderCircuit,
				OnBreakerState:   onBreaker,
				Logger:           providerLogger,
			}))
		default:
			logger.Warn("unknown provider skipped", "provider", string(p.Name))
		}
	}

	return out
}
