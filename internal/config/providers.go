package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/sportscorex/external/apisports"
	"github.com/riskibarqy/sportscorex/external/footballapi"
	"github.com/riskibarqy/sportscorex/external/thesportsdb"
	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/platform/resilience"
	"gopkg.in/yaml.v3"
)

const (
	minProviderTimeout = 10 * time.Second
	maxProviderTimeout = 15 * time.Second
)

type providerSettings struct {
	providers            []scores.ProviderConfig
	timeout              time.Duration
	circuit              resilience.CircuitBreakerConfig
	theSportsDBStandings bool
}

// providersFile is the PROVIDERS_FILE document. Credentials stay in the
// environment; the file only tunes endpoints, budgets and order.
type providersFile struct {
	Providers []providerFileEntry `yaml:"providers"`
}

type providerFileEntry struct {
	Name              string `yaml:"name"`
	Enabled           *bool  `yaml:"enabled"`
	BaseURL           string `yaml:"base_url"`
	Timeout           string `yaml:"timeout"`
	RequestsPerMinute *int   `yaml:"requests_per_minute"`
	Priority          int    `yaml:"priority"`
}

func loadProviders() (providerSettings, error) {
	timeout, err := time.ParseDuration(getEnv("PROVIDER_TIMEOUT", "15s"))
	if err != nil {
		return providerSettings{}, fmt.Errorf("parse PROVIDER_TIMEOUT: %w", err)
	}
	timeout = ClampProviderTimeout(timeout)

	maxRetries, err := getEnvAsInt("PROVIDER_MAX_RETRIES", 0)
	if err != nil {
		return providerSettings{}, fmt.Errorf("parse PROVIDER_MAX_RETRIES: %w", err)
	}
	if maxRetries < 0 {
		return providerSettings{}, fmt.Errorf("PROVIDER_MAX_RETRIES must be >= 0")
	}

	circuit, err := loadProviderCircuit()
	if err != nil {
		return providerSettings{}, err
	}

	theSportsDBEnabled, err := strconv.ParseBool(getEnv("THESPORTSDB_ENABLED", "true"))
	if err != nil {
		return providerSettings{}, fmt.Errorf("parse THESPORTSDB_ENABLED: %w", err)
	}
	theSportsDBStandings, err := strconv.ParseBool(getEnv("THESPORTSDB_STANDINGS_ENABLED", "false"))
	if err != nil {
		return providerSettings{}, fmt.Errorf("parse THESPORTSDB_STANDINGS_ENABLED: %w", err)
	}

	apiSportsRPM, err := getEnvAsInt("API_SPORTS_RPM", 0)
	if err != nil {
		return providerSettings{}, fmt.Errorf("parse API_SPORTS_RPM: %w", err)
	}
	footballAPIRPM, err := getEnvAsInt("FOOTBALL_API_RPM", 0)
	if err != nil {
		return providerSettings{}, fmt.Errorf("parse FOOTBALL_API_RPM: %w", err)
	}
	theSportsDBRPM, err := getEnvAsInt("THESPORTSDB_RPM", 30)
	if err != nil {
		return providerSettings{}, fmt.Errorf("parse THESPORTSDB_RPM: %w", err)
	}

	apiSportsKey := strings.TrimSpace(getEnv("API_SPORTS_KEY", ""))
	footballAPIKey := strings.TrimSpace(getEnv("FOOTBALL_API_KEY", ""))

	providers := []scores.ProviderConfig{
		{
			Name:              scores.ProviderAPISports,
			BaseURL:           strings.TrimSpace(getEnv("API_SPORTS_BASE_URL", apisports.DefaultBaseURL)),
			APIKey:            apiSportsKey,
			Enabled:           apiSportsKey != "",
			RequestsPerMinute: apiSportsRPM,
		},
		{
			Name:              scores.ProviderFootballAPI,
			BaseURL:           strings.TrimSpace(getEnv("FOOTBALL_API_BASE_URL", footballapi.DefaultBaseURL)),
			APIKey:            footballAPIKey,
			Enabled:           footballAPIKey != "",
			RequestsPerMinute: footballAPIRPM,
		},
		{
			Name:              scores.ProviderTheSportsDB,
			BaseURL:           strings.TrimSpace(getEnv("THESPORTSDB_BASE_URL", thesportsdb.DefaultBaseURL)),
			APIKey:            strings.TrimSpace(getEnv("THESPORTSDB_KEY", thesportsdb.FreeAPIKey)),
			Enabled:           theSportsDBEnabled,
			RequestsPerMinute: theSportsDBRPM,
		},
	}
	for i := range providers {
		providers[i].Priority = i + 1
		providers[i].Timeout = timeout
		providers[i].MaxRetries = maxRetries
	}

	if raw := strings.TrimSpace(getEnv("PROVIDER_PRIORITY", "")); raw != "" {
		if err := applyPriority(providers, splitCSV(raw)); err != nil {
			return providerSettings{}, fmt.Errorf("parse PROVIDER_PRIORITY: %w", err)
		}
	}

	if path := strings.TrimSpace(getEnv("PROVIDERS_FILE", "")); path != "" {
		file, err := os.Open(path)
		if err != nil {
			return providerSettings{}, fmt.Errorf("open PROVIDERS_FILE: %w", err)
		}
		doc, err := decodeProvidersFile(file)
		_ = file.Close()
		if err != nil {
			return providerSettings{}, fmt.Errorf("parse PROVIDERS_FILE %s: %w", path, err)
		}
		if err := applyProvidersFile(providers, doc); err != nil {
			return providerSettings{}, fmt.Errorf("apply PROVIDERS_FILE %s: %w", path, err)
		}
	}

	sort.SliceStable(providers, func(i, j int) bool {
		return providers[i].Priority < providers[j].Priority
	})

	return providerSettings{
		providers:            providers,
		timeout:              timeout,
		circuit:              circuit,
		theSportsDBStandings: theSportsDBStandings,
	}, nil
}

func loadProviderCircuit() (resilience.CircuitBreakerConfig, error) {
	enabled, err := strconv.ParseBool(getEnv("PROVIDER_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse PROVIDER_CIRCUIT_ENABLED: %w", err)
	}
	failureCount, err := getEnvAsInt("PROVIDER_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse PROVIDER_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("PROVIDER_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	openTimeout, err := time.ParseDuration(getEnv("PROVIDER_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse PROVIDER_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if openTimeout <= 0 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("PROVIDER_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	halfOpenMaxReq, err := getEnvAsInt("PROVIDER_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse PROVIDER_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("PROVIDER_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

// ClampProviderTimeout bounds a per-call provider timeout to [10s, 15s].
func ClampProviderTimeout(d time.Duration) time.Duration {
	if d < minProviderTimeout {
		return minProviderTimeout
	}
	if d > maxProviderTimeout {
		return maxProviderTimeout
	}
	return d
}

// applyPriority ranks the listed providers first, in list order. Unlisted
// providers keep their relative order after them.
func applyPriority(providers []scores.ProviderConfig, order []string) error {
	rank := make(map[scores.ProviderName]int, len(order))
	for i, raw := range order {
		name, ok := scores.ParseProviderName(raw)
		if !ok {
			return fmt.Errorf("unknown provider %q", raw)
		}
		if _, dup := rank[name]; dup {
			return fmt.Errorf("provider %q listed twice", raw)
		}
		rank[name] = i + 1
	}

	next := len(order) + 1
	for i := range providers {
		if r, ok := rank[providers[i].Name]; ok {
			providers[i].Priority = r
			continue
		}
		providers[i].Priority = next
		next++
	}
	return nil
}

func decodeProvidersFile(r io.Reader) (providersFile, error) {
	var doc providersFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return providersFile{}, nil
		}
		return providersFile{}, err
	}
	return doc, nil
}

func applyProvidersFile(providers []scores.ProviderConfig, doc providersFile) error {
	index := make(map[scores.ProviderName]int, len(providers))
	for i, p := range providers {
		index[p.Name] = i
	}

	for _, entry := range doc.Providers {
		name, ok := scores.ParseProviderName(entry.Name)
		if !ok {
			return fmt.Errorf("unknown provider %q", entry.Name)
		}
		p := &providers[index[name]]

		if entry.BaseURL != "" {
			p.BaseURL = strings.TrimSpace(entry.BaseURL)
		}
		if entry.Timeout != "" {
			timeout, err := time.ParseDuration(entry.Timeout)
			if err != nil {
				return fmt.Errorf("provider %s timeout: %w", name, err)
			}
			p.Timeout = ClampProviderTimeout(timeout)
		}
		if entry.RequestsPerMinute != nil {
			if *entry.RequestsPerMinute < 0 {
				return fmt.Errorf("provider %s requests_per_minute must be >= 0", name)
			}
			p.RequestsPerMinute = *entry.RequestsPerMinute
		}
		if entry.Priority > 0 {
			p.Priority = entry.Priority
		}
		if entry.Enabled != nil {
			if *entry.Enabled && name != scores.ProviderTheSportsDB && p.APIKey == "" {
				return fmt.Errorf("provider %s enabled without an api key", name)
			}
			p.Enabled = *entry.Enabled
		}
	}
	return nil
}
