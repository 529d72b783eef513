package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
	"github.com/riskibarqy/sportscorex/internal/platform/resilience"
)

const (
	CacheKeyPrefix = "sportscorex"

	DefaultSport           = "football"
	DefaultLiveTTL         = 2 * time.Minute
	DefaultStandingsTTL    = time.Hour
	DefaultProviderTimeout = 15 * time.Second
	MinProviderTimeout     = 10 * time.Second
)

const (
	ProviderOutcomeSuccess = "success"
	ProviderOutcomeEmpty   = "empty"
	ProviderOutcomeError   = "error"
)

// ScoreCache stores encoded aggregation results. Implementations expire
// entries lazily and must be safe for concurrent use.
type ScoreCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

type ScoresMetrics interface {
	ProviderCall(provider scores.ProviderName, op scores.Operation, outcome string)
	CacheLookup(op scores.Operation, hit bool)
	Aggregation(op scores.Operation, elapsed time.Duration)
}

type noopScoresMetrics struct{}

func (noopScoresMetrics) ProviderCall(scores.ProviderName, scores.Operation, string) {}
func (noopScoresMetrics) CacheLookup(scores.Operation, bool)                          {}
func (noopScoresMetrics) Aggregation(scores.Operation, time.Duration)                 {}

type ScoresServiceConfig struct {
	CacheEnabled    bool
	LiveTTL         time.Duration
	StandingsTTL    time.Duration
	ProviderTimeout time.Duration
	Now             func() time.Time
}

type LiveScoresResult struct {
	Sport   string
	League  string
	Matches []scores.Match
	Payload []byte
	Source  scores.ProviderName
	Cached  bool
}

type StandingsResult struct {
	League  string
	Season  string
	Rows    []scores.StandingRow
	Payload []byte
	Source  scores.ProviderName
	Cached  bool
}

type cacheEntry struct {
	Source scores.ProviderName `json:"source,omitempty"`
	Data   json.RawMessage     `json:"data"`
}

type loadOutcome struct {
	entry  cacheEntry
	cached bool
}

// ScoresService answers live-score and standings queries by walking the
// provider registry in priority order behind a TTL cache.
type ScoresService struct {
	registry        *ProviderRegistry
	cache           ScoreCache
	metrics         ScoresMetrics
	logger          *logging.Logger
	cacheEnabled    bool
	liveTTL         time.Duration
	standingsTTL    time.Duration
	providerTimeout time.Duration
	now             func() time.Time
	flight          resilience.SingleFlight
}

func NewScoresService(
	registry *ProviderRegistry,
	cache ScoreCache,
	metrics ScoresMetrics,
	cfg ScoresServiceConfig,
	logger *logging.Logger,
) *ScoresService {
	if registry == nil {
		registry = NewProviderRegistry()
	}
	if metrics == nil {
		metrics = noopScoresMetrics{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.LiveTTL <= 0 {
		cfg.LiveTTL = DefaultLiveTTL
	}
	if cfg.StandingsTTL <= 0 {
		cfg.StandingsTTL = DefaultStandingsTTL
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &ScoresService{
		registry:        registry,
		cache:           cache,
		metrics:         metrics,
		logger:          logger,
		cacheEnabled:    cfg.CacheEnabled && cache != nil,
		liveTTL:         cfg.LiveTTL,
		standingsTTL:    cfg.StandingsTTL,
		providerTimeout: cfg.ProviderTimeout,
		now:             cfg.Now,
	}
}

func (s *ScoresService) Registry() *ProviderRegistry {
	return s.registry
}

// LiveScores never fails because of providers: an outage and a quiet
// matchday both produce an empty list.
func (s *ScoresService) LiveScores(ctx context.Context, sport, league string) (LiveScoresResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoresService.LiveScores")
	defer span.End()

	started := s.now()
	defer func() { s.metrics.Aggregation(scores.OperationLive, s.now().Sub(started)) }()

	sport = NormalizeSport(sport)
	league = strings.TrimSpace(league)
	key := CacheKey(scores.OperationLive, sport, league)

	outcome, err := s.load(ctx, scores.OperationLive, key, s.liveTTL, func(ctx context.Context) (cacheEntry, error) {
		return s.fetchLive(ctx, sport, league)
	})
	if err != nil {
		return LiveScoresResult{}, err
	}

	return s.liveResult(sport, league, outcome)
}

// RefreshLive bypasses the cache read, fetches from providers and stores the
// fresh result. Used by the warmer.
func (s *ScoresService) RefreshLive(ctx context.Context, sport, league string) (LiveScoresResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoresService.RefreshLive")
	defer span.End()

	sport = NormalizeSport(sport)
	league = strings.TrimSpace(league)
	key := CacheKey(scores.OperationLive, sport, league)

	out, err, _ := s.flight.Do("refresh:"+key, func() (any, error) {
		entry, err := s.fetchLive(ctx, sport, league)
		if err != nil {
			return nil, err
		}
		s.writeCache(ctx, scores.OperationLive, key, entry, s.liveTTL)
		return loadOutcome{entry: entry}, nil
	})
	if err != nil {
		return LiveScoresResult{}, err
	}

	return s.liveResult(sport, league, out.(loadOutcome))
}

func (s *ScoresService) Standings(ctx context.Context, league, season string) (StandingsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoresService.Standings")
	defer span.End()

	league = strings.TrimSpace(league)
	if league == "" {
		return StandingsResult{}, fmt.Errorf("%w: league is required", ErrInvalidInput)
	}

	started := s.now()
	defer func() { s.metrics.Aggregation(scores.OperationStandings, s.now().Sub(started)) }()

	season = strings.TrimSpace(season)
	if season == "" {
		season = strconv.Itoa(s.now().UTC().Year())
	}
	key := CacheKey(scores.OperationStandings, league, season)

	outcome, err := s.load(ctx, scores.OperationStandings, key, s.standingsTTL, func(ctx context.Context) (cacheEntry, error) {
		return s.fetchStandings(ctx, league, season)
	})
	if err != nil {
		return StandingsResult{}, err
	}

	rows := make([]scores.StandingRow, 0)
	if err := sonic.Unmarshal(outcome.entry.Data, &rows); err != nil {
		return StandingsResult{}, fmt.Errorf("decode standings payload: %w", err)
	}

	return StandingsResult{
		League:  league,
		Season:  season,
		Rows:    rows,
		Payload: outcome.entry.Data,
		Source:  outcome.entry.Source,
		Cached:  outcome.cached,
	}, nil
}

// Purge removes cached results for one operation, or all of them when op is empty.
func (s *ScoresService) Purge(ctx context.Context, op scores.Operation) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoresService.Purge")
	defer span.End()

	if op != "" && !op.Valid() {
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, op)
	}
	if s.cache == nil {
		return nil
	}

	prefix := CacheKeyPrefix + ":"
	if op != "" {
		prefix += string(op) + ":"
	}
	if err := s.cache.DeletePrefix(ctx, prefix); err != nil {
		return fmt.Errorf("purge cache prefix=%s: %w", prefix, err)
	}

	s.logger.InfoContext(ctx, "score cache purged", "prefix", prefix)
	return nil
}

func (s *ScoresService) liveResult(sport, league string, outcome loadOutcome) (LiveScoresResult, error) {
	matches := make([]scores.Match, 0)
	if err := sonic.Unmarshal(outcome.entry.Data, &matches); err != nil {
		return LiveScoresResult{}, fmt.Errorf("decode live payload: %w", err)
	}

	return LiveScoresResult{
		Sport:   sport,
		League:  league,
		Matches: matches,
		Payload: outcome.entry.Data,
		Source:  outcome.entry.Source,
		Cached:  outcome.cached,
	}, nil
}

// load shares one provider walk between concurrent misses. The walk runs
// detached from any single caller and is bounded by aggregationBudget, so a
// disconnecting caller never fails the others.
func (s *ScoresService) load(
	ctx context.Context,
	op scores.Operation,
	key string,
	ttl time.Duration,
	fetch func(context.Context) (cacheEntry, error),
) (loadOutcome, error) {
	if entry, ok := s.readCache(ctx, op, key); ok {
		return loadOutcome{entry: entry, cached: true}, nil
	}

	out, err, _ := s.flight.DoContext(ctx, key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.aggregationBudget(op))
		defer cancel()

		if entry, ok := s.readCache(flightCtx, op, key); ok {
			return loadOutcome{entry: entry, cached: true}, nil
		}

		entry, fetchErr := fetch(flightCtx)
		if fetchErr != nil {
			s.logger.WarnContext(flightCtx, "aggregation did not finish, serving empty result",
				"operation", op,
				"key", key,
				"error", fetchErr,
			)
			return loadOutcome{entry: cacheEntry{Data: json.RawMessage("[]")}}, nil
		}
		s.writeCache(flightCtx, op, key, entry, ttl)
		return loadOutcome{entry: entry}, nil
	})
	if err != nil {
		return loadOutcome{}, err
	}

	return out.(loadOutcome), nil
}

// aggregationBudget allows every provider for op one full call.
func (s *ScoresService) aggregationBudget(op scores.Operation) time.Duration {
	calls := 1
	if op == scores.OperationLive {
		calls = max(len(s.registry.OrderedProviders(op)), 1)
	}
	return s.providerTimeout * time.Duration(calls)
}

func (s *ScoresService) fetchLive(ctx context.Context, sport, league string) (cacheEntry, error) {
	providers := s.registry.OrderedProviders(scores.OperationLive)
	if len(providers) == 0 {
		s.logger.WarnContext(ctx, "live scores unavailable", "sport", sport, "league", league, "error", ErrNoProvider)
		return encodeCacheEntry("", []scores.Match{})
	}

	for _, provider := range providers {
		callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
		matches, err := provider.FetchLive(callCtx, sport, league)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return cacheEntry{}, ctx.Err()
			}
			s.metrics.ProviderCall(provider.Name(), scores.OperationLive, ProviderOutcomeError)
			s.logger.WarnContext(ctx, "live provider failed, trying next",
				"provider", provider.Name(),
				"sport", sport,
				"league", league,
				"error", err,
			)
			continue
		}
		if len(matches) == 0 {
			s.metrics.ProviderCall(provider.Name(), scores.OperationLive, ProviderOutcomeEmpty)
			s.logger.DebugContext(ctx, "live provider returned no matches", "provider", provider.Name(), "sport", sport, "league", league)
			continue
		}

		s.metrics.ProviderCall(provider.Name(), scores.OperationLive, ProviderOutcomeSuccess)
		return encodeCacheEntry(provider.Name(), matches)
	}

	return encodeCacheEntry("", []scores.Match{})
}

func (s *ScoresService) fetchStandings(ctx context.Context, league, season string) (cacheEntry, error) {
	providers := s.registry.OrderedProviders(scores.OperationStandings)
	if len(providers) == 0 {
		s.logger.WarnContext(ctx, "standings unavailable", "league", league, "season", season, "error", ErrNoProvider)
		return encodeCacheEntry("", []scores.StandingRow{})
	}

	provider := providers[0]
	callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	rows, err := provider.FetchStandings(callCtx, league, season)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return cacheEntry{}, ctx.Err()
		}
		s.metrics.ProviderCall(provider.Name(), scores.OperationStandings, ProviderOutcomeError)
		s.logger.WarnContext(ctx, "standings provider failed",
			"provider", provider.Name(),
			"league", league,
			"season", season,
			"error", err,
		)
		return encodeCacheEntry("", []scores.StandingRow{})
	}
	if len(rows) == 0 {
		s.metrics.ProviderCall(provider.Name(), scores.OperationStandings, ProviderOutcomeEmpty)
		return encodeCacheEntry("", []scores.StandingRow{})
	}

	s.metrics.ProviderCall(provider.Name(), scores.OperationStandings, ProviderOutcomeSuccess)
	return encodeCacheEntry(provider.Name(), rows)
}

func (s *ScoresService) readCache(ctx context.Context, op scores.Operation, key string) (cacheEntry, bool) {
	if !s.cacheEnabled {
		return cacheEntry{}, false
	}

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "score cache read failed", "key", key, "error", err)
		s.metrics.CacheLookup(op, false)
		return cacheEntry{}, false
	}
	if !ok {
		s.metrics.CacheLookup(op, false)
		return cacheEntry{}, false
	}

	var entry cacheEntry
	if err := sonic.Unmarshal(raw, &entry); err != nil || len(entry.Data) == 0 {
		s.logger.WarnContext(ctx, "discard undecodable score cache entry", "key", key, "error", err)
		s.metrics.CacheLookup(op, false)
		return cacheEntry{}, false
	}

	s.metrics.CacheLookup(op, true)
	return entry, true
}

func (s *ScoresService) writeCache(ctx context.Context, op scores.Operation, key string, entry cacheEntry, ttl time.Duration) {
	if !s.cacheEnabled {
		return
	}

	raw, err := sonic.Marshal(entry)
	if err != nil {
		s.logger.WarnContext(ctx, "encode score cache entry failed", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
		s.logger.WarnContext(ctx, "score cache write failed", "operation", op, "key", key, "error", err)
	}
}

func encodeCacheEntry(source scores.ProviderName, data any) (cacheEntry, error) {
	raw, err := sonic.Marshal(data)
	if err != nil {
		return cacheEntry{}, fmt.Errorf("encode %s payload: %w", source, err)
	}
	return cacheEntry{Source: source, Data: raw}, nil
}

// CacheKey hashes the request parts so keys stay short and safe for every backend.
func CacheKey(op scores.Operation, parts ...string) string {
	sum := xxhash.Sum64String(strings.Join(parts, "\x1f"))
	return fmt.Sprintf("%s:%s:%016x", CacheKeyPrefix, op, sum)
}

func NormalizeSport(sport string) string {
	sport = strings.ToLower(strings.TrimSpace(sport))
	if sport == "" {
		return DefaultSport
	}
	return sport
}
