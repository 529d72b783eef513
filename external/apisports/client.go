package apisports

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/riskibarqy/sportscorex/external/providerhttp"
	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
	"github.com/riskibarqy/sportscorex/internal/platform/resilience"
)

const (
	DefaultBaseURL = "https://v3.football.api-sports.io"
	defaultHost    = "v3.football.api-sports.io"
	defaultStatus  = "NS"
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	RateLimit      resilience.RateLimitConfig
	CircuitBreaker resilience.CircuitBreakerConfig
	OnBreakerState resilience.StateChangeFunc
	Logger         *logging.Logger
}

// Client adapts the API-Football v3 feed. Only football is served.
type Client struct {
	http   *providerhttp.Client
	logger *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	host := defaultHost
	if parsed, err := url.Parse(baseURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	apiKey := strings.TrimSpace(cfg.APIKey)

	return &Client{
		http: providerhttp.New(providerhttp.Config{
			Provider:   scores.ProviderAPISports,
			BaseURL:    baseURL,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			Headers: map[string]string{
				"x-rapidapi-key":  apiKey,
				"x-rapidapi-host": host,
			},
			Secrets:        []string{apiKey},
			RateLimit:      cfg.RateLimit,
			CircuitBreaker: cfg.CircuitBreaker,
			OnBreakerState: cfg.OnBreakerState,
			HTTPClient:     cfg.HTTPClient,
			Logger:         logger,
		}),
		logger: logger,
	}
}

func (c *Client) Name() scores.ProviderName {
	return scores.ProviderAPISports
}

func (c *Client) Supports(op scores.Operation) bool {
	return op.Valid()
}

func (c *Client) FetchLive(ctx context.Context, sport, league string) ([]scores.Match, error) {
	if !supportsSport(sport) {
		c.logger.DebugContext(ctx, "api_sports skips unsupported sport", "sport", sport)
		return []scores.Match{}, nil
	}

	query := url.Values{"live": {"all"}}
	if league = strings.TrimSpace(league); league != "" {
		query.Set("league", league)
	}

	root, err := c.http.GetObject(ctx, scores.OperationLive, "/fixtures", query)
	if err != nil {
		return nil, err
	}
	return c.parseLive(ctx, root), nil
}

func (c *Client) FetchStandings(ctx context.Context, league, season string) ([]scores.StandingRow, error) {
	query := url.Values{"league": {strings.TrimSpace(league)}}
	if season = strings.TrimSpace(season); season != "" {
		query.Set("season", season)
	}

	root, err := c.http.GetObject(ctx, scores.OperationStandings, "/standings", query)
	if err != nil {
		return nil, err
	}
	return c.parseStandings(ctx, root), nil
}

func (c *Client) parseLive(ctx context.Context, root map[string]any) []scores.Match {
	items := providerhttp.Objects(root, "response")
	out := make([]scores.Match, 0, len(items))
	for _, item := range items {
		match := scores.Match{
			ID:        providerhttp.String(item, "fixture.id"),
			HomeTeam:  providerhttp.String(item, "teams.home.name"),
			AwayTeam:  providerhttp.String(item, "teams.away.name"),
			HomeScore: providerhttp.IntOr(item, "goals.home", 0),
			AwayScore: providerhttp.IntOr(item, "goals.away", 0),
			Status:    providerhttp.FirstNonEmpty(providerhttp.String(item, "fixture.status.short"), defaultStatus),
			Time:      providerhttp.String(item, "fixture.status.elapsed"),
			League:    providerhttp.String(item, "league.name"),
			Date:      providerhttp.String(item, "fixture.date"),
		}
		if !match.Valid() {
			c.logger.DebugContext(ctx, "drop api_sports fixture without identity", "fixture_id", match.ID)
			continue
		}
		out = append(out, match)
	}
	return out
}

func (c *Client) parseStandings(ctx context.Context, root map[string]any) []scores.StandingRow {
	items := providerhttp.Objects(root, "response.0.league.standings.0")
	out := make([]scores.StandingRow, 0, len(items))
	for _, item := range items {
		row := scores.StandingRow{
			Rank:         providerhttp.IntOr(item, "rank", 0),
			Team:         providerhttp.String(item, "team.name"),
			Logo:         providerhttp.String(item, "team.logo"),
			Points:       providerhttp.IntOr(item, "points", 0),
			Played:       providerhttp.IntOr(item, "all.played", 0),
			Won:          providerhttp.IntOr(item, "all.win", 0),
			Drawn:        providerhttp.IntOr(item, "all.draw", 0),
			Lost:         providerhttp.IntOr(item, "all.lose", 0),
			GoalsFor:     providerhttp.IntOr(item, "all.goals.for", 0),
			GoalsAgainst: providerhttp.IntOr(item, "all.goals.against", 0),
		}.Normalize()
		if !row.Valid() {
			c.logger.DebugContext(ctx, "drop api_sports standing row", "team", row.Team, "rank", row.Rank)
			continue
		}
		out = append(out, row)
	}
	return out
}

func supportsSport(sport string) bool {
	switch strings.ToLower(strings.TrimSpace(sport)) {
	case "", "football", "soccer":
		return true
	default:
		return false
	}
}
