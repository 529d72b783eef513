package footballapi

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
	DefaultBaseURL  = "https://api.football-api.com/v1"
	standingsTotal  = "TOTAL"
	authTokenHeader = "X-Auth-Token"
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

// Client speaks the football-data style match and competition feed.
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
	apiKey := strings.TrimSpace(cfg.APIKey)

	return &Client{
		http: providerhttp.New(providerhttp.Config{
			Provider:       scores.ProviderFootballAPI,
			BaseURL:        baseURL,
			Timeout:        cfg.Timeout,
			MaxRetries:     cfg.MaxRetries,
			Headers:        map[string]string{authTokenHeader: apiKey},
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
	return scores.ProviderFootballAPI
}

func (c *Client) Supports(op scores.Operation) bool {
	return op.Valid()
}

func (c *Client) FetchLive(ctx context.Context, sport, league string) ([]scores.Match, error) {
	switch strings.ToLower(strings.TrimSpace(sport)) {
	case "", "football", "soccer":
	default:
		return []scores.Match{}, nil
	}

	query := url.Values{"status": {"LIVE"}}
	if league = strings.TrimSpace(league); league != "" {
		query.Set("competitions", league)
	}

	root, err := c.http.GetObject(ctx, scores.OperationLive, "/matches", query)
	if err != nil {
		return nil, err
	}

	items := providerhttp.Objects(root, "matches")
	out := make([]scores.Match, 0, len(items))
	for _, item := range items {
		match := scores.Match{
			ID:        providerhttp.String(item, "id"),
			HomeTeam:  providerhttp.String(item, "homeTeam.name"),
			AwayTeam:  providerhttp.String(item, "awayTeam.name"),
			HomeScore: providerhttp.IntOr(item, "score.fullTime.home", 0),
			AwayScore: providerhttp.IntOr(item, "score.fullTime.away", 0),
			Status:    providerhttp.String(item, "status"),
			Time:      providerhttp.String(item, "minute"),
			League:    providerhttp.String(item, "competition.name"),
			Date:      providerhttp.String(item, "utcDate"),
		}
		if !match.Valid() {
			c.logger.DebugContext(ctx, "drop football_api match without identity", "match_id", match.ID)
			continue
		}
		out = append(out, match)
	}
	return out, nil
}

func (c *Client) FetchStandings(ctx context.Context, league, season string) ([]scores.StandingRow, error) {
	query := url.Values{}
	if season = strings.TrimSpace(season); season != "" {
		query.Set("season", season)
	}

	path := "/competitions/" + url.PathEscape(strings.TrimSpace(league)) + "/standings"
	root, err := c.http.GetObject(ctx, scores.OperationStandings, path, query)
	if err != nil {
		return nil, err
	}

	table := selectTotalTable(providerhttp.Objects(root, "standings"))
	out := make([]scores.StandingRow, 0, len(table))
	for _, item := range table {
		row := scores.StandingRow{
			Rank:         providerhttp.IntOr(item, "position", 0),
			Team:         providerhttp.String(item, "team.name"),
			Logo:         providerhttp.String(item, "team.crest"),
			Points:       providerhttp.IntOr(item, "points", 0),
			Played:       providerhttp.IntOr(item, "playedGames", 0),
			Won:          providerhttp.IntOr(item, "won", 0),
			Drawn:        providerhttp.IntOr(item, "draw", 0),
			Lost:         providerhttp.IntOr(item, "lost", 0),
			GoalsFor:     providerhttp.IntOr(item, "goalsFor", 0),
			GoalsAgainst: providerhttp.IntOr(item, "goalsAgainst", 0),
		}.Normalize()
		if !row.Valid() {
			c.logger.DebugContext(ctx, "drop football_api standing row", "team", row.Team, "position", row.Rank)
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// selectTotalTable prefers the overall table over home/away splits.
func selectTotalTable(groups []map[string]any) []map[string]any {
	if len(groups) == 0 {
		return nil
	}
	for _, group := range groups {
		if strings.EqualFold(providerhttp.String(group, "type"), standingsTotal) {
			return providerhttp.Objects(group, "table")
		}
	}
	return providerhttp.Objects(groups[0], "table")
}
