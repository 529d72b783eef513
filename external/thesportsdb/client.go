package thesportsdb

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
	DefaultBaseURL = "https://www.thesportsdb.com/api/v1/json"
	// FreeAPIKey is the public test key; it keeps this provider usable without credentials.
	FreeAPIKey    = "3"
	defaultStatus = "Live"
	defaultSport  = "Soccer"
)

var sportNames = map[string]string{
	"football":   "Soccer",
	"soccer":     "Soccer",
	"basketball": "Basketball",
	"tennis":     "Tennis",
}

type ClientConfig struct {
	HTTPClient       *http.Client
	BaseURL          string
	APIKey           string
	StandingsEnabled bool
	Timeout          time.Duration
	MaxRetries       int
	RateLimit        resilience.RateLimitConfig
	CircuitBreaker   resilience.CircuitBreakerConfig
	OnBreakerState   resilience.StateChangeFunc
	Logger           *logging.Logger
}

// Client is the free fallback provider. Live scores are always served;
// league tables only when StandingsEnabled is set.
type Client struct {
	http             *providerhttp.Client
	apiKey           string
	standingsEnabled bool
	logger           *logging.Logger
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
	if apiKey == "" {
		apiKey = FreeAPIKey
	}

	secrets := []string{}
	if apiKey != FreeAPIKey {
		secrets = append(secrets, apiKey)
	}

	return &Client{
		http: providerhttp.New(providerhttp.Config{
			Provider:       scores.ProviderTheSportsDB,
			BaseURL:        baseURL,
			Timeout:        cfg.Timeout,
			MaxRetries:     cfg.MaxRetries,
			Secrets:        secrets,
			RateLimit:      cfg.RateLimit,
			CircuitBreaker: cfg.CircuitBreaker,
			OnBreakerState: cfg.OnBreakerState,
			HTTPClient:     cfg.HTTPClient,
			Logger:         logger,
		}),
		apiKey:           apiKey,
		standingsEnabled: cfg.StandingsEnabled,
		logger:           logger,
	}
}

func (c *Client) Name() scores.ProviderName {
	return scores.ProviderTheSportsDB
}

func (c *Client) Supports(op scores.Operation) bool {
	switch op {
	case scores.OperationLive:
		return true
	case scores.OperationStandings:
		return c.standingsEnabled
	default:
		return false
	}
}

func (c *Client) FetchLive(ctx context.Context, sport, league string) ([]scores.Match, error) {
	path := "/" + url.PathEscape(c.apiKey) + "/livescore.php"
	root, err := c.http.GetObject(ctx, scores.OperationLive, path, url.Values{"s": {SportName(sport)}})
	if err != nil {
		return nil, err
	}

	league = strings.TrimSpace(league)
	items := providerhttp.Objects(root, "events")
	out := make([]scores.Match, 0, len(items))
	for _, item := range items {
		if league != "" && !matchesLeague(item, league) {
			continue
		}

		match := scores.Match{
			ID:        providerhttp.String(item, "idEvent"),
			HomeTeam:  providerhttp.String(item, "strHomeTeam"),
			AwayTeam:  providerhttp.String(item, "strAwayTeam"),
			HomeScore: providerhttp.IntOr(item, "intHomeScore", 0),
			AwayScore: providerhttp.IntOr(item, "intAwayScore", 0),
			Status:    providerhttp.FirstNonEmpty(providerhttp.String(item, "strStatus"), defaultStatus),
			Time:      providerhttp.String(item, "strProgress"),
			League:    providerhttp.String(item, "strLeague"),
			Date:      providerhttp.String(item, "dateEvent"),
		}
		if !match.Valid() {
			c.logger.DebugContext(ctx, "drop thesportsdb event without identity", "event_id", match.ID)
			continue
		}
		out = append(out, match)
	}
	return out, nil
}

func (c *Client) FetchStandings(ctx context.Context, league, season string) ([]scores.StandingRow, error) {
	if !c.standingsEnabled {
		return []scores.StandingRow{}, nil
	}

	query := url.Values{"l": {strings.TrimSpace(league)}}
	if season = strings.TrimSpace(season); season != "" {
		query.Set("s", season)
	}

	path := "/" + url.PathEscape(c.apiKey) + "/lookuptable.php"
	root, err := c.http.GetObject(ctx, scores.OperationStandings, path, query)
	if err != nil {
		return nil, err
	}

	items := providerhttp.Objects(root, "table")
	out := make([]scores.StandingRow, 0, len(items))
	for _, item := range items {
		row := scores.StandingRow{
			Rank:         providerhttp.IntOr(item, "intRank", 0),
			Team:         providerhttp.String(item, "strTeam"),
			Logo:         providerhttp.String(item, "strBadge"),
			Points:       providerhttp.IntOr(item, "intPoints", 0),
			Played:       providerhttp.IntOr(item, "intPlayed", 0),
			Won:          providerhttp.IntOr(item, "intWin", 0),
			Drawn:        providerhttp.IntOr(item, "intDraw", 0),
			Lost:         providerhttp.IntOr(item, "intLoss", 0),
			GoalsFor:     providerhttp.IntOr(item, "intGoalsFor", 0),
			GoalsAgainst: providerhttp.IntOr(item, "intGoalsAgainst", 0),
		}.Normalize()
		if !row.Valid() {
			c.logger.DebugContext(ctx, "drop thesportsdb table row", "team", row.Team, "rank", row.Rank)
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// SportName maps a query sport onto the provider's sport label.
func SportName(sport string) string {
	if name, ok := sportNames[strings.ToLower(strings.TrimSpace(sport))]; ok {
		return name
	}
	return defaultSport
}

func matchesLeague(item map[string]any, league string) bool {
	return providerhttp.String(item, "idLeague") == league ||
		strings.EqualFold(providerhttp.String(item, "strLeague"), league)
}
