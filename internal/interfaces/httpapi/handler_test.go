package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/platform/cache"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
	"github.com/riskibarqy/sportscorex/internal/usecase"
)

type stubProvider struct {
	name      scores.ProviderName
	standings bool
	matches   []scores.Match
	rows      []scores.StandingRow
	liveCalls atomic.Int32
}

func (p *stubProvider) Name() scores.ProviderName { return p.name }

func (p *stubProvider) Supports(op scores.Operation) bool {
	return op == scores.OperationLive || (op == scores.OperationStandings && p.standings)
}

func (p *stubProvider) FetchLive(context.Context, string, string) ([]scores.Match, error) {
	p.liveCalls.Add(1)
	return p.matches, nil
}

func (p *stubProvider) FetchStandings(context.Context, string, string) ([]scores.StandingRow, error) {
	return p.rows, nil
}

type testEnvelope struct {
	APIVersion string         `json:"apiVersion"`
	Data       any            `json:"data"`
	Error      map[string]any `json:"error"`
}

func newTestRouter(t *testing.T, cfg RouterConfig, providers ...usecase.Provider) http.Handler {
	t.Helper()

	svc := usecase.NewScoresService(
		usecase.NewProviderRegistry(providers...),
		cache.NewStore(0),
		nil,
		usecase.ScoresServiceConfig{CacheEnabled: true},
		logging.NewNop(),
	)
	handler := NewHandler(svc, NewLiveHub([]string{"*"}, nil, logging.NewNop()), logging.NewNop())
	if cfg.CORSAllowedOrigins == nil {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	return NewRouter(handler, cfg, logging.NewNop())
}

func doRequest(t *testing.T, router http.Handler, method, target string, headers map[string]string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body testEnvelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body %q: %v", rec.Body.String(), err)
	}
	return rec, body
}

func TestGetLiveScores_ServesProviderThenCache(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		name: scores.ProviderTheSportsDB,
		matches: []scores.Match{{
			ID: "1", HomeTeam: "A", AwayTeam: "B", HomeScore: 2, AwayScore: 1,
			Status: "Live", League: "L", Date: "2025-01-01",
		}},
	}
	router := newTestRouter(t, RouterConfig{}, provider)

	rec, body := doRequest(t, router, http.MethodGet, "/v1/live-scores?sport=football", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(headerScoresSource); got != "thesportsdb" {
		t.Fatalf("expected source thesportsdb, got %q", got)
	}
	if got := rec.Header().Get(headerCache); got != "MISS" {
		t.Fatalf("expected cache MISS, got %q", got)
	}
	items, ok := body.Data.([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one match in data, got %#v", body.Data)
	}
	first, _ := items[0].(map[string]any)
	if first["home_team"] != "A" || first["status"] != "Live" {
		t.Fatalf("unexpected match payload %#v", first)
	}

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/live-scores?sport=football", nil)
	if got := rec.Header().Get(headerCache); got != "HIT" {
		t.Fatalf("expected cache HIT on second request, got %q", got)
	}
	if got := provider.liveCalls.Load(); got != 1 {
		t.Fatalf("expected one upstream call, got %d", got)
	}
}

func TestGetLiveScores_EmptyWhenNothingLive(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, RouterConfig{}, &stubProvider{name: scores.ProviderAPISports})

	rec, body := doRequest(t, router, http.MethodGet, "/v1/live-scores", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	items, ok := body.Data.([]any)
	if !ok || len(items) != 0 {
		t.Fatalf("expected empty data array, got %#v", body.Data)
	}
	if got := rec.Header().Get(headerScoresSource); got != "" {
		t.Fatalf("expected empty source, got %q", got)
	}
}

func TestGetStandings_RequiresLeague(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, RouterConfig{}, &stubProvider{name: scores.ProviderAPISports, standings: true})

	rec, body := doRequest(t, router, http.MethodGet, "/v1/standings?season=2024", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if got, _ := body.Error["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", body.Error["status"])
	}
}

func TestGetStandings_ReturnsRows(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		name:      scores.ProviderAPISports,
		standings: true,
		rows: []scores.StandingRow{{
			Rank: 1, Team: "Arsenal", Points: 30, Played: 12, Won: 9, Drawn: 3,
			GoalsFor: 25, GoalsAgainst: 8, GoalDifference: 17,
		}},
	}
	router := newTestRouter(t, RouterConfig{}, provider)

	rec, body := doRequest(t, router, http.MethodGet, "/v1/standings?league=39&season=2024", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	items, ok := body.Data.([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one row, got %#v", body.Data)
	}
	row, _ := items[0].(map[string]any)
	if row["team"] != "Arsenal" {
		t.Fatalf("unexpected row %#v", row)
	}
}

func TestListProviders(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, RouterConfig{},
		&stubProvider{name: scores.ProviderAPISports, standings: true},
		&stubProvider{name: scores.ProviderTheSportsDB},
	)

	rec, body := doRequest(t, router, http.MethodGet, "/v1/providers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	items, ok := body.Data.([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected two providers, got %#v", body.Data)
	}
	first, _ := items[0].(map[string]any)
	if first["name"] != "api_sports" {
		t.Fatalf("expected api_sports first, got %v", first["name"])
	}
	ops, _ := first["operations"].([]any)
	if len(ops) != 2 {
		t.Fatalf("expected api_sports to support two operations, got %v", ops)
	}
}

func TestPurgeCache_RequiresToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, RouterConfig{InternalJobToken: "secret"}, &stubProvider{name: scores.ProviderTheSportsDB})

	rec, _ := doRequest(t, router, http.MethodPost, "/v1/internal/cache/purge", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}

	rec, _ = doRequest(t, router, http.MethodPost, "/v1/internal/cache/purge?operation=bogus", map[string]string{"X-Internal-Job-Token": "secret"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown operation, got %d", rec.Code)
	}

	rec, body := doRequest(t, router, http.MethodPost, "/v1/internal/cache/purge?operation=live", map[string]string{"X-Internal-Job-Token": "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	data, _ := body.Data.(map[string]any)
	if data["operation"] != "live" {
		t.Fatalf("expected purged operation live, got %#v", body.Data)
	}
}

func TestPurgeCache_DropsCachedLiveScores(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		name:    scores.ProviderTheSportsDB,
		matches: []scores.Match{{ID: "1", HomeTeam: "A", AwayTeam: "B"}},
	}
	router := newTestRouter(t, RouterConfig{InternalJobToken: "secret"}, provider)

	doRequest(t, router, http.MethodGet, "/v1/live-scores", nil)
	doRequest(t, router, http.MethodPost, "/v1/internal/cache/purge", map[string]string{"X-Internal-Job-Token": "secret"})
	rec, _ := doRequest(t, router, http.MethodGet, "/v1/live-scores", nil)

	if got := rec.Header().Get(headerCache); got != "MISS" {
		t.Fatalf("expected cache MISS after purge, got %q", got)
	}
	if got := provider.liveCalls.Load(); got != 2 {
		t.Fatalf("expected two upstream calls, got %d", got)
	}
}

type recordingHTTPMetrics struct {
	routes []string
	codes  []int
}

func (m *recordingHTTPMetrics) HTTPRequest(route string, status int, _ time.Duration) {
	m.routes = append(m.routes, route)
	m.codes = append(m.codes, status)
}

func TestRouter_RecordsRoutePattern(t *testing.T) {
	t.Parallel()

	metrics := &recordingHTTPMetrics{}
	router := newTestRouter(t, RouterConfig{Metrics: metrics}, &stubProvider{name: scores.ProviderAPISports, standings: true})

	doRequest(t, router, http.MethodGet, "/v1/standings?league=39", nil)

	if len(metrics.routes) != 1 || metrics.routes[0] != "GET /v1/standings" || metrics.codes[0] != http.StatusOK {
		t.Fatalf("unexpected recorded metrics routes=%v codes=%v", metrics.routes, metrics.codes)
	}
}

func TestRouter_ClientRateLimit(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, RouterConfig{ClientRequestsPerMinute: 2}, &stubProvider{name: scores.ProviderAPISports})

	rec, _ := doRequest(t, router, http.MethodGet, "/v1/live-scores", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	rec, body := doRequest(t, router, http.MethodGet, "/v1/live-scores", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if got, _ := body.Error["status"].(string); got != "RESOURCE_EXHAUSTED" {
		t.Fatalf("expected RESOURCE_EXHAUSTED, got %v", body.Error["status"])
	}
}

func TestRouter_SwaggerDisabled(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, RouterConfig{SwaggerEnabled: false})
	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestRouter_OpenAPIDocumentsDataEnvelope(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, RouterConfig{SwaggerEnabled: true})
	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := strings.Count(rec.Body.String(), "renderers read `.data`"); got != 2 {
		t.Fatalf("expected live-scores and standings to document the data envelope, got %d mentions", got)
	}
}
