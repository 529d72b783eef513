package footballapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		HTTPClient: &http.Client{Timeout: 2 * time.Second},
		BaseURL:    server.URL,
		APIKey:     "token-1",
	})
}

func TestClient_FetchLive(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Auth-Token") != "token-1" {
			t.Errorf("expected auth token header")
		}
		if r.URL.Path != "/matches" || r.URL.Query().Get("status") != "LIVE" || r.URL.Query().Get("competitions") != "PL" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"matches":[
			{"id":501,"utcDate":"2025-03-01T15:00:00Z","status":"IN_PLAY","minute":"58",
			 "competition":{"name":"Premier League"},
			 "homeTeam":{"name":"Arsenal FC"},"awayTeam":{"name":"Chelsea FC"},
			 "score":{"fullTime":{"home":1,"away":1}}},
			{"id":502,"status":"IN_PLAY","homeTeam":{},"awayTeam":{"name":"Leeds"}}
		]}`))
	})

	matches, err := client.FetchLive(context.Background(), "", "PL")
	if err != nil {
		t.Fatalf("fetch live: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	got := matches[0]
	if got.ID != "501" || got.HomeTeam != "Arsenal FC" || got.HomeScore != 1 || got.AwayScore != 1 {
		t.Fatalf("unexpected match %+v", got)
	}
	if got.Time != "58" || got.League != "Premier League" || got.State() != scores.StatusLive {
		t.Fatalf("unexpected match metadata %+v", got)
	}
}

func TestClient_FetchStandingsPrefersTotalTable(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/competitions/PL/standings" || r.URL.Query().Get("season") != "2024" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"standings":[
			{"type":"HOME","table":[{"position":1,"team":{"name":"Home Leaders"},"points":40}]},
			{"type":"TOTAL","table":[
				{"position":1,"team":{"name":"Liverpool FC","crest":"https://crests/64.png"},"playedGames":29,
				 "won":21,"draw":7,"lost":1,"points":70,"goalsFor":69,"goalsAgainst":27,"goalDifference":0}
			]}
		]}`))
	})

	rows, err := client.FetchStandings(context.Background(), "PL", "2024")
	if err != nil {
		t.Fatalf("fetch standings: %v", err)
	}
	if len(rows) != 1 || rows[0].Team != "Liverpool FC" {
		t.Fatalf("expected total table row, got %+v", rows)
	}
	if rows[0].GoalDifference != 42 || rows[0].Logo != "https://crests/64.png" {
		t.Fatalf("unexpected normalized row %+v", rows[0])
	}
}

func TestClient_FetchStandingsUnauthorizedIsUpstream(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token-1 is invalid"}`))
	})

	_, err := client.FetchStandings(context.Background(), "PL", "")
	if !usecase.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestSelectTotalTableFallsBackToFirstGroup(t *testing.T) {
	t.Parallel()

	groups := []map[string]any{
		{"type": "HOME", "table": []any{map[string]any{"position": float64(1)}}},
	}
	if rows := selectTotalTable(groups); len(rows) != 1 {
		t.Fatalf("expected first group's table, got %d rows", len(rows))
	}
	if rows := selectTotalTable(nil); rows != nil {
		t.Fatalf("expected nil for no groups")
	}
}
