package providerhttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/platform/resilience"
	"github.com/riskibarqy/sportscorex/internal/usecase"
)

func newTestClient(serverURL string, cfg Config) *Client {
	cfg.Provider = scores.ProviderAPISports
	cfg.BaseURL = serverURL
	cfg.HTTPClient = &http.Client{Timeout: 2 * time.Second}
	return New(cfg)
}

func TestClient_GetObjectSendsHeadersAndDecodes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-rapidapi-key"); got != "secret-key" {
			t.Errorf("expected credential header, got %q", got)
		}
		if r.URL.Path != "/fixtures" || r.URL.Query().Get("live") != "all" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"response":[{"fixture":{"id":1}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, Config{Headers: map[string]string{"x-rapidapi-key": "secret-key"}})
	root, err := client.GetObject(context.Background(), scores.OperationLive, "/fixtures", url.Values{"live": {"all"}})
	if err != nil {
		t.Fatalf("get object: %v", err)
	}
	if got := String(root, "response.0.fixture.id"); got != "1" {
		t.Fatalf("expected fixture id 1, got %q", got)
	}
}

func TestClient_GetObjectNonObjectRootIsEmpty(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer server.Close()

	root, err := newTestClient(server.URL, Config{}).GetObject(context.Background(), scores.OperationLive, "/x", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if root != nil {
		t.Fatalf("expected nil root, got %v", root)
	}
}

func TestClient_GetObjectNon2xxIsUpstreamErrorWithRedaction(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"bad key secret-key"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, Config{Secrets: []string{"secret-key"}})
	_, err := client.GetObject(context.Background(), scores.OperationStandings, "/standings", nil)
	if err == nil {
		t.Fatalf("expected error")
	}

	var upstream *usecase.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected upstream error, got %T", err)
	}
	if upstream.StatusCode != http.StatusForbidden || upstream.Operation != scores.OperationStandings {
		t.Fatalf("unexpected upstream error fields: %+v", upstream)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("expected secret to be redacted: %s", err.Error())
	}
	if !errors.Is(err, usecase.ErrUpstream) {
		t.Fatalf("expected errors.Is ErrUpstream")
	}
}

func TestClient_GetObjectInvalidJSONIsUpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, Config{}).GetObject(context.Background(), scores.OperationLive, "/x", nil)
	if !usecase.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestClient_BreakerOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL, Config{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	for i := 0; i < 3; i++ {
		_, _ = client.GetObject(context.Background(), scores.OperationLive, "/x", nil)
	}

	if got := hits.Load(); got != 2 {
		t.Fatalf("expected breaker to stop upstream calls after 2 failures, got %d", got)
	}
	_, err := client.GetObject(context.Background(), scores.OperationLive, "/x", nil)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, Config{
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute},
	})
	for i := 0; i < 3; i++ {
		_, _ = client.GetObject(context.Background(), scores.OperationLive, "/x", nil)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected every 404 to reach upstream, got %d", got)
	}
	if state := client.BreakerState(); state != resilience.CircuitStateClosed {
		t.Fatalf("expected closed breaker, got %s", state)
	}
}

func TestClient_CancelledCallerDoesNotFailSharedRequest(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }

	started := make(chan struct{}, 1)
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		started <- struct{}{}
		<-release
		_, _ = w.Write([]byte(`{"response":[{"fixture":{"id":7}}]}`))
	}))
	defer server.Close()
	defer unblock()

	client := newTestClient(server.URL, Config{})

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := client.GetObject(firstCtx, scores.OperationLive, "/fixtures", url.Values{"live": {"all"}})
		firstErr <- err
	}()
	<-started

	cancel()
	err := <-firstErr
	if !usecase.IsUpstream(err) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled caller to get a wrapped cancellation, got %v", err)
	}

	type objectOutcome struct {
		root map[string]any
		err  error
	}
	second := make(chan objectOutcome, 1)
	go func() {
		root, err := client.GetObject(context.Background(), scores.OperationLive, "/fixtures", url.Values{"live": {"all"}})
		second <- objectOutcome{root: root, err: err}
	}()
	time.Sleep(20 * time.Millisecond)
	unblock()

	got := <-second
	if got.err != nil {
		t.Fatalf("expected waiting caller to succeed, got %v", got.err)
	}
	if id := String(got.root, "response.0.fixture.id"); id != "7" {
		t.Fatalf("expected fixture id 7, got %q", id)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("expected one upstream request, got %d", n)
	}
	if state := client.BreakerState(); state != resilience.CircuitStateClosed {
		t.Fatalf("expected breaker to stay closed, got %v", state)
	}
}
