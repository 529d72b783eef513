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
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
)

type countingHubMetrics struct {
	connected    atomic.Int32
	disconnected atomic.Int32
}

func (m *countingHubMetrics) SubscriberConnected()    { m.connected.Add(1) }
func (m *countingHubMetrics) SubscriberDisconnected() { m.disconnected.Add(1) }

func dialHub(t *testing.T, hub *LiveHub, filter LiveFilter, initial []scores.Match) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, filter, initial)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial live hub: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readLiveMessage(t *testing.T, conn *websocket.Conn) liveMessage {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read live message: %v", err)
	}
	var msg liveMessage
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode live message: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestLiveHub_SendsInitialSnapshotThenPublishes(t *testing.T) {
	t.Parallel()

	metrics := &countingHubMetrics{}
	hub := NewLiveHub([]string{"*"}, metrics, logging.NewNop())
	filter := LiveFilter{Sport: "football", League: "39"}
	conn := dialHub(t, hub, filter, []scores.Match{{ID: "1", HomeTeam: "A", AwayTeam: "B"}})

	initial := readLiveMessage(t, conn)
	if initial.Type != liveMessageType || initial.Sport != "football" || initial.League != "39" {
		t.Fatalf("unexpected initial message %+v", initial)
	}
	if len(initial.Data) != 1 || initial.Data[0].ID != "1" {
		t.Fatalf("unexpected initial data %+v", initial.Data)
	}
	if hub.Count() != 1 || metrics.connected.Load() != 1 {
		t.Fatalf("expected one registered subscriber, got count=%d connected=%d", hub.Count(), metrics.connected.Load())
	}

	hub.PublishLive(context.Background(), "basketball", "", []scores.Match{{ID: "ignored", HomeTeam: "X", AwayTeam: "Y"}})
	hub.PublishLive(context.Background(), "football", "39", []scores.Match{{ID: "2", HomeTeam: "C", AwayTeam: "D", HomeScore: 1}})

	update := readLiveMessage(t, conn)
	if len(update.Data) != 1 || update.Data[0].ID != "2" || update.Data[0].HomeScore != 1 {
		t.Fatalf("expected the football:39 snapshot, got %+v", update.Data)
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
	waitFor(t, func() bool { return hub.Count() == 0 })
	if metrics.disconnected.Load() != 1 {
		t.Fatalf("expected one disconnect, got %d", metrics.disconnected.Load())
	}
}

func TestLiveHub_EmptyInitialSnapshotEncodesArray(t *testing.T) {
	t.Parallel()

	hub := NewLiveHub(nil, nil, logging.NewNop())
	conn := dialHub(t, hub, LiveFilter{Sport: "football"}, nil)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read initial message: %v", err)
	}
	if !strings.Contains(string(raw), `"data":[]`) {
		t.Fatalf("expected empty data array, got %s", raw)
	}
}

func TestLiveHub_DropsSlowSubscriber(t *testing.T) {
	t.Parallel()

	metrics := &countingHubMetrics{}
	hub := NewLiveHub(nil, metrics, logging.NewNop())
	sub := &liveSubscriber{
		id:     "slow",
		filter: LiveFilter{Sport: "football"},
		send:   make(chan []byte, 1),
	}
	sub.send <- []byte("backlog")
	if !hub.register(sub) {
		t.Fatalf("expected register to succeed")
	}

	hub.PublishLive(context.Background(), "football", "", nil)

	if hub.Count() != 0 {
		t.Fatalf("expected slow subscriber to be removed, got count=%d", hub.Count())
	}
	<-sub.send
	if _, ok := <-sub.send; ok {
		t.Fatalf("expected send channel to be closed")
	}
	if metrics.disconnected.Load() != 1 {
		t.Fatalf("expected one disconnect, got %d", metrics.disconnected.Load())
	}
}

func TestLiveHub_RunClosesSubscribersAndRejectsNewOnes(t *testing.T) {
	t.Parallel()

	hub := NewLiveHub(nil, nil, logging.NewNop())
	sub := &liveSubscriber{id: "a", filter: LiveFilter{Sport: "football"}, send: make(chan []byte, 1)}
	hub.register(sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if _, ok := <-sub.send; ok {
		t.Fatalf("expected send channel to be closed on shutdown")
	}
	if hub.register(&liveSubscriber{id: "b", send: make(chan []byte, 1)}) {
		t.Fatalf("expected register to fail after shutdown")
	}
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	check := originChecker([]string{"https://scores.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/v1/live-scores/stream", nil)
	if !check(req) {
		t.Fatalf("expected request without Origin to be allowed")
	}
	req.Header.Set("Origin", "https://scores.example.com")
	if !check(req) {
		t.Fatalf("expected configured origin to be allowed")
	}
	req.Header.Set("Origin", "https://evil.example.com")
	if check(req) {
		t.Fatalf("expected unconfigured origin to be rejected")
	}
}
