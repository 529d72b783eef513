package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
)

const (
	liveWriteWait      = 10 * time.Second
	livePongWait       = 60 * time.Second
	livePingPeriod     = (livePongWait * 9) / 10
	liveMaxMessageSize = 512
	liveSendBuffer     = 16

	liveMessageType = "live_scores"
)

// LiveFilter selects which snapshots a subscriber receives. Both fields are
// compared exactly, so they must already be normalized.
type LiveFilter struct {
	Sport  string
	League string
}

type LiveHubMetrics interface {
	SubscriberConnected()
	SubscriberDisconnected()
}

type noopLiveHubMetrics struct{}

func (noopLiveHubMetrics) SubscriberConnected()    {}
func (noopLiveHubMetrics) SubscriberDisconnected() {}

type liveMessage struct {
	Type      string         `json:"type"`
	Sport     string         `json:"sport"`
	League    string         `json:"league,omitempty"`
	Data      []scores.Match `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

type liveSubscriber struct {
	id          string
	filter      LiveFilter
	conn        *websocket.Conn
	send        chan []byte
	clientIP    string
	connectedAt time.Time
}

// LiveHub pushes live-score snapshots to websocket subscribers. Subscribers
// that cannot keep up are disconnected instead of slowing the publisher.
type LiveHub struct {
	mu          sync.RWMutex
	subscribers map[string]*liveSubscriber
	closed      bool

	upgrader websocket.Upgrader
	metrics  LiveHubMetrics
	logger   *logging.Logger
	now      func() time.Time
}

func NewLiveHub(allowedOrigins []string, metrics LiveHubMetrics, logger *logging.Logger) *LiveHub {
	if metrics == nil {
		metrics = noopLiveHubMetrics{}
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &LiveHub{
		subscribers: make(map[string]*liveSubscriber),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Run blocks until ctx is done and then disconnects every subscriber.
func (h *LiveHub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	h.closed = true
	subscribers := make([]*liveSubscriber, 0, len(h.subscribers))
	for id, sub := range h.subscribers {
		delete(h.subscribers, id)
		close(sub.send)
		subscribers = append(subscribers, sub)
	}
	h.mu.Unlock()

	for range subscribers {
		h.metrics.SubscriberDisconnected()
	}
	h.logger.Info("live hub stopped", "disconnected", len(subscribers))
}

func (h *LiveHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Serve upgrades the request and queues initial as the first message.
func (h *LiveHub) Serve(w http.ResponseWriter, r *http.Request, filter LiveFilter, initial []scores.Match) {
	ctx := r.Context()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(ctx, "live stream upgrade failed", "error", err)
		return
	}

	sub := &liveSubscriber{
		id:          uuid.NewString(),
		filter:      filter,
		conn:        conn,
		send:        make(chan []byte, liveSendBuffer),
		clientIP:    resolveClientIP(r),
		connectedAt: h.now(),
	}
	if msg, err := h.encode(filter, initial); err == nil {
		sub.send <- msg
	} else {
		h.logger.WarnContext(ctx, "encode initial live snapshot failed", "error", err)
	}

	if !h.register(sub) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			h.now().Add(liveWriteWait))
		_ = conn.Close()
		return
	}

	h.logger.InfoContext(ctx, "live subscriber connected",
		"subscriber_id", sub.id,
		"sport", filter.Sport,
		"league", filter.League,
		"client_ip", sub.clientIP,
	)

	go h.writePump(sub)
	go h.readPump(sub)
}

// PublishLive implements usecase.LiveSnapshotPublisher.
func (h *LiveHub) PublishLive(ctx context.Context, sport, league string, matches []scores.Match) {
	filter := LiveFilter{Sport: sport, League: league}
	msg, err := h.encode(filter, matches)
	if err != nil {
		h.logger.WarnContext(ctx, "encode live snapshot failed", "sport", sport, "league", league, "error", err)
		return
	}

	delivered := 0
	var slow []*liveSubscriber

	h.mu.RLock()
	for _, sub := range h.subscribers {
		if sub.filter != filter {
			continue
		}
		select {
		case sub.send <- msg:
			delivered++
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.logger.WarnContext(ctx, "dropping slow live subscriber", "subscriber_id", sub.id, "client_ip", sub.clientIP)
		h.unregister(sub)
	}

	if delivered > 0 || len(slow) > 0 {
		h.logger.DebugContext(ctx, "live snapshot published",
			"sport", sport,
			"league", league,
			"delivered", delivered,
			"dropped", len(slow),
		)
	}
}

func (h *LiveHub) register(sub *liveSubscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.subscribers[sub.id] = sub
	h.metrics.SubscriberConnected()
	return true
}

func (h *LiveHub) unregister(sub *liveSubscriber) {
	h.mu.Lock()
	current, ok := h.subscribers[sub.id]
	if ok && current == sub {
		delete(h.subscribers, sub.id)
		close(sub.send)
	}
	h.mu.Unlock()

	if ok && current == sub {
		h.metrics.SubscriberDisconnected()
		h.logger.Info("live subscriber disconnected",
			"subscriber_id", sub.id,
			"connected_for", h.now().Sub(sub.connectedAt).String(),
		)
	}
}

func (h *LiveHub) writePump(sub *liveSubscriber) {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(h.now().Add(liveWriteWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister(sub)
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(h.now().Add(liveWriteWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(sub)
				return
			}
		}
	}
}

// readPump only services control frames; subscriptions are fixed at connect time.
func (h *LiveHub) readPump(sub *liveSubscriber) {
	defer h.unregister(sub)

	sub.conn.SetReadLimit(liveMaxMessageSize)
	_ = sub.conn.SetReadDeadline(h.now().Add(livePongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(h.now().Add(livePongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("live subscriber read failed", "subscriber_id", sub.id, "error", err)
			}
			return
		}
	}
}

func (h *LiveHub) encode(filter LiveFilter, matches []scores.Match) ([]byte, error) {
	if matches == nil {
		matches = []scores.Match{}
	}
	return sonic.Marshal(liveMessage{
		Type:      liveMessageType,
		Sport:     filter.Sport,
		League:    filter.League,
		Data:      matches,
		Timestamp: h.now().UTC(),
	})
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowAll := false
	allowMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		candidate := strings.TrimSpace(origin)
		if candidate == "*" {
			allowAll = true
			continue
		}
		if candidate != "" {
			allowMap[candidate] = struct{}{}
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" || allowAll {
			return true
		}
		_, ok := allowMap[origin]
		return ok
	}
}
