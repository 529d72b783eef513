package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
	"github.com/riskibarqy/sportscorex/internal/usecase"
)

const (
	headerScoresSource = "X-Scores-Source"
	headerCache        = "X-Cache"
)

type Handler struct {
	scoresService *usecase.ScoresService
	liveHub       *LiveHub
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(scoresService *usecase.ScoresService, liveHub *LiveHub, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		scoresService: scoresService,
		liveHub:       liveHub,
		logger:        logger,
		validator:     validator.New(),
	}
}

type liveScoresQuery struct {
	Sport  string `validate:"omitempty,max=32"`
	League string `validate:"omitempty,max=64"`
}

type standingsQuery struct {
	League string `validate:"required,max=64"`
	Season string `validate:"omitempty,max=16"`
}

type purgeCacheQuery struct {
	Operation string `validate:"omitempty,oneof=live standings"`
}

type purgeCacheDTO struct {
	Operation string `json:"operation"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetLiveScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLiveScores")
	defer span.End()

	query := liveScoresQuery{
		Sport:  queryValue(r, "sport"),
		League: queryValue(r, "league"),
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.scoresService.LiveScores(ctx, query.Sport, query.League)
	if err != nil {
		h.logger.WarnContext(ctx, "get live scores failed", "sport", query.Sport, "league", query.League, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeScoresHeaders(w, result.Source, result.Cached)
	writeSuccess(ctx, w, http.StatusOK, json.RawMessage(result.Payload))
}

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStandings")
	defer span.End()

	query := standingsQuery{
		League: queryValue(r, "league"),
		Season: queryValue(r, "season"),
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.scoresService.Standings(ctx, query.League, query.Season)
	if err != nil {
		h.logger.WarnContext(ctx, "get standings failed", "league", query.League, "season", query.Season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeScoresHeaders(w, result.Source, result.Cached)
	writeSuccess(ctx, w, http.StatusOK, json.RawMessage(result.Payload))
}

func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListProviders")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.scoresService.Registry().Catalog())
}

func (h *Handler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PurgeCache")
	defer span.End()

	query := purgeCacheQuery{Operation: strings.ToLower(queryValue(r, "operation"))}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.scoresService.Purge(ctx, scores.Operation(query.Operation)); err != nil {
		h.logger.ErrorContext(ctx, "purge score cache failed", "operation", query.Operation, "error", err)
		writeError(ctx, w, err)
		return
	}

	operation := query.Operation
	if operation == "" {
		operation = "all"
	}
	writeSuccess(ctx, w, http.StatusOK, purgeCacheDTO{Operation: operation})
}

// StreamLiveScores upgrades to a websocket that receives the current live
// snapshot followed by every refresh the warmer publishes for the same query.
func (h *Handler) StreamLiveScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StreamLiveScores")
	defer span.End()

	if h.liveHub == nil {
		writeError(ctx, w, fmt.Errorf("%w: live stream is not enabled", usecase.ErrDependencyUnavailable))
		return
	}

	query := liveScoresQuery{
		Sport:  queryValue(r, "sport"),
		League: queryValue(r, "league"),
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	filter := LiveFilter{Sport: usecase.NormalizeSport(query.Sport), League: query.League}
	initial := []scores.Match{}
	result, err := h.scoresService.LiveScores(ctx, query.Sport, query.League)
	if err != nil {
		h.logger.WarnContext(ctx, "initial live snapshot failed", "sport", filter.Sport, "league", filter.League, "error", err)
	} else {
		initial = result.Matches
	}

	h.liveHub.Serve(w, r, filter, initial)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func writeScoresHeaders(w http.ResponseWriter, source scores.ProviderName, cached bool) {
	w.Header().Set(headerScoresSource, string(source))
	if cached {
		w.Header().Set(headerCache, "HIT")
		return
	}
	w.Header().Set(headerCache, "MISS")
}
