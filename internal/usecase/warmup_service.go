package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/sportscorex/internal/domain/scores"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
)

const defaultWarmupWorkers = 4

// LiveTarget identifies one live-scores query kept warm by the scheduler.
type LiveTarget struct {
	Sport  string
	League string
}

func (t LiveTarget) String() string {
	return t.Sport + ":" + t.League
}

// ParseLiveTargets reads "sport:league" items; league may be empty.
func ParseLiveTargets(items []string) ([]LiveTarget, error) {
	out := make([]LiveTarget, 0, len(items))
	seen := make(map[LiveTarget]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		sport, league, _ := strings.Cut(item, ":")
		if strings.TrimSpace(sport) == "" {
			return nil, fmt.Errorf("%w: warmup target %q has no sport", ErrInvalidInput, item)
		}
		target := LiveTarget{Sport: NormalizeSport(sport), League: strings.TrimSpace(league)}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out, nil
}

// LiveSnapshotPublisher receives each refreshed live-score snapshot.
type LiveSnapshotPublisher interface {
	PublishLive(ctx context.Context, sport, league string, matches []scores.Match)
}

type noopLiveSnapshotPublisher struct{}

func (noopLiveSnapshotPublisher) PublishLive(context.Context, string, string, []scores.Match) {}

type WarmupRunResult struct {
	Targets      int
	Refreshed    int
	Failed       int
	TotalMatches int
	Duration     time.Duration
}

type taskPool interface {
	Submit(task func()) error
	Release()
}

func newAntsPool(size int) (taskPool, error) {
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

type WarmupService struct {
	scores    *ScoresService
	publisher LiveSnapshotPublisher
	targets   []LiveTarget
	interval  time.Duration
	workers   int
	logger    *logging.Logger
	newPool   func(size int) (taskPool, error)
}

func NewWarmupService(
	scoresSvc *ScoresService,
	publisher LiveSnapshotPublisher,
	targets []LiveTarget,
	interval time.Duration,
	workers int,
	logger *logging.Logger,
) *WarmupService {
	if publisher == nil {
		publisher = noopLiveSnapshotPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if workers < 1 {
		workers = defaultWarmupWorkers
	}
	if interval <= 0 {
		interval = DefaultLiveTTL / 2
	}

	return &WarmupService{
		scores:    scoresSvc,
		publisher: publisher,
		targets:   append([]LiveTarget(nil), targets...),
		interval:  interval,
		workers:   workers,
		logger:    logger,
		newPool:   newAntsPool,
	}
}

func (s *WarmupService) Enabled() bool {
	return s != nil && s.scores != nil && len(s.targets) > 0
}

// Run refreshes every target once per interval until ctx is done.
func (s *WarmupService) Run(ctx context.Context) {
	if !s.Enabled() {
		s.logger.Info("live warmup disabled", "reason", "no targets")
		return
	}

	s.logger.Info("live warmup started", "targets", len(s.targets), "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.WarnContext(ctx, "live warmup run failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("live warmup stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *WarmupService) RunOnce(ctx context.Context) (WarmupRunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WarmupService.RunOnce")
	defer span.End()

	started := time.Now()
	result := WarmupRunResult{Targets: len(s.targets)}
	if len(s.targets) == 0 {
		return result, nil
	}

	pool, err := s.newPool(min(s.workers, len(s.targets)))
	if err != nil {
		return result, fmt.Errorf("create warmup pool: %w", err)
	}
	defer pool.Release()

	var refreshed atomic.Int32
	var failed atomic.Int32
	var totalMatches atomic.Int32
	failures := make(chan string, len(s.targets))

	var workers sync.WaitGroup
	for _, target := range s.targets {
		target := target
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			res, err := s.scores.RefreshLive(ctx, target.Sport, target.League)
			if err != nil {
				failed.Add(1)
				failures <- target.String()
				s.logger.WarnContext(ctx, "refresh live target failed", "target", target.String(), "error", err)
				return
			}

			refreshed.Add(1)
			totalMatches.Add(int32(len(res.Matches)))
			s.publisher.PublishLive(ctx, res.Sport, res.League, res.Matches)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return result, fmt.Errorf("submit warmup target %s: %w", target.String(), err)
		}
	}

	workers.Wait()
	close(failures)

	failedTargets := make([]string, 0, len(s.targets))
	for target := range failures {
		failedTargets = append(failedTargets, target)
	}
	sort.Strings(failedTargets)

	result.Refreshed = int(refreshed.Load())
	result.Failed = int(failed.Load())
	result.TotalMatches = int(totalMatches.Load())
	result.Duration = time.Since(started)

	s.logger.DebugContext(ctx, "live warmup run finished",
		"targets", result.Targets,
		"refreshed", result.Refreshed,
		"failed", result.Failed,
		"failed_targets", failedTargets,
		"matches", result.TotalMatches,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result, nil
}
