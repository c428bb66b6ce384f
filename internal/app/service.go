// Package service wires capture, storage and chain reconstruction into the
// operations the HTTP API and the CLI expose.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	eventqueue "github.com/okian/rinkline/internal/adapters/mq/queue"
	workerpool "github.com/okian/rinkline/internal/adapters/mq/worker"
	"github.com/okian/rinkline/internal/adapters/repository"
	"github.com/okian/rinkline/internal/domain/capture"
	"github.com/okian/rinkline/internal/domain/chain"
	"github.com/okian/rinkline/internal/domain/dedupe"
	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/internal/domain/rink"
	"github.com/okian/rinkline/internal/domain/types"
	"github.com/okian/rinkline/pkg/logger"
	"github.com/okian/rinkline/pkg/metrics"
)

// session is one event being captured. Its mutex serialises placements.
type session struct {
	mu      sync.Mutex
	id      string
	event   model.Event
	created time.Time
}

// Service implements the API dependencies for event capture and analysis.
type Service struct {
	mu sync.RWMutex

	// Core components
	store         repository.Store
	ownsStore     bool
	deduper       dedupe.Deduper
	eventQueue    eventqueue.Queue
	workerPool    *workerpool.Pool
	linker        *capture.Linker
	matcher       rink.FaceoffMatcher
	reconstructor *chain.Reconstructor

	sessionsMu sync.Mutex
	sessions   map[string]*session

	// Configuration
	dbPath           string
	workerCount      int
	queueSize        int
	dedupeSize       int
	maxPoolSize      int
	maxChainLength   int
	analysisWorkers  int
	faceoffTolerance float64
	orientation      rink.Orientation
	rules            capture.SlotRules

	// State
	started bool

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:         make(map[string]*session),
		dbPath:           "rinkline.db",
		workerCount:      runtime.NumCPU(),
		queueSize:        10_000,
		dedupeSize:       50_000,
		maxPoolSize:      5_000,
		maxChainLength:   chain.DefaultMaxLength,
		analysisWorkers:  runtime.NumCPU(),
		faceoffTolerance: rink.DefaultFaceoffTolerance,
		orientation:      rink.Orientation{HomeAttacksRightInPeriod1: true},
		rules:            capture.DefaultSlotRules(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.matcher = rink.NewFaceoffMatcher(rink.StandardFaceoffDots(), s.faceoffTolerance)
	s.linker = capture.NewLinker(
		capture.WithSlotRules(s.rules),
		capture.WithFaceoffMatcher(s.matcher),
		capture.WithOrientation(s.orientation),
	)
	s.reconstructor = chain.NewReconstructor(chain.WithMaxLength(s.maxChainLength))
	return s
}

// Start opens the store and launches the persistence workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting capture service")

	if s.store == nil {
		store, err := repository.Open(ctx, s.dbPath)
		if err != nil {
			return fmt.Errorf("open event store: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.store,
		workerpool.WithFailureHandler(s.onPersistFailure),
	)
	// Workers outlive the request that started the service; Stop drains them.
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "capture service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxPoolSize", s.maxPoolSize),
		logger.Int("maxChainLength", s.maxChainLength),
		logger.String("directionRule", s.orientation.Rule.String()),
		logger.Any("slotRuleTypes", s.rules.EventTypes()),
	)
	return nil
}

// Stop drains pending events into the store and closes it.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping capture service")

	var errs []error
	if err := s.workerPool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event store: %w", err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "capture service stopped", logger.Int64("persisted", s.workerPool.Processed()))
	return errors.Join(errs...)
}

// onPersistFailure forgets the key of an event the workers gave up on,
// so the same event can be committed again.
func (s *Service) onPersistFailure(ctx context.Context, ev model.Event, _ error) {
	s.deduper.Unrecord(ctx, ev.EventKey)
	metrics.RecordCommit("persist_failed")
}

// StartCapture opens a capture session for draft. Positions already on the
// draft are kept; the event key is assigned on commit when empty.
func (s *Service) StartCapture(ctx context.Context, draft model.Event) (types.CaptureView, error) {
	ev, err := normalizeDraft(draft)
	if err != nil {
		return types.CaptureView{}, err
	}

	sess := &session{id: uuid.NewString(), event: ev, created: time.Now()}
	s.sessionsMu.Lock()
	s.sessions[sess.id] = sess
	active := len(s.sessions)
	s.sessionsMu.Unlock()

	metrics.UpdateActiveSessions(active)
	s.log().Debug(ctx, "capture started",
		logger.String("session", sess.id),
		logger.String("game_id", ev.GameID),
		logger.String("event_type", string(ev.Type)),
	)
	return types.CaptureView{ID: sess.id, Event: ev.Clone()}, nil
}

// Place records one coordinate on the session's event.
func (s *Service) Place(ctx context.Context, id string, raw rink.CanvasPosition, target capture.Target, ref *model.PlayerRef) (types.Placement, error) {
	sess, err := s.session(id)
	if err != nil {
		return types.Placement{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	ev, out, err := s.linker.Place(sess.event, raw, target, ref)
	if err != nil {
		metrics.RecordPlacement(string(target), "no_target")
		metrics.RecordErrorByComponent("capture", "no_target")
		s.log().Warn(ctx, "placement rejected", logger.String("session", id), logger.Error(err))
		return types.Placement{}, err
	}
	sess.event = ev

	metrics.RecordPlacement(string(target), "ok")
	res := types.Placement{Event: ev.Clone(), Slot: out.Slot, Snapped: out.Snapped, Linked: out.Linked}
	if out.Snapped {
		res.Dot = out.Dot.Name
		metrics.RecordFaceoffSnap(out.Dot.Name)
	}
	s.log().Debug(ctx, "coordinate placed",
		logger.String("session", id),
		logger.String("target", string(target)),
		logger.Int("slot", out.Slot),
		logger.Bool("snapped", out.Snapped),
		logger.Int("linked", len(out.Linked)),
	)
	return res, nil
}

// Capture returns the current state of a session.
func (s *Service) Capture(_ context.Context, id string) (types.CaptureView, error) {
	sess, err := s.session(id)
	if err != nil {
		return types.CaptureView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return types.CaptureView{ID: sess.id, Event: sess.event.Clone()}, nil
}

// Discard drops a session without committing it.
func (s *Service) Discard(ctx context.Context, id string) error {
	s.sessionsMu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	active := len(s.sessions)
	s.sessionsMu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	metrics.UpdateActiveSessions(active)
	s.log().Debug(ctx, "capture discarded", logger.String("session", id))
	return nil
}

// Commit submits the session's event for persistence and closes the session.
// On ErrBackpressure the session stays open so the caller can retry.
func (s *Service) Commit(ctx context.Context, id string) (model.Event, error) {
	sess, err := s.session(id)
	if err != nil {
		return model.Event{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.event.EventKey == "" {
		sess.event.EventKey = uuid.NewString()
	}
	ev := sess.event.Clone()
	if err := s.Ingest(ctx, ev); err != nil {
		return model.Event{}, err
	}

	s.sessionsMu.Lock()
	delete(s.sessions, id)
	active := len(s.sessions)
	s.sessionsMu.Unlock()
	metrics.UpdateActiveSessions(active)

	s.log().Info(ctx, "event committed",
		logger.String("event_key", ev.EventKey),
		logger.String("game_id", ev.GameID),
		logger.String("event_type", string(ev.Type)),
		logger.Int("puck_points", len(ev.PuckPositions)),
	)
	return ev, nil
}

// Ingest queues a complete event for persistence. Keys already committed
// are rejected with ErrDuplicateEvent.
func (s *Service) Ingest(ctx context.Context, ev model.Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return ErrNotStarted
	}
	if ev.EventKey == "" {
		return fmt.Errorf("%w: event key is required", ErrInvalidDraft)
	}
	ev, err := normalizeDraft(ev)
	if err != nil {
		return err
	}

	if s.deduper.SeenAndRecord(ctx, ev.EventKey) {
		metrics.RecordCommit("duplicate")
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, ev.EventKey)
	}
	if err := s.eventQueue.Enqueue(ctx, ev); err != nil {
		s.deduper.Unrecord(ctx, ev.EventKey)
		switch {
		case errors.Is(err, eventqueue.ErrFull):
			metrics.RecordCommit("backpressure")
			return ErrBackpressure
		case errors.Is(err, eventqueue.ErrClosed):
			return ErrNotStarted
		default:
			return err
		}
	}
	metrics.RecordCommit("accepted")
	return nil
}

// Zone classifies a canvas x coordinate for team in period.
func (s *Service) Zone(xCanvas float64, period int, team rink.Team) types.ZoneView {
	x := rink.ClampCanvas(rink.CanvasPosition{X: xCanvas}).X
	return types.ZoneView{X: x, Period: period, Team: team, Zone: s.orientation.Classify(x, period, team)}
}

// Faceoff reports where a faceoff click would land.
func (s *Service) Faceoff(p rink.CanvasPosition) types.FaceoffView {
	p = rink.ClampCanvas(p)
	if dot, ok := s.matcher.Match(p); ok {
		return types.FaceoffView{Snapped: true, Dot: dot.Name, Position: dot.Position, Canvas: dot.Canvas()}
	}
	return types.FaceoffView{Position: rink.ToRink(p), Canvas: p}
}

// Chains reconstructs every shot and goal chain of gameID.
func (s *Service) Chains(ctx context.Context, gameID string) (types.GameChains, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return types.GameChains{}, ErrNotStarted
	}

	start := time.Now()
	// One extra row tells whether the cap cut the pool.
	events, err := store.ListGame(ctx, gameID, s.maxPoolSize+1)
	if err != nil {
		return types.GameChains{}, fmt.Errorf("load pool for %s: %w", gameID, err)
	}
	if len(events) == 0 {
		return types.GameChains{}, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	truncated := len(events) > s.maxPoolSize
	if truncated {
		events = events[:s.maxPoolSize]
		s.log().Warn(ctx, "event pool truncated", logger.String("game_id", gameID), logger.Int("cap", s.maxPoolSize))
	}

	chains := s.reconstructor.Build(events)
	out := types.GameChains{
		GameID:    gameID,
		PoolSize:  len(events),
		Truncated: truncated,
		Chains:    make([]types.ChainView, 0, len(chains)),
		Summary:   chain.Summarize(chains),
	}
	for _, c := range chains {
		out.Chains = append(out.Chains, types.NewChainView(c))
		metrics.RecordChain(c.Len(), string(c.Stop))
		for _, l := range c.Links {
			metrics.RecordChainLink(string(l))
		}
	}

	metrics.RecordReconstruction(float64(time.Since(start).Microseconds())/1000, len(events))
	s.log().Debug(ctx, "chains reconstructed",
		logger.String("game_id", gameID),
		logger.Int("pool", len(events)),
		logger.Int("chains", len(chains)),
	)
	return out, nil
}

// AnalyzeGames reconstructs several games concurrently. An empty list means
// every stored game. Results keep the order of gameIDs.
func (s *Service) AnalyzeGames(ctx context.Context, gameIDs []string) ([]types.GameChains, error) {
	if len(gameIDs) == 0 {
		games, err := s.Games(ctx)
		if err != nil {
			return nil, err
		}
		gameIDs = games
	}

	results := make([]types.GameChains, len(gameIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.analysisWorkers)
	for i, id := range gameIDs {
		g.Go(func() error {
			res, err := s.Chains(gctx, id)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Games lists the stored game ids.
func (s *Service) Games(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return nil, ErrNotStarted
	}
	return store.Games(ctx)
}

// Event returns a stored event by key.
func (s *Service) Event(ctx context.Context, key string) (model.Event, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return model.Event{}, ErrNotStarted
	}
	return store.Get(ctx, key)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.sessionsMu.Lock()
	active := len(s.sessions)
	s.sessionsMu.Unlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"maxPoolSize":    s.maxPoolSize,
		"maxChainLength": s.maxChainLength,
		"activeSessions": active,
	}
	if s.started {
		stats["workerCount"] = s.workerPool.Size()
		stats["queueLength"] = s.eventQueue.Len()
		stats["queueCapacity"] = s.eventQueue.Cap()
		stats["queueClosed"] = s.eventQueue.IsClosed()
		stats["committedKeys"] = s.deduper.Size()
		stats["persisted"] = s.workerPool.Processed()
		stats["persistFailures"] = s.workerPool.Failed()
		if n, err := s.store.Count(ctx); err == nil {
			stats["storedEvents"] = n
		}
		metrics.UpdateQueueSize(s.eventQueue.Len())
	}
	return stats
}

func (s *Service) session(id string) (*session, error) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get().Named("service")
	}
	return s.logger
}

// normalizeDraft validates the identifying fields and canonicalises the type.
func normalizeDraft(ev model.Event) (model.Event, error) {
	ev = ev.Clone()
	ev.Type = model.ParseEventType(string(ev.Type))
	switch {
	case ev.GameID == "":
		return ev, fmt.Errorf("%w: game id is required", ErrInvalidDraft)
	case ev.Type == "":
		return ev, fmt.Errorf("%w: event type is required", ErrInvalidDraft)
	case ev.Period < 1:
		return ev, fmt.Errorf("%w: period must be at least 1", ErrInvalidDraft)
	}
	if ev.Team != "" {
		team, err := rink.ParseTeam(string(ev.Team))
		if err != nil {
			return ev, fmt.Errorf("%w: %w", ErrInvalidDraft, err)
		}
		ev.Team = team
	}
	for i, p := range ev.Players {
		if p.ID == "" {
			return ev, fmt.Errorf("%w: player %d has no id", ErrInvalidDraft, i)
		}
		ev.Players[i].Role = model.Role(strings.ToLower(strings.TrimSpace(string(p.Role))))
	}
	return ev, nil
}
