package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/tradejournal/internal/contracts"
	"github.com/wonny/tradejournal/internal/journal"
	"github.com/wonny/tradejournal/internal/notify"
	"github.com/wonny/tradejournal/internal/report"
	"github.com/wonny/tradejournal/pkg/logger"
	"github.com/wonny/tradejournal/pkg/redis"
)

// Publisher delivers notifications (notify.Hub)
type Publisher interface {
	Publish(ctx context.Context, ev notify.Event) error
}

// Result summarizes one persisted snapshot
type Result struct {
	UserID          string                   `json:"userId"`
	AsOf            time.Time                `json:"asOf"`
	EmotionalState  contracts.EmotionalState `json:"emotionalState"`
	PatternTypes    int                      `json:"patternTypes"`
	NewMatches      int                      `json:"newMatches"`
	InvalidatedKeys int                      `json:"invalidatedKeys"`
}

// Service analyzes a user's journal and persists detections and the emotional snapshot
// ⭐ SSOT: 스냅샷 저장 절차 (API와 스케줄러 공용)
type Service struct {
	reporter  *report.Reporter
	store     journal.Store
	cache     *redis.Cache
	publisher Publisher
	logger    *logger.Logger
}

// NewService creates a snapshot service; cache and publisher are optional
func NewService(reporter *report.Reporter, store journal.Store, cache *redis.Cache, publisher Publisher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		reporter:  reporter,
		store:     store,
		cache:     cache,
		publisher: publisher,
		logger:    log.Component("snapshot"),
	}
}

// Take runs the full snapshot for one user
func (s *Service) Take(ctx context.Context, userID string, asOf time.Time) (*Result, error) {
	raw, err := s.store.GetRawTrades(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	rep, err := s.reporter.Analyze(ctx, raw, report.Request{AsOf: asOf})
	if err != nil {
		return nil, err
	}

	inserted, err := s.store.SavePatternMatches(ctx, userID, rep.Patterns)
	if err != nil {
		return nil, fmt.Errorf("save patterns: %w", err)
	}

	if err := s.store.SaveEmotionalSnapshot(ctx, journal.Snapshot{
		UserID:     userID,
		AsOf:       rep.AsOf,
		State:      rep.EmotionalState,
		ConfigHash: rep.ConfigHash,
	}); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	result := &Result{
		UserID:         userID,
		AsOf:           rep.AsOf,
		EmotionalState: rep.EmotionalState,
		PatternTypes:   len(rep.Patterns),
		NewMatches:     inserted,
	}

	if s.cache != nil {
		n, err := s.cache.DeletePattern(ctx, redis.UserReportPattern(userID))
		if err != nil {
			// 캐시 무효화 실패는 TTL로 복구됨
			s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate cached reports")
		}
		result.InvalidatedKeys = n
	}

	s.notify(ctx, notify.EventSnapshotSaved, userID, result)
	if inserted > 0 {
		s.notify(ctx, notify.EventPatternsDetected, userID, rep.Patterns)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":     userID,
		"overall":     rep.EmotionalState.Overall,
		"new_matches": inserted,
	}).Info("Snapshot saved")

	return result, nil
}

// TakeAll snapshots every user, continuing past individual failures
func (s *Service) TakeAll(ctx context.Context, asOf time.Time) (succeeded, failed int, err error) {
	users, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list users: %w", err)
	}

	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return succeeded, failed, err
		}
		if _, err := s.Take(ctx, userID, asOf); err != nil {
			failed++
			s.logger.WithError(err).WithField("user_id", userID).Error("Snapshot failed")
			continue
		}
		succeeded++
	}
	return succeeded, failed, nil
}

func (s *Service) notify(ctx context.Context, eventType notify.EventType, userID string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	ev, err := notify.NewEvent(eventType, userID, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, ev)
	}
	if err != nil {
		s.logger.WithError(err).WithField("event", string(eventType)).Warn("Failed to publish event")
	}
}
