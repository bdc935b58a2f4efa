package journal

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/tradejournal/internal/calendar"
	"github.com/wonny/tradejournal/internal/contracts"
	"github.com/wonny/tradejournal/internal/normalizer"
)

// ErrUserNotFound is returned when a user has no journal rows
var ErrUserNotFound = errors.New("user not found")

// Store is the persistence surface used by the API and the scheduler
// ⭐ SSOT: 거래/탐지/스냅샷 저장소 인터페이스
type Store interface {
	ListUserIDs(ctx context.Context) ([]string, error)
	GetRawTrades(ctx context.Context, userID string) ([]normalizer.RawTrade, error)
	InsertTrades(ctx context.Context, userID string, rows []normalizer.RawTrade) (int, error)

	SavePatternMatches(ctx context.Context, userID string, patterns []contracts.DetectedPattern) (int, error)
	GetPatterns(ctx context.Context, userID string) ([]contracts.DetectedPattern, error)

	SaveEmotionalSnapshot(ctx context.Context, snap Snapshot) error
	GetEmotionalHistory(ctx context.Context, userID string, limit int) ([]Snapshot, error)

	SaveHolidays(ctx context.Context, market string, holidays []calendar.Holiday) (int, error)
	GetHolidays(ctx context.Context, market string) ([]calendar.Holiday, error)
}

// Snapshot is one persisted emotional state per user and day
type Snapshot struct {
	UserID     string                   `json:"userId"`
	AsOf       time.Time                `json:"asOf"` // 달력 일자 (시각 무시)
	State      contracts.EmotionalState `json:"state"`
	ConfigHash string                   `json:"configHash,omitempty"`
}

// DefaultHistoryLimit caps GetEmotionalHistory when limit <= 0
const DefaultHistoryLimit = 30

func historyLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}

func snapshotDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
