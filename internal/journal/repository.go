package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/tradejournal/internal/calendar"
	"github.com/wonny/tradejournal/internal/contracts"
	"github.com/wonny/tradejournal/internal/normalizer"
)

// Repository implements Store on PostgreSQL
// ⭐ SSOT: 저널 데이터 저장/조회는 여기서만
type Repository struct {
	pool       *pgxpool.Pool
	normalizer *normalizer.Normalizer
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new journal repository
func NewRepository(pool *pgxpool.Pool, loc *time.Location) *Repository {
	return &Repository{pool: pool, normalizer: normalizer.New(loc)}
}

// ListUserIDs returns every user with at least one trade
func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT user_id FROM trades ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	return ids, nil
}

// GetRawTrades returns the user's rows as JSON objects.
// Import-specific fields in raw are kept; typed columns win on conflict.
func (r *Repository) GetRawTrades(ctx context.Context, userID string) ([]normalizer.RawTrade, error) {
	query := `
		SELECT (COALESCE(t.raw, '{}'::jsonb)
			|| jsonb_strip_nulls(to_jsonb(t) - 'raw' - 'user_id' - 'created_at'))::text
		FROM trades t
		WHERE t.user_id = $1
		ORDER BY t.trade_date NULLS LAST, t.id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var out []normalizer.RawTrade
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		out = append(out, normalizer.RawTrade(doc))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return out, nil
}

// InsertTrades upserts rows for a user, keyed by (user, trade id).
// Rows without an id get a content-derived id, written into raw as well.
func (r *Repository) InsertTrades(ctx context.Context, userID string, rows []normalizer.RawTrade) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO trades (id, user_id, trade_date, exit_time, pnl, quantity, strategy, tags, emotional_tags, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, id) DO UPDATE SET
			trade_date = EXCLUDED.trade_date,
			exit_time = EXCLUDED.exit_time,
			pnl = EXCLUDED.pnl,
			quantity = EXCLUDED.quantity,
			strategy = EXCLUDED.strategy,
			tags = EXCLUDED.tags,
			emotional_tags = EXCLUDED.emotional_tags,
			raw = EXCLUDED.raw
	`

	batch := &pgx.Batch{}
	for _, row := range rows {
		stored, id := row.EnsureID()
		rec := toRecord(r.normalizer, stored, id)
		batch.Queue(query,
			rec.id, userID, rec.entry, rec.exit, rec.pnl, rec.size, rec.strategy,
			rec.tags, rec.emotionalTags, []byte(stored),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	var affected int
	for range rows {
		tag, err := br.Exec()
		if err != nil {
			return affected, fmt.Errorf("failed to insert trade: %w", err)
		}
		affected += int(tag.RowsAffected())
	}
	return affected, nil
}

type tradeRecord struct {
	id            string
	entry, exit   *time.Time
	pnl, size     float64
	strategy      *string
	tags          []string
	emotionalTags []string
}

func toRecord(n *normalizer.Normalizer, row normalizer.RawTrade, id string) tradeRecord {
	t := n.Normalize([]normalizer.RawTrade{row})[0]

	rec := tradeRecord{
		id:            id,
		pnl:           t.PnL,
		size:          t.Size,
		tags:          tagStrings(t.Tags, t.UnclassifiedTags),
		emotionalTags: tagStrings(t.EmotionalTags, nil),
	}
	if !t.EntryTime.IsZero() {
		rec.entry = &t.EntryTime
	}
	if t.HasExit {
		rec.exit = &t.ExitTime
	}
	if t.StrategyType != "" {
		rec.strategy = &t.StrategyType
	}
	return rec
}

func tagStrings(tags contracts.TagSet, extra []string) []string {
	out := make([]string, 0, len(tags)+len(extra))
	for _, tag := range tags {
		out = append(out, string(tag))
	}
	return append(out, extra...)
}

// SavePatternMatches stores one row per (user, pattern, trade).
// Existing rows are kept, so saving is a set union with the stored detections.
func (r *Repository) SavePatternMatches(ctx context.Context, userID string, patterns []contracts.DetectedPattern) (int, error) {
	query := `
		INSERT INTO pattern_occurrences (user_id, pattern_type, trade_id, entry_time, cost)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, pattern_type, trade_id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, p := range patterns {
		for _, m := range p.Matches {
			batch.Queue(query, userID, string(p.Type), m.TradeID, m.EntryTime, m.Cost.String())
		}
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int
	for i := 0; i < batch.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to save pattern match: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// GetPatterns rebuilds the merged detections from stored matches
func (r *Repository) GetPatterns(ctx context.Context, userID string) ([]contracts.DetectedPattern, error) {
	query := `
		SELECT pattern_type, trade_id, entry_time, cost::text
		FROM pattern_occurrences
		WHERE user_id = $1
		ORDER BY pattern_type, trade_id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var singles []contracts.DetectedPattern
	for rows.Next() {
		var patternType, cost string
		var m contracts.PatternMatch
		if err := rows.Scan(&patternType, &m.TradeID, &m.EntryTime, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		if m.Cost, err = decimal.NewFromString(cost); err != nil {
			return nil, fmt.Errorf("invalid cost %q: %w", cost, err)
		}
		singles = append(singles, contracts.NewDetectedPattern(contracts.PatternType(patternType), []contracts.PatternMatch{m}))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patterns: %w", err)
	}

	return contracts.MergeDetections(singles), nil
}

// SaveEmotionalSnapshot upserts the user's state for the snapshot day
func (r *Repository) SaveEmotionalSnapshot(ctx context.Context, snap Snapshot) error {
	stateJSON, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("marshal emotional state: %w", err)
	}

	query := `
		INSERT INTO emotional_snapshots (user_id, as_of, overall, status, state, config_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, as_of) DO UPDATE SET
			overall = EXCLUDED.overall,
			status = EXCLUDED.status,
			state = EXCLUDED.state,
			config_hash = EXCLUDED.config_hash,
			created_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		snap.UserID,
		snapshotDay(snap.AsOf),
		snap.State.Overall,
		string(snap.State.Status),
		stateJSON,
		snap.ConfigHash,
	)
	if err != nil {
		return fmt.Errorf("insert emotional snapshot: %w", err)
	}
	return nil
}

// GetEmotionalHistory returns the newest snapshots first
func (r *Repository) GetEmotionalHistory(ctx context.Context, userID string, limit int) ([]Snapshot, error) {
	query := `
		SELECT as_of, state, config_hash
		FROM emotional_snapshots
		WHERE user_id = $1
		ORDER BY as_of DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap := Snapshot{UserID: userID}
		var stateJSON []byte
		if err := rows.Scan(&snap.AsOf, &stateJSON, &snap.ConfigHash); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if err := json.Unmarshal(stateJSON, &snap.State); err != nil {
			return nil, fmt.Errorf("decode snapshot state: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return out, nil
}

// SaveHolidays upserts a market's holidays
func (r *Repository) SaveHolidays(ctx context.Context, market string, holidays []calendar.Holiday) (int, error) {
	if len(holidays) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO market_holidays (market, holiday, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (market, holiday) DO UPDATE SET name = EXCLUDED.name
	`
	for _, h := range holidays {
		if _, err := tx.Exec(ctx, query, market, snapshotDay(h.Date), h.Name); err != nil {
			return 0, fmt.Errorf("failed to save holiday %s: %w", h.DayKey(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(holidays), nil
}

// GetHolidays returns a market's stored holidays in date order
func (r *Repository) GetHolidays(ctx context.Context, market string) ([]calendar.Holiday, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT holiday, name FROM market_holidays WHERE market = $1 ORDER BY holiday`, market)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}

	holidays, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (calendar.Holiday, error) {
		var h calendar.Holiday
		err := row.Scan(&h.Date, &h.Name)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan holidays: %w", err)
	}
	return holidays, nil
}
