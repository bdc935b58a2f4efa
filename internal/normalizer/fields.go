package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Key aliases, first present wins
var (
	idKeys         = []string{"id", "trade_id", "tradeId", "uuid"}
	entryTimeKeys  = []string{"entry_time", "entryTime", "entry_date", "entryDate", "trade_date", "tradeDate", "opened_at", "open_time", "date", "timestamp"}
	exitTimeKeys   = []string{"exit_time", "exitTime", "exit_date", "exitDate", "closed_at", "close_time"}
	pnlKeys        = []string{"pnl", "net_pnl", "netPnl", "profit_loss", "profitLoss", "realized_pnl", "realizedPnl", "profit", "pl"}
	grossPnlKeys   = []string{"gross_pnl", "grossPnl"}
	chargeKeys     = []string{"fees", "commission", "charges"} // 모두 합산
	sizeKeys       = []string{"size", "quantity", "qty", "shares", "contracts", "position_size", "positionSize", "lots"}
	entryPriceKeys = []string{"entry_price", "entryPrice", "price"}
	exitPriceKeys  = []string{"exit_price", "exitPrice"}
	stopPriceKeys  = []string{"stop_price", "stopPrice", "stop_loss", "stopLoss"}
	sideKeys       = []string{"side", "direction", "trade_type"}
	strategyKeys   = []string{"strategy_type", "strategyType", "strategy", "setup"}
	tagKeys        = []string{"tags"}
	emotionKeys    = []string{"emotional_tags", "emotionalTags", "emotions", "mood"}
	riskRewardKeys = []string{"risk_reward", "riskReward", "rr", "planned_rr"}
)

// first returns the first alias holding a non-null value
func first(row gjson.Result, keys []string) (gjson.Result, bool) {
	for _, key := range keys {
		v := row.Get(gjson.Escape(key))
		if v.Exists() && v.Type != gjson.Null {
			return v, true
		}
	}
	return gjson.Result{}, false
}

// numericPrefix mirrors parseFloat: the longest leading decimal literal
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// number coerces a JSON value to a finite float (0 when unusable)
func number(v gjson.Result) float64 {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Float()
	case gjson.String:
		f = parseFloatPrefix(v.Str)
	default:
		return 0
	}
	return finite(f)
}

func parseFloatPrefix(s string) float64 {
	m := numericPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// 지수 범위 초과 등은 ±Inf로 반환되므로 finite에서 0 처리
		return finite(f)
	}
	return f
}

// MaxMagnitude bounds every parsed amount, size and price.
// Sums over any realistic journal stay far below float64 overflow.
const MaxMagnitude = 1e15

// finite maps NaN/Inf to 0 and clamps to ±MaxMagnitude
func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return math.Max(-MaxMagnitude, math.Min(MaxMagnitude, f))
}

func numberAt(row gjson.Result, keys []string) (float64, bool) {
	v, ok := first(row, keys)
	if !ok {
		return 0, false
	}
	return number(v), true
}

var naiveLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

var unixDigits = regexp.MustCompile(`^\d{9,}$`)

// unix seconds보다 큰 값은 밀리초로 간주 (2286년 이후 초 단위는 없음)
const unixMillisThreshold = 1e11

// maxUnixSeconds is 9999-12-31T23:59:59Z; later instants cannot be encoded as JSON
const maxUnixSeconds = 253402300799

// timestamp parses the many timestamp encodings journal sources use.
// Naive timestamps are read in loc.
func timestamp(v gjson.Result, loc *time.Location) (time.Time, bool) {
	switch v.Type {
	case gjson.Number:
		return fromUnix(v.Float())
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return time.Time{}, false
		}
		if unixDigits.MatchString(s) {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return time.Time{}, false
			}
			return fromUnix(f)
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return validYear(t)
		}
		for _, layout := range naiveLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return validYear(t)
			}
		}
	}
	return time.Time{}, false
}

func fromUnix(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return time.Time{}, false
	}
	if f >= unixMillisThreshold {
		if f > maxUnixSeconds*1000 {
			return time.Time{}, false
		}
		return validYear(time.UnixMilli(int64(f)).UTC())
	}
	sec, frac := math.Modf(f)
	return validYear(time.Unix(int64(sec), int64(frac*1e9)).UTC())
}

// validYear rejects instants whose year, as written or in UTC, is outside 1..9999
func validYear(t time.Time) (time.Time, bool) {
	for _, y := range []int{t.Year(), t.UTC().Year()} {
		if y < 1 || y > 9999 {
			return time.Time{}, false
		}
	}
	return t, true
}

// labels reads an array of strings or a comma/semicolon separated string
func labels(v gjson.Result) []string {
	var raw []string
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			raw = append(raw, item.String())
		}
	case v.Type == gjson.String:
		raw = strings.FieldsFunc(v.Str, func(r rune) bool { return r == ',' || r == ';' })
	}

	out := raw[:0]
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// side returns +1 for long/buy rows and -1 for short/sell rows
func side(row gjson.Result) float64 {
	v, ok := first(row, sideKeys)
	if !ok {
		return 1
	}
	switch strings.ToLower(strings.TrimSpace(v.String())) {
	case "sell", "short", "s", "sell_short", "short_sell":
		return -1
	default:
		return 1
	}
}
