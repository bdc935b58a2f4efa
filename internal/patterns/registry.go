package patterns

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wonny/tradejournal/internal/contracts"
)

// Predicate reports whether trade i of the sequence matches a pattern
type Predicate func(seq *Sequence, i int) bool

// CostFunc attributes a monetary cost to a matching trade
type CostFunc func(t contracts.AnalyzableTrade) decimal.Decimal

// Definition is one independently tunable mistake-pattern
type Definition struct {
	Type      contracts.PatternType
	Predicate Predicate
	Cost      CostFunc
}

// ErrDuplicatePattern is returned when a type is registered twice
var ErrDuplicatePattern = errors.New("pattern already registered")

// Registry holds pattern definitions in evaluation (and output) order
// ⭐ SSOT: 새 패턴은 Register로만 추가 (집계 로직 수정 불필요)
type Registry struct {
	defs  []Definition
	index map[contracts.PatternType]int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{index: make(map[contracts.PatternType]int)}
}

// Register appends a definition. Cost defaults to PnLCost.
func (r *Registry) Register(def Definition) error {
	if def.Type == "" {
		return fmt.Errorf("pattern type is required")
	}
	if def.Predicate == nil {
		return fmt.Errorf("pattern %s: predicate is required", def.Type)
	}
	if _, exists := r.index[def.Type]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePattern, def.Type)
	}
	if def.Cost == nil {
		def.Cost = PnLCost
	}

	r.index[def.Type] = len(r.defs)
	r.defs = append(r.defs, def)
	return nil
}

// MustRegister is Register that panics (static registries)
func (r *Registry) MustRegister(def Definition) *Registry {
	if err := r.Register(def); err != nil {
		panic(err)
	}
	return r
}

// Definitions returns a copy in registration order
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Lookup finds a definition by type
func (r *Registry) Lookup(t contracts.PatternType) (Definition, bool) {
	i, ok := r.index[t]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// PnLCost is the default cost: the trade's own P&L (a label, not a sign guarantee)
func PnLCost(t contracts.AnalyzableTrade) decimal.Decimal {
	return decimal.NewFromFloat(t.PnL)
}
