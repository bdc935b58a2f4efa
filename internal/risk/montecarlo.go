package risk

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/tradejournal/internal/contracts"
)

// RuinSimulationConfig Monte Carlo 파산 시뮬레이션 설정
// ⭐ SSOT: 재현성을 위해 모든 설정을 명시적으로 기록
type RuinSimulationConfig struct {
	Paths           int     `json:"paths"`           // 시뮬레이션 경로 수 (기본: 5000)
	TradesPerPath   int     `json:"tradesPerPath"`   // 경로당 거래 수 (기본: 500)
	RiskPerTradePct float64 `json:"riskPerTradePct"` // 1R = 계좌의 n%
	RuinEquityPct   float64 `json:"ruinEquityPct"`   // 이 수준 이하 = 파산 (기본: 0)
	Seed            int64   `json:"seed"`            // 재현성용 시드 (0=랜덤)
	MinSamples      int     `json:"minSamples"`      // 최소 거래 수 (기본: 10)
}

// DefaultRuinSimulationConfig 기본 설정
func DefaultRuinSimulationConfig() RuinSimulationConfig {
	return RuinSimulationConfig{
		Paths:           5000,
		TradesPerPath:   500,
		RiskPerTradePct: 1.0,
		RuinEquityPct:   0,
		MinSamples:      10,
	}
}

// Validate checks the simulation parameters
func (c RuinSimulationConfig) Validate() error {
	switch {
	case c.Paths <= 0:
		return fmt.Errorf("paths must be > 0")
	case c.TradesPerPath <= 0:
		return fmt.Errorf("tradesPerPath must be > 0")
	case c.RiskPerTradePct <= 0 || c.RiskPerTradePct > 100:
		return fmt.Errorf("riskPerTradePct must be in (0, 100]")
	case c.RuinEquityPct < 0 || c.RuinEquityPct >= 100:
		return fmt.Errorf("ruinEquityPct must be in [0, 100)")
	case c.MinSamples < 1:
		return fmt.Errorf("minSamples must be >= 1")
	}
	return nil
}

// RuinSimulation Monte Carlo 결과 (리포트와 별개, RunID/시간 포함)
type RuinSimulation struct {
	RunID   string               `json:"runId"`
	RunDate time.Time            `json:"runDate"`
	Config  RuinSimulationConfig `json:"config"`

	Samples         int             `json:"samples"`
	RuinPct         float64         `json:"ruinPct"`
	MeanFinalEquity float64         `json:"meanFinalEquity"` // 초기 계좌 = 100
	Percentiles     map[int]float64 `json:"percentiles"`     // 최종 자산 백분위수
}

// RuinSimulator bootstraps trade outcomes in units of the average loss (R-multiples)
type RuinSimulator struct {
	config RuinSimulationConfig
	rng    *rand.Rand
}

// NewRuinSimulator 새 시뮬레이터 생성
func NewRuinSimulator(config RuinSimulationConfig) *RuinSimulator {
	var rng *rand.Rand
	if config.Seed != 0 {
		rng = rand.New(rand.NewSource(config.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &RuinSimulator{
		config: config,
		rng:    rng,
	}
}

// Simulate resamples the trade outcomes with replacement.
// Equity starts at 100 and each trade moves it by riskPct × R, R = pnl / avgLoss.
func (s *RuinSimulator) Simulate(ctx context.Context, trades []contracts.AnalyzableTrade) (*RuinSimulation, error) {
	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	if len(trades) < s.config.MinSamples {
		return nil, fmt.Errorf("insufficient trades: %d < %d", len(trades), s.config.MinSamples)
	}

	pnls := make([]float64, len(trades))
	for i, t := range trades {
		pnls[i] = t.PnL
	}
	avgLoss := summarize(pnls).avgLoss
	if avgLoss == 0 {
		return nil, fmt.Errorf("no losing trades to scale outcomes")
	}

	multiples := make([]float64, len(pnls))
	for i, p := range pnls {
		multiples[i] = p / avgLoss
	}

	finals := make([]float64, s.config.Paths)
	ruined := 0
	for path := 0; path < s.config.Paths; path++ {
		// 경로 단위로 취소 확인
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		equity := 100.0
		for n := 0; n < s.config.TradesPerPath; n++ {
			equity += s.config.RiskPerTradePct * multiples[s.rng.Intn(len(multiples))]
			if equity <= s.config.RuinEquityPct {
				ruined++
				break
			}
		}
		finals[path] = equity
	}

	sorted := sortedCopy(finals)
	percentiles := make(map[int]float64, 5)
	for _, p := range []int{5, 25, 50, 75, 95} {
		percentiles[p] = Percentile(sorted, float64(p))
	}

	return &RuinSimulation{
		RunID:           uuid.New().String(),
		RunDate:         time.Now(),
		Config:          s.config,
		Samples:         len(trades),
		RuinPct:         float64(ruined) / float64(s.config.Paths) * 100,
		MeanFinalEquity: Mean(finals),
		Percentiles:     percentiles,
	}, nil
}
