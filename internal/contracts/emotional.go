package contracts

// Status is the overall emotional/discipline grade
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusNeutral   Status = "neutral"
	StatusWarning   Status = "warning"
	StatusCritical  Status = "critical"
)

// StatusFor maps an overall score onto a Status (80/60/40/20)
func StatusFor(overall float64) Status {
	switch {
	case overall >= 80:
		return StatusExcellent
	case overall >= 60:
		return StatusGood
	case overall >= 40:
		return StatusNeutral
	case overall >= 20:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// EmotionalState is the trading psychology score
// ⭐ SSOT: 모든 점수는 [0,100], 요청마다 새로 계산 (엔진은 저장하지 않음)
type EmotionalState struct {
	Overall float64 `json:"overall"`
	Status  Status  `json:"status"`

	// Positive traits (가중 합산 대상)
	Discipline       float64 `json:"discipline"`
	Patience         float64 `json:"patience"`
	EmotionalControl float64 `json:"emotionalControl"`
	RiskAwareness    float64 `json:"riskAwareness"`
	Confidence       float64 `json:"confidence"`

	// Negative traits (가중 합산 제외)
	Fear           float64 `json:"fear"`
	Greed          float64 `json:"greed"`
	Revenge        float64 `json:"revenge"`
	Overconfidence float64 `json:"overconfidence"`

	Insights       []string `json:"insights"`
	Recommendation string   `json:"recommendation"`
}

// Traits returns every trait score keyed by its JSON name
func (s EmotionalState) Traits() map[string]float64 {
	return map[string]float64{
		"discipline":       s.Discipline,
		"patience":         s.Patience,
		"emotionalControl": s.EmotionalControl,
		"riskAwareness":    s.RiskAwareness,
		"confidence":       s.Confidence,
		"fear":             s.Fear,
		"greed":            s.Greed,
		"revenge":          s.Revenge,
		"overconfidence":   s.Overconfidence,
	}
}
