package emotional

import "github.com/wonny/tradejournal/internal/contracts"

const insightInsufficientData = "Not enough recent trades to assess your trading psychology yet. Keep journaling."

const insightAllClear = "Your trading psychology looks balanced. Keep following your plan."

// rule emits its message when the state crosses a threshold
type rule struct {
	triggered func(s contracts.EmotionalState) bool
	message   string
}

// 순서 = 출력 순서
var insightRules = []rule{
	{
		triggered: func(s contracts.EmotionalState) bool { return s.Revenge > 60 },
		message:   "High revenge trading tendency: you often re-enter quickly after a loss. Take a break after losing trades.",
	},
	{
		triggered: func(s contracts.EmotionalState) bool { return s.Discipline < 50 },
		message:   "Discipline is slipping: too many trades per day, missing stop-losses or strategy violations.",
	},
	{
		triggered: func(s contracts.EmotionalState) bool { return s.Greed > 50 },
		message:   "Greed signals detected: oversized positions or giving back profits.",
	},
	{
		triggered: func(s contracts.EmotionalState) bool { return s.Fear > 50 },
		message:   "Fear is shaping your exits: small positions and profits taken too early.",
	},
	{
		triggered: func(s contracts.EmotionalState) bool { return s.Patience < 40 },
		message:   "Low patience: trades are entered too soon after losses. Wait for your setup.",
	},
	{
		triggered: func(s contracts.EmotionalState) bool { return s.EmotionalControl < 50 },
		message:   "Emotions are driving decisions: review trades tagged angry, frustrated or impulsive.",
	},
	{
		triggered: func(s contracts.EmotionalState) bool { return s.Overconfidence > 50 },
		message:   "Overconfidence after winning streaks: position sizes grow after consecutive wins.",
	},
	{
		triggered: func(s contracts.EmotionalState) bool { return s.RiskAwareness < 50 },
		message:   "Risk management needs attention: use stop-losses and keep position sizes consistent.",
	},
}

func insights(s contracts.EmotionalState) []string {
	var out []string
	for _, r := range insightRules {
		if r.triggered(s) {
			out = append(out, r.message)
		}
	}
	if len(out) == 0 {
		return []string{insightAllClear}
	}
	return out
}

var recommendations = map[contracts.Status]string{
	contracts.StatusExcellent: "Excellent emotional discipline. Maintain your routine and keep reviewing your journal.",
	contracts.StatusGood:      "Good control overall. Focus on the weakest trait highlighted in your insights.",
	contracts.StatusNeutral:   "Mixed signals. Write down your entry and exit rules before each session.",
	contracts.StatusWarning:   "Warning: emotions are affecting your trading. Reduce position size and trade less until scores recover.",
	contracts.StatusCritical:  "Critical: pause trading and review recent losses before restarting at minimum size.",
}
