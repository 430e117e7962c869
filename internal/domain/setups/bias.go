package setups

import "github.com/sawpanic/stratrun/internal/domain/bars"

// Context maps higher timeframes to the classification of their last
// closed bar. Missing entries score zero.
type Context map[bars.Timeframe]bars.Class

// Higher timeframes dominate: a yearly directional bar outweighs the
// whole W+D stack.
var biasWeights = map[bars.Timeframe]int{
	bars.TFY: 5,
	bars.TFQ: 4,
	bars.TFM: 3,
	bars.TFW: 2,
	bars.TFD: 1,
}

// Score computes the weighted directional bias over Y/Q/M/W/D. 2U counts
// +weight, 2D -weight, inside/outside/absent zero. Range [-15, +15]; the
// score is symbol-level and identical for every setup of the symbol.
func Score(ctx Context) int {
	score := 0
	for tf, w := range biasWeights {
		score += w * ctx[tf].Sign()
	}
	return score
}

// Alignment relates a setup's direction to the sign of the bias score.
type Alignment string

const (
	Aligned Alignment = "aligned"
	Counter Alignment = "counter"
	Neutral Alignment = "neutral"
)

// Align classifies a directional setup against the symbol bias score.
func Align(dir Direction, score int) Alignment {
	if score == 0 {
		return Neutral
	}
	bullish := score > 0
	if (dir == Bull) == bullish {
		return Aligned
	}
	return Counter
}
