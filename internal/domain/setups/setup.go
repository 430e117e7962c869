package setups

import (
	"time"

	"github.com/sawpanic/stratrun/internal/domain/bars"
)

// Direction of a proposed trigger.
type Direction string

const (
	Bull Direction = "bull"
	Bear Direction = "bear"
)

// KindNext is the only setup kind: a plan for the next bar, derived from
// the last two closed bars. Nothing here tracks whether a plan has already
// triggered; that is downstream policy.
const KindNext = "NEXT"

// Setup is a proposed directional trigger on one timeframe. Entry is
// always one extremum of the last closed bar and Stop the opposite one.
type Setup struct {
	TF        bars.Timeframe
	Kind      string
	Pattern   string // "{prev_class}-{last_class}", e.g. "2U-1"
	Name      string
	Direction Direction

	Entry float64
	Stop  float64

	PrevTimestamp time.Time
	LastTimestamp time.Time
	PrevClass     bars.Class
	LastClass     bars.Class

	PrevOpen, PrevHigh, PrevLow, PrevClose float64
	LastOpen, LastHigh, LastLow, LastClose float64

	Actionable string
	Note       string
}
