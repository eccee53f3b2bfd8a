package forecast

import (
	"time"

	"github.com/heatctl/heatctl/core/model"
)

// Source supplies aligned hourly price and net consumption arrays for the
// hours following now, starting at the current hour boundary.
type Source interface {
	Hourly(now time.Time) (model.Forecast, error)
}
