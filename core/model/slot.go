package model

import (
	"fmt"
	"time"
)

// StrategySlot is one maximal contiguous run of identical mode after window
// consolidation. The slots of one planning pass tile [now, now+H) without
// gaps or overlaps.
type StrategySlot struct {
	Start       time.Time
	End         time.Time
	Mode        Mode
	Price       float64
	Consumption float64
	// Handler points to the materialized device-side entry, nil for slots
	// that have no device representation.
	Handler *ScheduleHandler
}

func (s StrategySlot) String() string {
	if s.Handler != nil {
		return fmt.Sprintf("slot(%s-%s:[%s]->%s)",
			s.Start.Format("2006-01-02 15:04"), s.End.Format("15:04"), s.Mode, s.Handler.Ref)
	}
	return fmt.Sprintf("slot(%s-%s:[%s])",
		s.Start.Format("2006-01-02 15:04"), s.End.Format("15:04"), s.Mode)
}
