package planner

import (
	"time"

	"github.com/heatctl/heatctl/core/model"
)

// Consolidate compresses the hourly mode array into one StrategySlot per
// maximal contiguous run of identical mode. The returned slots tile
// [now, now+H) exactly, with no gaps or overlaps. now is rounded down to the
// hour boundary. A slot carries the highest price and the summed net
// consumption of its hours.
func Consolidate(modes []model.Mode, f model.Forecast, now time.Time) ([]model.StrategySlot, error) {
	if len(modes) == 0 {
		return nil, nil
	}
	hourStart := now.Truncate(time.Hour)
	var slots []model.StrategySlot

	runStart := 0
	for h := 1; h <= len(modes); h++ {
		if h < len(modes) && modes[h] == modes[runStart] {
			continue
		}
		if !modes[runStart].Valid() {
			return nil, &model.UnknownModeError{Value: modes[runStart].String()}
		}
		slot := model.StrategySlot{
			Start: hourStart.Add(time.Duration(runStart) * time.Hour),
			End:   hourStart.Add(time.Duration(h) * time.Hour),
			Mode:  modes[runStart],
		}
		for i := runStart; i < h; i++ {
			if i == runStart || f.Price[i] > slot.Price {
				slot.Price = f.Price[i]
			}
			slot.Consumption += f.NetConsumption[i]
		}
		slots = append(slots, slot)
		runStart = h
	}
	return slots, nil
}
