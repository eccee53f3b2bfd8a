package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/heatctl/heatctl/core/model"
)

type slotRecord struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Mode        string    `json:"mode"`
	Price       float64   `json:"price"`
	Consumption float64   `json:"consumption"`
}

// WriteJSON writes the strategy slots to w in JSON format.
func WriteJSON(w io.Writer, slots []model.StrategySlot) error {
	records := make([]slotRecord, len(slots))
	for i, s := range slots {
		records[i] = slotRecord{
			Start:       s.Start,
			End:         s.End,
			Mode:        s.Mode.String(),
			Price:       s.Price,
			Consumption: s.Consumption,
		}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(records)
}

// WriteCSV writes the strategy slots to w in CSV format.
func WriteCSV(w io.Writer, slots []model.StrategySlot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"start", "end", "mode", "price", "consumption"}); err != nil {
		return err
	}
	for _, s := range slots {
		rec := []string{
			s.Start.Format(time.RFC3339),
			s.End.Format(time.RFC3339),
			s.Mode.String(),
			strconv.FormatFloat(s.Price, 'f', -1, 64),
			strconv.FormatFloat(s.Consumption, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
