package helen

import (
	"github.com/angas/helen-go/calc"
	"github.com/angas/helen-go/slice"
)

const (
	ResolutionDay   = "day"
	ResolutionMonth = "month"
	ResolutionHour  = "hour"
)

type Measurement struct {
	Value  float64 `json:"value"`
	Status string  `json:"status"`
}

type MeasurementInterval struct {
	Start        string        `json:"start"`
	Stop         string        `json:"stop"`
	Resolution   string        `json:"resolution"`
	Unit         string        `json:"unit"`
	Measurements []Measurement `json:"measurements"`
}

// Readings converts the interval into the series used by the calculations.
func (i *MeasurementInterval) Readings() []calc.Reading {
	if i == nil {
		return nil
	}
	return slice.Map(i.Measurements, func(m Measurement) calc.Reading {
		return calc.Reading{Status: m.Status, Value: m.Value}
	})
}

type MeasurementResponse struct {
	Intervals struct {
		Electricity []MeasurementInterval `json:"electricity"`
	} `json:"intervals"`
}

// Electricity returns the first electricity interval, or nil if there is none.
func (r MeasurementResponse) Electricity() *MeasurementInterval {
	if len(r.Intervals.Electricity) == 0 {
		return nil
	}
	return &r.Intervals.Electricity[0]
}

type SpotPricesResponse struct {
	Interval *MeasurementInterval `json:"interval"`
}

type contractListResponse struct {
	Contracts []Contract `json:"contracts"`
}
