package contracts

import "time"

// TrendFlag classifies the forecast direction
type TrendFlag string

const (
	TrendUp   TrendFlag = "UP"
	TrendDown TrendFlag = "DOWN"
	TrendFlat TrendFlag = "FLAT"
)

// RunStatus is the lifecycle state of a forecast run
type RunStatus string

const (
	RunPending RunStatus = "PENDING"
	RunSuccess RunStatus = "SUCCESS"
	RunFailed  RunStatus = "FAILED"
)

// ForecastRun is one execution of the forecast batch across all active
// instruments. Created PENDING, finalized to SUCCESS or FAILED, never deleted.
type ForecastRun struct {
	ID           int64     `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	Label        string    `json:"label,omitempty"`
	Status       RunStatus `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Forecast is the output of the computation engine for one price series
type Forecast struct {
	AsOfDate       time.Time `json:"as_of_date"`
	NextDate       time.Time `json:"next_date"`
	LastClose      float64   `json:"last_close"`
	ForecastReturn float64   `json:"forecast_return"`
	ForecastPrice  float64   `json:"forecast_price"`
	LowerPrice     float64   `json:"lower_price"`
	UpperPrice     float64   `json:"upper_price"`
	TrendFlag      TrendFlag `json:"trend_flag"`
}

// ForecastResult is a Forecast persisted under a run. Unique per
// (RunID, InstrumentID), written once, never mutated.
type ForecastResult struct {
	RunID        int64 `json:"run_id"`
	InstrumentID int64 `json:"instrument_id"`
	Forecast
}
