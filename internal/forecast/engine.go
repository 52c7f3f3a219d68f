package forecast

import (
	"math"

	"github.com/adityakale/stockcast/internal/contracts"
)

// Window sizes for the moving-average/drift/volatility statistics. Each
// clamps to the available series length.
const (
	shortWindow = 5
	longWindow  = 20
	driftWindow = 10
	volWindow   = 20

	// Daily forecast return magnitude is capped at 1%
	maxDailyReturn = 0.01

	driftMultiplier = 1.2
)

// Compute derives a one-day-ahead forecast from an ascending-ordered daily
// price series. It is a pure function: no I/O, no storage.
//
// Fewer than shortWindow bars produce a flat forecast anchored at the last
// close. NextDate is always AsOfDate + 1 calendar day, not trading day.
func Compute(bars []contracts.PriceBar) (*contracts.Forecast, error) {
	if len(bars) == 0 {
		return nil, contracts.ErrInsufficientData
	}

	last := bars[len(bars)-1]
	asOf := last.TradeDate
	next := asOf.AddDate(0, 0, 1)

	if len(bars) < shortWindow {
		return &contracts.Forecast{
			AsOfDate:       asOf,
			NextDate:       next,
			LastClose:      last.Close,
			ForecastReturn: 0,
			ForecastPrice:  last.Close,
			LowerPrice:     last.Close,
			UpperPrice:     last.Close,
			TrendFlag:      contracts.TrendFlat,
		}, nil
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	// Daily simple returns. A zero prior close yields a defined zero return,
	// not an error.
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev != 0 {
			returns = append(returns, (closes[i]-prev)/prev)
		} else {
			returns = append(returns, 0)
		}
	}

	shortN := min(shortWindow, len(closes))
	longN := min(longWindow, len(closes))
	driftN := min(driftWindow, len(returns))
	volN := min(volWindow, len(returns))

	maShort := mean(closes[len(closes)-shortN:])
	maLong := mean(closes[len(closes)-longN:])

	drift := 0.0
	if driftN > 0 {
		drift = mean(returns[len(returns)-driftN:])
	}

	volatility := 0.0
	if volN > 1 {
		volatility = sampleStdDev(returns[len(returns)-volN:])
	}

	trendSignal := maShort - maLong

	var forecastReturn float64
	var flag contracts.TrendFlag
	switch {
	case trendSignal > 0 && drift > 0:
		forecastReturn = math.Min(drift*driftMultiplier, maxDailyReturn)
		flag = contracts.TrendUp
	case trendSignal < 0 && drift < 0:
		forecastReturn = -math.Min(math.Abs(drift)*driftMultiplier, maxDailyReturn)
		flag = contracts.TrendDown
	default:
		forecastReturn = 0
		flag = contracts.TrendFlat
	}

	lastClose := closes[len(closes)-1]
	forecastPrice := lastClose * (1 + forecastReturn)

	lowerPrice := forecastPrice
	upperPrice := forecastPrice
	if volatility > 0 {
		lowerPrice = forecastPrice * (1 - volatility)
		upperPrice = forecastPrice * (1 + volatility)
	}

	return &contracts.Forecast{
		AsOfDate:       asOf,
		NextDate:       next,
		LastClose:      lastClose,
		ForecastReturn: forecastReturn,
		ForecastPrice:  forecastPrice,
		LowerPrice:     lowerPrice,
		UpperPrice:     upperPrice,
		TrendFlag:      flag,
	}, nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev computes the sample standard deviation (divisor n-1)
func sampleStdDev(values []float64) float64 {
	m := mean(values)
	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}
