package indicator

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"dipper/internal/market"
)

const (
	defaultRSIPeriod = 14
	smaPeriod        = 20
	emaPeriod        = 12
	volumeLookback   = 24
)

// Snapshot is one symbol's indicator view at a point in time. It is the only
// input the strategy engine sees.
type Snapshot struct {
	Price       float64 `json:"price"`
	RSI         float64 `json:"rsi"`
	DipPercent  float64 `json:"dip_percent"`
	RisePercent float64 `json:"rise_percent"`
	High24h     float64 `json:"high_24h"`
	Low24h      float64 `json:"low_24h"`
	Volume      float64 `json:"volume"`
	AvgVolume   float64 `json:"avg_volume"`
	VolumeSpike float64 `json:"volume_spike"`
	SMA20       float64 `json:"sma_20"`
	EMA12       float64 `json:"ema_12"`
}

// Calculator derives indicator snapshots from candle series.
type Calculator struct {
	rsiPeriod int
}

func NewCalculator() *Calculator {
	return &Calculator{rsiPeriod: defaultRSIPeriod}
}

// All computes every indicator for the series. currentPrice overrides the last
// close when positive, so a fresher ticker price can be mixed with slightly
// older candles. An empty series yields neutral defaults (RSI 50, spike 1.0).
func (c *Calculator) All(candles []market.Candle, currentPrice float64) Snapshot {
	if len(candles) == 0 {
		return emptySnapshot()
	}
	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	high := -math.MaxFloat64
	low := math.MaxFloat64
	for i, cdl := range candles {
		closes[i] = cdl.Close
		volumes[i] = cdl.Volume
		if cdl.High > high {
			high = cdl.High
		}
		if cdl.Low < low {
			low = cdl.Low
		}
	}
	if currentPrice <= 0 {
		currentPrice = closes[len(closes)-1]
	}

	volume := volumes[len(volumes)-1]
	avgVolume := mean(tail(volumes, volumeLookback))

	snap := Snapshot{
		Price:       currentPrice,
		RSI:         c.rsi(closes),
		DipPercent:  DipPercent(currentPrice, high),
		RisePercent: RisePercent(currentPrice, low),
		High24h:     high,
		Low24h:      low,
		Volume:      volume,
		AvgVolume:   avgVolume,
		VolumeSpike: VolumeSpike(volume, avgVolume),
	}
	if sma := lastValid(talibSeries(closes, smaPeriod, talib.Sma)); sma > 0 {
		snap.SMA20 = sma
	}
	if ema := lastValid(talibSeries(closes, emaPeriod, talib.Ema)); ema > 0 {
		snap.EMA12 = ema
	}
	return snap
}

func (c *Calculator) rsi(closes []float64) float64 {
	if len(closes) <= c.rsiPeriod {
		return 50
	}
	series := talib.Rsi(closes, c.rsiPeriod)
	val := lastValid(series)
	if val <= 0 {
		return 50
	}
	return round2(val)
}

// DipPercent is how far price sits below the recent high, clamped to >= 0.
func DipPercent(price, high float64) float64 {
	if high <= 0 {
		return 0
	}
	dip := (high - price) / high * 100
	if dip < 0 {
		return 0
	}
	return round2(dip)
}

// RisePercent is how far price sits above the recent low, clamped to >= 0.
func RisePercent(price, low float64) float64 {
	if low <= 0 {
		return 0
	}
	rise := (price - low) / low * 100
	if rise < 0 {
		return 0
	}
	return round2(rise)
}

// ChangeFromEntry is the signed percent move from the entry price. Positive is
// profit for a long.
func ChangeFromEntry(price, entry float64) float64 {
	if entry <= 0 {
		return 0
	}
	return (price - entry) / entry * 100
}

// VolumeSpike is the current/average volume multiplier, 1.0 when the average
// is unknown.
func VolumeSpike(volume, avgVolume float64) float64 {
	if avgVolume <= 0 {
		return 1.0
	}
	return round2(volume / avgVolume)
}

func emptySnapshot() Snapshot {
	return Snapshot{RSI: 50, VolumeSpike: 1.0}
}

func talibSeries(closes []float64, period int, fn func([]float64, int) []float64) []float64 {
	if len(closes) < period {
		return nil
	}
	return fn(closes, period)
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		v := series[i]
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v != 0 {
			return v
		}
	}
	return 0
}

func tail(vals []float64, n int) []float64 {
	if len(vals) <= n {
		return vals
	}
	return vals[len(vals)-n:]
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
