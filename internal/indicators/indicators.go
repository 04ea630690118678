// Package indicators implements the momentum indicators driving the
// entry decision. Both functions are pure: same series in, same value
// out, no state between calls.
package indicators

import "github.com/shopspring/decimal"

// Fixed periods. The entry signal is tuned against these; they are not
// configuration.
const (
	rsiPeriod        = 14
	macdShortPeriod  = 12
	macdLongPeriod   = 26
	macdSignalPeriod = 9
)

// MACDValue is the final MACD line and signal line values of a series.
type MACDValue struct {
	MACD   float64
	Signal float64
}

// RSI computes the 14-period relative strength index of a price series
// ordered oldest to newest, returning the value at the final index only.
// Fewer than 15 samples yield the degenerate default 0; callers treat
// that as "no data". The avgGain/avgLoss division is intentionally
// unguarded: a zero-loss series produces +Inf RS and therefore RSI 100.
func RSI(prices []float64) float64 {
	if len(prices) < rsiPeriod+1 {
		return 0
	}

	var sumGain, sumLoss float64
	for i := 1; i <= rsiPeriod; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			sumGain += delta
		} else {
			sumLoss += -delta
		}
	}
	avgGain := sumGain / rsiPeriod
	avgLoss := sumLoss / rsiPeriod

	// Wilder smoothing over the remainder of the series.
	for i := rsiPeriod + 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		var gain, loss float64
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(rsiPeriod-1) + gain) / rsiPeriod
		avgLoss = (avgLoss*(rsiPeriod-1) + loss) / rsiPeriod
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD computes the 12/26/9 moving-average-convergence-divergence of a
// price series ordered oldest to newest. It returns the final MACD line
// and signal line values; ok is false when the series is shorter than
// longPeriod+signalPeriod-1 samples and no value can be produced.
func MACD(prices []float64) (MACDValue, bool) {
	if len(prices) < macdLongPeriod+macdSignalPeriod-1 {
		return MACDValue{}, false
	}

	shortEMA := emaSeries(prices, macdShortPeriod)
	longEMA := emaSeries(prices, macdLongPeriod)

	// The MACD line exists once both EMAs are seeded.
	line := make([]float64, 0, len(prices)-macdLongPeriod+1)
	for i := macdLongPeriod - 1; i < len(prices); i++ {
		line = append(line, shortEMA[i]-longEMA[i])
	}

	signal := average(line[:macdSignalPeriod])
	mult := 2.0 / float64(macdSignalPeriod+1)
	for i := macdSignalPeriod; i < len(line); i++ {
		signal = (line[i]-signal)*mult + signal
	}

	return MACDValue{MACD: line[len(line)-1], Signal: signal}, true
}

// emaSeries returns the running EMA of the series, seeded with the
// simple average of the first period values. Entries before index
// period-1 hold the partial seed and are not meaningful.
func emaSeries(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	ema := average(prices[:period])
	for i := 0; i < period; i++ {
		out[i] = ema
	}
	mult := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*mult + ema
		out[i] = ema
	}
	return out
}

func average(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// DecimalToFloat converts a decimal amount for indicator math.
func DecimalToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// FloatToDecimal converts an indicator value back to a decimal amount.
func FloatToDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
