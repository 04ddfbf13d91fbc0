// Package mockdata generates deterministic market data for demos and tests.
package mockdata

import (
	"math"
	"math/rand"
	"time"
)

// PriceSeries is a column-oriented OHLCV history. Times are Unix seconds.
type PriceSeries struct {
	Symbol string
	Time   []float64
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Len returns the number of bars.
func (p *PriceSeries) Len() int { return len(p.Time) }

// Options configures a generated history.
type Options struct {
	Symbol     string
	Count      int
	Start      time.Time
	Interval   time.Duration
	StartPrice float64
	// Volatility is the standard deviation of one bar's relative move.
	Volatility float64
	BaseVolume float64
}

// DefaultOptions returns a EUR/USD-like hourly history.
func DefaultOptions() Options {
	return Options{
		Symbol:     "EUR/USD",
		Count:      500,
		Start:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Interval:   time.Hour,
		StartPrice: 1.1,
		Volatility: 0.002,
		BaseVolume: 50000,
	}
}

// PriceGenerator produces random-walk bars from a seeded source, so the same
// seed always yields the same history.
type PriceGenerator struct {
	rng *rand.Rand
}

// NewPriceGenerator creates a generator for seed.
func NewPriceGenerator(seed int64) *PriceGenerator {
	return &PriceGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Generate produces opts.Count bars. Zero option fields take the defaults.
func (g *PriceGenerator) Generate(opts Options) *PriceSeries {
	opts = withDefaults(opts)
	n := opts.Count
	p := &PriceSeries{
		Symbol: opts.Symbol,
		Time:   make([]float64, n),
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
	}

	last := opts.StartPrice
	step := opts.Interval.Seconds()
	start := float64(opts.Start.Unix())
	for i := 0; i < n; i++ {
		open := last
		move := g.rng.NormFloat64() * opts.Volatility
		closePrice := open * math.Exp(move)
		wickUp := math.Abs(g.rng.NormFloat64()) * opts.Volatility * 0.5
		wickDown := math.Abs(g.rng.NormFloat64()) * opts.Volatility * 0.5

		p.Time[i] = start + float64(i)*step
		p.Open[i] = open
		p.Close[i] = closePrice
		p.High[i] = math.Max(open, closePrice) * (1 + wickUp)
		p.Low[i] = math.Min(open, closePrice) * (1 - wickDown)
		// busier bars move further
		p.Volume[i] = math.Round(opts.BaseVolume * (0.5 + g.rng.Float64() + math.Abs(move)/opts.Volatility*0.25))

		last = closePrice
	}
	return p
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.Symbol == "" {
		opts.Symbol = def.Symbol
	}
	if opts.Count <= 0 {
		opts.Count = def.Count
	}
	if opts.Start.IsZero() {
		opts.Start = def.Start
	}
	if opts.Interval <= 0 {
		opts.Interval = def.Interval
	}
	if opts.StartPrice <= 0 {
		opts.StartPrice = def.StartPrice
	}
	if opts.Volatility <= 0 {
		opts.Volatility = def.Volatility
	}
	if opts.BaseVolume <= 0 {
		opts.BaseVolume = def.BaseVolume
	}
	return opts
}
