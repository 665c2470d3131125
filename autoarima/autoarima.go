package autoarima

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/sartorproj/stocktool/arima"
	"github.com/sartorproj/stocktool/stats"
	"github.com/sartorproj/stocktool/timeseries"
)

// Config holds configuration for auto ARIMA search.
type Config struct {
	MaxP        int    `mapstructure:"max_p"`        // Maximum AR order (default: 5)
	MaxD        int    `mapstructure:"max_d"`        // Maximum differencing order (default: 2)
	MaxQ        int    `mapstructure:"max_q"`        // Maximum MA order (default: 5)
	MaxSP       int    `mapstructure:"max_sp"`       // Maximum seasonal AR order (default: 2)
	MaxSD       int    `mapstructure:"max_sd"`       // Maximum seasonal differencing order (default: 1)
	MaxSQ       int    `mapstructure:"max_sq"`       // Maximum seasonal MA order (default: 2)
	Seasonal    bool   `mapstructure:"seasonal"`     // Whether to consider seasonal models
	SeasonalM   int    `mapstructure:"seasonal_m"`   // Seasonal period (required if Seasonal=true)
	Stepwise    bool   `mapstructure:"stepwise"`     // Use stepwise search instead of exhaustive
	Criterion   string `mapstructure:"criterion"`    // "aic", "aicc" or "bic" (default: "aic")
	StationTest string `mapstructure:"station_test"` // "adf" or "kpss" (default: "kpss")

	// Logger receives one debug event per fitted candidate. The zero value
	// discards everything.
	Logger zerolog.Logger `mapstructure:"-"`
}

// DefaultConfig returns the default auto ARIMA configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxP:        5,
		MaxD:        2,
		MaxQ:        5,
		MaxSP:       2,
		MaxSD:       1,
		MaxSQ:       2,
		Seasonal:    false,
		Stepwise:    true,
		Criterion:   "aic",
		StationTest: "kpss",
	}
}

// Validate reports configuration values the search cannot work with.
func (c *Config) Validate() error {
	if c.MaxP < 0 || c.MaxQ < 0 || c.MaxD < 0 || c.MaxSP < 0 || c.MaxSQ < 0 || c.MaxSD < 0 {
		return errors.New("maximum orders must not be negative")
	}
	switch c.Criterion {
	case "", "aic", "aicc", "bic":
	default:
		return fmt.Errorf("unknown information criterion %q", c.Criterion)
	}
	switch c.StationTest {
	case "", "adf", "kpss":
	default:
		return fmt.Errorf("unknown stationarity test %q", c.StationTest)
	}
	if c.Seasonal && c.SeasonalM < 2 {
		return fmt.Errorf("seasonal search needs a period of at least 2, got %d", c.SeasonalM)
	}
	return nil
}

func (c *Config) score(m *arima.Model) float64 {
	switch c.Criterion {
	case "bic":
		return m.BIC
	case "aicc":
		return m.AICc
	default:
		return m.AIC
	}
}

// ConvergenceError is returned when no candidate order could be fitted.
type ConvergenceError struct {
	Series    string // name of the searched series, may be empty
	Evaluated int    // candidate orders attempted
	Err       error  // last fit error, or the context error on cancellation
}

func (e *ConvergenceError) Error() string {
	name := e.Series
	if name == "" {
		name = "series"
	}
	return fmt.Sprintf("no ARIMA order converged for %s after %d candidates: %v", name, e.Evaluated, e.Err)
}

func (e *ConvergenceError) Unwrap() error { return e.Err }

// Result represents the result of auto ARIMA model selection.
type Result struct {
	Model *arima.Model

	// Best parameters found
	P  int
	D  int
	Q  int
	SP int
	SD int
	SQ int
	M  int

	// Model metrics
	AIC       float64
	BIC       float64
	LogLik    float64
	Criterion float64

	// Search information
	ModelsEvaluated int
	IsSeasonal      bool
}

// Search selects the ARIMA order that minimizes the configured information
// criterion. A nil config uses DefaultConfig.
func Search(series *timeseries.Series, config *Config) (*Result, error) {
	return SearchContext(context.Background(), series, config)
}

// SearchContext is Search with cancellation checked between candidate fits.
func SearchContext(ctx context.Context, series *timeseries.Series, config *Config) (*Result, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if series == nil || series.Len() == 0 {
		return nil, &ConvergenceError{Err: errors.New("empty series")}
	}

	s := &searcher{
		ctx:    ctx,
		series: series,
		cfg:    config,
		best:   math.Inf(1),
		tried:  make(map[cand]bool),
	}

	s.d = stats.NDiffs(series, config.MaxD, config.StationTest)
	if config.Seasonal {
		s.m = config.SeasonalM
		s.sd = stats.NSDiffs(series, config.SeasonalM, config.MaxSD)
	}

	if config.Stepwise {
		s.stepwise()
	} else {
		s.grid()
	}

	if err := ctx.Err(); err != nil {
		return nil, &ConvergenceError{Series: series.Name, Evaluated: s.evaluated, Err: err}
	}
	if s.bestModel == nil {
		return nil, &ConvergenceError{Series: series.Name, Evaluated: s.evaluated, Err: s.lastErr}
	}

	o, so := s.bestModel.Order, s.bestModel.Seasonal
	return &Result{
		Model:           s.bestModel,
		P:               o.P,
		D:               o.D,
		Q:               o.Q,
		SP:              so.P,
		SD:              so.D,
		SQ:              so.Q,
		M:               so.M,
		AIC:             s.bestModel.AIC,
		BIC:             s.bestModel.BIC,
		LogLik:          s.bestModel.LogLik,
		Criterion:       s.best,
		ModelsEvaluated: s.evaluated,
		IsSeasonal:      so.M > 1,
	}, nil
}

type cand struct {
	p, q, sp, sq int
}

type searcher struct {
	ctx    context.Context
	series *timeseries.Series
	cfg    *Config
	d, sd  int
	m      int

	tried     map[cand]bool
	evaluated int
	lastErr   error
	best      float64
	bestCand  cand
	bestModel *arima.Model
}

func (s *searcher) inBounds(c cand) bool {
	if c.p < 0 || c.q < 0 || c.sp < 0 || c.sq < 0 {
		return false
	}
	if c.p > s.cfg.MaxP || c.q > s.cfg.MaxQ {
		return false
	}
	if s.m == 0 {
		return c.sp == 0 && c.sq == 0
	}
	return c.sp <= s.cfg.MaxSP && c.sq <= s.cfg.MaxSQ
}

// try fits one candidate and reports whether it became the new best.
// It returns false without fitting once the context is done.
func (s *searcher) try(c cand) bool {
	if !s.inBounds(c) || s.tried[c] {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.lastErr = err
		return false
	}
	s.tried[c] = true
	s.evaluated++

	model := arima.NewSeasonal(
		arima.Order{P: c.p, D: s.d, Q: c.q},
		arima.SeasonalOrder{P: c.sp, D: s.sd, Q: c.sq, M: s.m},
	)
	if err := model.Fit(s.series); err != nil {
		s.lastErr = fmt.Errorf("%s: %w", model, err)
		s.cfg.Logger.Debug().Str("model", model.String()).Err(err).Msg("candidate failed")
		return false
	}

	score := s.cfg.score(model)
	s.cfg.Logger.Debug().Str("model", model.String()).Float64("criterion", score).Msg("candidate fitted")
	if math.IsNaN(score) || score >= s.best {
		return false
	}
	s.best = score
	s.bestCand = c
	s.bestModel = model
	return true
}

// stepwise runs the Hyndman-Khandakar style neighbourhood search.
func (s *searcher) stepwise() {
	starts := []cand{{0, 0, 0, 0}, {1, 0, 0, 0}, {0, 1, 0, 0}, {2, 2, 0, 0}}
	if s.m > 0 {
		starts = []cand{{0, 0, 0, 0}, {1, 0, 1, 0}, {0, 1, 0, 1}, {2, 2, 1, 1}}
	}
	for _, c := range starts {
		s.try(c)
	}

	for s.bestModel != nil && s.ctx.Err() == nil {
		b := s.bestCand
		neighbours := []cand{
			{b.p + 1, b.q, b.sp, b.sq},
			{b.p - 1, b.q, b.sp, b.sq},
			{b.p, b.q + 1, b.sp, b.sq},
			{b.p, b.q - 1, b.sp, b.sq},
			{b.p + 1, b.q + 1, b.sp, b.sq},
			{b.p - 1, b.q - 1, b.sp, b.sq},
		}
		if s.m > 0 {
			neighbours = append(neighbours,
				cand{b.p, b.q, b.sp + 1, b.sq},
				cand{b.p, b.q, b.sp - 1, b.sq},
				cand{b.p, b.q, b.sp, b.sq + 1},
				cand{b.p, b.q, b.sp, b.sq - 1},
			)
		}

		improved := false
		for _, c := range neighbours {
			if s.try(c) {
				improved = true
				break
			}
		}
		if !improved {
			return
		}
	}
}

func (s *searcher) grid() {
	maxSP, maxSQ := 0, 0
	if s.m > 0 {
		maxSP, maxSQ = s.cfg.MaxSP, s.cfg.MaxSQ
	}
	for p := 0; p <= s.cfg.MaxP; p++ {
		for q := 0; q <= s.cfg.MaxQ; q++ {
			for sp := 0; sp <= maxSP; sp++ {
				for sq := 0; sq <= maxSQ; sq++ {
					s.try(cand{p, q, sp, sq})
				}
			}
		}
	}
}

// Predict generates forecasts using the selected model.
func (r *Result) Predict(steps int) ([]float64, error) {
	if r.Model == nil {
		return nil, arima.ErrNotFitted
	}
	return r.Model.Predict(steps)
}

// Residuals returns the model residuals.
func (r *Result) Residuals() []float64 {
	if r.Model == nil {
		return nil
	}
	return r.Model.Residuals()
}

// String returns the selected order, e.g. "ARIMA(1,1,0)".
func (r *Result) String() string {
	if r.Model == nil {
		return "ARIMA(unfitted)"
	}
	return r.Model.String()
}
