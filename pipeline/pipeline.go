package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sartorproj/stocktool/autoarima"
	"github.com/sartorproj/stocktool/forecast"
	"github.com/sartorproj/stocktool/timeseries"
	"github.com/sartorproj/stocktool/transform"
)

// State is a pipeline stage. A run moves through the states in order.
type State int

const (
	Loaded State = iota
	Split
	TransformSelected
	ModelsFit
	Evaluated
	Forecasted
)

var stateNames = [...]string{"loaded", "split", "transform-selected", "models-fit", "evaluated", "forecasted"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// StageError reports the stage a run failed to reach.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Config controls a pipeline run.
type Config struct {
	TrainFraction float64                 `mapstructure:"train_fraction"`
	HorizonDays   int                     `mapstructure:"horizon_days"`
	Candidates    []transform.Transformer `mapstructure:"-"`
	Search        *autoarima.Config       `mapstructure:"search"`
}

// DefaultConfig returns a fresh configuration: 80% training data, a seven
// day horizon, log and Box-Cox candidates and the default order search.
func DefaultConfig() *Config {
	return &Config{
		TrainFraction: 0.8,
		HorizonDays:   7,
		Candidates:    transform.Default(),
		Search:        autoarima.DefaultConfig(),
	}
}

// Validate checks the configuration before a run.
func (c *Config) Validate() error {
	if c.TrainFraction <= 0 || c.TrainFraction >= 1 {
		return fmt.Errorf("train fraction must be in (0, 1), got %g", c.TrainFraction)
	}
	if c.HorizonDays < 1 {
		return fmt.Errorf("horizon must be at least one day, got %d", c.HorizonDays)
	}
	if c.Search != nil {
		if err := c.Search.Validate(); err != nil {
			return fmt.Errorf("search: %w", err)
		}
	}
	return nil
}

// Report collects everything a run produced. Fields after State's stage are
// left empty when the run stops early.
type Report struct {
	RunID string
	State State

	Split                 *timeseries.Split
	Candidate             *transform.Candidate
	TransformErrors       []error
	FallbackUntransformed bool

	Benchmark     forecast.Model
	Best          forecast.Model
	BenchmarkEval *forecast.Evaluation
	BestEval      *forecast.Evaluation

	Chosen   forecast.Model
	Forecast *forecast.Result
}

// Run executes split, transform selection, benchmark and best fits,
// evaluation and the forward forecast on series. On failure the partial
// report is returned together with a *StageError.
func Run(ctx context.Context, series *timeseries.Series, cfg *Config, logger zerolog.Logger) (*Report, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	report := &Report{RunID: uuid.NewString(), State: Loaded}
	log := logger.With().
		Str("component", "pipeline").
		Str("run_id", report.RunID).
		Logger()

	fail := func(stage State, err error) (*Report, error) {
		log.Error().Err(err).Stringer("stage", stage).Msg("pipeline failed")
		return report, &StageError{Stage: stage, Err: err}
	}
	enter := func(stage State) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Debug().Stringer("stage", stage).Msg("entering stage")
		return nil
	}

	if series == nil {
		return fail(Loaded, errors.New("no series"))
	}
	if err := series.Validate(); err != nil {
		return fail(Loaded, err)
	}
	if err := cfg.Validate(); err != nil {
		return fail(Loaded, err)
	}
	candidates := cfg.Candidates
	if candidates == nil {
		candidates = transform.Default()
	}
	search := withLogger(cfg.Search, log)
	log.Info().Str("series", series.Name).Int("observations", series.Len()).Msg("pipeline started")

	// Split
	if err := enter(Split); err != nil {
		return fail(Split, err)
	}
	split, err := timeseries.SplitFraction(series, cfg.TrainFraction)
	if err != nil {
		return fail(Split, err)
	}
	report.Split = split
	report.State = Split
	log.Info().Int("train", split.Train.Len()).Int("test", split.Test.Len()).Msg("series split")

	// Transform selection degrades to the untransformed series.
	if err := enter(TransformSelected); err != nil {
		return fail(TransformSelected, err)
	}
	candidate, errs := transform.Select(split.Train, candidates)
	report.TransformErrors = errs
	for _, err := range errs {
		log.Warn().Err(err).Msg("transform candidate rejected")
	}
	if candidate == nil {
		report.FallbackUntransformed = true
		log.Warn().Msg("no transform could be fitted, using the untransformed series")
	} else {
		report.Candidate = candidate
		log.Info().Str("transform", candidate.Name).Float64("p_value", candidate.PValue).Msg("transform selected")
	}
	report.State = TransformSelected

	// Benchmark and best models
	if err := enter(ModelsFit); err != nil {
		return fail(ModelsFit, err)
	}
	sel := forecast.NewSelector(search)
	benchmark, err := sel.Benchmark(ctx, split.Train)
	if err != nil {
		return fail(ModelsFit, fmt.Errorf("benchmark: %w", err))
	}
	best, err := sel.Best(ctx, split.Train, candidate)
	if err != nil {
		return fail(ModelsFit, fmt.Errorf("best: %w", err))
	}
	report.Benchmark, report.Best = benchmark, best
	report.State = ModelsFit

	// Held-out evaluation
	if err := enter(Evaluated); err != nil {
		return fail(Evaluated, err)
	}
	benchEval, err := forecast.Evaluate(benchmark, split.Test)
	if err != nil {
		return fail(Evaluated, fmt.Errorf("benchmark: %w", err))
	}
	bestEval, err := forecast.Evaluate(best, split.Test)
	if err != nil {
		return fail(Evaluated, fmt.Errorf("best: %w", err))
	}
	report.BenchmarkEval, report.BestEval = benchEval, bestEval
	report.State = Evaluated
	log.Info().
		Float64("benchmark_mse", benchEval.MSE).
		Float64("best_mse", bestEval.MSE).
		Msg("models evaluated")

	// Forward forecast with the variant that tested better.
	if err := enter(Forecasted); err != nil {
		return fail(Forecasted, err)
	}
	report.Chosen = benchmark
	if bestEval.MSE < benchEval.MSE {
		report.Chosen = best
	}
	result, err := forecast.ForecastContext(ctx, report.Chosen, series, cfg.HorizonDays)
	if err != nil {
		return fail(Forecasted, err)
	}
	report.Forecast = result
	report.State = Forecasted
	log.Info().Str("model", result.Model).Int("horizon", cfg.HorizonDays).Msg("forecast ready")

	return report, nil
}

// withLogger returns a copy of cfg that logs candidate fits to log.
func withLogger(cfg *autoarima.Config, log zerolog.Logger) *autoarima.Config {
	var c autoarima.Config
	if cfg == nil {
		c = *autoarima.DefaultConfig()
	} else {
		c = *cfg
	}
	c.Logger = log
	return &c
}
