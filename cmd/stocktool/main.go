// Command stocktool downloads a daily closing price series, reports its
// return and drawdown, and forecasts the coming days with auto-selected
// ARIMA models.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/sartorproj/stocktool/analysis"
	"github.com/sartorproj/stocktool/internal/config"
	"github.com/sartorproj/stocktool/internal/logging"
	"github.com/sartorproj/stocktool/internal/output"
	"github.com/sartorproj/stocktool/internal/prompt"
	"github.com/sartorproj/stocktool/internal/provider/nasdaq"
	"github.com/sartorproj/stocktool/pipeline"
	"github.com/sartorproj/stocktool/timeseries"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Error().Err(err).Msg("stocktool failed")
		stop()
		os.Exit(1)
	}
}

// app holds what one interactive session needs.
type app struct {
	cfg    *config.Config
	out    io.Writer
	ask    *prompt.Prompter
	files  *output.Writer
	logger zerolog.Logger
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("stocktool", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	// A .env file in the working directory may carry STOCKTOOL_* overrides.
	envErr := godotenv.Load()

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat, stderr)
	if envErr != nil {
		logger.Debug().Msg("No .env file found, using environment and config file")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	start, end, err := cfg.Range()
	if err != nil {
		return err
	}

	a := &app{
		cfg:    cfg,
		out:    stdout,
		ask:    prompt.New(stdin, stdout, cfg.AssumeYes),
		files:  output.NewWriter(cfg.OutputDir, output.Identifier(cfg.Dataset, start, end)),
		logger: logger,
	}

	fmt.Fprintf(stdout, "Looking into the %s stock inside the %s database\n", cfg.Dataset, cfg.Database)

	series, err := a.load(ctx, start, end)
	if err != nil {
		return err
	}
	logger.Info().
		Str("dataset", cfg.Dataset).
		Int("observations", series.Len()).
		Msg("Series retrieved")
	fmt.Fprintln(stdout, "API response data:")
	printRows(stdout, series.Timestamps, series.Values, nil, nil)

	if err := a.step("Would you like to save the retrieved data?", func() error {
		return a.saved(a.files.SaveData(series))
	}); err != nil {
		return err
	}

	if err := a.step("Would you like to calculate the return?", func() error {
		r, err := analysis.SimpleReturn(series)
		if err != nil {
			return err
		}
		switch {
		case r.IsLoss():
			fmt.Fprintf(stdout, "Oh no! You have made a loss of: %s%%\n", r.Percent)
		case r.IsProfit():
			fmt.Fprintf(stdout, "Congrats, you have made a profit of %s%%!\n", r.Percent)
		default:
			fmt.Fprintln(stdout, "The price closed where it started.")
		}
		return nil
	}); err != nil {
		return err
	}

	if err := a.step("Would you like to calculate the drawdown?", func() error {
		dd, err := analysis.MaxDrawdown(series, analysis.WindowDays(start, end))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Average Max Drawdown is then %s %%\n", dd.MeanPercent)
		return a.step("Would you like to save the max drawdown plot?", func() error {
			return a.saved(a.files.PlotDrawdown(dd.Max))
		})
	}); err != nil {
		return err
	}

	question := fmt.Sprintf("Would you like to make a %d day forecast?", cfg.Pipeline.HorizonDays)
	if err := a.step(question, func() error {
		return a.forecast(ctx, series)
	}); err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Thank you for using StockTool!")
	return nil
}

// load reads the series from the configured CSV or downloads it.
func (a *app) load(ctx context.Context, start, end time.Time) (*timeseries.Series, error) {
	if a.cfg.Input != "" {
		series, err := timeseries.LoadCSV(a.cfg.Input, nil)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", a.cfg.Input, err)
		}
		series.Name = a.cfg.Dataset
		return series, nil
	}

	apiKey, err := a.cfg.Credential()
	if err != nil {
		return nil, err
	}
	client := nasdaq.NewClient(nasdaq.ClientOptions{
		APIKey:          apiKey,
		BaseURL:         a.cfg.Provider.BaseURL,
		RequestTimeout:  a.cfg.Provider.RequestTimeout,
		RequestsPerSec:  a.cfg.Provider.RequestsPerSec,
		MaxRetryTimeout: a.cfg.Provider.MaxRetryTimeout,
	}).WithLogger(a.logger)

	return client.FetchSeries(ctx, nasdaq.Request{
		Database: a.cfg.Database,
		Dataset:  a.cfg.Dataset,
		Start:    start,
		End:      end,
	})
}

func (a *app) forecast(ctx context.Context, series *timeseries.Series) error {
	cfg, err := a.cfg.PipelineConfig()
	if err != nil {
		return err
	}
	report, err := pipeline.Run(ctx, series, cfg, a.logger)
	if err != nil {
		return err
	}

	eval := report.BenchmarkEval
	if report.Chosen == report.Best {
		eval = report.BestEval
	}
	fmt.Fprintf(a.out, "Benchmark MSE: %.6f, transformed MSE: %.6f, forecasting with %s\n",
		report.BenchmarkEval.MSE, report.BestEval.MSE, report.Chosen.Name())
	fmt.Fprintf(a.out, "Predictions for the %d test days are:\n", eval.Predictions.Len())
	printRows(a.out, eval.Predictions.Timestamps, eval.Predictions.Values, nil, nil)
	fc := report.Forecast
	fmt.Fprintf(a.out, "Predictions for the %d days are:\n", len(fc.Dates))
	printRows(a.out, fc.Dates, fc.Values, fc.Lower, fc.Upper)

	horizon := a.cfg.Pipeline.HorizonDays
	steps := []struct {
		question string
		do       func() (string, error)
	}{
		{"Would you like to save the test forecast?", func() (string, error) {
			return a.files.SaveTestPredictions(eval.Predictions)
		}},
		{"Would you like to save the test plot?", func() (string, error) {
			return a.files.PlotTestPredictions(report.Split.Train, report.Split.Test, eval.Predictions)
		}},
		{fmt.Sprintf("Would you like to save the %d day forecast?", horizon), func() (string, error) {
			return a.files.SaveForecast(report.Forecast)
		}},
		{fmt.Sprintf("Would you like to save the %d day forecast plot?", horizon), func() (string, error) {
			return a.files.PlotForecast(series, report.Forecast)
		}},
	}
	for _, s := range steps {
		if err := a.step(s.question, func() error { return a.saved(s.do()) }); err != nil {
			return err
		}
	}

	fmt.Fprintln(a.out, report.Chosen.Summary())
	return nil
}

// promptError marks a failure to read an answer, which ends the session.
type promptError struct{ err error }

func (e *promptError) Error() string { return "reading answer: " + e.err.Error() }
func (e *promptError) Unwrap() error { return e.err }

// step runs do when the user confirms question. A failing do is logged and
// skipped so later steps still run; only prompt failures are returned.
func (a *app) step(question string, do func() error) error {
	ok, err := a.ask.Confirm(question)
	if err != nil {
		return &promptError{err: err}
	}
	if !ok {
		return nil
	}
	if err := do(); err != nil {
		var pe *promptError
		if errors.As(err, &pe) {
			return err
		}
		a.logger.Warn().Err(err).Str("step", question).Msg("Step failed, skipping")
		fmt.Fprintf(a.out, "Skipped: %v\n", err)
	}
	return nil
}

// previewRows is the row count above which printRows shows only the head
// and tail.
const previewRows = 10

// printRows writes dated values, with interval bounds when both are given.
func printRows(w io.Writer, dates []time.Time, values, lower, upper []float64) {
	bounds := len(lower) == len(values) && len(upper) == len(values)
	row := func(i int) {
		if bounds {
			fmt.Fprintf(w, "  %s  %12.4f  [%.4f, %.4f]\n",
				dates[i].Format(timeseries.DateLayout), values[i], lower[i], upper[i])
			return
		}
		fmt.Fprintf(w, "  %s  %12.4f\n", dates[i].Format(timeseries.DateLayout), values[i])
	}

	n := len(values)
	if n <= previewRows {
		for i := 0; i < n; i++ {
			row(i)
		}
		return
	}
	half := previewRows / 2
	for i := 0; i < half; i++ {
		row(i)
	}
	fmt.Fprintf(w, "  ... %d more rows ...\n", n-previewRows)
	for i := n - half; i < n; i++ {
		row(i)
	}
}

func (a *app) saved(path string, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s\n", path)
	a.logger.Debug().Str("path", path).Msg("Artifact written")
	return nil
}
