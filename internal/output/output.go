// Package output writes run artifacts under data/, preds/ and plots/
// directories named after the dataset and date range.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/sartorproj/stocktool/forecast"
	"github.com/sartorproj/stocktool/timeseries"
)

// Artifact directories below the output root.
const (
	DataDir  = "data"
	PredsDir = "preds"
	PlotsDir = "plots"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// Identifier names every artifact of one dataset and date range.
func Identifier(dataset string, start, end time.Time) string {
	return fmt.Sprintf("StockToolOut_%s_start_%s_end_%s",
		dataset, start.Format(timeseries.DateLayout), end.Format(timeseries.DateLayout))
}

// Writer saves artifacts for one run.
type Writer struct {
	Root string
	ID   string
}

// NewWriter returns a Writer rooted at root.
func NewWriter(root, id string) *Writer {
	return &Writer{Root: root, ID: id}
}

func (w *Writer) path(dir, suffix string) (string, error) {
	full := filepath.Join(w.Root, dir)
	if err := os.MkdirAll(full, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", full, err)
	}
	return filepath.Join(full, w.ID+suffix), nil
}

func (w *Writer) saveCSV(dir, suffix string, s *timeseries.Series) (string, error) {
	p, err := w.path(dir, suffix)
	if err != nil {
		return "", err
	}
	if err := timeseries.SaveCSV(s, p); err != nil {
		return "", fmt.Errorf("writing %s: %w", p, err)
	}
	return p, nil
}

// SaveData writes the retrieved series to data/<id>_data.csv.
func (w *Writer) SaveData(s *timeseries.Series) (string, error) {
	return w.saveCSV(DataDir, "_data.csv", s)
}

// SaveTestPredictions writes held-out predictions to preds/<id>_test_preds.csv.
func (w *Writer) SaveTestPredictions(s *timeseries.Series) (string, error) {
	return w.saveCSV(PredsDir, "_test_preds.csv", s)
}

// SaveForecast writes the forward forecast to preds/<id>_7day_forecast.csv.
func (w *Writer) SaveForecast(r *forecast.Result) (string, error) {
	return w.saveCSV(PredsDir, "_7day_forecast.csv", r.Series())
}

// PlotDrawdown saves the rolling maximum drawdown to plots/<id>_drawdown.png.
func (w *Writer) PlotDrawdown(dd *timeseries.Series) (string, error) {
	p := newPlot(w.ID+" max drawdown", "drawdown")
	if err := plotutil.AddLines(p, "Max drawdown", points(dd)); err != nil {
		return "", err
	}
	return w.savePlot(p, "_drawdown.png")
}

// PlotTestPredictions saves train, test and predicted values to
// plots/<id>_test_preds.png.
func (w *Writer) PlotTestPredictions(train, test, preds *timeseries.Series) (string, error) {
	p := newPlot(w.ID+" test predictions", "price")
	if err := plotutil.AddLines(p,
		"Train", points(train),
		"Test", points(test),
		"Predictions", points(preds),
	); err != nil {
		return "", err
	}
	return w.savePlot(p, "_test_preds.png")
}

// PlotForecast saves the history followed by the forecast to
// plots/<id>_7day_preds.png. Interval bounds are drawn when present.
func (w *Writer) PlotForecast(history *timeseries.Series, r *forecast.Result) (string, error) {
	p := newPlot(w.ID+" forecast", "price")
	lines := []any{"History", points(history), "Forecast", points(r.Series())}
	if len(r.Lower) == len(r.Dates) && len(r.Upper) == len(r.Dates) {
		lines = append(lines,
			"Lower", dated(r.Dates, r.Lower),
			"Upper", dated(r.Dates, r.Upper))
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return "", err
	}
	return w.savePlot(p, "_7day_preds.png")
}

func (w *Writer) savePlot(p *plot.Plot, suffix string) (string, error) {
	path, err := w.path(PlotsDir, suffix)
	if err != nil {
		return "", err
	}
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return "", fmt.Errorf("saving plot %s: %w", path, err)
	}
	return path, nil
}

func newPlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "date"
	p.Y.Label.Text = ylabel
	p.X.Tick.Marker = plot.TimeTicks{Format: timeseries.DateLayout}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

func points(s *timeseries.Series) plotter.XYs {
	return dated(s.Timestamps, s.Values)
}

func dated(dates []time.Time, values []float64) plotter.XYs {
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i].X = float64(dates[i].Unix())
		xys[i].Y = v
	}
	return xys
}
