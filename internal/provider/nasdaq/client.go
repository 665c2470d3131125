// Package nasdaq fetches daily dataset columns from the Nasdaq Data Link
// time-series API.
package nasdaq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sartorproj/stocktool/timeseries"
)

// DefaultBaseURL is the public Nasdaq Data Link endpoint.
const DefaultBaseURL = "https://data.nasdaq.com/api/v3"

// CloseColumn is the column index of the closing price in EOD-style datasets.
const CloseColumn = 4

const docsURL = "https://docs.data.nasdaq.com/docs/in-depth-usage"

// BadRequestError is returned for a non-200 response.
type BadRequestError struct {
	Code    int
	Message string // provider error message, when the body carried one
}

func (e *BadRequestError) Error() string {
	msg := fmt.Sprintf("nasdaq API returned status %d", e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg + "; check the database, dataset and dates or see " + docsURL
}

// EmptyReturnError is returned when the dataset has no rows in the range,
// for example when start and end fall on the same non-trading day.
type EmptyReturnError struct {
	Size int
}

func (e *EmptyReturnError) Error() string {
	return fmt.Sprintf("nasdaq API returned %d rows; the date range may cover no trading days, see %s", e.Size, docsURL)
}

// Client is the Nasdaq Data Link API client.
type Client struct {
	apiKey          string
	baseURL         string
	httpClient      *http.Client
	limiter         *rate.Limiter
	maxRetryTimeout time.Duration
	initialInterval time.Duration
	logger          zerolog.Logger
}

// ClientOptions holds options for creating a new Client.
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
	// InitialInterval is the first retry delay (backoff default when zero).
	InitialInterval time.Duration
}

// NewClient creates a new Nasdaq Data Link client.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}

	return &Client{
		apiKey:          opts.APIKey,
		baseURL:         opts.BaseURL,
		httpClient:      &http.Client{Timeout: opts.RequestTimeout},
		limiter:         rate.NewLimiter(rate.Every(time.Second), opts.RequestsPerSec),
		maxRetryTimeout: opts.MaxRetryTimeout,
		initialInterval: opts.InitialInterval,
		logger:          log.With().Str("component", "nasdaq_client").Logger(),
	}
}

// WithLogger returns the client logging to l.
func (c *Client) WithLogger(l zerolog.Logger) *Client {
	c.logger = l.With().Str("component", "nasdaq_client").Logger()
	return c
}

// Request selects a dataset column over an inclusive date range.
type Request struct {
	Database string
	Dataset  string
	Start    time.Time
	End      time.Time
	// Column defaults to CloseColumn.
	Column int
}

type datasetResponse struct {
	Dataset struct {
		Name string              `json:"name"`
		Code string              `json:"dataset_code"`
		Data [][]json.RawMessage `json:"data"`
	} `json:"dataset"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"quandl_error"`
}

func (c *Client) endpoint(r Request) string {
	column := r.Column
	if column == 0 {
		column = CloseColumn
	}
	q := url.Values{}
	q.Set("column_index", fmt.Sprint(column))
	q.Set("start_date", r.Start.Format(timeseries.DateLayout))
	q.Set("end_date", r.End.Format(timeseries.DateLayout))
	q.Set("collapse", "daily")
	q.Set("api_key", c.apiKey)
	return fmt.Sprintf("%s/datasets/%s/%s.json?%s",
		c.baseURL, url.PathEscape(r.Database), url.PathEscape(r.Dataset), q.Encode())
}

// FetchSeries downloads the requested column as a series sorted by date.
// Rows with a null value are skipped.
func (c *Client) FetchSeries(ctx context.Context, r Request) (*timeseries.Series, error) {
	body, err := c.get(ctx, c.endpoint(r))
	if err != nil {
		return nil, err
	}

	var data datasetResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if len(data.Dataset.Data) == 0 {
		c.logger.Warn().Str("dataset", r.Dataset).Msg("No rows in response")
		return nil, &EmptyReturnError{Size: 0}
	}

	type row struct {
		date  time.Time
		value float64
	}
	rows := make([]row, 0, len(data.Dataset.Data))
	for i, raw := range data.Dataset.Data {
		if len(raw) < 2 {
			return nil, fmt.Errorf("row %d has %d columns, want 2", i, len(raw))
		}
		var dateStr string
		if err := json.Unmarshal(raw[0], &dateStr); err != nil {
			return nil, fmt.Errorf("row %d: date: %w", i, err)
		}
		date, err := time.Parse(timeseries.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		var value *float64
		if err := json.Unmarshal(raw[1], &value); err != nil {
			return nil, fmt.Errorf("row %d: value: %w", i, err)
		}
		if value == nil {
			continue
		}
		rows = append(rows, row{date: date, value: *value})
	}
	if len(rows) == 0 {
		return nil, &EmptyReturnError{Size: 0}
	}

	// The API returns newest first.
	sort.Slice(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	s := &timeseries.Series{
		Timestamps: make([]time.Time, len(rows)),
		Values:     make([]float64, len(rows)),
		Name:       r.Dataset,
	}
	for i, rw := range rows {
		s.Timestamps[i] = rw.date
		s.Values[i] = rw.value
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s/%s: %w", r.Database, r.Dataset, err)
	}

	c.logger.Debug().Int("count", s.Len()).Str("dataset", r.Dataset).Msg("Fetched series")
	return s, nil
}

// get performs a rate-limited GET, retrying throttling and server errors
// with exponential backoff. Other non-200 responses fail immediately.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			statusErr := &BadRequestError{Code: resp.StatusCode, Message: errorMessage(b)}
			if retryable(resp.StatusCode) {
				c.logger.Warn().Int("status", resp.StatusCode).Msg("Retrying request")
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		body = b
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.maxRetryTimeout
	if c.initialInterval > 0 {
		strategy.InitialInterval = c.initialInterval
	}

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		var statusErr *BadRequestError
		if errors.As(err, &statusErr) {
			c.logger.Error().Int("status", statusErr.Code).Msg("Nasdaq API error")
		}
		return nil, err
	}
	return body, nil
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error.Message
}
