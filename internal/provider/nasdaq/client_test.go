package nasdaq

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestClient(url string) *Client {
	return NewClient(ClientOptions{
		APIKey:          "secret",
		BaseURL:         url,
		RequestsPerSec:  100,
		MaxRetryTimeout: time.Second,
		InitialInterval: time.Millisecond,
	})
}

func request() Request {
	return Request{Database: "EOD", Dataset: "FB", Start: date("2015-01-01"), End: date("2015-01-10")}
}

func TestFetchSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/datasets/EOD/FB.json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "4", q.Get("column_index"))
		assert.Equal(t, "2015-01-01", q.Get("start_date"))
		assert.Equal(t, "2015-01-10", q.Get("end_date"))
		assert.Equal(t, "daily", q.Get("collapse"))
		assert.Equal(t, "secret", q.Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"dataset":{"dataset_code":"FB","name":"Facebook","data":[
			["2015-01-06",76.15],["2015-01-05",77.19],["2015-01-04",null],["2015-01-02",78.45]]}}`))
	}))
	defer server.Close()

	s, err := newTestClient(server.URL).FetchSeries(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, "FB", s.Name)
	assert.Equal(t, []float64{78.45, 77.19, 76.15}, s.Values)
	assert.Equal(t, date("2015-01-02"), s.Timestamps[0])
	assert.Equal(t, date("2015-01-06"), s.Timestamps[2])
}

func TestFetchSeriesBadRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"quandl_error":{"code":"QECx02","message":"You have submitted an incorrect Quandl code."}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchSeries(context.Background(), request())

	var badRequest *BadRequestError
	require.True(t, errors.As(err, &badRequest))
	assert.Equal(t, http.StatusNotFound, badRequest.Code)
	assert.Contains(t, badRequest.Message, "incorrect Quandl code")
	assert.Contains(t, err.Error(), docsURL)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchSeriesRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"dataset":{"data":[["2015-01-02",1.5]]}}`))
	}))
	defer server.Close()

	s, err := newTestClient(server.URL).FetchSeries(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5}, s.Values)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchSeriesEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"dataset":{"data":[]}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchSeries(context.Background(), request())

	var empty *EmptyReturnError
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, 0, empty.Size)
}

func TestFetchSeriesMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"dataset":{"data":[["not a date",1]]}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchSeries(context.Background(), request())
	assert.Error(t, err)
}

func TestFetchSeriesCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).FetchSeries(ctx, request())
	assert.ErrorIs(t, err, context.Canceled)
}
