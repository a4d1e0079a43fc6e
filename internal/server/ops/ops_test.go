package ops

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/users/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestHealthz(t *testing.T) {
	s := NewServer("", logging.Discard(), prometheus.NewRegistry())
	code, _ := get(t, s.Routes(), "/healthz")
	assert.Equal(t, http.StatusOK, code)
}

func TestReadyz(t *testing.T) {
	healthy := Check{Name: "db", Ready: func(context.Context) error { return nil }}
	broken := Check{Name: "nats", Ready: func(context.Context) error { return errors.New("connection refused") }}

	code, body := get(t, NewServer("", logging.Discard(), prometheus.NewRegistry(), healthy).Routes(), "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	code, body = get(t, NewServer("", logging.Discard(), prometheus.NewRegistry(), healthy, broken).Routes(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.JSONEq(t, `{"status":"unavailable","failed":{"nats":"connection refused"}}`, body)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "users_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)

	code, body := get(t, NewServer("", logging.Discard(), reg).Routes(), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, strings.Contains(body, "users_test_total 3"), body)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := NewServer("127.0.0.1:0", logging.Discard(), prometheus.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ops server did not stop")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	s := NewServer("127.0.0.1:99999", logging.Discard(), prometheus.NewRegistry())
	require.Error(t, s.Run(context.Background()))
}
