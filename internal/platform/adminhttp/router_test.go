package adminhttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func TestRouter(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	healthy := NewRouter(reg, pingerFunc(func(context.Context) error { return nil }))
	broken := NewRouter(reg, pingerFunc(func(context.Context) error { return errors.New("down") }))

	cases := []struct {
		name   string
		router http.Handler
		path   string
		code   int
		body   string
	}{
		{name: "healthz", router: healthy, path: "/healthz", code: http.StatusOK, body: "ok"},
		{name: "readyz", router: healthy, path: "/readyz", code: http.StatusOK, body: "ready"},
		{name: "readyz down", router: broken, path: "/readyz", code: http.StatusServiceUnavailable, body: "storage unavailable"},
		{name: "healthz ignores storage", router: broken, path: "/healthz", code: http.StatusOK, body: "ok"},
		{name: "metrics", router: healthy, path: "/metrics", code: http.StatusOK, body: "test_total 1"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		tc.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		require.Equal(t, tc.code, rec.Code, tc.name)
		require.Contains(t, rec.Body.String(), tc.body, tc.name)
	}
}
