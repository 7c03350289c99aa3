// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltl-studio/backend/internal/config"
	"github.com/ltl-studio/backend/internal/health"
)

type pinger struct{}

func (pinger) Ping(context.Context) error { return nil }

func newTestServer() (*Server, *health.Handler) {
	hh := health.NewHandler(pinger{})
	srv := New(Config{
		ServerConfig: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			IdleTimeout:  time.Second,
		},
		HealthHandler: hh,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	hh.RegisterRoutes(srv.Router())
	return srv, hh
}

func TestAddr(t *testing.T) {
	srv, _ := newTestServer()
	assert.Equal(t, "127.0.0.1:0", srv.Addr())
}

func TestShutdownFailsReadiness(t *testing.T) {
	srv, _ := newTestServer()

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	require.NoError(t, srv.Shutdown(context.Background(), 10*time.Millisecond))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "shutting_down")
}

func TestShutdownHonorsContext(t *testing.T) {
	srv, _ := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := srv.Shutdown(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}
