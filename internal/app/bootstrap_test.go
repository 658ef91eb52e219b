package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-aclock/internal/config"
	"github.com/coreman2200/funtimes-aclock/internal/display"
	"github.com/coreman2200/funtimes-aclock/internal/display/sim"
	"github.com/coreman2200/funtimes-aclock/internal/solar"
)

func TestInitCoreSim(t *testing.T) {
	cfg := config.Default()
	c, err := InitCore(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "sim", c.Driver)
	assert.Nil(t, c.Preview)
	_, ok := c.Backend.(*sim.Buffer)
	assert.True(t, ok)
}

func TestInitCorePreviewTee(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = "png"
	cfg.Sim.PNGPath = filepath.Join(t.TempDir(), "face.png")
	cfg.Preview.Enabled = true
	c, err := InitCore(cfg, zerolog.Nop())
	require.NoError(t, err)
	m, ok := c.Backend.(*display.Multi)
	require.True(t, ok)
	assert.Len(t, m.Backends, 2)
	assert.Same(t, c.Preview, m.Backends[1])

	at := solar.InstantOf(time.Date(2024, 11, 5, 13, 0, 0, 0, time.UTC))
	require.NoError(t, c.Backend.Present(c.Renderer.Render(at)))
	require.NoError(t, c.Backend.Close())
}

func TestInitCoreWS(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = "ws"
	c, err := InitCore(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Same(t, c.Preview, c.Backend)
	assert.Equal(t, "ws", c.Preview.Driver)
}

func TestHardwareFallsBackToSim(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = "hardware"
	cfg.Ring.SPIPort = "/dev/does-not-exist"
	b, driver, err := OpenBackend(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()
	assert.NotEmpty(t, driver)
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = "ws"
	cfg.Preview.Addr = "127.0.0.1:0"
	c, err := InitCore(cfg, zerolog.Nop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, c.Serve(ctx))
}

func TestCORS(t *testing.T) {
	h := WithCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/ws", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
