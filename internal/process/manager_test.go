package process

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	return NewManager(dir, slog.New(slog.NewTextHandler(io.Discard, nil))), dir
}

func TestManager_PID(t *testing.T) {
	m, dir := newTestManager(t)

	assert.Equal(t, 0, m.ReadPID())
	assert.False(t, m.IsRunning())

	require.NoError(t, m.WritePID())
	assert.Equal(t, os.Getpid(), m.ReadPID())
	assert.True(t, m.IsRunning())

	m.CleanupPID()
	_, err := os.Stat(filepath.Join(dir, pidFilename))
	assert.True(t, os.IsNotExist(err))
}

func TestManager_InvalidPIDFile(t *testing.T) {
	m, dir := newTestManager(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, pidFilename), []byte("garbage"), 0o600))
	assert.Equal(t, 0, m.ReadPID())
	assert.NoError(t, m.Stop())
}

func TestManager_RefCount(t *testing.T) {
	m, _ := newTestManager(t)

	m.IncrementRef()
	m.IncrementRef()
	assert.Equal(t, 2, m.ReadRef())

	assert.Equal(t, 1, m.DecrementRef())
	assert.Equal(t, 0, m.DecrementRef())
	assert.Equal(t, 0, m.DecrementRef())

	m.CleanupRef()
	assert.Equal(t, 0, m.ReadRef())
}

func TestManager_WaitForService(t *testing.T) {
	m, _ := newTestManager(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.True(t, m.WaitForService(context.Background(), srv.URL, time.Second))

	started, err := m.StartServiceIfNeeded(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, started)

	srv.Close()
	assert.False(t, m.WaitForService(context.Background(), srv.URL, 250*time.Millisecond))
}
