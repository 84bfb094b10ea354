package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kursBot/internal/config"
)

func testManager(cfg config.Browser) *Manager {
	return NewManager(cfg, zap.NewNop())
}

func TestNewProfileDirUnique(t *testing.T) {
	const n = 20
	var mu sync.Mutex
	seen := map[string]bool{}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dir, err := newProfileDir()
			require.NoError(t, err)
			defer os.RemoveAll(dir)

			info, err := os.Stat(dir)
			require.NoError(t, err)
			assert.True(t, info.IsDir())

			mu.Lock()
			assert.False(t, seen[dir], "каталог профиля выдан дважды: %s", dir)
			seen[dir] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
}

func TestLaunchArgsIsolateProfile(t *testing.T) {
	args := launchArgs("/tmp/profile-x")
	assert.Contains(t, args, "--user-data-dir=/tmp/profile-x")
	assert.Contains(t, args, "--no-sandbox")
	assert.Contains(t, args, "--disable-dev-shm-usage")
}

// Явно заданный путь обязан существовать: поиска по системе при опечатке
// в конфиге быть не должно.
func TestFindExecutableExplicitPathMissing(t *testing.T) {
	bogus := filepath.Join(t.TempDir(), "no-such-chromium")
	m := testManager(config.Browser{ExecutablePath: bogus})

	_, err := m.findExecutable()
	require.Error(t, err)

	var nf *BrowserNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []string{bogus}, nf.Checked)
}

func TestFindExecutableExplicitPathExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chromium")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))

	m := testManager(config.Browser{ExecutablePath: path})
	got, err := m.findExecutable()
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

// Провал до запуска браузера не должен оставлять мусорных каталогов профиля.
func TestAcquireCleansProfileOnFailure(t *testing.T) {
	before := profileDirs(t)

	m := testManager(config.Browser{
		ExecutablePath: filepath.Join(t.TempDir(), "no-such-chromium"),
	})
	_, err := m.Acquire(context.Background())
	require.Error(t, err)

	var nf *BrowserNotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Equal(t, before, profileDirs(t))
}

func profileDirs(t *testing.T) map[string]bool {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "kursbot-profile-*"))
	require.NoError(t, err)
	dirs := make(map[string]bool, len(matches))
	for _, m := range matches {
		dirs[m] = true
	}
	return dirs
}

func TestReleaseIdempotent(t *testing.T) {
	dir, err := newProfileDir()
	require.NoError(t, err)

	m := testManager(config.Browser{})
	s := &Session{profileDir: dir}

	m.Release(s)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "каталог профиля должен быть удален")

	// Повторный вызов — no-op, без паники
	m.Release(s)
	m.Release(nil)
}

func TestReleaseConcurrent(t *testing.T) {
	dir, err := newProfileDir()
	require.NoError(t, err)

	m := testManager(config.Browser{})
	s := &Session{profileDir: dir}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Release(s)
		}()
	}
	wg.Wait()

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewManagerDefaults(t *testing.T) {
	m := testManager(config.Browser{})
	assert.Equal(t, 60*time.Second, m.cfg.NavigateTimeout)
	assert.Equal(t, 10*time.Second, m.cfg.WidgetTimeout)
	assert.Equal(t, 1200*time.Millisecond, m.cfg.SettleDelay)
	assert.Equal(t, 15*time.Second, m.cfg.OutputTimeout)
	assert.Equal(t, 500*time.Millisecond, m.cfg.OutputInterval)
}
