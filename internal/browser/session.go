// Package browser управляет жизненным циклом headless-браузера: поиск
// исполняемого файла, запуск изолированного процесса с одноразовым профилем
// и гарантированная зачистка процесса и каталога при любом исходе.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"kursBot/internal/config"
	"kursBot/internal/logger"
)

// Session — один изолированный процесс браузера со своим каталогом профиля.
// Каталог нельзя разделять между одновременными сессиями: chromium держит
// в нем lock-файл, и второй запуск на том же каталоге падает.
type Session struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	profileDir string

	mu      sync.Mutex
	closing bool
}

// ProfileDir возвращает каталог профиля сессии.
func (s *Session) ProfileDir() string { return s.profileDir }

type Manager struct {
	cfg config.Browser
	log *logger.Zap
}

func NewManager(cfg config.Browser, log *logger.Zap) *Manager {
	if cfg.NavigateTimeout == 0 {
		cfg.NavigateTimeout = 60 * time.Second
	}
	if cfg.WidgetTimeout == 0 {
		cfg.WidgetTimeout = 10 * time.Second
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 1200 * time.Millisecond
	}
	if cfg.OutputTimeout == 0 {
		cfg.OutputTimeout = 15 * time.Second
	}
	if cfg.OutputInterval == 0 {
		cfg.OutputInterval = 500 * time.Millisecond
	}
	return &Manager{cfg: cfg, log: log}
}

// Флаги адаптации к контейнерному окружению, не hardening: chromium в
// контейнере без привилегий не поднимает песочницу, поэтому no-sandbox —
// осознанный компромисс для этого деплоя.
func launchArgs(profileDir string) []string {
	return []string{
		"--no-sandbox",
		"--disable-setuid-sandbox",
		"--disable-dev-shm-usage",
		"--disable-gpu",
		"--no-zygote",
		"--single-process",
		"--disable-extensions",
		"--disable-background-networking",
		"--user-data-dir=" + profileDir,
	}
}

func wellKnownPaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		}
	case "windows":
		return []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files\Chromium\Application\chrome.exe`,
		}
	default:
		return []string{
			"/usr/bin/chromium-browser",
			"/usr/bin/chromium",
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/snap/bin/chromium",
		}
	}
}

var lookupNames = []string{"chromium-browser", "chromium", "google-chrome", "chrome"}

// findExecutable ищет браузер: явный путь из конфига, затем известные пути
// установки, затем поиск по PATH. Явно заданный путь обязан существовать.
func (m *Manager) findExecutable() (string, error) {
	var checked []string

	if m.cfg.ExecutablePath != "" {
		checked = append(checked, m.cfg.ExecutablePath)
		if fileExists(m.cfg.ExecutablePath) {
			return m.cfg.ExecutablePath, nil
		}
		return "", &BrowserNotFoundError{Checked: checked}
	}

	for _, p := range wellKnownPaths() {
		checked = append(checked, p)
		if fileExists(p) {
			return p, nil
		}
	}

	for _, name := range lookupNames {
		checked = append(checked, name)
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}

	return "", &BrowserNotFoundError{Checked: checked}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// newProfileDir создает уникальный одноразовый каталог профиля.
// Метка времени плюс случайный суффикс исключают коллизии между
// одновременными сессиями.
func newProfileDir() (string, error) {
	name := fmt.Sprintf("kursbot-profile-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
	dir := filepath.Join(os.TempDir(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ошибка создания каталога профиля: %w", err)
	}
	return dir, nil
}

// Acquire запускает свежий изолированный браузер. Каждый вызов — новый
// процесс и новый каталог профиля; при ошибке на любом шаге частично
// созданный каталог удаляется.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	profileDir, err := newProfileDir()
	if err != nil {
		return nil, err
	}

	execPath, err := m.findExecutable()
	if err != nil {
		_ = os.RemoveAll(profileDir)
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		_ = os.RemoveAll(profileDir)
		return nil, &BrowserLaunchError{Path: execPath, Err: err}
	}

	br, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		ExecutablePath: playwright.String(execPath),
		Headless:       playwright.Bool(m.cfg.Headless),
		Args:           launchArgs(profileDir),
	})
	if err != nil {
		_ = pw.Stop()
		_ = os.RemoveAll(profileDir)
		return nil, &BrowserLaunchError{Path: execPath, Err: err}
	}

	m.log.Debug("Браузер запущен",
		zap.String("executable", execPath),
		zap.String("profile", profileDir),
	)

	return &Session{pw: pw, browser: br, profileDir: profileDir}, nil
}

// Release завершает процесс и удаляет каталог профиля. Идемпотентен:
// повторный вызов — no-op, так как release зовут и из штатного пути, и из
// defer. Ошибки зачистки логируются и проглатываются, чтобы не затирать
// исходную ошибку запроса.
func (m *Manager) Release(s *Session) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.closing = true
	s.mu.Unlock()

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			m.log.Warn("Ошибка закрытия браузера", zap.Error(err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			m.log.Warn("Ошибка остановки playwright", zap.Error(err))
		}
	}
	if s.profileDir != "" {
		if err := os.RemoveAll(s.profileDir); err != nil {
			m.log.Warn("Ошибка удаления каталога профиля",
				zap.String("profile", s.profileDir), zap.Error(err))
		}
	}
}
