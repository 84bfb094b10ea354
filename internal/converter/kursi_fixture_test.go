package converter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kursBot/internal/browser"
	"kursBot/internal/config"
)

// Локальная копия верстки kursi.ge, у которой поле "To" никогда не
// заполняется: сайт не пересчитывает, бот обязан деградировать мягко.
const kursiStuckFixture = `<!DOCTYPE html>
<html><body>
<div class="bg-primary-900">
  <p>Convert</p>
  <div class="relative">
    <span class="text-gray-300 uppercase text-sm font-noto">From</span>
    <button aria-haspopup="menu">GEL</button>
    <input placeholder="0.00">
  </div>
  <div class="relative">
    <span class="text-gray-300 uppercase text-sm font-noto">To</span>
    <button aria-haspopup="menu">USD</button>
    <input placeholder="0.00">
  </div>
  <button role="menuitem">GEL — Georgian Lari</button>
  <button role="menuitem">USD — US Dollar</button>
  <button role="menuitem">EUR — Euro</button>
</div>
</body></html>`

// Нужен установленный chromium, но не сеть: страница отдается локально.
func TestConvertKursiOutputNeverSettles(t *testing.T) {
	if os.Getenv("E2E_BROWSER_TESTS") != "1" {
		t.Skip("E2E_BROWSER_TESTS != 1")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(kursiStuckFixture))
	}))
	defer srv.Close()

	log := zap.NewNop()
	mgr := browser.NewManager(config.Browser{
		ExecutablePath: os.Getenv("BROWSER_EXECUTABLE_PATH"),
		Headless:       true,
		OutputTimeout:  2 * time.Second,
		OutputInterval: 200 * time.Millisecond,
	}, log)

	s := NewService(mgr, log)
	s.kursiURL = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := s.ConvertKursi(ctx, Request{Base: "GEL", Quote: "USD", Amount: 100})
	require.NoError(t, err, "неподтвержденный результат не должен быть фатальным")

	assert.True(t, res.Unconfirmed)
	assert.Zero(t, res.ConvertedAmount)
	assert.Equal(t, "100,00 GEL → USD", res.Caption)
	assert.NotEmpty(t, res.Screenshot)
}
