package converter

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kursBot/internal/browser"
	"kursBot/internal/config"
)

// Живые тесты против xe.com и kursi.ge: нужны установленный chromium и
// сеть, поэтому гоняются только по явному запросу.
func e2eService(t *testing.T) *Service {
	t.Helper()
	if os.Getenv("E2E_BROWSER_TESTS") != "1" {
		t.Skip("E2E_BROWSER_TESTS != 1")
	}
	log := zap.NewNop()
	mgr := browser.NewManager(config.Browser{
		ExecutablePath: os.Getenv("BROWSER_EXECUTABLE_PATH"),
		Headless:       true,
	}, log)
	return NewService(mgr, log)
}

func TestConvertXELive(t *testing.T) {
	s := e2eService(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := s.ConvertXE(ctx, Request{Base: "EUR", Quote: "USD", Amount: 100})
	require.NoError(t, err)

	assert.Greater(t, res.ConvertedAmount, 0.0)
	// EUR/USD исторически держится в разумном коридоре
	assert.Greater(t, res.ConvertedAmount, 50.0)
	assert.Less(t, res.ConvertedAmount, 300.0)
	assert.Contains(t, res.Caption, "EUR")
	assert.Contains(t, res.Caption, "USD")
	assert.NotEmpty(t, res.Screenshot)
}

func TestConvertXEDivisorLive(t *testing.T) {
	s := e2eService(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := s.ConvertXE(ctx, Request{Base: "EUR", Quote: "USD", Amount: 10000, Divisor: 1.015})
	require.NoError(t, err)

	assert.InDelta(t, res.ConvertedAmount/1.015, res.FinalAmount, 1e-6)
	assert.Contains(t, res.Caption, "📊Расчет с делителем")
}

func TestConvertKursiLive(t *testing.T) {
	s := e2eService(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	res, err := s.ConvertKursi(ctx, Request{Base: "GEL", Quote: "USD", Amount: 100})
	require.NoError(t, err)

	assert.Contains(t, res.Caption, "GEL")
	assert.Contains(t, res.Caption, "USD")
	if !res.Unconfirmed {
		assert.Greater(t, res.ConvertedAmount, 0.0)
	}
	assert.NotEmpty(t, res.Screenshot)
}

func TestConvertKursiUnknownCurrencyLive(t *testing.T) {
	s := e2eService(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	_, err := s.ConvertKursi(ctx, Request{Base: "KZT", Quote: "USD", Amount: 100})
	require.Error(t, err)

	var selErr *CurrencySelectionError
	assert.ErrorAs(t, err, &selErr)
}
