package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollUntilImmediate(t *testing.T) {
	calls := 0
	err := PollUntil(context.Background(), time.Second, 10*time.Millisecond, func() (bool, error) {
		calls++
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPollUntilEventually(t *testing.T) {
	calls := 0
	err := PollUntil(context.Background(), time.Second, 5*time.Millisecond, func() (bool, error) {
		calls++
		return calls >= 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPollUntilTimeout(t *testing.T) {
	start := time.Now()
	err := PollUntil(context.Background(), 50*time.Millisecond, 5*time.Millisecond, func() (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPollUntilCondError(t *testing.T) {
	boom := errors.New("верстка уехала")
	err := PollUntil(context.Background(), time.Second, 5*time.Millisecond, func() (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestPollUntilParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := PollUntil(ctx, time.Second, 5*time.Millisecond, func() (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, ErrPollTimeout)
}
