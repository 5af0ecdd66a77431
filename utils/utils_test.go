package utils

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	Info("found %d listings", 3)
	Debug("hidden")
	SetVerbose(true)
	Debug("shown")
	SetVerbose(false)

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "found 3 listings")
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.NotContains(t, out, "\033[", "colour codes should be off for buffers")
}

func TestJitterBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := Jitter(10*time.Millisecond, 20*time.Millisecond)
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 20*time.Millisecond)
	}
	assert.Equal(t, 5*time.Millisecond, Jitter(5*time.Millisecond, time.Millisecond))
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoll(t *testing.T) {
	ctx := context.Background()

	calls := 0
	ok, err := Poll(ctx, 3, time.Millisecond, func() (bool, error) {
		calls++
		return calls == 2, nil
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, calls)

	calls = 0
	ok, err = Poll(ctx, 3, time.Millisecond, func() (bool, error) {
		calls++
		return false, nil
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, calls)

	boom := errors.New("boom")
	_, err = Poll(ctx, 3, time.Millisecond, func() (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}
