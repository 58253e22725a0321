package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_RunsAndDrains(t *testing.T) {
	r := NewRunner(time.Second)
	var ran atomic.Int32

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Go("count", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}))
	}

	require.NoError(t, r.Drain(context.Background()))
	assert.Equal(t, int32(5), ran.Load())
}

func TestRunner_DetachedFromCaller(t *testing.T) {
	r := NewRunner(time.Second)
	var ctxErr atomic.Value

	require.NoError(t, r.Go("detached", func(ctx context.Context) error {
		time.Sleep(10 * time.Millisecond)
		if ctx.Err() != nil {
			ctxErr.Store(ctx.Err())
		}
		return nil
	}))

	require.NoError(t, r.Drain(context.Background()))
	assert.Nil(t, ctxErr.Load())
}

func TestRunner_SurvivesErrorsAndPanics(t *testing.T) {
	r := NewRunner(time.Second)

	require.NoError(t, r.Go("fails", func(ctx context.Context) error { return errors.New("smtp down") }))
	require.NoError(t, r.Go("panics", func(ctx context.Context) error { panic("boom") }))

	assert.NoError(t, r.Drain(context.Background()))
}

func TestRunner_RejectsAfterDrain(t *testing.T) {
	r := NewRunner(time.Second)
	require.NoError(t, r.Drain(context.Background()))

	err := r.Go("late", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrRunnerClosed)
}

func TestRunner_DrainTimeout(t *testing.T) {
	r := NewRunner(time.Second)
	release := make(chan struct{})
	defer close(release)

	require.NoError(t, r.Go("slow", func(ctx context.Context) error {
		<-release
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Drain(ctx), context.DeadlineExceeded)
}
