package input_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stroop/internal/catalog"
	"stroop/internal/input"
	"stroop/internal/input/inputtest"
)

func TestResultShapes(t *testing.T) {
	ok := input.Success(2)
	idx, isOK := ok.Index()
	assert.True(t, isOK)
	assert.Equal(t, 2, idx)
	assert.Equal(t, input.None, ok.Reason())
	assert.Equal(t, "success(2)", ok.String())

	fail := input.Failure(input.Timeout, "")
	_, isOK = fail.Index()
	assert.False(t, isOK)
	assert.False(t, fail.OK())
	assert.Equal(t, "failure(timeout)", fail.String())

	// A failure can never masquerade as success.
	assert.Equal(t, input.RecognitionFailed, input.Failure(input.None, "x").Reason())
}

func TestSucceedGuardsCatalogBounds(t *testing.T) {
	cat := catalog.MustNew([]catalog.Entry{{Key: "red"}, {Key: "green"}})

	assert.True(t, input.Succeed(cat, 1).OK())
	for _, i := range []int{-1, 2, 5} {
		res := input.Succeed(cat, i)
		assert.Equal(t, input.NoMatch, res.Reason(), "index %d", i)
	}
}

func TestRunLoopStepCompletes(t *testing.T) {
	target := inputtest.NewTarget(80, 24)
	calls := 0

	res := input.RunLoop(context.Background(), target, time.Now().Add(time.Second), time.Millisecond,
		func(time.Time, []input.Event) (input.Result, bool) {
			calls++
			if calls == 3 {
				return input.Success(0), true
			}
			return input.Result{}, false
		})

	assert.True(t, res.OK())
	assert.Equal(t, 3, calls)
}

func TestRunLoopTimeout(t *testing.T) {
	target := inputtest.NewTarget(80, 24)

	res := input.RunLoop(context.Background(), target, time.Now().Add(20*time.Millisecond), time.Millisecond,
		func(time.Time, []input.Event) (input.Result, bool) { return input.Result{}, false })

	assert.Equal(t, input.Timeout, res.Reason())
}

func TestRunLoopQuitEvent(t *testing.T) {
	target := inputtest.NewTarget(80, 24)
	target.At(4, input.Quit())
	calls := 0

	res := input.RunLoop(context.Background(), target, time.Now().Add(time.Second), time.Millisecond,
		func(time.Time, []input.Event) (input.Result, bool) {
			calls++
			return input.Result{}, false
		})

	assert.Equal(t, input.Cancelled, res.Reason())
	assert.Equal(t, 3, calls)
}

func TestRunLoopContextCancel(t *testing.T) {
	target := inputtest.NewTarget(80, 24)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	start := time.Now()
	res := input.RunLoop(ctx, target, time.Now().Add(5*time.Second), 50*time.Millisecond,
		func(time.Time, []input.Event) (input.Result, bool) { return input.Result{}, false })

	require.Equal(t, input.Cancelled, res.Reason())
	assert.Less(t, time.Since(start), time.Second)
}

func TestRunLoopPassesEventsToStep(t *testing.T) {
	target := inputtest.NewTarget(80, 24)
	target.Push(input.Key('g'))

	res := input.RunLoop(context.Background(), target, time.Now().Add(time.Second), time.Millisecond,
		func(_ time.Time, events []input.Event) (input.Result, bool) {
			for _, ev := range events {
				if ev.Kind == input.EventKey && ev.Rune == 'g' {
					return input.Success(1), true
				}
			}
			return input.Result{}, false
		})

	idx, ok := res.Index()
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}
