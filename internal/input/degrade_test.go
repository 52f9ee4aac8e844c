package input_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"stroop/internal/catalog"
	"stroop/internal/input"
	"stroop/internal/input/inputtest"
)

type scripted struct {
	results  []input.Result
	calls    int
	cleanups int
}

func (s *scripted) GetInput(context.Context, catalog.Catalog, input.RenderTarget, input.Strings) input.Result {
	res := s.results[min(s.calls, len(s.results)-1)]
	s.calls++
	return res
}

func (s *scripted) Cleanup() { s.cleanups++ }

func TestDegradingSwitchesOnDeviceLoss(t *testing.T) {
	cat := catalog.MustNew([]catalog.Entry{{Key: "red"}, {Key: "green"}})
	primary := &scripted{results: []input.Result{
		input.Success(0),
		input.Failure(input.DeviceUnavailable, "camera lost"),
	}}
	backup := &scripted{results: []input.Result{input.Success(1)}}

	var switched []input.Result
	e := input.WithBackup(primary, backup, func(r input.Result) { switched = append(switched, r) })
	target := inputtest.NewTarget(80, 24)
	ctx := context.Background()

	first := e.GetInput(ctx, cat, target, inputtest.Strings{})
	assert.True(t, first.OK())
	assert.False(t, e.Degraded())

	second := e.GetInput(ctx, cat, target, inputtest.Strings{})
	idx, ok := second.Index()
	assert.True(t, ok)
	assert.Equal(t, 1, idx, "the failed question is asked again through the backup")
	assert.True(t, e.Degraded())
	assert.Equal(t, 1, primary.cleanups)

	e.GetInput(ctx, cat, target, inputtest.Strings{})
	assert.Equal(t, 2, primary.calls, "the primary is not retried")
	assert.Equal(t, 2, backup.calls)
	assert.Len(t, switched, 1)
	assert.Equal(t, "camera lost", switched[0].Detail())

	e.Cleanup()
	assert.Equal(t, 2, primary.cleanups)
	assert.Equal(t, 1, backup.cleanups)
}

func TestDegradingPassesOtherFailures(t *testing.T) {
	cat := catalog.MustNew([]catalog.Entry{{Key: "red"}})
	for _, reason := range []input.Reason{input.Timeout, input.NoMatch, input.RecognitionFailed, input.Cancelled} {
		primary := &scripted{results: []input.Result{input.Failure(reason, "")}}
		backup := &scripted{results: []input.Result{input.Success(0)}}
		e := input.WithBackup(primary, backup, nil)

		res := e.GetInput(context.Background(), cat, inputtest.NewTarget(80, 24), inputtest.Strings{})
		assert.Equal(t, reason, res.Reason())
		assert.False(t, e.Degraded())
		assert.Zero(t, backup.calls)
	}
}
