package keys

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

func TestLookup(t *testing.T) {
	m := DefaultMap()

	tests := []struct {
		r    rune
		size int
		want int
		ok   bool
	}{
		{'r', 5, 0, true},
		{'G', 5, 1, true},
		{'3', 5, 2, true},
		{'p', 5, 4, true},
		{'o', 5, -1, false},
		{'7', 7, 6, true},
		{'x', 5, -1, false},
		{'q', 5, -1, false},
	}
	for _, tt := range tests {
		got, ok := m.Lookup(tt.r, tt.size)
		assert.Equal(t, tt.ok, ok, "%q", tt.r)
		assert.Equal(t, tt.want, got, "%q", tt.r)
	}
}

func TestHint(t *testing.T) {
	assert.Equal(t, "rgb", string(DefaultMap().Hint(3)))
	assert.Equal(t, "12", string(Map{'1': 0, '2': 1}.Hint(2)))
}

func primaries() catalog.Catalog {
	return catalog.MustNew([]catalog.Entry{{Key: "red"}, {Key: "green"}, {Key: "blue"}})
}

func TestKeySelectsColor(t *testing.T) {
	e := New(nil, time.Second, nil)
	defer e.Cleanup()

	target := inputtest.NewTarget(80, 24)
	target.At(2, input.Key('y'), input.Click(1, 1))
	target.At(3, input.Key('B'))

	res := e.GetInput(context.Background(), primaries(), target, inputtest.Strings{})
	idx, ok := res.Index()
	require.True(t, ok, res.String())
	assert.Equal(t, 2, idx)
	assert.Equal(t, "rgb", target.Statuses()[0].Detail)
}

func TestKeyTimesOut(t *testing.T) {
	e := New(nil, 50*time.Millisecond, nil)
	res := e.GetInput(context.Background(), primaries(), inputtest.NewTarget(80, 24), inputtest.Strings{})
	assert.Equal(t, input.Timeout, res.Reason())
}

func TestKeyCancelledByContext(t *testing.T) {
	e := New(nil, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := e.GetInput(ctx, primaries(), inputtest.NewTarget(80, 24), inputtest.Strings{})
	assert.Equal(t, input.Cancelled, res.Reason())
}
