package vision

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPalmAnchorsLayout(t *testing.T) {
	anchors := PalmAnchors(DefaultPalmConfig())
	require.Len(t, anchors, 24*24*2+12*12*6)

	assert.Equal(t, Anchor{X: 0.5 / 24, Y: 0.5 / 24}, anchors[0])
	assert.Equal(t, anchors[0], anchors[1])
	assert.Equal(t, Anchor{X: 1.5 / 24, Y: 0.5 / 24}, anchors[2])

	coarse := anchors[24*24*2:]
	assert.Equal(t, Anchor{X: 0.5 / 12, Y: 0.5 / 12}, coarse[0])
	assert.Equal(t, coarse[0], coarse[5])
	assert.Equal(t, Anchor{X: 1.5 / 12, Y: 0.5 / 12}, coarse[6])
	assert.Equal(t, Anchor{X: 11.5 / 12, Y: 11.5 / 12}, anchors[len(anchors)-1])
}

func palmOutputs(cfg PalmConfig, n int) ([]float32, []float32) {
	regressors := make([]float32, n*cfg.Values)
	scores := make([]float32, n)
	for i := range scores {
		scores[i] = -10
	}
	return regressors, scores
}

func TestBestPalmDecodesHighestScore(t *testing.T) {
	cfg := DefaultPalmConfig()
	anchors := PalmAnchors(cfg)
	regressors, scores := palmOutputs(cfg, len(anchors))

	scores[10] = 1
	scores[1200] = 2
	copy(regressors[1200*cfg.Values:], []float32{19.2, -9.6, 38.4, 57.6})

	palm, ok := BestPalm(regressors, scores, anchors, cfg)
	require.True(t, ok)
	assert.InDelta(t, 1/(1+math.Exp(-2)), palm.Score, 1e-9)
	// Anchor 1200 is cell 8 of the first row of the coarse grid.
	assert.InDelta(t, 0.1+8.5/12, palm.CX, 1e-6)
	assert.InDelta(t, -0.05+0.5/12, palm.CY, 1e-6)
	assert.InDelta(t, 0.2, palm.W, 1e-6)
	assert.InDelta(t, 0.3, palm.H, 1e-6)
}

func TestBestPalmBelowThreshold(t *testing.T) {
	cfg := DefaultPalmConfig()
	anchors := PalmAnchors(cfg)
	regressors, scores := palmOutputs(cfg, len(anchors))

	_, ok := BestPalm(regressors, scores, anchors, cfg)
	assert.False(t, ok)

	// Short outputs are read only as far as they go.
	scores[0] = 5
	_, ok = BestPalm(regressors[:cfg.Values], scores, anchors, cfg)
	assert.True(t, ok)
	_, ok = BestPalm(nil, scores, anchors, cfg)
	assert.False(t, ok)
}

func TestHandBoxCoversFingers(t *testing.T) {
	cfg := DefaultPalmConfig()
	palm := Palm{Box: Box{CX: 0.5, CY: 0.5, W: 0.1, H: 0.2}}

	box := palm.HandBox(cfg)
	assert.InDelta(t, 0.52, box.W, 1e-9)
	assert.Equal(t, box.W, box.H)
	assert.InDelta(t, 0.4, box.CY, 1e-9, "shifted towards the fingers")

	assert.Equal(t, image.Rect(24, 14, 76, 66), box.Rect(100))
	assert.Equal(t, image.Rect(0, 40, 15, 60), Box{CX: 0.05, CY: 0.5, W: 0.2, H: 0.2}.Rect(100))
	assert.True(t, Box{CX: 2, CY: 2, W: 0.1, H: 0.1}.Rect(100).Empty())
}

func TestLandmarksToFrame(t *testing.T) {
	raw := make([]float32, len(Hand{})*3)
	for i := range (Hand{}) {
		raw[i*3], raw[i*3+1] = 112, 56
	}
	raw[ThumbTip*3] = 224

	crop := image.Rect(100, 50, 300, 250)
	hand := LandmarksToFrame(raw, 224, crop, 400, 300)

	assert.InDelta(t, 0.5, hand[0].X, 1e-9)
	assert.InDelta(t, 100.0/300, hand[0].Y, 1e-9)
	assert.InDelta(t, 0.75, hand[ThumbTip].X, 1e-9, "right edge of the crop")
}
