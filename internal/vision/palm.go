package vision

import (
	"image"
	"math"
)

// PalmConfig describes the palm detector: an SSD with fixed-size anchors
// on a square input.
type PalmConfig struct {
	InputSize int
	// Strides lists one entry per anchor layer; consecutive layers with the
	// same stride share one grid.
	Strides []int
	// Values is the number of regressor values per anchor.
	Values   int
	MinScore float64
	// ROIScale grows the palm box to cover the fingers.
	ROIScale float64
	// ROIShiftY moves the hand box along y, in palm heights. Negative is up.
	ROIShiftY float64
}

// DefaultPalmConfig matches the 192x192 palm detection model.
func DefaultPalmConfig() PalmConfig {
	return PalmConfig{
		InputSize: 192,
		Strides:   []int{8, 16, 16, 16},
		Values:    18,
		MinScore:  0.5,
		ROIScale:  2.6,
		ROIShiftY: -0.5,
	}
}

// Anchor is an anchor center in normalized input coordinates.
type Anchor struct {
	X, Y float64
}

// PalmAnchors generates the anchor centers in the order the detector emits
// its predictions. Every layer contributes two anchors per grid cell.
func PalmAnchors(cfg PalmConfig) []Anchor {
	var anchors []Anchor
	for i := 0; i < len(cfg.Strides); {
		stride := cfg.Strides[i]
		j := i
		for j < len(cfg.Strides) && cfg.Strides[j] == stride {
			j++
		}
		perCell := 2 * (j - i)

		side := int(math.Ceil(float64(cfg.InputSize) / float64(stride)))
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				a := Anchor{
					X: (float64(x) + 0.5) / float64(side),
					Y: (float64(y) + 0.5) / float64(side),
				}
				for k := 0; k < perCell; k++ {
					anchors = append(anchors, a)
				}
			}
		}
		i = j
	}
	return anchors
}

// Box is an axis-aligned box in normalized coordinates, given by center and
// size.
type Box struct {
	CX, CY, W, H float64
}

// Rect converts the box to pixels of a side x side square and clips it.
func (b Box) Rect(side int) image.Rectangle {
	s := float64(side)
	r := image.Rect(
		int(math.Round((b.CX-b.W/2)*s)),
		int(math.Round((b.CY-b.H/2)*s)),
		int(math.Round((b.CX+b.W/2)*s)),
		int(math.Round((b.CY+b.H/2)*s)),
	)
	return r.Intersect(image.Rect(0, 0, side, side))
}

// Palm is one decoded palm detection.
type Palm struct {
	Box
	Score float64
}

// BestPalm decodes the detector outputs and returns the highest scoring palm
// above cfg.MinScore. regressors holds Values floats per anchor, scores one
// logit per anchor.
func BestPalm(regressors, scores []float32, anchors []Anchor, cfg PalmConfig) (Palm, bool) {
	n := min(len(anchors), len(scores))
	if cfg.Values > 0 {
		n = min(n, len(regressors)/cfg.Values)
	}

	best, found := Palm{}, false
	for i := 0; i < n; i++ {
		score := sigmoid(float64(scores[i]))
		if score < cfg.MinScore || (found && score <= best.Score) {
			continue
		}
		raw := regressors[i*cfg.Values:]
		size := float64(cfg.InputSize)
		best = Palm{
			Box: Box{
				CX: float64(raw[0])/size + anchors[i].X,
				CY: float64(raw[1])/size + anchors[i].Y,
				W:  float64(raw[2]) / size,
				H:  float64(raw[3]) / size,
			},
			Score: score,
		}
		found = true
	}
	return best, found
}

// HandBox is the square region around the palm that holds the whole hand.
func (p Palm) HandBox(cfg PalmConfig) Box {
	side := math.Max(p.W, p.H) * cfg.ROIScale
	return Box{
		CX: p.CX,
		CY: p.CY + cfg.ROIShiftY*p.H,
		W:  side,
		H:  side,
	}
}

// LandmarksToFrame maps landmark output of a crop back to the frame. raw
// holds x, y, z triples in input pixels of the inputSize x inputSize net;
// crop is the region of the frame the net saw. The result is normalized by
// the frame size.
func LandmarksToFrame(raw []float32, inputSize int, crop image.Rectangle, frameW, frameH int) Hand {
	var h Hand
	in := float64(inputSize)
	for i := range h {
		px := float64(crop.Min.X) + float64(raw[i*3])/in*float64(crop.Dx())
		py := float64(crop.Min.Y) + float64(raw[i*3+1])/in*float64(crop.Dy())
		h[i] = Point{X: px / float64(frameW), Y: py / float64(frameH)}
	}
	return h
}

func sigmoid(x float64) float64 {
	x = math.Max(-100, math.Min(100, x))
	return 1 / (1 + math.Exp(-x))
}
