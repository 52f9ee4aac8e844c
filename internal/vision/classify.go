package vision

import "image"

// DefaultMinCoverage is the share of ROI pixels a color needs to count.
const DefaultMinCoverage = 0.15

// Classifier assigns a frame region to at most one catalog color.
type Classifier struct {
	Ranges      Ranges
	MinCoverage float64
}

// NewClassifier returns a classifier with the default ranges and threshold.
func NewClassifier() Classifier {
	return Classifier{Ranges: DefaultRanges(), MinCoverage: DefaultMinCoverage}
}

// Coverage returns, for each key that has a range, the fraction of pixels
// inside roi that fall into it.
func (c Classifier) Coverage(img HSVImage, roi image.Rectangle, keys []string) map[string]float64 {
	roi = roi.Intersect(image.Rect(0, 0, img.Width, img.Height))
	total := roi.Dx() * roi.Dy()
	out := make(map[string]float64, len(keys))
	if total == 0 || img.Empty() {
		return out
	}

	counts := make(map[string]int, len(keys))
	for y := roi.Min.Y; y < roi.Max.Y; y++ {
		for x := roi.Min.X; x < roi.Max.X; x++ {
			p := img.At(x, y)
			for _, k := range keys {
				if c.Ranges.match(k, p) {
					counts[k]++
				}
			}
		}
	}
	for _, k := range keys {
		if _, ok := c.Ranges[k]; ok {
			out[k] = float64(counts[k]) / float64(total)
		}
	}
	return out
}

// Classify returns the key with the highest coverage inside roi, provided it
// exceeds MinCoverage. Ties go to the key listed first.
func (c Classifier) Classify(img HSVImage, roi image.Rectangle, keys []string) (string, bool) {
	cov := c.Coverage(img, roi, keys)
	best, bestFrac := "", 0.0
	for _, k := range keys {
		if f, ok := cov[k]; ok && f > bestFrac {
			best, bestFrac = k, f
		}
	}
	if best == "" || bestFrac <= c.MinCoverage {
		return "", false
	}
	return best, true
}
