// Package vision holds the pixel and landmark math behind the camera
// engines. Nothing here touches a device; frames arrive as plain values.
package vision

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HSV is a pixel on the 8-bit OpenCV scale: H in [0,179], S and V in [0,255].
type HSV struct {
	H, S, V uint8
}

// Band is an inclusive HSV box.
type Band struct {
	Lo, Hi HSV
}

// Contains reports whether p lies inside the box.
func (b Band) Contains(p HSV) bool {
	return p.H >= b.Lo.H && p.H <= b.Hi.H &&
		p.S >= b.Lo.S && p.S <= b.Hi.S &&
		p.V >= b.Lo.V && p.V <= b.Hi.V
}

// Ranges maps a catalog key to the bands that make up its hue range.
type Ranges map[string][]Band

// DefaultRanges returns the tuned ranges for the base catalog. Pink stops at
// 169 so it never overlaps the upper red band.
func DefaultRanges() Ranges {
	return Ranges{
		"red": {
			{Lo: HSV{0, 120, 100}, Hi: HSV{10, 255, 255}},
			{Lo: HSV{170, 120, 100}, Hi: HSV{179, 255, 255}},
		},
		"green":  {{Lo: HSV{40, 100, 100}, Hi: HSV{80, 255, 255}}},
		"blue":   {{Lo: HSV{100, 100, 100}, Hi: HSV{130, 255, 255}}},
		"yellow": {{Lo: HSV{20, 100, 100}, Hi: HSV{35, 255, 255}}},
		"pink":   {{Lo: HSV{140, 50, 100}, Hi: HSV{169, 255, 255}}},
	}
}

func (r Ranges) match(key string, p HSV) bool {
	for _, b := range r[key] {
		if b.Contains(p) {
			return true
		}
	}
	return false
}

// HSVImage is a packed H,S,V frame, row-major.
type HSVImage struct {
	Width, Height int
	Pix           []uint8
}

// NewHSVImage allocates a blank frame.
func NewHSVImage(w, h int) HSVImage {
	return HSVImage{Width: w, Height: h, Pix: make([]uint8, w*h*3)}
}

// At returns the pixel at (x, y).
func (m HSVImage) At(x, y int) HSV {
	i := (y*m.Width + x) * 3
	return HSV{m.Pix[i], m.Pix[i+1], m.Pix[i+2]}
}

// Set writes the pixel at (x, y).
func (m HSVImage) Set(x, y int, p HSV) {
	i := (y*m.Width + x) * 3
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = p.H, p.S, p.V
}

// Fill paints r with p, clipped to the frame.
func (m HSVImage) Fill(r image.Rectangle, p HSV) {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, p)
		}
	}
}

// Bounds returns the frame rectangle.
func (m HSVImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Empty reports whether the frame has no pixels.
func (m HSVImage) Empty() bool {
	return m.Width <= 0 || m.Height <= 0 || len(m.Pix) < m.Width*m.Height*3
}

// CenterROI is the centered square with side min(w,h)/3.
func CenterROI(w, h int) image.Rectangle {
	side := min(w, h) / 3
	x0 := (w - side) / 2
	y0 := (h - side) / 2
	return image.Rect(x0, y0, x0+side, y0+side)
}

// FromColor converts an RGB color to the OpenCV HSV scale.
func FromColor(c colorful.Color) HSV {
	h, s, v := c.Hsv()
	return HSV{
		H: uint8(min(179, math.Round(h/2))),
		S: uint8(math.Round(s * 255)),
		V: uint8(math.Round(v * 255)),
	}
}

// FromRGB converts 8-bit channels.
func FromRGB(r, g, b uint8) HSV {
	return FromColor(colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255})
}

// FromImage converts any image to an HSVImage. Alpha is ignored.
func FromImage(img image.Image) HSVImage {
	bounds := img.Bounds()
	out := NewHSVImage(bounds.Dx(), bounds.Dy())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c, _ := colorful.MakeColor(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			out.Set(x, y, FromColor(c))
		}
	}
	return out
}
