// Package camera adapts OpenCV capture, HSV conversion, hand landmarks and
// QR decoding to the frame readers the camera engines consume.
package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"stroop/internal/vision"
)

var (
	// ErrNotOpened means the capture device could not be opened.
	ErrNotOpened = errors.New("camera not opened")
	// ErrEmptyFrame means the device returned no image.
	ErrEmptyFrame = errors.New("empty frame")
)

// Device is an opened camera. Frames are mirrored so the picture matches
// what the subject sees in a mirror.
type Device struct {
	index  int
	mirror bool

	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	work    gocv.Mat
}

// Open opens the camera at index.
func Open(index int, mirror bool) (*Device, error) {
	capture, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("camera %d: %w", index, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("camera %d: %w", index, ErrNotOpened)
	}
	return &Device{
		index:   index,
		mirror:  mirror,
		capture: capture,
		frame:   gocv.NewMat(),
		work:    gocv.NewMat(),
	}, nil
}

// Index returns the device index.
func (d *Device) Index() int { return d.index }

// grab reads the next frame into d.frame. Callers hold d.mu.
func (d *Device) grab(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.capture == nil {
		return ErrNotOpened
	}
	if !d.capture.Read(&d.frame) || d.frame.Empty() {
		return ErrEmptyFrame
	}
	if d.mirror {
		gocv.Flip(d.frame, &d.work, 1)
		d.frame, d.work = d.work, d.frame
	}
	return nil
}

// ReadHSV reads a frame and converts it to the OpenCV HSV scale.
func (d *Device) ReadHSV(ctx context.Context) (vision.HSVImage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.grab(ctx); err != nil {
		return vision.HSVImage{}, err
	}
	return toHSV(d.frame, &d.work)
}

// toHSV converts a BGR frame using scratch as the destination.
func toHSV(bgr gocv.Mat, scratch *gocv.Mat) (vision.HSVImage, error) {
	gocv.CvtColor(bgr, scratch, gocv.ColorBGRToHSV)
	img := vision.HSVImage{Width: scratch.Cols(), Height: scratch.Rows(), Pix: scratch.ToBytes()}
	if img.Empty() {
		return vision.HSVImage{}, ErrEmptyFrame
	}
	return img, nil
}

// Close releases the camera.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil
	}
	err := d.capture.Close()
	d.capture = nil
	d.frame.Close()
	d.work.Close()
	return err
}
