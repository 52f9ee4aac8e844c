package camera

import (
	"context"
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// QRReader decodes QR codes from camera frames.
type QRReader struct {
	*Device
	detector gocv.QRCodeDetector
	points   gocv.Mat
	straight gocv.Mat
}

// NewQRReader opens the camera at index for QR scanning. QR frames are not
// mirrored; codes must be read the right way round.
func NewQRReader(index int) (*QRReader, error) {
	d, err := Open(index, false)
	if err != nil {
		return nil, err
	}
	return &QRReader{
		Device:   d,
		detector: gocv.NewQRCodeDetector(),
		points:   gocv.NewMat(),
		straight: gocv.NewMat(),
	}, nil
}

// Scan returns the payload in the current frame, or "" when there is none.
func (r *QRReader) Scan(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.grab(ctx); err != nil {
		return "", err
	}
	return strings.TrimSpace(r.detector.DetectAndDecode(r.frame, &r.points, &r.straight)), nil
}

// Close releases the detector and the camera.
func (r *QRReader) Close() error {
	r.mu.Lock()
	r.points.Close()
	r.straight.Close()
	r.detector.Close()
	r.mu.Unlock()
	return r.Device.Close()
}

// DecodeFile decodes the QR code in an image file.
func DecodeFile(path string) (string, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return "", fmt.Errorf("read %s: %w", path, ErrEmptyFrame)
	}

	detector := gocv.NewQRCodeDetector()
	defer detector.Close()
	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()

	return strings.TrimSpace(detector.DetectAndDecode(img, &points, &straight)), nil
}
