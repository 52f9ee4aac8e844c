package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"stroop/internal/vision"
)

// HandConfig describes the two networks: the palm detector finds the hand,
// the landmark network runs on a crop around it.
type HandConfig struct {
	Palm vision.PalmConfig
	// PalmRegressors and PalmScores name the detector outputs.
	PalmRegressors string
	PalmScores     string
	// PalmScale and PalmMean normalize detector input as (px-mean)*scale.
	PalmScale float64
	PalmMean  float64

	// InputSize is the square input side of the landmark network.
	InputSize int
	// LandmarkOutput yields 21*3 floats in input pixel space.
	LandmarkOutput string
	// PresenceOutput yields one hand-presence score; empty disables the check.
	PresenceOutput string
	MinPresence    float32
	// MinCrop is the smallest hand crop side in pixels worth running.
	MinCrop int
}

// DefaultHandConfig matches the 192x192 palm detector and the 224x224 hand
// landmark model.
func DefaultHandConfig() HandConfig {
	return HandConfig{
		Palm:           vision.DefaultPalmConfig(),
		PalmRegressors: "regressors",
		PalmScores:     "classificators",
		PalmScale:      1.0 / 255.0,
		InputSize:      224,
		LandmarkOutput: "Identity",
		PresenceOutput: "Identity_1",
		MinPresence:    0.5,
		MinCrop:        16,
	}
}

// HandTracker finds a palm in the frame and runs the landmark network on
// the crop around it.
type HandTracker struct {
	cfg       HandConfig
	palm      gocv.Net
	landmarks gocv.Net
	anchors   []vision.Anchor

	mu     sync.Mutex
	square gocv.Mat
}

func readNet(kind, path string) (gocv.Net, error) {
	if _, err := os.Stat(path); err != nil {
		return gocv.Net{}, fmt.Errorf("%s model: %w", kind, err)
	}
	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return gocv.Net{}, fmt.Errorf("%s model %s: failed to load", kind, path)
	}
	return net, nil
}

// NewHandTracker loads the ONNX palm detector and landmark models.
func NewHandTracker(palmPath, landmarkPath string, cfg HandConfig) (*HandTracker, error) {
	palm, err := readNet("palm", palmPath)
	if err != nil {
		return nil, err
	}
	landmarks, err := readNet("hand", landmarkPath)
	if err != nil {
		palm.Close()
		return nil, err
	}
	return &HandTracker{
		cfg:       cfg,
		palm:      palm,
		landmarks: landmarks,
		anchors:   vision.PalmAnchors(cfg.Palm),
		square:    gocv.NewMat(),
	}, nil
}

func forward(net gocv.Net, names []string) ([]gocv.Mat, func(), error) {
	outs := net.ForwardLayers(names)
	release := func() {
		for i := range outs {
			outs[i].Close()
		}
	}
	if len(outs) != len(names) {
		release()
		return nil, func() {}, fmt.Errorf("model: %d outputs, want %d", len(outs), len(names))
	}
	return outs, release, nil
}

// Detect returns the landmarks of the most prominent hand in a BGR frame.
// The frame is padded to a square at the bottom and right so detector
// coordinates scale to frame pixels by the square side.
func (t *HandTracker) Detect(frame gocv.Mat) (vision.Hand, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cols, rows := frame.Cols(), frame.Rows()
	side := max(cols, rows)
	gocv.CopyMakeBorder(frame, &t.square, 0, side-rows, 0, side-cols, gocv.BorderConstant, color.RGBA{})

	palm, ok, err := t.detectPalm(t.square)
	if err != nil || !ok {
		return vision.Hand{}, false, err
	}
	crop := palm.HandBox(t.cfg.Palm).Rect(side)
	if crop.Dx() < t.cfg.MinCrop || crop.Dy() < t.cfg.MinCrop {
		return vision.Hand{}, false, nil
	}

	region := t.square.Region(crop)
	defer region.Close()

	raw, ok, err := t.detectLandmarks(region)
	if err != nil || !ok {
		return vision.Hand{}, false, err
	}
	return vision.LandmarksToFrame(raw, t.cfg.InputSize, crop, cols, rows), true, nil
}

func (t *HandTracker) detectPalm(square gocv.Mat) (vision.Palm, bool, error) {
	size := t.cfg.Palm.InputSize
	mean := t.cfg.PalmMean
	blob := gocv.BlobFromImage(square, t.cfg.PalmScale, image.Pt(size, size), gocv.NewScalar(mean, mean, mean, 0), true, false)
	defer blob.Close()
	t.palm.SetInput(blob, "")

	outs, release, err := forward(t.palm, []string{t.cfg.PalmRegressors, t.cfg.PalmScores})
	if err != nil {
		return vision.Palm{}, false, fmt.Errorf("palm %w", err)
	}
	defer release()

	regressors, err := outs[0].DataPtrFloat32()
	if err != nil {
		return vision.Palm{}, false, err
	}
	scores, err := outs[1].DataPtrFloat32()
	if err != nil {
		return vision.Palm{}, false, err
	}
	palm, ok := vision.BestPalm(regressors, scores, t.anchors, t.cfg.Palm)
	return palm, ok, nil
}

func (t *HandTracker) detectLandmarks(crop gocv.Mat) ([]float32, bool, error) {
	size := t.cfg.InputSize
	blob := gocv.BlobFromImage(crop, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()
	t.landmarks.SetInput(blob, "")

	names := []string{t.cfg.LandmarkOutput}
	if t.cfg.PresenceOutput != "" {
		names = append(names, t.cfg.PresenceOutput)
	}
	outs, release, err := forward(t.landmarks, names)
	if err != nil {
		return nil, false, fmt.Errorf("hand %w", err)
	}
	defer release()

	if len(outs) > 1 {
		score, err := outs[1].DataPtrFloat32()
		if err != nil {
			return nil, false, err
		}
		if len(score) == 0 || score[0] < t.cfg.MinPresence {
			return nil, false, nil
		}
	}

	raw, err := outs[0].DataPtrFloat32()
	if err != nil {
		return nil, false, err
	}
	if len(raw) < len(vision.Hand{})*3 {
		return nil, false, fmt.Errorf("hand model: %d landmark values", len(raw))
	}
	// The output aliases the Mat; copy before it is closed.
	return append([]float32(nil), raw[:len(vision.Hand{})*3]...), true, nil
}

// Close frees both networks. Readers must be closed first.
func (t *HandTracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return errors.Join(t.palm.Close(), t.landmarks.Close(), t.square.Close())
}

// HandReader pairs a device with a tracker.
type HandReader struct {
	*Device
	tracker *HandTracker
}

// NewHandReader opens the camera at index for hand tracking.
func NewHandReader(index int, tracker *HandTracker) (*HandReader, error) {
	d, err := Open(index, true)
	if err != nil {
		return nil, err
	}
	return &HandReader{Device: d, tracker: tracker}, nil
}

// ReadHand reads a frame and detects a hand in it.
func (r *HandReader) ReadHand(ctx context.Context) (vision.Hand, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.grab(ctx); err != nil {
		return vision.Hand{}, false, err
	}
	return r.tracker.Detect(r.frame)
}
