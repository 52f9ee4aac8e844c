// Package mic записывает с микрофона через PortAudio.
package mic

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"stroop/internal/audio"
)

// Recorder записывает реплику с микрофона.
//
// По умолчанию использует поток устройства по умолчанию. Если задан
// DeviceSelector, открывает выбранное им устройство явно.
type Recorder struct {
	mu     sync.Mutex
	name   string
	pick   DeviceSelector
	buffer []float32
	logger *zap.Logger
}

// DeviceSelector выбирает устройство ввода из списка.
type DeviceSelector func(devices []*portaudio.DeviceInfo) (*portaudio.DeviceInfo, error)

// NewDefault создаёт Recorder на устройстве по умолчанию.
func NewDefault(logger *zap.Logger) (*Recorder, error) {
	return newRecorder("portaudio", nil, logger)
}

// NewDirect создаёт Recorder, который сам находит устройство ввода.
// name - подстрока имени устройства; пустая строка означает первое
// устройство с входными каналами.
func NewDirect(name string, logger *zap.Logger) (*Recorder, error) {
	return newRecorder("portaudio-direct", FirstInput(name), logger)
}

func newRecorder(name string, pick DeviceSelector, logger *zap.Logger) (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Recorder{
		name:   name,
		pick:   pick,
		buffer: make([]float32, audio.FramesPerBuffer),
		logger: logger.Named(name),
	}, nil
}

// Name возвращает название бэкенда.
func (r *Recorder) Name() string {
	return r.name
}

// Record открывает поток, ждёт речь и записывает реплику.
func (r *Recorder) Record(ctx context.Context, opts audio.ListenOptions) (audio.Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stream, err := r.open()
	if err != nil {
		return audio.Clip{}, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return audio.Clip{}, fmt.Errorf("запуск потока: %w", err)
	}
	defer stream.Stop()

	clip, err := audio.Listen(ctx, &streamReader{stream: stream, buffer: r.buffer}, opts)
	if err != nil {
		return audio.Clip{}, err
	}
	r.logger.Debug("реплика записана", zap.Duration("duration", clip.Duration()), zap.Float64("peak", clip.Peak()))
	return clip, nil
}

func (r *Recorder) open() (*portaudio.Stream, error) {
	if r.pick == nil {
		stream, err := portaudio.OpenDefaultStream(
			audio.Channels,        // input channels
			0,                     // output channels
			audio.SampleRate,      // sample rate
			audio.FramesPerBuffer, // frames per buffer
			r.buffer,
		)
		if err != nil {
			return nil, fmt.Errorf("открытие потока: %w", err)
		}
		return stream, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("список устройств: %w", err)
	}
	dev, err := r.pick(devices)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("выбрано устройство", zap.String("device", dev.Name))

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: audio.Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      audio.SampleRate,
		FramesPerBuffer: audio.FramesPerBuffer,
	}
	stream, err := portaudio.OpenStream(params, r.buffer)
	if err != nil {
		return nil, fmt.Errorf("открытие устройства %q: %w", dev.Name, err)
	}
	return stream, nil
}

// Close освобождает PortAudio.
func (r *Recorder) Close() {
	portaudio.Terminate()
}

// FirstInput выбирает первое устройство с входными каналами, имя которого
// содержит name (без учёта регистра).
func FirstInput(name string) DeviceSelector {
	name = strings.ToLower(name)
	return func(devices []*portaudio.DeviceInfo) (*portaudio.DeviceInfo, error) {
		for _, d := range devices {
			if d.MaxInputChannels < audio.Channels {
				continue
			}
			if name == "" || strings.Contains(strings.ToLower(d.Name), name) {
				return d, nil
			}
		}
		return nil, fmt.Errorf("%w: нет устройства ввода %q", audio.ErrNoBackend, name)
	}
}

// streamReader отдаёт буферы потока как кадры.
type streamReader struct {
	stream *portaudio.Stream
	buffer []float32
}

func (s *streamReader) ReadFrame() ([]float32, error) {
	// Ждём полный буфер, опрашивая поток каждые 10ms.
	for i := 0; i < 100; i++ {
		available, err := s.stream.AvailableToRead()
		if err != nil {
			return nil, err
		}
		if available >= len(s.buffer) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := s.stream.Read(); err != nil {
		return nil, err
	}
	frame := make([]float32, len(s.buffer))
	copy(frame, s.buffer)
	return frame, nil
}
