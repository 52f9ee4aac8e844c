package audio

import (
	"fmt"
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// resampleQuality - качество ресемплинга beep (1..64, 4 достаточно для речи).
const resampleQuality = 4

// DecodeWAV читает WAV, сводит каналы в mono и приводит к SampleRate.
func DecodeWAV(r io.Reader) (Clip, error) {
	s, format, err := wav.Decode(r)
	if err != nil {
		return Clip{}, fmt.Errorf("decode wav: %w", err)
	}
	defer s.Close()

	var stream beep.Streamer = s
	target := beep.SampleRate(SampleRate)
	if format.SampleRate != target {
		stream = beep.Resample(resampleQuality, format.SampleRate, target, s)
	}

	buf := make([][2]float64, 512)
	samples := make([]float32, 0, SampleRate)
	for {
		n, ok := stream.Stream(buf)
		for i := 0; i < n; i++ {
			samples = append(samples, float32((buf[i][0]+buf[i][1])/2))
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return Clip{}, fmt.Errorf("decode wav: %w", err)
	}
	if len(samples) == 0 {
		return Clip{}, ErrEmpty
	}

	return Clip{Samples: samples, SampleRate: SampleRate}, nil
}
