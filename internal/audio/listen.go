package audio

import (
	"context"
	"fmt"
	"time"
)

// FrameReader отдаёт очередной буфер сэмплов. Вызов блокируется до
// появления данных.
type FrameReader interface {
	ReadFrame() ([]float32, error)
}

// Listen читает кадры из r: ждёт начала речи не дольше opts.Wait, затем
// пишет реплику до opts.PhraseLimit или до паузы opts.Pause.
// Если речь не началась, возвращает ErrSilence.
func Listen(ctx context.Context, r FrameReader, opts ListenOptions) (Clip, error) {
	var (
		samples   []float32
		preroll   []float32
		heard     time.Duration
		quiet     time.Duration
		started   bool
		waited    time.Duration
		frameTime time.Duration
	)

	for {
		if err := ctx.Err(); err != nil {
			return Clip{}, err
		}

		frame, err := r.ReadFrame()
		if err != nil {
			if started && len(samples) > 0 {
				break
			}
			return Clip{}, fmt.Errorf("read frame: %w", err)
		}
		if len(frame) == 0 {
			continue
		}
		frameTime = time.Duration(len(frame)) * time.Second / SampleRate
		loud := peak(frame) >= opts.NoiseFloor

		if !started {
			waited += frameTime
			if !loud {
				preroll = append(preroll[:0], frame...)
				if waited >= opts.Wait {
					return Clip{}, ErrSilence
				}
				continue
			}
			started = true
			samples = append(samples, preroll...)
		}

		samples = append(samples, frame...)
		heard += frameTime
		if loud {
			quiet = 0
		} else {
			quiet += frameTime
		}

		if heard >= opts.PhraseLimit {
			break
		}
		if opts.Pause > 0 && quiet >= opts.Pause {
			break
		}
	}

	return Clip{Samples: samples, SampleRate: SampleRate}, nil
}
