// Package voice реализует голосовой ответ: запись реплики, распознавание
// по цепочке локалей и сопоставление с каталогом цветов.
package voice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"stroop/internal/audio"
	"stroop/internal/catalog"
	"stroop/internal/fallback"
	"stroop/internal/input"
	"stroop/internal/speech"
)

// Config настройки голосового движка.
type Config struct {
	// Language - язык интерфейса, определяет порядок локалей.
	Language string
	// GetReady - пауза перед записью.
	GetReady time.Duration
	// Listen - окна записи.
	Listen audio.ListenOptions
	// Timeout - общее время на ответ.
	Timeout time.Duration
	// PollInterval - период опроса фоновой попытки.
	PollInterval time.Duration
	// JoinTimeout - сколько ждать фоновую попытку при Cleanup.
	JoinTimeout time.Duration
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		Language:     "english",
		GetReady:     time.Second,
		Listen:       audio.DefaultListenOptions(),
		Timeout:      15 * time.Second,
		PollInterval: 50 * time.Millisecond,
		JoinTimeout:  2 * time.Second,
	}
}

// Engine - голосовой движок ввода.
type Engine struct {
	cfg         Config
	recorders   []audio.Recorder
	recognizers []speech.Recognizer
	session     *audio.Session
	capture     *fallback.Chain[audio.Clip]
	recognize   *fallback.Chain[string]
	logger      *zap.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New создаёт движок. session принадлежит движку и удаляется в Cleanup.
func New(cfg Config, recorders []audio.Recorder, recognizers []speech.Recognizer, session *audio.Session, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("voice")
	return &Engine{
		cfg:         cfg,
		recorders:   recorders,
		recognizers: recognizers,
		session:     session,
		// Запоминаем рабочий бэкенд записи между вопросами.
		capture:   fallback.New[audio.Clip](logger.Named("capture"), true),
		recognize: fallback.New[string](logger.Named("recognize"), false),
		logger:    logger,
	}
}

// GetInput проводит одну попытку: GetReady -> Recording -> Processing.
func (e *Engine) GetInput(ctx context.Context, cat catalog.Catalog, target input.RenderTarget, ui input.Strings) input.Result {
	start := time.Now()
	deadline := start.Add(e.cfg.Timeout)
	readyUntil := start.Add(e.cfg.GetReady)

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		phase   atomic.Int32
		results chan input.Result
		started time.Time
	)
	phase.Store(int32(input.PhaseGetReady))

	res := input.RunLoop(ctx, target, deadline, e.cfg.PollInterval, func(now time.Time, _ []input.Event) (input.Result, bool) {
		current := input.Phase(phase.Load())

		if results == nil && !now.Before(readyUntil) {
			results = make(chan input.Result, 1)
			started = now
			phase.Store(int32(input.PhaseRecording))
			current = input.PhaseRecording
			e.wg.Add(1)
			go func() {
				defer e.wg.Done()
				results <- e.attempt(attemptCtx, cat, &phase)
			}()
		}

		if results != nil {
			select {
			case r := <-results:
				return r, true
			default:
			}
		}

		target.Render(e.status(current, now, deadline, readyUntil, started, ui))
		return input.Result{}, false
	})

	e.logger.Debug("ответ", zap.Stringer("result", res), zap.Duration("elapsed", time.Since(start)))
	return res
}

func (e *Engine) status(p input.Phase, now, deadline, readyUntil, started time.Time, ui input.Strings) input.Status {
	s := input.Status{
		Phase:     p,
		Remaining: deadline.Sub(now),
		Progress:  -1,
		Highlight: -1,
	}
	switch p {
	case input.PhaseGetReady:
		s.Message = ui.T("get_ready")
		if e.cfg.GetReady > 0 {
			s.Progress = 1 - float64(readyUntil.Sub(now))/float64(e.cfg.GetReady)
		}
	case input.PhaseRecording:
		s.Message = ui.T("recording")
		if w := e.cfg.Listen.Window(); w > 0 {
			s.Progress = min(1, float64(now.Sub(started))/float64(w))
		}
	default:
		s.Message = ui.T("processing")
	}
	return s
}

// attempt выполняется в фоне: запись, распознавание, сопоставление.
func (e *Engine) attempt(ctx context.Context, cat catalog.Catalog, phase *atomic.Int32) input.Result {
	clip, backend, err := e.capture.Run(ctx, e.captureSteps())
	if err != nil {
		return classifyCapture(ctx, err)
	}
	e.logger.Debug("записано", zap.String("backend", backend), zap.Duration("duration", clip.Duration()))

	phase.Store(int32(input.PhaseProcessing))
	text, via, err := e.recognize.Run(ctx, e.recognizeSteps(clip))
	if err != nil {
		if ctx.Err() != nil {
			return input.Failure(input.Cancelled, ctx.Err().Error())
		}
		return input.Failure(input.RecognitionFailed, err.Error())
	}
	e.logger.Info("распознано", zap.String("text", text), zap.String("via", via))

	idx, ok := cat.Match(text)
	if !ok {
		return input.Failure(input.NoMatch, text)
	}
	return input.Succeed(cat, idx)
}

// classifyCapture: тишина хотя бы у одного бэкенда - Timeout,
// иначе ни одно устройство не сработало.
func classifyCapture(ctx context.Context, err error) input.Result {
	switch {
	case ctx.Err() != nil:
		return input.Failure(input.Cancelled, ctx.Err().Error())
	case errors.Is(err, audio.ErrSilence):
		return input.Failure(input.Timeout, "no speech within listen window")
	default:
		return input.Failure(input.DeviceUnavailable, err.Error())
	}
}

func (e *Engine) captureSteps() []fallback.Step[audio.Clip] {
	steps := make([]fallback.Step[audio.Clip], 0, len(e.recorders))
	for _, rec := range e.recorders {
		steps = append(steps, fallback.Step[audio.Clip]{
			Name: rec.Name(),
			Run: func(ctx context.Context) (audio.Clip, error) {
				clip, err := rec.Record(ctx, e.cfg.Listen)
				if err != nil {
					return audio.Clip{}, err
				}
				if len(clip.Samples) == 0 {
					return audio.Clip{}, audio.ErrEmpty
				}
				if clip.Silent(e.cfg.Listen.NoiseFloor) {
					return audio.Clip{}, audio.ErrSilence
				}
				return clip, nil
			},
		})
	}
	return steps
}

func (e *Engine) recognizeSteps(clip audio.Clip) []fallback.Step[string] {
	plan := speech.Plan(e.cfg.Language, e.recognizers)
	steps := make([]fallback.Step[string], 0, len(plan))
	for _, a := range plan {
		steps = append(steps, fallback.Step[string]{
			Name: a.Name(),
			Run: func(ctx context.Context) (string, error) {
				text, err := a.Recognizer.Transcribe(ctx, clip.Samples, a.Locale)
				if err == nil && text == "" {
					err = speech.ErrNoSpeech
				}
				return text, err
			},
		})
	}
	return steps
}

// Cleanup дожидается фоновой попытки (не дольше JoinTimeout), закрывает
// бэкенды записи и распознаватели и удаляет временные файлы. Если попытка
// не уложилась в JoinTimeout, ресурсы закрываются после её завершения:
// она может всё ещё быть внутри Record или Transcribe.
func (e *Engine) Cleanup() {
	e.closeOnce.Do(func() {
		done := make(chan struct{})
		go func() {
			e.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			e.release()
		case <-time.After(e.cfg.JoinTimeout):
			e.logger.Warn("фоновая попытка не завершилась, закроем ресурсы после неё")
			go func() {
				<-done
				e.release()
			}()
		}
	})
}

func (e *Engine) release() {
	for _, rec := range e.recorders {
		if c, ok := rec.(interface{ Close() }); ok {
			c.Close()
		}
	}
	for _, rec := range e.recognizers {
		rec.Close()
	}
	if e.session != nil {
		if err := e.session.Close(); err != nil {
			e.logger.Warn("не удалось удалить временные файлы", zap.Error(err))
		}
	}
}
