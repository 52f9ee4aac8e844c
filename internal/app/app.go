// Package app содержит основную логику приложения: собирает движок ввода
// из конфигурации и проводит сессию.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stroop/internal/audio"
	"stroop/internal/audio/mic"
	"stroop/internal/camera"
	"stroop/internal/catalog"
	"stroop/internal/click"
	"stroop/internal/config"
	"stroop/internal/game"
	"stroop/internal/gesture"
	"stroop/internal/i18n"
	"stroop/internal/input"
	"stroop/internal/keys"
	"stroop/internal/models"
	"stroop/internal/notify"
	"stroop/internal/qr"
	"stroop/internal/speech"
	"stroop/internal/speech/vosk"
	"stroop/internal/swatch"
	"stroop/internal/tracking"
	"stroop/internal/voice"
)

// ErrUnknownMethod - способ ответа не поддерживается.
var ErrUnknownMethod = errors.New("unknown input method")

// App представляет главное приложение.
type App struct {
	config   *config.Config
	ui       i18n.Table
	catalog  catalog.Catalog
	models   *models.Manager
	notifier *notify.Notifier
	logger   *zap.Logger
}

// New создаёт приложение: загружает каталог для языка из конфигурации
// и менеджер моделей.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	set, err := loadCatalog(cfg.CatalogFile())
	if err != nil {
		return nil, err
	}
	cat, err := set.For(cfg.Language())
	if err != nil {
		return nil, fmt.Errorf("каталог для языка %s: %w", cfg.Language(), err)
	}

	modelManager, err := models.NewManager(cfg.ModelsDir())
	if err != nil {
		return nil, err
	}

	ui := i18n.For(cfg.Language())
	return &App{
		config:   cfg,
		ui:       ui,
		catalog:  cat,
		models:   modelManager,
		notifier: notify.New(cfg.NotificationsEnabled(), ui),
		logger:   logger,
	}, nil
}

func loadCatalog(path string) (*catalog.Set, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// UI возвращает строки интерфейса.
func (a *App) UI() i18n.Table { return a.ui }

// Catalog возвращает активный каталог.
func (a *App) Catalog() catalog.Catalog { return a.catalog }

// Models возвращает менеджер моделей.
func (a *App) Models() *models.Manager { return a.models }

// Play проводит одну сессию на display. Если движок выбранного способа не
// удалось собрать или он потерял устройство, вопросы задаются с клавиатуры.
func (a *App) Play(ctx context.Context, display game.Display) game.Summary {
	method := a.config.Method()
	backup := a.keysEngine()

	var (
		engine    input.Engine = backup
		degrading *input.Degrading
	)
	if method != config.MethodKeys {
		primary, err := a.Engine(ctx, method)
		if err != nil {
			a.logger.Warn("движок недоступен, используем клавиатуру", zap.String("method", method), zap.Error(err))
			a.notifier.DeviceUnavailable(method, err.Error())
		} else {
			degrading = input.WithBackup(primary, backup, func(res input.Result) {
				a.logger.Warn("устройство потеряно, используем клавиатуру", zap.String("method", method), zap.Stringer("result", res))
				a.notifier.DeviceUnavailable(method, res.Detail())
			})
			engine = degrading
		}
	}
	defer engine.Cleanup()

	cfg := game.DefaultConfig()
	cfg.Rounds = a.config.Rounds()
	cfg.CongruentOdds = a.config.CongruentOdds()
	summary := game.NewSession(cfg, engine, display, a.ui, nil, a.logger).Run(ctx, a.catalog)
	if degrading != nil && degrading.Degraded() {
		a.logger.Info("часть сессии прошла с клавиатуры", zap.String("method", method))
	}
	if !summary.Cancelled {
		a.notifier.Summary(summary)
	}
	return summary
}

// Engine собирает движок для способа ответа.
func (a *App) Engine(ctx context.Context, method string) (input.Engine, error) {
	switch method {
	case config.MethodKeys:
		return a.keysEngine(), nil
	case config.MethodClick:
		return click.New(a.config.Manual().ClickTimeout.Duration, a.logger), nil
	case config.MethodVoice:
		return a.voiceEngine(ctx)
	case config.MethodGesture:
		return a.gestureEngine()
	case config.MethodSwatch:
		return a.swatchEngine(), nil
	case config.MethodQR:
		return a.qrEngine(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

func (a *App) keysEngine() input.Engine {
	return keys.New(keys.DefaultMap(), a.config.Manual().KeyTimeout.Duration, a.logger)
}

func trackingConfig(stable int, devices []int) tracking.Config {
	cfg := tracking.DefaultConfig(stable)
	if len(devices) > 0 {
		cfg.Probe.Indices = devices
	}
	return cfg
}

// voiceEngine параллельно поднимает бэкенды записи и распознаватели.
// Недоступные бэкенды пропускаются; ошибка - только если не осталось ни
// одного бэкенда записи или ни одного распознавателя.
func (a *App) voiceEngine(ctx context.Context) (input.Engine, error) {
	vc := a.config.Voice()
	logger := a.logger.Named("voice")

	session, err := audio.NewSession()
	if err != nil {
		return nil, err
	}

	var (
		recorders   []audio.Recorder
		recognizers []speech.Recognizer
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		for _, name := range vc.Recorders {
			rec, err := newRecorder(name, session, logger)
			if err != nil {
				logger.Warn("бэкенд записи недоступен", zap.String("backend", name), zap.Error(err))
				continue
			}
			recorders = append(recorders, rec)
		}
		if len(recorders) == 0 {
			return audio.ErrNoBackend
		}
		return nil
	})
	g.Go(func() error {
		for _, name := range vc.Recognizers {
			rec, err := a.newRecognizer(name, vc, logger)
			if err != nil {
				logger.Warn("распознаватель недоступен", zap.String("recognizer", name), zap.Error(err))
				continue
			}
			recognizers = append(recognizers, rec)
		}
		if len(recognizers) == 0 {
			return speech.ErrUnavailable
		}
		return nil
	})

	cfg := voice.DefaultConfig()
	cfg.Language = a.config.Language()
	cfg.GetReady = vc.GetReady.Duration
	cfg.Timeout = vc.Timeout.Duration
	cfg.Listen = audio.ListenOptions{
		Wait:        vc.Wait.Duration,
		PhraseLimit: vc.PhraseLimit.Duration,
		Pause:       vc.Pause.Duration,
		NoiseFloor:  vc.NoiseFloor,
	}

	err = g.Wait()
	engine := voice.New(cfg, recorders, recognizers, session, a.logger)
	if err != nil {
		// Cleanup закрывает то, что успели открыть, и удаляет сессию.
		engine.Cleanup()
		return nil, err
	}
	return engine, nil
}

func newRecorder(name string, session *audio.Session, logger *zap.Logger) (audio.Recorder, error) {
	switch name {
	case "portaudio":
		return mic.NewDefault(logger)
	case "portaudio-direct":
		return mic.NewDirect("", logger)
	case "system":
		return audio.NewCommandRecorder(session, nil, logger), nil
	default:
		return nil, fmt.Errorf("неизвестный бэкенд записи %q", name)
	}
}

func (a *App) newRecognizer(name string, vc config.Voice, logger *zap.Logger) (speech.Recognizer, error) {
	switch name {
	case "vosk":
		rec := vosk.New(a.models, logger)
		if len(rec.Locales()) == 0 {
			return nil, fmt.Errorf("%w: нет скачанных моделей vosk", speech.ErrUnavailable)
		}
		return rec, nil
	case "google":
		gc := speech.GoogleConfigFromEnv()
		if vc.GoogleAPIKey != "" {
			gc.APIKey = vc.GoogleAPIKey
		}
		return speech.NewGoogle(gc)
	default:
		return nil, fmt.Errorf("неизвестный распознаватель %q", name)
	}
}

// gestureEngine загружает детектор ладони и модель ключевых точек; камера открывается при первом вопросе.
func (a *App) gestureEngine() (input.Engine, error) {
	gc := a.config.Gesture()
	landmarks, err := a.handModel(gc.ModelID)
	if err != nil {
		return nil, err
	}
	palm, err := a.handModel(gc.PalmModelID)
	if err != nil {
		return nil, err
	}
	tracker, err := camera.NewHandTracker(palm, landmarks, camera.DefaultHandConfig())
	if err != nil {
		return nil, err
	}

	cfg := gesture.DefaultConfig()
	cfg.Tracking = trackingConfig(gc.StableFrames, gc.Devices)
	cfg.Hold = gc.Hold.Duration
	cfg.Timeout = gc.Timeout.Duration
	cfg.Release = tracker.Close

	open := func(index int) (gesture.HandReader, error) {
		r, err := camera.NewHandReader(index, tracker)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return gesture.New(cfg, open, a.logger), nil
}

// handModel возвращает путь к модели рук по её ID.
func (a *App) handModel(id string) (string, error) {
	info, ok := models.GetModel(id)
	if !ok || info.Engine != models.EngineHands {
		return "", fmt.Errorf("неизвестная модель рук %q", id)
	}
	return a.models.GetModelPath(info), nil
}

func (a *App) swatchEngine() input.Engine {
	sc := a.config.Swatch()
	cfg := swatch.DefaultConfig()
	cfg.Tracking = trackingConfig(sc.StableFrames, sc.Devices)
	cfg.Classifier.MinCoverage = sc.MinCoverage
	cfg.Timeout = sc.Timeout.Duration

	open := func(index int) (swatch.FrameReader, error) {
		d, err := camera.Open(index, true)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return swatch.New(cfg, open, a.logger)
}

// qrEngine проверяет директорию эталонов и, если включено, следит за ней.
func (a *App) qrEngine(ctx context.Context) (input.Engine, error) {
	qc := a.config.QR()
	store, err := qr.NewStore(qc.Dir, camera.DecodeFile, a.logger)
	if err != nil {
		return nil, err
	}
	if store.Table().Len() == 0 {
		a.logger.Warn("нет эталонных QR кодов", zap.String("dir", qc.Dir))
	}
	if qc.Watch {
		if err := store.Watch(ctx); err != nil {
			a.logger.Warn("не удалось следить за директорией QR", zap.String("dir", qc.Dir), zap.Error(err))
		}
	}

	cfg := qr.DefaultConfig()
	cfg.Tracking = trackingConfig(1, qc.Devices)
	cfg.Timeout = qc.Timeout.Duration

	open := func(index int) (qr.Scanner, error) {
		r, err := camera.NewQRReader(index)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return qr.New(cfg, store, open, a.logger), nil
}
