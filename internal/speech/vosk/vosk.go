// Package vosk реализует офлайн распознавание через Vosk.
package vosk

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
	"go.uber.org/zap"

	"stroop/internal/models"
	"stroop/internal/speech"
)

// sampleRate - частота, на которой пишут все бэкенды audio.
const sampleRate = 16000.0

// Recognizer реализует speech.Recognizer через Vosk. Для каждой локали
// своя модель; модели загружаются лениво при первом обращении.
type Recognizer struct {
	manager *models.Manager
	logger  *zap.Logger

	mu     sync.Mutex
	loaded map[string]*localeModel
}

type localeModel struct {
	model      *vosk.VoskModel
	recognizer *vosk.VoskRecognizer
}

// voskResult структура для парсинга JSON результата от Vosk.
type voskResult struct {
	Text string `json:"text"`
}

// New создаёт распознаватель поверх скачанных моделей manager.
func New(manager *models.Manager, logger *zap.Logger) *Recognizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	vosk.SetLogLevel(-1)
	return &Recognizer{
		manager: manager,
		logger:  logger.Named("vosk"),
		loaded:  make(map[string]*localeModel),
	}
}

// Name возвращает название движка.
func (v *Recognizer) Name() string {
	return "vosk"
}

// Locales возвращает локали, для которых модель уже скачана.
func (v *Recognizer) Locales() []string {
	var out []string
	for _, info := range models.GetModelsByEngine(models.EngineVosk) {
		if v.manager.IsDownloaded(info) {
			out = append(out, info.Locale)
		}
	}
	return out
}

// Transcribe распознаёт речь из аудио сэмплов.
func (v *Recognizer) Transcribe(ctx context.Context, samples []float32, locale string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	lm, err := v.load(locale)
	if err != nil {
		return "", err
	}

	// Обрабатываем аудио и сразу сбрасываем для следующего использования
	lm.recognizer.AcceptWaveform(speech.PCM16(samples))
	resultJSON := lm.recognizer.FinalResult()
	lm.recognizer.Reset()

	var result voskResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return "", err
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", speech.ErrNoSpeech
	}
	return text, nil
}

// load возвращает модель локали, загружая её при необходимости.
func (v *Recognizer) load(locale string) (*localeModel, error) {
	if lm, ok := v.loaded[locale]; ok {
		return lm, nil
	}

	info, ok := models.VoskForLocale(locale)
	if !ok || !v.manager.IsDownloaded(info) {
		return nil, fmt.Errorf("%w: %s", speech.ErrUnsupportedLocale, locale)
	}

	modelPath := v.manager.GetModelPath(info)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("модель Vosk не найдена: %s", modelPath)
	}

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки модели Vosk: %w", err)
	}
	rec, err := vosk.NewRecognizer(model, sampleRate)
	if err != nil {
		model.Free()
		return nil, err
	}

	v.logger.Info("модель загружена", zap.String("locale", locale), zap.String("model", info.ID))
	lm := &localeModel{model: model, recognizer: rec}
	v.loaded[locale] = lm
	return lm, nil
}

// Close освобождает все загруженные модели.
func (v *Recognizer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	for locale, lm := range v.loaded {
		lm.recognizer.Free()
		lm.model.Free()
		delete(v.loaded, locale)
	}
}
