// Package models управляет моделями распознавания: речь (Vosk) и руки.
package models

// Engine тип движка, которому нужна модель.
type Engine string

const (
	EngineVosk  Engine = "vosk"
	EngineHands Engine = "hands"
)

// ModelInfo информация о модели.
type ModelInfo struct {
	ID       string // Уникальный идентификатор: "vosk-en-us-small"
	Engine   Engine // Движок: vosk или hands
	Name     string // Отображаемое имя
	Locale   string // Локаль распознавания (только для Vosk)
	Filename string // Имя файла/директории
	URL      string // URL для скачивания; пустой - файл кладётся вручную
	Size     int64  // Размер в байтах (для прогресса)
	IsZip    bool   // Нужно ли распаковывать
}

// Registry все известные модели.
var Registry = []ModelInfo{
	{
		ID:       "vosk-en-us-small",
		Engine:   EngineVosk,
		Name:     "English (US) Small",
		Locale:   "en-US",
		Filename: "vosk-model-small-en-us-0.15",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-small-en-us-0.15.zip",
		Size:     40 * 1024 * 1024,
		IsZip:    true,
	},
	{
		ID:       "vosk-en-in-small",
		Engine:   EngineVosk,
		Name:     "English (India) Small",
		Locale:   "en-IN",
		Filename: "vosk-model-small-en-in-0.4",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-small-en-in-0.4.zip",
		Size:     36 * 1024 * 1024,
		IsZip:    true,
	},
	{
		ID:       "vosk-hi-small",
		Engine:   EngineVosk,
		Name:     "Hindi Small",
		Locale:   "hi-IN",
		Filename: "vosk-model-small-hi-0.22",
		URL:      "https://alphacephei.com/vosk/models/vosk-model-small-hi-0.22.zip",
		Size:     42 * 1024 * 1024,
		IsZip:    true,
	},
	// Модель ключевых точек руки (21 точка, вход 224x224 NCHW RGB).
	// Скачивается вручную в models/hands/.
	{
		ID:       "hand-landmark",
		Engine:   EngineHands,
		Name:     "Hand landmarks (ONNX)",
		Filename: "hand_landmark.onnx",
	},
	// Детектор ладони (вход 192x192, 2016 якорей). Находит руку, вокруг
	// которой вырезается кадр для модели ключевых точек.
	{
		ID:       "palm-detection",
		Engine:   EngineHands,
		Name:     "Palm detector (ONNX)",
		Filename: "palm_detection.onnx",
	},
}

// DefaultHandModelID модель рук по умолчанию.
func DefaultHandModelID() string {
	return "hand-landmark"
}

// DefaultPalmModelID детектор ладони по умолчанию.
func DefaultPalmModelID() string {
	return "palm-detection"
}

// GetModel возвращает модель по ID.
func GetModel(id string) (ModelInfo, bool) {
	for _, m := range Registry {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// GetModelsByEngine возвращает модели для указанного движка.
func GetModelsByEngine(engine Engine) []ModelInfo {
	var result []ModelInfo
	for _, m := range Registry {
		if m.Engine == engine {
			result = append(result, m)
		}
	}
	return result
}

// VoskForLocale возвращает Vosk модель для локали.
func VoskForLocale(locale string) (ModelInfo, bool) {
	for _, m := range GetModelsByEngine(EngineVosk) {
		if m.Locale == locale {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// EngineName возвращает отображаемое имя движка.
func EngineName(e Engine) string {
	switch e {
	case EngineVosk:
		return "Vosk"
	case EngineHands:
		return "Hands"
	default:
		return string(e)
	}
}
