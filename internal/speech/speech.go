// Package speech предоставляет абстракцию для движков распознавания речи.
package speech

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrNoSpeech - движок отработал, но ничего не понял.
	ErrNoSpeech = errors.New("speech not understood")
	// ErrUnavailable - движок или сервис недоступен.
	ErrUnavailable = errors.New("recognition service unavailable")
	// ErrUnsupportedLocale - у движка нет модели для локали.
	ErrUnsupportedLocale = errors.New("locale not supported")
)

// Recognizer - интерфейс для движков распознавания речи.
type Recognizer interface {
	// Transcribe распознаёт речь из аудио сэмплов.
	// samples - аудио данные в формате float32, 16kHz, mono.
	// locale - локаль распознавания ("en-US", "hi-IN").
	// Пустой результат возвращается как ErrNoSpeech.
	Transcribe(ctx context.Context, samples []float32, locale string) (string, error)

	// Close освобождает ресурсы движка.
	Close()

	// Name возвращает название движка (для логирования).
	Name() string
}

// PCM16 конвертирует float32 [-1, 1] в little-endian int16.
func PCM16(samples []float32) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, sample := range samples {
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}
		val := int16(sample * math.MaxInt16)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(val))
	}
	return pcm
}
