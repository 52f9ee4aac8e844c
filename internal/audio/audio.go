// Package audio предоставляет запись короткой реплики испытуемого.
//
// Запись идёт через один из бэкендов (Recorder); все они возвращают Clip
// в формате 16kHz mono float32.
package audio

import (
	"context"
	"errors"
	"math"
	"time"
)

const (
	// SampleRate - частота дискретизации для распознавания.
	SampleRate = 16000
	// Channels - количество каналов (mono).
	Channels = 1
	// FramesPerBuffer - размер буфера одного чтения.
	FramesPerBuffer = 1024
	// DefaultNoiseFloor - порог пиковой амплитуды (50 из 32768 для int16).
	DefaultNoiseFloor = 50.0 / 32768.0
	// MinFileBytes - записи меньше этого размера считаются пустыми.
	MinFileBytes = 1000
)

var (
	// ErrSilence - запись есть, но пик ниже порога шума.
	ErrSilence = errors.New("no speech above noise floor")
	// ErrNoBackend - бэкенд недоступен в этой системе.
	ErrNoBackend = errors.New("recording backend unavailable")
	// ErrEmpty - бэкенд не вернул ни одного сэмпла.
	ErrEmpty = errors.New("empty recording")
)

// Clip - записанный фрагмент.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Duration возвращает длительность фрагмента.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Peak возвращает максимальную абсолютную амплитуду.
func (c Clip) Peak() float64 {
	return peak(c.Samples)
}

// Silent сообщает, что пик фрагмента ниже floor.
func (c Clip) Silent(floor float64) bool {
	return c.Peak() < floor
}

func peak(samples []float32) float64 {
	var p float64
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > p {
			p = a
		}
	}
	return p
}

// ListenOptions задаёт окна записи.
type ListenOptions struct {
	// Wait - сколько ждать начала речи.
	Wait time.Duration
	// PhraseLimit - максимальная длина реплики после начала речи.
	PhraseLimit time.Duration
	// Pause - тишина после речи, завершающая реплику. 0 отключает.
	Pause time.Duration
	// NoiseFloor - порог пиковой амплитуды.
	NoiseFloor float64
}

// DefaultListenOptions возвращает настройки по умолчанию.
func DefaultListenOptions() ListenOptions {
	return ListenOptions{
		Wait:        3 * time.Second,
		PhraseLimit: 4 * time.Second,
		Pause:       800 * time.Millisecond,
		NoiseFloor:  DefaultNoiseFloor,
	}
}

// Window возвращает полное время записи для бэкендов без сегментации.
func (o ListenOptions) Window() time.Duration {
	return o.Wait + o.PhraseLimit
}

// Recorder - бэкенд записи.
type Recorder interface {
	// Name возвращает название бэкенда (для логирования).
	Name() string
	// Record записывает одну реплику. Тишина возвращается как ErrSilence.
	Record(ctx context.Context, opts ListenOptions) (Clip, error)
}
