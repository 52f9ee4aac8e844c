package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultGoogleEndpoint - REST метод синхронного распознавания.
const DefaultGoogleEndpoint = "https://speech.googleapis.com/v1/speech:recognize"

// GoogleConfig настройки облачного распознавателя.
type GoogleConfig struct {
	APIKey     string
	Endpoint   string
	Model      string
	Timeout    time.Duration
	SampleRate int
}

// GoogleConfigFromEnv читает ключ из STROOP_GOOGLE_API_KEY.
func GoogleConfigFromEnv() GoogleConfig {
	return GoogleConfig{
		APIKey:     os.Getenv("STROOP_GOOGLE_API_KEY"),
		Endpoint:   DefaultGoogleEndpoint,
		Model:      "command_and_search",
		Timeout:    5 * time.Second,
		SampleRate: 16000,
	}
}

// GoogleRecognizer распознаёт через Google Speech-to-Text REST API.
type GoogleRecognizer struct {
	cfg  GoogleConfig
	http *http.Client
}

// NewGoogle создаёт распознаватель.
func NewGoogle(cfg GoogleConfig) (*GoogleRecognizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: не задан API ключ", ErrUnavailable)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGoogleEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	return &GoogleRecognizer{cfg: cfg, http: &http.Client{}}, nil
}

// Name возвращает название движка.
func (g *GoogleRecognizer) Name() string {
	return "google"
}

type googleRequest struct {
	Config googleRecognitionConfig `json:"config"`
	Audio  googleAudio             `json:"audio"`
}

type googleRecognitionConfig struct {
	Encoding        string `json:"encoding"`
	SampleRateHertz int    `json:"sampleRateHertz"`
	LanguageCode    string `json:"languageCode"`
	Model           string `json:"model,omitempty"`
	MaxAlternatives int    `json:"maxAlternatives"`
}

type googleAudio struct {
	Content string `json:"content"`
}

// Transcribe отправляет запись и возвращает лучший вариант.
func (g *GoogleRecognizer) Transcribe(ctx context.Context, samples []float32, locale string) (string, error) {
	body, err := json.Marshal(googleRequest{
		Config: googleRecognitionConfig{
			Encoding:        "LINEAR16",
			SampleRateHertz: g.cfg.SampleRate,
			LanguageCode:    locale,
			Model:           g.cfg.Model,
			MaxAlternatives: 1,
		},
		Audio: googleAudio{Content: base64.StdEncoding.EncodeToString(PCM16(samples))},
	})
	if err != nil {
		return "", err
	}

	endpoint, err := withKey(g.cfg.Endpoint, g.cfg.APIKey)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: чтение ответа: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: HTTP %s", ErrUnavailable, resp.Status)
	}

	text, err := googleTranscript(raw)
	if err != nil {
		return "", fmt.Errorf("разбор ответа: %w", err)
	}
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// Close ничего не держит.
func (g *GoogleRecognizer) Close() {}

func googleTranscript(raw []byte) (string, error) {
	var payload struct {
		Results []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", err
	}
	var parts []string
	for _, r := range payload.Results {
		if len(r.Alternatives) > 0 {
			if t := strings.TrimSpace(r.Alternatives[0].Transcript); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " "), nil
}

func withKey(endpoint, key string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
