package speech

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocales(t *testing.T) {
	cases := map[string][]string{
		"english": {"en-US", "en-IN", "en-GB"},
		"hindi":   {"hi-IN", "en-IN", "en-US"},
		"klingon": {"en-US", "en-IN", "en-GB"},
	}
	for lang, want := range cases {
		if diff := cmp.Diff(want, Locales(lang)); diff != "" {
			t.Errorf("Locales(%q) mismatch (-want +got):\n%s", lang, diff)
		}
	}

	// Callers cannot corrupt the table.
	l := Locales("hindi")
	l[0] = "xx"
	assert.Equal(t, "hi-IN", Locales("hindi")[0])
}

type named string

func (n named) Transcribe(context.Context, []float32, string) (string, error) { return "", nil }
func (n named) Close()                                                        {}
func (n named) Name() string                                                  { return string(n) }

func TestPlanIsLocaleMajor(t *testing.T) {
	plan := Plan("hindi", []Recognizer{named("vosk"), named("google")})

	var got []string
	for _, a := range plan {
		got = append(got, a.Name())
	}
	want := []string{
		"vosk/hi-IN", "google/hi-IN",
		"vosk/en-IN", "google/en-IN",
		"vosk/en-US", "google/en-US",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPCM16Clamps(t *testing.T) {
	pcm := PCM16([]float32{0, 1, -1, 2, -2, 0.5})
	require.Len(t, pcm, 12)

	val := func(i int) int16 { return int16(binary.LittleEndian.Uint16(pcm[i*2:])) }
	assert.Equal(t, int16(0), val(0))
	assert.Equal(t, int16(32767), val(1))
	assert.Equal(t, int16(-32767), val(2))
	assert.Equal(t, int16(32767), val(3))
	assert.Equal(t, int16(-32767), val(4))
	assert.Equal(t, int16(16383), val(5))
}

func newGoogle(t *testing.T, handler http.HandlerFunc) *GoogleRecognizer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGoogle(GoogleConfig{APIKey: "test-key", Endpoint: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return g
}

func TestGoogleTranscribe(t *testing.T) {
	g := newGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("expected API key query param, got %q", got)
		}
		var req googleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Config.LanguageCode != "hi-IN" || req.Config.Encoding != "LINEAR16" || req.Config.SampleRateHertz != 16000 {
			t.Errorf("unexpected config: %+v", req.Config)
		}
		audio, err := base64.StdEncoding.DecodeString(req.Audio.Content)
		if err != nil || len(audio) != 8 {
			t.Errorf("unexpected audio payload: %d bytes, err=%v", len(audio), err)
		}
		_, _ = fmt.Fprint(w, `{"results":[{"alternatives":[{"transcript":" neela "}]},{"alternatives":[{"transcript":"hai"}]}]}`)
	})

	text, err := g.Transcribe(context.Background(), []float32{0, 0.1, 0.2, 0.3}, "hi-IN")
	require.NoError(t, err)
	assert.Equal(t, "neela hai", text)
}

func TestGoogleEmptyResultIsNoSpeech(t *testing.T) {
	g := newGoogle(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{}`)
	})

	_, err := g.Transcribe(context.Background(), []float32{0.1}, "en-US")
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestGoogleHTTPErrorIsUnavailable(t *testing.T) {
	g := newGoogle(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	})

	_, err := g.Transcribe(context.Background(), []float32{0.1}, "en-US")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGoogleUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	g, err := NewGoogle(GoogleConfig{APIKey: "k", Endpoint: endpoint, Timeout: time.Second})
	require.NoError(t, err)

	_, err = g.Transcribe(context.Background(), []float32{0.1}, "en-US")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGoogleRequiresKey(t *testing.T) {
	_, err := NewGoogle(GoogleConfig{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGoogleConfigFromEnv(t *testing.T) {
	t.Setenv("STROOP_GOOGLE_API_KEY", "from-env")
	cfg := GoogleConfigFromEnv()
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, DefaultGoogleEndpoint, cfg.Endpoint)
}
