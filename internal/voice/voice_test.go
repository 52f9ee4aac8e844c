package voice

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"stroop/internal/audio"
	"stroop/internal/catalog"
	"stroop/internal/input"
	"stroop/internal/input/inputtest"
	"stroop/internal/speech"
)

var errDevice = errors.New("device busy")

type fakeRecorder struct {
	name  string
	clip  audio.Clip
	err   error
	block bool

	mu     sync.Mutex
	calls  int
	closed bool
}

func (f *fakeRecorder) Name() string { return f.name }

func (f *fakeRecorder) Record(ctx context.Context, _ audio.ListenOptions) (audio.Clip, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return audio.Clip{}, ctx.Err()
	}
	return f.clip, f.err
}

func (f *fakeRecorder) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeRecorder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRecognizer struct {
	byLocale map[string]string

	mu      sync.Mutex
	locales []string
	closed  bool
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Transcribe(_ context.Context, _ []float32, locale string) (string, error) {
	f.mu.Lock()
	f.locales = append(f.locales, locale)
	f.mu.Unlock()
	if text, ok := f.byLocale[locale]; ok {
		return text, nil
	}
	return "", speech.ErrNoSpeech
}

func (f *fakeRecognizer) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func speechClip() audio.Clip {
	samples := make([]float32, 1600)
	for i := range samples {
		samples[i] = 0.3
	}
	return audio.Clip{Samples: samples, SampleRate: audio.SampleRate}
}

func silentClip() audio.Clip {
	return audio.Clip{Samples: make([]float32, 1600), SampleRate: audio.SampleRate}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.GetReady = 10 * time.Millisecond
	cfg.Timeout = 2 * time.Second
	cfg.PollInterval = 2 * time.Millisecond
	cfg.JoinTimeout = time.Second
	return cfg
}

func primaries() catalog.Catalog {
	return catalog.MustNew([]catalog.Entry{
		{Key: "red", Name: "Red", RGB: [3]uint8{255, 0, 0}},
		{Key: "green", Name: "Green", RGB: [3]uint8{0, 255, 0}},
		{Key: "blue", Name: "Blue", RGB: [3]uint8{0, 0, 255}},
	})
}

func run(t *testing.T, e *Engine, cat catalog.Catalog) (input.Result, *inputtest.Target) {
	t.Helper()
	target := inputtest.NewTarget(80, 24)
	res := e.GetInput(context.Background(), cat, target, inputtest.Strings{})
	return res, target
}

func TestTranscriptMatchesCatalog(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &fakeRecognizer{byLocale: map[string]string{"en-US": "it's red"}}
	e := New(testConfig(), []audio.Recorder{&fakeRecorder{name: "mic", clip: speechClip()}}, []speech.Recognizer{rec}, nil, nil)
	defer e.Cleanup()

	res, target := run(t, e, primaries())

	idx, ok := res.Index()
	require.True(t, ok, res.String())
	assert.Equal(t, 0, idx)
	assert.Equal(t, input.PhaseGetReady, target.Phases()[0])
}

func TestSilenceEverywhereTimesOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	recorders := []audio.Recorder{
		&fakeRecorder{name: "portaudio", err: audio.ErrSilence},
		&fakeRecorder{name: "portaudio-direct", clip: silentClip()},
		&fakeRecorder{name: "system", err: audio.ErrNoBackend},
	}
	rec := &fakeRecognizer{}
	e := New(testConfig(), recorders, []speech.Recognizer{rec}, nil, nil)
	defer e.Cleanup()

	res, _ := run(t, e, primaries())

	assert.Equal(t, input.Timeout, res.Reason(), res.String())
	assert.Empty(t, rec.locales, "no recognition without audio")
	for _, r := range recorders {
		assert.Equal(t, 1, r.(*fakeRecorder).Calls())
	}
}

func TestAllRecordersBrokenIsDeviceUnavailable(t *testing.T) {
	defer goleak.VerifyNone(t)

	recorders := []audio.Recorder{
		&fakeRecorder{name: "portaudio", err: errDevice},
		&fakeRecorder{name: "system", err: audio.ErrNoBackend},
	}
	e := New(testConfig(), recorders, nil, nil, nil)
	defer e.Cleanup()

	res, _ := run(t, e, primaries())
	assert.Equal(t, input.DeviceUnavailable, res.Reason(), res.String())
}

func TestEmptyTranscriptsAreRecognitionFailed(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &fakeRecognizer{byLocale: map[string]string{"en-GB": ""}}
	e := New(testConfig(), []audio.Recorder{&fakeRecorder{name: "mic", clip: speechClip()}}, []speech.Recognizer{rec}, nil, nil)
	defer e.Cleanup()

	res, _ := run(t, e, primaries())

	assert.Equal(t, input.RecognitionFailed, res.Reason())
	assert.Equal(t, []string{"en-US", "en-IN", "en-GB"}, rec.locales)
}

func TestUnmatchedTranscriptIsNoMatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &fakeRecognizer{byLocale: map[string]string{"en-US": "purple"}}
	e := New(testConfig(), []audio.Recorder{&fakeRecorder{name: "mic", clip: speechClip()}}, []speech.Recognizer{rec}, nil, nil)
	defer e.Cleanup()

	res, _ := run(t, e, primaries())
	assert.Equal(t, input.NoMatch, res.Reason())
	assert.Equal(t, "purple", res.Detail())
}

func TestLocaleFallbackForHindi(t *testing.T) {
	defer goleak.VerifyNone(t)

	cat := catalog.MustNew([]catalog.Entry{
		{Key: "red", Name: "लाल", Alternatives: []string{"laal", "red"}},
		{Key: "blue", Name: "नीला", Alternatives: []string{"neela", "blue"}},
	})
	rec := &fakeRecognizer{byLocale: map[string]string{"en-IN": "neela"}}
	cfg := testConfig()
	cfg.Language = "hindi"
	e := New(cfg, []audio.Recorder{&fakeRecorder{name: "mic", clip: speechClip()}}, []speech.Recognizer{rec}, nil, nil)
	defer e.Cleanup()

	res, _ := run(t, e, cat)

	idx, ok := res.Index()
	require.True(t, ok, res.String())
	assert.Equal(t, 1, idx)
	assert.Equal(t, []string{"hi-IN", "en-IN"}, rec.locales)
}

func TestWorkingRecorderIsPreferredNextTime(t *testing.T) {
	defer goleak.VerifyNone(t)

	broken := &fakeRecorder{name: "portaudio", err: errDevice}
	working := &fakeRecorder{name: "system", clip: speechClip()}
	rec := &fakeRecognizer{byLocale: map[string]string{"en-US": "green"}}
	e := New(testConfig(), []audio.Recorder{broken, working}, []speech.Recognizer{rec}, nil, nil)
	defer e.Cleanup()

	for i := 0; i < 2; i++ {
		res, _ := run(t, e, primaries())
		idx, ok := res.Index()
		require.True(t, ok, res.String())
		assert.Equal(t, 1, idx)
	}
	assert.Equal(t, 1, broken.Calls())
	assert.Equal(t, 2, working.Calls())
}

func TestQuitDuringGetReady(t *testing.T) {
	defer goleak.VerifyNone(t)

	mic := &fakeRecorder{name: "mic", clip: speechClip()}
	cfg := testConfig()
	cfg.GetReady = time.Second
	e := New(cfg, []audio.Recorder{mic}, nil, nil, nil)
	defer e.Cleanup()

	target := inputtest.NewTarget(80, 24)
	target.At(3, input.Quit())
	res := e.GetInput(context.Background(), primaries(), target, inputtest.Strings{})

	assert.Equal(t, input.Cancelled, res.Reason())
	assert.Zero(t, mic.Calls())
}

func TestOverallTimeoutAbandonsSlowRecorder(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig()
	cfg.Timeout = 100 * time.Millisecond
	e := New(cfg, []audio.Recorder{&fakeRecorder{name: "mic", block: true}}, nil, nil, nil)

	start := time.Now()
	res, target := run(t, e, primaries())

	assert.Equal(t, input.Timeout, res.Reason())
	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, target.Phases(), input.PhaseRecording)
	e.Cleanup()
}

func TestCleanupReleasesResources(t *testing.T) {
	session, err := audio.NewSession()
	require.NoError(t, err)

	mic := &fakeRecorder{name: "mic"}
	rec := &fakeRecognizer{}
	e := New(testConfig(), []audio.Recorder{mic}, []speech.Recognizer{rec}, session, nil)

	e.Cleanup()
	e.Cleanup()

	assert.True(t, mic.closed)
	assert.True(t, rec.closed)
	_, err = os.Stat(session.Dir())
	assert.True(t, os.IsNotExist(err))
}

// stuckRecorder ignores ctx and returns only when release is closed.
type stuckRecorder struct {
	entered chan struct{}
	release chan struct{}

	mu         sync.Mutex
	closed     bool
	recording  bool
	usedClosed bool
}

func (s *stuckRecorder) Name() string { return "stuck" }

func (s *stuckRecorder) Record(context.Context, audio.ListenOptions) (audio.Clip, error) {
	s.mu.Lock()
	s.recording = true
	s.mu.Unlock()
	close(s.entered)

	<-s.release

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = false
	s.usedClosed = s.closed
	return audio.Clip{}, errDevice
}

func (s *stuckRecorder) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording {
		s.usedClosed = true
	}
	s.closed = true
}

func (s *stuckRecorder) state() (closed, usedClosed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed, s.usedClosed
}

func TestCleanupWaitsForStuckRecorder(t *testing.T) {
	defer goleak.VerifyNone(t)

	session, err := audio.NewSession()
	require.NoError(t, err)

	mic := &stuckRecorder{entered: make(chan struct{}), release: make(chan struct{})}
	rec := &fakeRecognizer{}
	cfg := testConfig()
	cfg.Timeout = 100 * time.Millisecond
	cfg.JoinTimeout = 50 * time.Millisecond
	e := New(cfg, []audio.Recorder{mic}, []speech.Recognizer{rec}, session, nil)

	res, _ := run(t, e, primaries())
	assert.Equal(t, input.Timeout, res.Reason())
	<-mic.entered

	e.Cleanup()
	closed, _ := mic.state()
	assert.False(t, closed, "recorder stays open while Record runs")
	rec.mu.Lock()
	assert.False(t, rec.closed)
	rec.mu.Unlock()
	assert.DirExists(t, session.Dir())

	close(mic.release)
	require.Eventually(t, func() bool {
		closed, _ := mic.state()
		return closed
	}, 2*time.Second, time.Millisecond)
	_, usedClosed := mic.state()
	assert.False(t, usedClosed, "Record never overlaps Close")
	require.Eventually(t, func() bool {
		_, err := os.Stat(session.Dir())
		return os.IsNotExist(err)
	}, 2*time.Second, time.Millisecond)
	rec.mu.Lock()
	assert.True(t, rec.closed)
	rec.mu.Unlock()
}
