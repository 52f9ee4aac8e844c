package term

import (
	"image"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"stroop/internal/game"
	"stroop/internal/input"
)

func newScreen(t *testing.T) (*Screen, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	s, err := New(sim)
	require.NoError(t, err)
	sim.SetSize(80, 24)
	return s, sim
}

func collect(t *testing.T, s *Screen, n int) []input.Event {
	t.Helper()
	var got []input.Event
	require.Eventually(t, func() bool {
		got = append(got, s.Poll()...)
		return len(got) >= n
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestKeyEventsAreTranslated(t *testing.T) {
	defer goleak.VerifyNone(t)
	s, sim := newScreen(t)
	defer s.Close()

	sim.InjectKey(tcell.KeyRune, 'r', tcell.ModNone)
	sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	sim.InjectKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)

	got := collect(t, s, 4)
	assert.Equal(t, []input.Event{input.Key('r'), input.Quit(), input.Quit(), input.Quit()}, got)
}

func TestMousePressIsOneClick(t *testing.T) {
	defer goleak.VerifyNone(t)
	s, sim := newScreen(t)
	defer s.Close()

	sim.InjectMouse(10, 5, tcell.Button1, tcell.ModNone)
	sim.InjectMouse(11, 5, tcell.Button1, tcell.ModNone)
	sim.InjectMouse(11, 5, tcell.ButtonNone, tcell.ModNone)
	sim.InjectMouse(3, 4, tcell.Button1, tcell.ModNone)

	got := collect(t, s, 2)
	assert.Equal(t, []input.Event{input.Click(10, 5), input.Click(3, 4)}, got)
}

func screenText(sim tcell.SimulationScreen) string {
	cells, w, _ := sim.GetContents()
	var b strings.Builder
	for i, c := range cells {
		if i > 0 && i%w == 0 {
			b.WriteByte('\n')
		}
		if len(c.Runes) > 0 {
			b.WriteRune(c.Runes[0])
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func TestRenderDrawsStimulusAndStatus(t *testing.T) {
	defer goleak.VerifyNone(t)
	s, sim := newScreen(t)
	defer s.Close()

	s.SetStimulus(game.Stimulus{Word: "Blue", Ink: [3]uint8{255, 0, 0}, Round: 2, Rounds: 5})
	s.Render(input.Status{
		Phase:     input.PhaseWaiting,
		Message:   "Click the ink color",
		Remaining: 7 * time.Second,
		Progress:  0.5,
		Highlight: 0,
		Buttons:   []input.Button{{Rect: image.Rect(10, 15, 20, 18), Index: 0, Label: "Red", RGB: [3]uint8{255, 0, 0}}},
	})
	s.ShowFeedback(game.Feedback{Text: "Correct!", Correct: true})

	out := screenText(sim)
	for _, want := range []string{"BLUE", "Click the ink color", "2/5", "7s", "Red", "Correct!", "█"} {
		assert.Contains(t, out, want)
	}

	w, h := s.Size()
	assert.Equal(t, 80, w)
	assert.Equal(t, 24, h)
}
