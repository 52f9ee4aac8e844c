// Package term is the terminal display: it draws the stimulus and the
// engines' status with tcell and turns terminal events into input events.
package term

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"stroop/internal/game"
	"stroop/internal/input"
)

// Screen implements game.Display on a tcell screen.
type Screen struct {
	screen tcell.Screen

	mu       sync.Mutex
	pending  []input.Event
	buttons  tcell.ButtonMask
	stimulus game.Stimulus
	feedback *game.Feedback
	status   input.Status

	done chan struct{}
}

var _ game.Display = (*Screen)(nil)

// Open initializes the controlling terminal.
func Open() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return New(s)
}

// New takes ownership of an uninitialized screen.
func New(s tcell.Screen) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.EnableMouse()
	s.HideCursor()
	s.Clear()

	t := &Screen{screen: s, done: make(chan struct{}), status: input.Status{Progress: -1, Highlight: -1}}
	go t.events()
	return t, nil
}

func (t *Screen) events() {
	defer close(t.done)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		t.handle(ev)
	}
}

func (t *Screen) handle(ev tcell.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			t.pending = append(t.pending, input.Quit())
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
			t.pending = append(t.pending, input.Quit())
		case ev.Key() == tcell.KeyRune:
			t.pending = append(t.pending, input.Key(ev.Rune()))
		}
	case *tcell.EventMouse:
		// A click is the press edge of the primary button.
		b := ev.Buttons()
		if b&tcell.Button1 != 0 && t.buttons&tcell.Button1 == 0 {
			x, y := ev.Position()
			t.pending = append(t.pending, input.Click(x, y))
		}
		t.buttons = b
	case *tcell.EventResize:
		t.screen.Sync()
	}
}

// Size implements input.RenderTarget.
func (t *Screen) Size() (int, int) {
	return t.screen.Size()
}

// Poll implements input.RenderTarget.
func (t *Screen) Poll() []input.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.pending
	t.pending = nil
	return out
}

// Render implements input.RenderTarget.
func (t *Screen) Render(s input.Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
	t.draw()
}

// SetStimulus implements game.Display and clears the previous feedback.
func (t *Screen) SetStimulus(s game.Stimulus) {
	t.mu.Lock()
	t.stimulus = s
	t.feedback = nil
	t.status = input.Status{Progress: -1, Highlight: -1}
	t.mu.Unlock()
	t.draw()
}

// ShowFeedback implements game.Display.
func (t *Screen) ShowFeedback(f game.Feedback) {
	t.mu.Lock()
	t.feedback = &f
	t.mu.Unlock()
	t.draw()
}

// Message shows a line of text alone on the screen.
func (t *Screen) Message(lines ...string) {
	t.screen.Clear()
	w, h := t.screen.Size()
	top := h/2 - len(lines)/2
	for i, l := range lines {
		centered(t.screen, w, top+i, l, tcell.StyleDefault)
	}
	t.screen.Show()
}

func (t *Screen) draw() {
	t.mu.Lock()
	stim, fb, st := t.stimulus, t.feedback, t.status
	t.mu.Unlock()

	s := t.screen
	s.Clear()
	w, h := s.Size()

	if stim.Rounds > 0 {
		text(s, 1, 0, fmt.Sprintf("%d/%d", stim.Round, stim.Rounds), tcell.StyleDefault.Dim(true))
	}
	if st.Remaining > 0 {
		r := fmt.Sprintf("%.0fs", st.Remaining.Seconds())
		text(s, w-len(r)-1, 0, r, tcell.StyleDefault.Dim(true))
	}

	word := strings.ToUpper(stim.Word)
	ink := tcell.NewRGBColor(int32(stim.Ink[0]), int32(stim.Ink[1]), int32(stim.Ink[2]))
	centered(s, w, h/2-4, word, tcell.StyleDefault.Foreground(ink).Bold(true))

	centered(s, w, h/2-2, st.Message, tcell.StyleDefault)
	if st.Detail != "" {
		centered(s, w, h/2-1, st.Detail, tcell.StyleDefault.Dim(true))
	}
	if st.Progress >= 0 {
		bar(s, w, h/2, st.Progress)
	}

	for _, b := range st.Buttons {
		button(s, b, b.Index == st.Highlight)
	}

	if fb != nil {
		color := tcell.ColorRed
		if fb.Correct {
			color = tcell.ColorGreen
		}
		centered(s, w, h-2, fb.Text, tcell.StyleDefault.Foreground(color).Bold(true))
	}
	s.Show()
}

func text(s tcell.Screen, x, y int, str string, style tcell.Style) {
	for _, r := range str {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func centered(s tcell.Screen, w, y int, str string, style tcell.Style) {
	n := len([]rune(str))
	text(s, max(0, (w-n)/2), y, str, style)
}

func bar(s tcell.Screen, w, y int, progress float64) {
	width := min(40, w-4)
	if width <= 0 {
		return
	}
	filled := int(progress * float64(width))
	x0 := (w - width) / 2
	for i := 0; i < width; i++ {
		r := '░'
		if i < filled {
			r = '█'
		}
		s.SetContent(x0+i, y, r, nil, tcell.StyleDefault)
	}
}

func button(s tcell.Screen, b input.Button, highlight bool) {
	bg := tcell.NewRGBColor(int32(b.RGB[0]), int32(b.RGB[1]), int32(b.RGB[2]))
	style := tcell.StyleDefault.Background(bg).Foreground(tcell.ColorBlack)
	if highlight {
		style = style.Bold(true).Underline(true)
	}
	for y := b.Rect.Min.Y; y < b.Rect.Max.Y; y++ {
		for x := b.Rect.Min.X; x < b.Rect.Max.X; x++ {
			s.SetContent(x, y, ' ', nil, style)
		}
	}
	label := []rune(b.Label)
	if len(label) > b.Rect.Dx() {
		label = label[:b.Rect.Dx()]
	}
	x := b.Rect.Min.X + (b.Rect.Dx()-len(label))/2
	text(s, x, b.Rect.Min.Y+b.Rect.Dy()/2, string(label), style)
}

// Close restores the terminal.
func (t *Screen) Close() {
	t.screen.Fini()
	<-t.done
}
