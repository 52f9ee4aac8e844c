// Package game runs a Stroop session: it picks word and ink pairs, asks the
// configured input engine for an answer, scores it and reports a summary.
package game

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stroop/internal/catalog"
	"stroop/internal/input"
)

// Stimulus is what the subject sees for one round.
type Stimulus struct {
	Word   string
	Ink    [3]uint8
	Round  int
	Rounds int
}

// Feedback follows every round.
type Feedback struct {
	Text    string
	Correct bool
}

// Display is a render target that can also show the stimulus and feedback.
type Display interface {
	input.RenderTarget
	SetStimulus(Stimulus)
	ShowFeedback(Feedback)
}

// Config tunes a session.
type Config struct {
	Rounds int
	// CongruentOdds is the chance, in [0,1], that word and ink agree. Zero
	// gives the classic all-incongruent test. The default mixes in a quarter
	// of congruent rounds so the summary can report the Stroop effect, the
	// mean time difference between the two kinds.
	CongruentOdds float64
	// Pause is how long feedback stays on screen.
	Pause time.Duration
}

// DefaultConfig returns five rounds, one in four congruent.
func DefaultConfig() Config {
	return Config{Rounds: 5, CongruentOdds: 0.25, Pause: 1500 * time.Millisecond}
}

// Session plays rounds against one engine.
type Session struct {
	cfg     Config
	engine  input.Engine
	display Display
	ui      input.Strings
	rng     *rand.Rand
	logger  *zap.Logger
}

// NewSession creates a session. rng may be nil.
func NewSession(cfg Config, engine input.Engine, display Display, ui input.Strings, rng *rand.Rand, logger *zap.Logger) *Session {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		cfg:     cfg,
		engine:  engine,
		display: display,
		ui:      ui,
		rng:     rng,
		logger:  logger.Named("game").With(zap.String("session", uuid.NewString())),
	}
}

// pick chooses word and ink indices.
func (s *Session) pick(n int) (word, ink int) {
	word = s.rng.IntN(n)
	if n < 2 || s.rng.Float64() < s.cfg.CongruentOdds {
		return word, word
	}
	ink = s.rng.IntN(n - 1)
	if ink >= word {
		ink++
	}
	return word, ink
}

// Run plays the session. A cancelled answer ends it early; the summary then
// covers the rounds played so far.
func (s *Session) Run(ctx context.Context, cat catalog.Catalog) Summary {
	var rounds []Round
	cancelled := false

	for i := 0; i < s.cfg.Rounds && cat.Len() > 0; i++ {
		word, ink := s.pick(cat.Len())
		s.display.SetStimulus(Stimulus{
			Word:   cat.Entry(word).Name,
			Ink:    cat.Entry(ink).RGB,
			Round:  i + 1,
			Rounds: s.cfg.Rounds,
		})

		start := time.Now()
		res := s.engine.GetInput(ctx, cat, s.display, s.ui)
		elapsed := time.Since(start)

		if res.Reason() == input.Cancelled {
			s.logger.Info("session cancelled", zap.Int("round", i+1), zap.String("detail", res.Detail()))
			cancelled = true
			break
		}

		idx, ok := res.Index()
		r := Round{
			Word:      word,
			Ink:       ink,
			Congruent: word == ink,
			Result:    res,
			Correct:   ok && idx == ink,
			Elapsed:   elapsed,
		}
		rounds = append(rounds, r)
		s.logger.Debug("round",
			zap.Int("round", i+1),
			zap.Bool("congruent", r.Congruent),
			zap.Stringer("result", res),
			zap.Bool("correct", r.Correct),
			zap.Duration("elapsed", elapsed),
		)

		s.display.ShowFeedback(s.feedback(r))
		if !s.pause(ctx) {
			cancelled = true
			break
		}
	}

	sum := Summarize(rounds)
	sum.Cancelled = cancelled
	s.logger.Info("session finished",
		zap.Int("rounds", sum.Rounds),
		zap.Int("correct", sum.Correct),
		zap.Duration("mean_time", sum.MeanTime),
		zap.Float64("efficiency", sum.Efficiency),
		zap.Duration("stroop_effect", sum.StroopEffect),
	)
	return sum
}

func (s *Session) feedback(r Round) Feedback {
	switch {
	case r.Correct:
		return Feedback{Text: s.ui.T("correct"), Correct: true}
	case r.Result.Reason() == input.Timeout:
		return Feedback{Text: s.ui.T("times_up")}
	default:
		return Feedback{Text: s.ui.T("wrong")}
	}
}

// pause keeps feedback visible; a quit during the pause ends the session.
func (s *Session) pause(ctx context.Context) bool {
	deadline := time.Now().Add(s.cfg.Pause)
	for time.Now().Before(deadline) {
		if input.HasQuit(s.display.Poll()) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(min(20*time.Millisecond, time.Until(deadline))):
		}
	}
	return ctx.Err() == nil
}
