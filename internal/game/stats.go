package game

import (
	"time"

	"stroop/internal/input"
)

// Round is one question and its outcome.
type Round struct {
	Word      int
	Ink       int
	Congruent bool
	Result    input.Result
	Correct   bool
	Elapsed   time.Duration
}

// Summary aggregates a session.
type Summary struct {
	Rounds   int
	Correct  int
	Accuracy float64
	// MeanTime is over every answered round.
	MeanTime time.Duration
	// Efficiency is correct answers per second of mean reaction time.
	Efficiency float64
	// StroopEffect is the mean conflict time minus the mean congruent time,
	// over correct rounds. Zero when either set is empty.
	StroopEffect time.Duration
	Cancelled    bool
}

// Summarize computes the session statistics.
func Summarize(rounds []Round) Summary {
	s := Summary{Rounds: len(rounds)}
	if len(rounds) == 0 {
		return s
	}

	var total time.Duration
	var conflict, congruent []time.Duration
	for _, r := range rounds {
		total += r.Elapsed
		if !r.Correct {
			continue
		}
		s.Correct++
		if r.Congruent {
			congruent = append(congruent, r.Elapsed)
		} else {
			conflict = append(conflict, r.Elapsed)
		}
	}

	s.Accuracy = float64(s.Correct) / float64(len(rounds))
	s.MeanTime = total / time.Duration(len(rounds))
	if s.MeanTime > 0 {
		s.Efficiency = float64(s.Correct) / s.MeanTime.Seconds()
	}
	if len(conflict) > 0 && len(congruent) > 0 {
		s.StroopEffect = mean(conflict) - mean(congruent)
	}
	return s
}

func mean(ds []time.Duration) time.Duration {
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return sum / time.Duration(len(ds))
}
