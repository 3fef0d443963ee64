// Package attempt decides how an exam session starts and which attempt
// ordinal a submission belongs to, from the server-reported attempt history.
package attempt

import (
	"time"

	"github.com/stemsi/exstem-trainee/internal/model"
)

// Mode is how the trainee entered the exam.
type Mode int

const (
	// ModeFreshOrContinue starts a first attempt or resumes the one in progress.
	ModeFreshOrContinue Mode = iota
	// ModeRetake starts a new attempt after a completed one.
	ModeRetake
)

func (m Mode) String() string {
	if m == ModeRetake {
		return "retake"
	}
	return "fresh_or_continue"
}

// Path is the startup path of a session.
type Path int

const (
	PathFresh Path = iota
	PathResume
)

func (p Path) String() string {
	if p == PathResume {
		return "resume"
	}
	return "fresh"
}

// Plan is the resolved startup of a session.
type Plan struct {
	Path Path
	// NeedsStart is set when the server must create an attempt before the
	// clock runs. The ordinal is then only known after a refetch.
	NeedsStart bool
	// DiscardDraft drops any locally saved answers before the session begins.
	DiscardDraft bool
	// Ordinal is the attempt being resumed. Zero when NeedsStart is set.
	Ordinal int
	// Elapsed is how long the resumed attempt has already been running.
	Elapsed time.Duration
}

// Resolve decides the startup path for the given history and entry mode.
func Resolve(history []model.ExamOfTrainee, mode Mode, now time.Time) Plan {
	if mode == ModeRetake {
		return Plan{Path: PathFresh, NeedsStart: true, DiscardDraft: true}
	}

	rec, ok := LatestInProgress(history)
	if !ok {
		return Plan{Path: PathFresh, NeedsStart: true}
	}

	elapsed := now.Sub(rec.TimeStartExam.Time)
	if elapsed < 0 || rec.TimeStartExam.IsZero() {
		elapsed = 0
	}
	return Plan{
		Path:    PathResume,
		Ordinal: rec.AttemptNumber,
		Elapsed: elapsed,
	}
}

// LatestInProgress returns the in-progress record that started last.
func LatestInProgress(history []model.ExamOfTrainee) (model.ExamOfTrainee, bool) {
	var (
		latest model.ExamOfTrainee
		found  bool
	)
	for _, rec := range history {
		if rec.StatusExam != model.StatusExamInProgress {
			continue
		}
		if !found || rec.TimeStartExam.After(latest.TimeStartExam.Time) {
			latest = rec
			found = true
		}
	}
	return latest, found
}

// SubmitOrdinal is the attempt number to send with a submission: the latest
// in-progress attempt, else the highest ordinal seen, else 1.
func SubmitOrdinal(history []model.ExamOfTrainee) int {
	if rec, ok := LatestInProgress(history); ok {
		return rec.AttemptNumber
	}
	highest := 0
	for _, rec := range history {
		if rec.AttemptNumber > highest {
			highest = rec.AttemptNumber
		}
	}
	if highest == 0 {
		return 1
	}
	return highest
}

// PriorAttempts is the number of attempts before the given ordinal, for
// display only.
func PriorAttempts(ordinal int) int {
	if ordinal <= 1 {
		return 0
	}
	return ordinal - 1
}
