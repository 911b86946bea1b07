package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/repertoire/internal/shared"
)

// Level is a self-assessed mastery rating from [MinLevel] to [MaxLevel].
type Level int

const (
	MinLevel Level = 1
	MaxLevel Level = 5
)

var levelLabels = [...]struct{ label, description string }{
	{},
	{"Beginner", "Just started learning"},
	{"Novice", "Can play slowly with mistakes"},
	{"Intermediate", "Can play at moderate speed"},
	{"Advanced", "Can play well with few mistakes"},
	{"Mastered", "Can play perfectly at full speed"},
}

// Levels returns every valid level in ascending order.
func Levels() []Level {
	return []Level{1, 2, 3, 4, 5}
}

func (l Level) Valid() bool { return l >= MinLevel && l <= MaxLevel }

func (l Level) Label() string {
	if !l.Valid() {
		return "Unknown"
	}
	return levelLabels[l].label
}

func (l Level) Description() string {
	if !l.Valid() {
		return ""
	}
	return levelLabels[l].description
}

// ParseLevel converts an integer into a [Level], rejecting values outside 1..5.
func ParseLevel(n int) (Level, error) {
	l := Level(n)
	if !l.Valid() {
		return 0, fmt.Errorf("%w: got %d", shared.ErrInvalidLevel, n)
	}
	return l, nil
}

// Key identifies the subject of an evaluation history.
//
// The canonical shape is a song plus either an instrument element, or a song element evaluated on an
// instrument. Unused parts are empty strings so the struct stays comparable and usable as a map key.
type Key struct {
	SongID              string
	SongElementID       string
	InstrumentID        string
	InstrumentElementID string
}

// Validate rejects keys without a song or without a complete subject.
func (k Key) Validate() error {
	if k.SongID == "" {
		return fmt.Errorf("%w: evaluation song is required", shared.ErrInvalidInput)
	}
	if k.InstrumentElementID == "" && (k.SongElementID == "" || k.InstrumentID == "") {
		return fmt.Errorf("%w: evaluation needs an instrument element or a song element and instrument", shared.ErrInvalidInput)
	}
	return nil
}

func (k Key) String() string {
	return strings.Join([]string{k.SongID, k.SongElementID, k.InstrumentID, k.InstrumentElementID}, "/")
}

// Evaluation records a mastery level for a [Key] at a point in time.
type Evaluation struct {
	record
	userID      string
	key         Key
	level       Level
	notes       string
	evaluatedAt time.Time
}

// NewEvaluation creates an evaluation. A zero evaluatedAt means now.
func NewEvaluation(userID string, key Key, level Level, notes string, evaluatedAt time.Time) *Evaluation {
	rec := newRecord(0)
	if evaluatedAt.IsZero() {
		evaluatedAt = rec.createdAt
	}
	return &Evaluation{
		record:      rec,
		userID:      userID,
		key:         key,
		level:       level,
		notes:       strings.TrimSpace(notes),
		evaluatedAt: evaluatedAt.UTC(),
	}
}

func (e *Evaluation) UserID() string { return e.userID }
func (e *Evaluation) Key() Key { return e.key }
func (e *Evaluation) SongID() string { return e.key.SongID }
func (e *Evaluation) Level() Level { return e.level }
func (e *Evaluation) Notes() string { return e.notes }
func (e *Evaluation) EvaluatedAt() time.Time { return e.evaluatedAt }

func (e *Evaluation) SetKey(k Key) { e.key = k }

func (e *Evaluation) Validate() error {
	if e.id == "" {
		return fmt.Errorf("%w: evaluation id is required", shared.ErrInvalidInput)
	}
	if e.userID == "" {
		return fmt.Errorf("%w: evaluation owner is required", shared.ErrInvalidInput)
	}
	if !e.level.Valid() {
		return fmt.Errorf("%w: got %d", shared.ErrInvalidLevel, e.level)
	}
	return e.key.Validate()
}
