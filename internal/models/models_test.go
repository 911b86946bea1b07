package models

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/repertoire/internal/shared"
)

func TestLevel(t *testing.T) {
	t.Run("ParseLevel", func(t *testing.T) {
		for _, n := range []int{1, 2, 3, 4, 5} {
			if _, err := ParseLevel(n); err != nil {
				t.Errorf("ParseLevel(%d) unexpected error: %v", n, err)
			}
		}

		for _, n := range []int{-1, 0, 6} {
			if _, err := ParseLevel(n); !errors.Is(err, shared.ErrInvalidLevel) {
				t.Errorf("ParseLevel(%d) expected ErrInvalidLevel, got %v", n, err)
			}
		}
	})

	t.Run("Label", func(t *testing.T) {
		if got := MaxLevel.Label(); got != "Mastered" {
			t.Errorf("expected Mastered, got %s", got)
		}
		if got := Level(0).Label(); got != "Unknown" {
			t.Errorf("expected Unknown for invalid level, got %s", got)
		}
	})
}

func TestKeyValidate(t *testing.T) {
	tc := []struct {
		name    string
		key     Key
		wantErr bool
	}{
		{name: "song and instrument element", key: Key{SongID: "s", InstrumentElementID: "ie"}},
		{name: "song element and instrument", key: Key{SongID: "s", SongElementID: "se", InstrumentID: "i"}},
		{name: "missing song", key: Key{InstrumentElementID: "ie"}, wantErr: true},
		{name: "song element without instrument", key: Key{SongID: "s", SongElementID: "se"}, wantErr: true},
		{name: "song only", key: Key{SongID: "s"}, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEvaluation(t *testing.T) {
	key := Key{SongID: "s", InstrumentElementID: "ie"}

	t.Run("zero time defaults to creation time", func(t *testing.T) {
		e := NewEvaluation("u", key, 3, "  notes ", time.Time{})
		if !e.EvaluatedAt().Equal(e.CreatedAt()) {
			t.Errorf("expected evaluated_at %v to equal created_at %v", e.EvaluatedAt(), e.CreatedAt())
		}
		if e.Notes() != "notes" {
			t.Errorf("expected trimmed notes, got %q", e.Notes())
		}
	})

	t.Run("Validate", func(t *testing.T) {
		e := NewEvaluation("u", key, 6, "", time.Time{})
		e.SetID("id")
		if err := e.Validate(); !errors.Is(err, shared.ErrInvalidLevel) {
			t.Errorf("expected ErrInvalidLevel, got %v", err)
		}

		e = NewEvaluation("u", key, 4, "", time.Time{})
		if err := e.Validate(); err == nil {
			t.Error("expected error for missing id")
		}

		e.SetID("id")
		if err := e.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestEntityValidation(t *testing.T) {
	t.Run("Song requires title", func(t *testing.T) {
		s := NewSong(1, "u", "   ", "", "", "")
		s.SetID("id")
		if err := s.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("User requires email", func(t *testing.T) {
		u := NewUser(1, "not-an-email", "")
		u.SetID("id")
		if err := u.Validate(); err == nil {
			t.Error("expected error for invalid email")
		}
		if u.DisplayName() != "Musician" {
			t.Errorf("expected default display name, got %s", u.DisplayName())
		}
	})

	t.Run("Instrument visibility", func(t *testing.T) {
		common := NewInstrument(1, "", "Piano")
		owned := NewInstrument(2, "u1", "Guitar")

		if !common.VisibleTo("anyone") {
			t.Error("shared instrument should be visible to everyone")
		}
		if owned.VisibleTo("u2") {
			t.Error("owned instrument should not be visible to other users")
		}
	})
}
