package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/repertoire/internal/shared"
)

// Song is a piece in a user's repertoire.
type Song struct {
	record
	userID       string
	title        string
	artist       string
	notes        string
	instrumentID string
}

// NewSong creates a song owned by userID. Artist, notes and instrument are optional.
func NewSong(sequence int, userID, title, artist, notes, instrumentID string) *Song {
	return &Song{
		record:       newRecord(sequence),
		userID:       userID,
		title:        strings.TrimSpace(title),
		artist:       strings.TrimSpace(artist),
		notes:        notes,
		instrumentID: instrumentID,
	}
}

func (s *Song) UserID() string { return s.userID }
func (s *Song) Title() string { return s.title }
func (s *Song) Artist() string { return s.artist }
func (s *Song) Notes() string { return s.notes }
func (s *Song) InstrumentID() string { return s.instrumentID }

func (s *Song) SetTitle(title string) { s.title = strings.TrimSpace(title) }
func (s *Song) SetArtist(artist string) { s.artist = strings.TrimSpace(artist) }
func (s *Song) SetNotes(notes string) { s.notes = notes }
func (s *Song) SetInstrumentID(id string) {
	s.instrumentID = id
}

// Validate checks that the song has an ID, an owner and a title.
func (s *Song) Validate() error {
	switch {
	case s.id == "":
		return fmt.Errorf("%w: song id is required", shared.ErrInvalidInput)
	case s.userID == "":
		return fmt.Errorf("%w: song owner is required", shared.ErrInvalidInput)
	case s.title == "":
		return fmt.Errorf("%w: song title is required", shared.ErrInvalidInput)
	}
	return nil
}
