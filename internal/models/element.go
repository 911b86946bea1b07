package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/repertoire/internal/shared"
)

// InstrumentElement is a learnable part of an instrument's curriculum.
type InstrumentElement struct {
	record
	instrumentID string
	name         string
	description  string
	mandatory    bool
	orderIndex   int
}

func NewInstrumentElement(instrumentID, name, description string, mandatory bool, orderIndex int) *InstrumentElement {
	return &InstrumentElement{
		record:       newRecord(0),
		instrumentID: instrumentID,
		name:         strings.TrimSpace(name),
		description:  description,
		mandatory:    mandatory,
		orderIndex:   orderIndex,
	}
}

func (e *InstrumentElement) InstrumentID() string { return e.instrumentID }
func (e *InstrumentElement) Name() string { return e.name }
func (e *InstrumentElement) Description() string { return e.description }
func (e *InstrumentElement) Mandatory() bool { return e.mandatory }
func (e *InstrumentElement) OrderIndex() int { return e.orderIndex }

func (e *InstrumentElement) SetOrderIndex(i int) { e.orderIndex = i }

func (e *InstrumentElement) Validate() error {
	switch {
	case e.id == "":
		return fmt.Errorf("%w: element id is required", shared.ErrInvalidInput)
	case e.instrumentID == "":
		return fmt.Errorf("%w: element instrument is required", shared.ErrInvalidInput)
	case e.name == "":
		return fmt.Errorf("%w: element name is required", shared.ErrInvalidInput)
	}
	return nil
}

// SongElement is a section of a song, evaluated per instrument.
type SongElement struct {
	record
	songID      string
	name        string
	description string
	orderIndex  int
}

// NewSongElement creates a song section. A negative orderIndex asks the repository to append it.
func NewSongElement(songID, name, description string, orderIndex int) *SongElement {
	return &SongElement{
		record:      newRecord(0),
		songID:      songID,
		name:        strings.TrimSpace(name),
		description: description,
		orderIndex:  orderIndex,
	}
}

func (e *SongElement) SongID() string { return e.songID }
func (e *SongElement) Name() string { return e.name }
func (e *SongElement) Description() string { return e.description }
func (e *SongElement) OrderIndex() int { return e.orderIndex }

func (e *SongElement) SetOrderIndex(i int) { e.orderIndex = i }

func (e *SongElement) Validate() error {
	switch {
	case e.id == "":
		return fmt.Errorf("%w: element id is required", shared.ErrInvalidInput)
	case e.songID == "":
		return fmt.Errorf("%w: element song is required", shared.ErrInvalidInput)
	case e.name == "":
		return fmt.Errorf("%w: element name is required", shared.ErrInvalidInput)
	}
	return nil
}
