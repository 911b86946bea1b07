package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/repertoire/internal/shared"
)

// Instrument is owned by a user, or shared by everyone when it has no owner.
type Instrument struct {
	record
	userID string
	name   string
}

// NewInstrument creates an instrument. Pass an empty userID for a shared instrument.
func NewInstrument(sequence int, userID, name string) *Instrument {
	return &Instrument{record: newRecord(sequence), userID: userID, name: strings.TrimSpace(name)}
}

func (i *Instrument) UserID() string { return i.userID }
func (i *Instrument) Name() string { return i.name }
func (i *Instrument) Shared() bool { return i.userID == "" }
func (i *Instrument) SetName(name string) { i.name = strings.TrimSpace(name) }

// VisibleTo reports whether userID may read this instrument.
func (i *Instrument) VisibleTo(userID string) bool {
	return i.Shared() || i.userID == userID
}

func (i *Instrument) Validate() error {
	if i.id == "" {
		return fmt.Errorf("%w: instrument id is required", shared.ErrInvalidInput)
	}
	if i.name == "" {
		return fmt.Errorf("%w: instrument name is required", shared.ErrInvalidInput)
	}
	return nil
}
