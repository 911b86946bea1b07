package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/repertoire/internal/models"
	"github.com/desertthunder/repertoire/internal/shared"
)

// EvaluationInput names the evaluated subject and the self-assessed level.
//
// The subject is either an instrument element of a song, or a song element played on an instrument.
// SongID may be left empty when SongElementID is set.
type EvaluationInput struct {
	SongID              string
	SongElementID       string
	InstrumentID        string
	InstrumentElementID string
	Level               int
	Notes               string
}

// Key returns the subject of the input as given.
func (in EvaluationInput) Key() models.Key {
	return models.Key{
		SongID:              in.SongID,
		SongElementID:       in.SongElementID,
		InstrumentID:        in.InstrumentID,
		InstrumentElementID: in.InstrumentElementID,
	}
}

// EvaluationView is what the evaluate screen shows for one subject.
type EvaluationView struct {
	Key               models.Key
	Song              *models.Song
	SongElement       *models.SongElement
	Instrument        *models.Instrument
	InstrumentElement *models.InstrumentElement
	Latest            *models.Evaluation
	History           []*models.Evaluation
}

// Evaluate records a new evaluation stamped with the current time.
func (p *Practice) Evaluate(ctx context.Context, userID string, in EvaluationInput) (*models.Evaluation, error) {
	level, err := models.ParseLevel(in.Level)
	if err != nil {
		return nil, err
	}

	view, err := p.resolveSubject(ctx, userID, in.Key())
	if err != nil {
		return nil, err
	}

	evaluation := models.NewEvaluation(userID, view.Key, level, in.Notes, p.now())
	if err := p.evaluations.Create(ctx, evaluation); err != nil {
		return nil, err
	}

	p.logger.Info("evaluation recorded", "user", userID, "subject", view.Key.String(), "level", int(level))
	return evaluation, nil
}

// EvaluationPage loads a subject with its current evaluation and history, newest first.
// Latest is nil when the subject was never evaluated.
func (p *Practice) EvaluationPage(ctx context.Context, userID string, key models.Key) (*EvaluationView, error) {
	view, err := p.resolveSubject(ctx, userID, key)
	if err != nil {
		return nil, err
	}

	history, err := p.evaluations.History(ctx, userID, view.Key)
	if err != nil {
		return nil, err
	}

	view.History = history
	if len(history) > 0 {
		view.Latest = history[0]
	}
	return view, nil
}

// resolveSubject completes and checks a key against the user's catalog.
func (p *Practice) resolveSubject(ctx context.Context, userID string, key models.Key) (*EvaluationView, error) {
	view := &EvaluationView{}

	if key.SongElementID != "" {
		element, err := p.songElements.Get(ctx, key.SongElementID)
		if err != nil {
			return nil, err
		}
		if key.SongID == "" {
			key.SongID = element.SongID()
		}
		if element.SongID() != key.SongID {
			return nil, fmt.Errorf("%w: element %s is not part of song %s", shared.ErrInvalidInput, element.ID(), key.SongID)
		}
		view.SongElement = element
	}

	if err := key.Validate(); err != nil {
		return nil, err
	}

	song, err := p.ownedSong(ctx, userID, key.SongID)
	if err != nil {
		return nil, err
	}
	view.Song = song

	if key.InstrumentElementID != "" {
		element, err := p.instrumentElements.Get(ctx, key.InstrumentElementID)
		if err != nil {
			return nil, err
		}
		if key.InstrumentID != "" && key.InstrumentID != element.InstrumentID() {
			return nil, fmt.Errorf("%w: element %s is not part of instrument %s", shared.ErrInvalidInput, element.ID(), key.InstrumentID)
		}
		view.InstrumentElement = element

		// the element's instrument is only loaded for display, the key keeps its original shape
		if view.Instrument, err = p.visibleInstrument(ctx, userID, element.InstrumentID()); err != nil {
			return nil, err
		}
	}

	if key.InstrumentID != "" && view.Instrument == nil {
		if view.Instrument, err = p.visibleInstrument(ctx, userID, key.InstrumentID); err != nil {
			return nil, err
		}
	}

	view.Key = key
	return view, nil
}
