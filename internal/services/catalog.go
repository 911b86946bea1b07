package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/repertoire/internal/models"
	"github.com/desertthunder/repertoire/internal/shared"
)

// SongInput carries the editable fields of a song.
type SongInput struct {
	Title        string
	Artist       string
	Notes        string
	InstrumentID string
}

// ElementInput carries the fields of a song or instrument element. Mandatory only applies to
// instrument elements.
type ElementInput struct {
	Name        string
	Description string
	Mandatory   bool
}

// SongPage is one page of the dashboard song list.
type SongPage struct {
	Songs   []*models.Song
	Page    int
	PerPage int
	Total   int
}

// Pages is the number of pages needed for Total songs, at least one.
func (p SongPage) Pages() int {
	if p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// SongDetail is a song together with its sections and the instruments it can be evaluated on.
type SongDetail struct {
	Song        *models.Song
	Instrument  *models.Instrument
	Elements    []*models.SongElement
	Instruments []*models.Instrument
}

func (p *Practice) CreateSong(ctx context.Context, userID string, in SongInput) (*models.Song, error) {
	if err := p.checkInstrument(ctx, userID, in.InstrumentID); err != nil {
		return nil, err
	}

	song := models.NewSong(0, userID, in.Title, in.Artist, in.Notes, in.InstrumentID)
	if err := p.songs.Create(ctx, song); err != nil {
		return nil, err
	}

	p.logger.Info("song created", "user", userID, "song", song.ID(), "title", song.Title())
	return song, nil
}

func (p *Practice) UpdateSong(ctx context.Context, userID, songID string, in SongInput) (*models.Song, error) {
	song, err := p.ownedSong(ctx, userID, songID)
	if err != nil {
		return nil, err
	}
	if err := p.checkInstrument(ctx, userID, in.InstrumentID); err != nil {
		return nil, err
	}

	song.SetTitle(in.Title)
	song.SetArtist(in.Artist)
	song.SetNotes(in.Notes)
	song.SetInstrumentID(in.InstrumentID)

	if err := p.songs.Update(ctx, song); err != nil {
		return nil, err
	}

	p.logger.Info("song updated", "user", userID, "song", song.ID())
	return song, nil
}

// DeleteSong removes a song with its elements and evaluations.
func (p *Practice) DeleteSong(ctx context.Context, userID, songID string) error {
	if _, err := p.ownedSong(ctx, userID, songID); err != nil {
		return err
	}
	if err := p.songs.Delete(ctx, songID); err != nil {
		return err
	}

	p.logger.Info("song deleted", "user", userID, "song", songID)
	return nil
}

// ListSongs returns one page of the user's songs, most recently updated first.
func (p *Practice) ListSongs(ctx context.Context, userID string, page int) (*SongPage, error) {
	if page < 1 {
		page = 1
	}
	songs, total, err := p.songs.Page(ctx, userID, page, p.perPage)
	if err != nil {
		return nil, err
	}
	return &SongPage{Songs: songs, Page: page, PerPage: p.perPage, Total: total}, nil
}

func (p *Practice) GetSong(ctx context.Context, userID, songID string) (*SongDetail, error) {
	song, err := p.ownedSong(ctx, userID, songID)
	if err != nil {
		return nil, err
	}

	elements, err := p.songElements.List(ctx, map[string]any{"song_id": songID})
	if err != nil {
		return nil, err
	}
	instruments, err := p.instruments.List(ctx, map[string]any{"user_id": userID})
	if err != nil {
		return nil, err
	}

	detail := &SongDetail{Song: song, Elements: elements, Instruments: instruments}
	for _, instrument := range instruments {
		if instrument.ID() == song.InstrumentID() {
			detail.Instrument = instrument
		}
	}
	return detail, nil
}

// CreateInstrument adds an instrument owned by userID, or a shared one visible to everybody.
func (p *Practice) CreateInstrument(ctx context.Context, userID, name string, global bool) (*models.Instrument, error) {
	owner := userID
	if global {
		owner = ""
	}

	instrument := models.NewInstrument(0, owner, name)
	if err := p.instruments.Create(ctx, instrument); err != nil {
		return nil, err
	}

	p.logger.Info("instrument created", "user", userID, "instrument", instrument.ID(), "shared", global)
	return instrument, nil
}

// DeleteInstrument removes an instrument the user owns. Shared instruments cannot be deleted this way.
func (p *Practice) DeleteInstrument(ctx context.Context, userID, instrumentID string) error {
	if _, err := p.ownedInstrument(ctx, userID, instrumentID); err != nil {
		return err
	}
	if err := p.instruments.Delete(ctx, instrumentID); err != nil {
		return err
	}

	p.logger.Info("instrument deleted", "user", userID, "instrument", instrumentID)
	return nil
}

// ListInstruments returns the user's instruments and the shared ones in creation order.
func (p *Practice) ListInstruments(ctx context.Context, userID string) ([]*models.Instrument, error) {
	return p.instruments.List(ctx, map[string]any{"user_id": userID})
}

// AddSongElement appends a section to a song.
func (p *Practice) AddSongElement(ctx context.Context, userID, songID string, in ElementInput) (*models.SongElement, error) {
	if _, err := p.ownedSong(ctx, userID, songID); err != nil {
		return nil, err
	}

	element := models.NewSongElement(songID, in.Name, strings.TrimSpace(in.Description), -1)
	if err := p.songElements.Create(ctx, element); err != nil {
		return nil, err
	}

	p.logger.Info("song element added", "song", songID, "element", element.ID(), "name", element.Name())
	return element, nil
}

func (p *Practice) DeleteSongElement(ctx context.Context, userID, songID, elementID string) error {
	if _, err := p.ownedSong(ctx, userID, songID); err != nil {
		return err
	}

	element, err := p.songElements.Get(ctx, elementID)
	if err != nil {
		return err
	}
	if element.SongID() != songID {
		return fmt.Errorf("%w: element %s does not belong to song %s", shared.ErrNotFound, elementID, songID)
	}

	if err := p.songElements.Delete(ctx, elementID); err != nil {
		return err
	}

	p.logger.Info("song element deleted", "song", songID, "element", elementID)
	return nil
}

func (p *Practice) ListSongElements(ctx context.Context, userID, songID string) ([]*models.SongElement, error) {
	if _, err := p.ownedSong(ctx, userID, songID); err != nil {
		return nil, err
	}
	return p.songElements.List(ctx, map[string]any{"song_id": songID})
}

// AddInstrumentElement appends a curriculum item to an instrument the user owns.
func (p *Practice) AddInstrumentElement(ctx context.Context, userID, instrumentID string, in ElementInput) (*models.InstrumentElement, error) {
	if _, err := p.ownedInstrument(ctx, userID, instrumentID); err != nil {
		return nil, err
	}

	element := models.NewInstrumentElement(instrumentID, in.Name, strings.TrimSpace(in.Description), in.Mandatory, -1)
	if err := p.instrumentElements.Create(ctx, element); err != nil {
		return nil, err
	}

	p.logger.Info("instrument element added", "instrument", instrumentID, "element", element.ID(), "mandatory", element.Mandatory())
	return element, nil
}

// ListInstrumentElements returns the curriculum of any instrument visible to the user.
func (p *Practice) ListInstrumentElements(ctx context.Context, userID, instrumentID string) ([]*models.InstrumentElement, error) {
	if _, err := p.visibleInstrument(ctx, userID, instrumentID); err != nil {
		return nil, err
	}
	return p.instrumentElements.List(ctx, map[string]any{"instrument_id": instrumentID})
}

func (p *Practice) ownedSong(ctx context.Context, userID, songID string) (*models.Song, error) {
	song, err := p.songs.Get(ctx, songID)
	if err != nil {
		return nil, err
	}
	if song.UserID() != userID {
		return nil, fmt.Errorf("%w: song %s", shared.ErrForbidden, songID)
	}
	return song, nil
}

func (p *Practice) visibleInstrument(ctx context.Context, userID, instrumentID string) (*models.Instrument, error) {
	instrument, err := p.instruments.Get(ctx, instrumentID)
	if err != nil {
		return nil, err
	}
	if !instrument.VisibleTo(userID) {
		return nil, fmt.Errorf("%w: instrument %s", shared.ErrForbidden, instrumentID)
	}
	return instrument, nil
}

func (p *Practice) ownedInstrument(ctx context.Context, userID, instrumentID string) (*models.Instrument, error) {
	instrument, err := p.visibleInstrument(ctx, userID, instrumentID)
	if err != nil {
		return nil, err
	}
	if instrument.Shared() {
		return nil, fmt.Errorf("%w: instrument %s is shared", shared.ErrForbidden, instrumentID)
	}
	return instrument, nil
}

// checkInstrument accepts an empty ID or an instrument visible to the user.
func (p *Practice) checkInstrument(ctx context.Context, userID, instrumentID string) error {
	if instrumentID == "" {
		return nil
	}
	_, err := p.visibleInstrument(ctx, userID, instrumentID)
	return err
}
