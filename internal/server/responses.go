package server

import (
	"time"

	"github.com/desertthunder/repertoire/internal/models"
	"github.com/desertthunder/repertoire/internal/services"
)

type SongResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	InstrumentID string    `json:"instrument_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewSongResponse(s *models.Song) SongResponse {
	return SongResponse{
		ID:           s.ID(),
		Title:        s.Title(),
		Artist:       s.Artist(),
		Notes:        s.Notes(),
		InstrumentID: s.InstrumentID(),
		CreatedAt:    s.CreatedAt(),
		UpdatedAt:    s.UpdatedAt(),
	}
}

type InstrumentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Shared    bool      `json:"shared"`
	CreatedAt time.Time `json:"created_at"`
}

func NewInstrumentResponse(i *models.Instrument) InstrumentResponse {
	return InstrumentResponse{ID: i.ID(), Name: i.Name(), Shared: i.Shared(), CreatedAt: i.CreatedAt()}
}

type SongElementResponse struct {
	ID          string `json:"id"`
	SongID      string `json:"song_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OrderIndex  int    `json:"order_index"`
}

func NewSongElementResponse(e *models.SongElement) SongElementResponse {
	return SongElementResponse{
		ID:          e.ID(),
		SongID:      e.SongID(),
		Name:        e.Name(),
		Description: e.Description(),
		OrderIndex:  e.OrderIndex(),
	}
}

type InstrumentElementResponse struct {
	ID           string `json:"id"`
	InstrumentID string `json:"instrument_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Mandatory    bool   `json:"mandatory"`
	OrderIndex   int    `json:"order_index"`
}

func NewInstrumentElementResponse(e *models.InstrumentElement) InstrumentElementResponse {
	return InstrumentElementResponse{
		ID:           e.ID(),
		InstrumentID: e.InstrumentID(),
		Name:         e.Name(),
		Description:  e.Description(),
		Mandatory:    e.Mandatory(),
		OrderIndex:   e.OrderIndex(),
	}
}

type EvaluationResponse struct {
	ID                  string    `json:"id"`
	SongID              string    `json:"song_id"`
	SongElementID       string    `json:"song_element_id,omitempty"`
	InstrumentID        string    `json:"instrument_id,omitempty"`
	InstrumentElementID string    `json:"instrument_element_id,omitempty"`
	Level               int       `json:"level"`
	Label               string    `json:"label"`
	Notes               string    `json:"notes,omitempty"`
	EvaluatedAt         time.Time `json:"evaluated_at"`
}

func NewEvaluationResponse(e *models.Evaluation) EvaluationResponse {
	key := e.Key()
	return EvaluationResponse{
		ID:                  e.ID(),
		SongID:              key.SongID,
		SongElementID:       key.SongElementID,
		InstrumentID:        key.InstrumentID,
		InstrumentElementID: key.InstrumentElementID,
		Level:               int(e.Level()),
		Label:               e.Level().Label(),
		Notes:               e.Notes(),
		EvaluatedAt:         e.EvaluatedAt(),
	}
}

type SongPageResponse struct {
	Songs   []SongResponse `json:"songs"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	Pages   int            `json:"pages"`
	Total   int            `json:"total"`
}

func NewSongPageResponse(p *services.SongPage) SongPageResponse {
	return SongPageResponse{
		Songs:   mapSlice(p.Songs, NewSongResponse),
		Page:    p.Page,
		PerPage: p.PerPage,
		Pages:   p.Pages(),
		Total:   p.Total,
	}
}

type SongDetailResponse struct {
	SongResponse
	Instrument  *InstrumentResponse   `json:"instrument,omitempty"`
	Elements    []SongElementResponse `json:"elements"`
	Instruments []InstrumentResponse  `json:"instruments"`
}

func NewSongDetailResponse(d *services.SongDetail) SongDetailResponse {
	resp := SongDetailResponse{
		SongResponse: NewSongResponse(d.Song),
		Elements:     mapSlice(d.Elements, NewSongElementResponse),
		Instruments:  mapSlice(d.Instruments, NewInstrumentResponse),
	}
	if d.Instrument != nil {
		instrument := NewInstrumentResponse(d.Instrument)
		resp.Instrument = &instrument
	}
	return resp
}

type EvaluationViewResponse struct {
	Song              SongResponse               `json:"song"`
	SongElement       *SongElementResponse       `json:"song_element,omitempty"`
	Instrument        *InstrumentResponse        `json:"instrument,omitempty"`
	InstrumentElement *InstrumentElementResponse `json:"instrument_element,omitempty"`
	Latest            *EvaluationResponse        `json:"latest"`
	History           []EvaluationResponse       `json:"history"`
	Levels            []LevelResponse            `json:"levels"`
}

func NewEvaluationViewResponse(v *services.EvaluationView) EvaluationViewResponse {
	resp := EvaluationViewResponse{
		Song:    NewSongResponse(v.Song),
		History: mapSlice(v.History, NewEvaluationResponse),
		Levels:  NewLevelsResponse(),
	}
	if v.SongElement != nil {
		element := NewSongElementResponse(v.SongElement)
		resp.SongElement = &element
	}
	if v.Instrument != nil {
		instrument := NewInstrumentResponse(v.Instrument)
		resp.Instrument = &instrument
	}
	if v.InstrumentElement != nil {
		element := NewInstrumentElementResponse(v.InstrumentElement)
		resp.InstrumentElement = &element
	}
	if v.Latest != nil {
		latest := NewEvaluationResponse(v.Latest)
		resp.Latest = &latest
	}
	return resp
}

// LevelResponse describes one point of the mastery scale.
type LevelResponse struct {
	Level       int    `json:"level"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

func NewLevelsResponse() []LevelResponse {
	return mapSlice(models.Levels(), func(l models.Level) LevelResponse {
		return LevelResponse{Level: int(l), Label: l.Label(), Description: l.Description()}
	})
}

// mapSlice never returns nil so empty lists encode as [].
func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
