package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/desertthunder/repertoire/internal/services"
)

// bind decodes a JSON or form body into v and runs its Bind hook.
func bind(r *http.Request, v render.Binder) *APIError {
	if err := render.Decode(r, v); err != nil {
		return badRequest(err)
	}
	if err := v.Bind(r); err != nil {
		return errorFrom(err)
	}
	return nil
}

// noInstrument is what the song form submits when no default instrument is picked.
const noInstrument = "none"

type SongRequest struct {
	Title        string `json:"title" form:"title" validate:"required,max=200"`
	Artist       string `json:"artist" form:"artist" validate:"max=200"`
	Notes        string `json:"notes" form:"notes"`
	InstrumentID string `json:"instrument_id" form:"instrument_id" validate:"omitempty,uuid"`
}

func (req *SongRequest) Bind(r *http.Request) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Artist = strings.TrimSpace(req.Artist)
	req.InstrumentID = strings.TrimSpace(req.InstrumentID)
	if strings.EqualFold(req.InstrumentID, noInstrument) {
		req.InstrumentID = ""
	}
	return validate.Struct(req)
}

func (req *SongRequest) Input() services.SongInput {
	return services.SongInput{
		Title:        req.Title,
		Artist:       req.Artist,
		Notes:        req.Notes,
		InstrumentID: req.InstrumentID,
	}
}

type InstrumentRequest struct {
	Name   string `json:"name" form:"name" validate:"required,max=100"`
	Shared bool   `json:"shared" form:"shared"`
}

func (req *InstrumentRequest) Bind(r *http.Request) error {
	req.Name = strings.TrimSpace(req.Name)
	return validate.Struct(req)
}

// ElementRequest is used for both song sections and instrument curriculum items.
// Mandatory is ignored for song sections.
type ElementRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=200"`
	Description string `json:"description" form:"description"`
	Mandatory   bool   `json:"mandatory" form:"mandatory"`
}

func (req *ElementRequest) Bind(r *http.Request) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	return validate.Struct(req)
}

func (req *ElementRequest) Input() services.ElementInput {
	return services.ElementInput{Name: req.Name, Description: req.Description, Mandatory: req.Mandatory}
}

// EvaluationRequest records a level for a subject. Whether the subject is complete is checked by the
// practice service, since the song can be derived from the song element.
type EvaluationRequest struct {
	SongID              string `json:"song_id" form:"song_id" validate:"omitempty,uuid"`
	SongElementID       string `json:"song_element_id" form:"song_element_id" validate:"omitempty,uuid"`
	InstrumentID        string `json:"instrument_id" form:"instrument_id" validate:"omitempty,uuid"`
	InstrumentElementID string `json:"instrument_element_id" form:"instrument_element_id" validate:"omitempty,uuid"`
	Level               int    `json:"level" form:"level" validate:"required,min=1,max=5"`
	Notes               string `json:"notes" form:"notes"`
}

func (req *EvaluationRequest) Bind(r *http.Request) error {
	req.SongID = strings.TrimSpace(req.SongID)
	req.SongElementID = strings.TrimSpace(req.SongElementID)
	req.InstrumentID = strings.TrimSpace(req.InstrumentID)
	req.InstrumentElementID = strings.TrimSpace(req.InstrumentElementID)
	req.Notes = strings.TrimSpace(req.Notes)
	return validate.Struct(req)
}

func (req *EvaluationRequest) Input() services.EvaluationInput {
	return services.EvaluationInput{
		SongID:              req.SongID,
		SongElementID:       req.SongElementID,
		InstrumentID:        req.InstrumentID,
		InstrumentElementID: req.InstrumentElementID,
		Level:               req.Level,
		Notes:               req.Notes,
	}
}
