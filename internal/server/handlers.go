package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/desertthunder/repertoire/internal/formatter"
	"github.com/desertthunder/repertoire/internal/models"
	"github.com/desertthunder/repertoire/internal/services"
	"github.com/desertthunder/repertoire/internal/shared"
)

// fail renders err and logs it when it maps to a server error.
func fail(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	apiErr := errorFrom(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	}
	render.Render(w, r, apiErr)
}

func created(w http.ResponseWriter, r *http.Request, v any) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, v)
}

func noContent(w http.ResponseWriter, r *http.Request) {
	render.NoContent(w, r)
}

// currentUser is always set below /api.
func currentUser(r *http.Request) *models.User {
	return UserFromContext(r.Context())
}

// queryInt reads a non-negative integer query parameter, falling back to def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", shared.ErrInvalidArgument, name)
	}
	return n, nil
}

// SongHandler serves the song catalog and song sections.
type SongHandler struct {
	practice *services.Practice
	logger   *log.Logger
}

func (h *SongHandler) Routes(r chi.Router) {
	r.Route("/songs", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Delete("/", h.delete)
			r.Get("/elements", h.listElements)
			r.Post("/elements", h.addElement)
			r.Delete("/elements/{elementID}", h.deleteElement)
		})
	})
}

func (h *SongHandler) list(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	songs, err := h.practice.ListSongs(r.Context(), currentUser(r).ID(), page)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, NewSongPageResponse(songs))
}

func (h *SongHandler) create(w http.ResponseWriter, r *http.Request) {
	var req SongRequest
	if apiErr := bind(r, &req); apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}

	song, err := h.practice.CreateSong(r.Context(), currentUser(r).ID(), req.Input())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	created(w, r, NewSongResponse(song))
}

func (h *SongHandler) get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.practice.GetSong(r.Context(), currentUser(r).ID(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, NewSongDetailResponse(detail))
}

func (h *SongHandler) update(w http.ResponseWriter, r *http.Request) {
	var req SongRequest
	if apiErr := bind(r, &req); apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}

	song, err := h.practice.UpdateSong(r.Context(), currentUser(r).ID(), chi.URLParam(r, "id"), req.Input())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, NewSongResponse(song))
}

func (h *SongHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.practice.DeleteSong(r.Context(), currentUser(r).ID(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	noContent(w, r)
}

func (h *SongHandler) listElements(w http.ResponseWriter, r *http.Request) {
	elements, err := h.practice.ListSongElements(r.Context(), currentUser(r).ID(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, mapSlice(elements, NewSongElementResponse))
}

func (h *SongHandler) addElement(w http.ResponseWriter, r *http.Request) {
	var req ElementRequest
	if apiErr := bind(r, &req); apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}

	element, err := h.practice.AddSongElement(r.Context(), currentUser(r).ID(), chi.URLParam(r, "id"), req.Input())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	created(w, r, NewSongElementResponse(element))
}

func (h *SongHandler) deleteElement(w http.ResponseWriter, r *http.Request) {
	err := h.practice.DeleteSongElement(r.Context(), currentUser(r).ID(), chi.URLParam(r, "id"), chi.URLParam(r, "elementID"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	noContent(w, r)
}

// InstrumentHandler serves instruments and their curricula.
type InstrumentHandler struct {
	practice *services.Practice
	logger   *log.Logger
}

func (h *InstrumentHandler) Routes(r chi.Router) {
	r.Route("/instruments", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Delete("/{id}", h.delete)
		r.Get("/{id}/elements", h.listElements)
		r.Post("/{id}/elements", h.addElement)
	})
}

func (h *InstrumentHandler) list(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.practice.ListInstruments(r.Context(), currentUser(r).ID())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, mapSlice(instruments, NewInstrumentResponse))
}

func (h *InstrumentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req InstrumentRequest
	if apiErr := bind(r, &req); apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}

	instrument, err := h.practice.CreateInstrument(r.Context(), currentUser(r).ID(), req.Name, req.Shared)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	created(w, r, NewInstrumentResponse(instrument))
}

func (h *InstrumentHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.practice.DeleteInstrument(r.Context(), currentUser(r).ID(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	noContent(w, r)
}

func (h *InstrumentHandler) listElements(w http.ResponseWriter, r *http.Request) {
	elements, err := h.practice.ListInstrumentElements(r.Context(), currentUser(r).ID(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, mapSlice(elements, NewInstrumentElementResponse))
}

func (h *InstrumentHandler) addElement(w http.ResponseWriter, r *http.Request) {
	var req ElementRequest
	if apiErr := bind(r, &req); apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}

	element, err := h.practice.AddInstrumentElement(r.Context(), currentUser(r).ID(), chi.URLParam(r, "id"), req.Input())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	created(w, r, NewInstrumentElementResponse(element))
}

// EvaluationHandler serves the evaluate screen and records new evaluations.
type EvaluationHandler struct {
	practice *services.Practice
	logger   *log.Logger
	metrics  *Metrics
}

func (h *EvaluationHandler) Routes(r chi.Router) {
	r.Get("/levels", h.levels)
	r.Get("/evaluate/{elementID}/{instrumentID}", h.view)
	r.Post("/evaluations", h.create)
}

func (h *EvaluationHandler) levels(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, NewLevelsResponse())
}

// view loads a song element played on an instrument with its latest evaluation and history.
func (h *EvaluationHandler) view(w http.ResponseWriter, r *http.Request) {
	key := models.Key{
		SongElementID: chi.URLParam(r, "elementID"),
		InstrumentID:  chi.URLParam(r, "instrumentID"),
	}

	view, err := h.practice.EvaluationPage(r.Context(), currentUser(r).ID(), key)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, NewEvaluationViewResponse(view))
}

func (h *EvaluationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req EvaluationRequest
	if apiErr := bind(r, &req); apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}

	evaluation, err := h.practice.Evaluate(r.Context(), currentUser(r).ID(), req.Input())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	h.metrics.evaluations.Inc()
	created(w, r, NewEvaluationResponse(evaluation))
}

// StatsHandler serves the statistics report and its exports.
type StatsHandler struct {
	practice    *services.Practice
	logger      *log.Logger
	recentLimit int
}

func (h *StatsHandler) Routes(r chi.Router) {
	r.Route("/stats", func(r chi.Router) {
		r.Get("/", h.report)
		r.Get("/activity", h.activity)
		r.Get("/export.{format}", h.export)
	})
}

func (h *StatsHandler) report(w http.ResponseWriter, r *http.Request) {
	recent, err := queryInt(r, "recent", h.recentLimit)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, h.practice.Report(r.Context(), currentUser(r).ID(), recent))
}

// activity returns the full evaluation history, newest first. limit=0 means everything.
func (h *StatsHandler) activity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	activity, err := h.practice.Activity(r.Context(), currentUser(r).ID(), limit)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, activity)
}

func (h *StatsHandler) export(w http.ResponseWriter, r *http.Request) {
	format, err := formatter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	userID := currentUser(r).ID()
	history, err := h.practice.Activity(r.Context(), userID, 0)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}
	report := h.practice.Report(r.Context(), userID, h.recentLimit)

	body, err := formatter.Render(format, report, history, time.Now())
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.DefaultFilename()))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
