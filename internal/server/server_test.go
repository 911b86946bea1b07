package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/desertthunder/repertoire/internal/services"
	"github.com/desertthunder/repertoire/internal/shared"
	th "github.com/desertthunder/repertoire/internal/testing"
)

const testEmail = "player@example.com"

func setupServer(t *testing.T, configure ...func(*shared.Config)) http.Handler {
	t.Helper()

	config := shared.DefaultConfig()
	config.RateLimit.Enabled = false
	for _, fn := range configure {
		fn(config)
	}

	logger := shared.NewLogger(io.Discard)
	practice := services.NewPractice(th.MustDatabase(t), logger, 2)
	return New(config, practice, logger).Handler()
}

type call struct {
	method      string
	path        string
	body        string
	contentType string
	email       string
}

func do(t *testing.T, h http.Handler, c call) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
	if c.body != "" {
		contentType := c.contentType
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	if c.email != "" {
		req.Header.Set(DefaultAuthHeader, c.email)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	return do(t, h, call{method: http.MethodGet, path: path, email: testEmail})
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	return do(t, h, call{method: http.MethodPost, path: path, body: body, email: testEmail})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seed creates a guitar with one mandatory technique and a song with an intro.
func seed(t *testing.T, h http.Handler) (instrument InstrumentResponse, technique InstrumentElementResponse, song SongResponse, intro SongElementResponse) {
	t.Helper()

	rec := post(t, h, "/api/instruments", `{"name":"Guitar"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	instrument = decode[InstrumentResponse](t, rec)

	rec = post(t, h, "/api/instruments/"+instrument.ID+"/elements", `{"name":"Fingerpicking","mandatory":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	technique = decode[InstrumentElementResponse](t, rec)

	rec = post(t, h, "/api/songs", `{"title":"Blackbird","artist":"The Beatles","instrument_id":"`+instrument.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	song = decode[SongResponse](t, rec)

	rec = post(t, h, "/api/songs/"+song.ID+"/elements", `{"name":"Intro"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	intro = decode[SongElementResponse](t, rec)
	return
}

func TestPublicEndpoints(t *testing.T) {
	h := setupServer(t)

	t.Run("Health", func(t *testing.T) {
		rec := do(t, h, call{method: http.MethodGet, path: "/healthz"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("Metrics", func(t *testing.T) {
		get(t, h, "/api/songs")

		rec := do(t, h, call{method: http.MethodGet, path: "/metrics"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "repertoire_http_requests_total")
		assert.Contains(t, rec.Body.String(), `route="/api/songs`)
		assert.Contains(t, rec.Body.String(), `route="/healthz"`)
	})
}

func TestAuthentication(t *testing.T) {
	h := setupServer(t)

	t.Run("MissingHeader", func(t *testing.T) {
		rec := do(t, h, call{method: http.MethodGet, path: "/api/songs"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHENTICATED", decode[APIError](t, rec).ErrorCode)
	})

	t.Run("CustomHeader", func(t *testing.T) {
		custom := setupServer(t, func(c *shared.Config) { c.Auth.Header = "X-Forwarded-Email" })

		rec := do(t, custom, call{method: http.MethodGet, path: "/api/songs", email: testEmail})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/songs", nil)
		req.Header.Set("X-Forwarded-Email", testEmail)
		ok := httptest.NewRecorder()
		custom.ServeHTTP(ok, req)
		assert.Equal(t, http.StatusOK, ok.Code)
	})

	t.Run("UsersAreIsolated", func(t *testing.T) {
		_, _, song, _ := seed(t, h)

		rec := do(t, h, call{method: http.MethodGet, path: "/api/songs/" + song.ID, email: "other@example.com"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = do(t, h, call{method: http.MethodGet, path: "/api/songs", email: "other@example.com"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[SongPageResponse](t, rec).Songs)
	})
}

func TestSongEndpoints(t *testing.T) {
	t.Run("CreateWithJSONAndForm", func(t *testing.T) {
		h := setupServer(t)

		rec := post(t, h, "/api/songs", `{"title":"  Wonderwall ","artist":"Oasis"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, "Wonderwall", decode[SongResponse](t, rec).Title)

		form := url.Values{"title": {"Yesterday"}, "instrument_id": {"none"}}
		rec = do(t, h, call{
			method:      http.MethodPost,
			path:        "/api/songs",
			body:        form.Encode(),
			contentType: "application/x-www-form-urlencoded",
			email:       testEmail,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created := decode[SongResponse](t, rec)
		assert.Equal(t, "Yesterday", created.Title)
		assert.Empty(t, created.InstrumentID)

		rec = get(t, h, "/api/songs")
		require.Equal(t, http.StatusOK, rec.Code)
		page := decode[SongPageResponse](t, rec)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, 1, page.Pages)
		assert.Len(t, page.Songs, 2)
	})

	t.Run("Pagination", func(t *testing.T) {
		h := setupServer(t)
		for _, title := range []string{"One", "Two", "Three"} {
			require.Equal(t, http.StatusCreated, post(t, h, "/api/songs", `{"title":"`+title+`"}`).Code)
		}

		page := decode[SongPageResponse](t, get(t, h, "/api/songs?page=2"))
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 2, page.Pages)
		assert.Len(t, page.Songs, 1)

		rec := get(t, h, "/api/songs?page=abc")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("DetailUpdateDelete", func(t *testing.T) {
		h := setupServer(t)
		instrument, _, song, intro := seed(t, h)

		rec := get(t, h, "/api/songs/"+song.ID)
		require.Equal(t, http.StatusOK, rec.Code)
		detail := decode[SongDetailResponse](t, rec)
		assert.Equal(t, "Blackbird", detail.Title)
		require.NotNil(t, detail.Instrument)
		assert.Equal(t, instrument.ID, detail.Instrument.ID)
		require.Len(t, detail.Elements, 1)
		assert.Equal(t, intro.ID, detail.Elements[0].ID)

		rec = do(t, h, call{method: http.MethodPut, path: "/api/songs/" + song.ID, body: `{"title":"Blackbird (live)"}`, email: testEmail})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		updated := decode[SongResponse](t, rec)
		assert.Equal(t, "Blackbird (live)", updated.Title)
		assert.Empty(t, updated.InstrumentID)

		rec = do(t, h, call{method: http.MethodDelete, path: "/api/songs/" + song.ID + "/elements/" + intro.ID, email: testEmail})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.JSONEq(t, `[]`, get(t, h, "/api/songs/"+song.ID+"/elements").Body.String())

		rec = do(t, h, call{method: http.MethodDelete, path: "/api/songs/" + song.ID, email: testEmail})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, http.StatusNotFound, get(t, h, "/api/songs/"+song.ID).Code)
	})

	t.Run("Validation", func(t *testing.T) {
		h := setupServer(t)

		rec := post(t, h, "/api/songs", `{"title":"   "}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		apiErr := decode[APIError](t, rec)
		assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
		require.Len(t, apiErr.Details, 1)
		assert.Equal(t, "title", apiErr.Details[0].Field)
		assert.Equal(t, "is required", apiErr.Details[0].Message)

		rec = post(t, h, "/api/songs", `{"title":"Song","instrument_id":"not-a-uuid"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "instrument_id", decode[APIError](t, rec).Details[0].Field)

		rec = post(t, h, "/api/songs", `{"title":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "BAD_REQUEST", decode[APIError](t, rec).ErrorCode)
	})

	t.Run("UnknownSong", func(t *testing.T) {
		h := setupServer(t)
		rec := get(t, h, "/api/songs/"+shared.GenerateID())
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decode[APIError](t, rec).ErrorCode)
	})
}

func TestInstrumentEndpoints(t *testing.T) {
	h := setupServer(t)

	rec := post(t, h, "/api/instruments", `{"name":"Piano","shared":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	piano := decode[InstrumentResponse](t, rec)
	assert.True(t, piano.Shared)

	instrument, technique, _, _ := seed(t, h)

	t.Run("ListIncludesShared", func(t *testing.T) {
		rec := do(t, h, call{method: http.MethodGet, path: "/api/instruments", email: "other@example.com"})
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[[]InstrumentResponse](t, rec)
		require.Len(t, list, 1)
		assert.Equal(t, piano.ID, list[0].ID)

		assert.Len(t, decode[[]InstrumentResponse](t, get(t, h, "/api/instruments")), 2)
	})

	t.Run("Curriculum", func(t *testing.T) {
		rec := get(t, h, "/api/instruments/"+instrument.ID+"/elements")
		require.Equal(t, http.StatusOK, rec.Code)
		elements := decode[[]InstrumentElementResponse](t, rec)
		require.Len(t, elements, 1)
		assert.Equal(t, technique.ID, elements[0].ID)
		assert.True(t, elements[0].Mandatory)
	})

	t.Run("SharedIsReadOnly", func(t *testing.T) {
		rec := post(t, h, "/api/instruments/"+piano.ID+"/elements", `{"name":"Scales"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = do(t, h, call{method: http.MethodDelete, path: "/api/instruments/" + piano.ID, email: testEmail})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		rec := do(t, h, call{method: http.MethodDelete, path: "/api/instruments/" + instrument.ID, email: testEmail})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, http.StatusNotFound, get(t, h, "/api/instruments/"+instrument.ID+"/elements").Code)
	})
}

func TestEvaluationEndpoints(t *testing.T) {
	h := setupServer(t)
	instrument, technique, song, intro := seed(t, h)

	t.Run("Levels", func(t *testing.T) {
		levels := decode[[]LevelResponse](t, get(t, h, "/api/levels"))
		require.Len(t, levels, 5)
		assert.Equal(t, "Beginner", levels[0].Label)
		assert.Equal(t, "Mastered", levels[4].Label)
	})

	t.Run("NeverEvaluated", func(t *testing.T) {
		rec := get(t, h, "/api/evaluate/"+intro.ID+"/"+instrument.ID)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		view := decode[EvaluationViewResponse](t, rec)
		assert.Nil(t, view.Latest)
		assert.Empty(t, view.History)
		assert.Equal(t, song.ID, view.Song.ID)
	})

	t.Run("RecordAndView", func(t *testing.T) {
		rec := post(t, h, "/api/evaluations", `{"song_element_id":"`+intro.ID+`","instrument_id":"`+instrument.ID+`","level":2}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		first := decode[EvaluationResponse](t, rec)
		assert.Equal(t, song.ID, first.SongID)
		assert.Equal(t, "Novice", first.Label)

		form := url.Values{"song_element_id": {intro.ID}, "instrument_id": {instrument.ID}, "level": {"4"}, "notes": {"cleaner"}}
		rec = do(t, h, call{
			method:      http.MethodPost,
			path:        "/api/evaluations",
			body:        form.Encode(),
			contentType: "application/x-www-form-urlencoded",
			email:       testEmail,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		view := decode[EvaluationViewResponse](t, get(t, h, "/api/evaluate/"+intro.ID+"/"+instrument.ID))
		require.NotNil(t, view.Latest)
		assert.Equal(t, 4, view.Latest.Level)
		assert.Equal(t, "cleaner", view.Latest.Notes)
		assert.Len(t, view.History, 2)
	})

	t.Run("InstrumentElement", func(t *testing.T) {
		rec := post(t, h, "/api/evaluations", `{"song_id":"`+song.ID+`","instrument_element_id":"`+technique.ID+`","level":5}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("Rejected", func(t *testing.T) {
		tests := []struct {
			name   string
			body   string
			status int
			code   string
		}{
			{"LevelTooHigh", `{"song_element_id":"` + intro.ID + `","instrument_id":"` + instrument.ID + `","level":6}`, http.StatusBadRequest, "VALIDATION_FAILED"},
			{"MissingLevel", `{"song_element_id":"` + intro.ID + `","instrument_id":"` + instrument.ID + `"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
			{"IncompleteSubject", `{"song_element_id":"` + intro.ID + `","level":3}`, http.StatusBadRequest, "INVALID_INPUT"},
			{"UnknownElement", `{"song_element_id":"` + shared.GenerateID() + `","instrument_id":"` + instrument.ID + `","level":3}`, http.StatusNotFound, "NOT_FOUND"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := post(t, h, "/api/evaluations", tt.body)
				assert.Equal(t, tt.status, rec.Code, rec.Body.String())
				assert.Equal(t, tt.code, decode[APIError](t, rec).ErrorCode)
			})
		}
	})

	t.Run("Counted", func(t *testing.T) {
		rec := do(t, h, call{method: http.MethodGet, path: "/metrics"})
		assert.Contains(t, rec.Body.String(), "repertoire_evaluations_recorded_total 3")
	})
}

func TestStatsEndpoints(t *testing.T) {
	h := setupServer(t)
	instrument, technique, song, intro := seed(t, h)

	for _, body := range []string{
		`{"song_element_id":"` + intro.ID + `","instrument_id":"` + instrument.ID + `","level":2}`,
		`{"song_element_id":"` + intro.ID + `","instrument_id":"` + instrument.ID + `","level":5}`,
		`{"song_id":"` + song.ID + `","instrument_element_id":"` + technique.ID + `","level":3}`,
	} {
		require.Equal(t, http.StatusCreated, post(t, h, "/api/evaluations", body).Code)
	}

	t.Run("Report", func(t *testing.T) {
		rec := get(t, h, "/api/stats")
		require.Equal(t, http.StatusOK, rec.Code)

		var report struct {
			Summary struct {
				Songs        int     `json:"songs"`
				Evaluations  int     `json:"evaluations"`
				Combinations int     `json:"combinations"`
				AverageLevel float64 `json:"average_level"`
			} `json:"summary"`
			Histogram []struct {
				Level int `json:"level"`
				Count int `json:"count"`
			} `json:"histogram"`
			Songs []struct {
				MandatoryTotal     int  `json:"mandatory_total"`
				MandatoryEvaluated int  `json:"mandatory_evaluated"`
				Complete           bool `json:"complete"`
			} `json:"songs"`
			Recent   []json.RawMessage `json:"recent"`
			Degraded bool              `json:"degraded"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

		assert.False(t, report.Degraded)
		assert.Equal(t, 1, report.Summary.Songs)
		assert.Equal(t, 3, report.Summary.Evaluations)
		assert.Equal(t, 2, report.Summary.Combinations)
		assert.InDelta(t, 4.0, report.Summary.AverageLevel, 0.001)
		require.Len(t, report.Histogram, 5)
		assert.Equal(t, 1, report.Histogram[2].Count)
		assert.Equal(t, 1, report.Histogram[4].Count)
		require.Len(t, report.Songs, 1)
		assert.True(t, report.Songs[0].Complete)
		assert.Len(t, report.Recent, 3)
	})

	t.Run("RecentLimit", func(t *testing.T) {
		var report struct {
			Recent []json.RawMessage `json:"recent"`
		}
		require.NoError(t, json.Unmarshal(get(t, h, "/api/stats?recent=1").Body.Bytes(), &report))
		assert.Len(t, report.Recent, 1)

		assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/stats?recent=-1").Code)
	})

	t.Run("Activity", func(t *testing.T) {
		rec := get(t, h, "/api/stats/activity?limit=2")
		require.Equal(t, http.StatusOK, rec.Code)
		var activity []json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &activity))
		assert.Len(t, activity, 2)
	})

	t.Run("ExportCSV", func(t *testing.T) {
		rec := get(t, h, "/api/stats/export.csv")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "repertoire_history.csv")

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		assert.Len(t, lines, 4)
		assert.Contains(t, rec.Body.String(), "Blackbird")
	})

	t.Run("ExportMarkdown", func(t *testing.T) {
		rec := get(t, h, "/api/stats/export.md")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Blackbird")
	})

	t.Run("ExportXLSX", func(t *testing.T) {
		rec := get(t, h, "/api/stats/export.xlsx")
		require.Equal(t, http.StatusOK, rec.Code)

		book, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer book.Close()
		assert.Contains(t, book.GetSheetList(), "Summary")
	})

	t.Run("ExportUnknownFormat", func(t *testing.T) {
		rec := get(t, h, "/api/stats/export.pdf")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	h := setupServer(t, func(c *shared.Config) {
		c.RateLimit.Enabled = true
		c.RateLimit.RPS = 0.001
		c.RateLimit.Burst = 1
	})

	assert.Equal(t, http.StatusOK, get(t, h, "/api/songs").Code)

	rec := get(t, h, "/api/songs")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(t, h, call{method: http.MethodGet, path: "/healthz"}).Code)
}
