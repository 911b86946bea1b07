package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/repertoire/internal/models"
)

var epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func at(hours int) time.Time { return epoch.Add(time.Duration(hours) * time.Hour) }

func keyFor(song, instrumentElement string) models.Key {
	return models.Key{SongID: song, InstrumentElementID: instrumentElement}
}

func newEval(id string, key models.Key, level models.Level, evaluatedAt time.Time) *models.Evaluation {
	e := models.NewEvaluation("user", key, level, "", evaluatedAt)
	e.SetID(id)
	e.SetCreatedAt(evaluatedAt)
	return e
}

func newSong(id, title, instrumentID string) *models.Song {
	s := models.NewSong(0, "user", title, "", "", instrumentID)
	s.SetID(id)
	return s
}

func newInstrument(id, name string) *models.Instrument {
	i := models.NewInstrument(0, "user", name)
	i.SetID(id)
	return i
}

func newElement(id, instrumentID string, mandatory bool) *models.InstrumentElement {
	e := models.NewInstrumentElement(instrumentID, id, "", mandatory, 0)
	e.SetID(id)
	return e
}

func TestLatest(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, Latest(nil))
		assert.Empty(t, Current([]*models.Evaluation{}))
	})

	t.Run("KeepsMaximumTimestampPerKey", func(t *testing.T) {
		history := []*models.Evaluation{
			newEval("a1", keyFor("A", "e"), 3, at(1)),
			newEval("a2", keyFor("A", "e"), 5, at(2)),
			newEval("b1", keyFor("B", "e"), 2, at(1)),
		}

		latest := Latest(history)
		require.Len(t, latest, 2)
		assert.Equal(t, "a2", latest[keyFor("A", "e")].ID())
		assert.Equal(t, models.Level(5), latest[keyFor("A", "e")].Level())
		assert.Equal(t, "b1", latest[keyFor("B", "e")].ID())
	})

	t.Run("OrderIndependent", func(t *testing.T) {
		older := newEval("old", keyFor("A", "e"), 1, at(1))
		newer := newEval("new", keyFor("A", "e"), 4, at(5))

		forward := Latest([]*models.Evaluation{older, newer})
		backward := Latest([]*models.Evaluation{newer, older})

		assert.Equal(t, "new", forward[keyFor("A", "e")].ID())
		assert.Equal(t, "new", backward[keyFor("A", "e")].ID())
	})

	t.Run("DistinctKeyShapes", func(t *testing.T) {
		legacy := models.Key{SongID: "A", SongElementID: "intro", InstrumentID: "guitar"}
		history := []*models.Evaluation{
			newEval("1", keyFor("A", "e"), 2, at(1)),
			newEval("2", legacy, 3, at(1)),
		}

		assert.Len(t, Latest(history), 2)
	})

	t.Run("Ties", func(t *testing.T) {
		first := newEval("first", keyFor("A", "e"), 2, at(1))
		second := newEval("second", keyFor("A", "e"), 4, at(1))

		assert.Equal(t, "first", Latest([]*models.Evaluation{first, second})[keyFor("A", "e")].ID(),
			"full ties keep the first evaluation seen")

		second.SetCreatedAt(at(2))
		assert.Equal(t, "second", Latest([]*models.Evaluation{first, second})[keyFor("A", "e")].ID(),
			"equal evaluated_at falls back to created_at")
		assert.Equal(t, "second", Latest([]*models.Evaluation{second, first})[keyFor("A", "e")].ID())
	})

	t.Run("Idempotent", func(t *testing.T) {
		history := []*models.Evaluation{
			newEval("1", keyFor("A", "e"), 1, at(1)),
			newEval("2", keyFor("A", "e"), 2, at(2)),
			newEval("3", keyFor("B", "e"), 3, at(3)),
			newEval("4", keyFor("B", "f"), 4, at(1)),
		}

		once := Current(history)
		twice := Current(once)

		assert.Equal(t, once, twice)
		assert.Len(t, once, 3)
	})

	t.Run("CurrentNewestFirst", func(t *testing.T) {
		history := []*models.Evaluation{
			newEval("1", keyFor("A", "e"), 1, at(1)),
			newEval("2", keyFor("B", "e"), 2, at(3)),
			newEval("3", keyFor("C", "e"), 3, at(2)),
		}

		current := Current(history)
		require.Len(t, current, 3)
		assert.Equal(t, []string{"2", "3", "1"}, []string{current[0].ID(), current[1].ID(), current[2].ID()})
	})
}

func TestCalculator(t *testing.T) {
	t.Run("Example", func(t *testing.T) {
		history := []*models.Evaluation{
			newEval("a1", keyFor("A", "e"), 3, at(1)),
			newEval("a2", keyFor("A", "e"), 5, at(2)),
			newEval("b1", keyFor("B", "e"), 2, at(1)),
		}
		current := Current(history)

		assert.InDelta(t, 3.5, AverageLevel(current), 1e-9)
		assert.Equal(t, 50.0, MasteryPercentage(current))

		histogram := LevelHistogram(current)
		require.Len(t, histogram, 5)
		assert.Equal(t, 0, histogram[0].Count)
		assert.Equal(t, 1, histogram[1].Count)
		assert.Equal(t, 50.0, histogram[1].Percentage)
		assert.Equal(t, 1, histogram[4].Count)
		assert.Equal(t, 50.0, histogram[4].Percentage)
	})

	t.Run("EmptySet", func(t *testing.T) {
		assert.Equal(t, 0.0, AverageLevel(nil))
		assert.Equal(t, 0.0, MasteryPercentage(nil))

		histogram := LevelHistogram(nil)
		require.Len(t, histogram, 5)
		for _, bucket := range histogram {
			assert.Zero(t, bucket.Count)
			assert.Zero(t, bucket.Percentage)
		}

		songs := PerSong([]*models.Song{newSong("A", "Alpha", ""), newSong("B", "Beta", "")}, nil)
		require.Len(t, songs, 2)
		for _, s := range songs {
			assert.False(t, s.HasData())
			assert.Zero(t, s.Average)
		}
	})

	t.Run("HistogramSumsToHundred", func(t *testing.T) {
		var history []*models.Evaluation
		for i, level := range []models.Level{1, 2, 2, 3, 5, 5, 4} {
			history = append(history, newEval(string(rune('a'+i)), keyFor("S", string(rune('a'+i))), level, at(i)))
		}

		sum := 0.0
		for _, bucket := range LevelHistogram(history) {
			sum += bucket.Percentage
		}
		assert.InDelta(t, 100.0, sum, 1e-9)
		assert.Equal(t, LevelHistogram(history)[4].Percentage, MasteryPercentage(history))
	})

	t.Run("HistogramIgnoresInvalidLevels", func(t *testing.T) {
		history := []*models.Evaluation{
			newEval("1", keyFor("A", "e"), 0, at(1)),
			newEval("2", keyFor("B", "e"), 5, at(1)),
		}

		histogram := LevelHistogram(history)
		assert.Equal(t, 1, histogram[4].Count)
		assert.Equal(t, 50.0, histogram[4].Percentage)
	})

	t.Run("PerSongStableDescending", func(t *testing.T) {
		songs := []*models.Song{
			newSong("A", "Alpha", ""),
			newSong("B", "Beta", ""),
			newSong("C", "Gamma", ""),
			newSong("D", "Delta", ""),
		}
		current := []*models.Evaluation{
			newEval("1", keyFor("A", "e"), 2, at(1)),
			newEval("2", keyFor("B", "e"), 4, at(1)),
			newEval("3", keyFor("B", "f"), 5, at(1)),
			newEval("4", keyFor("D", "e"), 2, at(1)),
		}

		stats := PerSong(songs, current)
		require.Len(t, stats, 4)

		ids := []string{stats[0].SongID, stats[1].SongID, stats[2].SongID, stats[3].SongID}
		assert.Equal(t, []string{"B", "A", "D", "C"}, ids)
		assert.InDelta(t, 4.5, stats[0].Average, 1e-9)
		assert.Equal(t, 2, stats[0].Count)
		assert.False(t, stats[3].HasData())
	})

	t.Run("PerInstrumentAssociation", func(t *testing.T) {
		catalog := Catalog{
			Songs: []*models.Song{
				newSong("A", "Alpha", "piano"),
				newSong("B", "Beta", ""),
			},
			Instruments: []*models.Instrument{
				newInstrument("guitar", "Guitar"),
				newInstrument("piano", "Piano"),
				newInstrument("drums", "Drums"),
			},
			InstrumentElements: []*models.InstrumentElement{
				newElement("strum", "guitar", false),
			},
		}
		current := []*models.Evaluation{
			// direct reference wins over the song's assigned piano
			newEval("1", models.Key{SongID: "A", SongElementID: "intro", InstrumentID: "guitar"}, 5, at(1)),
			// parent of the instrument element
			newEval("2", keyFor("B", "strum"), 3, at(1)),
			// falls back to the song's instrument
			newEval("3", keyFor("A", "unknown"), 2, at(1)),
			// no association at all
			newEval("4", keyFor("B", "unknown"), 1, at(1)),
		}

		stats := PerInstrument(catalog, current)
		require.Len(t, stats, 3)

		assert.Equal(t, "guitar", stats[0].InstrumentID)
		assert.InDelta(t, 4.0, stats[0].Average, 1e-9)
		assert.Equal(t, 2, stats[0].Count)

		assert.Equal(t, "piano", stats[1].InstrumentID)
		assert.Equal(t, 1, stats[1].Count)

		assert.Equal(t, "drums", stats[2].InstrumentID)
		assert.False(t, stats[2].HasData())
	})

	t.Run("MandatoryProgress", func(t *testing.T) {
		song := newSong("A", "Alpha", "guitar")
		elements := []*models.InstrumentElement{
			newElement("chords", "guitar", true),
			newElement("solo", "guitar", true),
			newElement("bonus", "guitar", false),
			newElement("scales", "piano", true),
		}
		current := []*models.Evaluation{
			newEval("1", keyFor("A", "chords"), 3, at(1)),
			newEval("2", keyFor("A", "bonus"), 3, at(1)),
			newEval("3", keyFor("B", "solo"), 3, at(1)),
		}

		total, evaluated := MandatoryProgress(song, elements, current)
		assert.Equal(t, 2, total)
		assert.Equal(t, 1, evaluated)

		total, evaluated = MandatoryProgress(newSong("C", "No instrument", ""), elements, current)
		assert.Zero(t, total)
		assert.Zero(t, evaluated)
	})

	t.Run("RecentActivity", func(t *testing.T) {
		history := []*models.Evaluation{
			newEval("1", keyFor("A", "e"), 1, at(1)),
			newEval("2", keyFor("A", "e"), 2, at(4)),
			newEval("3", keyFor("A", "e"), 3, at(2)),
			newEval("4", keyFor("A", "e"), 4, at(4)),
		}

		recent := RecentActivity(history, 3)
		require.Len(t, recent, 3)
		assert.Equal(t, []string{"2", "4", "3"}, []string{recent[0].ID(), recent[1].ID(), recent[2].ID()})
		assert.Equal(t, "1", history[0].ID(), "input must not be reordered")

		assert.Len(t, RecentActivity(history, 0), 4)
		assert.Empty(t, RecentActivity(nil, 10))
	})
}

func TestCompute(t *testing.T) {
	t.Run("Report", func(t *testing.T) {
		intro := models.NewSongElement("A", "Intro", "", 0)
		intro.SetID("intro")
		catalog := Catalog{
			Songs: []*models.Song{
				newSong("A", "Alpha", "guitar"),
				newSong("B", "Beta", ""),
			},
			Instruments:        []*models.Instrument{newInstrument("guitar", "Guitar")},
			InstrumentElements: []*models.InstrumentElement{newElement("chords", "guitar", true)},
			SongElements:       []*models.SongElement{intro},
		}
		history := []*models.Evaluation{
			newEval("1", keyFor("A", "chords"), 3, at(1)),
			newEval("2", keyFor("A", "chords"), 5, at(2)),
			newEval("3", models.Key{SongID: "A", SongElementID: "intro", InstrumentID: "guitar"}, 2, at(3)),
		}

		report := Compute(catalog, history, 2)

		assert.False(t, report.Degraded)
		assert.Equal(t, Summary{
			Songs:             2,
			Instruments:       1,
			Evaluations:       3,
			Combinations:      2,
			AverageLevel:      3.5,
			MasteryPercentage: 50,
		}, report.Summary)

		require.Len(t, report.Songs, 2)
		assert.Equal(t, "A", report.Songs[0].SongID)
		assert.Equal(t, 1, report.Songs[0].MandatoryTotal)
		assert.Equal(t, 1, report.Songs[0].MandatoryEvaluated)
		assert.True(t, report.Songs[0].Complete)

		require.Len(t, report.Recent, 2)
		assert.Equal(t, "Intro", report.Recent[0].Element)
		assert.Equal(t, "Guitar", report.Recent[0].Instrument)
		assert.Equal(t, "Alpha", report.Recent[0].Song)
		assert.Equal(t, "chords", report.Recent[1].Element)
		assert.Equal(t, "Mastered", report.Recent[1].Label)
	})

	t.Run("Empty", func(t *testing.T) {
		report := Empty()

		assert.True(t, report.Degraded)
		assert.Equal(t, Summary{}, report.Summary)
		assert.Len(t, report.Histogram, 5)
		assert.Empty(t, report.Songs)
		assert.Empty(t, report.Instruments)
		assert.Empty(t, report.Recent)
	})
}
