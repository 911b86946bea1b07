package stats

import (
	"cmp"
	"slices"
	"time"

	"github.com/desertthunder/repertoire/internal/models"
)

// Catalog is the set of entities a report describes, in catalog order.
type Catalog struct {
	Songs              []*models.Song
	Instruments        []*models.Instrument
	InstrumentElements []*models.InstrumentElement
	SongElements       []*models.SongElement
}

// Bucket is one level of a [LevelHistogram].
type Bucket struct {
	Level      models.Level `json:"level"`
	Label      string       `json:"label"`
	Count      int          `json:"count"`
	Percentage float64      `json:"percentage"`
}

// SongStat is the mean current level of one song.
//
// Count is the number of contributing current evaluations. A zero Count means "no data", which is
// distinct from any real average since levels start at 1.
type SongStat struct {
	SongID             string  `json:"song_id"`
	Title              string  `json:"title"`
	Artist             string  `json:"artist,omitempty"`
	Average            float64 `json:"average"`
	Count              int     `json:"count"`
	MandatoryTotal     int     `json:"mandatory_total"`
	MandatoryEvaluated int     `json:"mandatory_evaluated"`
	Complete           bool    `json:"complete"`
}

func (s SongStat) HasData() bool { return s.Count > 0 }

// InstrumentStat is the mean current level of one instrument.
type InstrumentStat struct {
	InstrumentID string  `json:"instrument_id"`
	Name         string  `json:"name"`
	Shared       bool    `json:"shared"`
	Average      float64 `json:"average"`
	Count        int     `json:"count"`
}

func (s InstrumentStat) HasData() bool { return s.Count > 0 }

// Activity is an evaluation described with the names of what it evaluates.
type Activity struct {
	EvaluationID string       `json:"evaluation_id"`
	SongID       string       `json:"song_id"`
	Song         string       `json:"song"`
	Element      string       `json:"element"`
	Instrument   string       `json:"instrument"`
	Level        models.Level `json:"level"`
	Label        string       `json:"label"`
	Notes        string       `json:"notes,omitempty"`
	EvaluatedAt  time.Time    `json:"evaluated_at"`
}

// Summary holds the global counters of a [Report].
type Summary struct {
	Songs             int     `json:"songs"`
	Instruments       int     `json:"instruments"`
	Evaluations       int     `json:"evaluations"`
	Combinations      int     `json:"combinations"`
	AverageLevel      float64 `json:"average_level"`
	MasteryPercentage float64 `json:"mastery_percentage"`
}

// Report is everything the statistics view shows.
//
// Degraded is set when the inputs could not be loaded and the report was replaced by an empty one.
type Report struct {
	Summary     Summary          `json:"summary"`
	Histogram   []Bucket         `json:"histogram"`
	Songs       []SongStat       `json:"songs"`
	Instruments []InstrumentStat `json:"instruments"`
	Recent      []Activity       `json:"recent"`
	Degraded    bool             `json:"degraded"`
}

// Empty returns the report shown when nothing could be loaded.
func Empty() *Report {
	report := Compute(Catalog{}, nil, 0)
	report.Degraded = true
	return report
}

// AverageLevel is the arithmetic mean of the current levels, or 0 for an empty set.
func AverageLevel(current []*models.Evaluation) float64 {
	if len(current) == 0 {
		return 0
	}
	sum := 0
	for _, e := range current {
		sum += int(e.Level())
	}
	return float64(sum) / float64(len(current))
}

// LevelHistogram counts current evaluations per level.
//
// There is always one bucket per level, lowest first. Levels outside the valid range are ignored but
// still count towards the total.
func LevelHistogram(current []*models.Evaluation) []Bucket {
	levels := models.Levels()
	buckets := make([]Bucket, len(levels))
	for i, level := range levels {
		buckets[i] = Bucket{Level: level, Label: level.Label()}
	}

	for _, e := range current {
		if e.Level().Valid() {
			buckets[e.Level()-models.MinLevel].Count++
		}
	}

	if total := len(current); total > 0 {
		for i := range buckets {
			buckets[i].Percentage = percentage(buckets[i].Count, total)
		}
	}
	return buckets
}

// MasteryPercentage is the share of current evaluations at [models.MaxLevel].
func MasteryPercentage(current []*models.Evaluation) float64 {
	return LevelHistogram(current)[models.MaxLevel-models.MinLevel].Percentage
}

// PerSong averages the current evaluations of each song, best first.
//
// Songs keep their catalog order when tied, so songs without data stay in catalog order at the end.
func PerSong(songs []*models.Song, current []*models.Evaluation) []SongStat {
	levels := make(map[string][]models.Level, len(songs))
	for _, e := range current {
		levels[e.SongID()] = append(levels[e.SongID()], e.Level())
	}

	out := make([]SongStat, 0, len(songs))
	for _, song := range songs {
		avg, count := mean(levels[song.ID()])
		out = append(out, SongStat{
			SongID:   song.ID(),
			Title:    song.Title(),
			Artist:   song.Artist(),
			Average:  avg,
			Count:    count,
			Complete: true,
		})
	}

	slices.SortStableFunc(out, func(a, b SongStat) int { return compareAverage(a.Average, b.Average) })
	return out
}

// MandatoryProgress counts the mandatory elements of a song's instrument and how many of them have a
// current evaluation on that song.
func MandatoryProgress(song *models.Song, elements []*models.InstrumentElement, current []*models.Evaluation) (total, evaluated int) {
	if song.InstrumentID() == "" {
		return 0, 0
	}

	seen := make(map[string]bool)
	for _, e := range current {
		if e.SongID() == song.ID() && e.Key().InstrumentElementID != "" {
			seen[e.Key().InstrumentElementID] = true
		}
	}

	for _, element := range elements {
		if element.InstrumentID() != song.InstrumentID() || !element.Mandatory() {
			continue
		}
		total++
		if seen[element.ID()] {
			evaluated++
		}
	}
	return total, evaluated
}

// PerInstrument averages the current evaluations associated with each instrument, best first.
//
// An evaluation belongs to the instrument it names directly, else to the parent of its instrument
// element, else to the instrument assigned to its song. Evaluations with none of these are skipped.
func PerInstrument(catalog Catalog, current []*models.Evaluation) []InstrumentStat {
	resolve := instrumentResolver(catalog)

	levels := make(map[string][]models.Level, len(catalog.Instruments))
	for _, e := range current {
		if id := resolve(e); id != "" {
			levels[id] = append(levels[id], e.Level())
		}
	}

	out := make([]InstrumentStat, 0, len(catalog.Instruments))
	for _, instrument := range catalog.Instruments {
		avg, count := mean(levels[instrument.ID()])
		out = append(out, InstrumentStat{
			InstrumentID: instrument.ID(),
			Name:         instrument.Name(),
			Shared:       instrument.Shared(),
			Average:      avg,
			Count:        count,
		})
	}

	slices.SortStableFunc(out, func(a, b InstrumentStat) int { return compareAverage(a.Average, b.Average) })
	return out
}

// RecentActivity sorts the raw history newest first and keeps at most limit entries.
// A limit of zero or less keeps everything.
func RecentActivity(history []*models.Evaluation, limit int) []*models.Evaluation {
	recent := slices.Clone(history)
	slices.SortStableFunc(recent, func(a, b *models.Evaluation) int {
		return b.EvaluatedAt().Compare(a.EvaluatedAt())
	})
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}

// Describe attaches song, element and instrument names to evaluations.
//
// Names missing from the catalog are left empty.
func Describe(catalog Catalog, evaluations []*models.Evaluation) []Activity {
	songs := make(map[string]*models.Song, len(catalog.Songs))
	for _, s := range catalog.Songs {
		songs[s.ID()] = s
	}
	instruments := make(map[string]string, len(catalog.Instruments))
	for _, i := range catalog.Instruments {
		instruments[i.ID()] = i.Name()
	}
	instrumentElements := make(map[string]string, len(catalog.InstrumentElements))
	for _, e := range catalog.InstrumentElements {
		instrumentElements[e.ID()] = e.Name()
	}
	songElements := make(map[string]string, len(catalog.SongElements))
	for _, e := range catalog.SongElements {
		songElements[e.ID()] = e.Name()
	}
	resolve := instrumentResolver(catalog)

	out := make([]Activity, 0, len(evaluations))
	for _, e := range evaluations {
		key := e.Key()
		activity := Activity{
			EvaluationID: e.ID(),
			SongID:       key.SongID,
			Instrument:   instruments[resolve(e)],
			Level:        e.Level(),
			Label:        e.Level().Label(),
			Notes:        e.Notes(),
			EvaluatedAt:  e.EvaluatedAt(),
		}
		if song, ok := songs[key.SongID]; ok {
			activity.Song = song.Title()
		}
		if key.InstrumentElementID != "" {
			activity.Element = instrumentElements[key.InstrumentElementID]
		} else {
			activity.Element = songElements[key.SongElementID]
		}
		out = append(out, activity)
	}
	return out
}

// Compute builds a full [Report] from a catalog and the raw evaluation history.
func Compute(catalog Catalog, history []*models.Evaluation, recentLimit int) *Report {
	current := Current(history)
	histogram := LevelHistogram(current)

	songs := PerSong(catalog.Songs, current)
	byID := make(map[string]*models.Song, len(catalog.Songs))
	for _, s := range catalog.Songs {
		byID[s.ID()] = s
	}
	for i := range songs {
		total, evaluated := MandatoryProgress(byID[songs[i].SongID], catalog.InstrumentElements, current)
		songs[i].MandatoryTotal = total
		songs[i].MandatoryEvaluated = evaluated
		songs[i].Complete = evaluated == total
	}

	return &Report{
		Summary: Summary{
			Songs:             len(catalog.Songs),
			Instruments:       len(catalog.Instruments),
			Evaluations:       len(history),
			Combinations:      len(current),
			AverageLevel:      AverageLevel(current),
			MasteryPercentage: histogram[models.MaxLevel-models.MinLevel].Percentage,
		},
		Histogram:   histogram,
		Songs:       songs,
		Instruments: PerInstrument(catalog, current),
		Recent:      Describe(catalog, RecentActivity(history, recentLimit)),
	}
}

func instrumentResolver(catalog Catalog) func(*models.Evaluation) string {
	parents := make(map[string]string, len(catalog.InstrumentElements))
	for _, element := range catalog.InstrumentElements {
		parents[element.ID()] = element.InstrumentID()
	}
	assigned := make(map[string]string, len(catalog.Songs))
	for _, song := range catalog.Songs {
		assigned[song.ID()] = song.InstrumentID()
	}

	return func(e *models.Evaluation) string {
		key := e.Key()
		if key.InstrumentID != "" {
			return key.InstrumentID
		}
		if parent := parents[key.InstrumentElementID]; parent != "" {
			return parent
		}
		return assigned[key.SongID]
	}
}

func mean(levels []models.Level) (float64, int) {
	if len(levels) == 0 {
		return 0, 0
	}
	sum := 0
	for _, l := range levels {
		sum += int(l)
	}
	return float64(sum) / float64(len(levels)), len(levels)
}

func percentage(count, total int) float64 {
	return float64(count) / float64(total) * 100
}

// compareAverage orders higher averages first.
func compareAverage(a, b float64) int { return cmp.Compare(b, a) }
