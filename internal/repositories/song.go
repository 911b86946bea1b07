package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/repertoire/internal/models"
	"github.com/desertthunder/repertoire/internal/shared"
)

const songColumns = `id, sequence, user_id, title, artist, notes, instrument_id, created_at, updated_at`

// SongRepository implements models.Repository[*models.Song].
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Create inserts a new song into the database with generated ID and sequence
func (r *SongRepository) Create(ctx context.Context, song *models.Song) error {
	sequence, err := NextSequence(ctx, r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	song.SetID(shared.GenerateID())
	song.SetSequence(sequence)

	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO songs (` + songColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		song.ID(),
		sequence,
		song.UserID(),
		song.Title(),
		shared.NullIfEmpty(song.Artist()),
		shared.NullIfEmpty(song.Notes()),
		shared.NullIfEmpty(song.InstrumentID()),
		song.CreatedAt(),
		song.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}

	return nil
}

// Get retrieves a song by ID
func (r *SongRepository) Get(ctx context.Context, id string) (*models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE id = ?`
	song, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "song", id)
	}
	return song, nil
}

// Update modifies an existing song and bumps its updated_at
func (r *SongRepository) Update(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	song.SetUpdatedAt(now)

	query := `
		UPDATE songs
		SET title = ?, artist = ?, notes = ?, instrument_id = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		song.Title(),
		shared.NullIfEmpty(song.Artist()),
		shared.NullIfEmpty(song.Notes()),
		shared.NullIfEmpty(song.InstrumentID()),
		now,
		song.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}

	return expectOne(result, "song", song.ID())
}

// Delete removes a song; its elements and evaluations cascade
func (r *SongRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	return expectOne(result, "song", id)
}

// List retrieves all songs matching the given criteria.
//
// Supported criteria: "user_id", "instrument_id" and "order" ("recent" for most recently updated first,
// otherwise catalog order).
func (r *SongRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE 1 = 1`
	args := []any{}

	if userID, ok := criteriaString(criteria, "user_id"); ok {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if instrumentID, ok := criteriaString(criteria, "instrument_id"); ok {
		query += " AND instrument_id = ?"
		args = append(args, instrumentID)
	}

	if order, _ := criteriaString(criteria, "order"); order == "recent" {
		query += " ORDER BY updated_at DESC, sequence DESC"
	} else {
		query += " ORDER BY sequence ASC"
	}

	return r.query(ctx, query, args...)
}

// Page returns one page of a user's songs, most recently updated first, with the total song count.
//
// Pages are 1-based; page values below 1 are treated as the first page.
func (r *SongRepository) Page(ctx context.Context, userID string, page, perPage int) ([]*models.Song, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 9
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count songs: %w", err)
	}

	query := `
		SELECT ` + songColumns + ` FROM songs
		WHERE user_id = ?
		ORDER BY updated_at DESC, sequence DESC
		LIMIT ? OFFSET ?
	`

	songs, err := r.query(ctx, query, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}

	return songs, total, nil
}

func (r *SongRepository) query(ctx context.Context, query string, args ...any) ([]*models.Song, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		song, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

func (r *SongRepository) scan(row scanner) (*models.Song, error) {
	var (
		id           string
		sequence     int
		userID       string
		title        string
		artist       sql.NullString
		notes        sql.NullString
		instrumentID sql.NullString
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&id, &sequence, &userID, &title, &artist, &notes, &instrumentID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	song := models.NewSong(sequence, userID, title, artist.String, notes.String, instrumentID.String)
	song.SetID(id)
	song.SetCreatedAt(createdAt)
	song.SetUpdatedAt(updatedAt)

	return song, nil
}
