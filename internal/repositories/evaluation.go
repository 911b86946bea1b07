package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/repertoire/internal/models"
	"github.com/desertthunder/repertoire/internal/shared"
)

const evaluationColumns = `id, user_id, song_id, song_element_id, instrument_id, instrument_element_id, level, notes, evaluated_at, created_at`

// EvaluationRepository stores the append-only evaluation history.
type EvaluationRepository struct {
	db *sql.DB
}

func NewEvaluationRepository(db *sql.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Create inserts an evaluation.
//
// Keys that name a song element without its song are completed from the element's parent before
// validation, so every stored row carries a song.
func (r *EvaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	evaluation.SetID(shared.GenerateID())

	key := evaluation.Key()
	if key.SongID == "" && key.SongElementID != "" {
		err := r.db.QueryRowContext(ctx, `SELECT song_id FROM song_elements WHERE id = ?`, key.SongElementID).Scan(&key.SongID)
		if err != nil {
			return notFound(err, "song element", key.SongElementID)
		}
		evaluation.SetKey(key)
	}

	if err := evaluation.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO evaluations (` + evaluationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		evaluation.ID(),
		evaluation.UserID(),
		key.SongID,
		shared.NullIfEmpty(key.SongElementID),
		shared.NullIfEmpty(key.InstrumentID),
		shared.NullIfEmpty(key.InstrumentElementID),
		int(evaluation.Level()),
		shared.NullIfEmpty(evaluation.Notes()),
		evaluation.EvaluatedAt(),
		evaluation.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) Get(ctx context.Context, id string) (*models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE id = ?`
	evaluation, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "evaluation", id)
	}
	return evaluation, nil
}

// Update rewrites the level and notes of an evaluation. The subject and timestamps are immutable.
func (r *EvaluationRepository) Update(ctx context.Context, evaluation *models.Evaluation) error {
	if err := evaluation.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `UPDATE evaluations SET level = ?, notes = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		int(evaluation.Level()), shared.NullIfEmpty(evaluation.Notes()), evaluation.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update evaluation: %w", err)
	}
	return expectOne(result, "evaluation", evaluation.ID())
}

func (r *EvaluationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM evaluations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete evaluation: %w", err)
	}
	return expectOne(result, "evaluation", id)
}

// List returns evaluations newest first.
//
// Supported criteria: "user_id", "song_id", "song_element_id", "instrument_id",
// "instrument_element_id" and "limit" (int).
func (r *EvaluationRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE 1 = 1`
	args := []any{}

	for _, column := range []string{"user_id", "song_id", "song_element_id", "instrument_id", "instrument_element_id"} {
		if value, ok := criteriaString(criteria, column); ok {
			query += " AND " + column + " = ?"
			args = append(args, value)
		}
	}

	query += " ORDER BY evaluated_at DESC, created_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []*models.Evaluation
	for rows.Next() {
		evaluation, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		evaluations = append(evaluations, evaluation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return evaluations, nil
}

// History returns every evaluation a user recorded for one subject, newest first.
func (r *EvaluationRepository) History(ctx context.Context, userID string, key models.Key) ([]*models.Evaluation, error) {
	query := `
		SELECT ` + evaluationColumns + ` FROM evaluations
		WHERE user_id = ?
		  AND song_id = ?
		  AND IFNULL(song_element_id, '') = ?
		  AND IFNULL(instrument_id, '') = ?
		  AND IFNULL(instrument_element_id, '') = ?
		ORDER BY evaluated_at DESC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, key.SongID, key.SongElementID, key.InstrumentID, key.InstrumentElementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluation history: %w", err)
	}
	defer rows.Close()

	var evaluations []*models.Evaluation
	for rows.Next() {
		evaluation, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		evaluations = append(evaluations, evaluation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return evaluations, nil
}

// LatestFor returns the current evaluation of one subject, or [shared.ErrNotFound].
func (r *EvaluationRepository) LatestFor(ctx context.Context, userID string, key models.Key) (*models.Evaluation, error) {
	history, err := r.History(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: evaluation %s", shared.ErrNotFound, key)
	}
	return history[0], nil
}

func (r *EvaluationRepository) scan(row scanner) (*models.Evaluation, error) {
	var (
		id, userID, songID                               string
		songElementID, instrumentID, instrumentElementID sql.NullString
		level                                            int
		notes                                            sql.NullString
		evaluatedAt, createdAt                           time.Time
	)

	err := row.Scan(&id, &userID, &songID, &songElementID, &instrumentID, &instrumentElementID, &level, &notes, &evaluatedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	key := models.Key{
		SongID:              songID,
		SongElementID:       songElementID.String,
		InstrumentID:        instrumentID.String,
		InstrumentElementID: instrumentElementID.String,
	}

	evaluation := models.NewEvaluation(userID, key, models.Level(level), notes.String, evaluatedAt)
	evaluation.SetID(id)
	evaluation.SetCreatedAt(createdAt)
	evaluation.SetUpdatedAt(createdAt)
	return evaluation, nil
}
