package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/repertoire/internal/models"
	"github.com/desertthunder/repertoire/internal/shared"
)

const (
	instrumentElementColumns = `id, instrument_id, name, description, is_mandatory, order_index, created_at`
	songElementColumns       = `id, song_id, name, description, order_index, created_at`
)

// InstrumentElementRepository persists the curriculum items of instruments.
type InstrumentElementRepository struct {
	db *sql.DB
}

func NewInstrumentElementRepository(db *sql.DB) *InstrumentElementRepository {
	return &InstrumentElementRepository{db: db}
}

// Create inserts an element. A negative order index appends it after the instrument's existing elements.
func (r *InstrumentElementRepository) Create(ctx context.Context, element *models.InstrumentElement) error {
	element.SetID(shared.GenerateID())

	if err := element.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if element.OrderIndex() < 0 {
		next, err := nextOrderIndex(ctx, r.db, "instrument_elements", "instrument_id", element.InstrumentID())
		if err != nil {
			return err
		}
		element.SetOrderIndex(next)
	}

	query := `INSERT INTO instrument_elements (` + instrumentElementColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		element.ID(),
		element.InstrumentID(),
		element.Name(),
		element.Description(),
		element.Mandatory(),
		element.OrderIndex(),
		element.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert instrument element: %w", err)
	}
	return nil
}

func (r *InstrumentElementRepository) Get(ctx context.Context, id string) (*models.InstrumentElement, error) {
	query := `SELECT ` + instrumentElementColumns + ` FROM instrument_elements WHERE id = ?`
	element, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "instrument element", id)
	}
	return element, nil
}

func (r *InstrumentElementRepository) Update(ctx context.Context, element *models.InstrumentElement) error {
	if err := element.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `UPDATE instrument_elements SET name = ?, description = ?, is_mandatory = ?, order_index = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		element.Name(), element.Description(), element.Mandatory(), element.OrderIndex(), element.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update instrument element: %w", err)
	}
	return expectOne(result, "instrument element", element.ID())
}

func (r *InstrumentElementRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM instrument_elements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete instrument element: %w", err)
	}
	return expectOne(result, "instrument element", id)
}

// List supports "instrument_id" and "user_id" criteria. Filtering by user yields the elements of
// every instrument visible to that user, shared instruments included.
func (r *InstrumentElementRepository) List(ctx context.Context, criteria map[string]any) ([]*models.InstrumentElement, error) {
	query := `
		SELECT e.id, e.instrument_id, e.name, e.description, e.is_mandatory, e.order_index, e.created_at
		FROM instrument_elements e
		JOIN instruments i ON i.id = e.instrument_id
		WHERE 1 = 1
	`
	args := []any{}

	if instrumentID, ok := criteriaString(criteria, "instrument_id"); ok {
		query += " AND e.instrument_id = ?"
		args = append(args, instrumentID)
	}
	if userID, ok := criteriaString(criteria, "user_id"); ok {
		query += " AND (i.user_id = ? OR i.user_id IS NULL)"
		args = append(args, userID)
	}

	query += " ORDER BY i.sequence ASC, e.order_index ASC, e.created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query instrument elements: %w", err)
	}
	defer rows.Close()

	var elements []*models.InstrumentElement
	for rows.Next() {
		element, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument element: %w", err)
		}
		elements = append(elements, element)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return elements, nil
}

func (r *InstrumentElementRepository) scan(row scanner) (*models.InstrumentElement, error) {
	var (
		id, instrumentID, name, description string
		mandatory                           bool
		orderIndex                          int
		createdAt                           time.Time
	)

	if err := row.Scan(&id, &instrumentID, &name, &description, &mandatory, &orderIndex, &createdAt); err != nil {
		return nil, err
	}

	element := models.NewInstrumentElement(instrumentID, name, description, mandatory, orderIndex)
	element.SetID(id)
	element.SetCreatedAt(createdAt)
	element.SetUpdatedAt(createdAt)
	return element, nil
}

// SongElementRepository persists the sections of songs.
type SongElementRepository struct {
	db *sql.DB
}

func NewSongElementRepository(db *sql.DB) *SongElementRepository {
	return &SongElementRepository{db: db}
}

// Create inserts an element. A negative order index appends it after the song's existing elements.
func (r *SongElementRepository) Create(ctx context.Context, element *models.SongElement) error {
	element.SetID(shared.GenerateID())

	if err := element.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if element.OrderIndex() < 0 {
		next, err := nextOrderIndex(ctx, r.db, "song_elements", "song_id", element.SongID())
		if err != nil {
			return err
		}
		element.SetOrderIndex(next)
	}

	query := `INSERT INTO song_elements (` + songElementColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		element.ID(),
		element.SongID(),
		element.Name(),
		shared.NullIfEmpty(element.Description()),
		element.OrderIndex(),
		element.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert song element: %w", err)
	}
	return nil
}

func (r *SongElementRepository) Get(ctx context.Context, id string) (*models.SongElement, error) {
	query := `SELECT ` + songElementColumns + ` FROM song_elements WHERE id = ?`
	element, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "song element", id)
	}
	return element, nil
}

func (r *SongElementRepository) Update(ctx context.Context, element *models.SongElement) error {
	if err := element.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `UPDATE song_elements SET name = ?, description = ?, order_index = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		element.Name(), shared.NullIfEmpty(element.Description()), element.OrderIndex(), element.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update song element: %w", err)
	}
	return expectOne(result, "song element", element.ID())
}

// Delete removes a song element; evaluations of it cascade.
func (r *SongElementRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM song_elements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete song element: %w", err)
	}
	return expectOne(result, "song element", id)
}

// List supports "song_id" and "user_id" criteria.
func (r *SongElementRepository) List(ctx context.Context, criteria map[string]any) ([]*models.SongElement, error) {
	query := `
		SELECT e.id, e.song_id, e.name, e.description, e.order_index, e.created_at
		FROM song_elements e
		JOIN songs s ON s.id = e.song_id
		WHERE 1 = 1
	`
	args := []any{}

	if songID, ok := criteriaString(criteria, "song_id"); ok {
		query += " AND e.song_id = ?"
		args = append(args, songID)
	}
	if userID, ok := criteriaString(criteria, "user_id"); ok {
		query += " AND s.user_id = ?"
		args = append(args, userID)
	}

	query += " ORDER BY s.sequence ASC, e.order_index ASC, e.created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query song elements: %w", err)
	}
	defer rows.Close()

	var elements []*models.SongElement
	for rows.Next() {
		element, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song element: %w", err)
		}
		elements = append(elements, element)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return elements, nil
}

func (r *SongElementRepository) scan(row scanner) (*models.SongElement, error) {
	var (
		id, songID, name string
		description      sql.NullString
		orderIndex       int
		createdAt        time.Time
	)

	if err := row.Scan(&id, &songID, &name, &description, &orderIndex, &createdAt); err != nil {
		return nil, err
	}

	element := models.NewSongElement(songID, name, description.String, orderIndex)
	element.SetID(id)
	element.SetCreatedAt(createdAt)
	element.SetUpdatedAt(createdAt)
	return element, nil
}

// nextOrderIndex returns the number of siblings already attached to parent.
func nextOrderIndex(ctx context.Context, db *sql.DB, table, parentColumn, parent string) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", table, parentColumn)
	if err := db.QueryRowContext(ctx, query, parent).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}
