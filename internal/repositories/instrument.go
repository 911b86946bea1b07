package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/repertoire/internal/models"
	"github.com/desertthunder/repertoire/internal/shared"
)

const instrumentColumns = `id, sequence, user_id, name, created_at`

// InstrumentRepository implements models.Repository[*models.Instrument].
//
// Instruments without an owner are shared and visible to every user.
type InstrumentRepository struct {
	db *sql.DB
}

func NewInstrumentRepository(db *sql.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

func (r *InstrumentRepository) Create(ctx context.Context, instrument *models.Instrument) error {
	sequence, err := NextSequence(ctx, r.db, "instruments")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	instrument.SetID(shared.GenerateID())
	instrument.SetSequence(sequence)

	if err := instrument.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO instruments (` + instrumentColumns + `) VALUES (?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		instrument.ID(), sequence, shared.NullIfEmpty(instrument.UserID()), instrument.Name(), instrument.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert instrument: %w", err)
	}
	return nil
}

func (r *InstrumentRepository) Get(ctx context.Context, id string) (*models.Instrument, error) {
	query := `SELECT ` + instrumentColumns + ` FROM instruments WHERE id = ?`
	instrument, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "instrument", id)
	}
	return instrument, nil
}

// Update renames an instrument. Ownership is immutable.
func (r *InstrumentRepository) Update(ctx context.Context, instrument *models.Instrument) error {
	if err := instrument.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `UPDATE instruments SET name = ? WHERE id = ?`, instrument.Name(), instrument.ID())
	if err != nil {
		return fmt.Errorf("failed to update instrument: %w", err)
	}
	return expectOne(result, "instrument", instrument.ID())
}

func (r *InstrumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM instruments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete instrument: %w", err)
	}
	return expectOne(result, "instrument", id)
}

// List retrieves instruments in creation order.
//
// With a "user_id" criterion the result holds that user's instruments plus the shared ones.
// With "shared" set to true only ownerless instruments are returned.
func (r *InstrumentRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Instrument, error) {
	query := `SELECT ` + instrumentColumns + ` FROM instruments WHERE 1 = 1`
	args := []any{}

	if userID, ok := criteriaString(criteria, "user_id"); ok {
		query += " AND (user_id = ? OR user_id IS NULL)"
		args = append(args, userID)
	}
	if onlyShared, _ := criteria["shared"].(bool); onlyShared {
		query += " AND user_id IS NULL"
	}

	query += " ORDER BY created_at ASC, sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments: %w", err)
	}
	defer rows.Close()

	var instruments []*models.Instrument
	for rows.Next() {
		instrument, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		instruments = append(instruments, instrument)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return instruments, nil
}

func (r *InstrumentRepository) scan(row scanner) (*models.Instrument, error) {
	var (
		id        string
		sequence  int
		userID    sql.NullString
		name      string
		createdAt time.Time
	)

	if err := row.Scan(&id, &sequence, &userID, &name, &createdAt); err != nil {
		return nil, err
	}

	instrument := models.NewInstrument(sequence, userID.String, name)
	instrument.SetID(id)
	instrument.SetCreatedAt(createdAt)
	instrument.SetUpdatedAt(createdAt)
	return instrument, nil
}
