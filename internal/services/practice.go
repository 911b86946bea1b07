package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/repertoire/internal/models"
	"github.com/desertthunder/repertoire/internal/repositories"
	"github.com/desertthunder/repertoire/internal/shared"
	"github.com/desertthunder/repertoire/internal/stats"
)

// DefaultPerPage matches the dashboard's three by three song grid.
const DefaultPerPage = 9

// Practice is the domain service shared by the HTTP API and the CLI.
//
// Every method takes the acting user's ID and checks ownership before reading or changing anything.
type Practice struct {
	users              *repositories.UserRepository
	songs              *repositories.SongRepository
	instruments        *repositories.InstrumentRepository
	instrumentElements *repositories.InstrumentElementRepository
	songElements       *repositories.SongElementRepository
	evaluations        *repositories.EvaluationRepository

	logger  *log.Logger
	perPage int
	now     func() time.Time
}

// NewPractice wires a [Practice] over db. A nil logger writes to stderr.
func NewPractice(db *sql.DB, logger *log.Logger, perPage int) *Practice {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return &Practice{
		users:              repositories.NewUserRepository(db),
		songs:              repositories.NewSongRepository(db),
		instruments:        repositories.NewInstrumentRepository(db),
		instrumentElements: repositories.NewInstrumentElementRepository(db),
		songElements:       repositories.NewSongElementRepository(db),
		evaluations:        repositories.NewEvaluationRepository(db),
		logger:             shared.WithLogger(logger, "service", "practice"),
		perPage:            perPage,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// Snapshot is everything a user can see, loaded at one request boundary.
type Snapshot struct {
	Songs              []*models.Song
	Instruments        []*models.Instrument
	InstrumentElements []*models.InstrumentElement
	SongElements       []*models.SongElement
	Evaluations        []*models.Evaluation
}

// Catalog returns the snapshot's entities in the shape the stats package expects.
func (s *Snapshot) Catalog() stats.Catalog {
	return stats.Catalog{
		Songs:              s.Songs,
		Instruments:        s.Instruments,
		InstrumentElements: s.InstrumentElements,
		SongElements:       s.SongElements,
	}
}

// LoadSnapshot reads a user's catalog and full evaluation history concurrently.
func (p *Practice) LoadSnapshot(ctx context.Context, userID string) (*Snapshot, error) {
	var snapshot Snapshot
	owner := map[string]any{"user_id": userID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snapshot.Songs, err = p.songs.List(gctx, owner)
		return err
	})
	g.Go(func() (err error) {
		snapshot.Instruments, err = p.instruments.List(gctx, owner)
		return err
	})
	g.Go(func() (err error) {
		snapshot.InstrumentElements, err = p.instrumentElements.List(gctx, owner)
		return err
	})
	g.Go(func() (err error) {
		snapshot.SongElements, err = p.songElements.List(gctx, owner)
		return err
	})
	g.Go(func() (err error) {
		snapshot.Evaluations, err = p.evaluations.List(gctx, owner)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return &snapshot, nil
}

// Report computes the statistics view for a user.
//
// Load failures are logged and produce [stats.Empty] so the view can still render.
func (p *Practice) Report(ctx context.Context, userID string, recentLimit int) *stats.Report {
	snapshot, err := p.LoadSnapshot(ctx, userID)
	if err != nil {
		p.logger.Error("statistics unavailable", "user", userID, "error", err)
		return stats.Empty()
	}
	return stats.Compute(snapshot.Catalog(), snapshot.Evaluations, recentLimit)
}

// Activity returns a user's evaluation history newest first with names attached.
// A limit of zero or less returns the whole history.
func (p *Practice) Activity(ctx context.Context, userID string, limit int) ([]stats.Activity, error) {
	snapshot, err := p.LoadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return stats.Describe(snapshot.Catalog(), stats.RecentActivity(snapshot.Evaluations, limit)), nil
}

// EnsureUser returns the profile for email, creating it on first sight.
func (p *Practice) EnsureUser(ctx context.Context, email, displayName string) (*models.User, error) {
	user, err := p.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	user = models.NewUser(0, email, displayName)
	if err := p.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent first request
		if errors.Is(err, shared.ErrConflict) {
			return p.users.GetByEmail(ctx, email)
		}
		return nil, err
	}

	p.logger.Info("user profile created", "user", user.ID())
	return user, nil
}

// User returns a profile by email without creating it.
func (p *Practice) User(ctx context.Context, email string) (*models.User, error) {
	return p.users.GetByEmail(ctx, email)
}
