package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/repertoire/internal/services"
	"github.com/desertthunder/repertoire/internal/shared"
)

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.StringArg(name)
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// SongsList prints one page of songs, most recently updated first.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	page, err := practice.ListSongs(ctx, user.ID(), cmd.Int("page"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, true)
	}

	r.writePlainHeader(fmt.Sprintf("Songs (page %d of %d, %d total)", page.Page, page.Pages(), page.Total))
	for _, song := range page.Songs {
		r.writePlain("%s  %s", song.ID(), song.Title())
		if song.Artist() != "" {
			r.writePlain(" by %s", song.Artist())
		}
		r.writePlain("  (updated %s)\n", humanize.Time(song.UpdatedAt()))
	}
	return nil
}

func (r *Runner) SongsAdd(ctx context.Context, cmd *cli.Command) error {
	title, err := requireArg(cmd, "title")
	if err != nil {
		return err
	}

	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	song, err := practice.CreateSong(ctx, user.ID(), services.SongInput{
		Title:        title,
		Artist:       cmd.String("artist"),
		Notes:        cmd.String("notes"),
		InstrumentID: cmd.String("instrument"),
	})
	if err != nil {
		return err
	}

	return r.writePlain("✓ Song added: %s (%s)\n", song.Title(), song.ID())
}

// SongsEdit updates a song. Flags that are not given keep the current value.
func (r *Runner) SongsEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	detail, err := practice.GetSong(ctx, user.ID(), id)
	if err != nil {
		return err
	}

	in := services.SongInput{
		Title:        detail.Song.Title(),
		Artist:       detail.Song.Artist(),
		Notes:        detail.Song.Notes(),
		InstrumentID: detail.Song.InstrumentID(),
	}
	if cmd.IsSet("title") {
		in.Title = cmd.String("title")
	}
	if cmd.IsSet("artist") {
		in.Artist = cmd.String("artist")
	}
	if cmd.IsSet("notes") {
		in.Notes = cmd.String("notes")
	}
	if cmd.IsSet("instrument") {
		in.InstrumentID = cmd.String("instrument")
		if strings.EqualFold(in.InstrumentID, "none") {
			in.InstrumentID = ""
		}
	}

	song, err := practice.UpdateSong(ctx, user.ID(), id, in)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Song updated: %s (%s)\n", song.Title(), song.ID())
}

// SongsShow prints a song with its sections.
func (r *Runner) SongsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	detail, err := practice.GetSong(ctx, user.ID(), id)
	if err != nil {
		return err
	}

	r.writePlainHeader(detail.Song.Title())
	if detail.Song.Artist() != "" {
		r.writePlain("Artist:     %s\n", detail.Song.Artist())
	}
	if detail.Instrument != nil {
		r.writePlain("Instrument: %s\n", detail.Instrument.Name())
	}
	if detail.Song.Notes() != "" {
		r.writePlain("Notes:      %s\n", detail.Song.Notes())
	}

	r.writePlainln("Elements (%d):", len(detail.Elements))
	for _, element := range detail.Elements {
		r.writePlain("  %d. %s  %s\n", element.OrderIndex()+1, element.Name(), element.ID())
	}
	return nil
}

func (r *Runner) SongsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	if err := practice.DeleteSong(ctx, user.ID(), id); err != nil {
		return err
	}
	return r.writePlain("✓ Song deleted with its elements and evaluations\n")
}

func (r *Runner) ElementsList(ctx context.Context, cmd *cli.Command) error {
	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	elements, err := practice.ListSongElements(ctx, user.ID(), cmd.String("song"))
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Elements (%d)", len(elements)))
	for _, element := range elements {
		r.writePlain("%d. %s  %s\n", element.OrderIndex()+1, element.Name(), element.ID())
	}
	return nil
}

// ElementsAdd appends a section to a song.
func (r *Runner) ElementsAdd(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	element, err := practice.AddSongElement(ctx, user.ID(), cmd.String("song"), services.ElementInput{
		Name:        name,
		Description: cmd.String("description"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Element added: %s (%s)\n", element.Name(), element.ID())
}

func (r *Runner) ElementsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	if err := practice.DeleteSongElement(ctx, user.ID(), cmd.String("song"), id); err != nil {
		return err
	}
	return r.writePlain("✓ Element deleted\n")
}

func (r *Runner) InstrumentsList(ctx context.Context, cmd *cli.Command) error {
	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	instruments, err := practice.ListInstruments(ctx, user.ID())
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Instruments (%d)", len(instruments)))
	for _, instrument := range instruments {
		scope := "own"
		if instrument.Shared() {
			scope = "shared"
		}
		r.writePlain("%s  %-20s %s\n", instrument.ID(), instrument.Name(), scope)
	}
	return nil
}

func (r *Runner) InstrumentsAdd(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	instrument, err := practice.CreateInstrument(ctx, user.ID(), name, cmd.Bool("shared"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Instrument added: %s (%s)\n", instrument.Name(), instrument.ID())
}

func (r *Runner) InstrumentsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	if err := practice.DeleteInstrument(ctx, user.ID(), id); err != nil {
		return err
	}
	return r.writePlain("✓ Instrument deleted\n")
}

// CurriculumList prints the elements of an instrument, marking mandatory ones.
func (r *Runner) CurriculumList(ctx context.Context, cmd *cli.Command) error {
	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	elements, err := practice.ListInstrumentElements(ctx, user.ID(), cmd.String("instrument"))
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Curriculum (%d)", len(elements)))
	for _, element := range elements {
		marker := " "
		if element.Mandatory() {
			marker = "*"
		}
		r.writePlain("%s %d. %s  %s\n", marker, element.OrderIndex()+1, element.Name(), element.ID())
	}
	return nil
}

func (r *Runner) CurriculumAdd(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	element, err := practice.AddInstrumentElement(ctx, user.ID(), cmd.String("instrument"), services.ElementInput{
		Name:        name,
		Description: cmd.String("description"),
		Mandatory:   cmd.Bool("mandatory"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Curriculum element added: %s (%s)\n", element.Name(), element.ID())
}
