package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/repertoire/internal/formatter"
	"github.com/desertthunder/repertoire/internal/models"
	"github.com/desertthunder/repertoire/internal/server"
	"github.com/desertthunder/repertoire/internal/services"
	"github.com/desertthunder/repertoire/internal/shared"
)

// Evaluate records a level for a song element on an instrument, or for an instrument element of a song.
func (r *Runner) Evaluate(ctx context.Context, cmd *cli.Command) error {
	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	evaluation, err := practice.Evaluate(ctx, user.ID(), services.EvaluationInput{
		SongID:              cmd.String("song"),
		SongElementID:       cmd.String("element"),
		InstrumentID:        cmd.String("instrument"),
		InstrumentElementID: cmd.String("instrument-element"),
		Level:               cmd.Int("level"),
		Notes:               cmd.String("notes"),
	})
	if err != nil {
		return err
	}

	level := evaluation.Level()
	return r.writePlain("✓ Recorded level %d (%s): %s\n", int(level), level.Label(), level.Description())
}

// History prints evaluations newest first. With a subject it shows that subject only, otherwise the whole
// activity log.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	key := models.Key{
		SongID:              cmd.String("song"),
		SongElementID:       cmd.String("element"),
		InstrumentID:        cmd.String("instrument"),
		InstrumentElementID: cmd.String("instrument-element"),
	}
	if key == (models.Key{}) {
		activity, err := practice.Activity(ctx, user.ID(), cmd.Int("limit"))
		if err != nil {
			return err
		}
		_, err = r.output.Write(formatter.HistoryToText(activity, time.Now()))
		return err
	}

	view, err := practice.EvaluationPage(ctx, user.ID(), key)
	if err != nil {
		return err
	}

	title := view.Song.Title()
	switch {
	case view.SongElement != nil && view.Instrument != nil:
		title += " / " + view.SongElement.Name() + " on " + view.Instrument.Name()
	case view.InstrumentElement != nil:
		title += " / " + view.InstrumentElement.Name()
	}
	r.writePlainHeader(title)

	if view.Latest == nil {
		return r.writePlain("Not evaluated yet\n")
	}
	for _, e := range view.History {
		r.writePlain("%-14s %d %-13s %s\n", humanize.Time(e.EvaluatedAt()), int(e.Level()), e.Level().Label(), e.Notes())
	}
	return nil
}

// Stats prints the statistics report.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	recent := r.config.Stats.RecentLimit
	if cmd.IsSet("recent") {
		recent = cmd.Int("recent")
	}

	report := practice.Report(ctx, user.ID(), recent)
	if report.Degraded {
		r.logger.Warn("statistics could not be loaded, showing an empty report")
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}
	return formatter.Write(r.output, formatter.FormatText, report, nil, time.Now())
}

// Export writes the report and history in the requested format. An output of "-" writes to stdout.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	practice, user, err := r.user(ctx, cmd)
	if err != nil {
		return err
	}

	history, err := practice.Activity(ctx, user.ID(), 0)
	if err != nil {
		return err
	}
	report := practice.Report(ctx, user.ID(), r.config.Stats.RecentLimit)

	output := cmd.String("output")
	if output == "-" {
		return formatter.Write(r.output, format, report, history, time.Now())
	}

	path, err := formatter.WriteExport(format, report, history, output)
	if err != nil {
		return err
	}

	r.logger.Info("export written", "format", format, "path", path, "evaluations", len(history))
	return r.writePlain("✓ Exported %s evaluations to %s\n", humanize.Comma(int64(len(history))), path)
}

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet("port") {
		r.config.Server.Port = cmd.Int("port")
	}
	if cmd.IsSet("host") {
		r.config.Server.Host = cmd.String("host")
	}

	practice, err := r.open(ctx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(r.config, practice, r.logger)

	if cmd.Bool("open") {
		url := fmt.Sprintf("http://%s/healthz", srv.Addr())
		go func() {
			time.Sleep(250 * time.Millisecond)
			if err := shared.OpenBrowser(url); err != nil {
				r.logger.Warn("failed to open browser", "error", err)
			}
		}()
	}

	return srv.ListenAndServe(ctx)
}
