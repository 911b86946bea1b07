// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/repertoire/internal/formatter"
)

// app builds the root command. Root flags are inherited by every subcommand.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "repertoire",
		Usage:   "Track how well you can play your songs",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Email of the user to act as",
				Sources: cli.EnvVars("REPERTOIRE_USER"),
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}

func subjectFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "song", Usage: "Song ID (derived from --element when omitted)"},
		&cli.StringFlag{Name: "element", Aliases: []string{"e"}, Usage: "Song element ID"},
		&cli.StringFlag{Name: "instrument", Aliases: []string{"i"}, Usage: "Instrument ID the song element is played on"},
		&cli.StringFlag{Name: "instrument-element", Usage: "Instrument element ID"},
	}
}

func songFlag() cli.Flag {
	return &cli.StringFlag{Name: "song", Aliases: []string{"s"}, Usage: "Song ID", Required: true}
}

func instrumentFlag() cli.Flag {
	return &cli.StringFlag{Name: "instrument", Aliases: []string{"i"}, Usage: "Instrument ID", Required: true}
}

// setupCommand handles database setup operations.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupStatus,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (overrides config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (overrides config)"},
			&cli.BoolFlag{Name: "open", Usage: "Open the health endpoint in a browser once started"},
		},
		Action: r.Serve,
	}
}

func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Manage songs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List songs, most recently updated first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Page number", Value: 1},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.SongsList,
			},
			{
				Name:      "add",
				Usage:     "Add a song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "title"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "artist", Usage: "Artist name"},
					&cli.StringFlag{Name: "notes", Usage: "Free-form notes"},
					&cli.StringFlag{Name: "instrument", Aliases: []string{"i"}, Usage: "Default instrument ID"},
				},
				Action: r.SongsAdd,
			},
			{
				Name:      "edit",
				Usage:     "Change the fields of a song, unset flags keep their value",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Song title"},
					&cli.StringFlag{Name: "artist", Usage: "Artist name"},
					&cli.StringFlag{Name: "notes", Usage: "Free-form notes"},
					&cli.StringFlag{Name: "instrument", Aliases: []string{"i"}, Usage: "Default instrument ID, none to clear"},
				},
				Action: r.SongsEdit,
			},
			{
				Name:      "show",
				Usage:     "Show a song with its elements",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SongsShow,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a song with its elements and evaluations",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SongsDelete,
			},
		},
	}
}

// elementsCommand manages the sections of a song.
func elementsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "elements",
		Usage: "Manage the elements of a song",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the elements of a song",
				Flags:  []cli.Flag{songFlag()},
				Action: r.ElementsList,
			},
			{
				Name:      "add",
				Usage:     "Append an element to a song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					songFlag(),
					&cli.StringFlag{Name: "description", Usage: "Element description"},
				},
				Action: r.ElementsAdd,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete an element and its evaluations",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{songFlag()},
				Action:    r.ElementsDelete,
			},
		},
	}
}

func instrumentsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "instruments",
		Usage: "Manage instruments",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your instruments and the shared ones",
				Action: r.InstrumentsList,
			},
			{
				Name:      "add",
				Usage:     "Add an instrument",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "shared", Usage: "Make the instrument visible to every user"},
				},
				Action: r.InstrumentsAdd,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete an instrument you own",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.InstrumentsDelete,
			},
		},
	}
}

// curriculumCommand manages the instrument elements (techniques) of an instrument.
func curriculumCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "curriculum",
		Usage: "Manage the elements of an instrument",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the elements of an instrument",
				Flags:  []cli.Flag{instrumentFlag()},
				Action: r.CurriculumList,
			},
			{
				Name:      "add",
				Usage:     "Append an element to an instrument you own",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					instrumentFlag(),
					&cli.StringFlag{Name: "description", Usage: "Element description"},
					&cli.BoolFlag{Name: "mandatory", Usage: "Count the element towards song completion"},
				},
				Action: r.CurriculumAdd,
			},
		},
	}
}

func evaluateCommand(r *Runner) *cli.Command {
	flags := append(subjectFlags(),
		&cli.IntFlag{Name: "level", Aliases: []string{"l"}, Usage: "Mastery level from 1 (Beginner) to 5 (Mastered)", Required: true},
		&cli.StringFlag{Name: "notes", Usage: "Free-form notes"},
	)
	return &cli.Command{
		Name:   "evaluate",
		Usage:  "Record a mastery level",
		Flags:  flags,
		Action: r.Evaluate,
	}
}

func historyCommand(r *Runner) *cli.Command {
	flags := append(subjectFlags(),
		&cli.IntFlag{Name: "limit", Usage: "Maximum entries of the activity log (0 for all)", Value: 20},
	)
	return &cli.Command{
		Name:   "history",
		Usage:  "Show evaluation history",
		Flags:  flags,
		Action: r.History,
	}
}

func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show practice statistics",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "recent", Usage: "Number of recent evaluations to show"},
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Stats,
	}
}

func exportCommand(r *Runner) *cli.Command {
	names := make([]string, 0, len(formatter.Formats()))
	for _, f := range formatter.Formats() {
		names = append(names, string(f))
	}
	return &cli.Command{
		Name:  "export",
		Usage: "Export statistics and history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (" + strings.Join(names, ", ") + ")",
				Value:   string(formatter.FormatCSV),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path, - for stdout",
			},
		},
		Action: r.Export,
	}
}
