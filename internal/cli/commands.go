package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Command returns the root booklog command. Without a subcommand it serves
// the HTTP API.
func (r *Runner) Command() *cli.Command {
	return &cli.Command{
		Name:    "booklog",
		Usage:   "Track reading progress across a shared book catalog",
		Version: r.version,
		Writer:  r.output,
		Action:  r.Serve,
		Commands: []*cli.Command{
			serveCommand(r),
			importBooksCommand(r),
			readersCommand(r),
			reconcileCommand(r),
			progressCommand(r),
		},
		// Errors are returned to main; combined errors would otherwise exit here.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the HTTP server (default if no command given)",
		Action: r.Serve,
	}
}

func importBooksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import-books",
		Usage: "Import the book catalog from a CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the catalog CSV",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the import result as JSON",
			},
		},
		Action: r.ImportBooks,
	}
}

func readersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "readers",
		Usage: "Manage reader accounts",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a reader with a password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Reader username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Reader password",
						Sources:  cli.EnvVars("BOOKLOG_READER_PASSWORD"),
						Required: true,
					},
				},
				Action: r.CreateReader,
			},
			{
				Name:   "list",
				Usage:  "List readers",
				Action: r.ListReaders,
			},
		},
	}
}

func reconcileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "Recompute stored reading statuses from logged sessions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "reader",
				Usage: "Only reconcile this reader (username)",
			},
		},
		Action: r.Reconcile,
	}
}

func progressCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Show a reader's progress in a book",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "reader",
				Usage: "Reader username (defaults to the no-auth reader)",
			},
			&cli.IntFlag{
				Name:     "book",
				Usage:    "Book id",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output progress as JSON",
			},
		},
		Action: r.Progress,
	}
}
