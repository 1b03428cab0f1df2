// submodule cmd contains command definitions
package main

import (
	"context"

	"github.com/stylus-audio/stylus/internal/models"
	"github.com/urfave/cli/v3"
)

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration, database and migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.SetupDatabase,
	}
}

// authCommand handles credential verification.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Discogs authentication",
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Verify the configured credentials against the identity endpoint",
				Action: r.AuthCheck,
			},
		},
	}
}

// syncCommand drives collection syncs.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync the Discogs collection into the local database",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a collection sync",
				Flags: syncRunFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.RunSync(ctx, cmd, models.KindCollection)
				},
			},
			{
				Name:  "cancel",
				Usage: "Park the active collection sync so it can be resumed later",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.CancelSync(ctx, cmd, models.KindCollection)
				},
			},
			{
				Name:  "status",
				Usage: "Show the state of the latest collection sync",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.SyncStatus(ctx, cmd, models.KindCollection)
				},
			},
			{
				Name:  "history",
				Usage: "List recent collection sync runs",
				Flags: historyFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.SyncHistory(ctx, cmd, models.KindCollection)
				},
			},
		},
	}
}

// inventoryCommand drives marketplace inventory syncs and browsing.
func inventoryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "inventory",
		Usage: "Sync and browse the Discogs marketplace inventory",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run an inventory sync",
				Flags: syncRunFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.RunSync(ctx, cmd, models.KindInventory)
				},
			},
			{
				Name:  "cancel",
				Usage: "Park the active inventory sync so it can be resumed later",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.CancelSync(ctx, cmd, models.KindInventory)
				},
			},
			{
				Name:  "status",
				Usage: "Show the state of the latest inventory sync",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.SyncStatus(ctx, cmd, models.KindInventory)
				},
			},
			{
				Name:  "history",
				Usage: "List recent inventory sync runs",
				Flags: historyFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.SyncHistory(ctx, cmd, models.KindInventory)
				},
			},
			{
				Name:  "list",
				Usage: "List synced inventory listings",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "attention",
						Usage: "Only listings sold or removed since the last look",
					},
				},
				Action: r.ListListings,
			},
			{
				Name:  "dismiss",
				Usage: "Dismiss the sold/removed notification for a listing",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "listing-id"},
				},
				Action: r.DismissListing,
			},
		},
	}
}

// collectionCommand browses the synced collection.
func collectionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "collection",
		Usage: "Browse the synced collection",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List synced releases",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "for-sale",
						Usage: "Only releases currently listed for sale",
					},
					&cli.BoolFlag{
						Name:  "removed",
						Usage: "Only releases removed from the remote collection",
					},
				},
				Action: r.ListReleases,
			},
			{
				Name:  "tracks",
				Usage: "Show the tracklist and DJ metadata of a release",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "discogs-id"},
				},
				Action: r.ListTracks,
			},
			{
				Name:  "keep",
				Usage: "Keep a remotely removed release in the local collection",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "discogs-id"},
				},
				Action: r.KeepRelease,
			},
		},
	}
}

func syncRunFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "resume",
			Usage: "Continue a paused sync from its saved page",
		},
		&cli.BoolFlag{
			Name:  "wait",
			Usage: "Sleep out rate-limit pauses instead of exiting",
		},
	}
}

func historyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of runs to show",
			Value: 10,
		},
	}
}
