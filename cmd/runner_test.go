package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stylus-audio/stylus/internal/shared"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.guard == nil {
				t.Error("expected a guard to be created")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 5 {
			t.Errorf("expected 5 top level commands, got %d", len(commands))
		}

		names := make(map[string]bool)
		for _, command := range commands {
			names[command.Name] = true
		}
		for _, want := range []string{"setup", "auth", "sync", "inventory", "collection"} {
			if !names[want] {
				t.Errorf("missing command %q", want)
			}
		}
	})
}

// newTestApp builds a runner against a migrated throwaway database and returns
// the CLI app plus the runner's output buffer.
func newTestApp(t *testing.T) (*cli.Command, *bytes.Buffer) {
	t.Helper()

	config := shared.DefaultConfig()
	config.Credentials.Discogs.Username = "crate_digger"
	config.Credentials.Discogs.PersonalToken = "tok"
	config.Database.Path = filepath.Join(t.TempDir(), "stylus.db")

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	})

	app := &cli.Command{Name: "stylus", Commands: runner.register()}
	return app, output
}

func TestCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("sync status before any run", func(t *testing.T) {
		app, output := newTestApp(t)

		if err := app.Run(ctx, []string{"stylus", "sync", "status"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "collection: never synced") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("inventory history is empty", func(t *testing.T) {
		app, output := newTestApp(t)

		if err := app.Run(ctx, []string{"stylus", "inventory", "history"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "No sync history") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("collection list is empty", func(t *testing.T) {
		app, output := newTestApp(t)

		if err := app.Run(ctx, []string{"stylus", "collection", "list"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "No releases in collection") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("sync cancel with nothing active", func(t *testing.T) {
		app, output := newTestApp(t)

		if err := app.Run(ctx, []string{"stylus", "sync", "cancel"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "no active collection sync") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("keep requires a numeric argument", func(t *testing.T) {
		app, _ := newTestApp(t)

		err := app.Run(ctx, []string{"stylus", "collection", "keep", "not-a-number"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
