package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/stylus-audio/stylus/internal/discogs"
	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/repositories"
	"github.com/stylus-audio/stylus/internal/shared"
	"github.com/stylus-audio/stylus/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	guard  *tasks.Guard
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Guard  *tasks.Guard
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Guard == nil {
		opts.Guard = tasks.NewGuard()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		guard:  opts.Guard,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, inventoryCommand, collectionCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// deps bundles a command's database handle with the repositories built on it.
type deps struct {
	db       *sql.DB
	users    *repositories.UserRepository
	releases *repositories.ReleaseRepository
	tracks   *repositories.TrackRepository
	listings *repositories.ListingRepository
	runs     *repositories.SyncRunRepository
}

func (d *deps) Close() error { return d.db.Close() }

// connect opens the configured database and wires the repositories.
func (r *Runner) connect() (*deps, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	return &deps{
		db:       db,
		users:    repositories.NewUserRepository(db),
		releases: repositories.NewReleaseRepository(db),
		tracks:   repositories.NewTrackRepository(db),
		listings: repositories.NewListingRepository(db),
		runs:     repositories.NewSyncRunRepository(db),
	}, nil
}

// currentUser resolves the configured Discogs account to a local user row.
func (r *Runner) currentUser(d *deps) (*models.User, error) {
	username := r.config.Credentials.Discogs.Username
	if username == "" {
		return nil, fmt.Errorf("%w: credentials.discogs.username is not set", shared.ErrMissingConfig)
	}
	return d.users.GetOrCreate(username)
}

// client builds a Discogs client from the configured credentials.
func (r *Runner) client() (*discogs.Client, error) {
	return discogs.NewClient(r.config.Credentials.Discogs, r.config.Sync)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
