package main

import (
	"context"
	"fmt"
	"os"

	"github.com/stylus-audio/stylus/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations, creating a config
// file from the embedded template when none exists yet.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	if config.Credentials.Discogs.Username == "" {
		r.writePlainln("Next steps:")
		r.writePlain("1. Set credentials.discogs.username and personal_token in %s\n", configPath)
		r.writePlain("2. Run 'stylus auth check' to verify them\n")
		r.writePlain("3. Run 'stylus sync run' to pull your collection\n")
	}

	return nil
}

// AuthCheck verifies the configured credentials against the identity endpoint.
func (r *Runner) AuthCheck(ctx context.Context, cmd *cli.Command) error {
	client, err := r.client()
	if err != nil {
		return err
	}

	identity, err := client.Identity(ctx)
	if err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}

	r.writePlain("authenticated as %s (id %d)\n", identity.Username, identity.ID)
	return nil
}
