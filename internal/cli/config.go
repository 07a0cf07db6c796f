package cli

import (
	"fmt"

	"github.com/Anvoria/blogly/internal/config"
	"github.com/Anvoria/blogly/internal/database"
	"github.com/Anvoria/blogly/internal/migrations"
)

// LoadConfig reads the configuration file named by CONFIG_PATH
func LoadConfig() (*config.Config, error) {
	envConfig := config.LoadEnv()
	cfg, err := config.Load(envConfig.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// OpenDatabase connects database.DB and brings the schema up to date
func OpenDatabase(cfg *config.Config) error {
	if err := database.ConnectDB(cfg); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrations.RunMigrations(cfg); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
