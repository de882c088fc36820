package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/config"
)

// Wire initializes all dependencies and returns a fully configured
// container plus the jobs to schedule.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	InitializeRepositories(container, log)

	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	jobs := BuildJobs(container, cfg, log)

	log.Info().Msg("Dependency injection wiring completed")

	return container, jobs, nil
}
