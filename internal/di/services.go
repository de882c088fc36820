package di

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/clientdata"
	"github.com/gabe/tradelab/internal/clients/anthropic"
	"github.com/gabe/tradelab/internal/clients/yahoo"
	"github.com/gabe/tradelab/internal/config"
	"github.com/gabe/tradelab/internal/events"
	"github.com/gabe/tradelab/internal/modules/agent"
	"github.com/gabe/tradelab/internal/modules/market_hours"
	"github.com/gabe/tradelab/internal/modules/portfolio"
	"github.com/gabe/tradelab/internal/modules/snapshots"
	"github.com/gabe/tradelab/internal/modules/trading"
	"github.com/gabe/tradelab/internal/reliability"
)

// InitializeServices builds the business logic layer on top of the
// repositories.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.Bus = events.NewBus()

	marketHours, err := market_hours.NewService(cfg.MarketTimezone)
	if err != nil {
		return fmt.Errorf("failed to initialize market hours service: %w", err)
	}
	container.MarketHours = marketHours

	container.YahooClient = yahoo.NewClient(log)
	container.Quotes = clientdata.NewCachedProvider(
		container.YahooClient,
		container.QuoteCacheRepo,
		time.Duration(cfg.QuoteCacheTTLSeconds)*time.Second,
		log,
	)

	container.PortfolioService = portfolio.NewService(
		container.PortfolioRepo,
		container.PositionRepo,
		log,
	)

	container.Engine = trading.NewEngine(
		container.LedgerDB.Conn(),
		container.PortfolioRepo,
		container.PositionRepo,
		container.TradeRepo,
		container.Bus,
		log,
	)

	container.AnthropicClient = anthropic.NewClient(
		cfg.AnthropicAPIKey,
		cfg.AnthropicModel,
		log,
		anthropic.WithBaseURL(cfg.AnthropicBaseURL),
	)

	container.AgentService = agent.NewService(
		container.MarketHours,
		container.PortfolioRepo,
		container.PositionRepo,
		container.Quotes,
		container.AnthropicClient,
		container.Engine,
		container.Bus,
		cfg.Watchlist,
		log,
	)

	container.SnapshotService = snapshots.NewService(
		container.SnapshotRepo,
		container.PortfolioService,
		container.Bus,
		log,
	)

	if cfg.Backup != nil && cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(context.Background(), cfg.Backup, log)
		if err != nil {
			return fmt.Errorf("failed to initialize backup client: %w", err)
		}

		// The cache database is reconstructible and not worth archiving.
		container.BackupService = reliability.NewBackupService(
			s3Client,
			map[string]*sql.DB{
				"tradelab": container.LedgerDB.Conn(),
				"history":  container.HistoryDB.Conn(),
			},
			cfg.DataDir,
			cfg.Backup.RetentionDays,
			log,
		)
	}

	return nil
}
