// Package di provides dependency injection wiring for the application.
//
// The Container is the single source of truth for all service
// instances. Wire() builds it in dependency order: databases, then
// repositories, then services, then scheduled jobs.
package di

import (
	"github.com/gabe/tradelab/internal/clientdata"
	"github.com/gabe/tradelab/internal/clients/anthropic"
	"github.com/gabe/tradelab/internal/clients/yahoo"
	"github.com/gabe/tradelab/internal/database"
	"github.com/gabe/tradelab/internal/events"
	"github.com/gabe/tradelab/internal/modules/agent"
	"github.com/gabe/tradelab/internal/modules/market_hours"
	"github.com/gabe/tradelab/internal/modules/portfolio"
	"github.com/gabe/tradelab/internal/modules/snapshots"
	"github.com/gabe/tradelab/internal/modules/trading"
	"github.com/gabe/tradelab/internal/reliability"
)

// Container holds all dependencies for the application.
type Container struct {
	// Databases. The ledger database holds portfolios, positions and
	// trades in one file so a trade commits atomically.
	LedgerDB  *database.DB // tradelab.db - competition ledger
	HistoryDB *database.DB // history.db - daily value snapshots
	CacheDB   *database.DB // cache.db - ephemeral quote cache

	// Repositories - data access layer
	PortfolioRepo  *portfolio.PortfolioRepository
	PositionRepo   *portfolio.PositionRepository
	TradeRepo      *trading.TradeRepository
	SnapshotRepo   *snapshots.Repository
	QuoteCacheRepo *clientdata.Repository

	// Clients - external API integrations
	YahooClient     *yahoo.Client
	AnthropicClient *anthropic.Client

	// Services - business logic layer
	Bus              *events.Bus
	MarketHours      *market_hours.Service
	Quotes           *clientdata.CachedProvider
	PortfolioService *portfolio.Service
	Engine           *trading.Engine
	AgentService     *agent.Service
	SnapshotService  *snapshots.Service

	// BackupService is nil when backups are not configured.
	BackupService *reliability.BackupService
}

// Databases returns every open database, ledger first.
func (c *Container) Databases() []*database.DB {
	return []*database.DB{c.LedgerDB, c.HistoryDB, c.CacheDB}
}

// Close closes all database connections.
func (c *Container) Close() {
	for _, db := range c.Databases() {
		if db != nil {
			db.Close()
		}
	}
}
