package di

import (
	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/clientdata"
	"github.com/gabe/tradelab/internal/modules/portfolio"
	"github.com/gabe/tradelab/internal/modules/snapshots"
	"github.com/gabe/tradelab/internal/modules/trading"
)

// InitializeRepositories builds the data access layer.
func InitializeRepositories(container *Container, log zerolog.Logger) {
	ledger := container.LedgerDB.Conn()

	container.PortfolioRepo = portfolio.NewPortfolioRepository(ledger, log)
	container.PositionRepo = portfolio.NewPositionRepository(ledger, log)
	container.TradeRepo = trading.NewTradeRepository(ledger, log)
	container.SnapshotRepo = snapshots.NewRepository(container.HistoryDB.Conn(), log)
	container.QuoteCacheRepo = clientdata.NewRepository(container.CacheDB.Conn())
}
