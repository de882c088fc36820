package clientdata

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/domain"
)

// QuoteSource is the upstream quote fetcher the cache sits in front of.
type QuoteSource interface {
	GetQuote(symbol string) (*domain.Quote, error)
	GetDailyCloses(symbol string, period string) ([]float64, error)
}

// CachedProvider serves quotes cache-first, falling through to the
// upstream source on a miss. History requests always go upstream.
type CachedProvider struct {
	source QuoteSource
	repo   *Repository
	ttl    time.Duration
	log    zerolog.Logger
}

// NewCachedProvider creates a cache-first quote provider.
func NewCachedProvider(source QuoteSource, repo *Repository, ttl time.Duration, log zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		source: source,
		repo:   repo,
		ttl:    ttl,
		log:    log.With().Str("component", "quote_cache").Logger(),
	}
}

// GetQuote returns a fresh cached quote when available, otherwise fetches
// from upstream and caches the result. Cache write failures are logged,
// not propagated - the quote is still good.
func (p *CachedProvider) GetQuote(symbol string) (*domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)

	cached, err := p.repo.GetFreshQuote(symbol, p.ttl)
	if err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Cache read failed, going upstream")
	} else if cached != nil {
		return cached, nil
	}

	quote, err := p.source.GetQuote(symbol)
	if err != nil {
		return nil, err
	}

	if err := p.repo.StoreQuote(quote); err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
	}

	return quote, nil
}

// GetDailyCloses delegates to the upstream source.
func (p *CachedProvider) GetDailyCloses(symbol string, period string) ([]float64, error) {
	return p.source.GetDailyCloses(symbol, period)
}
