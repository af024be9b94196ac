package scoring

import (
    "context"
    "fmt"
    "strconv"
    "time"

    "AlphaPull/internal/domain/models"
    domrepo "AlphaPull/internal/domain/repository"
    "AlphaPull/internal/service/cache"
    pkgcache "AlphaPull/pkg/cache"
    "AlphaPull/pkg/config"
)

// HTTPValuationSource fetches reference values from the model service.
type HTTPValuationSource struct{ base *HTTPServiceBase }

func NewHTTPValuationSource(cfg *config.Config) *HTTPValuationSource {
    return &HTTPValuationSource{base: NewHTTPServiceBase(cfg)}
}

type valuationResp struct {
    Symbol string  `json:"symbol"`
    Value  float64 `json:"value"`
    T      int64   `json:"t"` // ms
}

func (s *HTTPValuationSource) ValueAt(ctx context.Context, symbol models.Symbol, at time.Time) (float64, error) {
    var resp valuationResp
    q := map[string][]string{
        "symbol": {symbol.Ticker},
        "at":     {strconv.FormatInt(at.Unix(), 10)},
    }
    if err := s.base.GetJSON(ctx, "/valuation", q, &resp); err != nil {
        return 0, fmt.Errorf("valuation %s: %w", symbol.Ticker, err)
    }
    return resp.Value, nil
}

func (s *HTTPValuationSource) LatestValue(ctx context.Context, symbol models.Symbol) (float64, error) {
    var resp valuationResp
    q := map[string][]string{"symbol": {symbol.Ticker}}
    if err := s.base.GetJSON(ctx, "/valuation/latest", q, &resp); err != nil {
        return 0, fmt.Errorf("latest valuation %s: %w", symbol.Ticker, err)
    }
    return resp.Value, nil
}

var _ domrepo.ValuationSource = (*HTTPValuationSource)(nil)

// historical values never change, latest quotes do
const historicalValuationTTL = time.Hour

// CachedValuationSource wraps a ValuationSource with a bytes cache so the
// score updater does not hammer the model service for repeated lookups.
type CachedValuationSource struct {
    next      domrepo.ValuationSource
    cache     cache.BytesCache
    latestTTL time.Duration
}

func NewCachedValuationSource(next domrepo.ValuationSource, c cache.BytesCache, latestTTL time.Duration) *CachedValuationSource {
    if latestTTL <= 0 {
        latestTTL = 5 * time.Second
    }
    return &CachedValuationSource{next: next, cache: c, latestTTL: latestTTL}
}

func (s *CachedValuationSource) ValueAt(ctx context.Context, symbol models.Symbol, at time.Time) (float64, error) {
    key := pkgcache.GenerateKeyWithParams("val", symbol.ID, at.Unix())
    if v, ok := s.lookup(ctx, key); ok {
        return v, nil
    }
    v, err := s.next.ValueAt(ctx, symbol, at)
    if err != nil {
        return 0, err
    }
    s.store(ctx, key, v, historicalValuationTTL)
    return v, nil
}

func (s *CachedValuationSource) LatestValue(ctx context.Context, symbol models.Symbol) (float64, error) {
    key := pkgcache.GenerateKeyWithParams("val", symbol.ID, "latest")
    if v, ok := s.lookup(ctx, key); ok {
        return v, nil
    }
    v, err := s.next.LatestValue(ctx, symbol)
    if err != nil {
        return 0, err
    }
    s.store(ctx, key, v, s.latestTTL)
    return v, nil
}

func (s *CachedValuationSource) lookup(ctx context.Context, key string) (float64, bool) {
    if s.cache == nil {
        return 0, false
    }
    b, ok, err := s.cache.GetBytes(ctx, key)
    if err != nil || !ok {
        return 0, false
    }
    v, err := strconv.ParseFloat(string(b), 64)
    if err != nil {
        return 0, false
    }
    return v, true
}

func (s *CachedValuationSource) store(ctx context.Context, key string, v float64, ttl time.Duration) {
    if s.cache == nil {
        return
    }
    _ = s.cache.SetBytes(ctx, key, []byte(strconv.FormatFloat(v, 'f', -1, 64)), ttl)
}

var _ domrepo.ValuationSource = (*CachedValuationSource)(nil)
