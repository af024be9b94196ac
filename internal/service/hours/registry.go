package hours

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"AlphaPull/internal/domain/models"
)

// Registry holds the calendar for every configured market and hands out a
// continuously open fallback for markets it does not know.
type Registry struct {
	mu       sync.RWMutex
	markets  map[string]*Exchange
	fallback *Exchange
}

// NewRegistry builds calendars for every config entry.
func NewRegistry(cfgs []Config) (*Registry, error) {
	r := &Registry{
		markets:  make(map[string]*Exchange, len(cfgs)),
		fallback: AlwaysOpen("default"),
	}
	for _, cfg := range cfgs {
		e, err := New(cfg)
		if err != nil {
			return nil, fmt.Errorf("market hours registry: %w", err)
		}
		r.markets[strings.ToLower(cfg.Market)] = e
	}
	return r, nil
}

// Register adds or replaces a market's calendar.
func (r *Registry) Register(e *Exchange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markets[strings.ToLower(e.Market())] = e
}

// Get returns the calendar for a market, falling back to the always open
// schedule when the market is unknown or empty.
func (r *Registry) Get(market string) models.MarketHours {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.markets[strings.ToLower(market)]; ok {
		return e
	}
	return r.fallback
}

// Exchange returns the configured calendar for a market without the
// fallback, for callers that need to distinguish unknown markets.
func (r *Registry) Exchange(market string) (*Exchange, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.markets[strings.ToLower(market)]
	return e, ok
}

// Markets lists the configured market names, sorted.
func (r *Registry) Markets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.markets))
	for _, e := range r.markets {
		names = append(names, e.Market())
	}
	sort.Strings(names)
	return names
}
