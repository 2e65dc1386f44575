package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalSynth/internal/domain/models"
	domrepo "SignalSynth/internal/domain/repository"
	"SignalSynth/pkg/cache"
	applogger "SignalSynth/pkg/logger"
)

// CachedBarProvider decorates a BarProvider with a TTL cache keyed by
// (symbol, interval, period). Back to back runs, such as a manual trigger
// racing the scheduler, reuse the fetched series instead of hitting the
// upstream feed again.
type CachedBarProvider struct {
	next  domrepo.BarProvider
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedBarProvider(next domrepo.BarProvider, svc cache.Service, ttl time.Duration, l *applogger.Logger) *CachedBarProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedBarProvider{next: next, cache: svc, ttl: ttl, l: l}
}

func (p *CachedBarProvider) History(ctx context.Context, symbol string, tf domrepo.TimeframeConfig) ([]models.Bar, error) {
	key := fmt.Sprintf("bars:%s:%s:%s", symbol, tf.Interval, tf.Period)

	var cached []models.Bar
	err := p.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) && p.l != nil {
		p.l.Warn("bar cache read failed", applogger.String("key", key), applogger.Error(err))
	}

	bars, err := p.next.History(ctx, symbol, tf)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, bars, p.ttl); err != nil && p.l != nil {
		p.l.Warn("bar cache write failed", applogger.String("key", key), applogger.Error(err))
	}
	return bars, nil
}
