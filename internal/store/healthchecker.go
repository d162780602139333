package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/stine-ri/wings-of-memory/internal/health"
	"github.com/stine-ri/wings-of-memory/internal/model"
)

// healthSlug is never generated by slug derivation, which always appends an
// ID suffix, so looking it up only exercises the memorials table.
const healthSlug = "__health_check__"

// StoreHealthChecker reports whether the memorial store answers queries. The
// status is refreshed on an interval and read without blocking.
type StoreHealthChecker struct {
	store        Store
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewStoreHealthChecker creates a checker that starts unhealthy until its
// first successful probe.
func NewStoreHealthChecker(store Store, log zerolog.Logger, probeTimeout time.Duration) *StoreHealthChecker {
	if probeTimeout <= 0 {
		probeTimeout = 2 * time.Second
	}
	return &StoreHealthChecker{store: store, log: log, probeTimeout: probeTimeout}
}

func (hc *StoreHealthChecker) Name() string { return "store" }

// IsHealthy returns the cached health status (non-blocking).
func (hc *StoreHealthChecker) IsHealthy() bool {
	return hc.healthy.Load() == 1
}

// Start probes immediately, then once per interval until ctx ends.
func (hc *StoreHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	hc.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hc.check(ctx)
		}
	}
}

func (hc *StoreHealthChecker) check(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, hc.probeTimeout)
	defer cancel()

	var next int32
	if hc.probe(checkCtx) {
		next = 1
	}
	if prev := hc.healthy.Swap(next); prev != next {
		hc.log.Info().Str("checker", hc.Name()).Bool("healthy", next == 1).Msg("store health changed")
	}
}

// probe prefers the driver's HealthPing. Stores without one are asked for a
// memorial that cannot exist; not found still means the database answered.
func (hc *StoreHealthChecker) probe(ctx context.Context) bool {
	var err error
	if p, ok := hc.store.(health.HealthPinger); ok {
		err = p.HealthPing(ctx)
	} else if _, err = hc.store.Memorials().GetBySlug(ctx, healthSlug); errors.Is(err, model.ErrNotFound) {
		err = nil
	}
	if err != nil {
		hc.log.Error().Stack().
			Str("checker", hc.Name()).
			Err(err).
			Msg("store health check failed")
		return false
	}
	return true
}
