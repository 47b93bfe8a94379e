package parking

import (
	"context"
	"log/slog"
	"sync"

	"parking-grid/internal/logging"
)

// Garage owns the active lot of the process. The shell and the HTTP handlers
// share one Garage; configuring a new lot replaces the previous one.
type Garage struct {
	mu        sync.RWMutex
	lot       *InstrumentedParkingLot
	telemetry *TelemetryProvider
	logger    *slog.Logger
	opts      []Option

	listenersMu sync.RWMutex
	listeners   []func(context.Context)
}

func NewGarage(telemetry *TelemetryProvider, logger *slog.Logger, opts ...Option) *Garage {
	if logger == nil {
		logger = logging.Logger()
	}
	return &Garage{
		telemetry: telemetry,
		logger:    logger,
		opts:      opts,
	}
}

func (g *Garage) Telemetry() *TelemetryProvider {
	return g.telemetry
}

// Configure builds a new lot and makes it the active one. On error the
// current lot stays in place.
func (g *Garage) Configure(ctx context.Context, totalSpaces, rows int) (*InstrumentedParkingLot, error) {
	lot, err := NewInstrumentedParkingLot(ctx, totalSpaces, rows, g.telemetry, g.logger, g.opts...)
	if err != nil {
		return nil, err
	}
	lot.onChange = g.notify

	g.mu.Lock()
	previous := g.lot
	g.lot = lot
	g.mu.Unlock()

	if previous != nil {
		previous.retire(ctx)
	}

	logging.FromLogger(ctx, g.logger).Info("parking lot configured",
		"total_spaces", totalSpaces, "rows", rows, "spaces_per_row", lot.SpacesPerRow())

	g.notify(ctx)
	return lot, nil
}

func (g *Garage) Lot() (*InstrumentedParkingLot, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.lot == nil {
		return nil, ErrLotNotCreated
	}
	return g.lot, nil
}

// OnChange registers fn to run after every successful park, removal or
// reconfiguration.
func (g *Garage) OnChange(fn func(context.Context)) {
	g.listenersMu.Lock()
	defer g.listenersMu.Unlock()
	g.listeners = append(g.listeners, fn)
}

func (g *Garage) notify(ctx context.Context) {
	g.listenersMu.RLock()
	listeners := append(([]func(context.Context))(nil), g.listeners...)
	g.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(ctx)
	}
}
