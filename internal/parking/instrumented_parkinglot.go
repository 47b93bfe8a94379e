package parking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"parking-grid/internal/logging"
)

// InstrumentedParkingLot serializes access to a ParkingLot and records a
// span, metrics and a log line for every operation.
type InstrumentedParkingLot struct {
	mu        sync.Mutex
	lot       *ParkingLot
	telemetry *TelemetryProvider
	logger    *slog.Logger
	onChange  func(context.Context)

	// Metrics
	parkingOperations metric.Int64Counter
	removalOperations metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	totalSpacesGauge  metric.Int64UpDownCounter
	revenue           metric.Float64Counter
}

func NewInstrumentedParkingLot(ctx context.Context, totalSpaces, rows int, telemetry *TelemetryProvider, logger *slog.Logger, opts ...Option) (*InstrumentedParkingLot, error) {
	_, span := telemetry.Tracer().Start(ctx, "parking_lot.initialize",
		trace.WithAttributes(
			attribute.Int("parking_lot.total_spaces", totalSpaces),
			attribute.Int("parking_lot.rows", rows),
		))
	defer span.End()

	baseParkingLot, err := NewParkingLot(totalSpaces, rows, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	meter := telemetry.Meter()

	parkingOperations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of park operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	removalOperations, err := meter.Int64Counter("removal_operations_total",
		metric.WithDescription("Total number of vehicle removal operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking spaces"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	totalSpacesGauge, err := meter.Int64UpDownCounter("parking_lot_total_spaces",
		metric.WithDescription("Total number of parking spaces"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Float64Counter("parking_revenue_total",
		metric.WithDescription("Fares charged on vehicle removal"),
		metric.WithUnit("{USD}"))
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = logging.Logger()
	}

	ipl := &InstrumentedParkingLot{
		lot:               baseParkingLot,
		telemetry:         telemetry,
		logger:            logger,
		parkingOperations: parkingOperations,
		removalOperations: removalOperations,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
		totalSpacesGauge:  totalSpacesGauge,
		revenue:           revenue,
	}

	totalSpacesGauge.Add(ctx, int64(totalSpaces))

	span.SetAttributes(attribute.Int("parking_lot.spaces_per_row", baseParkingLot.SpacesPerRow()))
	if unreachable := totalSpaces - rows*baseParkingLot.SpacesPerRow(); unreachable > 0 {
		span.AddEvent("unreachable_spaces", trace.WithAttributes(attribute.Int("count", unreachable)))
		ipl.log(ctx).Warn("rows do not divide total spaces; trailing spaces are unreachable",
			"total_spaces", totalSpaces, "rows", rows, "unreachable", unreachable)
	}

	return ipl, nil
}

func (ipl *InstrumentedParkingLot) log(ctx context.Context) *slog.Logger {
	return logging.FromLogger(ctx, ipl.logger)
}

func (ipl *InstrumentedParkingLot) changed(ctx context.Context) {
	if ipl.onChange != nil {
		ipl.onChange(ctx)
	}
}

func (ipl *InstrumentedParkingLot) TotalSpaces() int {
	return ipl.lot.TotalSpaces()
}

func (ipl *InstrumentedParkingLot) Rows() int {
	return ipl.lot.Rows()
}

func (ipl *InstrumentedParkingLot) SpacesPerRow() int {
	return ipl.lot.SpacesPerRow()
}

func (ipl *InstrumentedParkingLot) Available() int {
	ipl.mu.Lock()
	defer ipl.mu.Unlock()
	return ipl.lot.Available()
}

func (ipl *InstrumentedParkingLot) Park(ctx context.Context, row, col int, category Category, plate string) (*Vehicle, error) {
	tracer := ipl.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "parking_lot.park",
		trace.WithAttributes(
			attribute.Int("space.row", row),
			attribute.Int("space.col", col),
			attribute.String("vehicle.category", category.String()),
			attribute.String("vehicle.plate", plate),
		))
	defer span.End()

	start := time.Now()

	ipl.mu.Lock()
	vehicle, err := ipl.lot.Park(row, col, category, plate)
	available := ipl.lot.Available()
	ipl.mu.Unlock()

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "park"),
		attribute.String("vehicle_category", category.String()),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
		ipl.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
		ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))
		ipl.log(ctx).Info("park rejected", "row", row, "col", col, "plate", plate, "error", err)
		return nil, err
	}

	labels = append(labels, attribute.String("status", "success"))
	span.SetAttributes(attribute.Int("parking_lot.available", available))
	span.AddEvent("vehicle_parked")

	ipl.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.occupancyGauge.Add(ctx, 1)
	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	ipl.log(ctx).Info("vehicle parked",
		"row", row, "col", col, "category", category.String(), "plate", plate, "available", available)

	ipl.changed(ctx)
	return vehicle, nil
}

// Remove detaches the vehicle at (row, col) and prices its stay.
func (ipl *InstrumentedParkingLot) Remove(ctx context.Context, row, col int) (*Receipt, error) {
	tracer := ipl.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "parking_lot.remove",
		trace.WithAttributes(
			attribute.Int("space.row", row),
			attribute.Int("space.col", col),
		))
	defer span.End()

	start := time.Now()

	ipl.mu.Lock()
	vehicle, err := ipl.lot.Remove(row, col)
	exit := ipl.lot.now()
	available := ipl.lot.Available()
	ipl.mu.Unlock()

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "remove"),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
		ipl.removalOperations.Add(ctx, 1, metric.WithAttributes(labels...))
		ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))
		ipl.log(ctx).Info("remove rejected", "row", row, "col", col, "error", err)
		return nil, err
	}

	receipt := NewReceipt(vehicle, row, col, exit)
	amount := receipt.Amount.InexactFloat64()

	labels = append(labels,
		attribute.String("status", "success"),
		attribute.String("vehicle_category", vehicle.Category().String()),
	)
	span.SetAttributes(
		attribute.String("vehicle.category", vehicle.Category().String()),
		attribute.String("vehicle.plate", vehicle.Plate()),
		attribute.Int64("fare.hours", receipt.Hours),
		attribute.Float64("fare.amount", amount),
	)
	span.AddEvent("vehicle_removed")

	ipl.removalOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.occupancyGauge.Add(ctx, -1)
	ipl.revenue.Add(ctx, amount, metric.WithAttributes(
		attribute.String("vehicle_category", vehicle.Category().String()),
	))
	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	ipl.log(ctx).Info("vehicle removed",
		"row", row, "col", col, "plate", vehicle.Plate(),
		"hours", receipt.Hours, "fare", receipt.Amount.StringFixed(2), "available", available)

	ipl.changed(ctx)
	return receipt, nil
}

func (ipl *InstrumentedParkingLot) Inspect(ctx context.Context, row, col int) (*Vehicle, error) {
	tracer := ipl.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "parking_lot.inspect",
		trace.WithAttributes(
			attribute.Int("space.row", row),
			attribute.Int("space.col", col),
		))
	defer span.End()

	start := time.Now()

	ipl.mu.Lock()
	vehicle, err := ipl.lot.Inspect(row, col)
	ipl.mu.Unlock()

	labels := []attribute.KeyValue{
		attribute.String("operation", "inspect"),
	}

	if err != nil {
		span.AddEvent("space_empty_or_invalid")
		span.RecordError(err)
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		span.SetAttributes(attribute.String("vehicle.plate", vehicle.Plate()))
		labels = append(labels, attribute.String("status", "success"))
	}

	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return vehicle, err
}

func (ipl *InstrumentedParkingLot) IsAvailable(ctx context.Context, row, col int) (bool, error) {
	_, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.is_available",
		trace.WithAttributes(
			attribute.Int("space.row", row),
			attribute.Int("space.col", col),
		))
	defer span.End()

	ipl.mu.Lock()
	ok, err := ipl.lot.IsAvailable(row, col)
	ipl.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	span.SetAttributes(attribute.Bool("space.available", ok))
	return ok, nil
}

func (ipl *InstrumentedParkingLot) RenderRow(ctx context.Context, row int) (string, error) {
	_, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.render_row",
		trace.WithAttributes(attribute.Int("space.row", row)))
	defer span.End()

	ipl.mu.Lock()
	defer ipl.mu.Unlock()

	out, err := ipl.lot.RenderRow(row)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (ipl *InstrumentedParkingLot) Snapshot(ctx context.Context) Snapshot {
	tracer := ipl.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "parking_lot.snapshot")
	defer span.End()

	start := time.Now()

	ipl.mu.Lock()
	snapshot := ipl.lot.Snapshot()
	ipl.mu.Unlock()

	span.SetAttributes(
		attribute.Int("parking_lot.occupied", snapshot.Occupied),
		attribute.Int("parking_lot.total_spaces", snapshot.TotalSpaces),
	)

	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", "snapshot"),
		attribute.String("status", "success"),
	))

	return snapshot
}

func (ipl *InstrumentedParkingLot) FindByPlate(ctx context.Context, plate string) (int, int, error) {
	tracer := ipl.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "parking_lot.find_by_plate",
		trace.WithAttributes(
			attribute.String("vehicle.plate", plate),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("searching_by_plate")

	ipl.mu.Lock()
	row, col, err := ipl.lot.FindByPlate(plate)
	ipl.mu.Unlock()

	labels := []attribute.KeyValue{
		attribute.String("operation", "find_by_plate"),
	}

	if err != nil {
		span.AddEvent("vehicle_not_found")
		labels = append(labels, attribute.String("status", "not_found"))
	} else {
		span.AddEvent("vehicle_found", trace.WithAttributes(
			attribute.Int("space.row", row),
			attribute.Int("space.col", col),
		))
		labels = append(labels, attribute.String("status", "found"))
	}

	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return row, col, err
}

// retire takes this lot's spaces and vehicles out of the gauges when it is
// replaced.
func (ipl *InstrumentedParkingLot) retire(ctx context.Context) {
	ipl.mu.Lock()
	defer ipl.mu.Unlock()

	ipl.totalSpacesGauge.Add(ctx, -int64(ipl.lot.TotalSpaces()))
	ipl.occupancyGauge.Add(ctx, -int64(ipl.lot.Occupied()))
}
