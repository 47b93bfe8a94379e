package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"parking-grid/internal/config"
)

const entryTimeLayout = "01-02-2006 03:04 PM"

const shellHelp = `Commands:
  create_parking_lot <total_spaces> <rows>
  load_config <path>
  display
  park <row> <space> <car|truck|motorcycle> <plate>
  remove <row> <space>
  view <row> <space>
  available <row> <space>
  find <plate>
  help
  exit`

// InstrumentedShell reads one command per line and drives the garage.
type InstrumentedShell struct {
	garage    *Garage
	scanner   *bufio.Scanner
	out       io.Writer
	telemetry *TelemetryProvider
}

func NewInstrumentedShell(garage *Garage, in io.Reader, out io.Writer) *InstrumentedShell {
	return &InstrumentedShell{
		garage:    garage,
		scanner:   bufio.NewScanner(in),
		out:       out,
		telemetry: garage.Telemetry(),
	}
}

func (s *InstrumentedShell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for ctx.Err() == nil {
		if !s.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		// Create a new span for each command
		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))

		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *InstrumentedShell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *InstrumentedShell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}

func (s *InstrumentedShell) processCommand(ctx context.Context, input string) {
	tracer := s.telemetry.Tracer()
	_, span := tracer.Start(ctx, "shell.parse_command")
	defer span.End()

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := parts[0]
	span.SetAttributes(attribute.String("command.name", command))

	switch command {
	case "create_parking_lot":
		s.handleCreateParkingLot(ctx, parts)
	case "load_config":
		s.handleLoadConfig(ctx, parts)
	case "display":
		s.handleDisplay(ctx)
	case "park":
		s.handlePark(ctx, parts)
	case "remove":
		s.handleRemove(ctx, parts)
	case "view":
		s.handleView(ctx, parts)
	case "available":
		s.handleAvailable(ctx, parts)
	case "find":
		s.handleFind(ctx, parts)
	case "help":
		s.println(shellHelp)
	default:
		span.AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", command),
		))
		s.printf("Unknown command: %s\n", command)
	}
}

// activeLot prints the standard message when no lot exists yet.
func (s *InstrumentedShell) activeLot(span trace.Span) *InstrumentedParkingLot {
	lot, err := s.garage.Lot()
	if err != nil {
		span.AddEvent("parking_lot_not_created")
		s.println("Parking lot not created")
		return nil
	}
	return lot
}

func (s *InstrumentedShell) parsePosition(span trace.Span, rowArg, colArg string) (int, int, bool) {
	row, err := strconv.Atoi(rowArg)
	if err != nil {
		span.RecordError(fmt.Errorf("invalid row: %s", rowArg))
		s.println("Invalid row")
		return 0, 0, false
	}
	col, err := strconv.Atoi(colArg)
	if err != nil {
		span.RecordError(fmt.Errorf("invalid space: %s", colArg))
		s.println("Invalid space")
		return 0, 0, false
	}
	span.SetAttributes(attribute.Int("space.row", row), attribute.Int("space.col", col))
	return row, col, true
}

func (s *InstrumentedShell) configure(ctx context.Context, totalSpaces, rows int) {
	lot, err := s.garage.Configure(ctx, totalSpaces, rows)
	if err != nil {
		s.printf("Error: %s\n", err.Error())
		return
	}
	s.printf("Created a parking lot with %d spaces in %d rows of %d\n",
		lot.TotalSpaces(), lot.Rows(), lot.SpacesPerRow())
}

func (s *InstrumentedShell) handleCreateParkingLot(ctx context.Context, parts []string) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.create_parking_lot")
	defer span.End()

	if len(parts) != 3 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: create_parking_lot <total_spaces> <rows>")
		return
	}

	totalSpaces, err := strconv.Atoi(parts[1])
	if err != nil {
		span.RecordError(fmt.Errorf("invalid total_spaces: %s", parts[1]))
		s.println("Invalid total_spaces")
		return
	}
	rows, err := strconv.Atoi(parts[2])
	if err != nil {
		span.RecordError(fmt.Errorf("invalid rows: %s", parts[2]))
		s.println("Invalid rows")
		return
	}

	s.configure(ctx, totalSpaces, rows)
}

func (s *InstrumentedShell) handleLoadConfig(ctx context.Context, parts []string) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.load_config")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: load_config <path>")
		return
	}

	lot, err := config.LoadLotFile(parts[1])
	if err != nil {
		span.RecordError(err)
		s.printf("Error: %s\n", err.Error())
		return
	}

	s.configure(ctx, lot.TotalSpaces, lot.Rows)
}

func (s *InstrumentedShell) handleDisplay(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.display_command")
	defer span.End()

	lot := s.activeLot(span)
	if lot == nil {
		return
	}

	snapshot := lot.Snapshot(ctx)
	s.printf("SPOTS AVAILABLE: %d\n", snapshot.Available)
	for _, line := range snapshot.Grid {
		s.println(line)
	}
}

func (s *InstrumentedShell) handlePark(ctx context.Context, parts []string) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.park_command")
	defer span.End()

	lot := s.activeLot(span)
	if lot == nil {
		return
	}

	if len(parts) != 5 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: park <row> <space> <car|truck|motorcycle> <plate>")
		return
	}

	row, col, ok := s.parsePosition(span, parts[1], parts[2])
	if !ok {
		return
	}

	category, err := ParseCategory(parts[3])
	if err != nil {
		span.RecordError(err)
		s.println("Invalid vehicle type")
		return
	}

	if _, err := lot.Park(ctx, row, col, category, parts[4]); err != nil {
		span.AddEvent("parking_failed")
		s.println("Error: Space is not available or already occupied!")
		return
	}

	span.AddEvent("parking_successful")
	s.println("Vehicle Parked Successfully!")
}

func (s *InstrumentedShell) handleRemove(ctx context.Context, parts []string) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.remove_command")
	defer span.End()

	lot := s.activeLot(span)
	if lot == nil {
		return
	}

	if len(parts) != 3 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: remove <row> <space>")
		return
	}

	row, col, ok := s.parsePosition(span, parts[1], parts[2])
	if !ok {
		return
	}

	receipt, err := lot.Remove(ctx, row, col)
	if err != nil {
		span.AddEvent("remove_failed")
		s.printError(err)
		return
	}

	span.AddEvent("remove_successful")
	s.printf("Vehicle %s removed. Total Fare: $%s\n", receipt.Vehicle.Plate(), receipt.Amount.StringFixed(2))
}

func (s *InstrumentedShell) handleView(ctx context.Context, parts []string) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.view_command")
	defer span.End()

	lot := s.activeLot(span)
	if lot == nil {
		return
	}

	if len(parts) != 3 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: view <row> <space>")
		return
	}

	row, col, ok := s.parsePosition(span, parts[1], parts[2])
	if !ok {
		return
	}

	vehicle, err := lot.Inspect(ctx, row, col)
	if err != nil {
		s.printError(err)
		return
	}

	s.printf("Vehicle Type: %s\nPlate: %s\nEntry Time: %s\n",
		vehicle.Category(), vehicle.Plate(), vehicle.EntryTime().Local().Format(entryTimeLayout))
}

func (s *InstrumentedShell) handleAvailable(ctx context.Context, parts []string) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.available_command")
	defer span.End()

	lot := s.activeLot(span)
	if lot == nil {
		return
	}

	if len(parts) != 3 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: available <row> <space>")
		return
	}

	row, col, ok := s.parsePosition(span, parts[1], parts[2])
	if !ok {
		return
	}

	available, err := lot.IsAvailable(ctx, row, col)
	if err != nil {
		s.printError(err)
		return
	}
	s.println(available)
}

func (s *InstrumentedShell) handleFind(ctx context.Context, parts []string) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.find_by_plate")
	defer span.End()

	lot := s.activeLot(span)
	if lot == nil {
		return
	}

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		s.println("Usage: find <plate>")
		return
	}

	row, col, err := lot.FindByPlate(ctx, parts[1])
	if err != nil {
		span.AddEvent("vehicle_not_found")
		s.println("Not found")
		return
	}

	s.printf("%d %d\n", row, col)
}

func (s *InstrumentedShell) printError(err error) {
	if errors.Is(err, ErrNotOccupied) {
		s.println("Error: No vehicle in the selected space!")
		return
	}
	s.printf("Error: %s\n", err.Error())
}
