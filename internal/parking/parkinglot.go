package parking

import (
	"fmt"
	"strings"
	"time"
)

// ParkingLot is the grid of spaces. It is not safe for concurrent use; see
// InstrumentedParkingLot for the serialized wrapper.
//
// spacesPerRow is totalSpaces/rows rounded down. When rows does not divide
// totalSpaces the trailing spaces are allocated and counted as available but
// no (row, col) pair reaches them.
type ParkingLot struct {
	totalSpaces  int
	rows         int
	spacesPerRow int
	available    int
	spaces       []*Space
	now          func() time.Time
	strict       bool
}

type Option func(*ParkingLot)

// WithClock sets the clock used to stamp vehicle entry times.
func WithClock(now func() time.Time) Option {
	return func(pl *ParkingLot) {
		pl.now = now
	}
}

// WithStrictLayout rejects layouts where rows does not divide total spaces.
func WithStrictLayout() Option {
	return func(pl *ParkingLot) {
		pl.strict = true
	}
}

func NewParkingLot(totalSpaces, rows int, opts ...Option) (*ParkingLot, error) {
	pl := &ParkingLot{
		totalSpaces: totalSpaces,
		rows:        rows,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(pl)
	}

	if totalSpaces <= 0 {
		return nil, fmt.Errorf("%w: total_spaces must be greater than 0, got %d", ErrConfig, totalSpaces)
	}
	if rows <= 0 {
		return nil, fmt.Errorf("%w: rows must be greater than 0, got %d", ErrConfig, rows)
	}
	if totalSpaces < rows {
		return nil, fmt.Errorf("%w: %d spaces cannot fill %d rows", ErrConfig, totalSpaces, rows)
	}
	if pl.strict && totalSpaces%rows != 0 {
		return nil, fmt.Errorf("%w: %d spaces do not divide evenly into %d rows", ErrConfig, totalSpaces, rows)
	}

	pl.spacesPerRow = totalSpaces / rows
	pl.available = totalSpaces
	pl.spaces = make([]*Space, totalSpaces)
	for i := 0; i < totalSpaces; i++ {
		pl.spaces[i] = NewSpace(i/pl.spacesPerRow, i%pl.spacesPerRow)
	}

	return pl, nil
}

func (pl *ParkingLot) TotalSpaces() int {
	return pl.totalSpaces
}

func (pl *ParkingLot) Rows() int {
	return pl.rows
}

func (pl *ParkingLot) SpacesPerRow() int {
	return pl.spacesPerRow
}

func (pl *ParkingLot) Available() int {
	return pl.available
}

func (pl *ParkingLot) Occupied() int {
	return pl.totalSpaces - pl.available
}

func (pl *ParkingLot) Index(row, col int) (int, error) {
	if row < 0 || row >= pl.rows {
		return 0, fmt.Errorf("%w: row %d not in [0, %d)", ErrIndex, row, pl.rows)
	}
	if col < 0 || col >= pl.spacesPerRow {
		return 0, fmt.Errorf("%w: space %d not in [0, %d)", ErrIndex, col, pl.spacesPerRow)
	}
	return row*pl.spacesPerRow + col, nil
}

func (pl *ParkingLot) Space(row, col int) (*Space, error) {
	idx, err := pl.Index(row, col)
	if err != nil {
		return nil, err
	}
	return pl.spaces[idx], nil
}

// Park places a new vehicle in the space at (row, col). The occupied check
// and the lot-wide availability check are independent guards.
func (pl *ParkingLot) Park(row, col int, category Category, plate string) (*Vehicle, error) {
	space, err := pl.Space(row, col)
	if err != nil {
		return nil, err
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(category))
	}
	if !space.IsAvailable() {
		return nil, fmt.Errorf("%w: row %d space %d", ErrOccupied, row, col)
	}
	if pl.available <= 0 {
		return nil, ErrNoAvailability
	}

	vehicle := NewVehicle(category, plate, pl.now())
	space.Park(vehicle)
	pl.available--

	return vehicle, nil
}

func (pl *ParkingLot) Remove(row, col int) (*Vehicle, error) {
	space, err := pl.Space(row, col)
	if err != nil {
		return nil, err
	}
	if space.IsAvailable() {
		return nil, fmt.Errorf("%w: row %d space %d", ErrNotOccupied, row, col)
	}

	vehicle := space.Leave()
	pl.available++

	return vehicle, nil
}

// Inspect returns the vehicle in the space. The pointer is shared with the
// lot and stays valid until the vehicle is removed.
func (pl *ParkingLot) Inspect(row, col int) (*Vehicle, error) {
	space, err := pl.Space(row, col)
	if err != nil {
		return nil, err
	}
	if space.IsAvailable() {
		return nil, fmt.Errorf("%w: row %d space %d", ErrNotOccupied, row, col)
	}
	return space.Vehicle(), nil
}

func (pl *ParkingLot) IsAvailable(row, col int) (bool, error) {
	space, err := pl.Space(row, col)
	if err != nil {
		return false, err
	}
	return space.IsAvailable(), nil
}

// RenderRow draws one row as "|[ ] [c] [t]|".
func (pl *ParkingLot) RenderRow(row int) (string, error) {
	if row < 0 || row >= pl.rows {
		return "", fmt.Errorf("%w: row %d not in [0, %d)", ErrIndex, row, pl.rows)
	}

	cells := make([]string, 0, pl.spacesPerRow)
	start := row * pl.spacesPerRow
	for _, space := range pl.spaces[start : start+pl.spacesPerRow] {
		if space.IsAvailable() {
			cells = append(cells, "[ ]")
			continue
		}
		cells = append(cells, "["+space.Vehicle().Category().Code()+"]")
	}

	return "|" + strings.Join(cells, " ") + "|", nil
}

func (pl *ParkingLot) Render() string {
	lines := make([]string, pl.rows)
	for row := 0; row < pl.rows; row++ {
		lines[row], _ = pl.RenderRow(row)
	}
	return strings.Join(lines, "\n")
}

// OccupiedSpaces lists occupied addressable spaces in grid order.
func (pl *ParkingLot) OccupiedSpaces() []*Space {
	var occupied []*Space
	for _, space := range pl.spaces[:pl.rows*pl.spacesPerRow] {
		if !space.IsAvailable() {
			occupied = append(occupied, space)
		}
	}
	return occupied
}

func (pl *ParkingLot) FindByPlate(plate string) (int, int, error) {
	for _, space := range pl.OccupiedSpaces() {
		if space.Vehicle().Plate() == plate {
			return space.Row, space.Col, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %s", ErrVehicleNotFound, plate)
}

type SpaceView struct {
	Row       int
	Col       int
	Occupied  bool
	Category  Category
	Plate     string
	EntryTime time.Time
}

// Snapshot is a copy of the lot state that can be read without holding
// any lock. Spaces lists the addressable spaces in grid order.
type Snapshot struct {
	TotalSpaces  int
	Rows         int
	SpacesPerRow int
	Available    int
	Occupied     int
	Spaces       []SpaceView
	Grid         []string
}

func (pl *ParkingLot) Snapshot() Snapshot {
	snapshot := Snapshot{
		TotalSpaces:  pl.totalSpaces,
		Rows:         pl.rows,
		SpacesPerRow: pl.spacesPerRow,
		Available:    pl.available,
		Occupied:     pl.Occupied(),
		Spaces:       make([]SpaceView, 0, pl.rows*pl.spacesPerRow),
		Grid:         make([]string, 0, pl.rows),
	}

	for _, space := range pl.spaces[:pl.rows*pl.spacesPerRow] {
		view := SpaceView{Row: space.Row, Col: space.Col, Occupied: !space.IsAvailable()}
		if v := space.Vehicle(); v != nil {
			view.Category = v.Category()
			view.Plate = v.Plate()
			view.EntryTime = v.EntryTime()
		}
		snapshot.Spaces = append(snapshot.Spaces, view)
	}
	for row := 0; row < pl.rows; row++ {
		line, _ := pl.RenderRow(row)
		snapshot.Grid = append(snapshot.Grid, line)
	}

	return snapshot
}
