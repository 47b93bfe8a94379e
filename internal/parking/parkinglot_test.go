package parking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// countAvailable recomputes availability from the grid, including spaces no
// (row, col) pair can reach.
func countAvailable(pl *ParkingLot) int {
	n := 0
	for _, space := range pl.spaces {
		if space.IsAvailable() {
			n++
		}
	}
	return n
}

func TestNewParkingLot(t *testing.T) {
	pl, err := NewParkingLot(6, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}

	if pl.TotalSpaces() != 6 {
		t.Errorf("Expected total spaces %d, got %d", 6, pl.TotalSpaces())
	}
	if pl.SpacesPerRow() != 3 {
		t.Errorf("Expected %d spaces per row, got %d", 3, pl.SpacesPerRow())
	}
	if pl.Available() != 6 {
		t.Errorf("Expected %d available, got %d", 6, pl.Available())
	}

	for row := 0; row < pl.Rows(); row++ {
		for col := 0; col < pl.SpacesPerRow(); col++ {
			ok, err := pl.IsAvailable(row, col)
			if err != nil || !ok {
				t.Errorf("Expected space (%d, %d) to be available", row, col)
			}
		}
	}
}

func TestNewParkingLotRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		total, rows int
	}{
		{0, 1},
		{-3, 1},
		{5, 0},
		{5, -2},
		{2, 3},
	}
	for _, c := range cases {
		_, err := NewParkingLot(c.total, c.rows)
		assert.ErrorIs(t, err, ErrConfig, "total=%d rows=%d", c.total, c.rows)
	}
}

func TestNewParkingLotTruncatedLayout(t *testing.T) {
	pl, err := NewParkingLot(10, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, pl.SpacesPerRow())
	assert.Equal(t, 10, pl.TotalSpaces())
	assert.Equal(t, 10, pl.Available())

	// Only nine spaces are addressable; the tenth has no (row, col).
	addressable := 0
	for row := 0; row < pl.Rows(); row++ {
		for col := 0; col < pl.SpacesPerRow(); col++ {
			idx, err := pl.Index(row, col)
			require.NoError(t, err)
			assert.Less(t, idx, 9)
			addressable++
		}
	}
	assert.Equal(t, 9, addressable)

	_, err = pl.Index(3, 0)
	assert.ErrorIs(t, err, ErrIndex)
	_, err = pl.Index(2, 3)
	assert.ErrorIs(t, err, ErrIndex)

	// Filling every addressable space leaves the unreachable one counted.
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			_, err := pl.Park(row, col, Car, "P")
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 1, pl.Available())
	assert.Equal(t, countAvailable(pl), pl.Available())
}

func TestNewParkingLotStrictLayout(t *testing.T) {
	_, err := NewParkingLot(10, 3, WithStrictLayout())
	assert.ErrorIs(t, err, ErrConfig)

	pl, err := NewParkingLot(9, 3, WithStrictLayout())
	require.NoError(t, err)
	assert.Equal(t, 3, pl.SpacesPerRow())
}

func TestParkingLotIndex(t *testing.T) {
	pl, err := NewParkingLot(12, 3)
	require.NoError(t, err)

	idx, err := pl.Index(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 9, idx)

	for _, rc := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 4}} {
		_, err := pl.Index(rc[0], rc[1])
		assert.ErrorIs(t, err, ErrIndex, "row=%d col=%d", rc[0], rc[1])
	}
}

func TestParkingLotParkAndInspect(t *testing.T) {
	pl, err := NewParkingLot(4, 2)
	require.NoError(t, err)

	before := time.Now()
	vehicle, err := pl.Park(1, 0, Car, "ABC123")
	require.NoError(t, err)

	inspected, err := pl.Inspect(1, 0)
	require.NoError(t, err)
	assert.Same(t, vehicle, inspected)
	assert.Equal(t, Car, inspected.Category())
	assert.Equal(t, "ABC123", inspected.Plate())
	assert.False(t, inspected.EntryTime().Before(before))

	ok, err := pl.IsAvailable(1, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, pl.Available())
}

func TestParkingLotParkUsesClock(t *testing.T) {
	entry := time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC)
	pl, err := NewParkingLot(2, 1, WithClock(fixedClock(entry)))
	require.NoError(t, err)

	vehicle, err := pl.Park(0, 1, Truck, "TRK-9")
	require.NoError(t, err)
	assert.True(t, vehicle.EntryTime().Equal(entry))
}

func TestParkingLotParkOccupied(t *testing.T) {
	pl, err := NewParkingLot(4, 2)
	require.NoError(t, err)

	first, err := pl.Park(0, 0, Car, "FIRST")
	require.NoError(t, err)

	_, err = pl.Park(0, 0, Truck, "SECOND")
	assert.ErrorIs(t, err, ErrOccupied)

	// State unchanged.
	assert.Equal(t, 3, pl.Available())
	inspected, err := pl.Inspect(0, 0)
	require.NoError(t, err)
	assert.Same(t, first, inspected)
}

func TestParkingLotParkInvalid(t *testing.T) {
	pl, err := NewParkingLot(4, 2)
	require.NoError(t, err)

	_, err = pl.Park(5, 0, Car, "X")
	assert.ErrorIs(t, err, ErrIndex)

	_, err = pl.Park(0, 0, Category(9), "X")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	assert.Equal(t, 4, pl.Available())
}

func TestParkingLotNoAvailabilityGuard(t *testing.T) {
	pl, err := NewParkingLot(2, 1)
	require.NoError(t, err)

	// Force the counter out of step with the grid to exercise the lot-wide
	// guard on its own.
	pl.available = 0

	_, err = pl.Park(0, 0, Car, "X")
	assert.True(t, errors.Is(err, ErrNoAvailability))

	ok, err := pl.IsAvailable(0, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParkingLotFull(t *testing.T) {
	pl, err := NewParkingLot(2, 1)
	require.NoError(t, err)

	_, err = pl.Park(0, 0, Car, "A")
	require.NoError(t, err)
	_, err = pl.Park(0, 1, Motorcycle, "B")
	require.NoError(t, err)

	assert.Equal(t, 0, pl.Available())
	_, err = pl.Park(0, 1, Car, "C")
	assert.ErrorIs(t, err, ErrOccupied)
}

func TestParkingLotRemove(t *testing.T) {
	pl, err := NewParkingLot(4, 2)
	require.NoError(t, err)

	parked, err := pl.Park(1, 1, Motorcycle, "MOTO")
	require.NoError(t, err)

	removed, err := pl.Remove(1, 1)
	require.NoError(t, err)
	assert.Same(t, parked, removed)
	assert.Equal(t, 4, pl.Available())

	ok, err := pl.IsAvailable(1, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = pl.Inspect(1, 1)
	assert.ErrorIs(t, err, ErrNotOccupied)
}

func TestParkingLotRemoveEmpty(t *testing.T) {
	pl, err := NewParkingLot(4, 2)
	require.NoError(t, err)
	_, err = pl.Park(0, 0, Car, "KEEP")
	require.NoError(t, err)

	_, err = pl.Remove(0, 1)
	assert.ErrorIs(t, err, ErrNotOccupied)
	assert.Equal(t, 3, pl.Available())

	_, err = pl.Remove(2, 0)
	assert.ErrorIs(t, err, ErrIndex)
}

func TestParkingLotReuseAfterRemove(t *testing.T) {
	pl, err := NewParkingLot(3, 1)
	require.NoError(t, err)

	_, err = pl.Park(0, 2, Car, "ONE")
	require.NoError(t, err)
	_, err = pl.Remove(0, 2)
	require.NoError(t, err)

	vehicle, err := pl.Park(0, 2, Truck, "TWO")
	require.NoError(t, err)
	assert.Equal(t, "TWO", vehicle.Plate())
}

func TestParkingLotAvailabilityInvariant(t *testing.T) {
	pl, err := NewParkingLot(9, 3)
	require.NoError(t, err)

	ops := []struct {
		park     bool
		row, col int
	}{
		{true, 0, 0}, {true, 0, 0}, {true, 1, 2}, {false, 2, 2},
		{true, 2, 2}, {false, 0, 0}, {false, 0, 0}, {true, 0, 1},
		{false, 1, 2}, {true, 1, 2}, {true, 5, 5}, {false, -1, 0},
	}

	for _, op := range ops {
		if op.park {
			_, _ = pl.Park(op.row, op.col, Car, "P")
		} else {
			_, _ = pl.Remove(op.row, op.col)
		}
		assert.Equal(t, countAvailable(pl), pl.Available())
	}
	assert.Equal(t, 6, pl.Available())
}

func TestParkingLotRenderRow(t *testing.T) {
	pl, err := NewParkingLot(8, 2)
	require.NoError(t, err)

	_, err = pl.Park(0, 0, Car, "C1")
	require.NoError(t, err)
	_, err = pl.Park(0, 2, Truck, "T1")
	require.NoError(t, err)
	_, err = pl.Park(1, 3, Motorcycle, "M1")
	require.NoError(t, err)

	row0, err := pl.RenderRow(0)
	require.NoError(t, err)
	assert.Equal(t, "|[c] [ ] [t] [ ]|", row0)

	row1, err := pl.RenderRow(1)
	require.NoError(t, err)
	assert.Equal(t, "|[ ] [ ] [ ] [m]|", row1)

	assert.Equal(t, row0+"\n"+row1, pl.Render())

	_, err = pl.RenderRow(2)
	assert.ErrorIs(t, err, ErrIndex)
}

func TestParkingLotOccupiedSpaces(t *testing.T) {
	pl, err := NewParkingLot(6, 2)
	require.NoError(t, err)

	_, _ = pl.Park(1, 2, Car, "B")
	_, _ = pl.Park(0, 1, Car, "A")

	occupied := pl.OccupiedSpaces()
	require.Len(t, occupied, 2)
	assert.Equal(t, "A", occupied[0].Vehicle().Plate())
	assert.Equal(t, "B", occupied[1].Vehicle().Plate())
}

func TestParkingLotFindByPlate(t *testing.T) {
	pl, err := NewParkingLot(6, 2)
	require.NoError(t, err)
	_, _ = pl.Park(1, 1, Truck, "KA01HH9999")

	row, col, err := pl.FindByPlate("KA01HH9999")
	require.NoError(t, err)
	assert.Equal(t, 1, row)
	assert.Equal(t, 1, col)

	_, _, err = pl.FindByPlate("NOTFOUND")
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestParkingLotSnapshot(t *testing.T) {
	entry := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	pl, err := NewParkingLot(7, 2, WithClock(fixedClock(entry)))
	require.NoError(t, err)
	_, err = pl.Park(1, 2, Truck, "TRK")
	require.NoError(t, err)

	snap := pl.Snapshot()

	assert.Equal(t, 7, snap.TotalSpaces)
	assert.Equal(t, 3, snap.SpacesPerRow)
	assert.Equal(t, 6, snap.Available)
	assert.Equal(t, 1, snap.Occupied)
	require.Len(t, snap.Spaces, 6)
	assert.Equal(t, SpaceView{Row: 1, Col: 2, Occupied: true, Category: Truck, Plate: "TRK", EntryTime: entry}, snap.Spaces[5])
	assert.False(t, snap.Spaces[0].Occupied)
	assert.Equal(t, []string{"|[ ] [ ] [ ]|", "|[ ] [ ] [t]|"}, snap.Grid)

	// The snapshot is detached from later changes.
	_, err = pl.Remove(1, 2)
	require.NoError(t, err)
	assert.True(t, snap.Spaces[5].Occupied)
}
